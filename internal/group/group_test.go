package group

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/motion"
	"github.com/san-kum/dynmotion/internal/spring"
)

var _ = Describe("Group", func() {
	var (
		clock *frame.Manual
		g     *Group
	)

	BeforeEach(func() {
		clock = frame.NewManual()
		var err error
		g, err = New(clock, map[string]float64{"x": 0, "y": 0, "opacity": 1}, motion.DefaultConfig(), nil)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		g.Destroy()
		Expect(clock.Pending()).To(Equal(0))
	})

	It("starts at rest with the initial snapshot", func() {
		Expect(g.Get()).To(Equal(map[string]float64{"x": 0, "y": 0, "opacity": 1}))
		Expect(g.IsAnimating()).To(BeFalse())
		Expect(g.Keys()).To(Equal([]string{"opacity", "x", "y"}))
	})

	It("coalesces member updates into one snapshot per frame", func() {
		var snaps []map[string]float64
		g.Subscribe(func(s map[string]float64) { snaps = append(snaps, s) })
		Expect(g.Set(map[string]float64{"x": 100, "y": 50, "opacity": 0}, nil)).To(Succeed())

		for i := 0; i < 5; i++ {
			clock.Step()
		}

		Expect(snaps).To(HaveLen(6))
		last := snaps[len(snaps)-1]
		Expect(last["x"]).To(BeNumerically(">", 0))
		Expect(last["y"]).To(BeNumerically(">", 0))
		Expect(last["opacity"]).To(BeNumerically("<", 1))
	})

	It("retargets a subset without disturbing the other members", func() {
		Expect(g.Set(map[string]float64{"x": 100, "y": 100}, nil)).To(Succeed())
		clock.Advance(100 * time.Millisecond)
		vy, _ := g.Velocity("y")
		y := g.Get()["y"]

		Expect(g.Set(map[string]float64{"x": -100}, nil)).To(Succeed())

		vy2, _ := g.Velocity("y")
		Expect(vy2).To(Equal(vy))
		Expect(g.Get()["y"]).To(Equal(y))
	})

	It("rejects unknown keys", func() {
		Expect(g.Set(map[string]float64{"z": 1}, nil)).To(MatchError(ErrUnknownKey))
		Expect(g.Jump(map[string]float64{"z": 1})).To(MatchError(ErrUnknownKey))
		Expect(g.IsAnimating()).To(BeFalse())
	})

	It("applies a physics override to the retargeted keys", func() {
		override := motion.DefaultConfig().WithSpring(spring.Config{Stiffness: 900, Damping: 60})
		Expect(g.Set(map[string]float64{"x": 100, "y": 100}, nil)).To(Succeed())
		Expect(g.Set(map[string]float64{"x": 100}, &override)).To(Succeed())
		clock.Step()
		Expect(g.Get()["x"]).To(BeNumerically(">", g.Get()["y"]))
	})

	It("resolves Finished once every member rests", func() {
		rests := 0
		g.On(motion.EventRest, func() { rests++ })
		Expect(g.Set(map[string]float64{"x": 10, "y": 500}, nil)).To(Succeed())
		Expect(clock.RunUntil(g.Finished().IsDone, 2000)).To(BeTrue())

		Expect(g.Get()["x"]).To(Equal(10.0))
		Expect(g.Get()["y"]).To(Equal(500.0))
		Expect(rests).To(Equal(1))
	})

	It("jumps synchronously", func() {
		var last map[string]float64
		g.Subscribe(func(s map[string]float64) { last = s })
		Expect(g.Jump(map[string]float64{"x": 3})).To(Succeed())
		Expect(last["x"]).To(Equal(3.0))
	})

	It("supports per-key overrides at construction", func() {
		slow := motion.DefaultConfig().WithSpring(spring.Config{Stiffness: 10, Damping: 6})
		h, err := New(clock, map[string]float64{"a": 0, "b": 0}, motion.DefaultConfig(), map[string]motion.Config{"b": slow})
		Expect(err).NotTo(HaveOccurred())
		defer h.Destroy()

		Expect(h.Set(map[string]float64{"a": 100, "b": 100}, nil)).To(Succeed())
		clock.Advance(200 * time.Millisecond)
		Expect(h.Get()["a"]).To(BeNumerically(">", h.Get()["b"]))
	})

	It("fails fast on an invalid member config", func() {
		bad := motion.DefaultConfig()
		bad.Mass = -1
		_, err := New(clock, map[string]float64{"a": 0}, bad, nil)
		Expect(err).To(MatchError(spring.ErrInvalidConfig))
	})

	It("leaves no frame callbacks after Destroy mid-flight", func() {
		calls := 0
		g.Subscribe(func(map[string]float64) { calls++ })
		Expect(g.Set(map[string]float64{"x": 100}, nil)).To(Succeed())
		clock.Step()

		g.Destroy()
		g.Destroy()
		before := calls
		clock.Advance(time.Second)

		Expect(calls).To(Equal(before))
		Expect(clock.Pending()).To(Equal(0))
		Expect(g.Finished().Err()).To(MatchError(motion.ErrDestroyed))
		Expect(g.Set(map[string]float64{"x": 1}, nil)).To(Succeed())
	})
})
