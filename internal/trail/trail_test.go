package trail

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/motion"
)

var _ = Describe("Trail", func() {
	var clock *frame.Manual

	BeforeEach(func() {
		clock = frame.NewManual()
	})

	It("rejects an empty trail", func() {
		_, err := New(clock, 0, 0, motion.DefaultConfig())
		Expect(err).To(MatchError(ErrEmpty))
	})

	It("stays idle until Set", func() {
		t, err := New(clock, 3, 0, motion.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(t.IsAnimating()).To(BeFalse())
		Expect(clock.Pending()).To(Equal(0))
	})

	It("only feeds the external target to the leader", func() {
		t, err := New(clock, 3, 0, motion.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())

		t.Set(100)

		Expect(t.Follower(0).Target()).To(Equal(100.0))
		Expect(t.Follower(1).Target()).To(Equal(0.0))
		Expect(t.Follower(2).Target()).To(Equal(0.0))

		clock.Step()
		Expect(t.Follower(1).Target()).To(Equal(t.Follower(0).Value()))
		Expect(t.Follower(2).Target()).NotTo(Equal(100.0))
	})

	It("cascades: each follower lags the previous one", func() {
		t, err := New(clock, 3, 0, motion.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		t.Set(100)
		clock.Advance(150 * time.Millisecond)

		vals := t.Values()
		Expect(vals[0]).To(BeNumerically(">", vals[1]))
		Expect(vals[1]).To(BeNumerically(">", vals[2]))
	})

	It("settles followers in order and resolves once all rest", func() {
		rests := 0
		cfg := motion.DefaultConfig()
		cfg.OnRest = func() { rests++ }
		t, err := New(clock, 3, 0, cfg)
		Expect(err).NotTo(HaveOccurred())

		t.Set(100)
		Expect(clock.RunUntil(t.Finished().IsDone, 5000)).To(BeTrue())

		Expect(t.Values()).To(Equal([]float64{100, 100, 100}))
		frames := t.SettleFrames()
		Expect(frames[0]).To(BeNumerically("<=", frames[1]))
		Expect(frames[1]).To(BeNumerically("<=", frames[2]))
		Expect(rests).To(Equal(1))
		Expect(clock.Pending()).To(Equal(0))
	})

	It("emits the ordered values once per frame", func() {
		t, err := New(clock, 4, 0, motion.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		var emitted [][]float64
		t.Subscribe(func(v []float64) { emitted = append(emitted, v) })

		t.Set(10)
		clock.Step()
		clock.Step()

		Expect(emitted).To(HaveLen(3))
		for _, e := range emitted {
			Expect(e).To(HaveLen(4))
		}
	})

	It("jumps every follower", func() {
		t, err := New(clock, 3, 0, motion.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		t.Set(100)
		clock.Step()
		t.Jump(5)
		Expect(t.Values()).To(Equal([]float64{5, 5, 5}))
		Expect(t.IsAnimating()).To(BeFalse())
		Expect(t.Finished().IsDone()).To(BeTrue())
	})

	It("jumps idle followers without lifecycle events", func() {
		t, err := New(clock, 3, 0, motion.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		starts, rests := 0, 0
		for i := 0; i < t.Len(); i++ {
			t.Follower(i).On(motion.EventStart, func() { starts++ })
			t.Follower(i).On(motion.EventRest, func() { rests++ })
		}

		t.Jump(50)

		Expect(t.Values()).To(Equal([]float64{50, 50, 50}))
		Expect(starts).To(BeZero())
		Expect(rests).To(BeZero())
		Expect(t.SettleFrames()).To(Equal([]int{0, 0, 0}))
		Expect(clock.Pending()).To(Equal(0))
	})

	It("leaves nothing scheduled after Destroy", func() {
		t, err := New(clock, 5, 0, motion.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		calls := 0
		t.Subscribe(func([]float64) { calls++ })
		t.Set(100)
		clock.Step()

		t.Destroy()
		t.Destroy()
		t.Set(3)
		before := calls
		clock.Advance(time.Second)

		Expect(calls).To(Equal(before))
		Expect(clock.Pending()).To(Equal(0))
	})
})
