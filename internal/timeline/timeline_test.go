package timeline

import (
	"math"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tanema/gween/ease"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/spring"
)

var _ = ginkgo.Describe("Timeline", func() {
	var (
		clock  *frame.Manual
		tl     *Timeline
		counts map[string]int
	)

	ginkgo.BeforeEach(func() {
		clock = frame.NewManual()
		counts = map[string]int{}
		tl = New(clock, Callbacks{
			OnPlay:            func() { counts["play"]++ },
			OnPause:           func() { counts["pause"]++ },
			OnComplete:        func() { counts["complete"]++ },
			OnReverseComplete: func() { counts["reverse"]++ },
			OnUpdate:          func(float64) { counts["update"]++ },
		})
	})

	ginkgo.AfterEach(func() {
		tl.Kill()
		Expect(clock.Pending()).To(Equal(0))
	})

	build := func() {
		Expect(tl.Set("box", map[string]float64{"x": 0, "opacity": 1})).To(Succeed())
		_, err := tl.To("box", map[string]float64{"x": 100}, At(0))
		Expect(err).NotTo(HaveOccurred())
		_, err = tl.To("box", map[string]float64{"opacity": 0}, After(-0.2))
		Expect(err).NotTo(HaveOccurred())
		_, err = tl.To("card", map[string]float64{"y": 50, "scale": 2}, At(0.3), WithSpring(spring.Config{Stiffness: 200, Damping: 20}))
		Expect(err).NotTo(HaveOccurred())
		_, err = tl.To("card", map[string]float64{"y": 0}, After(0), WithEase(ease.OutCubic, 0.5))
		Expect(err).NotTo(HaveOccurred())
	}

	ginkgo.It("lays tracks out by absolute, relative and label positions", func() {
		first, err := tl.To("a", map[string]float64{"x": 10}, At(0.5), Labelled("intro"))
		Expect(err).NotTo(HaveOccurred())
		Expect(first.Start).To(Equal(0.5))
		Expect(first.Duration).To(BeNumerically(">", 0))

		second, err := tl.To("b", map[string]float64{"x": 10}, After(0.25))
		Expect(err).NotTo(HaveOccurred())
		Expect(second.Start).To(BeNumerically("~", first.End()+0.25, 1e-12))

		third, err := tl.To("c", map[string]float64{"x": 10}, Label("intro").Offset(0.1))
		Expect(err).NotTo(HaveOccurred())
		Expect(third.Start).To(BeNumerically("~", 0.6, 1e-12))

		Expect(tl.AddLabel("outro", After(0))).To(Succeed())
		Expect(tl.Labels()["outro"]).To(Equal(tl.Duration()))

		_, err = tl.To("d", map[string]float64{"x": 1}, Label("missing"))
		Expect(err).To(MatchError(ErrUnknownLabel))
	})

	ginkgo.It("gives seek the same values no matter what came before", func() {
		build()
		Expect(len(tl.Tracks())).To(BeNumerically(">=", 3))
		half := 0.5 * tl.Duration()

		tl.Seek(half)
		first := tl.Values()
		tl.Seek(half)
		second := tl.Values()
		Expect(second).To(Equal(first))

		tl.Seek(tl.Duration())
		tl.Seek(0.1)
		tl.Seek(half)
		Expect(tl.Values()).To(Equal(first))
		Expect(tl.ValuesAt(half)).To(Equal(first))
	})

	ginkgo.It("matches a frame-by-frame spring at every seek", func() {
		cfg := spring.DefaultConfig()
		_, err := tl.To("v", map[string]float64{"x": 100}, At(0), WithSpring(cfg))
		Expect(err).NotTo(HaveOccurred())

		x, v := 0.0, 0.0
		for n := 1; n <= 30; n++ {
			x, v, _ = spring.Step(x, v, 100, cfg)
		}
		tl.Seek(30 * spring.Dt)
		Expect(tl.Values()["v"]["x"]).To(Equal(x))
	})

	ginkgo.It("plays forward to the end and completes once", func() {
		build()
		tl.Play()
		Expect(tl.State()).To(Equal(StatePlaying))

		Expect(clock.RunUntil(func() bool { return tl.State() == StateIdle }, 2000)).To(BeTrue())
		Expect(tl.Progress()).To(Equal(1.0))
		Expect(counts["play"]).To(Equal(1))
		Expect(counts["complete"]).To(Equal(1))
		Expect(tl.Values()["box"]).To(Equal(map[string]float64{"x": 100, "opacity": 0}))
		Expect(tl.Values()["card"]["y"]).To(Equal(0.0))

		clock.Advance(frame.Interval * 10)
		Expect(counts["complete"]).To(Equal(1))
	})

	ginkgo.It("locks the track list once playing", func() {
		build()
		tl.Play()
		_, err := tl.To("late", map[string]float64{"x": 1}, After(0))
		Expect(err).To(MatchError(ErrLocked))
		Expect(tl.AddLabel("late", At(0))).To(MatchError(ErrLocked))
	})

	ginkgo.It("pauses and resumes from the same playhead", func() {
		build()
		tl.Play()
		for i := 0; i < 20; i++ {
			clock.Step()
		}
		tl.Pause()
		at := tl.Elapsed()
		Expect(counts["pause"]).To(Equal(1))

		clock.Advance(frame.Interval * 30)
		Expect(tl.Elapsed()).To(Equal(at))

		tl.Play()
		clock.Step()
		Expect(tl.Elapsed()).To(BeNumerically("~", at+spring.Dt, 1e-9))
		Expect(counts["play"]).To(Equal(2))
	})

	ginkgo.It("turns around mid-flight without restarting", func() {
		build()
		tl.Play()
		for i := 0; i < 30; i++ {
			clock.Step()
		}
		at := tl.Elapsed()
		tl.Reverse()
		Expect(tl.State()).To(Equal(StateReversing))
		clock.Step()
		Expect(tl.Elapsed()).To(BeNumerically("~", at-spring.Dt, 1e-9))

		Expect(clock.RunUntil(func() bool { return tl.State() == StateIdle }, 200)).To(BeTrue())
		Expect(tl.Elapsed()).To(Equal(0.0))
		Expect(counts["reverse"]).To(Equal(1))
		Expect(counts["complete"]).To(Equal(0))
		Expect(tl.Values()["box"]["x"]).To(Equal(0.0))
	})

	ginkgo.It("does not complete when sought to the end", func() {
		build()
		before := counts["update"]
		tl.Seek(tl.Duration() + 10)
		Expect(tl.Progress()).To(Equal(1.0))
		Expect(counts["complete"]).To(Equal(0))
		Expect(counts["update"]).To(Equal(before + 1))
	})

	ginkgo.It("mirrors the playhead through per-channel drivers", func() {
		build()
		d, ok := tl.Driver("box", "x")
		Expect(ok).To(BeTrue())
		var seen []float64
		d.Subscribe(func(v float64) { seen = append(seen, v) })

		tl.SeekProgress(1)
		Expect(seen[len(seen)-1]).To(Equal(100.0))
	})

	ginkgo.It("tears everything down on kill", func() {
		build()
		tl.Play()
		clock.Step()
		tl.Kill()
		tl.Kill()

		Expect(tl.State()).To(Equal(StateKilled))
		Expect(clock.Pending()).To(Equal(0))
		d, _ := tl.Driver("box", "x")
		Expect(d.IsDestroyed()).To(BeTrue())

		_, err := tl.To("x", map[string]float64{"x": 1}, After(0))
		Expect(err).To(MatchError(ErrKilled))
		tl.Play()
		Expect(tl.State()).To(Equal(StateKilled))
	})

	ginkgo.It("rejects an eased track without a duration", func() {
		_, err := tl.To("x", map[string]float64{"x": 1}, At(0), WithEase(ease.Linear, 0))
		Expect(err).To(MatchError(spring.ErrInvalidConfig))
	})

	ginkgo.It("evaluates eased tracks at their ends exactly", func() {
		_, err := tl.To("x", map[string]float64{"x": 10}, At(1), WithEase(ease.InOutQuad, 2))
		Expect(err).NotTo(HaveOccurred())
		Expect(tl.ValuesAt(0)["x"]["x"]).To(Equal(0.0))
		Expect(tl.ValuesAt(3)["x"]["x"]).To(Equal(10.0))
		Expect(math.Abs(tl.ValuesAt(2)["x"]["x"] - 5)).To(BeNumerically("<", 1e-4))
	})
})
