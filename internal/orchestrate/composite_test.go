package orchestrate

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/motion"
	"github.com/san-kum/dynmotion/internal/spring"
)

func fastConfig() motion.Config {
	return motion.DefaultConfig().WithSpring(spring.Config{
		Stiffness: 300, Damping: 30, Mass: 1, RestSpeed: 0.5, RestDelta: 0.5,
	})
}

var _ = Describe("Sequence", func() {
	var clock *frame.Manual

	BeforeEach(func() { clock = frame.NewManual() })

	It("builds the next animation from live state after the previous finished", func() {
		var first *motion.Driver
		var startedSecondAt float64
		seq := Sequence(
			func() Animation {
				d, err := motion.New(clock, 0, 100, fastConfig())
				Expect(err).NotTo(HaveOccurred())
				first = d
				return d
			},
			func() Animation {
				Expect(first.IsComplete()).To(BeTrue())
				startedSecondAt = first.Value()
				d, err := motion.New(clock, first.Value(), 0, fastConfig())
				Expect(err).NotTo(HaveOccurred())
				return d
			},
		)
		done := Run(seq)

		Expect(clock.RunUntil(done.IsDone, 600)).To(BeTrue())
		Expect(done.Err()).NotTo(HaveOccurred())
		Expect(startedSecondAt).To(Equal(100.0))
		Expect(seq.Active()).To(HaveLen(2))
		Expect(clock.Pending()).To(Equal(0))
	})

	It("resolves at once with no factories", func() {
		Expect(Run(Sequence()).IsDone()).To(BeTrue())
	})

	It("stops the chain when a child is destroyed", func() {
		calls := 0
		var d *motion.Driver
		seq := Sequence(
			func() Animation {
				d, _ = motion.New(clock, 0, 100, fastConfig())
				return d
			},
			func() Animation {
				calls++
				return nil
			},
		)
		done := Run(seq)
		clock.Advance(50 * time.Millisecond)
		d.Destroy()

		Expect(done.Err()).To(MatchError(motion.ErrDestroyed))
		clock.Advance(time.Second)
		Expect(calls).To(Equal(0))
	})

	It("resumes only the unfinished child after Stop and Start", func() {
		starts, rests := 0, 0
		leg := func(from, to float64) UnstartedFactory {
			return func() Animation {
				d, err := motion.New(clock, from, to, fastConfig())
				Expect(err).NotTo(HaveOccurred())
				d.On(motion.EventStart, func() { starts++ })
				d.On(motion.EventRest, func() { rests++ })
				return d
			}
		}
		seq := Sequence(leg(0, 100), leg(100, 200))
		done := Run(seq)

		Expect(clock.RunUntil(func() bool { return len(seq.Active()) == 2 }, 600)).To(BeTrue())
		clock.Step()
		Expect(starts).To(Equal(2))
		Expect(rests).To(Equal(1))

		seq.Stop()
		clock.Advance(time.Second)
		Expect(done.IsDone()).To(BeFalse())

		seq.Start()
		Expect(clock.RunUntil(done.IsDone, 600)).To(BeTrue())
		Expect(done.Err()).NotTo(HaveOccurred())
		Expect(starts).To(Equal(3))
		Expect(rests).To(Equal(2))
	})
})

var _ = Describe("Parallel", func() {
	var clock *frame.Manual

	BeforeEach(func() { clock = frame.NewManual() })

	It("starts every animation in the same tick and waits for all", func() {
		slow := fastConfig()
		slow.Stiffness = 40
		slow.Damping = 12

		var a, b *motion.Driver
		par := Parallel(
			func() Animation { a, _ = motion.New(clock, 0, 100, fastConfig()); return a },
			func() Animation { b, _ = motion.New(clock, 0, 100, slow); return b },
		)
		done := Run(par)
		Expect(a.IsAnimating()).To(BeTrue())
		Expect(b.IsAnimating()).To(BeTrue())

		Expect(clock.RunUntil(a.IsComplete, 600)).To(BeTrue())
		Expect(done.IsDone()).To(BeFalse())

		Expect(clock.RunUntil(done.IsDone, 1200)).To(BeTrue())
		Expect(done.Err()).NotTo(HaveOccurred())
		Expect(b.IsComplete()).To(BeTrue())
	})

	It("resolves at once with no factories", func() {
		Expect(Run(Parallel()).IsDone()).To(BeTrue())
	})

	It("destroys its children", func() {
		var a *motion.Driver
		par := Parallel(func() Animation { a, _ = motion.New(clock, 0, 100, fastConfig()); return a })
		done := Run(par)
		clock.Step()

		par.Destroy()
		par.Destroy()
		Expect(a.IsDestroyed()).To(BeTrue())
		Expect(done.Err()).To(MatchError(motion.ErrDestroyed))
		Expect(clock.Pending()).To(Equal(0))
	})
})

var _ = Describe("Stagger", func() {
	var clock *frame.Manual

	BeforeEach(func() { clock = frame.NewManual() })

	build := func(clock frame.Scheduler, started *[]float64) StartedFactory[float64] {
		return func(target float64) Animation {
			cfg := fastConfig()
			cfg.AutoPlay = true
			d, err := motion.New(clock, 0, target, cfg)
			Expect(err).NotTo(HaveOccurred())
			*started = append(*started, target)
			return d
		}
	}

	It("builds each target after index times delay without starting it", func() {
		var started []float64
		st := Stagger(clock, []float64{10, 20, 30}, build(clock, &started), 100*time.Millisecond)
		done := Run(st)

		clock.Step()
		Expect(started).To(Equal([]float64{10}))
		Expect(st.Active()[0].(*motion.Driver).IsAnimating()).To(BeTrue())

		clock.Advance(100 * time.Millisecond)
		Expect(started).To(Equal([]float64{10, 20}))

		Expect(clock.RunUntil(done.IsDone, 600)).To(BeTrue())
		Expect(started).To(Equal([]float64{10, 20, 30}))
		Expect(done.Err()).NotTo(HaveOccurred())
		for _, a := range st.Active() {
			Expect(a.(*motion.Driver).IsComplete()).To(BeTrue())
		}
	})

	It("consumes a pattern delay table", func() {
		var started []float64
		delays := Reverse(3, Params{Step: 0.1})
		st, err := StaggerDelays(clock, []float64{1, 2, 3}, build(clock, &started), delays)
		Expect(err).NotTo(HaveOccurred())

		done := Run(st)
		Expect(clock.RunUntil(done.IsDone, 600)).To(BeTrue())
		Expect(started).To(Equal([]float64{3, 2, 1}))
	})

	It("rejects a delay table of the wrong length", func() {
		_, err := StaggerDelays(clock, []float64{1, 2}, build(clock, new([]float64)), []float64{0})
		Expect(err).To(MatchError(ErrDelayCount))
	})

	It("resolves at once with no targets", func() {
		Expect(Run(Stagger[float64](clock, nil, nil, time.Second)).IsDone()).To(BeTrue())
	})

	It("cancels pending timers on destroy", func() {
		var started []float64
		st := Stagger(clock, []float64{1, 2, 3}, build(clock, &started), time.Second)
		Run(st)
		clock.Step()
		st.Destroy()

		clock.Advance(3 * time.Second)
		Expect(started).To(HaveLen(1))
		Expect(clock.Pending()).To(Equal(0))
	})

	It("holds back pending launches while stopped", func() {
		var started []float64
		st := Stagger(clock, []float64{1, 2, 3}, build(clock, &started), time.Second)
		done := Run(st)
		clock.Step()
		Expect(started).To(HaveLen(1))

		st.Stop()
		clock.Advance(3 * time.Second)
		Expect(started).To(HaveLen(1))
		Expect(done.IsDone()).To(BeFalse())

		st.Start()
		clock.Advance(time.Second)
		Expect(started).To(HaveLen(2))

		Expect(clock.RunUntil(done.IsDone, 600)).To(BeTrue())
		Expect(started).To(Equal([]float64{1, 2, 3}))
		Expect(done.Err()).NotTo(HaveOccurred())
	})
})

var _ = Describe("Animate", func() {
	var clock *frame.Manual

	BeforeEach(func() { clock = frame.NewManual() })

	It("drives a scalar target with a Driver", func() {
		a, err := Animate(clock, motion.Scalar(0), motion.Scalar(50), fastConfig())
		Expect(err).NotTo(HaveOccurred())
		d, ok := a.(*motion.Driver)
		Expect(ok).To(BeTrue())

		done := Run(a)
		Expect(clock.RunUntil(done.IsDone, 600)).To(BeTrue())
		Expect(d.Value()).To(Equal(50.0))
	})

	It("drives a structured target with a group", func() {
		a, err := Animate(clock,
			motion.Structured{"x": 0, "opacity": 1},
			motion.Structured{"x": 40, "opacity": 0},
			fastConfig())
		Expect(err).NotTo(HaveOccurred())

		done := Run(a)
		Expect(clock.RunUntil(done.IsDone, 600)).To(BeTrue())
		Expect(a.(*groupAnimation).Get()).To(Equal(map[string]float64{"x": 40, "opacity": 0}))
		a.Destroy()
	})

	It("rejects mismatched targets", func() {
		_, err := Animate(clock, motion.Scalar(0), motion.Structured{"x": 1}, fastConfig())
		Expect(err).To(MatchError(ErrTargetMismatch))

		_, err = Animate(clock, motion.Structured{"x": 0}, motion.Structured{"y": 1}, fastConfig())
		Expect(err).To(MatchError(ErrTargetMismatch))
	})
})
