package motion

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/spring"
)

func mustDriver(sched frame.Scheduler, from, to float64, cfg Config) *Driver {
	d, err := New(sched, from, to, cfg)
	Expect(err).NotTo(HaveOccurred())
	return d
}

func settle(clock *frame.Manual, d *Driver) {
	Expect(clock.RunUntil(func() bool { return !d.IsAnimating() }, 2000)).To(BeTrue())
}

var _ = Describe("Driver", func() {
	var clock *frame.Manual

	BeforeEach(func() {
		clock = frame.NewManual()
	})

	Describe("construction", func() {
		It("does not start without AutoPlay", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			Expect(d.IsAnimating()).To(BeFalse())
			Expect(clock.Pending()).To(Equal(0))
		})

		It("starts with AutoPlay", func() {
			cfg := DefaultConfig()
			cfg.AutoPlay = true
			d := mustDriver(clock, 0, 100, cfg)
			Expect(d.IsAnimating()).To(BeTrue())
			Expect(clock.Pending()).To(Equal(1))
		})

		It("rejects invalid physics", func() {
			cfg := DefaultConfig()
			cfg.Mass = -1
			_, err := New(clock, 0, 1, cfg)
			Expect(err).To(MatchError(spring.ErrInvalidConfig))
		})

		It("seeds velocity", func() {
			v := 42.0
			cfg := DefaultConfig()
			cfg.Velocity = &v
			d := mustDriver(clock, 0, 100, cfg)
			Expect(d.Velocity()).To(Equal(42.0))
		})
	})

	Describe("Start", func() {
		It("is idempotent while running", func() {
			starts := 0
			cfg := DefaultConfig()
			cfg.OnStart = func() { starts++ }
			d := mustDriver(clock, 0, 100, cfg)

			d.Start()
			d.Start()
			d.Start()

			Expect(starts).To(Equal(1))
			Expect(clock.Pending()).To(Equal(1))
		})

		It("settles at the target and fires completion callbacks once", func() {
			var completes, rests, ends int
			cfg := DefaultConfig()
			cfg.OnComplete = func() { completes++ }
			cfg.OnRest = func() { rests++ }
			d := mustDriver(clock, 0, 100, cfg)
			d.On(EventEnd, func() { ends++ })

			d.Start()
			settle(clock, d)
			clock.Advance(time.Second)

			Expect(d.Value()).To(Equal(100.0))
			Expect(d.Velocity()).To(Equal(0.0))
			Expect(d.IsComplete()).To(BeTrue())
			Expect(completes).To(Equal(1))
			Expect(rests).To(Equal(1))
			Expect(ends).To(Equal(1))
			Expect(d.Finished().IsDone()).To(BeTrue())
			Expect(d.Finished().Err()).NotTo(HaveOccurred())
			Expect(clock.Pending()).To(Equal(0))
		})

		It("hands out a fresh Finished for a new run", func() {
			d := mustDriver(clock, 0, 10, DefaultConfig())
			d.Start()
			settle(clock, d)
			first := d.Finished()

			d.Set(20, true)
			Expect(d.Finished()).NotTo(BeIdenticalTo(first))
			Expect(d.Finished().IsDone()).To(BeFalse())
			settle(clock, d)
			Expect(d.Finished().IsDone()).To(BeTrue())
		})

		It("takes exactly one integrator step per frame", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			d.Start()
			clock.Step()

			pos, vel, _ := spring.Step(0, 0, 100, spring.DefaultConfig())
			Expect(d.Value()).To(Equal(pos))
			Expect(d.Velocity()).To(Equal(vel))
		})
	})

	Describe("Stop, Pause and Resume", func() {
		It("stops without completing", func() {
			completes := 0
			cfg := DefaultConfig()
			cfg.OnComplete = func() { completes++ }
			d := mustDriver(clock, 0, 100, cfg)
			d.Start()
			clock.Advance(100 * time.Millisecond)
			at := d.Value()

			d.Stop()
			clock.Advance(time.Second)

			Expect(d.Value()).To(Equal(at))
			Expect(completes).To(Equal(0))
			Expect(d.Finished().IsDone()).To(BeFalse())
			Expect(clock.Pending()).To(Equal(0))
		})

		It("pauses and resumes from the stored state", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			d.Start()
			clock.Advance(100 * time.Millisecond)
			before := d.State()

			d.Pause()
			Expect(d.IsPaused()).To(BeTrue())
			Expect(clock.Pending()).To(Equal(0))
			clock.Advance(time.Second)
			Expect(d.State()).To(Equal(before))

			d.Resume()
			Expect(d.IsAnimating()).To(BeTrue())
			clock.Step()
			Expect(d.Value()).NotTo(Equal(before.Position))
		})

		It("treats Start on a paused driver as Resume", func() {
			starts := 0
			cfg := DefaultConfig()
			cfg.OnStart = func() { starts++ }
			d := mustDriver(clock, 0, 100, cfg)
			d.Start()
			d.Pause()
			d.Start()
			Expect(d.IsAnimating()).To(BeTrue())
			Expect(starts).To(Equal(1))
		})
	})

	Describe("retargeting", func() {
		It("preserves velocity on Set", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			d.Start()
			clock.Advance(50 * time.Millisecond)
			v := d.Velocity()
			Expect(v).NotTo(BeZero())

			d.Set(300, true)

			Expect(d.Velocity()).To(Equal(v))
			Expect(d.Target()).To(Equal(300.0))
			Expect(d.IsAnimating()).To(BeTrue())
		})

		It("restarts an idle driver on Set", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			d.Set(50, true)
			Expect(d.IsAnimating()).To(BeTrue())
			settle(clock, d)
			Expect(d.Value()).To(Equal(50.0))
		})

		It("jumps on Set without animation", func() {
			var seen []float64
			d := mustDriver(clock, 0, 100, DefaultConfig())
			d.Subscribe(func(v float64) { seen = append(seen, v) })
			d.Start()
			clock.Step()

			d.Set(7, false)

			Expect(d.Value()).To(Equal(7.0))
			Expect(d.Velocity()).To(Equal(0.0))
			Expect(seen[len(seen)-1]).To(Equal(7.0))
			Expect(d.IsAnimating()).To(BeFalse())
			Expect(clock.Pending()).To(Equal(0))
		})

		It("overrides velocity with SetWithVelocity and auto-starts", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			v := -15.0
			d.SetWithVelocity(40, &v)
			Expect(d.Velocity()).To(Equal(-15.0))
			Expect(d.IsAnimating()).To(BeTrue())

			d.SetWithVelocity(60, nil)
			Expect(d.Velocity()).To(Equal(-15.0))
		})

		It("resumes a paused driver on SetWithVelocity", func() {
			starts := 0
			cfg := DefaultConfig()
			cfg.OnStart = func() { starts++ }
			d := mustDriver(clock, 0, 100, cfg)
			d.Start()
			clock.Advance(50 * time.Millisecond)
			d.Pause()

			v := 5.0
			d.SetWithVelocity(20, &v)
			Expect(d.IsPaused()).To(BeFalse())
			Expect(d.IsAnimating()).To(BeTrue())
			Expect(d.Target()).To(Equal(20.0))
			Expect(d.Velocity()).To(Equal(5.0))
			Expect(starts).To(Equal(1))

			Expect(clock.RunUntil(d.IsComplete, 600)).To(BeTrue())
			Expect(d.Value()).To(Equal(20.0))
		})

		It("completes an in-flight run on Jump", func() {
			rests := 0
			cfg := DefaultConfig()
			cfg.OnRest = func() { rests++ }
			d := mustDriver(clock, 0, 100, cfg)
			d.Start()
			clock.Step()

			d.Jump(25)
			d.Jump(30)

			Expect(rests).To(Equal(1))
			Expect(d.Finished().IsDone()).To(BeTrue())
			Expect(d.Value()).To(Equal(30.0))
		})

		It("reverses toward the start of the leg", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			d.Start()
			clock.Advance(200 * time.Millisecond)
			v := d.Velocity()

			d.Reverse()
			Expect(d.Target()).To(Equal(0.0))
			Expect(d.Velocity()).To(Equal(v))
			settle(clock, d)
			Expect(d.Value()).To(Equal(0.0))
		})

		It("resets to the construction state", func() {
			d := mustDriver(clock, 10, 100, DefaultConfig())
			d.Start()
			clock.Advance(200 * time.Millisecond)
			old := d.Finished()

			d.Reset()

			Expect(d.Value()).To(Equal(10.0))
			Expect(d.Target()).To(Equal(100.0))
			Expect(d.IsAnimating()).To(BeFalse())
			Expect(old.Err()).To(MatchError(ErrReset))
			Expect(d.Finished().IsDone()).To(BeFalse())
		})

		It("swaps physics with SetSpring", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			Expect(d.SetSpring(spring.Config{Stiffness: 500, Damping: 40})).To(Succeed())
			Expect(d.Spring().Stiffness).To(Equal(500.0))
			Expect(d.SetSpring(spring.Config{Stiffness: -1})).To(MatchError(spring.ErrInvalidConfig))
		})
	})

	Describe("clamping", func() {
		It("keeps every emitted value inside the range", func() {
			cfg := DefaultConfig()
			cfg.Stiffness = 2000
			cfg.Damping = 5
			cfg.Clamp = true
			d := mustDriver(clock, 0, 100, cfg)

			var seen []float64
			d.Subscribe(func(v float64) { seen = append(seen, v) })
			d.Start()
			settle(clock, d)

			Expect(len(seen)).To(BeNumerically(">", 1))
			for _, v := range seen {
				Expect(v).To(BeNumerically(">=", 0))
				Expect(v).To(BeNumerically("<=", 100))
			}
			Expect(d.Value()).To(Equal(100.0))
		})

		It("holds while reversing", func() {
			cfg := DefaultConfig()
			cfg.Stiffness = 2000
			cfg.Damping = 5
			cfg.Clamp = true
			d := mustDriver(clock, 0, 100, cfg)

			var seen []float64
			d.Subscribe(func(v float64) { seen = append(seen, v) })
			d.Start()
			clock.Advance(80 * time.Millisecond)
			d.Reverse()
			settle(clock, d)

			for _, v := range seen {
				Expect(v).To(BeNumerically(">=", 0))
				Expect(v).To(BeNumerically("<=", 100))
			}
			Expect(d.Value()).To(Equal(0.0))
		})

		It("lets an unclamped spring overshoot", func() {
			cfg := DefaultConfig()
			cfg.Stiffness = 2000
			cfg.Damping = 5
			d := mustDriver(clock, 0, 100, cfg)
			peak := math.Inf(-1)
			d.Subscribe(func(v float64) { peak = math.Max(peak, v) })
			d.Start()
			settle(clock, d)
			Expect(peak).To(BeNumerically(">", 100))
		})
	})

	Describe("subscriptions", func() {
		It("calls a new subscriber immediately", func() {
			d := mustDriver(clock, 5, 100, DefaultConfig())
			var got []float64
			d.Subscribe(func(v float64) { got = append(got, v) })
			Expect(got).To(Equal([]float64{5}))
		})

		It("delivers the same frame value to every subscriber", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			var a, b []float64
			d.Subscribe(func(v float64) { a = append(a, v) })
			d.Subscribe(func(v float64) { b = append(b, v) })
			d.Start()
			clock.Advance(300 * time.Millisecond)
			Expect(a).To(Equal(b))
		})

		It("tolerates unsubscribe and subscribe from inside a callback", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			lateCalls, selfCalls := 0, 0
			var unsub func()
			unsub = d.Subscribe(func(float64) {
				selfCalls++
				if selfCalls == 2 {
					unsub()
					d.Subscribe(func(float64) { lateCalls++ })
				}
			})
			d.Start()
			clock.Step()
			clock.Step()

			Expect(selfCalls).To(Equal(2))
			Expect(lateCalls).To(Equal(2))
		})

		It("keeps notifying after a subscriber panics", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			calls := 0
			d.Subscribe(func(v float64) {
				if v > 0 {
					panic("boom")
				}
			})
			d.Subscribe(func(float64) { calls++ })
			d.Start()
			clock.Step()
			clock.Step()

			Expect(calls).To(Equal(3))
			Expect(d.IsAnimating()).To(BeTrue())
		})

		It("stops a subscriber after unsubscribe", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			calls := 0
			unsub := d.Subscribe(func(float64) { calls++ })
			unsub()
			unsub()
			d.Start()
			clock.Step()
			Expect(calls).To(Equal(1))
		})

		It("can destroy the driver from a subscriber", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			d.Subscribe(func(v float64) {
				if v > 0 {
					d.Destroy()
				}
			})
			d.Start()
			clock.Step()
			clock.Step()
			Expect(d.IsDestroyed()).To(BeTrue())
			Expect(clock.Pending()).To(Equal(0))
		})
	})

	Describe("Destroy", func() {
		It("is idempotent and silences every control call", func() {
			d := mustDriver(clock, 0, 100, DefaultConfig())
			calls := 0
			d.Subscribe(func(float64) { calls++ })
			d.On(EventStart, func() { calls++ })
			d.Start()
			clock.Step()
			before := d.State()
			callsBefore := calls

			Expect(func() {
				d.Destroy()
				d.Destroy()
				d.Start()
				d.Set(5, true)
				d.Set(5, false)
				d.SetWithVelocity(9, nil)
				d.Jump(3)
				d.Pause()
				d.Resume()
				d.Reverse()
				d.Reset()
				d.Stop()
				d.Subscribe(func(float64) { calls++ })()
				d.On(EventEnd, func() {})()
			}).NotTo(Panic())

			clock.Advance(time.Second)
			Expect(d.State()).To(Equal(before))
			Expect(calls).To(Equal(callsBefore))
			Expect(clock.Pending()).To(Equal(0))
			Expect(d.Finished().Err()).To(MatchError(ErrDestroyed))
		})

		It("turns an already dispatched frame callback into a no-op", func() {
			racy := frame.NewManual(frame.FireCancelled())
			completes := 0
			cfg := DefaultConfig()
			cfg.OnComplete = func() { completes++ }
			cfg.OnUpdate = func(float64) { completes++ }
			d := mustDriver(racy, 0, 100, cfg)
			notified := 0
			d.Subscribe(func(float64) { notified++ })

			d.Start()
			d.Destroy()
			racy.Step()
			racy.Step()

			Expect(notified).To(Equal(1))
			Expect(completes).To(Equal(0))
			Expect(d.Value()).To(Equal(0.0))
		})

		It("ignores a stale callback after Stop", func() {
			racy := frame.NewManual(frame.FireCancelled())
			d := mustDriver(racy, 0, 100, DefaultConfig())
			d.Start()
			d.Stop()
			racy.Step()
			Expect(d.Value()).To(Equal(0.0))
			Expect(d.IsAnimating()).To(BeFalse())
		})
	})

	Describe("on a real frame loop", func() {
		It("settles a loose spring within two seconds and rests once", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			loop := frame.NewLoop(60)
			loop.Start(ctx)

			var rests atomic.Int32
			var d *Driver
			Expect(loop.Call(ctx, func() {
				cfg := Config{
					Config: spring.Config{Stiffness: 1000, Damping: 50, Mass: 1, RestSpeed: 10, RestDelta: 10},
					OnRest: func() { rests.Add(1) },
				}
				var err error
				d, err = New(loop, 0, 100, cfg)
				if err == nil {
					d.Start()
				}
			})).To(Succeed())
			Expect(d).NotTo(BeNil())

			Expect(d.Finished().Wait(ctx)).To(Succeed())
			Expect(rests.Load()).To(Equal(int32(1)))
		})
	})
})
