package orchestrate

import (
	"time"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/motion"
)

// Composite is a started-on-demand composition of child animations. It is
// itself an Animation, so compositions nest.
type Composite struct {
	kind      string
	launch    func(c *Composite)
	active    []Animation
	timers    []*delayed
	sched     frame.Scheduler
	finished  *motion.Completion
	started   bool
	stopped   bool
	destroyed bool
}

// delayed is one stagger launch still waiting on its timer. While the
// composite is stopped, left holds the delay that remains.
type delayed struct {
	handle frame.Handle
	due    time.Duration
	left   time.Duration
	fired  bool
	fn     func()
}

func newComposite(kind string, launch func(c *Composite)) *Composite {
	return &Composite{kind: kind, launch: launch, finished: motion.NewCompletion()}
}

// Kind names the composition: "sequence", "parallel" or "stagger".
func (c *Composite) Kind() string { return c.kind }

// Start launches the composition once. Later calls resume what Stop held
// back: children whose run is still pending and stagger timers that had not
// fired. Children that already finished are left alone.
func (c *Composite) Start() {
	if c.destroyed {
		return
	}
	if !c.started {
		c.started = true
		c.launch(c)
		return
	}
	for _, a := range c.active {
		if !a.Finished().IsDone() {
			a.Start()
		}
	}
	if c.stopped {
		c.stopped = false
		for _, t := range c.timers {
			if !t.fired {
				c.arm(t, t.left)
			}
		}
	}
}

// Stop halts the running children without completing them and holds back
// stagger launches until the next Start.
func (c *Composite) Stop() {
	if c.destroyed || !c.started {
		return
	}
	for _, a := range c.active {
		a.Stop()
	}
	if c.stopped {
		return
	}
	c.stopped = true
	for _, t := range c.timers {
		if t.fired {
			continue
		}
		c.sched.Cancel(t.handle)
		t.left = max(0, t.due-c.sched.Now())
	}
}

func (c *Composite) Finished() *motion.Completion { return c.finished }

// Active returns the children launched so far.
func (c *Composite) Active() []Animation {
	return append([]Animation(nil), c.active...)
}

// Destroy cancels pending timers and destroys every launched child.
func (c *Composite) Destroy() {
	if c.destroyed {
		return
	}
	c.destroyed = true
	for _, t := range c.timers {
		if !t.fired {
			c.sched.Cancel(t.handle)
		}
	}
	c.timers = nil
	for _, a := range c.active {
		a.Destroy()
	}
	c.finished.Cancel(motion.ErrDestroyed)
}

func (c *Composite) after(d time.Duration, fn func()) {
	t := &delayed{fn: fn}
	c.timers = append(c.timers, t)
	c.arm(t, d)
}

func (c *Composite) arm(t *delayed, d time.Duration) {
	t.due = c.sched.Now() + d
	t.handle = c.sched.AfterFunc(d, func() {
		t.fired = true
		t.fn()
	})
}

func (c *Composite) add(a Animation) {
	c.active = append(c.active, a)
}

// Sequence runs each factory after the previous animation finished. An
// animation that is destroyed or reset mid-way cancels the rest.
func Sequence(factories ...UnstartedFactory) *Composite {
	return newComposite("sequence", func(c *Composite) {
		var next func(i int)
		next = func(i int) {
			if c.destroyed {
				return
			}
			if i == len(factories) {
				c.finished.Resolve()
				return
			}
			a := factories[i]()
			if a == nil {
				next(i + 1)
				return
			}
			c.add(a)
			a.Start()
			a.Finished().OnDone(func(err error) {
				if err != nil {
					c.finished.Cancel(err)
					return
				}
				next(i + 1)
			})
		}
		next(0)
	})
}

// Parallel starts every factory in the same tick and finishes when all of
// them have, in whatever order.
func Parallel(factories ...UnstartedFactory) *Composite {
	return newComposite("parallel", func(c *Composite) {
		fins := make([]*motion.Completion, 0, len(factories))
		for _, f := range factories {
			a := f()
			if a == nil {
				continue
			}
			c.add(a)
			fins = append(fins, a.Finished())
		}
		for _, a := range c.active {
			a.Start()
		}
		motion.All(fins...).OnDone(func(err error) {
			if err != nil {
				c.finished.Cancel(err)
				return
			}
			c.finished.Resolve()
		})
	})
}

// Stagger builds one animation per target, the i-th after i*delay on a plain
// timer. build must return an animation that is already started. The
// composition finishes when every built animation has.
func Stagger[T any](sched frame.Scheduler, targets []T, build StartedFactory[T], delay time.Duration) *Composite {
	delays := make([]time.Duration, len(targets))
	for i := range delays {
		delays[i] = time.Duration(i) * delay
	}
	return stagger(sched, targets, build, delays)
}

// StaggerDelays is Stagger with an explicit delay table in seconds, usually
// produced by a Pattern.
func StaggerDelays[T any](sched frame.Scheduler, targets []T, build StartedFactory[T], delays []float64) (*Composite, error) {
	if len(delays) != len(targets) {
		return nil, ErrDelayCount
	}
	ds := make([]time.Duration, len(delays))
	for i, s := range delays {
		ds[i] = time.Duration(s * float64(time.Second))
	}
	return stagger(sched, targets, build, ds), nil
}

func stagger[T any](sched frame.Scheduler, targets []T, build StartedFactory[T], delays []time.Duration) *Composite {
	c := newComposite("stagger", nil)
	c.sched = sched
	c.launch = func(c *Composite) {
		if len(targets) == 0 {
			c.finished.Resolve()
			return
		}
		remaining := len(targets)
		fail := func(err error) { c.finished.Cancel(err) }
		for i, target := range targets {
			target := target
			c.after(delays[i], func() {
				if c.destroyed {
					return
				}
				a := build(target)
				if a == nil {
					remaining--
					if remaining == 0 {
						c.finished.Resolve()
					}
					return
				}
				c.add(a)
				a.Finished().OnDone(func(err error) {
					if err != nil {
						fail(err)
						return
					}
					remaining--
					if remaining == 0 {
						c.finished.Resolve()
					}
				})
			})
		}
	}
	return c
}
