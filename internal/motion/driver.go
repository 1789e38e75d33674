package motion

import (
	"math"
	"time"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/spring"
)

// Driver animates one number toward a target with a spring, one integrator
// step per frame.
type Driver struct {
	sched   frame.Scheduler
	cfg     Config
	stepper spring.Stepper

	// from and to bound the current leg; clamping uses them.
	from, to float64
	// origin is the construction state that Reset returns to.
	origin State

	state    State
	status   Status
	complete bool

	// handle is the only pending frame callback; gen invalidates callbacks
	// that were already dispatched when handle was cancelled.
	handle frame.Handle
	gen    uint64

	subs     *Listeners[float64]
	events   map[Event]*Listeners[struct{}]
	finished *Completion
}

// New creates a driver at from heading to to. It only starts on its own when
// cfg.AutoPlay is set.
func New(sched frame.Scheduler, from, to float64, cfg Config) (*Driver, error) {
	cfg.Config = cfg.Config.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Driver{
		sched:    sched,
		cfg:      cfg,
		stepper:  cfg.Stepper,
		from:     from,
		to:       to,
		subs:     NewListeners[float64]("subscriber"),
		events:   make(map[Event]*Listeners[struct{}]),
		finished: NewCompletion(),
	}
	if d.stepper == nil {
		d.stepper = spring.Default()
	}

	d.state = State{Position: from, Target: to}
	if cfg.Velocity != nil {
		d.state.Velocity = *cfg.Velocity
	}
	d.origin = d.state

	if cfg.AutoPlay {
		d.Start()
	}
	return d, nil
}

// Start begins integrating toward the current target. It is a no-op while
// already running and resumes a paused driver.
func (d *Driver) Start() {
	switch d.status {
	case StatusDestroyed, StatusRunning:
		return
	case StatusPaused:
		d.Resume()
		return
	}

	if d.complete {
		d.complete = false
		d.finished = NewCompletion()
	}
	d.status = StatusRunning
	d.schedule()

	Safe("onStart", d.cfg.OnStart)
	d.fire(EventStart)
}

// Stop cancels the pending frame and leaves the value where it is. The run
// is not completed: Finished stays pending until a later Start reaches rest.
func (d *Driver) Stop() {
	if d.status == StatusDestroyed {
		return
	}
	d.cancel()
	d.status = StatusIdle
}

func (d *Driver) Pause() {
	if d.status != StatusRunning {
		return
	}
	d.cancel()
	d.status = StatusPaused
}

func (d *Driver) Resume() {
	if d.status != StatusPaused {
		return
	}
	d.status = StatusRunning
	d.schedule()
}

// Set retargets the driver. With animate the current velocity is kept and
// the driver starts if idle; without it the value jumps to target.
func (d *Driver) Set(target float64, animate bool) {
	if d.status == StatusDestroyed {
		return
	}
	if !animate {
		d.Jump(target)
		return
	}

	d.from = d.state.Position
	d.to = target
	d.state.Target = target
	if d.status == StatusIdle {
		d.Start()
	}
}

// SetWithVelocity retargets like Set and, when velocity is non-nil, replaces
// the current velocity. Unlike Set it also resumes a paused driver.
func (d *Driver) SetWithVelocity(target float64, velocity *float64) {
	if d.status == StatusDestroyed {
		return
	}
	if velocity != nil {
		d.state.Velocity = *velocity
	}
	d.Set(target, true)
	if d.status == StatusPaused {
		d.Resume()
	}
}

// SetSpring swaps the physics used from the next frame on.
func (d *Driver) SetSpring(cfg spring.Config) error {
	if d.status == StatusDestroyed {
		return nil
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.cfg.Config = cfg
	return nil
}

// Jump moves to value instantly with zero velocity. An in-flight run ends
// there and completes.
func (d *Driver) Jump(value float64) {
	if d.status == StatusDestroyed {
		return
	}
	active := d.status == StatusRunning || d.status == StatusPaused
	d.cancel()
	d.status = StatusIdle
	d.from, d.to = value, value
	d.state = State{Position: value, Target: value}

	d.emit(value)
	if active && d.status == StatusIdle {
		d.finish()
	}
}

// Reverse heads back toward the start of the current leg, keeping velocity.
func (d *Driver) Reverse() {
	if d.status == StatusDestroyed {
		return
	}
	d.from, d.to = d.to, d.from
	d.state.Target = d.to
	if d.status == StatusIdle {
		d.Start()
	}
}

// Reset returns to the construction state without animating. A pending run
// is cancelled with ErrReset.
func (d *Driver) Reset() {
	if d.status == StatusDestroyed {
		return
	}
	d.cancel()
	d.status = StatusIdle
	d.finished.Cancel(ErrReset)
	d.finished = NewCompletion()
	d.complete = false
	d.state = d.origin
	d.from, d.to = d.origin.Position, d.origin.Target
	d.emit(d.state.Position)
}

// Destroy stops the driver for good and drops every subscriber and
// listener. It is safe to call more than once.
func (d *Driver) Destroy() {
	if d.status == StatusDestroyed {
		return
	}
	d.cancel()
	d.status = StatusDestroyed
	d.subs.Clear()
	for _, l := range d.events {
		l.Clear()
	}
	d.cfg.OnStart, d.cfg.OnUpdate, d.cfg.OnComplete, d.cfg.OnRest = nil, nil, nil, nil
	d.finished.Cancel(ErrDestroyed)
}

// Subscribe calls fn with the current value now and with every new value
// afterwards.
func (d *Driver) Subscribe(fn func(float64)) func() {
	if d.status == StatusDestroyed || fn == nil {
		return func() {}
	}
	Safe("subscriber", func() { fn(d.state.Position) })
	return d.subs.Add(fn)
}

// On registers fn for a lifecycle event.
func (d *Driver) On(event Event, fn func()) func() {
	if d.status == StatusDestroyed || fn == nil {
		return func() {}
	}
	l, ok := d.events[event]
	if !ok {
		l = NewListeners[struct{}](string(event))
		d.events[event] = l
	}
	return l.Add(func(struct{}) { fn() })
}

// Finished settles when the current run reaches rest.
func (d *Driver) Finished() *Completion { return d.finished }

func (d *Driver) Value() float64    { return d.state.Position }
func (d *Driver) Velocity() float64 { return d.state.Velocity }
func (d *Driver) Target() float64   { return d.state.Target }
func (d *Driver) State() State      { return d.state }
func (d *Driver) Status() Status    { return d.status }
func (d *Driver) Spring() spring.Config {
	return d.cfg.Config
}

func (d *Driver) IsAnimating() bool { return d.status == StatusRunning }
func (d *Driver) IsPaused() bool    { return d.status == StatusPaused }
func (d *Driver) IsComplete() bool  { return d.complete }
func (d *Driver) IsDestroyed() bool { return d.status == StatusDestroyed }

func (d *Driver) schedule() {
	if d.handle != 0 {
		d.sched.Cancel(d.handle)
	}
	d.gen++
	gen := d.gen
	d.handle = d.sched.RequestFrame(func(time.Duration) { d.update(gen) })
}

func (d *Driver) cancel() {
	if d.handle != 0 {
		d.sched.Cancel(d.handle)
		d.handle = 0
	}
	d.gen++
}

// update is the frame callback. A callback from an older generation, or one
// arriving after stop, pause or destroy, does nothing.
func (d *Driver) update(gen uint64) {
	if gen != d.gen || d.status != StatusRunning {
		return
	}
	d.handle = 0

	pos, vel, rest := d.stepper.Step(d.state.Position, d.state.Velocity, d.state.Target, d.cfg.Config)
	if d.cfg.Clamp {
		lo, hi := math.Min(d.from, d.to), math.Max(d.from, d.to)
		if pos < lo || pos > hi {
			pos = math.Max(lo, math.Min(hi, pos))
			vel = 0
			rest = spring.AtRest(pos, vel, d.state.Target, d.cfg.Config)
		}
	}
	if rest {
		pos, vel = d.state.Target, 0
	}
	d.state.Position, d.state.Velocity = pos, vel

	d.emit(pos)

	// a subscriber may have stopped, retargeted or destroyed us
	if gen != d.gen || d.status != StatusRunning {
		return
	}
	if rest && spring.AtRest(d.state.Position, d.state.Velocity, d.state.Target, d.cfg.Config) {
		d.status = StatusIdle
		d.finish()
		return
	}
	d.schedule()
}

func (d *Driver) emit(v float64) {
	if fn := d.cfg.OnUpdate; fn != nil {
		Safe("onUpdate", func() { fn(v) })
	}
	d.subs.Emit(v)
}

func (d *Driver) finish() {
	d.complete = true
	c := d.finished

	Safe("onComplete", d.cfg.OnComplete)
	Safe("onRest", d.cfg.OnRest)
	d.fire(EventEnd)
	d.fire(EventRest)
	c.Resolve()
}

func (d *Driver) fire(event Event) {
	if l, ok := d.events[event]; ok {
		l.Emit(struct{}{})
	}
}
