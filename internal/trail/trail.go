// Package trail chains spring drivers so that each follower chases the
// previous one's current output, producing a cascading delay.
package trail

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/motion"
)

// ErrEmpty is returned for a trail with no followers.
var ErrEmpty = errors.New("trail: count must be positive")

// Trail is an ordered chain of drivers. Only follower 0 sees the target
// given to Set; follower i is retargeted to follower i-1's value whenever
// that one moves.
type Trail struct {
	batch     *frame.Batch
	followers []*motion.Driver
	subs      *motion.Listeners[[]float64]
	events    map[motion.Event]*motion.Listeners[struct{}]
	finished  *motion.Completion
	frame     int
	restedAt  []int
	dirty     bool
	jumping   bool
	running   bool
	destroyed bool
}

// New creates count followers resting at from.
func New(sched frame.Scheduler, count int, from float64, cfg motion.Config) (*Trail, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrEmpty, count)
	}

	t := &Trail{
		followers: make([]*motion.Driver, count),
		restedAt:  make([]int, count),
		subs:      motion.NewListeners[[]float64]("trail subscriber"),
		events:    make(map[motion.Event]*motion.Listeners[struct{}]),
		finished:  motion.NewCompletion(),
	}
	t.batch = frame.NewBatch(sched, t.flush)

	mc := cfg
	mc.OnStart, mc.OnUpdate, mc.OnComplete, mc.OnRest = nil, nil, nil, nil
	mc.AutoPlay = false

	for i := range t.followers {
		d, err := motion.New(t.batch, from, from, mc)
		if err != nil {
			t.Destroy()
			return nil, fmt.Errorf("trail follower %d: %w", i, err)
		}
		t.followers[i] = d
	}

	for i, d := range t.followers {
		i := i
		d.Subscribe(func(v float64) {
			t.dirty = true
			if !t.jumping && i+1 < len(t.followers) {
				next := t.followers[i+1]
				if next.Target() != v {
					next.Set(v, true)
				}
			}
		})
		d.On(motion.EventRest, func() { t.restedAt[i] = t.frame })
	}
	t.dirty = false

	if cfg.OnStart != nil {
		t.On(motion.EventStart, cfg.OnStart)
	}
	if cfg.OnComplete != nil {
		t.On(motion.EventEnd, cfg.OnComplete)
	}
	if cfg.OnRest != nil {
		t.On(motion.EventRest, cfg.OnRest)
	}
	return t, nil
}

// Set feeds the leader target to follower 0.
func (t *Trail) Set(target float64) {
	if t.destroyed {
		return
	}
	t.begin()
	t.followers[0].Set(target, true)
}

// Jump moves every follower to value at once. Followers that were idle
// fire no lifecycle events.
func (t *Trail) Jump(value float64) {
	if t.destroyed {
		return
	}
	t.jumping = true
	for _, d := range t.followers {
		d.Jump(value)
	}
	t.jumping = false
	t.dirty = false
	t.subs.Emit(t.Values())
	t.settleIfIdle()
}

func (t *Trail) Stop() {
	if t.destroyed {
		return
	}
	for _, d := range t.followers {
		d.Stop()
	}
}

// Values returns the followers' current outputs in order.
func (t *Trail) Values() []float64 {
	vals := make([]float64, len(t.followers))
	for i, d := range t.followers {
		vals[i] = d.Value()
	}
	return vals
}

func (t *Trail) Len() int { return len(t.followers) }

// Follower exposes one member for inspection.
func (t *Trail) Follower(i int) *motion.Driver {
	return t.followers[i]
}

// SettleFrames reports, per follower, the trail frame on which it last came
// to rest.
func (t *Trail) SettleFrames() []int {
	return append([]int(nil), t.restedAt...)
}

// Subscribe receives the ordered values now and once per frame in which any
// follower moved.
func (t *Trail) Subscribe(fn func([]float64)) func() {
	if t.destroyed || fn == nil {
		return func() {}
	}
	motion.Safe("trail subscriber", func() { fn(t.Values()) })
	return t.subs.Add(fn)
}

func (t *Trail) On(event motion.Event, fn func()) func() {
	if t.destroyed || fn == nil {
		return func() {}
	}
	l, ok := t.events[event]
	if !ok {
		l = motion.NewListeners[struct{}](string(event))
		t.events[event] = l
	}
	return l.Add(func(struct{}) { fn() })
}

func (t *Trail) IsAnimating() bool {
	for _, d := range t.followers {
		if d != nil && d.IsAnimating() {
			return true
		}
	}
	return false
}

// Finished settles once every follower is at rest.
func (t *Trail) Finished() *motion.Completion { return t.finished }

func (t *Trail) Destroy() {
	if t.destroyed {
		return
	}
	t.destroyed = true
	for _, d := range t.followers {
		if d != nil {
			d.Destroy()
		}
	}
	t.batch.Close()
	t.subs.Clear()
	for _, l := range t.events {
		l.Clear()
	}
	t.finished.Cancel(motion.ErrDestroyed)
}

func (t *Trail) begin() {
	if t.running {
		return
	}
	if t.finished.IsDone() {
		t.finished = motion.NewCompletion()
	}
	t.running = true
	t.fire(motion.EventStart)
}

func (t *Trail) flush(time.Duration) {
	if t.destroyed {
		return
	}
	t.frame++
	if t.dirty {
		t.dirty = false
		t.subs.Emit(t.Values())
	}
	t.settleIfIdle()
}

func (t *Trail) settleIfIdle() {
	if !t.running || t.destroyed || t.IsAnimating() {
		return
	}
	t.running = false
	c := t.finished
	t.fire(motion.EventEnd)
	t.fire(motion.EventRest)
	c.Resolve()
}

func (t *Trail) fire(event motion.Event) {
	if l, ok := t.events[event]; ok {
		l.Emit(struct{}{})
	}
}
