// Package group animates a fixed set of named values with one spring driver
// per key and a single, per-frame coalesced snapshot stream.
package group

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/motion"
)

// ErrUnknownKey is returned when Set names a key the group was not built with.
var ErrUnknownKey = errors.New("group: unknown key")

// Group owns one Driver per key. All members share one frame batch, so a
// frame in which several members move produces exactly one snapshot.
type Group struct {
	batch     *frame.Batch
	keys      []string
	members   map[string]*motion.Driver
	subs      *motion.Listeners[map[string]float64]
	events    map[motion.Event]*motion.Listeners[struct{}]
	finished  *motion.Completion
	dirty     bool
	running   bool
	destroyed bool
}

// New creates a group at rest on initial. overrides replaces cfg per key.
// Lifecycle callbacks in cfg apply to the group as a whole, not per member.
func New(sched frame.Scheduler, initial map[string]float64, cfg motion.Config, overrides map[string]motion.Config) (*Group, error) {
	g := &Group{
		members:  make(map[string]*motion.Driver, len(initial)),
		subs:     motion.NewListeners[map[string]float64]("group subscriber"),
		events:   make(map[motion.Event]*motion.Listeners[struct{}]),
		finished: motion.NewCompletion(),
	}
	g.batch = frame.NewBatch(sched, g.flush)

	hooks := cfg
	memberCfg := stripCallbacks(cfg)
	memberCfg.AutoPlay = false

	for key := range initial {
		g.keys = append(g.keys, key)
	}
	sort.Strings(g.keys)

	for _, key := range g.keys {
		mc := memberCfg
		if o, ok := overrides[key]; ok {
			mc = stripCallbacks(o)
			mc.AutoPlay = false
		}
		d, err := motion.New(g.batch, initial[key], initial[key], mc)
		if err != nil {
			g.Destroy()
			return nil, fmt.Errorf("group member %q: %w", key, err)
		}
		g.members[key] = d
		d.Subscribe(func(float64) { g.dirty = true })
	}
	g.dirty = false

	if hooks.OnStart != nil {
		g.On(motion.EventStart, hooks.OnStart)
	}
	if hooks.OnComplete != nil {
		g.On(motion.EventEnd, hooks.OnComplete)
	}
	if hooks.OnRest != nil {
		g.On(motion.EventRest, hooks.OnRest)
	}
	return g, nil
}

func stripCallbacks(cfg motion.Config) motion.Config {
	cfg.OnStart, cfg.OnUpdate, cfg.OnComplete, cfg.OnRest = nil, nil, nil, nil
	return cfg
}

// Set retargets only the given keys; the others keep moving undisturbed.
// override, when non-nil, replaces the physics of the retargeted members.
func (g *Group) Set(values map[string]float64, override *motion.Config) error {
	if g.destroyed {
		return nil
	}
	for key := range values {
		if _, ok := g.members[key]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}
	if override != nil {
		for key := range values {
			if err := g.members[key].SetSpring(override.Config); err != nil {
				return err
			}
		}
	}

	g.begin()
	for _, key := range g.keys {
		if v, ok := values[key]; ok {
			g.members[key].Set(v, true)
		}
	}
	return nil
}

// Start animates every member toward its current target.
func (g *Group) Start() {
	if g.destroyed {
		return
	}
	g.begin()
	for _, key := range g.keys {
		g.members[key].Start()
	}
}

// Jump moves the given keys instantly and notifies subscribers at once.
func (g *Group) Jump(values map[string]float64) error {
	if g.destroyed {
		return nil
	}
	for key := range values {
		if _, ok := g.members[key]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownKey, key)
		}
	}
	for _, key := range g.keys {
		if v, ok := values[key]; ok {
			g.members[key].Jump(v)
		}
	}
	g.dirty = false
	g.subs.Emit(g.Get())
	g.settleIfIdle()
	return nil
}

func (g *Group) Stop() {
	g.each((*motion.Driver).Stop)
}

func (g *Group) Pause() {
	g.each((*motion.Driver).Pause)
}

func (g *Group) Resume() {
	g.each((*motion.Driver).Resume)
}

func (g *Group) each(fn func(*motion.Driver)) {
	if g.destroyed {
		return
	}
	for _, key := range g.keys {
		fn(g.members[key])
	}
}

// Get returns a snapshot of the current values.
func (g *Group) Get() map[string]float64 {
	snap := make(map[string]float64, len(g.members))
	for key, d := range g.members {
		snap[key] = d.Value()
	}
	return snap
}

// Velocity reports one member's velocity.
func (g *Group) Velocity(key string) (float64, bool) {
	d, ok := g.members[key]
	if !ok {
		return 0, false
	}
	return d.Velocity(), true
}

func (g *Group) Keys() []string {
	return append([]string(nil), g.keys...)
}

// Subscribe receives the current snapshot now and one snapshot per frame in
// which any member moved.
func (g *Group) Subscribe(fn func(map[string]float64)) func() {
	if g.destroyed || fn == nil {
		return func() {}
	}
	motion.Safe("group subscriber", func() { fn(g.Get()) })
	return g.subs.Add(fn)
}

func (g *Group) On(event motion.Event, fn func()) func() {
	if g.destroyed || fn == nil {
		return func() {}
	}
	l, ok := g.events[event]
	if !ok {
		l = motion.NewListeners[struct{}](string(event))
		g.events[event] = l
	}
	return l.Add(func(struct{}) { fn() })
}

func (g *Group) IsAnimating() bool {
	for _, d := range g.members {
		if d.IsAnimating() {
			return true
		}
	}
	return false
}

// Finished settles once every member of the current run is at rest.
func (g *Group) Finished() *motion.Completion { return g.finished }

// Destroy destroys every member and releases the shared frame callback.
func (g *Group) Destroy() {
	if g.destroyed {
		return
	}
	g.destroyed = true
	for _, d := range g.members {
		d.Destroy()
	}
	g.batch.Close()
	g.subs.Clear()
	for _, l := range g.events {
		l.Clear()
	}
	g.finished.Cancel(motion.ErrDestroyed)
}

func (g *Group) begin() {
	if g.running {
		return
	}
	if g.finished.IsDone() {
		g.finished = motion.NewCompletion()
	}
	g.running = true
	g.fire(motion.EventStart)
}

// flush runs once per frame after every member stepped.
func (g *Group) flush(time.Duration) {
	if g.destroyed {
		return
	}
	if g.dirty {
		g.dirty = false
		g.subs.Emit(g.Get())
	}
	g.settleIfIdle()
}

func (g *Group) settleIfIdle() {
	if !g.running || g.destroyed || g.IsAnimating() {
		return
	}
	for _, d := range g.members {
		if d.IsPaused() {
			return
		}
	}
	g.running = false
	c := g.finished
	g.fire(motion.EventEnd)
	g.fire(motion.EventRest)
	c.Resolve()
}

func (g *Group) fire(event motion.Event) {
	if l, ok := g.events[event]; ok {
		l.Emit(struct{}{})
	}
}
