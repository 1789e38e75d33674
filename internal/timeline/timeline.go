package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tanema/gween/ease"

	"github.com/san-kum/dynmotion/internal/frame"
	"github.com/san-kum/dynmotion/internal/motion"
	"github.com/san-kum/dynmotion/internal/spring"
)

var (
	ErrUnknownLabel = errors.New("timeline: unknown label")
	ErrUnknownEase  = errors.New("timeline: unknown ease")
	// ErrLocked is returned when building after the first Play.
	ErrLocked = errors.New("timeline: tracks are locked once playing")
	ErrKilled = errors.New("timeline: killed")
)

// State is the playhead state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StateReversing
	StatePaused
	StateKilled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateReversing:
		return "reversing"
	case StatePaused:
		return "paused"
	case StateKilled:
		return "killed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Callbacks fire once per transition.
type Callbacks struct {
	OnPlay            func()
	OnPause           func()
	OnComplete        func()
	OnReverseComplete func()
	OnUpdate          func(progress float64)
}

// TrackOption configures one track.
type TrackOption func(*trackOptions)

type trackOptions struct {
	spring   spring.Config
	stepper  spring.Stepper
	ease     ease.TweenFunc
	duration float64
	label    string
}

// WithSpring sets the physics of a spring track.
func WithSpring(cfg spring.Config) TrackOption {
	return func(o *trackOptions) { o.spring = cfg }
}

// WithStepper replaces the integrator of a spring track.
func WithStepper(s spring.Stepper) TrackOption {
	return func(o *trackOptions) { o.stepper = s }
}

// WithEase makes the track a fixed-duration tween instead of a spring.
func WithEase(fn ease.TweenFunc, seconds float64) TrackOption {
	return func(o *trackOptions) {
		o.ease = fn
		o.duration = seconds
	}
}

// Labelled adds a label at the track's start.
func Labelled(name string) TrackOption {
	return func(o *trackOptions) { o.label = name }
}

// Track is one To call: a target, its property end values and a start time.
type Track struct {
	Target   string
	Values   map[string]float64
	Start    float64
	Duration float64
}

// End is the absolute time the slowest property of the track settles.
func (t Track) End() float64 { return t.Start + t.Duration }

type channelKey struct {
	target, prop string
}

func (k channelKey) String() string { return k.target + "." + k.prop }

type segment struct {
	start float64
	curve curve
}

// channel is one animated property of one target. Its driver mirrors the
// playhead value for subscribers.
type channel struct {
	key      channelKey
	initial  float64
	last     float64
	segments []segment
	driver   *motion.Driver
}

// value at absolute time t: the latest-starting segment that began by t
// wins, later additions break ties.
func (c *channel) value(t float64) float64 {
	v := c.initial
	best := math.Inf(-1)
	for _, s := range c.segments {
		if s.start <= t && s.start >= best {
			best = s.start
			v = s.curve.at(t - s.start)
		}
	}
	return v
}

// Timeline owns its channels' drivers and one frame callback.
type Timeline struct {
	sched    frame.Scheduler
	cb       Callbacks
	tracks   []Track
	labels   map[string]float64
	channels map[channelKey]*channel
	order    []channelKey

	state   State
	reverse bool
	locked  bool
	elapsed float64

	handle frame.Handle
	gen    uint64
}

func New(sched frame.Scheduler, cb Callbacks) *Timeline {
	return &Timeline{
		sched:    sched,
		cb:       cb,
		labels:   make(map[string]float64),
		channels: make(map[channelKey]*channel),
	}
}

// Set gives target properties a starting value. Properties a track already
// moves keep their start.
func (tl *Timeline) Set(target string, values map[string]float64) error {
	if err := tl.mutable(); err != nil {
		return err
	}
	for _, prop := range sortedProps(values) {
		ch, err := tl.channel(channelKey{target, prop})
		if err != nil {
			return err
		}
		if len(ch.segments) > 0 {
			continue
		}
		ch.initial, ch.last = values[prop], values[prop]
		ch.driver.Jump(values[prop])
	}
	return nil
}

// AddLabel names a point on the timeline for later Label positions.
func (tl *Timeline) AddLabel(name string, at Position) error {
	if err := tl.mutable(); err != nil {
		return err
	}
	t, err := tl.resolve(at)
	if err != nil {
		return err
	}
	tl.labels[name] = t
	return nil
}

// To adds a track animating each property of target from its previous end
// value to values. A spring track lasts as long as its slowest property
// takes to settle.
func (tl *Timeline) To(target string, values map[string]float64, at Position, opts ...TrackOption) (Track, error) {
	if err := tl.mutable(); err != nil {
		return Track{}, err
	}
	o := trackOptions{spring: spring.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	o.spring = o.spring.WithDefaults()

	start, err := tl.resolve(at)
	if err != nil {
		return Track{}, err
	}

	track := Track{Target: target, Values: make(map[string]float64, len(values)), Start: start}
	curves := make(map[channelKey]curve, len(values))
	for _, prop := range sortedProps(values) {
		key := channelKey{target, prop}
		from := 0.0
		if ch, ok := tl.channels[key]; ok {
			from = ch.last
		}
		c, err := tl.curve(from, values[prop], o)
		if err != nil {
			return Track{}, fmt.Errorf("track %s at %s: %w", key, at, err)
		}
		curves[key] = c
		track.Values[prop] = values[prop]
		track.Duration = math.Max(track.Duration, c.duration())
	}

	for _, prop := range sortedProps(values) {
		key := channelKey{target, prop}
		ch, err := tl.channel(key)
		if err != nil {
			return Track{}, err
		}
		ch.segments = append(ch.segments, segment{start: start, curve: curves[key]})
		ch.last = values[prop]
	}
	if o.label != "" {
		tl.labels[o.label] = start
	}
	tl.tracks = append(tl.tracks, track)
	return track, nil
}

func (tl *Timeline) curve(from, to float64, o trackOptions) (curve, error) {
	if o.ease != nil {
		if o.duration <= 0 || math.IsNaN(o.duration) || math.IsInf(o.duration, 0) {
			return nil, fmt.Errorf("%w: ease duration %v", spring.ErrInvalidConfig, o.duration)
		}
		return newEaseCurve(from, to, o.duration, o.ease), nil
	}
	return newSpringCurve(o.stepper, from, to, o.spring)
}

func (tl *Timeline) channel(key channelKey) (*channel, error) {
	if ch, ok := tl.channels[key]; ok {
		return ch, nil
	}
	d, err := motion.New(tl.sched, 0, 0, motion.DefaultConfig())
	if err != nil {
		return nil, err
	}
	ch := &channel{key: key, driver: d}
	tl.channels[key] = ch
	tl.order = append(tl.order, key)
	return ch, nil
}

func (tl *Timeline) mutable() error {
	switch {
	case tl.state == StateKilled:
		return ErrKilled
	case tl.locked:
		return ErrLocked
	}
	return nil
}

func (tl *Timeline) resolve(p Position) (float64, error) {
	var t float64
	switch p.kind {
	case posAt:
		t = p.seconds
	case posLabel:
		base, ok := tl.labels[p.label]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownLabel, p.label)
		}
		t = base + p.seconds
	default:
		t = tl.Duration() + p.seconds
	}
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("timeline: invalid position %s", p)
	}
	return math.Max(t, 0), nil
}

// Duration is the end of the last track.
func (tl *Timeline) Duration() float64 {
	d := 0.0
	for _, t := range tl.tracks {
		d = math.Max(d, t.End())
	}
	return d
}

func (tl *Timeline) Elapsed() float64 { return tl.elapsed }

// Progress is the playhead as a fraction of Duration.
func (tl *Timeline) Progress() float64 {
	d := tl.Duration()
	if d == 0 {
		return 0
	}
	return tl.elapsed / d
}

func (tl *Timeline) State() State { return tl.state }

func (tl *Timeline) Tracks() []Track {
	return append([]Track(nil), tl.tracks...)
}

// Labels returns label times by name.
func (tl *Timeline) Labels() map[string]float64 {
	out := make(map[string]float64, len(tl.labels))
	for k, v := range tl.labels {
		out[k] = v
	}
	return out
}

// Values returns every target's properties at the playhead.
func (tl *Timeline) Values() map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, key := range tl.order {
		props, ok := out[key.target]
		if !ok {
			props = make(map[string]float64)
			out[key.target] = props
		}
		props[key.prop] = tl.channels[key].driver.Value()
	}
	return out
}

// ValuesAt computes every value at t without moving the playhead.
func (tl *Timeline) ValuesAt(t float64) map[string]map[string]float64 {
	t = tl.clamp(t)
	out := make(map[string]map[string]float64)
	for _, key := range tl.order {
		props, ok := out[key.target]
		if !ok {
			props = make(map[string]float64)
			out[key.target] = props
		}
		props[key.prop] = tl.channels[key].value(t)
	}
	return out
}

// Driver returns the driver mirroring target.prop, for subscribing.
func (tl *Timeline) Driver(target, prop string) (*motion.Driver, bool) {
	ch, ok := tl.channels[channelKey{target, prop}]
	if !ok {
		return nil, false
	}
	return ch.driver, true
}

// Play runs the playhead forward from where it is, locking the track list.
// At the end it restarts from zero.
func (tl *Timeline) Play() {
	if tl.state == StateKilled || tl.state == StatePlaying {
		return
	}
	tl.locked = true
	from := tl.state
	tl.reverse = false
	if tl.elapsed >= tl.Duration() {
		tl.elapsed = 0
		tl.render()
	}
	tl.state = StatePlaying
	tl.schedule()
	if from != StateReversing {
		motion.Safe("onPlay", tl.cb.OnPlay)
	}
}

// Pause holds the playhead where it is.
func (tl *Timeline) Pause() {
	if tl.state != StatePlaying && tl.state != StateReversing {
		return
	}
	tl.cancel()
	tl.state = StatePaused
	motion.Safe("onPause", tl.cb.OnPause)
}

// Resume continues a paused timeline in its last direction.
func (tl *Timeline) Resume() {
	if tl.state != StatePaused {
		return
	}
	if tl.reverse {
		tl.state = StateReversing
	} else {
		tl.state = StatePlaying
	}
	tl.schedule()
	motion.Safe("onPlay", tl.cb.OnPlay)
}

// Reverse flips the direction. A running timeline turns around at the
// current playhead; a stopped one starts playing the other way, from the
// end if it sits at zero.
func (tl *Timeline) Reverse() {
	if tl.state == StateKilled {
		return
	}
	tl.locked = true
	tl.reverse = !tl.reverse

	switch tl.state {
	case StatePlaying, StateReversing:
		if tl.reverse {
			tl.state = StateReversing
		} else {
			tl.state = StatePlaying
		}
		return
	}

	if tl.reverse && tl.elapsed <= 0 {
		tl.elapsed = tl.Duration()
		tl.render()
	} else if !tl.reverse && tl.elapsed >= tl.Duration() {
		tl.elapsed = 0
		tl.render()
	}
	if tl.reverse {
		tl.state = StateReversing
	} else {
		tl.state = StatePlaying
	}
	tl.schedule()
	motion.Safe("onPlay", tl.cb.OnPlay)
}

// Seek moves the playhead to t, clamped to [0, Duration], in any state.
// Values are recomputed from zero so repeated seeks agree exactly. It never
// fires OnComplete.
func (tl *Timeline) Seek(t float64) {
	if tl.state == StateKilled {
		return
	}
	tl.elapsed = tl.clamp(t)
	tl.render()
}

// SeekProgress seeks to a fraction of Duration.
func (tl *Timeline) SeekProgress(p float64) {
	tl.Seek(p * tl.Duration())
}

// Kill cancels the playhead and destroys every driver.
func (tl *Timeline) Kill() {
	if tl.state == StateKilled {
		return
	}
	tl.cancel()
	tl.state = StateKilled
	for _, key := range tl.order {
		tl.channels[key].driver.Destroy()
	}
	tl.cb = Callbacks{}
}

func (tl *Timeline) Destroy() { tl.Kill() }

func (tl *Timeline) clamp(t float64) float64 {
	if math.IsNaN(t) {
		return 0
	}
	return math.Max(0, math.Min(t, tl.Duration()))
}

func (tl *Timeline) render() {
	for _, key := range tl.order {
		ch := tl.channels[key]
		ch.driver.Jump(ch.value(tl.elapsed))
	}
	if fn := tl.cb.OnUpdate; fn != nil {
		p := tl.Progress()
		motion.Safe("onUpdate", func() { fn(p) })
	}
}

func (tl *Timeline) schedule() {
	if tl.handle != 0 {
		tl.sched.Cancel(tl.handle)
	}
	tl.gen++
	gen := tl.gen
	tl.handle = tl.sched.RequestFrame(func(time.Duration) { tl.tick(gen) })
}

func (tl *Timeline) cancel() {
	if tl.handle != 0 {
		tl.sched.Cancel(tl.handle)
		tl.handle = 0
	}
	tl.gen++
}

// tick moves the playhead one fixed frame in the current direction.
func (tl *Timeline) tick(gen uint64) {
	if gen != tl.gen || (tl.state != StatePlaying && tl.state != StateReversing) {
		return
	}
	tl.handle = 0

	dur := tl.Duration()
	if tl.reverse {
		tl.elapsed = math.Max(0, tl.elapsed-spring.Dt)
	} else {
		tl.elapsed = math.Min(dur, tl.elapsed+spring.Dt)
	}
	tl.render()

	if gen != tl.gen {
		return
	}
	switch {
	case !tl.reverse && tl.elapsed >= dur:
		tl.state = StateIdle
		motion.Safe("onComplete", tl.cb.OnComplete)
	case tl.reverse && tl.elapsed <= 0:
		tl.state = StateIdle
		motion.Safe("onReverseComplete", tl.cb.OnReverseComplete)
	default:
		tl.schedule()
	}
}

func sortedProps(values map[string]float64) []string {
	props := make([]string, 0, len(values))
	for k := range values {
		props = append(props, k)
	}
	sort.Strings(props)
	return props
}
