package frame

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic scheduler advanced explicitly by Step. Each Step
// moves the clock by exactly one Interval.
type Manual struct {
	mu            sync.Mutex
	now           time.Duration
	next          Handle
	frames        queue
	timers        map[Handle]*manualTimer
	frame         int
	fireCancelled bool
	stale         []FrameFunc
}

type manualTimer struct {
	handle Handle
	due    time.Duration
	fn     func()
}

type ManualOption func(*Manual)

// FireCancelled makes cancelled frame callbacks still run on the next Step,
// the way a platform frame callback can race its cancellation.
func FireCancelled() ManualOption {
	return func(m *Manual) { m.fireCancelled = true }
}

func NewManual(opts ...ManualOption) *Manual {
	m := &Manual{
		frames: newQueue(),
		timers: make(map[Handle]*manualTimer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manual) RequestFrame(fn FrameFunc) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	m.frames.push(m.next, fn)
	return m.next
}

func (m *Manual) AfterFunc(d time.Duration, fn func()) Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.next++
	m.timers[m.next] = &manualTimer{handle: m.next, due: m.now + d, fn: fn}
	return m.next
}

func (m *Manual) Cancel(h Handle) {
	if h == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn, ok := m.frames.remove(h); ok && m.fireCancelled {
		m.stale = append(m.stale, fn)
	}
	delete(m.timers, h)
}

func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Frame returns how many Steps have run.
func (m *Manual) Frame() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frame
}

// Pending counts frame callbacks and timers that have not run yet.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames.len() + len(m.timers)
}

// Step advances the clock one frame: due timers fire first, then every frame
// callback requested before this Step.
func (m *Manual) Step() {
	m.mu.Lock()
	m.now += Interval
	m.frame++
	now := m.now
	m.mu.Unlock()

	m.fireTimers(now)

	m.mu.Lock()
	batch := m.frames.drain()
	stale := m.stale
	m.stale = nil
	m.mu.Unlock()

	for _, fn := range stale {
		fn(now)
	}
	for _, h := range batch {
		m.mu.Lock()
		fn, ok := m.frames.remove(h)
		m.mu.Unlock()
		if ok {
			fn(now)
		}
	}
}

func (m *Manual) fireTimers(now time.Duration) {
	for {
		m.mu.Lock()
		due := make([]*manualTimer, 0)
		for _, t := range m.timers {
			if t.due <= now {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			m.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].due != due[j].due {
				return due[i].due < due[j].due
			}
			return due[i].handle < due[j].handle
		})
		t := due[0]
		delete(m.timers, t.handle)
		m.mu.Unlock()

		t.fn()
	}
}

// Advance steps enough frames to cover d.
func (m *Manual) Advance(d time.Duration) {
	n := int((d + Interval - 1) / Interval)
	for i := 0; i < n; i++ {
		m.Step()
	}
}

// RunUntil steps until cond holds or maxFrames have run, and reports whether
// cond was met.
func (m *Manual) RunUntil(cond func() bool, maxFrames int) bool {
	for i := 0; i < maxFrames; i++ {
		if cond() {
			return true
		}
		m.Step()
	}
	return cond()
}
