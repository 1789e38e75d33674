package frame

import (
	"context"
	"sync"
	"time"
)

// Loop is a real-time scheduler ticking at a fixed rate. All callbacks and
// submitted tasks run on the goroutine executing Run.
type Loop struct {
	mu       sync.Mutex
	interval time.Duration
	next     Handle
	frames   queue
	timers   map[Handle]*time.Timer
	tasks    chan func()
	done     chan struct{}
	closed   bool
	started  time.Time
}

// NewLoop creates a loop ticking fps times per second. fps <= 0 selects 60.
func NewLoop(fps int) *Loop {
	interval := Interval
	if fps > 0 {
		interval = time.Second / time.Duration(fps)
	}
	return &Loop{
		interval: interval,
		frames:   newQueue(),
		timers:   make(map[Handle]*time.Timer),
		tasks:    make(chan func(), 256),
		done:     make(chan struct{}),
		started:  time.Now(),
	}
}

func (l *Loop) RequestFrame(fn FrameFunc) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	l.frames.push(l.next, fn)
	return l.next
}

func (l *Loop) AfterFunc(d time.Duration, fn func()) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	h := l.next
	l.timers[h] = time.AfterFunc(d, func() {
		_ = l.Do(func() {
			l.mu.Lock()
			_, live := l.timers[h]
			delete(l.timers, h)
			l.mu.Unlock()
			if live {
				fn()
			}
		})
	})
	return h
}

func (l *Loop) Cancel(h Handle) {
	if h == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames.remove(h)
	if t, ok := l.timers[h]; ok {
		t.Stop()
		delete(l.timers, h)
	}
}

func (l *Loop) Now() time.Duration {
	return time.Since(l.started)
}

// Pending counts frame callbacks and timers that have not run yet.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frames.len() + len(l.timers)
}

// Do queues fn to run on the loop goroutine.
func (l *Loop) Do(fn func()) error {
	select {
	case <-l.done:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.done:
		return ErrClosed
	}
}

// Call runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if err := l.Do(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Start runs the loop in a new goroutine until ctx is done.
func (l *Loop) Start(ctx context.Context) {
	go func() { _ = l.Run(ctx) }()
}

// Run blocks dispatching frames and tasks until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	defer l.close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		case <-ticker.C:
			l.dispatch()
		}
	}
}

func (l *Loop) dispatch() {
	now := l.Now()

	l.mu.Lock()
	batch := l.frames.drain()
	l.mu.Unlock()

	for _, h := range batch {
		l.mu.Lock()
		fn, ok := l.frames.remove(h)
		l.mu.Unlock()
		if ok {
			fn(now)
		}
	}
}

func (l *Loop) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	close(l.done)
	for h, t := range l.timers {
		t.Stop()
		delete(l.timers, h)
	}
}
