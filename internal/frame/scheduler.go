package frame

import (
	"errors"
	"time"
)

// Interval is the nominal display frame period.
const Interval = time.Second / 60

// ErrClosed is returned when work is submitted to a stopped Loop.
var ErrClosed = errors.New("frame: scheduler closed")

// Handle identifies one pending frame callback or timer. The zero Handle is
// never issued and cancelling it is a no-op.
type Handle uint64

// FrameFunc receives the scheduler clock at the start of the frame.
type FrameFunc func(now time.Duration)

type Scheduler interface {
	// RequestFrame runs fn once on the next frame. Requests made while a
	// frame is being dispatched run on the following frame.
	RequestFrame(fn FrameFunc) Handle

	// AfterFunc runs fn once after d, on the scheduler goroutine. It is a
	// plain timer, not aligned to frames.
	AfterFunc(d time.Duration, fn func()) Handle

	// Cancel drops a pending frame callback or timer.
	Cancel(h Handle)

	// Now reports the scheduler clock.
	Now() time.Duration
}

// queue keeps pending frame callbacks in request order. Not goroutine-safe.
type queue struct {
	order []Handle
	fns   map[Handle]FrameFunc
}

func newQueue() queue {
	return queue{fns: make(map[Handle]FrameFunc)}
}

func (q *queue) push(h Handle, fn FrameFunc) {
	q.order = append(q.order, h)
	q.fns[h] = fn
}

func (q *queue) remove(h Handle) (FrameFunc, bool) {
	fn, ok := q.fns[h]
	if ok {
		delete(q.fns, h)
	}
	return fn, ok
}

// drain detaches the current batch. Handles cancelled after the drain are
// filtered by the caller through remove.
func (q *queue) drain() []Handle {
	batch := q.order
	q.order = nil
	return batch
}

func (q *queue) len() int {
	return len(q.fns)
}
