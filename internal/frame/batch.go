package frame

import "time"

// Batch folds the frame requests of many callers into one callback on a
// parent scheduler and runs a flush hook after each dispatched batch. It
// belongs to the parent's callback goroutine and holds no lock.
type Batch struct {
	parent  Scheduler
	flush   FrameFunc
	next    Handle
	frames  queue
	timers  map[Handle]Handle
	pending Handle
	closed  bool
}

// NewBatch creates a batch on parent. flush may be nil.
func NewBatch(parent Scheduler, flush FrameFunc) *Batch {
	return &Batch{
		parent: parent,
		flush:  flush,
		frames: newQueue(),
		timers: make(map[Handle]Handle),
	}
}

func (b *Batch) RequestFrame(fn FrameFunc) Handle {
	b.next++
	if b.closed {
		return b.next
	}
	b.frames.push(b.next, fn)
	if b.pending == 0 {
		b.pending = b.parent.RequestFrame(b.run)
	}
	return b.next
}

func (b *Batch) AfterFunc(d time.Duration, fn func()) Handle {
	b.next++
	if b.closed {
		return b.next
	}
	h := b.next
	b.timers[h] = b.parent.AfterFunc(d, func() {
		delete(b.timers, h)
		fn()
	})
	return h
}

func (b *Batch) Cancel(h Handle) {
	if h == 0 {
		return
	}
	b.frames.remove(h)
	if ph, ok := b.timers[h]; ok {
		b.parent.Cancel(ph)
		delete(b.timers, h)
	}
	if b.frames.len() == 0 && b.pending != 0 {
		b.parent.Cancel(b.pending)
		b.pending = 0
	}
}

func (b *Batch) Now() time.Duration {
	return b.parent.Now()
}

// Pending counts callbacks and timers waiting in this batch.
func (b *Batch) Pending() int {
	return b.frames.len() + len(b.timers)
}

// Close cancels everything the batch holds on its parent. Later requests
// are accepted and dropped.
func (b *Batch) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.pending != 0 {
		b.parent.Cancel(b.pending)
		b.pending = 0
	}
	for h, ph := range b.timers {
		b.parent.Cancel(ph)
		delete(b.timers, h)
	}
	b.frames = newQueue()
}

func (b *Batch) run(now time.Duration) {
	b.pending = 0
	if b.closed {
		return
	}
	for _, h := range b.frames.drain() {
		if fn, ok := b.frames.remove(h); ok {
			fn(now)
		}
	}
	if b.flush != nil && !b.closed {
		b.flush(now)
	}
}
