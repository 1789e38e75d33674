package motion

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrDestroyed settles the Completion of a run whose driver was destroyed.
	ErrDestroyed = errors.New("motion: driver destroyed")

	// ErrReset settles the Completion of a run abandoned by Reset.
	ErrReset = errors.New("motion: driver reset")
)

// Completion is a one-shot awaitable settled when an animation run reaches
// rest, or cancelled with an error when the run can never get there. It is
// safe for use from any goroutine.
type Completion struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	err       error
	callbacks []func(error)
}

func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Resolved returns an already-settled Completion.
func Resolved() *Completion {
	c := NewCompletion()
	c.Resolve()
	return c
}

// Resolve settles c successfully. It reports false if c was already settled.
func (c *Completion) Resolve() bool {
	return c.settle(nil)
}

// Cancel settles c with err. It reports false if c was already settled.
func (c *Completion) Cancel(err error) bool {
	if err == nil {
		err = context.Canceled
	}
	return c.settle(err)
}

func (c *Completion) settle(err error) bool {
	c.mu.Lock()
	if c.settled {
		c.mu.Unlock()
		return false
	}
	c.settled = true
	c.err = err
	callbacks := c.callbacks
	c.callbacks = nil
	close(c.done)
	c.mu.Unlock()

	for _, fn := range callbacks {
		Safe("completion", func() { fn(err) })
	}
	return true
}

// Done is closed once c settles.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns nil while pending or after a successful settle.
func (c *Completion) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Completion) IsDone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// OnDone registers fn to run when c settles, on the settling goroutine. If c
// already settled fn runs immediately.
func (c *Completion) OnDone(fn func(err error)) {
	c.mu.Lock()
	if !c.settled {
		c.callbacks = append(c.callbacks, fn)
		c.mu.Unlock()
		return
	}
	err := c.err
	c.mu.Unlock()
	Safe("completion", func() { fn(err) })
}

// Wait blocks until c settles or ctx is done. Never call it from the
// scheduler goroutine that is supposed to settle c.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// All returns a Completion settled when every input has settled. The first
// error among them, if any, cancels the result. No inputs resolve at once.
func All(cs ...*Completion) *Completion {
	all := NewCompletion()
	if len(cs) == 0 {
		all.Resolve()
		return all
	}

	var mu sync.Mutex
	remaining := len(cs)
	var firstErr error
	for _, c := range cs {
		c.OnDone(func(err error) {
			mu.Lock()
			remaining--
			if err != nil && firstErr == nil {
				firstErr = err
			}
			last := remaining == 0
			failed := firstErr
			mu.Unlock()
			if !last {
				return
			}
			if failed != nil {
				all.Cancel(failed)
				return
			}
			all.Resolve()
		})
	}
	return all
}
