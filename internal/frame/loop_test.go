package frame

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLoopRunsFramesOnLoopGoroutine(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	l := NewLoop(120)
	l.Start(ctx)

	got := make(chan time.Duration, 1)
	err := l.Call(ctx, func() {
		l.RequestFrame(func(now time.Duration) { got <- now })
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}

	select {
	case now := <-got:
		if now <= 0 {
			t.Errorf("expected positive frame time, got %v", now)
		}
	case <-ctx.Done():
		t.Fatal("frame never fired")
	}
}

func TestLoopTimerAndCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	l := NewLoop(60)
	l.Start(ctx)

	fired := make(chan string, 2)
	h := l.AfterFunc(5*time.Millisecond, func() { fired <- "cancelled" })
	l.Cancel(h)
	l.AfterFunc(20*time.Millisecond, func() { fired <- "ok" })

	select {
	case v := <-fired:
		if v != "ok" {
			t.Errorf("cancelled timer fired")
		}
	case <-ctx.Done():
		t.Fatal("timer never fired")
	}
}

func TestLoopClosed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(60)
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	if err := l.Do(func() {}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}
