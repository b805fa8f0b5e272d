package flow

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type counter struct {
	seen []string
}

func TestFlow_RunsStepsInOrder(t *testing.T) {
	f := New("book",
		NewStep("load", func(ctx context.Context, s *counter) error {
			s.seen = append(s.seen, "load")
			return nil
		}),
		NewStep("write", func(ctx context.Context, s *counter) error {
			s.seen = append(s.seen, "write")
			return nil
		}),
	)

	var s counter
	if err := f.Run(context.Background(), &s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.seen) != 2 || s.seen[0] != "load" || s.seen[1] != "write" {
		t.Errorf("unexpected order %v", s.seen)
	}
}

func TestFlow_StopsAtFirstFailure(t *testing.T) {
	sentinel := errors.New("calendar down")
	f := New("book",
		NewStep("write", func(ctx context.Context, s *counter) error { return sentinel }),
		NewStep("never", func(ctx context.Context, s *counter) error {
			s.seen = append(s.seen, "never")
			return nil
		}),
	)

	var s counter
	err := f.Run(context.Background(), &s)
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	var stepErr *StepError
	if !errors.As(err, &stepErr) || stepErr.Step != "write" {
		t.Errorf("expected StepError for write, got %v", err)
	}
	if len(s.seen) != 0 {
		t.Errorf("later steps must not run")
	}
}

func TestFlow_Then(t *testing.T) {
	base := New("create", NewStep("a", func(ctx context.Context, s *counter) error {
		s.seen = append(s.seen, "a")
		return nil
	}))
	ext := base.Then("reschedule", NewStep("b", func(ctx context.Context, s *counter) error {
		s.seen = append(s.seen, "b")
		return nil
	}))

	var s counter
	_ = ext.Run(context.Background(), &s)
	if len(s.seen) != 2 || ext.Name() != "reschedule" {
		t.Errorf("unexpected result %v %s", s.seen, ext.Name())
	}
}

func TestLimiter_BoundsConcurrency(t *testing.T) {
	l := NewLimiter(3)
	var inFlight, peak int32

	err := l.ForEach(context.Background(), 20, func(i int) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak > 3 {
		t.Errorf("peak concurrency %d exceeds limit", peak)
	}
}

func TestLimiter_ReleasesSlotOnPanic(t *testing.T) {
	l := NewLimiter(1)
	func() {
		defer func() { _ = recover() }()
		_ = l.Run(context.Background(), func() { panic("boom") })
	}()

	done := make(chan struct{})
	go func() {
		_ = l.Run(context.Background(), func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("slot leaked after panic")
	}
}
