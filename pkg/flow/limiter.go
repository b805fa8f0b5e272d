package flow

import (
	"context"
	"sync"
)

// Limiter is a counting semaphore for outbound fan-out.
type Limiter struct {
	slots chan struct{}
}

func NewLimiter(max int) *Limiter {
	if max <= 0 {
		max = 1
	}
	return &Limiter{slots: make(chan struct{}, max)}
}

// Run executes fn while holding a slot. The slot is released even if fn
// panics; the panic is re-raised to the caller.
func (l *Limiter) Run(ctx context.Context, fn func()) error {
	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-l.slots }()
	fn()
	return nil
}

// ForEach runs fn for every index in [0, n) with at most the limiter's
// width in flight, and returns once all calls have finished. Indexes that
// never started because ctx ended are reported through fn's absence only;
// the context error is returned.
func (l *Limiter) ForEach(ctx context.Context, n int, fn func(i int)) error {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ctxErr  error
		panicked any
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					panicked = r
					mu.Unlock()
				}
			}()
			if err := l.Run(ctx, func() { fn(i) }); err != nil {
				mu.Lock()
				ctxErr = err
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if panicked != nil {
		panic(panicked)
	}
	return ctxErr
}
