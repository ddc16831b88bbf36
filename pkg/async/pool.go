package async

import (
	"context"
	"runtime"
)

// Pool bounds the number of concurrently executing tasks. It exists for
// CPU- and memory-heavy work such as argon2id hashing: without a bound, a
// burst of signups could grab all cores and starve unrelated request
// handling.
type Pool struct {
	slots chan struct{}
}

// NewPool creates a pool with the given concurrency limit. A non-positive
// size falls back to GOMAXPROCS/2 (minimum 1), leaving headroom for the
// request dispatch path.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = runtime.GOMAXPROCS(0) / 2
		if size < 1 {
			size = 1
		}
	}
	return &Pool{slots: make(chan struct{}, size)}
}

// Size returns the concurrency limit.
func (p *Pool) Size() int {
	return cap(p.slots)
}

func (p *Pool) acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) release() {
	<-p.slots
}

// Run executes fn on the calling goroutine once a pool slot is free. Waiting
// for a slot respects ctx; once fn starts it runs to completion, since the
// underlying work (key derivation) has no external I/O to interrupt.
func Run[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	var zero T

	if err := p.acquire(ctx); err != nil {
		return zero, err
	}
	defer p.release()

	return fn()
}
