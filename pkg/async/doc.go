// Package async provides a bounded concurrency pool for CPU-bound work.
//
// The pool is a counting semaphore: Run blocks until a slot is available
// (or the context is canceled), executes the function, and frees the slot.
// It deliberately runs the function on the calling goroutine — the point is
// to cap parallelism of expensive operations, not to make them fire-and-forget:
//
//	pool := async.NewPool(4)
//	hash, err := async.Run(ctx, pool, func() (string, error) {
//		return hasher.Hash(plain)
//	})
package async
