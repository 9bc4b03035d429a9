// Package resource governs what refinement runs may consume when several of
// them share a process.
//
// A Controller manages three resource types:
//
//   - Memory: queue and scratch bytes reserved per run (non-blocking, fail-fast)
//   - Concurrency: number of refinement runs executing at once
//   - IO: throughput of snapshot writes, so that persisting statistics does not
//     starve the refinement workers
//
// # Memory
//
// AcquireMemory is non-blocking and returns ErrMemoryLimitExceeded at once
// when the reservation would exceed the limit:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	if err := rc.AcquireMemory(q.MemoryUsage()); err != nil {
//	    // caller decides whether to retry with a smaller k
//	}
//	defer rc.ReleaseMemory(q.MemoryUsage())
//
// # Runs
//
// AcquireRun blocks until a run slot is free or ctx is done.
//
// # IO
//
// NewRateLimitedWriter throttles an io.Writer with a token bucket sized to one
// second of throughput. Large writes are split so that no single wait exceeds
// the bucket.
//
// A nil *Controller imposes no limits.
package resource
