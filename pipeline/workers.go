package pipeline

import (
	"sync/atomic"
	"time"
)

const (
	acquireBackoffMin = 50 * time.Microsecond
	acquireBackoffMax = 10 * time.Millisecond
)

// A bounded pool of background worker slots. Jobs are one-shot
// request/response calls: the caller blocks until its job completes, so a
// job's inputs are never shared with the caller mid-flight. When no slot
// can be acquired (pool closed) the job runs synchronously on the calling
// goroutine and produces identical output; dispatch failure is invisible to
// callers by construction.
type workerPool struct {
	tokens chan struct{}
	closed atomic.Bool
}

func newWorkerPool(size int) *workerPool {
	if size < 1 {
		size = 1
	}
	return &workerPool{tokens: make(chan struct{}, size)}
}

// Run job on a worker, or inline when the pool is unavailable. Callers
// needing a slot beyond capacity poll with capped exponential backoff
// rather than queuing unboundedly.
func (p *workerPool) dispatch(job func() error) error {
	if !p.acquire() {
		return job()
	}

	errChan := make(chan error, 1)
	go func() {
		defer p.release()
		errChan <- job()
	}()
	return <-errChan
}

func (p *workerPool) acquire() bool {
	backoff := acquireBackoffMin
	for {
		if p.closed.Load() {
			return false
		}
		select {
		case p.tokens <- struct{}{}:
			return true
		default:
		}
		time.Sleep(backoff)
		if backoff < acquireBackoffMax {
			backoff *= 2
		}
	}
}

func (p *workerPool) release() {
	<-p.tokens
}

func (p *workerPool) close() {
	p.closed.Store(true)
}
