package worker

import (
	"context"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/pavelc4/gatekeeper-dl-bot/pkg/logger"
)

type Job func(ctx context.Context)

// Pool runs jobs off the caller's goroutine with at most maxWorkers running at
// once. Submit never blocks; excess jobs wait for a slot in their own goroutine.
type Pool struct {
	sem     *semaphore.Weighted
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	stopped bool
	active  atomic.Int64
	waiting atomic.Int64
}

func NewPool(maxWorkers int) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		sem:    semaphore.NewWeighted(int64(maxWorkers)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Submit schedules job. It reports false once the pool is stopped.
func (p *Pool) Submit(job Job) bool {
	return p.SubmitOrDrop(job, nil)
}

// SubmitOrDrop is Submit with a callback for a job that was accepted but
// never started because Stop gave up waiting. Exactly one of job and onDrop
// runs for every accepted job.
func (p *Pool) SubmitOrDrop(job Job, onDrop func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return false
	}

	p.wg.Add(1)
	p.waiting.Add(1)
	go p.run(job, onDrop)
	return true
}

func (p *Pool) run(job Job, onDrop func()) {
	defer p.wg.Done()

	err := p.sem.Acquire(p.ctx, 1)
	p.waiting.Add(-1)
	if err != nil {
		logger.Warn("Job dropped, pool is stopping", "error", err)
		if onDrop != nil {
			onDrop()
		}
		return
	}
	defer p.sem.Release(1)

	p.active.Add(1)
	defer p.active.Add(-1)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic recovered in job", "error", r, "stack", string(debug.Stack()))
		}
	}()

	job(p.ctx)
}

func (p *Pool) Active() int {
	return int(p.active.Load())
}

func (p *Pool) Waiting() int {
	return int(p.waiting.Load())
}

// Stop refuses new jobs and waits for running ones. When ctx ends first the
// remaining jobs see their context cancelled.
func (p *Pool) Stop(ctx context.Context) {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.cancel()
		<-done
	}
	p.cancel()
}
