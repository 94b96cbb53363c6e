package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolBoundsConcurrency(t *testing.T) {
	p := NewPool(2)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		ok := p.Submit(func(context.Context) {
			defer wg.Done()
			n := running.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			running.Add(-1)
		})
		if !ok {
			t.Fatal("Submit on a live pool should succeed")
		}
	}
	wg.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", got)
	}
	p.Stop(context.Background())
}

func TestSubmitDoesNotBlock(t *testing.T) {
	p := NewPool(1)
	release := make(chan struct{})

	p.Submit(func(context.Context) { <-release })

	done := make(chan struct{})
	go func() {
		p.Submit(func(context.Context) {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked while the only worker was busy")
	}

	close(release)
	p.Stop(context.Background())
}

func TestPanicIsContained(t *testing.T) {
	p := NewPool(1)
	var after atomic.Bool

	p.Submit(func(context.Context) { panic("boom") })
	p.Submit(func(context.Context) { after.Store(true) })
	p.Stop(context.Background())

	if !after.Load() {
		t.Error("a panicking job must not prevent later jobs")
	}
}

func TestStopRejectsNewJobs(t *testing.T) {
	p := NewPool(1)
	p.Stop(context.Background())
	if p.Submit(func(context.Context) {}) {
		t.Error("Submit after Stop should report false")
	}
}

func TestStopDeadlineCancelsJobs(t *testing.T) {
	p := NewPool(1)
	var cancelled atomic.Bool

	p.Submit(func(ctx context.Context) {
		<-ctx.Done()
		cancelled.Store(true)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p.Stop(ctx)

	if !cancelled.Load() {
		t.Error("job should observe cancellation after the stop deadline")
	}
}

func TestStopDeadlineDropsQueuedJobs(t *testing.T) {
	p := NewPool(1)
	started := make(chan struct{})
	var ran, dropped atomic.Int32

	p.Submit(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	})
	<-started

	for i := 0; i < 3; i++ {
		p.SubmitOrDrop(func(context.Context) { ran.Add(1) }, func() { dropped.Add(1) })
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	p.Stop(ctx)

	if got := ran.Load() + dropped.Load(); got != 3 {
		t.Fatalf("ran %d + dropped %d, want 3 in total", ran.Load(), dropped.Load())
	}
	if dropped.Load() == 0 {
		t.Error("queued jobs should be dropped once the stop deadline passes")
	}
}

func TestSubmitOrDropRunsJobNormally(t *testing.T) {
	p := NewPool(1)
	var ran, dropped atomic.Bool

	p.SubmitOrDrop(func(context.Context) { ran.Store(true) }, func() { dropped.Store(true) })
	p.Stop(context.Background())

	if !ran.Load() || dropped.Load() {
		t.Errorf("ran = %v, dropped = %v", ran.Load(), dropped.Load())
	}
}
