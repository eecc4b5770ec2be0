package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// TEST SUITE 1: EXECUTION
// ============================================================================

func TestWorkingPool_ExecutesSubmittedJobs(t *testing.T) {
	pool := NewWorkingPool(4, 16)
	ctx, cancel := context.WithCancel(context.Background())

	var managerWg sync.WaitGroup
	managerWg.Add(1)
	go pool.Start(ctx, &managerWg)

	var executed atomic.Int32
	done := make(chan struct{})
	for range 8 {
		err := pool.Submit(func(context.Context) error {
			if executed.Add(1) == 8 {
				close(done)
			}
			return nil
		})
		assert.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not finish in time")
	}

	cancel()
	managerWg.Wait()
	assert.Equal(t, int32(8), executed.Load())
}

func TestWorkingPool_BoundsConcurrency(t *testing.T) {
	pool := NewWorkingPool(2, 16)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var managerWg sync.WaitGroup
	managerWg.Add(1)
	go pool.Start(ctx, &managerWg)

	var inFlight, peak atomic.Int32
	done := make(chan struct{})
	var remaining atomic.Int32
	remaining.Store(6)

	for range 6 {
		err := pool.Submit(func(context.Context) error {
			current := inFlight.Add(1)
			for {
				p := peak.Load()
				if current <= p || peak.CompareAndSwap(p, current) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			inFlight.Add(-1)
			if remaining.Add(-1) == 0 {
				close(done)
			}
			return nil
		})
		assert.NoError(t, err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not finish in time")
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

// ============================================================================
// TEST SUITE 2: BACK-PRESSURE
// ============================================================================

func TestWorkingPool_FullQueueRejectsSubmission(t *testing.T) {
	// No workers started: the queue fills and stays full.
	pool := NewWorkingPool(1, 2)

	assert.NoError(t, pool.Submit(func(context.Context) error { return nil }))
	assert.NoError(t, pool.Submit(func(context.Context) error { return nil }))

	err := pool.Submit(func(context.Context) error { return nil })
	assert.Error(t, err, "a full queue must surface back-pressure, not block")
}

// ============================================================================
// TEST SUITE 3: FAILURE ISOLATION
// ============================================================================

func TestWorkingPool_PanicDoesNotKillWorker(t *testing.T) {
	pool := NewWorkingPool(1, 8)
	ctx, cancel := context.WithCancel(context.Background())

	var managerWg sync.WaitGroup
	managerWg.Add(1)
	go pool.Start(ctx, &managerWg)

	assert.NoError(t, pool.Submit(func(context.Context) error {
		panic("case blew up")
	}))

	done := make(chan struct{})
	assert.NoError(t, pool.Submit(func(context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not survive the panic")
	}

	cancel()
	managerWg.Wait()
}

func TestWorkingPool_JobErrorDoesNotStopOthers(t *testing.T) {
	pool := NewWorkingPool(2, 8)
	ctx, cancel := context.WithCancel(context.Background())

	var managerWg sync.WaitGroup
	managerWg.Add(1)
	go pool.Start(ctx, &managerWg)

	assert.NoError(t, pool.Submit(func(context.Context) error {
		return fmt.Errorf("case failed")
	}))

	done := make(chan struct{})
	assert.NoError(t, pool.Submit(func(context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool stalled after a job error")
	}

	cancel()
	managerWg.Wait()
}
