package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Job is one unit of adjudication work.
type Job func(ctx context.Context) error

// WorkingPool bounds how many cases run concurrently. Independent cases
// are fully concurrent up to NumWorkers; the queue absorbs bursts without
// blocking submission.
type WorkingPool struct {
	NumWorkers int
	jobChan    chan Job
}

func NewWorkingPool(numWorkers int, queueSize int) *WorkingPool {
	return &WorkingPool{
		NumWorkers: numWorkers,
		jobChan:    make(chan Job, queueSize),
	}
}

// Submit enqueues a job without blocking; a full queue is an error so the
// caller can surface back-pressure instead of hanging the request.
func (p *WorkingPool) Submit(job Job) error {
	select {
	case p.jobChan <- job:
		return nil
	default:
		return fmt.Errorf("case queue is full (%d pending)", cap(p.jobChan))
	}
}

// Start runs the workers until ctx is cancelled, then drains gracefully.
func (p *WorkingPool) Start(ctx context.Context, managerWg *sync.WaitGroup) {
	defer managerWg.Done()

	var workerWg sync.WaitGroup

	for i := range p.NumWorkers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1)
	}

	<-ctx.Done()

	slog.Info("[WorkingPool] Shutdown signaled, closing job channel")
	close(p.jobChan)

	workerWg.Wait()
	slog.Info("[WorkingPool] All workers stopped")
}

func (p *WorkingPool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-p.jobChan:
			if !ok {
				slog.Info("[WorkingPool] Job channel closed, worker exiting", "worker_id", id)
				return
			}
			p.safeExecution(ctx, job, id)

		case <-ctx.Done():
			slog.Info("[WorkingPool] Context cancelled, worker exiting", "worker_id", id)
			return
		}
	}
}

func (p *WorkingPool) safeExecution(ctx context.Context, job Job, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[WorkingPool] Panic recovered in job", "worker_id", workerID, "panic", r)
		}
	}()

	if err := job(ctx); err != nil {
		slog.Error("[WorkingPool] Job finished with error", "worker_id", workerID, "error", err)
	}
}
