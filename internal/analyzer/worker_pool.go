package analyzer

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// PoolStats is a point in time view of the pool counters.
type PoolStats struct {
	Workers       int   `json:"workers"`
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
}

// WorkerPool runs page jobs on a fixed number of goroutines. It backs batch
// normalization and bulk export.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once
	mu       sync.RWMutex
	closed   bool

	total     atomic.Int64
	completed atomic.Int64
	active    atomic.Int64
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.active.Add(1)
		job()
		wp.active.Add(-1)
		wp.completed.Add(1)
		wp.wg.Done()
	}
}

// Submit queues a job. It blocks while the queue is full and reports false
// once the pool is closed.
func (wp *WorkerPool) Submit(job func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.wg.Add(1)
	wp.total.Add(1)
	wp.jobQueue <- job
	return true
}

// Wait blocks until every submitted job has finished.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close stops accepting jobs. Queued jobs still run.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}

func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		Workers:       wp.workers,
		TotalJobs:     wp.total.Load(),
		CompletedJobs: wp.completed.Load(),
		ActiveWorkers: wp.active.Load(),
	}
}

// Map runs fn for every index in [0, n) on the pool and waits for all of
// them. Jobs not yet started when ctx is done are skipped and reported
// with ctx.Err().
func Map(ctx context.Context, wp *WorkerPool, n int, fn func(i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		ok := wp.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			errs[i] = fn(i)
		})
		if !ok {
			wg.Done()
			errs[i] = errPoolClosed
		}
	}
	wg.Wait()
	return errs
}
