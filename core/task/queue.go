// Package task runs background jobs on a bounded worker pool. Job
// progress is mirrored to a status store so API clients can poll it
// while uploads are processed and releases are distributed.
package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"veestributes/cache"
	"veestributes/logger"
)

// Job kinds reported in status records.
const (
	JobKindProcessAudio   = "process_audio"
	JobKindProcessArtwork = "process_artwork"
	JobKindDistribute     = "distribute_release"
)

// ErrQueueFull is returned when the job buffer has no room left.
var ErrQueueFull = errors.New("job queue is full")

// ErrQueueClosed is returned when enqueueing after Stop.
var ErrQueueClosed = errors.New("job queue is closed")

// Job is one unit of background work.
type Job struct {
	ID   string
	Kind string
	Run  func(ctx context.Context) error
}

// StatusReporter records job lifecycle transitions. Implementations
// must tolerate being called from multiple workers.
type StatusReporter interface {
	Report(ctx context.Context, status *cache.JobStatus)
}

// Queue is a fixed-size worker pool with a buffered job channel.
type Queue struct {
	jobs     chan Job
	reporter StatusReporter
	workers  int

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

const defaultJobBuffer = 256

// NewQueue builds a queue served by the given number of workers.
func NewQueue(workers int, reporter StatusReporter) *Queue {
	if workers <= 0 {
		workers = 1
	}
	return &Queue{
		jobs:     make(chan Job, defaultJobBuffer),
		reporter: reporter,
		workers:  workers,
	}
}

// Start launches the workers. They exit when the context is cancelled
// or the queue is stopped.
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	logger.Info("Job queue started", logger.Int("workers", q.workers))
}

// Stop closes the queue and waits for in-flight jobs to finish.
// Buffered jobs that have not started yet are still drained.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue registers the job as queued and hands it to the pool. The
// job's ID is generated when empty, and returned either way.
func (q *Queue) Enqueue(ctx context.Context, job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return "", ErrQueueClosed
	}

	q.report(ctx, &cache.JobStatus{
		JobID:      job.ID,
		Kind:       job.Kind,
		State:      cache.JobStateQueued,
		EnqueuedAt: time.Now().Unix(),
	})

	select {
	case q.jobs <- job:
		return job.ID, nil
	default:
		q.report(ctx, &cache.JobStatus{
			JobID: job.ID,
			Kind:  job.Kind,
			State: cache.JobStateFailed,
			Error: ErrQueueFull.Error(),
		})
		return "", fmt.Errorf("%w: job %s", ErrQueueFull, job.ID)
	}
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-q.jobs:
			if !ok {
				return
			}
			q.runJob(ctx, job)
		}
	}
}

// runJob executes one job and records its terminal state. Panics in
// handlers are contained; a worker never dies to a bad job.
func (q *Queue) runJob(ctx context.Context, job Job) {
	started := time.Now()
	q.report(ctx, &cache.JobStatus{
		JobID:     job.ID,
		Kind:      job.Kind,
		State:     cache.JobStateRunning,
		StartedAt: started.Unix(),
	})

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked",
				logger.String("jobId", job.ID),
				logger.String("kind", job.Kind),
				logger.Any("panic", r))
			q.report(ctx, &cache.JobStatus{
				JobID:      job.ID,
				Kind:       job.Kind,
				State:      cache.JobStateFailed,
				Error:      fmt.Sprintf("job panicked: %v", r),
				StartedAt:  started.Unix(),
				FinishedAt: time.Now().Unix(),
			})
		}
	}()

	err := job.Run(ctx)

	status := &cache.JobStatus{
		JobID:      job.ID,
		Kind:       job.Kind,
		StartedAt:  started.Unix(),
		FinishedAt: time.Now().Unix(),
	}
	if err != nil {
		status.State = cache.JobStateFailed
		status.Error = err.Error()
		logger.Error("Job failed",
			logger.String("jobId", job.ID),
			logger.String("kind", job.Kind),
			logger.ErrorField(err))
	} else {
		status.State = cache.JobStateSucceeded
	}
	q.report(ctx, status)
}

func (q *Queue) report(ctx context.Context, status *cache.JobStatus) {
	if q.reporter != nil {
		q.reporter.Report(ctx, status)
	}
}
