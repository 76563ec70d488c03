package writequeue

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
)

// DefaultQueueSize is the backlog bound used when no size is configured.
const DefaultQueueSize = 500

// Job is a single deferred write. Name identifies the operation in logs;
// Run performs the persistence work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue serializes persistence writes through a single worker goroutine.
// Jobs are executed strictly in enqueue order, so two writes touching the
// same row can never interleave; the last enqueued write wins. The backlog
// is bounded: when it is full, Enqueue runs the job synchronously in the
// calling goroutine instead of dropping it, which applies natural
// backpressure under burst load.
type Queue struct {
	jobs   chan Job
	logger *slog.Logger
	wg     sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

// New creates a Queue with the given backlog size. A non-positive size falls
// back to DefaultQueueSize. If logger is nil, the process default is used.
// The worker starts immediately.
func New(size int, logger *slog.Logger) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	q := &Queue{
		jobs:   make(chan Job, size),
		logger: logger.With(slog.String("component", "write_queue")),
	}

	q.wg.Add(1)
	go q.worker()

	return q
}

// Enqueue hands the job to the worker. It never blocks and never reports
// an error to the caller: if the backlog is full, or the queue has already
// been stopped, the job runs synchronously in the calling goroutine so no
// accepted write is ever lost.
func (q *Queue) Enqueue(job Job) {
	q.mu.RLock()
	if q.stopped {
		q.mu.RUnlock()
		q.logger.Warn("enqueue after stop, running job in caller", "job", job.Name)
		q.runJob(job)
		return
	}

	select {
	case q.jobs <- job:
		q.mu.RUnlock()
	default:
		q.mu.RUnlock()
		q.logger.Warn("write queue saturated, running job in caller",
			"job", job.Name,
			"backlog", cap(q.jobs))
		q.runJob(job)
	}
}

// Stop closes the queue and waits for the worker to drain every job
// already enqueued. Safe to call once; Enqueue calls arriving afterwards
// run in the caller.
func (q *Queue) Stop() {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		q.wg.Wait()
		return
	}
	q.stopped = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
}

// Backlog returns the number of jobs currently waiting for the worker.
func (q *Queue) Backlog() int {
	return len(q.jobs)
}

// worker drains the job channel in FIFO order until the queue is stopped
// and the backlog is empty.
func (q *Queue) worker() {
	defer q.wg.Done()

	q.logger.Debug("write queue worker started", "backlog_cap", cap(q.jobs))

	for job := range q.jobs {
		q.runJob(job)
	}

	q.logger.Debug("write queue worker stopped")
}

// runJob executes a single job, containing panics and logging failures.
// A failed write is discarded: the next broadcast-refetch cycle reconciles
// clients with the store's actual state.
func (q *Queue) runJob(job Job) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("write job panicked",
				"job", job.Name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
	}()

	if err := job.Run(context.Background()); err != nil {
		q.logger.Error("write job failed", "job", job.Name, "error", err)
	}
}
