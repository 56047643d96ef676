package async

import (
	"context"
	"errors"
	"sync"
	"time"

	"log/slog"

	"github.com/venturedraft/memopilot/internal/pipeline"
)

// ErrShuttingDown is returned by Enqueue once Shutdown has started, so
// the trigger can fail the job row instead of stranding it in PENDING.
var ErrShuttingDown = errors.New("queue is shutting down")

type GeneratorQueue struct {
	gen     *pipeline.Generator
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*GeneratorQueue)

func WithWorkers(n int) Option {
	return func(q *GeneratorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *GeneratorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithRunTimeout(d time.Duration) Option {
	return func(q *GeneratorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewGeneratorQueue(gen *pipeline.Generator, logger *slog.Logger, opts ...Option) *GeneratorQueue {
	q := &GeneratorQueue{
		gen:     gen,
		logger:  logger,
		workers: 2,
		timeout: 5 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *GeneratorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.gen.Run(ctx, job.JobID, job.CompanyID)
					cancel()

					if err != nil {
						q.logger.Error("generation failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
					} else {
						q.logger.Info("generation finished", "worker_id", workerID, "job_id", job.JobID,
							"queued_for_ms", time.Since(job.SubmittedAt).Milliseconds())
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *GeneratorQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.JobID)
		return ErrShuttingDown
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued generation job", "job_id", job.JobID, "company_id", job.CompanyID)
	default:
		q.logger.Warn("queue full, applying backpressure", "job_id", job.JobID)
		q.ch <- job
	}
	return nil
}

func (q *GeneratorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
