package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job is a unit of background work. Payloads live with the caller and are looked up by ID.
type Job struct {
	ID       string
	Type     string
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// Observer receives the outcome of every handled job.
type Observer interface {
	ObserveJob(queue, jobType string, err error, wait, run time.Duration)
}

// QueueConfig configures the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	// Timeout bounds a single handler call. Zero means no deadline beyond the queue's own.
	Timeout  time.Duration
	Logger   *zap.Logger
	Observer Observer
}

// Queue is an in-memory dispatcher with a fixed number of workers and a bounded backlog.
type Queue struct {
	name     string
	handler  Handler
	workers  int
	timeout  time.Duration
	logger   *zap.Logger
	observer Observer

	jobs    chan Job
	pending atomic.Int64
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue around handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Queue{
		name:     name,
		handler:  handler,
		workers:  cfg.Workers,
		timeout:  cfg.Timeout,
		logger:   cfg.Logger.With(zap.String("queue", name)),
		observer: cfg.Observer,
		jobs:     make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Later calls are no-ops.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i + 1)
	}
	q.started = true
	q.logger.Info("queue started", zap.Int("workers", q.workers), zap.Int("buffer", cap(q.jobs)))
}

// Stop cancels running handlers and waits for the workers to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.Int64("abandoned", q.pending.Load()))
}

// Pending is the number of accepted jobs not yet picked up by a worker.
func (q *Queue) Pending() int {
	return int(q.pending.Load())
}

// Enqueue hands a job to the workers. It fails instead of blocking when the backlog is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("queue %s stopped: %w", q.name, err)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	q.pending.Add(1)
	select {
	case q.jobs <- job:
		return nil
	default:
		q.pending.Add(-1)
		return fmt.Errorf("queue %s is full", q.name)
	}
}

func (q *Queue) worker(workerID int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.pending.Add(-1)
			q.run(workerID, job)
		}
	}
}

func (q *Queue) run(workerID int, job Job) {
	wait := time.Since(job.Enqueued)
	start := time.Now()
	err := q.call(job)
	elapsed := time.Since(start)
	if q.observer != nil {
		q.observer.ObserveJob(q.name, job.Type, err, wait, elapsed)
	}

	fields := []zap.Field{
		zap.Int("worker", workerID),
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Duration("wait", wait),
		zap.Duration("run", elapsed),
	}
	if err != nil {
		q.logger.Error("job failed", append(fields, zap.Error(err))...)
		return
	}
	q.logger.Debug("job done", fields...)
}

// call runs the handler under the per-job deadline. A panic is reported as the job's error.
func (q *Queue) call(job Job) (err error) {
	ctx := q.ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.ID, r)
		}
	}()
	return q.handler(ctx, job)
}
