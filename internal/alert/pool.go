package alert

import (
	"context"
	"log/slog"
	"sync"
)

// RetryJob asks a worker to re-send one logged alert.
type RetryJob struct {
	LogID int64
}

type Worker struct {
	ID         int
	WorkerPool chan chan RetryJob
	JobChannel chan RetryJob
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan RetryJob, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan RetryJob),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(context.Context, RetryJob)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing job", "worker_id", w.ID, "alert_id", job.LogID)
				processFunc(ctx, job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type PoolConfig struct {
	MaxWorkers   int
	JobQueueSize int
}

// Pool fans retry jobs out to a fixed set of workers. A log id that is
// already queued or running is not queued twice.
type Pool struct {
	process func(context.Context, RetryJob)
	logger  *slog.Logger

	jobQueue   chan RetryJob
	workerPool chan chan RetryJob
	maxWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once

	mu       sync.Mutex
	inflight map[int64]struct{}
}

func NewPool(config PoolConfig, process func(context.Context, RetryJob), logger *slog.Logger) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := config.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := config.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	pool := &Pool{
		process: process,
		logger:  logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan RetryJob, jobQueueSize),
		workerPool: make(chan chan RetryJob, maxWorkers),
		ctx:        ctx,
		cancel:     cancel,
		inflight:   make(map[int64]struct{}),
	}

	pool.start()

	return pool
}

// NewRetryPool wires a pool to Dispatcher.Retry.
func NewRetryPool(config PoolConfig, dispatcher *Dispatcher, logger *slog.Logger) *Pool {
	return NewPool(config, func(ctx context.Context, job RetryJob) {
		if _, err := dispatcher.Retry(ctx, job.LogID); err != nil {
			logger.Debug("alert retry job finished with error", "alert_id", job.LogID, "error", err)
		}
	}, logger)
}

func (p *Pool) start() {
	p.once.Do(func() {
		for i := 0; i < p.maxWorkers; i++ {
			worker := NewWorker(i, p.workerPool, p.logger)
			worker.Start(p.ctx, &p.wg, p.run)
		}

		p.wg.Add(1)
		go p.dispatch()

		p.logger.Info("alert worker pool started",
			"max_workers", p.maxWorkers,
			"queue_size", cap(p.jobQueue))
	})
}

func (p *Pool) dispatch() {
	defer p.wg.Done()

	for {
		select {
		case job := <-p.jobQueue:
			select {
			case jobChannel := <-p.workerPool:
				select {
				case jobChannel <- job:
				case <-p.ctx.Done():
					p.logger.Info("alert dispatcher shutting down")
					return
				}
			case <-p.ctx.Done():
				p.logger.Info("alert dispatcher shutting down")
				return
			}
		case <-p.ctx.Done():
			p.logger.Info("alert dispatcher shutting down")
			return
		}
	}
}

func (p *Pool) run(ctx context.Context, job RetryJob) {
	defer p.release(job.LogID)
	p.process(ctx, job)
}

// Enqueue reports queued=false when the job is already pending. A full
// queue returns ErrQueueFull.
func (p *Pool) Enqueue(job RetryJob) (bool, error) {
	if p.ctx.Err() != nil {
		return false, ErrQueueFull.WithMessage("Alert worker pool is shut down")
	}

	p.mu.Lock()
	if _, busy := p.inflight[job.LogID]; busy {
		p.mu.Unlock()
		return false, nil
	}
	p.inflight[job.LogID] = struct{}{}
	p.mu.Unlock()

	select {
	case p.jobQueue <- job:
		p.logger.Debug("alert retry queued", "alert_id", job.LogID, "queue_length", len(p.jobQueue))
		return true, nil
	default:
		p.release(job.LogID)
		p.logger.Warn("alert queue full, skipping retry",
			"alert_id", job.LogID,
			"queue_capacity", cap(p.jobQueue))
		return false, ErrQueueFull
	}
}

func (p *Pool) release(id int64) {
	p.mu.Lock()
	delete(p.inflight, id)
	p.mu.Unlock()
}

func (p *Pool) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inflight)
}

func (p *Pool) Shutdown() {
	p.logger.Info("shutting down alert worker pool")
	p.cancel()
	p.wg.Wait()
	p.logger.Info("alert worker pool shutdown complete")
}
