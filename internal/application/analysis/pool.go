package analysis

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PatentSentinel/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// JobHandler processes one job identified by its ID.  Errors are handled
// inside the handler; the pool only logs them.
type JobHandler func(ctx context.Context, jobID uuid.UUID)

// Pool is a bounded worker pool for analysis jobs.  Submission never blocks:
// when the queue is full the caller receives a transient error and the job
// stays pending for the recovery sweep to pick up later.
type Pool struct {
	queue   chan uuid.UUID
	handler JobHandler
	workers int
	metrics *prometheus.Metrics
	log     logging.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// mu guards closed; Submit holds the read lock across the channel send so
	// the queue is never closed mid-send.
	mu     sync.RWMutex
	closed bool
}

// NewPool constructs a Pool with the given concurrency and queue depth.
func NewPool(workers, queueDepth int, handler JobHandler, metrics *prometheus.Metrics, log logging.Logger) *Pool {
	return &Pool{
		queue:   make(chan uuid.UUID, queueDepth),
		handler: handler,
		workers: workers,
		metrics: metrics,
		log:     log.Named("pool"),
	}
}

// Start launches the worker goroutines.  Subsequent calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		ctx, p.cancel = context.WithCancel(ctx)
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.run(ctx, i)
		}
		p.log.Info("worker pool started",
			logging.Int("workers", p.workers),
			logging.Int("queue_depth", cap(p.queue)))
	})
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	log := p.log.With(logging.Int("worker", id))
	for {
		select {
		case <-ctx.Done():
			return
		case jobID, ok := <-p.queue:
			if !ok {
				return
			}
			if p.metrics != nil {
				p.metrics.JobQueueDepth.Set(float64(len(p.queue)))
			}
			log.Debug("picked up job", logging.String("job_id", jobID.String()))
			p.handler(ctx, jobID)
		}
	}
}

// Submit enqueues a job for processing.  It returns a transient error when
// the queue is full or the pool has been shut down.
func (p *Pool) Submit(jobID uuid.UUID) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return errors.Transient("worker pool is shut down").
			WithDetail("job_id=" + jobID.String())
	}
	select {
	case p.queue <- jobID:
		if p.metrics != nil {
			p.metrics.JobQueueDepth.Set(float64(len(p.queue)))
		}
		return nil
	default:
		return errors.Transient("analysis queue is full").
			WithDetail("job_id=" + jobID.String())
	}
}

// Shutdown stops accepting work and waits for in-flight jobs to finish or the
// context to expire, whichever comes first.
func (p *Pool) Shutdown(ctx context.Context) error {
	var err error
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.queue)
		p.mu.Unlock()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			p.log.Info("worker pool drained")
		case <-ctx.Done():
			if p.cancel != nil {
				p.cancel()
			}
			<-done
			err = errors.Wrap(ctx.Err(), errors.ErrCodeTimeout, "worker pool shutdown timed out")
		}
	})
	return err
}
