package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "caseflow.io/caseflow/internal/errors"
	"caseflow.io/caseflow/internal/metrics"
	"caseflow.io/caseflow/internal/notifiers"
	"caseflow.io/caseflow/internal/queue"
	"caseflow.io/caseflow/internal/workflow"
)

type PoolConfig struct {
	Workers         int
	QueueSize       int
	PollInterval    time.Duration
	DeliveryTimeout time.Duration
	// PushToOutbox makes Enqueue write to the outbox instead of the local
	// queue, so any process draining the outbox can deliver the notice.
	PushToOutbox bool
}

// PoolService delivers notices to sinks on a fixed set of workers. When an
// outbox is configured it is drained into the local queue on every tick.
type PoolService struct {
	queue     chan workflow.Notice
	wg        sync.WaitGroup
	drainWG   sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	sinks     []notifiers.Sink
	outbox    queue.Outbox
	cfg       PoolConfig
	logger    *slog.Logger
	metrics   *metrics.Metrics
	stopDrain chan struct{}
}

func NewPoolService(
	cfg PoolConfig,
	outbox queue.Outbox,
	logger *slog.Logger,
	m *metrics.Metrics,
	sinks ...notifiers.Sink,
) *PoolService {
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 10 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}

	p := &PoolService{
		queue:     make(chan workflow.Notice, cfg.QueueSize),
		sinks:     sinks,
		outbox:    outbox,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		stopDrain: make(chan struct{}),
	}

	if outbox != nil {
		p.drainWG.Add(1)
		go p.drainLoop()
	}

	for i := 1; i <= cfg.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return p
}

// Enqueue hands notice off for delivery. It never waits on a sink.
func (p *PoolService) Enqueue(ctx context.Context, notice workflow.Notice) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return apperrors.ErrNotificationQueueFull
	}

	if p.outbox != nil && p.cfg.PushToOutbox {
		err := p.outbox.Push(ctx, notice)
		if err == nil {
			return nil
		}
		p.logger.Warn("outbox push failed, delivering locally",
			slog.String("task_id", notice.TaskID), slog.String("error", err.Error()))
	}

	select {
	case p.queue <- notice:
		p.metrics.QueueDepth.Set(float64(len(p.queue)))
		return nil
	default:
		return apperrors.ErrNotificationQueueFull
	}
}

func (p *PoolService) worker(workerID int) {
	defer p.wg.Done()

	p.logger.Debug("notification worker started", slog.Int("worker", workerID))

	for notice := range p.queue {
		p.metrics.QueueDepth.Set(float64(len(p.queue)))
		p.deliver(workerID, notice)
	}

	p.logger.Debug("notification worker stopped", slog.Int("worker", workerID))
}

func (p *PoolService) deliver(workerID int, notice workflow.Notice) {
	for _, sink := range p.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), p.cfg.DeliveryTimeout)
		err := sink.Deliver(ctx, notice)
		cancel()

		result := "ok"
		if err != nil {
			result = "error"
			p.logger.Error("notification delivery failed",
				slog.Int("worker", workerID),
				slog.String("sink", sink.Name()),
				slog.String("event", string(notice.Kind)),
				slog.String("task_id", notice.TaskID),
				slog.String("error", err.Error()),
			)
		}
		p.metrics.Notifications.WithLabelValues(sink.Name(), string(notice.Kind), result).Inc()
	}
}

func (p *PoolService) drainLoop() {
	defer p.drainWG.Done()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.drainOnce(context.Background())
		case <-p.stopDrain:
			return
		}
	}
}

// drainOnce moves notices from the outbox to the local queue until either
// the outbox is empty or the queue is full.
func (p *PoolService) drainOnce(ctx context.Context) int {
	moved := 0
	for len(p.queue) < cap(p.queue) {
		notice, err := p.outbox.Pop(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrOutboxEmpty) {
				p.logger.Error("outbox: failed to pop notice", slog.String("error", err.Error()))
			}
			return moved
		}

		select {
		case p.queue <- notice:
			moved++
		default:
			if err := p.outbox.Push(ctx, notice); err != nil {
				p.logger.Error("outbox: failed to return notice", slog.String("task_id", notice.TaskID), slog.String("error", err.Error()))
			}
			return moved
		}
	}
	return moved
}

func (p *PoolService) Shutdown(ctx context.Context) {
	close(p.stopDrain)
	p.drainWG.Wait()

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
		p.logger.Info("notification pool shut down cleanly")
	case <-ctx.Done():
		p.logger.Warn("notification pool shutdown timed out")
	}
}
