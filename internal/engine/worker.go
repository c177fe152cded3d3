package engine

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// WorkerState is the lifecycle stage of a Worker.
type WorkerState int32

const (
	WorkerIdle WorkerState = iota
	WorkerRunning
	WorkerDraining
	WorkerDone
)

func (s WorkerState) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerRunning:
		return "running"
	case WorkerDraining:
		return "draining"
	case WorkerDone:
		return "done"
	default:
		return "unknown"
	}
}

// RetryPolicy controls how often a failed task is attempted again.
// Permanent failures (see IsPermanent) are never retried.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

type WorkerConfig struct {
	ID          int
	Queue       *TaskQueue
	Destination string
	Compressor  Compressor
	Reporter    Reporter
	Retry       RetryPolicy
}

// Worker drains a TaskQueue, compressing each popped directory and reporting the outcome.
// A worker never waits for new tasks: once the queue is observed empty it finishes.
type Worker struct {
	cfg    WorkerConfig
	logger *zap.Logger
	state  atomic.Int32
}

func NewWorker(logger *zap.Logger, cfg WorkerConfig) *Worker {
	if cfg.Retry.MaxAttempts < 1 {
		cfg.Retry.MaxAttempts = 1
	}
	return &Worker{
		cfg:    cfg,
		logger: logger.With(zap.Int("worker", cfg.ID)),
	}
}

func (w *Worker) State() WorkerState {
	return WorkerState(w.state.Load())
}

// Run processes tasks until the queue is empty or ctx is cancelled.
// A failed task is reported and the worker moves on to the next one.
func (w *Worker) Run(ctx context.Context) {
	w.state.Store(int32(WorkerRunning))
	defer w.state.Store(int32(WorkerDone))

	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Debug("worker stopped", zap.Error(err), zap.Int("processed", processed))
			return
		}

		origin, ok := w.cfg.Queue.Pop()
		if !ok {
			w.state.Store(int32(WorkerDraining))
			w.logger.Debug("queue drained", zap.Int("processed", processed))
			return
		}

		w.process(ctx, origin)
		processed++
	}
}

func (w *Worker) process(ctx context.Context, origin string) {
	format := w.cfg.Compressor.Format()
	logger := w.logger.With(zap.String("origin", origin), zap.Stringer("format", format))

	start := time.Now()
	result, err := w.compress(ctx, logger, origin)
	if err != nil {
		logger.Warn("archiving failed", zap.Error(err))
		TrySend(w.logger, w.cfg.Reporter, ErrorMessage(format, err))
		return
	}

	for _, warning := range result.Warnings {
		logger.Warn("archiving warning", zap.String("warning", warning))
		TrySend(w.logger, w.cfg.Reporter, WarningMessage(format, warning))
	}

	logger.Debug("archive created", zap.String("archive", result.Path), zap.Duration("duration", time.Since(start)))
	TrySend(w.logger, w.cfg.Reporter, CompletionMessage(format, result.Path))
}

func (w *Worker) compress(ctx context.Context, logger *zap.Logger, origin string) (Result, error) {
	for attempt := 1; ; attempt++ {
		result, err := w.cfg.Compressor.Compress(ctx, origin, w.cfg.Destination)
		if err == nil {
			return result, nil
		}

		if attempt >= w.cfg.Retry.MaxAttempts || IsPermanent(err) || ctx.Err() != nil {
			return Result{}, err
		}

		logger.Info("retrying task",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", w.cfg.Retry.Backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return Result{}, err
		case <-time.After(w.cfg.Retry.Backoff):
		}
	}
}
