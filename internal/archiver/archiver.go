// Package archiver compresses a batch of directories into one archive each, spreading the
// work over a fixed number of concurrent workers.
package archiver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/infracollect/dirarchive/internal/dirs"
	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/infracollect/dirarchive/internal/engine/compressors"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Archiver holds the configuration of an archiving run and the queue of directories to archive.
//
// The zero configuration archives with a single worker into zip files; only the destination
// is mandatory.
type Archiver struct {
	logger       *zap.Logger
	fs           afero.Fs
	destination  string
	workers      int
	format       engine.Format
	reporter     engine.Reporter
	sevenZipPath string
	retry        engine.RetryPolicy
	queue        *engine.TaskQueue
}

func New(logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		logger:  logger,
		fs:      afero.NewOsFs(),
		workers: 1,
		format:  engine.Zip,
		queue:   engine.NewTaskQueue(),
	}
}

// SetDestination sets the directory archives are written to. It is created by Archive if
// it does not exist yet.
func (a *Archiver) SetDestination(dest string) {
	a.destination = dest
}

// SetWorkerCount sets the number of concurrent workers. Values below 1 are treated as 1.
func (a *Archiver) SetWorkerCount(n int) {
	a.workers = max(n, 1)
}

func (a *Archiver) SetFormat(format engine.Format) {
	a.format = format
}

// SetFormatString sets the format from its label ("7z", "xz" or "zip").
func (a *Archiver) SetFormatString(label string) error {
	format, err := engine.ParseFormat(label)
	if err != nil {
		return err
	}
	a.format = format
	return nil
}

// SetReporter sets where progress events are sent. A nil reporter discards them.
func (a *Archiver) SetReporter(reporter engine.Reporter) {
	a.reporter = reporter
}

// SetFs sets the filesystem used for the destination, the directory listings and the zip
// and tar+xz compressors. The 7z compressor always uses the host filesystem.
func (a *Archiver) SetFs(fs afero.Fs) {
	a.fs = fs
}

func (a *Archiver) SetSevenZipPath(path string) {
	a.sevenZipPath = path
}

func (a *Archiver) SetRetryPolicy(policy engine.RetryPolicy) {
	a.retry = policy
}

// Queue returns the queue of pending directories. Archive drains it.
func (a *Archiver) Queue() *engine.TaskQueue {
	return a.queue
}

func (a *Archiver) Push(path string) {
	a.queue.Push(path)
}

func (a *Archiver) PushAll(paths ...string) {
	a.queue.Push(paths...)
}

// PushDirsOf queues every immediate subdirectory of root.
func (a *Archiver) PushDirsOf(root string) error {
	return a.PushDirsAtDepth(root, 1)
}

// PushDirsAtDepth queues every directory exactly depth levels below root.
func (a *Archiver) PushDirsAtDepth(root string, depth int) error {
	paths, err := dirs.ListDirsWithDepth(a.fs, root, depth)
	if err != nil {
		return fmt.Errorf("failed to list directories of %s: %w", root, err)
	}
	a.queue.Push(paths...)
	return nil
}

// Archive compresses every queued directory and blocks until all workers are done.
//
// Only configuration problems are returned as errors. The outcome of each directory is
// reported as a progress event, and a failed directory never stops the others.
func (a *Archiver) Archive(ctx context.Context) error {
	if err := a.prepareDestination(); err != nil {
		return err
	}

	if err := a.checkQueue(); err != nil {
		return err
	}

	compressor, err := compressors.New(a.format, compressors.Options{
		Fs:           a.fs,
		SevenZipPath: a.sevenZipPath,
		Logger:       a.logger.Named("compressor"),
	})
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}

	queue := a.queue.Drain()

	a.logger.Info("starting archiving run",
		zap.String("destination", a.destination),
		zap.Stringer("format", a.format),
		zap.Int("workers", a.workers),
		zap.Int("tasks", queue.Len()),
	)

	var wg sync.WaitGroup
	for i := range a.workers {
		w := engine.NewWorker(a.logger.Named("worker"), engine.WorkerConfig{
			ID:          i,
			Queue:       queue,
			Destination: a.destination,
			Compressor:  compressor,
			Reporter:    a.reporter,
			Retry:       a.retry,
		})

		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("archiving interrupted with %d directories left: %w", queue.Len(), err)
	}

	engine.TrySend(a.logger, a.reporter, engine.ArchivingCompleteMessage)
	a.logger.Info("archiving run finished")

	return nil
}

func (a *Archiver) prepareDestination() error {
	if a.destination == "" {
		return fmt.Errorf("destination not set: %w", engine.ErrNotFound)
	}

	info, err := a.fs.Stat(a.destination)
	switch {
	case errors.Is(err, os.ErrNotExist):
		a.logger.Debug("creating destination", zap.String("destination", a.destination))
		if err := a.fs.MkdirAll(a.destination, 0o755); err != nil {
			return fmt.Errorf("failed to create destination %s: %w", a.destination, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to stat destination %s: %w", a.destination, err)
	case !info.IsDir():
		return fmt.Errorf("destination %s is not a directory: %w", a.destination, engine.ErrInvalidInput)
	default:
		return nil
	}
}

func (a *Archiver) checkQueue() error {
	n := a.queue.Len()
	if n == 0 {
		engine.TrySend(a.logger, a.reporter, engine.EmptyQueueMessage)
		return fmt.Errorf("empty queue: %w", engine.ErrNotFound)
	}

	engine.TrySend(a.logger, a.reporter, engine.QueueSizeMessage(n))
	return nil
}
