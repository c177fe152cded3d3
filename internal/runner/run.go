package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	v1 "github.com/infracollect/dirarchive/apis/v1"
	"github.com/infracollect/dirarchive/internal/archiver"
	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type Runner struct {
	logger   *zap.Logger
	job      v1.ArchiveJob
	fs       afero.Fs
	archiver *archiver.Archiver
	sink     engine.Sink
	output   io.Writer
}

type Option func(*Runner)

// WithFs sets the filesystem directories are read from and archives are written to.
func WithFs(fs afero.Fs) Option {
	return func(r *Runner) { r.fs = fs }
}

// WithOutput mirrors every progress event as a line on w.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.output = w }
}

// WithSink overrides the sink built from the job's upload configuration.
func WithSink(sink engine.Sink) Option {
	return func(r *Runner) { r.sink = sink }
}

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// ParseArchiveJob parses a YAML or JSON job file and validates it against the constraints
// declared on v1.ArchiveJob.
func ParseArchiveJob(data []byte) (v1.ArchiveJob, error) {
	var job v1.ArchiveJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return v1.ArchiveJob{}, fmt.Errorf("failed to unmarshal job data: %w", err)
	}

	if err := ValidateJob(job); err != nil {
		return v1.ArchiveJob{}, err
	}

	return job, nil
}

// ValidateJob checks a job built in code, e.g. from command line flags.
func ValidateJob(job v1.ArchiveJob) error {
	if err := defaultValidator.Struct(job); err != nil {
		return fmt.Errorf("failed to validate job: %w", err)
	}
	return nil
}

func New(ctx context.Context, logger *zap.Logger, job v1.ArchiveJob, opts ...Option) (*Runner, error) {
	logger.Info("creating runner", zap.String("job_name", job.Metadata.Name))

	r := &Runner{
		logger: logger,
		job:    job,
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(r)
	}

	a, err := createArchiver(logger.Named("archiver"), r.fs, job)
	if err != nil {
		return nil, fmt.Errorf("failed to create archiver: %w", err)
	}
	r.archiver = a

	if r.sink == nil {
		sink, err := buildSink(ctx, r.fs, job)
		if err != nil {
			return nil, fmt.Errorf("failed to build sink: %w", err)
		}
		r.sink = sink
	}

	return r, nil
}

// Run archives every directory of the job, then uploads the archives this run produced.
// The sink is closed before Run returns, whatever the outcome.
func (r *Runner) Run(ctx context.Context) (err error) {
	if r.sink != nil {
		defer func() {
			// Background context so the sink is closed even when the run was cancelled.
			if closeErr := r.sink.Close(context.Background()); closeErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to close sink: %w", closeErr))
			}
		}()
	}

	destination := r.job.Spec.Destination

	before, err := listArchives(r.fs, destination)
	if err != nil {
		return err
	}

	progress := engine.NewProgressChannel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.consume(progress.Messages())
	}()

	r.archiver.SetReporter(progress)
	archiveErr := r.archiver.Archive(ctx)
	progress.Close()
	<-done

	if archiveErr != nil {
		return fmt.Errorf("failed to archive: %w", archiveErr)
	}

	if r.sink == nil {
		return nil
	}

	after, err := listArchives(r.fs, destination)
	if err != nil {
		return err
	}

	return r.Upload(ctx, lo.Without(after, before...))
}

// Upload writes the named archives of the destination to the sink. Every archive is
// attempted; failures are joined.
func (r *Runner) Upload(ctx context.Context, names []string) error {
	logger := r.logger.With(zap.String("sink", r.sink.Name()))
	logger.Info("uploading archives", zap.Int("count", len(names)))

	var errs error
	for _, name := range names {
		if err := r.uploadOne(ctx, name); err != nil {
			logger.Error("failed to upload archive", zap.String("archive", name), zap.Error(err))
			errs = errors.Join(errs, err)
			continue
		}
		logger.Debug("uploaded archive", zap.String("archive", name))
	}

	return errs
}

func (r *Runner) uploadOne(ctx context.Context, name string) (err error) {
	f, err := r.fs.Open(filepath.Join(r.job.Spec.Destination, name))
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if err := r.sink.Write(ctx, name, f); err != nil {
		return fmt.Errorf("failed to write archive %s: %w", name, err)
	}
	return nil
}

func (r *Runner) consume(messages <-chan string) {
	for msg := range messages {
		r.logger.Info("progress", zap.String("event", msg))
		if r.output != nil {
			_, _ = fmt.Fprintln(r.output, msg)
		}
	}
}
