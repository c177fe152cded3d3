package main

import (
	"context"
	"fmt"
	"io"
	"os"

	v1 "github.com/infracollect/dirarchive/apis/v1"
	"github.com/infracollect/dirarchive/internal/runner"
	"go.uber.org/zap"
)

// readJobFile reads a job file, or standard input when filename is "-". The second return
// value is the name to use in messages.
func readJobFile(ctx context.Context, filename string) ([]byte, string, error) {
	if filename == "-" {
		getLogger(ctx).Debug("reading job from stdin")
		data, err := io.ReadAll(os.Stdin)
		return data, "<stdin>", err
	}

	data, err := os.ReadFile(filename)
	return data, filename, err
}

// loadJob reads, parses, validates and expands a job file.
func loadJob(ctx context.Context, filename string, allowedEnv []string) (v1.ArchiveJob, error) {
	logger := getLogger(ctx).With(zap.String("job_filename", filename))

	data, name, err := readJobFile(ctx, filename)
	if err != nil {
		return v1.ArchiveJob{}, fmt.Errorf("failed to read job file '%s': %w", filename, err)
	}

	logger.Debug("parsing job file")
	job, err := runner.ParseArchiveJob(data)
	if err != nil {
		return v1.ArchiveJob{}, fmt.Errorf("job file '%s' is invalid: %w", name, formatValidationError(err))
	}

	variables, err := runner.BuildVariables(job, allowedEnv)
	if err != nil {
		return v1.ArchiveJob{}, fmt.Errorf("failed to build variables: %w", err)
	}

	if err := runner.ExpandJob(&job, variables); err != nil {
		return v1.ArchiveJob{}, fmt.Errorf("failed to expand variables: %w", err)
	}

	return job, nil
}

func runJob(ctx context.Context, job v1.ArchiveJob) error {
	logger := getLogger(ctx)

	r, err := runner.New(ctx, logger.Named("runner"), job, runner.WithOutput(progressOutput(ctx)))
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("failed to run job: %w", err)
	}

	return nil
}
