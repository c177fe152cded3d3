package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	v1 "github.com/infracollect/dirarchive/apis/v1"
	"github.com/infracollect/dirarchive/internal/archiver"
	"github.com/infracollect/dirarchive/internal/dirs"
	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/infracollect/dirarchive/internal/engine/sinks"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const defaultRetryBackoff = time.Second

func createArchiver(logger *zap.Logger, fs afero.Fs, job v1.ArchiveJob) (*archiver.Archiver, error) {
	logger.Info("creating archiver", zap.String("job_name", job.Metadata.Name))
	spec := job.Spec

	a := archiver.New(logger)
	a.SetFs(fs)
	a.SetDestination(spec.Destination)
	a.SetWorkerCount(spec.Workers)
	a.SetSevenZipPath(spec.SevenZipPath)

	if spec.Format != "" {
		if err := a.SetFormatString(spec.Format); err != nil {
			return nil, err
		}
	}

	if spec.Retry != nil {
		policy, err := buildRetryPolicy(spec.Retry)
		if err != nil {
			return nil, err
		}
		a.SetRetryPolicy(policy)
	}

	for i, source := range spec.Sources {
		resolved, err := ResolveSource(i, source)
		if err != nil {
			return nil, err
		}

		paths, err := sourcePaths(fs, resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve source %d: %w", i, err)
		}

		a.PushAll(paths...)
		logger.Info("added source",
			zap.String("kind", resolved.Kind),
			zap.Int("source", i),
			zap.Int("directories", len(paths)),
		)
	}

	return a, nil
}

func sourcePaths(fs afero.Fs, resolved ResolvedSource) ([]string, error) {
	source := resolved.Source

	switch resolved.Kind {
	case SourceKindDir:
		return []string{source.Dir}, nil
	case SourceKindRoot:
		depth := source.Depth
		if depth == 0 {
			depth = 1
		}

		paths, err := dirs.ListDirsWithDepth(fs, source.Root, depth)
		if err != nil {
			return nil, err
		}

		if source.Filter == "" {
			return paths, nil
		}

		filter, err := CompileDirFilter(source.Filter)
		if err != nil {
			return nil, err
		}
		return filter.Apply(paths)
	default:
		return nil, fmt.Errorf("unknown source kind %q", resolved.Kind)
	}
}

func buildRetryPolicy(spec *v1.RetrySpec) (engine.RetryPolicy, error) {
	policy := engine.RetryPolicy{
		MaxAttempts: spec.MaxAttempts,
		Backoff:     defaultRetryBackoff,
	}

	if spec.Backoff != "" {
		backoff, err := time.ParseDuration(spec.Backoff)
		if err != nil {
			return engine.RetryPolicy{}, fmt.Errorf("invalid retry backoff %q: %w", spec.Backoff, err)
		}
		policy.Backoff = backoff
	}

	return policy, nil
}

// buildSink creates the sink archives are uploaded to. It returns a nil sink when the job has
// no upload configured.
func buildSink(ctx context.Context, fs afero.Fs, job v1.ArchiveJob) (engine.Sink, error) {
	kind, err := ResolveUploadKind(job.Spec.Upload)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "":
		return nil, nil
	case "folder":
		return sinks.NewFilesystemSinkFromPath(fs, job.Spec.Upload.Folder.Path)
	case "s3":
		return sinks.NewS3Sink(ctx, s3Config(job.Spec.Upload.S3))
	default:
		return nil, fmt.Errorf("unknown upload kind %q", kind)
	}
}

func s3Config(spec *v1.S3UploadSpec) sinks.S3Config {
	return sinks.S3Config{
		Bucket:          spec.Bucket,
		Region:          spec.Region,
		Endpoint:        spec.Endpoint,
		Prefix:          spec.Prefix,
		AccessKeyID:     spec.AccessKeyID,
		SecretAccessKey: spec.SecretAccessKey,
		ForcePathStyle:  spec.ForcePathStyle,
		PartSize:        spec.PartSize,
	}
}

// listArchives returns the names of the archive files currently in dir. A missing dir
// has no archives.
func listArchives(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	extensions := lo.Map(engine.Formats(), func(f engine.Format, _ int) string {
		return "." + f.Extension()
	})

	return lo.FilterMap(entries, func(entry os.FileInfo, _ int) (string, bool) {
		if !entry.Mode().IsRegular() {
			return "", false
		}
		name := entry.Name()
		return name, lo.SomeBy(extensions, func(ext string) bool {
			return strings.HasSuffix(name, ext)
		})
	}), nil
}

// BuildVariables creates the variables map for expansion.
// It includes built-in variables and reads allowed environment variables.
// If a variable is not set, an error is returned.
func BuildVariables(job v1.ArchiveJob, allowedEnv []string) (map[string]string, error) {
	date := time.Now().UTC()
	variables := map[string]string{
		"JOB_NAME":         job.Metadata.Name,
		"JOB_DATE_ISO8601": date.Format(engine.ISO8601Basic),
		"JOB_DATE_RFC3339": date.Format(time.RFC3339),
	}

	var errs error
	for _, envName := range allowedEnv {
		val, ok := os.LookupEnv(envName)
		if !ok {
			errs = errors.Join(errs, fmt.Errorf("environment variable %q is not set", envName))
			continue
		}
		variables[envName] = val
	}

	if errs != nil {
		return nil, errs
	}

	return variables, nil
}
