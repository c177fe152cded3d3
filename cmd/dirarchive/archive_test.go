package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	v1 "github.com/infracollect/dirarchive/apis/v1"
	"github.com/infracollect/dirarchive/internal/runner"
)

// parseArchiveFlags runs a copy of the archive command whose action only captures the job.
func parseArchiveFlags(t *testing.T, args ...string) v1.ArchiveJob {
	t.Helper()

	var job v1.ArchiveJob
	cmd := &cli.Command{
		Name:      "archive",
		Flags:     archiveFlags(),
		Arguments: archiveArguments(),
		Action: func(ctx context.Context, command *cli.Command) error {
			job = jobFromFlags(command)
			return nil
		},
	}

	require.NoError(t, cmd.Run(t.Context(), append([]string{"archive"}, args...)))
	return job
}

func TestJobFromFlags(t *testing.T) {
	t.Run("dirs and defaults", func(t *testing.T) {
		job := parseArchiveFlags(t, "--dest", "/out", "/data/a", "/data/b")

		require.NoError(t, runner.ValidateJob(job))
		assert.Equal(t, "/out", job.Spec.Destination)
		assert.Equal(t, "zip", job.Spec.Format)
		assert.Equal(t, 1, job.Spec.Workers)
		assert.Nil(t, job.Spec.Retry)
		assert.Equal(t, []v1.Source{{Dir: "/data/a"}, {Dir: "/data/b"}}, job.Spec.Sources)
	})

	t.Run("roots with retries", func(t *testing.T) {
		job := parseArchiveFlags(t,
			"--dest", "/out",
			"--format", "xz",
			"--workers", "4",
			"--root", "/srv",
			"--depth", "2",
			"--filter", `!name.startsWith(".")`,
			"--retries", "2",
			"--retry-backoff", "500ms",
		)

		require.NoError(t, runner.ValidateJob(job))
		assert.Equal(t, "xz", job.Spec.Format)
		assert.Equal(t, 4, job.Spec.Workers)
		assert.Equal(t, []v1.Source{{Root: "/srv", Depth: 2, Filter: `!name.startsWith(".")`}}, job.Spec.Sources)
		require.NotNil(t, job.Spec.Retry)
		assert.Equal(t, 3, job.Spec.Retry.MaxAttempts)
		assert.Equal(t, (500 * time.Millisecond).String(), job.Spec.Retry.Backoff)
	})

	t.Run("no sources is invalid", func(t *testing.T) {
		job := parseArchiveFlags(t, "--dest", "/out")
		require.Error(t, runner.ValidateJob(job))
	})
}
