package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v1 "github.com/infracollect/dirarchive/apis/v1"
	"github.com/infracollect/dirarchive/internal/engine"
)

type recordingSink struct {
	mu       sync.Mutex
	written  map[string][]byte
	failOn   string
	closed   bool
	closeErr error
}

func newRecordingSink() *recordingSink {
	return &recordingSink{written: map[string][]byte{}}
}

func (s *recordingSink) Name() string { return "recording" }
func (s *recordingSink) Kind() string { return "recording" }

func (s *recordingSink) Write(_ context.Context, path string, data io.Reader) error {
	if path == s.failOn {
		return errors.New("sink unavailable")
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written[path] = b
	return nil
}

func (s *recordingSink) Close(context.Context) error {
	s.closed = true
	return s.closeErr
}

var _ engine.Sink = (*recordingSink)(nil)

func TestParseArchiveJob(t *testing.T) {
	t.Run("valid job", func(t *testing.T) {
		job, err := ParseArchiveJob([]byte(`
kind: ArchiveJob
metadata:
  name: nightly
spec:
  destination: /backups/${JOB_NAME}
  format: xz
  workers: 4
  retry:
    maxAttempts: 3
    backoff: 2s
  sources:
    - root: /srv/projects
      depth: 1
      filter: '!name.startsWith(".")'
    - dir: /etc/app
  upload:
    s3:
      bucket: archives
      prefix: nightly
      partSize: 16777216
`))
		require.NoError(t, err)

		assert.Equal(t, "nightly", job.Metadata.Name)
		assert.Equal(t, "xz", job.Spec.Format)
		assert.Equal(t, 4, job.Spec.Workers)
		assert.Equal(t, 3, job.Spec.Retry.MaxAttempts)
		require.Len(t, job.Spec.Sources, 2)
		assert.Equal(t, "/srv/projects", job.Spec.Sources[0].Root)
		assert.Equal(t, "/etc/app", job.Spec.Sources[1].Dir)
		assert.Equal(t, "archives", job.Spec.Upload.S3.Bucket)
		assert.Equal(t, int64(16<<20), job.Spec.Upload.S3.PartSize)
	})

	tests := []struct {
		name string
		data string
	}{
		{
			name: "wrong kind",
			data: "kind: CollectJob\nmetadata: {name: x}\nspec: {destination: /out, sources: [{dir: /a}]}",
		},
		{
			name: "missing destination",
			data: "kind: ArchiveJob\nmetadata: {name: x}\nspec: {sources: [{dir: /a}]}",
		},
		{
			name: "no sources",
			data: "kind: ArchiveJob\nmetadata: {name: x}\nspec: {destination: /out}",
		},
		{
			name: "unknown format",
			data: "kind: ArchiveJob\nmetadata: {name: x}\nspec: {destination: /out, format: rar, sources: [{dir: /a}]}",
		},
		{
			name: "source with dir and root",
			data: "kind: ArchiveJob\nmetadata: {name: x}\nspec: {destination: /out, sources: [{dir: /a, root: /b}]}",
		},
		{
			name: "empty source",
			data: "kind: ArchiveJob\nmetadata: {name: x}\nspec: {destination: /out, sources: [{depth: 2}]}",
		},
		{
			name: "s3 part size below minimum",
			data: "kind: ArchiveJob\nmetadata: {name: x}\nspec: {destination: /out, sources: [{dir: /a}], upload: {s3: {bucket: b, partSize: 1024}}}",
		},
		{
			name: "invalid yaml",
			data: "kind: [",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseArchiveJob([]byte(tt.data))
			require.Error(t, err)
		})
	}
}

func setupRunFs(t *testing.T) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, file := range []string{
		"/data/alpha/readme.md",
		"/data/beta/notes/today.txt",
		"/data/.trash/old.txt",
	} {
		require.NoError(t, fs.MkdirAll(filepath.Dir(file), 0o755))
		require.NoError(t, afero.WriteFile(fs, file, []byte("content of "+file), 0o644))
	}
	require.NoError(t, fs.MkdirAll("/out", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/out/previous.zip", []byte("older run"), 0o644))
	return fs
}

func TestRunner_Run(t *testing.T) {
	fs := setupRunFs(t)
	sink := newRecordingSink()
	var output bytes.Buffer

	job := v1.ArchiveJob{
		Kind:     "ArchiveJob",
		Metadata: v1.Metadata{Name: "test"},
		Spec: v1.ArchiveJobSpec{
			Destination: "/out",
			Workers:     2,
			Sources:     []v1.Source{{Root: "/data", Filter: `!name.startsWith(".")`}},
		},
	}

	r, err := New(t.Context(), zap.NewNop(), job, WithFs(fs), WithSink(sink), WithOutput(&output))
	require.NoError(t, err)
	require.NoError(t, r.Run(t.Context()))

	lines := strings.Split(strings.TrimSpace(output.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Total archive directory count: 2", lines[0])
	assert.ElementsMatch(t, []string{
		"zip archiving complete: /out/alpha.zip",
		"zip archiving complete: /out/beta.zip",
	}, lines[1:3])
	assert.Equal(t, "Archiving Complete!", lines[3])

	assert.Len(t, sink.written, 2)
	assert.Contains(t, sink.written, "alpha.zip")
	assert.Contains(t, sink.written, "beta.zip")
	assert.NotContains(t, sink.written, "previous.zip")
	assert.True(t, sink.closed)

	uploaded, err := afero.ReadFile(fs, "/out/alpha.zip")
	require.NoError(t, err)
	assert.Equal(t, uploaded, sink.written["alpha.zip"])
}

func TestRunner_RunWithoutSink(t *testing.T) {
	fs := setupRunFs(t)

	job := v1.ArchiveJob{
		Kind:     "ArchiveJob",
		Metadata: v1.Metadata{Name: "test"},
		Spec: v1.ArchiveJobSpec{
			Destination: "/out",
			Format:      "xz",
			Sources:     []v1.Source{{Dir: "/data/alpha"}},
		},
	}

	r, err := New(t.Context(), zap.NewNop(), job, WithFs(fs))
	require.NoError(t, err)
	require.NoError(t, r.Run(t.Context()))

	exists, err := afero.Exists(fs, "/out/alpha.tar.xz")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunner_RunUploadFailure(t *testing.T) {
	fs := setupRunFs(t)
	sink := newRecordingSink()
	sink.failOn = "alpha.zip"

	job := v1.ArchiveJob{
		Kind:     "ArchiveJob",
		Metadata: v1.Metadata{Name: "test"},
		Spec: v1.ArchiveJobSpec{
			Destination: "/out",
			Sources:     []v1.Source{{Dir: "/data/alpha"}, {Dir: "/data/beta"}},
		},
	}

	r, err := New(t.Context(), zap.NewNop(), job, WithFs(fs), WithSink(sink))
	require.NoError(t, err)

	err = r.Run(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha.zip")
	assert.Contains(t, sink.written, "beta.zip")
	assert.True(t, sink.closed)
}

func TestRunner_RunClosesSink(t *testing.T) {
	job := v1.ArchiveJob{
		Kind:     "ArchiveJob",
		Metadata: v1.Metadata{Name: "test"},
		Spec: v1.ArchiveJobSpec{
			Destination: "/out",
			Sources:     []v1.Source{{Dir: "/data/alpha"}},
		},
	}

	t.Run("cancelled run", func(t *testing.T) {
		sink := newRecordingSink()
		r, err := New(t.Context(), zap.NewNop(), job, WithFs(setupRunFs(t)), WithSink(sink))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		err = r.Run(ctx)
		require.ErrorIs(t, err, context.Canceled)
		assert.True(t, sink.closed)
		assert.Empty(t, sink.written)
	})

	t.Run("destination is a file", func(t *testing.T) {
		fs := setupRunFs(t)
		require.NoError(t, fs.RemoveAll("/out"))
		require.NoError(t, afero.WriteFile(fs, "/out", []byte("not a directory"), 0o644))

		sink := newRecordingSink()
		r, err := New(t.Context(), zap.NewNop(), job, WithFs(fs), WithSink(sink))
		require.NoError(t, err)

		err = r.Run(t.Context())
		require.Error(t, err)
		assert.True(t, sink.closed)
	})

	t.Run("sink close error is returned", func(t *testing.T) {
		sink := newRecordingSink()
		sink.closeErr = errors.New("flush failed")
		r, err := New(t.Context(), zap.NewNop(), job, WithFs(setupRunFs(t)), WithSink(sink))
		require.NoError(t, err)

		err = r.Run(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "flush failed")
		assert.Contains(t, sink.written, "alpha.zip")
	})
}

func TestRunner_RunEmptySources(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/data", 0o755))
	var output bytes.Buffer

	job := v1.ArchiveJob{
		Kind:     "ArchiveJob",
		Metadata: v1.Metadata{Name: "test"},
		Spec: v1.ArchiveJobSpec{
			Destination: "/out",
			Sources:     []v1.Source{{Root: "/data"}},
		},
	}

	r, err := New(t.Context(), zap.NewNop(), job, WithFs(fs), WithOutput(&output))
	require.NoError(t, err)

	err = r.Run(t.Context())
	require.ErrorIs(t, err, engine.ErrNotFound)
	assert.Equal(t, engine.EmptyQueueMessage+"\n", output.String())
}

func TestNew_InvalidFilter(t *testing.T) {
	fs := setupRunFs(t)

	job := v1.ArchiveJob{
		Spec: v1.ArchiveJobSpec{
			Destination: "/out",
			Sources:     []v1.Source{{Root: "/data", Filter: `name.size()`}},
		},
	}

	_, err := New(t.Context(), zap.NewNop(), job, WithFs(fs))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must evaluate to bool")
}
