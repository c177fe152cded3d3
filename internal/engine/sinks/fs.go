package sinks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/spf13/afero"
)

// FilesystemSink copies archives into a directory. Existing files are never replaced.
type FilesystemSink struct {
	fs afero.Fs
}

func NewFilesystemSink(fs afero.Fs) engine.Sink {
	return &FilesystemSink{fs: fs}
}

// NewFilesystemSinkFromPath roots a sink at path on fs, creating it if needed.
func NewFilesystemSinkFromPath(fs afero.Fs, path string) (engine.Sink, error) {
	cleanPath := filepath.Clean(path)

	if err := fs.MkdirAll(cleanPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", cleanPath, err)
	}

	return NewFilesystemSink(afero.NewBasePathFs(fs, cleanPath)), nil
}

func (s *FilesystemSink) Name() string {
	return fmt.Sprintf("filesystem(%s)", s.fs.Name())
}

func (s *FilesystemSink) Kind() string {
	return "filesystem"
}

func (s *FilesystemSink) Write(ctx context.Context, path string, data io.Reader) (err error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := s.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s: %w", path, engine.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	if _, err = io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(path)
		return fmt.Errorf("failed to write to file: %w", err)
	}

	return f.Close()
}

func (s *FilesystemSink) Close(ctx context.Context) error {
	return nil
}
