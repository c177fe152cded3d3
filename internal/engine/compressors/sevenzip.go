package compressors

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SevenZip archives a directory by running an external 7-Zip executable with maximum
// compression. It always works on the host filesystem.
type SevenZip struct {
	executable string
	fs         afero.Fs
	logger     *zap.Logger
}

func NewSevenZip(executable string, logger *zap.Logger) *SevenZip {
	return &SevenZip{executable: executable, fs: afero.NewOsFs(), logger: logger}
}

func (s *SevenZip) Format() engine.Format {
	return engine.SevenZip
}

func (s *SevenZip) Executable() string {
	return s.executable
}

func (s *SevenZip) Compress(ctx context.Context, origin, dest string) (engine.Result, error) {
	base, err := baseName(origin)
	if err != nil {
		return engine.Result{}, err
	}

	path, err := outputPath(s.fs, dest, base, engine.SevenZip.Extension())
	if err != nil {
		return engine.Result{}, err
	}

	if err := checkOriginDir(s.fs, origin); err != nil {
		return engine.Result{}, err
	}

	// 7z appends to an existing archive, so it writes to a fresh temporary name while the
	// final name is held by an empty placeholder created with O_EXCL.
	placeholder, err := createExclusive(s.fs, path)
	if err != nil {
		return engine.Result{}, err
	}
	if err := placeholder.Close(); err != nil {
		s.removePartial(path)
		return engine.Result{}, fmt.Errorf("failed to reserve %s: %w", path, err)
	}

	tmp, err := s.tempPath(dest, base)
	if err != nil {
		s.removePartial(path)
		return engine.Result{}, err
	}

	if err := s.run(ctx, tmp, origin); err != nil {
		s.removePartial(tmp)
		s.removePartial(path)
		return engine.Result{}, err
	}

	if err := s.fs.Rename(tmp, path); err != nil {
		s.removePartial(tmp)
		s.removePartial(path)
		return engine.Result{}, fmt.Errorf("failed to move %s to %s: %w", tmp, path, err)
	}

	return engine.Result{Path: path}, nil
}

// tempPath returns an unused name in dest. The file itself is removed so 7z creates a new
// archive rather than opening an empty one.
func (s *SevenZip) tempPath(dest, base string) (string, error) {
	f, err := afero.TempFile(s.fs, dest, "."+base+".*.7z.partial")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary archive in %s: %w", dest, err)
	}
	name := f.Name()
	if err := errors.Join(f.Close(), s.fs.Remove(name)); err != nil {
		return "", fmt.Errorf("failed to prepare temporary archive %s: %w", name, err)
	}
	return name, nil
}

func (s *SevenZip) run(ctx context.Context, archive, origin string) error {
	args := []string{"a", "-mx=9", "-t7z", archive, origin}
	cmd := exec.CommandContext(ctx, s.executable, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.logger.Debug("invoking 7z",
		zap.String("executable", s.executable),
		zap.Strings("args", args),
	)
	start := time.Now()
	err := cmd.Run()
	exitCode := -1
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	s.logger.Debug("7z finished",
		zap.String("archive", archive),
		zap.Int("exit_code", exitCode),
		zap.Duration("duration", time.Since(start)),
	)

	if err != nil {
		if stderrStr := strings.TrimSpace(stderr.String()); stderrStr != "" {
			return fmt.Errorf("7z failed: %w: %v: %s", engine.ErrBrokenPipe, err, stderrStr)
		}
		return fmt.Errorf("7z failed: %w: %v", engine.ErrBrokenPipe, err)
	}

	if exists, _ := afero.Exists(s.fs, archive); !exists {
		return fmt.Errorf("7z exited without creating %s: %w", archive, engine.ErrBrokenPipe)
	}
	return nil
}

func (s *SevenZip) removePartial(path string) {
	if err := s.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("failed to remove partial archive", zap.String("archive", path), zap.Error(err))
	}
}
