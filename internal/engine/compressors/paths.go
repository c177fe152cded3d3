package compressors

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/spf13/afero"
)

// baseName returns the name an archive of origin is derived from.
func baseName(origin string) (string, error) {
	base := filepath.Base(filepath.Clean(origin))
	switch base {
	case "", ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("cannot derive an archive name from %q: %w", origin, engine.ErrInvalidInput)
	}
	return base, nil
}

func checkOriginDir(fs afero.Fs, origin string) error {
	info, err := fs.Stat(origin)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("origin directory %s: %w", origin, engine.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to stat origin %s: %w", origin, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("origin %s is not a directory: %w", origin, engine.ErrNotFound)
	}
	return nil
}

// outputPath returns dest/<base>.<ext> and fails if something already lives there.
func outputPath(fs afero.Fs, dest, base, ext string) (string, error) {
	path := filepath.Join(dest, base+"."+ext)
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if exists {
		return "", fmt.Errorf("archive %s: %w", path, engine.ErrAlreadyExists)
	}
	return path, nil
}

// createExclusive creates path for writing, failing if it already exists.
func createExclusive(fs afero.Fs, path string) (afero.File, error) {
	f, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("archive %s: %w", path, engine.ErrAlreadyExists)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	return f, nil
}

// writeExclusive creates path and fills it with write. The file is removed if write fails.
func writeExclusive(fs afero.Fs, path string, write func(f afero.File) error) (err error) {
	f, err := createExclusive(fs, path)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, f.Close())
		if err != nil {
			if rmErr := fs.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = errors.Join(err, fmt.Errorf("failed to remove partial archive %s: %w", path, rmErr))
			}
		}
	}()

	return write(f)
}
