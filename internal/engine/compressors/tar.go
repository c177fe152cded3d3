package compressors

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// makeTar writes an uncompressed tar of origin to dest/<base>.tar. Entries are rooted at
// "<base>/" so the archive unpacks into a single directory.
func makeTar(ctx context.Context, fs afero.Fs, origin, dest string) (string, error) {
	base, err := baseName(origin)
	if err != nil {
		return "", err
	}

	if err := checkOriginDir(fs, origin); err != nil {
		return "", err
	}

	path, err := outputPath(fs, dest, base, "tar")
	if err != nil {
		return "", err
	}

	err = writeExclusive(fs, path, func(f afero.File) error {
		return writeTar(ctx, fs, f, origin, base)
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

func writeTar(ctx context.Context, fs afero.Fs, w io.Writer, origin, base string) error {
	tw := tar.NewWriter(w)

	err := afero.Walk(fs, origin, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}

		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(origin, path)
		if err != nil {
			return fmt.Errorf("failed to compute entry name for %s: %w", path, err)
		}

		header, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return fmt.Errorf("failed to build tar header for %s: %w", path, err)
		}
		header.Name = filepath.ToSlash(filepath.Join(base, rel))
		if info.IsDir() {
			header.Name += "/"
		}

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header: %w", err)
		}

		if info.IsDir() {
			return nil
		}

		f, err := fs.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()

		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("failed to write tar content: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	return nil
}
