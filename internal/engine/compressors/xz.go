package compressors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/spf13/afero"
	"github.com/ulikunitz/xz"
)

const (
	// maxDictCap matches the dictionary size of the xz -9 preset.
	maxDictCap = 64 << 20
	minDictCap = 4 << 10
)

// dictCapFor returns the dictionary size for an input of size bytes: the input size, bounded by
// minDictCap and limit.
func dictCapFor(size int64, limit int) int {
	if size < int64(limit) {
		return max(int(size), minDictCap)
	}
	return limit
}

// compressXz writes src to dest/<name(src)>.xz using a dictionary of at most dictCap bytes.
func compressXz(ctx context.Context, fs afero.Fs, src, dest string, dictCap int) (string, error) {
	info, err := fs.Stat(src)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("file %s: %w", src, engine.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", src, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s is not a regular file: %w", src, engine.ErrInvalidInput)
	}

	path, err := outputPath(fs, dest, filepath.Base(src), "xz")
	if err != nil {
		return "", err
	}

	in, err := fs.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	err = writeExclusive(fs, path, func(f afero.File) error {
		cfg := xz.WriterConfig{DictCap: dictCapFor(info.Size(), dictCap), CheckSum: xz.CRC64}
		xw, err := cfg.NewWriter(f)
		if err != nil {
			return fmt.Errorf("failed to create xz writer: %w", err)
		}

		if _, err := io.Copy(xw, contextReader{ctx: ctx, r: in}); err != nil {
			return fmt.Errorf("failed to compress %s: %w", src, err)
		}

		if err := xw.Close(); err != nil {
			return fmt.Errorf("failed to close xz writer: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return path, nil
}

// contextReader stops a copy once its context is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
