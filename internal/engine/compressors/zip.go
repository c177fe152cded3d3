package compressors

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/infracollect/dirarchive/internal/dirs"
	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// macOSMetadataFile is never added to zip archives.
const macOSMetadataFile = ".DS_Store"

// Zip archives a directory into a deflate-compressed zip file.
type Zip struct {
	fs     afero.Fs
	logger *zap.Logger
}

func NewZip(fs afero.Fs, logger *zap.Logger) *Zip {
	return &Zip{fs: fs, logger: logger}
}

func (z *Zip) Format() engine.Format {
	return engine.Zip
}

// Compress stores every file below origin under its path relative to origin's parent,
// so entries of "root/dir1" start with "dir1/".
func (z *Zip) Compress(ctx context.Context, origin, dest string) (engine.Result, error) {
	base, err := baseName(origin)
	if err != nil {
		return engine.Result{}, err
	}

	if err := checkOriginDir(z.fs, origin); err != nil {
		return engine.Result{}, err
	}

	path, err := outputPath(z.fs, dest, base, engine.Zip.Extension())
	if err != nil {
		return engine.Result{}, err
	}

	err = writeExclusive(z.fs, path, func(f afero.File) error {
		return z.write(ctx, f, origin)
	})
	if err != nil {
		return engine.Result{}, err
	}

	return engine.Result{Path: path}, nil
}

func (z *Zip) write(ctx context.Context, w io.Writer, origin string) error {
	files, err := dirs.ListFiles(z.fs, origin)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	parent := filepath.Dir(filepath.Clean(origin))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("context cancelled: %w", err)
		}

		if filepath.Base(file) == macOSMetadataFile {
			z.logger.Debug("skipping metadata file", zap.String("file", file))
			continue
		}

		rel, err := filepath.Rel(parent, file)
		if err != nil {
			return fmt.Errorf("failed to compute entry name for %s: %w", file, err)
		}

		if err := z.addFile(zw, file, filepath.ToSlash(rel)); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	return nil
}

func (z *Zip) addFile(zw *zip.Writer, file, name string) error {
	info, err := z.fs.Stat(file)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", file, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build zip header for %s: %w", file, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to create zip entry %s: %w", name, err)
	}

	src, err := z.fs.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer src.Close()

	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("failed to write zip entry %s: %w", name, err)
	}
	return nil
}
