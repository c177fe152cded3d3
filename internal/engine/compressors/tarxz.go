package compressors

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// TarXz archives a directory into a tar file and compresses it with xz.
// The intermediate tar is written next to the final archive and removed afterwards.
type TarXz struct {
	fs      afero.Fs
	dictCap int
	logger  *zap.Logger
}

func NewTarXz(fs afero.Fs, logger *zap.Logger) *TarXz {
	return &TarXz{fs: fs, dictCap: maxDictCap, logger: logger}
}

func (t *TarXz) Format() engine.Format {
	return engine.TarXz
}

func (t *TarXz) Compress(ctx context.Context, origin, dest string) (engine.Result, error) {
	base, err := baseName(origin)
	if err != nil {
		return engine.Result{}, err
	}

	if _, err := outputPath(t.fs, dest, base, engine.TarXz.Extension()); err != nil {
		return engine.Result{}, err
	}

	tarPath, err := makeTar(ctx, t.fs, origin, dest)
	if err != nil {
		return engine.Result{}, fmt.Errorf("cannot create tarball: %w", err)
	}

	xzPath, err := compressXz(ctx, t.fs, tarPath, dest, t.dictCap)
	if err != nil {
		if rmErr := t.fs.Remove(tarPath); rmErr != nil {
			t.logger.Warn("failed to remove tarball", zap.String("tarball", tarPath), zap.Error(rmErr))
		}
		return engine.Result{}, err
	}

	result := engine.Result{Path: xzPath}
	if err := t.fs.Remove(tarPath); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("cannot delete tarball %s: %v", filepath.Base(tarPath), err))
	}

	return result, nil
}
