// Package compressors implements one engine.Compressor per supported archive format.
package compressors

import (
	"runtime"

	"github.com/infracollect/dirarchive/internal/engine"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

type Options struct {
	// Fs is used by the zip and tar+xz compressors. Defaults to the host filesystem.
	Fs afero.Fs
	// SevenZipPath overrides the 7-Zip executable lookup.
	SevenZipPath string
	Logger       *zap.Logger
}

// New returns the compressor for format.
//
// A 7-Zip executable that cannot be resolved does not fail here: the compressor falls back to
// the platform's default name and every task then reports the launch failure.
func New(format engine.Format, opts Options) (engine.Compressor, error) {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.Named(format.Label())

	switch format {
	case engine.Zip:
		return NewZip(opts.Fs, logger), nil
	case engine.TarXz:
		return NewTarXz(opts.Fs, logger), nil
	case engine.SevenZip:
		executable, err := ResolveSevenZip(opts.SevenZipPath)
		if err != nil {
			executable = opts.SevenZipPath
			if executable == "" {
				executable = sevenZipCandidates(runtime.GOOS)[0]
			}
			logger.Warn("7z executable not found, tasks will fail to launch", zap.String("executable", executable), zap.Error(err))
		}
		return NewSevenZip(executable, logger), nil
	default:
		return nil, &engine.UnsupportedFormatError{Label: format.Label(), Available: engine.Labels()}
	}
}
