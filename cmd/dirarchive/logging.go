package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	logFormatJSON    = "json"
	logFormatConsole = "console"
)

type loggerCtxKeyType struct{}

var loggerCtxKey = loggerCtxKeyType{}

// loggerOptions mirrors the global logging flags.
type loggerOptions struct {
	Debug bool
	Level string
	// Format is json or console. Empty picks console in debug mode and json otherwise.
	Format string
	// File receives the logs instead of stderr. Stdout stays free for progress output.
	File string
}

func createLogger(opts loggerOptions) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(opts.Level)
	if err != nil {
		return nil, zap.NewAtomicLevel(), fmt.Errorf("invalid log level %s: %w", opts.Level, err)
	}

	var cfg zap.Config
	if opts.Debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.DisableStacktrace = false
	}
	cfg.Level = level

	switch opts.Format {
	case "":
	case logFormatJSON, logFormatConsole:
		cfg.Encoding = opts.Format
	default:
		return nil, zap.NewAtomicLevel(), fmt.Errorf("invalid log format %q, expected %s or %s", opts.Format, logFormatJSON, logFormatConsole)
	}

	if opts.File != "" {
		cfg.OutputPaths = []string{opts.File}
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.NewAtomicLevel(), fmt.Errorf("failed to build logger: %w", err)
	}

	return logger.Named("dirarchive"), level, nil
}

func withLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, logger)
}

func tryLogger(ctx context.Context) *zap.Logger {
	logger, _ := ctx.Value(loggerCtxKey).(*zap.Logger)
	return logger
}

func getLogger(ctx context.Context) *zap.Logger {
	logger := tryLogger(ctx)
	if logger == nil {
		panic("logger not found in context")
	}
	return logger
}
