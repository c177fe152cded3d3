package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a required path or setting is missing.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when an archive would overwrite an existing file.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput is returned when a path cannot be used as an archive origin.
	ErrInvalidInput = errors.New("invalid input")
	// ErrBrokenPipe is returned when an external compressor cannot be launched or exits abnormally.
	ErrBrokenPipe = errors.New("broken pipe")
	// ErrInvalidFormat is returned when a format label is not recognized.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrProgressClosed is returned when sending on a closed progress channel.
	ErrProgressClosed = errors.New("progress channel closed")
)

// UnsupportedFormatError is returned when a format label is not one of the known labels.
type UnsupportedFormatError struct {
	Label     string
	Available []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q (available: %v)", e.Label, e.Available)
}

func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// IsPermanent reports whether retrying the operation that produced err cannot succeed.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidFormat)
}
