package engine

import (
	"fmt"
)

// Format is one of the supported archive formats.
type Format int

const (
	// Zip is a deflate-compressed zip container. It is the default format.
	Zip Format = iota
	// TarXz is a tar container compressed with xz.
	TarXz
	// SevenZip is a 7z archive produced by an external 7-Zip executable.
	SevenZip
)

var formats = []Format{SevenZip, TarXz, Zip}

// Formats returns every supported format.
func Formats() []Format {
	return append([]Format(nil), formats...)
}

// Labels returns the labels of every supported format.
func Labels() []string {
	labels := make([]string, 0, len(formats))
	for _, f := range formats {
		labels = append(labels, f.Label())
	}
	return labels
}

// ParseFormat returns the format for the given label ("7z", "xz" or "zip").
func ParseFormat(label string) (Format, error) {
	switch label {
	case "7z":
		return SevenZip, nil
	case "xz":
		return TarXz, nil
	case "zip":
		return Zip, nil
	default:
		return 0, &UnsupportedFormatError{Label: label, Available: Labels()}
	}
}

// Label is the name used for the format in progress messages and configuration.
func (f Format) Label() string {
	switch f {
	case SevenZip:
		return "7z"
	case TarXz:
		return "xz"
	case Zip:
		return "zip"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// Extension returns the file name suffix without the leading dot (e.g. "tar.xz").
func (f Format) Extension() string {
	switch f {
	case SevenZip:
		return "7z"
	case TarXz:
		return "tar.xz"
	case Zip:
		return "zip"
	default:
		return ""
	}
}

func (f Format) String() string {
	return f.Label()
}

func (f Format) MarshalText() ([]byte, error) {
	if f.Extension() == "" {
		return nil, fmt.Errorf("cannot marshal %s: %w", f, ErrInvalidFormat)
	}
	return []byte(f.Label()), nil
}

func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
