package compressors

import (
	"archive/tar"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// writeTree creates files (slash-separated path -> content) on fs.
func writeTree(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, filepath.FromSlash(name), []byte(content), 0o644))
	}
}

// readZipEntries returns a map of entry name -> content.
func readZipEntries(t *testing.T, fs afero.Fs, path string) map[string]string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	found := make(map[string]string)
	for _, f := range zr.File {
		require.Equal(t, zip.Deflate, f.Method, "entry %s", f.Name)
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		found[f.Name] = string(content)
	}
	return found
}

// readTarXzEntries returns a map of entry name -> content, directories mapped to "".
func readTarXzEntries(t *testing.T, fs afero.Fs, path string) map[string]string {
	t.Helper()
	f, err := fs.Open(path)
	require.NoError(t, err)
	defer f.Close()

	xr, err := xz.NewReader(f)
	require.NoError(t, err)

	tr := tar.NewReader(xr)
	found := make(map[string]string)
	for {
		h, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		content, err := io.ReadAll(tr)
		require.NoError(t, err)
		found[h.Name] = string(content)
	}
	return found
}

// removeFailingFs fails every Remove of a path with the given suffix.
type removeFailingFs struct {
	afero.Fs
	suffix string
}

func (r removeFailingFs) Remove(name string) error {
	if strings.HasSuffix(name, r.suffix) {
		return &os.PathError{Op: "remove", Path: name, Err: errors.New("permission denied")}
	}
	return r.Fs.Remove(name)
}
