// Package dirs enumerates directories and files that can be handed to the archiver.
package dirs

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/samber/lo"
	"github.com/spf13/afero"
)

// ListDirs returns the immediate subdirectories of root, sorted by path.
func ListDirs(fs afero.Fs, root string) ([]string, error) {
	return ListDirsWithDepth(fs, root, 1)
}

// ListDirsWithDepth returns the directories exactly depth levels below root, sorted by path.
// A depth of 1 lists the immediate subdirectories.
func ListDirsWithDepth(fs afero.Fs, root string, depth int) ([]string, error) {
	if depth < 1 {
		return nil, fmt.Errorf("depth must be at least 1, got %d", depth)
	}

	level := []string{root}
	for range depth {
		var next []string
		for _, dir := range level {
			entries, err := afero.ReadDir(fs, dir)
			if err != nil {
				return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
			}

			next = append(next, lo.FilterMap(entries, func(entry os.FileInfo, _ int) (string, bool) {
				return filepath.Join(dir, entry.Name()), entry.IsDir()
			})...)
		}
		level = next
	}

	slices.Sort(level)
	return level, nil
}

// ListFiles returns every regular file below root, hidden files included, sorted by path.
// Symbolic links and other special files are skipped.
func ListFiles(fs afero.Fs, root string) ([]string, error) {
	var files []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	slices.Sort(files)
	return files, nil
}
