package compressors

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/infracollect/dirarchive/internal/engine"
)

// sevenZipCandidates lists the executable names tried for goos, preferred first.
func sevenZipCandidates(goos string) []string {
	switch goos {
	case "darwin":
		return []string{"7zz", "7z"}
	case "windows":
		return []string{"7z.exe"}
	case "linux":
		return []string{"7zzs", "7zz", "7z", "7za"}
	default:
		return []string{"7z"}
	}
}

// ResolveSevenZip returns the 7-Zip executable to run. An explicit path wins; otherwise the
// platform's usual names are looked up on PATH and then in the working directory.
func ResolveSevenZip(explicit string) (string, error) {
	if explicit != "" {
		path, err := exec.LookPath(explicit)
		if err != nil {
			return "", fmt.Errorf("7z executable %s: %w: %v", explicit, engine.ErrNotFound, err)
		}
		return path, nil
	}

	candidates := sevenZipCandidates(runtime.GOOS)
	for _, name := range candidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
		local := "." + string(filepath.Separator) + name
		if path, err := exec.LookPath(local); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("cannot find the 7z executable (tried %v): %w", candidates, engine.ErrNotFound)
}
