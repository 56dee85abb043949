package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath normalizes a path for the current platform
func NormalizePath(path string) string {
	normalized := filepath.Clean(path)

	// On Windows, ensure UNC paths are preserved
	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// WorkRoot returns the directory used for downloaded archives and
// temporary extractions, creating it if needed
func WorkRoot() (string, error) {
	root := filepath.Join(os.TempDir(), "bundlecheck")
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	return root, nil
}
