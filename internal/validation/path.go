package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MemoryPath selects an in-process store instead of a file.
const MemoryPath = ":memory:"

// PathValidator validates the database and search index paths.
type PathValidator struct {
	// MaxPathLength is the maximum allowed path length
	MaxPathLength int
}

func NewPathValidator() *PathValidator {
	return &PathValidator{MaxPathLength: 4096}
}

// ValidateAndNormalize expands a leading ~/ and returns a clean absolute
// path. MemoryPath and the empty path are returned unchanged.
func (v *PathValidator) ValidateAndNormalize(path string) (string, error) {
	if path == "" || path == MemoryPath {
		return path, nil
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	for _, char := range path {
		if char < 32 {
			return "", fmt.Errorf("path contains control characters")
		}
	}
	for _, component := range strings.Split(filepath.ToSlash(path), "/") {
		if component == ".." {
			return "", fmt.Errorf("directory traversal not allowed")
		}
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	} else if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("invalid tilde usage")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot make path absolute: %w", err)
	}
	return absPath, nil
}

// ValidateFile validates path and makes sure its parent directory exists
// and that it does not point at a directory.
func (v *PathValidator) ValidateFile(path string) (string, error) {
	validated, err := v.ValidateAndNormalize(path)
	if err != nil || validated == "" || validated == MemoryPath {
		return validated, err
	}

	if info, statErr := os.Stat(validated); statErr == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", validated)
	}
	if mkErr := os.MkdirAll(filepath.Dir(validated), 0o755); mkErr != nil {
		return "", fmt.Errorf("failed to create directory: %w", mkErr)
	}
	return validated, nil
}
