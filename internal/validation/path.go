package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/mitchellh/go-homedir"
)

// ExpandPath resolves a leading ~ and returns a clean absolute path.
func ExpandPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	for _, r := range p {
		if r == 0 || (unicode.IsControl(r) && r != '\t') {
			return "", fmt.Errorf("path contains control characters")
		}
	}

	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", p, err)
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	return abs, nil
}

// EnsureParentDir expands p and creates its parent directory.
func EnsureParentDir(p string) (string, error) {
	abs, err := ExpandPath(p)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", abs, err)
	}
	return abs, nil
}
