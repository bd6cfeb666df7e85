// Package filex holds filesystem helpers for the client's data directory.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureSubdDir creates dirName (relative to the working directory unless
// absolute or starting with "~/") and returns its absolute path. The
// directory holds credentials, so it is private to the user.
func EnsureSubdDir(dirName string) (string, error) {
	dir, err := resolve(dirName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

func resolve(dirName string) (string, error) {
	if rest, ok := strings.CutPrefix(dirName, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home dir: %w", err)
		}
		return filepath.Join(home, rest), nil
	}
	if filepath.IsAbs(dirName) {
		return filepath.Clean(dirName), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}
	return filepath.Join(cwd, dirName), nil
}
