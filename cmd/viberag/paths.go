package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

var errInvalidPath = errors.New("invalid file path")

// cleanPath rejects empty paths, NUL bytes and ".." segments, and returns
// the absolute form of p.
func cleanPath(p string) (string, error) {
	if p == "" || strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: %q", errInvalidPath, p)
	}
	segments := strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == filepath.Separator })
	if slices.Contains(segments, "..") {
		return "", fmt.Errorf("%w: %q", errInvalidPath, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", errInvalidPath, p, err)
	}
	return abs, nil
}

// existingFile is cleanPath plus a check that p names a regular file.
func existingFile(p string) (string, error) {
	abs, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("file does not exist: %s", p)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("not a file: %s", p)
	}
	return abs, nil
}
