// SPDX-License-Identifier: MIT

// Package fsutil confines file lookups to a root directory.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathEscape is returned when a path resolves outside its root.
	ErrPathEscape = errors.New("path escapes root")
	// ErrNotRegular is returned for directories, devices and other non-files.
	ErrNotRegular = errors.New("not a regular file")
)

// ConfineRelPath joins root and relTarget and verifies that the result,
// with symlinks resolved, still lies under root. relTarget must be relative.
func ConfineRelPath(root, relTarget string) (string, error) {
	if strings.Contains(relTarget, "\\") {
		return "", fmt.Errorf("%w: backslash in %q", ErrPathEscape, relTarget)
	}

	cleanRel := filepath.Clean(relTarget)
	if filepath.IsAbs(cleanRel) {
		return "", fmt.Errorf("%w: absolute target %q", ErrPathEscape, relTarget)
	}
	// Segment check so names like "a..b" stay legal.
	if cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, relTarget)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("invalid root path: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", err
	}

	return resolveAndCheck(realRoot, filepath.Join(realRoot, cleanRel))
}

func resolveAndCheck(realRoot, fullPath string) (string, error) {
	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
		// Missing target: resolve the parent so a symlinked directory cannot
		// smuggle the lookup out of the root.
		parent, perr := filepath.EvalSymlinks(filepath.Dir(fullPath))
		if perr != nil {
			return "", err
		}
		realPath = filepath.Join(parent, filepath.Base(fullPath))
	}

	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil {
		return "", fmt.Errorf("rel computation failed: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, realPath)
	}
	return realPath, nil
}

// IsRegularFile returns nil when path exists and is a regular file.
func IsRegularFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s", ErrNotRegular, path)
	}
	return nil
}
