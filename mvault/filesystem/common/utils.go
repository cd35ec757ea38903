package common

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathUtils provides common path manipulation utilities
type PathUtils struct{}

// NewPathUtils creates a new PathUtils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath cleans a path; relative paths stay relative
func (pu *PathUtils) NormalizePath(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

// HasMarker reports whether any element of path equals one of markers.
func (pu *PathUtils) HasMarker(path string, markers []string) bool {
	if len(markers) == 0 {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		for _, m := range markers {
			if m != "" && part == m {
				return true
			}
		}
	}
	return false
}

// SplitPath splits a path into directory, stem and extension
func (pu *PathUtils) SplitPath(path string) (dir, stem, ext string) {
	dir = filepath.Dir(path)
	name := filepath.Base(path)
	ext = filepath.Ext(name)
	stem = strings.TrimSuffix(name, ext)
	return dir, stem, ext
}

// ValidatePath validates that a path is non-empty and free of NUL bytes
func (pu *PathUtils) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrPathEmpty
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains invalid characters: %q", path)
	}
	if len(path) > 4096 {
		return fmt.Errorf("path too long (max 4096 characters)")
	}
	return nil
}
