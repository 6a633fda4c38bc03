// Package store provides read access to game files by numeric file ID or by
// path, either from a loose directory tree or from a texture pack.
//
// A texture pack is a catalog (an archive blob listing frames and entries)
// plus one or more data files holding concatenated zstd frames:
//
//	<dir>/<name>.catalog
//	<dir>/<name>_0
//	<dir>/<name>_1
//	...
package store

import (
	"errors"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ErrNotFound is returned when a file ID or path is not present in a source.
var ErrNotFound = errors.New("store: file not found")

// Source reads files from an archive or directory.
type Source interface {
	// Contains reports whether the file ID can be read.
	Contains(id uint32) bool
	// ReadFile returns the bytes of a file by ID.
	ReadFile(id uint32) ([]byte, error)
	// ReadPath returns the bytes of a file by path.
	ReadPath(path string) ([]byte, error)
}

// NormalizePath lowercases a path and converts backslashes to forward slashes.
func NormalizePath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
}

// HashPath returns the catalog key of a path.
func HashPath(path string) uint64 {
	return xxhash.Sum64String(NormalizePath(path))
}
