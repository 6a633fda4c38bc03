package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirSource reads loose files below a root directory. File IDs are resolved
// through a list file.
type DirSource struct {
	root     string
	listFile *ListFile
}

// NewDirSource returns a source rooted at root.
func NewDirSource(root string, listFile *ListFile) (*DirSource, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat source dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", root)
	}
	if listFile == nil {
		listFile = NewListFile()
	}
	return &DirSource{root: root, listFile: listFile}, nil
}

// Root returns the source directory.
func (d *DirSource) Root() string {
	return d.root
}

// resolve returns the on-disk path of a file, trying the path as written
// and then its normalized form.
func (d *DirSource) resolve(path string) (string, bool) {
	for _, p := range []string{path, NormalizePath(path)} {
		full := filepath.Join(d.root, filepath.FromSlash(p))
		if info, err := os.Stat(full); err == nil && info.Mode().IsRegular() {
			return full, true
		}
	}
	return "", false
}

// Contains implements Source.
func (d *DirSource) Contains(id uint32) bool {
	path, ok := d.listFile.Path(id)
	if !ok {
		return false
	}
	_, ok = d.resolve(path)
	return ok
}

// ReadFile implements Source.
func (d *DirSource) ReadFile(id uint32) ([]byte, error) {
	path, ok := d.listFile.Path(id)
	if !ok {
		return nil, fmt.Errorf("%w: file id %d", ErrNotFound, id)
	}
	return d.ReadPath(path)
}

// ReadPath implements Source.
func (d *DirSource) ReadPath(path string) ([]byte, error) {
	full, ok := d.resolve(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
