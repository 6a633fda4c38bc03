package store

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// ScannedFile is a file found on disk that will be added to a pack.
type ScannedFile struct {
	FileID     uint32
	Path       string // Path relative to the scanned root, forward slashes
	SourcePath string // Path on disk
	Size       uint32
}

// ScanFiles walks inputDir and returns the files that the list file names,
// ordered by file ID. Files missing from the list file are skipped.
func ScanFiles(inputDir string, listFile *ListFile) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.WalkDir(inputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(inputDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		relPath = filepath.ToSlash(relPath)

		id, ok := listFile.ID(relPath)
		if !ok {
			return nil // Skip
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		size := info.Size()
		const maxUint32 = int64(^uint32(0))
		if size < 0 || size > maxUint32 {
			return fmt.Errorf("file too large: %s (size %d exceeds %d bytes)", path, size, maxUint32)
		}

		files = append(files, ScannedFile{
			FileID:     id,
			Path:       relPath,
			SourcePath: path,
			Size:       uint32(size),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].FileID < files[j].FileID
	})
	return files, nil
}
