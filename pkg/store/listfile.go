package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ListFile maps file IDs to paths. Each line is "<id>;<path>".
type ListFile struct {
	paths map[uint32]string
	ids   map[string]uint32
	order []uint32
}

// NewListFile returns an empty list file.
func NewListFile() *ListFile {
	return &ListFile{
		paths: make(map[uint32]string),
		ids:   make(map[string]uint32),
	}
}

// Add records a mapping. A later mapping for the same ID replaces the path.
func (l *ListFile) Add(id uint32, path string) {
	if old, ok := l.paths[id]; ok {
		delete(l.ids, NormalizePath(old))
	} else {
		l.order = append(l.order, id)
	}
	l.paths[id] = path
	l.ids[NormalizePath(path)] = id
}

// Path returns the path of a file ID as written in the list file.
func (l *ListFile) Path(id uint32) (string, bool) {
	p, ok := l.paths[id]
	return p, ok
}

// ID returns the file ID of a path, compared after NormalizePath.
func (l *ListFile) ID(path string) (uint32, bool) {
	id, ok := l.ids[NormalizePath(path)]
	return id, ok
}

// Len returns the number of entries.
func (l *ListFile) Len() int {
	return len(l.order)
}

// IDs returns every file ID in list order.
func (l *ListFile) IDs() []uint32 {
	return append([]uint32(nil), l.order...)
}

// BLPFileIDs returns, in list order, the IDs whose path ends in ".blp".
func (l *ListFile) BLPFileIDs() []uint32 {
	var ids []uint32
	for _, id := range l.order {
		if strings.HasSuffix(strings.ToLower(l.paths[id]), ".blp") {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseListFile reads a list file. Lines may end in LF, CRLF or a bare CR;
// blank lines are ignored.
func ParseListFile(r io.Reader) (*ListFile, error) {
	l := NewListFile()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanLines)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		idStr, path, ok := strings.Cut(line, ";")
		if !ok || path == "" {
			return nil, fmt.Errorf("parse list file line %d: missing path", lineNum)
		}

		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse list file line %d: %w", lineNum, err)
		}

		l.Add(uint32(id), path)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list file: %w", err)
	}
	return l, nil
}

// ReadListFile parses the list file at path.
func ReadListFile(path string) (*ListFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list file: %w", err)
	}
	defer f.Close()

	return ParseListFile(f)
}

// WriteTo writes the list file in list order.
func (l *ListFile) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, id := range l.order {
		m, err := fmt.Fprintf(bw, "%d;%s\n", id, l.paths[id])
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// scanLines is bufio.ScanLines extended to treat a bare CR as a line ending.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\n' {
			return i + 1, data[:i], nil
		}
		// CR: need one more byte to tell CRLF from a bare CR.
		if i+1 < len(data) {
			if data[i+1] == '\n' {
				return i + 2, data[:i], nil
			}
			return i + 1, data[:i], nil
		}
		if atEOF {
			return i + 1, data[:i], nil
		}
		return 0, nil, nil
	}

	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
