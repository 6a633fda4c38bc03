package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/DataDog/zstd"
)

// Pack reads files from a texture pack. It is safe for concurrent use.
type Pack struct {
	catalog *Catalog
	files   []*os.File
	byID    map[uint32]int
	byHash  map[uint64]int

	// Decompression cache, guarded by mu.
	mu            sync.Mutex
	ctx           zstd.Ctx
	lastFrameIdx  uint32
	lastFrameData []byte
}

// CatalogPath returns the catalog file of the pack called name in dir.
func CatalogPath(dir, name string) string {
	return filepath.Join(dir, name+".catalog")
}

// PackagePath returns data file i of the pack called name in dir.
func PackagePath(dir, name string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d", name, i))
}

// OpenPack opens the pack called name in dir.
func OpenPack(dir, name string) (*Pack, error) {
	catalog, err := ReadCatalog(CatalogPath(dir, name))
	if err != nil {
		return nil, err
	}

	p := &Pack{
		catalog:      catalog,
		files:        make([]*os.File, catalog.PackageCount()),
		byID:         make(map[uint32]int, len(catalog.Entries)),
		byHash:       make(map[uint64]int, len(catalog.Entries)),
		ctx:          zstd.NewCtx(),
		lastFrameIdx: ^uint32(0), // Invalid index
	}

	for i, e := range catalog.Entries {
		p.byID[e.FileID] = i
		p.byHash[e.PathHash] = i
	}

	for i := range p.files {
		f, err := os.Open(PackagePath(dir, name, i))
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("open package %d: %w", i, err)
		}
		p.files[i] = f
	}

	return p, nil
}

// Close closes all package files.
func (p *Pack) Close() error {
	var lastErr error
	for _, f := range p.files {
		if f != nil {
			if err := f.Close(); err != nil {
				lastErr = err
			}
		}
	}

	p.mu.Lock()
	p.lastFrameData = nil
	p.mu.Unlock()
	return lastErr
}

// Catalog returns the pack index.
func (p *Pack) Catalog() *Catalog {
	return p.catalog
}

// Contains implements Source.
func (p *Pack) Contains(id uint32) bool {
	_, ok := p.byID[id]
	return ok
}

// ReadFile implements Source.
func (p *Pack) ReadFile(id uint32) ([]byte, error) {
	i, ok := p.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: file id %d", ErrNotFound, id)
	}
	return p.ReadEntry(&p.catalog.Entries[i])
}

// ReadPath implements Source.
func (p *Pack) ReadPath(path string) ([]byte, error) {
	i, ok := p.byHash[HashPath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return p.ReadEntry(&p.catalog.Entries[i])
}

// ReadEntry returns a copy of the data of a catalog entry.
func (p *Pack) ReadEntry(e *Entry) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frame, err := p.loadFrame(e.Frame)
	if err != nil {
		return nil, err
	}

	if uint64(len(frame)) < uint64(e.Offset)+uint64(e.Size) {
		return nil, fmt.Errorf("frame %d too short for file %d", e.Frame, e.FileID)
	}
	return bytes.Clone(frame[e.Offset : e.Offset+e.Size]), nil
}

// loadFrame returns decompressed frame data, using the single-frame cache.
// The caller must hold mu.
func (p *Pack) loadFrame(index uint32) ([]byte, error) {
	if p.lastFrameData != nil && p.lastFrameIdx == index {
		return p.lastFrameData, nil
	}

	compressed, err := p.ReadRawFrame(index)
	if err != nil {
		return nil, err
	}

	frame := p.catalog.Frames[index]
	decompressed := make([]byte, frame.Length)
	out, err := p.ctx.Decompress(decompressed, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress frame %d: %w", index, err)
	}
	if len(out) != int(frame.Length) {
		return nil, fmt.Errorf("decompress frame %d: got %d bytes, want %d", index, len(out), frame.Length)
	}

	p.lastFrameIdx = index
	p.lastFrameData = out
	return out, nil
}

// ReadRawFrame reads the compressed bytes of a frame.
func (p *Pack) ReadRawFrame(index uint32) ([]byte, error) {
	if int(index) >= len(p.catalog.Frames) {
		return nil, fmt.Errorf("invalid frame index %d", index)
	}
	frame := p.catalog.Frames[index]

	if int(frame.Package) >= len(p.files) {
		return nil, fmt.Errorf("invalid package index %d", frame.Package)
	}

	compressed := make([]byte, frame.CompressedSize)
	n, err := p.files[frame.Package].ReadAt(compressed, int64(frame.Offset))
	if err != nil && !(err == io.EOF && n == len(compressed)) {
		return nil, fmt.Errorf("read frame %d: %w", index, err)
	}

	return compressed, nil
}
