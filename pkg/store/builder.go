package store

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/klauspost/compress/zstd"
)

const (
	// DefaultCompressionLevel is the zstd level used for pack frames.
	DefaultCompressionLevel = 3

	// DefaultFrameSize is the uncompressed size a frame is filled to before
	// it is compressed. Larger files get a frame of their own.
	DefaultFrameSize = 1 << 20

	// MaxPackageSize is the maximum size of a single package file.
	MaxPackageSize = math.MaxInt32
)

// Builder writes a texture pack from a set of scanned files.
type Builder struct {
	outputDir        string
	packageName      string
	compressionLevel int
	frameSize        int
	maxPackageSize   int64
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCompressionLevel sets the zstd level (1-22) for pack frames.
func WithCompressionLevel(level int) BuilderOption {
	return func(b *Builder) {
		b.compressionLevel = level
	}
}

// WithFrameSize sets the target uncompressed frame size.
func WithFrameSize(size int) BuilderOption {
	return func(b *Builder) {
		if size > 0 {
			b.frameSize = size
		}
	}
}

// NewBuilder creates a new pack builder.
func NewBuilder(outputDir, packageName string, opts ...BuilderOption) *Builder {
	b := &Builder{
		outputDir:        outputDir,
		packageName:      packageName,
		compressionLevel: DefaultCompressionLevel,
		frameSize:        DefaultFrameSize,
		maxPackageSize:   MaxPackageSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// packWriter appends compressed frames to the current package file,
// starting a new one when the size limit would be exceeded.
type packWriter struct {
	b       *Builder
	catalog *Catalog
	file    *os.File
	offset  int64
}

func (w *packWriter) write(compressed []byte, length int) error {
	if w.file != nil && w.offset > 0 && w.offset+int64(len(compressed)) > w.b.maxPackageSize {
		if err := w.file.Close(); err != nil {
			return fmt.Errorf("close package %d: %w", w.catalog.Header.PackageCount-1, err)
		}
		w.file = nil
	}

	if w.file == nil {
		index := int(w.catalog.Header.PackageCount)
		f, err := os.Create(PackagePath(w.b.outputDir, w.b.packageName, index))
		if err != nil {
			return fmt.Errorf("create package %d: %w", index, err)
		}
		w.file = f
		w.offset = 0
		w.catalog.Header.PackageCount++
	}

	if _, err := w.file.Write(compressed); err != nil {
		return fmt.Errorf("write compressed data: %w", err)
	}

	w.catalog.Frames = append(w.catalog.Frames, Frame{
		Package:        w.catalog.Header.PackageCount - 1,
		Offset:         uint32(w.offset),
		CompressedSize: uint32(len(compressed)),
		Length:         uint32(length),
	})
	w.offset += int64(len(compressed))
	return nil
}

func (w *packWriter) close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// Build writes the package files and catalog for files and returns the catalog.
func (b *Builder) Build(files []ScannedFile) (*Catalog, error) {
	if err := os.MkdirAll(b.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(b.compressionLevel)),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}
	defer encoder.Close()

	catalog := &Catalog{
		Entries: make([]Entry, 0, len(files)),
	}
	w := &packWriter{b: b, catalog: catalog}
	defer w.close()

	var (
		currentFrame bytes.Buffer
		compressed   []byte
	)

	flush := func() error {
		if currentFrame.Len() == 0 {
			return nil
		}
		compressed = encoder.EncodeAll(currentFrame.Bytes(), compressed[:0])
		if err := w.write(compressed, currentFrame.Len()); err != nil {
			return err
		}
		currentFrame.Reset()
		return nil
	}

	for _, file := range files {
		data, err := os.ReadFile(file.SourcePath)
		if err != nil {
			return nil, fmt.Errorf("read file %d (%s): %w", file.FileID, file.Path, err)
		}

		if currentFrame.Len() > 0 && currentFrame.Len()+len(data) > b.frameSize {
			if err := flush(); err != nil {
				return nil, err
			}
		}

		catalog.Entries = append(catalog.Entries, Entry{
			FileID:   file.FileID,
			Frame:    uint32(len(catalog.Frames)),
			Offset:   uint32(currentFrame.Len()),
			Size:     uint32(len(data)),
			PathHash: HashPath(file.Path),
		})
		currentFrame.Write(data)
	}

	if err := flush(); err != nil {
		return nil, err
	}
	if err := w.close(); err != nil {
		return nil, fmt.Errorf("close package: %w", err)
	}

	if err := WriteCatalog(CatalogPath(b.outputDir, b.packageName), catalog); err != nil {
		return nil, err
	}

	return catalog, nil
}
