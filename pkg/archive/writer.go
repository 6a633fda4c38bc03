package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	"github.com/cespare/xxhash/v2"
)

// Writer compresses a blob into dst. The header is written as a placeholder
// and rewritten with the final sizes and checksum on Close.
type Writer struct {
	dst     io.WriteSeeker
	start   int64
	zWriter *zstd.Writer
	digest  *xxhash.Digest
	header  *Header
	level   int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the compression level for the writer.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// NewWriter creates a new archive writer that writes to dst at its current position.
func NewWriter(dst io.WriteSeeker, opts ...WriterOption) (*Writer, error) {
	start, err := dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("get position: %w", err)
	}

	w := &Writer{
		dst:    dst,
		start:  start,
		digest: xxhash.New(),
		level:  DefaultCompressionLevel,
		header: NewHeader(0, 0, 0),
	}

	for _, opt := range opts {
		opt(w)
	}

	var placeholder [HeaderSize]byte
	if _, err := dst.Write(placeholder[:]); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	w.zWriter = zstd.NewWriterLevel(dst, w.level)
	return w, nil
}

// Write compresses p into the archive.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.zWriter.Write(p)
	w.digest.Write(p[:n])
	w.header.Length += uint64(n)
	return n, err
}

// Close flushes the compressor and finalizes the header.
func (w *Writer) Close() error {
	if err := w.zWriter.Close(); err != nil {
		return fmt.Errorf("close compressor: %w", err)
	}

	end, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return fmt.Errorf("get position: %w", err)
	}

	w.header.CompressedLength = uint64(end - w.start - HeaderSize)
	w.header.Checksum = w.digest.Sum64()

	if _, err := w.dst.Seek(w.start, io.SeekStart); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}

	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}
	if _, err := w.dst.Write(headerBytes); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if _, err := w.dst.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("seek to end: %w", err)
	}

	return nil
}

// Header returns the header as it will be written; sizes are final after Close.
func (w *Writer) Header() *Header {
	return w.header
}

// Encode compresses data and writes it as an archive to dst.
func Encode(dst io.WriteSeeker, data []byte, opts ...WriterOption) error {
	w, err := NewWriter(dst, opts...)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write data: %w", err)
	}

	return w.Close()
}
