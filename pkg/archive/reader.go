package archive

import (
	"fmt"
	"io"

	"github.com/DataDog/zstd"
	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultCompressionLevel is the default compression level for encoding.
	DefaultCompressionLevel = zstd.DefaultCompression
)

// Reader decompresses the blob of an archive and hashes it as it is read.
type Reader struct {
	header  *Header
	zReader io.ReadCloser
	digest  *xxhash.Digest
	read    uint64
}

// NewReader reads and validates the header from r, then returns a reader
// for the decompressed content.
func NewReader(r io.Reader) (*Reader, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	header := &Header{}
	if err := header.UnmarshalBinary(buf[:]); err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}

	return &Reader{
		header:  header,
		zReader: zstd.NewReader(io.LimitReader(r, int64(header.CompressedLength))),
		digest:  xxhash.New(),
	}, nil
}

// Header returns the archive header.
func (r *Reader) Header() *Header {
	return r.header
}

// Read reads decompressed data into p.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.zReader.Read(p)
	r.digest.Write(p[:n])
	r.read += uint64(n)
	return n, err
}

// Verify reports a checksum mismatch once the whole blob has been read.
func (r *Reader) Verify() error {
	if r.read != r.header.Length {
		return fmt.Errorf("verify: read %d of %d bytes", r.read, r.header.Length)
	}
	if sum := r.digest.Sum64(); sum != r.header.Checksum {
		return fmt.Errorf("checksum mismatch: expected %016x, got %016x", r.header.Checksum, sum)
	}
	return nil
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.zReader.Close()
}

// Length returns the uncompressed data length.
func (r *Reader) Length() int {
	return int(r.header.Length)
}

// CompressedLength returns the compressed data length.
func (r *Reader) CompressedLength() int {
	return int(r.header.CompressedLength)
}

// ReadAll reads and verifies the entire decompressed content of an archive.
func ReadAll(r io.Reader) ([]byte, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data := make([]byte, reader.Length())
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	if err := reader.Verify(); err != nil {
		return nil, err
	}

	return data, nil
}
