// Package archive stores a single blob as a zstd stream behind a fixed header
// carrying both lengths and an xxhash64 checksum of the uncompressed content.
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Magic identifies an archive.
var Magic = [4]byte{'B', 'C', 'A', 'T'}

// HeaderSize is the encoded size of a Header.
const HeaderSize = 32

// Field offsets within an encoded header.
const (
	offHeaderLength     = 4
	offLength           = 8
	offCompressedLength = 16
	offChecksum         = 24

	// headerLength counts the bytes after the HeaderLength field.
	headerLength = HeaderSize - offLength
)

var (
	ErrBadMagic = errors.New("archive: bad magic")
	ErrEmpty    = errors.New("archive: empty blob")
)

// Header precedes the compressed blob.
type Header struct {
	Magic            [4]byte
	HeaderLength     uint32
	Length           uint64 // Uncompressed size
	CompressedLength uint64
	Checksum         uint64 // xxhash64 of the uncompressed content
}

// NewHeader returns a header for a blob of the given sizes and checksum.
func NewHeader(length, compressedLength, checksum uint64) *Header {
	return &Header{
		Magic:            Magic,
		HeaderLength:     headerLength,
		Length:           length,
		CompressedLength: compressedLength,
		Checksum:         checksum,
	}
}

// Size returns HeaderSize.
func (h *Header) Size() int {
	return HeaderSize
}

// Validate rejects foreign or empty archives.
func (h *Header) Validate() error {
	switch {
	case h.Magic != Magic:
		return fmt.Errorf("%w: %q", ErrBadMagic, h.Magic[:])
	case h.HeaderLength != headerLength:
		return fmt.Errorf("header length %d, want %d", h.HeaderLength, headerLength)
	case h.Length == 0 || h.CompressedLength == 0:
		return ErrEmpty
	}
	return nil
}

// EncodeTo writes h into buf, which must hold HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	le := binary.LittleEndian
	copy(buf, h.Magic[:])
	le.PutUint32(buf[offHeaderLength:], h.HeaderLength)
	le.PutUint64(buf[offLength:], h.Length)
	le.PutUint64(buf[offCompressedLength:], h.CompressedLength)
	le.PutUint64(buf[offChecksum:], h.Checksum)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// DecodeFrom fills h from buf without validating it.
func (h *Header) DecodeFrom(buf []byte) {
	le := binary.LittleEndian
	copy(h.Magic[:], buf)
	h.HeaderLength = le.Uint32(buf[offHeaderLength:])
	h.Length = le.Uint64(buf[offLength:])
	h.CompressedLength = le.Uint64(buf[offCompressedLength:])
	h.Checksum = le.Uint64(buf[offChecksum:])
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler and validates the result.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("short header: %d bytes", len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}
