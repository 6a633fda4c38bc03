// Package blp decodes BLP2 texture containers into 32-bit pixel planes.
//
// A BLP2 file starts with a fixed 148-byte header, followed by a 1024-byte
// palette region and the mip level payloads. Only mip level 0 is decoded.
// Three payload families are supported:
//  1. Uncompressed 32-bit pixels (compression 3)
//  2. Palette-indexed pixels with 0, 1, 4 or 8 bit alpha (compression 1)
//  3. BC1/BC2/BC3 block-compressed pixels (compression 2)
//
// Decoded planes use packed BGRA (blue in the low byte), row-major, top row first.
package blp

import (
	"encoding/binary"
	"fmt"
)

// Magic is the signature at the start of every BLP2 file.
var Magic = [4]byte{'B', 'L', 'P', '2'}

// Version is the only supported container version.
const Version = 1

const (
	// HeaderSize is the fixed binary size of a BLP2 header.
	HeaderSize = 148 // 4 + 4 + 4 + 8 + 16*4 + 16*4 bytes

	// PaletteSize is the size of the palette region that follows the header.
	PaletteSize = 256 * 4

	// MaxMipLevels is the number of mip offset/size slots in the header.
	MaxMipLevels = 16
)

// Compression kinds stored in Header.Compression.
const (
	CompressionPalette      = 1
	CompressionBlock        = 2
	CompressionUncompressed = 3
)

// Block sub-format selectors stored in Header.AlphaCompression.
const (
	AlphaCompressionBC1 = 0
	AlphaCompressionBC2 = 1
	AlphaCompressionBC3 = 7
	AlphaCompressionBC5 = 11
)

// Header is the fixed-layout BLP2 file header.
type Header struct {
	Signature        [4]byte             // +0x00: "BLP2"
	Version          uint32              // +0x04: container version, always 1
	Compression      uint8               // +0x08: 1 palette, 2 block, 3 uncompressed
	AlphaDepth       uint8               // +0x09: alpha bits per pixel (0, 1, 4, 8)
	AlphaCompression uint8               // +0x0A: block sub-format selector
	MipLevels        uint8               // +0x0B: non-zero when mips are present
	Width            uint32              // +0x0C
	Height           uint32              // +0x10
	Offsets          [MaxMipLevels]uint32 // +0x14: byte offset of each mip level
	Sizes            [MaxMipLevels]uint32 // +0x54: byte size of each mip level
}

// Size returns the binary size of the header.
func (h *Header) Size() int {
	return HeaderSize
}

// Validate checks the signature and version.
func (h *Header) Validate() error {
	if h.Signature != Magic {
		return fmt.Errorf("%w: expected %q, got %q", ErrBadSignature, Magic[:], h.Signature[:])
	}
	if h.Version != Version {
		return fmt.Errorf("%w: unsupported version %d", ErrBadSignature, h.Version)
	}
	return nil
}

// PixelCount returns width*height.
func (h *Header) PixelCount() uint64 {
	return uint64(h.Width) * uint64(h.Height)
}

// MarshalBinary encodes the header to its 148-byte form.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize)
	h.EncodeTo(buf)
	return buf, nil
}

// EncodeTo writes the header to the given buffer.
// The buffer must be at least HeaderSize bytes.
func (h *Header) EncodeTo(buf []byte) {
	copy(buf[0x00:0x04], h.Signature[:])
	binary.LittleEndian.PutUint32(buf[0x04:0x08], h.Version)
	buf[0x08] = h.Compression
	buf[0x09] = h.AlphaDepth
	buf[0x0A] = h.AlphaCompression
	buf[0x0B] = h.MipLevels
	binary.LittleEndian.PutUint32(buf[0x0C:0x10], h.Width)
	binary.LittleEndian.PutUint32(buf[0x10:0x14], h.Height)

	o := 0x14
	for i := range h.Offsets {
		binary.LittleEndian.PutUint32(buf[o:], h.Offsets[i])
		o += 4
	}
	for i := range h.Sizes {
		binary.LittleEndian.PutUint32(buf[o:], h.Sizes[i])
		o += 4
	}
}

// UnmarshalBinary decodes and validates the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncatedInput, HeaderSize, len(data))
	}
	h.DecodeFrom(data)
	return h.Validate()
}

// DecodeFrom reads the header field by field from the given buffer.
// Does not validate - use UnmarshalBinary for validation.
func (h *Header) DecodeFrom(data []byte) {
	copy(h.Signature[:], data[0x00:0x04])
	h.Version = binary.LittleEndian.Uint32(data[0x04:0x08])
	h.Compression = data[0x08]
	h.AlphaDepth = data[0x09]
	h.AlphaCompression = data[0x0A]
	h.MipLevels = data[0x0B]
	h.Width = binary.LittleEndian.Uint32(data[0x0C:0x10])
	h.Height = binary.LittleEndian.Uint32(data[0x10:0x14])

	o := 0x14
	for i := range h.Offsets {
		h.Offsets[i] = binary.LittleEndian.Uint32(data[o:])
		o += 4
	}
	for i := range h.Sizes {
		h.Sizes[i] = binary.LittleEndian.Uint32(data[o:])
		o += 4
	}
}

// ParseHeader reads and validates the header at the start of data.
func ParseHeader(data []byte) (*Header, error) {
	h := &Header{}
	if err := h.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return h, nil
}

// readHeader reads the header at the cursor and advances past it.
func readHeader(c *cursor) (*Header, error) {
	b, err := c.read(HeaderSize)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := &Header{}
	h.DecodeFrom(b)
	return h, nil
}

// String returns a human-readable representation.
func (h *Header) String() string {
	return fmt.Sprintf(
		"BLP: %dx%d, compression=%d, alpha_depth=%d, alpha_compression=%d, mips=%d, format=%s",
		h.Width, h.Height, h.Compression, h.AlphaDepth, h.AlphaCompression, h.MipLevels, Classify(h),
	)
}
