package blp

import "fmt"

// Format is the pixel layout of mip level 0, derived from the header.
type Format int

const (
	FormatUnknown Format = iota
	FormatUncompressed
	FormatPalette
	FormatBC1
	FormatBC2
	FormatBC3
	FormatUnsupported // BC5, recognised but not decodable
)

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatUncompressed:
		return "Uncompressed"
	case FormatPalette:
		return "Palette"
	case FormatBC1:
		return "BC1"
	case FormatBC2:
		return "BC2"
	case FormatBC3:
		return "BC3"
	case FormatUnsupported:
		return "Unsupported(BC5)"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// IsBlock reports whether the format is one of the 4x4 block formats.
func (f Format) IsBlock() bool {
	return f == FormatBC1 || f == FormatBC2 || f == FormatBC3
}

// Classify maps the compression fields of a header to a Format.
// It only looks at Compression and AlphaCompression.
func Classify(h *Header) Format {
	switch h.Compression {
	case CompressionPalette:
		return FormatPalette
	case CompressionBlock:
		switch h.AlphaCompression {
		case AlphaCompressionBC1:
			return FormatBC1
		case AlphaCompressionBC2:
			return FormatBC2
		case AlphaCompressionBC3:
			return FormatBC3
		case AlphaCompressionBC5:
			return FormatUnsupported
		default:
			return FormatUnknown
		}
	case CompressionUncompressed:
		return FormatUncompressed
	default:
		return FormatUnknown
	}
}
