// Package texture encodes decoded pixel data into DDS texture files.
//
// Supported output formats:
//   - RGB:  24-bit uncompressed (legacy DDS header with channel masks)
//   - RGBA: 32-bit uncompressed (DX10 header, R8G8B8A8_UNORM)
//   - BC1:  opaque DXT1, or DXT1 with 1-bit alpha (BC1A)
//   - BC2:  DXT3, explicit 4-bit alpha
//   - BC3:  DXT5, interpolated 8-bit alpha
//
// Textures with more than one layer are written as volume textures.
package texture

import "fmt"

// DXGI_FORMAT constants for the formats this package reads or writes.
const (
	DXGI_FORMAT_UNKNOWN             = 0
	DXGI_FORMAT_R32G32B32A32_FLOAT  = 2
	DXGI_FORMAT_R8G8B8A8_UNORM      = 28
	DXGI_FORMAT_R8G8B8A8_UNORM_SRGB = 29
	DXGI_FORMAT_R32_FLOAT           = 41
	DXGI_FORMAT_BC1_UNORM           = 71
	DXGI_FORMAT_BC1_UNORM_SRGB      = 72
	DXGI_FORMAT_BC2_UNORM           = 74
	DXGI_FORMAT_BC2_UNORM_SRGB      = 75
	DXGI_FORMAT_BC3_UNORM           = 77
	DXGI_FORMAT_BC3_UNORM_SRGB      = 78
	DXGI_FORMAT_BC5_UNORM           = 83
	DXGI_FORMAT_B8G8R8A8_UNORM      = 87
)

// FormatName returns a human-readable name for a DXGI_FORMAT value.
func FormatName(format uint32) string {
	switch format {
	case DXGI_FORMAT_R32G32B32A32_FLOAT:
		return "R32G32B32A32_FLOAT"
	case DXGI_FORMAT_R8G8B8A8_UNORM:
		return "R8G8B8A8_UNORM"
	case DXGI_FORMAT_R8G8B8A8_UNORM_SRGB:
		return "R8G8B8A8_UNORM_SRGB"
	case DXGI_FORMAT_R32_FLOAT:
		return "R32_FLOAT"
	case DXGI_FORMAT_BC1_UNORM:
		return "BC1_UNORM"
	case DXGI_FORMAT_BC1_UNORM_SRGB:
		return "BC1_UNORM_SRGB"
	case DXGI_FORMAT_BC2_UNORM:
		return "BC2_UNORM"
	case DXGI_FORMAT_BC2_UNORM_SRGB:
		return "BC2_UNORM_SRGB"
	case DXGI_FORMAT_BC3_UNORM:
		return "BC3_UNORM"
	case DXGI_FORMAT_BC3_UNORM_SRGB:
		return "BC3_UNORM_SRGB"
	case DXGI_FORMAT_BC5_UNORM:
		return "BC5_UNORM"
	case DXGI_FORMAT_B8G8R8A8_UNORM:
		return "B8G8R8A8_UNORM"
	default:
		return fmt.Sprintf("UNKNOWN(0x%x)", format)
	}
}

// Format is an output pixel format.
type Format int

const (
	FormatRGB Format = iota + 1
	FormatRGBA
	FormatBC1
	FormatBC1A // BC1 with 1-bit alpha
	FormatBC2
	FormatBC3
)

// String returns a human-readable name for the format.
func (f Format) String() string {
	switch f {
	case FormatRGB:
		return "RGB"
	case FormatRGBA:
		return "RGBA"
	case FormatBC1:
		return "BC1"
	case FormatBC1A:
		return "BC1A"
	case FormatBC2:
		return "BC2"
	case FormatBC3:
		return "BC3"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat maps a name such as "bc3" or "rgba" to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "rgb", "RGB":
		return FormatRGB, nil
	case "rgba", "RGBA":
		return FormatRGBA, nil
	case "bc1", "BC1", "dxt1", "DXT1":
		return FormatBC1, nil
	case "bc1a", "BC1A":
		return FormatBC1A, nil
	case "bc2", "BC2", "dxt3", "DXT3":
		return FormatBC2, nil
	case "bc3", "BC3", "dxt5", "DXT5":
		return FormatBC3, nil
	default:
		return 0, fmt.Errorf("unknown texture format %q", name)
	}
}

// DXGIFormat returns the DX10 header format, or DXGI_FORMAT_UNKNOWN for
// formats that need a legacy header.
func (f Format) DXGIFormat() uint32 {
	switch f {
	case FormatRGBA:
		return DXGI_FORMAT_R8G8B8A8_UNORM
	case FormatBC1, FormatBC1A:
		return DXGI_FORMAT_BC1_UNORM
	case FormatBC2:
		return DXGI_FORMAT_BC2_UNORM
	case FormatBC3:
		return DXGI_FORMAT_BC3_UNORM
	default:
		return DXGI_FORMAT_UNKNOWN
	}
}

// IsCompressed reports whether the format is block compressed.
func (f Format) IsCompressed() bool {
	return f.BlockSize() > 0
}

// BlockSize returns the bytes per 4x4 block, or 0 for uncompressed formats.
func (f Format) BlockSize() int {
	switch f {
	case FormatBC1, FormatBC1A:
		return 8
	case FormatBC2, FormatBC3:
		return 16
	default:
		return 0
	}
}

// BytesPerPixel returns the size of an uncompressed pixel, or 0 for block formats.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	default:
		return 0
	}
}

// calculateMipSize returns the byte size of one 2D image in the given format.
func calculateMipSize(width, height int, format Format) int {
	if bs := format.BlockSize(); bs > 0 {
		blocksWide := (width + 3) / 4
		blocksHigh := (height + 3) / 4
		return blocksWide * blocksHigh * bs
	}
	return width * height * format.BytesPerPixel()
}

// mipCount returns the number of levels in a full chain down to 1x1.
func mipCount(width, height int) int {
	n := 1
	for width > 1 || height > 1 {
		width = max(width/2, 1)
		height = max(height/2, 1)
		n++
	}
	return n
}
