package texture

import (
	"encoding/binary"
	"fmt"
	"io"
)

// DDS header constants
const (
	DDS_MAGIC                    = 0x20534444 // "DDS "
	DDS_HEADER_SIZE              = 124
	DDS_HEADER_FLAGS_CAPS        = 0x1
	DDS_HEADER_FLAGS_HEIGHT      = 0x2
	DDS_HEADER_FLAGS_WIDTH       = 0x4
	DDS_HEADER_FLAGS_PITCH       = 0x8
	DDS_HEADER_FLAGS_PIXELFORMAT = 0x1000
	DDS_HEADER_FLAGS_MIPMAPCOUNT = 0x20000
	DDS_HEADER_FLAGS_LINEARSIZE  = 0x80000
	DDS_HEADER_FLAGS_DEPTH       = 0x800000

	DDS_SURFACE_FLAGS_COMPLEX = 0x8
	DDS_SURFACE_FLAGS_TEXTURE = 0x1000
	DDS_SURFACE_FLAGS_MIPMAP  = 0x400000
	DDS_CAPS2_VOLUME          = 0x200000

	DDS_PIXELFORMAT_SIZE = 32
	DDS_ALPHAPIXELS      = 0x1
	DDS_FOURCC           = 0x4
	DDS_RGB              = 0x40

	DX10_FOURCC = 0x30315844 // "DX10"

	D3D10_RESOURCE_DIMENSION_TEXTURE2D = 3
	D3D10_RESOURCE_DIMENSION_TEXTURE3D = 4
)

// DDSHeader is the magic number plus the 124-byte DDS_HEADER.
type DDSHeader struct {
	Magic             uint32
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       DDSPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

// DDSPixelFormat describes the pixel format (32 bytes).
type DDSPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      uint32
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

// DDSDX10Header is the extended header for DX10+ formats (20 bytes).
type DDSDX10Header struct {
	DXGIFormat        uint32
	ResourceDimension uint32
	MiscFlag          uint32
	ArraySize         uint32
	MiscFlags2        uint32
}

// Info describes a DDS file.
type Info struct {
	Width      uint32
	Height     uint32
	Depth      uint32
	MipLevels  uint32
	DXGIFormat uint32 // DXGI_FORMAT_UNKNOWN for legacy RGB
	Format     Format
	DataOffset uint32 // Offset to pixel data
}

// String returns a human-readable representation.
func (i *Info) String() string {
	return fmt.Sprintf("DDS: %dx%dx%d, %d mips, format=%s (%s)",
		i.Width, i.Height, i.Depth, i.MipLevels, i.Format, FormatName(i.DXGIFormat))
}

// legacyFourCC maps block formats to their pre-DX10 FourCC codes.
var legacyFourCC = map[Format]string{
	FormatBC1:  "DXT1",
	FormatBC1A: "DXT1",
	FormatBC2:  "DXT3",
	FormatBC3:  "DXT5",
}

func fourCC(code string) uint32 {
	return binary.LittleEndian.Uint32([]byte(code))
}

// createDDSHeader builds the headers for a texture with the given shape.
// The DX10 header is nil when the format needs a legacy header or legacy is set.
func createDDSHeader(width, height, depth, mips int, format Format, legacy bool) (*DDSHeader, *DDSDX10Header) {
	h := &DDSHeader{
		Magic:       DDS_MAGIC,
		Size:        DDS_HEADER_SIZE,
		Flags:       DDS_HEADER_FLAGS_CAPS | DDS_HEADER_FLAGS_HEIGHT | DDS_HEADER_FLAGS_WIDTH | DDS_HEADER_FLAGS_PIXELFORMAT,
		Height:      uint32(height),
		Width:       uint32(width),
		MipMapCount: uint32(mips),
		PixelFormat: DDSPixelFormat{Size: DDS_PIXELFORMAT_SIZE},
		Caps:        DDS_SURFACE_FLAGS_TEXTURE,
	}

	if format.IsCompressed() {
		h.Flags |= DDS_HEADER_FLAGS_LINEARSIZE
		h.PitchOrLinearSize = uint32(calculateMipSize(width, height, format))
	} else {
		h.Flags |= DDS_HEADER_FLAGS_PITCH
		h.PitchOrLinearSize = uint32(width * format.BytesPerPixel())
	}

	if mips > 1 {
		h.Flags |= DDS_HEADER_FLAGS_MIPMAPCOUNT
		h.Caps |= DDS_SURFACE_FLAGS_COMPLEX | DDS_SURFACE_FLAGS_MIPMAP
	}

	dimension := uint32(D3D10_RESOURCE_DIMENSION_TEXTURE2D)
	if depth > 1 {
		h.Flags |= DDS_HEADER_FLAGS_DEPTH
		h.Depth = uint32(depth)
		h.Caps |= DDS_SURFACE_FLAGS_COMPLEX
		h.Caps2 |= DDS_CAPS2_VOLUME
		dimension = D3D10_RESOURCE_DIMENSION_TEXTURE3D
	}

	if format == FormatRGB {
		// No DXGI equivalent for 24-bit RGB.
		h.PixelFormat.Flags = DDS_RGB
		h.PixelFormat.RGBBitCount = 24
		h.PixelFormat.RBitMask = 0x00FF0000
		h.PixelFormat.GBitMask = 0x0000FF00
		h.PixelFormat.BBitMask = 0x000000FF
		return h, nil
	}

	if legacy {
		if code, ok := legacyFourCC[format]; ok {
			h.PixelFormat.Flags = DDS_FOURCC
			h.PixelFormat.FourCC = fourCC(code)
			return h, nil
		}
		if format == FormatRGBA {
			h.PixelFormat.Flags = DDS_RGB | DDS_ALPHAPIXELS
			h.PixelFormat.RGBBitCount = 32
			h.PixelFormat.RBitMask = 0x000000FF
			h.PixelFormat.GBitMask = 0x0000FF00
			h.PixelFormat.BBitMask = 0x00FF0000
			h.PixelFormat.ABitMask = 0xFF000000
			return h, nil
		}
	}

	h.PixelFormat.Flags = DDS_FOURCC
	h.PixelFormat.FourCC = DX10_FOURCC

	dx10 := &DDSDX10Header{
		DXGIFormat:        format.DXGIFormat(),
		ResourceDimension: dimension,
		ArraySize:         1,
	}
	return h, dx10
}

// writeDDSHeader writes the headers for a texture with the given shape.
func writeDDSHeader(w io.Writer, width, height, depth, mips int, format Format, legacy bool) error {
	header, dx10 := createDDSHeader(width, height, depth, mips, format, legacy)

	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if dx10 != nil {
		if err := binary.Write(w, binary.LittleEndian, dx10); err != nil {
			return fmt.Errorf("write dx10 header: %w", err)
		}
	}
	return nil
}

// ParseDDSHeader reads and parses a DDS header.
func ParseDDSHeader(r io.Reader) (*Info, error) {
	var header DDSHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if header.Magic != DDS_MAGIC {
		return nil, fmt.Errorf("invalid DDS magic: 0x%08x", header.Magic)
	}

	info := &Info{
		Width:     header.Width,
		Height:    header.Height,
		Depth:     max(header.Depth, 1),
		MipLevels: max(header.MipMapCount, 1),
	}

	pf := header.PixelFormat
	switch {
	case pf.Flags&DDS_FOURCC != 0 && pf.FourCC == DX10_FOURCC:
		var dx10 DDSDX10Header
		if err := binary.Read(r, binary.LittleEndian, &dx10); err != nil {
			return nil, fmt.Errorf("read DX10 header: %w", err)
		}
		info.DXGIFormat = dx10.DXGIFormat
		info.DataOffset = 4 + DDS_HEADER_SIZE + 20
		switch dx10.DXGIFormat {
		case DXGI_FORMAT_R8G8B8A8_UNORM, DXGI_FORMAT_R8G8B8A8_UNORM_SRGB:
			info.Format = FormatRGBA
		case DXGI_FORMAT_BC1_UNORM, DXGI_FORMAT_BC1_UNORM_SRGB:
			info.Format = FormatBC1
		case DXGI_FORMAT_BC2_UNORM, DXGI_FORMAT_BC2_UNORM_SRGB:
			info.Format = FormatBC2
		case DXGI_FORMAT_BC3_UNORM, DXGI_FORMAT_BC3_UNORM_SRGB:
			info.Format = FormatBC3
		}

	case pf.Flags&DDS_FOURCC != 0:
		info.DataOffset = 4 + DDS_HEADER_SIZE
		switch string([]byte{byte(pf.FourCC), byte(pf.FourCC >> 8), byte(pf.FourCC >> 16), byte(pf.FourCC >> 24)}) {
		case "DXT1":
			info.DXGIFormat, info.Format = DXGI_FORMAT_BC1_UNORM, FormatBC1
		case "DXT3":
			info.DXGIFormat, info.Format = DXGI_FORMAT_BC2_UNORM, FormatBC2
		case "DXT5":
			info.DXGIFormat, info.Format = DXGI_FORMAT_BC3_UNORM, FormatBC3
		default:
			return nil, fmt.Errorf("unsupported fourCC: 0x%08x", pf.FourCC)
		}

	case pf.Flags&DDS_RGB != 0 && pf.RGBBitCount == 24:
		info.DataOffset = 4 + DDS_HEADER_SIZE
		info.Format = FormatRGB

	case pf.Flags&DDS_RGB != 0 && pf.RGBBitCount == 32:
		info.DataOffset = 4 + DDS_HEADER_SIZE
		info.Format = FormatRGBA
		info.DXGIFormat = DXGI_FORMAT_R8G8B8A8_UNORM
		if pf.RBitMask == 0x00FF0000 {
			info.DXGIFormat = DXGI_FORMAT_B8G8R8A8_UNORM
		}

	default:
		return nil, fmt.Errorf("unsupported pixel format flags: 0x%x", pf.Flags)
	}

	return info, nil
}
