package blp

import (
	"fmt"
	"image"
	"io"
)

func init() {
	image.RegisterFormat("blp", string(Magic[:]), decodeImage, DecodeConfig)
}

// decodeOptions holds decoder settings.
type decodeOptions struct {
	premultipliedAlpha bool
}

// Option configures Decode.
type Option func(*decodeOptions)

// WithPremultipliedAlpha controls the fourth color of BC1 blocks in
// two-color mode: transparent black when set (the default), opaque black otherwise.
func WithPremultipliedAlpha(premultiplied bool) Option {
	return func(o *decodeOptions) {
		o.premultipliedAlpha = premultiplied
	}
}

// Decode decodes mip level 0 of a BLP2 file.
//
// The steps are: read header, validate signature and mip 0 size, classify,
// decode, normalize to BGRA. Any failure is returned as one of the Err*
// values (wrapped); no partial image is returned.
func Decode(data []byte, opts ...Option) (*Image, error) {
	o := &decodeOptions{premultipliedAlpha: true}
	for _, opt := range opts {
		opt(o)
	}

	c := &cursor{data: data}

	h, err := readHeader(c)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	if h.Sizes[0] == 0 {
		return nil, fmt.Errorf("%w: mip 0 has size 0", ErrEmptyMipLevel)
	}

	format := Classify(h)
	switch format {
	case FormatUnsupported:
		return nil, fmt.Errorf("%w: alpha compression %d", ErrUnsupportedDxtVariant, h.AlphaCompression)
	case FormatUnknown:
		if h.Compression == CompressionBlock {
			return nil, fmt.Errorf("%w: alpha compression %d", ErrUnsupportedDxtVariant, h.AlphaCompression)
		}
		return nil, fmt.Errorf("%w: compression %d", ErrUnknownFormat, h.Compression)
	}

	if err := checkPlaneFits(h, format, len(data)); err != nil {
		return nil, err
	}

	if err := c.seek(int64(h.Offsets[0])); err != nil {
		return nil, fmt.Errorf("seek mip 0: %w", err)
	}

	width, height := int(h.Width), int(h.Height)
	pix := make([]uint32, width*height)

	switch format {
	case FormatUncompressed:
		err = decodeUncompressed(c, pix)
	case FormatPalette:
		err = decodePalette(h, c, pix)
	default:
		err = decodeBlocks(format, width, height, c, pix, o.premultipliedAlpha)
	}
	if err != nil {
		return nil, err
	}

	normalize(pix)

	return &Image{
		Width:  width,
		Height: height,
		Pix:    pix,
		Format: format,
	}, nil
}

// checkPlaneFits rejects headers whose declared dimensions need more bytes
// than the whole buffer holds, before any plane is allocated.
func checkPlaneFits(h *Header, f Format, available int) error {
	units := h.PixelCount()
	unitSize := uint64(1)

	switch f {
	case FormatUncompressed:
		unitSize = 4
	case FormatPalette:
	default:
		size, err := blockSize(f)
		if err != nil {
			return err
		}
		bw := (uint64(h.Width) + 3) / 4
		bh := (uint64(h.Height) + 3) / 4
		units = bw * bh
		unitSize = uint64(size)
	}

	// Divide instead of multiplying so huge dimensions cannot overflow.
	if units > uint64(available)/unitSize {
		return fmt.Errorf("%w: %s plane of %dx%d does not fit in %d bytes",
			ErrTruncatedInput, f, h.Width, h.Height, available)
	}
	return nil
}

// DecodeConfig returns the dimensions of a BLP2 image without decoding pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return image.Config{}, fmt.Errorf("%w: %v", ErrTruncatedInput, err)
	}

	h, err := ParseHeader(buf)
	if err != nil {
		return image.Config{}, err
	}

	return image.Config{
		ColorModel: (&Image{}).ColorModel(),
		Width:      int(h.Width),
		Height:     int(h.Height),
	}, nil
}

func decodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read blp: %w", err)
	}
	return Decode(data)
}
