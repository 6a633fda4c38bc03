// Package convert turns BLP textures and raw pixel buffers into DDS files.
package convert

import (
	"fmt"

	"github.com/goopsie/blpconv/pkg/blp"
	"github.com/goopsie/blpconv/pkg/texture"
)

// convertOptions holds per-file conversion settings.
type convertOptions struct {
	mipmaps       bool
	compress      bool
	premultiplied bool
	legacy        bool
	format        texture.Format
	formatSet     bool
}

func defaultConvertOptions() *convertOptions {
	return &convertOptions{
		compress:      true,
		premultiplied: true,
	}
}

// ConvertOption configures ConvertBLP and ConvertRaw.
type ConvertOption func(*convertOptions)

// WithMipmaps requests a full mip chain in the output.
func WithMipmaps(enabled bool) ConvertOption {
	return func(o *convertOptions) {
		o.mipmaps = enabled
	}
}

// WithCompression selects block compression (the default) or uncompressed
// RGBA output for ConvertBLP.
func WithCompression(enabled bool) ConvertOption {
	return func(o *convertOptions) {
		o.compress = enabled
	}
}

// WithPremultipliedAlpha is passed through to blp.Decode.
func WithPremultipliedAlpha(premultiplied bool) ConvertOption {
	return func(o *convertOptions) {
		o.premultiplied = premultiplied
	}
}

// WithFormat overrides the output format chosen by SelectFormat.
func WithFormat(format texture.Format) ConvertOption {
	return func(o *convertOptions) {
		o.format = format
		o.formatSet = true
	}
}

// WithLegacyHeader writes DDS files without the DX10 extension header where
// the format allows it.
func WithLegacyHeader(enabled bool) ConvertOption {
	return func(o *convertOptions) {
		o.legacy = enabled
	}
}

func (o *convertOptions) encodeOptions() []texture.Option {
	return []texture.Option{
		texture.WithMipmaps(o.mipmaps),
		texture.WithLegacyHeader(o.legacy),
	}
}

// SelectFormat returns the output format for a BLP texture: block textures
// keep their encoding, others become BC3 when they carry alpha and BC1 otherwise.
func SelectFormat(h *blp.Header) texture.Format {
	switch blp.Classify(h) {
	case blp.FormatBC1:
		if h.AlphaDepth == 1 {
			return texture.FormatBC1A
		}
		return texture.FormatBC1
	case blp.FormatBC2:
		return texture.FormatBC2
	case blp.FormatBC3:
		return texture.FormatBC3
	default:
		if h.AlphaDepth > 0 {
			return texture.FormatBC3
		}
		return texture.FormatBC1
	}
}

// ConvertBLP decodes a BLP2 buffer and writes it to outputPath as DDS.
// Nothing is written when decoding fails.
func ConvertBLP(data []byte, outputPath string, opts ...ConvertOption) error {
	o := defaultConvertOptions()
	for _, opt := range opts {
		opt(o)
	}

	img, err := blp.Decode(data, blp.WithPremultipliedAlpha(o.premultiplied))
	if err != nil {
		return fmt.Errorf("decode blp: %w", err)
	}

	h, err := blp.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("parse header: %w", err)
	}

	format := texture.FormatRGBA
	switch {
	case o.formatSet:
		format = o.format
	case o.compress:
		format = SelectFormat(h)
	}

	surface, err := texture.SurfaceFromBGRA(img.Width, img.Height, img.Pix)
	if err != nil {
		return fmt.Errorf("build surface: %w", err)
	}

	// Alpha depth 0 decodes to alpha 0 but is written as opaque.
	if h.AlphaDepth == 0 {
		surface.SetOpaque()
	}

	if err := texture.WriteFile(outputPath, surface, format, o.encodeOptions()...); err != nil {
		return fmt.Errorf("write dds: %w", err)
	}
	return nil
}

// ConvertRaw writes tightly packed pixels as a DDS file. More than one layer
// produces a volume texture; volume textures cannot carry mipmaps.
func ConvertRaw(width, height, layers int, data []byte, in texture.InputFormat, out texture.Format, outputPath string, opts ...ConvertOption) error {
	o := defaultConvertOptions()
	for _, opt := range opts {
		opt(o)
	}

	surface, err := texture.SurfaceFromRaw(width, height, layers, data, in)
	if err != nil {
		return fmt.Errorf("build surface: %w", err)
	}

	if err := texture.WriteFile(outputPath, surface, out, o.encodeOptions()...); err != nil {
		return fmt.Errorf("write dds: %w", err)
	}
	return nil
}
