package texture

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"math"
	"os"

	"golang.org/x/image/draw"
)

// Surface is the pixel source of a DDS file. A single layer is a 2D texture;
// several layers of equal size form a volume texture.
type Surface struct {
	Width  int
	Height int
	Layers []*image.NRGBA
}

// Depth returns the number of layers.
func (s *Surface) Depth() int {
	return len(s.Layers)
}

// SetOpaque sets the alpha of every pixel to 255.
func (s *Surface) SetOpaque() {
	for _, layer := range s.Layers {
		for i := 3; i < len(layer.Pix); i += 4 {
			layer.Pix[i] = 0xFF
		}
	}
}

// NewSurface wraps any image as a single-layer surface.
func NewSurface(img image.Image) *Surface {
	bounds := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || bounds.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}
	return &Surface{Width: bounds.Dx(), Height: bounds.Dy(), Layers: []*image.NRGBA{nrgba}}
}

// SurfaceFromBGRA builds a single-layer surface from packed BGRA pixels
// (blue in the low byte).
func SurfaceFromBGRA(width, height int, pix []uint32) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if len(pix) != width*height {
		return nil, fmt.Errorf("pixel count mismatch: got %d, want %d", len(pix), width*height)
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i, p := range pix {
		o := i * 4
		img.Pix[o+0] = uint8(p >> 16)
		img.Pix[o+1] = uint8(p >> 8)
		img.Pix[o+2] = uint8(p)
		img.Pix[o+3] = uint8(p >> 24)
	}
	return &Surface{Width: width, Height: height, Layers: []*image.NRGBA{img}}, nil
}

// InputFormat is the layout of raw pixel data passed to SurfaceFromRaw.
type InputFormat int

const (
	InputBGRA8   InputFormat = iota // 4 bytes: B, G, R, A
	InputRGBA32F                    // 16 bytes: float32 R, G, B, A
	InputR32F                       // 4 bytes: float32 R
)

// String returns the name of the input format.
func (f InputFormat) String() string {
	switch f {
	case InputBGRA8:
		return "BGRA8"
	case InputRGBA32F:
		return "RGBA32F"
	case InputR32F:
		return "R32F"
	default:
		return fmt.Sprintf("InputFormat(%d)", int(f))
	}
}

// BytesPerPixel returns the raw size of one pixel.
func (f InputFormat) BytesPerPixel() int {
	switch f {
	case InputBGRA8, InputR32F:
		return 4
	case InputRGBA32F:
		return 16
	default:
		return 0
	}
}

// SurfaceFromRaw builds a surface from tightly packed raw pixels, layer after
// layer. Float channels are clamped to [0, 1]; R32F fills red only and is opaque.
func SurfaceFromRaw(width, height, layers int, data []byte, format InputFormat) (*Surface, error) {
	if width <= 0 || height <= 0 || layers <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%dx%d", width, height, layers)
	}
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("unsupported input format %s", format)
	}

	layerSize := width * height * bpp
	if len(data) != layerSize*layers {
		return nil, fmt.Errorf("raw data size mismatch: got %d bytes, want %d", len(data), layerSize*layers)
	}

	s := &Surface{Width: width, Height: height, Layers: make([]*image.NRGBA, layers)}
	for l := 0; l < layers; l++ {
		src := data[l*layerSize : (l+1)*layerSize]
		img := image.NewNRGBA(image.Rect(0, 0, width, height))

		for i := 0; i < width*height; i++ {
			o := i * 4
			p := src[i*bpp : (i+1)*bpp]
			switch format {
			case InputBGRA8:
				img.Pix[o+0], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3] = p[2], p[1], p[0], p[3]
			case InputRGBA32F:
				img.Pix[o+0] = unitToByte(p[0:4])
				img.Pix[o+1] = unitToByte(p[4:8])
				img.Pix[o+2] = unitToByte(p[8:12])
				img.Pix[o+3] = unitToByte(p[12:16])
			case InputR32F:
				img.Pix[o+0] = unitToByte(p)
				img.Pix[o+3] = 0xFF
			}
		}
		s.Layers[l] = img
	}
	return s, nil
}

func unitToByte(b []byte) uint8 {
	v := math.Float32frombits(binary.LittleEndian.Uint32(b))
	switch {
	case math.IsNaN(float64(v)) || v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// encodeOptions holds encoder settings.
type encodeOptions struct {
	mipmaps bool
	legacy  bool
}

// Option configures Encode.
type Option func(*encodeOptions)

// WithMipmaps requests a full mip chain down to 1x1.
func WithMipmaps(enabled bool) Option {
	return func(o *encodeOptions) {
		o.mipmaps = enabled
	}
}

// WithLegacyHeader writes a pre-DX10 header (DXT1/DXT3/DXT5 FourCC or
// 32-bit RGBA masks) for readers that do not understand the DX10 extension.
func WithLegacyHeader(enabled bool) Option {
	return func(o *encodeOptions) {
		o.legacy = enabled
	}
}

// Encode writes s as a DDS file in the given format.
func Encode(w io.Writer, s *Surface, format Format, opts ...Option) error {
	o := &encodeOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if s == nil || s.Depth() == 0 {
		return fmt.Errorf("encode: empty surface")
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("encode: invalid dimensions %dx%d", s.Width, s.Height)
	}
	if format.BlockSize() == 0 && format.BytesPerPixel() == 0 {
		return fmt.Errorf("encode: unsupported format %s", format)
	}
	if s.Depth() > 1 && o.mipmaps {
		return fmt.Errorf("encode: mipmaps are not supported for volume textures")
	}
	for i, layer := range s.Layers {
		if b := layer.Bounds(); b.Dx() != s.Width || b.Dy() != s.Height {
			return fmt.Errorf("encode: layer %d is %dx%d, want %dx%d", i, b.Dx(), b.Dy(), s.Width, s.Height)
		}
	}

	levels := [][]*image.NRGBA{s.Layers}
	if o.mipmaps {
		levels = levels[:0]
		for _, mip := range GenerateMipmaps(s.Layers[0]) {
			levels = append(levels, []*image.NRGBA{mip})
		}
	}

	if err := writeDDSHeader(w, s.Width, s.Height, s.Depth(), len(levels), format, o.legacy); err != nil {
		return err
	}

	for i, level := range levels {
		for _, img := range level {
			data, err := encodeImage(img, format)
			if err != nil {
				return fmt.Errorf("encode mip %d: %w", i, err)
			}
			if _, err := w.Write(data); err != nil {
				return fmt.Errorf("write mip %d: %w", i, err)
			}
		}
	}
	return nil
}

// encodeImage converts one 2D image to its on-disk representation.
func encodeImage(img *image.NRGBA, format Format) ([]byte, error) {
	if format.IsCompressed() {
		return compressImage(img, format)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	bpp := format.BytesPerPixel()
	out := make([]byte, 0, width*height*bpp)

	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width; x++ {
			p := row[x*4 : x*4+4]
			if format == FormatRGB {
				out = append(out, p[2], p[1], p[0])
			} else {
				out = append(out, p[0], p[1], p[2], p[3])
			}
		}
	}
	return out, nil
}

// createFile opens the output of WriteFile.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// WriteFile encodes s into a new file at path. A partially written file is removed.
func WriteFile(path string, s *Surface, format Format, opts ...Option) error {
	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}

	bw := bufio.NewWriter(f)
	if err := Encode(bw, s, format, opts...); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("flush output file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close output file: %w", err)
	}
	return nil
}

// DetectFormat picks a block format from the alpha usage of img: BC3 for
// partial alpha, BC1A for cut-out alpha, BC1 when fully opaque.
func DetectFormat(img *image.NRGBA) Format {
	cutout := false
	for i := 3; i < len(img.Pix); i += 4 {
		switch a := img.Pix[i]; {
		case a > 0 && a < 255:
			return FormatBC3
		case a == 0:
			cutout = true
		}
	}
	if cutout {
		return FormatBC1A
	}
	return FormatBC1
}
