package blp

import (
	"image"
	"image/color"
)

// SwapRB exchanges byte 0 and byte 2 of a packed pixel, leaving bytes 1 and 3.
// Applying it twice returns the original value.
func SwapRB(p uint32) uint32 {
	return p&0xFF00FF00 | (p&0x000000FF)<<16 | (p>>16)&0x000000FF
}

// normalize converts a plane from stored channel order to BGRA in place.
func normalize(pix []uint32) {
	for i := range pix {
		pix[i] = SwapRB(pix[i])
	}
}

// Image is a decoded mip level 0.
//
// Pix holds Width*Height packed pixels in BGRA order: blue in bits 0-7,
// green in 8-15, red in 16-23 and straight (non-premultiplied) alpha in 24-31.
type Image struct {
	Width  int
	Height int
	Pix    []uint32
	Format Format
}

// ColorModel implements image.Image.
func (m *Image) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements image.Image.
func (m *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.Width, m.Height)
}

// At implements image.Image.
func (m *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return color.NRGBA{}
	}
	return toNRGBA(m.Pix[y*m.Width+x])
}

// BGRA returns the plane as four bytes per pixel in B, G, R, A order.
func (m *Image) BGRA() []byte {
	out := make([]byte, len(m.Pix)*4)
	for i, p := range m.Pix {
		out[i*4+0] = uint8(p)
		out[i*4+1] = uint8(p >> 8)
		out[i*4+2] = uint8(p >> 16)
		out[i*4+3] = uint8(p >> 24)
	}
	return out
}

// NRGBA copies the plane into a standard library image.
func (m *Image) NRGBA() *image.NRGBA {
	img := image.NewNRGBA(m.Bounds())
	for i, p := range m.Pix {
		c := toNRGBA(p)
		o := i * 4
		img.Pix[o+0] = c.R
		img.Pix[o+1] = c.G
		img.Pix[o+2] = c.B
		img.Pix[o+3] = c.A
	}
	return img
}

func toNRGBA(p uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(p >> 16),
		G: uint8(p >> 8),
		B: uint8(p),
		A: uint8(p >> 24),
	}
}
