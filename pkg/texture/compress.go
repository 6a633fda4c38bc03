package texture

import (
	"encoding/binary"
	"fmt"
	"image"
)

// Block compression uses a bounding-box range fit: the block's per-channel
// minimum and maximum become the endpoints and every pixel takes the nearest
// palette entry. Palettes are derived exactly the way DXT decoders expand them.

// rgba8 is one straight-alpha pixel.
type rgba8 struct {
	r, g, b, a uint8
}

// compressImage block-compresses one 2D image.
func compressImage(img *image.NRGBA, format Format) ([]byte, error) {
	bs := format.BlockSize()
	if bs == 0 {
		return nil, fmt.Errorf("compress: %s is not a block format", format)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	bw, bh := (width+3)/4, (height+3)/4

	out := make([]byte, bw*bh*bs)
	var block [16]rgba8

	offset := 0
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			fetchBlock(img, bx*4, by*4, &block)
			dst := out[offset : offset+bs]

			switch format {
			case FormatBC1:
				encodeColorBlock(&block, dst, false)
			case FormatBC1A:
				encodeColorBlock(&block, dst, true)
			case FormatBC2:
				encodeExplicitAlpha(&block, dst[0:8])
				encodeColorBlock(&block, dst[8:16], false)
			case FormatBC3:
				encodeInterpolatedAlpha(&block, dst[0:8])
				encodeColorBlock(&block, dst[8:16], false)
			}
			offset += bs
		}
	}

	return out, nil
}

// fetchBlock copies a 4x4 block, clamping reads at the right and bottom edges.
func fetchBlock(img *image.NRGBA, x0, y0 int, block *[16]rgba8) {
	bounds := img.Bounds()
	maxX, maxY := bounds.Dx()-1, bounds.Dy()-1

	for y := 0; y < 4; y++ {
		sy := min(y0+y, maxY)
		for x := 0; x < 4; x++ {
			sx := min(x0+x, maxX)
			o := img.PixOffset(bounds.Min.X+sx, bounds.Min.Y+sy)
			block[y*4+x] = rgba8{img.Pix[o], img.Pix[o+1], img.Pix[o+2], img.Pix[o+3]}
		}
	}
}

func pack565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func unpack565(c uint16) [3]int {
	r := int(c>>11) & 0x1F
	g := int(c>>5) & 0x3F
	b := int(c) & 0x1F
	return [3]int{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2}
}

func colorDistance(p rgba8, c [3]int) int {
	dr := int(p.r) - c[0]
	dg := int(p.g) - c[1]
	db := int(p.b) - c[2]
	return dr*dr + dg*dg + db*db
}

// encodeColorBlock writes an 8-byte color block. With punchThrough set,
// pixels with alpha below 128 use the transparent selector of three-color mode.
func encodeColorBlock(block *[16]rgba8, dst []byte, punchThrough bool) {
	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{0, 0, 0}
	transparent := false

	for _, p := range block {
		if punchThrough && p.a < 128 {
			transparent = true
			continue
		}
		lo[0], hi[0] = min(lo[0], p.r), max(hi[0], p.r)
		lo[1], hi[1] = min(lo[1], p.g), max(hi[1], p.g)
		lo[2], hi[2] = min(lo[2], p.b), max(hi[2], p.b)
	}
	if lo[0] > hi[0] {
		// Fully transparent block.
		lo, hi = [3]uint8{}, [3]uint8{}
	}

	c0 := pack565(hi[0], hi[1], hi[2])
	c1 := pack565(lo[0], lo[1], lo[2])

	var palette [4][3]int
	var entries int

	if transparent {
		// Three-color mode requires c0 <= c1.
		if c0 > c1 {
			c0, c1 = c1, c0
		}
		e0, e1 := unpack565(c0), unpack565(c1)
		palette[0], palette[1] = e0, e1
		for i := 0; i < 3; i++ {
			palette[2][i] = (e0[i] + e1[i]) / 2
		}
		entries = 3
	} else {
		if c0 < c1 {
			c0, c1 = c1, c0
		}
		e0, e1 := unpack565(c0), unpack565(c1)
		palette[0], palette[1] = e0, e1
		for i := 0; i < 3; i++ {
			palette[2][i] = (2*e0[i] + e1[i]) / 3
			palette[3][i] = (e0[i] + 2*e1[i]) / 3
		}
		entries = 4
		if c0 == c1 {
			// Degenerate endpoints decode in three-color mode; entry 0 is exact.
			entries = 1
		}
	}

	var indices uint32
	for i, p := range block {
		var sel uint32
		if transparent && p.a < 128 {
			sel = 3
		} else {
			best := colorDistance(p, palette[0])
			for j := 1; j < entries; j++ {
				if d := colorDistance(p, palette[j]); d < best {
					best, sel = d, uint32(j)
				}
			}
		}
		indices |= sel << (2 * i)
	}

	binary.LittleEndian.PutUint16(dst[0:2], c0)
	binary.LittleEndian.PutUint16(dst[2:4], c1)
	binary.LittleEndian.PutUint32(dst[4:8], indices)
}

// encodeExplicitAlpha writes the 64-bit 4-bit-per-pixel alpha of a BC2 block.
func encodeExplicitAlpha(block *[16]rgba8, dst []byte) {
	var alpha uint64
	for i, p := range block {
		nibble := (uint64(p.a)*15 + 127) / 255
		alpha |= nibble << (4 * i)
	}
	binary.LittleEndian.PutUint64(dst, alpha)
}

// interpolatedAlphas builds the 8-entry alpha table for a0 > a1.
func interpolatedAlphas(a0, a1 uint8) [8]int {
	var alphas [8]int
	x, y := int(a0), int(a1)
	alphas[0], alphas[1] = x, y
	for i := 0; i < 6; i++ {
		alphas[i+2] = ((6-i)*x + (1+i)*y + 3) / 7
	}
	return alphas
}

// encodeInterpolatedAlpha writes the alpha half of a BC3 block.
func encodeInterpolatedAlpha(block *[16]rgba8, dst []byte) {
	a0, a1 := uint8(0), uint8(255)
	for _, p := range block {
		a0, a1 = max(a0, p.a), min(a1, p.a)
	}

	dst[0], dst[1] = a0, a1
	if a0 == a1 {
		clear(dst[2:8])
		return
	}

	alphas := interpolatedAlphas(a0, a1)
	var selectors uint64
	for i, p := range block {
		best, sel := 256, 0
		for j, a := range alphas {
			d := int(p.a) - a
			if d < 0 {
				d = -d
			}
			if d < best {
				best, sel = d, j
			}
		}
		selectors |= uint64(sel) << (3 * i)
	}
	for i := 0; i < 6; i++ {
		dst[2+i] = byte(selectors >> (8 * i))
	}
}
