package blp

import (
	"encoding/binary"
	"fmt"
)

// Block pixels are produced in stored order (red in the low byte); the whole
// plane is normalized once all blocks are linearized.

const blockPixels = 16

// blockSize returns the number of compressed bytes per 4x4 block.
func blockSize(f Format) (int, error) {
	switch f {
	case FormatBC1:
		return 8, nil
	case FormatBC2, FormatBC3:
		return 16, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDxtVariant, f)
	}
}

// blockGrid returns the number of blocks across and down.
func blockGrid(width, height int) (int, int) {
	return (width + 3) / 4, (height + 3) / 4
}

// decodeBlocks decodes every block of mip level 0 and linearizes the result
// into pix. Edge blocks are decoded in full; pixels outside the image are dropped.
func decodeBlocks(f Format, width, height int, c *cursor, pix []uint32, premultiplied bool) error {
	size, err := blockSize(f)
	if err != nil {
		return err
	}

	bw, bh := blockGrid(width, height)
	numBlocks := bw * bh

	src, err := c.read(numBlocks * size)
	if err != nil {
		return fmt.Errorf("read %s blocks: %w", f, err)
	}

	blocks := make([]uint32, numBlocks*blockPixels)
	for i := 0; i < numBlocks; i++ {
		b := src[i*size : (i+1)*size]
		dst := blocks[i*blockPixels : (i+1)*blockPixels]

		switch f {
		case FormatBC1:
			decodeBC1Block(b, dst, premultiplied)
		case FormatBC2:
			decodeBC2Block(b, dst)
		case FormatBC3:
			decodeBC3Block(b, dst)
		}
	}

	i := 0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			block := (y/4)*bw + x/4
			inner := (y%4)*4 + x%4
			pix[i] = blocks[block*blockPixels+inner]
			i++
		}
	}

	return nil
}

// expand565 converts an RGB565 value to a packed pixel with red in the low
// byte and full alpha.
func expand565(c uint16) uint32 {
	r := uint32(c>>11) & 0x1F
	g := uint32(c>>5) & 0x3F
	b := uint32(c) & 0x1F

	r = (r << 3) | (r >> 2)
	g = (g << 2) | (g >> 4)
	b = (b << 3) | (b >> 2)

	return r | g<<8 | b<<16 | 0xFF<<24
}

func channel(p uint32, i int) uint32 {
	return (p >> (8 * i)) & 0xFF
}

// blockColors builds the 4-entry color table of a block.
// Four-color mode is used when fourColor is set or c0 > c1; otherwise entry 2
// is the midpoint and entry 3 is black, transparent when premultiplied.
func blockColors(c0, c1 uint16, fourColor, premultiplied bool) [4]uint32 {
	var colors [4]uint32
	colors[0] = expand565(c0)
	colors[1] = expand565(c1)

	if fourColor || c0 > c1 {
		colors[2] = 0xFF << 24
		colors[3] = 0xFF << 24
		for i := 0; i < 3; i++ {
			a, b := channel(colors[0], i), channel(colors[1], i)
			colors[2] |= ((2*a + b) / 3) << (8 * i)
			colors[3] |= ((a + 2*b) / 3) << (8 * i)
		}
		return colors
	}

	colors[2] = 0xFF << 24
	for i := 0; i < 3; i++ {
		a, b := channel(colors[0], i), channel(colors[1], i)
		colors[2] |= ((a + b) / 2) << (8 * i)
	}
	colors[3] = 0xFF << 24
	if premultiplied {
		colors[3] = 0
	}
	return colors
}

// colorIndices resolves the 2-bit selectors of a block, LSB first.
func colorIndices(colors [4]uint32, indices uint32, dst []uint32) {
	for i := 0; i < blockPixels; i++ {
		dst[i] = colors[(indices>>(2*i))&0x03]
	}
}

// decodeBC1Block decodes an 8-byte BC1 (DXT1) block.
func decodeBC1Block(b []byte, dst []uint32, premultiplied bool) {
	c0 := binary.LittleEndian.Uint16(b[0:2])
	c1 := binary.LittleEndian.Uint16(b[2:4])
	indices := binary.LittleEndian.Uint32(b[4:8])

	colorIndices(blockColors(c0, c1, false, premultiplied), indices, dst)
}

// decodeBC2Block decodes a 16-byte BC2 (DXT3) block: 64 bits of explicit
// 4-bit alpha followed by a four-color block.
func decodeBC2Block(b []byte, dst []uint32) {
	alpha := binary.LittleEndian.Uint64(b[0:8])
	c0 := binary.LittleEndian.Uint16(b[8:10])
	c1 := binary.LittleEndian.Uint16(b[10:12])
	indices := binary.LittleEndian.Uint32(b[12:16])

	colorIndices(blockColors(c0, c1, true, false), indices, dst)
	for i := 0; i < blockPixels; i++ {
		a := uint32((alpha>>(4*i))&0x0F) * 17
		dst[i] = dst[i]&0x00FFFFFF | a<<24
	}
}

// bc3Alphas builds the 8-entry alpha table of a BC3 block.
// Interpolated entries are rounded to nearest.
func bc3Alphas(a0, a1 uint8) [8]uint8 {
	var alphas [8]uint8
	alphas[0], alphas[1] = a0, a1

	x, y := uint32(a0), uint32(a1)
	if a0 > a1 {
		for i := uint32(0); i < 6; i++ {
			alphas[i+2] = uint8(((6-i)*x + (1+i)*y + 3) / 7)
		}
		return alphas
	}

	for i := uint32(0); i < 4; i++ {
		alphas[i+2] = uint8(((4-i)*x + (1+i)*y + 2) / 5)
	}
	alphas[6] = 0
	alphas[7] = 255
	return alphas
}

// decodeBC3Block decodes a 16-byte BC3 (DXT5) block: two alpha endpoints,
// 48 bits of 3-bit alpha selectors, then a four-color block.
func decodeBC3Block(b []byte, dst []uint32) {
	alphas := bc3Alphas(b[0], b[1])

	var selectors uint64
	for i := 0; i < 6; i++ {
		selectors |= uint64(b[2+i]) << (8 * i)
	}

	c0 := binary.LittleEndian.Uint16(b[8:10])
	c1 := binary.LittleEndian.Uint16(b[10:12])
	indices := binary.LittleEndian.Uint32(b[12:16])

	colorIndices(blockColors(c0, c1, true, false), indices, dst)
	for i := 0; i < blockPixels; i++ {
		a := uint32(alphas[(selectors>>(3*i))&0x07])
		dst[i] = dst[i]&0x00FFFFFF | a<<24
	}
}
