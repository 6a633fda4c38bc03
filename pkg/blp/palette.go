package blp

import (
	"encoding/binary"
	"fmt"
)

var (
	alphaLookup1 = [2]uint8{0x00, 0xFF}
	alphaLookup4 = [16]uint8{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
	}
)

// alphaPlaneSize returns the number of alpha bytes following an index plane of
// n entries for the given alpha depth.
func alphaPlaneSize(depth uint8, n int) (int, error) {
	switch depth {
	case 0:
		return 0, nil
	case 1:
		return (n + 7) / 8, nil
	case 4:
		return (n + 1) / 2, nil
	case 8:
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedAlphaDepth, depth)
	}
}

// readPalette reads the 256-entry palette that sits right after the header.
// The cursor position is restored afterwards.
func readPalette(c *cursor) ([256]uint32, error) {
	var palette [256]uint32

	pos := c.pos
	if err := c.seek(HeaderSize); err != nil {
		return palette, err
	}
	raw, err := c.read(PaletteSize)
	if err != nil {
		return palette, fmt.Errorf("read palette: %w", err)
	}
	for i := range palette {
		palette[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	c.pos = pos

	return palette, nil
}

// decodePalette reconstructs pixels from the index plane and the alpha plane
// selected by the header's alpha depth. With alpha depth 0 every alpha byte
// stays 0.
func decodePalette(h *Header, c *cursor, pix []uint32) error {
	n := len(pix)

	alphaSize, err := alphaPlaneSize(h.AlphaDepth, n)
	if err != nil {
		return err
	}

	palette, err := readPalette(c)
	if err != nil {
		return err
	}

	indices, err := c.read(n)
	if err != nil {
		return fmt.Errorf("read index plane: %w", err)
	}
	for i, idx := range indices {
		pix[i] = palette[idx] & 0x00FFFFFF
	}

	alpha, err := c.read(alphaSize)
	if err != nil {
		return fmt.Errorf("read alpha plane: %w", err)
	}

	switch h.AlphaDepth {
	case 8:
		for i, a := range alpha {
			pix[i] |= uint32(a) << 24
		}
	case 1:
		for i := 0; i < n; i++ {
			bit := (alpha[i/8] >> (i % 8)) & 0x01
			pix[i] |= uint32(alphaLookup1[bit]) << 24
		}
	case 4:
		for i := 0; i < n; i++ {
			v := alpha[i/2]
			if i%2 == 1 {
				v >>= 4
			}
			pix[i] |= uint32(alphaLookup4[v&0x0F]) << 24
		}
	}

	return nil
}
