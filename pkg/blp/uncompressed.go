package blp

import (
	"encoding/binary"
	"fmt"
)

// decodeUncompressed reads width*height little-endian 32-bit pixels verbatim.
func decodeUncompressed(c *cursor, pix []uint32) error {
	raw, err := c.read(len(pix) * 4)
	if err != nil {
		return fmt.Errorf("read pixel plane: %w", err)
	}
	for i := range pix {
		pix[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	return nil
}
