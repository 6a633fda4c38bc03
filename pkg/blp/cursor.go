package blp

import "fmt"

// cursor is a forward reader over an in-memory buffer.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) remaining() int {
	return len(c.data) - c.pos
}

// read returns the next n bytes and advances past them.
func (c *cursor) read(n int) ([]byte, error) {
	if n < 0 || n > c.remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncatedInput, n, c.pos, c.remaining())
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// seek moves the cursor to an absolute offset.
func (c *cursor) seek(pos int64) error {
	if pos < 0 || pos > int64(len(c.data)) {
		return fmt.Errorf("%w: offset %d beyond %d bytes", ErrTruncatedInput, pos, len(c.data))
	}
	c.pos = int(pos)
	return nil
}
