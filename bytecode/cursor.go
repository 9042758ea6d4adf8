package bytecode

import (
	"encoding/binary"

	"github.com/angi-lang/angi/errz"
)

// cursor reads big-endian values from a buffer. The first out-of-bounds read
// records an error and every later read returns zero.
type cursor struct {
	data []byte
	pos  int
	err  error
}

func newCursor(data []byte, pos int) *cursor {
	return &cursor{data: data, pos: pos}
}

func (c *cursor) take(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.pos < 0 || c.pos+n > len(c.data) {
		c.err = errz.New(errz.DecodeError, "unexpected end of data reading %d bytes at offset %d", n, c.pos)
		return nil
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n
	return b
}

func (c *cursor) u8() uint8 {
	b := c.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (c *cursor) u32() uint32 {
	b := c.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

func (c *cursor) u64() uint64 {
	b := c.take(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

func (c *cursor) bytes(n int) []byte {
	return c.take(n)
}
