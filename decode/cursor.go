package decode

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrShortRead is returned by a Cursor when fewer bytes remain than a
// read needs.
var ErrShortRead = errors.New("insufficient bytes remaining")

// ErrTruncated is returned by a Stream when the bytes left cannot hold
// the next instruction.
var ErrTruncated = errors.New("truncated instruction")

// Cursor reads 16- and 32-bit units from a caller-owned buffer while
// tracking the address of the current offset.
type Cursor struct {
	buf   []byte
	base  uint32
	off   int
	order binary.ByteOrder
}

// NewCursor returns a cursor over buf, whose first byte is at address
// base.
func NewCursor(buf []byte, base uint32, order binary.ByteOrder) *Cursor {
	return &Cursor{buf: buf, base: base, order: order}
}

// Addr returns the address of the current offset.
func (c *Cursor) Addr() uint32 {
	return c.base + uint32(c.off)
}

func (c *Cursor) Offset() int {
	return c.off
}

func (c *Cursor) Remaining() int {
	return len(c.buf) - c.off
}

// Seek moves to an absolute offset within the buffer.
func (c *Cursor) Seek(off int) error {
	if off < 0 || off > len(c.buf) {
		return io.ErrUnexpectedEOF
	}
	c.off = off
	return nil
}

// Skip advances by n bytes.
func (c *Cursor) Skip(n int) error {
	return c.Seek(c.off + n)
}

// PeekUint16 reads the 16-bit unit at rel bytes past the current offset
// without advancing.
func (c *Cursor) PeekUint16(rel int) (uint16, error) {
	at := c.off + rel
	if at < 0 || len(c.buf)-at < 2 {
		return 0, ErrShortRead
	}
	return c.order.Uint16(c.buf[at:]), nil
}

func (c *Cursor) PeekUint32(rel int) (uint32, error) {
	at := c.off + rel
	if at < 0 || len(c.buf)-at < 4 {
		return 0, ErrShortRead
	}
	return c.order.Uint32(c.buf[at:]), nil
}

func (c *Cursor) ReadUint16() (uint16, error) {
	v, err := c.PeekUint16(0)
	if err != nil {
		return 0, err
	}
	c.off += 2
	return v, nil
}

func (c *Cursor) ReadUint32() (uint32, error) {
	v, err := c.PeekUint32(0)
	if err != nil {
		return 0, err
	}
	c.off += 4
	return v, nil
}
