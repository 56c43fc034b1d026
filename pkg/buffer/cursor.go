package buffer

import "math"

// Direction is the order a Cursor walks the content in.
type Direction int

// Directions
const (
	Forward Direction = iota
	Backward
)

// Cursor reads typed values out of a Buffer without modifying it.
// A read which would run past the content returns ok == false and leaves
// the position untouched.
type Cursor struct {
	buf   *Buffer
	order Endian
	dir   Direction
	pos   int
}

// NewCursor creates a forward Cursor over b.
func NewCursor(b *Buffer, order Endian) *Cursor {
	return &Cursor{buf: b, order: order}
}

// NewCursorFrom creates a Cursor over b walking in dir.
func NewCursorFrom(b *Buffer, order Endian, dir Direction) *Cursor {
	return &Cursor{buf: b, order: order, dir: dir}
}

// Position returns the number of bytes consumed.
func (c *Cursor) Position() int {
	return c.pos
}

// Remaining returns the number of bytes left to read.
func (c *Cursor) Remaining() int {
	if n := c.buf.Len() - c.pos; n > 0 {
		return n
	}
	return 0
}

// Reset rewinds to the start.
func (c *Cursor) Reset() {
	c.pos = 0
}

// Order returns the byte order used for multi-byte reads.
func (c *Cursor) Order() Endian {
	return c.order
}

// Next returns the next n bytes as a slice of the content.
// Backward cursors return the bytes in storage order.
func (c *Cursor) Next(n int) ([]byte, bool) {
	if n < 0 || n > c.Remaining() {
		return nil, false
	}
	content := c.buf.Bytes()
	var p []byte
	if c.dir == Backward {
		end := len(content) - c.pos
		p = content[end-n : end]
	} else {
		p = content[c.pos : c.pos+n]
	}
	c.pos += n
	return p, true
}

// Skip advances by n bytes.
func (c *Cursor) Skip(n int) bool {
	_, ok := c.Next(n)
	return ok
}

// Rest returns all remaining bytes.
func (c *Cursor) Rest() []byte {
	p, _ := c.Next(c.Remaining())
	return p
}

// Uint8 reads a byte.
func (c *Cursor) Uint8() (uint8, bool) {
	p, ok := c.Next(1)
	if !ok {
		return 0, false
	}
	return p[0], true
}

// Uint16 reads a 16-bit value.
func (c *Cursor) Uint16() (uint16, bool) {
	p, ok := c.Next(2)
	if !ok {
		return 0, false
	}
	return c.order.ByteOrder().Uint16(p), true
}

// Uint32 reads a 32-bit value.
func (c *Cursor) Uint32() (uint32, bool) {
	p, ok := c.Next(4)
	if !ok {
		return 0, false
	}
	return c.order.ByteOrder().Uint32(p), true
}

// Uint64 reads a 64-bit value.
func (c *Cursor) Uint64() (uint64, bool) {
	p, ok := c.Next(8)
	if !ok {
		return 0, false
	}
	return c.order.ByteOrder().Uint64(p), true
}

// Int8 reads a signed byte.
func (c *Cursor) Int8() (int8, bool) {
	v, ok := c.Uint8()
	return int8(v), ok
}

// Int16 reads a signed 16-bit value.
func (c *Cursor) Int16() (int16, bool) {
	v, ok := c.Uint16()
	return int16(v), ok
}

// Int32 reads a signed 32-bit value.
func (c *Cursor) Int32() (int32, bool) {
	v, ok := c.Uint32()
	return int32(v), ok
}

// Int64 reads a signed 64-bit value.
func (c *Cursor) Int64() (int64, bool) {
	v, ok := c.Uint64()
	return int64(v), ok
}

// Float32 reads an IEEE 754 single.
func (c *Cursor) Float32() (float32, bool) {
	v, ok := c.Uint32()
	return math.Float32frombits(v), ok
}

// Float64 reads an IEEE 754 double.
func (c *Cursor) Float64() (float64, bool) {
	v, ok := c.Uint64()
	return math.Float64frombits(v), ok
}

// Bool reads a byte, any non-zero value is true.
func (c *Cursor) Bool() (bool, bool) {
	v, ok := c.Uint8()
	return v != 0, ok
}
