package utils

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrUnsupportedType = errors.New("unsupported decoding type")

// ShortReadError is returned when a read needs more bytes than the cursor holds.
type ShortReadError struct {
	Offset    int
	Available int
	Expected  int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read at offset %d: need %d bytes, %d available", e.Offset, e.Expected, e.Available)
}

// Cursor is a read position inside an immutable byte slice.
// Reads never modify the cursor they are called on: they return the
// decoded value along with a new cursor placed after it.
type Cursor struct {
	buf  []byte
	base int
}

func NewCursor(buf []byte) Cursor {
	return Cursor{buf: buf}
}

// Len returns the number of unread bytes.
func (c Cursor) Len() int {
	return len(c.buf)
}

// Offset returns the absolute position of the cursor in the buffer it was created from.
func (c Cursor) Offset() int {
	return c.base
}

func (c Cursor) Empty() bool {
	return len(c.buf) == 0
}

// Remaining returns the unread bytes without copying them.
func (c Cursor) Remaining() []byte {
	return c.buf
}

func (c Cursor) short(n int) error {
	return &ShortReadError{
		Offset:    c.base,
		Available: len(c.buf),
		Expected:  n,
	}
}

func (c Cursor) advance(n int) Cursor {
	return Cursor{buf: c.buf[n:], base: c.base + n}
}

// Skip moves the cursor n bytes forward.
func (c Cursor) Skip(n int) (Cursor, error) {
	if n < 0 || n > len(c.buf) {
		return c, c.short(n)
	}
	return c.advance(n), nil
}

// Split returns a cursor over the next n bytes and a cursor after them.
// The head keeps its absolute offset.
func (c Cursor) Split(n int) (Cursor, Cursor, error) {
	if n < 0 || n > len(c.buf) {
		return Cursor{}, c, c.short(n)
	}
	head := Cursor{buf: c.buf[:n:n], base: c.base}
	return head, c.advance(n), nil
}

// Bytes returns a copy of the next n bytes.
func (c Cursor) Bytes(n int) ([]byte, Cursor, error) {
	if n < 0 || n > len(c.buf) {
		return nil, c, c.short(n)
	}
	out := make([]byte, n)
	copy(out, c.buf[:n])
	return out, c.advance(n), nil
}

func (c Cursor) Uint8() (uint8, Cursor, error) {
	if len(c.buf) < 1 {
		return 0, c, c.short(1)
	}
	return c.buf[0], c.advance(1), nil
}

func (c Cursor) Uint16() (uint16, Cursor, error) {
	if len(c.buf) < 2 {
		return 0, c, c.short(2)
	}
	return binary.BigEndian.Uint16(c.buf), c.advance(2), nil
}

func (c Cursor) Uint32() (uint32, Cursor, error) {
	if len(c.buf) < 4 {
		return 0, c, c.short(4)
	}
	return binary.BigEndian.Uint32(c.buf), c.advance(4), nil
}

func (c Cursor) Uint64() (uint64, Cursor, error) {
	if len(c.buf) < 8 {
		return 0, c, c.short(8)
	}
	return binary.BigEndian.Uint64(c.buf), c.advance(8), nil
}

func (c Cursor) Int32() (int32, Cursor, error) {
	v, next, err := c.Uint32()
	return int32(v), next, err
}

// Decode reads big-endian values into each destination in order.
// Destinations must be pointers to fixed-size values (integers, arrays
// or structs made of them); blank struct fields are skipped over.
// Nothing is written to any destination unless all of them fit.
func (c Cursor) Decode(dst ...interface{}) (Cursor, error) {
	total := 0
	for _, d := range dst {
		size := binary.Size(d)
		if size < 0 {
			return c, fmt.Errorf("%w: %T", ErrUnsupportedType, d)
		}
		total += size
	}
	if total > len(c.buf) {
		return c, c.short(total)
	}
	r := bytes.NewReader(c.buf[:total])
	for _, d := range dst {
		if err := binary.Read(r, binary.BigEndian, d); err != nil {
			return c, err
		}
	}
	return c.advance(total), nil
}
