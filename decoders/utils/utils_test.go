package utils

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorInteger(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3, 4})
	v, next, err := c.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1020304), v)
	assert.Equal(t, 0, next.Len())
	assert.Equal(t, 4, next.Offset())

	// the original cursor is untouched
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 0, c.Offset())
}

func TestCursorWidths(t *testing.T) {
	c := NewCursor([]byte{0xff, 0x01, 0x02, 0xff, 0xff, 0xff, 0xfe, 0, 0, 0, 0, 0, 0, 0, 9})
	u8, c, err := c.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xff), u8)

	u16, c, err := c.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0102), u16)

	i32, c, err := c.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(-2), i32)

	u64, c, err := c.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(9), u64)
	assert.True(t, c.Empty())
}

func TestCursorShortRead(t *testing.T) {
	c := NewCursor([]byte{1, 2, 3})
	_, next, err := c.Uint32()
	require.Error(t, err)

	var short *ShortReadError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 3, short.Available)
	assert.Equal(t, 4, short.Expected)
	assert.Equal(t, c, next)

	_, _, err = c.Bytes(-1)
	assert.Error(t, err)
	_, err = c.Skip(4)
	assert.Error(t, err)
}

func TestCursorSplit(t *testing.T) {
	c, err := NewCursor([]byte{0, 0, 1, 2, 3, 4, 5}).Skip(2)
	require.NoError(t, err)

	head, rest, err := c.Split(3)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, head.Remaining())
	assert.Equal(t, 2, head.Offset())
	assert.Equal(t, []byte{4, 5}, rest.Remaining())
	assert.Equal(t, 5, rest.Offset())

	_, _, err = rest.Split(3)
	assert.Error(t, err)
}

func TestCursorBytesCopies(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	out, _, err := NewCursor(src).Bytes(2)
	require.NoError(t, err)
	src[0] = 9
	assert.Equal(t, []byte{1, 2}, out)
}

type testFixed struct {
	A   uint32
	Mac MacAddress
	_   [2]byte
	B   uint64
	C   int32
}

func TestCursorDecodeStruct(t *testing.T) {
	data := []byte{
		0, 0, 0, 1,
		0xa, 0xb, 0xc, 0xd, 0xe, 0xf, 0xff, 0xff,
		0, 0, 0, 0, 0, 0, 0, 2,
		0xff, 0xff, 0xff, 0xff,
		0x42,
	}
	var dst testFixed
	next, err := NewCursor(data).Decode(&dst)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), dst.A)
	assert.Equal(t, MacAddress{0xa, 0xb, 0xc, 0xd, 0xe, 0xf}, dst.Mac)
	assert.Equal(t, uint64(2), dst.B)
	assert.Equal(t, int32(-1), dst.C)
	assert.Equal(t, 1, next.Len())

	buf := bytes.NewBuffer(nil)
	require.NoError(t, WriteFixed(buf, &dst))
	expected := append([]byte{}, data[:24]...)
	expected[10], expected[11] = 0, 0
	assert.Equal(t, expected, buf.Bytes())
}

func TestCursorDecodeAllOrNothing(t *testing.T) {
	var a, b uint32
	a = 7
	_, err := NewCursor([]byte{0, 0, 0, 1, 0, 0}).Decode(&a, &b)
	require.Error(t, err)
	assert.Equal(t, uint32(7), a)

	_, err = NewCursor([]byte{0, 0, 0, 1}).Decode(&struct{ S string }{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestCursorDecodeUints(t *testing.T) {
	dest := make([]uint32, 4)
	_, err := NewCursor([]byte{1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4, 1, 2, 3, 4}).Decode(dest)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1020304), dest[3])
}

func TestWriteOpaquePadding(t *testing.T) {
	for _, tc := range []struct {
		data   []byte
		length int
	}{
		{nil, 4},
		{[]byte("a"), 8},
		{[]byte("abcd"), 8},
		{[]byte("abcde"), 12},
	} {
		buf := bytes.NewBuffer(nil)
		require.NoError(t, WriteOpaque(buf, tc.data))
		assert.Len(t, buf.Bytes(), tc.length)
	}
}

func TestMacAddressFormatting(t *testing.T) {
	mac := MacAddress{0, 0x11, 0x22, 0x33, 0x44, 0x55}
	out, err := json.Marshal(mac)
	require.NoError(t, err)
	assert.Equal(t, `"00:11:22:33:44:55"`, string(out))
	assert.Equal(t, uint64(0x001122334455), mac.Uint64())
	assert.Equal(t, "00:11:22:33:44:55", mac.String())
}

func benchDecode(b *testing.B, data []byte, dest interface{}, cmp bool) {
	for n := 0; n < b.N; n++ {
		if cmp {
			binary.Read(bytes.NewReader(data), binary.BigEndian, dest)
		} else {
			NewCursor(data).Decode(dest)
		}
	}
}

func BenchmarkDecodeIntegerBase(b *testing.B) {
	var dest uint32
	benchDecode(b, []byte{1, 2, 3, 4}, &dest, false)
}

func BenchmarkDecodeIntegerComparison(b *testing.B) {
	var dest uint32
	benchDecode(b, []byte{1, 2, 3, 4}, &dest, true)
}

func BenchmarkCursorUint32(b *testing.B) {
	c := NewCursor([]byte{1, 2, 3, 4})
	for n := 0; n < b.N; n++ {
		c.Uint32()
	}
}
