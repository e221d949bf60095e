package sflow

import (
	"unicode/utf8"

	"github.com/netsampler/sflowparser/decoders/utils"

	"golang.org/x/text/encoding/unicode"
)

func readXDROpaque(c utils.Cursor) ([]byte, utils.Cursor, error) {
	length, c, err := c.Uint32()
	if err != nil {
		return nil, c, err
	}
	return readXDROpaqueWithLength(c, length)
}

func readXDROpaqueWithLength(c utils.Cursor, length uint32) ([]byte, utils.Cursor, error) {
	if uint64(length) > uint64(c.Len()) {
		return nil, c, &utils.ShortReadError{Offset: c.Offset(), Available: c.Len(), Expected: int(length)}
	}
	data, next, err := c.Bytes(int(length))
	if err != nil {
		return nil, c, err
	}
	padding := (4 - int(length%4)) % 4
	if next, err = next.Skip(padding); err != nil {
		return nil, c, err
	}
	return data, next, nil
}

// readXDRString reads an XDR string. Invalid UTF-8 sequences are replaced
// with U+FFFD instead of failing the record.
func readXDRString(c utils.Cursor) (string, utils.Cursor, error) {
	data, c, err := readXDROpaque(c)
	if err != nil {
		return "", c, err
	}
	return lossyString(data), c, nil
}

func lossyString(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	// the decoder replaces each maximal invalid subsequence with U+FFFD
	// and does not fail
	out, _ := unicode.UTF8.NewDecoder().Bytes(data)
	return string(out)
}

// readPaddedMac reads a MAC address followed by two bytes of padding.
func readPaddedMac(c utils.Cursor) (utils.MacAddress, utils.Cursor, error) {
	var mac utils.MacAddress
	var pad [2]byte
	c, err := c.Decode(&mac, &pad)
	return mac, c, err
}

// readUint32List reads a count followed by that many integers.
func readUint32List(c utils.Cursor) ([]uint32, utils.Cursor, error) {
	count, c, err := c.Uint32()
	if err != nil {
		return nil, c, err
	}
	values := make([]uint32, 0, capacity(count, c.Len(), 4))
	for i := uint32(0); i < count; i++ {
		var v uint32
		if v, c, err = c.Uint32(); err != nil {
			return nil, c, err
		}
		values = append(values, v)
	}
	return values, c, nil
}

// capacity bounds a declared count by what the remaining bytes could hold.
func capacity(count uint32, remaining, minSize int) int {
	limit := remaining / minSize
	if uint64(count) < uint64(limit) {
		return int(count)
	}
	return limit
}
