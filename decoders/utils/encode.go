package utils

import (
	"bytes"
	"encoding/binary"
)

func WriteU8(buf *bytes.Buffer, v uint8) error {
	return buf.WriteByte(v)
}

func WriteU16(buf *bytes.Buffer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := buf.Write(b[:])
	return err
}

func WriteU32(buf *bytes.Buffer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := buf.Write(b[:])
	return err
}

func WriteU64(buf *bytes.Buffer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := buf.Write(b[:])
	return err
}

// WritePadding writes the zero bytes that align a run of n bytes on 4 bytes.
func WritePadding(buf *bytes.Buffer, n int) error {
	var pad [3]byte
	_, err := buf.Write(pad[:(4-n%4)%4])
	return err
}

// WriteOpaque writes a length-prefixed, padded byte run.
func WriteOpaque(buf *bytes.Buffer, data []byte) error {
	if err := WriteU32(buf, uint32(len(data))); err != nil {
		return err
	}
	if _, err := buf.Write(data); err != nil {
		return err
	}
	return WritePadding(buf, len(data))
}

func WriteString(buf *bytes.Buffer, s string) error {
	return WriteOpaque(buf, []byte(s))
}

// WriteFixed writes fixed-size values with the layout Cursor.Decode reads.
func WriteFixed(buf *bytes.Buffer, values ...interface{}) error {
	for _, v := range values {
		if err := binary.Write(buf, binary.BigEndian, v); err != nil {
			return err
		}
	}
	return nil
}
