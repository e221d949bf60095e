package sflow

import (
	"bytes"
	"fmt"
	"net/netip"

	"github.com/netsampler/sflowparser/decoders/utils"
)

// fieldReader reads consecutive record fields from a cursor. The first
// failure sticks: later reads are no-ops and return zero values.
type fieldReader struct {
	c   utils.Cursor
	err error
}

func newFieldReader(c utils.Cursor) *fieldReader {
	return &fieldReader{c: c}
}

func (r *fieldReader) fixed(dst ...interface{}) {
	if r.err != nil {
		return
	}
	r.c, r.err = r.c.Decode(dst...)
}

func (r *fieldReader) str() string {
	if r.err != nil {
		return ""
	}
	var s string
	s, r.c, r.err = readXDRString(r.c)
	return s
}

func (r *fieldReader) opaque() []byte {
	if r.err != nil {
		return nil
	}
	var data []byte
	data, r.c, r.err = readXDROpaque(r.c)
	return data
}

func (r *fieldReader) addr() netip.Addr {
	if r.err != nil {
		return netip.Addr{}
	}
	var a netip.Addr
	a, r.c, r.err = readAddress(r.c)
	return a
}

func (r *fieldReader) ipv4() netip.Addr {
	if r.err != nil {
		return netip.Addr{}
	}
	var a netip.Addr
	a, r.c, r.err = readIPv4(r.c)
	return a
}

func (r *fieldReader) ipv6() netip.Addr {
	if r.err != nil {
		return netip.Addr{}
	}
	var a netip.Addr
	a, r.c, r.err = readIPv6(r.c)
	return a
}

func (r *fieldReader) uint32s() []uint32 {
	if r.err != nil {
		return nil
	}
	var v []uint32
	v, r.c, r.err = readUint32List(r.c)
	return v
}

func (r *fieldReader) paddedMac() utils.MacAddress {
	if r.err != nil {
		return utils.MacAddress{}
	}
	var mac utils.MacAddress
	mac, r.c, r.err = readPaddedMac(r.c)
	return mac
}

// count reads a list length and returns how many entries of minSize bytes
// may be preallocated for it.
func (r *fieldReader) count(minSize int) (uint32, int) {
	var n uint32
	r.fixed(&n)
	if r.err != nil {
		return 0, 0
	}
	return n, capacity(n, r.c.Len(), minSize)
}

// fieldWriter is the encoding counterpart of fieldReader.
type fieldWriter struct {
	buf *bytes.Buffer
	err error
}

func newFieldWriter(buf *bytes.Buffer) *fieldWriter {
	return &fieldWriter{buf: buf}
}

func (w *fieldWriter) fixed(values ...interface{}) {
	if w.err != nil {
		return
	}
	w.err = utils.WriteFixed(w.buf, values...)
}

func (w *fieldWriter) str(s string) {
	if w.err != nil {
		return
	}
	w.err = utils.WriteString(w.buf, s)
}

func (w *fieldWriter) opaque(data []byte) {
	if w.err != nil {
		return
	}
	w.err = utils.WriteOpaque(w.buf, data)
}

func (w *fieldWriter) addr(a netip.Addr) {
	if w.err != nil {
		return
	}
	if !a.IsValid() {
		w.err = fmt.Errorf("sflow: invalid address")
		return
	}
	if w.err = utils.WriteU32(w.buf, addressType(a)); w.err != nil {
		return
	}
	_, w.err = w.buf.Write(a.AsSlice())
}

func (w *fieldWriter) ipv4(a netip.Addr) {
	if w.err != nil {
		return
	}
	if !a.Is4() {
		w.err = fmt.Errorf("sflow: %s is not an IPv4 address", a)
		return
	}
	w.fixed(a.As4())
}

func (w *fieldWriter) ipv6(a netip.Addr) {
	if w.err != nil {
		return
	}
	if !a.IsValid() {
		w.err = fmt.Errorf("sflow: invalid address")
		return
	}
	w.fixed(a.As16())
}

func (w *fieldWriter) uint32s(values []uint32) {
	w.fixed(uint32(len(values)))
	if len(values) > 0 {
		w.fixed(values)
	}
}

func (w *fieldWriter) paddedMac(mac utils.MacAddress) {
	w.fixed(mac, [2]byte{})
}
