package sflow

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/netsampler/sflowparser/decoders/utils"
)

// RecordKey identifies a record layout.
type RecordKey struct {
	Enterprise uint32
	Format     uint32
}

func (k RecordKey) DataFormat() uint32 {
	return DataFormat(k.Enterprise, k.Format)
}

func (k RecordKey) String() string {
	return fmt.Sprintf("%d:%d", k.Enterprise, k.Format)
}

type recordDecoder func(c utils.Cursor) (interface{}, error)

type recordFormat struct {
	name   string
	typ    reflect.Type
	decode recordDecoder
}

// recordTable maps record keys to decoders, and record types back to keys.
// Tables are filled at package initialization and only read afterwards.
type recordTable struct {
	formats map[RecordKey]recordFormat
	types   map[reflect.Type]RecordKey
}

func newRecordTable(formats map[RecordKey]recordFormat) *recordTable {
	t := &recordTable{
		formats: formats,
		types:   make(map[reflect.Type]RecordKey, len(formats)),
	}
	for key, f := range formats {
		if _, ok := t.types[f.typ]; ok {
			panic(fmt.Sprintf("sflow: record type %s registered twice", f.typ))
		}
		t.types[f.typ] = key
	}
	return t
}

func (t *recordTable) lookup(key RecordKey) (recordFormat, bool) {
	f, ok := t.formats[key]
	return f, ok
}

func (t *recordTable) keyOf(data interface{}) (RecordKey, bool) {
	key, ok := t.types[reflect.TypeOf(data)]
	return key, ok
}

// name returns the registered name of a record, or "unknown".
func (t *recordTable) name(key RecordKey) string {
	if f, ok := t.formats[key]; ok {
		return f.name
	}
	return "unknown"
}

// fixedRecord registers a record made only of fixed-size fields.
func fixedRecord[T any](name string) recordFormat {
	var zero T
	return recordFormat{
		name: name,
		typ:  reflect.TypeOf(zero),
		decode: func(c utils.Cursor) (interface{}, error) {
			var v T
			if _, err := c.Decode(&v); err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

// customRecord registers a record decoded by a dedicated function.
func customRecord[T any](name string, fn func(c utils.Cursor) (T, error)) recordFormat {
	var zero T
	return recordFormat{
		name: name,
		typ:  reflect.TypeOf(zero),
		decode: func(c utils.Cursor) (interface{}, error) {
			v, err := fn(c)
			if err != nil {
				return nil, err
			}
			return v, nil
		},
	}
}

type rawEnvelope struct {
	header RecordHeader
	data   interface{}
}

// decodeRecords reads count record envelopes and dispatches each payload to
// the decoder registered for its key. Unknown keys produce a RawRecord.
// Bytes a decoder leaves unread inside a record are ignored.
func decodeRecords(c utils.Cursor, count uint32, table *recordTable) ([]rawEnvelope, utils.Cursor, error) {
	records := make([]rawEnvelope, 0, capacity(count, c.Len(), 8))
	for i := uint32(0); i < count; i++ {
		dataFormat, next, err := c.Uint32()
		if err != nil {
			return nil, c, incomplete(err, c, RecordDataFormat)
		}
		length, next, err := next.Uint32()
		if err != nil {
			return nil, c, incomplete(err, next, RecordLength)
		}
		if uint64(length) > uint64(next.Len()) {
			return nil, c, &IncompleteError{
				Available: next.Len(),
				Expected:  int(length),
				Context:   RecordData,
			}
		}
		payload, next, err := next.Split(int(length))
		if err != nil {
			return nil, c, incomplete(err, next, RecordData)
		}

		header := newRecordHeader(dataFormat, length)
		var data interface{}
		if f, ok := table.lookup(RecordKey{header.Enterprise, header.Format}); ok {
			if data, err = f.decode(payload); err != nil {
				return nil, c, &RecordError{DataFormat: dataFormat, Offset: payload.Offset(), Err: err}
			}
		} else {
			raw, _, _ := payload.Bytes(payload.Len())
			data = RawRecord{Data: raw}
		}
		records = append(records, rawEnvelope{header: header, data: data})
		c = next
	}
	return records, c, nil
}

func decodeFlowRecords(c utils.Cursor, count uint32) ([]FlowRecord, utils.Cursor, error) {
	envelopes, c, err := decodeRecords(c, count, flowRecords)
	if err != nil {
		return nil, c, err
	}
	records := make([]FlowRecord, len(envelopes))
	for i, e := range envelopes {
		records[i] = FlowRecord{Header: e.header, Data: e.data}
	}
	return records, c, nil
}

func decodeCounterRecords(c utils.Cursor, count uint32) ([]CounterRecord, utils.Cursor, error) {
	envelopes, c, err := decodeRecords(c, count, counterRecords)
	if err != nil {
		return nil, c, err
	}
	records := make([]CounterRecord, len(envelopes))
	for i, e := range envelopes {
		records[i] = CounterRecord{Header: e.header, Data: e.data}
	}
	return records, c, nil
}

// RecordError reports a failure inside a record payload.
type RecordError struct {
	DataFormat uint32
	Offset     int
	Err        error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("[data-format:%d] %s", e.DataFormat, e.Err.Error())
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// recordEncoder is implemented by records whose layout is not a plain
// sequence of fixed-size fields.
type recordEncoder interface {
	encodeRecord(buf *bytes.Buffer) error
}

func encodeRecordData(buf *bytes.Buffer, data interface{}) error {
	switch d := data.(type) {
	case RawRecord:
		_, err := buf.Write(d.Data)
		return err
	case recordEncoder:
		return d.encodeRecord(buf)
	default:
		return utils.WriteFixed(buf, d)
	}
}

// encodeRecord writes a record envelope. A zero DataFormat in the header is
// resolved from the type of the record data.
func encodeRecord(buf *bytes.Buffer, table *recordTable, header RecordHeader, data interface{}) error {
	dataFormat := header.DataFormat
	if dataFormat == 0 {
		if header.Enterprise != 0 || header.Format != 0 {
			dataFormat = DataFormat(header.Enterprise, header.Format)
		} else if key, ok := table.keyOf(data); ok {
			dataFormat = key.DataFormat()
		} else {
			return fmt.Errorf("sflow: unsupported record type %T", data)
		}
	}
	payload := bytes.NewBuffer(nil)
	if err := encodeRecordData(payload, data); err != nil {
		return &RecordError{DataFormat: dataFormat, Err: err}
	}
	if err := utils.WriteU32(buf, dataFormat); err != nil {
		return err
	}
	if err := utils.WriteU32(buf, uint32(payload.Len())); err != nil {
		return err
	}
	_, err := buf.Write(payload.Bytes())
	return err
}

// FlowRecordName returns the short name of a flow record format.
func FlowRecordName(enterprise, format uint32) string {
	return flowRecords.name(RecordKey{enterprise, format})
}

// CounterRecordName returns the short name of a counter record format.
func CounterRecordName(enterprise, format uint32) string {
	return counterRecords.name(RecordKey{enterprise, format})
}
