package sflow

import "net/netip"

// Datagram represents a decoded sFlow datagram.
type Datagram struct {
	Version        uint32        `json:"version"`
	IPVersion      uint32        `json:"ip-version"`
	AgentAddress   netip.Addr    `json:"agent-address"`
	SubAgentID     uint32        `json:"sub-agent-id"`
	SequenceNumber uint32        `json:"sequence-number"`
	Uptime         uint32        `json:"uptime"`
	SamplesCount   uint32        `json:"samples-count"`
	Samples        []interface{} `json:"samples"`
}

// SampleHeader contains the envelope and the fields common to all known samples.
// SourceID is only set for the compact formats, where the type and index
// are packed together on the wire.
type SampleHeader struct {
	DataFormat uint32 `json:"data-format"`
	Enterprise uint32 `json:"enterprise"`
	Format     uint32 `json:"format"`
	Length     uint32 `json:"length"`

	SampleSequenceNumber uint32 `json:"sample-sequence-number"`
	SourceID             uint32 `json:"source-id,omitempty"`
	SourceIDType         uint32 `json:"source-id-type"`
	SourceIDIndex        uint32 `json:"source-id-index"`
}

type FlowSample struct {
	Header SampleHeader `json:"header"`

	SamplingRate     uint32       `json:"sampling-rate"`
	SamplePool       uint32       `json:"sample-pool"`
	Drops            uint32       `json:"drops"`
	Input            uint32       `json:"input"`
	Output           uint32       `json:"output"`
	FlowRecordsCount uint32       `json:"flow-records-count"`
	Records          []FlowRecord `json:"records"`
}

type CounterSample struct {
	Header SampleHeader `json:"header"`

	CounterRecordsCount uint32          `json:"counter-records-count"`
	Records             []CounterRecord `json:"records"`
}

type ExpandedFlowSample struct {
	Header SampleHeader `json:"header"`

	SamplingRate     uint32       `json:"sampling-rate"`
	SamplePool       uint32       `json:"sample-pool"`
	Drops            uint32       `json:"drops"`
	InputIfFormat    uint32       `json:"input-if-format"`
	InputIfValue     uint32       `json:"input-if-value"`
	OutputIfFormat   uint32       `json:"output-if-format"`
	OutputIfValue    uint32       `json:"output-if-value"`
	FlowRecordsCount uint32       `json:"flow-records-count"`
	Records          []FlowRecord `json:"records"`
}

type ExpandedCounterSample struct {
	Header SampleHeader `json:"header"`

	CounterRecordsCount uint32          `json:"counter-records-count"`
	Records             []CounterRecord `json:"records"`
}

// UnknownSample keeps the payload of a sample whose format is not decoded.
type UnknownSample struct {
	Header SampleHeader `json:"header"`
	Data   []byte       `json:"data"`
}

// RecordHeader identifies the record format and length.
type RecordHeader struct {
	DataFormat uint32 `json:"data-format"`
	Enterprise uint32 `json:"enterprise"`
	Format     uint32 `json:"format"`
	Length     uint32 `json:"length"`
}

// FlowRecord wraps a flow record header and decoded data.
type FlowRecord struct {
	Header RecordHeader `json:"header"`
	Data   interface{}  `json:"data"`
}

// CounterRecord wraps a counter record header and decoded data.
type CounterRecord struct {
	Header RecordHeader `json:"header"`
	Data   interface{}  `json:"data"`
}

// RawRecord holds the exact payload of a record with an unknown format.
type RawRecord struct {
	Data []byte `json:"data"`
}

// DataFormat packs an enterprise and a format into the wire data_format field.
func DataFormat(enterprise, format uint32) uint32 {
	return enterprise<<12 | format&0xfff
}

// SplitDataFormat is the inverse of DataFormat.
func SplitDataFormat(dataFormat uint32) (enterprise, format uint32) {
	return dataFormat >> 12, dataFormat & 0xfff
}

func newRecordHeader(dataFormat, length uint32) RecordHeader {
	enterprise, format := SplitDataFormat(dataFormat)
	return RecordHeader{
		DataFormat: dataFormat,
		Enterprise: enterprise,
		Format:     format,
		Length:     length,
	}
}
