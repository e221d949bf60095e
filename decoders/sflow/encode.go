package sflow

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/netsampler/sflowparser/decoders/utils"
)

func (d *Datagram) MarshalBinary() ([]byte, error) {
	return EncodeMessage(d)
}

// EncodeMessage writes a datagram in its wire form. Counts and lengths are
// computed from the content; a zero version is written as 5.
func EncodeMessage(dg *Datagram) ([]byte, error) {
	if dg == nil {
		return nil, errors.New("sflow: nil datagram")
	}

	version := dg.Version
	if version == 0 {
		version = 5
	}
	if version != 5 {
		return nil, fmt.Errorf("sflow: unsupported version %d", version)
	}
	if !dg.AgentAddress.IsValid() {
		return nil, errors.New("sflow: missing agent address")
	}
	if dg.SamplesCount != 0 && int(dg.SamplesCount) != len(dg.Samples) {
		return nil, fmt.Errorf("sflow: samples-count mismatch header:%d samples:%d", dg.SamplesCount, len(dg.Samples))
	}

	buf := bytes.NewBuffer(nil)
	w := newFieldWriter(buf)
	w.fixed(version)
	w.addr(dg.AgentAddress)
	w.fixed(dg.SubAgentID, dg.SequenceNumber, dg.Uptime, uint32(len(dg.Samples)))
	if w.err != nil {
		return nil, w.err
	}

	for _, sample := range dg.Samples {
		if err := encodeSample(buf, sample); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodeSample(buf *bytes.Buffer, sample interface{}) error {
	var header SampleHeader
	var defaultFormat uint32
	payload := bytes.NewBuffer(nil)
	var err error

	switch s := sample.(type) {
	case FlowSample:
		header, defaultFormat = s.Header, SAMPLE_FORMAT_FLOW
		err = encodeFlowSample(payload, &s)
	case *FlowSample:
		header, defaultFormat = s.Header, SAMPLE_FORMAT_FLOW
		err = encodeFlowSample(payload, s)
	case CounterSample:
		header, defaultFormat = s.Header, SAMPLE_FORMAT_COUNTER
		err = encodeCounterSample(payload, &s)
	case *CounterSample:
		header, defaultFormat = s.Header, SAMPLE_FORMAT_COUNTER
		err = encodeCounterSample(payload, s)
	case ExpandedFlowSample:
		header, defaultFormat = s.Header, SAMPLE_FORMAT_EXPANDED_FLOW
		err = encodeExpandedFlowSample(payload, &s)
	case *ExpandedFlowSample:
		header, defaultFormat = s.Header, SAMPLE_FORMAT_EXPANDED_FLOW
		err = encodeExpandedFlowSample(payload, s)
	case ExpandedCounterSample:
		header, defaultFormat = s.Header, SAMPLE_FORMAT_EXPANDED_COUNTER
		err = encodeExpandedCounterSample(payload, &s)
	case *ExpandedCounterSample:
		header, defaultFormat = s.Header, SAMPLE_FORMAT_EXPANDED_COUNTER
		err = encodeExpandedCounterSample(payload, s)
	case UnknownSample:
		header = s.Header
		_, err = payload.Write(s.Data)
	case *UnknownSample:
		header = s.Header
		_, err = payload.Write(s.Data)
	default:
		return fmt.Errorf("sflow: unsupported sample type %T", sample)
	}
	if err != nil {
		return err
	}

	dataFormat := header.DataFormat
	if dataFormat == 0 {
		dataFormat = DataFormat(header.Enterprise, header.Format)
	}
	if dataFormat == 0 {
		dataFormat = defaultFormat
	}
	if defaultFormat != 0 && dataFormat != defaultFormat {
		return fmt.Errorf("sflow: sample data format %d does not match %T", dataFormat, sample)
	}

	if err := utils.WriteU32(buf, dataFormat); err != nil {
		return err
	}
	if err := utils.WriteU32(buf, uint32(payload.Len())); err != nil {
		return err
	}
	_, err = buf.Write(payload.Bytes())
	return err
}

// compactSourceID packs the source id of the compact sample formats.
func compactSourceID(header *SampleHeader) uint32 {
	if header.SourceIDType == 0 && header.SourceIDIndex == 0 {
		return header.SourceID
	}
	return header.SourceIDType<<24 | header.SourceIDIndex&0x00ffffff
}

func encodeFlowSample(buf *bytes.Buffer, s *FlowSample) error {
	if err := utils.WriteFixed(buf,
		s.Header.SampleSequenceNumber,
		compactSourceID(&s.Header),
		s.SamplingRate,
		s.SamplePool,
		s.Drops,
		s.Input,
		s.Output,
		uint32(len(s.Records))); err != nil {
		return err
	}
	return encodeFlowRecords(buf, s.Records)
}

func encodeExpandedFlowSample(buf *bytes.Buffer, s *ExpandedFlowSample) error {
	if err := utils.WriteFixed(buf,
		s.Header.SampleSequenceNumber,
		s.Header.SourceIDType,
		s.Header.SourceIDIndex,
		s.SamplingRate,
		s.SamplePool,
		s.Drops,
		s.InputIfFormat,
		s.InputIfValue,
		s.OutputIfFormat,
		s.OutputIfValue,
		uint32(len(s.Records))); err != nil {
		return err
	}
	return encodeFlowRecords(buf, s.Records)
}

func encodeCounterSample(buf *bytes.Buffer, s *CounterSample) error {
	if err := utils.WriteFixed(buf,
		s.Header.SampleSequenceNumber,
		compactSourceID(&s.Header),
		uint32(len(s.Records))); err != nil {
		return err
	}
	return encodeCounterRecords(buf, s.Records)
}

func encodeExpandedCounterSample(buf *bytes.Buffer, s *ExpandedCounterSample) error {
	if err := utils.WriteFixed(buf,
		s.Header.SampleSequenceNumber,
		s.Header.SourceIDType,
		s.Header.SourceIDIndex,
		uint32(len(s.Records))); err != nil {
		return err
	}
	return encodeCounterRecords(buf, s.Records)
}

func encodeFlowRecords(buf *bytes.Buffer, records []FlowRecord) error {
	for _, record := range records {
		if err := encodeRecord(buf, flowRecords, record.Header, record.Data); err != nil {
			return err
		}
	}
	return nil
}

func encodeCounterRecords(buf *bytes.Buffer, records []CounterRecord) error {
	for _, record := range records {
		if err := encodeRecord(buf, counterRecords, record.Header, record.Data); err != nil {
			return err
		}
	}
	return nil
}
