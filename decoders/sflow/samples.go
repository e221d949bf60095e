package sflow

import (
	"github.com/netsampler/sflowparser/decoders/utils"
)

const (
	SAMPLE_FORMAT_FLOW             = 1
	SAMPLE_FORMAT_COUNTER          = 2
	SAMPLE_FORMAT_EXPANDED_FLOW    = 3
	SAMPLE_FORMAT_EXPANDED_COUNTER = 4
)

type sampleDecoder func(header SampleHeader, c utils.Cursor) (interface{}, error)

type sampleFormat struct {
	context ParseContext
	decode  sampleDecoder
}

// Only enterprise 0 samples are decoded.
var sampleFormats = map[uint32]sampleFormat{
	SAMPLE_FORMAT_FLOW:             {FlowSampleContext, decodeFlowSample},
	SAMPLE_FORMAT_COUNTER:          {CounterSampleContext, decodeCounterSample},
	SAMPLE_FORMAT_EXPANDED_FLOW:    {ExpandedFlowSampleContext, decodeExpandedFlowSample},
	SAMPLE_FORMAT_EXPANDED_COUNTER: {ExpandedCounterSampleContext, decodeExpandedCounterSample},
}

// SplitSourceID separates a compact source id into its type (top byte)
// and index (lower 24 bits).
func SplitSourceID(sourceID uint32) (sourceType, index uint32) {
	return sourceID >> 24, sourceID & 0x00ffffff
}

// decodeSamples reads count sample envelopes. Samples of unknown formats
// are kept as UnknownSample with their payload copied.
func decodeSamples(c utils.Cursor, count uint32) ([]interface{}, utils.Cursor, error) {
	samples := make([]interface{}, 0, capacity(count, c.Len(), 8))
	for i := uint32(0); i < count; i++ {
		dataFormat, next, err := c.Uint32()
		if err != nil {
			return nil, c, incomplete(err, c, SampleDataFormat)
		}
		length, next, err := next.Uint32()
		if err != nil {
			return nil, c, incomplete(err, next, SampleLength)
		}
		if uint64(length) > uint64(next.Len()) {
			return nil, c, &IncompleteError{
				Available: next.Len(),
				Expected:  int(length),
				Context:   SampleData,
			}
		}
		payload, next, err := next.Split(int(length))
		if err != nil {
			return nil, c, incomplete(err, next, SampleData)
		}

		enterprise, format := SplitDataFormat(dataFormat)
		header := SampleHeader{
			DataFormat: dataFormat,
			Enterprise: enterprise,
			Format:     format,
			Length:     length,
		}

		var sample interface{}
		if f, ok := sampleFormats[format]; ok && enterprise == 0 {
			if sample, err = f.decode(header, payload); err != nil {
				return nil, c, &ParseError{
					Offset:  payload.Offset(),
					Context: f.context,
					Kind:    ParseFailure,
					Err:     err,
				}
			}
		} else {
			data, _, _ := payload.Bytes(payload.Len())
			sample = UnknownSample{Header: header, Data: data}
		}
		samples = append(samples, sample)
		c = next
	}
	return samples, c, nil
}

func decodeFlowSample(header SampleHeader, c utils.Cursor) (interface{}, error) {
	s := FlowSample{Header: header}
	c, err := c.Decode(
		&s.Header.SampleSequenceNumber,
		&s.Header.SourceID,
		&s.SamplingRate,
		&s.SamplePool,
		&s.Drops,
		&s.Input,
		&s.Output,
		&s.FlowRecordsCount)
	if err != nil {
		return nil, err
	}
	s.Header.SourceIDType, s.Header.SourceIDIndex = SplitSourceID(s.Header.SourceID)
	if s.Records, _, err = decodeFlowRecords(c, s.FlowRecordsCount); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeCounterSample(header SampleHeader, c utils.Cursor) (interface{}, error) {
	s := CounterSample{Header: header}
	c, err := c.Decode(&s.Header.SampleSequenceNumber, &s.Header.SourceID, &s.CounterRecordsCount)
	if err != nil {
		return nil, err
	}
	s.Header.SourceIDType, s.Header.SourceIDIndex = SplitSourceID(s.Header.SourceID)
	if s.Records, _, err = decodeCounterRecords(c, s.CounterRecordsCount); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeExpandedFlowSample(header SampleHeader, c utils.Cursor) (interface{}, error) {
	s := ExpandedFlowSample{Header: header}
	c, err := c.Decode(
		&s.Header.SampleSequenceNumber,
		&s.Header.SourceIDType,
		&s.Header.SourceIDIndex,
		&s.SamplingRate,
		&s.SamplePool,
		&s.Drops,
		&s.InputIfFormat,
		&s.InputIfValue,
		&s.OutputIfFormat,
		&s.OutputIfValue,
		&s.FlowRecordsCount)
	if err != nil {
		return nil, err
	}
	if s.Records, _, err = decodeFlowRecords(c, s.FlowRecordsCount); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeExpandedCounterSample(header SampleHeader, c utils.Cursor) (interface{}, error) {
	s := ExpandedCounterSample{Header: header}
	c, err := c.Decode(
		&s.Header.SampleSequenceNumber,
		&s.Header.SourceIDType,
		&s.Header.SourceIDIndex,
		&s.CounterRecordsCount)
	if err != nil {
		return nil, err
	}
	if s.Records, _, err = decodeCounterRecords(c, s.CounterRecordsCount); err != nil {
		return nil, err
	}
	return s, nil
}
