package sflow

import (
	"errors"
	"fmt"

	"github.com/netsampler/sflowparser/decoders/utils"
)

// ParseContext names the decoding phase an error happened in.
type ParseContext int

const (
	DatagramHeader ParseContext = iota
	DatagramHeaderVersion
	AgentAddress
	SubAgentID
	SequenceNumber
	Uptime
	NumSamples
	SampleDataFormat
	SampleLength
	SampleData
	FlowSampleContext
	CounterSampleContext
	ExpandedFlowSampleContext
	ExpandedCounterSampleContext
	RecordDataFormat
	RecordLength
	RecordData
)

var parseContextNames = map[ParseContext]string{
	DatagramHeader:               "datagram header",
	DatagramHeaderVersion:        "datagram header version",
	AgentAddress:                 "agent address",
	SubAgentID:                   "sub_agent_id",
	SequenceNumber:               "sequence_number",
	Uptime:                       "uptime",
	NumSamples:                   "num_samples",
	SampleDataFormat:             "sample data_format",
	SampleLength:                 "sample length",
	SampleData:                   "sample data",
	FlowSampleContext:            "flow sample",
	CounterSampleContext:         "counter sample",
	ExpandedFlowSampleContext:    "expanded flow sample",
	ExpandedCounterSampleContext: "expanded counter sample",
	RecordDataFormat:             "record data_format",
	RecordLength:                 "record length",
	RecordData:                   "record data",
}

func (c ParseContext) String() string {
	if s, ok := parseContextNames[c]; ok {
		return s
	}
	return fmt.Sprintf("context %d", int(c))
}

func (c ParseContext) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ParseErrorKind qualifies a ParseError.
type ParseErrorKind int

const (
	ParseFailure ParseErrorKind = iota
	InvalidAddressType
	Eof
)

func (k ParseErrorKind) String() string {
	switch k {
	case InvalidAddressType:
		return "InvalidAddressType"
	case Eof:
		return "Eof"
	default:
		return "parse failure"
	}
}

func (k ParseErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

var (
	ErrIncomplete         = errors.New("incomplete data")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrParse              = errors.New("parse error")
	ErrTooManySamples     = errors.New("too many samples")
)

// IncompleteError reports fewer bytes than a field, envelope or string needs.
// Expected is 0 when the required size is not known.
type IncompleteError struct {
	Available int          `json:"available"`
	Expected  int          `json:"expected,omitempty"`
	Context   ParseContext `json:"context"`
}

func (e *IncompleteError) Error() string {
	if e.Expected > 0 {
		return fmt.Sprintf("Incomplete data: only %d bytes available, expected %d (%s)", e.Available, e.Expected, e.Context)
	}
	return fmt.Sprintf("Incomplete data: only %d bytes available (%s)", e.Available, e.Context)
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

type UnsupportedVersionError struct {
	Version uint32 `json:"version"`
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("Unsupported sFlow version: %d (expected 5)", e.Version)
}

func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// ParseError reports structurally invalid data. Err holds the underlying
// failure when there is one.
type ParseError struct {
	Offset  int            `json:"offset"`
	Context ParseContext   `json:"context"`
	Kind    ParseErrorKind `json:"kind"`
	Err     error          `json:"-"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Parse error at offset %d: %s (%s)", e.Offset, e.Kind, e.Context)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type TooManySamplesError struct {
	Count uint32 `json:"count"`
	Max   uint32 `json:"max"`
}

func (e *TooManySamplesError) Error() string {
	return fmt.Sprintf("Too many samples: %d exceeds maximum of %d", e.Count, e.Max)
}

func (e *TooManySamplesError) Is(target error) bool {
	return target == ErrTooManySamples
}

// incomplete converts a short read into an IncompleteError for the given phase.
func incomplete(err error, c utils.Cursor, ctx ParseContext) error {
	var short *utils.ShortReadError
	if errors.As(err, &short) {
		return &IncompleteError{
			Available: short.Available,
			Expected:  short.Expected,
			Context:   ctx,
		}
	}
	return &IncompleteError{
		Available: c.Len(),
		Context:   ctx,
	}
}

// ErrorLabel returns a short name for the error family, suitable as a metric label.
func ErrorLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTooManySamples):
		return "too_many_samples"
	case errors.Is(err, ErrUnsupportedVersion):
		return "unsupported_version"
	case errors.Is(err, ErrParse):
		return "parse_error"
	case errors.Is(err, ErrIncomplete):
		return "incomplete"
	default:
		return "error_decoding"
	}
}
