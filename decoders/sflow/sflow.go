package sflow

import (
	"errors"
	"net/netip"

	"github.com/netsampler/sflowparser/decoders/utils"
)

// Config tunes a Parser. The zero value accepts any number of samples.
type Config struct {
	// MaxSamples rejects datagrams declaring more samples. nil disables the
	// check; a limit of 0 rejects every datagram that declares a sample.
	MaxSamples *uint32 `json:"max-samples,omitempty" yaml:"max_samples"`
}

// SampleLimit returns n as a Config.MaxSamples value.
func SampleLimit(n uint32) *uint32 {
	return &n
}

// ParseResult holds every datagram decoded from a buffer, and the error
// that stopped the walk if there was one. Datagrams decoded before the
// error are kept.
type ParseResult struct {
	Datagrams []*Datagram `json:"datagrams"`
	Err       error       `json:"-"`
}

// Parser decodes buffers of back to back sFlow v5 datagrams.
// It holds no state between calls and can be shared between goroutines.
type Parser struct {
	maxSamples *uint32
}

func NewParser(cfg *Config) *Parser {
	p := &Parser{}
	if cfg != nil && cfg.MaxSamples != nil {
		p.maxSamples = SampleLimit(*cfg.MaxSamples)
	}
	return p
}

// Parse decodes buf with the given configuration (nil for defaults).
func Parse(buf []byte, cfg *Config) ParseResult {
	return NewParser(cfg).Parse(buf)
}

func (p *Parser) Parse(buf []byte) ParseResult {
	var res ParseResult
	c := utils.NewCursor(buf)
	for !c.Empty() {
		if c.Len() < 4 {
			res.Err = &IncompleteError{
				Available: c.Len(),
				Context:   DatagramHeader,
			}
			return res
		}
		dg, next, err := p.decodeDatagram(c)
		if err != nil {
			res.Err = err
			return res
		}
		res.Datagrams = append(res.Datagrams, dg)
		c = next
	}
	return res
}

func (p *Parser) decodeDatagram(c utils.Cursor) (*Datagram, utils.Cursor, error) {
	dg := &Datagram{}

	version, next, err := c.Uint32()
	if err != nil {
		return nil, c, incomplete(err, c, DatagramHeaderVersion)
	}
	if version != 5 {
		return nil, c, &UnsupportedVersionError{Version: version}
	}
	dg.Version = version

	if dg.AgentAddress, next, err = readAgentAddress(next); err != nil {
		return nil, c, err
	}
	dg.IPVersion = addressType(dg.AgentAddress)

	fields := []struct {
		dst *uint32
		ctx ParseContext
	}{
		{&dg.SubAgentID, SubAgentID},
		{&dg.SequenceNumber, SequenceNumber},
		{&dg.Uptime, Uptime},
		{&dg.SamplesCount, NumSamples},
	}
	for _, f := range fields {
		if *f.dst, next, err = next.Uint32(); err != nil {
			return nil, c, incomplete(err, next, f.ctx)
		}
	}

	if p.maxSamples != nil && dg.SamplesCount > *p.maxSamples {
		return nil, c, &TooManySamplesError{Count: dg.SamplesCount, Max: *p.maxSamples}
	}

	if dg.Samples, next, err = decodeSamples(next, dg.SamplesCount); err != nil {
		return nil, c, err
	}
	return dg, next, nil
}

func readAgentAddress(c utils.Cursor) (netip.Addr, utils.Cursor, error) {
	addr, next, err := readAddress(c)
	if err == nil {
		return addr, next, nil
	}
	perr := &ParseError{
		Offset:  c.Offset(),
		Context: AgentAddress,
		Kind:    Eof,
		Err:     err,
	}
	var typeErr *AddressTypeError
	if errors.As(err, &typeErr) {
		perr.Kind = InvalidAddressType
	}
	return netip.Addr{}, c, perr
}
