package sflow

import (
	"bytes"
	"errors"
	"net/netip"
	"testing"

	"github.com/netsampler/sflowparser/decoders/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wire builds datagrams by hand.
type wire struct {
	bytes.Buffer
}

func (w *wire) u32(values ...uint32) *wire {
	for _, v := range values {
		utils.WriteU32(&w.Buffer, v)
	}
	return w
}

func (w *wire) raw(data ...byte) *wire {
	w.Write(data)
	return w
}

func (w *wire) envelope(dataFormat uint32, payload []byte) *wire {
	w.u32(dataFormat, uint32(len(payload)))
	w.Write(payload)
	return w
}

func header(samples uint32) *wire {
	w := &wire{}
	w.u32(5, AddressTypeIPv4).raw(192, 0, 2, 1).u32(0, 1, 2, samples)
	return w
}

func vlanCounterSample() []byte {
	record := (&wire{}).u32(100, 0, 4096, 50, 5, 2, 0).Bytes()
	return (&wire{}).u32(7, 3, 1).envelope(FORMAT_VLAN, record).Bytes()
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	res := Parse(make([]byte, 12), nil)
	assert.Empty(t, res.Datagrams)

	var verr *UnsupportedVersionError
	require.True(t, errors.As(res.Err, &verr))
	assert.Equal(t, uint32(0), verr.Version)
	assert.ErrorIs(t, res.Err, ErrUnsupportedVersion)
	assert.Equal(t, "Unsupported sFlow version: 0 (expected 5)", res.Err.Error())
}

func TestDecodeShortBuffer(t *testing.T) {
	res := Parse([]byte{0, 0, 0}, nil)
	assert.Empty(t, res.Datagrams)

	var ierr *IncompleteError
	require.True(t, errors.As(res.Err, &ierr))
	assert.Equal(t, 3, ierr.Available)
	assert.Equal(t, DatagramHeader, ierr.Context)
}

func TestDecodeEmpty(t *testing.T) {
	res := Parse(nil, nil)
	assert.NoError(t, res.Err)
	assert.Empty(t, res.Datagrams)
}

func TestDecodeMinimalDatagram(t *testing.T) {
	res := Parse(header(0).Bytes(), nil)
	require.NoError(t, res.Err)
	require.Len(t, res.Datagrams, 1)

	dg := res.Datagrams[0]
	assert.Equal(t, uint32(5), dg.Version)
	assert.Equal(t, uint32(AddressTypeIPv4), dg.IPVersion)
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), dg.AgentAddress)
	assert.Equal(t, uint32(1), dg.SequenceNumber)
	assert.Equal(t, uint32(2), dg.Uptime)
	assert.Empty(t, dg.Samples)
}

func TestDecodeIPv6Agent(t *testing.T) {
	addr := netip.MustParseAddr("::ffff:192.0.2.1")
	buf := (&wire{}).u32(5, AddressTypeIPv6)
	ip := addr.As16()
	buf.raw(ip[:]...).u32(0, 1, 2, 0)

	res := Parse(buf.Bytes(), nil)
	require.NoError(t, res.Err)
	require.Len(t, res.Datagrams, 1)
	assert.Equal(t, addr, res.Datagrams[0].AgentAddress)
	assert.True(t, res.Datagrams[0].AgentAddress.Is4In6())
	assert.Equal(t, uint32(AddressTypeIPv6), res.Datagrams[0].IPVersion)
}

func TestDecodeCounterSampleVlan(t *testing.T) {
	buf := header(1).envelope(SAMPLE_FORMAT_COUNTER, vlanCounterSample())

	res := Parse(buf.Bytes(), nil)
	require.NoError(t, res.Err)
	require.Len(t, res.Datagrams, 1)
	require.Len(t, res.Datagrams[0].Samples, 1)

	sample, ok := res.Datagrams[0].Samples[0].(CounterSample)
	require.True(t, ok)
	assert.Equal(t, uint32(7), sample.Header.SampleSequenceNumber)
	assert.Equal(t, uint32(0), sample.Header.SourceIDType)
	assert.Equal(t, uint32(3), sample.Header.SourceIDIndex)
	require.Len(t, sample.Records, 1)

	assert.Equal(t, VlanCounters{
		VlanID:        100,
		Octets:        4096,
		UcastPkts:     50,
		MulticastPkts: 5,
		BroadcastPkts: 2,
		Discards:      0,
	}, sample.Records[0].Data)
	assert.Equal(t, uint32(28), sample.Records[0].Header.Length)
}

func TestDecodeTooManySamples(t *testing.T) {
	buf := header(2).
		envelope(SAMPLE_FORMAT_COUNTER, vlanCounterSample()).
		envelope(SAMPLE_FORMAT_COUNTER, vlanCounterSample())

	res := Parse(buf.Bytes(), &Config{MaxSamples: SampleLimit(1)})
	assert.Empty(t, res.Datagrams)

	var terr *TooManySamplesError
	require.True(t, errors.As(res.Err, &terr))
	assert.Equal(t, uint32(2), terr.Count)
	assert.Equal(t, uint32(1), terr.Max)

	res = Parse(buf.Bytes(), &Config{MaxSamples: SampleLimit(2)})
	require.NoError(t, res.Err)
	assert.Len(t, res.Datagrams[0].Samples, 2)

	// no limit by default
	res = Parse(buf.Bytes(), &Config{})
	require.NoError(t, res.Err)
}

func TestDecodeZeroSampleLimit(t *testing.T) {
	buf := header(1).envelope(SAMPLE_FORMAT_COUNTER, vlanCounterSample())

	res := Parse(buf.Bytes(), &Config{MaxSamples: SampleLimit(0)})
	assert.Empty(t, res.Datagrams)
	var terr *TooManySamplesError
	require.True(t, errors.As(res.Err, &terr))
	assert.Equal(t, TooManySamplesError{Count: 1, Max: 0}, *terr)

	// datagrams without samples are still accepted
	res = Parse(header(0).Bytes(), &Config{MaxSamples: SampleLimit(0)})
	require.NoError(t, res.Err)
	assert.Len(t, res.Datagrams, 1)
}

func TestParserCopiesSampleLimit(t *testing.T) {
	cfg := &Config{MaxSamples: SampleLimit(0)}
	p := NewParser(cfg)
	*cfg.MaxSamples = 10

	res := p.Parse(header(1).envelope(SAMPLE_FORMAT_COUNTER, vlanCounterSample()).Bytes())
	assert.ErrorIs(t, res.Err, ErrTooManySamples)
}

func TestDecodeTooManySamplesBeforeSamples(t *testing.T) {
	// samples are missing entirely, the limit is reported first
	res := Parse(header(1000).Bytes(), &Config{MaxSamples: SampleLimit(10)})
	assert.ErrorIs(t, res.Err, ErrTooManySamples)
}

func TestDecodeConsecutiveDatagrams(t *testing.T) {
	buf := append(header(0).Bytes(), header(0).Bytes()...)
	res := Parse(buf, nil)
	require.NoError(t, res.Err)
	assert.Len(t, res.Datagrams, 2)
}

func TestDecodePartialSuccess(t *testing.T) {
	buf := append(header(0).Bytes(), make([]byte, 12)...)
	res := Parse(buf, nil)
	assert.Len(t, res.Datagrams, 1)
	assert.ErrorIs(t, res.Err, ErrUnsupportedVersion)

	buf = append(header(0).Bytes(), 0, 0)
	res = Parse(buf, nil)
	assert.Len(t, res.Datagrams, 1)
	var ierr *IncompleteError
	require.True(t, errors.As(res.Err, &ierr))
	assert.Equal(t, 2, ierr.Available)
	assert.Equal(t, DatagramHeader, ierr.Context)
}

func TestDecodeAgentAddressErrors(t *testing.T) {
	buf := (&wire{}).u32(5, 3).raw(192, 0, 2, 1).u32(0, 1, 2, 0)
	res := Parse(buf.Bytes(), nil)

	var perr *ParseError
	require.True(t, errors.As(res.Err, &perr))
	assert.Equal(t, AgentAddress, perr.Context)
	assert.Equal(t, InvalidAddressType, perr.Kind)
	assert.Equal(t, 4, perr.Offset)

	var terr *AddressTypeError
	require.True(t, errors.As(res.Err, &terr))
	assert.Equal(t, uint32(3), terr.Type)

	buf = (&wire{}).u32(5, AddressTypeIPv6).raw(1, 2, 3, 4)
	res = Parse(buf.Bytes(), nil)
	require.True(t, errors.As(res.Err, &perr))
	assert.Equal(t, AgentAddress, perr.Context)
	assert.Equal(t, Eof, perr.Kind)
}

func TestDecodeTruncatedHeaderFields(t *testing.T) {
	full := header(0).Bytes()
	for _, tc := range []struct {
		length  int
		context ParseContext
	}{
		{12, SubAgentID},
		{16, SequenceNumber},
		{20, Uptime},
		{24, NumSamples},
		{26, NumSamples},
	} {
		res := Parse(full[:tc.length], nil)
		var ierr *IncompleteError
		require.True(t, errors.As(res.Err, &ierr), "length %d", tc.length)
		assert.Equal(t, tc.context, ierr.Context, "length %d", tc.length)
		assert.Equal(t, 4, ierr.Expected)
	}
}

func TestDecodeSampleEnvelopeErrors(t *testing.T) {
	res := Parse(header(1).raw(0, 0).Bytes(), nil)
	var ierr *IncompleteError
	require.True(t, errors.As(res.Err, &ierr))
	assert.Equal(t, SampleDataFormat, ierr.Context)

	res = Parse(header(1).u32(SAMPLE_FORMAT_FLOW).Bytes(), nil)
	require.True(t, errors.As(res.Err, &ierr))
	assert.Equal(t, SampleLength, ierr.Context)

	res = Parse(header(1).u32(SAMPLE_FORMAT_FLOW, 100).raw(1, 2, 3, 4).Bytes(), nil)
	require.True(t, errors.As(res.Err, &ierr))
	assert.Equal(t, SampleData, ierr.Context)
	assert.Equal(t, 4, ierr.Available)
	assert.Equal(t, 100, ierr.Expected)
}

func TestDecodeUnknownSamples(t *testing.T) {
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	buf := header(2).
		envelope(DataFormat(0, 9), payload).
		envelope(DataFormat(42, SAMPLE_FORMAT_FLOW), payload)

	res := Parse(buf.Bytes(), nil)
	require.NoError(t, res.Err)
	samples := res.Datagrams[0].Samples
	require.Len(t, samples, 2)

	unknown, ok := samples[0].(UnknownSample)
	require.True(t, ok)
	assert.Equal(t, uint32(0), unknown.Header.Enterprise)
	assert.Equal(t, uint32(9), unknown.Header.Format)
	assert.Equal(t, payload, unknown.Data)

	unknown, ok = samples[1].(UnknownSample)
	require.True(t, ok)
	assert.Equal(t, uint32(42), unknown.Header.Enterprise)
	assert.Equal(t, uint32(SAMPLE_FORMAT_FLOW), unknown.Header.Format)
	assert.Equal(t, payload, unknown.Data)

	// the decoded payload does not alias the input
	raw := buf.Bytes()
	raw[len(raw)-1] = 0xff
	assert.Equal(t, byte(8), unknown.Data[7])
}

func TestDecodeUnknownRecords(t *testing.T) {
	payload := []byte{0xa, 0xb, 0xc}
	flow := (&wire{}).u32(1, 2, 256, 1000, 0, 1, 2, 1).envelope(DataFormat(0, 999), payload)
	counter := (&wire{}).u32(1, 2, 1).envelope(DataFormat(9, 1), payload)

	buf := header(2).
		envelope(SAMPLE_FORMAT_FLOW, flow.Bytes()).
		envelope(SAMPLE_FORMAT_COUNTER, counter.Bytes())
	res := Parse(buf.Bytes(), nil)
	require.NoError(t, res.Err)

	fs := res.Datagrams[0].Samples[0].(FlowSample)
	require.Len(t, fs.Records, 1)
	assert.Equal(t, RawRecord{Data: payload}, fs.Records[0].Data)
	assert.Equal(t, uint32(999), fs.Records[0].Header.Format)

	cs := res.Datagrams[0].Samples[1].(CounterSample)
	require.Len(t, cs.Records, 1)
	assert.Equal(t, RawRecord{Data: payload}, cs.Records[0].Data)
	assert.Equal(t, uint32(9), cs.Records[0].Header.Enterprise)
	assert.Equal(t, uint32(1), cs.Records[0].Header.Format)
}

func TestDecodeXenVif(t *testing.T) {
	record := (&wire{}).u32(3).raw(10, 0, 0, 7).u32(12, 1, 0x10)
	counter := (&wire{}).u32(1, 2, 1).envelope(DataFormat(ENTERPRISE_XENSERVER, FORMAT_XEN_VIF), record.Bytes())
	res := Parse(header(1).envelope(SAMPLE_FORMAT_COUNTER, counter.Bytes()).Bytes(), nil)
	require.NoError(t, res.Err)

	cs := res.Datagrams[0].Samples[0].(CounterSample)
	assert.Equal(t, XenVif{
		VifIndex:     3,
		VMAddress:    netip.MustParseAddr("10.0.0.7"),
		DomainID:     12,
		NetworkIndex: 1,
		Flags:        0x10,
	}, cs.Records[0].Data)
	assert.Equal(t, "xen_vif", CounterRecordName(ENTERPRISE_XENSERVER, FORMAT_XEN_VIF))
}

func TestDecodeRecordTrailingBytes(t *testing.T) {
	record := (&wire{}).u32(10, 1, 20, 2, 0xdeadbeef)
	flow := (&wire{}).u32(1, 2, 256, 1000, 0, 1, 2, 1).envelope(FORMAT_EXT_SWITCH, record.Bytes())
	res := Parse(header(1).envelope(SAMPLE_FORMAT_FLOW, flow.Bytes()).Bytes(), nil)
	require.NoError(t, res.Err)

	fs := res.Datagrams[0].Samples[0].(FlowSample)
	assert.Equal(t, ExtendedSwitch{SrcVlan: 10, SrcPriority: 1, DstVlan: 20, DstPriority: 2}, fs.Records[0].Data)
	assert.Equal(t, uint32(20), fs.Records[0].Header.Length)
}

func TestDecodeRecordFailure(t *testing.T) {
	// extended router with an unknown next hop address type
	record := (&wire{}).u32(7).raw(1, 2, 3, 4).u32(24, 24)
	flow := (&wire{}).u32(1, 2, 256, 1000, 0, 1, 2, 1).envelope(FORMAT_EXT_ROUTER, record.Bytes())
	buf := header(1).envelope(SAMPLE_FORMAT_FLOW, flow.Bytes())
	res := Parse(buf.Bytes(), nil)
	assert.Empty(t, res.Datagrams)

	var perr *ParseError
	require.True(t, errors.As(res.Err, &perr))
	assert.Equal(t, FlowSampleContext, perr.Context)
	assert.Equal(t, ParseFailure, perr.Kind)
	assert.Equal(t, 36, perr.Offset)

	var rerr *RecordError
	require.True(t, errors.As(res.Err, &rerr))
	assert.Equal(t, uint32(FORMAT_EXT_ROUTER), rerr.DataFormat)

	var terr *AddressTypeError
	assert.True(t, errors.As(res.Err, &terr))
	assert.Equal(t, "parse_error", ErrorLabel(res.Err))
}

func TestDecodeRecordTruncated(t *testing.T) {
	counter := (&wire{}).u32(1, 2, 1).u32(FORMAT_VLAN, 28).raw(0, 0, 0, 100)
	res := Parse(header(1).envelope(SAMPLE_FORMAT_COUNTER, counter.Bytes()).Bytes(), nil)

	var perr *ParseError
	require.True(t, errors.As(res.Err, &perr))
	assert.Equal(t, CounterSampleContext, perr.Context)
	assert.ErrorIs(t, res.Err, ErrParse)

	var ierr *IncompleteError
	require.True(t, errors.As(res.Err, &ierr))
	assert.Equal(t, RecordData, ierr.Context)
	assert.Equal(t, 28, ierr.Expected)
	assert.Equal(t, 4, ierr.Available)
}

func TestDecodeCapacityCap(t *testing.T) {
	// huge counts with almost no data must fail without allocating for them
	counter := (&wire{}).u32(1, 2, 0xffffffff)
	res := Parse(header(1).envelope(SAMPLE_FORMAT_COUNTER, counter.Bytes()).Bytes(), nil)
	var ierr *IncompleteError
	require.True(t, errors.As(res.Err, &ierr))
	assert.Equal(t, RecordDataFormat, ierr.Context)

	res = Parse(header(0xffffffff).Bytes(), nil)
	require.True(t, errors.As(res.Err, &ierr))
	assert.Equal(t, SampleDataFormat, ierr.Context)

	assert.Equal(t, 2, capacity(0xffffffff, 16, 8))
	assert.Equal(t, 3, capacity(3, 160, 8))
	assert.Equal(t, 0, capacity(10, 7, 8))
}

func TestDecodeListCapacityCap(t *testing.T) {
	record := (&wire{}).u32(0xffffffff, 1, 2)
	stack, _, err := readUint32List(utils.NewCursor(record.Bytes()))
	assert.Error(t, err)
	assert.Nil(t, stack)

	_, err = decodeHostAdapters(utils.NewCursor((&wire{}).u32(0x7fffffff, 1).Bytes()))
	assert.Error(t, err)

	_, err = decodeSFP(utils.NewCursor((&wire{}).u32(1, 0xffffffff, 3300, 40000).Bytes()))
	assert.Error(t, err)
}

func TestDecodeExpandedSamples(t *testing.T) {
	flowRecord := (&wire{}).u32(10, 1, 20, 2)
	flow := (&wire{}).u32(9, 3, 0x123456, 512, 4096, 1, 0, 17, 0, 18, 1).envelope(FORMAT_EXT_SWITCH, flowRecord.Bytes())

	counterRecord := (&wire{}).u32(100, 0, 4096, 50, 5, 2, 0)
	counter := (&wire{}).u32(10, 0, 17, 1).envelope(FORMAT_VLAN, counterRecord.Bytes())

	buf := header(2).
		envelope(SAMPLE_FORMAT_EXPANDED_FLOW, flow.Bytes()).
		envelope(SAMPLE_FORMAT_EXPANDED_COUNTER, counter.Bytes())
	res := Parse(buf.Bytes(), nil)
	require.NoError(t, res.Err)

	efs := res.Datagrams[0].Samples[0].(ExpandedFlowSample)
	assert.Equal(t, uint32(3), efs.Header.SourceIDType)
	assert.Equal(t, uint32(0x123456), efs.Header.SourceIDIndex)
	assert.Equal(t, uint32(512), efs.SamplingRate)
	assert.Equal(t, uint32(17), efs.InputIfValue)
	assert.Equal(t, uint32(18), efs.OutputIfValue)
	require.Len(t, efs.Records, 1)

	ecs := res.Datagrams[0].Samples[1].(ExpandedCounterSample)
	assert.Equal(t, uint32(17), ecs.Header.SourceIDIndex)
	require.Len(t, ecs.Records, 1)
}

func TestDecodeCompactSourceID(t *testing.T) {
	counter := (&wire{}).u32(1, 0x02000105, 0)
	res := Parse(header(1).envelope(SAMPLE_FORMAT_COUNTER, counter.Bytes()).Bytes(), nil)
	require.NoError(t, res.Err)

	cs := res.Datagrams[0].Samples[0].(CounterSample)
	assert.Equal(t, uint32(2), cs.Header.SourceIDType)
	assert.Equal(t, uint32(0x105), cs.Header.SourceIDIndex)
	assert.Equal(t, uint32(0x02000105), cs.Header.SourceID)
}

func TestDecodeLossyStrings(t *testing.T) {
	record := (&wire{}).u32(5).raw('a', 'b', 0xff, 'c', 'd', 0, 0, 0)
	flow := (&wire{}).u32(1, 2, 256, 1000, 0, 1, 2, 1).envelope(DataFormat(0, 1038), record.Bytes())
	res := Parse(header(1).envelope(SAMPLE_FORMAT_FLOW, flow.Bytes()).Bytes(), nil)
	require.NoError(t, res.Err)

	fs := res.Datagrams[0].Samples[0].(FlowSample)
	assert.Equal(t, ExtendedFunction{Symbol: "ab�cd"}, fs.Records[0].Data)
}

func TestLossyStringTruncatedSequence(t *testing.T) {
	// the two leading bytes of a three byte sequence become one replacement
	assert.Equal(t, "\ufffdA", lossyString([]byte("\xe2\x82A")))
	assert.Equal(t, "\u20acA", lossyString([]byte("\xe2\x82\xacA")))
	assert.Equal(t, "a\ufffd\ufffdb", lossyString([]byte("a\xff\xfeb")))
}

func TestReadXDRString(t *testing.T) {
	s, next, err := readXDRString(utils.NewCursor((&wire{}).u32(3).raw('e', 't', 'h', 0, 9).Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "eth", s)
	assert.Equal(t, 1, next.Len())

	s, _, err = readXDRString(utils.NewCursor((&wire{}).u32(0).Bytes()))
	require.NoError(t, err)
	assert.Equal(t, "", s)

	// missing padding
	_, _, err = readXDRString(utils.NewCursor((&wire{}).u32(3).raw('e', 't', 'h').Bytes()))
	assert.Error(t, err)

	_, _, err = readXDRString(utils.NewCursor((&wire{}).u32(100).raw('e', 't', 'h', 0).Bytes()))
	var short *utils.ShortReadError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 100, short.Expected)
}

func TestParseContextNames(t *testing.T) {
	assert.Equal(t, "sub_agent_id", SubAgentID.String())
	assert.Equal(t, "sample data_format", SampleDataFormat.String())
	assert.Equal(t, "flow sample", FlowSampleContext.String())

	err := &IncompleteError{Available: 3, Context: DatagramHeader}
	assert.Equal(t, "Incomplete data: only 3 bytes available (datagram header)", err.Error())
	err = &IncompleteError{Available: 3, Expected: 8, Context: SampleData}
	assert.Equal(t, "Incomplete data: only 3 bytes available, expected 8 (sample data)", err.Error())
}

func TestErrorLabels(t *testing.T) {
	assert.Equal(t, "", ErrorLabel(nil))
	assert.Equal(t, "incomplete", ErrorLabel(&IncompleteError{}))
	assert.Equal(t, "unsupported_version", ErrorLabel(&UnsupportedVersionError{Version: 4}))
	assert.Equal(t, "too_many_samples", ErrorLabel(&TooManySamplesError{Count: 3, Max: 2}))
	assert.Equal(t, "parse_error", ErrorLabel(&ParseError{Err: &IncompleteError{}}))
	assert.Equal(t, "error_decoding", ErrorLabel(errors.New("other")))
}

func TestParserSharedConcurrently(t *testing.T) {
	p := NewParser(&Config{MaxSamples: SampleLimit(4)})
	buf := header(1).envelope(SAMPLE_FORMAT_COUNTER, vlanCounterSample()).Bytes()

	done := make(chan ParseResult)
	for i := 0; i < 8; i++ {
		go func() {
			done <- p.Parse(buf)
		}()
	}
	for i := 0; i < 8; i++ {
		res := <-done
		assert.NoError(t, res.Err)
		assert.Len(t, res.Datagrams, 1)
	}
}

func FuzzParse(f *testing.F) {
	f.Add(header(0).Bytes())
	f.Add(header(1).envelope(SAMPLE_FORMAT_COUNTER, vlanCounterSample()).Bytes())
	f.Add(make([]byte, 12))
	f.Add([]byte{0, 0, 0, 5, 0, 0, 0, 1})

	f.Fuzz(func(t *testing.T, data []byte) {
		res := Parse(data, &Config{MaxSamples: SampleLimit(64)})
		if res.Err == nil {
			for _, dg := range res.Datagrams {
				assert.Len(t, dg.Samples, int(dg.SamplesCount))
			}
		}
	})
}
