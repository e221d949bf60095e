package producer

import (
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsampler/sflowparser/decoders/sflow"
)

func serializeHeader(t *testing.T, l ...gopacket.SerializableLayer) []byte {
	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, l...)
	require.NoError(t, err)
	return buf.Bytes()
}

func ethernetTCPHeader(t *testing.T) []byte {
	return serializeHeader(t,
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x53, 0x00, 0x00, 0x00, 0x01},
			DstMAC:       net.HardwareAddr{0x00, 0x53, 0x00, 0x00, 0x00, 0x02},
			EthernetType: layers.EthernetTypeDot1Q,
		},
		&layers.Dot1Q{
			VLANIdentifier: 20,
			Type:           layers.EthernetTypeIPv4,
		},
		&layers.IPv4{
			Version:  4,
			TOS:      0x10,
			Id:       0xabab,
			TTL:      64,
			Protocol: layers.IPProtocolTCP,
			SrcIP:    net.IP{192, 0, 2, 1},
			DstIP:    net.IP{198, 51, 100, 7},
		},
		&layers.TCP{
			SrcPort: 34000,
			DstPort: 443,
			SYN:     true,
			ACK:     true,
		},
	)
}

func TestParseSampledHeaderEthernet(t *testing.T) {
	var msg FlowMessage
	err := ParseSampledHeader(&msg, &sflow.SampledHeader{
		Protocol:   sflow.HEADER_PROTOCOL_ETHERNET,
		HeaderData: ethernetTCPHeader(t),
	})
	require.NoError(t, err)

	assert.Equal(t, "00:53:00:00:00:01", msg.SrcMac.String())
	assert.Equal(t, "00:53:00:00:00:02", msg.DstMac.String())
	assert.Equal(t, uint32(20), msg.VlanId)
	assert.Equal(t, uint32(ETYPE_IPV4), msg.Etype)
	assert.Equal(t, netip.MustParseAddr("192.0.2.1"), msg.SrcAddr)
	assert.Equal(t, netip.MustParseAddr("198.51.100.7"), msg.DstAddr)
	assert.Equal(t, uint32(6), msg.Proto)
	assert.Equal(t, uint32(0x10), msg.IpTos)
	assert.Equal(t, uint32(64), msg.IpTtl)
	assert.Equal(t, uint32(0xabab), msg.FragmentId)
	assert.Equal(t, uint32(34000), msg.SrcPort)
	assert.Equal(t, uint32(443), msg.DstPort)
	assert.Equal(t, uint32(0x12), msg.TcpFlags)
}

func TestParseSampledHeaderMPLS(t *testing.T) {
	data := serializeHeader(t,
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 1},
			DstMAC:       net.HardwareAddr{0, 0, 0, 0, 0, 2},
			EthernetType: layers.EthernetTypeMPLSUnicast,
		},
		&layers.MPLS{Label: 18, TTL: 255},
		&layers.MPLS{Label: 16, TTL: 254, StackBottom: true},
		&layers.IPv4{
			Version:  4,
			TTL:      10,
			Protocol: layers.IPProtocolICMPv4,
			SrcIP:    net.IP{10, 0, 0, 1},
			DstIP:    net.IP{10, 0, 0, 2},
		},
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)},
	)

	var msg FlowMessage
	require.NoError(t, ParseSampledHeader(&msg, &sflow.SampledHeader{
		Protocol:   sflow.HEADER_PROTOCOL_ETHERNET,
		HeaderData: data,
	}))
	assert.Equal(t, []uint32{18, 16}, msg.MplsLabel)
	assert.Equal(t, []uint32{255, 254}, msg.MplsTtl)
	assert.Equal(t, uint32(ETYPE_IPV4), msg.Etype)
	assert.Equal(t, uint32(1), msg.Proto)
	assert.Equal(t, uint32(8), msg.IcmpType)
	assert.Equal(t, uint32(0), msg.IcmpCode)
}

func TestParseSampledHeaderIPv6(t *testing.T) {
	data := serializeHeader(t,
		&layers.IPv6{
			Version:      6,
			TrafficClass: 0x20,
			FlowLabel:    0x12345,
			NextHeader:   layers.IPProtocolUDP,
			HopLimit:     32,
			SrcIP:        net.ParseIP("2001:db8::1"),
			DstIP:        net.ParseIP("2001:db8::2"),
		},
		&layers.UDP{SrcPort: 53, DstPort: 5353},
	)

	var msg FlowMessage
	require.NoError(t, ParseSampledHeader(&msg, &sflow.SampledHeader{
		Protocol:   sflow.HEADER_PROTOCOL_IPV6,
		HeaderData: data,
	}))
	assert.Equal(t, uint32(ETYPE_IPV6), msg.Etype)
	assert.Equal(t, netip.MustParseAddr("2001:db8::1"), msg.SrcAddr)
	assert.Equal(t, netip.MustParseAddr("2001:db8::2"), msg.DstAddr)
	assert.Equal(t, uint32(17), msg.Proto)
	assert.Equal(t, uint32(0x20), msg.IpTos)
	assert.Equal(t, uint32(32), msg.IpTtl)
	assert.Equal(t, uint32(0x12345), msg.Ipv6FlowLabel)
	assert.Equal(t, uint32(53), msg.SrcPort)
	assert.Equal(t, uint32(5353), msg.DstPort)
}

func TestParseSampledHeaderUnknownProtocol(t *testing.T) {
	var msg FlowMessage
	require.NoError(t, ParseSampledHeader(&msg, &sflow.SampledHeader{
		Protocol:   7,
		HeaderData: []byte{1, 2, 3},
	}))
	assert.Equal(t, FlowMessage{}, msg)
}

func truncatedIPv4Header() []byte {
	return []byte{
		0x00, 0x53, 0x00, 0x00, 0x00, 0x02,
		0x00, 0x53, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x00,
		0x45, 0x00, 0x00, 0x54, 0x00, 0x00, 0x40, 0x00, 0x40, 0x01,
	}
}

func TestParseSampledHeaderTruncated(t *testing.T) {
	var msg FlowMessage
	err := ParseSampledHeader(&msg, &sflow.SampledHeader{
		Protocol:   sflow.HEADER_PROTOCOL_ETHERNET,
		HeaderData: truncatedIPv4Header(),
	})
	var headerErr *HeaderError
	require.ErrorAs(t, err, &headerErr)
	assert.Equal(t, uint32(sflow.HEADER_PROTOCOL_ETHERNET), headerErr.Protocol)
	assert.Contains(t, err.Error(), "less than 20")

	assert.Equal(t, "00:53:00:00:00:01", msg.SrcMac.String())
	assert.False(t, msg.SrcAddr.IsValid())
}

func TestProcessMessageSFlowKeepsSamplesAfterHeaderError(t *testing.T) {
	dg := &sflow.Datagram{Samples: []interface{}{
		sflow.FlowSample{Records: []sflow.FlowRecord{
			{Data: sflow.SampledHeader{
				Protocol:    sflow.HEADER_PROTOCOL_ETHERNET,
				FrameLength: 98,
				HeaderData:  truncatedIPv4Header(),
			}},
			{Data: sflow.ExtendedSwitch{SrcVlan: 5}},
		}},
		sflow.FlowSample{Records: []sflow.FlowRecord{
			{Data: sflow.SampledHeader{
				Protocol:    sflow.HEADER_PROTOCOL_ETHERNET,
				FrameLength: 1514,
				HeaderData:  ethernetTCPHeader(t),
			}},
		}},
	}}
	msgs, err := ProcessMessageSFlow(dg)
	var headerErr *HeaderError
	assert.ErrorAs(t, err, &headerErr)
	require.Len(t, msgs, 2)
	assert.Equal(t, uint64(98), msgs[0].Bytes)
	assert.Equal(t, uint32(5), msgs[0].SrcVlan)
	assert.Equal(t, uint32(443), msgs[1].DstPort)
}

func testDatagram(t *testing.T) *sflow.Datagram {
	return &sflow.Datagram{
		Version:        5,
		AgentAddress:   netip.MustParseAddr("192.0.2.254"),
		SequenceNumber: 77,
		Samples: []interface{}{
			sflow.FlowSample{
				Header:       sflow.SampleHeader{SourceIDType: 0, SourceIDIndex: 3},
				SamplingRate: 1024,
				Input:        3,
				Output:       4,
				Records: []sflow.FlowRecord{
					{Data: sflow.SampledHeader{
						Protocol:    sflow.HEADER_PROTOCOL_ETHERNET,
						FrameLength: 1514,
						HeaderData:  ethernetTCPHeader(t),
					}},
					{Data: sflow.ExtendedSwitch{SrcVlan: 20, DstVlan: 30}},
					{Data: sflow.ExtendedRouter{NextHop: netip.MustParseAddr("192.0.2.253"), SrcMaskLen: 24, DstMaskLen: 16}},
					{Data: sflow.ExtendedGateway{
						NextHop: netip.MustParseAddr("192.0.2.252"),
						AS:      65000,
						SrcAS:   65001,
						ASPath: []sflow.ASPathSegment{
							{Type: 2, Values: []uint32{65010, 65020}},
							{Type: 2, Values: []uint32{65030}},
						},
						Communities: []uint32{100},
					}},
				},
			},
			sflow.CounterSample{},
			sflow.ExpandedFlowSample{
				Header:        sflow.SampleHeader{SourceIDType: 1, SourceIDIndex: 0x1000000},
				InputIfValue:  0x1000000,
				OutputIfValue: 9,
				Records: []sflow.FlowRecord{
					{Data: sflow.SampledIPv6{
						Length:   1280,
						Protocol: 17,
						SrcIP:    netip.MustParseAddr("2001:db8::1"),
						DstIP:    netip.MustParseAddr("2001:db8::2"),
						SrcPort:  1000,
						DstPort:  2000,
						Priority: 3,
					}},
				},
			},
		},
	}
}

func TestProcessMessageSFlow(t *testing.T) {
	msgs, err := ProcessMessageSFlow(testDatagram(t))
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	msg := msgs[0]
	assert.Equal(t, FLOW_TYPE_SFLOW_5, msg.Type)
	assert.Equal(t, uint32(77), msg.SequenceNum)
	assert.Equal(t, netip.MustParseAddr("192.0.2.254"), msg.SamplerAddress)
	assert.Equal(t, uint64(1024), msg.SamplingRate)
	assert.Equal(t, uint32(3), msg.SourceIdIndex)
	assert.Equal(t, uint32(3), msg.InIf)
	assert.Equal(t, uint32(4), msg.OutIf)
	assert.Equal(t, uint64(1514), msg.Bytes)
	assert.Equal(t, uint64(1), msg.Packets)
	assert.Equal(t, uint32(443), msg.DstPort)
	assert.Equal(t, uint32(20), msg.SrcVlan)
	assert.Equal(t, uint32(30), msg.DstVlan)
	assert.Equal(t, netip.MustParseAddr("192.0.2.253"), msg.NextHop)
	assert.Equal(t, uint32(24), msg.SrcNet)
	assert.Equal(t, uint32(16), msg.DstNet)
	assert.Equal(t, netip.MustParseAddr("192.0.2.252"), msg.BgpNextHop)
	assert.Equal(t, []uint32{65010, 65020, 65030}, msg.AsPath)
	assert.Equal(t, uint32(65030), msg.DstAs)
	assert.Equal(t, uint32(65010), msg.NextHopAs)
	assert.Equal(t, uint32(65001), msg.SrcAs)
	assert.Equal(t, []uint32{100}, msg.BgpCommunities)

	msg = msgs[1]
	assert.Equal(t, uint32(1), msg.SourceIdType)
	assert.Equal(t, uint32(0x1000000), msg.InIf)
	assert.Equal(t, uint32(9), msg.OutIf)
	assert.Equal(t, uint64(1280), msg.Bytes)
	assert.Equal(t, uint32(ETYPE_IPV6), msg.Etype)
	assert.Equal(t, uint32(3), msg.IpTos)
	assert.Equal(t, uint32(2000), msg.DstPort)
}

func TestProcessMessageSFlowGatewayWithoutPath(t *testing.T) {
	dg := &sflow.Datagram{Samples: []interface{}{
		sflow.FlowSample{Records: []sflow.FlowRecord{
			{Data: sflow.ExtendedGateway{AS: 65000}},
		}},
	}}
	msgs, err := ProcessMessageSFlow(dg)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, uint32(65000), msgs[0].DstAs)
	assert.Equal(t, uint32(65000), msgs[0].SrcAs)
	assert.Empty(t, msgs[0].AsPath)
}

func TestSFlowProducer(t *testing.T) {
	p, err := CreateProducerWithConfig(&ProducerConfig{SamplingRate: 100})
	require.NoError(t, err)
	defer p.Close()

	received := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	dg := testDatagram(t)
	out, err := p.Produce(dg, &ProduceArgs{TimeReceived: received})
	require.NoError(t, err)
	require.Len(t, out, 2)

	first := out[0].(*FlowMessage)
	assert.Equal(t, uint64(received.UnixNano()), first.TimeReceivedNs)
	assert.Equal(t, uint64(1024), first.SamplingRate)

	// the expanded sample reported a sampling rate of 0
	second := out[1].(*FlowMessage)
	assert.Equal(t, uint64(100), second.SamplingRate)

	_, err = p.Produce("not a datagram", nil)
	assert.ErrorIs(t, err, ErrUnknownMessage)
}

func TestGeoIP(t *testing.T) {
	geo, err := OpenGeoIP("", "")
	require.NoError(t, err)
	assert.Nil(t, geo)

	msg := &FlowMessage{SrcAddr: netip.MustParseAddr("192.0.2.1")}
	geo.Enrich(msg)
	assert.Equal(t, uint32(0), msg.SrcAs)
	assert.NoError(t, geo.Close())

	_, err = OpenGeoIP("/nonexistent/GeoLite2-ASN.mmdb", "")
	assert.Error(t, err)

	_, err = CreateProducerWithConfig(&ProducerConfig{GeoIP: GeoIPConfig{Country: "/nonexistent/GeoLite2-Country.mmdb"}})
	assert.Error(t, err)
}
