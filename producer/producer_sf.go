package producer

import (
	"fmt"
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/netsampler/sflowparser/decoders/sflow"
)

const (
	FLOW_TYPE_SFLOW_5 = "SFLOW_5"

	ETYPE_IPV4 = 0x800
	ETYPE_IPV6 = 0x86dd
)

// HeaderError reports a sampled header that could not be dissected up to
// its transport header. The fields mapped before the failure are kept.
type HeaderError struct {
	Protocol uint32
	Err      error
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("sampled header (protocol %d): %s", e.Protocol, e.Err.Error())
}

func (e *HeaderError) Unwrap() error {
	return e.Err
}

func GetSFlowFlowSamples(dg *sflow.Datagram) []interface{} {
	var flowSamples []interface{}
	for _, sample := range dg.Samples {
		switch sample.(type) {
		case sflow.FlowSample, sflow.ExpandedFlowSample:
			flowSamples = append(flowSamples, sample)
		}
	}
	return flowSamples
}

func headerFirstLayer(protocol uint32) (gopacket.LayerType, bool) {
	switch protocol {
	case sflow.HEADER_PROTOCOL_ETHERNET:
		return layers.LayerTypeEthernet, true
	case sflow.HEADER_PROTOCOL_IPV4:
		return layers.LayerTypeIPv4, true
	case sflow.HEADER_PROTOCOL_IPV6:
		return layers.LayerTypeIPv6, true
	}
	return gopacket.LayerTypeZero, false
}

func tcpFlags(tcp *layers.TCP) uint32 {
	var flags uint32
	for i, set := range []bool{tcp.FIN, tcp.SYN, tcp.RST, tcp.PSH, tcp.ACK, tcp.URG, tcp.ECE, tcp.CWR} {
		if set {
			flags |= 1 << i
		}
	}
	return flags
}

// ParseSampledHeader dissects the packet header captured by the agent.
// Only the outermost IP header and the transport header following it are
// mapped. Headers of protocols other than Ethernet, IPv4 and IPv6 are left
// untouched. A header whose decoding fails before a transport header is
// reached returns a *HeaderError.
func ParseSampledHeader(flowMessage *FlowMessage, sampledHeader *sflow.SampledHeader) error {
	first, ok := headerFirstLayer(sampledHeader.Protocol)
	if !ok {
		return nil
	}
	packet := gopacket.NewPacket(sampledHeader.HeaderData, first, gopacket.DecodeOptions{Lazy: true, NoCopy: true})

	var seenIP, seenTransport bool
	for _, layer := range packet.Layers() {
		switch l := layer.(type) {
		case *layers.Ethernet:
			copy(flowMessage.SrcMac[:], l.SrcMAC)
			copy(flowMessage.DstMac[:], l.DstMAC)
			flowMessage.Etype = uint32(l.EthernetType)
		case *layers.Dot1Q:
			if flowMessage.VlanId == 0 {
				flowMessage.VlanId = uint32(l.VLANIdentifier)
			}
			flowMessage.Etype = uint32(l.Type)
		case *layers.MPLS:
			flowMessage.MplsLabel = append(flowMessage.MplsLabel, l.Label)
			flowMessage.MplsTtl = append(flowMessage.MplsTtl, uint32(l.TTL))
		case *layers.IPv4:
			if seenIP {
				continue
			}
			seenIP = true
			flowMessage.Etype = ETYPE_IPV4
			flowMessage.SrcAddr, _ = netip.AddrFromSlice(l.SrcIP.To4())
			flowMessage.DstAddr, _ = netip.AddrFromSlice(l.DstIP.To4())
			flowMessage.Proto = uint32(l.Protocol)
			flowMessage.IpTos = uint32(l.TOS)
			flowMessage.IpTtl = uint32(l.TTL)
			flowMessage.FragmentId = uint32(l.Id)
			flowMessage.FragmentOffset = uint32(l.FragOffset)
		case *layers.IPv6:
			if seenIP {
				continue
			}
			seenIP = true
			flowMessage.Etype = ETYPE_IPV6
			flowMessage.SrcAddr, _ = netip.AddrFromSlice(l.SrcIP)
			flowMessage.DstAddr, _ = netip.AddrFromSlice(l.DstIP)
			flowMessage.Proto = uint32(l.NextHeader)
			flowMessage.IpTos = uint32(l.TrafficClass)
			flowMessage.IpTtl = uint32(l.HopLimit)
			flowMessage.Ipv6FlowLabel = l.FlowLabel & 0xfffff
		case *layers.TCP:
			if seenTransport {
				continue
			}
			seenTransport = true
			flowMessage.SrcPort = uint32(l.SrcPort)
			flowMessage.DstPort = uint32(l.DstPort)
			flowMessage.TcpFlags = tcpFlags(l)
		case *layers.UDP:
			if seenTransport {
				continue
			}
			seenTransport = true
			flowMessage.SrcPort = uint32(l.SrcPort)
			flowMessage.DstPort = uint32(l.DstPort)
		case *layers.ICMPv4:
			if seenTransport {
				continue
			}
			seenTransport = true
			flowMessage.IcmpType = uint32(l.TypeCode.Type())
			flowMessage.IcmpCode = uint32(l.TypeCode.Code())
		case *layers.ICMPv6:
			if seenTransport {
				continue
			}
			seenTransport = true
			flowMessage.IcmpType = uint32(l.TypeCode.Type())
			flowMessage.IcmpCode = uint32(l.TypeCode.Code())
		}
	}
	if errLayer := packet.ErrorLayer(); errLayer != nil && !seenTransport {
		return &HeaderError{Protocol: sampledHeader.Protocol, Err: errLayer.Error()}
	}
	return nil
}

func flattenASPath(segments []sflow.ASPathSegment) []uint32 {
	var path []uint32
	for _, segment := range segments {
		path = append(path, segment.Values...)
	}
	return path
}

// SearchSFlowSample maps the records of a flow sample. A header that fails
// to dissect does not stop the other records from being mapped; its error
// is returned once the sample is complete.
func SearchSFlowSample(flowMessage *FlowMessage, flowSample interface{}) error {
	var records []sflow.FlowRecord
	var headerErr error
	flowMessage.Type = FLOW_TYPE_SFLOW_5

	switch flowSample := flowSample.(type) {
	case sflow.FlowSample:
		records = flowSample.Records
		flowMessage.SamplingRate = uint64(flowSample.SamplingRate)
		flowMessage.SourceIdType = flowSample.Header.SourceIDType
		flowMessage.SourceIdIndex = flowSample.Header.SourceIDIndex
		flowMessage.InIf = flowSample.Input
		flowMessage.OutIf = flowSample.Output
	case sflow.ExpandedFlowSample:
		records = flowSample.Records
		flowMessage.SamplingRate = uint64(flowSample.SamplingRate)
		flowMessage.SourceIdType = flowSample.Header.SourceIDType
		flowMessage.SourceIdIndex = flowSample.Header.SourceIDIndex
		flowMessage.InIf = flowSample.InputIfValue
		flowMessage.OutIf = flowSample.OutputIfValue
	}

	flowMessage.Packets = 1
	for _, record := range records {
		switch recordData := record.Data.(type) {
		case sflow.SampledHeader:
			flowMessage.Bytes = uint64(recordData.FrameLength)
			if err := ParseSampledHeader(flowMessage, &recordData); err != nil && headerErr == nil {
				headerErr = err
			}
		case sflow.SampledIPv4:
			flowMessage.SrcAddr = recordData.SrcIP
			flowMessage.DstAddr = recordData.DstIP
			flowMessage.Bytes = uint64(recordData.Length)
			flowMessage.Proto = recordData.Protocol
			flowMessage.SrcPort = recordData.SrcPort
			flowMessage.DstPort = recordData.DstPort
			flowMessage.TcpFlags = recordData.TcpFlags
			flowMessage.IpTos = recordData.Tos
			flowMessage.Etype = ETYPE_IPV4
		case sflow.SampledIPv6:
			flowMessage.SrcAddr = recordData.SrcIP
			flowMessage.DstAddr = recordData.DstIP
			flowMessage.Bytes = uint64(recordData.Length)
			flowMessage.Proto = recordData.Protocol
			flowMessage.SrcPort = recordData.SrcPort
			flowMessage.DstPort = recordData.DstPort
			flowMessage.TcpFlags = recordData.TcpFlags
			flowMessage.IpTos = recordData.Priority
			flowMessage.Etype = ETYPE_IPV6
		case sflow.ExtendedRouter:
			flowMessage.NextHop = recordData.NextHop
			flowMessage.SrcNet = recordData.SrcMaskLen
			flowMessage.DstNet = recordData.DstMaskLen
		case sflow.ExtendedGateway:
			flowMessage.BgpNextHop = recordData.NextHop
			flowMessage.BgpCommunities = recordData.Communities
			flowMessage.AsPath = flattenASPath(recordData.ASPath)
			if len(flowMessage.AsPath) > 0 {
				flowMessage.DstAs = flowMessage.AsPath[len(flowMessage.AsPath)-1]
				flowMessage.NextHopAs = flowMessage.AsPath[0]
			} else {
				flowMessage.DstAs = recordData.AS
			}
			if recordData.SrcAS > 0 {
				flowMessage.SrcAs = recordData.SrcAS
			} else {
				flowMessage.SrcAs = recordData.AS
			}
		case sflow.ExtendedSwitch:
			flowMessage.SrcVlan = recordData.SrcVlan
			flowMessage.DstVlan = recordData.DstVlan
		}
	}
	return headerErr
}

// ProcessMessageSFlow converts every flow sample of a datagram. Counter
// samples carry no flow and are skipped. Every flow sample yields a
// message; the first sample error is returned with the full set.
func ProcessMessageSFlow(dg *sflow.Datagram) ([]*FlowMessage, error) {
	flowSamples := GetSFlowFlowSamples(dg)
	flowMessageSet := make([]*FlowMessage, 0, len(flowSamples))
	var firstErr error
	for _, flowSample := range flowSamples {
		fmsg := &FlowMessage{
			SequenceNum:    dg.SequenceNumber,
			SamplerAddress: dg.AgentAddress,
		}
		if err := SearchSFlowSample(fmsg, flowSample); err != nil && firstErr == nil {
			firstErr = err
		}
		flowMessageSet = append(flowMessageSet, fmsg)
	}
	return flowMessageSet, firstErr
}
