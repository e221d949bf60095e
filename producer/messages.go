package producer

import (
	"net/netip"

	"github.com/netsampler/sflowparser/decoders/utils"
)

// FlowMessage is the flat record produced for every sampled packet.
type FlowMessage struct {
	Type           string     `json:"type"`
	TimeReceivedNs uint64     `json:"time_received_ns"`
	SequenceNum    uint32     `json:"sequence_num"`
	SamplingRate   uint64     `json:"sampling_rate"`
	SamplerAddress netip.Addr `json:"sampler_address"`

	SourceIdType  uint32 `json:"source_id_type"`
	SourceIdIndex uint32 `json:"source_id_index"`

	InIf  uint32 `json:"in_if"`
	OutIf uint32 `json:"out_if"`

	Bytes   uint64 `json:"bytes"`
	Packets uint64 `json:"packets"`

	SrcMac utils.MacAddress `json:"src_mac"`
	DstMac utils.MacAddress `json:"dst_mac"`
	Etype  uint32           `json:"etype"`

	VlanId    uint32   `json:"vlan_id"`
	SrcVlan   uint32   `json:"src_vlan"`
	DstVlan   uint32   `json:"dst_vlan"`
	MplsLabel []uint32 `json:"mpls_label"`
	MplsTtl   []uint32 `json:"mpls_ttl"`

	SrcAddr        netip.Addr `json:"src_addr"`
	DstAddr        netip.Addr `json:"dst_addr"`
	Proto          uint32     `json:"proto"`
	IpTos          uint32     `json:"ip_tos"`
	IpTtl          uint32     `json:"ip_ttl"`
	Ipv6FlowLabel  uint32     `json:"ipv6_flow_label"`
	FragmentId     uint32     `json:"fragment_id"`
	FragmentOffset uint32     `json:"fragment_offset"`

	SrcPort  uint32 `json:"src_port"`
	DstPort  uint32 `json:"dst_port"`
	TcpFlags uint32 `json:"tcp_flags"`
	IcmpType uint32 `json:"icmp_type"`
	IcmpCode uint32 `json:"icmp_code"`

	NextHop netip.Addr `json:"next_hop"`
	SrcNet  uint32     `json:"src_net"`
	DstNet  uint32     `json:"dst_net"`

	BgpNextHop     netip.Addr `json:"bgp_next_hop"`
	BgpCommunities []uint32   `json:"bgp_communities"`
	AsPath         []uint32   `json:"as_path"`
	SrcAs          uint32     `json:"src_as"`
	DstAs          uint32     `json:"dst_as"`
	NextHopAs      uint32     `json:"next_hop_as"`

	SrcCountry string `json:"src_country,omitempty"`
	DstCountry string `json:"dst_country,omitempty"`
}
