// Package protobuf writes flow messages in the protobuf encoding described
// by flow.proto.
package protobuf

import (
	"flag"
	"fmt"
	"net/netip"

	"github.com/golang/protobuf/proto"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/netsampler/sflowparser/format"
	"github.com/netsampler/sflowparser/format/common"
	"github.com/netsampler/sflowparser/producer"
)

const (
	FLOWUNKNOWN = 0
	SFLOW_5     = 1
)

var flowTypes = map[string]uint64{
	producer.FLOW_TYPE_SFLOW_5: SFLOW_5,
}

type ProtobufDriver struct {
	fixedLen      bool
	convertToIPV6 bool
}

func (d *ProtobufDriver) Prepare() error {
	common.HashFlag()
	flag.BoolVar(&d.fixedLen, "format.protobuf.fixedlen", false, "Prefix the protobuf with message length")
	flag.BoolVar(&d.convertToIPV6, "format.protobuf.toipv6", false, "Convert all addresses to IPV6 format on the wire")
	return nil
}

func (d *ProtobufDriver) Init() error {
	return common.ManualHashInit()
}

// ProducerMethods restricts the driver to flow messages.
func (d *ProtobufDriver) ProducerMethods() []string {
	return []string{"sample"}
}

func (d *ProtobufDriver) Format(data interface{}) ([]byte, []byte, error) {
	msg, ok := data.(*producer.FlowMessage)
	if !ok {
		return nil, nil, fmt.Errorf("message is not a flow message")
	}
	key := common.HashMessageLocal(msg)
	b := MarshalFlowMessage(msg, d.convertToIPV6)
	if !d.fixedLen {
		return []byte(key), b, nil
	}
	return []byte(key), append(proto.EncodeVarint(uint64(len(b))), b...), nil
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendAddr(b []byte, num protowire.Number, addr netip.Addr, toIPv6 bool) []byte {
	if !addr.IsValid() {
		return b
	}
	if toIPv6 {
		v16 := addr.As16()
		return appendBytes(b, num, v16[:])
	}
	return appendBytes(b, num, addr.AsSlice())
}

func appendPacked(b []byte, num protowire.Number, values []uint32) []byte {
	if len(values) == 0 {
		return b
	}
	var packed []byte
	for _, v := range values {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	return appendBytes(b, num, packed)
}

// MarshalFlowMessage encodes a flow message. Fields with a zero value are
// omitted, as in proto3.
func MarshalFlowMessage(m *producer.FlowMessage, toIPv6 bool) []byte {
	var b []byte
	b = appendVarint(b, 1, flowTypes[m.Type])
	b = appendVarint(b, 3, m.SamplingRate)
	b = appendVarint(b, 4, uint64(m.SequenceNum))
	b = appendAddr(b, 6, m.SrcAddr, toIPv6)
	b = appendAddr(b, 7, m.DstAddr, toIPv6)
	b = appendVarint(b, 9, m.Bytes)
	b = appendVarint(b, 10, m.Packets)
	b = appendAddr(b, 11, m.SamplerAddress, toIPv6)
	b = appendAddr(b, 12, m.NextHop, toIPv6)
	b = appendVarint(b, 13, uint64(m.NextHopAs))
	b = appendVarint(b, 14, uint64(m.SrcAs))
	b = appendVarint(b, 15, uint64(m.DstAs))
	b = appendVarint(b, 16, uint64(m.SrcNet))
	b = appendVarint(b, 17, uint64(m.DstNet))
	b = appendVarint(b, 18, uint64(m.InIf))
	b = appendVarint(b, 19, uint64(m.OutIf))
	b = appendVarint(b, 20, uint64(m.Proto))
	b = appendVarint(b, 21, uint64(m.SrcPort))
	b = appendVarint(b, 22, uint64(m.DstPort))
	b = appendVarint(b, 23, uint64(m.IpTos))
	b = appendVarint(b, 25, uint64(m.IpTtl))
	b = appendVarint(b, 26, uint64(m.TcpFlags))
	b = appendVarint(b, 27, m.SrcMac.Uint64())
	b = appendVarint(b, 28, m.DstMac.Uint64())
	b = appendVarint(b, 29, uint64(m.VlanId))
	b = appendVarint(b, 30, uint64(m.Etype))
	b = appendVarint(b, 31, uint64(m.IcmpType))
	b = appendVarint(b, 32, uint64(m.IcmpCode))
	b = appendVarint(b, 33, uint64(m.SrcVlan))
	b = appendVarint(b, 34, uint64(m.DstVlan))
	b = appendVarint(b, 35, uint64(m.FragmentId))
	b = appendVarint(b, 36, uint64(m.FragmentOffset))
	b = appendVarint(b, 37, uint64(m.Ipv6FlowLabel))
	b = appendPacked(b, 80, m.MplsTtl)
	b = appendPacked(b, 81, m.MplsLabel)
	b = appendAddr(b, 100, m.BgpNextHop, toIPv6)
	b = appendPacked(b, 101, m.BgpCommunities)
	b = appendPacked(b, 102, m.AsPath)
	b = appendVarint(b, 110, m.TimeReceivedNs)
	b = appendVarint(b, 200, uint64(m.SourceIdType))
	b = appendVarint(b, 201, uint64(m.SourceIdIndex))
	b = appendBytes(b, 202, []byte(m.SrcCountry))
	b = appendBytes(b, 203, []byte(m.DstCountry))
	return b
}

func init() {
	d := &ProtobufDriver{}
	format.RegisterFormatDriver("pb", d)
}
