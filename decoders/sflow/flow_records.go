package sflow

import (
	"bytes"
	"net/netip"

	"github.com/netsampler/sflowparser/decoders/utils"
)

const (
	FORMAT_EXT_SWITCH  = 1001
	FORMAT_EXT_ROUTER  = 1002
	FORMAT_EXT_GATEWAY = 1003
	FORMAT_RAW_PKT     = 1
	FORMAT_ETH         = 2
	FORMAT_IPV4        = 3
	FORMAT_IPV6        = 4
)

// Header protocols of a sampled header record.
const (
	HEADER_PROTOCOL_ETHERNET = 1
	HEADER_PROTOCOL_IPV4     = 11
	HEADER_PROTOCOL_IPV6     = 12
)

type SampledHeader struct {
	Protocol       uint32 `json:"protocol"`
	FrameLength    uint32 `json:"frame-length"`
	Stripped       uint32 `json:"stripped"`
	OriginalLength uint32 `json:"original-length"`
	HeaderData     []byte `json:"header-data"`
}

type SampledEthernet struct {
	Length  uint32           `json:"length"`
	SrcMac  utils.MacAddress `json:"src-mac"`
	_       [2]byte
	DstMac  utils.MacAddress `json:"dst-mac"`
	_       [2]byte
	EthType uint32 `json:"eth-type"`
}

type SampledIPv4 struct {
	Length   uint32     `json:"length"`
	Protocol uint32     `json:"protocol"`
	SrcIP    netip.Addr `json:"src-ip"`
	DstIP    netip.Addr `json:"dst-ip"`
	SrcPort  uint32     `json:"src-port"`
	DstPort  uint32     `json:"dst-port"`
	TcpFlags uint32     `json:"tcp-flags"`
	Tos      uint32     `json:"tos"`
}

type SampledIPv6 struct {
	Length   uint32     `json:"length"`
	Protocol uint32     `json:"protocol"`
	SrcIP    netip.Addr `json:"src-ip"`
	DstIP    netip.Addr `json:"dst-ip"`
	SrcPort  uint32     `json:"src-port"`
	DstPort  uint32     `json:"dst-port"`
	TcpFlags uint32     `json:"tcp-flags"`
	Priority uint32     `json:"priority"`
}

type ExtendedSwitch struct {
	SrcVlan     uint32 `json:"src-vlan"`
	SrcPriority uint32 `json:"src-priority"`
	DstVlan     uint32 `json:"dst-vlan"`
	DstPriority uint32 `json:"dst-priority"`
}

type ExtendedRouter struct {
	NextHop    netip.Addr `json:"next-hop"`
	SrcMaskLen uint32     `json:"src-mask-len"`
	DstMaskLen uint32     `json:"dst-mask-len"`
}

// ASPathSegment is one AS_SET (1) or AS_SEQUENCE (2) of a BGP path.
type ASPathSegment struct {
	Type   uint32   `json:"type"`
	Values []uint32 `json:"values"`
}

type ExtendedGateway struct {
	NextHop     netip.Addr      `json:"next-hop"`
	AS          uint32          `json:"as"`
	SrcAS       uint32          `json:"src-as"`
	SrcPeerAS   uint32          `json:"src-peer-as"`
	ASPath      []ASPathSegment `json:"as-path"`
	Communities []uint32        `json:"communities"`
}

type ExtendedUser struct {
	SrcCharset uint32 `json:"src-charset"`
	SrcUser    string `json:"src-user"`
	DstCharset uint32 `json:"dst-charset"`
	DstUser    string `json:"dst-user"`
}

type ExtendedURL struct {
	Direction uint32 `json:"direction"`
	URL       string `json:"url"`
	Host      string `json:"host"`
}

type ExtendedMPLS struct {
	NextHop       netip.Addr `json:"next-hop"`
	InLabelStack  []uint32   `json:"in-label-stack"`
	OutLabelStack []uint32   `json:"out-label-stack"`
}

type ExtendedNAT struct {
	SrcAddress netip.Addr `json:"src-address"`
	DstAddress netip.Addr `json:"dst-address"`
}

type ExtendedMPLSTunnel struct {
	TunnelLSPName string `json:"tunnel-lsp-name"`
	TunnelID      uint32 `json:"tunnel-id"`
	TunnelCos     uint32 `json:"tunnel-cos"`
}

type ExtendedMPLSVC struct {
	VCInstanceName string `json:"vc-instance-name"`
	VLLVCID        uint32 `json:"vll-vc-id"`
	VCLabelCos     uint32 `json:"vc-label-cos"`
}

type ExtendedMPLSFTN struct {
	Descr string `json:"descr"`
	Mask  uint32 `json:"mask"`
}

type ExtendedMPLSLDPFEC struct {
	AddrPrefixLength uint32 `json:"addr-prefix-length"`
}

type ExtendedVlanTunnel struct {
	Stack []uint32 `json:"stack"`
}

type Extended80211Payload struct {
	CipherSuite uint32 `json:"cipher-suite"`
	Data        []byte `json:"data"`
}

// The BSSID of the 802.11 records is not padded on the wire.
type Extended80211Rx struct {
	SSID             string           `json:"ssid"`
	BSSID            utils.MacAddress `json:"bssid"`
	Version          uint32           `json:"version"`
	Channel          uint32           `json:"channel"`
	Speed            uint64           `json:"speed"`
	RSNI             uint32           `json:"rsni"`
	RCPI             uint32           `json:"rcpi"`
	PacketDurationUs uint32           `json:"packet-duration-us"`
}

type Extended80211Tx struct {
	SSID              string           `json:"ssid"`
	BSSID             utils.MacAddress `json:"bssid"`
	Version           uint32           `json:"version"`
	Transmissions     uint32           `json:"transmissions"`
	PacketDurationUs  uint32           `json:"packet-duration-us"`
	RetransDurationUs uint32           `json:"retrans-duration-us"`
	Channel           uint32           `json:"channel"`
	Speed             uint64           `json:"speed"`
	Power             uint32           `json:"power"`
}

type ExtendedL2TunnelEgress struct{ SampledEthernet }
type ExtendedL2TunnelIngress struct{ SampledEthernet }
type ExtendedIPv4TunnelEgress struct{ SampledIPv4 }
type ExtendedIPv4TunnelIngress struct{ SampledIPv4 }
type ExtendedIPv6TunnelEgress struct{ SampledIPv6 }
type ExtendedIPv6TunnelIngress struct{ SampledIPv6 }

type ExtendedDecapsulateEgress struct {
	InnerHeaderOffset uint32 `json:"inner-header-offset"`
}

type ExtendedDecapsulateIngress struct {
	InnerHeaderOffset uint32 `json:"inner-header-offset"`
}

type ExtendedVNIEgress struct {
	VNI uint32 `json:"vni"`
}

type ExtendedVNIIngress struct {
	VNI uint32 `json:"vni"`
}

type ExtendedEgressQueue struct {
	Queue uint32 `json:"queue"`
}

type ExtendedACL struct {
	Number    uint32 `json:"number"`
	Name      string `json:"name"`
	Direction uint32 `json:"direction"`
}

type ExtendedFunction struct {
	Symbol string `json:"symbol"`
}

type ExtendedTransit struct {
	TransitDelayNs uint32 `json:"transit-delay-ns"`
}

type ExtendedQueue struct {
	QueueDepth uint32 `json:"queue-depth"`
}

type ExtendedSocketIPv4 struct {
	Protocol   uint32     `json:"protocol"`
	LocalIP    netip.Addr `json:"local-ip"`
	RemoteIP   netip.Addr `json:"remote-ip"`
	LocalPort  uint32     `json:"local-port"`
	RemotePort uint32     `json:"remote-port"`
}

type ExtendedSocketIPv6 struct {
	Protocol   uint32     `json:"protocol"`
	LocalIP    netip.Addr `json:"local-ip"`
	RemoteIP   netip.Addr `json:"remote-ip"`
	LocalPort  uint32     `json:"local-port"`
	RemotePort uint32     `json:"remote-port"`
}

type ExtendedProxySocketIPv4 struct{ ExtendedSocketIPv4 }
type ExtendedProxySocketIPv6 struct{ ExtendedSocketIPv6 }

type JVMRuntime struct {
	VMName    string `json:"vm-name"`
	VMVendor  string `json:"vm-vendor"`
	VMVersion string `json:"vm-version"`
}

type MemcacheOperation struct {
	Protocol   uint32 `json:"protocol"`
	Cmd        uint32 `json:"cmd"`
	Key        string `json:"key"`
	NKeys      uint32 `json:"nkeys"`
	ValueBytes uint32 `json:"value-bytes"`
	DurationUs uint32 `json:"duration-us"`
	Status     uint32 `json:"status"`
}

type AppOperation struct {
	Context     string `json:"context"`
	StatusDescr string `json:"status-descr"`
	ReqBytes    uint64 `json:"req-bytes"`
	RespBytes   uint64 `json:"resp-bytes"`
	DurationUs  uint32 `json:"duration-us"`
	Status      uint32 `json:"status"`
}

type HTTPRequest struct {
	Method     uint32 `json:"method"`
	Protocol   uint32 `json:"protocol"`
	URI        string `json:"uri"`
	Host       string `json:"host"`
	Referer    string `json:"referer"`
	UserAgent  string `json:"user-agent"`
	XFF        string `json:"xff"`
	AuthUser   string `json:"auth-user"`
	MimeType   string `json:"mime-type"`
	ReqBytes   uint64 `json:"req-bytes"`
	RespBytes  uint64 `json:"resp-bytes"`
	DurationUs uint32 `json:"duration-us"`
	Status     uint32 `json:"status"`
}

type ExtendedProxyRequest struct {
	URI  string `json:"uri"`
	Host string `json:"host"`
}

var flowRecords = newRecordTable(map[RecordKey]recordFormat{
	{0, FORMAT_RAW_PKT}:     customRecord("raw_packet_header", decodeSampledHeader),
	{0, FORMAT_ETH}:         fixedRecord[SampledEthernet]("sampled_ethernet"),
	{0, FORMAT_IPV4}:        customRecord("sampled_ipv4", decodeSampledIPv4),
	{0, FORMAT_IPV6}:        customRecord("sampled_ipv6", decodeSampledIPv6),
	{0, FORMAT_EXT_SWITCH}:  fixedRecord[ExtendedSwitch]("extended_switch"),
	{0, FORMAT_EXT_ROUTER}:  customRecord("extended_router", decodeExtendedRouter),
	{0, FORMAT_EXT_GATEWAY}: customRecord("extended_gateway", decodeExtendedGateway),
	{0, 1004}:               customRecord("extended_user", decodeExtendedUser),
	{0, 1005}:               customRecord("extended_url", decodeExtendedURL),
	{0, 1006}:               customRecord("extended_mpls", decodeExtendedMPLS),
	{0, 1007}:               customRecord("extended_nat", decodeExtendedNAT),
	{0, 1008}:               customRecord("extended_mpls_tunnel", decodeExtendedMPLSTunnel),
	{0, 1009}:               customRecord("extended_mpls_vc", decodeExtendedMPLSVC),
	{0, 1010}:               customRecord("extended_mpls_ftn", decodeExtendedMPLSFTN),
	{0, 1011}:               fixedRecord[ExtendedMPLSLDPFEC]("extended_mpls_ldp_fec"),
	{0, 1012}:               customRecord("extended_vlan_tunnel", decodeExtendedVlanTunnel),
	{0, 1013}:               customRecord("extended_80211_payload", decodeExtended80211Payload),
	{0, 1014}:               customRecord("extended_80211_rx", decodeExtended80211Rx),
	{0, 1015}:               customRecord("extended_80211_tx", decodeExtended80211Tx),
	{0, 1021}:               fixedRecord[ExtendedL2TunnelEgress]("extended_l2_tunnel_egress"),
	{0, 1022}:               fixedRecord[ExtendedL2TunnelIngress]("extended_l2_tunnel_ingress"),
	{0, 1023}: customRecord("extended_ipv4_tunnel_egress", func(c utils.Cursor) (ExtendedIPv4TunnelEgress, error) {
		v, err := decodeSampledIPv4(c)
		return ExtendedIPv4TunnelEgress{v}, err
	}),
	{0, 1024}: customRecord("extended_ipv4_tunnel_ingress", func(c utils.Cursor) (ExtendedIPv4TunnelIngress, error) {
		v, err := decodeSampledIPv4(c)
		return ExtendedIPv4TunnelIngress{v}, err
	}),
	{0, 1025}: customRecord("extended_ipv6_tunnel_egress", func(c utils.Cursor) (ExtendedIPv6TunnelEgress, error) {
		v, err := decodeSampledIPv6(c)
		return ExtendedIPv6TunnelEgress{v}, err
	}),
	{0, 1026}: customRecord("extended_ipv6_tunnel_ingress", func(c utils.Cursor) (ExtendedIPv6TunnelIngress, error) {
		v, err := decodeSampledIPv6(c)
		return ExtendedIPv6TunnelIngress{v}, err
	}),
	{0, 1027}: fixedRecord[ExtendedDecapsulateEgress]("extended_decapsulate_egress"),
	{0, 1028}: fixedRecord[ExtendedDecapsulateIngress]("extended_decapsulate_ingress"),
	{0, 1029}: fixedRecord[ExtendedVNIEgress]("extended_vni_egress"),
	{0, 1030}: fixedRecord[ExtendedVNIIngress]("extended_vni_ingress"),
	{0, 1036}: fixedRecord[ExtendedEgressQueue]("extended_egress_queue"),
	{0, 1037}: customRecord("extended_acl", decodeExtendedACL),
	{0, 1038}: customRecord("extended_function", decodeExtendedFunction),
	{0, 1039}: fixedRecord[ExtendedTransit]("extended_transit"),
	{0, 1040}: fixedRecord[ExtendedQueue]("extended_queue"),
	{0, 2100}: customRecord("extended_socket_ipv4", decodeExtendedSocketIPv4),
	{0, 2101}: customRecord("extended_socket_ipv6", decodeExtendedSocketIPv6),
	{0, 2102}: customRecord("extended_proxy_socket_ipv4", func(c utils.Cursor) (ExtendedProxySocketIPv4, error) {
		v, err := decodeExtendedSocketIPv4(c)
		return ExtendedProxySocketIPv4{v}, err
	}),
	{0, 2103}: customRecord("extended_proxy_socket_ipv6", func(c utils.Cursor) (ExtendedProxySocketIPv6, error) {
		v, err := decodeExtendedSocketIPv6(c)
		return ExtendedProxySocketIPv6{v}, err
	}),
	{0, 2105}: customRecord("jvm_runtime", decodeJVMRuntime),
	{0, 2200}: customRecord("memcache_operation", decodeMemcacheOperation),
	{0, 2202}: customRecord("app_operation", decodeAppOperation),
	{0, 2206}: customRecord("http_request", decodeHTTPRequest),
	{0, 2207}: customRecord("extended_proxy_request", decodeExtendedProxyRequest),
})

func decodeSampledHeader(c utils.Cursor) (SampledHeader, error) {
	var v SampledHeader
	r := newFieldReader(c)
	r.fixed(&v.Protocol, &v.FrameLength, &v.Stripped, &v.OriginalLength)
	if r.err != nil {
		return v, r.err
	}
	v.HeaderData, _, r.err = readXDROpaqueWithLength(r.c, v.OriginalLength)
	return v, r.err
}

func (v SampledHeader) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.Protocol, v.FrameLength, v.Stripped)
	w.opaque(v.HeaderData)
	return w.err
}

func decodeSampledIPv4(c utils.Cursor) (SampledIPv4, error) {
	var v SampledIPv4
	r := newFieldReader(c)
	r.fixed(&v.Length, &v.Protocol)
	v.SrcIP = r.ipv4()
	v.DstIP = r.ipv4()
	r.fixed(&v.SrcPort, &v.DstPort, &v.TcpFlags, &v.Tos)
	return v, r.err
}

func (v SampledIPv4) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.Length, v.Protocol)
	w.ipv4(v.SrcIP)
	w.ipv4(v.DstIP)
	w.fixed(v.SrcPort, v.DstPort, v.TcpFlags, v.Tos)
	return w.err
}

func decodeSampledIPv6(c utils.Cursor) (SampledIPv6, error) {
	var v SampledIPv6
	r := newFieldReader(c)
	r.fixed(&v.Length, &v.Protocol)
	v.SrcIP = r.ipv6()
	v.DstIP = r.ipv6()
	r.fixed(&v.SrcPort, &v.DstPort, &v.TcpFlags, &v.Priority)
	return v, r.err
}

func (v SampledIPv6) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.Length, v.Protocol)
	w.ipv6(v.SrcIP)
	w.ipv6(v.DstIP)
	w.fixed(v.SrcPort, v.DstPort, v.TcpFlags, v.Priority)
	return w.err
}

func decodeExtendedRouter(c utils.Cursor) (ExtendedRouter, error) {
	var v ExtendedRouter
	r := newFieldReader(c)
	v.NextHop = r.addr()
	r.fixed(&v.SrcMaskLen, &v.DstMaskLen)
	return v, r.err
}

func (v ExtendedRouter) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.addr(v.NextHop)
	w.fixed(v.SrcMaskLen, v.DstMaskLen)
	return w.err
}

func decodeExtendedGateway(c utils.Cursor) (ExtendedGateway, error) {
	var v ExtendedGateway
	r := newFieldReader(c)
	v.NextHop = r.addr()
	r.fixed(&v.AS, &v.SrcAS, &v.SrcPeerAS)

	// a segment is at least its type and its length
	n, size := r.count(8)
	v.ASPath = make([]ASPathSegment, 0, size)
	for i := uint32(0); i < n && r.err == nil; i++ {
		var seg ASPathSegment
		r.fixed(&seg.Type)
		seg.Values = r.uint32s()
		v.ASPath = append(v.ASPath, seg)
	}
	v.Communities = r.uint32s()
	return v, r.err
}

func (v ExtendedGateway) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.addr(v.NextHop)
	w.fixed(v.AS, v.SrcAS, v.SrcPeerAS, uint32(len(v.ASPath)))
	for _, seg := range v.ASPath {
		w.fixed(seg.Type)
		w.uint32s(seg.Values)
	}
	w.uint32s(v.Communities)
	return w.err
}

func decodeExtendedUser(c utils.Cursor) (ExtendedUser, error) {
	var v ExtendedUser
	r := newFieldReader(c)
	r.fixed(&v.SrcCharset)
	v.SrcUser = r.str()
	r.fixed(&v.DstCharset)
	v.DstUser = r.str()
	return v, r.err
}

func (v ExtendedUser) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.SrcCharset)
	w.str(v.SrcUser)
	w.fixed(v.DstCharset)
	w.str(v.DstUser)
	return w.err
}

func decodeExtendedURL(c utils.Cursor) (ExtendedURL, error) {
	var v ExtendedURL
	r := newFieldReader(c)
	r.fixed(&v.Direction)
	v.URL = r.str()
	v.Host = r.str()
	return v, r.err
}

func (v ExtendedURL) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.Direction)
	w.str(v.URL)
	w.str(v.Host)
	return w.err
}

func decodeExtendedMPLS(c utils.Cursor) (ExtendedMPLS, error) {
	var v ExtendedMPLS
	r := newFieldReader(c)
	v.NextHop = r.addr()
	v.InLabelStack = r.uint32s()
	v.OutLabelStack = r.uint32s()
	return v, r.err
}

func (v ExtendedMPLS) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.addr(v.NextHop)
	w.uint32s(v.InLabelStack)
	w.uint32s(v.OutLabelStack)
	return w.err
}

func decodeExtendedNAT(c utils.Cursor) (ExtendedNAT, error) {
	var v ExtendedNAT
	r := newFieldReader(c)
	v.SrcAddress = r.addr()
	v.DstAddress = r.addr()
	return v, r.err
}

func (v ExtendedNAT) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.addr(v.SrcAddress)
	w.addr(v.DstAddress)
	return w.err
}

func decodeExtendedMPLSTunnel(c utils.Cursor) (ExtendedMPLSTunnel, error) {
	var v ExtendedMPLSTunnel
	r := newFieldReader(c)
	v.TunnelLSPName = r.str()
	r.fixed(&v.TunnelID, &v.TunnelCos)
	return v, r.err
}

func (v ExtendedMPLSTunnel) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.TunnelLSPName)
	w.fixed(v.TunnelID, v.TunnelCos)
	return w.err
}

func decodeExtendedMPLSVC(c utils.Cursor) (ExtendedMPLSVC, error) {
	var v ExtendedMPLSVC
	r := newFieldReader(c)
	v.VCInstanceName = r.str()
	r.fixed(&v.VLLVCID, &v.VCLabelCos)
	return v, r.err
}

func (v ExtendedMPLSVC) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.VCInstanceName)
	w.fixed(v.VLLVCID, v.VCLabelCos)
	return w.err
}

func decodeExtendedMPLSFTN(c utils.Cursor) (ExtendedMPLSFTN, error) {
	var v ExtendedMPLSFTN
	r := newFieldReader(c)
	v.Descr = r.str()
	r.fixed(&v.Mask)
	return v, r.err
}

func (v ExtendedMPLSFTN) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.Descr)
	w.fixed(v.Mask)
	return w.err
}

func decodeExtendedVlanTunnel(c utils.Cursor) (ExtendedVlanTunnel, error) {
	stack, _, err := readUint32List(c)
	return ExtendedVlanTunnel{Stack: stack}, err
}

func (v ExtendedVlanTunnel) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.uint32s(v.Stack)
	return w.err
}

func decodeExtended80211Payload(c utils.Cursor) (Extended80211Payload, error) {
	var v Extended80211Payload
	r := newFieldReader(c)
	r.fixed(&v.CipherSuite)
	v.Data = r.opaque()
	return v, r.err
}

func (v Extended80211Payload) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.CipherSuite)
	w.opaque(v.Data)
	return w.err
}

func decodeExtended80211Rx(c utils.Cursor) (Extended80211Rx, error) {
	var v Extended80211Rx
	r := newFieldReader(c)
	v.SSID = r.str()
	r.fixed(&v.BSSID, &v.Version, &v.Channel, &v.Speed, &v.RSNI, &v.RCPI, &v.PacketDurationUs)
	return v, r.err
}

func (v Extended80211Rx) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.SSID)
	w.fixed(v.BSSID, v.Version, v.Channel, v.Speed, v.RSNI, v.RCPI, v.PacketDurationUs)
	return w.err
}

func decodeExtended80211Tx(c utils.Cursor) (Extended80211Tx, error) {
	var v Extended80211Tx
	r := newFieldReader(c)
	v.SSID = r.str()
	r.fixed(&v.BSSID, &v.Version, &v.Transmissions, &v.PacketDurationUs, &v.RetransDurationUs,
		&v.Channel, &v.Speed, &v.Power)
	return v, r.err
}

func (v Extended80211Tx) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.SSID)
	w.fixed(v.BSSID, v.Version, v.Transmissions, v.PacketDurationUs, v.RetransDurationUs,
		v.Channel, v.Speed, v.Power)
	return w.err
}

func decodeExtendedACL(c utils.Cursor) (ExtendedACL, error) {
	var v ExtendedACL
	r := newFieldReader(c)
	r.fixed(&v.Number)
	v.Name = r.str()
	r.fixed(&v.Direction)
	return v, r.err
}

func (v ExtendedACL) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.Number)
	w.str(v.Name)
	w.fixed(v.Direction)
	return w.err
}

func decodeExtendedFunction(c utils.Cursor) (ExtendedFunction, error) {
	symbol, _, err := readXDRString(c)
	return ExtendedFunction{Symbol: symbol}, err
}

func (v ExtendedFunction) encodeRecord(buf *bytes.Buffer) error {
	return utils.WriteString(buf, v.Symbol)
}

func decodeExtendedSocketIPv4(c utils.Cursor) (ExtendedSocketIPv4, error) {
	var v ExtendedSocketIPv4
	r := newFieldReader(c)
	r.fixed(&v.Protocol)
	v.LocalIP = r.ipv4()
	v.RemoteIP = r.ipv4()
	r.fixed(&v.LocalPort, &v.RemotePort)
	return v, r.err
}

func (v ExtendedSocketIPv4) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.Protocol)
	w.ipv4(v.LocalIP)
	w.ipv4(v.RemoteIP)
	w.fixed(v.LocalPort, v.RemotePort)
	return w.err
}

func decodeExtendedSocketIPv6(c utils.Cursor) (ExtendedSocketIPv6, error) {
	var v ExtendedSocketIPv6
	r := newFieldReader(c)
	r.fixed(&v.Protocol)
	v.LocalIP = r.ipv6()
	v.RemoteIP = r.ipv6()
	r.fixed(&v.LocalPort, &v.RemotePort)
	return v, r.err
}

func (v ExtendedSocketIPv6) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.Protocol)
	w.ipv6(v.LocalIP)
	w.ipv6(v.RemoteIP)
	w.fixed(v.LocalPort, v.RemotePort)
	return w.err
}

func decodeJVMRuntime(c utils.Cursor) (JVMRuntime, error) {
	var v JVMRuntime
	r := newFieldReader(c)
	v.VMName = r.str()
	v.VMVendor = r.str()
	v.VMVersion = r.str()
	return v, r.err
}

func (v JVMRuntime) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.VMName)
	w.str(v.VMVendor)
	w.str(v.VMVersion)
	return w.err
}

func decodeMemcacheOperation(c utils.Cursor) (MemcacheOperation, error) {
	var v MemcacheOperation
	r := newFieldReader(c)
	r.fixed(&v.Protocol, &v.Cmd)
	v.Key = r.str()
	r.fixed(&v.NKeys, &v.ValueBytes, &v.DurationUs, &v.Status)
	return v, r.err
}

func (v MemcacheOperation) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.Protocol, v.Cmd)
	w.str(v.Key)
	w.fixed(v.NKeys, v.ValueBytes, v.DurationUs, v.Status)
	return w.err
}

func decodeAppOperation(c utils.Cursor) (AppOperation, error) {
	var v AppOperation
	r := newFieldReader(c)
	v.Context = r.str()
	v.StatusDescr = r.str()
	r.fixed(&v.ReqBytes, &v.RespBytes, &v.DurationUs, &v.Status)
	return v, r.err
}

func (v AppOperation) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.Context)
	w.str(v.StatusDescr)
	w.fixed(v.ReqBytes, v.RespBytes, v.DurationUs, v.Status)
	return w.err
}

func decodeHTTPRequest(c utils.Cursor) (HTTPRequest, error) {
	var v HTTPRequest
	r := newFieldReader(c)
	r.fixed(&v.Method, &v.Protocol)
	v.URI = r.str()
	v.Host = r.str()
	v.Referer = r.str()
	v.UserAgent = r.str()
	v.XFF = r.str()
	v.AuthUser = r.str()
	v.MimeType = r.str()
	r.fixed(&v.ReqBytes, &v.RespBytes, &v.DurationUs, &v.Status)
	return v, r.err
}

func (v HTTPRequest) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.Method, v.Protocol)
	for _, s := range []string{v.URI, v.Host, v.Referer, v.UserAgent, v.XFF, v.AuthUser, v.MimeType} {
		w.str(s)
	}
	w.fixed(v.ReqBytes, v.RespBytes, v.DurationUs, v.Status)
	return w.err
}

func decodeExtendedProxyRequest(c utils.Cursor) (ExtendedProxyRequest, error) {
	var v ExtendedProxyRequest
	r := newFieldReader(c)
	v.URI = r.str()
	v.Host = r.str()
	return v, r.err
}

func (v ExtendedProxyRequest) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.URI)
	w.str(v.Host)
	return w.err
}
