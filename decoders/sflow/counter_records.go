package sflow

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"net/netip"

	"github.com/netsampler/sflowparser/decoders/utils"
)

const (
	FORMAT_IF_COUNTERS  = 1
	FORMAT_ETH_COUNTERS = 2
	FORMAT_VLAN         = 5

	// XenServer agents use their own enterprise for the VIF record.
	ENTERPRISE_XENSERVER = 4300
	FORMAT_XEN_VIF       = 2
)

type IfCounters struct {
	IfIndex            uint32 `json:"if-index"`
	IfType             uint32 `json:"if-type"`
	IfSpeed            uint64 `json:"if-speed"`
	IfDirection        uint32 `json:"if-direction"`
	IfStatus           uint32 `json:"if-status"`
	IfInOctets         uint64 `json:"if-in-octets"`
	IfInUcastPkts      uint32 `json:"if-in-ucast-pkts"`
	IfInMulticastPkts  uint32 `json:"if-in-multicast-pkts"`
	IfInBroadcastPkts  uint32 `json:"if-in-broadcast-pkts"`
	IfInDiscards       uint32 `json:"if-in-discards"`
	IfInErrors         uint32 `json:"if-in-errors"`
	IfInUnknownProtos  uint32 `json:"if-in-unknown-protos"`
	IfOutOctets        uint64 `json:"if-out-octets"`
	IfOutUcastPkts     uint32 `json:"if-out-ucast-pkts"`
	IfOutMulticastPkts uint32 `json:"if-out-multicast-pkts"`
	IfOutBroadcastPkts uint32 `json:"if-out-broadcast-pkts"`
	IfOutDiscards      uint32 `json:"if-out-discards"`
	IfOutErrors        uint32 `json:"if-out-errors"`
	IfPromiscuousMode  uint32 `json:"if-promiscuous-mode"`
}

type EthernetCounters struct {
	Dot3StatsAlignmentErrors           uint32 `json:"dot3-stats-alignment-errors"`
	Dot3StatsFCSErrors                 uint32 `json:"dot3-stats-fcs-errors"`
	Dot3StatsSingleCollisionFrames     uint32 `json:"dot3-stats-single-collision-frames"`
	Dot3StatsMultipleCollisionFrames   uint32 `json:"dot3-stats-multiple-collision-frames"`
	Dot3StatsSQETestErrors             uint32 `json:"dot3-stats-sqe-test-errors"`
	Dot3StatsDeferredTransmissions     uint32 `json:"dot3-stats-deferred-transmissions"`
	Dot3StatsLateCollisions            uint32 `json:"dot3-stats-late-collisions"`
	Dot3StatsExcessiveCollisions       uint32 `json:"dot3-stats-excessive-collisions"`
	Dot3StatsInternalMacTransmitErrors uint32 `json:"dot3-stats-internal-mac-transmit-errors"`
	Dot3StatsCarrierSenseErrors        uint32 `json:"dot3-stats-carrier-sense-errors"`
	Dot3StatsFrameTooLongs             uint32 `json:"dot3-stats-frame-too-longs"`
	Dot3StatsInternalMacReceiveErrors  uint32 `json:"dot3-stats-internal-mac-receive-errors"`
	Dot3StatsSymbolErrors              uint32 `json:"dot3-stats-symbol-errors"`
}

type TokenRingCounters struct {
	Dot5StatsLineErrors         uint32 `json:"dot5-stats-line-errors"`
	Dot5StatsBurstErrors        uint32 `json:"dot5-stats-burst-errors"`
	Dot5StatsACErrors           uint32 `json:"dot5-stats-ac-errors"`
	Dot5StatsAbortTransErrors   uint32 `json:"dot5-stats-abort-trans-errors"`
	Dot5StatsInternalErrors     uint32 `json:"dot5-stats-internal-errors"`
	Dot5StatsLostFrameErrors    uint32 `json:"dot5-stats-lost-frame-errors"`
	Dot5StatsReceiveCongestions uint32 `json:"dot5-stats-receive-congestions"`
	Dot5StatsFrameCopiedErrors  uint32 `json:"dot5-stats-frame-copied-errors"`
	Dot5StatsTokenErrors        uint32 `json:"dot5-stats-token-errors"`
	Dot5StatsSoftErrors         uint32 `json:"dot5-stats-soft-errors"`
	Dot5StatsHardErrors         uint32 `json:"dot5-stats-hard-errors"`
	Dot5StatsSignalLoss         uint32 `json:"dot5-stats-signal-loss"`
	Dot5StatsTransmitBeacons    uint32 `json:"dot5-stats-transmit-beacons"`
	Dot5StatsRecoverys          uint32 `json:"dot5-stats-recoverys"`
	Dot5StatsLobeWires          uint32 `json:"dot5-stats-lobe-wires"`
	Dot5StatsRemoves            uint32 `json:"dot5-stats-removes"`
	Dot5StatsSingles            uint32 `json:"dot5-stats-singles"`
	Dot5StatsFreqErrors         uint32 `json:"dot5-stats-freq-errors"`
}

type VGCounters struct {
	InHighPriorityFrames    uint32 `json:"in-high-priority-frames"`
	InHighPriorityOctets    uint64 `json:"in-high-priority-octets"`
	InNormPriorityFrames    uint32 `json:"in-norm-priority-frames"`
	InNormPriorityOctets    uint64 `json:"in-norm-priority-octets"`
	InIPMErrors             uint32 `json:"in-ipm-errors"`
	InOversizeFrameErrors   uint32 `json:"in-oversize-frame-errors"`
	InDataErrors            uint32 `json:"in-data-errors"`
	InNullAddressedFrames   uint32 `json:"in-null-addressed-frames"`
	OutHighPriorityFrames   uint32 `json:"out-high-priority-frames"`
	OutHighPriorityOctets   uint64 `json:"out-high-priority-octets"`
	OutNormPriorityFrames   uint32 `json:"out-norm-priority-frames"`
	OutNormPriorityOctets   uint64 `json:"out-norm-priority-octets"`
	InHCHighPriorityOctets  uint64 `json:"in-hc-high-priority-octets"`
	InHCNormPriorityOctets  uint64 `json:"in-hc-norm-priority-octets"`
	OutHCHighPriorityOctets uint64 `json:"out-hc-high-priority-octets"`
	OutHCNormPriorityOctets uint64 `json:"out-hc-norm-priority-octets"`
}

type VlanCounters struct {
	VlanID        uint32 `json:"vlan-id"`
	Octets        uint64 `json:"octets"`
	UcastPkts     uint32 `json:"ucast-pkts"`
	MulticastPkts uint32 `json:"multicast-pkts"`
	BroadcastPkts uint32 `json:"broadcast-pkts"`
	Discards      uint32 `json:"discards"`
}

type IEEE80211Counters struct {
	TransmittedFragments       uint32 `json:"transmitted-fragments"`
	MulticastTransmittedFrames uint32 `json:"multicast-transmitted-frames"`
	Failures                   uint32 `json:"failures"`
	Retries                    uint32 `json:"retries"`
	MultipleRetries            uint32 `json:"multiple-retries"`
	FrameDuplicates            uint32 `json:"frame-duplicates"`
	RTSSuccesses               uint32 `json:"rts-successes"`
	RTSFailures                uint32 `json:"rts-failures"`
	ACKFailures                uint32 `json:"ack-failures"`
	ReceivedFragments          uint32 `json:"received-fragments"`
	MulticastReceivedFrames    uint32 `json:"multicast-received-frames"`
	FCSErrors                  uint32 `json:"fcs-errors"`
	TransmittedFrames          uint32 `json:"transmitted-frames"`
	WEPUndecryptables          uint32 `json:"wep-undecryptables"`
	QoSDiscardedFragments      uint32 `json:"qos-discarded-fragments"`
	AssociatedStations         uint32 `json:"associated-stations"`
	QoSCFPollsReceived         uint32 `json:"qos-cf-polls-received"`
	QoSCFPollsUnused           uint32 `json:"qos-cf-polls-unused"`
	QoSCFPollsUnusable         uint32 `json:"qos-cf-polls-unusable"`
	QoSCFPollsLost             uint32 `json:"qos-cf-polls-lost"`
}

type LagPortStats struct {
	ActorSystemID        utils.MacAddress `json:"actor-system-id"`
	_                    [2]byte
	PartnerSystemID      utils.MacAddress `json:"partner-system-id"`
	_                    [2]byte
	AttachmentIndividual uint32 `json:"attachment-individual"`
	_                    [4]byte // port state
	LACPDUsRx            uint32 `json:"lacpdus-rx"`
	MarkerPDUsRx         uint32 `json:"marker-pdus-rx"`
	MarkerResponsePDUsRx uint32 `json:"marker-response-pdus-rx"`
	UnknownRx            uint32 `json:"unknown-rx"`
	IllegalRx            uint32 `json:"illegal-rx"`
	LACPDUsTx            uint32 `json:"lacpdus-tx"`
	MarkerPDUsTx         uint32 `json:"marker-pdus-tx"`
	MarkerResponsePDUsTx uint32 `json:"marker-response-pdus-tx"`
}

type SlowPathCounts struct {
	Unknown     uint32 `json:"unknown"`
	Other       uint32 `json:"other"`
	CAMMiss     uint32 `json:"cam-miss"`
	CAMFull     uint32 `json:"cam-full"`
	NoHWSupport uint32 `json:"no-hw-support"`
	Cntrl       uint32 `json:"cntrl"`
}

type InfiniBandCounters struct {
	PortXmitData                 uint64 `json:"port-xmit-data"`
	PortRcvData                  uint64 `json:"port-rcv-data"`
	PortXmitPkts                 uint64 `json:"port-xmit-pkts"`
	PortRcvPkts                  uint64 `json:"port-rcv-pkts"`
	SymbolErrorCounter           uint32 `json:"symbol-error-counter"`
	LinkErrorRecoveryCounter     uint32 `json:"link-error-recovery-counter"`
	LinkDownedCounter            uint32 `json:"link-downed-counter"`
	PortRcvErrors                uint32 `json:"port-rcv-errors"`
	PortRcvRemotePhysicalErrors  uint32 `json:"port-rcv-remote-physical-errors"`
	PortRcvSwitchRelayErrors     uint32 `json:"port-rcv-switch-relay-errors"`
	PortXmitDiscards             uint32 `json:"port-xmit-discards"`
	PortXmitConstraintErrors     uint32 `json:"port-xmit-constraint-errors"`
	PortRcvConstraintErrors      uint32 `json:"port-rcv-constraint-errors"`
	LocalLinkIntegrityErrors     uint32 `json:"local-link-integrity-errors"`
	ExcessiveBufferOverrunErrors uint32 `json:"excessive-buffer-overrun-errors"`
	VL15Dropped                  uint32 `json:"vl15-dropped"`
}

type SFPLane struct {
	TxBiasCurrent uint32 `json:"tx-bias-current"`
	TxPower       uint32 `json:"tx-power"`
	TxPowerMin    uint32 `json:"tx-power-min"`
	TxPowerMax    uint32 `json:"tx-power-max"`
	TxWavelength  uint32 `json:"tx-wavelength"`
	RxPower       uint32 `json:"rx-power"`
	RxPowerMin    uint32 `json:"rx-power-min"`
	RxPowerMax    uint32 `json:"rx-power-max"`
	RxWavelength  uint32 `json:"rx-wavelength"`
	BiasCurrent   uint32 `json:"bias-current"`
}

// SFP describes an optical module. Temperatures are in thousandths of a degree Celsius.
type SFP struct {
	ModuleID            uint32    `json:"module-id"`
	ModuleNumLanes      uint32    `json:"module-num-lanes"`
	ModuleSupplyVoltage uint32    `json:"module-supply-voltage"`
	ModuleTemperature   int32     `json:"module-temperature"`
	Lanes               []SFPLane `json:"lanes"`
}

type Processor struct {
	CPU5s       uint32 `json:"cpu-5s"`
	CPU1m       uint32 `json:"cpu-1m"`
	CPU5m       uint32 `json:"cpu-5m"`
	TotalMemory uint64 `json:"total-memory"`
	FreeMemory  uint64 `json:"free-memory"`
}

type RadioUtilization struct {
	ElapsedTime       uint32 `json:"elapsed-time"`
	OnChannelTime     uint32 `json:"on-channel-time"`
	OnChannelBusyTime uint32 `json:"on-channel-busy-time"`
}

// QueueLength is a histogram of queue lengths, in segments, seen by
// sampled packets.
type QueueLength struct {
	QueueIndex      uint32 `json:"queue-index"`
	SegmentSize     uint32 `json:"segment-size"`
	QueueSegments   uint32 `json:"queue-segments"`
	QueueLength0    uint32 `json:"queue-length-0"`
	QueueLength1    uint32 `json:"queue-length-1"`
	QueueLength2    uint32 `json:"queue-length-2"`
	QueueLength4    uint32 `json:"queue-length-4"`
	QueueLength8    uint32 `json:"queue-length-8"`
	QueueLength32   uint32 `json:"queue-length-32"`
	QueueLength128  uint32 `json:"queue-length-128"`
	QueueLength1024 uint32 `json:"queue-length-1024"`
	QueueLengthMore uint32 `json:"queue-length-more"`
	Dropped         uint32 `json:"dropped"`
}

type OpenFlowPort struct {
	DatapathID uint64 `json:"datapath-id"`
	PortNo     uint32 `json:"port-no"`
}

type PortName struct {
	Name string `json:"name"`
}

// UUID is printed in its canonical 8-4-4-4-12 form.
type UUID [16]byte

func (u UUID) String() string {
	var out [36]byte
	hex.Encode(out[0:8], u[0:4])
	out[8] = '-'
	hex.Encode(out[9:13], u[4:6])
	out[13] = '-'
	hex.Encode(out[14:18], u[6:8])
	out[18] = '-'
	hex.Encode(out[19:23], u[8:10])
	out[23] = '-'
	hex.Encode(out[24:], u[10:])
	return string(out[:])
}

func (u UUID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

type HostDescr struct {
	Hostname    string `json:"hostname"`
	UUID        UUID   `json:"uuid"`
	MachineType uint32 `json:"machine-type"`
	OSName      uint32 `json:"os-name"`
	OSRelease   string `json:"os-release"`
}

type HostAdapter struct {
	IfIndex      uint32             `json:"if-index"`
	MacAddresses []utils.MacAddress `json:"mac-addresses"`
}

type HostAdapters struct {
	Adapters []HostAdapter `json:"adapters"`
}

type HostParent struct {
	ContainerType  uint32 `json:"container-type"`
	ContainerIndex uint32 `json:"container-index"`
}

// HostCPU load averages are hundredths.
type HostCPU struct {
	LoadOne     uint32 `json:"load-one"`
	LoadFive    uint32 `json:"load-five"`
	LoadFifteen uint32 `json:"load-fifteen"`
	ProcRun     uint32 `json:"proc-run"`
	ProcTotal   uint32 `json:"proc-total"`
	CPUNum      uint32 `json:"cpu-num"`
	CPUSpeed    uint32 `json:"cpu-speed"`
	Uptime      uint32 `json:"uptime"`
	CPUUser     uint32 `json:"cpu-user"`
	CPUNice     uint32 `json:"cpu-nice"`
	CPUSystem   uint32 `json:"cpu-system"`
	CPUIdle     uint32 `json:"cpu-idle"`
	CPUWio      uint32 `json:"cpu-wio"`
	CPUIntr     uint32 `json:"cpu-intr"`
	CPUSintr    uint32 `json:"cpu-sintr"`
	Interrupts  uint32 `json:"interrupts"`
	Contexts    uint32 `json:"contexts"`
}

type HostMemory struct {
	MemTotal   uint64 `json:"mem-total"`
	MemFree    uint64 `json:"mem-free"`
	MemShared  uint64 `json:"mem-shared"`
	MemBuffers uint64 `json:"mem-buffers"`
	MemCached  uint64 `json:"mem-cached"`
	SwapTotal  uint64 `json:"swap-total"`
	SwapFree   uint64 `json:"swap-free"`
	PageIn     uint32 `json:"page-in"`
	PageOut    uint32 `json:"page-out"`
	SwapIn     uint32 `json:"swap-in"`
	SwapOut    uint32 `json:"swap-out"`
}

type HostDiskIO struct {
	DiskTotal    uint64 `json:"disk-total"`
	DiskFree     uint64 `json:"disk-free"`
	PartMaxUsed  uint32 `json:"part-max-used"`
	Reads        uint32 `json:"reads"`
	BytesRead    uint64 `json:"bytes-read"`
	ReadTime     uint32 `json:"read-time"`
	Writes       uint32 `json:"writes"`
	BytesWritten uint64 `json:"bytes-written"`
	WriteTime    uint32 `json:"write-time"`
}

type HostNetIO struct {
	BytesIn    uint64 `json:"bytes-in"`
	PacketsIn  uint32 `json:"packets-in"`
	ErrsIn     uint32 `json:"errs-in"`
	DropsIn    uint32 `json:"drops-in"`
	BytesOut   uint64 `json:"bytes-out"`
	PacketsOut uint32 `json:"packets-out"`
	ErrsOut    uint32 `json:"errs-out"`
	DropsOut   uint32 `json:"drops-out"`
}

type Mib2IPGroup struct {
	IPForwarding     uint32 `json:"ip-forwarding"`
	IPDefaultTTL     uint32 `json:"ip-default-ttl"`
	IPInReceives     uint32 `json:"ip-in-receives"`
	IPInHdrErrors    uint32 `json:"ip-in-hdr-errors"`
	IPInAddrErrors   uint32 `json:"ip-in-addr-errors"`
	IPForwDatagrams  uint32 `json:"ip-forw-datagrams"`
	IPInUnknownProto uint32 `json:"ip-in-unknown-protos"`
	IPInDiscards     uint32 `json:"ip-in-discards"`
	IPInDelivers     uint32 `json:"ip-in-delivers"`
	IPOutRequests    uint32 `json:"ip-out-requests"`
	IPOutDiscards    uint32 `json:"ip-out-discards"`
	IPOutNoRoutes    uint32 `json:"ip-out-no-routes"`
	IPReasmTimeout   uint32 `json:"ip-reasm-timeout"`
	IPReasmReqds     uint32 `json:"ip-reasm-reqds"`
	IPReasmOKs       uint32 `json:"ip-reasm-oks"`
	IPReasmFails     uint32 `json:"ip-reasm-fails"`
	IPFragOKs        uint32 `json:"ip-frag-oks"`
	IPFragFails      uint32 `json:"ip-frag-fails"`
	IPFragCreates    uint32 `json:"ip-frag-creates"`
}

type Mib2ICMPGroup struct {
	ICMPInMsgs           uint32 `json:"icmp-in-msgs"`
	ICMPInErrors         uint32 `json:"icmp-in-errors"`
	ICMPInDestUnreachs   uint32 `json:"icmp-in-dest-unreachs"`
	ICMPInTimeExcds      uint32 `json:"icmp-in-time-excds"`
	ICMPInParmProbs      uint32 `json:"icmp-in-parm-probs"`
	ICMPInSrcQuenchs     uint32 `json:"icmp-in-src-quenchs"`
	ICMPInRedirects      uint32 `json:"icmp-in-redirects"`
	ICMPInEchos          uint32 `json:"icmp-in-echos"`
	ICMPInEchoReps       uint32 `json:"icmp-in-echo-reps"`
	ICMPInTimestamps     uint32 `json:"icmp-in-timestamps"`
	ICMPInTimestampReps  uint32 `json:"icmp-in-timestamp-reps"`
	ICMPInAddrMasks      uint32 `json:"icmp-in-addr-masks"`
	ICMPInAddrMaskReps   uint32 `json:"icmp-in-addr-mask-reps"`
	ICMPOutMsgs          uint32 `json:"icmp-out-msgs"`
	ICMPOutErrors        uint32 `json:"icmp-out-errors"`
	ICMPOutDestUnreachs  uint32 `json:"icmp-out-dest-unreachs"`
	ICMPOutTimeExcds     uint32 `json:"icmp-out-time-excds"`
	ICMPOutParmProbs     uint32 `json:"icmp-out-parm-probs"`
	ICMPOutSrcQuenchs    uint32 `json:"icmp-out-src-quenchs"`
	ICMPOutRedirects     uint32 `json:"icmp-out-redirects"`
	ICMPOutEchos         uint32 `json:"icmp-out-echos"`
	ICMPOutEchoReps      uint32 `json:"icmp-out-echo-reps"`
	ICMPOutTimestamps    uint32 `json:"icmp-out-timestamps"`
	ICMPOutTimestampReps uint32 `json:"icmp-out-timestamp-reps"`
	ICMPOutAddrMasks     uint32 `json:"icmp-out-addr-masks"`
	ICMPOutAddrMaskReps  uint32 `json:"icmp-out-addr-mask-reps"`
}

type Mib2TCPGroup struct {
	TCPRtoAlgorithm uint32 `json:"tcp-rto-algorithm"`
	TCPRtoMin       uint32 `json:"tcp-rto-min"`
	TCPRtoMax       uint32 `json:"tcp-rto-max"`
	TCPMaxConn      uint32 `json:"tcp-max-conn"`
	TCPActiveOpens  uint32 `json:"tcp-active-opens"`
	TCPPassiveOpens uint32 `json:"tcp-passive-opens"`
	TCPAttemptFails uint32 `json:"tcp-attempt-fails"`
	TCPEstabResets  uint32 `json:"tcp-estab-resets"`
	TCPCurrEstab    uint32 `json:"tcp-curr-estab"`
	TCPInSegs       uint32 `json:"tcp-in-segs"`
	TCPOutSegs      uint32 `json:"tcp-out-segs"`
	TCPRetransSegs  uint32 `json:"tcp-retrans-segs"`
	TCPInErrs       uint32 `json:"tcp-in-errs"`
	TCPOutRsts      uint32 `json:"tcp-out-rsts"`
	TCPInCsumErrs   uint32 `json:"tcp-in-csum-errs"`
}

type Mib2UDPGroup struct {
	UDPInDatagrams  uint32 `json:"udp-in-datagrams"`
	UDPNoPorts      uint32 `json:"udp-no-ports"`
	UDPInErrors     uint32 `json:"udp-in-errors"`
	UDPOutDatagrams uint32 `json:"udp-out-datagrams"`
	UDPRcvbufErrors uint32 `json:"udp-rcvbuf-errors"`
	UDPSndbufErrors uint32 `json:"udp-sndbuf-errors"`
	UDPInCsumErrors uint32 `json:"udp-in-csum-errors"`
}

type VirtNode struct {
	MHz        uint32 `json:"mhz"`
	CPUs       uint32 `json:"cpus"`
	Memory     uint64 `json:"memory"`
	MemoryFree uint64 `json:"memory-free"`
	NumDomains uint32 `json:"num-domains"`
}

// VirtDomainState follows libvirt's virDomainState.
type VirtDomainState uint32

const (
	VirtDomainNoState VirtDomainState = iota
	VirtDomainRunning
	VirtDomainBlocked
	VirtDomainPaused
	VirtDomainShutdown
	VirtDomainShutoff
	VirtDomainCrashed
	VirtDomainPMSuspended
)

var virtDomainStateNames = []string{
	"NoState",
	"Running",
	"Blocked",
	"Paused",
	"Shutdown",
	"Shutoff",
	"Crashed",
	"PmSuspended",
}

func (s VirtDomainState) String() string {
	if int(s) < len(virtDomainStateNames) {
		return virtDomainStateNames[s]
	}
	return fmt.Sprintf("Unrecognized(%d)", uint32(s))
}

func (s VirtDomainState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type VirtCPU struct {
	State     VirtDomainState `json:"state"`
	CPUTime   uint32          `json:"cpu-time"`
	NrVirtCPU uint32          `json:"nr-virt-cpu"`
}

type VirtMemory struct {
	Memory    uint64 `json:"memory"`
	MaxMemory uint64 `json:"max-memory"`
}

type VirtDiskIO struct {
	Capacity   uint64 `json:"capacity"`
	Allocation uint64 `json:"allocation"`
	Available  uint64 `json:"available"`
	RdReq      uint32 `json:"rd-req"`
	RdBytes    uint64 `json:"rd-bytes"`
	WrReq      uint32 `json:"wr-req"`
	WrBytes    uint64 `json:"wr-bytes"`
	Errs       uint32 `json:"errs"`
}

type VirtNetIO struct {
	RxBytes   uint64 `json:"rx-bytes"`
	RxPackets uint32 `json:"rx-packets"`
	RxErrs    uint32 `json:"rx-errs"`
	RxDrop    uint32 `json:"rx-drop"`
	TxBytes   uint64 `json:"tx-bytes"`
	TxPackets uint32 `json:"tx-packets"`
	TxErrs    uint32 `json:"tx-errs"`
	TxDrop    uint32 `json:"tx-drop"`
}

type JMXRuntime struct {
	VMName    string `json:"vm-name"`
	VMVendor  string `json:"vm-vendor"`
	VMVersion string `json:"vm-version"`
}

type JVMStatistics struct {
	HeapInitial      uint64 `json:"heap-initial"`
	HeapUsed         uint64 `json:"heap-used"`
	HeapCommitted    uint64 `json:"heap-committed"`
	HeapMax          uint64 `json:"heap-max"`
	NonHeapInitial   uint64 `json:"non-heap-initial"`
	NonHeapUsed      uint64 `json:"non-heap-used"`
	NonHeapCommitted uint64 `json:"non-heap-committed"`
	NonHeapMax       uint64 `json:"non-heap-max"`
	GCCount          uint32 `json:"gc-count"`
	GCTime           uint32 `json:"gc-time"`
	ClassesLoaded    uint32 `json:"classes-loaded"`
	ClassesTotal     uint32 `json:"classes-total"`
	ClassesUnloaded  uint32 `json:"classes-unloaded"`
	CompilationTime  uint32 `json:"compilation-time"`
	ThreadsLive      uint32 `json:"threads-live"`
	ThreadsDaemon    uint32 `json:"threads-daemon"`
	ThreadsStarted   uint32 `json:"threads-started"`
	FDsOpen          uint32 `json:"fds-open"`
	FDsMax           uint32 `json:"fds-max"`
}

type HTTPCounters struct {
	MethodOptionCount  uint32 `json:"method-option-count"`
	MethodGetCount     uint32 `json:"method-get-count"`
	MethodHeadCount    uint32 `json:"method-head-count"`
	MethodPostCount    uint32 `json:"method-post-count"`
	MethodPutCount     uint32 `json:"method-put-count"`
	MethodDeleteCount  uint32 `json:"method-delete-count"`
	MethodTraceCount   uint32 `json:"method-trace-count"`
	MethodConnectCount uint32 `json:"method-connect-count"`
	MethodOtherCount   uint32 `json:"method-other-count"`
	Status1xxCount     uint32 `json:"status-1xx-count"`
	Status2xxCount     uint32 `json:"status-2xx-count"`
	Status3xxCount     uint32 `json:"status-3xx-count"`
	Status4xxCount     uint32 `json:"status-4xx-count"`
	Status5xxCount     uint32 `json:"status-5xx-count"`
	StatusOtherCount   uint32 `json:"status-other-count"`
}

type AppOperations struct {
	Application    string `json:"application"`
	Success        uint32 `json:"success"`
	Other          uint32 `json:"other"`
	Timeout        uint32 `json:"timeout"`
	InternalError  uint32 `json:"internal-error"`
	BadRequest     uint32 `json:"bad-request"`
	Forbidden      uint32 `json:"forbidden"`
	TooLarge       uint32 `json:"too-large"`
	NotImplemented uint32 `json:"not-implemented"`
	NotFound       uint32 `json:"not-found"`
	Unavailable    uint32 `json:"unavailable"`
	Unauthorized   uint32 `json:"unauthorized"`
	StatusOK       uint32 `json:"status-ok"`
}

type AppResources struct {
	UserTime   uint32 `json:"user-time"`
	SystemTime uint32 `json:"system-time"`
	MemUsed    uint64 `json:"mem-used"`
	MemMax     uint64 `json:"mem-max"`
	FDOpen     uint32 `json:"fd-open"`
	FDMax      uint32 `json:"fd-max"`
	ConnOpen   uint32 `json:"conn-open"`
	ConnMax    uint32 `json:"conn-max"`
}

type MemcacheCounters struct {
	CmdSet               uint32 `json:"cmd-set"`
	CmdTouch             uint32 `json:"cmd-touch"`
	CmdFlush             uint32 `json:"cmd-flush"`
	GetHits              uint32 `json:"get-hits"`
	GetMisses            uint32 `json:"get-misses"`
	DeleteHits           uint32 `json:"delete-hits"`
	DeleteMisses         uint32 `json:"delete-misses"`
	IncrHits             uint32 `json:"incr-hits"`
	IncrMisses           uint32 `json:"incr-misses"`
	DecrHits             uint32 `json:"decr-hits"`
	DecrMisses           uint32 `json:"decr-misses"`
	CasHits              uint32 `json:"cas-hits"`
	CasMisses            uint32 `json:"cas-misses"`
	CasBadval            uint32 `json:"cas-badval"`
	AuthCmds             uint32 `json:"auth-cmds"`
	AuthErrors           uint32 `json:"auth-errors"`
	Threads              uint32 `json:"threads"`
	ConnYields           uint32 `json:"conn-yields"`
	ListenDisabledNum    uint32 `json:"listen-disabled-num"`
	CurrConnections      uint32 `json:"curr-connections"`
	RejectedConnections  uint32 `json:"rejected-connections"`
	TotalConnections     uint32 `json:"total-connections"`
	ConnectionStructures uint32 `json:"connection-structures"`
	Evictions            uint32 `json:"evictions"`
	Reclaimed            uint32 `json:"reclaimed"`
	CurrItems            uint32 `json:"curr-items"`
	TotalItems           uint32 `json:"total-items"`
	BytesRead            uint64 `json:"bytes-read"`
	BytesWritten         uint64 `json:"bytes-written"`
	Bytes                uint64 `json:"bytes"`
	LimitMaxbytes        uint64 `json:"limit-maxbytes"`
}

type AppWorkers struct {
	WorkersActive uint32 `json:"workers-active"`
	WorkersIdle   uint32 `json:"workers-idle"`
	WorkersMax    uint32 `json:"workers-max"`
	ReqDelayed    uint32 `json:"req-delayed"`
	ReqDropped    uint32 `json:"req-dropped"`
}

type OVSDPStats struct {
	NHit     uint32 `json:"n-hit"`
	NMissed  uint32 `json:"n-missed"`
	NLost    uint32 `json:"n-lost"`
	NMaskHit uint32 `json:"n-mask-hit"`
	NFlows   uint32 `json:"n-flows"`
	NMasks   uint32 `json:"n-masks"`
}

type Energy struct {
	Voltage     uint32 `json:"voltage"`
	Current     uint32 `json:"current"`
	RealPower   uint32 `json:"real-power"`
	PowerFactor uint32 `json:"power-factor"`
	Energy      uint32 `json:"energy"`
	Errors      uint32 `json:"errors"`
}

type Temperature struct {
	Minimum int32  `json:"minimum"`
	Maximum int32  `json:"maximum"`
	Errors  uint32 `json:"errors"`
}

type Humidity struct {
	RelativeHumidity uint32 `json:"relative-humidity"`
}

type Fans struct {
	Total  uint32 `json:"total"`
	Failed uint32 `json:"failed"`
	Speed  uint32 `json:"speed"`
}

// XenVif ties a XenServer virtual interface to a VM. The VM address is
// always a raw IPv4 address without a type tag.
type XenVif struct {
	VifIndex     uint32     `json:"vif-index"`
	VMAddress    netip.Addr `json:"vm-address"`
	DomainID     uint32     `json:"domain-id"`
	NetworkIndex uint32     `json:"network-index"`
	Flags        uint32     `json:"flags"`
}

var counterRecords = newRecordTable(map[RecordKey]recordFormat{
	{0, FORMAT_IF_COUNTERS}:  fixedRecord[IfCounters]("generic_interface"),
	{0, FORMAT_ETH_COUNTERS}: fixedRecord[EthernetCounters]("ethernet_interface"),
	{0, 3}:                   fixedRecord[TokenRingCounters]("token_ring"),
	{0, 4}:                   fixedRecord[VGCounters]("vg_counters"),
	{0, FORMAT_VLAN}:         fixedRecord[VlanCounters]("vlan"),
	{0, 6}:                   fixedRecord[IEEE80211Counters]("ieee80211_counters"),
	{0, 7}:                   fixedRecord[LagPortStats]("lag_port_stats"),
	{0, 8}:                   fixedRecord[SlowPathCounts]("slow_path_counts"),
	{0, 9}:                   fixedRecord[InfiniBandCounters]("ib_counters"),
	{0, 10}:                  customRecord("sfp", decodeSFP),
	{0, 1001}:                fixedRecord[Processor]("processor"),
	{0, 1002}:                fixedRecord[RadioUtilization]("radio_utilization"),
	{0, 1003}:                fixedRecord[QueueLength]("queue_length"),
	{0, 1004}:                fixedRecord[OpenFlowPort]("of_port"),
	{0, 1005}:                customRecord("port_name", decodePortName),
	{0, 2000}:                customRecord("host_descr", decodeHostDescr),
	{0, 2001}:                customRecord("host_adapters", decodeHostAdapters),
	{0, 2002}:                fixedRecord[HostParent]("host_parent"),
	{0, 2003}:                fixedRecord[HostCPU]("host_cpu"),
	{0, 2004}:                fixedRecord[HostMemory]("host_memory"),
	{0, 2005}:                fixedRecord[HostDiskIO]("host_disk_io"),
	{0, 2006}:                fixedRecord[HostNetIO]("host_net_io"),
	{0, 2007}:                fixedRecord[Mib2IPGroup]("mib2_ip_group"),
	{0, 2008}:                fixedRecord[Mib2ICMPGroup]("mib2_icmp_group"),
	{0, 2009}:                fixedRecord[Mib2TCPGroup]("mib2_tcp_group"),
	{0, 2010}:                fixedRecord[Mib2UDPGroup]("mib2_udp_group"),
	{0, 2100}:                fixedRecord[VirtNode]("virt_node"),
	{0, 2101}:                fixedRecord[VirtCPU]("virt_cpu"),
	{0, 2102}:                fixedRecord[VirtMemory]("virt_memory"),
	{0, 2103}:                fixedRecord[VirtDiskIO]("virt_disk_io"),
	{0, 2104}:                fixedRecord[VirtNetIO]("virt_net_io"),
	{0, 2105}:                customRecord("jmx_runtime", decodeJMXRuntime),
	{0, 2106}:                fixedRecord[JVMStatistics]("jvm_statistics"),
	{0, 2201}:                fixedRecord[HTTPCounters]("http_counters"),
	{0, 2202}:                customRecord("app_operations", decodeAppOperations),
	{0, 2203}:                fixedRecord[AppResources]("app_resources"),
	{0, 2204}:                fixedRecord[MemcacheCounters]("memcache_counters"),
	{0, 2206}:                fixedRecord[AppWorkers]("app_workers"),
	{0, 2207}:                fixedRecord[OVSDPStats]("ovs_dp_stats"),
	{0, 3000}:                fixedRecord[Energy]("energy"),
	{0, 3001}:                fixedRecord[Temperature]("temperature"),
	{0, 3002}:                fixedRecord[Humidity]("humidity"),
	{0, 3003}:                fixedRecord[Fans]("fans"),

	{ENTERPRISE_XENSERVER, FORMAT_XEN_VIF}: customRecord("xen_vif", decodeXenVif),
})

func decodeSFP(c utils.Cursor) (SFP, error) {
	var v SFP
	r := newFieldReader(c)
	r.fixed(&v.ModuleID, &v.ModuleNumLanes, &v.ModuleSupplyVoltage, &v.ModuleTemperature)
	if r.err != nil {
		return v, r.err
	}
	v.Lanes = make([]SFPLane, 0, capacity(v.ModuleNumLanes, r.c.Len(), 40))
	for i := uint32(0); i < v.ModuleNumLanes && r.err == nil; i++ {
		var lane SFPLane
		r.fixed(&lane)
		v.Lanes = append(v.Lanes, lane)
	}
	return v, r.err
}

func (v SFP) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.ModuleID, uint32(len(v.Lanes)), v.ModuleSupplyVoltage, v.ModuleTemperature)
	for _, lane := range v.Lanes {
		w.fixed(lane)
	}
	return w.err
}

func decodePortName(c utils.Cursor) (PortName, error) {
	name, _, err := readXDRString(c)
	return PortName{Name: name}, err
}

func (v PortName) encodeRecord(buf *bytes.Buffer) error {
	return utils.WriteString(buf, v.Name)
}

func decodeHostDescr(c utils.Cursor) (HostDescr, error) {
	var v HostDescr
	r := newFieldReader(c)
	v.Hostname = r.str()
	r.fixed(&v.UUID, &v.MachineType, &v.OSName)
	v.OSRelease = r.str()
	return v, r.err
}

func (v HostDescr) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.Hostname)
	w.fixed(v.UUID, v.MachineType, v.OSName)
	w.str(v.OSRelease)
	return w.err
}

func decodeHostAdapters(c utils.Cursor) (HostAdapters, error) {
	var v HostAdapters
	r := newFieldReader(c)

	// an adapter is at least its index and its MAC count
	n, size := r.count(8)
	v.Adapters = make([]HostAdapter, 0, size)
	for i := uint32(0); i < n && r.err == nil; i++ {
		var adapter HostAdapter
		r.fixed(&adapter.IfIndex)
		macs, macCap := r.count(8)
		adapter.MacAddresses = make([]utils.MacAddress, 0, macCap)
		for j := uint32(0); j < macs && r.err == nil; j++ {
			adapter.MacAddresses = append(adapter.MacAddresses, r.paddedMac())
		}
		v.Adapters = append(v.Adapters, adapter)
	}
	return v, r.err
}

func (v HostAdapters) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(uint32(len(v.Adapters)))
	for _, adapter := range v.Adapters {
		w.fixed(adapter.IfIndex, uint32(len(adapter.MacAddresses)))
		for _, mac := range adapter.MacAddresses {
			w.paddedMac(mac)
		}
	}
	return w.err
}

func decodeJMXRuntime(c utils.Cursor) (JMXRuntime, error) {
	v, err := decodeJVMRuntime(c)
	return JMXRuntime(v), err
}

func (v JMXRuntime) encodeRecord(buf *bytes.Buffer) error {
	return JVMRuntime(v).encodeRecord(buf)
}

func decodeAppOperations(c utils.Cursor) (AppOperations, error) {
	var v AppOperations
	r := newFieldReader(c)
	v.Application = r.str()
	r.fixed(&v.Success, &v.Other, &v.Timeout, &v.InternalError, &v.BadRequest, &v.Forbidden,
		&v.TooLarge, &v.NotImplemented, &v.NotFound, &v.Unavailable, &v.Unauthorized, &v.StatusOK)
	return v, r.err
}

func (v AppOperations) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.str(v.Application)
	w.fixed(v.Success, v.Other, v.Timeout, v.InternalError, v.BadRequest, v.Forbidden,
		v.TooLarge, v.NotImplemented, v.NotFound, v.Unavailable, v.Unauthorized, v.StatusOK)
	return w.err
}

func decodeXenVif(c utils.Cursor) (XenVif, error) {
	var v XenVif
	r := newFieldReader(c)
	r.fixed(&v.VifIndex)
	v.VMAddress = r.ipv4()
	r.fixed(&v.DomainID, &v.NetworkIndex, &v.Flags)
	return v, r.err
}

func (v XenVif) encodeRecord(buf *bytes.Buffer) error {
	w := newFieldWriter(buf)
	w.fixed(v.VifIndex)
	w.ipv4(v.VMAddress)
	w.fixed(v.DomainID, v.NetworkIndex, v.Flags)
	return w.err
}
