package main

import (
	"fmt"
	"math/rand"
	"net/netip"
	"time"

	"github.com/google/gopacket/layers"

	"github.com/netsampler/sflowparser/decoders/sflow"
)

type sampler struct {
	every   uint64
	counter uint64
	mode    string
	random  *rand.Rand
}

func newSampler(rate uint, mode string, seed int64) *sampler {
	if rate < 1 {
		rate = 1
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &sampler{
		every:  uint64(rate),
		mode:   mode,
		random: rand.New(rand.NewSource(seed)),
	}
}

func (s *sampler) allow() bool {
	if s.every <= 1 {
		return true
	}
	switch s.mode {
	case "random":
		return s.random.Int63n(int64(s.every)) == 0
	default:
		s.counter++
		return s.counter%s.every == 0
	}
}

// headerProtocol maps a capture link type to the header protocol of a
// raw_packet_header record.
func headerProtocol(linkType layers.LinkType) (uint32, error) {
	switch linkType {
	case layers.LinkTypeEthernet:
		return sflow.HEADER_PROTOCOL_ETHERNET, nil
	case layers.LinkTypeIPv4:
		return sflow.HEADER_PROTOCOL_IPV4, nil
	case layers.LinkTypeIPv6:
		return sflow.HEADER_PROTOCOL_IPV6, nil
	}
	return 0, fmt.Errorf("link type %s is not supported", linkType)
}

// agent turns sampled packets into flow samples and groups them into
// datagrams.
type agent struct {
	address    netip.Addr
	subAgentID uint32
	ifIndex    uint32
	protocol   uint32
	rate       uint32
	headerSize int
	batch      int

	start     time.Time
	seq       uint32
	sampleSeq uint32
	pool      uint32
	samples   []interface{}
}

func (a *agent) uptime(now time.Time) uint32 {
	if a.start.IsZero() {
		a.start = now
	}
	return uint32(now.Sub(a.start).Milliseconds())
}

// observe counts a packet seen on the interface, sampled or not.
func (a *agent) observe(now time.Time) {
	a.uptime(now)
	a.pool++
}

// sample adds a flow sample for a packet and returns a datagram when the
// batch is full.
func (a *agent) sample(data []byte, frameLength int, now time.Time) *sflow.Datagram {
	header := data
	if len(header) > a.headerSize {
		header = header[:a.headerSize]
	}
	header = append([]byte(nil), header...)

	a.sampleSeq++
	a.samples = append(a.samples, sflow.FlowSample{
		Header: sflow.SampleHeader{
			SampleSequenceNumber: a.sampleSeq,
			SourceIDIndex:        a.ifIndex,
		},
		SamplingRate: a.rate,
		SamplePool:   a.pool,
		Input:        a.ifIndex,
		Records: []sflow.FlowRecord{
			{Data: sflow.SampledHeader{
				Protocol:       a.protocol,
				FrameLength:    uint32(frameLength),
				OriginalLength: uint32(len(header)),
				HeaderData:     header,
			}},
		},
	})
	if len(a.samples) >= a.batch {
		return a.flush(now)
	}
	return nil
}

// flush returns the pending samples as a datagram, or nil if there are none.
func (a *agent) flush(now time.Time) *sflow.Datagram {
	if len(a.samples) == 0 {
		return nil
	}
	a.seq++
	dg := &sflow.Datagram{
		Version:        5,
		AgentAddress:   a.address,
		SubAgentID:     a.subAgentID,
		SequenceNumber: a.seq,
		Uptime:         a.uptime(now),
		SamplesCount:   uint32(len(a.samples)),
		Samples:        a.samples,
	}
	a.samples = nil
	return dg
}
