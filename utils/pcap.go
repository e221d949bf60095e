package utils

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"net/netip"
	"sync/atomic"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

var ErrNotCompiled = errors.New("not compiled in")

const pcapNgMagic = 0x0a0d0d0a

// PacketDataSource is a capture that can be read packet by packet, such as
// a pcap file or a live interface.
type PacketDataSource interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

// OpenCaptureFile reads a pcap or pcapng capture.
func OpenCaptureFile(f io.Reader) (PacketDataSource, error) {
	br := bufio.NewReader(f)
	magic, err := br.Peek(4)
	if err != nil {
		return nil, err
	}
	if binary.LittleEndian.Uint32(magic) == pcapNgMagic {
		return pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
	}
	return pcapgo.NewReader(br)
}

// PcapReceiver replays the UDP payloads of a capture file into a decode
// function, as if they had been received on a socket.
type PcapReceiver struct {
	port    uint16
	stopped int32
	errCh   chan error
}

var _ Receiver = (*PcapReceiver)(nil)

// NewPcapReceiver keeps the datagrams sent to port, or every UDP datagram
// when port is 0.
func NewPcapReceiver(port uint16) *PcapReceiver {
	return &PcapReceiver{
		port:  port,
		errCh: make(chan error, 64),
	}
}

func (r *PcapReceiver) logError(err error) {
	select {
	case r.errCh <- err:
	default:
	}
}

func packetMessage(packet gopacket.Packet, port uint16) (*Message, bool) {
	udp, ok := packet.Layer(layers.LayerTypeUDP).(*layers.UDP)
	if !ok {
		return nil, false
	}
	if port != 0 && uint16(udp.DstPort) != port {
		return nil, false
	}

	var src, dst netip.Addr
	switch ip := packet.NetworkLayer().(type) {
	case *layers.IPv4:
		src, _ = netip.AddrFromSlice(ip.SrcIP.To4())
		dst, _ = netip.AddrFromSlice(ip.DstIP.To4())
	case *layers.IPv6:
		src, _ = netip.AddrFromSlice(ip.SrcIP)
		dst, _ = netip.AddrFromSlice(ip.DstIP)
	default:
		return nil, false
	}
	return &Message{
		Src:      netip.AddrPortFrom(src, uint16(udp.SrcPort)),
		Dst:      netip.AddrPortFrom(dst, uint16(udp.DstPort)),
		Payload:  udp.Payload,
		Received: packet.Metadata().Timestamp,
	}, true
}

// Replay reads the whole source and returns the number of datagrams given
// to decodeFunc. Decode errors go to Errors(); only read errors are
// returned.
func (r *PcapReceiver) Replay(source PacketDataSource, decodeFunc DecoderFunc) (int, error) {
	atomic.StoreInt32(&r.stopped, 0)
	linkType := source.LinkType()
	var count int
	for atomic.LoadInt32(&r.stopped) == 0 {
		data, ci, err := source.ReadPacketData()
		if err == io.EOF {
			return count, nil
		} else if err != nil {
			return count, err
		}
		packet := gopacket.NewPacket(data, linkType, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		packet.Metadata().CaptureInfo = ci

		msg, ok := packetMessage(packet, r.port)
		if !ok {
			continue
		}
		count++
		if err := decodeFunc(msg); err != nil {
			r.logError(err)
		}
	}
	return count, nil
}

// Stop interrupts a running Replay.
func (r *PcapReceiver) Stop() error {
	atomic.StoreInt32(&r.stopped, 1)
	return nil
}

func (r *PcapReceiver) Errors() <-chan error {
	return r.errCh
}
