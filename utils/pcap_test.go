package utils

import (
	"bytes"
	"errors"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func udpFrame(t *testing.T, dstPort uint16, payload []byte) []byte {
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    net.IP{192, 0, 2, 254},
		DstIP:    net.IP{192, 0, 2, 1},
	}
	udp := &layers.UDP{
		SrcPort: 50000,
		DstPort: layers.UDPPort(dstPort),
	}
	require.NoError(t, udp.SetNetworkLayerForChecksum(ip))

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true},
		&layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x53, 0x00, 0x00, 0x00, 0x01},
			DstMAC:       net.HardwareAddr{0x00, 0x53, 0x00, 0x00, 0x00, 0x02},
			EthernetType: layers.EthernetTypeIPv4,
		},
		ip,
		udp,
		gopacket.Payload(payload),
	)
	require.NoError(t, err)
	return buf.Bytes()
}

func testCapture(t *testing.T, frames ...[]byte) *bytes.Buffer {
	out := bytes.NewBuffer(nil)
	w := pcapgo.NewWriter(out)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	ts := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	for _, frame := range frames {
		require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
			Timestamp:     ts,
			CaptureLength: len(frame),
			Length:        len(frame),
		}, frame))
	}
	return out
}

func TestPcapReceiverReplay(t *testing.T) {
	payload := testDatagramBytes(t, 1)
	capture := testCapture(t,
		udpFrame(t, 53, []byte("dns")),
		udpFrame(t, 6343, payload),
	)

	source, err := OpenCaptureFile(capture)
	require.NoError(t, err)

	var got []Message
	r := NewPcapReceiver(6343)
	count, err := r.Replay(source, func(msg interface{}) error {
		pkt := msg.(*Message)
		cp := *pkt
		cp.Payload = append([]byte(nil), pkt.Payload...)
		got = append(got, cp)
		return errors.New("decode failure")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, got, 1)
	assert.Equal(t, netip.MustParseAddrPort("192.0.2.254:50000"), got[0].Src)
	assert.Equal(t, netip.MustParseAddrPort("192.0.2.1:6343"), got[0].Dst)
	assert.Equal(t, payload, got[0].Payload)
	assert.True(t, got[0].Received.Equal(time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)))

	select {
	case err := <-r.Errors():
		assert.EqualError(t, err, "decode failure")
	default:
		assert.Fail(t, "missing decode error")
	}
}

func TestPcapReceiverAllPorts(t *testing.T) {
	capture := testCapture(t,
		udpFrame(t, 53, []byte("dns")),
		udpFrame(t, 6343, []byte("sflow")),
	)
	source, err := OpenCaptureFile(capture)
	require.NoError(t, err)

	count, err := NewPcapReceiver(0).Replay(source, func(msg interface{}) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestOpenCaptureFileInvalid(t *testing.T) {
	_, err := OpenCaptureFile(bytes.NewReader([]byte{1, 2}))
	assert.Error(t, err)

	_, err = OpenCaptureFile(bytes.NewReader(bytes.Repeat([]byte{0xff}, 24)))
	assert.Error(t, err)
}

func TestOpenLiveCaptureNotCompiled(t *testing.T) {
	if _, _, err := OpenLiveCapture("lo", 128, false, ""); err != nil {
		assert.ErrorIs(t, err, ErrNotCompiled)
	}
}
