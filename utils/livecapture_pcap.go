//go:build pcap

package utils

import (
	"time"

	"github.com/google/gopacket/pcap"
)

// OpenLiveCapture captures on an interface with libpcap.
func OpenLiveCapture(device string, snaplen int32, promisc bool, bpf string) (PacketDataSource, func(), error) {
	handle, err := pcap.OpenLive(device, snaplen, promisc, time.Second)
	if err != nil {
		return nil, nil, err
	}
	if bpf != "" {
		if err := handle.SetBPFFilter(bpf); err != nil {
			handle.Close()
			return nil, nil, err
		}
	}
	return handle, handle.Close, nil
}
