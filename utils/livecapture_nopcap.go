//go:build !pcap

package utils

// OpenLiveCapture needs libpcap; build with -tags pcap.
func OpenLiveCapture(device string, snaplen int32, promisc bool, bpf string) (PacketDataSource, func(), error) {
	return nil, nil, ErrNotCompiled
}
