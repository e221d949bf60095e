package utils

import (
	"net"
)

// MacAddress is a 6 byte hardware address; on the sFlow wire it is usually
// followed by two bytes of padding.
type MacAddress [6]byte

func (s MacAddress) String() string {
	return net.HardwareAddr(s[:]).String()
}

func (s MacAddress) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Uint64 returns the address as the lower 48 bits of an integer.
func (s MacAddress) Uint64() uint64 {
	var v uint64
	for _, b := range s {
		v = v<<8 | uint64(b)
	}
	return v
}
