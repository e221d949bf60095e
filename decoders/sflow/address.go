package sflow

import (
	"fmt"
	"net/netip"

	"github.com/netsampler/sflowparser/decoders/utils"
)

const (
	AddressTypeIPv4 = 1
	AddressTypeIPv6 = 2
)

// AddressTypeError is returned for an address tag other than IPv4 or IPv6.
type AddressTypeError struct {
	Type uint32
}

func (e *AddressTypeError) Error() string {
	return fmt.Sprintf("unknown address type %d", e.Type)
}

// readAddress reads a type-tagged IPv4 or IPv6 address.
func readAddress(c utils.Cursor) (netip.Addr, utils.Cursor, error) {
	addrType, next, err := c.Uint32()
	if err != nil {
		return netip.Addr{}, c, err
	}
	switch addrType {
	case AddressTypeIPv4:
		var ip [4]byte
		if next, err = next.Decode(&ip); err != nil {
			return netip.Addr{}, c, err
		}
		return netip.AddrFrom4(ip), next, nil
	case AddressTypeIPv6:
		var ip [16]byte
		if next, err = next.Decode(&ip); err != nil {
			return netip.Addr{}, c, err
		}
		return netip.AddrFrom16(ip), next, nil
	default:
		return netip.Addr{}, c, &AddressTypeError{Type: addrType}
	}
}

// addressType returns the wire tag matching an address.
func addressType(addr netip.Addr) uint32 {
	if addr.Is4() {
		return AddressTypeIPv4
	}
	return AddressTypeIPv6
}

func readIPv4(c utils.Cursor) (netip.Addr, utils.Cursor, error) {
	var ip [4]byte
	c, err := c.Decode(&ip)
	return netip.AddrFrom4(ip), c, err
}

func readIPv6(c utils.Cursor) (netip.Addr, utils.Cursor, error) {
	var ip [16]byte
	c, err := c.Decode(&ip)
	return netip.AddrFrom16(ip), c, err
}
