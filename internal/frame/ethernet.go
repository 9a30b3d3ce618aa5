package frame

import "encoding/binary"

// EthernetHeaderLen is the fixed size of the L2 header prepended to every
// outgoing frame.
const EthernetHeaderLen = 14

// Destination and source MAC are fixed constants: this module never does
// ARP/ND resolution (see spec Non-goals).
var (
	destMAC = [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	srcMAC  = [6]byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
)

const (
	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86DD
)

// WrapEthernet prepends the 14-byte Ethernet header to an IP/L4 slab,
// selecting EtherType by IP version. Applied exactly once, at the moment a
// packet is appended to a packetlist.List.
func WrapEthernet(l3 []byte, version IPVersion) []byte {
	etherType := uint16(etherTypeIPv4)
	if version == IPv6 {
		etherType = etherTypeIPv6
	}
	out := make([]byte, EthernetHeaderLen+len(l3))
	copy(out[0:6], destMAC[:])
	copy(out[6:12], srcMAC[:])
	binary.BigEndian.PutUint16(out[12:14], etherType)
	copy(out[14:], l3)
	return out
}
