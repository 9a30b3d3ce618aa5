// Package frame builds byte-exact Ethernet/IPv4/IPv6 frames carrying TCP,
// UDP, or ICMP/ICMPv6, including the layered checksum computations RFC 1071
// requires. This is the hard engineering the rest of the module depends on:
// a wrong checksum here silently drops every packet on the wire.
package frame

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"net"

	"github.com/lirlia/packetcorrelator/internal/checksum"
)

// IPVersion selects the L3 family of a built frame.
type IPVersion int

const (
	IPv4 IPVersion = 4
	IPv6 IPVersion = 6
)

func (v IPVersion) String() string {
	if v == IPv6 {
		return "ipv6"
	}
	return "ipv4"
}

// Protocol selects the L4 protocol of a built frame.
type Protocol int

const (
	ProtoTCP Protocol = iota
	ProtoUDP
	ProtoICMP
)

func (p Protocol) String() string {
	switch p {
	case ProtoTCP:
		return "tcp"
	case ProtoUDP:
		return "udp"
	default:
		return "icmp"
	}
}

// IP protocol / next-header numbers, per RFC 790 / RFC 8200.
const (
	ipProtoICMP   = 1
	ipProtoTCP    = 6
	ipProtoUDP    = 17
	ipProtoICMPv6 = 58
)

const (
	ipv4HeaderLen = 20
	ipv6HeaderLen = 40
	tcpHeaderLen  = 20
	udpHeaderLen  = 8
	icmpHeaderLen = 8

	tcpWindowSize = 5840
)

func parseV4Pair(srcIP, dstIP string) (net.IP, net.IP, error) {
	src := net.ParseIP(srcIP).To4()
	dst := net.ParseIP(dstIP).To4()
	if src == nil || dst == nil {
		return nil, nil, fmt.Errorf("frame: invalid IPv4 address src=%q dst=%q", srcIP, dstIP)
	}
	return src, dst, nil
}

func parseV6Pair(srcIP, dstIP string) (net.IP, net.IP, error) {
	srcParsed := net.ParseIP(srcIP)
	dstParsed := net.ParseIP(dstIP)
	if srcParsed == nil || dstParsed == nil || srcParsed.To4() != nil || dstParsed.To4() != nil {
		return nil, nil, fmt.Errorf("frame: invalid IPv6 address src=%q dst=%q", srcIP, dstIP)
	}
	return srcParsed.To16(), dstParsed.To16(), nil
}

// randIdentification returns a non-zero 16-bit IP identification value.
// Uniqueness is not guaranteed, matching the upstream generator's behavior.
func randIdentification() uint16 {
	return uint16(rand.Intn(65535) + 1)
}

func ipv4HeaderBytes(src, dst net.IP, protocol uint8, totalLen int) []byte {
	h := make([]byte, ipv4HeaderLen)
	h[0] = (4 << 4) | 5 // version=4, IHL=5 (no options)
	h[1] = 0            // TOS
	binary.BigEndian.PutUint16(h[2:4], uint16(totalLen))
	binary.BigEndian.PutUint16(h[4:6], randIdentification())
	binary.BigEndian.PutUint16(h[6:8], 0x4000) // DF, no fragment offset
	h[8] = 64                                  // TTL
	h[9] = protocol
	// h[10:12] checksum, filled below
	copy(h[12:16], src)
	copy(h[16:20], dst)
	cs := checksum.Internet(h)
	binary.BigEndian.PutUint16(h[10:12], cs)
	return h
}

func ipv6HeaderBytes(src, dst net.IP, nextHeader uint8, payloadLen int) []byte {
	h := make([]byte, ipv6HeaderLen)
	h[0] = 0x60 // version=6, traffic class and flow label zero
	binary.BigEndian.PutUint16(h[4:6], uint16(payloadLen))
	h[6] = nextHeader
	h[7] = 64 // hop limit
	copy(h[8:24], src)
	copy(h[24:40], dst)
	return h
}

func pseudoHeaderV4(src, dst net.IP, protocol uint8, length int) []byte {
	b := make([]byte, 12)
	copy(b[0:4], src)
	copy(b[4:8], dst)
	b[8] = 0
	b[9] = protocol
	binary.BigEndian.PutUint16(b[10:12], uint16(length))
	return b
}

func pseudoHeaderV6(src, dst net.IP, nextHeader uint8, length int) []byte {
	b := make([]byte, 40)
	copy(b[0:16], src)
	copy(b[16:32], dst)
	binary.BigEndian.PutUint32(b[32:36], uint32(length))
	b[39] = nextHeader
	return b
}

// transportChecksum computes the Internet checksum over pseudo||segment,
// padding a trailing zero byte into a scratch buffer when the combined
// length is odd (RFC 1071) without ever mutating segment itself. pseudo may
// be nil (plain IPv4 ICMP has no pseudo-header).
func transportChecksum(pseudo, segment []byte) uint16 {
	buf := make([]byte, 0, len(pseudo)+len(segment)+1)
	buf = append(buf, pseudo...)
	buf = append(buf, segment...)
	if len(buf)%2 != 0 {
		buf = append(buf, 0)
	}
	return checksum.Internet(buf)
}

func tcpHeaderBytes(srcPort, dstPort uint16, seq, ack uint32, flags uint8) []byte {
	h := make([]byte, tcpHeaderLen)
	binary.BigEndian.PutUint16(h[0:2], srcPort)
	binary.BigEndian.PutUint16(h[2:4], dstPort)
	binary.BigEndian.PutUint32(h[4:8], seq)
	binary.BigEndian.PutUint32(h[8:12], ack)
	dataOffsetFlags := uint16(5)<<12 | uint16(flags)
	binary.BigEndian.PutUint16(h[12:14], dataOffsetFlags)
	binary.BigEndian.PutUint16(h[14:16], tcpWindowSize)
	// h[16:18] checksum filled by caller, h[18:20] urgent pointer stays zero
	return h
}

func udpHeaderBytes(srcPort, dstPort uint16, payloadLen int) []byte {
	h := make([]byte, udpHeaderLen)
	binary.BigEndian.PutUint16(h[0:2], srcPort)
	binary.BigEndian.PutUint16(h[2:4], dstPort)
	binary.BigEndian.PutUint16(h[4:6], uint16(udpHeaderLen+payloadLen))
	return h
}

func icmpHeaderBytes(icmpType, icmpCode uint8, id, seq uint16) []byte {
	h := make([]byte, icmpHeaderLen)
	h[0] = icmpType
	h[1] = icmpCode
	binary.BigEndian.PutUint16(h[4:6], id)
	binary.BigEndian.PutUint16(h[6:8], seq)
	return h
}

// BuildIPv4TCP constructs an IPv4 packet (IP header + TCP header + payload,
// not yet Ethernet-framed).
func BuildIPv4TCP(srcIP, dstIP string, srcPort, dstPort uint16, seq, ack uint32, flags uint8, payload []byte) ([]byte, error) {
	src, dst, err := parseV4Pair(srcIP, dstIP)
	if err != nil {
		return nil, err
	}
	segment := append(tcpHeaderBytes(srcPort, dstPort, seq, ack, flags), payload...)
	cs := transportChecksum(pseudoHeaderV4(src, dst, ipProtoTCP, len(segment)), segment)
	binary.BigEndian.PutUint16(segment[16:18], cs)
	ip := ipv4HeaderBytes(src, dst, ipProtoTCP, ipv4HeaderLen+len(segment))
	return append(ip, segment...), nil
}

// BuildIPv4UDP constructs an IPv4/UDP packet.
func BuildIPv4UDP(srcIP, dstIP string, srcPort, dstPort uint16, payload []byte) ([]byte, error) {
	src, dst, err := parseV4Pair(srcIP, dstIP)
	if err != nil {
		return nil, err
	}
	segment := append(udpHeaderBytes(srcPort, dstPort, len(payload)), payload...)
	cs := transportChecksum(pseudoHeaderV4(src, dst, ipProtoUDP, len(segment)), segment)
	if cs == 0 {
		// RFC 768: a computed checksum of zero is transmitted as all-ones.
		cs = 0xFFFF
	}
	binary.BigEndian.PutUint16(segment[6:8], cs)
	ip := ipv4HeaderBytes(src, dst, ipProtoUDP, ipv4HeaderLen+len(segment))
	return append(ip, segment...), nil
}

// BuildIPv4ICMP constructs an IPv4/ICMP echo-style packet. The checksum
// covers only the ICMP header and payload, with no pseudo-header.
func BuildIPv4ICMP(srcIP, dstIP string, icmpType, icmpCode uint8, id, seq uint16, payload []byte) ([]byte, error) {
	src, dst, err := parseV4Pair(srcIP, dstIP)
	if err != nil {
		return nil, err
	}
	msg := append(icmpHeaderBytes(icmpType, icmpCode, id, seq), payload...)
	cs := transportChecksum(nil, msg)
	binary.BigEndian.PutUint16(msg[2:4], cs)
	ip := ipv4HeaderBytes(src, dst, ipProtoICMP, ipv4HeaderLen+len(msg))
	return append(ip, msg...), nil
}

// BuildIPv6TCP constructs an IPv6/TCP packet. IPv6 carries no IP-level
// checksum; next_header/hop_limit take its place in the fixed header.
func BuildIPv6TCP(srcIP, dstIP string, srcPort, dstPort uint16, seq, ack uint32, flags uint8, payload []byte) ([]byte, error) {
	src, dst, err := parseV6Pair(srcIP, dstIP)
	if err != nil {
		return nil, err
	}
	segment := append(tcpHeaderBytes(srcPort, dstPort, seq, ack, flags), payload...)
	cs := transportChecksum(pseudoHeaderV6(src, dst, ipProtoTCP, len(segment)), segment)
	binary.BigEndian.PutUint16(segment[16:18], cs)
	ip := ipv6HeaderBytes(src, dst, ipProtoTCP, len(segment))
	return append(ip, segment...), nil
}

// BuildIPv6UDP constructs an IPv6/UDP packet.
func BuildIPv6UDP(srcIP, dstIP string, srcPort, dstPort uint16, payload []byte) ([]byte, error) {
	src, dst, err := parseV6Pair(srcIP, dstIP)
	if err != nil {
		return nil, err
	}
	segment := append(udpHeaderBytes(srcPort, dstPort, len(payload)), payload...)
	cs := transportChecksum(pseudoHeaderV6(src, dst, ipProtoUDP, len(segment)), segment)
	if cs == 0 {
		cs = 0xFFFF
	}
	binary.BigEndian.PutUint16(segment[6:8], cs)
	ip := ipv6HeaderBytes(src, dst, ipProtoUDP, len(segment))
	return append(ip, segment...), nil
}

// BuildIPv6ICMP constructs an IPv6/ICMPv6 packet. Unlike plain ICMP, the
// ICMPv6 checksum is computed over the IPv6 pseudo-header plus message.
func BuildIPv6ICMP(srcIP, dstIP string, icmpType, icmpCode uint8, id, seq uint16, payload []byte) ([]byte, error) {
	src, dst, err := parseV6Pair(srcIP, dstIP)
	if err != nil {
		return nil, err
	}
	msg := append(icmpHeaderBytes(icmpType, icmpCode, id, seq), payload...)
	cs := transportChecksum(pseudoHeaderV6(src, dst, ipProtoICMPv6, len(msg)), msg)
	binary.BigEndian.PutUint16(msg[2:4], cs)
	ip := ipv6HeaderBytes(src, dst, ipProtoICMPv6, len(msg))
	return append(ip, msg...), nil
}

// HeaderLengths returns the expected IP and L4 header lengths for a given
// version/protocol pair, used by tests to verify frame-length accounting.
func HeaderLengths(version IPVersion, protocol Protocol) (ipLen, l4Len int) {
	if version == IPv6 {
		ipLen = ipv6HeaderLen
	} else {
		ipLen = ipv4HeaderLen
	}
	switch protocol {
	case ProtoTCP:
		l4Len = tcpHeaderLen
	default:
		l4Len = udpHeaderLen // UDP and ICMP both carry an 8-byte L4 header
	}
	return ipLen, l4Len
}
