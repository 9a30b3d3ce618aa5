// Package packetlist holds the ordered sequence of built frames that the
// TX worker injects in order. It owns the one moment where the Ethernet
// wrapper (internal/frame.WrapEthernet) runs, so every packet that enters
// the list is already wire-final.
package packetlist

import (
	"fmt"

	"github.com/lirlia/packetcorrelator/internal/frame"
)

// Packet is one wire-final frame, immutable once appended to a List.
type Packet struct {
	Bytes     []byte
	IPVersion frame.IPVersion
	Protocol  frame.Protocol
}

// List is an ordered, append-only sequence of Packets with a stable 1-based
// index — the same index used in the on-wire id tag (internal/payload).
type List struct {
	packets []*Packet
}

// New returns an empty list.
func New() *List {
	return &List{}
}

// Add wraps l3 in an Ethernet header and appends it to the list, returning
// the new Packet and its 1-based index.
func (l *List) Add(l3 []byte, version frame.IPVersion, protocol frame.Protocol) (*Packet, int) {
	p := &Packet{
		Bytes:     frame.WrapEthernet(l3, version),
		IPVersion: version,
		Protocol:  protocol,
	}
	l.packets = append(l.packets, p)
	return p, len(l.packets)
}

// Len returns the number of packets in the list.
func (l *List) Len() int {
	return len(l.packets)
}

// At returns the packet at 1-based index idx. It panics on an out-of-range
// index, mirroring slice semantics for an internal, already-validated path.
func (l *List) At(idx int) *Packet {
	if idx < 1 || idx > len(l.packets) {
		panic(fmt.Sprintf("packetlist: index %d out of range [1,%d]", idx, len(l.packets)))
	}
	return l.packets[idx-1]
}

// All returns the packets in insertion order. The returned slice must not
// be mutated by the caller.
func (l *List) All() []*Packet {
	return l.packets
}
