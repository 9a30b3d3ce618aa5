// Package template loads the JSON packet-template file and expands it into
// a packetlist.List, drawing tagged-payload ids from a run-global counter
// in array-then-packet_count order.
package template

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/lirlia/packetcorrelator/internal/frame"
	"github.com/lirlia/packetcorrelator/internal/packetlist"
	"github.com/lirlia/packetcorrelator/internal/payload"
	"go.uber.org/zap"
)

// Record mirrors one JSON template object. Unknown fields are ignored by
// encoding/json's default decode behavior.
type Record struct {
	ProtocolFamily    string `json:"protocol_family"`
	TransportProtocol string `json:"transport_protocol"`
	SrcIP             string `json:"src_ip"`
	DstIP             string `json:"dst_ip"`
	SrcPort           int    `json:"src_port"`
	DstPort           int    `json:"dst_port"`
	PacketCount       int    `json:"packet_count"`
	TCPSeq            uint32 `json:"tcp_seq"`
	TCPAckSeq         uint32 `json:"tcp_ack_seq"`
	TCPFlags          uint8  `json:"tcp_flags"`
	ICMPType          uint8  `json:"icmp_type"`
	ICMPCode          uint8  `json:"icmp_code"`
	Payload           string `json:"payload"`
}

// Load reads and parses the JSON template file at path. The root must be a
// JSON array; anything else is an input error.
func Load(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("template: read %s: %w", path, err)
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("template: parse %s: %w", path, err)
	}
	if records == nil {
		return nil, fmt.Errorf("template: parse %s: root is not a JSON array", path)
	}
	return records, nil
}

func family(r Record) string {
	f := strings.ToLower(strings.TrimSpace(r.ProtocolFamily))
	if f == "" {
		return "ipv4"
	}
	return f
}

func transport(r Record) string {
	p := strings.ToLower(strings.TrimSpace(r.TransportProtocol))
	if p == "" {
		return "udp"
	}
	return p
}

func copies(r Record) int {
	if r.PacketCount <= 0 {
		return 1
	}
	return r.PacketCount
}

// validateAddrs checks that src and dst each parse as the record's chosen
// family before an id is drawn, so a construction error never burns an
// id. Each address is checked independently: a record isn't "ipv4
// enough" just because one of its two addresses happens to parse as
// IPv4.
func validateAddrs(fam, srcIP, dstIP string) error {
	src := net.ParseIP(srcIP)
	dst := net.ParseIP(dstIP)
	if src == nil || dst == nil {
		return fmt.Errorf("template: invalid address src=%q dst=%q", srcIP, dstIP)
	}
	srcIsV4 := src.To4() != nil
	dstIsV4 := dst.To4() != nil
	if fam == "ipv6" && (srcIsV4 || dstIsV4) {
		return fmt.Errorf("template: ipv6 record got an IPv4 address src=%q dst=%q", srcIP, dstIP)
	}
	// buildFrame builds every non-ipv6 family as IPv4, so check it as such.
	if fam != "ipv6" && (!srcIsV4 || !dstIsV4) {
		return fmt.Errorf("template: ipv4 record got a non-IPv4 address src=%q dst=%q", srcIP, dstIP)
	}
	return nil
}

func buildFrame(fam, proto string, r Record, tagged []byte) ([]byte, frame.IPVersion, frame.Protocol, error) {
	if fam == "ipv6" {
		switch proto {
		case "tcp":
			b, err := frame.BuildIPv6TCP(r.SrcIP, r.DstIP, uint16(r.SrcPort), uint16(r.DstPort), r.TCPSeq, r.TCPAckSeq, r.TCPFlags, tagged)
			return b, frame.IPv6, frame.ProtoTCP, err
		case "icmp":
			// original_source always passes id=0, seq=0 regardless of template fields.
			b, err := frame.BuildIPv6ICMP(r.SrcIP, r.DstIP, r.ICMPType, r.ICMPCode, 0, 0, tagged)
			return b, frame.IPv6, frame.ProtoICMP, err
		default:
			b, err := frame.BuildIPv6UDP(r.SrcIP, r.DstIP, uint16(r.SrcPort), uint16(r.DstPort), tagged)
			return b, frame.IPv6, frame.ProtoUDP, err
		}
	}
	switch proto {
	case "tcp":
		b, err := frame.BuildIPv4TCP(r.SrcIP, r.DstIP, uint16(r.SrcPort), uint16(r.DstPort), r.TCPSeq, r.TCPAckSeq, r.TCPFlags, tagged)
		return b, frame.IPv4, frame.ProtoTCP, err
	case "icmp":
		b, err := frame.BuildIPv4ICMP(r.SrcIP, r.DstIP, r.ICMPType, r.ICMPCode, 0, 0, tagged)
		return b, frame.IPv4, frame.ProtoICMP, err
	default:
		b, err := frame.BuildIPv4UDP(r.SrcIP, r.DstIP, uint16(r.SrcPort), uint16(r.DstPort), tagged)
		return b, frame.IPv4, frame.ProtoUDP, err
	}
}

// Expand walks records in array order and, within each record, emits
// packet_count copies sequentially, so ids reflect lexical order. It
// returns the populated list and the number of packets skipped due to
// construction errors (each skipped copy of a record counts once).
func Expand(records []Record, counter *payload.Counter, log *zap.Logger) (*packetlist.List, int) {
	list := packetlist.New()
	skipped := 0
	for i, r := range records {
		fam := family(r)
		proto := transport(r)
		n := copies(r)
		for c := 0; c < n; c++ {
			if err := validateAddrs(fam, r.SrcIP, r.DstIP); err != nil {
				log.Warn("skipping packet: construction error",
					zap.Int("template_index", i), zap.Int("copy", c), zap.Error(err))
				skipped++
				continue
			}
			id := counter.Next()
			tagged := payload.Tag(id, []byte(r.Payload))
			l3, version, protocol, err := buildFrame(fam, proto, r, tagged)
			if err != nil {
				log.Warn("skipping packet: construction error",
					zap.Int("template_index", i), zap.Int("copy", c), zap.Error(err))
				skipped++
				continue
			}
			list.Add(l3, version, protocol)
		}
	}
	return list, skipped
}
