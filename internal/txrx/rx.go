package txrx

import (
	"encoding/binary"

	"github.com/lirlia/packetcorrelator/internal/payload"
	"go.uber.org/zap"
)

const (
	etherTypeOffset   = 12
	etherTypeIPv4     = 0x0800
	ethernetHeaderLen = 14
	ipv4MinHeaderLen  = 20

	ipProtoICMP = 1
	ipProtoTCP  = 6
	ipProtoUDP  = 17

	tcpMinHeaderLen = 20
	udpHeaderLen    = 8
	icmpHeaderLen   = 8
)

// l4Payload walks an Ethernet frame down to its L4 payload, reporting
// whether the frame is one this module can correlate. Only IPv4 carrying
// TCP/UDP/ICMP is recognized; anything else (IPv6, other EtherTypes, a
// garbled or foreign frame) is reported as unrecognized.
func l4Payload(frameBytes []byte) ([]byte, bool) {
	if len(frameBytes) < ethernetHeaderLen+ipv4MinHeaderLen {
		return nil, false
	}
	if binary.BigEndian.Uint16(frameBytes[etherTypeOffset:etherTypeOffset+2]) != etherTypeIPv4 {
		return nil, false
	}
	ip := frameBytes[ethernetHeaderLen:]
	ihl := int(ip[0]&0x0f) * 4
	if ihl < ipv4MinHeaderLen || len(ip) < ihl {
		return nil, false
	}
	var headerLen int
	switch ip[9] {
	case ipProtoTCP:
		// TCP has no fixed header length: the data-offset nibble in the
		// high bits of byte 12 of the TCP header gives the length in
		// 32-bit words, accounting for any options.
		if len(ip) < ihl+tcpMinHeaderLen {
			return nil, false
		}
		dataOffsetWords := ip[ihl+12] >> 4
		headerLen = int(dataOffsetWords) * 4
		if headerLen < tcpMinHeaderLen {
			return nil, false
		}
	case ipProtoUDP:
		headerLen = udpHeaderLen
	case ipProtoICMP:
		headerLen = icmpHeaderLen
	default:
		return nil, false
	}
	l4 := ip[ihl:]
	if len(l4) < headerLen {
		return nil, false
	}
	return l4[headerLen:], true
}

// receive polls handle for frames until stop closes, correlating every
// recognized reply whose tagged id falls in [minID, maxID]. A frame that
// fails to parse, carries an unrecognized protocol, or lacks the "id|"
// tag is silently dropped rather than treated as an error.
func receive(handle Handle, ctx *Context, minID, maxID int, stop <-chan struct{}, log *zap.Logger) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		data, _, err := handle.ReadPacketData()
		if err != nil {
			if IsTimeout(err) {
				continue
			}
			log.Debug("rx: capture ended", zap.Error(err))
			return
		}

		payloadBytes, ok := l4Payload(data)
		if !ok {
			continue
		}
		id, _, ok := payload.ParseID(payloadBytes)
		if !ok || id < minID || id > maxID {
			continue
		}
		ctx.markReceived(id)
	}
}
