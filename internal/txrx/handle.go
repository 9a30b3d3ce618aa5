package txrx

import (
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// Handle is the capture/injection contract the TX and RX workers need. Each
// method's signature matches *pcap.Handle exactly, so the real implementation is a
// live pcap handle; tests substitute an in-memory fake (see fake_handle_test.go)
// so the correlator's concurrency and timeout behavior can be exercised
// without a real NIC or libpcap.
type Handle interface {
	WritePacketData(data []byte) error
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)
	Close()
}

// OpenInjector opens a raw-injection handle on iface. Promiscuous mode is
// irrelevant for sending and left off; the read timeout is likewise
// immaterial since the TX worker never reads.
func OpenInjector(iface string) (Handle, error) {
	return pcap.OpenLive(iface, 65535, false, pcap.BlockForever)
}

// OpenCapture opens a live, promiscuous capture handle on iface with a
// 100ms read timeout, so the RX loop can poll for a stop signal between
// reads instead of blocking forever on a quiet interface.
func OpenCapture(iface string) (Handle, error) {
	return pcap.OpenLive(iface, 65535, true, 100*time.Millisecond)
}

// IsTimeout reports whether err is the expected "no packet within the read
// timeout" result of a capture poll, as opposed to a real capture error.
func IsTimeout(err error) bool {
	return err == pcap.NextErrorTimeoutExpired
}
