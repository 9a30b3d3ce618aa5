package txrx

import (
	"errors"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
)

// fakeHandle is an in-memory Handle double used to exercise the
// correlator's concurrency and timeout behavior without a real NIC or
// libpcap. onWrite, when set, is invoked synchronously from
// WritePacketData so a test can wire a loopback responder between two
// fakeHandles.
type fakeHandle struct {
	mu      sync.Mutex
	sent    [][]byte
	onWrite func(data []byte)
	inbox   chan []byte
	closed  chan struct{}
	once    sync.Once
}

var errHandleClosed = errors.New("txrx: fake handle closed")

func newFakeHandle() *fakeHandle {
	return &fakeHandle{inbox: make(chan []byte, 4096), closed: make(chan struct{})}
}

func (f *fakeHandle) WritePacketData(data []byte) error {
	cp := append([]byte(nil), data...)
	f.mu.Lock()
	f.sent = append(f.sent, cp)
	hook := f.onWrite
	f.mu.Unlock()
	if hook != nil {
		hook(cp)
	}
	return nil
}

// deliver injects a frame into this handle's read queue, as if captured
// off the wire.
func (f *fakeHandle) deliver(data []byte) {
	select {
	case f.inbox <- data:
	case <-f.closed:
	}
}

func (f *fakeHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	select {
	case data := <-f.inbox:
		return data, gopacket.CaptureInfo{CaptureLength: len(data), Length: len(data)}, nil
	case <-time.After(15 * time.Millisecond):
		return nil, gopacket.CaptureInfo{}, pcap.NextErrorTimeoutExpired
	case <-f.closed:
		return nil, gopacket.CaptureInfo{}, errHandleClosed
	}
}

func (f *fakeHandle) Close() {
	f.once.Do(func() { close(f.closed) })
}

func (f *fakeHandle) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
