// Package pcapdump writes injected frames to a pcap file via
// gopacket/pcapgo, so a run's traffic can be replayed or inspected later.
package pcapdump

import (
	"fmt"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const snaplen = 65535

// Writer appends frames to an open pcap file.
type Writer struct {
	file *os.File
	pw   *pcapgo.Writer
}

// Open creates (or truncates) the pcap file at path and writes its
// Ethernet-linktype file header.
func Open(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("pcapdump: create %s: %w", path, err)
	}
	pw := pcapgo.NewWriter(f)
	if err := pw.WriteFileHeader(snaplen, layers.LinkTypeEthernet); err != nil {
		f.Close()
		return nil, fmt.Errorf("pcapdump: write file header: %w", err)
	}
	return &Writer{file: f, pw: pw}, nil
}

// WritePacket appends one frame, stamped with ts.
func (w *Writer) WritePacket(data []byte, ts time.Time) error {
	ci := gopacket.CaptureInfo{
		Timestamp:     ts,
		CaptureLength: len(data),
		Length:        len(data),
	}
	if err := w.pw.WritePacket(ci, data); err != nil {
		return fmt.Errorf("pcapdump: write packet: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.file.Close()
}
