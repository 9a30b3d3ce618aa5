package pcapdump

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"
)

func TestOpenWritesReadableRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.pcap")

	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.WritePacket([]byte{1, 2, 3, 4}, time.Now()))
	require.NoError(t, w.WritePacket([]byte{5, 6}, time.Now()))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	require.NoError(t, err)

	data, ci, err := r.ReadPacketData()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, data)
	require.Equal(t, 4, ci.CaptureLength)

	data, _, err = r.ReadPacketData()
	require.NoError(t, err)
	require.Equal(t, []byte{5, 6}, data)
}

func TestOpenFailsOnUnwritablePath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing-dir", "out.pcap"))
	require.Error(t, err)
}
