package packetlist

import (
	"testing"

	"github.com/lirlia/packetcorrelator/internal/frame"
	"github.com/stretchr/testify/require"
)

func TestAddAssignsStableOneBasedIndex(t *testing.T) {
	l := New()
	l3a, err := frame.BuildIPv4UDP("127.0.0.1", "127.0.0.1", 1, 2, []byte("1|a"))
	require.NoError(t, err)
	l3b, err := frame.BuildIPv4UDP("127.0.0.1", "127.0.0.1", 1, 2, []byte("2|b"))
	require.NoError(t, err)

	_, idxA := l.Add(l3a, frame.IPv4, frame.ProtoUDP)
	_, idxB := l.Add(l3b, frame.IPv4, frame.ProtoUDP)

	require.Equal(t, 1, idxA)
	require.Equal(t, 2, idxB)
	require.Equal(t, 2, l.Len())
	require.Same(t, l.At(1), l.All()[0])
	require.Same(t, l.At(2), l.All()[1])
}

func TestAddAppliesEthernetWrapperExactlyOnce(t *testing.T) {
	l := New()
	l3, err := frame.BuildIPv4UDP("127.0.0.1", "127.0.0.1", 1, 2, []byte("1|hi"))
	require.NoError(t, err)

	p, _ := l.Add(l3, frame.IPv4, frame.ProtoUDP)
	require.Equal(t, frame.EthernetHeaderLen+len(l3), len(p.Bytes))
	require.Equal(t, l3, p.Bytes[frame.EthernetHeaderLen:])
}

func TestAtPanicsOutOfRange(t *testing.T) {
	l := New()
	require.Panics(t, func() { l.At(1) })
}
