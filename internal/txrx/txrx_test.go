package txrx

import (
	"testing"
	"time"

	"github.com/lirlia/packetcorrelator/internal/frame"
	"github.com/lirlia/packetcorrelator/internal/packetlist"
	"github.com/lirlia/packetcorrelator/internal/payload"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func buildList(t *testing.T, n int) *packetlist.List {
	t.Helper()
	list := packetlist.New()
	counter := payload.NewCounter()
	for i := 0; i < n; i++ {
		id := counter.Next()
		tagged := payload.Tag(id, []byte("hi"))
		l3, err := frame.BuildIPv4UDP("127.0.0.1", "127.0.0.1", 9000, 9001, tagged)
		require.NoError(t, err)
		list.Add(l3, frame.IPv4, frame.ProtoUDP)
	}
	return list
}

// TestRunAllPacketsEchoedReportsZeroLoss covers the case where every
// injected packet is echoed back and the run reports zero loss.
func TestRunAllPacketsEchoedReportsZeroLoss(t *testing.T) {
	list := buildList(t, 5)
	tx := newFakeHandle()
	rx := newFakeHandle()
	tx.onWrite = func(data []byte) { rx.deliver(data) }

	result, err := Run(tx, rx, list, 200*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 5, result.Sent)
	require.Equal(t, 5, result.Received)
	require.Equal(t, 0, result.Lost)
	require.Zero(t, result.LossPct)
}

// TestRunNoRepliesCompletesWithinTimeout covers the case where nothing
// answers, so every packet is counted lost, and the run still settles
// within timeout plus a small epsilon rather than hanging forever.
func TestRunNoRepliesCompletesWithinTimeout(t *testing.T) {
	list := buildList(t, 3)
	tx := newFakeHandle()
	rx := newFakeHandle()

	timeout := 80 * time.Millisecond
	start := time.Now()
	result, err := Run(tx, rx, list, timeout, zap.NewNop())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Equal(t, 3, result.Sent)
	require.Equal(t, 0, result.Received)
	require.Equal(t, 3, result.Lost)
	require.InDelta(t, 100.0, result.LossPct, 0.001)

	// rxStartupGrace (100ms) + timeout (80ms) + generous scheduling slack.
	require.Less(t, elapsed, rxStartupGrace+timeout+500*time.Millisecond)
}

// TestRunGarbledRepliesAreDroppedNotCorrelated covers replies that don't
// parse as one of ours (too short, no tag separator): they must be
// dropped without panicking and without being mistaken for a real
// correlation.
func TestRunGarbledRepliesAreDroppedNotCorrelated(t *testing.T) {
	list := buildList(t, 4)
	tx := newFakeHandle()
	rx := newFakeHandle()
	tx.onWrite = func(data []byte) {
		garbled := append([]byte(nil), data...)
		if len(garbled) > 3 {
			garbled = garbled[:len(garbled)-3] // truncate "|hi": payload keeps only the id digit, no separator
		}
		rx.deliver(garbled)
		rx.deliver([]byte{0x01, 0x02, 0x03}) // too short to even have an IPv4 header
	}

	result, err := Run(tx, rx, list, 80*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 4, result.Sent)
	require.Equal(t, 0, result.Received)
	require.Equal(t, 4, result.Lost)
}

// TestRunSendOrderIsMonotone checks that the single TX goroutine
// records send timestamps in non-decreasing list order.
func TestRunSendOrderIsMonotone(t *testing.T) {
	list := buildList(t, 6)
	tx := newFakeHandle()
	rx := newFakeHandle()
	tx.onWrite = func(data []byte) { rx.deliver(data) }

	result, err := Run(tx, rx, list, 200*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	for i := 1; i < len(result.SendNS); i++ {
		require.LessOrEqual(t, result.SendNS[i-1], result.SendNS[i])
	}
}

// TestRunReceiveIsAtMostOnce checks that a duplicated reply for the same
// id is only counted once, keeping the first timestamp.
func TestRunReceiveIsAtMostOnce(t *testing.T) {
	list := buildList(t, 2)
	tx := newFakeHandle()
	rx := newFakeHandle()
	tx.onWrite = func(data []byte) {
		rx.deliver(data)
		rx.deliver(data) // duplicate/retransmitted reply
	}

	result, err := Run(tx, rx, list, 150*time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 2, result.Sent)
	require.Equal(t, 2, result.Received)
	require.Equal(t, 0, result.Lost)
}

func TestRunRejectsEmptyList(t *testing.T) {
	list := packetlist.New()
	_, err := Run(newFakeHandle(), newFakeHandle(), list, time.Second, zap.NewNop())
	require.Error(t, err)
}
