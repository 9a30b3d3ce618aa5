// Package txrx implements the concurrent TX/RX correlator: one goroutine
// injects the packet list while another captures replies, a shared
// mutex/cond-guarded Context records send/receive timestamps, and Run
// reports the resulting send/receive/loss summary once the run settles.
package txrx

import (
	"fmt"
	"time"

	"github.com/lirlia/packetcorrelator/internal/packetlist"
	"go.uber.org/zap"
)

// rxStartupGrace gives the capture handle time to come up before the
// first frame is injected, so the very first reply isn't missed.
const rxStartupGrace = 100 * time.Millisecond

// Result summarizes one correlation run.
type Result struct {
	Sent     int
	Received int
	Lost     int
	LossPct  float64
	SendNS   []int64
	RecvNS   []int64
}

// Run injects every packet in list over txHandle while rxHandle captures
// replies, waits up to timeout past TX completion for outstanding
// replies, then returns the send/receive/loss summary. Both handles are
// owned by the caller for opening but Run closes rxHandle once the run
// settles; txHandle is left to the caller to close.
func Run(txHandle, rxHandle Handle, list *packetlist.List, timeout time.Duration, log *zap.Logger) (Result, error) {
	n := list.Len()
	if n == 0 {
		return Result{}, fmt.Errorf("txrx: empty packet list")
	}

	ctx := newContext(n, time.Now())
	txDone := make(chan struct{})
	stopRX := make(chan struct{})
	rxDone := make(chan struct{})

	go func() {
		receive(rxHandle, ctx, 1, n, stopRX, log)
		close(rxDone)
	}()
	time.Sleep(rxStartupGrace)

	go func() {
		transmit(txHandle, list, ctx, log)
		close(txDone)
	}()

	ctx.waitUntilDone(txDone, timeout)
	<-txDone // TX always runs to completion; never abandon mid-injection.

	close(stopRX)
	rxHandle.Close()
	<-rxDone

	sendNS, recvNS := ctx.snapshot()
	sent, received := 0, 0
	for i := 0; i < n; i++ {
		if sendNS[i] != 0 {
			sent++
		}
		if recvNS[i] != 0 {
			received++
		}
	}
	lost := sent - received
	if lost < 0 {
		lost = 0
	}
	lossPct := 0.0
	if sent > 0 {
		lossPct = float64(lost) / float64(sent) * 100
	}

	log.Info("run complete",
		zap.Int("sent", sent), zap.Int("received", received),
		zap.Int("lost", lost), zap.Float64("loss_pct", lossPct))

	return Result{
		Sent: sent, Received: received, Lost: lost, LossPct: lossPct,
		SendNS: sendNS, RecvNS: recvNS,
	}, nil
}
