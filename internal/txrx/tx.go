package txrx

import (
	"time"

	"github.com/lirlia/packetcorrelator/internal/packetlist"
	"go.uber.org/zap"
)

// txInterPacketDelay is the fixed pacing the original generator used
// between consecutive injections.
const txInterPacketDelay = 1 * time.Millisecond

// transmit writes every packet in list to handle in list order, recording
// each send timestamp before attempting the write and pausing
// txInterPacketDelay before the next one. The timestamp is recorded
// unconditionally, success or failure, so every attempted send is
// accounted for even if the write itself errors.
func transmit(handle Handle, list *packetlist.List, ctx *Context, log *zap.Logger) {
	for i, p := range list.All() {
		id := i + 1
		ctx.markSent(id)
		if err := handle.WritePacketData(p.Bytes); err != nil {
			log.Warn("tx: write failed", zap.Int("id", id), zap.Error(err))
		}
		time.Sleep(txInterPacketDelay)
	}
}
