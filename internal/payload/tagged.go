// Package payload implements the on-wire tagged-payload convention: every
// L4 payload this module sends begins with "<decimal-id>|", letting the RX
// side recognize and correlate frames it generated.
package payload

import (
	"bytes"
	"strconv"
	"sync"
)

// Counter hands out sequential packet ids starting at 1. It is safe for
// concurrent use, though template expansion currently draws ids from a
// single goroutine.
type Counter struct {
	mu   sync.Mutex
	next uint64
}

// NewCounter returns a counter seeded at 1.
func NewCounter() *Counter {
	return &Counter{next: 1}
}

// Next draws and returns the next id, advancing the counter.
func (c *Counter) Next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	return id
}

// Tag prepends "<id>|" to userPayload, returning a new buffer owned by the
// caller (typically a frame builder).
func Tag(id uint64, userPayload []byte) []byte {
	prefix := strconv.FormatUint(id, 10) + "|"
	out := make([]byte, 0, len(prefix)+len(userPayload))
	out = append(out, prefix...)
	out = append(out, userPayload...)
	return out
}

// ParseID reads the ASCII-decimal id prefix of a received L4 payload,
// returning the id, the remaining bytes after the separator, and whether the
// payload carried a valid tag. A payload with no "|", or whose bytes before
// the first "|" are not a decimal integer, is not one of ours.
func ParseID(l4Payload []byte) (id int, rest []byte, ok bool) {
	idx := bytes.IndexByte(l4Payload, '|')
	if idx < 0 {
		return 0, nil, false
	}
	n, err := strconv.Atoi(string(l4Payload[:idx]))
	if err != nil {
		return 0, nil, false
	}
	return n, l4Payload[idx+1:], true
}
