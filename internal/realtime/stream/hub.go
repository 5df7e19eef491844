// Package stream carries fan-out messages to clients over Server-Sent
// Events, one stream per connection.
package stream

import (
	"sync"

	"github.com/remyvnkhiemtruong/12a6/internal/realtime/fanout"
)

const defaultBuffer = 32

// Hub owns the per-connection outbound channels. It implements
// fanout.Sink.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]chan fanout.Message
	buffer int
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]chan fanout.Message), buffer: defaultBuffer}
}

// Register opens the outbound channel for a connection.
func (h *Hub) Register(connID string) <-chan fanout.Message {
	ch := make(chan fanout.Message, h.buffer)
	h.mu.Lock()
	h.conns[connID] = ch
	h.mu.Unlock()
	return ch
}

// Unregister closes and forgets the channel. Safe to call twice. The
// close happens under the write lock so an in-flight Send, which holds
// the read lock across its enqueue, can never hit a closed channel.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.conns[connID]; ok {
		delete(h.conns, connID)
		close(ch)
	}
}

// Send enqueues without blocking. A slow consumer whose buffer is full
// loses the message; reconnecting clients re-read state over HTTP. The
// read lock is held across the enqueue; the send never blocks, so it is
// released promptly.
func (h *Hub) Send(connID string, msg fanout.Message) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.conns[connID]
	if !ok {
		return false
	}
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}
