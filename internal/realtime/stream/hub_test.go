package stream

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remyvnkhiemtruong/12a6/internal/realtime/fanout"
)

func TestSendToRegisteredConnection(t *testing.T) {
	h := NewHub()
	ch := h.Register("c1")

	require.True(t, h.Send("c1", fanout.Message{Event: "order_created"}))
	msg := <-ch
	assert.Equal(t, "order_created", msg.Event)
}

func TestSendToUnknownConnectionIsDropped(t *testing.T) {
	h := NewHub()
	assert.False(t, h.Send("ghost", fanout.Message{Event: "order_created"}))
}

func TestSlowConsumerLosesMessagesInsteadOfBlocking(t *testing.T) {
	h := NewHub()
	h.Register("slow")

	delivered := 0
	for i := 0; i < defaultBuffer+10; i++ {
		if h.Send("slow", fanout.Message{Event: "tick"}) {
			delivered++
		}
	}
	assert.Equal(t, defaultBuffer, delivered)
}

func TestUnregisterClosesChannel(t *testing.T) {
	h := NewHub()
	ch := h.Register("c1")
	h.Unregister("c1")

	_, open := <-ch
	assert.False(t, open)

	// Safe to unregister twice.
	h.Unregister("c1")
	assert.False(t, h.Send("c1", fanout.Message{Event: "x"}))
}

// A client disconnecting in the middle of a fan-out must never panic the
// sender. Exercised best with -race.
func TestConcurrentSendAndUnregister(t *testing.T) {
	h := NewHub()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		connID := fmt.Sprintf("c%d", i)
		h.Register(connID)

		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				h.Send(connID, fanout.Message{Event: "tick"})
			}
		}()
		go func() {
			defer wg.Done()
			h.Unregister(connID)
		}()
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		assert.False(t, h.Send(fmt.Sprintf("c%d", i), fanout.Message{Event: "x"}))
	}
}
