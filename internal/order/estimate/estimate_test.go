package estimate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPriorityScore(t *testing.T) {
	assert.Equal(t, 0, PriorityScore(false, false, false))
	assert.Equal(t, 100, PriorityScore(true, false, false))
	assert.Equal(t, 50, PriorityScore(false, true, false))
	assert.Equal(t, 30, PriorityScore(false, false, true))
	assert.Equal(t, 180, PriorityScore(true, true, true))

	// Urgent alone outranks VIP plus teacher combined.
	assert.Greater(t, PriorityScore(true, false, false), PriorityScore(false, true, true))
}

func TestReadyTime(t *testing.T) {
	now := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)

	// Stations run in parallel; the slowest line dictates the estimate.
	ready := ReadyTime(now, []Prep{
		{PrepMinutes: 5, Quantity: 2},
		{PrepMinutes: 8, Quantity: 1},
	})
	assert.Equal(t, now.Add(10*time.Minute), ready)

	assert.Equal(t, now, ReadyTime(now, nil))
}

func TestDeliveryTime(t *testing.T) {
	ready := time.Date(2025, 3, 7, 10, 10, 0, 0, time.UTC)
	assert.Equal(t, ready.Add(10*time.Minute), DeliveryTime(ready, 10*time.Minute))
}
