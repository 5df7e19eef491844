// Package estimate derives priority scores and estimated timestamps. These
// drive sort order and customer-facing ETAs only, never transition legality.
package estimate

import "time"

// Priority weights. Monotone: adding a flag never lowers the score.
const (
	UrgentWeight  = 100
	VIPWeight     = 50
	TeacherWeight = 30
)

// PriorityScore collapses the boolean flags into the numeric sort key.
func PriorityScore(urgent, vip, teacher bool) int {
	score := 0
	if urgent {
		score += UrgentWeight
	}
	if vip {
		score += VIPWeight
	}
	if teacher {
		score += TeacherWeight
	}
	return score
}

// Prep describes one line item's kitchen load.
type Prep struct {
	PrepMinutes int
	Quantity    int
}

// ReadyTime models the slowest parallel station: now plus the max over
// items of prepTime×quantity, in minutes.
func ReadyTime(now time.Time, items []Prep) time.Time {
	maxMin := 0
	for _, it := range items {
		if m := it.PrepMinutes * it.Quantity; m > maxMin {
			maxMin = m
		}
	}
	return now.Add(time.Duration(maxMin) * time.Minute)
}

// DeliveryTime adds the configured delivery buffer on top of the ready
// estimate.
func DeliveryTime(ready time.Time, buffer time.Duration) time.Time {
	return ready.Add(buffer)
}
