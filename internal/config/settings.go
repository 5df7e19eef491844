package config

import "sync"

// RuntimeSettings is the operational knobs staff can flip while the
// service runs: the online-order stop switch plus the order size limits.
type RuntimeSettings struct {
	mu         sync.RWMutex
	maxItems   int
	maxQty     int
	stopped    bool
	stopReason string
}

func NewRuntimeSettings(orders Orders) *RuntimeSettings {
	return &RuntimeSettings{
		maxItems: orders.MaxItemsPerOrder,
		maxQty:   orders.MaxQuantityPerItem,
	}
}

func (s *RuntimeSettings) MaxItemsPerOrder() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxItems
}

func (s *RuntimeSettings) MaxQuantityPerItem() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxQty
}

func (s *RuntimeSettings) OrdersStopped() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopped, s.stopReason
}

// StopOrders flips the stop switch. Reason is shown to customers who try
// to order while it is on.
func (s *RuntimeSettings) StopOrders(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.stopReason = reason
}

func (s *RuntimeSettings) ResumeOrders() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = false
	s.stopReason = ""
}
