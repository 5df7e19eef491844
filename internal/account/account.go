// Package account resolves account identity for priority flags, blacklist
// checks and shipper display names. Authentication lives outside the core;
// the API edge passes actor identity through.
package account

import (
	"context"
	"sync"
)

// Account is the slim projection the order core needs.
type Account struct {
	ID            string
	DisplayName   string
	Phone         string
	IsVIP         bool
	IsTeacher     bool
	IsBlacklisted bool
}

// Service is the account collaborator contract.
type Service interface {
	Get(ctx context.Context, id string) (*Account, error)
	// IsBlacklisted checks by phone so guests are covered too.
	IsBlacklisted(ctx context.Context, phone string) (bool, error)
}

// MemoryStore keeps accounts in process.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]*Account
	byPhone map[string]*Account
}

func NewMemoryStore(accounts ...*Account) *MemoryStore {
	s := &MemoryStore{
		byID:    make(map[string]*Account),
		byPhone: make(map[string]*Account),
	}
	for _, a := range accounts {
		s.Put(a)
	}
	return s
}

func (s *MemoryStore) Put(a *Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[a.ID] = a
	if a.Phone != "" {
		s.byPhone[a.Phone] = a
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStore) IsBlacklisted(_ context.Context, phone string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byPhone[phone]
	return ok && a.IsBlacklisted, nil
}
