package catalog

import (
	"context"
	"sync"
)

// MemoryStore keeps the catalog in process with a per-product lock so stock
// reservation is a single read-modify-write.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]*Product
	locks    map[string]*sync.Mutex
}

func NewMemoryStore(products ...*Product) *MemoryStore {
	s := &MemoryStore{
		products: make(map[string]*Product),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, p := range products {
		s.Put(p)
	}
	return s
}

// Put inserts or replaces a product.
func (s *MemoryStore) Put(p *Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
	if _, ok := s.locks[p.ID]; !ok {
		s.locks[p.ID] = &sync.Mutex{}
	}
}

func (s *MemoryStore) GetProduct(_ context.Context, id string) (*Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, ErrProductNotFound(id)
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) Reserve(_ context.Context, id string, qty int) error {
	lock, p, err := s.lockFor(id)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()
	if p.CurrentStock < qty {
		return ErrInsufficientStock(p.Name, p.CurrentStock)
	}
	p.CurrentStock -= qty
	p.SoldCount += qty
	if p.CurrentStock <= p.LowStockThreshold {
		p.IsLimitedStock = true
	}
	return nil
}

func (s *MemoryStore) Restore(_ context.Context, id string, qty int) error {
	lock, p, err := s.lockFor(id)
	if err != nil {
		return err
	}
	lock.Lock()
	defer lock.Unlock()
	p.CurrentStock += qty
	p.SoldCount -= qty
	if p.CurrentStock > p.LowStockThreshold {
		p.IsLimitedStock = false
	}
	return nil
}

func (s *MemoryStore) lockFor(id string) (*sync.Mutex, *Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil, ErrProductNotFound(id)
	}
	return s.locks[id], p, nil
}
