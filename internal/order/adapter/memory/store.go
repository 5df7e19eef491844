// Package memory is the in-process order store: it backs the single-binary
// demo mode and the unit tests with the same contract the Postgres adapter
// honors.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
	"github.com/remyvnkhiemtruong/12a6/internal/order/service"
)

type Store struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order // by id
	byNumber map[string]string
	byCode   map[string]string // today's shortcodes only; they cycle daily
	seq      int64
	daySeq   int64
	day      string
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		orders:   make(map[string]*domain.Order),
		byNumber: make(map[string]string),
		byCode:   make(map[string]string),
		now:      time.Now,
	}
}

// WithClock pins the store's clock; tests use it to cross day boundaries.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Create assigns identity atomically in creation order: sequential number
// and shortcode both derive from the daily counter under one lock.
func (s *Store) Create(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := domain.DayKey(s.now())
	if day != s.day {
		s.day = day
		s.daySeq = 0
		s.byCode = make(map[string]string)
	}
	s.daySeq++
	s.seq++

	o.ID = uuid.NewString()
	o.Seq = s.seq
	o.DayKey = day
	o.Number = domain.OrderNumber(day, s.daySeq)
	o.ShortCode = domain.ShortCode(s.daySeq)

	cp := clone(o)
	s.orders[o.ID] = cp
	s.byNumber[o.Number] = o.ID
	s.byCode[o.ShortCode] = o.ID
	return nil
}

func (s *Store) Get(_ context.Context, key string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := key
	if _, ok := s.orders[id]; !ok {
		if mapped, ok := s.byNumber[strings.ToUpper(key)]; ok {
			id = mapped
		} else if mapped, ok := s.byCode[strings.ToUpper(key)]; ok {
			id = mapped
		}
	}
	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return clone(o), nil
}

func (s *Store) Update(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[o.ID]; !ok {
		return domain.ErrOrderNotFound
	}
	s.orders[o.ID] = clone(o)
	return nil
}

func (s *Store) List(_ context.Context, f service.Filter) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Order
	for _, o := range s.orders {
		if matches(o, f) {
			out = append(out, clone(o))
		}
	}
	return out, nil
}

func matches(o *domain.Order, f service.Filter) bool {
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if o.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Type != "" && o.Type != f.Type {
		return false
	}
	if f.ShipperID != "" && o.Shipper.AssignedTo != f.ShipperID {
		return false
	}
	if f.Unassigned && o.Shipper.AssignedTo != "" {
		return false
	}
	if f.Phone != "" && o.Customer.Phone != f.Phone {
		return false
	}
	if f.ActiveOnly && o.Status.IsTerminal() {
		return false
	}
	return true
}

// clone deep-copies an order so callers never share slices with the store.
func clone(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	for i, it := range cp.Items {
		cp.Items[i].Toppings = append([]domain.Topping(nil), it.Toppings...)
	}
	cp.AuditLog = append([]domain.AuditEntry(nil), o.AuditLog...)
	cp.InternalNotes = append([]domain.InternalNote(nil), o.InternalNotes...)
	cp.Shipper.Attempts = append([]domain.DeliveryAttempt(nil), o.Shipper.Attempts...)
	if o.Pricing.Fees != nil {
		cp.Pricing.Fees = append([]domain.FeeLine(nil), o.Pricing.Fees...)
	}
	return &cp
}
