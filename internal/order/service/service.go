// Package service drives the order lifecycle: creation with stock
// reservation, the status state machine, the payment machine and queries.
// All state-changing operations on one order are serialized through a
// per-order lock; cross-order operations run in parallel.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/remyvnkhiemtruong/12a6/internal/account"
	"github.com/remyvnkhiemtruong/12a6/internal/catalog"
	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
	"github.com/remyvnkhiemtruong/12a6/internal/voucher"
	"github.com/remyvnkhiemtruong/12a6/pkg/logger"
)

type Service struct {
	store      Store
	catalog    catalog.Service
	vouchers   voucher.Service
	accounts   account.Service
	settings   Settings
	dispatcher domain.Dispatcher
	log        logger.Logger

	deliveryBuffer time.Duration
	now            func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option tweaks service construction.
type Option func(*Service)

// WithClock overrides the time source; tests use it to pin pricing windows.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithDeliveryBuffer sets the gap between estimated ready and delivery.
func WithDeliveryBuffer(d time.Duration) Option {
	return func(s *Service) { s.deliveryBuffer = d }
}

func New(store Store, cat catalog.Service, vouchers voucher.Service, accounts account.Service, settings Settings, dispatcher domain.Dispatcher, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		store:          store,
		catalog:        cat,
		vouchers:       vouchers,
		accounts:       accounts,
		settings:       settings,
		dispatcher:     dispatcher,
		log:            log,
		deliveryBuffer: 10 * time.Minute,
		now:            time.Now,
		locks:          make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockOrder returns the per-order mutex, creating it on first use. Entries
// are never removed; the set of orders mutated in one process lifetime is
// small enough that this is not a leak worth chasing.
func (s *Service) lockOrder(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// withOrder loads the order, runs fn under the order's lock and persists
// the result. Events queued by fn are dispatched only after a successful
// update.
func (s *Service) withOrder(ctx context.Context, key string, fn func(o *domain.Order, emit func(domain.Event)) error) (*domain.Order, error) {
	o, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	lock := s.lockOrder(o.ID)
	lock.Lock()
	defer lock.Unlock()

	// Re-read under the lock so a racing mutation is observed.
	o, err = s.store.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}

	var events []domain.Event
	emit := func(ev domain.Event) { events = append(events, ev) }
	if err := fn(o, emit); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, o); err != nil {
		return nil, domain.WrapError(domain.KindInternal, err, "failed to persist order")
	}
	for _, ev := range events {
		s.dispatcher.Dispatch(ctx, ev)
	}
	return o, nil
}

// Get resolves an order by id, order number or shortcode.
func (s *Service) Get(ctx context.Context, key string) (*domain.Order, error) {
	return s.store.Get(ctx, key)
}

// List returns orders for role-scoped views, sorted by priority score
// descending, then creation time, then insertion order for determinism.
func (s *Service) List(ctx context.Context, f Filter) ([]*domain.Order, error) {
	orders, err := s.store.List(ctx, f)
	if err != nil {
		return nil, err
	}
	SortQueue(orders)
	if f.Limit > 0 && len(orders) > f.Limit {
		orders = orders[:f.Limit]
	}
	return orders, nil
}

// SortQueue orders a slice the way every status-filtered view is shown.
func SortQueue(orders []*domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i], orders[j]
		if a.Priority.Score != b.Priority.Score {
			return a.Priority.Score > b.Priority.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Seq < b.Seq
	})
}

// CustomerHistory lists a customer's past orders, newest first.
func (s *Service) CustomerHistory(ctx context.Context, phone string, limit int) ([]*domain.Order, error) {
	if phone == "" {
		return nil, domain.Validationf("phone is required")
	}
	orders, err := s.store.List(ctx, Filter{Phone: domain.CleanPhone(phone)})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// ShipperQueue is the shipper app's split view.
type ShipperQueue struct {
	Available []*domain.Order `json:"available"`
	Mine      []*domain.Order `json:"mine"`
}

// ShipperOrders returns delivery orders ready for pickup plus the ones
// already assigned to the shipper.
func (s *Service) ShipperOrders(ctx context.Context, shipperID string) (*ShipperQueue, error) {
	available, err := s.List(ctx, Filter{
		Status:     domain.StatusReady,
		Type:       domain.TypeDelivery,
		Unassigned: true,
	})
	if err != nil {
		return nil, err
	}
	mine, err := s.List(ctx, Filter{
		Statuses:  []domain.Status{domain.StatusReady, domain.StatusDelivering},
		ShipperID: shipperID,
	})
	if err != nil {
		return nil, err
	}
	return &ShipperQueue{Available: available, Mine: mine}, nil
}
