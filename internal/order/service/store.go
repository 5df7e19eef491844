package service

import (
	"context"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

// Filter narrows List results. Zero values mean "any".
type Filter struct {
	Status     domain.Status
	Statuses   []domain.Status
	Type       domain.OrderType
	ShipperID  string
	Phone      string
	Unassigned bool // only orders with no shipper assigned
	ActiveOnly bool // exclude terminal states
	Limit      int
}

// Store persists orders. Create must assign Seq, Number, ShortCode and
// DayKey atomically in creation order; Update must persist the status
// change and its audit entries together, or neither.
type Store interface {
	Create(ctx context.Context, o *domain.Order) error
	// Get resolves by id, order number or shortcode (today's, for
	// shortcodes, since they cycle daily).
	Get(ctx context.Context, key string) (*domain.Order, error)
	Update(ctx context.Context, o *domain.Order) error
	List(ctx context.Context, f Filter) ([]*domain.Order, error)
}

// Settings is the operational-config collaborator read at creation time.
type Settings interface {
	MaxItemsPerOrder() int
	MaxQuantityPerItem() int
	// OrdersStopped returns the stop flag plus the staff-entered reason.
	OrdersStopped() (bool, string)
}
