// Package catalog is the product collaborator consumed by order creation:
// price/prep-time snapshots and atomic stock reservation. The full catalog
// CRUD lives outside the core; only this contract is needed here.
package catalog

import (
	"context"
	"time"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

// HappyHour is a time-windowed price override active within [Start, End) on
// the local clock, e.g. "10:00".."12:00".
type HappyHour struct {
	Price  domain.Money `json:"price" yaml:"price"`
	Start  string       `json:"start" yaml:"start"`
	End    string       `json:"end" yaml:"end"`
	Active bool         `json:"active" yaml:"active"`
}

// Product is the catalog snapshot the order core reads.
type Product struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Price             domain.Money `json:"price"`
	HappyHour         *HappyHour   `json:"happy_hour,omitempty"`
	CurrentStock      int          `json:"current_stock"`
	SoldCount         int          `json:"sold_count"`
	LowStockThreshold int          `json:"low_stock_threshold"`
	IsAvailable       bool         `json:"is_available"`
	IsLimitedStock    bool         `json:"is_limited_stock"`
	PrepMinutes       int          `json:"prep_minutes"`
	KitchenZone       string       `json:"kitchen_zone"`
}

// CurrentPrice picks the happy-hour price when the window is active.
func (p *Product) CurrentPrice(now time.Time) domain.Money {
	hh := p.HappyHour
	if hh == nil || !hh.Active {
		return p.Price
	}
	clock := now.Format("15:04")
	if clock >= hh.Start && clock < hh.End {
		return hh.Price
	}
	return p.Price
}

// Service is the catalog contract. Reserve and Restore must be atomic per
// product: concurrent orders compete for the same inventory.
type Service interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	// Reserve decrements stock and bumps the sold counter; it fails with a
	// conflict when stock is insufficient and leaves counts untouched.
	Reserve(ctx context.Context, id string, qty int) error
	// Restore returns previously reserved quantity to stock.
	Restore(ctx context.Context, id string, qty int) error
}

// ErrProductNotFound wraps the id for caller messages.
func ErrProductNotFound(id string) error {
	return domain.NewError(domain.KindNotFound, "product %q not found", id)
}

// ErrInsufficientStock names the product and what is left.
func ErrInsufficientStock(name string, left int) error {
	return domain.Conflictf("product %q has only %d left", name, left)
}
