// Package voucher is the promo-code collaborator: lookup, eligibility and
// discount computation. Orders keep only a snapshot of the applied
// discount, never a live reference.
package voucher

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

type DiscountType string

const (
	Percentage DiscountType = "percentage"
	Fixed      DiscountType = "fixed"
)

// Voucher is the live promo record. Usage caps are enforced at application
// time; historical orders are unaffected by later edits.
type Voucher struct {
	Code          string
	DiscountType  DiscountType
	DiscountValue domain.Money // percent when Percentage, amount when Fixed
	MaxDiscount   domain.Money // cap for percentage type; 0 means uncapped
	MinOrderValue domain.Money
	UsageLimit    int // total uses; 0 means unlimited
	PerUserLimit  int // uses per customer; 0 means unlimited
	UsedCount     int
	ValidFrom     time.Time
	ValidUntil    time.Time
	FlashStart    *time.Time // optional flash-sale window
	FlashEnd      *time.Time
	IsActive      bool

	usedBy map[string]int // accountID or phone -> uses
}

// Eligible checks everything except the minimum order value, which depends
// on the subtotal and is applied in Discount.
func (v *Voucher) Eligible(accountID, phone string, now time.Time) error {
	if !v.IsActive {
		return domain.Conflictf("voucher %q is not active", v.Code)
	}
	if now.Before(v.ValidFrom) {
		return domain.Conflictf("voucher %q is not yet valid", v.Code)
	}
	if now.After(v.ValidUntil) {
		return domain.Conflictf("voucher %q has expired", v.Code)
	}
	if v.FlashStart != nil && v.FlashEnd != nil {
		if now.Before(*v.FlashStart) || now.After(*v.FlashEnd) {
			return domain.Conflictf("voucher %q flash sale is not running", v.Code)
		}
	}
	if v.UsageLimit > 0 && v.UsedCount >= v.UsageLimit {
		return domain.Conflictf("voucher %q is exhausted", v.Code)
	}
	if v.PerUserLimit > 0 {
		if v.usedBy[userKey(accountID, phone)] >= v.PerUserLimit {
			return domain.Conflictf("voucher %q already used by this customer", v.Code)
		}
	}
	return nil
}

// Discount computes the discount for a subtotal: percentage capped by
// MaxDiscount, then capped so the discount never exceeds the subtotal.
// Returns zero when the subtotal is under the minimum order value.
func (v *Voucher) Discount(subtotal domain.Money) domain.Money {
	if subtotal < v.MinOrderValue {
		return 0
	}
	var d domain.Money
	if v.DiscountType == Percentage {
		d = subtotal * v.DiscountValue / 100
		if v.MaxDiscount > 0 && d > v.MaxDiscount {
			d = v.MaxDiscount
		}
	} else {
		d = v.DiscountValue
	}
	if d > subtotal {
		d = subtotal
	}
	return d
}

// Service is the contract the order core consumes.
type Service interface {
	FindByCode(ctx context.Context, code string) (*Voucher, error)
	CheckEligibility(ctx context.Context, v *Voucher, accountID, phone string) error
	RecordUsage(ctx context.Context, v *Voucher, accountID, phone string) error
}

// MemoryStore holds vouchers in process.
type MemoryStore struct {
	mu       sync.Mutex
	vouchers map[string]*Voucher
	now      func() time.Time
}

func NewMemoryStore(vouchers ...*Voucher) *MemoryStore {
	s := &MemoryStore{vouchers: make(map[string]*Voucher), now: time.Now}
	for _, v := range vouchers {
		s.Put(v)
	}
	return s
}

func (s *MemoryStore) Put(v *Voucher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.usedBy == nil {
		v.usedBy = make(map[string]int)
	}
	s.vouchers[strings.ToUpper(v.Code)] = v
}

func (s *MemoryStore) FindByCode(_ context.Context, code string) (*Voucher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vouchers[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "voucher %q not found", code)
	}
	return v, nil
}

func (s *MemoryStore) CheckEligibility(_ context.Context, v *Voucher, accountID, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return v.Eligible(accountID, phone, s.now())
}

func (s *MemoryStore) RecordUsage(_ context.Context, v *Voucher, accountID, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v.UsedCount++
	v.usedBy[userKey(accountID, phone)]++
	return nil
}

func userKey(accountID, phone string) string {
	if accountID != "" {
		return "acct:" + accountID
	}
	return "phone:" + phone
}
