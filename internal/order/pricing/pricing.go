// Package pricing computes order amounts. Everything here is a pure
// function of the inputs; the service feeds it product snapshots and the
// voucher's computed discount.
package pricing

import (
	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

// UnitPrice is the per-unit price before toppings: base (or happy-hour)
// price plus size and required-option modifiers.
func UnitPrice(base domain.Money, size, option *domain.ItemOption) domain.Money {
	price := base
	if size != nil {
		price += size.PriceModifier
	}
	if option != nil {
		price += option.PriceModifier
	}
	return price
}

// ItemTotal is (unit price + toppings) × quantity.
func ItemTotal(unit domain.Money, toppings []domain.Topping, quantity int) domain.Money {
	var t domain.Money
	for _, top := range toppings {
		t += top.Price
	}
	return (unit + t) * domain.Money(quantity)
}

// Subtotal sums the precomputed item totals.
func Subtotal(items []domain.OrderItem) domain.Money {
	var s domain.Money
	for _, it := range items {
		s += it.ItemTotal
	}
	return s
}

// Totals assembles the pricing block. The voucher snapshot, fees and manual
// discount may each be nil/empty.
func Totals(items []domain.OrderItem, voucher *domain.VoucherSnapshot, fees []domain.FeeLine, discount *domain.ManualDiscount) domain.Pricing {
	p := domain.Pricing{
		Subtotal: Subtotal(items),
		Voucher:  voucher,
		Fees:     fees,
		Discount: discount,
	}
	total := p.Subtotal - p.VoucherDiscount()
	if discount != nil {
		total -= discount.Amount
	}
	for _, f := range fees {
		total += f.Amount
	}
	p.Total = total
	return p
}

// ValidateTotal rejects zero or negative totals unless the order is a gift.
func ValidateTotal(p domain.Pricing, isGift bool) error {
	if !p.CheckTotal() {
		return domain.NewError(domain.KindInternal, "pricing total does not satisfy invariant")
	}
	if p.Total <= 0 && !isGift {
		return domain.Validationf("order total must be greater than zero")
	}
	return nil
}
