package domain

import "context"

// Event is a domain state change handed to the fan-out layer after the
// mutation has been persisted.
type Event interface {
	EventName() string
}

// Dispatcher fans events out to connected audiences. Dispatch is
// fire-and-forget: a missing or offline target never fails the mutation
// that produced the event.
type Dispatcher interface {
	Dispatch(ctx context.Context, ev Event)
}

// NopDispatcher drops everything; used when no realtime layer is wired.
type NopDispatcher struct{}

func (NopDispatcher) Dispatch(context.Context, Event) {}

type OrderCreated struct{ Order *Order }

type OrderConfirmed struct{ Order *Order }

type OrderCooking struct{ Order *Order }

// ItemStatusChanged covers the per-item kitchen cascade.
type ItemStatusChanged struct {
	Order     *Order
	ItemIndex int
	Status    KitchenStatus
}

type OrderReady struct{ Order *Order }

type ShipperAssigned struct{ Order *Order }

type OrderDelivering struct{ Order *Order }

type OrderCompleted struct{ Order *Order }

type OrderCancelled struct{ Order *Order }

type PaymentClaimed struct{ Order *Order }

type PaymentStatusChanged struct {
	Order    *Order
	Previous PaymentStatus
}

// SystemAnnouncement is broadcast when staff flips an operational flag.
type SystemAnnouncement struct {
	Level   string // info or warning
	Message string
}

func (OrderCreated) EventName() string         { return "order.created" }
func (OrderConfirmed) EventName() string       { return "order.confirmed" }
func (OrderCooking) EventName() string         { return "order.cooking" }
func (ItemStatusChanged) EventName() string    { return "order.item_status" }
func (OrderReady) EventName() string           { return "order.ready" }
func (ShipperAssigned) EventName() string      { return "order.shipper_assigned" }
func (OrderDelivering) EventName() string      { return "order.delivering" }
func (OrderCompleted) EventName() string       { return "order.completed" }
func (OrderCancelled) EventName() string       { return "order.cancelled" }
func (PaymentClaimed) EventName() string       { return "payment.claimed" }
func (PaymentStatusChanged) EventName() string { return "payment.status_changed" }
func (SystemAnnouncement) EventName() string   { return "system.announcement" }
