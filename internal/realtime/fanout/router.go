package fanout

import (
	"context"
	"time"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
	"github.com/remyvnkhiemtruong/12a6/internal/realtime/presence"
	"github.com/remyvnkhiemtruong/12a6/pkg/logger"
)

// Sink pushes a message onto one connection. Delivery is best effort:
// a full or gone connection drops the message, it never blocks.
type Sink interface {
	Send(connID string, msg Message) bool
}

// Mirror republishes room broadcasts to an external bus so other
// processes (or a future second instance) can observe them.
type Mirror interface {
	Publish(ctx context.Context, room string, msg Message) error
}

// Router implements domain.Dispatcher. The routing table is fixed at
// compile time; adding an event means adding a case to Route.
type Router struct {
	presence *presence.Registry
	sink     Sink
	mirror   Mirror
	log      logger.Logger
}

func NewRouter(reg *presence.Registry, sink Sink, log logger.Logger, opts ...RouterOption) *Router {
	r := &Router{presence: reg, sink: sink, log: log}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type RouterOption func(*Router)

// WithMirror attaches an external bus mirror.
func WithMirror(m Mirror) RouterOption {
	return func(r *Router) { r.mirror = m }
}

// Dispatch routes and delivers one event. It never returns an error:
// realtime delivery is at-most-once and must not fail the mutation that
// produced the event.
func (r *Router) Dispatch(ctx context.Context, ev domain.Event) {
	broadcasts := Route(ev)
	if len(broadcasts) == 0 {
		return
	}
	delivered := 0
	for _, b := range broadcasts {
		delivered += r.deliver(b)
		r.republish(ctx, b)
	}
	r.log.Action("event_dispatched").
		With("event", ev.EventName()).
		With("broadcasts", len(broadcasts)).
		With("connections", delivered).
		Debug("fan-out delivered")
}

// AnnounceOnlineCount pushes the current counts to everyone. The stream
// transport calls this on every join and leave.
func (r *Router) AnnounceOnlineCount(ctx context.Context) {
	b := toAll("online_count", OnlineCountPayload{Counts: r.presence.OnlineCounts()})
	r.deliver(b)
	r.republish(ctx, b)
}

func (r *Router) deliver(b Broadcast) int {
	var targets []string
	switch b.Kind {
	case TargetRoom:
		targets = r.presence.MembersOf(b.Room)
	case TargetAccount:
		if b.AccountID == "" {
			return 0
		}
		id, ok := r.presence.ConnectionFor(b.AccountID)
		if !ok {
			return 0
		}
		targets = []string{id}
	case TargetAll:
		targets = r.presence.All()
	}
	n := 0
	for _, id := range targets {
		if r.sink.Send(id, b.Message) {
			n++
		}
	}
	return n
}

func (r *Router) republish(ctx context.Context, b Broadcast) {
	if r.mirror == nil || b.Kind == TargetAccount {
		return
	}
	room := "all"
	if b.Kind == TargetRoom {
		room = string(b.Room)
	}
	go func() {
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := r.mirror.Publish(pctx, room, b.Message); err != nil {
			r.log.Action("mirror_publish_failed").
				With("event", b.Message.Event).
				With("room", room).
				Error("mirror publish failed", err)
		}
	}()
}

// Route maps one domain event onto its audiences. Pure so the table can
// be tested without a registry or transport.
func Route(ev domain.Event) []Broadcast {
	switch e := ev.(type) {
	case domain.OrderCreated:
		o := e.Order
		return []Broadcast{
			toRoom(domain.RoleCashier, "order_created", OrderCreatedPayload{Order: o, PlaySound: true, ShowPopup: true}),
			toRoom(domain.RoleKitchen, "order_incoming", OrderIncomingPayload{OrderID: o.ID, Number: o.Number, ItemCount: o.ItemCount()}),
			toAccount(o.Customer.AccountID, "order_submitted", OrderSubmittedPayload{
				OrderID: o.ID, Number: o.Number, ShortCode: o.ShortCode, Total: o.Pricing.Total,
			}),
		}

	case domain.OrderConfirmed:
		o := e.Order
		return []Broadcast{
			toRoom(domain.RoleKitchen, "new_kitchen_order", KitchenOrderPayload{Order: o, PlaySound: true}),
			toRoom(domain.RoleCashier, "order_updated", patch(o)),
			toAccount(o.Customer.AccountID, "order_status_update", OrderStatusPayload{
				OrderID: o.ID, Number: o.Number, Status: o.Status,
				Message:        "Your order is confirmed and heading to the kitchen",
				EstimatedReady: o.EstimatedReadyTime,
			}),
		}

	case domain.OrderCooking:
		o := e.Order
		return []Broadcast{
			toRoom(domain.RoleCashier, "order_updated", patch(o)),
			toAccount(o.Customer.AccountID, "order_status_update", OrderStatusPayload{
				OrderID: o.ID, Number: o.Number, Status: o.Status,
				Message: "The kitchen started on your order",
			}),
		}

	case domain.ItemStatusChanged:
		o := e.Order
		return []Broadcast{
			toRoom(domain.RoleCashier, "kitchen_update", KitchenUpdatePayload{
				OrderID: o.ID, Number: o.Number, ItemIndex: e.ItemIndex, Status: e.Status,
			}),
		}

	case domain.OrderReady:
		o := e.Order
		out := []Broadcast{
			toRoom(domain.RoleCashier, "order_ready", OrderReadyPayload{
				OrderID: o.ID, Number: o.Number, ShortCode: o.ShortCode, OrderType: o.Type, PlaySound: true,
			}),
		}
		if o.Type == domain.TypeDelivery {
			out = append(out, toRoom(domain.RoleShipper, "order_ready_for_pickup", PickupPayload{
				OrderID: o.ID, Number: o.Number, ShortCode: o.ShortCode,
				DeliveryLocation: o.DeliveryLocation,
				CustomerName:     o.Customer.Name,
				CustomerPhone:    o.Customer.Phone,
				PlaySound:        true,
			}))
		} else {
			out = append(out, toRoom(domain.RolePass, "order_ready_for_pass", PassPayload{
				OrderID: o.ID, ShortCode: o.ShortCode, TableNumber: o.TableNumber, PlaySound: true,
			}))
		}
		return append(out, toAccount(o.Customer.AccountID, "order_status_update", OrderStatusPayload{
			OrderID: o.ID, Number: o.Number, Status: o.Status,
			Message:      "Your order is ready",
			PlaySound:    true,
			ShowConfetti: true,
		}))

	case domain.ShipperAssigned:
		o := e.Order
		return []Broadcast{
			toRoom(domain.RoleCashier, "order_assigned_to_shipper", ShipperAssignedPayload{
				OrderID: o.ID, Number: o.Number,
				ShipperID: o.Shipper.AssignedTo, ShipperName: o.Shipper.AssignedName,
			}),
			toRoom(domain.RoleShipper, "order_taken", OrderTakenPayload{
				OrderID: o.ID, TakenBy: o.Shipper.AssignedName,
			}),
		}

	case domain.OrderDelivering:
		o := e.Order
		return []Broadcast{
			toRoom(domain.RoleCashier, "order_updated", patch(o)),
			toAccount(o.Customer.AccountID, "order_status_update", OrderStatusPayload{
				OrderID: o.ID, Number: o.Number, Status: o.Status,
				Message: "Your order left the shop",
			}),
		}

	case domain.OrderCompleted:
		o := e.Order
		return []Broadcast{
			toRoom(domain.RoleCashier, "order_completed", OrderCompletedPayload{
				OrderID: o.ID, Number: o.Number,
				ShipperID:        o.Shipper.AssignedTo,
				PaymentCollected: o.Shipper.PaymentCollected,
			}),
			toAccount(o.Customer.AccountID, "order_status_update", OrderStatusPayload{
				OrderID: o.ID, Number: o.Number, Status: o.Status,
				Message:      "Order completed, enjoy!",
				ShowConfetti: true,
			}),
		}

	case domain.OrderCancelled:
		o := e.Order
		reason := ""
		if o.Cancellation != nil {
			reason = o.Cancellation.Reason
		}
		cancelled := OrderCancelledPayload{OrderID: o.ID, Number: o.Number, Reason: reason}
		return []Broadcast{
			toRoom(domain.RoleCashier, "order_cancelled", cancelled),
			toRoom(domain.RoleKitchen, "order_cancelled", cancelled),
			toAccount(o.Customer.AccountID, "order_status_update", OrderStatusPayload{
				OrderID: o.ID, Number: o.Number, Status: o.Status,
				Message: "Your order was cancelled",
			}),
		}

	case domain.PaymentClaimed:
		o := e.Order
		return []Broadcast{
			toRoom(domain.RoleCashier, "payment_claim_received", PaymentClaimPayload{
				OrderID: o.ID, Number: o.Number, ShortCode: o.ShortCode,
				Phone:     o.Customer.Phone,
				Amount:    o.Pricing.Total,
				ClaimedAt: o.Payment.ClaimedAt,
				PlaySound: true,
			}),
		}

	case domain.PaymentStatusChanged:
		o := e.Order
		out := []Broadcast{
			toRoom(domain.RoleCashier, "order_updated", patch(o)),
			toAccount(o.Customer.AccountID, "payment_status_update", PaymentStatusPayload{
				OrderID: o.ID, Number: o.Number, Status: o.Payment.Status,
				ShowConfetti: o.Payment.Status == domain.PaymentConfirmed,
			}),
		}
		if o.Payment.Status == domain.PaymentConfirmed {
			out = append(out, toRoom(domain.RoleKitchen, "order_payment_confirmed", patch(o)))
		}
		return out

	case domain.SystemAnnouncement:
		return []Broadcast{
			toAll("system_announcement", AnnouncementPayload{Level: e.Level, Message: e.Message}),
		}
	}
	return nil
}

func patch(o *domain.Order) OrderPatchPayload {
	return OrderPatchPayload{OrderID: o.ID, Status: o.Status, PaymentStatus: o.Payment.Status}
}
