// Package fanout turns domain events into client messages and delivers
// them to the audiences tracked by the presence registry.
package fanout

import (
	"time"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
	"github.com/remyvnkhiemtruong/12a6/internal/realtime/presence"
)

// Message is one client-bound envelope: the event name clients switch on
// plus a typed payload.
type Message struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// TargetKind selects how a broadcast's recipients are resolved.
type TargetKind int

const (
	// TargetRoom delivers to every connection in one role room.
	TargetRoom TargetKind = iota
	// TargetAccount delivers to the single connection of one account,
	// silently skipped when the account is offline.
	TargetAccount
	// TargetAll delivers to every live connection.
	TargetAll
)

// Broadcast is one routed delivery before recipient resolution. The
// router produces these; delivery resolves them against presence.
type Broadcast struct {
	Kind      TargetKind
	Room      domain.Role
	AccountID string
	Message   Message
}

func toRoom(room domain.Role, event string, payload any) Broadcast {
	return Broadcast{Kind: TargetRoom, Room: room, Message: Message{Event: event, Payload: payload}}
}

func toAccount(accountID, event string, payload any) Broadcast {
	return Broadcast{Kind: TargetAccount, AccountID: accountID, Message: Message{Event: event, Payload: payload}}
}

func toAll(event string, payload any) Broadcast {
	return Broadcast{Kind: TargetAll, Message: Message{Event: event, Payload: payload}}
}

// Cashier dashboard gets the full order on creation; the sound and popup
// flags are UI hints carried inside the payload.
type OrderCreatedPayload struct {
	Order     *domain.Order `json:"order"`
	PlaySound bool          `json:"play_sound"`
	ShowPopup bool          `json:"show_popup"`
}

// Kitchen heads-up before confirmation; deliberately thin.
type OrderIncomingPayload struct {
	OrderID   string `json:"order_id"`
	Number    string `json:"number"`
	ItemCount int    `json:"item_count"`
}

// Confirmation back to the ordering customer.
type OrderSubmittedPayload struct {
	OrderID   string       `json:"order_id"`
	Number    string       `json:"number"`
	ShortCode string       `json:"short_code"`
	Total     domain.Money `json:"total"`
}

type KitchenOrderPayload struct {
	Order     *domain.Order `json:"order"`
	PlaySound bool          `json:"play_sound"`
}

// OrderStatusPayload is the customer-facing progress update.
type OrderStatusPayload struct {
	OrderID        string        `json:"order_id"`
	Number         string        `json:"number"`
	Status         domain.Status `json:"status"`
	Message        string        `json:"message,omitempty"`
	EstimatedReady *time.Time    `json:"estimated_ready,omitempty"`
	PlaySound      bool          `json:"play_sound"`
	ShowConfetti   bool          `json:"show_confetti"`
}

// OrderPatchPayload is the thin staff-dashboard refresh hint.
type OrderPatchPayload struct {
	OrderID       string               `json:"order_id"`
	Status        domain.Status        `json:"status"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
}

type KitchenUpdatePayload struct {
	OrderID   string               `json:"order_id"`
	Number    string               `json:"number"`
	ItemIndex int                  `json:"item_index"`
	Status    domain.KitchenStatus `json:"status"`
}

type OrderReadyPayload struct {
	OrderID   string           `json:"order_id"`
	Number    string           `json:"number"`
	ShortCode string           `json:"short_code"`
	OrderType domain.OrderType `json:"order_type"`
	PlaySound bool             `json:"play_sound"`
}

// Shipper pickup offer; carries the destination so the shipper can
// decide before claiming.
type PickupPayload struct {
	OrderID          string `json:"order_id"`
	Number           string `json:"number"`
	ShortCode        string `json:"short_code"`
	DeliveryLocation string `json:"delivery_location"`
	CustomerName     string `json:"customer_name"`
	CustomerPhone    string `json:"customer_phone"`
	PlaySound        bool   `json:"play_sound"`
}

// Pass-station call for dine-in orders.
type PassPayload struct {
	OrderID     string `json:"order_id"`
	ShortCode   string `json:"short_code"`
	TableNumber string `json:"table_number,omitempty"`
	PlaySound   bool   `json:"play_sound"`
}

type ShipperAssignedPayload struct {
	OrderID     string `json:"order_id"`
	Number      string `json:"number"`
	ShipperID   string `json:"shipper_id"`
	ShipperName string `json:"shipper_name"`
}

// OrderTakenPayload tells the other shippers the order left the queue.
type OrderTakenPayload struct {
	OrderID string `json:"order_id"`
	TakenBy string `json:"taken_by"`
}

type OrderCompletedPayload struct {
	OrderID          string `json:"order_id"`
	Number           string `json:"number"`
	ShipperID        string `json:"shipper_id,omitempty"`
	PaymentCollected bool   `json:"payment_collected"`
}

type OrderCancelledPayload struct {
	OrderID string `json:"order_id"`
	Number  string `json:"number"`
	Reason  string `json:"reason,omitempty"`
}

type PaymentClaimPayload struct {
	OrderID   string       `json:"order_id"`
	Number    string       `json:"number"`
	ShortCode string       `json:"short_code"`
	Phone     string       `json:"phone"`
	Amount    domain.Money `json:"amount"`
	ClaimedAt *time.Time   `json:"claimed_at,omitempty"`
	PlaySound bool         `json:"play_sound"`
}

type PaymentStatusPayload struct {
	OrderID      string               `json:"order_id"`
	Number       string               `json:"number"`
	Status       domain.PaymentStatus `json:"status"`
	ShowConfetti bool                 `json:"show_confetti"`
}

type OnlineCountPayload struct {
	Counts presence.Counts `json:"counts"`
}

type AnnouncementPayload struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}
