package domain

import (
	"time"
)

// Money is an amount in whole VND.
type Money = int64

// Customer is the immutable customer snapshot taken at order time.
type Customer struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Class     string `json:"class,omitempty"`
	AccountID string `json:"account_id,omitempty"` // empty means guest
}

// ItemOption is a named price modifier (size or required single-choice).
type ItemOption struct {
	Name          string `json:"name"`
	PriceModifier Money  `json:"price_modifier"`
}

// Topping is an add-on with its own price.
type Topping struct {
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// OrderItem is an immutable snapshot of a product at order time, so the
// order renders the same even if the catalog changes later.
type OrderItem struct {
	ProductID     string        `json:"product_id"`
	ProductName   string        `json:"product_name"`
	ProductPrice  Money         `json:"product_price"` // base price at order time
	Quantity      int           `json:"quantity"`
	Size          *ItemOption   `json:"size,omitempty"`
	SugarLevel    string        `json:"sugar_level,omitempty"`
	IceLevel      string        `json:"ice_level,omitempty"`
	Toppings      []Topping     `json:"toppings,omitempty"`
	Option        *ItemOption   `json:"option,omitempty"` // required single-choice
	Note          string        `json:"note,omitempty"`
	KitchenZone   string        `json:"kitchen_zone,omitempty"`
	KitchenStatus KitchenStatus `json:"kitchen_status"`
	ItemTotal     Money         `json:"item_total"`
}

// VoucherSnapshot is the applied discount frozen at order time; later
// voucher edits never change historical orders.
type VoucherSnapshot struct {
	Code     string `json:"code"`
	Discount Money  `json:"discount"`
	Type     string `json:"type"` // percentage or fixed
}

type FeeLine struct {
	Name   string `json:"name"`
	Amount Money  `json:"amount"`
}

type ManualDiscount struct {
	Amount    Money  `json:"amount"`
	Reason    string `json:"reason,omitempty"`
	AppliedBy string `json:"applied_by,omitempty"`
}

// Pricing holds derived amounts. Invariant:
// Total == Subtotal - voucher discount - Discount.Amount + sum(Fees).
type Pricing struct {
	Subtotal Money            `json:"subtotal"`
	Voucher  *VoucherSnapshot `json:"voucher,omitempty"`
	Fees     []FeeLine        `json:"fees,omitempty"`
	Discount *ManualDiscount  `json:"discount,omitempty"`
	Total    Money            `json:"total"`
}

// VoucherDiscount is zero when no voucher applied.
func (p Pricing) VoucherDiscount() Money {
	if p.Voucher == nil {
		return 0
	}
	return p.Voucher.Discount
}

// CheckTotal verifies the pricing invariant.
func (p Pricing) CheckTotal() bool {
	total := p.Subtotal - p.VoucherDiscount()
	if p.Discount != nil {
		total -= p.Discount.Amount
	}
	for _, f := range p.Fees {
		total += f.Amount
	}
	return total == p.Total
}

// Priority flags collapse into one numeric score used for sort order only.
type Priority struct {
	IsUrgent  bool `json:"is_urgent"`
	IsVIP     bool `json:"is_vip"`
	IsTeacher bool `json:"is_teacher"`
	Score     int  `json:"score"`
}

type Payment struct {
	Method              PaymentMethod `json:"method"`
	Status              PaymentStatus `json:"status"`
	CustomerClaimedPaid bool          `json:"customer_claimed_paid"`
	ClaimedAt           *time.Time    `json:"claimed_at,omitempty"`
	ConfirmedBy         string        `json:"confirmed_by,omitempty"`
	ConfirmedAt         *time.Time    `json:"confirmed_at,omitempty"`
	TransactionID       string        `json:"transaction_id,omitempty"`
	ForceCompleted      bool          `json:"force_completed"`
	ForceCompletedBy    string        `json:"force_completed_by,omitempty"`
	ForceCompleteReason string        `json:"force_complete_reason,omitempty"`
}

type DeliveryAttempt struct {
	AttemptedAt time.Time `json:"attempted_at"`
	Outcome     string    `json:"outcome"` // no_answer, wrong_location, customer_unavailable
	Note        string    `json:"note,omitempty"`
}

type Shipper struct {
	AssignedTo         string            `json:"assigned_to,omitempty"`
	AssignedName       string            `json:"assigned_name,omitempty"`
	AssignedAt         *time.Time        `json:"assigned_at,omitempty"`
	PickedUpAt         *time.Time        `json:"picked_up_at,omitempty"`
	DeliveredAt        *time.Time        `json:"delivered_at,omitempty"`
	PaymentCollected   bool              `json:"payment_collected"`
	PaymentCollectedAt *time.Time        `json:"payment_collected_at,omitempty"`
	Attempts           []DeliveryAttempt `json:"attempts,omitempty"`
}

// AuditEntry records one state change. The log is append-only; every status
// or payment change appends exactly one entry.
type AuditEntry struct {
	Action        string    `json:"action"`
	Actor         Actor     `json:"actor"`
	At            time.Time `json:"at"`
	PreviousValue string    `json:"previous_value,omitempty"`
	NewValue      string    `json:"new_value,omitempty"`
	Note          string    `json:"note,omitempty"`
}

type Cancellation struct {
	CancelledBy  Actor     `json:"cancelled_by"`
	CancelledAt  time.Time `json:"cancelled_at"`
	Reason       string    `json:"reason,omitempty"`
	RefundStatus string    `json:"refund_status,omitempty"` // none, pending, completed
}

type InternalNote struct {
	Note      string    `json:"note"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Order is the central aggregate. It is mutated only through the service's
// transition operations, each of which appends an audit entry; orders are
// never deleted — cancellation is a terminal status.
type Order struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`    // insertion order, deterministic tie-break
	Number    string `json:"number"` // ORD-YYYYMMDD-####
	ShortCode string `json:"short_code"`
	DayKey    string `json:"day_key"` // YYYYMMDD the number was issued under

	Customer Customer    `json:"customer"`
	Items    []OrderItem `json:"items"`

	Type             OrderType `json:"type"`
	DeliveryLocation string    `json:"delivery_location,omitempty"`
	TableNumber      string    `json:"table_number,omitempty"`

	IsGift         bool   `json:"is_gift"`
	GiftMessage    string `json:"gift_message,omitempty"`
	HideGiftSender bool   `json:"hide_gift_sender"`

	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`
	Payment  Payment  `json:"payment"`
	Pricing  Pricing  `json:"pricing"`
	Shipper  Shipper  `json:"shipper"`

	AuditLog      []AuditEntry   `json:"audit_log"`
	Cancellation  *Cancellation  `json:"cancellation,omitempty"`
	InternalNotes []InternalNote `json:"internal_notes,omitempty"`

	EstimatedReadyTime    *time.Time `json:"estimated_ready_time,omitempty"`
	EstimatedDeliveryTime *time.Time `json:"estimated_delivery_time,omitempty"`

	ProcessedBy string     `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddAudit appends one entry to the audit log.
func (o *Order) AddAudit(action string, actor Actor, prev, next, note string) {
	o.AuditLog = append(o.AuditLog, AuditEntry{
		Action:        action,
		Actor:         actor,
		At:            time.Now(),
		PreviousValue: prev,
		NewValue:      next,
		Note:          note,
	})
}

// Transition moves the order along a legal edge and appends the audit
// entry. Role permission and edge preconditions are the service's job; this
// enforces structural legality only.
func (o *Order) Transition(to Status, actor Actor, note string) error {
	if !CanTransition(o.Status, to) {
		return InvalidTransitionError(o.Status, to)
	}
	prev := o.Status
	o.Status = to
	o.UpdatedAt = time.Now()
	o.AddAudit("status_changed", actor, string(prev), string(to), note)
	return nil
}

// SetItemStatus advances one item through the kitchen cascade.
func (o *Order) SetItemStatus(index int, status KitchenStatus) error {
	if index < 0 || index >= len(o.Items) {
		return Validationf("item index %d out of range", index)
	}
	o.Items[index].KitchenStatus = status
	o.UpdatedAt = time.Now()
	return nil
}

// AllItemsDone reports whether every line item is individually done; the
// aggregate only reaches ready once this holds, unless the whole-order
// override is used.
func (o *Order) AllItemsDone() bool {
	for _, it := range o.Items {
		if it.KitchenStatus != KitchenDone {
			return false
		}
	}
	return len(o.Items) > 0
}

// MarkAllItemsDone is the explicit whole-order override.
func (o *Order) MarkAllItemsDone() {
	for i := range o.Items {
		o.Items[i].KitchenStatus = KitchenDone
	}
	o.UpdatedAt = time.Now()
}

// AgeMinutes is how long the order has been waiting, shown on the
// kitchen display's backlog indicator.
func (o *Order) AgeMinutes(now time.Time) int {
	return int(now.Sub(o.CreatedAt) / time.Minute)
}

// CustomerMayCancel: customers cancel only their own order and only while
// it is still pending.
func (o *Order) CustomerMayCancel(actor Actor) bool {
	if o.Status != StatusPending {
		return false
	}
	return o.Customer.AccountID != "" && o.Customer.AccountID == actor.ID
}

// ItemCount is the total quantity across line items.
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
