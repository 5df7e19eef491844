package domain

// Status is the primary order state machine variable.
type Status string

const (
	StatusPending    Status = "pending"    // awaiting cashier approval
	StatusConfirmed  Status = "confirmed"  // cashier confirmed, sent to kitchen
	StatusCooking    Status = "cooking"    // kitchen is preparing
	StatusReady      Status = "ready"      // ready for pickup/delivery
	StatusDelivering Status = "delivering" // shipper on the way
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether no further status transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// PaymentStatus progresses independently of the order status: an order can
// be ready while payment is still processing.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentConfirmed  PaymentStatus = "confirmed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
)

// KitchenStatus tracks each line item through its station.
type KitchenStatus string

const (
	KitchenPending KitchenStatus = "pending"
	KitchenCooking KitchenStatus = "cooking"
	KitchenDone    KitchenStatus = "done"
)

type OrderType string

const (
	TypeDineIn   OrderType = "dine_in"
	TypeDelivery OrderType = "delivery"
	TypePickup   OrderType = "pickup"
)

func ValidOrderType(t OrderType) bool {
	return t == TypeDineIn || t == TypeDelivery || t == TypePickup
}

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodFree         PaymentMethod = "free"
)

func ValidPaymentMethod(m PaymentMethod) bool {
	return m == MethodBankTransfer || m == MethodCash || m == MethodFree
}

// Role identifies the audience an actor or a connection belongs to.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleCashier  Role = "cashier"
	RoleKitchen  Role = "kitchen"
	RoleShipper  Role = "shipper"
	RoleAdmin    Role = "admin"
	RolePass     Role = "pass" // dine-in pass station display
)

func ValidRole(r Role) bool {
	switch r {
	case RoleCustomer, RoleCashier, RoleKitchen, RoleShipper, RoleAdmin, RolePass:
		return true
	}
	return false
}

// Actor is the identity performing an operation.
type Actor struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Role Role   `json:"role"`
}

func (a Actor) IsStaff() bool {
	return a.Role == RoleCashier || a.Role == RoleAdmin
}

// transitions is the complete set of legal status edges. Any requested edge
// not listed here is rejected as invalid_transition.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusCooking, StatusCancelled},
	StatusCooking:    {StatusReady, StatusCancelled},
	StatusReady:      {StatusDelivering, StatusCompleted, StatusCancelled},
	StatusDelivering: {StatusCompleted, StatusCancelled},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// CanTransition reports whether from→to is a legal edge.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// paymentTransitions is the second, loosely-coupled machine: payment status
// progresses independently of order status.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:    {PaymentProcessing, PaymentConfirmed, PaymentFailed},
	PaymentProcessing: {PaymentConfirmed, PaymentFailed},
	PaymentConfirmed:  {PaymentRefunded},
	PaymentFailed:     {PaymentProcessing},
	PaymentRefunded:   {},
}

// CanTransitionPayment reports whether from→to is a legal payment edge.
func CanTransitionPayment(from, to PaymentStatus) bool {
	for _, s := range paymentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// transitionRoles gates each edge by actor role. Cancellation is handled
// separately because customer cancel depends on order ownership and status.
var transitionRoles = map[Status]map[Status][]Role{
	StatusPending: {
		StatusConfirmed: {RoleCashier, RoleAdmin},
	},
	StatusConfirmed: {
		StatusCooking: {RoleKitchen, RoleAdmin},
	},
	StatusCooking: {
		StatusReady: {RoleKitchen, RoleAdmin},
	},
	StatusReady: {
		StatusDelivering: {RoleShipper, RoleAdmin},
		StatusCompleted:  {RoleCashier, RoleAdmin},
	},
	StatusDelivering: {
		StatusCompleted: {RoleShipper, RoleAdmin},
	},
}

// RoleMayTransition reports whether the role is allowed to drive the edge.
// The edge itself must already be legal.
func RoleMayTransition(role Role, from, to Status) bool {
	if to == StatusCancelled {
		// Staff may cancel any non-terminal order; customers are checked
		// against ownership and pending-only in the service layer.
		return role == RoleCashier || role == RoleAdmin || role == RoleCustomer
	}
	for _, r := range transitionRoles[from][to] {
		if r == role {
			return true
		}
	}
	return false
}
