package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	legal := []struct{ from, to Status }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusConfirmed, StatusCooking},
		{StatusCooking, StatusReady},
		{StatusReady, StatusDelivering},
		{StatusReady, StatusCompleted},
		{StatusDelivering, StatusCompleted},
		{StatusDelivering, StatusCancelled},
	}
	for _, e := range legal {
		assert.True(t, CanTransition(e.from, e.to), "%s -> %s", e.from, e.to)
	}

	illegal := []struct{ from, to Status }{
		{StatusPending, StatusCooking},
		{StatusPending, StatusReady},
		{StatusConfirmed, StatusReady},
		{StatusCooking, StatusCompleted},
		{StatusCompleted, StatusCancelled},
		{StatusCancelled, StatusConfirmed},
		{StatusCompleted, StatusPending},
	}
	for _, e := range illegal {
		assert.False(t, CanTransition(e.from, e.to), "%s -> %s", e.from, e.to)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusCancelled} {
		for _, to := range []Status{
			StatusPending, StatusConfirmed, StatusCooking,
			StatusReady, StatusDelivering, StatusCompleted, StatusCancelled,
		} {
			assert.False(t, CanTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestCanTransitionPayment(t *testing.T) {
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentProcessing))
	assert.True(t, CanTransitionPayment(PaymentPending, PaymentConfirmed))
	assert.True(t, CanTransitionPayment(PaymentProcessing, PaymentFailed))
	assert.True(t, CanTransitionPayment(PaymentConfirmed, PaymentRefunded))
	assert.True(t, CanTransitionPayment(PaymentFailed, PaymentProcessing))

	assert.False(t, CanTransitionPayment(PaymentConfirmed, PaymentPending))
	assert.False(t, CanTransitionPayment(PaymentRefunded, PaymentConfirmed))
	assert.False(t, CanTransitionPayment(PaymentConfirmed, PaymentFailed))
}

func TestRoleMayTransition(t *testing.T) {
	assert.True(t, RoleMayTransition(RoleCashier, StatusPending, StatusConfirmed))
	assert.False(t, RoleMayTransition(RoleKitchen, StatusPending, StatusConfirmed))

	assert.True(t, RoleMayTransition(RoleKitchen, StatusConfirmed, StatusCooking))
	assert.False(t, RoleMayTransition(RoleShipper, StatusConfirmed, StatusCooking))

	assert.True(t, RoleMayTransition(RoleShipper, StatusReady, StatusDelivering))
	assert.True(t, RoleMayTransition(RoleCashier, StatusReady, StatusCompleted))
	assert.False(t, RoleMayTransition(RoleCashier, StatusReady, StatusDelivering))

	// Admin can drive any legal edge.
	assert.True(t, RoleMayTransition(RoleAdmin, StatusPending, StatusConfirmed))
	assert.True(t, RoleMayTransition(RoleAdmin, StatusDelivering, StatusCompleted))
}

func TestOrderTransitionAppendsAudit(t *testing.T) {
	o := &Order{Status: StatusPending}
	actor := Actor{ID: "c1", Name: "Minh", Role: RoleCashier}

	require.NoError(t, o.Transition(StatusConfirmed, actor, "checked payment"))
	assert.Equal(t, StatusConfirmed, o.Status)
	require.Len(t, o.AuditLog, 1)
	assert.Equal(t, "status_changed", o.AuditLog[0].Action)
	assert.Equal(t, string(StatusPending), o.AuditLog[0].PreviousValue)
	assert.Equal(t, string(StatusConfirmed), o.AuditLog[0].NewValue)

	err := o.Transition(StatusPending, actor, "")
	require.Error(t, err)
	assert.Equal(t, KindInvalidTransition, KindOf(err))
	assert.Len(t, o.AuditLog, 1, "failed transition must not audit")
}

func TestAllItemsDone(t *testing.T) {
	o := &Order{}
	assert.False(t, o.AllItemsDone(), "no items means not done")

	o.Items = []OrderItem{
		{ProductName: "a", KitchenStatus: KitchenDone},
		{ProductName: "b", KitchenStatus: KitchenCooking},
	}
	assert.False(t, o.AllItemsDone())

	o.Items[1].KitchenStatus = KitchenDone
	assert.True(t, o.AllItemsDone())

	o.Items[0].KitchenStatus = KitchenPending
	o.MarkAllItemsDone()
	assert.True(t, o.AllItemsDone())
}

func TestCustomerMayCancel(t *testing.T) {
	o := &Order{Status: StatusPending, Customer: Customer{AccountID: "acc-1"}}
	assert.True(t, o.CustomerMayCancel(Actor{ID: "acc-1", Role: RoleCustomer}))
	assert.False(t, o.CustomerMayCancel(Actor{ID: "acc-2", Role: RoleCustomer}))

	o.Status = StatusConfirmed
	assert.False(t, o.CustomerMayCancel(Actor{ID: "acc-1", Role: RoleCustomer}))

	guest := &Order{Status: StatusPending}
	assert.False(t, guest.CustomerMayCancel(Actor{Role: RoleCustomer}))
}

func TestAgeMinutes(t *testing.T) {
	created := time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC)
	o := &Order{CreatedAt: created}

	assert.Equal(t, 0, o.AgeMinutes(created))
	assert.Equal(t, 0, o.AgeMinutes(created.Add(59*time.Second)))
	assert.Equal(t, 12, o.AgeMinutes(created.Add(12*time.Minute+30*time.Second)))
}
