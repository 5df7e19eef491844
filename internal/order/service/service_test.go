package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remyvnkhiemtruong/12a6/internal/account"
	"github.com/remyvnkhiemtruong/12a6/internal/catalog"
	memstore "github.com/remyvnkhiemtruong/12a6/internal/order/adapter/memory"
	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
	"github.com/remyvnkhiemtruong/12a6/internal/order/service"
	"github.com/remyvnkhiemtruong/12a6/internal/voucher"
	"github.com/remyvnkhiemtruong/12a6/pkg/logger"
)

// recordedDispatcher captures fan-out events for assertions.
type recordedDispatcher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (d *recordedDispatcher) Dispatch(_ context.Context, ev domain.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *recordedDispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

func (d *recordedDispatcher) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, len(d.events))
	for i, ev := range d.events {
		names[i] = ev.EventName()
	}
	return names
}

type stubSettings struct {
	maxItems   int
	maxQty     int
	stopped    bool
	stopReason string
}

func (s *stubSettings) MaxItemsPerOrder() int         { return s.maxItems }
func (s *stubSettings) MaxQuantityPerItem() int       { return s.maxQty }
func (s *stubSettings) OrdersStopped() (bool, string) { return s.stopped, s.stopReason }

type fixture struct {
	svc        *service.Service
	catalog    *catalog.MemoryStore
	settings   *stubSettings
	dispatcher *recordedDispatcher
}

func setup(t *testing.T) *fixture {
	t.Helper()
	cat := catalog.NewMemoryStore(
		&catalog.Product{
			ID: "tra-sua", Name: "Trà sữa trân châu",
			Price: 25000, CurrentStock: 20, LowStockThreshold: 3,
			IsAvailable: true, PrepMinutes: 5, KitchenZone: "drinks",
		},
		&catalog.Product{
			ID: "banh-trang", Name: "Bánh tráng trộn",
			Price: 15000, CurrentStock: 10, LowStockThreshold: 2,
			IsAvailable: true, PrepMinutes: 8, KitchenZone: "snacks",
		},
		&catalog.Product{
			ID: "het-hang", Name: "Món hết hàng",
			Price: 10000, CurrentStock: 0, IsAvailable: false,
		},
	)
	now := time.Now()
	vouchers := voucher.NewMemoryStore(&voucher.Voucher{
		Code:          "SALE10",
		DiscountType:  voucher.Percentage,
		DiscountValue: 10,
		MaxDiscount:   5000,
		MinOrderValue: 20000,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		IsActive:      true,
	})
	accounts := account.NewMemoryStore(
		&account.Account{ID: "acc-vip", DisplayName: "Lan", Phone: "0911111111", IsVIP: true},
		&account.Account{ID: "acc-teacher", DisplayName: "Cô Hà", Phone: "0922222222", IsTeacher: true},
		&account.Account{ID: "acc-banned", Phone: "0933333333", IsBlacklisted: true},
	)
	settings := &stubSettings{maxItems: 5, maxQty: 10}
	dispatcher := &recordedDispatcher{}
	svc := service.New(
		memstore.NewStore(), cat, vouchers, accounts, settings, dispatcher, logger.NewNop(),
	)
	return &fixture{svc: svc, catalog: cat, settings: settings, dispatcher: dispatcher}
}

func baseRequest() service.CreateRequest {
	return service.CreateRequest{
		CustomerName:  "nguyen van an",
		CustomerPhone: "0912 345 678",
		Items: []service.CreateItem{
			{ProductID: "tra-sua", Quantity: 2, Toppings: []domain.Topping{{Name: "trân châu", Price: 5000}}},
			{ProductID: "banh-trang", Quantity: 1},
		},
		Type: domain.TypeDineIn,
	}
}

func cashier() domain.Actor {
	return domain.Actor{ID: "staff-1", Name: "Minh", Role: domain.RoleCashier}
}
func kitchen() domain.Actor { return domain.Actor{ID: "kit-1", Name: "Béo", Role: domain.RoleKitchen} }

func TestCreateOrder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, baseRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, "Nguyen Van An", o.Customer.Name)
	assert.Equal(t, "0912345678", o.Customer.Phone)
	assert.Equal(t, "A01", o.ShortCode)
	assert.Regexp(t, `^ORD-\d{8}-0001$`, o.Number)
	assert.Equal(t, domain.MethodBankTransfer, o.Payment.Method, "default payment method")
	assert.Equal(t, domain.PaymentPending, o.Payment.Status)

	// (25000+5000)*2 + 15000
	assert.Equal(t, domain.Money(75000), o.Pricing.Total)
	assert.True(t, o.Pricing.CheckTotal())
	require.NotNil(t, o.EstimatedReadyTime)
	assert.Nil(t, o.EstimatedDeliveryTime, "dine-in has no delivery estimate")

	// Stock was taken.
	p, _ := f.catalog.GetProduct(ctx, "tra-sua")
	assert.Equal(t, 18, p.CurrentStock)

	require.Len(t, o.AuditLog, 1)
	assert.Equal(t, "created", o.AuditLog[0].Action)
	assert.Equal(t, []string{"order.created"}, f.dispatcher.Names())

	// Resolvable by id, number and shortcode.
	for _, key := range []string{o.ID, o.Number, "a01"} {
		got, err := f.svc.Get(ctx, key)
		require.NoError(t, err, "key %q", key)
		assert.Equal(t, o.ID, got.ID)
	}
}

func TestCreateOrderWithVoucher(t *testing.T) {
	f := setup(t)
	req := baseRequest()
	req.VoucherCode = "sale10"
	req.AccountID = "acc-vip"

	o, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, o.Pricing.Voucher)
	assert.Equal(t, "SALE10", o.Pricing.Voucher.Code)
	// 10% of 75000 is 7500, capped at 5000.
	assert.Equal(t, domain.Money(5000), o.Pricing.Voucher.Discount)
	assert.Equal(t, domain.Money(70000), o.Pricing.Total)

	assert.True(t, o.Priority.IsVIP)
	assert.Equal(t, 50, o.Priority.Score)
}

func TestCreateOrderValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	t.Run("bad phone", func(t *testing.T) {
		req := baseRequest()
		req.CustomerPhone = "123456"
		_, err := f.svc.Create(ctx, req)
		require.Error(t, err)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("blacklisted", func(t *testing.T) {
		req := baseRequest()
		req.CustomerPhone = "0933333333"
		_, err := f.svc.Create(ctx, req)
		require.Error(t, err)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("no items", func(t *testing.T) {
		req := baseRequest()
		req.Items = nil
		_, err := f.svc.Create(ctx, req)
		assert.Equal(t, domain.KindValidation, domain.KindOf(err))
	})

	t.Run("unavailable product", func(t *testing.T) {
		req := baseRequest()
		req.Items = []service.CreateItem{{ProductID: "het-hang", Quantity: 1}}
		_, err := f.svc.Create(ctx, req)
		assert.Equal(t, domain.KindConflict, domain.KindOf(err))
	})

	t.Run("store closed", func(t *testing.T) {
		f.settings.stopped = true
		f.settings.stopReason = "out for a school event"
		defer func() { f.settings.stopped = false }()
		_, err := f.svc.Create(ctx, baseRequest())
		require.Error(t, err)
		assert.Equal(t, domain.KindStoreClosed, domain.KindOf(err))
		assert.Contains(t, err.Error(), "school event")
	})
}

func TestCreateRollsBackStockOnFailure(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	// Second item fails after the first already reserved stock.
	req := baseRequest()
	req.Items = []service.CreateItem{
		{ProductID: "tra-sua", Quantity: 2},
		{ProductID: "banh-trang", Quantity: 99},
	}
	_, err := f.svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	p, _ := f.catalog.GetProduct(ctx, "tra-sua")
	assert.Equal(t, 20, p.CurrentStock, "reservation must be rolled back")
	assert.Empty(t, f.dispatcher.Names())

	// Stock is checked before the per-item cap: enough stock but over the
	// cap is a validation error, and the reservation is handed back.
	req = baseRequest()
	req.Items = []service.CreateItem{{ProductID: "tra-sua", Quantity: 15}}
	_, err = f.svc.Create(ctx, req)
	require.Error(t, err)
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))

	p, _ = f.catalog.GetProduct(ctx, "tra-sua")
	assert.Equal(t, 20, p.CurrentStock, "cap failure must restore reserved stock")
}

func TestLifecycleDineIn(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, baseRequest())
	require.NoError(t, err)
	f.dispatcher.Reset()

	// Kitchen cannot confirm.
	_, err = f.svc.Transition(ctx, o.Number, domain.StatusConfirmed, kitchen(), "")
	require.Error(t, err)
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	o, err = f.svc.Transition(ctx, o.Number, domain.StatusConfirmed, cashier(), "payment seen")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, o.Status)
	assert.Equal(t, "staff-1", o.ProcessedBy)

	// Skipping cooking straight to ready is rejected.
	_, err = f.svc.Transition(ctx, o.Number, domain.StatusReady, kitchen(), "")
	require.Error(t, err)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))

	// First item starting pulls the order into cooking.
	o, err = f.svc.MarkItemStatus(ctx, o.Number, 0, domain.KitchenCooking, kitchen())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCooking, o.Status)

	// Items never move backward.
	_, err = f.svc.MarkItemStatus(ctx, o.Number, 0, domain.KitchenPending, kitchen())
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	// Ready requires every item done.
	_, err = f.svc.Transition(ctx, o.Number, domain.StatusReady, kitchen(), "")
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	o, err = f.svc.MarkItemStatus(ctx, o.Number, 0, domain.KitchenDone, kitchen())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCooking, o.Status)

	// Last item done pulls the order to ready.
	o, err = f.svc.MarkItemStatus(ctx, o.Number, 1, domain.KitchenDone, kitchen())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, o.Status)

	o, err = f.svc.Transition(ctx, o.Number, domain.StatusCompleted, cashier(), "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, o.Status)

	assert.Equal(t, []string{
		"order.confirmed",
		"order.item_status", "order.cooking",
		"order.item_status",
		"order.item_status", "order.ready",
		"order.completed",
	}, f.dispatcher.Names())

	// Terminal: nothing moves anymore.
	_, err = f.svc.Transition(ctx, o.Number, domain.StatusCancelled, cashier(), "oops")
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
}

func TestMarkWholeOrderDone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, _ := f.svc.Create(ctx, baseRequest())
	_, err := f.svc.Transition(ctx, o.Number, domain.StatusConfirmed, cashier(), "")
	require.NoError(t, err)

	o, err = f.svc.MarkWholeOrderDone(ctx, o.Number, kitchen(), "rush hour")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusReady, o.Status)
	assert.True(t, o.AllItemsDone())
}

func TestDeliveryFlow(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	shipper := domain.Actor{ID: "ship-1", Name: "Tú", Role: domain.RoleShipper}
	rival := domain.Actor{ID: "ship-2", Name: "Hùng", Role: domain.RoleShipper}

	req := baseRequest()
	req.Type = domain.TypeDelivery
	req.DeliveryLocation = "Lớp 12A6, tầng 3"
	req.PaymentMethod = domain.MethodCash
	o, err := f.svc.Create(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, o.EstimatedDeliveryTime)

	_, err = f.svc.Transition(ctx, o.Number, domain.StatusConfirmed, cashier(), "")
	require.NoError(t, err)
	_, err = f.svc.MarkWholeOrderDone(ctx, o.Number, kitchen(), "")
	require.NoError(t, err)

	// Cashier cannot counter-complete a ready delivery order.
	_, err = f.svc.Transition(ctx, o.Number, domain.StatusCompleted, cashier(), "")
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	// Delivering before a shipper claims it is a conflict.
	_, err = f.svc.Transition(ctx, o.Number, domain.StatusDelivering, shipper, "")
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	o, err = f.svc.AssignShipper(ctx, o.Number, shipper)
	require.NoError(t, err)
	assert.Equal(t, "ship-1", o.Shipper.AssignedTo)

	// Second claim loses.
	_, err = f.svc.AssignShipper(ctx, o.Number, rival)
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	// The rival cannot drive the assigned order either.
	_, err = f.svc.Transition(ctx, o.Number, domain.StatusDelivering, rival, "")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	o, err = f.svc.Transition(ctx, o.Number, domain.StatusDelivering, shipper, "")
	require.NoError(t, err)
	require.NotNil(t, o.Shipper.PickedUpAt)

	// Failed attempt is logged without changing status.
	o, err = f.svc.RecordDeliveryAttempt(ctx, o.Number, shipper, "no_answer", "called twice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivering, o.Status)
	require.Len(t, o.Shipper.Attempts, 1)

	// Cash not collected blocks completion.
	_, err = f.svc.CompleteDelivery(ctx, o.Number, shipper, false, "")
	assert.Equal(t, domain.KindConflict, domain.KindOf(err))

	o, err = f.svc.CompleteDelivery(ctx, o.Number, shipper, true, "handed over")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, o.Status)
	assert.True(t, o.Shipper.PaymentCollected)
	assert.Equal(t, domain.PaymentConfirmed, o.Payment.Status, "cash collection confirms payment")
	require.NotNil(t, o.Shipper.DeliveredAt)
}

func TestForceCompletePayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	admin := domain.Actor{ID: "adm-1", Role: domain.RoleAdmin}
	shipper := domain.Actor{ID: "ship-1", Role: domain.RoleShipper}

	req := baseRequest()
	req.Type = domain.TypeDelivery
	req.PaymentMethod = domain.MethodCash
	o, _ := f.svc.Create(ctx, req)
	_, _ = f.svc.Transition(ctx, o.Number, domain.StatusConfirmed, cashier(), "")
	_, _ = f.svc.MarkWholeOrderDone(ctx, o.Number, kitchen(), "")
	_, _ = f.svc.AssignShipper(ctx, o.Number, shipper)
	_, _ = f.svc.Transition(ctx, o.Number, domain.StatusDelivering, shipper, "")

	_, err := f.svc.ForceCompletePayment(ctx, o.Number, cashier(), "friend of the class")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err), "cashier may not force-complete")

	_, err = f.svc.ForceCompletePayment(ctx, o.Number, admin, "")
	assert.Equal(t, domain.KindValidation, domain.KindOf(err), "reason is required")

	o, err = f.svc.ForceCompletePayment(ctx, o.Number, admin, "customer pays tomorrow")
	require.NoError(t, err)
	assert.True(t, o.Payment.ForceCompleted)

	o, err = f.svc.CompleteDelivery(ctx, o.Number, shipper, false, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, o.Status)
	assert.NotEqual(t, domain.PaymentConfirmed, o.Payment.Status, "override completes the order, not the payment")
}

func TestCancelRestoresStock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, _ := f.svc.Create(ctx, baseRequest())
	p, _ := f.catalog.GetProduct(ctx, "tra-sua")
	require.Equal(t, 18, p.CurrentStock)

	o, err := f.svc.Cancel(ctx, o.Number, cashier(), "customer changed their mind")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, o.Status)
	require.NotNil(t, o.Cancellation)
	assert.Equal(t, "none", o.Cancellation.RefundStatus)

	p, _ = f.catalog.GetProduct(ctx, "tra-sua")
	assert.Equal(t, 20, p.CurrentStock)
}

// failingUpdateStore makes Update fail on demand, leaving reads intact.
type failingUpdateStore struct {
	service.Store
	fail bool
}

func (s *failingUpdateStore) Update(ctx context.Context, o *domain.Order) error {
	if s.fail {
		return errors.New("connection reset")
	}
	return s.Store.Update(ctx, o)
}

func TestCancelLeavesStockReservedWhenPersistFails(t *testing.T) {
	ctx := context.Background()
	cat := catalog.NewMemoryStore(&catalog.Product{
		ID: "tra-sua", Name: "Trà sữa trân châu",
		Price: 25000, CurrentStock: 10, IsAvailable: true, PrepMinutes: 5,
	})
	st := &failingUpdateStore{Store: memstore.NewStore()}
	svc := service.New(
		st, cat, voucher.NewMemoryStore(), account.NewMemoryStore(),
		&stubSettings{maxItems: 5, maxQty: 10}, &recordedDispatcher{}, logger.NewNop(),
	)

	o, err := svc.Create(ctx, service.CreateRequest{
		CustomerName:  "nguyen van an",
		CustomerPhone: "0912345678",
		Items:         []service.CreateItem{{ProductID: "tra-sua", Quantity: 3}},
		Type:          domain.TypeDineIn,
	})
	require.NoError(t, err)
	p, _ := cat.GetProduct(ctx, "tra-sua")
	require.Equal(t, 7, p.CurrentStock)

	st.fail = true
	_, err = svc.Cancel(ctx, o.Number, cashier(), "register offline")
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	// The order is still live, so its reservation must still be held.
	got, err := svc.Get(ctx, o.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, got.Status)
	p, _ = cat.GetProduct(ctx, "tra-sua")
	assert.Equal(t, 7, p.CurrentStock, "stock must stay reserved for the live order")

	// Once the store recovers the cancel goes through and hands stock back.
	st.fail = false
	_, err = svc.Cancel(ctx, o.Number, cashier(), "customer changed their mind")
	require.NoError(t, err)
	p, _ = cat.GetProduct(ctx, "tra-sua")
	assert.Equal(t, 10, p.CurrentStock)
}

func TestCustomerCancel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	req := baseRequest()
	req.AccountID = "acc-vip"
	o, _ := f.svc.Create(ctx, req)

	t.Run("someone else's order", func(t *testing.T) {
		_, err := f.svc.Cancel(ctx, o.Number, domain.Actor{ID: "acc-other", Role: domain.RoleCustomer}, "")
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("own pending order", func(t *testing.T) {
		got, err := f.svc.Cancel(ctx, o.Number, domain.Actor{ID: "acc-vip", Role: domain.RoleCustomer}, "ordered twice")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status)
	})

	t.Run("after confirmation", func(t *testing.T) {
		o2, _ := f.svc.Create(ctx, req)
		_, err := f.svc.Transition(ctx, o2.Number, domain.StatusConfirmed, cashier(), "")
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, o2.Number, domain.Actor{ID: "acc-vip", Role: domain.RoleCustomer}, "")
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})
}

func TestPaymentClaimAndConfirm(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, _ := f.svc.Create(ctx, baseRequest())
	f.dispatcher.Reset()

	o, err := f.svc.ClaimPayment(ctx, o.Number)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentProcessing, o.Payment.Status)
	assert.True(t, o.Payment.CustomerClaimedPaid)
	require.NotNil(t, o.Payment.ClaimedAt)

	// Double claim is rejected by the payment machine.
	_, err = f.svc.ClaimPayment(ctx, o.Number)
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))

	// Customers cannot settle payments.
	_, err = f.svc.SetPaymentStatus(ctx, o.Number, domain.PaymentConfirmed, domain.Actor{Role: domain.RoleCustomer}, "", "")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	o, err = f.svc.SetPaymentStatus(ctx, o.Number, domain.PaymentConfirmed, cashier(), "FT24031012345", "matched bank statement")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentConfirmed, o.Payment.Status)
	assert.Equal(t, "FT24031012345", o.Payment.TransactionID)
	assert.Equal(t, "staff-1", o.Payment.ConfirmedBy)

	// Confirmed can only be refunded.
	_, err = f.svc.SetPaymentStatus(ctx, o.Number, domain.PaymentFailed, cashier(), "", "")
	assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))

	o, err = f.svc.SetPaymentStatus(ctx, o.Number, domain.PaymentRefunded, cashier(), "", "order cancelled")
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentRefunded, o.Payment.Status)

	assert.Equal(t, []string{
		"payment.claimed", "payment.status_changed", "payment.status_changed",
	}, f.dispatcher.Names())

	// The order status never moved.
	assert.Equal(t, domain.StatusPending, o.Status)
}

func TestCancelledWithConfirmedPaymentNeedsRefund(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, _ := f.svc.Create(ctx, baseRequest())
	_, err := f.svc.SetPaymentStatus(ctx, o.Number, domain.PaymentConfirmed, cashier(), "", "")
	require.NoError(t, err)

	o, err = f.svc.Cancel(ctx, o.Number, cashier(), "kitchen accident")
	require.NoError(t, err)
	assert.Equal(t, "pending", o.Cancellation.RefundStatus)
}

func TestConcurrentConfirmAndCancel(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, _ := f.svc.Create(ctx, baseRequest())

	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.svc.Transition(ctx, o.ID, domain.StatusConfirmed, cashier(), "")
		results <- err
	}()
	go func() {
		defer wg.Done()
		_, err := f.svc.Cancel(ctx, o.ID, cashier(), "race")
		results <- err
	}()
	wg.Wait()
	close(results)

	var failures int
	for err := range results {
		if err != nil {
			failures++
			assert.Equal(t, domain.KindInvalidTransition, domain.KindOf(err))
		}
	}
	// pending allows either edge, so at most one loses; cancelled-then-
	// confirm always fails, confirm-then-cancel is still legal.
	got, err := f.svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Contains(t, []domain.Status{domain.StatusConfirmed, domain.StatusCancelled}, got.Status)
	assert.LessOrEqual(t, failures, 1)
}

func TestQueueOrdering(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	plain, err := f.svc.Create(ctx, baseRequest())
	require.NoError(t, err)

	vip := baseRequest()
	vip.AccountID = "acc-vip"
	vipOrder, err := f.svc.Create(ctx, vip)
	require.NoError(t, err)

	urgent := baseRequest()
	urgent.IsUrgent = true
	urgentOrder, err := f.svc.Create(ctx, urgent)
	require.NoError(t, err)

	teacher := baseRequest()
	teacher.AccountID = "acc-teacher"
	teacherOrder, err := f.svc.Create(ctx, teacher)
	require.NoError(t, err)

	orders, err := f.svc.List(ctx, service.Filter{Status: domain.StatusPending})
	require.NoError(t, err)
	require.Len(t, orders, 4)

	assert.Equal(t, urgentOrder.ID, orders[0].ID, "urgent first")
	assert.Equal(t, vipOrder.ID, orders[1].ID, "then VIP")
	assert.Equal(t, teacherOrder.ID, orders[2].ID, "then teacher")
	assert.Equal(t, plain.ID, orders[3].ID, "then creation order")
}

func TestShipperOrders(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	shipper := domain.Actor{ID: "ship-1", Role: domain.RoleShipper}

	mk := func() *domain.Order {
		req := baseRequest()
		req.Type = domain.TypeDelivery
		o, err := f.svc.Create(ctx, req)
		require.NoError(t, err)
		_, err = f.svc.Transition(ctx, o.Number, domain.StatusConfirmed, cashier(), "")
		require.NoError(t, err)
		_, err = f.svc.MarkWholeOrderDone(ctx, o.Number, kitchen(), "")
		require.NoError(t, err)
		return o
	}
	first, second := mk(), mk()

	_, err := f.svc.AssignShipper(ctx, first.Number, shipper)
	require.NoError(t, err)

	queue, err := f.svc.ShipperOrders(ctx, "ship-1")
	require.NoError(t, err)
	require.Len(t, queue.Available, 1)
	assert.Equal(t, second.ID, queue.Available[0].ID)
	require.Len(t, queue.Mine, 1)
	assert.Equal(t, first.ID, queue.Mine[0].ID)
}

func TestCustomerHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.svc.Create(ctx, baseRequest())
		require.NoError(t, err)
	}
	other := baseRequest()
	other.CustomerPhone = "0987654321"
	_, err := f.svc.Create(ctx, other)
	require.NoError(t, err)

	history, err := f.svc.CustomerHistory(ctx, "0912 345 678", 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
	for _, o := range history {
		assert.Equal(t, "0912345678", o.Customer.Phone)
	}
}

func TestInternalNotes(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, _ := f.svc.Create(ctx, baseRequest())

	_, err := f.svc.AddInternalNote(ctx, o.Number, domain.Actor{Role: domain.RoleCustomer}, "hi")
	assert.Equal(t, domain.KindForbidden, domain.KindOf(err))

	o, err = f.svc.AddInternalNote(ctx, o.Number, cashier(), "regular, always extra ice")
	require.NoError(t, err)
	require.Len(t, o.InternalNotes, 1)
	assert.Equal(t, "staff-1", o.InternalNotes[0].CreatedBy)
}
