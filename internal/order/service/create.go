package service

import (
	"context"
	"fmt"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
	"github.com/remyvnkhiemtruong/12a6/internal/order/estimate"
	"github.com/remyvnkhiemtruong/12a6/internal/order/pricing"
	"github.com/remyvnkhiemtruong/12a6/internal/voucher"
)

// CreateItem is one requested line.
type CreateItem struct {
	ProductID  string             `json:"product_id"`
	Quantity   int                `json:"quantity"`
	Size       *domain.ItemOption `json:"size,omitempty"`
	SugarLevel string             `json:"sugar_level,omitempty"`
	IceLevel   string             `json:"ice_level,omitempty"`
	Toppings   []domain.Topping   `json:"toppings,omitempty"`
	Option     *domain.ItemOption `json:"option,omitempty"`
	Note       string             `json:"note,omitempty"`
}

// CreateRequest is the creation operation's input.
type CreateRequest struct {
	CustomerName     string               `json:"customer_name"`
	CustomerPhone    string               `json:"customer_phone"`
	CustomerClass    string               `json:"customer_class,omitempty"`
	AccountID        string               `json:"account_id,omitempty"`
	Items            []CreateItem         `json:"items"`
	Type             domain.OrderType     `json:"order_type"`
	DeliveryLocation string               `json:"delivery_location,omitempty"`
	TableNumber      string               `json:"table_number,omitempty"`
	IsGift           bool                 `json:"is_gift,omitempty"`
	GiftMessage      string               `json:"gift_message,omitempty"`
	HideGiftSender   bool                 `json:"hide_gift_sender,omitempty"`
	VoucherCode      string               `json:"voucher_code,omitempty"`
	PaymentMethod    domain.PaymentMethod `json:"payment_method,omitempty"`
	IsUrgent         bool                 `json:"is_urgent,omitempty"`
}

// reservation tracks stock taken during validation so a later failure can
// hand everything back; the whole creation is one logical transaction.
type reservation struct {
	productID string
	qty       int
}

// Create validates, reserves stock item-by-item, prices and persists a new
// order, then fans out the created event. Validation short-circuits on the
// first failure.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*domain.Order, error) {
	log := s.log.Action("order_create")

	if stopped, reason := s.settings.OrdersStopped(); stopped {
		if reason == "" {
			reason = "online orders are temporarily stopped"
		}
		return nil, domain.NewError(domain.KindStoreClosed, "%s", reason)
	}

	if req.CustomerName == "" || req.CustomerPhone == "" {
		return nil, domain.Validationf("customer name and phone are required")
	}
	if !domain.ValidPhone(req.CustomerPhone) {
		return nil, domain.Validationf("phone %q is not a valid 10-digit mobile number", req.CustomerPhone)
	}
	phone := domain.CleanPhone(req.CustomerPhone)

	if blacklisted, err := s.accounts.IsBlacklisted(ctx, phone); err != nil {
		return nil, domain.WrapError(domain.KindInternal, err, "blacklist check failed")
	} else if blacklisted {
		return nil, domain.NewError(domain.KindForbidden, "this phone number is restricted from ordering")
	}

	if len(req.Items) == 0 {
		return nil, domain.Validationf("order has no items")
	}
	if max := s.settings.MaxItemsPerOrder(); len(req.Items) > max {
		return nil, domain.Validationf("at most %d items per order", max)
	}
	if !domain.ValidOrderType(req.Type) {
		return nil, domain.Validationf("unknown order type %q", req.Type)
	}
	method := req.PaymentMethod
	if method == "" {
		method = domain.MethodBankTransfer
	}
	if !domain.ValidPaymentMethod(method) {
		return nil, domain.Validationf("unknown payment method %q", method)
	}

	now := s.now()
	maxQty := s.settings.MaxQuantityPerItem()

	// Stock is reserved optimistically during validation, item by item. Any
	// failure from here on must restore what was already taken.
	var reserved []reservation
	rollback := func() {
		for _, r := range reserved {
			if err := s.catalog.Restore(ctx, r.productID, r.qty); err != nil {
				log.Action("stock_restore_failed").With("product_id", r.productID).Error("failed to restore reserved stock", err)
			}
		}
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	preps := make([]estimate.Prep, 0, len(req.Items))
	for i, reqItem := range req.Items {
		if reqItem.Quantity < 1 {
			rollback()
			return nil, domain.Validationf("item %d: quantity must be at least 1", i+1)
		}
		product, err := s.catalog.GetProduct(ctx, reqItem.ProductID)
		if err != nil {
			rollback()
			return nil, err
		}
		if !product.IsAvailable {
			rollback()
			return nil, domain.Conflictf("product %q is sold out", product.Name)
		}
		if err := s.catalog.Reserve(ctx, product.ID, reqItem.Quantity); err != nil {
			rollback()
			return nil, err
		}
		reserved = append(reserved, reservation{productID: product.ID, qty: reqItem.Quantity})
		if reqItem.Quantity > maxQty {
			rollback()
			return nil, domain.Validationf("item %d: at most %d per item", i+1, maxQty)
		}

		unit := pricing.UnitPrice(product.CurrentPrice(now), reqItem.Size, reqItem.Option)
		items = append(items, domain.OrderItem{
			ProductID:     product.ID,
			ProductName:   product.Name,
			ProductPrice:  product.Price,
			Quantity:      reqItem.Quantity,
			Size:          reqItem.Size,
			SugarLevel:    reqItem.SugarLevel,
			IceLevel:      reqItem.IceLevel,
			Toppings:      reqItem.Toppings,
			Option:        reqItem.Option,
			Note:          domain.TruncateNote(reqItem.Note),
			KitchenZone:   product.KitchenZone,
			KitchenStatus: domain.KitchenPending,
			ItemTotal:     pricing.ItemTotal(unit, reqItem.Toppings, reqItem.Quantity),
		})
		preps = append(preps, estimate.Prep{PrepMinutes: product.PrepMinutes, Quantity: reqItem.Quantity})
	}

	subtotal := pricing.Subtotal(items)
	snapshot, vch, err := s.applyVoucher(ctx, req.VoucherCode, req.AccountID, phone, subtotal)
	if err != nil {
		rollback()
		return nil, err
	}

	priced := pricing.Totals(items, snapshot, nil, nil)
	if err := pricing.ValidateTotal(priced, req.IsGift); err != nil {
		rollback()
		return nil, err
	}

	o := &domain.Order{
		Customer: domain.Customer{
			Name:      domain.CapitalizeWords(req.CustomerName),
			Phone:     phone,
			Class:     req.CustomerClass,
			AccountID: req.AccountID,
		},
		Items:            items,
		Type:             req.Type,
		DeliveryLocation: req.DeliveryLocation,
		TableNumber:      req.TableNumber,
		IsGift:           req.IsGift,
		GiftMessage:      req.GiftMessage,
		HideGiftSender:   req.HideGiftSender,
		Status:           domain.StatusPending,
		Payment:          domain.Payment{Method: method, Status: domain.PaymentPending},
		Pricing:          priced,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	s.setPriority(ctx, o, req.IsUrgent)

	ready := estimate.ReadyTime(now, preps)
	o.EstimatedReadyTime = &ready
	if o.Type == domain.TypeDelivery {
		delivery := estimate.DeliveryTime(ready, s.deliveryBuffer)
		o.EstimatedDeliveryTime = &delivery
	}
	o.AddAudit("created", domain.Actor{ID: req.AccountID, Role: domain.RoleCustomer}, "", string(domain.StatusPending), "order placed from web")

	if err := s.store.Create(ctx, o); err != nil {
		rollback()
		return nil, domain.WrapError(domain.KindInternal, err, "failed to save order")
	}

	if vch != nil {
		if err := s.vouchers.RecordUsage(ctx, vch, req.AccountID, phone); err != nil {
			log.Action("voucher_usage_record_failed").Error("voucher usage not recorded", err)
		}
	}

	log.With("order_number", o.Number).With("short_code", o.ShortCode).Info("order created")
	s.dispatcher.Dispatch(ctx, domain.OrderCreated{Order: o})
	return o, nil
}

// applyVoucher resolves and validates the voucher and returns the frozen
// discount snapshot. An empty code is not an error.
func (s *Service) applyVoucher(ctx context.Context, code, accountID, phone string, subtotal domain.Money) (*domain.VoucherSnapshot, *voucher.Voucher, error) {
	if code == "" {
		return nil, nil, nil
	}
	vch, err := s.vouchers.FindByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if err := s.vouchers.CheckEligibility(ctx, vch, accountID, phone); err != nil {
		return nil, nil, err
	}
	discount := vch.Discount(subtotal)
	if discount == 0 {
		return nil, nil, domain.Conflictf("voucher %q requires a minimum order of %d", vch.Code, vch.MinOrderValue)
	}
	return &domain.VoucherSnapshot{
		Code:     vch.Code,
		Discount: discount,
		Type:     string(vch.DiscountType),
	}, vch, nil
}

// setPriority resolves account flags into the numeric sort score.
func (s *Service) setPriority(ctx context.Context, o *domain.Order, urgent bool) {
	o.Priority.IsUrgent = urgent
	if o.Customer.AccountID != "" {
		if acct, err := s.accounts.Get(ctx, o.Customer.AccountID); err == nil && acct != nil {
			o.Priority.IsVIP = acct.IsVIP
			o.Priority.IsTeacher = acct.IsTeacher
		}
	}
	o.Priority.Score = estimate.PriorityScore(o.Priority.IsUrgent, o.Priority.IsVIP, o.Priority.IsTeacher)
}

// PaymentReference is the claim/confirm handshake payload returned with a
// freshly created order; no gateway integration, just the transfer hint.
type PaymentReference struct {
	Method  domain.PaymentMethod `json:"method"`
	Amount  domain.Money         `json:"amount"`
	Content string               `json:"content"`
}

// PaymentRef builds the bank-transfer reference for an order.
func PaymentRef(o *domain.Order) *PaymentReference {
	if o.Payment.Method != domain.MethodBankTransfer || o.Payment.Status != domain.PaymentPending {
		return nil
	}
	return &PaymentReference{
		Method:  o.Payment.Method,
		Amount:  o.Pricing.Total,
		Content: fmt.Sprintf("%s %s", o.ShortCode, o.Customer.Phone),
	}
}
