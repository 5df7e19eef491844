package service

import (
	"context"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

// Transition drives the order along one status edge on behalf of an actor.
// It rejects with not_found, invalid_transition (naming both statuses) or
// forbidden, in that order, and otherwise persists the change atomically
// with its audit entry.
func (s *Service) Transition(ctx context.Context, key string, to domain.Status, actor domain.Actor, note string) (*domain.Order, error) {
	if to == domain.StatusCancelled {
		return s.Cancel(ctx, key, actor, note)
	}
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		if !domain.CanTransition(o.Status, to) {
			return domain.InvalidTransitionError(o.Status, to)
		}
		if !domain.RoleMayTransition(actor.Role, o.Status, to) {
			return domain.NewError(domain.KindForbidden, "role %q may not move an order from %q to %q", actor.Role, o.Status, to)
		}
		if err := s.checkPreconditions(o, to, actor); err != nil {
			return err
		}
		if err := o.Transition(to, actor, note); err != nil {
			return err
		}
		s.applySideEffects(o, to, actor)
		emit(eventFor(o, to))
		return nil
	})
}

// checkPreconditions enforces the edge guards beyond structural legality.
func (s *Service) checkPreconditions(o *domain.Order, to domain.Status, actor domain.Actor) error {
	switch to {
	case domain.StatusReady:
		if !o.AllItemsDone() {
			return domain.Conflictf("not all items are done; finish them or mark the whole order done")
		}
	case domain.StatusDelivering:
		if o.Type != domain.TypeDelivery {
			return domain.Conflictf("%s orders are completed at the counter, not delivered", o.Type)
		}
		if o.Shipper.AssignedTo == "" {
			return domain.Conflictf("no shipper assigned yet")
		}
		if actor.Role == domain.RoleShipper && o.Shipper.AssignedTo != actor.ID {
			return domain.NewError(domain.KindForbidden, "order is assigned to another shipper")
		}
	case domain.StatusCompleted:
		if o.Status == domain.StatusReady && o.Type == domain.TypeDelivery {
			return domain.Conflictf("delivery orders complete through the shipper flow")
		}
		if o.Status == domain.StatusDelivering {
			if actor.Role == domain.RoleShipper && o.Shipper.AssignedTo != actor.ID {
				return domain.NewError(domain.KindForbidden, "order is assigned to another shipper")
			}
			if o.Payment.Method == domain.MethodCash && !o.Shipper.PaymentCollected && !o.Payment.ForceCompleted {
				return domain.Conflictf("cash not collected; collect payment or use the force-complete override")
			}
		}
	}
	return nil
}

// applySideEffects stamps the bookkeeping each edge carries.
func (s *Service) applySideEffects(o *domain.Order, to domain.Status, actor domain.Actor) {
	now := s.now()
	switch to {
	case domain.StatusConfirmed:
		o.ProcessedBy = actor.ID
		o.ProcessedAt = &now
	case domain.StatusDelivering:
		o.Shipper.PickedUpAt = &now
	case domain.StatusCompleted:
		if o.Shipper.AssignedTo != "" && o.Shipper.DeliveredAt == nil {
			o.Shipper.DeliveredAt = &now
		}
	}
}

func eventFor(o *domain.Order, to domain.Status) domain.Event {
	switch to {
	case domain.StatusConfirmed:
		return domain.OrderConfirmed{Order: o}
	case domain.StatusCooking:
		return domain.OrderCooking{Order: o}
	case domain.StatusReady:
		return domain.OrderReady{Order: o}
	case domain.StatusDelivering:
		return domain.OrderDelivering{Order: o}
	case domain.StatusCompleted:
		return domain.OrderCompleted{Order: o}
	default:
		return domain.OrderCancelled{Order: o}
	}
}

// kitchenRank orders the item cascade; items only move forward.
var kitchenRank = map[domain.KitchenStatus]int{
	domain.KitchenPending: 0,
	domain.KitchenCooking: 1,
	domain.KitchenDone:    2,
}

// MarkItemStatus advances one line item through the kitchen cascade. The
// first item to start cooking pulls the order into cooking; the last item
// marked done pulls it to ready.
func (s *Service) MarkItemStatus(ctx context.Context, key string, index int, status domain.KitchenStatus, actor domain.Actor) (*domain.Order, error) {
	if actor.Role != domain.RoleKitchen && actor.Role != domain.RoleAdmin {
		return nil, domain.NewError(domain.KindForbidden, "role %q may not update kitchen items", actor.Role)
	}
	if _, ok := kitchenRank[status]; !ok {
		return nil, domain.Validationf("unknown kitchen status %q", status)
	}
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		if o.Status != domain.StatusConfirmed && o.Status != domain.StatusCooking {
			return domain.InvalidTransitionError(o.Status, domain.StatusCooking)
		}
		if index < 0 || index >= len(o.Items) {
			return domain.Validationf("item index %d out of range", index)
		}
		if kitchenRank[status] < kitchenRank[o.Items[index].KitchenStatus] {
			return domain.Conflictf("item %d is already %q", index, o.Items[index].KitchenStatus)
		}
		if err := o.SetItemStatus(index, status); err != nil {
			return err
		}
		emit(domain.ItemStatusChanged{Order: o, ItemIndex: index, Status: status})

		if o.Status == domain.StatusConfirmed && status != domain.KitchenPending {
			if err := o.Transition(domain.StatusCooking, actor, "first item started"); err != nil {
				return err
			}
			emit(domain.OrderCooking{Order: o})
		}
		if o.Status == domain.StatusCooking && o.AllItemsDone() {
			if err := o.Transition(domain.StatusReady, actor, "all items done"); err != nil {
				return err
			}
			emit(domain.OrderReady{Order: o})
		}
		return nil
	})
}

// MarkWholeOrderDone is the explicit kitchen override: all items become
// done and the order goes ready regardless of per-item progress.
func (s *Service) MarkWholeOrderDone(ctx context.Context, key string, actor domain.Actor, note string) (*domain.Order, error) {
	if actor.Role != domain.RoleKitchen && actor.Role != domain.RoleAdmin {
		return nil, domain.NewError(domain.KindForbidden, "role %q may not update kitchen items", actor.Role)
	}
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		if o.Status != domain.StatusConfirmed && o.Status != domain.StatusCooking {
			return domain.InvalidTransitionError(o.Status, domain.StatusReady)
		}
		o.MarkAllItemsDone()
		if o.Status == domain.StatusConfirmed {
			if err := o.Transition(domain.StatusCooking, actor, ""); err != nil {
				return err
			}
		}
		if err := o.Transition(domain.StatusReady, actor, note); err != nil {
			return err
		}
		emit(domain.OrderReady{Order: o})
		return nil
	})
}

// Cancel terminates an order. Customers may cancel only their own pending
// order; cashier/admin may cancel any non-terminal one. Reserved stock is
// handed back for every item, but only once the cancellation has been
// persisted: a failed update leaves the reservation in place with the
// still-live order.
func (s *Service) Cancel(ctx context.Context, key string, actor domain.Actor, reason string) (*domain.Order, error) {
	o, err := s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		if !domain.CanTransition(o.Status, domain.StatusCancelled) {
			return domain.InvalidTransitionError(o.Status, domain.StatusCancelled)
		}
		switch {
		case actor.Role == domain.RoleCustomer:
			if !o.CustomerMayCancel(actor) {
				return domain.NewError(domain.KindForbidden, "customers may only cancel their own pending orders")
			}
		case actor.IsStaff():
			// any non-terminal state
		default:
			return domain.NewError(domain.KindForbidden, "role %q may not cancel orders", actor.Role)
		}

		if err := o.Transition(domain.StatusCancelled, actor, reason); err != nil {
			return err
		}
		refund := "none"
		if o.Payment.Status == domain.PaymentConfirmed {
			refund = "pending"
		}
		now := s.now()
		o.Cancellation = &domain.Cancellation{
			CancelledBy:  actor,
			CancelledAt:  now,
			Reason:       reason,
			RefundStatus: refund,
		}

		emit(domain.OrderCancelled{Order: o})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Restore exactly the quantities the order reserved. Cancellation is
	// terminal, so this runs at most once per order.
	for _, it := range o.Items {
		if err := s.catalog.Restore(ctx, it.ProductID, it.Quantity); err != nil {
			s.log.Action("stock_restore_failed").With("product_id", it.ProductID).Error("failed to restore stock on cancel", err)
		}
	}
	return o, nil
}

// AssignShipper claims a ready delivery order for a shipper. An order
// already claimed by someone else is a conflict.
func (s *Service) AssignShipper(ctx context.Context, key string, shipper domain.Actor) (*domain.Order, error) {
	if shipper.Role != domain.RoleShipper && shipper.Role != domain.RoleAdmin {
		return nil, domain.NewError(domain.KindForbidden, "role %q may not claim deliveries", shipper.Role)
	}
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		if o.Type != domain.TypeDelivery {
			return domain.Conflictf("%s orders have no shipper", o.Type)
		}
		if o.Status != domain.StatusReady {
			return domain.InvalidTransitionError(o.Status, domain.StatusDelivering)
		}
		if o.Shipper.AssignedTo != "" {
			return domain.Conflictf("order already claimed by another shipper")
		}
		now := s.now()
		o.Shipper.AssignedTo = shipper.ID
		o.Shipper.AssignedName = shipper.Name
		o.Shipper.AssignedAt = &now
		o.UpdatedAt = now
		o.AddAudit("shipper_assigned", shipper, "", shipper.ID, "")
		emit(domain.ShipperAssigned{Order: o})
		return nil
	})
}

// CompleteDelivery finishes a delivering order, recording whether cash was
// collected. Cash orders refuse to complete uncollected unless the
// force-complete override was applied.
func (s *Service) CompleteDelivery(ctx context.Context, key string, shipper domain.Actor, paymentCollected bool, note string) (*domain.Order, error) {
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		if !domain.CanTransition(o.Status, domain.StatusCompleted) || o.Status != domain.StatusDelivering {
			return domain.InvalidTransitionError(o.Status, domain.StatusCompleted)
		}
		if !domain.RoleMayTransition(shipper.Role, o.Status, domain.StatusCompleted) {
			return domain.NewError(domain.KindForbidden, "role %q may not complete deliveries", shipper.Role)
		}
		if shipper.Role == domain.RoleShipper && o.Shipper.AssignedTo != shipper.ID {
			return domain.NewError(domain.KindForbidden, "order is assigned to another shipper")
		}
		now := s.now()
		if paymentCollected {
			o.Shipper.PaymentCollected = true
			o.Shipper.PaymentCollectedAt = &now
		}
		if o.Payment.Method == domain.MethodCash && !o.Shipper.PaymentCollected && !o.Payment.ForceCompleted {
			return domain.Conflictf("cash not collected; collect payment or use the force-complete override")
		}
		if err := o.Transition(domain.StatusCompleted, shipper, note); err != nil {
			return err
		}
		o.Shipper.DeliveredAt = &now
		if paymentCollected && o.Payment.Status != domain.PaymentConfirmed {
			prev := o.Payment.Status
			o.Payment.Status = domain.PaymentConfirmed
			o.Payment.ConfirmedAt = &now
			o.Payment.ConfirmedBy = shipper.ID
			o.AddAudit("payment_confirmed", shipper, string(prev), string(domain.PaymentConfirmed), "collected on delivery")
			emit(domain.PaymentStatusChanged{Order: o, Previous: prev})
		}
		emit(domain.OrderCompleted{Order: o})
		return nil
	})
}

// ForceCompletePayment is the audited admin override that lets a cash
// order complete without collection. Requires a reason.
func (s *Service) ForceCompletePayment(ctx context.Context, key string, admin domain.Actor, reason string) (*domain.Order, error) {
	if admin.Role != domain.RoleAdmin {
		return nil, domain.NewError(domain.KindForbidden, "only admins may force-complete payment")
	}
	if reason == "" {
		return nil, domain.Validationf("force-complete requires a reason")
	}
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		o.Payment.ForceCompleted = true
		o.Payment.ForceCompletedBy = admin.ID
		o.Payment.ForceCompleteReason = reason
		o.UpdatedAt = s.now()
		o.AddAudit("payment_force_completed", admin, "", "force_completed", reason)
		return nil
	})
}

// RecordDeliveryAttempt logs a failed delivery attempt without changing
// the order status.
func (s *Service) RecordDeliveryAttempt(ctx context.Context, key string, shipper domain.Actor, outcome, note string) (*domain.Order, error) {
	switch outcome {
	case "no_answer", "wrong_location", "customer_unavailable":
	default:
		return nil, domain.Validationf("unknown delivery attempt outcome %q", outcome)
	}
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		if o.Status != domain.StatusDelivering {
			return domain.Conflictf("order is not out for delivery")
		}
		if shipper.Role == domain.RoleShipper && o.Shipper.AssignedTo != shipper.ID {
			return domain.NewError(domain.KindForbidden, "order is assigned to another shipper")
		}
		o.Shipper.Attempts = append(o.Shipper.Attempts, domain.DeliveryAttempt{
			AttemptedAt: s.now(),
			Outcome:     outcome,
			Note:        note,
		})
		o.AddAudit("delivery_attempt", shipper, "", outcome, note)
		return nil
	})
}

// AddInternalNote appends a staff-only note about the order.
func (s *Service) AddInternalNote(ctx context.Context, key string, actor domain.Actor, note string) (*domain.Order, error) {
	if !actor.IsStaff() && actor.Role != domain.RoleKitchen && actor.Role != domain.RoleShipper {
		return nil, domain.NewError(domain.KindForbidden, "internal notes are staff only")
	}
	if note == "" {
		return nil, domain.Validationf("note must not be empty")
	}
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		o.InternalNotes = append(o.InternalNotes, domain.InternalNote{
			Note:      note,
			CreatedBy: actor.ID,
			CreatedAt: s.now(),
		})
		return nil
	})
}
