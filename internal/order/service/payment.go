package service

import (
	"context"

	"github.com/remyvnkhiemtruong/12a6/internal/order/domain"
)

// ClaimPayment records the customer's "I have transferred" claim: payment
// moves pending→processing and the cashier console is notified. The order
// status is untouched; the two machines are independent.
func (s *Service) ClaimPayment(ctx context.Context, key string) (*domain.Order, error) {
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		if !domain.CanTransitionPayment(o.Payment.Status, domain.PaymentProcessing) {
			return domain.InvalidPaymentTransitionError(o.Payment.Status, domain.PaymentProcessing)
		}
		prev := o.Payment.Status
		now := s.now()
		o.Payment.Status = domain.PaymentProcessing
		o.Payment.CustomerClaimedPaid = true
		o.Payment.ClaimedAt = &now
		o.UpdatedAt = now
		o.AddAudit("payment_claimed", domain.Actor{Role: domain.RoleCustomer}, string(prev), string(domain.PaymentProcessing), "customer claims payment sent")
		emit(domain.PaymentClaimed{Order: o})
		return nil
	})
}

// SetPaymentStatus is the staff action on the payment machine: confirm,
// fail or refund.
func (s *Service) SetPaymentStatus(ctx context.Context, key string, to domain.PaymentStatus, actor domain.Actor, transactionID, note string) (*domain.Order, error) {
	if !actor.IsStaff() {
		return nil, domain.NewError(domain.KindForbidden, "role %q may not settle payments", actor.Role)
	}
	switch to {
	case domain.PaymentConfirmed, domain.PaymentFailed, domain.PaymentRefunded:
	default:
		return nil, domain.Validationf("staff may only set payment to confirmed, failed or refunded")
	}
	return s.withOrder(ctx, key, func(o *domain.Order, emit func(domain.Event)) error {
		if !domain.CanTransitionPayment(o.Payment.Status, to) {
			return domain.InvalidPaymentTransitionError(o.Payment.Status, to)
		}
		prev := o.Payment.Status
		now := s.now()
		o.Payment.Status = to
		if to == domain.PaymentConfirmed {
			o.Payment.ConfirmedBy = actor.ID
			o.Payment.ConfirmedAt = &now
			if transactionID != "" {
				o.Payment.TransactionID = transactionID
			}
		}
		o.UpdatedAt = now
		o.AddAudit("payment_"+string(to), actor, string(prev), string(to), note)
		emit(domain.PaymentStatusChanged{Order: o, Previous: prev})
		return nil
	})
}
