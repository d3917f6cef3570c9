package guard

import (
	"time"

	"github.com/labamart/labamart/internal/lifecycle"
	"github.com/labamart/labamart/internal/models"
)

// Guard wraps the order and payment state machines and rejects transitions
// the actor's role is not permitted to request. The actor role is always an
// explicit argument, never ambient state.
type Guard struct {
	orders   *lifecycle.Machine
	payments *lifecycle.PaymentMachine
}

// New creates a guard over fresh state machines.
func New() *Guard {
	return &Guard{
		orders:   lifecycle.NewMachine(),
		payments: lifecycle.NewPaymentMachine(),
	}
}

// OrderTransition applies a requested order status change after checking the
// actor's role against the transition class. Machine errors are propagated
// unchanged.
func (g *Guard) OrderTransition(actor models.Role, order *models.Order, to models.OrderStatus, reason, note string, now time.Time) error {
	switch to {
	case models.OrderStatusAccepted, models.OrderStatusRejected,
		models.OrderStatusProcessing, models.OrderStatusReady:
		if actor != models.RoleStaff {
			return models.ErrUnauthorized
		}
	case models.OrderStatusCancelled:
		if actor != models.RoleCustomer {
			return models.ErrUnauthorized
		}
	case models.OrderStatusCompleted:
		// COMPLETED is derived, see CompleteIfSettled.
		return models.ErrUnauthorized
	default:
		return models.NewTransitionError(string(order.Status), string(to))
	}
	return g.orders.Transition(order, to, reason, note, now)
}

// SubmitPaymentProof applies a customer proof submission to a sub-ledger.
func (g *Guard) SubmitPaymentProof(actor models.Role, order *models.Order, kind models.PaymentKind, method, proofImage string, now time.Time) error {
	if actor != models.RoleCustomer {
		return models.ErrUnauthorized
	}
	return g.payments.SubmitProof(order, kind, method, proofImage, now)
}

// ConfirmPayment applies a staff confirmation to a sub-ledger.
func (g *Guard) ConfirmPayment(actor models.Role, order *models.Order, kind models.PaymentKind, now time.Time) error {
	if actor != models.RoleStaff {
		return models.ErrUnauthorized
	}
	return g.payments.Confirm(order, kind, now)
}

// RejectPayment applies a staff rejection to a sub-ledger.
func (g *Guard) RejectPayment(actor models.Role, order *models.Order, kind models.PaymentKind, reason string, now time.Time) error {
	if actor != models.RoleStaff {
		return models.ErrUnauthorized
	}
	return g.payments.Reject(order, kind, reason, now)
}

// Quote sets the order amounts. Amounts are immutable once either sub-ledger
// has left UNPAID.
func (g *Guard) Quote(actor models.Role, order *models.Order, total, delivery float64, now time.Time) error {
	if actor != models.RoleStaff {
		return models.ErrUnauthorized
	}
	if order.IsTerminal() {
		return models.ErrOrderClosed
	}
	if total < 0 || delivery < 0 {
		return models.ErrConflictData
	}
	for _, ledger := range []*models.PaymentLedger{&order.Invoice, &order.DeliveryPayment} {
		if !ledger.Waived && ledger.Status != models.PaymentStatusUnpaid {
			return models.ErrConflictData
		}
	}
	order.TotalAmount = total
	order.DeliveryAmount = delivery
	order.UpdatedAt = now
	return nil
}

// RecordHandover stamps the delivery/pickup time on a READY order.
func (g *Guard) RecordHandover(actor models.Role, order *models.Order, now time.Time) error {
	if actor != models.RoleStaff {
		return models.ErrUnauthorized
	}
	if order.IsTerminal() {
		return models.ErrOrderClosed
	}
	if order.Status != models.OrderStatusReady {
		return models.NewTransitionError(string(order.Status), string(models.OrderStatusReady))
	}
	order.HandoverAt = &now
	order.UpdatedAt = now
	return nil
}

// SetProcessStatus records a processing sub-step ("Washing", "Folding", ...)
// while the order is PROCESSING.
func (g *Guard) SetProcessStatus(actor models.Role, order *models.Order, step string, now time.Time) error {
	if actor != models.RoleStaff {
		return models.ErrUnauthorized
	}
	if order.IsTerminal() {
		return models.ErrOrderClosed
	}
	if order.Status != models.OrderStatusProcessing {
		return models.NewTransitionError(string(order.Status), string(models.OrderStatusProcessing))
	}
	order.ProcessStatus = step
	order.UpdatedAt = now
	return nil
}

// CompleteIfSettled derives the READY -> COMPLETED transition: it succeeds
// only when the handover is recorded and both sub-ledgers are confirmed or
// waived. Neither role may request COMPLETED directly; the check is triggered
// by staff recording a handover or by the completion sweep.
func (g *Guard) CompleteIfSettled(actor models.Role, order *models.Order, now time.Time) error {
	if actor != models.RoleStaff && actor != models.RoleSystem {
		return models.ErrUnauthorized
	}
	if order.IsTerminal() {
		return models.ErrOrderClosed
	}
	if order.Status != models.OrderStatusReady || order.HandoverAt == nil ||
		!order.Invoice.IsSettled() || !order.DeliveryPayment.IsSettled() {
		return models.NewTransitionError(string(order.Status), string(models.OrderStatusCompleted))
	}
	return g.orders.Transition(order, models.OrderStatusCompleted, "", "", now)
}
