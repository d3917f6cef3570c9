package lifecycle

import (
	"strings"
	"time"

	"github.com/labamart/labamart/internal/models"
)

// PaymentMachine validates and applies payment sub-ledger transitions.
// A resubmission after staff rejection goes straight back to TO_CONFIRM:
// the ledger passes through UNPAID, it is not a separate state.
type PaymentMachine struct {
	transitions map[models.PaymentStatus][]models.PaymentStatus
}

// NewPaymentMachine creates the payment sub-ledger state machine.
func NewPaymentMachine() *PaymentMachine {
	return &PaymentMachine{
		transitions: map[models.PaymentStatus][]models.PaymentStatus{
			models.PaymentStatusUnpaid:    {models.PaymentStatusToConfirm},
			models.PaymentStatusToConfirm: {models.PaymentStatusConfirmed, models.PaymentStatusRejected},
			models.PaymentStatusRejected:  {models.PaymentStatusToConfirm},
			models.PaymentStatusConfirmed: {},
		},
	}
}

// CanTransition checks if a transition from `from` to `to` is valid.
func (pm *PaymentMachine) CanTransition(from, to models.PaymentStatus) bool {
	allowed, ok := pm.transitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

func (pm *PaymentMachine) check(order *models.Order, kind models.PaymentKind, to models.PaymentStatus) error {
	if order.IsTerminal() {
		return models.ErrOrderClosed
	}
	ledger := order.Ledger(kind)
	if ledger.Waived {
		return models.NewTransitionError(string(ledger.Status), string(to))
	}
	if !pm.CanTransition(ledger.Status, to) {
		return models.NewTransitionError(string(ledger.Status), string(to))
	}
	return nil
}

// SubmitProof moves the ledger to TO_CONFIRM with the customer's payment
// method and proof image. Both are required.
func (pm *PaymentMachine) SubmitProof(order *models.Order, kind models.PaymentKind, method, proofImage string, now time.Time) error {
	if err := pm.check(order, kind, models.PaymentStatusToConfirm); err != nil {
		return err
	}
	if strings.TrimSpace(method) == "" || strings.TrimSpace(proofImage) == "" {
		return models.ErrMissingProof
	}

	ledger := order.Ledger(kind)
	ledger.Status = models.PaymentStatusToConfirm
	ledger.Method = method
	ledger.ProofImage = proofImage
	ledger.Reason = ""
	ledger.UpdatedAt = now
	return nil
}

// Confirm moves the ledger from TO_CONFIRM to CONFIRMED and stamps ConfirmedAt.
func (pm *PaymentMachine) Confirm(order *models.Order, kind models.PaymentKind, now time.Time) error {
	if err := pm.check(order, kind, models.PaymentStatusConfirmed); err != nil {
		return err
	}

	ledger := order.Ledger(kind)
	ledger.Status = models.PaymentStatusConfirmed
	ledger.ConfirmedAt = &now
	ledger.UpdatedAt = now
	return nil
}

// Reject moves the ledger from TO_CONFIRM to REJECTED with a reason. The
// customer must resubmit proof afterwards.
func (pm *PaymentMachine) Reject(order *models.Order, kind models.PaymentKind, reason string, now time.Time) error {
	if err := pm.check(order, kind, models.PaymentStatusRejected); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.ErrMissingReason
	}

	ledger := order.Ledger(kind)
	ledger.Status = models.PaymentStatusRejected
	ledger.Reason = reason
	ledger.UpdatedAt = now
	return nil
}
