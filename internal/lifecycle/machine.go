package lifecycle

import (
	"strings"
	"time"

	"github.com/labamart/labamart/internal/models"
)

// Machine validates and applies order status transitions.
type Machine struct {
	transitions map[models.OrderStatus][]models.OrderStatus
}

// NewMachine creates the order state machine.
func NewMachine() *Machine {
	return &Machine{
		transitions: map[models.OrderStatus][]models.OrderStatus{
			models.OrderStatusPending:    {models.OrderStatusAccepted, models.OrderStatusRejected, models.OrderStatusCancelled},
			models.OrderStatusAccepted:   {models.OrderStatusProcessing, models.OrderStatusRejected},
			models.OrderStatusProcessing: {models.OrderStatusReady, models.OrderStatusRejected},
			models.OrderStatusReady:      {models.OrderStatusCompleted, models.OrderStatusRejected},
			models.OrderStatusCompleted:  {},
			models.OrderStatusRejected:   {},
			models.OrderStatusCancelled:  {},
		},
	}
}

// CanTransition checks if a transition from `from` to `to` is valid.
func (m *Machine) CanTransition(from, to models.OrderStatus) bool {
	allowed, ok := m.transitions[from]
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

// Transition attempts to move the order to a new status. Validation happens
// before any mutation: on failure the order is left exactly as it was.
func (m *Machine) Transition(order *models.Order, to models.OrderStatus, reason, note string, now time.Time) error {
	if order.IsTerminal() {
		return models.ErrOrderClosed
	}
	if !m.CanTransition(order.Status, to) {
		return models.NewTransitionError(string(order.Status), string(to))
	}

	if to == models.OrderStatusRejected {
		reason = strings.TrimSpace(reason)
		note = strings.TrimSpace(note)
		if reason == "" || note == "" {
			return models.ErrMissingReason
		}
		order.RejectionReason = reason
		order.RejectionNote = note
	}

	order.Status = to
	order.UpdatedAt = now
	return nil
}
