package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/labamart/labamart/internal/events"
	"github.com/labamart/labamart/internal/guard"
	"github.com/labamart/labamart/internal/logger"
	"github.com/labamart/labamart/internal/models"
	"go.uber.org/zap"
)

// PaymentRepository is interface for interacting with payment-related data
type PaymentRepository interface {
	// UpdatePaymentCAS writes the ledger with a compare-and-set on the
	// pre-transition ledger status and the order status
	UpdatePaymentCAS(ctx context.Context, orderID string, kind models.PaymentKind,
		ledger models.PaymentLedger, from models.PaymentStatus, orderStatus models.OrderStatus) (bool, error)
}

// PaymentService implements the guarded payment sub-ledger lifecycle
type PaymentService struct {
	orders OrderRepository
	repo   PaymentRepository
	guard  *guard.Guard
	pub    EventPublisher
}

// NewPaymentService creates new PaymentService instance
func NewPaymentService(orders OrderRepository, repo PaymentRepository, g *guard.Guard, pub EventPublisher) *PaymentService {
	return &PaymentService{
		orders: orders,
		repo:   repo,
		guard:  g,
		pub:    pub,
	}
}

// SubmitProof applies a customer payment proof to a sub-ledger.
func (ps *PaymentService) SubmitProof(ctx context.Context, actor models.Role, actorID, orderID string,
	kind models.PaymentKind, method, proofImage string) (*models.Order, error) {

	return ps.apply(ctx, actor, actorID, orderID, kind, models.PaymentStatusToConfirm,
		func(next *models.Order, now time.Time) error {
			return ps.guard.SubmitPaymentProof(actor, next, kind, method, proofImage, now)
		})
}

// Confirm applies a staff confirmation to a sub-ledger.
func (ps *PaymentService) Confirm(ctx context.Context, actor models.Role, actorID, orderID string,
	kind models.PaymentKind) (*models.Order, error) {

	return ps.apply(ctx, actor, actorID, orderID, kind, models.PaymentStatusConfirmed,
		func(next *models.Order, now time.Time) error {
			return ps.guard.ConfirmPayment(actor, next, kind, now)
		})
}

// Reject applies a staff rejection to a sub-ledger. The customer must
// resubmit proof afterwards.
func (ps *PaymentService) Reject(ctx context.Context, actor models.Role, actorID, orderID string,
	kind models.PaymentKind, reason string) (*models.Order, error) {

	return ps.apply(ctx, actor, actorID, orderID, kind, models.PaymentStatusRejected,
		func(next *models.Order, now time.Time) error {
			return ps.guard.RejectPayment(actor, next, kind, reason, now)
		})
}

func (ps *PaymentService) apply(ctx context.Context, actor models.Role, actorID, orderID string,
	kind models.PaymentKind, to models.PaymentStatus,
	transition func(next *models.Order, now time.Time) error) (*models.Order, error) {

	if !models.ValidPaymentKind(kind) {
		return nil, models.ErrDataNotFound
	}

	order, err := ps.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Ledger(kind).Status
	orderStatus := order.Status

	next := *order
	if err := transition(&next, time.Now()); err != nil {
		return nil, err
	}

	ok, err := ps.repo.UpdatePaymentCAS(ctx, orderID, kind, *next.Ledger(kind), from, orderStatus)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost the race against another ledger or order transition
		cur, err := ps.orders.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if cur.IsTerminal() {
			return nil, models.ErrOrderClosed
		}
		return nil, models.NewTransitionError(string(cur.Ledger(kind).Status), string(to))
	}

	logger.Log.Info("payment status updated",
		zap.String("order", orderID),
		zap.String("ledger", string(kind)),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actorID),
		zap.String("role", string(actor)))

	if ps.pub != nil {
		ev := events.PaymentStatusChangedEvent{
			EventID:   uuid.NewString(),
			OrderID:   orderID,
			Kind:      kind,
			From:      from,
			To:        to,
			ActorRole: actor,
			Timestamp: time.Now(),
		}
		if err := ps.pub.PublishPaymentStatusChanged(ctx, ev); err != nil {
			logger.Log.Error("publish payment status event", zap.String("order", orderID), zap.Error(err))
		}
	}

	return &next, nil
}
