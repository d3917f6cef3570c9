package surface

import (
	"context"
	"errors"

	"github.com/labamart/labamart/internal/client"
	"github.com/labamart/labamart/internal/logger"
	"github.com/labamart/labamart/internal/models"
	"go.uber.org/zap"
)

// Staff is the staff-side action surface: it builds transition requests from
// user input, calls the guarded backend, and refreshes its read cache from
// successful responses only.
type Staff struct {
	api   OrderAPI
	cache *orderCache
}

// NewStaff creates new Staff surface instance
func NewStaff(api OrderAPI) *Staff {
	return &Staff{api: api, cache: newOrderCache()}
}

// Orders re-fetches the shop order list, called on screen focus.
func (s *Staff) Orders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.api.ListOrders(ctx, "")
	if err != nil {
		return nil, err
	}
	s.cache.acceptAll(orders)
	return orders, nil
}

// Refresh re-fetches a single order.
func (s *Staff) Refresh(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.cache.accept(orderID, order)
	return order, nil
}

// RefreshAll re-fetches the list in the background. A network failure keeps
// the previous cached view intact; any other error is surfaced.
func (s *Staff) RefreshAll(ctx context.Context) error {
	_, err := s.Orders(ctx)
	if err != nil && errors.Is(err, models.ErrNetworkFailure) {
		logger.Log.Debug("background refresh failed", zap.Error(err))
		return nil
	}
	return err
}

// Cached returns the cached view of an order, if any.
func (s *Staff) Cached(orderID string) (models.Order, bool) {
	return s.cache.get(orderID)
}

func (s *Staff) transition(ctx context.Context, orderID string, to models.OrderStatus, reason, note string) (*models.Order, error) {
	order, err := s.api.UpdateStatus(ctx, orderID, client.StatusUpdate{
		Status: to,
		Reason: reason,
		Note:   note,
		Basis:  s.cache.basis(orderID),
	})
	if err != nil {
		// no optimistic update to roll back, the cache was never touched
		return nil, err
	}
	s.cache.accept(orderID, order)
	return order, nil
}

// Accept accepts a pending order.
func (s *Staff) Accept(ctx context.Context, orderID string) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderStatusAccepted, "", "")
}

// Reject rejects an order with a reason and note, both required.
func (s *Staff) Reject(ctx context.Context, orderID, reason, note string) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderStatusRejected, reason, note)
}

// MarkProcessing marks the order as being serviced.
func (s *Staff) MarkProcessing(ctx context.Context, orderID string) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderStatusProcessing, "", "")
}

// MarkReady marks the order ready for pickup or delivery.
func (s *Staff) MarkReady(ctx context.Context, orderID string) (*models.Order, error) {
	return s.transition(ctx, orderID, models.OrderStatusReady, "", "")
}

// SetProcessStep records a processing sub-step ("Washing", "Folding", ...).
func (s *Staff) SetProcessStep(ctx context.Context, orderID, step string) (*models.Order, error) {
	order, err := s.api.UpdateProcessStep(ctx, orderID, step)
	if err != nil {
		return nil, err
	}
	s.cache.accept(orderID, order)
	return order, nil
}

// Quote sets the service and delivery amounts.
func (s *Staff) Quote(ctx context.Context, orderID string, total, delivery float64) (*models.Order, error) {
	order, err := s.api.UpdateQuote(ctx, orderID, total, delivery)
	if err != nil {
		return nil, err
	}
	s.cache.accept(orderID, order)
	return order, nil
}

// ConfirmPayment confirms a submitted payment proof.
func (s *Staff) ConfirmPayment(ctx context.Context, orderID string, kind models.PaymentKind) (*models.Order, error) {
	order, err := s.api.UpdatePayment(ctx, orderID, client.PaymentUpdate{
		Kind:   kind,
		Status: models.PaymentStatusConfirmed,
	})
	if err != nil {
		return nil, err
	}
	s.cache.accept(orderID, order)
	return order, nil
}

// RejectPayment rejects a submitted payment proof; the customer resubmits.
func (s *Staff) RejectPayment(ctx context.Context, orderID string, kind models.PaymentKind, reason string) (*models.Order, error) {
	order, err := s.api.UpdatePayment(ctx, orderID, client.PaymentUpdate{
		Kind:   kind,
		Status: models.PaymentStatusRejected,
		Reason: reason,
	})
	if err != nil {
		return nil, err
	}
	s.cache.accept(orderID, order)
	return order, nil
}

// RecordHandover records the pickup/delivery; the backend completes the
// order when both sub-ledgers are settled.
func (s *Staff) RecordHandover(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.api.RecordHandover(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.cache.accept(orderID, order)
	return order, nil
}
