package surface

import (
	"context"
	"errors"

	"github.com/labamart/labamart/internal/client"
	"github.com/labamart/labamart/internal/logger"
	"github.com/labamart/labamart/internal/models"
	"go.uber.org/zap"
)

// Customer is the customer-side action surface.
type Customer struct {
	api   OrderAPI
	cache *orderCache
}

// NewCustomer creates new Customer surface instance
func NewCustomer(api OrderAPI) *Customer {
	return &Customer{api: api, cache: newOrderCache()}
}

// PlaceOrder creates a new order. A drop-off order carries a waived delivery
// payment.
func (c *Customer) PlaceOrder(ctx context.Context, shopID string, dropOff bool) (*models.Order, error) {
	order, err := c.api.CreateOrder(ctx, shopID, dropOff)
	if err != nil {
		return nil, err
	}
	c.cache.accept(order.OrderID, order)
	return order, nil
}

// Orders re-fetches the customer's order history, called on screen focus.
func (c *Customer) Orders(ctx context.Context) ([]models.Order, error) {
	orders, err := c.api.ListOrders(ctx, "")
	if err != nil {
		return nil, err
	}
	c.cache.acceptAll(orders)
	return orders, nil
}

// TrackOrder re-fetches a single order for the tracking screen.
func (c *Customer) TrackOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := c.api.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	c.cache.accept(orderID, order)
	return order, nil
}

// RefreshAll re-fetches the list in the background. A network failure keeps
// the previous cached view intact; any other error is surfaced.
func (c *Customer) RefreshAll(ctx context.Context) error {
	_, err := c.Orders(ctx)
	if err != nil && errors.Is(err, models.ErrNetworkFailure) {
		logger.Log.Debug("background refresh failed", zap.Error(err))
		return nil
	}
	return err
}

// Cached returns the cached view of an order, if any.
func (c *Customer) Cached(orderID string) (models.Order, bool) {
	return c.cache.get(orderID)
}

// Cancel cancels a pending order before the shop accepts it.
func (c *Customer) Cancel(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := c.api.UpdateStatus(ctx, orderID, client.StatusUpdate{
		Status: models.OrderStatusCancelled,
		Basis:  c.cache.basis(orderID),
	})
	if err != nil {
		return nil, err
	}
	c.cache.accept(orderID, order)
	return order, nil
}

// SubmitProof submits payment method and proof for a sub-ledger.
func (c *Customer) SubmitProof(ctx context.Context, orderID string, kind models.PaymentKind, method, proofImage string) (*models.Order, error) {
	order, err := c.api.UpdatePayment(ctx, orderID, client.PaymentUpdate{
		Kind:       kind,
		Status:     models.PaymentStatusToConfirm,
		Method:     method,
		ProofImage: proofImage,
	})
	if err != nil {
		return nil, err
	}
	c.cache.accept(orderID, order)
	return order, nil
}
