package surface

import (
	"context"
	"sync"

	"github.com/labamart/labamart/internal/client"
	"github.com/labamart/labamart/internal/models"
)

// OrderAPI is the order repository client both action surfaces call. No
// business logic lives behind this interface on the client side; the backend
// of record decides every transition.
type OrderAPI interface {
	CreateOrder(ctx context.Context, shopID string, dropOff bool) (*models.Order, error)
	ListOrders(ctx context.Context, shopID string) ([]models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, upd client.StatusUpdate) (*models.Order, error)
	UpdatePayment(ctx context.Context, orderID string, upd client.PaymentUpdate) (*models.Order, error)
	UpdateQuote(ctx context.Context, orderID string, total, delivery float64) (*models.Order, error)
	UpdateProcessStep(ctx context.Context, orderID, step string) (*models.Order, error)
	RecordHandover(ctx context.Context, orderID string) (*models.Order, error)
}

// orderCache is the in-memory read cache behind a surface. It is never a
// source of truth: entries are replaced only by responses from the backend,
// and a response for a different order id than requested is dropped so a
// late reply cannot corrupt a newer entry.
type orderCache struct {
	mu     sync.RWMutex
	orders map[string]models.Order
}

func newOrderCache() *orderCache {
	return &orderCache{orders: make(map[string]models.Order)}
}

func (c *orderCache) get(orderID string) (models.Order, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	order, ok := c.orders[orderID]
	return order, ok
}

// accept stores a response fetched for requestedID. Mismatched responses are
// dropped.
func (c *orderCache) accept(requestedID string, order *models.Order) {
	if order == nil || order.OrderID != requestedID {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders[order.OrderID] = *order
}

func (c *orderCache) acceptAll(orders []models.Order) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, order := range orders {
		c.orders[order.OrderID] = order
	}
}

// basis returns the cached status a mutation request is based on, so the
// backend can fence the request if the view is stale.
func (c *orderCache) basis(orderID string) models.OrderStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if order, ok := c.orders[orderID]; ok {
		return order.Status
	}
	return ""
}
