package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labamart/labamart/internal/events"
	"github.com/labamart/labamart/internal/guard"
	"github.com/labamart/labamart/internal/logger"
	"github.com/labamart/labamart/internal/models"
	"go.uber.org/zap"
)

// OrderRepository is interface for interacting with order-related data
type OrderRepository interface {
	// CreateOrder inserts a new order together with both sub-ledgers
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	// GetOrderByID returns an order with both sub-ledgers attached
	GetOrderByID(ctx context.Context, orderID string) (*models.Order, error)
	// GetOrdersByShopID returns shop orders, newest first
	GetOrdersByShopID(ctx context.Context, shopID string) ([]models.Order, error)
	// GetOrdersByCustomerID returns customer orders, newest first
	GetOrdersByCustomerID(ctx context.Context, customerID string) ([]models.Order, error)
	// GetReadyOrders returns completion sweep candidates
	GetReadyOrders(ctx context.Context) ([]models.Order, error)
	// UpdateOrderStatusCAS writes the status with a compare-and-set on the pre-transition status
	UpdateOrderStatusCAS(ctx context.Context, order models.Order, from models.OrderStatus) (bool, error)
	// UpdateProcessStatus records a processing sub-step
	UpdateProcessStatus(ctx context.Context, orderID, step string, at time.Time) (bool, error)
	// UpdateHandover stamps the handover time
	UpdateHandover(ctx context.Context, orderID string, at time.Time) (bool, error)
	// UpdateQuote sets the order amounts while both sub-ledgers are UNPAID
	UpdateQuote(ctx context.Context, orderID string, total, delivery float64, at time.Time) (bool, error)
}

// EventPublisher publishes order and payment change events
type EventPublisher interface {
	PublishOrderStatusChanged(ctx context.Context, ev events.OrderStatusChangedEvent) error
	PublishPaymentStatusChanged(ctx context.Context, ev events.PaymentStatusChangedEvent) error
}

// OrderService implements the guarded order lifecycle
type OrderService struct {
	repo  OrderRepository
	guard *guard.Guard
	pub   EventPublisher
}

// NewOrderService creates new OrderService instance
func NewOrderService(repo OrderRepository, g *guard.Guard, pub EventPublisher) *OrderService {
	return &OrderService{
		repo:  repo,
		guard: g,
		pub:   pub,
	}
}

func newOrderID() string {
	return "O" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}

// Create places a new PENDING order for the customer. A drop-off order gets
// a waived delivery sub-ledger.
func (os *OrderService) Create(ctx context.Context, actor models.Role, actorID, customerID, shopID string, dropOff bool) (*models.Order, error) {
	if actor != models.RoleCustomer {
		return nil, models.ErrUnauthorized
	}
	if customerID == "" || shopID == "" {
		return nil, models.ErrConflictData
	}

	now := time.Now()
	order := &models.Order{
		OrderID:    newOrderID(),
		CustomerID: customerID,
		ShopID:     shopID,
		Status:     models.OrderStatusPending,
		Invoice: models.PaymentLedger{
			Status:    models.PaymentStatusUnpaid,
			UpdatedAt: now,
		},
		DeliveryPayment: models.PaymentLedger{
			Status:    models.PaymentStatusUnpaid,
			Waived:    dropOff,
			UpdatedAt: now,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	order, err := os.repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	logger.Log.Info("order created",
		zap.String("order", order.OrderID),
		zap.String("actor", actorID),
		zap.String("role", string(actor)))

	os.publishStatus(ctx, order, "", models.OrderStatusPending, actor, "")

	return order, nil
}

// Transition applies a requested order status change through the guard and
// writes it with a compare-and-set on the status the request was based on.
func (os *OrderService) Transition(ctx context.Context, actor models.Role, actorID, orderID string,
	to models.OrderStatus, reason, note string, basis models.OrderStatus) (*models.Order, error) {

	order, err := os.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	// fence stale requests: the caller echoes the status its view was based on
	if basis != "" && basis != order.Status {
		return nil, os.classify(order, string(to))
	}

	from := order.Status
	next := *order
	if err := os.guard.OrderTransition(actor, &next, to, reason, note, time.Now()); err != nil {
		return nil, err
	}

	ok, err := os.repo.UpdateOrderStatusCAS(ctx, next, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		// lost the race: another transition landed first
		return nil, os.reclassify(ctx, orderID, string(to))
	}

	logger.Log.Info("order status updated",
		zap.String("order", orderID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor", actorID),
		zap.String("role", string(actor)))

	os.publishStatus(ctx, &next, from, to, actor, reason)

	return &next, nil
}

// Quote sets the order amounts. Fails once a sub-ledger has left UNPAID.
func (os *OrderService) Quote(ctx context.Context, actor models.Role, actorID, orderID string, total, delivery float64) (*models.Order, error) {
	order, err := os.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := *order
	if err := os.guard.Quote(actor, &next, total, delivery, time.Now()); err != nil {
		return nil, err
	}

	ok, err := os.repo.UpdateQuote(ctx, orderID, total, delivery, next.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		cur, err := os.repo.GetOrderByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if cur.IsTerminal() {
			return nil, models.ErrOrderClosed
		}
		return nil, models.ErrConflictData
	}

	logger.Log.Info("order quoted",
		zap.String("order", orderID),
		zap.Float64("total", total),
		zap.Float64("delivery", delivery),
		zap.String("actor", actorID))

	return &next, nil
}

// SetProcessStatus records a processing sub-step while the order is PROCESSING.
func (os *OrderService) SetProcessStatus(ctx context.Context, actor models.Role, actorID, orderID, step string) (*models.Order, error) {
	order, err := os.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := *order
	if err := os.guard.SetProcessStatus(actor, &next, step, time.Now()); err != nil {
		return nil, err
	}

	ok, err := os.repo.UpdateProcessStatus(ctx, orderID, step, next.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, os.reclassify(ctx, orderID, string(models.OrderStatusProcessing))
	}

	logger.Log.Info("order processing step updated",
		zap.String("order", orderID),
		zap.String("step", step),
		zap.String("actor", actorID))

	return &next, nil
}

// RecordHandover stamps the pickup/delivery time on a READY order, then runs
// the completion check. An order with a pending sub-ledger stays READY.
func (os *OrderService) RecordHandover(ctx context.Context, actor models.Role, actorID, orderID string) (*models.Order, error) {
	order, err := os.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next := *order
	if err := os.guard.RecordHandover(actor, &next, time.Now()); err != nil {
		return nil, err
	}

	ok, err := os.repo.UpdateHandover(ctx, orderID, *next.HandoverAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, os.reclassify(ctx, orderID, string(models.OrderStatusReady))
	}

	logger.Log.Info("order handover recorded",
		zap.String("order", orderID),
		zap.String("actor", actorID))

	completed, err := os.TryComplete(ctx, actor, orderID)
	if err != nil {
		if errors.Is(err, models.ErrInvalidTransition) {
			// payments still pending, the sweep will pick it up later
			logger.Log.Debug("order not yet settled", zap.String("order", orderID))
			return &next, nil
		}
		return nil, err
	}

	return completed, nil
}

// TryComplete derives the READY -> COMPLETED transition when the handover is
// recorded and both sub-ledgers are confirmed or waived.
func (os *OrderService) TryComplete(ctx context.Context, actor models.Role, orderID string) (*models.Order, error) {
	order, err := os.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	next := *order
	if err := os.guard.CompleteIfSettled(actor, &next, time.Now()); err != nil {
		return nil, err
	}

	ok, err := os.repo.UpdateOrderStatusCAS(ctx, next, from)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, os.reclassify(ctx, orderID, string(models.OrderStatusCompleted))
	}

	logger.Log.Info("order completed",
		zap.String("order", orderID),
		zap.String("role", string(actor)))

	os.publishStatus(ctx, &next, from, models.OrderStatusCompleted, actor, "")

	return &next, nil
}

// GetOrder returns a single order.
func (os *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return os.repo.GetOrderByID(ctx, orderID)
}

// ListShopOrders returns orders of a shop.
func (os *OrderService) ListShopOrders(ctx context.Context, shopID string) ([]models.Order, error) {
	orders, err := os.repo.GetOrdersByShopID(ctx, shopID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, models.ErrDataNotFound
	}
	return orders, nil
}

// ListCustomerOrders returns orders of a customer.
func (os *OrderService) ListCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error) {
	orders, err := os.repo.GetOrdersByCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, models.ErrDataNotFound
	}
	return orders, nil
}

// ReadyOrders returns completion sweep candidates.
func (os *OrderService) ReadyOrders(ctx context.Context) ([]models.Order, error) {
	return os.repo.GetReadyOrders(ctx)
}

// classify maps a failed transition on a known order onto the error taxonomy.
func (os *OrderService) classify(order *models.Order, to string) error {
	if order.IsTerminal() {
		return models.ErrOrderClosed
	}
	return models.NewTransitionError(string(order.Status), to)
}

// reclassify re-reads the order after a CAS miss to report what actually won.
func (os *OrderService) reclassify(ctx context.Context, orderID, to string) error {
	cur, err := os.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}
	return os.classify(cur, to)
}

func (os *OrderService) publishStatus(ctx context.Context, order *models.Order, from, to models.OrderStatus, actor models.Role, reason string) {
	if os.pub == nil {
		return
	}

	ev := events.OrderStatusChangedEvent{
		EventID:    uuid.NewString(),
		OrderID:    order.OrderID,
		CustomerID: order.CustomerID,
		ShopID:     order.ShopID,
		From:       from,
		To:         to,
		ActorRole:  actor,
		Reason:     reason,
		Timestamp:  time.Now(),
	}

	// best effort, readers re-fetch from the backend of record anyway
	if err := os.pub.PublishOrderStatusChanged(ctx, ev); err != nil {
		logger.Log.Error("publish order status event", zap.String("order", order.OrderID), zap.Error(err))
	}
}
