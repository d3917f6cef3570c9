package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labamart/labamart/internal/models"
	"github.com/labamart/labamart/internal/repository/postgres"
)

const pgErrUniqueViolationCode = "23505"

const (
	insertOrderQuery = `
						INSERT INTO orders (id, customer_id, shop_id, status, created_at, updated_at)
						VALUES ($1, $2, $3, $4, $5, $5)
`
	insertPaymentQuery = `
						INSERT INTO payments (order_id, kind, status, waived, updated_at)
						VALUES ($1, $2, $3, $4, $5)
`
	selectOrderColumns = `
						SELECT id, customer_id, shop_id, status, process_status, rejection_reason, rejection_note,
						       total_amount, delivery_amount, handover_at, created_at, updated_at
						FROM orders
`
	selectOrderByIDQuery = selectOrderColumns + `
						WHERE id = $1
`
	selectOrdersByShopQuery = selectOrderColumns + `
						WHERE shop_id = $1
						ORDER BY created_at DESC
`
	selectOrdersByCustomerQuery = selectOrderColumns + `
						WHERE customer_id = $1
						ORDER BY created_at DESC
`
	selectReadyOrdersQuery = selectOrderColumns + `
						WHERE status = 'READY' AND handover_at IS NOT NULL
`
	selectPaymentsQuery = `
						SELECT order_id, kind, status, method, proof_image, reason, waived, confirmed_at, updated_at
						FROM payments
						WHERE order_id = ANY($1)
`
	updateOrderStatusQuery = `
						UPDATE orders
						SET status = $1, rejection_reason = $2, rejection_note = $3, updated_at = $4
						WHERE id = $5 AND status = $6
`
	updateProcessStatusQuery = `
						UPDATE orders
						SET process_status = $1, updated_at = $2
						WHERE id = $3 AND status = 'PROCESSING'
`
	updateHandoverQuery = `
						UPDATE orders
						SET handover_at = $1, updated_at = $1
						WHERE id = $2 AND status = 'READY'
`
	updateQuoteQuery = `
						UPDATE orders
						SET total_amount = $1, delivery_amount = $2, updated_at = $3
						WHERE id = $4
						  AND status NOT IN ('COMPLETED', 'REJECTED', 'CANCELLED')
						  AND NOT EXISTS (SELECT 1 FROM payments
						                  WHERE order_id = $4 AND NOT waived AND status <> 'UNPAID')
`
)

// OrderRepository persists orders and their payment sub-ledgers.
type OrderRepository struct {
	db *postgres.DB
}

// NewOrderRepository creates new OrderRepository instance
func NewOrderRepository(db *postgres.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// CreateOrder inserts a new order together with both sub-ledgers in one
// transaction.
func (or *OrderRepository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	tx, err := or.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, insertOrderQuery,
		order.OrderID, order.CustomerID, order.ShopID, order.Status, order.CreatedAt)
	if err != nil {
		if errCode := or.db.ErrorCode(err); errCode == pgErrUniqueViolationCode {
			return nil, models.ErrConflictData
		}
		return nil, err
	}

	ledgers := []struct {
		kind   models.PaymentKind
		ledger models.PaymentLedger
	}{
		{models.PaymentKindInvoice, order.Invoice},
		{models.PaymentKindDelivery, order.DeliveryPayment},
	}
	for _, l := range ledgers {
		_, err = tx.Exec(ctx, insertPaymentQuery,
			order.OrderID, l.kind, l.ledger.Status, l.ledger.Waived, order.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrderByID returns an order with both sub-ledgers attached.
func (or *OrderRepository) GetOrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	order := models.Order{}
	err := or.db.QueryRow(ctx, selectOrderByIDQuery, orderID).Scan(
		&order.OrderID, &order.CustomerID, &order.ShopID, &order.Status, &order.ProcessStatus,
		&order.RejectionReason, &order.RejectionNote, &order.TotalAmount, &order.DeliveryAmount,
		&order.HandoverAt, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrDataNotFound
		}
		return nil, err
	}

	orders := []models.Order{order}
	if err := or.attachPayments(ctx, orders); err != nil {
		return nil, err
	}

	return &orders[0], nil
}

// GetOrdersByShopID returns shop orders, newest first.
func (or *OrderRepository) GetOrdersByShopID(ctx context.Context, shopID string) ([]models.Order, error) {
	return or.list(ctx, selectOrdersByShopQuery, shopID)
}

// GetOrdersByCustomerID returns customer orders, newest first.
func (or *OrderRepository) GetOrdersByCustomerID(ctx context.Context, customerID string) ([]models.Order, error) {
	return or.list(ctx, selectOrdersByCustomerQuery, customerID)
}

// GetReadyOrders returns READY orders with a recorded handover, the
// candidates for the completion sweep.
func (or *OrderRepository) GetReadyOrders(ctx context.Context) ([]models.Order, error) {
	return or.list(ctx, selectReadyOrdersQuery)
}

func (or *OrderRepository) list(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := or.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []models.Order{}

	for rows.Next() {
		order := models.Order{}
		err = rows.Scan(
			&order.OrderID, &order.CustomerID, &order.ShopID, &order.Status, &order.ProcessStatus,
			&order.RejectionReason, &order.RejectionNote, &order.TotalAmount, &order.DeliveryAmount,
			&order.HandoverAt, &order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			continue
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := or.attachPayments(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (or *OrderRepository) attachPayments(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, 0, len(orders))
	index := make(map[string]*models.Order, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].OrderID)
		index[orders[i].OrderID] = &orders[i]
	}

	rows, err := or.db.Query(ctx, selectPaymentsQuery, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var orderID string
		var kind models.PaymentKind
		ledger := models.PaymentLedger{}
		err = rows.Scan(&orderID, &kind, &ledger.Status, &ledger.Method, &ledger.ProofImage,
			&ledger.Reason, &ledger.Waived, &ledger.ConfirmedAt, &ledger.UpdatedAt)
		if err != nil {
			continue
		}
		if order, ok := index[orderID]; ok {
			*order.Ledger(kind) = ledger
		}
	}

	return rows.Err()
}

// UpdateOrderStatusCAS writes the new status with a compare-and-set on the
// pre-transition status. It reports false when the expected status no longer
// matches, which is how concurrent transition requests on one order are
// serialized: the loser matches zero rows.
func (or *OrderRepository) UpdateOrderStatusCAS(ctx context.Context, order models.Order, from models.OrderStatus) (bool, error) {
	cmd, err := or.db.Exec(ctx, updateOrderStatusQuery,
		order.Status, order.RejectionReason, order.RejectionNote, order.UpdatedAt,
		order.OrderID, from)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// UpdateProcessStatus records a processing sub-step while the order is still
// PROCESSING.
func (or *OrderRepository) UpdateProcessStatus(ctx context.Context, orderID, step string, at time.Time) (bool, error) {
	cmd, err := or.db.Exec(ctx, updateProcessStatusQuery, step, at, orderID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// UpdateHandover stamps the handover time while the order is still READY.
func (or *OrderRepository) UpdateHandover(ctx context.Context, orderID string, at time.Time) (bool, error) {
	cmd, err := or.db.Exec(ctx, updateHandoverQuery, at, orderID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// UpdateQuote sets the order amounts unless a sub-ledger has already left
// UNPAID or the order is terminal.
func (or *OrderRepository) UpdateQuote(ctx context.Context, orderID string, total, delivery float64, at time.Time) (bool, error) {
	cmd, err := or.db.Exec(ctx, updateQuoteQuery, total, delivery, at, orderID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
