package repository

import (
	"context"

	"github.com/labamart/labamart/internal/models"
	"github.com/labamart/labamart/internal/repository/postgres"
)

const (
	updatePaymentQuery = `
						UPDATE payments
						SET status = $1, method = $2, proof_image = $3, reason = $4, confirmed_at = $5, updated_at = $6
						WHERE order_id = $7 AND kind = $8 AND status = $9 AND NOT waived
						  AND EXISTS (SELECT 1 FROM orders WHERE id = $7 AND status = $10)
`
)

// PaymentRepository persists payment sub-ledger transitions.
type PaymentRepository struct {
	db *postgres.DB
}

// NewPaymentRepository creates new PaymentRepository instance
func NewPaymentRepository(db *postgres.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// UpdatePaymentCAS writes the ledger with a compare-and-set on both the
// pre-transition ledger status and the order status the request was based
// on. A stale request matches zero rows and reports false.
func (pr *PaymentRepository) UpdatePaymentCAS(ctx context.Context, orderID string, kind models.PaymentKind,
	ledger models.PaymentLedger, from models.PaymentStatus, orderStatus models.OrderStatus) (bool, error) {

	cmd, err := pr.db.Exec(ctx, updatePaymentQuery,
		ledger.Status, ledger.Method, ledger.ProofImage, ledger.Reason, ledger.ConfirmedAt, ledger.UpdatedAt,
		orderID, kind, from, orderStatus)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
