package models

import "time"

// PaymentStatus is the payment sub-ledger status.
type PaymentStatus string

// payment status
const (
	PaymentStatusUnpaid    PaymentStatus = "UNPAID"
	PaymentStatusToConfirm PaymentStatus = "TO_CONFIRM"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
	PaymentStatusRejected  PaymentStatus = "REJECTED"
)

// PaymentKind identifies one of the two sub-ledgers of an order.
type PaymentKind string

const (
	PaymentKindInvoice  PaymentKind = "invoice"
	PaymentKindDelivery PaymentKind = "delivery"
)

// ValidPaymentKind reports whether kind names an existing sub-ledger.
func ValidPaymentKind(kind PaymentKind) bool {
	return kind == PaymentKindInvoice || kind == PaymentKindDelivery
}

// PaymentLedger is the payment state attached to an order, one instance for
// the laundry fee and one for the delivery fee. A waived ledger never
// transitions and counts as settled.
type PaymentLedger struct {
	Status      PaymentStatus
	Method      string
	ProofImage  string
	Reason      string
	Waived      bool
	ConfirmedAt *time.Time
	UpdatedAt   time.Time
}

// IsSettled reports whether the ledger no longer blocks order completion.
func (p *PaymentLedger) IsSettled() bool {
	return p.Waived || p.Status == PaymentStatusConfirmed
}
