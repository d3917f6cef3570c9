package models

import "time"

//PENDING — заказ создан клиентом и ждёт решения прачечной;
//ACCEPTED — прачечная приняла заказ;
//PROCESSING — бельё в обработке;
//READY — заказ готов к выдаче или доставке;
//COMPLETED — заказ выдан и обе оплаты подтверждены;
//REJECTED — прачечная отклонила заказ;
//CANCELLED — клиент отменил заказ до принятия.

// OrderStatus is the order lifecycle status.
type OrderStatus string

// order status
const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusAccepted   OrderStatus = "ACCEPTED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusReady      OrderStatus = "READY"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusRejected   OrderStatus = "REJECTED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// Order is order entity
type Order struct {
	OrderID         string
	CustomerID      string
	ShopID          string
	Status          OrderStatus
	ProcessStatus   string
	RejectionReason string
	RejectionNote   string
	TotalAmount     float64
	DeliveryAmount  float64
	Invoice         PaymentLedger
	DeliveryPayment PaymentLedger
	HandoverAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal reports whether no further transition is permitted on the order.
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderStatusCompleted, OrderStatusRejected, OrderStatusCancelled:
		return true
	}
	return false
}

// Ledger returns the payment sub-ledger of the given kind.
func (o *Order) Ledger(kind PaymentKind) *PaymentLedger {
	if kind == PaymentKindDelivery {
		return &o.DeliveryPayment
	}
	return &o.Invoice
}
