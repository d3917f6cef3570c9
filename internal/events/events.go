package events

import (
	"time"

	"github.com/labamart/labamart/internal/models"
)

// OrderStatusChangedEvent is published after every successful order status
// transition, including creation (PENDING).
type OrderStatusChangedEvent struct {
	EventID    string             `json:"event_id"`
	OrderID    string             `json:"order_id"`
	CustomerID string             `json:"customer_id"`
	ShopID     string             `json:"shop_id"`
	From       models.OrderStatus `json:"from"`
	To         models.OrderStatus `json:"to"`
	ActorRole  models.Role        `json:"actor_role"`
	Reason     string             `json:"reason,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// PaymentStatusChangedEvent is published after every successful sub-ledger
// transition.
type PaymentStatusChangedEvent struct {
	EventID   string               `json:"event_id"`
	OrderID   string               `json:"order_id"`
	Kind      models.PaymentKind   `json:"kind"`
	From      models.PaymentStatus `json:"from"`
	To        models.PaymentStatus `json:"to"`
	ActorRole models.Role          `json:"actor_role"`
	Timestamp time.Time            `json:"timestamp"`
}
