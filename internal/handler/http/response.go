package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labamart/labamart/internal/models"
)

// errorResponse is the envelope every failed request carries. The client
// maps the code back onto the model error taxonomy.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrInvalidTransition),
		errors.Is(err, models.ErrOrderClosed),
		errors.Is(err, models.ErrConflictData):
		status = http.StatusConflict
	case errors.Is(err, models.ErrMissingProof), errors.Is(err, models.ErrMissingReason):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDataNotFound):
		status = http.StatusNotFound
	default:
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, errorResponse{
		Code:    models.ErrorCode(err),
		Message: err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// PaymentResp is the wire shape of a payment sub-ledger.
type PaymentResp struct {
	Status      string     `json:"status"`
	Method      string     `json:"method,omitempty"`
	ProofImage  string     `json:"proof_image,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Waived      bool       `json:"waived"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
}

// OrderResp is the wire shape of an order.
type OrderResp struct {
	OrderID         string      `json:"order_id"`
	CustomerID      string      `json:"customer_id"`
	ShopID          string      `json:"shop_id"`
	Status          string      `json:"status"`
	ProcessStatus   string      `json:"process_status,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	RejectionNote   string      `json:"rejection_note,omitempty"`
	TotalAmount     float64     `json:"total_amount"`
	DeliveryAmount  float64     `json:"delivery_amount"`
	Invoice         PaymentResp `json:"invoice"`
	DeliveryPayment PaymentResp `json:"delivery_payment"`
	HandoverAt      *time.Time  `json:"handover_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func toPaymentResp(ledger models.PaymentLedger) PaymentResp {
	return PaymentResp{
		Status:      string(ledger.Status),
		Method:      ledger.Method,
		ProofImage:  ledger.ProofImage,
		Reason:      ledger.Reason,
		Waived:      ledger.Waived,
		ConfirmedAt: ledger.ConfirmedAt,
	}
}

func toOrderResp(order *models.Order) OrderResp {
	return OrderResp{
		OrderID:         order.OrderID,
		CustomerID:      order.CustomerID,
		ShopID:          order.ShopID,
		Status:          string(order.Status),
		ProcessStatus:   order.ProcessStatus,
		RejectionReason: order.RejectionReason,
		RejectionNote:   order.RejectionNote,
		TotalAmount:     order.TotalAmount,
		DeliveryAmount:  order.DeliveryAmount,
		Invoice:         toPaymentResp(order.Invoice),
		DeliveryPayment: toPaymentResp(order.DeliveryPayment),
		HandoverAt:      order.HandoverAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
