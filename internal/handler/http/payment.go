package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/labamart/labamart/internal/middleware"
	"github.com/labamart/labamart/internal/models"
)

// PaymentService is the guarded payment sub-ledger lifecycle consumed by the
// handlers
type PaymentService interface {
	SubmitProof(ctx context.Context, actor models.Role, actorID, orderID string,
		kind models.PaymentKind, method, proofImage string) (*models.Order, error)
	Confirm(ctx context.Context, actor models.Role, actorID, orderID string,
		kind models.PaymentKind) (*models.Order, error)
	Reject(ctx context.Context, actor models.Role, actorID, orderID string,
		kind models.PaymentKind, reason string) (*models.Order, error)
}

// PaymentHandler represents HTTP handler for payment-related requests
type PaymentHandler struct {
	svc PaymentService
}

// NewPaymentHandler creates new PaymentHandler instance
func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

type paymentUpdateRequest struct {
	Ledger     string `json:"ledger"`
	Status     string `json:"status"`
	Method     string `json:"method,omitempty"`
	ProofImage string `json:"proof_image,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// UpdatePayment applies a guarded sub-ledger transition: proof submission by
// the customer, confirmation or rejection by staff
// 200 — переход выполнен;
// 400 — неверный формат запроса;
// 401 — пользователь не аутентифицирован;
// 403 — роль не может выполнить переход;
// 404 — заказ не найден;
// 409 — переход невозможен или заказ закрыт;
// 422 — не хватает способа оплаты, подтверждения или причины;
// 500 — внутренняя ошибка сервера.
func (ph *PaymentHandler) UpdatePayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderID := chi.URLParam(r, "orderID")

		req := paymentUpdateRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		kind := models.PaymentKind(req.Ledger)
		if !models.ValidPaymentKind(kind) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		var order *models.Order
		var err error
		switch models.PaymentStatus(req.Status) {
		case models.PaymentStatusToConfirm:
			order, err = ph.svc.SubmitProof(r.Context(), payload.Role, payload.UserID, orderID, kind, req.Method, req.ProofImage)
		case models.PaymentStatusConfirmed:
			order, err = ph.svc.Confirm(r.Context(), payload.Role, payload.UserID, orderID, kind)
		case models.PaymentStatusRejected:
			order, err = ph.svc.Reject(r.Context(), payload.Role, payload.UserID, orderID, kind, req.Reason)
		default:
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResp(order))
	}
}
