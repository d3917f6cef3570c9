package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/labamart/labamart/internal/middleware"
	"github.com/labamart/labamart/internal/models"
)

// OrderService is the guarded order lifecycle consumed by the handlers
type OrderService interface {
	Create(ctx context.Context, actor models.Role, actorID, customerID, shopID string, dropOff bool) (*models.Order, error)
	Transition(ctx context.Context, actor models.Role, actorID, orderID string,
		to models.OrderStatus, reason, note string, basis models.OrderStatus) (*models.Order, error)
	Quote(ctx context.Context, actor models.Role, actorID, orderID string, total, delivery float64) (*models.Order, error)
	SetProcessStatus(ctx context.Context, actor models.Role, actorID, orderID, step string) (*models.Order, error)
	RecordHandover(ctx context.Context, actor models.Role, actorID, orderID string) (*models.Order, error)
	GetOrder(ctx context.Context, orderID string) (*models.Order, error)
	ListShopOrders(ctx context.Context, shopID string) ([]models.Order, error)
	ListCustomerOrders(ctx context.Context, customerID string) ([]models.Order, error)
}

// OrderHandler represents HTTP handler for order-related requests
type OrderHandler struct {
	svc OrderService
}

// NewOrderHandler creates new OrderHandler instance
func NewOrderHandler(svc OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type createOrderRequest struct {
	ShopID  string `json:"shop_id"`
	DropOff bool   `json:"drop_off"`
}

// CreateOrder places a new order for the authenticated customer
// 201 — заказ создан;
// 400 — неверный формат запроса;
// 401 — пользователь не аутентифицирован;
// 403 — роль не может создавать заказы;
// 500 — внутренняя ошибка сервера.
func (oh *OrderHandler) CreateOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		req := createOrderRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ShopID == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		order, err := oh.svc.Create(r.Context(), payload.Role, payload.UserID, payload.UserID, req.ShopID, req.DropOff)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toOrderResp(order))
	}
}

// ListOrders returns the orders visible to the actor: staff see their shop,
// customers see their own
// 200 — успешная обработка запроса;
// 204 — нет данных для ответа;
// 401 — пользователь не аутентифицирован;
// 500 — внутренняя ошибка сервера.
func (oh *OrderHandler) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var orders []models.Order
		var err error
		if payload.Role == models.RoleStaff {
			shopID := r.URL.Query().Get("shop_id")
			if shopID == "" {
				shopID = payload.ShopID
			}
			orders, err = oh.svc.ListShopOrders(r.Context(), shopID)
		} else {
			orders, err = oh.svc.ListCustomerOrders(r.Context(), payload.UserID)
		}
		if err != nil {
			if err == models.ErrDataNotFound {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			writeError(w, err)
			return
		}

		resp := make([]OrderResp, 0, len(orders))
		for i := range orders {
			resp = append(resp, toOrderResp(&orders[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

// GetOrder returns a single order
func (oh *OrderHandler) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		order, err := oh.svc.GetOrder(r.Context(), orderID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResp(order))
	}
}

type statusUpdateRequest struct {
	Status      string `json:"status"`
	Reason      string `json:"reason,omitempty"`
	Note        string `json:"note,omitempty"`
	BasisStatus string `json:"basis_status,omitempty"`
}

// UpdateOrderStatus applies a guarded status transition
// 200 — переход выполнен;
// 400 — неверный формат запроса;
// 401 — пользователь не аутентифицирован;
// 403 — роль не может выполнить переход;
// 404 — заказ не найден;
// 409 — переход невозможен или заказ закрыт;
// 422 — не указана причина отклонения;
// 500 — внутренняя ошибка сервера.
func (oh *OrderHandler) UpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderID := chi.URLParam(r, "orderID")

		req := statusUpdateRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		order, err := oh.svc.Transition(r.Context(), payload.Role, payload.UserID, orderID,
			models.OrderStatus(req.Status), req.Reason, req.Note, models.OrderStatus(req.BasisStatus))
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResp(order))
	}
}

type quoteRequest struct {
	TotalAmount    float64 `json:"total_amount"`
	DeliveryAmount float64 `json:"delivery_amount"`
}

// UpdateQuote sets the order amounts before any payment is submitted
func (oh *OrderHandler) UpdateQuote() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderID := chi.URLParam(r, "orderID")

		req := quoteRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		order, err := oh.svc.Quote(r.Context(), payload.Role, payload.UserID, orderID, req.TotalAmount, req.DeliveryAmount)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResp(order))
	}
}

type processStepRequest struct {
	Step string `json:"step"`
}

// UpdateProcessStatus records a processing sub-step
func (oh *OrderHandler) UpdateProcessStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderID := chi.URLParam(r, "orderID")

		req := processStepRequest{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Step == "" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		order, err := oh.svc.SetProcessStatus(r.Context(), payload.Role, payload.UserID, orderID, req.Step)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResp(order))
	}
}

// RecordHandover stamps the pickup/delivery and runs the completion check
func (oh *OrderHandler) RecordHandover() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, ok := middleware.AuthPayload(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		orderID := chi.URLParam(r, "orderID")

		order, err := oh.svc.RecordHandover(r.Context(), payload.Role, payload.UserID, orderID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toOrderResp(order))
	}
}
