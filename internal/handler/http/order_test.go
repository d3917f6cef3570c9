package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/labamart/labamart/internal/handler/http/mocks"
	"github.com/labamart/labamart/internal/middleware"
	"github.com/labamart/labamart/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withRouteParam puts a chi URL parameter into the request context the way
// the router does.
func withRouteParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func withAuth(r *http.Request, payload *models.TokenPayload) *http.Request {
	if payload == nil {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), middleware.AuthPayloadKey, payload))
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		token          *models.TokenPayload
		body           string
		setup          func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService
		wantStatusCode int
	}{
		{
			// 201 — заказ создан;
			name:  "valid_request_return_201",
			token: &models.TokenPayload{UserID: "C1", Role: models.RoleCustomer},
			body:  `{"shop_id":"S1","drop_off":true}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Create(gomock.Any(), models.RoleCustomer, "C1", "C1", "S1", true).
					Return(&models.Order{OrderID: "O1", Status: models.OrderStatusPending}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			// 400 — неверный формат запроса;
			name:  "bad_request_return_400",
			token: &models.TokenPayload{UserID: "C1", Role: models.RoleCustomer},
			body:  `{"shop_id":""}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 401 — пользователь не аутентифицирован;
			name: "unauthorized_request_return_401",
			body: `{"shop_id":"S1"}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// 403 — роль не может создавать заказы;
			name:  "staff_cannot_create_return_403",
			token: &models.TokenPayload{UserID: "W1", Role: models.RoleStaff},
			body:  `{"shop_id":"S1"}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrUnauthorized)
				return svcMock
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			// 500 — внутренняя ошибка сервера.
			name:  "internal_error_return_500",
			token: &models.TokenPayload{UserID: "C1", Role: models.RoleCustomer},
			body:  `{"shop_id":"S1"}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrInternalError)
				return svcMock
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(tt.body))
			req = withAuth(req, tt.token)
			w := httptest.NewRecorder()

			h := NewOrderHandler(tt.setup(t, ctrl)).CreateOrder()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}

func TestOrderHandler_ListOrders(t *testing.T) {
	createdAt := time.Now().Truncate(time.Second).UTC()

	tests := []struct {
		name           string
		token          *models.TokenPayload
		target         string
		setup          func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService
		wantStatusCode int
		wantBody       []OrderResp
	}{
		{
			// 200 — успешная обработка запроса.
			name:   "customer_sees_own_orders",
			token:  &models.TokenPayload{UserID: "C1", Role: models.RoleCustomer},
			target: "/api/orders",
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().ListCustomerOrders(gomock.Any(), "C1").Return([]models.Order{
					{
						OrderID:    "O1",
						CustomerID: "C1",
						ShopID:     "S1",
						Status:     models.OrderStatusPending,
						Invoice:    models.PaymentLedger{Status: models.PaymentStatusUnpaid},
						DeliveryPayment: models.PaymentLedger{
							Status: models.PaymentStatusUnpaid,
							Waived: true,
						},
						CreatedAt: createdAt,
						UpdatedAt: createdAt,
					},
				}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantBody: []OrderResp{
				{
					OrderID:         "O1",
					CustomerID:      "C1",
					ShopID:          "S1",
					Status:          "PENDING",
					Invoice:         PaymentResp{Status: "UNPAID"},
					DeliveryPayment: PaymentResp{Status: "UNPAID", Waived: true},
					CreatedAt:       createdAt,
					UpdatedAt:       createdAt,
				},
			},
		},
		{
			name:   "staff_sees_shop_orders",
			token:  &models.TokenPayload{UserID: "W1", Role: models.RoleStaff, ShopID: "S1"},
			target: "/api/orders",
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().ListShopOrders(gomock.Any(), "S1").Return([]models.Order{
					{
						OrderID:    "O2",
						CustomerID: "C2",
						ShopID:     "S1",
						Status:     models.OrderStatusReady,
						CreatedAt:  createdAt,
						UpdatedAt:  createdAt,
					},
				}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
			wantBody: []OrderResp{
				{
					OrderID:    "O2",
					CustomerID: "C2",
					ShopID:     "S1",
					Status:     "READY",
					CreatedAt:  createdAt,
					UpdatedAt:  createdAt,
				},
			},
		},
		{
			name:   "staff_query_overrides_token_shop",
			token:  &models.TokenPayload{UserID: "W1", Role: models.RoleStaff, ShopID: "S1"},
			target: "/api/orders?shop_id=S9",
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().ListShopOrders(gomock.Any(), "S9").Return(nil, models.ErrDataNotFound)
				return svcMock
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			// 204 — нет данных для ответа;
			name:   "no_orders_return_204",
			token:  &models.TokenPayload{UserID: "C1", Role: models.RoleCustomer},
			target: "/api/orders",
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().ListCustomerOrders(gomock.Any(), "C1").Return(nil, models.ErrDataNotFound)
				return svcMock
			},
			wantStatusCode: http.StatusNoContent,
		},
		{
			// 401 — пользователь не аутентифицирован;
			name:   "unauthorized_request_return_401",
			target: "/api/orders",
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				return mocks.NewMockOrderService(ctrl)
			},
			wantStatusCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			req = withAuth(req, tt.token)
			w := httptest.NewRecorder()

			h := NewOrderHandler(tt.setup(t, ctrl)).ListOrders()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			require.Equal(t, tt.wantStatusCode, res.StatusCode)

			if tt.wantBody != nil {
				data, err := io.ReadAll(res.Body)
				require.NoError(t, err)

				var got []OrderResp
				require.NoError(t, json.Unmarshal(data, &got))

				if diff := cmp.Diff(tt.wantBody, got); diff != "" {
					t.Errorf("body mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}

func TestOrderHandler_UpdateOrderStatus(t *testing.T) {
	tests := []struct {
		name           string
		token          *models.TokenPayload
		body           string
		setup          func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService
		wantStatusCode int
	}{
		{
			// 200 — переход выполнен;
			name:  "staff_accepts_return_200",
			token: &models.TokenPayload{UserID: "W1", Role: models.RoleStaff},
			body:  `{"status":"ACCEPTED","basis_status":"PENDING"}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Transition(gomock.Any(), models.RoleStaff, "W1", "O1",
					models.OrderStatusAccepted, "", "", models.OrderStatusPending).
					Return(&models.Order{OrderID: "O1", Status: models.OrderStatusAccepted}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			// 400 — неверный формат запроса;
			name:  "missing_status_return_400",
			token: &models.TokenPayload{UserID: "W1", Role: models.RoleStaff},
			body:  `{}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
					gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
				return svcMock
			},
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// 403 — роль не может выполнить переход;
			name:  "customer_cannot_accept_return_403",
			token: &models.TokenPayload{UserID: "C1", Role: models.RoleCustomer},
			body:  `{"status":"ACCEPTED"}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
					gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrUnauthorized)
				return svcMock
			},
			wantStatusCode: http.StatusForbidden,
		},
		{
			// 404 — заказ не найден;
			name:  "unknown_order_return_404",
			token: &models.TokenPayload{UserID: "W1", Role: models.RoleStaff},
			body:  `{"status":"ACCEPTED"}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
					gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrDataNotFound)
				return svcMock
			},
			wantStatusCode: http.StatusNotFound,
		},
		{
			// 409 — переход невозможен;
			name:  "invalid_transition_return_409",
			token: &models.TokenPayload{UserID: "W1", Role: models.RoleStaff},
			body:  `{"status":"COMPLETED"}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
					gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.NewTransitionError("PENDING", "COMPLETED"))
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			// 409 — заказ закрыт;
			name:  "closed_order_return_409",
			token: &models.TokenPayload{UserID: "W1", Role: models.RoleStaff},
			body:  `{"status":"ACCEPTED"}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
					gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrOrderClosed)
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
		{
			// 422 — не указана причина отклонения;
			name:  "rejection_without_reason_return_422",
			token: &models.TokenPayload{UserID: "W1", Role: models.RoleStaff},
			body:  `{"status":"REJECTED"}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
					gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrMissingReason)
				return svcMock
			},
			wantStatusCode: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			req := httptest.NewRequest(http.MethodPatch, "/api/orders/O1/status", strings.NewReader(tt.body))
			req = withAuth(req, tt.token)
			req = withRouteParam(req, "orderID", "O1")
			w := httptest.NewRecorder()

			h := NewOrderHandler(tt.setup(t, ctrl)).UpdateOrderStatus()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}

func TestOrderHandler_UpdateOrderStatus_ErrorEnvelope(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svcMock := mocks.NewMockOrderService(ctrl)
	svcMock.EXPECT().Transition(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(),
		gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, models.NewTransitionError("READY", "ACCEPTED"))

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/O1/status", strings.NewReader(`{"status":"ACCEPTED"}`))
	req = withAuth(req, &models.TokenPayload{UserID: "W1", Role: models.RoleStaff})
	req = withRouteParam(req, "orderID", "O1")
	w := httptest.NewRecorder()

	h := NewOrderHandler(svcMock).UpdateOrderStatus()
	h(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	var envelope errorResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&envelope))
	assert.Equal(t, models.CodeInvalidTransition, envelope.Code)
	assert.Contains(t, envelope.Message, "READY")
	assert.Contains(t, envelope.Message, "ACCEPTED")
}

func TestOrderHandler_UpdateQuote(t *testing.T) {
	tests := []struct {
		name           string
		token          *models.TokenPayload
		body           string
		setup          func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService
		wantStatusCode int
	}{
		{
			name:  "staff_sets_amounts_return_200",
			token: &models.TokenPayload{UserID: "W1", Role: models.RoleStaff},
			body:  `{"total_amount":150,"delivery_amount":20}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Quote(gomock.Any(), models.RoleStaff, "W1", "O1", 150.0, 20.0).
					Return(&models.Order{OrderID: "O1", TotalAmount: 150, DeliveryAmount: 20}, nil)
				return svcMock
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:  "amounts_frozen_return_409",
			token: &models.TokenPayload{UserID: "W1", Role: models.RoleStaff},
			body:  `{"total_amount":150,"delivery_amount":20}`,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderService {
				svcMock := mocks.NewMockOrderService(ctrl)
				svcMock.EXPECT().Quote(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, models.ErrConflictData)
				return svcMock
			},
			wantStatusCode: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			req := httptest.NewRequest(http.MethodPatch, "/api/orders/O1/quote", strings.NewReader(tt.body))
			req = withAuth(req, tt.token)
			req = withRouteParam(req, "orderID", "O1")
			w := httptest.NewRecorder()

			h := NewOrderHandler(tt.setup(t, ctrl)).UpdateQuote()
			h(w, req)

			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tt.wantStatusCode, res.StatusCode)
		})
	}
}

func TestOrderHandler_RecordHandover(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handoverAt := time.Now().UTC()
	svcMock := mocks.NewMockOrderService(ctrl)
	svcMock.EXPECT().RecordHandover(gomock.Any(), models.RoleStaff, "W1", "O1").
		Return(&models.Order{OrderID: "O1", Status: models.OrderStatusCompleted, HandoverAt: &handoverAt}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/orders/O1/handover", nil)
	req = withAuth(req, &models.TokenPayload{UserID: "W1", Role: models.RoleStaff})
	req = withRouteParam(req, "orderID", "O1")
	w := httptest.NewRecorder()

	h := NewOrderHandler(svcMock).RecordHandover()
	h(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got OrderResp
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "COMPLETED", got.Status)
	require.NotNil(t, got.HandoverAt)
}

func TestOrderHandler_UpdateProcessStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svcMock := mocks.NewMockOrderService(ctrl)
	svcMock.EXPECT().SetProcessStatus(gomock.Any(), models.RoleStaff, "W1", "O1", "Washing").
		Return(&models.Order{OrderID: "O1", Status: models.OrderStatusProcessing, ProcessStatus: "Washing"}, nil)

	req := httptest.NewRequest(http.MethodPatch, "/api/orders/O1/process", strings.NewReader(`{"step":"Washing"}`))
	req = withAuth(req, &models.TokenPayload{UserID: "W1", Role: models.RoleStaff})
	req = withRouteParam(req, "orderID", "O1")
	w := httptest.NewRecorder()

	h := NewOrderHandler(svcMock).UpdateProcessStatus()
	h(w, req)

	res := w.Result()
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got OrderResp
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, "Washing", got.ProcessStatus)
}
