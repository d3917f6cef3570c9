package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/labamart/labamart/internal/guard"
	"github.com/labamart/labamart/internal/models"
	"github.com/labamart/labamart/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderService_Create(t *testing.T) {
	tests := []struct {
		name    string
		actor   models.Role
		shopID  string
		dropOff bool
		setup   func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderRepository
		wantErr error
	}{
		{
			name:   "customer_creates_pending_order",
			actor:  models.RoleCustomer,
			shopID: "S1",
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderRepository {
				repoMock := mocks.NewMockOrderRepository(ctrl)
				repoMock.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *models.Order) (*models.Order, error) {
						assert.Equal(t, models.OrderStatusPending, order.Status)
						assert.Equal(t, models.PaymentStatusUnpaid, order.Invoice.Status)
						assert.Equal(t, models.PaymentStatusUnpaid, order.DeliveryPayment.Status)
						assert.False(t, order.DeliveryPayment.Waived)
						assert.NotEmpty(t, order.OrderID)
						return order, nil
					}).Times(1)
				return repoMock
			},
		},
		{
			name:    "drop_off_waives_delivery_ledger",
			actor:   models.RoleCustomer,
			shopID:  "S1",
			dropOff: true,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderRepository {
				repoMock := mocks.NewMockOrderRepository(ctrl)
				repoMock.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, order *models.Order) (*models.Order, error) {
						assert.True(t, order.DeliveryPayment.Waived)
						assert.True(t, order.DeliveryPayment.IsSettled())
						return order, nil
					}).Times(1)
				return repoMock
			},
		},
		{
			name:   "staff_cannot_create",
			actor:  models.RoleStaff,
			shopID: "S1",
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderRepository {
				repoMock := mocks.NewMockOrderRepository(ctrl)
				repoMock.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Times(0)
				return repoMock
			},
			wantErr: models.ErrUnauthorized,
		},
		{
			name:  "missing_shop",
			actor: models.RoleCustomer,
			setup: func(t *testing.T, ctrl *gomock.Controller) *mocks.MockOrderRepository {
				repoMock := mocks.NewMockOrderRepository(ctrl)
				repoMock.EXPECT().CreateOrder(gomock.Any(), gomock.Any()).Times(0)
				return repoMock
			},
			wantErr: models.ErrConflictData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewOrderService(tt.setup(t, ctrl), guard.New(), nil)

			order, err := svc.Create(context.Background(), tt.actor, "C1", "C1", tt.shopID, tt.dropOff)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, order)
			} else {
				require.NoError(t, err)
				require.NotNil(t, order)
			}
		})
	}
}

func TestOrderService_Transition(t *testing.T) {
	pending := models.Order{
		OrderID:         "O1",
		CustomerID:      "C1",
		ShopID:          "S1",
		Status:          models.OrderStatusPending,
		Invoice:         models.PaymentLedger{Status: models.PaymentStatusUnpaid},
		DeliveryPayment: models.PaymentLedger{Status: models.PaymentStatusUnpaid},
	}

	t.Run("staff_accepts_pending_order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repoMock := mocks.NewMockOrderRepository(ctrl)
		order := pending
		repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&order, nil)
		repoMock.EXPECT().UpdateOrderStatusCAS(gomock.Any(), gomock.Any(), models.OrderStatusPending).DoAndReturn(
			func(_ context.Context, next models.Order, _ models.OrderStatus) (bool, error) {
				assert.Equal(t, models.OrderStatusAccepted, next.Status)
				return true, nil
			})

		svc := NewOrderService(repoMock, guard.New(), nil)

		got, err := svc.Transition(context.Background(), models.RoleStaff, "W1", "O1",
			models.OrderStatusAccepted, "", "", models.OrderStatusPending)
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusAccepted, got.Status)
	})

	t.Run("stale_basis_is_fenced", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repoMock := mocks.NewMockOrderRepository(ctrl)
		order := pending
		order.Status = models.OrderStatusCancelled
		repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&order, nil)
		repoMock.EXPECT().UpdateOrderStatusCAS(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		svc := NewOrderService(repoMock, guard.New(), nil)

		// staff accepts based on a view where the order was still PENDING,
		// but the customer's cancellation already landed
		_, err := svc.Transition(context.Background(), models.RoleStaff, "W1", "O1",
			models.OrderStatusAccepted, "", "", models.OrderStatusPending)
		assert.ErrorIs(t, err, models.ErrOrderClosed)
	})

	t.Run("cas_miss_against_terminal_winner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repoMock := mocks.NewMockOrderRepository(ctrl)
		order := pending
		cancelled := pending
		cancelled.Status = models.OrderStatusCancelled
		gomock.InOrder(
			repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&order, nil),
			repoMock.EXPECT().UpdateOrderStatusCAS(gomock.Any(), gomock.Any(), models.OrderStatusPending).Return(false, nil),
			repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&cancelled, nil),
		)

		svc := NewOrderService(repoMock, guard.New(), nil)

		_, err := svc.Transition(context.Background(), models.RoleStaff, "W1", "O1",
			models.OrderStatusAccepted, "", "", "")
		assert.ErrorIs(t, err, models.ErrOrderClosed)
	})

	t.Run("cas_miss_against_live_winner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repoMock := mocks.NewMockOrderRepository(ctrl)
		order := pending
		accepted := pending
		accepted.Status = models.OrderStatusAccepted
		gomock.InOrder(
			repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&order, nil),
			repoMock.EXPECT().UpdateOrderStatusCAS(gomock.Any(), gomock.Any(), models.OrderStatusPending).Return(false, nil),
			repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&accepted, nil),
		)

		svc := NewOrderService(repoMock, guard.New(), nil)

		_, err := svc.Transition(context.Background(), models.RoleCustomer, "C1", "O1",
			models.OrderStatusCancelled, "", "", "")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})

	t.Run("guard_failure_skips_write", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repoMock := mocks.NewMockOrderRepository(ctrl)
		order := pending
		repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&order, nil)
		repoMock.EXPECT().UpdateOrderStatusCAS(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		svc := NewOrderService(repoMock, guard.New(), nil)

		_, err := svc.Transition(context.Background(), models.RoleCustomer, "C1", "O1",
			models.OrderStatusAccepted, "", "", "")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}

func TestOrderService_RecordHandover(t *testing.T) {
	confirmed := time.Now().Add(-time.Hour)
	settled := models.PaymentLedger{Status: models.PaymentStatusConfirmed, ConfirmedAt: &confirmed}

	t.Run("settled_order_completes_on_handover", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		ready := models.Order{
			OrderID:         "O1",
			Status:          models.OrderStatusReady,
			Invoice:         settled,
			DeliveryPayment: settled,
		}
		handedOver := ready
		now := time.Now()
		handedOver.HandoverAt = &now

		repoMock := mocks.NewMockOrderRepository(ctrl)
		gomock.InOrder(
			repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&ready, nil),
			repoMock.EXPECT().UpdateHandover(gomock.Any(), "O1", gomock.Any()).Return(true, nil),
			repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&handedOver, nil),
			repoMock.EXPECT().UpdateOrderStatusCAS(gomock.Any(), gomock.Any(), models.OrderStatusReady).Return(true, nil),
		)

		svc := NewOrderService(repoMock, guard.New(), nil)

		got, err := svc.RecordHandover(context.Background(), models.RoleStaff, "W1", "O1")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCompleted, got.Status)
	})

	t.Run("pending_payment_keeps_order_ready", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		ready := models.Order{
			OrderID:         "O1",
			Status:          models.OrderStatusReady,
			Invoice:         models.PaymentLedger{Status: models.PaymentStatusToConfirm},
			DeliveryPayment: settled,
		}
		handedOver := ready
		now := time.Now()
		handedOver.HandoverAt = &now

		repoMock := mocks.NewMockOrderRepository(ctrl)
		gomock.InOrder(
			repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&ready, nil),
			repoMock.EXPECT().UpdateHandover(gomock.Any(), "O1", gomock.Any()).Return(true, nil),
			repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&handedOver, nil),
		)
		repoMock.EXPECT().UpdateOrderStatusCAS(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		svc := NewOrderService(repoMock, guard.New(), nil)

		got, err := svc.RecordHandover(context.Background(), models.RoleStaff, "W1", "O1")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusReady, got.Status)
		require.NotNil(t, got.HandoverAt)
	})

	t.Run("customer_cannot_record_handover", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		ready := models.Order{OrderID: "O1", Status: models.OrderStatusReady}
		repoMock := mocks.NewMockOrderRepository(ctrl)
		repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&ready, nil)

		svc := NewOrderService(repoMock, guard.New(), nil)

		_, err := svc.RecordHandover(context.Background(), models.RoleCustomer, "C1", "O1")
		assert.ErrorIs(t, err, models.ErrUnauthorized)
	})
}

func TestOrderService_TryComplete(t *testing.T) {
	confirmed := time.Now().Add(-time.Hour)
	handover := time.Now().Add(-30 * time.Minute)
	settled := models.PaymentLedger{Status: models.PaymentStatusConfirmed, ConfirmedAt: &confirmed}

	t.Run("system_completes_settled_order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		ready := models.Order{
			OrderID:         "O1",
			Status:          models.OrderStatusReady,
			HandoverAt:      &handover,
			Invoice:         settled,
			DeliveryPayment: settled,
		}

		repoMock := mocks.NewMockOrderRepository(ctrl)
		repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&ready, nil)
		repoMock.EXPECT().UpdateOrderStatusCAS(gomock.Any(), gomock.Any(), models.OrderStatusReady).Return(true, nil)

		svc := NewOrderService(repoMock, guard.New(), nil)

		got, err := svc.TryComplete(context.Background(), models.RoleSystem, "O1")
		require.NoError(t, err)
		assert.Equal(t, models.OrderStatusCompleted, got.Status)
	})

	t.Run("unsettled_order_is_left_alone", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		ready := models.Order{
			OrderID:         "O1",
			Status:          models.OrderStatusReady,
			HandoverAt:      &handover,
			Invoice:         models.PaymentLedger{Status: models.PaymentStatusRejected},
			DeliveryPayment: settled,
		}

		repoMock := mocks.NewMockOrderRepository(ctrl)
		repoMock.EXPECT().GetOrderByID(gomock.Any(), "O1").Return(&ready, nil)
		repoMock.EXPECT().UpdateOrderStatusCAS(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		svc := NewOrderService(repoMock, guard.New(), nil)

		_, err := svc.TryComplete(context.Background(), models.RoleSystem, "O1")
		assert.ErrorIs(t, err, models.ErrInvalidTransition)
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	t.Run("empty_shop_list", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		repoMock := mocks.NewMockOrderRepository(ctrl)
		repoMock.EXPECT().GetOrdersByShopID(gomock.Any(), "S1").Return(nil, nil)

		svc := NewOrderService(repoMock, guard.New(), nil)

		_, err := svc.ListShopOrders(context.Background(), "S1")
		assert.ErrorIs(t, err, models.ErrDataNotFound)
	})

	t.Run("customer_orders", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		orders := []models.Order{{OrderID: "O1"}, {OrderID: "O2"}}
		repoMock := mocks.NewMockOrderRepository(ctrl)
		repoMock.EXPECT().GetOrdersByCustomerID(gomock.Any(), "C1").Return(orders, nil)

		svc := NewOrderService(repoMock, guard.New(), nil)

		got, err := svc.ListCustomerOrders(context.Background(), "C1")
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})
}
