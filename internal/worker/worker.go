package worker

import (
	"context"
	"errors"
	"time"

	"github.com/labamart/labamart/internal/logger"
	"github.com/labamart/labamart/internal/models"
	"go.uber.org/zap"
)

// OrderService описывает операции сервиса заказов, нужные воркеру.
type OrderService interface {
	// ReadyOrders возвращает выданные заказы, ожидающие завершения.
	ReadyOrders(ctx context.Context) ([]models.Order, error)
	// TryComplete переводит заказ в COMPLETED, если все платежи подтверждены.
	TryComplete(ctx context.Context, actor models.Role, orderID string) (*models.Order, error)
}

// CompletionSweeper периодически завершает выданные заказы, у которых
// подтверждение оплаты пришло после выдачи.
type CompletionSweeper struct {
	orders   OrderService
	interval time.Duration
}

func NewCompletionSweeper(orders OrderService, interval time.Duration) *CompletionSweeper {
	return &CompletionSweeper{orders: orders, interval: interval}
}

// Run blocks until ctx is cancelled.
func (w *CompletionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CompletionSweeper) sweep(ctx context.Context) {
	orders, err := w.orders.ReadyOrders(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrDataNotFound) {
			logger.Log.Error("completion sweep: list ready orders", zap.Error(err))
		}
		return
	}

	for _, order := range orders {
		_, err := w.orders.TryComplete(ctx, models.RoleSystem, order.OrderID)
		switch {
		case err == nil:
			logger.Log.Info("order completed by sweeper", zap.String("order_id", order.OrderID))
		case errors.Is(err, models.ErrInvalidTransition):
			// payments not settled yet, keep waiting
		default:
			logger.Log.Error("completion sweep", zap.String("order_id", order.OrderID), zap.Error(err))
		}
	}
}
