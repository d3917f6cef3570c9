package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/labamart/labamart/internal/models"
)

// ShopService resolves the shop full-details bundle
type ShopService interface {
	FullDetails(ctx context.Context, shopID string) (*models.ShopDetails, error)
}

// ShopHandler represents HTTP handler for shop-related requests
type ShopHandler struct {
	svc ShopService
}

// NewShopHandler creates new ShopHandler instance
func NewShopHandler(svc ShopService) *ShopHandler {
	return &ShopHandler{svc: svc}
}

// GetShopFullDetails returns shop, services, add-ons, delivery options,
// fabric types and payment methods in one bundle
func (sh *ShopHandler) GetShopFullDetails() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shopID := chi.URLParam(r, "shopID")

		details, err := sh.svc.FullDetails(r.Context(), shopID)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, details)
	}
}
