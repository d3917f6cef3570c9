package shopinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/labamart/labamart/internal/logger"
	"github.com/labamart/labamart/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheTTL = time.Minute

// ShopRepository reads the shop bundle from the backing store
type ShopRepository interface {
	FullDetails(ctx context.Context, shopID string) (*models.ShopDetails, error)
}

// Service serves the shop full-details bundle through a read-through cache.
// Cache failures degrade to a direct read.
type Service struct {
	repo  ShopRepository
	cache *redis.Client
}

// NewService creates new shopinfo Service instance. cache may be nil.
func NewService(repo ShopRepository, cache *redis.Client) *Service {
	return &Service{repo: repo, cache: cache}
}

// FullDetails returns the shop bundle, from cache when fresh.
func (s *Service) FullDetails(ctx context.Context, shopID string) (*models.ShopDetails, error) {
	cacheKey := fmt.Sprintf("shop:details:%s", shopID)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			details := models.ShopDetails{}
			if err := json.Unmarshal([]byte(cached), &details); err == nil {
				return &details, nil
			}
		}
	}

	details, err := s.repo.FullDetails(ctx, shopID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(details); err == nil {
			if err := s.cache.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
				logger.Log.Debug("shop details cache set", zap.String("shop", shopID), zap.Error(err))
			}
		}
	}

	return details, nil
}
