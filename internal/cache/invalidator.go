// Package cache emits invalidation signals for the derived read views that
// external collaborators (dashboards, inventory overviews) cache. The core
// never owns those views; it only tells their owners when they went stale.
package cache

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// View keys collaborators cache under. Per-product adjustment history keys
// are derived with AdjustmentHistoryKey.
const (
	KeyInventoryOverview = "views:inventory-overview"
	KeyLowStockList      = "views:low-stock-list"
	KeyDashboardOverview = "views:dashboard-overview"

	adjustmentKeyPrefix = "views:product-adjustments:"

	// InvalidationChannel carries affected product ids for out-of-process
	// caches subscribed via Redis pub/sub.
	InvalidationChannel = "stockpos:invalidations"
)

// AdjustmentHistoryKey returns the cached adjustment-history key for one product.
func AdjustmentHistoryKey(productID uuid.UUID) string {
	return adjustmentKeyPrefix + productID.String()
}

// Invalidator is what services call after any successful stock-affecting
// mutation (confirm, receive, adjustment, convert-to-variant).
type Invalidator interface {
	InvalidateStockViews(ctx context.Context, productIDs ...uuid.UUID)
}

// RedisInvalidator deletes the stale view keys and publishes the affected
// product ids. A nil client turns every call into a no-op so the core runs
// without Redis in tests and embedded setups.
type RedisInvalidator struct {
	rdb *redis.Client
}

func NewRedisInvalidator(rdb *redis.Client) *RedisInvalidator {
	return &RedisInvalidator{rdb: rdb}
}

func (i *RedisInvalidator) InvalidateStockViews(ctx context.Context, productIDs ...uuid.UUID) {
	if i == nil || i.rdb == nil {
		return
	}

	keys := []string{KeyInventoryOverview, KeyLowStockList, KeyDashboardOverview}
	ids := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, AdjustmentHistoryKey(id))
		ids = append(ids, id.String())
	}

	// Invalidation is best-effort: a failed DEL must never roll back the
	// committed stock mutation, so errors are logged and swallowed.
	if err := i.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
	if len(ids) > 0 {
		if err := i.rdb.Publish(ctx, InvalidationChannel, strings.Join(ids, ",")).Err(); err != nil {
			log.Warn().Err(err).Msg("invalidation publish failed")
		}
	}
}
