package cache

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Key formats for read-side caches owned by the catalog and order
// collaborators. This core only invalidates them.
const (
	KeyVariantStock = "variant_stock:%s"
	KeyOrderDetail  = "order:%s"
	KeyUserCart     = "cart:%s"
)

// Invalidator drops cache entries after state-of-record changes.
// Invalidation is best effort: a miss on the next read repopulates, so
// failures are logged and swallowed.
type Invalidator interface {
	VariantStockChanged(ctx context.Context, variantID uuid.UUID)
	OrderChanged(ctx context.Context, orderID uuid.UUID)
	CartCleared(ctx context.Context, userID uuid.UUID)
}

type redisInvalidator struct {
	client *redis.Client
	logger zerolog.Logger
}

// New creates a Redis-backed cache invalidator.
func New(client *redis.Client, logger zerolog.Logger) Invalidator {
	return &redisInvalidator{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func (c *redisInvalidator) VariantStockChanged(ctx context.Context, variantID uuid.UUID) {
	c.del(ctx, fmt.Sprintf(KeyVariantStock, variantID))
}

func (c *redisInvalidator) OrderChanged(ctx context.Context, orderID uuid.UUID) {
	c.del(ctx, fmt.Sprintf(KeyOrderDetail, orderID))
}

func (c *redisInvalidator) CartCleared(ctx context.Context, userID uuid.UUID) {
	c.del(ctx, fmt.Sprintf(KeyUserCart, userID))
}

func (c *redisInvalidator) del(ctx context.Context, keys ...string) {
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}

// Nop returns an invalidator that does nothing, for tests and for running
// without Redis.
func Nop() Invalidator {
	return nopInvalidator{}
}

type nopInvalidator struct{}

func (nopInvalidator) VariantStockChanged(context.Context, uuid.UUID) {}
func (nopInvalidator) OrderChanged(context.Context, uuid.UUID)        {}
func (nopInvalidator) CartCleared(context.Context, uuid.UUID)         {}
