// README: Redis-backed invalidation of derived read caches. Fire-and-forget.
package cache

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"

	"scrapmate/internal/types"
)

// Key namespaces for derived read caches kept by the API edge.
const (
	availableKeyPrefix = "orders:available:"
	vendorKeyPrefix    = "orders:vendor:"
	customerKeyPrefix  = "orders:customer:"
	detailKeyPrefix    = "orders:detail:"
)

func AvailableKey(vendorID types.ID) string { return availableKeyPrefix + string(vendorID) }
func VendorKey(ref types.ID) string         { return vendorKeyPrefix + string(ref) }
func CustomerKey(id types.ID) string        { return customerKeyPrefix + string(id) }
func DetailKey(orderID types.ID) string     { return detailKeyPrefix + string(orderID) }

// Invalidator implements order.Invalidator. Failures are logged and dropped;
// a stale cache entry is preferable to a failed mutation.
type Invalidator struct {
	redis *redis.Client
}

func NewInvalidator(redis *redis.Client) *Invalidator {
	return &Invalidator{redis: redis}
}

func (i *Invalidator) AvailableOrders(ctx context.Context, vendorIDs []types.ID) {
	if len(vendorIDs) == 0 {
		return
	}
	keys := make([]string, len(vendorIDs))
	for n, id := range vendorIDs {
		keys[n] = AvailableKey(id)
	}
	i.del(ctx, keys...)
}

func (i *Invalidator) VendorOrders(ctx context.Context, ref types.ID) {
	i.del(ctx, VendorKey(ref))
}

func (i *Invalidator) CustomerOrders(ctx context.Context, customerID types.ID) {
	i.del(ctx, CustomerKey(customerID))
}

func (i *Invalidator) Order(ctx context.Context, orderID types.ID) {
	i.del(ctx, DetailKey(orderID))
}

func (i *Invalidator) del(ctx context.Context, keys ...string) {
	if err := i.redis.Del(ctx, keys...).Err(); err != nil {
		log.Printf("cache: invalidate %v failed: %v", keys, err)
	}
}
