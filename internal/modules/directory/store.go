// README: Registry store contract with Postgres and in-memory implementations.
package directory

import (
	"context"
	"errors"

	"scrapmate/internal/types"
)

var ErrNotFound = errors.New("directory record not found")

type Store interface {
	GetUser(ctx context.Context, id types.ID) (*User, error)
	ShopsByOwner(ctx context.Context, owner types.ID) ([]Shop, error)
	ShopsByIDs(ctx context.Context, ids []types.ID) ([]Shop, error)
	// ActiveVendors returns active vendor users of the given class, for the
	// registry-scan leg of candidate discovery.
	ActiveVendors(ctx context.Context, class Class) ([]User, error)
	// PriceOverrides returns the per-material rates stored for a claim ref
	// (shop id, or vendor user id for shopless mobile vendors).
	PriceOverrides(ctx context.Context, ref types.ID) ([]PriceOverride, error)
}
