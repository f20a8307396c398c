// README: Registry lookups: claim-ref resolution, price overrides, display data.
package directory

import (
	"context"

	"scrapmate/internal/types"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) User(ctx context.Context, id types.ID) (*User, error) {
	return s.store.GetUser(ctx, id)
}

// ClaimRef resolves the identity a vendor acts under for the given class:
// the vendor's active shop of that class, or the vendor's own user id when
// no such shop exists (shopless mobile vendors).
func (s *Service) ClaimRef(ctx context.Context, vendorID types.ID, class Class) (types.ID, error) {
	u, err := s.store.GetUser(ctx, vendorID)
	if err != nil {
		return "", err
	}
	if u.Role != RoleVendor || !u.Active {
		return "", ErrNotFound
	}
	if class == "" {
		class = u.Class
	}
	shops, err := s.store.ShopsByOwner(ctx, vendorID)
	if err != nil {
		return "", err
	}
	for _, sh := range shops {
		if sh.Class == class && sh.Active {
			return sh.ID, nil
		}
	}
	return vendorID, nil
}

// ClaimRefs returns every identity the vendor may hold claims under.
// A dual-role vendor may own two shops of different classes.
func (s *Service) ClaimRefs(ctx context.Context, vendorID types.ID) ([]types.ID, error) {
	shops, err := s.store.ShopsByOwner(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	refs := []types.ID{vendorID}
	for _, sh := range shops {
		if sh.Active {
			refs = append(refs, sh.ID)
		}
	}
	return refs, nil
}

// OverrideMap returns the vendor's per-kg rates keyed by OverrideKey.
func (s *Service) OverrideMap(ctx context.Context, ref types.ID) (map[string]int64, error) {
	overrides, err := s.store.PriceOverrides(ctx, ref)
	if err != nil {
		return nil, err
	}
	m := make(map[string]int64, len(overrides))
	for _, o := range overrides {
		m[OverrideKey(o.CategoryID, o.SubcategoryID)] = o.PricePerKg
	}
	return m, nil
}

// RefOwner resolves a claim ref (shop id or user id) to the owning user.
func (s *Service) RefOwner(ctx context.Context, ref types.ID) (*User, error) {
	if u, err := s.store.GetUser(ctx, ref); err == nil {
		return u, nil
	}
	shops, err := s.store.ShopsByIDs(ctx, []types.ID{ref})
	if err != nil {
		return nil, err
	}
	if len(shops) == 0 {
		return nil, ErrNotFound
	}
	return s.store.GetUser(ctx, shops[0].OwnerID)
}

func (s *Service) PushToken(ctx context.Context, id types.ID) (string, error) {
	u, err := s.store.GetUser(ctx, id)
	if err != nil {
		return "", err
	}
	return u.PushToken, nil
}
