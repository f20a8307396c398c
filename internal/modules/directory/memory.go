// README: In-memory registry store for tests and local runs.
package directory

import (
	"context"
	"sync"

	"scrapmate/internal/types"
)

type MemoryStore struct {
	mu        sync.RWMutex
	users     map[types.ID]User
	shops     map[types.ID]Shop
	overrides map[types.ID][]PriceOverride
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[types.ID]User),
		shops:     make(map[types.ID]Shop),
		overrides: make(map[types.ID][]PriceOverride),
	}
}

func (s *MemoryStore) PutUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *MemoryStore) PutShop(sh Shop) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shops[sh.ID] = sh
}

func (s *MemoryStore) PutOverride(o PriceOverride) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[o.ShopRef] = append(s.overrides[o.ShopRef], o)
}

func (s *MemoryStore) GetUser(_ context.Context, id types.ID) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (s *MemoryStore) ShopsByOwner(_ context.Context, owner types.ID) ([]Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Shop
	for _, sh := range s.shops {
		if sh.OwnerID == owner {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s *MemoryStore) ShopsByIDs(_ context.Context, ids []types.ID) ([]Shop, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Shop
	for _, id := range ids {
		if sh, ok := s.shops[id]; ok {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s *MemoryStore) ActiveVendors(_ context.Context, class Class) ([]User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []User
	for _, u := range s.users {
		if u.Role == RoleVendor && u.Class == class && u.Active {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *MemoryStore) PriceOverrides(_ context.Context, ref types.ID) ([]PriceOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PriceOverride(nil), s.overrides[ref]...), nil
}
