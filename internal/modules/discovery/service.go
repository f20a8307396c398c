// README: Candidate discovery: geo-index query merged with the registry scan.
package discovery

import (
	"context"

	"scrapmate/internal/modules/directory"
	"scrapmate/internal/types"
)

// GeoIndex is the shop location index queried for the first discovery leg.
type GeoIndex interface {
	Nearby(ctx context.Context, class directory.Class, origin types.Point, radiusKm float64) ([]GeoHit, error)
}

// Registry is the user/shop lookup surface needed for eligibility filtering.
type Registry interface {
	ShopsByIDs(ctx context.Context, ids []types.ID) ([]directory.Shop, error)
	ActiveVendors(ctx context.Context, class directory.Class) ([]directory.User, error)
}

type Service struct {
	geo      GeoIndex
	registry Registry
}

func NewService(geo GeoIndex, registry Registry) *Service {
	return &Service{geo: geo, registry: registry}
}

// FindCandidates returns eligible vendors of the class within radiusKm of
// origin, deduplicated by vendor id (shorter distance wins), sorted nearest
// first and truncated to limit.
//
// Two legs: the shop geo index, and a registry scan for active vendors whose
// shop is not geo-indexed but whose profile carries a coordinate.
func (s *Service) FindCandidates(ctx context.Context, class directory.Class, origin types.Point, radiusKm float64, limit int) ([]Candidate, error) {
	byVendor := make(map[types.ID]Candidate)
	indexed := make(map[types.ID]bool)

	hits, err := s.geo.Nearby(ctx, class, origin, radiusKm)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		ids := make([]types.ID, len(hits))
		distByShop := make(map[types.ID]float64, len(hits))
		for i, h := range hits {
			ids[i] = h.ShopID
			distByShop[h.ShopID] = h.DistanceKm
		}
		shops, err := s.registry.ShopsByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, sh := range shops {
			indexed[sh.OwnerID] = true
			if !sh.Active || sh.Class != class {
				continue
			}
			shopID := sh.ID
			c := Candidate{VendorID: sh.OwnerID, ShopID: &shopID, DistanceKm: distByShop[sh.ID]}
			if prev, ok := byVendor[c.VendorID]; !ok || c.DistanceKm < prev.DistanceKm {
				byVendor[c.VendorID] = c
			}
		}
	}

	vendors, err := s.registry.ActiveVendors(ctx, class)
	if err != nil {
		return nil, err
	}
	mergeRegistryLeg(byVendor, vendors, indexed, origin, radiusKm)

	out := make([]Candidate, 0, len(byVendor))
	for _, c := range byVendor {
		out = append(out, c)
	}
	SortByDistance(out, func(c Candidate) float64 { return c.DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func mergeRegistryLeg(byVendor map[types.ID]Candidate, vendors []directory.User, indexed map[types.ID]bool, origin types.Point, radiusKm float64) {
	for _, v := range vendors {
		if v.Location == nil || indexed[v.ID] {
			continue
		}
		d := HaversineKm(origin.Lat, origin.Lng, v.Location.Lat, v.Location.Lng)
		if d > radiusKm {
			continue
		}
		c := Candidate{VendorID: v.ID, DistanceKm: d}
		if prev, ok := byVendor[c.VendorID]; !ok || c.DistanceKm < prev.DistanceKm {
			byVendor[c.VendorID] = c
		}
	}
}
