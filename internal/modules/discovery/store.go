// README: Shop geo index backed by Redis GEO.
package discovery

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"scrapmate/internal/modules/directory"
	"scrapmate/internal/types"
)

const shopGeoKeyPrefix = "discovery:shops:%s"

type Store struct {
	redis *redis.Client
}

func NewStore(redis *redis.Client) *Store {
	return &Store{redis: redis}
}

// IndexShop registers or moves a shop in the geo index for its class.
func (s *Store) IndexShop(ctx context.Context, shopID types.ID, class directory.Class, pos types.Point) error {
	return s.redis.GeoAdd(ctx, shopGeoKey(class), &redis.GeoLocation{
		Name:      string(shopID),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (s *Store) RemoveShop(ctx context.Context, shopID types.ID, class directory.Class) error {
	return s.redis.ZRem(ctx, shopGeoKey(class), string(shopID)).Err()
}

// Nearby returns indexed shops of the class within radiusKm of the origin,
// nearest first, with distances in kilometres.
func (s *Store) Nearby(ctx context.Context, class directory.Class, origin types.Point, radiusKm float64) ([]GeoHit, error) {
	results, err := s.redis.GeoSearchLocation(ctx, shopGeoKey(class), &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  origin.Lng,
			Latitude:   origin.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	hits := make([]GeoHit, len(results))
	for i, r := range results {
		hits[i] = GeoHit{ShopID: types.ID(r.Name), DistanceKm: r.Dist}
	}
	return hits, nil
}

func shopGeoKey(class directory.Class) string {
	return fmt.Sprintf(shopGeoKeyPrefix, string(class))
}
