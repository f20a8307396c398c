// README: Address geocoding via Google Maps, used as a dispatch fallback.
package geocode

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"scrapmate/internal/types"
)

type Service struct {
	client *maps.Client
}

func NewService(apiKey string) (*Service, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Service{client: client}, nil
}

// Geocode resolves a free-text address to a coordinate. Results are biased
// to India, where the vendor network operates.
func (s *Service) Geocode(ctx context.Context, address string) (*types.Point, error) {
	results, err := s.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: address,
		Region:  "in",
	})
	if err != nil {
		return nil, fmt.Errorf("maps api error: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no geocoding result for %q", address)
	}
	loc := results[0].Geometry.Location
	return &types.Point{Lat: loc.Lat, Lng: loc.Lng}, nil
}
