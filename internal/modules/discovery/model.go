// README: Ephemeral vendor candidates produced for one dispatch.
package discovery

import "scrapmate/internal/types"

// Candidate is a vendor eligible to be notified about a new order.
// ShopID is nil for shopless mobile vendors found via the registry scan.
type Candidate struct {
	VendorID   types.ID
	ShopID     *types.ID
	DistanceKm float64
}

// GeoHit is a raw geo-index match before eligibility filtering.
type GeoHit struct {
	ShopID     types.ID
	DistanceKm float64
}
