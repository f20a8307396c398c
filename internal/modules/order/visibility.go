// README: Per-vendor visibility: available/active/completed lists, recomputed on every poll.
package order

import (
	"context"
	"errors"
	"sync"

	"scrapmate/internal/modules/directory"
	"scrapmate/internal/modules/discovery"
	"scrapmate/internal/types"
)

// AvailableQuery lists orders a vendor may currently claim.
type AvailableQuery struct {
	VendorID types.ID
	Origin   *types.Point
	RadiusKm float64
}

// AvailableOrder pairs an order with its distance from the vendor when a
// coordinate was supplied.
type AvailableOrder struct {
	Order      *Order
	DistanceKm *float64
}

// EnrichedOrder joins requester display data onto an order for vendor lists.
type EnrichedOrder struct {
	Order          *Order
	DisplayStatus  DisplayStatus
	RequesterName  string
	RequesterPhone string
}

// ListAvailable recomputes, on every call, which scheduled orders the vendor
// may see: notified-but-unclaimed ones, plus orders pre-routed to one of the
// vendor's own shops. Orders the vendor declined are excluded. There is no
// server push for this view; correctness rests entirely on the persisted
// notified set and status.
func (s *Service) ListAvailable(ctx context.Context, q AvailableQuery) ([]AvailableOrder, error) {
	refs, err := s.dir.ClaimRefs(ctx, q.VendorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	scheduled, err := s.store.ListByStatus(ctx, StatusScheduled)
	if err != nil {
		return nil, err
	}

	var out []AvailableOrder
	for _, o := range scheduled {
		if o.CancelledBy(q.VendorID) {
			continue
		}
		open := o.AssignedRef == nil && o.Notified(q.VendorID)
		if !open && !o.PreRoutedTo(refs) {
			continue
		}
		entry := AvailableOrder{Order: o}
		if q.Origin != nil {
			if o.Location == nil {
				continue
			}
			d := discovery.HaversineKm(q.Origin.Lat, q.Origin.Lng, o.Location.Lat, o.Location.Lng)
			if q.RadiusKm > 0 && d > q.RadiusKm {
				continue
			}
			entry.DistanceKm = &d
		}
		out = append(out, entry)
	}

	if q.Origin != nil {
		discovery.SortByDistance(out, func(a AvailableOrder) float64 { return *a.DistanceKm })
	}
	return out, nil
}

// ListActive returns the vendor's claimed, unfinished orders with requester
// display data joined in.
func (s *Service) ListActive(ctx context.Context, vendorID types.ID) ([]EnrichedOrder, error) {
	return s.listAssigned(ctx, vendorID, StatusAccepted, StatusPickupInitiated, StatusArrived)
}

// ListCompleted returns the vendor's fulfilled orders.
func (s *Service) ListCompleted(ctx context.Context, vendorID types.ID) ([]EnrichedOrder, error) {
	return s.listAssigned(ctx, vendorID, StatusCompleted)
}

func (s *Service) listAssigned(ctx context.Context, vendorID types.ID, statuses ...Status) ([]EnrichedOrder, error) {
	refs, err := s.dir.ClaimRefs(ctx, vendorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	orders, err := s.store.ListByAssignee(ctx, refs, statuses...)
	if err != nil {
		return nil, err
	}

	out := make([]EnrichedOrder, len(orders))
	// Requester lookups are read-only and order-independent; fan out and join.
	var wg sync.WaitGroup
	for i, o := range orders {
		out[i] = EnrichedOrder{Order: o, DisplayStatus: o.DisplayStatusFor(vendorID, refs)}
		wg.Add(1)
		go func(i int, customerID types.ID) {
			defer wg.Done()
			u, err := s.dir.User(ctx, customerID)
			if err != nil {
				return
			}
			out[i].RequesterName = u.Name
			out[i].RequesterPhone = u.Phone
		}(i, o.CustomerID)
	}
	wg.Wait()
	return out, nil
}

// GetForVendor returns the order with the display status this vendor should
// see (claimed_by_other for losers, cancelled after a decline).
func (s *Service) GetForVendor(ctx context.Context, orderID, vendorID types.ID) (*Order, DisplayStatus, error) {
	refs, err := s.dir.ClaimRefs(ctx, vendorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	return o, o.DisplayStatusFor(vendorID, refs), nil
}
