// README: In-memory order store with the same check-and-set semantics as Postgres.
package order

import (
	"context"
	"sync"
	"time"

	"scrapmate/internal/types"
)

// MemoryStore backs unit and race tests; the mutex gives the same
// at-most-one-winner behavior the conditional SQL writes give in production.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[types.ID]*Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[types.ID]*Order)}
}

func (s *MemoryStore) Create(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = cloneOrder(o)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id types.ID) (*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (s *MemoryStore) MaxNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var max int64
	for _, o := range s.orders {
		if o.Number > max {
			max = o.Number
		}
	}
	return max, nil
}

func (s *MemoryStore) Claim(_ context.Context, w ClaimWrite) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[w.OrderID]
	if !ok {
		return false, ErrNotFound
	}
	if o.Status != StatusScheduled || !refEqual(o.AssignedRef, w.ExpectedRef) {
		return false, nil
	}
	ref := w.Ref
	at := w.At
	o.Status = StatusAccepted
	o.AssignedRef = &ref
	o.Items = cloneItems(w.Items)
	o.EstimatedAmount = w.EstimatedAmount
	o.AcceptedAt = &at
	o.StatusVersion++
	return true, nil
}

func (s *MemoryStore) UpdateStatus(_ context.Context, id types.ID, to Status, version int, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if o.StatusVersion != version {
		return false, nil
	}
	o.Status = to
	o.StatusVersion++
	t := at
	switch to {
	case StatusPickupInitiated:
		o.PickupStartedAt = &t
	case StatusArrived:
		o.ArrivedAt = &t
	}
	return true, nil
}

func (s *MemoryStore) Complete(_ context.Context, w CompleteWrite) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[w.OrderID]
	if !ok {
		return false, ErrNotFound
	}
	if o.StatusVersion != w.Version {
		return false, nil
	}
	at := w.At
	o.Status = StatusCompleted
	o.StatusVersion++
	o.Items = cloneItems(w.Items)
	if w.ActualAmount != nil {
		m := *w.ActualAmount
		o.ActualAmount = &m
	}
	o.CompletedAt = &at
	return true, nil
}

func (s *MemoryStore) AppendCancellation(_ context.Context, w CancelWrite) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[w.OrderID]
	if !ok {
		return false, ErrNotFound
	}
	if o.StatusVersion != w.Version {
		return false, nil
	}
	o.Cancellations = append(o.Cancellations, w.Cancellation)
	o.NotifiedVendorIDs = append([]types.ID(nil), w.Notified...)
	o.StatusVersion++
	return true, nil
}

func (s *MemoryStore) ListByStatus(_ context.Context, statuses ...Status) ([]*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Order
	for _, o := range s.orders {
		if statusIn(o.Status, statuses) {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func (s *MemoryStore) ListByAssignee(_ context.Context, refs []types.ID, statuses ...Status) ([]*Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*Order
	for _, o := range s.orders {
		if o.assignedTo(refs) && statusIn(o.Status, statuses) {
			out = append(out, cloneOrder(o))
		}
	}
	return out, nil
}

func statusIn(s Status, set []Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func refEqual(a, b *types.ID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func cloneOrder(o *Order) *Order {
	c := *o
	c.Items = cloneItems(o.Items)
	c.Images = append([]string(nil), o.Images...)
	c.NotifiedVendorIDs = append([]types.ID(nil), o.NotifiedVendorIDs...)
	c.Cancellations = append([]Cancellation(nil), o.Cancellations...)
	if o.AssignedRef != nil {
		ref := *o.AssignedRef
		c.AssignedRef = &ref
	}
	if o.ActualAmount != nil {
		m := *o.ActualAmount
		c.ActualAmount = &m
	}
	return &c
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = it
		if it.ActualWeightKg != nil {
			w := *it.ActualWeightKg
			out[i].ActualWeightKg = &w
		}
		if it.ActualAmount != nil {
			a := *it.ActualAmount
			out[i].ActualAmount = &a
		}
	}
	return out
}
