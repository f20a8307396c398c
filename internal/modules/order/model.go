// README: Order aggregate, stored status enum and viewer display statuses.
package order

import (
	"time"

	"scrapmate/internal/types"
)

// Status is the persisted order status. Display-only derivations
// (claimed-by-other, cancelled) are never stored; see DisplayStatusFor.
type Status string

const (
	StatusScheduled       Status = "scheduled"
	StatusAccepted        Status = "accepted"
	StatusPickupInitiated Status = "pickup_initiated"
	StatusArrived         Status = "arrived"
	StatusCompleted       Status = "completed"
)

// DisplayStatus is a per-viewer status computed at read time.
type DisplayStatus string

const (
	DisplayScheduled       DisplayStatus = "scheduled"
	DisplayAccepted        DisplayStatus = "accepted"
	DisplayPickupInitiated DisplayStatus = "pickup_initiated"
	DisplayArrived         DisplayStatus = "arrived"
	DisplayCompleted       DisplayStatus = "completed"
	DisplayClaimedByOther  DisplayStatus = "claimed_by_other"
	DisplayCancelled       DisplayStatus = "cancelled"
)

// AllowedTransitions represents the strictly forward order state flow.
var AllowedTransitions = map[Status][]Status{
	StatusScheduled:       {StatusAccepted},
	StatusAccepted:        {StatusPickupInitiated, StatusArrived},
	StatusPickupInitiated: {StatusArrived, StatusCompleted},
	StatusArrived:         {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Item is one material line of an order. Actual figures are filled in at
// completion when the vendor reports settlement weights.
type Item struct {
	CategoryID     string   `json:"category_id"`
	SubcategoryID  string   `json:"subcategory_id"`
	Material       string   `json:"material"`
	WeightKg       float64  `json:"weight_kg"`
	PricePerKg     int64    `json:"price_per_kg"`
	Amount         int64    `json:"amount"`
	ActualWeightKg *float64 `json:"actual_weight_kg,omitempty"`
	ActualAmount   *int64   `json:"actual_amount,omitempty"`
}

// Key matches an item to a price override or a settlement adjustment.
func (i Item) Key() string {
	return i.CategoryID + ":" + i.SubcategoryID
}

// Cancellation records a vendor declining a scheduled order.
type Cancellation struct {
	VendorID types.ID  `json:"vendor_id"`
	Reason   string    `json:"reason"`
	At       time.Time `json:"at"`
}

type Order struct {
	// ID is the storage key and the only uniqueness guarantee.
	ID types.ID
	// Number is a display sequence; allocation is racy by design and
	// duplicates are tolerated.
	Number     int64
	CustomerID types.ID

	Items             []Item
	Address           string
	Location          *types.Point
	EstimatedWeightKg float64
	EstimatedAmount   types.Money
	// ActualAmount is the settled total, present once completed with
	// adjustments.
	ActualAmount *types.Money
	Images       []string
	TimeWindow   string

	Status Status
	// StatusVersion guards every conditional write on this record.
	StatusVersion int
	// AssignedRef is the claiming vendor's shop or user identity. Non-nil
	// while still Scheduled only for pre-routed orders.
	AssignedRef       *types.ID
	NotifiedVendorIDs []types.ID
	Cancellations     []Cancellation

	CreatedAt       time.Time
	AcceptedAt      *time.Time
	PickupStartedAt *time.Time
	ArrivedAt       *time.Time
	CompletedAt     *time.Time
}

// MaxImages bounds the image references accepted at creation.
const MaxImages = 6

func (o *Order) IsClaimed() bool {
	return o.Status != StatusScheduled
}

func (o *Order) Notified(vendorID types.ID) bool {
	for _, id := range o.NotifiedVendorIDs {
		if id == vendorID {
			return true
		}
	}
	return false
}

func (o *Order) CancelledBy(vendorID types.ID) bool {
	for _, c := range o.Cancellations {
		if c.VendorID == vendorID {
			return true
		}
	}
	return false
}

// PreRoutedTo reports whether the order was routed to one of the given claim
// refs at creation without being claimed yet.
func (o *Order) PreRoutedTo(refs []types.ID) bool {
	if o.AssignedRef == nil || o.Status != StatusScheduled {
		return false
	}
	for _, ref := range refs {
		if *o.AssignedRef == ref {
			return true
		}
	}
	return false
}

func (o *Order) assignedTo(refs []types.ID) bool {
	if o.AssignedRef == nil {
		return false
	}
	for _, ref := range refs {
		if *o.AssignedRef == ref {
			return true
		}
	}
	return false
}

// DisplayStatusFor derives the status a particular vendor should see.
// Losing vendors see claimed_by_other; vendors who declined see cancelled.
// The customer view passes no refs and sees the stored status.
func (o *Order) DisplayStatusFor(vendorID types.ID, refs []types.ID) DisplayStatus {
	if o.IsClaimed() && !o.assignedTo(refs) {
		return DisplayClaimedByOther
	}
	if o.Status == StatusScheduled && o.CancelledBy(vendorID) {
		return DisplayCancelled
	}
	return DisplayStatus(o.Status)
}
