// README: Dispatch engine and order state machine built on conditional writes.
package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"time"

	"scrapmate/internal/modules/directory"
	"scrapmate/internal/modules/discovery"
	"scrapmate/internal/types"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("order not found")
	ErrForbidden    = errors.New("vendor not entitled to act on this order")
	ErrInvalidState = errors.New("invalid state transition")
	// ErrConflict means a concurrent mutation raced this one; reload and retry.
	ErrConflict = errors.New("order state conflict")
	// ErrClaimedByOther means another vendor holds the claim.
	ErrClaimedByOther = errors.New("order already claimed by another vendor")
)

// orderNumberFloor is the base for display numbers when the store holds no
// prior (or an out-of-range) value.
const orderNumberFloor = 1000

// cancelRetries bounds retries on ambiguous version races during cancel.
const cancelRetries = 3

// CandidateFinder selects nearby eligible vendors at dispatch time.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, class directory.Class, origin types.Point, radiusKm float64, limit int) ([]discovery.Candidate, error)
}

// Directory is the profile/shop lookup collaborator.
type Directory interface {
	User(ctx context.Context, id types.ID) (*directory.User, error)
	ClaimRef(ctx context.Context, vendorID types.ID, class directory.Class) (types.ID, error)
	ClaimRefs(ctx context.Context, vendorID types.ID) ([]types.ID, error)
	OverrideMap(ctx context.Context, ref types.ID) (map[string]int64, error)
}

// Notifier fans out push notifications. Implementations must swallow and log
// delivery failures; notification is advisory, not part of the consistency
// boundary.
type Notifier interface {
	OrderCreated(ctx context.Context, o *Order, vendorIDs []types.ID)
	OrderAccepted(ctx context.Context, o *Order, losers []types.ID)
	PickupStarted(ctx context.Context, o *Order)
	VendorArrived(ctx context.Context, o *Order)
}

// Invalidator drops derived read caches. Fire-and-forget.
type Invalidator interface {
	AvailableOrders(ctx context.Context, vendorIDs []types.ID)
	VendorOrders(ctx context.Context, ref types.ID)
	CustomerOrders(ctx context.Context, customerID types.ID)
	Order(ctx context.Context, id types.ID)
}

// Geocoder resolves a free-text address to a coordinate, best effort.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*types.Point, error)
}

type Config struct {
	RadiusKm   float64
	MaxVendors int
}

type Service struct {
	store       Store
	finder      CandidateFinder
	dir         Directory
	notifier    Notifier
	invalidator Invalidator
	geocoder    Geocoder
	cfg         Config
}

func NewService(store Store, finder CandidateFinder, dir Directory, notifier Notifier, invalidator Invalidator, geocoder Geocoder, cfg Config) *Service {
	if cfg.RadiusKm <= 0 {
		cfg.RadiusKm = 15.0
	}
	if cfg.MaxVendors <= 0 {
		cfg.MaxVendors = 5
	}
	return &Service{
		store:       store,
		finder:      finder,
		dir:         dir,
		notifier:    notifier,
		invalidator: invalidator,
		geocoder:    geocoder,
		cfg:         cfg,
	}
}

type PlaceCommand struct {
	CustomerID        types.ID
	Items             []Item
	Address           string
	Location          *types.Point
	EstimatedWeightKg float64
	EstimatedAmount   types.Money
	Images            []string
	TimeWindow        string
	// TargetClass selects which vendor pool the order is dispatched to.
	TargetClass directory.Class
	// PreRouteRef routes the order to a specific shop instead of dispatching
	// to nearby vendors; that shop's owner must still claim it explicitly.
	PreRouteRef *types.ID
}

type AcceptCommand struct {
	OrderID  types.ID
	VendorID types.ID
	Class    directory.Class
}

type StartCommand struct {
	OrderID  types.ID
	VendorID types.ID
}

type ArriveCommand struct {
	OrderID  types.ID
	VendorID types.ID
}

// Adjustment carries per-line settlement figures reported at completion.
type Adjustment struct {
	CategoryID     string
	SubcategoryID  string
	ActualWeightKg float64
	ActualAmount   int64
}

type CompleteCommand struct {
	OrderID     types.ID
	VendorID    types.ID
	Adjustments []Adjustment
}

type CancelCommand struct {
	OrderID  types.ID
	VendorID types.ID
	Reason   string
}

// Place creates the order, selects up to MaxVendors nearby candidates and
// fans out notifications. Notification and cache failures never fail the
// creation.
func (s *Service) Place(ctx context.Context, cmd PlaceCommand) (*Order, error) {
	if cmd.CustomerID == "" || len(cmd.Items) == 0 || cmd.Address == "" {
		return nil, ErrBadRequest
	}
	if len(cmd.Images) > MaxImages {
		return nil, ErrBadRequest
	}
	if cmd.TargetClass == "" {
		cmd.TargetClass = directory.ClassShop
	}
	requester, err := s.dir.User(ctx, cmd.CustomerID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if requester.Role != directory.RoleCustomer || !requester.Active {
		return nil, ErrForbidden
	}

	number, err := s.nextNumber(ctx)
	if err != nil {
		return nil, err
	}

	loc := cmd.Location
	if loc == nil && s.geocoder != nil {
		if p, err := s.geocoder.Geocode(ctx, cmd.Address); err != nil {
			log.Printf("order: geocode failed for order %d: %v", number, err)
		} else {
			loc = p
		}
	}

	var notified []types.ID
	if cmd.PreRouteRef == nil && loc != nil {
		candidates, err := s.finder.FindCandidates(ctx, cmd.TargetClass, *loc, s.cfg.RadiusKm, s.cfg.MaxVendors)
		if err != nil {
			return nil, err
		}
		notified = make([]types.ID, len(candidates))
		for i, c := range candidates {
			notified[i] = c.VendorID
		}
	}

	o := &Order{
		ID:                newID(),
		Number:            number,
		CustomerID:        cmd.CustomerID,
		Items:             cloneItems(cmd.Items),
		Address:           cmd.Address,
		Location:          loc,
		EstimatedWeightKg: cmd.EstimatedWeightKg,
		EstimatedAmount:   cmd.EstimatedAmount,
		Images:            append([]string(nil), cmd.Images...),
		TimeWindow:        cmd.TimeWindow,
		Status:            StatusScheduled,
		AssignedRef:       cmd.PreRouteRef,
		NotifiedVendorIDs: notified,
		CreatedAt:         time.Now(),
	}
	if err := s.store.Create(ctx, o); err != nil {
		return nil, err
	}

	s.notifyCreated(ctx, o, notified)
	s.invalidate(func(inv Invalidator) {
		inv.AvailableOrders(ctx, notified)
		inv.CustomerOrders(ctx, o.CustomerID)
	})
	return o, nil
}

// Accept claims the order for the vendor. Retried accepts from the winning
// vendor succeed idempotently; a losing vendor gets ErrClaimedByOther.
func (s *Service) Accept(ctx context.Context, cmd AcceptCommand) (*Order, error) {
	ref, err := s.dir.ClaimRef(ctx, cmd.VendorID, cmd.Class)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if o.IsClaimed() {
		if o.assignedTo([]types.ID{ref}) {
			return o, nil
		}
		return nil, ErrClaimedByOther
	}
	if !o.Notified(cmd.VendorID) && !o.PreRoutedTo([]types.ID{ref}) {
		return nil, ErrForbidden
	}

	overrides, err := s.dir.OverrideMap(ctx, ref)
	if err != nil {
		return nil, err
	}
	items, estimate := repriceItems(o.Items, overrides, o.EstimatedAmount)

	ok, err := s.store.Claim(ctx, ClaimWrite{
		OrderID:         o.ID,
		ExpectedRef:     o.AssignedRef,
		Ref:             ref,
		Items:           items,
		EstimatedAmount: estimate,
		At:              time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Precondition failed at write time; re-read and classify.
		cur, err := s.store.Get(ctx, cmd.OrderID)
		if err != nil {
			return nil, err
		}
		if cur.assignedTo([]types.ID{ref}) && cur.IsClaimed() {
			return cur, nil
		}
		if cur.IsClaimed() {
			return nil, ErrClaimedByOther
		}
		return nil, ErrConflict
	}

	claimed, err := s.store.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	losers := make([]types.ID, 0, len(o.NotifiedVendorIDs))
	for _, id := range o.NotifiedVendorIDs {
		if id != cmd.VendorID {
			losers = append(losers, id)
		}
	}
	if s.notifier != nil {
		s.notifier.OrderAccepted(ctx, claimed, losers)
	}
	s.invalidate(func(inv Invalidator) {
		inv.AvailableOrders(ctx, o.NotifiedVendorIDs)
		inv.VendorOrders(ctx, ref)
		inv.CustomerOrders(ctx, o.CustomerID)
		inv.Order(ctx, o.ID)
	})
	return claimed, nil
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) (*Order, error) {
	return s.transition(ctx, cmd.OrderID, cmd.VendorID, StatusPickupInitiated, func(o *Order) {
		if s.notifier != nil {
			s.notifier.PickupStarted(ctx, o)
		}
	})
}

func (s *Service) Arrive(ctx context.Context, cmd ArriveCommand) (*Order, error) {
	return s.transition(ctx, cmd.OrderID, cmd.VendorID, StatusArrived, func(o *Order) {
		if s.notifier != nil {
			s.notifier.VendorArrived(ctx, o)
		}
	})
}

func (s *Service) transition(ctx context.Context, orderID, vendorID types.ID, to Status, onDone func(*Order)) (*Order, error) {
	o, err := s.ownedOrder(ctx, orderID, vendorID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, o.ID, to, o.StatusVersion, time.Now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	updated, err := s.store.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	onDone(updated)
	s.invalidate(func(inv Invalidator) {
		inv.VendorOrders(ctx, *o.AssignedRef)
		inv.CustomerOrders(ctx, o.CustomerID)
		inv.Order(ctx, o.ID)
	})
	return updated, nil
}

// Complete finalises the order, overlaying any settlement figures reported
// by the vendor onto matching item lines.
func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (*Order, error) {
	o, err := s.ownedOrder(ctx, cmd.OrderID, cmd.VendorID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, StatusCompleted) {
		return nil, ErrInvalidState
	}

	items, actual := applyAdjustments(o.Items, cmd.Adjustments, o.EstimatedAmount.Currency)
	ok, err := s.store.Complete(ctx, CompleteWrite{
		OrderID:      o.ID,
		Version:      o.StatusVersion,
		Items:        items,
		ActualAmount: actual,
		At:           time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict
	}
	updated, err := s.store.Get(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	s.invalidate(func(inv Invalidator) {
		inv.VendorOrders(ctx, *o.AssignedRef)
		inv.CustomerOrders(ctx, o.CustomerID)
		inv.Order(ctx, o.ID)
	})
	return updated, nil
}

// Cancel records a vendor declining a scheduled order. The order stays
// Scheduled; the vendor just stops seeing it.
func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	if cmd.Reason == "" {
		return ErrBadRequest
	}
	for attempt := 0; attempt < cancelRetries; attempt++ {
		o, err := s.store.Get(ctx, cmd.OrderID)
		if err != nil {
			return err
		}
		if o.Status != StatusScheduled {
			return ErrInvalidState
		}
		if !o.Notified(cmd.VendorID) {
			return ErrForbidden
		}
		remaining := make([]types.ID, 0, len(o.NotifiedVendorIDs))
		for _, id := range o.NotifiedVendorIDs {
			if id != cmd.VendorID {
				remaining = append(remaining, id)
			}
		}
		ok, err := s.store.AppendCancellation(ctx, CancelWrite{
			OrderID: o.ID,
			Version: o.StatusVersion,
			Cancellation: Cancellation{
				VendorID: cmd.VendorID,
				Reason:   cmd.Reason,
				At:       time.Now(),
			},
			Notified: remaining,
		})
		if err != nil {
			return err
		}
		if ok {
			s.invalidate(func(inv Invalidator) {
				inv.AvailableOrders(ctx, []types.ID{cmd.VendorID})
				inv.Order(ctx, o.ID)
			})
			return nil
		}
		// Version raced (e.g. another vendor cancelled); re-read and retry.
	}
	return ErrConflict
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Order, error) {
	return s.store.Get(ctx, id)
}

// ownedOrder loads the order and verifies the vendor is the current claimant.
func (s *Service) ownedOrder(ctx context.Context, orderID, vendorID types.ID) (*Order, error) {
	refs, err := s.dir.ClaimRefs(ctx, vendorID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.assignedTo(refs) {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *Service) nextNumber(ctx context.Context) (int64, error) {
	// Read-last-then-increment: racy under concurrent creators, tolerated
	// because the display number is a convenience, not a key.
	last, err := s.store.MaxNumber(ctx)
	if err != nil {
		return 0, err
	}
	if last < orderNumberFloor {
		last = orderNumberFloor
	}
	return last + 1, nil
}

func (s *Service) notifyCreated(ctx context.Context, o *Order, vendorIDs []types.ID) {
	if s.notifier == nil || len(vendorIDs) == 0 {
		return
	}
	s.notifier.OrderCreated(ctx, o, vendorIDs)
}

func (s *Service) invalidate(fn func(Invalidator)) {
	if s.invalidator == nil {
		return
	}
	fn(s.invalidator)
}

// repriceItems rewrites per-kg prices from the claiming vendor's overrides
// and recomputes line amounts and the aggregate estimate.
func repriceItems(items []Item, overrides map[string]int64, estimate types.Money) ([]Item, types.Money) {
	out := cloneItems(items)
	if len(overrides) == 0 {
		return out, estimate
	}
	var total int64
	for i := range out {
		if rate, ok := overrides[out[i].Key()]; ok {
			out[i].PricePerKg = rate
			out[i].Amount = int64(float64(rate) * out[i].WeightKg)
		}
		total += out[i].Amount
	}
	return out, types.Money{Amount: total, Currency: estimate.Currency}
}

// applyAdjustments overlays actual weights/amounts onto matching lines and
// computes the settled total. Returns a nil total when nothing was adjusted.
func applyAdjustments(items []Item, adjustments []Adjustment, currency string) ([]Item, *types.Money) {
	out := cloneItems(items)
	if len(adjustments) == 0 {
		return out, nil
	}
	byKey := make(map[string]Adjustment, len(adjustments))
	for _, a := range adjustments {
		byKey[a.CategoryID+":"+a.SubcategoryID] = a
	}
	var total int64
	for i := range out {
		if a, ok := byKey[out[i].Key()]; ok {
			w := a.ActualWeightKg
			amt := a.ActualAmount
			out[i].ActualWeightKg = &w
			out[i].ActualAmount = &amt
			total += amt
		} else {
			total += out[i].Amount
		}
	}
	return out, &types.Money{Amount: total, Currency: currency}
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}
