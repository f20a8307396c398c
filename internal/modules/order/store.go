// README: Order store contract; every mutation after creation is a conditional write.
package order

import (
	"context"
	"time"

	"scrapmate/internal/types"
)

// ClaimWrite is the conditional accept write: it succeeds only while the
// order is still Scheduled and AssignedRef still equals ExpectedRef (nil for
// open orders, the vendor's own shop for pre-routed ones). Repriced items and
// the recomputed estimate land atomically with the claim.
type ClaimWrite struct {
	OrderID         types.ID
	ExpectedRef     *types.ID
	Ref             types.ID
	Items           []Item
	EstimatedAmount types.Money
	At              time.Time
}

// CompleteWrite finalises an order, optionally overlaying settlement figures.
type CompleteWrite struct {
	OrderID      types.ID
	Version      int
	Items        []Item
	ActualAmount *types.Money
	At           time.Time
}

// CancelWrite appends one cancellation and rewrites the shrunken notified
// set, guarded by the status version.
type CancelWrite struct {
	OrderID      types.ID
	Version      int
	Cancellation Cancellation
	Notified     []types.ID
}

type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id types.ID) (*Order, error)
	// MaxNumber returns the highest display number ever assigned, 0 when none.
	MaxNumber(ctx context.Context) (int64, error)
	// Claim returns false without error when the precondition no longer holds.
	Claim(ctx context.Context, w ClaimWrite) (bool, error)
	// UpdateStatus moves the order to the given status, guarded by version.
	UpdateStatus(ctx context.Context, id types.ID, to Status, version int, at time.Time) (bool, error)
	Complete(ctx context.Context, w CompleteWrite) (bool, error)
	AppendCancellation(ctx context.Context, w CancelWrite) (bool, error)
	ListByStatus(ctx context.Context, statuses ...Status) ([]*Order, error)
	ListByAssignee(ctx context.Context, refs []types.ID, statuses ...Status) ([]*Order, error)
}
