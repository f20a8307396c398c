// README: State machine and display-status derivation tests.
package order

import (
	"testing"
	"time"

	"scrapmate/internal/types"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusScheduled, StatusAccepted, true},
		{StatusAccepted, StatusPickupInitiated, true},
		{StatusAccepted, StatusArrived, true}, // start may be skipped
		{StatusPickupInitiated, StatusArrived, true},
		{StatusPickupInitiated, StatusCompleted, true}, // arrive may be skipped
		{StatusArrived, StatusCompleted, true},
		// invalid: no backward moves
		{StatusAccepted, StatusScheduled, false},
		{StatusArrived, StatusPickupInitiated, false},
		{StatusCompleted, StatusArrived, false},
		// invalid: skipping claim
		{StatusScheduled, StatusPickupInitiated, false},
		{StatusScheduled, StatusCompleted, false},
		// invalid: completing straight from accepted
		{StatusAccepted, StatusCompleted, false},
		// terminal state has no outgoing transitions
		{StatusCompleted, StatusScheduled, false},
		{StatusCompleted, StatusCompleted, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestDisplayStatusFor(t *testing.T) {
	ref := types.ID("shop1")
	claimed := &Order{Status: StatusAccepted, AssignedRef: &ref}

	if got := claimed.DisplayStatusFor("winner", []types.ID{"shop1"}); got != DisplayAccepted {
		t.Errorf("claimant sees %s, want %s", got, DisplayAccepted)
	}
	if got := claimed.DisplayStatusFor("loser", []types.ID{"loser"}); got != DisplayClaimedByOther {
		t.Errorf("loser sees %s, want %s", got, DisplayClaimedByOther)
	}

	declined := &Order{
		Status:        StatusScheduled,
		Cancellations: []Cancellation{{VendorID: "v1", Reason: "too far", At: time.Now()}},
	}
	if got := declined.DisplayStatusFor("v1", []types.ID{"v1"}); got != DisplayCancelled {
		t.Errorf("declining vendor sees %s, want %s", got, DisplayCancelled)
	}
	if got := declined.DisplayStatusFor("v2", []types.ID{"v2"}); got != DisplayScheduled {
		t.Errorf("other vendor sees %s, want %s", got, DisplayScheduled)
	}

	// A vendor with no claim refs is by definition not the claimant.
	if got := claimed.DisplayStatusFor("stranger", nil); got != DisplayClaimedByOther {
		t.Errorf("vendor without refs sees %s, want %s", got, DisplayClaimedByOther)
	}
}

func TestPreRoutedTo(t *testing.T) {
	ref := types.ID("shop1")
	o := &Order{Status: StatusScheduled, AssignedRef: &ref}
	if !o.PreRoutedTo([]types.ID{"shop1"}) {
		t.Error("expected pre-routed match")
	}
	if o.PreRoutedTo([]types.ID{"other"}) {
		t.Error("unexpected pre-routed match for other ref")
	}
	o.Status = StatusAccepted
	if o.PreRoutedTo([]types.ID{"shop1"}) {
		t.Error("claimed order must not report as pre-routed")
	}
}
