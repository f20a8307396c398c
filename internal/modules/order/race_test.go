// README: Concurrency tests for order claiming (run with -race).
package order

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"scrapmate/internal/modules/directory"
	"scrapmate/internal/modules/discovery"
	"scrapmate/internal/types"
)

func TestConcurrentAcceptSameOrder(t *testing.T) {
	ctx := context.Background()

	const attempts = 8
	dirStore := directory.NewMemoryStore()
	dirStore.PutUser(directory.User{ID: "cust1", Role: directory.RoleCustomer, Active: true})
	candidates := make([]discovery.Candidate, attempts)
	for i := 0; i < attempts; i++ {
		id := types.ID(fmt.Sprintf("v%d", i))
		dirStore.PutUser(directory.User{ID: id, Role: directory.RoleVendor, Class: directory.ClassMobile, Active: true})
		candidates[i] = discovery.Candidate{VendorID: id, DistanceKm: float64(i)}
	}

	svc := NewService(NewMemoryStore(), &fakeFinder{candidates: candidates},
		directory.NewService(dirStore), nil, nil, nil, Config{MaxVendors: attempts})

	o, err := svc.Place(ctx, PlaceCommand{
		CustomerID:      "cust1",
		Items:           []Item{{CategoryID: "metal", SubcategoryID: "iron", WeightKg: 10, PricePerKg: 2800, Amount: 28000}},
		Address:         "12 MG Road, Pune",
		Location:        &types.Point{Lat: 18.52, Lng: 73.85},
		EstimatedAmount: types.Money{Amount: 28000, Currency: "INR"},
		TargetClass:     directory.ClassMobile,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		vendorID := types.ID(fmt.Sprintf("v%d", i))
		wg.Add(1)
		go func(vid types.ID) {
			defer wg.Done()
			_, err := svc.Accept(ctx, AcceptCommand{OrderID: o.ID, VendorID: vid})
			errs <- err
		}(vendorID)
	}

	wg.Wait()
	close(errs)

	success := 0
	for err := range errs {
		if err == nil {
			success++
			continue
		}
		if !errors.Is(err, ErrClaimedByOther) && !errors.Is(err, ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if success != 1 {
		t.Fatalf("expected exactly 1 successful claim, got %d", success)
	}

	final, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if final.Status != StatusAccepted || final.AssignedRef == nil {
		t.Fatalf("final state: status=%s ref=%v", final.Status, final.AssignedRef)
	}
}

func TestConcurrentCancelVsAccept(t *testing.T) {
	ctx := context.Background()

	dirStore := directory.NewMemoryStore()
	dirStore.PutUser(directory.User{ID: "cust1", Role: directory.RoleCustomer, Active: true})
	dirStore.PutUser(directory.User{ID: "va", Role: directory.RoleVendor, Class: directory.ClassMobile, Active: true})
	dirStore.PutUser(directory.User{ID: "vb", Role: directory.RoleVendor, Class: directory.ClassMobile, Active: true})

	svc := NewService(NewMemoryStore(), &fakeFinder{candidates: []discovery.Candidate{
		{VendorID: "va", DistanceKm: 1},
		{VendorID: "vb", DistanceKm: 2},
	}}, directory.NewService(dirStore), nil, nil, nil, Config{})

	o, err := svc.Place(ctx, PlaceCommand{
		CustomerID:      "cust1",
		Items:           []Item{{CategoryID: "metal", SubcategoryID: "iron", WeightKg: 10, PricePerKg: 2800, Amount: 28000}},
		Address:         "12 MG Road, Pune",
		Location:        &types.Point{Lat: 18.52, Lng: 73.85},
		EstimatedAmount: types.Money{Amount: 28000, Currency: "INR"},
		TargetClass:     directory.ClassMobile,
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	var wg sync.WaitGroup
	results := make(chan error, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Accept(ctx, AcceptCommand{OrderID: o.ID, VendorID: "va"})
		results <- err
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- svc.Cancel(ctx, CancelCommand{OrderID: o.ID, VendorID: "vb", Reason: "busy"})
	}()

	wg.Wait()
	close(results)

	for err := range results {
		if err == nil {
			continue
		}
		// The cancel may lose the race after the claim lands.
		if !errors.Is(err, ErrInvalidState) && !errors.Is(err, ErrConflict) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	final, err := svc.Get(ctx, o.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if final.Status != StatusAccepted {
		t.Fatalf("expected accepted order, got %s", final.Status)
	}
	if final.CancelledBy("vb") && final.Notified("vb") {
		t.Fatal("a recorded cancellation must remove vb from the notified set")
	}
}
