// README: Geographic helper tests.
package discovery

import (
	"math"
	"testing"
)

func TestHaversineKm(t *testing.T) {
	if d := HaversineKm(18.52, 73.85, 18.52, 73.85); d != 0 {
		t.Errorf("zero distance expected, got %f", d)
	}
	// One degree of latitude is roughly 111.2 km.
	if d := HaversineKm(0, 0, 1, 0); math.Abs(d-111.2) > 1 {
		t.Errorf("one degree latitude = %f km, want ~111.2", d)
	}
	// Pune city centre to Pimpri-Chinchwad, roughly 15 km.
	if d := HaversineKm(18.5204, 73.8567, 18.6298, 73.7997); d < 10 || d > 20 {
		t.Errorf("Pune-PCMC distance = %f km, want 10-20", d)
	}
}

func TestSortByDistance(t *testing.T) {
	items := []Candidate{
		{VendorID: "c", DistanceKm: 9},
		{VendorID: "a", DistanceKm: 1},
		{VendorID: "b", DistanceKm: 4},
	}
	SortByDistance(items, func(c Candidate) float64 { return c.DistanceKm })
	want := []string{"a", "b", "c"}
	for i, w := range want {
		if string(items[i].VendorID) != w {
			t.Fatalf("position %d = %s, want %s", i, items[i].VendorID, w)
		}
	}
}
