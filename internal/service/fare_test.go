package service

import (
	"math"
	"testing"
)

func TestQuote_IdenticalCoordinates_YieldsBaseFare(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		lat, lng float64
	}{
		{"origin", 0, 0},
		{"bangalore", 12.9716, 77.5946},
		{"southern hemisphere", -33.8688, 151.2093},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			distance, fare := Quote(tc.lat, tc.lng, tc.lat, tc.lng)
			if distance != 0 {
				t.Errorf("expected zero distance, got %f", distance)
			}
			if fare != BaseFare {
				t.Errorf("expected base fare %f, got %f", BaseFare, fare)
			}
		})
	}
}

func TestQuote_OneDegreeAlongEquator(t *testing.T) {
	t.Parallel()

	// One degree of longitude at the equator is ~111.2 km, so the per-km
	// rate dominates the base fare.
	distance, fare := Quote(0, 0, 0, 1)

	if math.Abs(distance-111.19) > 0.5 {
		t.Errorf("expected ~111.19 km, got %f", distance)
	}

	expected := PerKmRate * distance
	if math.Abs(fare-expected) > 1e-9 {
		t.Errorf("expected fare %f, got %f", expected, fare)
	}
	if fare <= BaseFare {
		t.Errorf("expected fare above base fare, got %f", fare)
	}
}

func TestCalculateFare_FloorsAtBaseFare(t *testing.T) {
	t.Parallel()

	if fare := CalculateFare(1); fare != BaseFare {
		t.Errorf("short trip should cost the base fare, got %f", fare)
	}
	if fare := CalculateFare(10); fare != 150 {
		t.Errorf("expected 150 for 10 km, got %f", fare)
	}
}

func TestCalculateFare_MonotonicInDistance(t *testing.T) {
	t.Parallel()

	prev := 0.0
	for km := 0.0; km <= 500; km += 2.5 {
		fare := CalculateFare(km)
		if fare < prev {
			t.Fatalf("fare decreased from %f to %f at %f km", prev, fare, km)
		}
		prev = fare
	}
}

func TestHaversineKm_SymmetricAndNonNegative(t *testing.T) {
	t.Parallel()

	ab := HaversineKm(12.9716, 77.5946, 12.2958, 76.6394)
	ba := HaversineKm(12.2958, 76.6394, 12.9716, 77.5946)

	if ab < 0 {
		t.Errorf("distance must be non-negative, got %f", ab)
	}
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", ab, ba)
	}
}
