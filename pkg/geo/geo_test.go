package geo

import (
	"math"
	"testing"
)

func TestHaversineKm_SamePoint(t *testing.T) {
	got := HaversineKm(4.6097, -74.0817, 4.6097, -74.0817)
	if got != 0 {
		t.Errorf("HaversineKm(same point) = %v, want 0", got)
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Plaza de Bolívar to El Dorado airport (~12.5 km)
	got := HaversineKm(4.5981, -74.0760, 4.7016, -74.1469)
	if got < 11.0 || got > 16.0 {
		t.Errorf("HaversineKm(Bolívar→El Dorado) = %.2f km, want between 11 and 16", got)
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := HaversineKm(4.60, -74.08, 4.70, -74.14)
	b := HaversineKm(4.70, -74.14, 4.60, -74.08)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("HaversineKm not symmetric: %v vs %v", a, b)
	}
}

func TestValidCoordinate(t *testing.T) {
	cases := []struct {
		name     string
		lat, lon float64
		want     bool
	}{
		{"origin", 0, 0, true},
		{"bogota", 4.6097, -74.0817, true},
		{"lat out of range", 91, 0, false},
		{"lon out of range", 0, 181, false},
		{"nan lat", math.NaN(), 0, false},
		{"inf lon", 0, math.Inf(1), false},
	}
	for _, tc := range cases {
		if got := ValidCoordinate(tc.lat, tc.lon); got != tc.want {
			t.Errorf("%s: ValidCoordinate(%v, %v) = %v, want %v", tc.name, tc.lat, tc.lon, got, tc.want)
		}
	}
}
