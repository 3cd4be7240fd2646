package geo

import (
	"testing"

	"mealroute/internal/model"
)

func TestDistanceMatrixSymmetricZeroDiagonal(t *testing.T) {
	points := []model.Point{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}, {Lat: 0, Lng: 2}}
	m := DistanceMatrix(points)
	for i := range m {
		if m[i][i] != 0 {
			t.Fatalf("diagonal %d = %v", i, m[i][i])
		}
		for j := range m {
			if m[i][j] != m[j][i] {
				t.Fatalf("asymmetric at %d,%d", i, j)
			}
		}
	}
	if m[0][1] != 100 {
		t.Fatalf("unit step = %v, want 100 km", m[0][1])
	}
	if m[0][2] != 200 {
		t.Fatalf("two steps = %v, want 200 km", m[0][2])
	}
}

func TestTravelTimeMatrixScalesBySpeed(t *testing.T) {
	points := []model.Point{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 0}}
	tt := TravelTimeMatrix(DistanceMatrix(points), 600)
	if tt[0][1] != 10 {
		t.Fatalf("travel = %v min, want 10", tt[0][1])
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	a := model.Point{Lat: 0, Lng: 0}
	b := model.Point{Lat: 0, Lng: 1}
	d := Haversine(a, b)
	// one degree of longitude at the equator is about 111 km
	if d < 110_000 || d > 112_000 {
		t.Fatalf("haversine = %v", d)
	}
}
