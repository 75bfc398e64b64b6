package proj

import (
	"math"
	"testing"
)

func TestToWorldKnownPoints(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		x, y     float64
	}{
		{"null island", 0, 0, 0.5, 0.5},
		{"antimeridian west", -180, 0, 0, 0.5},
		{"antimeridian east", 180, 0, 1, 0.5},
		{"north limit", 0, MaxLat, 0.5, 0},
		{"south limit", 0, -MaxLat, 0.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := ToWorld(tt.lon, tt.lat)
			if math.Abs(x-tt.x) > 1e-6 || math.Abs(y-tt.y) > 1e-6 {
				t.Errorf("ToWorld(%v, %v) = (%v, %v), want (%v, %v)",
					tt.lon, tt.lat, x, y, tt.x, tt.y)
			}
		})
	}
}

func TestRoundtrip(t *testing.T) {
	tests := []struct {
		lon, lat float64
	}{
		{0, 0},
		{12.5, 41.9},
		{-70.6, -33.4},
		{179, 84},
		{-179, -84},
	}
	for _, tt := range tests {
		x, y := ToWorld(tt.lon, tt.lat)
		lon, lat := ToLonLat(x, y)
		if math.Abs(lon-tt.lon) > 1e-9 || math.Abs(lat-tt.lat) > 1e-9 {
			t.Errorf("roundtrip (%v, %v) -> (%v, %v)", tt.lon, tt.lat, lon, lat)
		}
	}
}

func TestLatitudeClamped(t *testing.T) {
	_, yPole := ToWorld(0, 90)
	_, yLimit := ToWorld(0, MaxLat)
	if yPole != yLimit {
		t.Errorf("lat 90 projects to %v, want clamped to %v", yPole, yLimit)
	}
	_, ySouth := ToWorld(0, -90)
	if math.Abs(ySouth-1) > 1e-6 {
		t.Errorf("lat -90 projects to %v, want ~1", ySouth)
	}
}

func TestYGrowsSouthward(t *testing.T) {
	_, yNorth := ToWorld(0, 45)
	_, ySouth := ToWorld(0, -45)
	if yNorth >= 0.5 || ySouth <= 0.5 {
		t.Errorf("yNorth = %v, ySouth = %v; y must grow southward", yNorth, ySouth)
	}
}
