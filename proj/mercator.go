// Package proj converts between geographic coordinates and the normalized
// Web Mercator world square used for particle positions and the camera.
package proj

import "math"

// MaxLat bounds the Mercator projection; latitudes beyond it are clamped.
const MaxLat = 85.051129

// ToWorld projects geographic coordinates into [0,1]^2; y grows southward
// as in map tiles.
func ToWorld(lon, lat float64) (x, y float64) {
	if lat > MaxLat {
		lat = MaxLat
	}
	if lat < -MaxLat {
		lat = -MaxLat
	}
	x = (lon + 180) / 360
	siny := math.Sin(lat * math.Pi / 180)
	y = 0.5 - math.Log((1+siny)/(1-siny))/(4*math.Pi)
	return
}

// ToLonLat is the inverse projection.
func ToLonLat(x, y float64) (lon, lat float64) {
	lon = x*360 - 180
	lat = (2*math.Atan(math.Exp((0.5-y)*2*math.Pi)) - math.Pi/2) * 180 / math.Pi
	return
}
