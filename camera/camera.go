// Package camera provides the host map camera: pan and zoom over the
// normalized Web Mercator world square.
package camera

import (
	"github.com/ctessum/geom"

	"github.com/fxi/zartigl/proj"
)

// Camera controls the viewport into the world square [0,1]^2.
type Camera struct {
	// Position is the camera center in world coordinates.
	X, Y float64

	// Zoom level (1.0 = the world width spans the viewport width).
	Zoom float64

	// Viewport dimensions (screen size, pixels).
	ViewportW, ViewportH float64

	// Zoom constraints.
	MinZoom, MaxZoom float64
}

// New creates a camera centered on the world at 1:1 zoom.
func New(viewportW, viewportH float64) *Camera {
	return &Camera{
		X:         0.5,
		Y:         0.5,
		Zoom:      1.0,
		ViewportW: viewportW,
		ViewportH: viewportH,
		MinZoom:   1.0,
		MaxZoom:   64.0,
	}
}

// scale returns screen pixels per world unit.
func (c *Camera) scale() float64 {
	return c.ViewportW * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float64) (sx, sy float64) {
	s := c.scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 + (wy-c.Y)*s
	return
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float64) (wx, wy float64) {
	s := c.scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y + (sy-c.ViewportH/2)/s
	return
}

// Pan moves the camera by a screen-pixel delta.
func (c *Camera) Pan(dxPix, dyPix float64) {
	s := c.scale()
	c.X -= dxPix / s
	c.Y -= dyPix / s
	c.clamp()
}

// ZoomAt scales the zoom by factor, keeping the world point under the
// given screen position fixed.
func (c *Camera) ZoomAt(factor, sx, sy float64) {
	wx, wy := c.ScreenToWorld(sx, sy)

	c.Zoom *= factor
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	if c.Zoom > c.MaxZoom {
		c.Zoom = c.MaxZoom
	}

	// Re-anchor so (wx, wy) stays under (sx, sy).
	s := c.scale()
	c.X = wx - (sx-c.ViewportW/2)/s
	c.Y = wy - (sy-c.ViewportH/2)/s
	c.clamp()
}

// clamp keeps the visible area inside the world square.
func (c *Camera) clamp() {
	halfW := c.ViewportW / c.scale() / 2
	halfH := c.ViewportH / c.scale() / 2
	if halfW > 0.5 {
		halfW = 0.5
	}
	if halfH > 0.5 {
		halfH = 0.5
	}
	c.X = clampf(c.X, halfW, 1-halfW)
	c.Y = clampf(c.Y, halfH, 1-halfH)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ViewBounds returns the visible rectangle in world coordinates, clipped
// to the world square.
func (c *Camera) ViewBounds() geom.Bounds {
	halfW := c.ViewportW / c.scale() / 2
	halfH := c.ViewportH / c.scale() / 2
	return geom.Bounds{
		Min: geom.Point{X: clampf(c.X-halfW, 0, 1), Y: clampf(c.Y-halfH, 0, 1)},
		Max: geom.Point{X: clampf(c.X+halfW, 0, 1), Y: clampf(c.Y+halfH, 0, 1)},
	}
}

// GeoBounds returns the visible geographic rectangle (Min = west/south,
// Max = east/north), clamped to valid longitude and Mercator latitude
// ranges. No antimeridian wrapping.
func (c *Camera) GeoBounds() geom.Bounds {
	wb := c.ViewBounds()
	// World y grows southward, so the top edge is the north edge.
	west, north := proj.ToLonLat(wb.Min.X, wb.Min.Y)
	east, south := proj.ToLonLat(wb.Max.X, wb.Max.Y)
	return geom.Bounds{
		Min: geom.Point{X: clampf(west, -180, 180), Y: clampf(south, -90, 90)},
		Max: geom.Point{X: clampf(east, -180, 180), Y: clampf(north, -90, 90)},
	}
}
