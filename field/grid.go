// Package field assembles decoded velocity chunks into one dense,
// normalized two-channel grid usable as a simulation input.
package field

import (
	"math"

	"github.com/ctessum/geom"

	"github.com/fxi/zartigl/zarr"
)

// VelocityGrid is a dense (U, V) field spanning a geographic bounding box.
// Missing cells carry NaN. A grid is immutable once produced; viewport or
// time/depth changes rebuild it wholesale.
type VelocityGrid struct {
	U, V []float32

	Rows, Cols int
	Bounds     geom.Bounds

	// Per-channel value range over finite cells, used for normalization.
	UMin, UMax float32
	VMin, VMax float32
}

// Stitch copies each chunk's interior into its offset location within
// NaN-filled dense buffers of rows x cols, then computes the per-channel
// range. A channel with no finite values gets the default range [-1, 1].
func Stitch(uChunks, vChunks []zarr.DecodedChunk, rows, cols int, bounds geom.Bounds) *VelocityGrid {
	g := &VelocityGrid{
		U:      nanFilled(rows * cols),
		V:      nanFilled(rows * cols),
		Rows:   rows,
		Cols:   cols,
		Bounds: bounds,
	}

	for _, c := range uChunks {
		blit(g.U, cols, c)
	}
	for _, c := range vChunks {
		blit(g.V, cols, c)
	}

	g.UMin, g.UMax = finiteRange(g.U)
	g.VMin, g.VMax = finiteRange(g.V)
	return g
}

func nanFilled(n int) []float32 {
	buf := make([]float32, n)
	nan := float32(math.NaN())
	for i := range buf {
		buf[i] = nan
	}
	return buf
}

// blit copies one chunk into the dense buffer so that every source element
// lands at offset + local index. Cells falling outside the grid are
// dropped.
func blit(dst []float32, cols int, c zarr.DecodedChunk) {
	rows := len(dst) / cols
	for r := 0; r < c.Rows; r++ {
		dr := c.RowOffset + r
		if dr < 0 || dr >= rows {
			continue
		}
		for col := 0; col < c.Cols; col++ {
			dc := c.ColOffset + col
			if dc < 0 || dc >= cols {
				continue
			}
			src := r*c.Cols + col
			if src >= len(c.Data) {
				continue
			}
			dst[dr*cols+dc] = c.Data[src]
		}
	}
}

// finiteRange scans for the min and max of non-NaN values. gonum's
// floats.Min/Max propagate NaN, so the scan is explicit.
func finiteRange(buf []float32) (min, max float32) {
	min = float32(math.Inf(1))
	max = float32(math.Inf(-1))
	found := false
	for _, v := range buf {
		if math.IsNaN(float64(v)) {
			continue
		}
		found = true
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if !found {
		return -1, 1
	}
	return min, max
}

// SpeedScale returns the reference maximum for speed-magnitude coloring:
// the larger absolute endpoint across both channel ranges.
func (g *VelocityGrid) SpeedScale() float32 {
	s := maxAbs(g.UMin, g.UMax)
	if vs := maxAbs(g.VMin, g.VMax); vs > s {
		s = vs
	}
	if s == 0 {
		return 1
	}
	return s
}

func maxAbs(a, b float32) float32 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if a > b {
		return a
	}
	return b
}

// Sample returns the (U, V) velocity at a geographic position by bilinear
// interpolation. ok is false outside the bounds or where all contributing
// cells are NaN; a NaN corner falls back to the nearest cell.
func (g *VelocityGrid) Sample(lon, lat float64) (u, v float32, ok bool) {
	w := g.Bounds.Max.X - g.Bounds.Min.X
	h := g.Bounds.Max.Y - g.Bounds.Min.Y
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	fx := (lon - g.Bounds.Min.X) / w * float64(g.Cols-1)
	fy := (lat - g.Bounds.Min.Y) / h * float64(g.Rows-1)
	if fx < 0 || fy < 0 || fx > float64(g.Cols-1) || fy > float64(g.Rows-1) {
		return 0, 0, false
	}

	x0 := int(fx)
	y0 := int(fy)
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 > g.Cols-1 {
		x1 = g.Cols - 1
	}
	if y1 > g.Rows-1 {
		y1 = g.Rows - 1
	}
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))

	u, uok := bilinear(g.U, g.Cols, x0, y0, x1, y1, tx, ty)
	v, vok := bilinear(g.V, g.Cols, x0, y0, x1, y1, tx, ty)
	return u, v, uok && vok
}

func bilinear(buf []float32, cols, x0, y0, x1, y1 int, tx, ty float32) (float32, bool) {
	c00 := buf[y0*cols+x0]
	c10 := buf[y0*cols+x1]
	c01 := buf[y1*cols+x0]
	c11 := buf[y1*cols+x1]

	if isnan(c00) || isnan(c10) || isnan(c01) || isnan(c11) {
		// Nearest-neighbor fallback near coastlines and fill regions.
		n := nearest(c00, c10, c01, c11, tx, ty)
		if isnan(n) {
			return 0, false
		}
		return n, true
	}

	top := c00 + (c10-c00)*tx
	bot := c01 + (c11-c01)*tx
	return top + (bot-top)*ty, true
}

func nearest(c00, c10, c01, c11, tx, ty float32) float32 {
	v := c00
	if tx >= 0.5 {
		v = c10
	}
	if ty >= 0.5 {
		v = c01
		if tx >= 0.5 {
			v = c11
		}
	}
	if !isnan(v) {
		return v
	}
	for _, c := range [4]float32{c00, c10, c01, c11} {
		if !isnan(c) {
			return c
		}
	}
	return v
}

func isnan(v float32) bool { return v != v }
