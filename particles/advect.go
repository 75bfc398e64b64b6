package particles

import (
	"math"

	"github.com/ctessum/geom"

	"github.com/fxi/zartigl/proj"
)

// UpdateParams are the advection controls. All take effect on the next
// frame without a reset.
type UpdateParams struct {
	// SpeedFactor scales the fixed per-frame integration step.
	SpeedFactor float32
	// DropRate is the base per-frame recycle probability.
	DropRate float32
	// DropRateBump adds recycle probability proportional to particle speed.
	DropRateBump float32
}

// baseStep is the fixed time-scaling factor applied to de-normalized
// velocities, in world units per (m/s) per frame at SpeedFactor 1.
const baseStep = 3.5e-5

// Update advances every particle one frame: sample, integrate, maybe
// recycle, encode into the sibling buffer. view is the current viewport in
// world coordinates; recycled particles respawn uniformly inside it.
// This is the state-encoding pass: it must run with blending disabled,
// since the written bytes are position encoding, not color.
func Update(s *State, ft *FieldTexture, view geom.Bounds, p UpdateParams, frameSeed uint64) {
	rs := newRandSource(frameSeed)
	viewW := float32(view.Max.X - view.Min.X)
	viewH := float32(view.Max.Y - view.Min.Y)

	for i := 0; i < s.Count; i++ {
		x, y := s.Read(i)
		lon, lat := proj.ToLonLat(float64(x), float64(y))

		u, v, ok := ft.Sample(lon, lat)

		// Mercator stretches east-west distances by 1/cos(lat) toward
		// the poles; both the zonal step and the speed-weighted drop
		// term scale with the stretch so recycling tracks the visual
		// speed, not the geographic one.
		distortion := float32(1 / math.Cos(lat*math.Pi/180))

		var speedT float32
		nx, ny := x, y
		if ok {
			if ft.SpeedScale > 0 {
				speedT = float32(math.Hypot(float64(u), float64(v))) / ft.SpeedScale
			}
			k := baseStep * p.SpeedFactor
			nx = x + u*k*distortion
			ny = y - v*k
		}

		drop := p.DropRate + speedT*distortion*p.DropRateBump
		recycle := !ok ||
			rs.at(i, 0x01) < drop ||
			outsideView(nx, ny, view)

		if recycle {
			nx = float32(view.Min.X) + rs.at(i, 0x02)*viewW
			ny = float32(view.Min.Y) + rs.at(i, 0x03)*viewH
		}

		s.Write(i, nx, ny)
	}
}

func outsideView(x, y float32, view geom.Bounds) bool {
	return float64(x) < view.Min.X || float64(x) > view.Max.X ||
		float64(y) < view.Min.Y || float64(y) > view.Max.Y
}
