package particles

import (
	"math"
	"sort"
)

// RampColor is one RGBA stop color.
type RampColor struct {
	R, G, B, A byte
}

// Ramp is a 256-entry lookup from normalized speed magnitude to color,
// built from a sparse stop → color mapping.
type Ramp struct {
	lut [256]RampColor
}

// DefaultStops is the blue → yellow → red ocean-current ramp.
var DefaultStops = map[float64]RampColor{
	0.0:  {R: 58, G: 123, B: 213, A: 255},
	0.25: {R: 61, G: 201, B: 185, A: 255},
	0.5:  {R: 233, G: 222, B: 90, A: 255},
	0.75: {R: 243, G: 144, B: 63, A: 255},
	1.0:  {R: 235, G: 60, B: 75, A: 255},
}

// NewRamp interpolates the stops into a dense lookup table. Positions are
// clamped to [0, 1]; a single stop yields a constant ramp.
func NewRamp(stops map[float64]RampColor) *Ramp {
	r := &Ramp{}
	if len(stops) == 0 {
		stops = DefaultStops
	}

	pos := make([]float64, 0, len(stops))
	for p := range stops {
		pos = append(pos, math.Min(1, math.Max(0, p)))
	}
	sort.Float64s(pos)

	for i := 0; i < 256; i++ {
		t := float64(i) / 255
		r.lut[i] = sampleStops(stops, pos, t)
	}
	return r
}

func sampleStops(stops map[float64]RampColor, pos []float64, t float64) RampColor {
	if t <= pos[0] {
		return stops[pos[0]]
	}
	if t >= pos[len(pos)-1] {
		return stops[pos[len(pos)-1]]
	}
	hi := sort.SearchFloat64s(pos, t)
	lo := hi - 1
	p0, p1 := pos[lo], pos[hi]
	c0, c1 := stops[p0], stops[p1]
	f := (t - p0) / (p1 - p0)
	return RampColor{
		R: lerpByte(c0.R, c1.R, f),
		G: lerpByte(c0.G, c1.G, f),
		B: lerpByte(c0.B, c1.B, f),
		A: lerpByte(c0.A, c1.A, f),
	}
}

func lerpByte(a, b byte, f float64) byte {
	return byte(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// At looks up the color for a normalized speed in [0, 1].
func (r *Ramp) At(t float32) RampColor {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return r.lut[int(t*255)]
}
