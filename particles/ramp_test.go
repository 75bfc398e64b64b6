package particles

import "testing"

func TestRampEndpoints(t *testing.T) {
	r := NewRamp(DefaultStops)

	if got, want := r.At(0), DefaultStops[0.0]; got != want {
		t.Errorf("At(0) = %+v, want %+v", got, want)
	}
	if got, want := r.At(1), DefaultStops[1.0]; got != want {
		t.Errorf("At(1) = %+v, want %+v", got, want)
	}
}

func TestRampClampsInput(t *testing.T) {
	r := NewRamp(DefaultStops)
	if r.At(-0.5) != r.At(0) {
		t.Error("negative input must clamp to the low endpoint")
	}
	if r.At(3) != r.At(1) {
		t.Error("input above one must clamp to the high endpoint")
	}
}

func TestRampInterpolatesBetweenStops(t *testing.T) {
	stops := map[float64]RampColor{
		0.0: {R: 0, G: 0, B: 0, A: 255},
		1.0: {R: 200, G: 100, B: 50, A: 255},
	}
	r := NewRamp(stops)
	mid := r.At(0.5)
	if mid.R < 95 || mid.R > 105 {
		t.Errorf("mid R = %d, want ~100", mid.R)
	}
	if mid.G < 45 || mid.G > 55 {
		t.Errorf("mid G = %d, want ~50", mid.G)
	}
}

func TestRampSingleStop(t *testing.T) {
	stops := map[float64]RampColor{0.5: {R: 9, G: 9, B: 9, A: 255}}
	r := NewRamp(stops)
	for _, v := range []float32{0, 0.5, 1} {
		if r.At(v).R != 9 {
			t.Errorf("At(%v).R = %d, want constant 9", v, r.At(v).R)
		}
	}
}

func TestRampEmptyFallsBackToDefault(t *testing.T) {
	r := NewRamp(nil)
	if r.At(0) != DefaultStops[0.0] {
		t.Error("empty stops must fall back to the default ramp")
	}
}
