// Package particles runs the double-buffered particle simulation: per-frame
// advection over a sampled velocity field, trail fading, point drawing and
// the final blit. Everything except engine.go is free of GPU calls and runs
// headless.
package particles

import "math"

// Positions live in a normalized world projection, each axis encoded
// losslessly across two color channels: the high byte is floor(x*255), the
// low byte the remaining fraction. Quantization step is 1/65025 of the unit
// range. Because state buffers hold this encoding rather than color, any
// blend operation during a state-writing pass corrupts positions.

// EncodePosition packs (x, y) in [0,1] into RGBA bytes:
// R,G carry the low bytes, B,A the high bytes.
func EncodePosition(x, y float32) (r, g, b, a byte) {
	r, b = encodeAxis(x)
	g, a = encodeAxis(y)
	return
}

// DecodePosition unpacks RGBA bytes back to (x, y).
func DecodePosition(r, g, b, a byte) (x, y float32) {
	return decodeAxis(r, b), decodeAxis(g, a)
}

func encodeAxis(v float32) (lo, hi byte) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	s := float64(v) * 255
	h := math.Floor(s)
	l := math.Round((s - h) * 255)
	if l > 255 {
		h++
		l = 0
	}
	if h > 255 {
		h = 255
		l = 0
	}
	return byte(l), byte(h)
}

func decodeAxis(lo, hi byte) float32 {
	return float32(float64(lo)+255*float64(hi)) / 65025
}

// randSource draws per-particle pseudo-random numbers from a frame seed
// combined with the particle's fixed identity, so no two particles share a
// draw within a frame.
type randSource struct{ seed uint64 }

func newRandSource(frameSeed uint64) randSource {
	return randSource{seed: frameSeed}
}

// at returns a uniform draw in [0,1) for particle i with a salt selecting
// independent draws per decision.
func (rs randSource) at(i int, salt uint64) float32 {
	// splitmix64 finalizer over (seed, index, salt).
	x := rs.seed ^ (uint64(i)+1)*0x9e3779b97f4a7c15 ^ salt*0xbf58476d1ce4e5b9
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return float32(x>>40) / float32(1<<24)
}

// State is the fixed-size particle set in two alternating buffers. The
// current buffer is the read target of the next update; the sibling is its
// write target. Swap exchanges the roles by index, never by copying data.
type State struct {
	Count int

	// Side is the state-texture edge: the smallest square holding Count.
	Side int

	bufs [2][]byte
	cur  int
}

// NewState creates a particle set re-seeded with pseudo-random positions.
func NewState(count int, seed uint64) *State {
	side := 1
	for side*side < count {
		side++
	}
	s := &State{Count: count, Side: side}
	n := side * side * 4
	s.bufs[0] = make([]byte, n)
	s.bufs[1] = make([]byte, n)
	s.Seed(seed)
	return s
}

// Seed re-randomizes every particle position in both buffers.
func (s *State) Seed(seed uint64) {
	rs := newRandSource(seed)
	for i := 0; i < s.Side*s.Side; i++ {
		r, g, b, a := EncodePosition(rs.at(i, 0x51), rs.at(i, 0x52))
		for _, buf := range &s.bufs {
			buf[i*4+0] = r
			buf[i*4+1] = g
			buf[i*4+2] = b
			buf[i*4+3] = a
		}
	}
}

// Current returns the buffer holding the previous frame's positions.
func (s *State) Current() []byte { return s.bufs[s.cur] }

// Next returns the sibling buffer, the write target for this frame.
func (s *State) Next() []byte { return s.bufs[1-s.cur] }

// Swap exchanges the buffer roles at frame end.
func (s *State) Swap() { s.cur = 1 - s.cur }

// Read decodes particle i from the current buffer.
func (s *State) Read(i int) (x, y float32) {
	b := s.bufs[s.cur]
	return DecodePosition(b[i*4], b[i*4+1], b[i*4+2], b[i*4+3])
}

// Write encodes particle i into the sibling buffer.
func (s *State) Write(i int, x, y float32) {
	b := s.bufs[1-s.cur]
	b[i*4], b[i*4+1], b[i*4+2], b[i*4+3] = EncodePosition(x, y)
}
