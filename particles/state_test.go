package particles

import (
	"math"
	"testing"
)

func TestEncodeDecodeRoundtrip(t *testing.T) {
	// Quantization step of the two-byte axis encoding.
	const step = 1.0 / 65025

	values := []float32{0, 1, 0.5, 0.25, 0.123456, 0.999, 1.0 / 3}
	for _, v := range values {
		r, g, b, a := EncodePosition(v, v)
		x, y := DecodePosition(r, g, b, a)
		if math.Abs(float64(x-v)) > step/2+1e-9 {
			t.Errorf("x roundtrip %v -> %v, error beyond half step", v, x)
		}
		if math.Abs(float64(y-v)) > step/2+1e-9 {
			t.Errorf("y roundtrip %v -> %v, error beyond half step", v, y)
		}
	}
}

func TestEncodeExactGridPoints(t *testing.T) {
	// Multiples of the quantization step roundtrip exactly.
	for _, n := range []int{0, 1, 255, 256, 32512, 65024, 65025} {
		v := float32(float64(n) / 65025)
		lo, hi := encodeAxis(v)
		if got := decodeAxis(lo, hi); got != v {
			t.Errorf("grid point %d: %v -> %v", n, v, got)
		}
	}
}

func TestEncodeClamps(t *testing.T) {
	lo, hi := encodeAxis(-0.5)
	if lo != 0 || hi != 0 {
		t.Errorf("encodeAxis(-0.5) = (%d, %d), want (0, 0)", lo, hi)
	}
	lo, hi = encodeAxis(1.5)
	if decodeAxis(lo, hi) != 1 {
		t.Errorf("encodeAxis(1.5) decodes to %v, want 1", decodeAxis(lo, hi))
	}
}

func TestRandSourceDeterministic(t *testing.T) {
	a := newRandSource(42)
	b := newRandSource(42)
	for i := 0; i < 100; i++ {
		if a.at(i, 0x01) != b.at(i, 0x01) {
			t.Fatalf("draw %d differs for equal seeds", i)
		}
	}

	c := newRandSource(43)
	same := 0
	for i := 0; i < 100; i++ {
		if a.at(i, 0x01) == c.at(i, 0x01) {
			same++
		}
	}
	if same > 2 {
		t.Errorf("%d/100 draws collide across seeds", same)
	}
}

func TestRandSourceRange(t *testing.T) {
	rs := newRandSource(7)
	for i := 0; i < 1000; i++ {
		v := rs.at(i, 0x02)
		if v < 0 || v >= 1 {
			t.Fatalf("draw %d = %v, want [0, 1)", i, v)
		}
	}
}

func TestRandSourceSaltIndependence(t *testing.T) {
	rs := newRandSource(7)
	same := 0
	for i := 0; i < 100; i++ {
		if rs.at(i, 0x01) == rs.at(i, 0x02) {
			same++
		}
	}
	if same > 2 {
		t.Errorf("%d/100 draws collide across salts", same)
	}
}

func TestStateSideCoversCount(t *testing.T) {
	tests := []struct {
		count int
		side  int
	}{
		{1, 1},
		{4, 2},
		{5, 3},
		{16384, 128},
		{16385, 129},
	}
	for _, tt := range tests {
		s := NewState(tt.count, 1)
		if s.Side != tt.side {
			t.Errorf("NewState(%d).Side = %d, want %d", tt.count, s.Side, tt.side)
		}
		if len(s.Current()) != tt.side*tt.side*4 {
			t.Errorf("buffer len = %d, want %d", len(s.Current()), tt.side*tt.side*4)
		}
	}
}

func TestStateSwapExchangesRoles(t *testing.T) {
	s := NewState(4, 1)
	cur := &s.Current()[0]
	next := &s.Next()[0]
	s.Swap()
	if &s.Current()[0] != next || &s.Next()[0] != cur {
		t.Error("Swap must exchange buffer roles without copying")
	}
}

func TestStateReadWrite(t *testing.T) {
	s := NewState(4, 1)
	s.Write(2, 0.25, 0.75)
	s.Swap()
	x, y := s.Read(2)
	if math.Abs(float64(x)-0.25) > 1e-4 || math.Abs(float64(y)-0.75) > 1e-4 {
		t.Errorf("Read(2) = (%v, %v), want (0.25, 0.75)", x, y)
	}
}

func TestSeedPopulatesBothBuffers(t *testing.T) {
	s := NewState(16, 99)
	for name, buf := range map[string][]byte{"current": s.Current(), "next": s.Next()} {
		all := byte(0)
		for _, b := range buf {
			all |= b
		}
		if all == 0 {
			t.Errorf("%s buffer entirely zero after seed", name)
		}
	}
}
