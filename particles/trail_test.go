package particles

import "testing"

func TestFadeReachesExactZero(t *testing.T) {
	src := NewTrail(2, 2)
	dst := NewTrail(2, 2)
	for i := range src.Pix {
		src.Pix[i] = 255
	}

	// Truncating fade must hit exact zero in bounded steps; a rounding
	// fade would stall at 1 forever for opacity near 1.
	const opacity = 0.9
	steps := 0
	for ; steps < 200; steps++ {
		Fade(dst, src, opacity)
		src, dst = dst, src
		if src.Pix[0] == 0 {
			break
		}
	}
	if src.Pix[0] != 0 {
		t.Fatalf("channel never reached zero, still %d after %d steps", src.Pix[0], steps)
	}
	// floor(n * 0.9) from 255 reaches 0 in well under 100 steps.
	if steps >= 100 {
		t.Errorf("took %d steps to fade out, want < 100", steps)
	}
}

func TestFadeTruncates(t *testing.T) {
	src := NewTrail(1, 1)
	dst := NewTrail(1, 1)
	src.Pix[0] = 10
	Fade(dst, src, 0.96)
	// 10 * 0.96 = 9.6 truncates to 9, never rounds up.
	if dst.Pix[0] != 9 {
		t.Errorf("faded value = %d, want 9", dst.Pix[0])
	}
}

func TestDrawPointAdditiveSaturates(t *testing.T) {
	tr := NewTrail(4, 4)
	tr.DrawPoint(1, 1, 1, 200, 10, 0, 255)
	tr.DrawPoint(1, 1, 1, 200, 10, 0, 255)

	i := (1*4 + 1) * 4
	if tr.Pix[i] != 255 {
		t.Errorf("R = %d, want saturated 255", tr.Pix[i])
	}
	if tr.Pix[i+1] != 20 {
		t.Errorf("G = %d, want additive 20", tr.Pix[i+1])
	}
	if tr.Pix[i+3] != 255 {
		t.Errorf("A = %d, want 255", tr.Pix[i+3])
	}
}

func TestDrawPointSize(t *testing.T) {
	tr := NewTrail(8, 8)
	tr.DrawPoint(4, 4, 2, 0, 0, 0, 255)

	lit := 0
	for i := 3; i < len(tr.Pix); i += 4 {
		if tr.Pix[i] != 0 {
			lit++
		}
	}
	if lit != 4 {
		t.Errorf("lit pixels = %d, want 2x2 = 4", lit)
	}
}

func TestDrawPointClipsAtEdges(t *testing.T) {
	tr := NewTrail(4, 4)
	tr.DrawPoint(0, 0, 3, 0, 0, 0, 255)
	tr.DrawPoint(3, 3, 3, 0, 0, 0, 255)
	// No panic and no wraparound; corners plus their in-range neighbors lit.
	if tr.Pix[3] == 0 {
		t.Error("corner pixel not drawn")
	}
}

func TestClear(t *testing.T) {
	tr := NewTrail(2, 2)
	for i := range tr.Pix {
		tr.Pix[i] = 77
	}
	tr.Clear()
	for i, b := range tr.Pix {
		if b != 0 {
			t.Fatalf("Pix[%d] = %d after Clear", i, b)
		}
	}
}
