package particles

// Trail is one screen-sized RGBA accumulator image. Two trails double-buffer
// the fade stage: each frame reads the previous frame's image and writes the
// faded copy into the sibling.
type Trail struct {
	W, H int
	Pix  []byte
}

// NewTrail allocates a transparent trail image.
func NewTrail(w, h int) *Trail {
	return &Trail{W: w, H: h, Pix: make([]byte, w*h*4)}
}

// Clear resets the image to fully transparent.
func (t *Trail) Clear() {
	for i := range t.Pix {
		t.Pix[i] = 0
	}
}

// Fade writes src into dst at reduced opacity. The per-channel step
// truncates to the integer grid, so a channel at value n becomes
// floor(n*opacity): repeated fading reaches exact zero instead of
// asymptotically stalling one quantization step above it.
func Fade(dst, src *Trail, opacity float32) {
	for i, b := range src.Pix {
		dst.Pix[i] = byte(float32(b) * opacity)
	}
}

// DrawPoint composites a size x size particle square additively at pixel
// center (cx, cy), saturating per channel.
func (t *Trail) DrawPoint(cx, cy, size int, r, g, b, a byte) {
	if size < 1 {
		size = 1
	}
	half := size / 2
	for py := cy - half; py < cy-half+size; py++ {
		if py < 0 || py >= t.H {
			continue
		}
		for px := cx - half; px < cx-half+size; px++ {
			if px < 0 || px >= t.W {
				continue
			}
			i := (py*t.W + px) * 4
			t.Pix[i+0] = addSat(t.Pix[i+0], r)
			t.Pix[i+1] = addSat(t.Pix[i+1], g)
			t.Pix[i+2] = addSat(t.Pix[i+2], b)
			t.Pix[i+3] = addSat(t.Pix[i+3], a)
		}
	}
}

func addSat(a, b byte) byte {
	s := uint16(a) + uint16(b)
	if s > 255 {
		return 255
	}
	return byte(s)
}
