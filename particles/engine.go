package particles

import (
	"image/color"
	"math"

	"github.com/ctessum/geom"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/fxi/zartigl/proj"
)

// Engine owns the GPU-facing particle pipeline: the double-buffered particle
// state, the double-buffered trail images, and the screen texture the trail
// is blitted from. Every frame advances through the same four ordered
// stages: update, fade, draw, blit. All methods must be called from the
// host's single frame callback context.
type Engine struct {
	W, H int

	state  *State
	trails [2]*Trail
	cur    int // index of the previous frame's trail

	field *FieldTexture
	ramp  *Ramp

	speedFactor  float32
	fadeOpacity  float32
	dropRate     float32
	dropRateBump float32
	pointSize    int

	tex     rl.Texture2D
	scratch []color.RGBA
	hasTex  bool

	frame uint64
	seed  uint64
}

// Params are the initial engine controls.
type Params struct {
	Count        int
	SpeedFactor  float32
	FadeOpacity  float32
	DropRate     float32
	DropRateBump float32
	PointSize    int
	Seed         uint64
}

// NewEngine creates an engine for a w x h output target. GPU resources are
// not touched until Attach.
func NewEngine(w, h int, p Params) *Engine {
	e := &Engine{
		W:            w,
		H:            h,
		state:        NewState(p.Count, p.Seed),
		ramp:         NewRamp(nil),
		speedFactor:  p.SpeedFactor,
		fadeOpacity:  p.FadeOpacity,
		dropRate:     p.DropRate,
		dropRateBump: p.DropRateBump,
		pointSize:    p.PointSize,
		seed:         p.Seed,
	}
	e.trails[0] = NewTrail(w, h)
	e.trails[1] = NewTrail(w, h)
	return e
}

// Attach creates the screen texture. Requires a live drawing context.
func (e *Engine) Attach() {
	img := rl.GenImageColor(e.W, e.H, rl.Blank)
	e.tex = rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	e.scratch = make([]color.RGBA, e.W*e.H)
	e.hasTex = true
}

// Detach releases GPU resources.
func (e *Engine) Detach() {
	if e.hasTex {
		rl.UnloadTexture(e.tex)
		e.hasTex = false
	}
}

// SetField swaps in a freshly stitched velocity field. Applied atomically
// between frames by the orchestrator.
func (e *Engine) SetField(ft *FieldTexture) { e.field = ft }

// HasField reports whether a field has been loaded at least once.
func (e *Engine) HasField() bool { return e.field != nil }

// Parameter setters take effect on the next frame, without a reset.

func (e *Engine) SetSpeedFactor(x float32)  { e.speedFactor = x }
func (e *Engine) SetFadeOpacity(x float32)  { e.fadeOpacity = x }
func (e *Engine) SetDropRate(x float32)     { e.dropRate = x }
func (e *Engine) SetDropRateBump(x float32) { e.dropRateBump = x }
func (e *Engine) SetPointSize(n int)        { e.pointSize = n }

// SetColorRamp rebuilds the speed-color lookup from stop → color mappings.
func (e *Engine) SetColorRamp(stops map[float64]RampColor) {
	e.ramp = NewRamp(stops)
}

// SetParticleCount reinitializes the state buffers with fresh random
// positions and clears both trails.
func (e *Engine) SetParticleCount(n int) {
	if n < 1 {
		n = 1
	}
	e.state = NewState(n, e.seed+e.frame)
	e.Reset()
}

// Reset reseeds particle positions and clears both trail buffers. Used on
// time/depth changes.
func (e *Engine) Reset() {
	e.state.Seed(e.seed + e.frame)
	e.trails[0].Clear()
	e.trails[1].Clear()
}

// Frame runs the four ordered stages for the viewport given in world
// coordinates. With no field loaded it renders nothing. The update stage
// writes position encoding, so no blend mode may be active until the trail
// stages; only the final blit runs under the host's alpha blending.
func (e *Engine) Frame(view geom.Bounds) {
	if e.field == nil || !e.hasTex {
		return
	}
	e.frame++

	// Stage 1: update. Pure state encoding; blending disabled by
	// construction (no draw calls are issued here).
	Update(e.state, e.field, view, UpdateParams{
		SpeedFactor:  e.speedFactor,
		DropRate:     e.dropRate,
		DropRateBump: e.dropRateBump,
	}, e.seed^e.frame*0x9e3779b97f4a7c15)

	// Stage 2: fade the previous trail into the sibling.
	prev := e.trails[e.cur]
	next := e.trails[1-e.cur]
	Fade(next, prev, e.fadeOpacity)

	// Stage 3: draw particles at their just-written positions, colored by
	// normalized speed, composited additively onto the faded trail.
	e.drawParticles(next, view)

	// Stage 4: blit the trail to the output target, then swap both
	// double-buffer pairs so next frame reads what was just written.
	// Blending is legitimate from here on: the channels are color now.
	copyToScratch(e.scratch, next.Pix)
	rl.UpdateTexture(e.tex, e.scratch)
	rl.BeginBlendMode(rl.BlendAlpha)
	rl.DrawTexture(e.tex, 0, 0, rl.White)
	rl.EndBlendMode()

	e.cur = 1 - e.cur
	e.state.Swap()
}

func (e *Engine) drawParticles(t *Trail, view geom.Bounds) {
	viewW := view.Max.X - view.Min.X
	viewH := view.Max.Y - view.Min.Y
	if viewW <= 0 || viewH <= 0 {
		return
	}

	buf := e.state.Next()
	for i := 0; i < e.state.Count; i++ {
		x, y := DecodePosition(buf[i*4], buf[i*4+1], buf[i*4+2], buf[i*4+3])

		sx := int((float64(x) - view.Min.X) / viewW * float64(t.W))
		sy := int((float64(y) - view.Min.Y) / viewH * float64(t.H))
		if sx < 0 || sx >= t.W || sy < 0 || sy >= t.H {
			continue
		}

		// Every particle draws, including ones just recycled onto a
		// fill cell; those take the bottom of the ramp.
		lon, lat := proj.ToLonLat(float64(x), float64(y))
		var speedT float32
		if u, v, ok := e.field.Sample(lon, lat); ok && e.field.SpeedScale > 0 {
			speedT = float32(math.Hypot(float64(u), float64(v))) / e.field.SpeedScale
		}
		c := e.ramp.At(speedT)
		t.DrawPoint(sx, sy, e.pointSize, c.R, c.G, c.B, c.A)
	}
}

func copyToScratch(dst []color.RGBA, src []byte) {
	for i := range dst {
		dst[i] = color.RGBA{
			R: src[i*4+0],
			G: src[i*4+1],
			B: src[i*4+2],
			A: src[i*4+3],
		}
	}
}
