package particles

import (
	"math"

	"github.com/ctessum/geom"

	"github.com/fxi/zartigl/field"
)

// FieldTexture is the velocity grid quantized to RGBA bytes the way it is
// uploaded for sampling: U in R, V in G, each mapped from the channel's
// [min, max] range onto [0, 255]; alpha zero marks fill cells. Sampling
// de-normalizes through the stored ranges, so simulated velocities carry
// the 8-bit quantization of the texture path, not raw float precision.
type FieldTexture struct {
	W, H   int
	Pix    []byte
	Bounds geom.Bounds

	UMin, UMax float32
	VMin, VMax float32

	// SpeedScale is the reference maximum for speed coloring.
	SpeedScale float32
}

// NewFieldTexture quantizes a stitched grid.
func NewFieldTexture(g *field.VelocityGrid) *FieldTexture {
	ft := &FieldTexture{
		W:          g.Cols,
		H:          g.Rows,
		Pix:        make([]byte, g.Cols*g.Rows*4),
		Bounds:     g.Bounds,
		UMin:       g.UMin,
		UMax:       g.UMax,
		VMin:       g.VMin,
		VMax:       g.VMax,
		SpeedScale: g.SpeedScale(),
	}
	for i := range g.U {
		u, v := g.U[i], g.V[i]
		if isNaN32(u) || isNaN32(v) {
			// Fill cell: transparent, mid-range channels.
			ft.Pix[i*4+0] = 128
			ft.Pix[i*4+1] = 128
			continue
		}
		ft.Pix[i*4+0] = quantize(u, g.UMin, g.UMax)
		ft.Pix[i*4+1] = quantize(v, g.VMin, g.VMax)
		ft.Pix[i*4+3] = 255
	}
	return ft
}

func quantize(v, min, max float32) byte {
	if max <= min {
		return 128
	}
	t := (v - min) / (max - min)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return byte(math.Round(float64(t) * 255))
}

// Sample de-normalizes the velocity at a geographic position, mixing the
// four surrounding texels bilinearly. A fill corner degrades the lookup to
// the nearest texel; ok is false when that texel is fill or the position
// is outside the bounds.
func (ft *FieldTexture) Sample(lon, lat float64) (u, v float32, ok bool) {
	w := ft.Bounds.Max.X - ft.Bounds.Min.X
	h := ft.Bounds.Max.Y - ft.Bounds.Min.Y
	if w <= 0 || h <= 0 {
		return 0, 0, false
	}
	fx := (lon - ft.Bounds.Min.X) / w
	fy := (lat - ft.Bounds.Min.Y) / h
	if fx < 0 || fx > 1 || fy < 0 || fy > 1 {
		return 0, 0, false
	}
	fx *= float64(ft.W - 1)
	fy *= float64(ft.H - 1)

	x0, y0 := int(fx), int(fy)
	x1, y1 := x0+1, y0+1
	if x1 > ft.W-1 {
		x1 = ft.W - 1
	}
	if y1 > ft.H-1 {
		y1 = ft.H - 1
	}
	tx := float32(fx - float64(x0))
	ty := float32(fy - float64(y0))

	i00 := (y0*ft.W + x0) * 4
	i10 := (y0*ft.W + x1) * 4
	i01 := (y1*ft.W + x0) * 4
	i11 := (y1*ft.W + x1) * 4

	if ft.Pix[i00+3] == 0 || ft.Pix[i10+3] == 0 ||
		ft.Pix[i01+3] == 0 || ft.Pix[i11+3] == 0 {
		// Fill corner: fall back to the nearest texel so the fill mask
		// stays sharp at coastlines.
		i := i00
		if tx >= 0.5 {
			i = i10
		}
		if ty >= 0.5 {
			i = i01
			if tx >= 0.5 {
				i = i11
			}
		}
		if ft.Pix[i+3] == 0 {
			return 0, 0, false
		}
		return ft.texel(i)
	}

	u00, v00, _ := ft.texel(i00)
	u10, v10, _ := ft.texel(i10)
	u01, v01, _ := ft.texel(i01)
	u11, v11, _ := ft.texel(i11)
	u = mix2(u00, u10, u01, u11, tx, ty)
	v = mix2(v00, v10, v01, v11, tx, ty)
	return u, v, true
}

func (ft *FieldTexture) texel(i int) (u, v float32, ok bool) {
	u = ft.UMin + float32(ft.Pix[i])/255*(ft.UMax-ft.UMin)
	v = ft.VMin + float32(ft.Pix[i+1])/255*(ft.VMax-ft.VMin)
	return u, v, true
}

func mix2(c00, c10, c01, c11, tx, ty float32) float32 {
	top := c00 + (c10-c00)*tx
	bot := c01 + (c11-c01)*tx
	return top + (bot-top)*ty
}

func isNaN32(v float32) bool { return v != v }
