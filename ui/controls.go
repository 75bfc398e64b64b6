package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// ControlState carries the adjustable animation parameters. The host
// seeds it from config, the panel mutates it in place, and changed
// fields are pushed to the layer each frame.
type ControlState struct {
	ParticleCount int
	SpeedFactor   float32
	FadeOpacity   float32
	DropRate      float32
	DropRateBump  float32
	PointSize     int
	TimeIndex     int
	DepthIndex    int

	// Axis extents, set once after the store opens.
	TimeSteps   int
	DepthLevels int
}

// ControlsPanel renders the parameter slider panel.
type ControlsPanel struct {
	theme   Theme
	x, y    int32
	width   int32
	visible bool
}

// NewControlsPanel creates a panel anchored at the given position.
func NewControlsPanel(x, y, width int32) *ControlsPanel {
	return &ControlsPanel{
		theme:   DefaultTheme(),
		x:       x,
		y:       y,
		width:   width,
		visible: true,
	}
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Changed reports which parameter groups the last Draw call modified.
type Changed struct {
	Particles bool // count changed, engine reallocates state
	Params    bool // speed, fade, drop rates, point size
	Time      bool
	Depth     bool
}

// Draw renders the panel and updates state from slider input.
func (c *ControlsPanel) Draw(s *ControlState) Changed {
	var ch Changed
	if !c.visible {
		return ch
	}

	t := c.theme
	rows := 6
	if s.TimeSteps > 1 {
		rows++
	}
	if s.DepthLevels > 1 {
		rows++
	}
	panelHeight := int32(rows)*(t.LineHeight+t.SliderHeight+4) + t.Padding*3 + t.HeaderFontSize

	rl.DrawRectangle(c.x, c.y, c.width, panelHeight, t.PanelBg)
	rl.DrawRectangleLines(c.x, c.y, c.width, panelHeight, t.PanelBorder)

	x := c.x + t.Padding
	y := c.y + t.Padding
	rl.DrawText("Flow Parameters", x, y, t.HeaderFontSize, t.SectionHeader)
	y += t.HeaderFontSize + 8

	count := c.slider(&y, "Particles", float32(s.ParticleCount), 1024, 262144, "%.0f")
	if n := int(count); n != s.ParticleCount {
		s.ParticleCount = n
		ch.Particles = true
	}

	speed := c.slider(&y, "Speed factor", s.SpeedFactor, 0.1, 5, "%.2f")
	if speed != s.SpeedFactor {
		s.SpeedFactor = speed
		ch.Params = true
	}

	fade := c.slider(&y, "Trail fade", s.FadeOpacity, 0.80, 0.999, "%.3f")
	if fade != s.FadeOpacity {
		s.FadeOpacity = fade
		ch.Params = true
	}

	drop := c.slider(&y, "Drop rate", s.DropRate, 0, 0.05, "%.4f")
	if drop != s.DropRate {
		s.DropRate = drop
		ch.Params = true
	}

	bump := c.slider(&y, "Drop rate bump", s.DropRateBump, 0, 0.1, "%.4f")
	if bump != s.DropRateBump {
		s.DropRateBump = bump
		ch.Params = true
	}

	size := c.slider(&y, "Point size", float32(s.PointSize), 1, 4, "%.0f")
	if n := int(size); n != s.PointSize {
		s.PointSize = n
		ch.Params = true
	}

	if s.TimeSteps > 1 {
		ti := c.slider(&y, "Time step", float32(s.TimeIndex), 0, float32(s.TimeSteps-1), "%.0f")
		if n := int(ti); n != s.TimeIndex {
			s.TimeIndex = n
			ch.Time = true
		}
	}
	if s.DepthLevels > 1 {
		di := c.slider(&y, "Depth level", float32(s.DepthIndex), 0, float32(s.DepthLevels-1), "%.0f")
		if n := int(di); n != s.DepthIndex {
			s.DepthIndex = n
			ch.Depth = true
		}
	}
	return ch
}

func (c *ControlsPanel) slider(y *int32, label string, value, min, max float32, format string) float32 {
	t := c.theme
	x := c.x + t.Padding
	rl.DrawText(label, x, *y, t.FontSize, t.LabelColor)
	*y += t.LineHeight
	v := gui.SliderBar(
		rl.Rectangle{X: float32(x), Y: float32(*y), Width: float32(c.width - t.Padding*2 - 54), Height: float32(t.SliderHeight)},
		"", "", value, min, max,
	)
	rl.DrawText(fmt.Sprintf(format, v), c.x+c.width-50, *y+2, t.FontSize, t.ValueColor)
	*y += t.SliderHeight + 4
	return v
}
