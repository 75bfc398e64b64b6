package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDData holds the values shown in the heads-up display.
type HUDData struct {
	Title        string
	West, East   float64
	South, North float64
	TimeLabel    string
	DepthLabel   string
	Particles    int
	Zoom         float64
	FPS          int32
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the heads-up display along the bottom edge.
type HUD struct {
	theme Theme
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{theme: DefaultTheme()}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	y := data.ScreenHeight - 24
	rl.DrawRectangle(0, y-4, data.ScreenWidth, 28, h.theme.PanelBg)

	rl.DrawText(data.Title, 10, y, 16, rl.White)

	info := fmt.Sprintf("lon %.2f..%.2f  lat %.2f..%.2f  zoom %.1fx",
		data.West, data.East, data.South, data.North, data.Zoom)
	rl.DrawText(info, 10+int32(rl.MeasureText(data.Title, 16))+20, y, 16, rl.LightGray)

	right := fmt.Sprintf("%s  %s  %d particles  %d fps",
		data.TimeLabel, data.DepthLabel, data.Particles, data.FPS)
	rl.DrawText(right, data.ScreenWidth-int32(rl.MeasureText(right, 16))-10, y, 16, rl.LightGray)
}
