package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/fxi/zartigl/camera"
	"github.com/fxi/zartigl/catalog"
	"github.com/fxi/zartigl/config"
	"github.com/fxi/zartigl/layer"
	"github.com/fxi/zartigl/particles"
	"github.com/fxi/zartigl/telemetry"
	"github.com/fxi/zartigl/ui"
	"github.com/fxi/zartigl/zarr"
)

// settleDelay is how long the viewport must stay still before a refresh
// is triggered. Matches typical map moveend debouncing.
const settleDelay = 300 * time.Millisecond

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	catalogPath := flag.String("catalog", "", "Path to catalog.json (empty = store root from config)")
	datasetID := flag.String("dataset", "", "Dataset id from the catalog (empty = first)")
	storeRoot := flag.String("store", "", "Zarr store root URL (overrides config and catalog)")
	outputDir := flag.String("output-dir", "", "Output directory for telemetry CSV logs")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	root := cfg.Store.Root
	uVar, vVar := cfg.Store.UVariable, cfg.Store.VVariable
	title := "Ocean Currents"
	if *catalogPath != "" {
		cat, err := catalog.Load(*catalogPath)
		if err != nil {
			slog.Error("failed to load catalog", "path", *catalogPath, "error", err)
			os.Exit(1)
		}
		ds, err := cat.Dataset(*datasetID)
		if err != nil {
			slog.Error("dataset not found", "id", *datasetID, "error", err)
			os.Exit(1)
		}
		root = ds.ZarrURL
		title = ds.Label
	}
	if *storeRoot != "" {
		root = *storeRoot
	}
	if root == "" {
		slog.Error("no store root configured; pass -store, -catalog or set store.root")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Store.TimeoutSec)*time.Second)
	store, err := zarr.Open(ctx, root, zarr.Options{MaxCacheSize: cfg.Store.MaxCacheSize})
	cancel()
	if err != nil {
		slog.Error("failed to open store", "root", root, "error", err)
		os.Exit(1)
	}
	slog.Info("store opened",
		"root", root,
		"time_steps", len(store.Coords().Time),
		"depth_levels", len(store.Coords().Depth),
	)

	tele := telemetry.NewCollector(cfg.Telemetry.WindowSize)
	var out *telemetry.OutputManager
	if *outputDir != "" {
		out, err = telemetry.NewOutputManager(*outputDir)
		if err != nil {
			slog.Error("failed to create output dir", "dir", *outputDir, "error", err)
			os.Exit(1)
		}
		defer out.Close()
	}

	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), title)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	engine := particles.NewEngine(cfg.Screen.Width, cfg.Screen.Height, particles.Params{
		Count:        cfg.Particles.Count,
		SpeedFactor:  float32(cfg.Particles.SpeedFactor),
		FadeOpacity:  float32(cfg.Particles.FadeOpacity),
		DropRate:     float32(cfg.Particles.DropRate),
		DropRateBump: float32(cfg.Particles.DropRateBump),
		PointSize:    cfg.Particles.PointSize,
		Seed:         cfg.Particles.Seed,
	})
	lyr := layer.New(store, engine, tele, uVar, vVar)
	lyr.Attach()
	defer lyr.Detach()

	cam := camera.New(float64(cfg.Screen.Width), float64(cfg.Screen.Height))
	panel := ui.NewControlsPanel(10, 10, 250)
	hud := ui.NewHUD()
	state := ui.ControlState{
		ParticleCount: cfg.Particles.Count,
		SpeedFactor:   float32(cfg.Particles.SpeedFactor),
		FadeOpacity:   float32(cfg.Particles.FadeOpacity),
		DropRate:      float32(cfg.Particles.DropRate),
		DropRateBump:  float32(cfg.Particles.DropRateBump),
		PointSize:     cfg.Particles.PointSize,
		TimeIndex:     lyr.TimeIndex(),
		DepthIndex:    lyr.DepthIndex(),
		TimeSteps:     len(store.Coords().Time),
		DepthLevels:   len(store.Coords().Depth),
	}

	// First load covers the initial viewport.
	lyr.OnViewportSettled(cam.GeoBounds())
	lastInput := time.Now()
	refreshedGeo := cam.GeoBounds()
	lastStats := time.Now()

	for !rl.WindowShouldClose() {
		frameStart := time.Now()
		if handleInput(cam) {
			lastInput = time.Now()
		}

		// Refresh once the viewport has settled on new bounds. A dropped
		// refresh (one already in flight) keeps the bounds pending so a
		// later frame retries without further camera movement.
		geo := cam.GeoBounds()
		if geo != refreshedGeo && time.Since(lastInput) > settleDelay {
			if lyr.OnViewportSettled(geo) {
				refreshedGeo = geo
			}
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Color{R: 8, G: 12, B: 20, A: 255})

		lyr.Render(cam.ViewBounds())

		if rl.IsKeyPressed(rl.KeyTab) {
			panel.Toggle()
		}
		applyControls(lyr, panel.Draw(&state), &state)

		hud.Draw(ui.HUDData{
			Title:        title,
			West:         geo.Min.X,
			East:         geo.Max.X,
			South:        geo.Min.Y,
			North:        geo.Max.Y,
			TimeLabel:    timeLabel(store, state.TimeIndex),
			DepthLabel:   depthLabel(store, state.DepthIndex),
			Particles:    state.ParticleCount,
			Zoom:         cam.Zoom,
			FPS:          rl.GetFPS(),
			ScreenWidth:  int32(cfg.Screen.Width),
			ScreenHeight: int32(cfg.Screen.Height),
		})
		rl.EndDrawing()

		tele.RecordFrame(time.Since(frameStart))
		if out != nil && time.Since(lastStats) > 5*time.Second {
			if err := out.WriteFetchWindow(tele.FetchWindow()); err != nil {
				slog.Warn("telemetry write failed", "error", err)
			}
			if err := out.WriteFrameWindow(tele.FrameWindow()); err != nil {
				slog.Warn("telemetry write failed", "error", err)
			}
			lastStats = time.Now()
		}
	}
}

// handleInput applies pan and zoom from the mouse. Returns true if the
// viewport changed.
func handleInput(cam *camera.Camera) bool {
	moved := false
	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		d := rl.GetMouseDelta()
		if d.X != 0 || d.Y != 0 {
			cam.Pan(float64(-d.X), float64(-d.Y))
			moved = true
		}
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		pos := rl.GetMousePosition()
		factor := 1.0 + 0.15*float64(wheel)
		cam.ZoomAt(factor, float64(pos.X), float64(pos.Y))
		moved = true
	}
	return moved
}

// applyControls pushes changed panel values to the layer.
func applyControls(lyr *layer.Layer, ch ui.Changed, s *ui.ControlState) {
	if ch.Particles {
		lyr.SetParticleCount(s.ParticleCount)
	}
	if ch.Params {
		lyr.SetSpeedFactor(s.SpeedFactor)
		lyr.SetFadeOpacity(s.FadeOpacity)
		lyr.SetDropRate(s.DropRate)
		lyr.SetDropRateBump(s.DropRateBump)
		lyr.SetPointSize(s.PointSize)
	}
	if ch.Time {
		lyr.SetTimeIndex(s.TimeIndex)
	}
	if ch.Depth {
		lyr.SetDepthIndex(s.DepthIndex)
	}
}

func timeLabel(store *zarr.ChunkStore, i int) string {
	axis := store.Coords().Time
	if i < 0 || i >= len(axis) {
		return ""
	}
	return zarr.TimeString(axis[i])
}

func depthLabel(store *zarr.ChunkStore, i int) string {
	axis := store.Coords().Depth
	if i < 0 || i >= len(axis) {
		return "surface"
	}
	return fmt.Sprintf("%.1f m", axis[i])
}
