package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Screen.Width != 1280 || cfg.Screen.Height != 720 {
		t.Errorf("screen = %dx%d, want 1280x720", cfg.Screen.Width, cfg.Screen.Height)
	}
	if cfg.Store.UVariable != "uo" || cfg.Store.VVariable != "vo" {
		t.Errorf("variables = %q/%q", cfg.Store.UVariable, cfg.Store.VVariable)
	}
	if cfg.Particles.Count != 16384 {
		t.Errorf("particle count = %d, want 16384", cfg.Particles.Count)
	}
	if cfg.Particles.FadeOpacity != 0.96 {
		t.Errorf("fade opacity = %v, want 0.96", cfg.Particles.FadeOpacity)
	}
	if cfg.Telemetry.WindowSize != 240 {
		t.Errorf("window size = %d, want 240", cfg.Telemetry.WindowSize)
	}
}

func TestLoadOverridesMergeWithDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	override := []byte("particles:\n  count: 4096\nstore:\n  root: http://localhost:9000/store\n")
	if err := os.WriteFile(path, override, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Particles.Count != 4096 {
		t.Errorf("count = %d, want override 4096", cfg.Particles.Count)
	}
	if cfg.Store.Root != "http://localhost:9000/store" {
		t.Errorf("root = %q", cfg.Store.Root)
	}
	// Fields absent from the override keep their defaults.
	if cfg.Particles.PointSize != 1 {
		t.Errorf("point size = %d, want default 1", cfg.Particles.PointSize)
	}
	if cfg.Screen.TargetFPS != 60 {
		t.Errorf("target fps = %d, want default 60", cfg.Screen.TargetFPS)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("want error for missing file")
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Particles.Count = 777

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load snapshot: %v", err)
	}
	if back.Particles.Count != 777 {
		t.Errorf("roundtrip count = %d, want 777", back.Particles.Count)
	}
}

func TestInitAndCfg(t *testing.T) {
	if err := Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if Cfg().Screen.Width != 1280 {
		t.Errorf("Cfg().Screen.Width = %d", Cfg().Screen.Width)
	}
}
