package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleCatalog = `{
  "generated": "2026-08-01T00:00:00Z",
  "datasets": [
    {
      "id": "glo-cur-daily",
      "product": "GLOBAL_ANALYSISFORECAST_PHY",
      "label": "Global currents, daily",
      "zarr_url": "https://example.org/zarr/glo-cur-daily",
      "variables": {
        "uo": {"standard_name": "eastward_sea_water_velocity", "units": "m s-1"},
        "vo": {"standard_name": "northward_sea_water_velocity", "units": "m s-1"}
      },
      "dimensions": {
        "latitude": {"axis": "Y", "size": 2041, "min": -80, "max": 90, "step": 0.0833, "chunk_size": 512},
        "depth": {"axis": "Z", "size": 50, "chunk_size": 1, "values": [0.494, 1.541]}
      }
    },
    {
      "id": "glo-cur-hourly",
      "label": "Global currents, hourly",
      "zarr_url": "https://example.org/zarr/glo-cur-hourly"
    }
  ]
}`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(c.Datasets) != 2 {
		t.Fatalf("datasets = %d, want 2", len(c.Datasets))
	}
	ds := c.Datasets[0]
	if ds.ID != "glo-cur-daily" {
		t.Errorf("id = %q", ds.ID)
	}
	if v, ok := ds.Variables["uo"]; !ok || v.StandardName != "eastward_sea_water_velocity" {
		t.Errorf("uo variable = %+v", v)
	}
	if d, ok := ds.Dimensions["depth"]; !ok || len(d.Values) != 2 {
		t.Errorf("depth dimension = %+v", d)
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse([]byte("{")); err == nil {
		t.Error("want error for invalid json")
	}
	if _, err := Parse([]byte(`{"datasets": []}`)); err == nil {
		t.Error("want error for empty catalog")
	}
}

func TestDatasetLookup(t *testing.T) {
	c, err := Parse([]byte(sampleCatalog))
	if err != nil {
		t.Fatal(err)
	}

	ds, err := c.Dataset("glo-cur-hourly")
	if err != nil {
		t.Fatal(err)
	}
	if ds.Label != "Global currents, hourly" {
		t.Errorf("label = %q", ds.Label)
	}

	// Empty id selects the first dataset.
	first, err := c.Dataset("")
	if err != nil {
		t.Fatal(err)
	}
	if first.ID != "glo-cur-daily" {
		t.Errorf("default dataset = %q, want first", first.ID)
	}

	if _, err := c.Dataset("nope"); err == nil {
		t.Error("want error for unknown id")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(path, []byte(sampleCatalog), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Datasets) != 2 {
		t.Errorf("datasets = %d, want 2", len(c.Datasets))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("want error for missing file")
	}
}
