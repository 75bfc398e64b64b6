// Package catalog loads the dataset catalog: the index of available Zarr
// stores with their variables and dimension layouts, generated ahead of
// time from the upstream marine data service.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// Catalog is the top-level catalog document.
type Catalog struct {
	Generated string    `json:"generated"`
	Datasets  []Dataset `json:"datasets"`
}

// Dataset describes one Zarr store.
type Dataset struct {
	ID         string               `json:"id"`
	Product    string               `json:"product"`
	Label      string               `json:"label"`
	ZarrURL    string               `json:"zarr_url"`
	Variables  map[string]Variable  `json:"variables"`
	Dimensions map[string]Dimension `json:"dimensions"`
}

// Variable describes one data variable in a dataset.
type Variable struct {
	StandardName string `json:"standard_name"`
	Units        string `json:"units"`
}

// Dimension describes one coordinate axis.
type Dimension struct {
	Axis      string    `json:"axis"`
	Size      int       `json:"size"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Step      float64   `json:"step"`
	ChunkSize int       `json:"chunk_size"`
	Units     string    `json:"units"`
	Values    []float64 `json:"values,omitempty"`
}

// Load reads a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(c.Datasets) == 0 {
		return nil, fmt.Errorf("catalog has no datasets")
	}
	return &c, nil
}

// Dataset returns the dataset with the given id, or the first dataset when
// id is empty.
func (c *Catalog) Dataset(id string) (*Dataset, error) {
	if id == "" {
		return &c.Datasets[0], nil
	}
	for i := range c.Datasets {
		if c.Datasets[i].ID == id {
			return &c.Datasets[i], nil
		}
	}
	return nil, fmt.Errorf("dataset %q not in catalog", id)
}
