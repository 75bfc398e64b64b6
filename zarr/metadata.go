// Package zarr reads chunked Zarr v2 array stores over HTTP.
//
// A store is a tree of binary chunk objects plus a consolidated metadata
// document (.zmetadata) describing every array: shape, chunk layout, dtype,
// compressor and fill value. The ChunkStore resolves logical array
// coordinates to storage keys, fetches and decodes chunks, and caches the
// decoded buffers.
package zarr

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ArrayMeta describes one array in the store. Immutable once loaded.
type ArrayMeta struct {
	Shape      []int             `json:"shape"`
	Chunks     []int             `json:"chunks"`
	DTypeTag   string            `json:"dtype"`
	Compressor *CompressorConfig `json:"compressor"`
	FillValue  json.RawMessage   `json:"fill_value"`
	Order      string            `json:"order"`
	Separator  string            `json:"dimension_separator"`
	ZarrFormat int               `json:"zarr_format"`

	// From the paired .zattrs document.
	Dimensions []string `json:"-"`

	dtype DType
	fill  float64
}

// CompressorConfig is the numcodecs compressor descriptor.
type CompressorConfig struct {
	ID      string `json:"id"`
	CName   string `json:"cname"`
	CLevel  int    `json:"clevel"`
	Shuffle int    `json:"shuffle"`
	Level   int    `json:"level"`
}

// DType returns the decoded dtype tag.
func (m *ArrayMeta) DType() DType { return m.dtype }

// Fill returns the fill value as float64. NaN when the array declares
// a NaN fill or none at all.
func (m *ArrayMeta) Fill() float64 { return m.fill }

// Sep returns the chunk key separator, defaulting to ".".
func (m *ArrayMeta) Sep() string {
	if m.Separator == "" {
		return "."
	}
	return m.Separator
}

// GridShape returns the number of chunks along each dimension,
// ceil(shape[i] / chunks[i]).
func (m *ArrayMeta) GridShape() []int {
	grid := make([]int, len(m.Shape))
	for i := range m.Shape {
		grid[i] = (m.Shape[i] + m.Chunks[i] - 1) / m.Chunks[i]
	}
	return grid
}

// ChunkKey joins per-axis chunk indices with the array separator.
func (m *ArrayMeta) ChunkKey(indices ...int) string {
	parts := make([]string, len(indices))
	for i, ix := range indices {
		parts[i] = strconv.Itoa(ix)
	}
	return strings.Join(parts, m.Sep())
}

// DimIndex returns the axis position of the named dimension, or -1.
func (m *ArrayMeta) DimIndex(name string) int {
	for i, d := range m.Dimensions {
		if d == name {
			return i
		}
	}
	return -1
}

// Metadata is the consolidated metadata for a whole store.
type Metadata struct {
	arrays map[string]*ArrayMeta
}

// consolidatedDoc mirrors the .zmetadata wire format: a flat map keyed by
// "<array>/.zarray" and "<array>/.zattrs".
type consolidatedDoc struct {
	ZarrConsolidatedFormat int                        `json:"zarr_consolidated_format"`
	Metadata               map[string]json.RawMessage `json:"metadata"`
}

type arrayAttrs struct {
	Dimensions []string `json:"_ARRAY_DIMENSIONS"`
}

// ParseConsolidated parses a .zmetadata document.
func ParseConsolidated(data []byte) (*Metadata, error) {
	var doc consolidatedDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing consolidated metadata: %w", err)
	}
	if len(doc.Metadata) == 0 {
		return nil, fmt.Errorf("%w: empty metadata map", ErrMetadataUnavailable)
	}

	md := &Metadata{arrays: make(map[string]*ArrayMeta)}
	for key, raw := range doc.Metadata {
		name, ok := strings.CutSuffix(key, "/.zarray")
		if !ok {
			continue
		}
		am := &ArrayMeta{}
		if err := json.Unmarshal(raw, am); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", key, err)
		}
		if len(am.Shape) != len(am.Chunks) {
			return nil, fmt.Errorf("array %s: shape rank %d != chunk rank %d", name, len(am.Shape), len(am.Chunks))
		}
		dt, err := ParseDType(am.DTypeTag)
		if err != nil {
			return nil, fmt.Errorf("array %s: %w", name, err)
		}
		am.dtype = dt
		am.fill = parseFill(am.FillValue)
		md.arrays[name] = am
	}

	// Attach dimension names from .zattrs.
	for key, raw := range doc.Metadata {
		name, ok := strings.CutSuffix(key, "/.zattrs")
		if !ok {
			continue
		}
		am, ok := md.arrays[name]
		if !ok {
			continue
		}
		var attrs arrayAttrs
		if err := json.Unmarshal(raw, &attrs); err == nil {
			am.Dimensions = attrs.Dimensions
		}
	}

	return md, nil
}

// Array returns metadata for the named array.
func (md *Metadata) Array(name string) (*ArrayMeta, bool) {
	am, ok := md.arrays[name]
	return am, ok
}

// parseFill interprets the fill_value field, which may be a JSON number,
// the string "NaN", or null.
func parseFill(raw json.RawMessage) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return math.NaN()
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "NaN":
			return math.NaN()
		case "Infinity":
			return math.Inf(1)
		case "-Infinity":
			return math.Inf(-1)
		}
	}
	return math.NaN()
}
