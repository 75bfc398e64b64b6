package zarr

import (
	"fmt"

	"github.com/ctessum/geom"
)

// ChunkDescriptor identifies one storage object intersecting a query and
// carries its placement within the full array.
type ChunkDescriptor struct {
	Variable string
	Key      string // joined storage key, e.g. "0.0.3.5"

	// Chunk-grid indices along latitude and longitude.
	LatChunk, LonChunk int

	// Actual element extent, clamped at array edges.
	Rows, Cols int

	// Element offsets of this chunk within the full array.
	RowOffset, ColOffset int

	// Real-world coordinate sub-range covered by the chunk.
	Bounds geom.Bounds
}

// DecodedChunk is a ChunkDescriptor plus its fetched, decoded buffer.
type DecodedChunk struct {
	ChunkDescriptor
	Data []float32
}

// ChunksForBounds enumerates every chunk of the variable intersecting the
// geographic rectangle at the given time and depth indices. The index range
// along each axis is found by nearest-index resolution of the rectangle
// edges, then widened to an inclusive chunk-index range.
func (s *ChunkStore) ChunksForBounds(variable string, timeIdx, depthIdx int, bounds geom.Bounds) ([]ChunkDescriptor, error) {
	meta, ok := s.md.Array(variable)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}
	if len(meta.Shape) != 4 {
		return nil, fmt.Errorf("variable %q: want rank 4 (time, depth, lat, lon), got %d", variable, len(meta.Shape))
	}

	latFirst := s.coords.NearestIndex(AxisLat, bounds.Min.Y)
	latLast := s.coords.NearestIndex(AxisLat, bounds.Max.Y)
	lonFirst := s.coords.NearestIndex(AxisLon, bounds.Min.X)
	lonLast := s.coords.NearestIndex(AxisLon, bounds.Max.X)
	if latFirst > latLast {
		latFirst, latLast = latLast, latFirst
	}
	if lonFirst > lonLast {
		lonFirst, lonLast = lonLast, lonFirst
	}

	latChunkSize := meta.Chunks[2]
	lonChunkSize := meta.Chunks[3]
	latRows := meta.Shape[2]
	lonCols := meta.Shape[3]

	var out []ChunkDescriptor
	for lc := latFirst / latChunkSize; lc <= latLast/latChunkSize; lc++ {
		for nc := lonFirst / lonChunkSize; nc <= lonLast/lonChunkSize; nc++ {
			rowOff := lc * latChunkSize
			colOff := nc * lonChunkSize
			rows := latChunkSize
			if rowOff+rows > latRows {
				rows = latRows - rowOff
			}
			cols := lonChunkSize
			if colOff+cols > lonCols {
				cols = lonCols - colOff
			}

			out = append(out, ChunkDescriptor{
				Variable:  variable,
				Key:       meta.ChunkKey(timeIdx, depthIdx, lc, nc),
				LatChunk:  lc,
				LonChunk:  nc,
				Rows:      rows,
				Cols:      cols,
				RowOffset: rowOff,
				ColOffset: colOff,
				Bounds: geom.Bounds{
					Min: geom.Point{X: s.coords.Lon[colOff], Y: s.coords.Lat[rowOff]},
					Max: geom.Point{X: s.coords.Lon[colOff+cols-1], Y: s.coords.Lat[rowOff+rows-1]},
				},
			})
		}
	}
	return out, nil
}
