// Package layer orchestrates the flow layer: it turns viewport changes into
// chunk fetches, stitches fetched chunks into a velocity field, and drives
// one particle engine frame per host render callback.
package layer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ctessum/geom"
	"golang.org/x/sync/errgroup"

	"github.com/fxi/zartigl/field"
	"github.com/fxi/zartigl/particles"
	"github.com/fxi/zartigl/telemetry"
	"github.com/fxi/zartigl/zarr"
)

// Layer connects the chunk store, the stitcher and the particle engine.
// The store and the engine never interact directly.
type Layer struct {
	store  *zarr.ChunkStore
	engine *particles.Engine
	tele   *telemetry.Collector

	uVar, vVar string

	ctx    context.Context
	cancel context.CancelFunc

	// refreshing guards against overlapping refreshes: a refresh requested
	// while one is in flight is dropped, not queued. The next
	// viewport-settle event triggers another.
	refreshing atomic.Bool

	mu       sync.Mutex
	pending  *particles.FieldTexture
	lastGeo  geom.Bounds
	timeIdx  int
	depthIdx int
}

// New creates a layer. The default selection is the most recent time step
// at the surface depth level.
func New(store *zarr.ChunkStore, engine *particles.Engine, tele *telemetry.Collector, uVar, vVar string) *Layer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Layer{
		store:   store,
		engine:  engine,
		tele:    tele,
		uVar:    uVar,
		vVar:    vVar,
		ctx:     ctx,
		cancel:  cancel,
		timeIdx: len(store.Coords().Time) - 1,
	}
}

// Attach acquires GPU resources. Requires a live drawing context.
func (l *Layer) Attach() {
	l.engine.Attach()
}

// Detach releases GPU resources and cancels all outstanding fetches.
func (l *Layer) Detach() {
	l.cancel()
	l.store.CancelAll()
	l.engine.Detach()
}

// OnViewportSettled triggers a refresh for the given geographic bounds.
// It reports whether the refresh was accepted; a refresh requested while
// one is in flight is dropped, and the caller should offer the bounds
// again on the next settle.
func (l *Layer) OnViewportSettled(geo geom.Bounds) bool {
	l.mu.Lock()
	l.lastGeo = geo
	l.mu.Unlock()
	return l.refresh(geo)
}

// SetTime selects a new time step (timestamp or raw coordinate value),
// resets the particle state and refreshes.
func (l *Layer) SetTime(v float64) {
	l.mu.Lock()
	l.timeIdx = l.store.ResolveTimeIndex(v)
	geo := l.lastGeo
	l.mu.Unlock()
	l.engine.Reset()
	l.refresh(geo)
}

// SetDepth selects a new depth level, resets the particle state and
// refreshes.
func (l *Layer) SetDepth(v float64) {
	l.mu.Lock()
	l.depthIdx = l.store.ResolveDepthIndex(v)
	geo := l.lastGeo
	l.mu.Unlock()
	l.engine.Reset()
	l.refresh(geo)
}

// SetTimeIndex selects a time step by axis index.
func (l *Layer) SetTimeIndex(i int) {
	l.mu.Lock()
	l.timeIdx = clampIdx(i, len(l.store.Coords().Time))
	geo := l.lastGeo
	l.mu.Unlock()
	l.engine.Reset()
	l.refresh(geo)
}

// SetDepthIndex selects a depth level by axis index.
func (l *Layer) SetDepthIndex(i int) {
	l.mu.Lock()
	l.depthIdx = clampIdx(i, len(l.store.Coords().Depth))
	geo := l.lastGeo
	l.mu.Unlock()
	l.engine.Reset()
	l.refresh(geo)
}

// TimeIndex returns the current time step index.
func (l *Layer) TimeIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timeIdx
}

// DepthIndex returns the current depth level index.
func (l *Layer) DepthIndex() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depthIdx
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if n > 0 && i >= n {
		return n - 1
	}
	return i
}

// Control surface; each forwards to the engine and applies next frame.

func (l *Layer) SetParticleCount(n int) { l.engine.SetParticleCount(n) }
func (l *Layer) SetSpeedFactor(x float32) { l.engine.SetSpeedFactor(x) }
func (l *Layer) SetFadeOpacity(x float32) { l.engine.SetFadeOpacity(x) }
func (l *Layer) SetDropRate(x float32) { l.engine.SetDropRate(x) }
func (l *Layer) SetDropRateBump(x float32) { l.engine.SetDropRateBump(x) }
func (l *Layer) SetPointSize(n int) { l.engine.SetPointSize(n) }
func (l *Layer) SetColorRamp(stops map[float64]particles.RampColor) {
	l.engine.SetColorRamp(stops)
}

// refresh fetches, stitches and stages a new field on a worker goroutine.
// It reports false when another refresh is already in flight.
func (l *Layer) refresh(geo geom.Bounds) bool {
	if !l.refreshing.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer l.refreshing.Store(false)
		if err := l.doRefresh(geo); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			slog.Error("layer refresh failed", "error", err)
		}
	}()
	return true
}

func (l *Layer) doRefresh(geo geom.Bounds) error {
	geo = clampGeo(geo)

	l.mu.Lock()
	timeIdx, depthIdx := l.timeIdx, l.depthIdx
	l.mu.Unlock()

	uDescs, err := l.store.ChunksForBounds(l.uVar, timeIdx, depthIdx, geo)
	if err != nil {
		return err
	}
	vDescs, err := l.store.ChunksForBounds(l.vVar, timeIdx, depthIdx, geo)
	if err != nil {
		return err
	}

	uChunks, err := l.fetchAll(uDescs)
	if err != nil {
		return err
	}
	vChunks, err := l.fetchAll(vDescs)
	if err != nil {
		return err
	}

	meta, _ := l.store.Metadata().Array(l.uVar)
	coords := l.store.Coords()
	rows, cols := meta.Shape[2], meta.Shape[3]
	bounds := geom.Bounds{
		Min: geom.Point{X: coords.Lon[0], Y: coords.Lat[0]},
		Max: geom.Point{X: coords.Lon[len(coords.Lon)-1], Y: coords.Lat[len(coords.Lat)-1]},
	}

	grid := field.Stitch(uChunks, vChunks, rows, cols, bounds)
	ft := particles.NewFieldTexture(grid)

	l.mu.Lock()
	l.pending = ft
	l.mu.Unlock()
	return nil
}

// fetchAll fetches every descriptor concurrently. Individual transport
// failures are logged and skipped so a refresh proceeds with partial data;
// cancellation aborts the whole refresh silently.
func (l *Layer) fetchAll(descs []zarr.ChunkDescriptor) ([]zarr.DecodedChunk, error) {
	out := make([]zarr.DecodedChunk, len(descs))
	got := make([]bool, len(descs))

	g, ctx := errgroup.WithContext(l.ctx)
	for i, d := range descs {
		g.Go(func() error {
			start := time.Now()
			chunk, cached, err := l.store.FetchDecoded(ctx, d)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				slog.Warn("chunk fetch failed", "variable", d.Variable, "key", d.Key, "error", err)
				l.record(d, start, 0, false, true)
				return nil
			}
			l.record(d, start, len(chunk.Data)*4, cached, false)
			out[i] = chunk
			got[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chunks := out[:0]
	for i := range out {
		if got[i] {
			chunks = append(chunks, out[i])
		}
	}
	return chunks, nil
}

func (l *Layer) record(d zarr.ChunkDescriptor, start time.Time, bytes int, cached, failed bool) {
	if l.tele == nil {
		return
	}
	l.tele.RecordFetch(telemetry.FetchSample{
		Key:      d.Variable + "/" + d.Key,
		Duration: time.Since(start),
		Bytes:    bytes,
		Cached:   cached,
		Failed:   failed,
	})
}

// Render runs one engine frame for the world-space viewport. Pending field
// updates are applied here, atomically between frames, so the engine never
// reads a half-updated grid. The engine restores any blend state it sets,
// so the host renderer sees the state it set up.
func (l *Layer) Render(view geom.Bounds) {
	l.mu.Lock()
	if l.pending != nil {
		l.engine.SetField(l.pending)
		l.pending = nil
	}
	l.mu.Unlock()

	if !l.engine.HasField() {
		return
	}

	start := time.Now()
	l.engine.Frame(view)
	if l.tele != nil {
		l.tele.RecordFrame(time.Since(start))
	}
}

// clampGeo clamps a geographic rectangle to valid ranges.
func clampGeo(b geom.Bounds) geom.Bounds {
	clamp := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return geom.Bounds{
		Min: geom.Point{X: clamp(b.Min.X, -180, 180), Y: clamp(b.Min.Y, -90, 90)},
		Max: geom.Point{X: clamp(b.Max.X, -180, 180), Y: clamp(b.Max.Y, -90, 90)},
	}
}
