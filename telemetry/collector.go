// Package telemetry collects fetch and frame statistics over rolling
// windows and writes them out as CSV.
package telemetry

import (
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// FetchSample records one chunk fetch.
type FetchSample struct {
	Key      string
	Duration time.Duration
	Bytes    int
	Cached   bool
	Failed   bool
}

// FetchStats aggregates a window of fetch samples.
type FetchStats struct {
	Count     int     `csv:"fetches"`
	CacheHits int     `csv:"cache_hits"`
	Failures  int     `csv:"failures"`
	Bytes     int     `csv:"bytes"`
	MeanMs    float64 `csv:"mean_ms"`
	P50Ms     float64 `csv:"p50_ms"`
	P90Ms     float64 `csv:"p90_ms"`
}

// FrameStats aggregates a window of frame times.
type FrameStats struct {
	Frames int     `csv:"frames"`
	MeanMs float64 `csv:"mean_ms"`
	P50Ms  float64 `csv:"p50_ms"`
	P90Ms  float64 `csv:"p90_ms"`
	MaxMs  float64 `csv:"max_ms"`
}

// Collector accumulates samples over a bounded rolling window. Fetches
// arrive from the I/O goroutines, frames from the render callback, so the
// collector is the one place both domains touch and locks accordingly.
type Collector struct {
	mu         sync.Mutex
	windowSize int

	fetches []FetchSample
	frames  []float64 // milliseconds
}

// NewCollector creates a collector keeping up to windowSize samples of
// each kind.
func NewCollector(windowSize int) *Collector {
	if windowSize < 1 {
		windowSize = 240
	}
	return &Collector{windowSize: windowSize}
}

// RecordFetch adds one fetch sample.
func (c *Collector) RecordFetch(s FetchSample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetches = append(c.fetches, s)
	if len(c.fetches) > c.windowSize {
		c.fetches = c.fetches[1:]
	}
}

// RecordFrame adds one frame duration.
func (c *Collector) RecordFrame(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, float64(d)/float64(time.Millisecond))
	if len(c.frames) > c.windowSize {
		c.frames = c.frames[1:]
	}
}

// FetchWindow computes statistics over the current fetch window.
func (c *Collector) FetchWindow() FetchStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out FetchStats
	durs := make([]float64, 0, len(c.fetches))
	for _, s := range c.fetches {
		out.Count++
		if s.Cached {
			out.CacheHits++
			continue
		}
		if s.Failed {
			out.Failures++
			continue
		}
		out.Bytes += s.Bytes
		durs = append(durs, float64(s.Duration)/float64(time.Millisecond))
	}
	if len(durs) > 0 {
		out.MeanMs = stat.Mean(durs, nil)
		sort.Float64s(durs)
		out.P50Ms = stat.Quantile(0.5, stat.Empirical, durs, nil)
		out.P90Ms = stat.Quantile(0.9, stat.Empirical, durs, nil)
	}
	return out
}

// FrameWindow computes statistics over the current frame window.
func (c *Collector) FrameWindow() FrameStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out FrameStats
	out.Frames = len(c.frames)
	if out.Frames == 0 {
		return out
	}
	sorted := make([]float64, len(c.frames))
	copy(sorted, c.frames)
	out.MeanMs = stat.Mean(sorted, nil)
	sort.Float64s(sorted)
	out.P50Ms = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	out.P90Ms = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	out.MaxMs = sorted[len(sorted)-1]
	return out
}
