// Package main provides a headless probe for Zarr current stores: it
// opens a store, reports its layout, and optionally fetches a viewport
// and benchmarks the particle update over the stitched field.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/ctessum/geom"

	"github.com/fxi/zartigl/field"
	"github.com/fxi/zartigl/particles"
	"github.com/fxi/zartigl/telemetry"
	"github.com/fxi/zartigl/zarr"
)

func main() {
	root := flag.String("store", "", "Zarr store root URL (required)")
	uVar := flag.String("u", "uo", "Eastward velocity variable")
	vVar := flag.String("v", "vo", "Northward velocity variable")
	bbox := flag.String("bbox", "", "Fetch bounds as west,south,east,north (empty = report only)")
	timeIdx := flag.Int("time", 0, "Time step index")
	depthIdx := flag.Int("depth", 0, "Depth level index")
	frames := flag.Int("frames", 0, "Benchmark N particle update frames over the fetched field")
	count := flag.Int("particles", 16384, "Particle count for the benchmark")
	outputDir := flag.String("output", "", "Output directory for telemetry CSV")
	flag.Parse()

	if *root == "" {
		log.Fatal("--store is required")
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	ctx := context.Background()
	store, err := zarr.Open(ctx, *root, zarr.Options{})
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	report(store)

	if *bbox == "" {
		return
	}
	var west, south, east, north float64
	if _, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &west, &south, &east, &north); err != nil {
		log.Fatalf("parsing --bbox: %v", err)
	}
	bounds := geom.Bounds{Min: geom.Point{X: west, Y: south}, Max: geom.Point{X: east, Y: north}}

	tele := telemetry.NewCollector(4096)
	ft, err := fetchField(ctx, store, tele, *uVar, *vVar, *timeIdx, *depthIdx, bounds)
	if err != nil {
		log.Fatalf("fetch field: %v", err)
	}

	fs := tele.FetchWindow()
	fmt.Printf("fetched %d chunks, %d bytes, mean %.1fms p90 %.1fms\n",
		fs.Count, fs.Bytes, fs.MeanMs, fs.P90Ms)
	fmt.Printf("field %dx%d  u [%.3f, %.3f]  v [%.3f, %.3f]  speed scale %.3f\n",
		ft.W, ft.H, ft.UMin, ft.UMax, ft.VMin, ft.VMax, ft.SpeedScale)

	if *frames > 0 {
		benchmark(ft, tele, *frames, *count)
	}

	if *outputDir != "" {
		om, err := telemetry.NewOutputManager(*outputDir)
		if err != nil {
			log.Fatalf("output dir: %v", err)
		}
		defer om.Close()
		if err := om.WriteFetchWindow(tele.FetchWindow()); err != nil {
			log.Fatalf("writing fetches.csv: %v", err)
		}
		if err := om.WriteFrameWindow(tele.FrameWindow()); err != nil {
			log.Fatalf("writing frames.csv: %v", err)
		}
	}
}

func report(s *zarr.ChunkStore) {
	c := s.Coords()
	fmt.Printf("time steps:   %d", len(c.Time))
	if len(c.Time) > 0 {
		fmt.Printf("  (%s .. %s)", zarr.TimeString(c.Time[0]), zarr.TimeString(c.Time[len(c.Time)-1]))
	}
	fmt.Println()
	fmt.Printf("depth levels: %d", len(c.Depth))
	if len(c.Depth) > 0 {
		fmt.Printf("  (%.2f .. %.2f m)", c.Depth[0], c.Depth[len(c.Depth)-1])
	}
	fmt.Println()
	if len(c.Lat) > 0 && len(c.Lon) > 0 {
		fmt.Printf("grid:         %d x %d  lat [%.3f, %.3f]  lon [%.3f, %.3f]\n",
			len(c.Lat), len(c.Lon),
			c.Lat[0], c.Lat[len(c.Lat)-1], c.Lon[0], c.Lon[len(c.Lon)-1])
	}
}

func fetchField(ctx context.Context, s *zarr.ChunkStore, tele *telemetry.Collector,
	uVar, vVar string, timeIdx, depthIdx int, bounds geom.Bounds) (*particles.FieldTexture, error) {

	fetch := func(variable string) ([]zarr.DecodedChunk, error) {
		descs, err := s.ChunksForBounds(variable, timeIdx, depthIdx, bounds)
		if err != nil {
			return nil, err
		}
		chunks := make([]zarr.DecodedChunk, 0, len(descs))
		for _, d := range descs {
			start := time.Now()
			c, cached, err := s.FetchDecoded(ctx, d)
			tele.RecordFetch(telemetry.FetchSample{
				Key:      d.Variable + "/" + d.Key,
				Duration: time.Since(start),
				Bytes:    len(c.Data) * 4,
				Cached:   cached,
				Failed:   err != nil,
			})
			if err != nil {
				slog.Warn("chunk fetch failed", "key", d.Key, "error", err)
				continue
			}
			chunks = append(chunks, c)
		}
		return chunks, nil
	}

	uChunks, err := fetch(uVar)
	if err != nil {
		return nil, err
	}
	vChunks, err := fetch(vVar)
	if err != nil {
		return nil, err
	}

	md, _ := s.Metadata().Array(uVar)
	c := s.Coords()
	full := geom.Bounds{
		Min: geom.Point{X: c.Lon[0], Y: c.Lat[0]},
		Max: geom.Point{X: c.Lon[len(c.Lon)-1], Y: c.Lat[len(c.Lat)-1]},
	}
	g := field.Stitch(uChunks, vChunks, md.Shape[2], md.Shape[3], full)
	return particles.NewFieldTexture(g), nil
}

func benchmark(ft *particles.FieldTexture, tele *telemetry.Collector, frames, count int) {
	state := particles.NewState(count, 42)
	view := geom.Bounds{Min: geom.Point{X: 0, Y: 0}, Max: geom.Point{X: 1, Y: 1}}
	params := particles.UpdateParams{SpeedFactor: 1, DropRate: 0.003, DropRateBump: 0.01}

	start := time.Now()
	for f := 0; f < frames; f++ {
		t0 := time.Now()
		particles.Update(state, ft, view, params, uint64(f))
		state.Swap()
		tele.RecordFrame(time.Since(t0))
	}
	total := time.Since(start)

	stats := tele.FrameWindow()
	fmt.Printf("%d frames x %d particles in %v  mean %.2fms p90 %.2fms max %.2fms\n",
		frames, count, total.Round(time.Millisecond),
		stats.MeanMs, stats.P90Ms, stats.MaxMs)
}
