package zarr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ChunkStore reads one remote Zarr v2 store. It owns the decoded-chunk
// cache and the in-flight fetch registry; construct one instance per data
// source rather than sharing process-wide state.
type ChunkStore struct {
	root   string
	client *http.Client

	md     *Metadata
	coords *Coordinates

	cache *chunkCache

	mu       sync.Mutex
	inflight map[string]*fetchToken
}

type fetchToken struct {
	cancel context.CancelFunc
}

// Options configures a ChunkStore.
type Options struct {
	// MaxCacheSize bounds the decoded-chunk cache. Default 64 entries.
	MaxCacheSize int
	// Client is the HTTP client for all store reads. Default http.DefaultClient
	// with a 30s timeout.
	Client *http.Client
}

// Open fetches the consolidated metadata document and loads the four
// coordinate arrays. The store root is the URL prefix under which
// ".zmetadata" and per-chunk objects live.
func Open(ctx context.Context, root string, opts Options) (*ChunkStore, error) {
	if opts.MaxCacheSize <= 0 {
		opts.MaxCacheSize = 64
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}

	s := &ChunkStore{
		root:     strings.TrimSuffix(root, "/"),
		client:   opts.Client,
		cache:    newChunkCache(opts.MaxCacheSize),
		inflight: make(map[string]*fetchToken),
	}

	raw, err := s.get(ctx, ".zmetadata")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}
	md, err := ParseConsolidated(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}
	s.md = md

	if err := s.loadCoordinates(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Metadata returns the consolidated store metadata.
func (s *ChunkStore) Metadata() *Metadata { return s.md }

// Coords returns the loaded coordinate arrays.
func (s *ChunkStore) Coords() *Coordinates { return s.coords }

// ResolveTimeIndex resolves a timestamp or raw time coordinate to an index.
func (s *ChunkStore) ResolveTimeIndex(v float64) int {
	return s.coords.ResolveTimeIndex(v)
}

// ResolveDepthIndex resolves a depth value to an index.
func (s *ChunkStore) ResolveDepthIndex(v float64) int {
	return s.coords.ResolveDepthIndex(v)
}

// loadCoordinates loads time, vertical, latitude and longitude, in that
// order. The vertical axis is searched under its fallback names.
func (s *ChunkStore) loadCoordinates(ctx context.Context) error {
	timeVals, err := s.loadCoordinate(ctx, "time")
	if err != nil {
		return err
	}
	lat, err := s.loadCoordinate(ctx, "latitude")
	if err != nil {
		return err
	}
	lon, err := s.loadCoordinate(ctx, "longitude")
	if err != nil {
		return err
	}

	var depth []float64
	found := false
	for _, name := range depthNames {
		if _, ok := s.md.Array(name); !ok {
			continue
		}
		depth, err = s.loadCoordinate(ctx, name)
		if err != nil {
			return err
		}
		found = true
		break
	}
	if !found {
		return fmt.Errorf("%w: vertical axis (tried %s)", ErrMissingCoordinate, strings.Join(depthNames, ", "))
	}

	s.coords = &Coordinates{
		Time:  timeVals,
		Depth: normalizeDepth(depth),
		Lat:   lat,
		Lon:   lon,
	}
	return nil
}

// loadCoordinate concatenates every chunk of a 1-D coordinate array in
// chunk order, at full float64 precision.
func (s *ChunkStore) loadCoordinate(ctx context.Context, name string) ([]float64, error) {
	meta, ok := s.md.Array(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingCoordinate, name)
	}
	if len(meta.Shape) != 1 {
		return nil, fmt.Errorf("coordinate %q: want rank 1, got %d", name, len(meta.Shape))
	}

	out := make([]float64, 0, meta.Shape[0])
	nchunks := meta.GridShape()[0]
	for i := 0; i < nchunks; i++ {
		raw, err := s.get(ctx, name+"/"+strconv.Itoa(i))
		if err != nil {
			return nil, fmt.Errorf("coordinate %q chunk %d: %w", name, i, err)
		}
		dec, err := Decompress(meta.Compressor, raw)
		if err != nil {
			return nil, fmt.Errorf("coordinate %q chunk %d: %w", name, i, err)
		}
		out = append(out, meta.DType().DecodeFloat64(dec)...)
	}
	if len(out) > meta.Shape[0] {
		// Edge chunks are padded to the nominal chunk size.
		out = out[:meta.Shape[0]]
	}
	return out, nil
}

// FetchChunk fetches, decompresses and decodes one chunk of a variable.
// cached reports that the buffer came from the chunk cache without a
// request. A fetch for a key already in flight supersedes it: the prior
// request is cancelled, never joined, so at most one completion can insert
// into the cache per key.
func (s *ChunkStore) FetchChunk(ctx context.Context, variable, key string) (buf []float32, cached bool, err error) {
	meta, ok := s.md.Array(variable)
	if !ok {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownVariable, variable)
	}

	cacheKey := variable + "/" + key
	if buf, ok := s.cache.get(cacheKey); ok {
		return buf, true, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	tok := &fetchToken{cancel: cancel}
	s.mu.Lock()
	if prev, ok := s.inflight[cacheKey]; ok {
		prev.cancel()
	}
	s.inflight[cacheKey] = tok
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		if s.inflight[cacheKey] == tok {
			delete(s.inflight, cacheKey)
		}
		s.mu.Unlock()
	}()

	raw, err := s.get(ctx, cacheKey)
	if err != nil {
		return nil, false, err
	}
	dec, err := Decompress(meta.Compressor, raw)
	if err != nil {
		return nil, false, fmt.Errorf("chunk %s: %w", cacheKey, err)
	}
	buf = meta.DType().Decode(dec, meta.Fill())

	// A superseded fetch must not complete into the cache.
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.cache.put(cacheKey, buf)
	return buf, false, nil
}

// FetchDecoded fetches the chunk named by a descriptor and pairs it with
// its placement.
func (s *ChunkStore) FetchDecoded(ctx context.Context, desc ChunkDescriptor) (DecodedChunk, bool, error) {
	data, cached, err := s.FetchChunk(ctx, desc.Variable, desc.Key)
	if err != nil {
		return DecodedChunk{}, false, err
	}
	return DecodedChunk{ChunkDescriptor: desc, Data: data}, cached, nil
}

// CancelAll cancels every in-flight fetch. Used on teardown.
func (s *ChunkStore) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, tok := range s.inflight {
		tok.cancel()
		delete(s.inflight, key)
	}
}

// CacheLen reports the number of cached decoded chunks.
func (s *ChunkStore) CacheLen() int { return s.cache.len() }

// get issues one cancellable GET under the store root.
func (s *ChunkStore) get(ctx context.Context, path string) ([]byte, error) {
	url := s.root + "/" + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			// Superseded or torn down; not a transport failure.
			return nil, context.Canceled
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		slog.Debug("chunk fetch failed", "path", path, "status", resp.StatusCode)
		return nil, &ChunkFetchError{Key: path, Status: resp.StatusCode}
	}
	return io.ReadAll(resp.Body)
}
