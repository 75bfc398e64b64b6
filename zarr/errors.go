package zarr

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrMetadataUnavailable   = errors.New("consolidated metadata unavailable")
	ErrMissingCoordinate     = errors.New("required coordinate array not found")
	ErrUnsupportedCompressor = errors.New("unsupported compressor")
	ErrUnsupportedDType      = errors.New("unsupported dtype")
	ErrUnknownVariable       = errors.New("variable not present in store")
)

// ChunkFetchError reports a non-success transport response for one chunk.
// Cancellation is not a ChunkFetchError; superseded fetches resolve silently.
type ChunkFetchError struct {
	Key    string
	Status int
}

func (e *ChunkFetchError) Error() string {
	return fmt.Sprintf("chunk %s: fetch failed with status %d", e.Key, e.Status)
}
