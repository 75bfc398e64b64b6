package zarr

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DType is the closed set of element types the store can decode.
// All variants decode to []float32; the simulation consumes 32-bit floats
// and the domain's magnitudes (m/s velocities, degrees, days) lose nothing
// in the narrowing.
type DType uint8

const (
	Float32 DType = iota
	Float64
	Int32
	Int64
)

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	}
	return fmt.Sprintf("DType(%d)", uint8(d))
}

// Size returns the element size in bytes.
func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	default:
		return 8
	}
}

// ParseDType decodes a numpy-style dtype tag such as "<f4".
// Only little-endian numeric tags are accepted.
func ParseDType(tag string) (DType, error) {
	switch tag {
	case "<f4", "|f4", "f4":
		return Float32, nil
	case "<f8", "|f8", "f8":
		return Float64, nil
	case "<i4", "|i4", "i4":
		return Int32, nil
	case "<i8", "|i8", "i8":
		return Int64, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedDType, tag)
}

// Decode reinterprets raw little-endian bytes as a float32 buffer.
// Exact matches of fill are replaced with NaN. Trailing bytes that do not
// fill a whole element are ignored.
func (d DType) Decode(raw []byte, fill float64) []float32 {
	n := len(raw) / d.Size()
	out := make([]float32, n)
	switch d {
	case Float32:
		fill32 := float32(fill)
		for i := 0; i < n; i++ {
			v := math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
			if v == fill32 {
				v = float32(math.NaN())
			}
			out[i] = v
		}
	case Float64:
		for i := 0; i < n; i++ {
			v := math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
			if v == fill {
				v = math.NaN()
			}
			out[i] = float32(v)
		}
	case Int32:
		for i := 0; i < n; i++ {
			v := float64(int32(binary.LittleEndian.Uint32(raw[i*4:])))
			if v == fill {
				v = math.NaN()
			}
			out[i] = float32(v)
		}
	case Int64:
		// Full 64-bit read through float64; the coordinate and velocity
		// ranges in this domain fit a double exactly.
		for i := 0; i < n; i++ {
			v := float64(int64(binary.LittleEndian.Uint64(raw[i*8:])))
			if v == fill {
				v = math.NaN()
			}
			out[i] = float32(v)
		}
	}
	return out
}

// DecodeFloat64 reinterprets raw bytes at full float64 precision.
// Used for coordinate arrays, where float32 rounding would shift
// nearest-index resolution.
func (d DType) DecodeFloat64(raw []byte) []float64 {
	n := len(raw) / d.Size()
	out := make([]float64, n)
	switch d {
	case Float32:
		for i := 0; i < n; i++ {
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	case Float64:
		for i := 0; i < n; i++ {
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
	case Int32:
		for i := 0; i < n; i++ {
			out[i] = float64(int32(binary.LittleEndian.Uint32(raw[i*4:])))
		}
	case Int64:
		for i := 0; i < n; i++ {
			out[i] = float64(int64(binary.LittleEndian.Uint64(raw[i*8:])))
		}
	}
	return out
}
