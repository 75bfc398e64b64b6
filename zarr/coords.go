package zarr

import (
	"math"
	"time"
)

// Axis identifies one of the four coordinate axes.
type Axis uint8

const (
	AxisTime Axis = iota
	AxisDepth
	AxisLat
	AxisLon
)

// Vertical axis name fallbacks, probed in order. "elevation" and "z" follow
// the negative-down convention and are sign-flipped on load; a store using
// any other name fails with ErrMissingCoordinate rather than guessing.
var depthNames = []string{"depth", "elevation", "z"}

// TimeUnit is the inferred unit of the time axis.
type TimeUnit uint8

const (
	// TimeEpochMillis: values above 1e12 are milliseconds since the epoch.
	TimeEpochMillis TimeUnit = iota
	// TimeEpochSeconds: values in [1e9, 1e12] are seconds since the epoch.
	TimeEpochSeconds
	// TimeDays1950: smaller values are days since 1950-01-01T00:00:00Z.
	TimeDays1950
)

// epoch1950 is the fixed reference epoch for day-based time axes, as unix
// seconds.
var epoch1950 = time.Date(1950, time.January, 1, 0, 0, 0, 0, time.UTC).Unix()

// ClassifyTimeValue applies the magnitude policy to a raw time sample.
// The store does not declare the axis unit authoritatively, so the same
// policy classifies both stored samples and query values.
func ClassifyTimeValue(v float64) TimeUnit {
	av := math.Abs(v)
	switch {
	case av > 1e12:
		return TimeEpochMillis
	case av >= 1e9:
		return TimeEpochSeconds
	default:
		return TimeDays1950
	}
}

// toUnixSeconds converts a value in the given unit to unix seconds.
func toUnixSeconds(v float64, u TimeUnit) float64 {
	switch u {
	case TimeEpochMillis:
		return v / 1000
	case TimeEpochSeconds:
		return v
	default:
		return float64(epoch1950) + v*86400
	}
}

// TimeString formats a raw time axis value as a UTC timestamp.
func TimeString(v float64) string {
	sec := toUnixSeconds(v, ClassifyTimeValue(v))
	return time.Unix(int64(sec), 0).UTC().Format("2006-01-02 15:04")
}

// fromUnixSeconds converts unix seconds to a value in the given unit.
func fromUnixSeconds(sec float64, u TimeUnit) float64 {
	switch u {
	case TimeEpochMillis:
		return sec * 1000
	case TimeEpochSeconds:
		return sec
	default:
		return (sec - float64(epoch1950)) / 86400
	}
}

// Coordinates holds the four 1-D coordinate arrays, loaded once at store
// initialization. Depth is stored positive-down.
type Coordinates struct {
	Time  []float64
	Depth []float64
	Lat   []float64
	Lon   []float64
}

func (c *Coordinates) axis(a Axis) []float64 {
	switch a {
	case AxisTime:
		return c.Time
	case AxisDepth:
		return c.Depth
	case AxisLat:
		return c.Lat
	default:
		return c.Lon
	}
}

// NearestIndex returns the index of the axis value closest to v by absolute
// difference. Ties resolve to the lowest index. Returns -1 for an empty axis.
func (c *Coordinates) NearestIndex(a Axis, v float64) int {
	values := c.axis(a)
	best := -1
	bestDist := math.Inf(1)
	for i, x := range values {
		d := math.Abs(x - v)
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

// ResolveTimeIndex resolves a timestamp or raw coordinate value to the
// nearest time index. The query value is classified by the same magnitude
// policy as the stored axis and converted into the axis unit before the
// nearest scan.
func (c *Coordinates) ResolveTimeIndex(v float64) int {
	if len(c.Time) == 0 {
		return -1
	}
	axisUnit := ClassifyTimeValue(c.Time[0])
	queryUnit := ClassifyTimeValue(v)
	if queryUnit != axisUnit {
		v = fromUnixSeconds(toUnixSeconds(v, queryUnit), axisUnit)
	}
	return c.NearestIndex(AxisTime, v)
}

// ResolveDepthIndex resolves a positive-down depth value to the nearest
// depth index. Negative inputs are treated as elevations and flipped.
func (c *Coordinates) ResolveDepthIndex(v float64) int {
	if v < 0 {
		v = -v
	}
	return c.NearestIndex(AxisDepth, v)
}

// normalizeDepth enforces the positive-down convention: if any value on the
// vertical axis is negative the whole axis is negated.
func normalizeDepth(values []float64) []float64 {
	flip := false
	for _, v := range values {
		if v < 0 {
			flip = true
			break
		}
	}
	if !flip {
		return values
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = -v
	}
	return out
}
