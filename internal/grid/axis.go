// Package grid implements the Grid Engine (§4.7): coordinate/index
// arithmetic, scaling, aggregation, validation, and time-series assembly.
package grid

import (
	"math"
	"sort"
)

// Axis is a one-dimensional coordinate axis, either defined by a
// resolution (min/max/resolution, e.g. a Zarr/NetCDF regular grid) or by
// an explicit sorted array of coordinate values (e.g. a GRIB2 grid
// decoded to discrete points).
type Axis struct {
	Min, Max, Resolution float64
	Values               []float64 // non-nil => explicit-array axis
}

// NearestIndex implements §4.7 nearest_index.
//
// For a resolution-based axis: clamp(round((target-min)/resolution), 0,
// floor((max-min)/resolution)).
// For an explicit-array axis: argmin(|axis[i]-target|).
func NearestIndex(a Axis, target float64) int {
	if a.Values != nil {
		return argminAbsDiff(a.Values, target)
	}
	if a.Resolution == 0 {
		return 0
	}
	maxIdx := int(math.Floor((a.Max - a.Min) / a.Resolution))
	idx := int(math.Round((target - a.Min) / a.Resolution))
	return clamp(idx, 0, maxIdx)
}

func argminAbsDiff(values []float64, target float64) int {
	best, bestDiff := 0, math.Inf(1)
	for i, v := range values {
		d := math.Abs(v - target)
		if d < bestDiff {
			best, bestDiff = i, d
		}
	}
	return best
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Len returns the number of grid points along the axis.
func (a Axis) Len() int {
	if a.Values != nil {
		return len(a.Values)
	}
	if a.Resolution == 0 {
		return 0
	}
	return int(math.Floor((a.Max-a.Min)/a.Resolution)) + 1
}

// At returns the coordinate value at index i.
func (a Axis) At(i int) float64 {
	if a.Values != nil {
		return a.Values[i]
	}
	return a.Min + float64(i)*a.Resolution
}

// IndexRange returns the contiguous [lo, hi] index range covering
// [lo, hi] for windowing a bbox against this axis. It does not
// assume the axis is ascending.
func IndexRange(a Axis, lo, hi float64) (int, int) {
	i0 := NearestIndex(a, lo)
	i1 := NearestIndex(a, hi)
	if i0 > i1 {
		i0, i1 = i1, i0
	}
	return i0, i1
}

// SortedCopy returns a sorted copy of an explicit-array axis's values,
// used by decoders that need a monotone axis for IndexRange but were
// handed coordinates in scan order.
func SortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
