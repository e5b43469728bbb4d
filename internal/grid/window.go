package grid

import "github.com/hydrofetch/hydrofetch"

// BuildWindow assembles a hydrofetch.GridWindow from a raw 2-D array
// (row-major, [lat][lon]) and the axes/variable that describe it,
// applying ApplyScaling to every cell.
func BuildWindow(raw [][]float64, lats, lons Axis, v hydrofetch.VariableDescriptor) hydrofetch.GridWindow {
	values := make([][]hydrofetch.Value, len(raw))
	for i, row := range raw {
		out := make([]hydrofetch.Value, len(row))
		for j, cell := range row {
			out[j] = ApplyScaling(cell, v)
		}
		values[i] = out
	}

	latVals := make([]float64, lats.Len())
	for i := range latVals {
		latVals[i] = lats.At(i)
	}
	lonVals := make([]float64, lons.Len())
	for i := range lonVals {
		lonVals[i] = lons.At(i)
	}

	return hydrofetch.GridWindow{
		Latitudes:  latVals,
		Longitudes: lonVals,
		Values:     values,
	}
}

// Slice extracts the sub-window of values covering index ranges
// [latLo,latHi] x [lonLo,lonHi] inclusive, as produced by IndexRange.
func Slice(values [][]hydrofetch.Value, latLo, latHi, lonLo, lonHi int) [][]hydrofetch.Value {
	out := make([][]hydrofetch.Value, 0, latHi-latLo+1)
	for i := latLo; i <= latHi && i < len(values); i++ {
		row := values[i]
		lo, hi := lonLo, lonHi
		if hi >= len(row) {
			hi = len(row) - 1
		}
		if lo < 0 {
			lo = 0
		}
		out = append(out, row[lo:hi+1])
	}
	return out
}
