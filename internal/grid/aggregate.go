package grid

import (
	"sort"

	"github.com/hydrofetch/hydrofetch"
)

// Aggregate implements §4.7 aggregate_spatial/aggregate_temporal: both
// share identical semantics over a flat sequence of optional values.
// Absent values are excluded; an all-absent input yields absent.
func Aggregate(values []hydrofetch.Value, kind hydrofetch.AggregationKind) hydrofetch.Value {
	present := make([]float64, 0, len(values))
	for _, v := range values {
		if v.Present {
			present = append(present, v.V)
		}
	}
	if len(present) == 0 {
		return hydrofetch.Absent
	}
	switch kind {
	case hydrofetch.AggMean:
		var sum float64
		for _, v := range present {
			sum += v
		}
		return hydrofetch.Of(sum / float64(len(present)))
	case hydrofetch.AggSum:
		var sum float64
		for _, v := range present {
			sum += v
		}
		return hydrofetch.Of(sum)
	case hydrofetch.AggMin:
		m := present[0]
		for _, v := range present[1:] {
			if v < m {
				m = v
			}
		}
		return hydrofetch.Of(m)
	case hydrofetch.AggMax:
		m := present[0]
		for _, v := range present[1:] {
			if v > m {
				m = v
			}
		}
		return hydrofetch.Of(m)
	case hydrofetch.AggMedian:
		sort.Float64s(present)
		n := len(present)
		if n%2 == 1 {
			return hydrofetch.Of(present[n/2])
		}
		return hydrofetch.Of((present[n/2-1] + present[n/2]) / 2)
	default:
		return hydrofetch.Absent
	}
}

// FlattenGrid collapses a 2-D grid window into the flat sequence
// Aggregate expects.
func FlattenGrid(values [][]hydrofetch.Value) []hydrofetch.Value {
	var out []hydrofetch.Value
	for _, row := range values {
		out = append(out, row...)
	}
	return out
}
