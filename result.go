package hydrofetch

import "time"

// Value is an optional scaled measurement: a cooked variable value, or
// absent (the canonical representation of a fill/missing cell, §3).
type Value struct {
	V       float64
	Present bool
}

// Absent is the zero Value with Present left false.
var Absent = Value{}

// Of constructs a present Value.
func Of(v float64) Value { return Value{V: v, Present: true} }

// PointResult is the canonical shape returned by a point query (S1 of
// §8).
type PointResult struct {
	Value     Value
	Units     string
	Variable  string
	Product   string
	Timestamp time.Time
	Location  Point
}

// GridWindow is the canonical "grid window" of §3: a 2-D array of values
// with parallel coordinate axes.
type GridWindow struct {
	Values      [][]Value
	Latitudes   []float64
	Longitudes  []float64
	Bbox        Bbox
	Units       string
	Variable    string
	// AggregatedValue is populated when the request carried an
	// aggregation option (S2 of §8).
	AggregatedValue Value
}

// TimeSeriesPoint is one entry of the §4.7 time_series sequence. Per-step
// failures are captured here rather than aborting the series (§7
// propagation policy).
type TimeSeriesPoint struct {
	Timestamp time.Time
	Value     Value
	Err       error
}

// TimeSeries is an ordered, finite sequence of TimeSeriesPoint.
type TimeSeries struct {
	Variable string
	Units    string
	Points   []TimeSeriesPoint
}
