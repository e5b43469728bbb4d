package grid

import (
	"testing"

	"github.com/hydrofetch/hydrofetch"
)

func vals(present ...float64) []hydrofetch.Value {
	out := make([]hydrofetch.Value, len(present))
	for i, p := range present {
		out[i] = hydrofetch.Of(p)
	}
	return out
}

func TestAggregateMean(t *testing.T) {
	got := Aggregate(vals(1, 2, 3), hydrofetch.AggMean)
	if !got.Present || got.V != 2 {
		t.Fatalf("mean = %+v, want 2", got)
	}
}

func TestAggregateMedianEvenOdd(t *testing.T) {
	if got := Aggregate(vals(1, 3, 2), hydrofetch.AggMedian); got.V != 2 {
		t.Fatalf("median(odd) = %v, want 2", got.V)
	}
	if got := Aggregate(vals(1, 2, 3, 4), hydrofetch.AggMedian); got.V != 2.5 {
		t.Fatalf("median(even) = %v, want 2.5", got.V)
	}
}

func TestAggregateAllAbsent(t *testing.T) {
	in := []hydrofetch.Value{hydrofetch.Absent, hydrofetch.Absent}
	got := Aggregate(in, hydrofetch.AggMean)
	if got.Present {
		t.Fatalf("all-absent input produced present value: %+v", got)
	}
}

func TestAggregateExcludesAbsent(t *testing.T) {
	in := []hydrofetch.Value{hydrofetch.Of(10), hydrofetch.Absent, hydrofetch.Of(20)}
	got := Aggregate(in, hydrofetch.AggMean)
	if !got.Present || got.V != 15 {
		t.Fatalf("mean excluding absent = %+v, want 15", got)
	}
}

func TestFlattenGrid(t *testing.T) {
	g := [][]hydrofetch.Value{vals(1, 2), vals(3, 4)}
	flat := FlattenGrid(g)
	if len(flat) != 4 {
		t.Fatalf("len(flat) = %d, want 4", len(flat))
	}
}
