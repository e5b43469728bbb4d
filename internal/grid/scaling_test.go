package grid

import (
	"math"
	"testing"

	"github.com/hydrofetch/hydrofetch"
)

func TestApplyScalingPure(t *testing.T) {
	v := hydrofetch.VariableDescriptor{ScaleFactor: 2, AddOffset: 1, FillValue: -9999}
	got := ApplyScaling(5, v)
	if !got.Present || got.V != 11 {
		t.Fatalf("ApplyScaling(5) = %+v, want {11 true}", got)
	}
	// repeated calls with identical inputs must yield identical output
	again := ApplyScaling(5, v)
	if got != again {
		t.Fatalf("ApplyScaling not pure: %+v != %+v", got, again)
	}
}

func TestApplyScalingFillValue(t *testing.T) {
	v := hydrofetch.VariableDescriptor{ScaleFactor: 1, AddOffset: 0, FillValue: -9999}
	got := ApplyScaling(-9999, v)
	if got.Present {
		t.Fatalf("ApplyScaling(fill) = %+v, want absent", got)
	}
}

func TestApplyScalingNaNRaw(t *testing.T) {
	v := hydrofetch.VariableDescriptor{ScaleFactor: 1, AddOffset: 0, FillValue: 0}
	got := ApplyScaling(math.NaN(), v)
	if got.Present {
		t.Fatalf("ApplyScaling(NaN) = %+v, want absent", got)
	}
}
