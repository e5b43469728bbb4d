package grid

import "github.com/hydrofetch/hydrofetch"

// ApplyScaling implements §4.7 apply_scaling / §3's invariant: cooked =
// raw*scale + offset unless raw equals the fill or missing sentinel, in
// which case the result is absent.
//
// This is a pure function (§8 property 3): same inputs always produce
// the same Value, with no observable side effect.
func ApplyScaling(raw float64, v hydrofetch.VariableDescriptor) hydrofetch.Value {
	if isFillOrMissing(raw, v.FillValue) {
		return hydrofetch.Absent
	}
	return hydrofetch.Of(raw*v.ScaleFactor + v.AddOffset)
}

func isFillOrMissing(raw, fill float64) bool {
	if raw == fill {
		return true
	}
	// NaN fill values can't be compared with ==; treat a NaN raw value as
	// always missing regardless of the configured fill value.
	return raw != raw
}
