package grid

import "github.com/hydrofetch/hydrofetch"

// ValidateCoords implements §4.7 validate_coords: fails with OutOfDomain
// if (lat, lon) falls outside the source's spatial bounds.
func ValidateCoords(lat, lon float64, bounds hydrofetch.SpatialBounds) error {
	if !bounds.Contains(lat, lon) {
		return &hydrofetch.Error{
			Op:   "grid.ValidateCoords",
			Kind: hydrofetch.ErrOutOfDomainPoint,
			Message: "point outside source spatial bounds",
		}
	}
	return nil
}

// ValidateBbox implements §4.7 validate_bbox: fails on a degenerate box
// (w>=e or s>=n); a bbox that only partially overlaps the source's bounds
// is allowed through (the caller should warn, not fail).
func ValidateBbox(b hydrofetch.Bbox) error {
	if !b.Valid() {
		return &hydrofetch.Error{
			Op:   "grid.ValidateBbox",
			Kind: hydrofetch.ErrInvalidBbox,
			Message: "degenerate bbox: west must be < east and south must be < north",
		}
	}
	return nil
}

// Overlaps reports whether b and bounds share any area, used by callers
// to decide whether a partial-overlap warning is warranted.
func Overlaps(b hydrofetch.Bbox, bounds hydrofetch.SpatialBounds) bool {
	return b.West < bounds.East && b.East > bounds.West &&
		b.South < bounds.North && b.North > bounds.South
}
