package hydrofetch

import "time"

// FormatKind is the closed set of wire formats a SourceDescriptor may
// declare (§3, §4.6).
type FormatKind string

const (
	FormatGRIB2   FormatKind = "grib2"
	FormatNetCDF  FormatKind = "netcdf"
	FormatZarr    FormatKind = "zarr"
	FormatGeoTIFF FormatKind = "geotiff"
	FormatBIL     FormatKind = "bil"
)

// SpatialBounds is the rectangular domain a source covers.
type SpatialBounds struct {
	West, South, East, North float64
}

// Contains reports whether (lat, lon) falls within the bounds.
func (b SpatialBounds) Contains(lat, lon float64) bool {
	return lon >= b.West && lon <= b.East && lat >= b.South && lat <= b.North
}

// TemporalBounds is the time domain a source covers; Start zero means
// "open start" (e.g. a rolling real-time retention window), End zero
// means "open end" (ongoing).
type TemporalBounds struct {
	Start, End time.Time
}

// SourceDescriptor is the static, per-source configuration record
// supplied by the external configuration provider (§6). It is read-only
// once loaded.
type SourceDescriptor struct {
	ID               string
	BaseURL          string
	URLTemplate      string
	FormatKind       FormatKind
	SpatialBounds    SpatialBounds
	TemporalBounds   TemporalBounds
	TemporalResolution time.Duration
	Products         []string
	Variables        map[string]VariableDescriptor
	NeedsProxy       bool
	RequiresKey      bool
	// SkipSizeProbe disables the HEAD probe of §4.3 step 2 for sources
	// known to not support HEAD.
	SkipSizeProbe bool
	// IsKnownLarge marks sources that should always use chunked transport
	// regardless of a Content-Length probe (§4.2 step 2).
	IsKnownLarge bool
}

// Variable looks up a VariableDescriptor by id, returning ErrUnknownVariable
// wrapped in an *Error when absent.
func (s SourceDescriptor) Variable(id string) (VariableDescriptor, error) {
	v, ok := s.Variables[id]
	if !ok {
		return VariableDescriptor{}, &Error{
			Op:      "SourceDescriptor.Variable",
			Kind:    ErrUnknownVariable,
			Source:  s.ID,
			Message: "no such variable: " + id,
		}
	}
	return v, nil
}
