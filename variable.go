package hydrofetch

import "math"

// DataType is the on-the-wire numeric representation of a variable's raw
// values, needed by decoders that must know endianness/width (Zarr, BIL).
type DataType string

const (
	DataTypeFloat32 DataType = "float32"
	DataTypeFloat64 DataType = "float64"
	DataTypeInt16   DataType = "int16"
	DataTypeInt32   DataType = "int32"
	DataTypeUint8   DataType = "uint8"
)

// VariableDescriptor is the static, per-variable configuration record of
// §3. The invariant `cooked = raw * ScaleFactor + AddOffset` holds only
// when raw != FillValue; see internal/grid.ApplyScaling.
type VariableDescriptor struct {
	LongName        string
	Units           string
	WireParamCode   string // GRIB short name / NetCDF variable name / Zarr array name
	LevelType       string
	Level           float64
	ScaleFactor     float64
	AddOffset       float64
	FillValue       float64
	DataType        DataType
	AllowedProducts []string
	// Availability lists the products/time windows in which this
	// variable is actually published; empty means "always, subject to
	// the source's TemporalBounds".
	Availability []string

	// GRIB2 selector fields, populated for FormatGRIB2 sources.
	Discipline   int
	Category     int
	ParameterNum int
	LevelTypeNum int
	LevelValue   float64
	// Aliases are informal names accepted by resolve_product (§4.8),
	// e.g. "temperature" for "TMP".
	Aliases []string
}

// NewVariableDescriptor returns a descriptor with the §3 defaults applied
// (scale_factor=1.0, add_offset=0.0).
func NewVariableDescriptor(longName, units, wireCode string) VariableDescriptor {
	return VariableDescriptor{
		LongName:      longName,
		Units:         units,
		WireParamCode: wireCode,
		ScaleFactor:   1.0,
		AddOffset:     0.0,
		FillValue:     math.NaN(),
	}
}

// MatchesAlias reports whether name equals the wire code or one of the
// configured informal aliases, case-insensitively would be done by the
// caller; this does an exact match over the configured set.
func (v VariableDescriptor) MatchesAlias(name string) bool {
	if name == v.WireParamCode {
		return true
	}
	for _, a := range v.Aliases {
		if a == name {
			return true
		}
	}
	return false
}
