package config

import (
	"math"
	"time"

	"github.com/hydrofetch/hydrofetch"
)

// DefaultSources returns the static SourceDescriptor table for the four
// sources this module ships adapters for: mrms, hrrr, aorc, prism.
// Callers embedding this module in their own deployment are expected to
// override BaseURL/NeedsProxy per environment rather than hand-roll a
// fresh table.
func DefaultSources() map[string]hydrofetch.SourceDescriptor {
	return map[string]hydrofetch.SourceDescriptor{
		"mrms": {
			ID:            "mrms",
			BaseURL:       "https://mrms.ncep.noaa.gov/data/2D",
			FormatKind:    hydrofetch.FormatGRIB2,
			SpatialBounds: hydrofetch.SpatialBounds{West: -130, East: -60, South: 20, North: 55},
			TemporalBounds: hydrofetch.TemporalBounds{
				Start: time.Now().Add(-48 * time.Hour),
			},
			TemporalResolution: 2 * time.Minute,
			Products:           []string{"MergedReflectivityQC_00.50"},
			Variables: map[string]hydrofetch.VariableDescriptor{
				"REF": mergedReflectivity(),
			},
			NeedsProxy:    false,
			SkipSizeProbe: true, // MRMS's mosaic endpoint does not reliably answer HEAD
		},
		"hrrr": {
			ID:            "hrrr",
			BaseURL:       "https://nomads.ncep.noaa.gov/pub/data/nccf/com/hrrr/prod",
			FormatKind:    hydrofetch.FormatGRIB2,
			SpatialBounds: hydrofetch.SpatialBounds{West: -134.1, East: -60.9, South: 21.1, North: 52.6},
			TemporalResolution: time.Hour,
			Products:           []string{"sfc", "prs", "nat", "subh"},
			Variables: map[string]hydrofetch.VariableDescriptor{
				"TMP": temperature2m(),
			},
			NeedsProxy:   false,
			IsKnownLarge: true,
		},
		"aorc": {
			ID:            "aorc",
			BaseURL:       "https://noaa-nws-aorc-v1-1-1km.s3.amazonaws.com",
			FormatKind:    hydrofetch.FormatZarr,
			SpatialBounds: hydrofetch.SpatialBounds{West: -125, East: -65, South: 25, North: 50},
			TemporalBounds: hydrofetch.TemporalBounds{
				Start: time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			TemporalResolution: time.Hour,
			Products:           []string{"archive"},
			Variables: map[string]hydrofetch.VariableDescriptor{
				"APCP_surface": apcpSurface(),
			},
			NeedsProxy:    false,
			SkipSizeProbe: true, // Zarr chunk objects are small; no benefit probing size first
			IsKnownLarge:  true,
		},
		"prism": {
			ID:            "prism",
			BaseURL:       "https://services.nacse.org/prism/data/public/4km",
			FormatKind:    hydrofetch.FormatBIL,
			SpatialBounds: hydrofetch.SpatialBounds{West: -125, East: -66.5, South: 24, North: 50},
			TemporalBounds: hydrofetch.TemporalBounds{
				Start: time.Date(1895, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			TemporalResolution: 30 * 24 * time.Hour,
			Products:           []string{"ppt", "tmax", "tmin"},
			Variables: map[string]hydrofetch.VariableDescriptor{
				"ppt":  precipitation(),
				"tmax": maxTemperature(),
				"tmin": minTemperature(),
			},
			NeedsProxy: true, // PRISM's server does not set CORS headers for browser callers
		},
	}
}

// DefaultProxyList returns the ordered proxy-prefix chain used when a
// source's NeedsProxy is true and direct fetch fails or is skipped.
// Entries are bare origin/path prefixes; proxyOrderFrom appends the
// `?url=` query-escape convention these relays expect.
func DefaultProxyList() []string {
	return []string{
		"https://corsproxy.io/",
		"https://api.allorigins.win/raw",
	}
}

func mergedReflectivity() hydrofetch.VariableDescriptor {
	v := hydrofetch.NewVariableDescriptor("Base reflectivity, 0.5 deg tilt", "dBZ", "MergedReflectivityQC")
	v.Discipline, v.Category, v.ParameterNum = 0, 15, 0
	v.LevelType, v.Level = "surface", 0
	v.FillValue = -999
	v.DataType = hydrofetch.DataTypeFloat32
	v.AllowedProducts = []string{"MergedReflectivityQC_00.50"}
	v.Aliases = []string{"reflectivity", "ref"}
	return v
}

func temperature2m() hydrofetch.VariableDescriptor {
	v := hydrofetch.NewVariableDescriptor("Temperature at 2m above ground", "K", "TMP")
	v.Discipline, v.Category, v.ParameterNum = 0, 0, 0
	v.LevelType, v.Level = "heightAboveGround", 2
	v.LevelTypeNum, v.LevelValue = 103, 2
	v.FillValue = math.NaN()
	v.DataType = hydrofetch.DataTypeFloat32
	v.AllowedProducts = []string{"sfc"}
	v.Aliases = []string{"temperature", "temp"}
	return v
}

func apcpSurface() hydrofetch.VariableDescriptor {
	v := hydrofetch.NewVariableDescriptor("Total precipitation", "mm", "APCP_surface")
	v.FillValue = math.NaN()
	v.DataType = hydrofetch.DataTypeFloat32
	v.AllowedProducts = []string{"archive"}
	return v
}

func precipitation() hydrofetch.VariableDescriptor {
	v := hydrofetch.NewVariableDescriptor("Monthly total precipitation", "mm", "ppt")
	v.ScaleFactor = 0.01 // PRISM bil stores hundredths of a millimeter
	v.FillValue = -9999
	v.DataType = hydrofetch.DataTypeInt32
	v.AllowedProducts = []string{"ppt"}
	return v
}

func maxTemperature() hydrofetch.VariableDescriptor {
	v := hydrofetch.NewVariableDescriptor("Monthly mean maximum temperature", "degC", "tmax")
	v.ScaleFactor = 0.01
	v.FillValue = -9999
	v.DataType = hydrofetch.DataTypeInt32
	v.AllowedProducts = []string{"tmax"}
	return v
}

func minTemperature() hydrofetch.VariableDescriptor {
	v := hydrofetch.NewVariableDescriptor("Monthly mean minimum temperature", "degC", "tmin")
	v.ScaleFactor = 0.01
	v.FillValue = -9999
	v.DataType = hydrofetch.DataTypeInt32
	v.AllowedProducts = []string{"tmin"}
	return v
}
