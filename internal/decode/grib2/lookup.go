package grib2

import (
	"math"
	"strings"

	"github.com/hydrofetch/hydrofetch"
)

// Selector identifies the message find_message should match, mirroring
// a VariableDescriptor's GRIB2 selector fields.
type Selector struct {
	Discipline   int
	Category     int
	ParamNum     int
	LevelType    int
	LevelValue   float64
	ShortName    string // GRIB short name, e.g. "TMP"
	Aliases      []string
}

// FindMessage implements find_message: exact match on
// (discipline, category, parameter, level_type, level_value), falling
// back to a substring match on GRIB short name for alias tolerance.
func FindMessage(messages []Message, sel Selector) (*Message, error) {
	for i := range messages {
		m := &messages[i]
		if m.Discipline == sel.Discipline && m.Category == sel.Category &&
			m.ParamNum == sel.ParamNum && m.LevelType == sel.LevelType &&
			m.LevelValue == sel.LevelValue {
			return m, nil
		}
	}
	for i := range messages {
		m := &messages[i]
		if m.ShortName == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(m.ShortName), strings.ToUpper(sel.ShortName)) {
			return m, nil
		}
		for _, a := range sel.Aliases {
			if strings.Contains(strings.ToUpper(m.ShortName), strings.ToUpper(a)) {
				return m, nil
			}
		}
	}
	return nil, &hydrofetch.Error{Op: "grib2.FindMessage", Kind: hydrofetch.ErrMessageNotFound, Message: "no message matches the requested variable"}
}

// ValueAtPoint implements value_at_point: the regular lat/lon fast path
// when grid_template == 0 and the needed metadata is present, else
// brute-force nearest-neighbour over Latitudes/Longitudes.
func ValueAtPoint(m *Message, lat, lon float64) (float64, error) {
	if m.Values == nil {
		return 0, &hydrofetch.Error{Op: "grib2.ValueAtPoint", Kind: hydrofetch.ErrFormatParseError, Message: "message was not fully decoded (process_flag=false)"}
	}
	if m.GridTemplate == GridRegularLatLon && m.LatIncrement > 0 && m.LonIncrement > 0 {
		var latIdx int
		if m.ScanNegativeJ {
			// rows run north to south (the common default): lat decreases
			// as the row index increases.
			latIdx = int(math.Round((m.LatStart - lat) / m.LatIncrement))
		} else {
			latIdx = int(math.Round((lat - m.LatStart) / m.LatIncrement))
		}
		lonIdx := int(math.Round((lon - m.LonStart) / m.LonIncrement))
		latIdx = clampIdx(latIdx, m.Nj)
		lonIdx = clampIdx(lonIdx, m.Ni)
		return m.Values[latIdx*m.Ni+lonIdx], nil
	}

	if len(m.Latitudes) == 0 || len(m.Longitudes) == 0 {
		return 0, &hydrofetch.Error{Op: "grib2.ValueAtPoint", Kind: hydrofetch.ErrFormatParseError, Message: "no coordinate arrays available for nearest-neighbour fallback"}
	}
	best, bestDist := -1, math.Inf(1)
	for i := range m.Latitudes {
		d := math.Hypot(m.Latitudes[i]-lat, m.Longitudes[i]-lon)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 || best >= len(m.Values) {
		return 0, &hydrofetch.Error{Op: "grib2.ValueAtPoint", Kind: hydrofetch.ErrOutOfDomainPoint, Message: "no grid point found near the requested coordinates"}
	}
	return m.Values[best], nil
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
