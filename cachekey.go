package hydrofetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DataKind distinguishes the logical shape of the cached resource,
// independent of the remote wire format — used as one component of the
// cache key so a point fetch and a grid fetch of the same variable never
// collide.
type DataKind string

const (
	DataKindPoint      DataKind = "point"
	DataKindGrid       DataKind = "grid"
	DataKindTimeSeries DataKind = "timeseries"
	DataKindZarrChunk  DataKind = "zarr-chunk"
)

// CacheKey derives the cache key for a Request per §3/§4.4:
//
//	"it never depends on which proxy served the bytes" — CacheKey takes
//	no URL or transport detail as input, only the logical request.
//
// When Options.CacheID is set it is returned verbatim (optionally with a
// sub-resource suffix), per §4.4's "user-supplied cache_id" rule.
func CacheKey(r *Request, kind DataKind, subResource string) string {
	if r.Options.CacheID != "" {
		if subResource == "" {
			return r.Options.CacheID
		}
		return r.Options.CacheID + "/" + subResource
	}

	var b strings.Builder
	b.WriteString(r.SourceID)
	b.WriteString("|")
	b.WriteString(string(kind))
	b.WriteString("|")
	b.WriteString(geometryToken(r.Geometry))
	b.WriteString("|")
	b.WriteString(timeToken(r.Time))
	b.WriteString("|")
	b.WriteString(r.VariableID)
	if len(r.VariableIDs) > 0 {
		b.WriteString(",")
		b.WriteString(strings.Join(r.VariableIDs, ","))
	}
	b.WriteString("|")
	b.WriteString(r.DatasetID)
	if r.Options.UserTag != "" {
		b.WriteString("|")
		b.WriteString(r.Options.UserTag)
	}

	key := hashIfLong(b.String())
	if subResource != "" {
		key += "/" + subResource
	}
	return key
}

// geometryToken stringifies the geometry at fixed precision, so that two
// floating-point-equal-but-differently-formatted coordinates produce the
// same key (§3's "stringified with fixed precision").
func geometryToken(g Geometry) string {
	const prec = "%.5f"
	switch g.Kind {
	case GeometryPoint:
		return fmt.Sprintf("pt:"+prec+","+prec, g.Point.Lat, g.Point.Lon)
	case GeometryBbox:
		return fmt.Sprintf("bbox:"+prec+","+prec+","+prec+","+prec,
			g.Bbox.West, g.Bbox.South, g.Bbox.East, g.Bbox.North)
	case GeometryLocationList:
		var parts []string
		for _, p := range g.Locations {
			parts = append(parts, fmt.Sprintf(prec+","+prec, p.Lat, p.Lon))
		}
		return "locs:" + strings.Join(parts, ";")
	default:
		return "geo:none"
	}
}

// timeToken truncates to day precision per §4.4's "start_date[:10],
// end_date[:10]" rule.
func timeToken(t TimeSpec) string {
	const layout = "2006-01-02"
	switch t.Kind {
	case TimeInstant:
		return "at:" + t.At.Format(layout)
	case TimeRange:
		return "range:" + t.Start.Format(layout) + ".." + t.End.Format(layout)
	default:
		return "t:none"
	}
}

// hashIfLong keeps short keys human-readable (useful in logs and the
// cache's List() output) while still bounding key length for pathological
// inputs such as very long location lists.
func hashIfLong(s string) string {
	const maxLen = 200
	if len(s) <= maxLen {
		return s
	}
	sum := sha256.Sum256([]byte(s))
	return s[:maxLen] + "#" + hex.EncodeToString(sum[:8])
}
