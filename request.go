package hydrofetch

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GeometryKind discriminates the three request geometries of §3.
type GeometryKind int

const (
	GeometryPoint GeometryKind = iota
	GeometryBbox
	GeometryLocationList
)

// Point is a single (lat, lon) location in EPSG:4326.
type Point struct {
	Lat float64
	Lon float64
}

// Bbox is a west/south/east/north bounding box in EPSG:4326.
type Bbox struct {
	West, South, East, North float64
}

// Valid reports whether the box is non-degenerate (§4.7 validate_bbox).
func (b Bbox) Valid() bool {
	return b.West < b.East && b.South < b.North
}

// Geometry is the tagged union of §3's geometry field.
type Geometry struct {
	Kind      GeometryKind
	Point     Point
	Bbox      Bbox
	Locations []Point
}

// TimeKind discriminates an instant request from a ranged one.
type TimeKind int

const (
	TimeInstant TimeKind = iota
	TimeRange
)

// TimeSpec is the tagged union of §3's time field.
type TimeSpec struct {
	Kind  TimeKind
	At    time.Time
	Start time.Time
	End   time.Time
	// Step is only meaningful for TimeRange requests driving a
	// time_series (§4.7); zero means "use the source's native
	// temporal_resolution".
	Step time.Duration
}

// AggregationKind is the set of §4.7 aggregate_spatial/aggregate_temporal
// reducers.
type AggregationKind string

const (
	AggMean   AggregationKind = "mean"
	AggSum    AggregationKind = "sum"
	AggMin    AggregationKind = "min"
	AggMax    AggregationKind = "max"
	AggMedian AggregationKind = "median"
)

// RequestOptions carries the optional knobs of §3's "options" field.
type RequestOptions struct {
	ForecastHour int
	Product      string
	Resolution   string
	Region       string
	Aggregation  AggregationKind
	ProcessFlag  bool // when false, decoders return an opaque buffer descriptor only
	CacheFlag    bool
	ProxyFlag    bool
	OutputFormat string
	// UserTag, when set, is folded into the cache key so two logically
	// distinct callers don't collide on the same derived key.
	UserTag string
	// CacheID, when set, is used verbatim as the cache key instead of
	// being derived (§4.4).
	CacheID string
	// ForceChunked mirrors §4.2 step 2's context.force_chunked.
	ForceChunked bool
}

// DefaultRequestOptions returns the zero-value-safe defaults: caching and
// proxying enabled, full decode performed.
func DefaultRequestOptions() RequestOptions {
	return RequestOptions{
		CacheFlag:   true,
		ProxyFlag:   true,
		ProcessFlag: true,
		Aggregation: AggMean,
	}
}

// Request is the immutable, per-operation request descriptor of §3.
type Request struct {
	ID           uuid.UUID
	SourceID     string
	DatasetID    string
	VariableID   string
	VariableIDs  []string
	Geometry     Geometry
	Time         TimeSpec
	Options      RequestOptions
}

// NewRequest constructs a Request with a fresh correlation id and default
// options, ready for field overrides by the caller.
func NewRequest(sourceID, datasetID, variableID string) *Request {
	return &Request{
		ID:         uuid.New(),
		SourceID:   sourceID,
		DatasetID:  datasetID,
		VariableID: variableID,
		Options:    DefaultRequestOptions(),
	}
}

func (r *Request) String() string {
	return fmt.Sprintf("Request{id=%s source=%s dataset=%s variable=%s}", r.ID, r.SourceID, r.DatasetID, r.VariableID)
}
