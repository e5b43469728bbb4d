// Package adapter implements the Source Adapter Registry (§4.8): a
// capability interface per data source plus a generic base that composes
// point/grid/timeseries/multi-point algorithms over the Fetch
// Orchestrator, format decoders, and Grid Engine.
package adapter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hydrofetch/hydrofetch"
)

// URLParams carries the placeholders a URL template may reference:
// {YYYY} {MM} {DD} {HH} {step} {region} {resolution} {time_period} {doy}.
type URLParams struct {
	Time         time.Time
	ForecastHour int
	Region       string
	Resolution   string
	TimePeriod   string
}

// GRIBSelector names a GRIB2 message via the (discipline, category,
// parameter, level) tuple §4.6's find_message matches on.
type GRIBSelector struct {
	Discipline   int
	Category     int
	ParameterNum int
	LevelType    int
	LevelValue   float64
	ShortName    string // alias fallback for substring matching
}

// Adapter is the per-source strategy object of §4.8. A sealed set of
// concrete adapters (mrms, hrrr, aorc, prism) implements it; the generic
// base invokes these hooks rather than branching on source identity.
type Adapter interface {
	// Name reports the source_id this adapter implements.
	Name() string

	// URLFor synthesizes the remote URL for one product/timestamp.
	URLFor(product string, p URLParams) (string, error)

	// ResolveProduct picks the product carrying variableID, honoring the
	// source's alias table for informal names.
	ResolveProduct(variableID string) (string, error)

	// DecompressPolicy reports the decompression hint to apply to the
	// fetched buffer before format decoding (empty string: let the
	// Decompression Layer sniff it).
	DecompressPolicy() string

	// GRIBSelectorFor returns the GRIB2 selector for variableID; only
	// meaningful when the source's FormatKind is FormatGRIB2.
	GRIBSelectorFor(variableID string) (GRIBSelector, error)

	// NetCDFVariableName returns the on-disk NetCDF/Zarr array name for
	// variableID; only meaningful for FormatNetCDF/FormatZarr sources.
	NetCDFVariableName(variableID string) (string, error)

	// Finalize converts a raw decoded value into the cooked, scaled
	// value. Defaults to grid.ApplyScaling; adapters override only for
	// nonlinear corrections.
	Finalize(raw float64, v hydrofetch.VariableDescriptor) hydrofetch.Value

	// Descriptor returns the adapter's static source descriptor.
	Descriptor() hydrofetch.SourceDescriptor
}

// Registry holds adapters keyed by source_id.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter, keyed by its own Name().
func (r *Registry) Register(a Adapter) {
	r.adapters[a.Name()] = a
}

// Get looks up an adapter by source id.
func (r *Registry) Get(sourceID string) (Adapter, error) {
	a, ok := r.adapters[sourceID]
	if !ok {
		return nil, &hydrofetch.Error{
			Op: "adapter.Registry.Get", Kind: hydrofetch.ErrUnknownSource, Source: sourceID,
			Message: "no adapter registered for source",
		}
	}
	return a, nil
}

// ExpandTemplate substitutes §4.8's placeholder set
// (`{YYYY} {MM} {DD} {HH} {step} {region} {resolution} {time_period}
// {doy} {product}`) into a source's URL template. Adapters call this
// from URLFor rather than hand-rolling fmt.Sprintf, so the placeholder
// set stays consistent across sources.
func ExpandTemplate(tmpl, product string, p URLParams) string {
	r := strings.NewReplacer(
		"{YYYY}", fmt.Sprintf("%04d", p.Time.UTC().Year()),
		"{MM}", fmt.Sprintf("%02d", int(p.Time.UTC().Month())),
		"{DD}", fmt.Sprintf("%02d", p.Time.UTC().Day()),
		"{HH}", fmt.Sprintf("%02d", p.Time.UTC().Hour()),
		"{step}", fmt.Sprintf("%02d", p.ForecastHour),
		"{region}", p.Region,
		"{resolution}", p.Resolution,
		"{time_period}", p.TimePeriod,
		"{doy}", strconv.Itoa(p.Time.UTC().YearDay()),
		"{product}", product,
	)
	return r.Replace(tmpl)
}

// ResolveAlias matches variableID against a per-source informal-name
// table (e.g. "temperature" -> "TMP"), used by ResolveProduct and
// GRIBSelectorFor lookups across adapters. Lookups are case-insensitive
// on the caller-supplied key side since alias tables are authored in
// lowercase by convention.
func ResolveAlias(aliases map[string]string, variableID string) string {
	if canonical, ok := aliases[strings.ToLower(variableID)]; ok {
		return canonical
	}
	return variableID
}
