// Package aorc implements the Adapter for the Analysis of Record for
// Calibration Zarr V2 archive: one store per year, chunked over
// (time, lat, lon).
package aorc

import (
	"time"

	"github.com/hydrofetch/hydrofetch"
	"github.com/hydrofetch/hydrofetch/adapter"
	"github.com/hydrofetch/hydrofetch/internal/decode/zarr"
	"github.com/hydrofetch/hydrofetch/internal/grid"
)

const sourceID = "aorc"

var wireNames = map[string]string{
	"APCP_surface": "APCP_surface",
}

// ChunkShape is the per-axis chunk length AORC stores use: a year of
// hourly steps chunked in blocks of 24, over a 100x100 spatial tile.
// Fixed per-dataset per the Open Question decision to read scale/offset
// from .zattrs rather than guess a universal constant, but the chunk
// geometry itself is a store-layout fact, not a scaling one, so it is
// safe to declare here.
var ChunkShape = [3]int{24, 100, 100}

// Adapter is the aorc source adapter: a Zarr store rooted at one path
// per year.
type Adapter struct {
	descriptor hydrofetch.SourceDescriptor
}

// New builds the aorc adapter over a SourceDescriptor.
func New(d hydrofetch.SourceDescriptor) *Adapter {
	return &Adapter{descriptor: d}
}

func (a *Adapter) Name() string                           { return sourceID }
func (a *Adapter) Descriptor() hydrofetch.SourceDescriptor { return a.descriptor }
func (a *Adapter) DecompressPolicy() string                { return "" } // Zarr chunk bytes are compressed per-chunk, handled by the Decompression Layer's sniff

// urlTemplate is appended to BaseURL when the configured SourceDescriptor
// doesn't carry its own.
const urlTemplate = "/{YYYY}"

// URLFor synthesizes the store root for the given year:
// `.../{YYYY}`. AORC has no forecast hour or region placeholder.
func (a *Adapter) URLFor(product string, p adapter.URLParams) (string, error) {
	tmpl := a.descriptor.URLTemplate
	if tmpl == "" {
		tmpl = urlTemplate
	}
	return adapter.ExpandTemplate(a.descriptor.BaseURL+tmpl, product, p), nil
}

// ResolveProduct checks that variableID is a known AORC variable and
// returns the single product "archive"; the year is named by the store
// root itself.
func (a *Adapter) ResolveProduct(variableID string) (string, error) {
	if _, ok := wireNames[variableID]; !ok {
		return "", &hydrofetch.Error{Op: "aorc.Adapter.ResolveProduct", Kind: hydrofetch.ErrUnknownVariable, Source: sourceID, Message: variableID}
	}
	return "archive", nil
}

// GRIBSelectorFor is not meaningful for a Zarr source.
func (a *Adapter) GRIBSelectorFor(variableID string) (adapter.GRIBSelector, error) {
	return adapter.GRIBSelector{}, &hydrofetch.Error{Op: "aorc.Adapter.GRIBSelectorFor", Kind: hydrofetch.ErrFormatParseError, Source: sourceID, Message: "aorc is a Zarr source"}
}

// NetCDFVariableName doubles as the Zarr array name, since both formats
// key variables by a flat name.
func (a *Adapter) NetCDFVariableName(variableID string) (string, error) {
	name, ok := wireNames[variableID]
	if !ok {
		return "", &hydrofetch.Error{Op: "aorc.Adapter.NetCDFVariableName", Kind: hydrofetch.ErrUnknownVariable, Source: sourceID, Message: variableID}
	}
	return name, nil
}

func (a *Adapter) Finalize(raw float64, v hydrofetch.VariableDescriptor) hydrofetch.Value {
	return grid.ApplyScaling(raw, v)
}

// LocateZarrChunk implements adapter.ZarrChunkLocator: given a point and
// timestamp, computes the chunk tuple relative to 1995-01-01T00:00:00Z
// and the source's declared spatial bounds, plus the element's flat
// index within that chunk (per §8 scenario S4).
func (a *Adapter) LocateZarrChunk(variableID string, t time.Time, lat, lon float64) (storeRoot, chunkPath string, flatIdx int, err error) {
	varName, err := a.NetCDFVariableName(variableID)
	if err != nil {
		return "", "", 0, err
	}

	epoch := time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)
	globalT := int(t.UTC().Sub(epoch).Hours())
	if globalT < 0 {
		return "", "", 0, &hydrofetch.Error{Op: "aorc.Adapter.LocateZarrChunk", Kind: hydrofetch.ErrOutOfTemporalRange, Source: sourceID, Message: "timestamp precedes the AORC epoch"}
	}

	sb := a.descriptor.SpatialBounds
	resolution := 0.01 // AORC's native ~800m grid is commonly resampled to 0.01deg for the archive
	latAxis := grid.Axis{Min: sb.South, Max: sb.North, Resolution: resolution}
	lonAxis := grid.Axis{Min: sb.West, Max: sb.East, Resolution: resolution}
	globalLat := grid.NearestIndex(latAxis, lat)
	globalLon := grid.NearestIndex(lonAxis, lon)

	tChunk, tLocal := zarr.ChunkIndexFor(globalT, ChunkShape[0])
	latChunk, latLocal := zarr.ChunkIndexFor(globalLat, ChunkShape[1])
	lonChunk, lonLocal := zarr.ChunkIndexFor(globalLon, ChunkShape[2])

	root, err := a.URLFor("archive", adapter.URLParams{Time: t})
	if err != nil {
		return "", "", 0, err
	}
	path := zarr.ChunkPath(varName, []int{tChunk, latChunk, lonChunk})
	flat := zarr.FlatIndex(ChunkShape[:], []int{tLocal, latLocal, lonLocal})
	return root, path, flat, nil
}
