// Package hrrr implements the Adapter for NOAA's High-Resolution Rapid
// Refresh operational forecast model.
package hrrr

import (
	"github.com/hydrofetch/hydrofetch"
	"github.com/hydrofetch/hydrofetch/adapter"
	"github.com/hydrofetch/hydrofetch/internal/grid"
)

const sourceID = "hrrr"

var productAliases = map[string]string{
	"temperature": "TMP",
	"temp":        "TMP",
}

var gribSelectors = map[string]adapter.GRIBSelector{
	"TMP": {Discipline: 0, Category: 0, ParameterNum: 0, LevelType: 103, LevelValue: 2, ShortName: "TMP"},
}

// Adapter is the hrrr source adapter: forecast-hour-indexed GRIB2 grids
// keyed by product ("sfc", "prs", "nat", "subh").
type Adapter struct {
	descriptor hydrofetch.SourceDescriptor
}

// New builds the hrrr adapter over a SourceDescriptor.
func New(d hydrofetch.SourceDescriptor) *Adapter {
	return &Adapter{descriptor: d}
}

func (a *Adapter) Name() string                           { return sourceID }
func (a *Adapter) Descriptor() hydrofetch.SourceDescriptor { return a.descriptor }
func (a *Adapter) DecompressPolicy() string                { return "" } // GRIB2 is uncompressed on the wire for HRRR

// urlTemplate is appended to BaseURL when the configured SourceDescriptor
// doesn't carry its own.
const urlTemplate = "/hrrr.{YYYY}{MM}{DD}/conus/hrrr.t{HH}z.wrf{product}f{step}.grib2"

// URLFor synthesizes `.../hrrr.{YYYYMMDD}/conus/hrrr.t{HH}z.wrf{product}f{step}.grib2`.
func (a *Adapter) URLFor(product string, p adapter.URLParams) (string, error) {
	tmpl := a.descriptor.URLTemplate
	if tmpl == "" {
		tmpl = urlTemplate
	}
	return adapter.ExpandTemplate(a.descriptor.BaseURL+tmpl, product, p), nil
}

// ResolveProduct maps a variable to the HRRR product file suffix that
// carries it: "sfc" for the surface fields this adapter knows about.
func (a *Adapter) ResolveProduct(variableID string) (string, error) {
	short := adapter.ResolveAlias(productAliases, variableID)
	if _, ok := gribSelectors[short]; !ok {
		return "", &hydrofetch.Error{Op: "hrrr.Adapter.ResolveProduct", Kind: hydrofetch.ErrUnknownProduct, Source: sourceID, Message: "no HRRR product for variable " + variableID}
	}
	return "sfc", nil
}

func (a *Adapter) GRIBSelectorFor(variableID string) (adapter.GRIBSelector, error) {
	short := adapter.ResolveAlias(productAliases, variableID)
	sel, ok := gribSelectors[short]
	if !ok {
		return adapter.GRIBSelector{}, &hydrofetch.Error{Op: "hrrr.Adapter.GRIBSelectorFor", Kind: hydrofetch.ErrUnknownVariable, Source: sourceID, Message: variableID}
	}
	return sel, nil
}

func (a *Adapter) NetCDFVariableName(variableID string) (string, error) {
	return "", &hydrofetch.Error{Op: "hrrr.Adapter.NetCDFVariableName", Kind: hydrofetch.ErrFormatParseError, Source: sourceID, Message: "hrrr is a GRIB2 source"}
}

func (a *Adapter) Finalize(raw float64, v hydrofetch.VariableDescriptor) hydrofetch.Value {
	return grid.ApplyScaling(raw, v)
}
