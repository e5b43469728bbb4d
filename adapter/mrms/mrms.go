// Package mrms implements the Adapter for NOAA's Multi-Radar/Multi-Sensor
// real-time mosaic products.
package mrms

import (
	"github.com/hydrofetch/hydrofetch"
	"github.com/hydrofetch/hydrofetch/adapter"
	"github.com/hydrofetch/hydrofetch/internal/grid"
)

const sourceID = "mrms"

// productAliases maps informal variable names to the GRIB short names
// MRMS publishes, per §4.8 resolve_product's alias tolerance.
var productAliases = map[string]string{
	"reflectivity": "REF",
	"ref":          "REF",
}

var gribSelectors = map[string]adapter.GRIBSelector{
	"REF": {Discipline: 0, Category: 15, ParameterNum: 0, LevelType: 0, LevelValue: 0, ShortName: "MergedReflectivityQC"},
}

// products maps a variable's short name to the MRMS product path
// fragment (e.g. "MergedReflectivityQC_00.50").
var products = map[string]string{
	"REF": "MergedReflectivityQC_00.50",
}

// Adapter is the mrms source adapter: a single real-time product served
// directly (no forecast hour, no archive window beyond ~24-48h).
type Adapter struct {
	descriptor hydrofetch.SourceDescriptor
}

// New builds the mrms adapter over a SourceDescriptor supplied by the
// configuration provider.
func New(d hydrofetch.SourceDescriptor) *Adapter {
	return &Adapter{descriptor: d}
}

func (a *Adapter) Name() string                           { return sourceID }
func (a *Adapter) Descriptor() hydrofetch.SourceDescriptor { return a.descriptor }
func (a *Adapter) DecompressPolicy() string                { return "gzip" }

// urlTemplate is appended to BaseURL when the configured SourceDescriptor
// doesn't carry its own, so the adapter still works against bare
// BaseURL-only fixtures.
const urlTemplate = "/CONUS/{product}/MRMS_{product}_{YYYY}{MM}{DD}-{HH}0000.grib2.gz"

// URLFor synthesizes the MRMS real-time mosaic URL:
// `.../CONUS/{product}/MRMS_{product}_{YYYYMMDD}-{HHMMSS}.grib2.gz`, via
// adapter.ExpandTemplate against the source's URL template.
func (a *Adapter) URLFor(product string, p adapter.URLParams) (string, error) {
	tmpl := a.descriptor.URLTemplate
	if tmpl == "" {
		tmpl = urlTemplate
	}
	return adapter.ExpandTemplate(a.descriptor.BaseURL+tmpl, product, p), nil
}

// ResolveProduct maps variableID (possibly an alias) to the MRMS product
// path fragment carrying it.
func (a *Adapter) ResolveProduct(variableID string) (string, error) {
	short := adapter.ResolveAlias(productAliases, variableID)
	p, ok := products[short]
	if !ok {
		return "", &hydrofetch.Error{Op: "mrms.Adapter.ResolveProduct", Kind: hydrofetch.ErrUnknownProduct, Source: sourceID, Message: "no MRMS product for variable " + variableID}
	}
	return p, nil
}

// GRIBSelectorFor returns the (discipline, category, parameter, level)
// selector for a MRMS variable.
func (a *Adapter) GRIBSelectorFor(variableID string) (adapter.GRIBSelector, error) {
	short := adapter.ResolveAlias(productAliases, variableID)
	sel, ok := gribSelectors[short]
	if !ok {
		return adapter.GRIBSelector{}, &hydrofetch.Error{Op: "mrms.Adapter.GRIBSelectorFor", Kind: hydrofetch.ErrUnknownVariable, Source: sourceID, Message: variableID}
	}
	return sel, nil
}

// NetCDFVariableName is not meaningful for a GRIB2 source.
func (a *Adapter) NetCDFVariableName(variableID string) (string, error) {
	return "", &hydrofetch.Error{Op: "mrms.Adapter.NetCDFVariableName", Kind: hydrofetch.ErrFormatParseError, Source: sourceID, Message: "mrms is a GRIB2 source"}
}

// Finalize defaults to the standard scale/offset/fill rule.
func (a *Adapter) Finalize(raw float64, v hydrofetch.VariableDescriptor) hydrofetch.Value {
	return grid.ApplyScaling(raw, v)
}
