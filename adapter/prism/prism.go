// Package prism implements the Adapter for the PRISM Climate Group's
// gridded monthly/daily normals, delivered as ZIP archives containing a
// BIL raster plus sidecar metadata.
package prism

import (
	"regexp"

	"github.com/hydrofetch/hydrofetch"
	"github.com/hydrofetch/hydrofetch/adapter"
	"github.com/hydrofetch/hydrofetch/internal/grid"
)

const sourceID = "prism"

var wireNames = map[string]string{
	"ppt":  "ppt",
	"tmax": "tmax",
	"tmin": "tmin",
}

// Adapter is the prism source adapter: monthly ZIP-packaged BIL rasters.
// NeedsProxy is expected to be true in the shipped SourceDescriptor
// (§9 Open Question: PRISM's CORS constraint is not solvable client-side;
// proxy fallthrough is mandatory).
type Adapter struct {
	descriptor hydrofetch.SourceDescriptor
}

// New builds the prism adapter over a SourceDescriptor.
func New(d hydrofetch.SourceDescriptor) *Adapter {
	return &Adapter{descriptor: d}
}

func (a *Adapter) Name() string                           { return sourceID }
func (a *Adapter) Descriptor() hydrofetch.SourceDescriptor { return a.descriptor }
func (a *Adapter) DecompressPolicy() string                { return "" } // the ZIP container is handled by GenericBase.resolveRasterBytes, not the magic-byte Decompression Layer

// urlTemplate is appended to BaseURL when the configured SourceDescriptor
// doesn't carry its own.
const urlTemplate = "/PRISM_{product}_stable_4kmM3_{YYYY}{MM}_bil.zip"

// URLFor synthesizes `.../PRISM_{product}_stable_4kmM3_{YYYYMM}_bil.zip`.
func (a *Adapter) URLFor(product string, p adapter.URLParams) (string, error) {
	tmpl := a.descriptor.URLTemplate
	if tmpl == "" {
		tmpl = urlTemplate
	}
	return adapter.ExpandTemplate(a.descriptor.BaseURL+tmpl, product, p), nil
}

func (a *Adapter) ResolveProduct(variableID string) (string, error) {
	name, ok := wireNames[variableID]
	if !ok {
		return "", &hydrofetch.Error{Op: "prism.Adapter.ResolveProduct", Kind: hydrofetch.ErrUnknownVariable, Source: sourceID, Message: variableID}
	}
	return name, nil
}

func (a *Adapter) GRIBSelectorFor(variableID string) (adapter.GRIBSelector, error) {
	return adapter.GRIBSelector{}, &hydrofetch.Error{Op: "prism.Adapter.GRIBSelectorFor", Kind: hydrofetch.ErrFormatParseError, Source: sourceID, Message: "prism is a BIL source"}
}

func (a *Adapter) NetCDFVariableName(variableID string) (string, error) {
	return "", &hydrofetch.Error{Op: "prism.Adapter.NetCDFVariableName", Kind: hydrofetch.ErrFormatParseError, Source: sourceID, Message: "prism is a BIL source"}
}

func (a *Adapter) Finalize(raw float64, v hydrofetch.VariableDescriptor) hydrofetch.Value {
	return grid.ApplyScaling(raw, v)
}

// PrimaryPattern implements adapter.ZipPrimaryPattern: PRISM archives
// always ship one BIL raster per variable, matched by the "_bil.bil"
// suffix rather than the default extension-preference rule (which would
// otherwise prefer a .tif that PRISM's bil-flavored deliveries don't
// include).
func (a *Adapter) PrimaryPattern() *regexp.Regexp {
	return regexp.MustCompile(`_bil\.bil$`)
}
