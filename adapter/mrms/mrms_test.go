package mrms

import (
	"strings"
	"testing"
	"time"

	"github.com/hydrofetch/hydrofetch"
	"github.com/hydrofetch/hydrofetch/adapter"
)

func testDescriptor() hydrofetch.SourceDescriptor {
	return hydrofetch.SourceDescriptor{
		ID:      sourceID,
		BaseURL: "https://mrms.example.org",
		SpatialBounds: hydrofetch.SpatialBounds{West: -130, East: -60, South: 20, North: 55},
	}
}

func TestURLFor(t *testing.T) {
	a := New(testDescriptor())
	ts := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	url, err := a.URLFor("MergedReflectivityQC_00.50", adapter.URLParams{Time: ts})
	if err != nil {
		t.Fatalf("URLFor: %v", err)
	}
	want := "https://mrms.example.org/CONUS/MergedReflectivityQC_00.50/MRMS_MergedReflectivityQC_00.50_20240510-120000.grib2.gz"
	if url != want {
		t.Fatalf("URLFor = %q, want %q", url, want)
	}
}

func TestResolveProductByAliasAndCanonical(t *testing.T) {
	a := New(testDescriptor())
	p1, err := a.ResolveProduct("reflectivity")
	if err != nil {
		t.Fatalf("ResolveProduct(alias): %v", err)
	}
	p2, err := a.ResolveProduct("REF")
	if err != nil {
		t.Fatalf("ResolveProduct(canonical): %v", err)
	}
	if p1 != p2 {
		t.Fatalf("alias and canonical resolved to different products: %q vs %q", p1, p2)
	}
	if !strings.HasPrefix(p1, "MergedReflectivityQC") {
		t.Fatalf("product = %q, want MergedReflectivityQC prefix", p1)
	}
}

func TestGRIBSelectorFor(t *testing.T) {
	a := New(testDescriptor())
	sel, err := a.GRIBSelectorFor("REF")
	if err != nil {
		t.Fatalf("GRIBSelectorFor: %v", err)
	}
	if sel.Discipline != 0 || sel.Category != 15 || sel.ParameterNum != 0 {
		t.Fatalf("selector = %+v, want discipline=0 category=15 param=0 (reflectivity)", sel)
	}
}

func TestUnknownVariable(t *testing.T) {
	a := New(testDescriptor())
	if _, err := a.ResolveProduct("nonexistent"); err == nil {
		t.Fatal("expected error for unknown variable")
	}
}
