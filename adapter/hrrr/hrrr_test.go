package hrrr

import (
	"testing"
	"time"

	"github.com/hydrofetch/hydrofetch"
	"github.com/hydrofetch/hydrofetch/adapter"
)

func TestURLFor(t *testing.T) {
	a := New(hydrofetch.SourceDescriptor{ID: sourceID, BaseURL: "https://hrrr.example.org"})
	ts := time.Date(2024, 5, 10, 6, 0, 0, 0, time.UTC)
	url, err := a.URLFor("sfc", adapter.URLParams{Time: ts, ForecastHour: 1})
	if err != nil {
		t.Fatalf("URLFor: %v", err)
	}
	want := "https://hrrr.example.org/hrrr.20240510/conus/hrrr.t06z.wrfsfcf01.grib2"
	if url != want {
		t.Fatalf("URLFor = %q, want %q", url, want)
	}
}

func TestResolveProductAndSelector(t *testing.T) {
	a := New(hydrofetch.SourceDescriptor{ID: sourceID})
	p, err := a.ResolveProduct("TMP")
	if err != nil {
		t.Fatalf("ResolveProduct: %v", err)
	}
	if p != "sfc" {
		t.Fatalf("product = %q, want sfc", p)
	}
	sel, err := a.GRIBSelectorFor("temperature")
	if err != nil {
		t.Fatalf("GRIBSelectorFor(alias): %v", err)
	}
	if sel.LevelType != 103 || sel.LevelValue != 2 {
		t.Fatalf("selector = %+v, want 2m level", sel)
	}
}
