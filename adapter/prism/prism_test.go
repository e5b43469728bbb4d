package prism

import (
	"testing"
	"time"

	"github.com/hydrofetch/hydrofetch"
	"github.com/hydrofetch/hydrofetch/adapter"
)

func TestURLFor(t *testing.T) {
	a := New(hydrofetch.SourceDescriptor{ID: sourceID, BaseURL: "https://prism.example.org"})
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	url, err := a.URLFor("ppt", adapter.URLParams{Time: ts})
	if err != nil {
		t.Fatalf("URLFor: %v", err)
	}
	want := "https://prism.example.org/PRISM_ppt_stable_4kmM3_202001_bil.zip"
	if url != want {
		t.Fatalf("URLFor = %q, want %q", url, want)
	}
}

func TestResolveProduct(t *testing.T) {
	a := New(hydrofetch.SourceDescriptor{ID: sourceID})
	p, err := a.ResolveProduct("tmax")
	if err != nil {
		t.Fatalf("ResolveProduct: %v", err)
	}
	if p != "tmax" {
		t.Fatalf("product = %q, want tmax", p)
	}
	if _, err := a.ResolveProduct("nope"); err == nil {
		t.Fatal("expected error for unknown variable")
	}
}

func TestPrimaryPatternMatchesBIL(t *testing.T) {
	a := New(hydrofetch.SourceDescriptor{ID: sourceID})
	re := a.PrimaryPattern()
	if !re.MatchString("PRISM_ppt_stable_4kmM3_202001_bil.bil") {
		t.Fatal("expected primary pattern to match the PRISM bil member name")
	}
	if re.MatchString("PRISM_ppt_stable_4kmM3_202001_bil.hdr") {
		t.Fatal("expected primary pattern to not match the .hdr sidecar")
	}
}
