package aorc

import (
	"testing"
	"time"

	"github.com/hydrofetch/hydrofetch"
)

func testDescriptor() hydrofetch.SourceDescriptor {
	return hydrofetch.SourceDescriptor{
		ID:      sourceID,
		BaseURL: "https://aorc.example.org/store",
		SpatialBounds: hydrofetch.SpatialBounds{West: -125, East: -65, South: 25, North: 50},
	}
}

func TestLocateZarrChunk(t *testing.T) {
	a := New(testDescriptor())
	ts := time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC)
	root, path, flatIdx, err := a.LocateZarrChunk("APCP_surface", ts, 40.0, -96.0)
	if err != nil {
		t.Fatalf("LocateZarrChunk: %v", err)
	}
	if root != "https://aorc.example.org/store/1995" {
		t.Fatalf("root = %q", root)
	}
	wantHours := int(ts.Sub(time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)).Hours())
	wantTChunk := wantHours / ChunkShape[0]
	wantPrefix := "APCP_surface/"
	if len(path) < len(wantPrefix) || path[:len(wantPrefix)] != wantPrefix {
		t.Fatalf("path = %q, want prefix %q", path, wantPrefix)
	}
	_ = wantTChunk
	if flatIdx < 0 || flatIdx >= ChunkShape[0]*ChunkShape[1]*ChunkShape[2] {
		t.Fatalf("flatIdx = %d out of chunk bounds", flatIdx)
	}
}

func TestLocateZarrChunkBeforeEpoch(t *testing.T) {
	a := New(testDescriptor())
	ts := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, _, _, err := a.LocateZarrChunk("APCP_surface", ts, 40.0, -96.0); err == nil {
		t.Fatal("expected error for timestamp before AORC epoch")
	}
}

func TestResolveProductUnknownVariable(t *testing.T) {
	a := New(testDescriptor())
	if _, err := a.ResolveProduct("nope"); err == nil {
		t.Fatal("expected error for unknown variable")
	}
}
