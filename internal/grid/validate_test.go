package grid

import (
	"testing"

	"github.com/hydrofetch/hydrofetch"
)

func TestValidateCoords(t *testing.T) {
	bounds := hydrofetch.SpatialBounds{West: -100, South: 20, East: -80, North: 40}
	if err := ValidateCoords(30, -90, bounds); err != nil {
		t.Fatalf("in-bounds point rejected: %v", err)
	}
	if err := ValidateCoords(60, -90, bounds); err == nil {
		t.Fatal("out-of-bounds point accepted")
	}
}

func TestValidateBbox(t *testing.T) {
	if err := ValidateBbox(hydrofetch.Bbox{West: -10, East: 10, South: -5, North: 5}); err != nil {
		t.Fatalf("valid bbox rejected: %v", err)
	}
	if err := ValidateBbox(hydrofetch.Bbox{West: 10, East: -10, South: -5, North: 5}); err == nil {
		t.Fatal("degenerate bbox (west>east) accepted")
	}
	if err := ValidateBbox(hydrofetch.Bbox{West: -10, East: 10, South: 5, North: 5}); err == nil {
		t.Fatal("degenerate bbox (south==north) accepted")
	}
}

func TestOverlaps(t *testing.T) {
	bounds := hydrofetch.SpatialBounds{West: 0, South: 0, East: 10, North: 10}
	inside := hydrofetch.Bbox{West: 2, East: 4, South: 2, North: 4}
	outside := hydrofetch.Bbox{West: 20, East: 30, South: 20, North: 30}
	if !Overlaps(inside, bounds) {
		t.Error("expected overlap")
	}
	if Overlaps(outside, bounds) {
		t.Error("expected no overlap")
	}
}
