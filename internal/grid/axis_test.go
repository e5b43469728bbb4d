package grid

import "testing"

func TestNearestIndexResolutionAxis(t *testing.T) {
	a := Axis{Min: 0, Max: 10, Resolution: 1}
	cases := []struct {
		target float64
		want   int
	}{
		{0, 0}, {0.4, 0}, {0.6, 1}, {9.9, 10}, {-5, 0}, {50, 10},
	}
	for _, c := range cases {
		if got := NearestIndex(a, c.target); got != c.want {
			t.Errorf("NearestIndex(%v) = %d, want %d", c.target, got, c.want)
		}
	}
}

func TestNearestIndexExplicitAxis(t *testing.T) {
	a := Axis{Values: []float64{1.0, 1.5, 3.0, 7.0}}
	if got := NearestIndex(a, 1.6); got != 1 {
		t.Errorf("NearestIndex = %d, want 1", got)
	}
	if got := NearestIndex(a, 100); got != 3 {
		t.Errorf("NearestIndex = %d, want 3", got)
	}
}

// TestNearestIndexMonotonic checks §8 property 4: as target increases
// monotonically, the returned index never decreases.
func TestNearestIndexMonotonic(t *testing.T) {
	a := Axis{Min: -10, Max: 10, Resolution: 0.25}
	prev := -1
	for target := -10.0; target <= 10.0; target += 0.1 {
		idx := NearestIndex(a, target)
		if idx < prev {
			t.Fatalf("index decreased at target=%v: %d < %d", target, idx, prev)
		}
		prev = idx
	}
}
