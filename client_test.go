package hydrofetch_test

import (
	"context"
	"testing"
	"time"

	"github.com/hydrofetch/hydrofetch"
)

func newTestClient(t *testing.T) *hydrofetch.Client {
	t.Helper()
	c, err := hydrofetch.NewClient(hydrofetch.ClientOptions{CacheDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewClientRegistersShippedSources(t *testing.T) {
	c := newTestClient(t)
	got := c.Sources()
	if len(got) != 4 {
		t.Fatalf("len(Sources()) = %d, want 4", len(got))
	}
}

func TestPointUnknownSource(t *testing.T) {
	c := newTestClient(t)
	req := hydrofetch.NewRequest("not-a-source", "", "TMP")
	req.Geometry = hydrofetch.Geometry{Kind: hydrofetch.GeometryPoint, Point: hydrofetch.Point{Lat: 40, Lon: -96}}
	req.Time = hydrofetch.TimeSpec{Kind: hydrofetch.TimeInstant, At: time.Now()}

	if _, err := c.Point(context.Background(), req); err == nil {
		t.Fatal("expected error for unregistered source")
	}
}

func TestPointOutOfDomainRejectedBeforeNetwork(t *testing.T) {
	c := newTestClient(t)
	req := hydrofetch.NewRequest("hrrr", "", "TMP")
	req.Geometry = hydrofetch.Geometry{Kind: hydrofetch.GeometryPoint, Point: hydrofetch.Point{Lat: 89, Lon: 179}}
	req.Time = hydrofetch.TimeSpec{Kind: hydrofetch.TimeInstant, At: time.Now()}

	if _, err := c.Point(context.Background(), req); err == nil {
		t.Fatal("expected out-of-domain error for a point far outside HRRR's CONUS bounds")
	}
}
