package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hydrofetch/hydrofetch/internal/cache"
	"github.com/hydrofetch/hydrofetch/internal/httputil"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	s, err := cache.Open(t.TempDir(), cache.DefaultOptions())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(httputil.New(nil), s)
}

// TestFetchCacheKeyProxyInvariant covers §8 property 1: the same logical
// cache key is used regardless of whether the origin or a proxy served
// the bytes, and a cache hit never re-contacts any server.
func TestFetchCacheKeyProxyInvariant(t *testing.T) {
	hits := 0
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("payload-v1"))
	}))
	defer origin.Close()

	o := newTestOrchestrator(t)
	ctx := context.Background()
	opt := Options{CacheKey: "logical-key-1", CacheFlag: true}

	data, err := o.Fetch(ctx, origin.URL, opt)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "payload-v1" {
		t.Fatalf("data = %q", data)
	}
	if hits != 1 {
		t.Fatalf("origin hit count = %d, want 1", hits)
	}

	// Second fetch under the same cache key, even with a different URL
	// (simulating the URL a proxy would have contacted), must be served
	// from cache and never reach the origin again.
	data2, err := o.Fetch(ctx, "http://example.invalid/should-not-be-contacted", opt)
	if err != nil {
		t.Fatalf("Fetch (cached): %v", err)
	}
	if string(data2) != "payload-v1" {
		t.Fatalf("cached data = %q, want %q", data2, data)
	}
	if hits != 1 {
		t.Fatalf("origin hit count after cache hit = %d, want 1", hits)
	}
}

func TestFetchFallsThroughToProxyOnTransportError(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("via-proxy"))
	}))
	defer proxy.Close()

	o := newTestOrchestrator(t)
	ctx := context.Background()
	opt := Options{
		CacheKey:  "logical-key-2",
		CacheFlag: true,
		ProxyOrder: []httputil.ProxyPrefix{
			{Name: "test-proxy", Prefix: proxy.URL + "/passthrough?target=", Escaped: false},
		},
	}

	// A direct fetch against an address nothing listens on fails, so the
	// orchestrator must fall through to the configured proxy.
	data, err := o.Fetch(ctx, "http://127.0.0.1:1/unreachable", opt)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "via-proxy" {
		t.Fatalf("data = %q, want via-proxy", data)
	}
}

// TestChunkedDownloadRoundTrip covers the round-trip half of §8 property 2.
func TestChunkedDownloadRoundTrip(t *testing.T) {
	const total = 250
	full := make([]byte, total)
	for i := range full {
		full[i] = byte(i)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputilServeRange(w, r, full)
	}))
	defer server.Close()

	s, err := cache.Open(t.TempDir(), cache.DefaultOptions())
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer s.Close()

	dl := &ChunkedDownloader{Transport: httputil.New(nil), Cache: s, ChunkSize: 100}
	ctx := context.Background()
	opt := Options{CacheKey: "chunked-key", ContentLength: total}

	data, err := dl.Download(ctx, server.URL, opt, cache.Meta{SourceID: "hrrr"})
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if len(data) != total {
		t.Fatalf("len(data) = %d, want %d", len(data), total)
	}
	for i := range full {
		if data[i] != full[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, data[i], full[i])
		}
	}

	present, err := s.ChunkIndicesPresent("chunked-key")
	if err != nil {
		t.Fatalf("ChunkIndicesPresent: %v", err)
	}
	if len(present) != 3 {
		t.Fatalf("chunk count = %d, want 3", len(present))
	}
}

// httputilServeRange is a minimal httptest handler implementing Range
// requests (RFC 7233) over an in-memory buffer, standing in for a real
// origin server in tests.
func httputilServeRange(w http.ResponseWriter, r *http.Request, full []byte) {
	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Write(full)
		return
	}
	var start, end int64
	if _, err := fmt.Sscanf(rangeHeader, "bytes=%d-%d", &start, &end); err != nil {
		http.Error(w, "bad range", http.StatusBadRequest)
		return
	}
	if start >= int64(len(full)) {
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if end >= int64(len(full)) {
		end = int64(len(full)) - 1
	}
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(full)))
	w.WriteHeader(http.StatusPartialContent)
	w.Write(full[start : end+1])
}
