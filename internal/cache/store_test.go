package cache

import (
	"context"
	"testing"
	"time"
)

func newTestStore(t *testing.T, opts Options) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), opts)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t, DefaultOptions())
	ctx := context.Background()
	data := []byte("hello grib2")
	if err := s.Put(ctx, "k1", data, Meta{SourceID: "mrms"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e == nil || string(e.Bytes) != string(data) {
		t.Fatalf("got %+v, want bytes %q", e, data)
	}
}

func TestChunkAssembly(t *testing.T) {
	s := newTestStore(t, DefaultOptions())
	ctx := context.Background()
	full := make([]byte, 250)
	for i := range full {
		full[i] = byte(i)
	}
	if err := s.PutChunked(ctx, "big", full, Meta{SourceID: "noaa"}, 100); err != nil {
		t.Fatalf("PutChunked: %v", err)
	}
	e, err := s.Get(ctx, "big")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e == nil || len(e.Bytes) != len(full) {
		t.Fatalf("assembled length = %v, want %d", e, len(full))
	}
	for i := range full {
		if e.Bytes[i] != full[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, e.Bytes[i], full[i])
		}
	}
}

func TestResumePartialChunks(t *testing.T) {
	s := newTestStore(t, DefaultOptions())
	full := make([]byte, 250)
	chunkSize := 100
	// Simulate an interrupted download: only chunks 0 and 1 present.
	for i := 0; i < 2; i++ {
		start, end := i*chunkSize, (i+1)*chunkSize
		if err := s.putChunk("resumable", i, full[start:end], Meta{}, time.Now()); err != nil {
			t.Fatalf("putChunk: %v", err)
		}
	}
	present, err := s.ChunkIndicesPresent("resumable")
	if err != nil {
		t.Fatalf("ChunkIndicesPresent: %v", err)
	}
	if len(present) != 2 || !present[0] || !present[1] {
		t.Fatalf("present = %v, want {0,1}", present)
	}
	if present[2] {
		t.Fatalf("chunk 2 should not be present yet")
	}
}

// TestEvictionBound is the §8 property 6 test: after interleaved
// Put/CleanupIfDue, total resident size never exceeds MaxTotalBytes.
func TestEvictionBound(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxTotalBytes = 500
	opts.CleanupInterval = 0 // cleanup on every Put for test determinism
	s := newTestStore(t, opts)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		data := make([]byte, 80)
		key := string(rune('a' + i))
		if err := s.Put(ctx, key, data, Meta{}); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	st, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalBytes > opts.MaxTotalBytes {
		t.Fatalf("resident bytes %d exceeds budget %d", st.TotalBytes, opts.MaxTotalBytes)
	}
}

func TestDeleteIsNotTransitiveOverBaseKey(t *testing.T) {
	s := newTestStore(t, DefaultOptions())
	ctx := context.Background()
	if err := s.PutChunked(ctx, "base", []byte("abcdefghij"), Meta{}, 5); err != nil {
		t.Fatalf("PutChunked: %v", err)
	}
	if err := s.Delete("base"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	e, err := s.Get(ctx, "base")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e == nil {
		t.Fatalf("expected chunks to still assemble after deleting the (never-written) logical key")
	}
}
