package decompress

import (
	"bytes"
	"compress/gzip"
	"testing"
)

func TestSniffGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("payload"))
	zw.Close()

	if got := Sniff(buf.Bytes()); got != CodecGzip {
		t.Fatalf("Sniff = %v, want gzip", got)
	}
}

func TestSniffGRIB2PassThrough(t *testing.T) {
	data := append([]byte("GRIB"), 0, 0, 0, 0)
	if got := Sniff(data); got != CodecGRIB2 {
		t.Fatalf("Sniff = %v, want grib2", got)
	}
	out, err := Decompress(data, "")
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("GRIB2 payload should pass through unchanged")
	}
}

func TestDecompressGzipRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("hello hydrofetch"))
	zw.Close()

	out, err := Decompress(buf.Bytes(), "")
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if string(out) != "hello hydrofetch" {
		t.Fatalf("got %q", out)
	}
}

func TestUnknownPassesThrough(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03}
	out, err := Decompress(data, "")
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(out, data) {
		t.Fatalf("unknown codec should pass through unchanged")
	}
}
