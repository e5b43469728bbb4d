package bil

import (
	"encoding/binary"
	"math"
	"testing"
)

const sampleHeader = `NROWS 2
NCOLS 3
NBITS 16
PIXELTYPE SIGNEDINT
ULXMAP -100.0
ULYMAP 40.0
XDIM 1.0
YDIM 1.0
NODATA -9999
BYTEORDER I
`

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte(sampleHeader))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	if h.Rows != 2 || h.Cols != 3 || h.Bits != 16 || h.PixelType != "SIGNEDINT" {
		t.Fatalf("header = %+v", h)
	}
	if h.ULXMap != -100.0 || h.ULYMap != 40.0 || h.NoData != -9999 {
		t.Fatalf("header = %+v", h)
	}
}

func TestParseHeaderMissingDims(t *testing.T) {
	if _, err := ParseHeader([]byte("PIXELTYPE FLOAT\n")); err == nil {
		t.Fatal("expected error for missing NROWS/NCOLS")
	}
}

func TestDecodeAndValueAtPoint(t *testing.T) {
	h, err := ParseHeader([]byte(sampleHeader))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	values := []int16{1, 2, 3, 4, -9999, 6}
	buf := make([]byte, 0, 12)
	for _, v := range values {
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v))
		buf = append(buf, b...)
	}
	r, err := Decode(buf, h)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if r.Rows[0][0] != 1 || r.Rows[0][2] != 3 || r.Rows[1][1] != -9999 {
		t.Fatalf("rows = %+v", r.Rows)
	}

	// ULYMap=40 is row0's northern edge, YDim=1: lat=39.5 => row 0 (floor(40-39.5)=0)
	v, err := r.ValueAtPoint(39.9, -99.1) // row 0, col 0
	if err != nil || v != 1 {
		t.Fatalf("ValueAtPoint(row0,col0) = %v, %v, want 1", v, err)
	}
	v, err = r.ValueAtPoint(38.9, -97.1) // row 1, col 2
	if err != nil || v != 6 {
		t.Fatalf("ValueAtPoint(row1,col2) = %v, %v, want 6", v, err)
	}

	if !h.IsNoData(-9999) {
		t.Fatal("expected -9999 to be NoData")
	}
}

func TestValueAtPointOutOfDomain(t *testing.T) {
	h, err := ParseHeader([]byte(sampleHeader))
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	r := &Raster{Header: h, Rows: [][]float64{{1, 2, 3}, {4, 5, 6}}}
	if _, err := r.ValueAtPoint(0, 0); err == nil {
		t.Fatal("expected out-of-domain error")
	}
}

func TestIsNoDataNaN(t *testing.T) {
	h := &Header{NoData: math.NaN()}
	if !h.IsNoData(math.NaN()) {
		t.Fatal("expected NaN to match NaN NoData sentinel")
	}
	if h.IsNoData(1.0) {
		t.Fatal("expected 1.0 to not match NaN NoData sentinel")
	}
}
