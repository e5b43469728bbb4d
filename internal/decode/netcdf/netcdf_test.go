package netcdf

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

func writeName(buf *bytes.Buffer, name string) {
	binary.Write(buf, binary.BigEndian, uint32(len(name)))
	buf.WriteString(name)
	if pad := (4 - len(name)%4) % 4; pad > 0 {
		buf.Write(make([]byte, pad))
	}
}

// buildClassicFile assembles a minimal CDF-1 file with one fixed
// dimension "x" of length 3, no global attributes, and one float
// variable "temp" over that dimension.
func buildClassicFile(t *testing.T) []byte {
	t.Helper()
	values := []float32{1.5, 2.5, 3.5}

	var buf bytes.Buffer
	buf.WriteString("CDF")
	buf.WriteByte(1)
	binary.Write(&buf, binary.BigEndian, uint32(0)) // numrecs

	// dim_list
	binary.Write(&buf, binary.BigEndian, uint32(tagDimension))
	binary.Write(&buf, binary.BigEndian, uint32(1))
	writeName(&buf, "x")
	binary.Write(&buf, binary.BigEndian, uint32(3))

	// gatt_list (absent)
	binary.Write(&buf, binary.BigEndian, uint32(absent))
	binary.Write(&buf, binary.BigEndian, uint32(0))

	// var_list
	binary.Write(&buf, binary.BigEndian, uint32(tagVariable))
	binary.Write(&buf, binary.BigEndian, uint32(1))
	writeName(&buf, "temp")
	binary.Write(&buf, binary.BigEndian, uint32(1)) // ndims
	binary.Write(&buf, binary.BigEndian, uint32(0)) // dimid 0
	// vatt_list (absent)
	binary.Write(&buf, binary.BigEndian, uint32(absent))
	binary.Write(&buf, binary.BigEndian, uint32(0))
	binary.Write(&buf, binary.BigEndian, int32(TypeFloat))
	binary.Write(&buf, binary.BigEndian, uint32(len(values)*4)) // vsize

	dataOffsetPos := buf.Len()
	binary.Write(&buf, binary.BigEndian, uint32(0)) // offset placeholder, fixed below

	dataOffset := buf.Len()
	for _, v := range values {
		binary.Write(&buf, binary.BigEndian, math.Float32bits(v))
	}

	out := buf.Bytes()
	binary.BigEndian.PutUint32(out[dataOffsetPos:dataOffsetPos+4], uint32(dataOffset))
	return out
}

func TestOpenAndReadVariable(t *testing.T) {
	data := buildClassicFile(t)
	f, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(f.Dimensions) != 1 || f.Dimensions[0].Name != "x" || f.Dimensions[0].Len != 3 {
		t.Fatalf("dimensions = %+v", f.Dimensions)
	}
	v, err := f.Variable("temp")
	if err != nil {
		t.Fatalf("Variable: %v", err)
	}
	if v.Type != TypeFloat {
		t.Fatalf("type = %v, want TypeFloat", v.Type)
	}
	vals, err := f.ReadVariable("temp")
	if err != nil {
		t.Fatalf("ReadVariable: %v", err)
	}
	want := []float64{1.5, 2.5, 3.5}
	if len(vals) != len(want) {
		t.Fatalf("len(vals) = %d, want %d", len(vals), len(want))
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Fatalf("vals[%d] = %v, want %v", i, vals[i], want[i])
		}
	}
}

func TestUnknownVariable(t *testing.T) {
	data := buildClassicFile(t)
	f, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := f.Variable("nope"); err == nil {
		t.Fatal("expected unknown-variable error")
	}
}
