package grib2

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// buildSimpleMessage assembles a minimal, valid GRIB2 message with a
// regular lat/lon grid (2x2 points) and Simple (Template 5.0) packing,
// encoding the four values 1.0, 2.0, 3.0, 4.0.
func buildSimpleMessage(t *testing.T) []byte {
	t.Helper()
	values := []float64{1, 2, 3, 4}
	nbits := 16
	ref := float32(0)

	var sec3 bytes.Buffer
	sec3.Write(make([]byte, 5))             // length placeholder(4) + section number(1)
	sec3.WriteByte(0)                       // source of grid definition
	sec3.Write(make([]byte, 4))             // number of data points
	sec3.WriteByte(0)                       // NV
	sec3.WriteByte(255)                     // PVL
	binary.Write(&sec3, binary.BigEndian, uint16(0)) // grid def template 3.0
	sec3.Write(make([]byte, 1+1+4+1+4+1+4)) // shape of earth + radius/axis fields (unused)
	binary.Write(&sec3, binary.BigEndian, uint32(2)) // Ni
	binary.Write(&sec3, binary.BigEndian, uint32(2)) // Nj
	sec3.Write(make([]byte, 8))              // basic angle + subdivisions
	binary.Write(&sec3, binary.BigEndian, uint32(45_000_000))  // La1 = 45.0
	binary.Write(&sec3, binary.BigEndian, uint32(280_000_000)) // Lo1 = 280.0
	sec3.WriteByte(0)                                          // resolution/component flags
	binary.Write(&sec3, binary.BigEndian, uint32(44_000_000))  // La2
	binary.Write(&sec3, binary.BigEndian, uint32(281_000_000)) // Lo2
	binary.Write(&sec3, binary.BigEndian, uint32(1_000_000))   // Di = 1.0
	binary.Write(&sec3, binary.BigEndian, uint32(1_000_000))   // Dj = 1.0
	sec3.WriteByte(0)                                          // scanning mode: rows north to south
	sec3Bytes := finalizeSection(sec3.Bytes(), 3)

	var sec4 bytes.Buffer
	sec4.Write(make([]byte, 5))
	binary.Write(&sec4, binary.BigEndian, uint16(0)) // NV
	binary.Write(&sec4, binary.BigEndian, uint16(0)) // PDTN 4.0
	sec4.WriteByte(2)                                // category (Moisture)
	sec4.WriteByte(1)                                // parameter number
	sec4.Write(make([]byte, 11))                     // process/cutoff/forecast-time fields
	sec4.WriteByte(1)                                // type of first fixed surface
	sec4.WriteByte(0)                                // scale factor
	binary.Write(&sec4, binary.BigEndian, uint32(0)) // scaled value
	sec4Bytes := finalizeSection(sec4.Bytes(), 4)

	var sec5 bytes.Buffer
	sec5.Write(make([]byte, 5))
	binary.Write(&sec5, binary.BigEndian, uint32(4)) // number of data points
	binary.Write(&sec5, binary.BigEndian, uint16(0)) // DRT 5.0
	binary.Write(&sec5, binary.BigEndian, ref)
	binary.Write(&sec5, binary.BigEndian, int16(0)) // binary scale factor
	binary.Write(&sec5, binary.BigEndian, int16(0)) // decimal scale factor
	sec5.WriteByte(byte(nbits))
	sec5.WriteByte(0) // original field type: floating point
	sec5Bytes := finalizeSection(sec5.Bytes(), 5)

	sec6Bytes := finalizeSection(append(make([]byte, 5), 255), 6)

	br := newBitWriter()
	for _, v := range values {
		br.write(uint64(v), nbits)
	}
	var sec7 bytes.Buffer
	sec7.Write(make([]byte, 5))
	sec7.Write(br.bytes())
	sec7Bytes := finalizeSection(sec7.Bytes(), 7)

	var body bytes.Buffer
	body.Write(sec3Bytes)
	body.Write(sec4Bytes)
	body.Write(sec5Bytes)
	body.Write(sec6Bytes)
	body.Write(sec7Bytes)
	body.WriteString("7777")

	totalLen := 16 + body.Len()
	var msg bytes.Buffer
	msg.WriteString("GRIB")
	msg.WriteByte(0) // reserved
	msg.WriteByte(0) // reserved
	msg.WriteByte(0) // discipline = Meteorological
	msg.WriteByte(2) // edition
	binary.Write(&msg, binary.BigEndian, uint64(totalLen))
	msg.Write(body.Bytes())
	return msg.Bytes()
}

func finalizeSection(sec []byte, num byte) []byte {
	binary.BigEndian.PutUint32(sec[0:4], uint32(len(sec)))
	sec[4] = num
	return sec
}

type bitWriter struct {
	buf     []byte
	bitPos  int
}

func newBitWriter() *bitWriter { return &bitWriter{} }

func (w *bitWriter) write(v uint64, nbits int) {
	for i := nbits - 1; i >= 0; i-- {
		bit := (v >> uint(i)) & 1
		byteIdx := w.bitPos / 8
		for byteIdx >= len(w.buf) {
			w.buf = append(w.buf, 0)
		}
		if bit == 1 {
			w.buf[byteIdx] |= 1 << uint(7-(w.bitPos%8))
		}
		w.bitPos++
	}
}

func (w *bitWriter) bytes() []byte { return w.buf }

func TestParseAllDecodesSimplePacking(t *testing.T) {
	data := buildSimpleMessage(t)
	messages, err := ParseAll(data, true)
	if err != nil {
		t.Fatalf("ParseAll: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(messages))
	}
	m := messages[0]
	if m.Discipline != 0 || m.Category != 2 || m.ParamNum != 1 {
		t.Fatalf("product definition mismatch: %+v", m)
	}
	if m.GridTemplate != GridRegularLatLon || m.Ni != 2 || m.Nj != 2 {
		t.Fatalf("grid definition mismatch: %+v", m)
	}
	want := []float64{1, 2, 3, 4}
	if len(m.Values) != len(want) {
		t.Fatalf("len(values) = %d, want %d", len(m.Values), len(want))
	}
	for i := range want {
		if math.Abs(m.Values[i]-want[i]) > 1e-9 {
			t.Fatalf("value[%d] = %v, want %v", i, m.Values[i], want[i])
		}
	}
}

func TestFindMessageExactAndAliasFallback(t *testing.T) {
	messages := []Message{
		{Discipline: 0, Category: 2, ParamNum: 1, LevelType: 1, LevelValue: 0, ShortName: "SPFH"},
	}
	exact, err := FindMessage(messages, Selector{Discipline: 0, Category: 2, ParamNum: 1, LevelType: 1, LevelValue: 0})
	if err != nil || exact != &messages[0] {
		t.Fatalf("exact match failed: %+v, %v", exact, err)
	}
	alias, err := FindMessage(messages, Selector{ShortName: "humidity", Aliases: []string{"SPFH"}})
	if err != nil || alias != &messages[0] {
		t.Fatalf("alias fallback failed: %+v, %v", alias, err)
	}
	_, err = FindMessage(messages, Selector{ShortName: "nope"})
	if err == nil {
		t.Fatal("expected message-not-found error")
	}
}

func TestValueAtPointRegularGrid(t *testing.T) {
	m := &Message{
		GridTemplate:  GridRegularLatLon,
		Ni:            2, Nj: 2,
		LatStart:      45, LonStart: 280,
		LatIncrement:  1, LonIncrement: 1,
		ScanNegativeJ: true, // La1 is the northernmost row (the common default)
		Values:        []float64{1, 2, 3, 4},
	}
	v, err := ValueAtPoint(m, 45, 280)
	if err != nil || v != 1 {
		t.Fatalf("ValueAtPoint(45,280) = %v, %v, want 1", v, err)
	}
	v, err = ValueAtPoint(m, 44, 281)
	if err != nil || v != 4 {
		t.Fatalf("ValueAtPoint(44,281) = %v, %v, want 4", v, err)
	}
}

func TestValueAtPointNearestNeighbourFallback(t *testing.T) {
	m := &Message{
		GridTemplate: GridOther,
		Latitudes:    []float64{10, 20, 30},
		Longitudes:   []float64{100, 100, 100},
		Values:       []float64{1, 2, 3},
	}
	v, err := ValueAtPoint(m, 21, 100)
	if err != nil || v != 2 {
		t.Fatalf("ValueAtPoint fallback = %v, %v, want 2", v, err)
	}
}
