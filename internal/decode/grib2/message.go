// Package grib2 implements the GRIB2 format decoder (§4.6): section
// walking, Data Representation unpacking, and point lookup.
package grib2

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hydrofetch/hydrofetch"
)

// GridTemplate identifies the Grid Definition Template a message uses.
// Only RegularLatLon is understood well enough for the fast-path
// value_at_point formula; everything else falls back to brute-force
// nearest-neighbour over decoded coordinate arrays.
type GridTemplate int

const (
	GridRegularLatLon GridTemplate = 0
	GridOther         GridTemplate = -1
)

// Message is one decoded GRIB2 message: Product Definition + Grid
// Definition metadata, plus (when process_flag requested full decode)
// the unpacked values.
type Message struct {
	Discipline int
	Category   int
	ParamNum   int
	LevelType  int
	LevelValue float64
	ShortName  string // informal name, when the source's lookup table supplies one

	GridTemplate GridTemplate
	Ni, Nj       int
	LatStart     float64
	LonStart     float64
	LatIncrement float64
	LonIncrement float64
	ScanNegativeJ bool // scanning mode bit 2 (0x40) clear: rows run north-to-south

	// Latitudes/Longitudes are populated for non-regular grids (or on
	// request) as a brute-force nearest-neighbour fallback table.
	Latitudes  []float64
	Longitudes []float64

	// Raw holds the message's bytes for opaque (process_flag=false)
	// handling; Values holds the fully decoded, unscaled raw numbers in
	// row-major (j*Ni+i) order once decoded.
	Raw    []byte
	Values []float64
}

// ParseAll splits a buffer of one or more concatenated GRIB2 messages
// and decodes each, honoring decode per decodeValues (the §4.6
// process_flag gate: when false, sections are located but Values is left
// nil and Raw retains the opaque message bytes).
func ParseAll(data []byte, decodeValues bool) ([]Message, error) {
	var out []Message
	for len(data) > 0 {
		n, msg, err := parseOne(data, decodeValues)
		if err != nil {
			return out, err
		}
		out = append(out, msg)
		data = data[n:]
	}
	if len(out) == 0 {
		return nil, &hydrofetch.Error{Op: "grib2.ParseAll", Kind: hydrofetch.ErrFormatParseError, Message: "no GRIB2 messages found"}
	}
	return out, nil
}

func parseOne(data []byte, decodeValues bool) (int, Message, error) {
	var msg Message
	if len(data) < 16 || string(data[0:4]) != "GRIB" {
		return 0, msg, &hydrofetch.Error{Op: "grib2.parseOne", Kind: hydrofetch.ErrFormatParseError, Message: "missing GRIB marker"}
	}
	edition := data[7]
	if edition != 2 {
		return 0, msg, &hydrofetch.Error{Op: "grib2.parseOne", Kind: hydrofetch.ErrFormatParseError, Message: fmt.Sprintf("unsupported GRIB edition %d", edition)}
	}
	totalLen := int(binary.BigEndian.Uint64(data[8:16]))
	if totalLen <= 0 || totalLen > len(data) {
		return 0, msg, &hydrofetch.Error{Op: "grib2.parseOne", Kind: hydrofetch.ErrFormatParseError, Message: "section 0 length out of range"}
	}
	raw := data[:totalLen]
	msg.Raw = raw
	msg.Discipline = int(data[6])
	msg.GridTemplate = GridOther

	var drsTemplate = -1
	var drs drsParams
	var bitmap []bool
	var sec7 []byte

	off := 16
	for off < totalLen {
		if off+4 <= totalLen && string(raw[off:off+4]) == "7777" {
			break
		}
		if off+5 > totalLen {
			return 0, msg, &hydrofetch.Error{Op: "grib2.parseOne", Kind: hydrofetch.ErrFormatParseError, Message: "truncated section header"}
		}
		sLen := int(binary.BigEndian.Uint32(raw[off : off+4]))
		sNum := int(raw[off+4])
		if sLen <= 0 || off+sLen > totalLen {
			return 0, msg, &hydrofetch.Error{Op: "grib2.parseOne", Kind: hydrofetch.ErrFormatParseError, Message: fmt.Sprintf("section %d length out of range", sNum)}
		}
		sec := raw[off : off+sLen]

		switch sNum {
		case 3:
			if err := parseSection3(sec, &msg); err != nil {
				return 0, msg, err
			}
		case 4:
			if err := parseSection4(sec, &msg); err != nil {
				return 0, msg, err
			}
		case 5:
			d, tmpl, err := parseSection5(sec)
			if err != nil {
				return 0, msg, err
			}
			drs, drsTemplate = d, tmpl
		case 6:
			bm, err := parseSection6(sec)
			if err != nil {
				return 0, msg, err
			}
			bitmap = bm
		case 7:
			sec7 = sec[5:]
		}
		off += sLen
	}

	if decodeValues {
		if drsTemplate < 0 || sec7 == nil {
			return 0, msg, &hydrofetch.Error{Op: "grib2.parseOne", Kind: hydrofetch.ErrFormatParseError, Message: "message has no Data Representation/Data section"}
		}
		vals, err := unpack(drsTemplate, drs, sec7, msg.Ni*msg.Nj)
		if err != nil {
			return 0, msg, err
		}
		if bitmap != nil {
			vals = applyBitmap(vals, bitmap, math.NaN())
		}
		msg.Values = vals
	}

	return totalLen, msg, nil
}
