package grib2

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hydrofetch/hydrofetch"
)

// parseSection3 decodes Grid Definition Template 3.0 (regular lat/lon).
// Any other template is retained as GridOther: value_at_point then relies
// on the brute-force nearest-neighbour fallback rather than this fast path.
func parseSection3(sec []byte, msg *Message) error {
	if len(sec) < 14 {
		return &hydrofetch.Error{Op: "grib2.parseSection3", Kind: hydrofetch.ErrFormatParseError, Message: "section 3 too short"}
	}
	tmpl := int(binary.BigEndian.Uint16(sec[12:14]))
	if tmpl != 0 {
		msg.GridTemplate = GridOther
		return nil
	}
	if len(sec) < 72 {
		return &hydrofetch.Error{Op: "grib2.parseSection3", Kind: hydrofetch.ErrFormatParseError, Message: "section 3 (template 3.0) too short"}
	}
	msg.GridTemplate = GridRegularLatLon
	msg.Ni = int(binary.BigEndian.Uint32(sec[30:34]))
	msg.Nj = int(binary.BigEndian.Uint32(sec[34:38]))
	msg.LatStart = scaledAngle(binary.BigEndian.Uint32(sec[46:50]))
	msg.LonStart = scaledAngle(binary.BigEndian.Uint32(sec[50:54]))
	// Di (octets 64-67) is the i-direction (longitude) increment; Dj
	// (octets 68-71) is the j-direction (latitude) increment.
	msg.LonIncrement = scaledAngleUnsigned(binary.BigEndian.Uint32(sec[63:67]))
	msg.LatIncrement = scaledAngleUnsigned(binary.BigEndian.Uint32(sec[67:71]))
	scanMode := sec[71]
	msg.ScanNegativeJ = scanMode&0x40 == 0 // bit 2 clear => rows scan north to south
	return nil
}

// scaledAngle decodes a GRIB2 signed scaled-by-1e6 coordinate value; the
// high bit of the 32-bit field is the sign, per WMO GRIB2 template 3.0.
func scaledAngle(raw uint32) float64 {
	v := float64(raw&0x7FFFFFFF) / 1e6
	if raw&0x80000000 != 0 {
		v = -v
	}
	return v
}

func scaledAngleUnsigned(raw uint32) float64 {
	return float64(raw) / 1e6
}

// parseSection4 decodes enough of Product Definition Template 4.0 to
// populate discipline/category/parameter/level, the fields find_message
// matches on.
func parseSection4(sec []byte, msg *Message) error {
	// Discipline lives in Section 0, not 4; the caller has already set it
	// from there. Section 4's fixed header is: length(4) num(1)
	// num_coord_values(2) template_number(2) ...
	if len(sec) < 11 {
		return &hydrofetch.Error{Op: "grib2.parseSection4", Kind: hydrofetch.ErrFormatParseError, Message: "section 4 too short"}
	}
	tmpl := int(binary.BigEndian.Uint16(sec[7:9]))
	if tmpl != 0 || len(sec) < 28 {
		return nil // non-instantaneous templates: category/param/level left zero
	}
	msg.Category = int(sec[9])
	msg.ParamNum = int(sec[10])
	msg.LevelType = int(sec[22])
	scaleFactor := int8(sec[23])
	scaledValue := int32(binary.BigEndian.Uint32(sec[24:28]))
	msg.LevelValue = float64(scaledValue) / math.Pow10(int(scaleFactor))
	return nil
}

// drsParams is the union of the Data Representation fields the supported
// templates need.
type drsParams struct {
	refValue   float64
	binScale   int
	decScale   int
	nbits      int
}

// parseSection5 decodes Section 5's common header (reference value,
// binary/decimal scale factor, bit count) shared by templates 0 and 41;
// the template number is returned so the caller dispatches to the right
// unpacker. Only templates 0 (simple) and 41 (PNG) are supported,
// following the same scope decision as the range-fetch HRRR client this
// package is grounded on, which names its supported set explicitly rather
// than attempting every DRS template.
func parseSection5(sec []byte) (drsParams, int, error) {
	if len(sec) < 11 {
		return drsParams{}, 0, &hydrofetch.Error{Op: "grib2.parseSection5", Kind: hydrofetch.ErrFormatParseError, Message: "section 5 too short"}
	}
	tmpl := int(binary.BigEndian.Uint16(sec[9:11]))
	if len(sec) < 21 {
		return drsParams{}, 0, &hydrofetch.Error{Op: "grib2.parseSection5", Kind: hydrofetch.ErrFormatParseError, Message: "section 5 template body too short"}
	}
	d := drsParams{
		refValue: math.Float32frombits(binary.BigEndian.Uint32(sec[11:15])),
		binScale: int(int16(binary.BigEndian.Uint16(sec[15:17]))),
		decScale: int(int16(binary.BigEndian.Uint16(sec[17:19]))),
		nbits:    int(sec[19]),
	}
	switch tmpl {
	case 0, 41:
		return d, tmpl, nil
	default:
		return drsParams{}, 0, &hydrofetch.Error{
			Op: "grib2.parseSection5", Kind: hydrofetch.ErrFormatParseError,
			Message: fmt.Sprintf("unsupported Data Representation Template 5.%d", tmpl),
		}
	}
}

// parseSection6 reports the bitmap, if any; a bitmap indicator of 255
// means no bitmap applies. Indicators 1-253 (predefined/shared bitmaps)
// are not supported.
func parseSection6(sec []byte) ([]bool, error) {
	if len(sec) < 6 {
		return nil, &hydrofetch.Error{Op: "grib2.parseSection6", Kind: hydrofetch.ErrFormatParseError, Message: "section 6 too short"}
	}
	indicator := sec[5]
	if indicator == 255 {
		return nil, nil
	}
	if indicator != 0 {
		return nil, &hydrofetch.Error{Op: "grib2.parseSection6", Kind: hydrofetch.ErrFormatParseError, Message: "predefined/shared bitmaps are not supported"}
	}
	bits := sec[6:]
	out := make([]bool, 0, len(bits)*8)
	for _, b := range bits {
		for i := 7; i >= 0; i-- {
			out = append(out, b&(1<<uint(i)) != 0)
		}
	}
	return out, nil
}
