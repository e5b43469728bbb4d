package grib2

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/hydrofetch/hydrofetch"
)

// unpack dispatches to the Simple or PNG unpacker per the Data
// Representation template recorded in Section 5.
func unpack(template int, d drsParams, data []byte, expected int) ([]float64, error) {
	switch template {
	case 0:
		return unpackSimple(data, d, expected)
	case 41:
		return unpackPNG(data, d, expected)
	default:
		return nil, &hydrofetch.Error{
			Op: "grib2.unpack", Kind: hydrofetch.ErrFormatParseError,
			Message: fmt.Sprintf("unsupported Data Representation Template 5.%d", template),
		}
	}
}

// unpackSimple implements Template 5.0: Y = (R + X*2^E) / 10^D, where X
// is an unsigned nbits-wide integer read MSB-first.
func unpackSimple(data []byte, d drsParams, expected int) ([]float64, error) {
	if d.nbits == 0 {
		// constant field: every point equals the reference value
		out := make([]float64, expected)
		v := d.refValue / math.Pow10(d.decScale)
		for i := range out {
			out[i] = v
		}
		return out, nil
	}
	br := newBitReader(data)
	out := make([]float64, 0, expected)
	scaleE := math.Pow(2, float64(d.binScale))
	scaleD := math.Pow10(d.decScale)
	for i := 0; i < expected; i++ {
		x, err := br.read(d.nbits)
		if err != nil {
			return nil, &hydrofetch.Error{Op: "grib2.unpackSimple", Kind: hydrofetch.ErrDataIntegrityError, Message: fmt.Sprintf("data section exhausted at point %d of %d", i, expected), Inner: err}
		}
		out = append(out, (d.refValue+float64(x)*scaleE)/scaleD)
	}
	return out, nil
}

// unpackPNG implements Template 5.41: the packed values are stored as a
// PNG image whose pixel samples are the same unsigned nbits integers
// Simple packing would have bit-packed directly; decoding the PNG yields
// them without hand-rolled inflate/filter logic.
func unpackPNG(data []byte, d drsParams, expected int) ([]float64, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &hydrofetch.Error{Op: "grib2.unpackPNG", Kind: hydrofetch.ErrDecompressionError, Inner: err}
	}
	gray, ok := img.(*image.Gray16)
	var samples []uint32
	if ok {
		samples = make([]uint32, 0, expected)
		b := gray.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				samples = append(samples, uint32(gray.Gray16At(x, y).Y))
			}
		}
	} else {
		bounds := img.Bounds()
		samples = make([]uint32, 0, expected)
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				r, _, _, _ := img.At(x, y).RGBA()
				samples = append(samples, r>>8)
			}
		}
	}
	if len(samples) != expected {
		return nil, &hydrofetch.Error{Op: "grib2.unpackPNG", Kind: hydrofetch.ErrDataIntegrityError, Message: fmt.Sprintf("PNG decoded %d samples, expected %d", len(samples), expected)}
	}
	scaleE := math.Pow(2, float64(d.binScale))
	scaleD := math.Pow10(d.decScale)
	out := make([]float64, len(samples))
	for i, x := range samples {
		out[i] = (d.refValue + float64(x)*scaleE) / scaleD
	}
	return out, nil
}

// applyBitmap overwrites masked-out points (bitmap bit == false) with the
// GRIB2 "missing by bitmap" sentinel so ApplyScaling's fill/missing check
// can treat them as absent upstream.
func applyBitmap(vals []float64, bitmap []bool, missingSentinel float64) []float64 {
	for i := range vals {
		if i < len(bitmap) && !bitmap[i] {
			vals[i] = missingSentinel
		}
	}
	return vals
}

// bitReader reads successive big-endian bit fields from a byte slice,
// the wire format GRIB2 Simple packing uses for its data section.
type bitReader struct {
	data   []byte
	bitPos int
}

func newBitReader(data []byte) *bitReader { return &bitReader{data: data} }

func (r *bitReader) read(nbits int) (uint64, error) {
	var v uint64
	for i := 0; i < nbits; i++ {
		byteIdx := r.bitPos / 8
		if byteIdx >= len(r.data) {
			return 0, fmt.Errorf("bit reader exhausted")
		}
		bitIdx := 7 - (r.bitPos % 8)
		bit := (r.data[byteIdx] >> uint(bitIdx)) & 1
		v = v<<1 | uint64(bit)
		r.bitPos++
	}
	return v, nil
}
