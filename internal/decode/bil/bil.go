// Package bil implements the ESRI BIL (Band Interleaved by Line) decoder
// (§4.6): a `.hdr` sidecar text format plus a raw little-endian raster.
package bil

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/hydrofetch/hydrofetch"
)

// Header is the parsed ESRI `.hdr` sidecar.
type Header struct {
	Rows, Cols int
	Bits       int
	PixelType  string // "SIGNEDINT", "UNSIGNEDINT", "FLOAT"
	ULXMap     float64
	ULYMap     float64
	XDim       float64
	YDim       float64
	NoData     float64
	ByteOrder  binary.ByteOrder
}

// ParseHeader parses a `.hdr` sidecar's whitespace-separated `KEY VALUE`
// lines. Unknown keys are ignored; NoData defaults to NaN when absent.
func ParseHeader(data []byte) (*Header, error) {
	h := &Header{Bits: 8, PixelType: "UNSIGNEDINT", XDim: 1, YDim: 1, NoData: math.NaN(), ByteOrder: binary.LittleEndian}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		key, val := strings.ToUpper(fields[0]), fields[1]
		switch key {
		case "NROWS":
			h.Rows, _ = strconv.Atoi(val)
		case "NCOLS":
			h.Cols, _ = strconv.Atoi(val)
		case "NBITS":
			h.Bits, _ = strconv.Atoi(val)
		case "PIXELTYPE":
			h.PixelType = strings.ToUpper(val)
		case "ULXMAP":
			h.ULXMap, _ = strconv.ParseFloat(val, 64)
		case "ULYMAP":
			h.ULYMap, _ = strconv.ParseFloat(val, 64)
		case "XDIM":
			h.XDim, _ = strconv.ParseFloat(val, 64)
		case "YDIM":
			h.YDim, _ = strconv.ParseFloat(val, 64)
		case "NODATA", "NODATA_VALUE":
			h.NoData, _ = strconv.ParseFloat(val, 64)
		case "BYTEORDER":
			if strings.HasPrefix(strings.ToUpper(val), "M") {
				h.ByteOrder = binary.BigEndian
			}
		}
	}
	if h.Rows == 0 || h.Cols == 0 {
		return nil, &hydrofetch.Error{Op: "bil.ParseHeader", Kind: hydrofetch.ErrFormatParseError, Message: "missing NROWS/NCOLS"}
	}
	return h, nil
}

// Raster is a decoded BIL raster: row-major float64 values plus the
// header that described its layout.
type Raster struct {
	Header *Header
	Rows   [][]float64
}

// Decode interprets raw BIL pixel bytes per h's declared pixel type and
// byte order, band-interleaved-by-line (single band).
func Decode(data []byte, h *Header) (*Raster, error) {
	sampleBytes := h.Bits / 8
	if sampleBytes == 0 {
		return nil, &hydrofetch.Error{Op: "bil.Decode", Kind: hydrofetch.ErrFormatParseError, Message: fmt.Sprintf("unsupported NBITS=%d", h.Bits)}
	}
	need := h.Rows * h.Cols * sampleBytes
	if len(data) < need {
		return nil, &hydrofetch.Error{Op: "bil.Decode", Kind: hydrofetch.ErrDataIntegrityError, Message: fmt.Sprintf("raster has %d bytes, need %d", len(data), need)}
	}
	rows := make([][]float64, h.Rows)
	for r := 0; r < h.Rows; r++ {
		row := make([]float64, h.Cols)
		for c := 0; c < h.Cols; c++ {
			off := (r*h.Cols + c) * sampleBytes
			row[c] = decodeSample(data[off:off+sampleBytes], h)
		}
		rows[r] = row
	}
	return &Raster{Header: h, Rows: rows}, nil
}

func decodeSample(chunk []byte, h *Header) float64 {
	order := h.ByteOrder
	switch {
	case h.PixelType == "FLOAT" && h.Bits == 32:
		return float64(math.Float32frombits(order.Uint32(chunk)))
	case h.PixelType == "FLOAT" && h.Bits == 64:
		return math.Float64frombits(order.Uint64(chunk))
	case h.PixelType == "SIGNEDINT" && h.Bits == 16:
		return float64(int16(order.Uint16(chunk)))
	case h.PixelType == "SIGNEDINT" && h.Bits == 32:
		return float64(int32(order.Uint32(chunk)))
	case h.Bits == 8:
		return float64(chunk[0])
	case h.Bits == 16:
		return float64(order.Uint16(chunk))
	case h.Bits == 32:
		return float64(order.Uint32(chunk))
	default:
		return math.NaN()
	}
}

// ValueAtPoint converts (lat, lon) into a raster row/col via the header's
// upper-left corner and cell size. ULXMap/ULYMap are treated as the
// western/northern edge of the first column/row: the offset divided by
// the cell size is truncated, not rounded.
func (r *Raster) ValueAtPoint(lat, lon float64) (float64, error) {
	col := int((lon - r.Header.ULXMap) / r.Header.XDim)
	row := int((r.Header.ULYMap - lat) / r.Header.YDim)
	if row < 0 || row >= r.Header.Rows || col < 0 || col >= r.Header.Cols {
		return 0, &hydrofetch.Error{Op: "bil.ValueAtPoint", Kind: hydrofetch.ErrOutOfDomainPoint, Message: "point falls outside raster extent"}
	}
	return r.Rows[row][col], nil
}

// IsNoData reports whether v matches the header's declared NODATA
// sentinel (NaN-safe: two NaNs compare unequal under ==).
func (h *Header) IsNoData(v float64) bool {
	if math.IsNaN(h.NoData) {
		return math.IsNaN(v)
	}
	return v == h.NoData
}
