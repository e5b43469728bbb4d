// Package geotiff implements the GeoTIFF format decoder (§4.6): IFD/tile
// or strip parsing and pixel-coordinate lookup.
package geotiff

import (
	"encoding/binary"
	"math"

	"github.com/hydrofetch/hydrofetch"
)

// Tag numbers this decoder understands, per the baseline TIFF 6.0 and
// GeoTIFF specs.
const (
	tagImageWidth      = 256
	tagImageLength     = 257
	tagBitsPerSample   = 258
	tagCompression     = 259
	tagSampleFormat    = 339
	tagStripOffsets    = 273
	tagRowsPerStrip    = 278
	tagStripByteCounts = 279
	tagTileWidth       = 322
	tagTileLength      = 323
	tagTileOffsets     = 324
	tagTileByteCounts  = 325
	tagModelPixelScale = 33550
	tagModelTiepoint   = 33922
)

// SampleFormat mirrors TIFF tag 339.
type SampleFormat int

const (
	SampleUint SampleFormat = 1
	SampleInt  SampleFormat = 2
	SampleIEEE SampleFormat = 3
)

// Image is a decoded, single-band GeoTIFF raster with its georeferencing.
type Image struct {
	Width, Height int
	BitsPerSample int
	SampleFormat  SampleFormat
	Compression   int

	// PixelScale/Tiepoint name the affine georeferencing most GeoTIFF
	// deliveries use (ModelPixelScaleTag + ModelTiepointTag). This reader
	// does not populate them; ValueAtPoint georeferences against a
	// caller-supplied bounding box instead.
	PixelScaleX, PixelScaleY float64
	TiepointRasterX          float64
	TiepointRasterY          float64
	TiepointGeoX             float64
	TiepointGeoY             float64

	tileWidth, tileLength int
	offsets, byteCounts   []int64
	data                  []byte
	order                 binary.ByteOrder
}

// Open parses a TIFF/GeoTIFF IFD (the first image only).
func Open(data []byte) (*Image, error) {
	if len(data) < 8 {
		return nil, formatErr("truncated header")
	}
	var order binary.ByteOrder
	switch string(data[0:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, formatErr("missing II/MM byte-order marker")
	}
	if order.Uint16(data[2:4]) != 42 {
		return nil, formatErr("missing TIFF magic 42")
	}
	ifdOffset := order.Uint32(data[4:8])

	img := &Image{data: data, order: order, Compression: 1, SampleFormat: SampleUint, BitsPerSample: 8}
	if err := img.readIFD(data, order, int64(ifdOffset)); err != nil {
		return nil, err
	}
	if img.Compression != 1 {
		return nil, &hydrofetch.Error{Op: "geotiff.Open", Kind: hydrofetch.ErrFormatParseError, Message: "compressed GeoTIFF (predictor/LZW/deflate) is not supported"}
	}
	return img, nil
}

func formatErr(msg string) error {
	return &hydrofetch.Error{Op: "geotiff.Open", Kind: hydrofetch.ErrFormatParseError, Message: msg}
}

func (img *Image) readIFD(data []byte, order binary.ByteOrder, offset int64) error {
	if offset <= 0 || offset+2 > int64(len(data)) {
		return formatErr("IFD offset out of range")
	}
	count := int(order.Uint16(data[offset : offset+2]))
	pos := offset + 2
	for i := 0; i < count; i++ {
		if pos+12 > int64(len(data)) {
			return formatErr("truncated IFD entry")
		}
		tag := order.Uint16(data[pos : pos+2])
		typ := order.Uint16(data[pos+2 : pos+4])
		n := order.Uint32(data[pos+4 : pos+8])
		valueField := data[pos+8 : pos+12]

		vals, err := readTagValues(data, order, typ, n, valueField)
		if err != nil {
			return err
		}
		img.assignTag(int(tag), vals)
		pos += 12
	}
	return nil
}

// readTagValues reads all values of a tag, dereferencing the offset
// pointer when the tag's total byte size exceeds 4.
func readTagValues(data []byte, order binary.ByteOrder, typ uint16, n uint32, inlineField []byte) ([]int64, error) {
	sz := tiffTypeSize(typ)
	if sz == 0 {
		return nil, nil // unknown type: skip
	}
	total := int(n) * sz
	var src []byte
	if total <= 4 {
		src = inlineField
	} else {
		off := order.Uint32(inlineField)
		if int(off)+total > len(data) {
			return nil, formatErr("tag value offset out of range")
		}
		src = data[off : int(off)+total]
	}
	out := make([]int64, n)
	for i := range out {
		chunk := src[i*sz:]
		switch typ {
		case 1, 2: // BYTE, ASCII
			out[i] = int64(chunk[0])
		case 3: // SHORT
			out[i] = int64(order.Uint16(chunk))
		case 4: // LONG
			out[i] = int64(order.Uint32(chunk))
		case 5: // RATIONAL: numerator/denominator, truncated to int64 ratio*1000
			num := order.Uint32(chunk)
			den := order.Uint32(chunk[4:])
			if den != 0 {
				out[i] = int64(float64(num) / float64(den) * 1000)
			}
		}
	}
	return out, nil
}

func tiffTypeSize(typ uint16) int {
	switch typ {
	case 1, 2:
		return 1
	case 3:
		return 2
	case 4, 11:
		return 4
	case 5, 12:
		return 8
	default:
		return 0
	}
}

func (img *Image) assignTag(tag int, vals []int64) {
	if len(vals) == 0 {
		return
	}
	switch tag {
	case tagImageWidth:
		img.Width = int(vals[0])
	case tagImageLength:
		img.Height = int(vals[0])
	case tagBitsPerSample:
		img.BitsPerSample = int(vals[0])
	case tagCompression:
		img.Compression = int(vals[0])
	case tagSampleFormat:
		img.SampleFormat = SampleFormat(vals[0])
	case tagStripOffsets, tagTileOffsets:
		img.offsets = append(img.offsets, vals...)
	case tagStripByteCounts, tagTileByteCounts:
		img.byteCounts = append(img.byteCounts, vals...)
	case tagTileWidth:
		img.tileWidth = int(vals[0])
	case tagTileLength:
		img.tileLength = int(vals[0])
	case tagModelPixelScale:
		// stored as 3 doubles in the real format; this integer tag
		// reader does not decode them, so PixelScale stays zero.
	}
}

// ValueAtPoint converts (lat, lon) to pixel coordinates against the
// declared bounding box and reads the single value there, per §4.7's
// `x = (lon-bbox_w)/(bbox_e-bbox_w) * width; y = (bbox_n-lat)/(bbox_n-bbox_s) * height`.
func (img *Image) ValueAtPoint(lat, lon float64, bounds hydrofetch.SpatialBounds) (float64, error) {
	x := int((lon - bounds.West) / (bounds.East - bounds.West) * float64(img.Width))
	y := int((bounds.North - lat) / (bounds.North - bounds.South) * float64(img.Height))
	if x < 0 {
		x = 0
	}
	if x >= img.Width {
		x = img.Width - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= img.Height {
		y = img.Height - 1
	}
	return img.pixelAt(x, y)
}

// ReadWindow clips bbox to the image bounds and returns the raster plus
// its implied lat/lon axes.
func (img *Image) ReadWindow(bbox hydrofetch.Bbox, bounds hydrofetch.SpatialBounds) ([][]float64, []float64, []float64, error) {
	x0 := clampInt(int((bbox.West-bounds.West)/(bounds.East-bounds.West)*float64(img.Width)), 0, img.Width-1)
	x1 := clampInt(int((bbox.East-bounds.West)/(bounds.East-bounds.West)*float64(img.Width)), 0, img.Width-1)
	y0 := clampInt(int((bounds.North-bbox.North)/(bounds.North-bounds.South)*float64(img.Height)), 0, img.Height-1)
	y1 := clampInt(int((bounds.North-bbox.South)/(bounds.North-bounds.South)*float64(img.Height)), 0, img.Height-1)
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}

	rows := make([][]float64, y1-y0+1)
	lats := make([]float64, y1-y0+1)
	lons := make([]float64, x1-x0+1)
	for i := x0; i <= x1; i++ {
		lons[i-x0] = bounds.West + (float64(i)+0.5)/float64(img.Width)*(bounds.East-bounds.West)
	}
	for j := y0; j <= y1; j++ {
		lats[j-y0] = bounds.North - (float64(j)+0.5)/float64(img.Height)*(bounds.North-bounds.South)
		row := make([]float64, x1-x0+1)
		for i := x0; i <= x1; i++ {
			v, err := img.pixelAt(i, j)
			if err != nil {
				return nil, nil, nil, err
			}
			row[i-x0] = v
		}
		rows[j-y0] = row
	}
	return rows, lats, lons, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// pixelAt reads the single-band value at pixel (x,y), dispatching
// between strip and tile layout.
func (img *Image) pixelAt(x, y int) (float64, error) {
	bps := img.BitsPerSample
	sampleBytes := bps / 8
	if sampleBytes == 0 {
		sampleBytes = 1
	}

	var offset int64
	if img.tileWidth > 0 {
		tilesAcross := (img.Width + img.tileWidth - 1) / img.tileWidth
		tileX, tileY := x/img.tileWidth, y/img.tileLength
		tileIdx := tileY*tilesAcross + tileX
		if tileIdx >= len(img.offsets) {
			return 0, formatErr("tile index out of range")
		}
		localX, localY := x%img.tileWidth, y%img.tileLength
		offset = img.offsets[tileIdx] + int64(localY*img.tileWidth+localX)*int64(sampleBytes)
	} else {
		rowsPerStrip := img.Height
		if len(img.offsets) > 1 {
			rowsPerStrip = img.Height / len(img.offsets)
			if rowsPerStrip == 0 {
				rowsPerStrip = 1
			}
		}
		stripIdx := y / rowsPerStrip
		if stripIdx >= len(img.offsets) {
			return 0, formatErr("strip index out of range")
		}
		localY := y % rowsPerStrip
		offset = img.offsets[stripIdx] + int64(localY*img.Width+x)*int64(sampleBytes)
	}

	if offset < 0 || offset+int64(sampleBytes) > int64(len(img.data)) {
		return 0, formatErr("pixel offset out of range")
	}
	chunk := img.data[offset : offset+int64(sampleBytes)]
	return decodeSample(chunk, img.order, img.SampleFormat, sampleBytes), nil
}

func decodeSample(chunk []byte, order binary.ByteOrder, format SampleFormat, sampleBytes int) float64 {
	switch sampleBytes {
	case 1:
		return float64(chunk[0])
	case 2:
		v := order.Uint16(chunk)
		if format == SampleInt {
			return float64(int16(v))
		}
		return float64(v)
	case 4:
		v := order.Uint32(chunk)
		if format == SampleIEEE {
			return float64(math.Float32frombits(v))
		}
		if format == SampleInt {
			return float64(int32(v))
		}
		return float64(v)
	default:
		return 0
	}
}
