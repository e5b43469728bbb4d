package geotiff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/hydrofetch/hydrofetch"
)

type ifdEntry struct {
	tag, typ uint16
	count    uint32
	value    uint32
}

// buildUncompressedTIFF assembles a minimal little-endian, strip-based,
// uncompressed 8-bit single-band TIFF of the given dimensions and pixel
// data (row-major).
func buildUncompressedTIFF(t *testing.T, width, height int, pixels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, binary.LittleEndian, uint16(42))
	ifdOffsetPos := buf.Len()
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // IFD offset placeholder

	dataOffset := uint32(buf.Len())
	buf.Write(pixels)

	ifdOffset := uint32(buf.Len())
	entries := []ifdEntry{
		{tagImageWidth, 4, 1, uint32(width)},
		{tagImageLength, 4, 1, uint32(height)},
		{tagBitsPerSample, 3, 1, 8},
		{tagCompression, 3, 1, 1},
		{tagSampleFormat, 3, 1, 1},
		{tagStripOffsets, 4, 1, dataOffset},
		{tagRowsPerStrip, 4, 1, uint32(height)},
		{tagStripByteCounts, 4, 1, uint32(len(pixels))},
	}
	binary.Write(&buf, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		binary.Write(&buf, binary.LittleEndian, e.tag)
		binary.Write(&buf, binary.LittleEndian, e.typ)
		binary.Write(&buf, binary.LittleEndian, e.count)
		binary.Write(&buf, binary.LittleEndian, e.value)
	}
	binary.Write(&buf, binary.LittleEndian, uint32(0)) // next IFD offset: none

	out := buf.Bytes()
	binary.LittleEndian.PutUint32(out[ifdOffsetPos:ifdOffsetPos+4], ifdOffset)
	return out
}

func TestOpenAndPixelAt(t *testing.T) {
	pixels := []byte{10, 20, 30, 40} // 2x2: row0=[10,20] row1=[30,40]
	data := buildUncompressedTIFF(t, 2, 2, pixels)
	img, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", img.Width, img.Height)
	}
	v, err := img.pixelAt(1, 0)
	if err != nil || v != 20 {
		t.Fatalf("pixelAt(1,0) = %v, %v, want 20", v, err)
	}
	v, err = img.pixelAt(0, 1)
	if err != nil || v != 30 {
		t.Fatalf("pixelAt(0,1) = %v, %v, want 30", v, err)
	}
}

func TestValueAtPoint(t *testing.T) {
	pixels := []byte{10, 20, 30, 40}
	data := buildUncompressedTIFF(t, 2, 2, pixels)
	img, err := Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	bounds := hydrofetch.SpatialBounds{West: 0, East: 2, South: 0, North: 2}
	v, err := img.ValueAtPoint(1.9, 0.1, bounds) // near top-left => pixel (0,0)
	if err != nil || v != 10 {
		t.Fatalf("ValueAtPoint(top-left) = %v, %v, want 10", v, err)
	}
	v, err = img.ValueAtPoint(0.1, 1.9, bounds) // near bottom-right => pixel (1,1)
	if err != nil || v != 40 {
		t.Fatalf("ValueAtPoint(bottom-right) = %v, %v, want 40", v, err)
	}
}
