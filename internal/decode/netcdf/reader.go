package netcdf

import (
	"encoding/binary"
	"fmt"
	"math"
)

// netCDF classic format tags (the "NC_" constants of the CDF
// specification), read as the first 4 bytes of each *_list.
const (
	tagDimension = 0x0A
	tagVariable  = 0x0B
	tagAttribute = 0x0C
	absent       = 0x00
)

// reader walks the big-endian, 4-byte-aligned classic header format.
type reader struct {
	data        []byte
	off         int
	offsetWidth int // 4 for classic (CDF-1), 8 for 64-bit offset (CDF-2)
}

func (r *reader) readUint32() (uint32, error) {
	if r.off+4 > len(r.data) {
		return 0, fmt.Errorf("netcdf: unexpected EOF reading uint32 at offset %d", r.off)
	}
	v := binary.BigEndian.Uint32(r.data[r.off : r.off+4])
	r.off += 4
	return v, nil
}

func (r *reader) readInt32() (int32, error) {
	v, err := r.readUint32()
	return int32(v), err
}

func (r *reader) readOffset() (int64, error) {
	if r.offsetWidth == 8 {
		if r.off+8 > len(r.data) {
			return 0, fmt.Errorf("netcdf: unexpected EOF reading 64-bit offset at %d", r.off)
		}
		v := binary.BigEndian.Uint64(r.data[r.off : r.off+8])
		r.off += 8
		return int64(v), nil
	}
	v, err := r.readUint32()
	return int64(v), err
}

// readName reads a netCDF "name" value: a 4-byte length, the UTF-8 bytes,
// padded to a 4-byte boundary.
func (r *reader) readName() (string, error) {
	n, err := r.readUint32()
	if err != nil {
		return "", err
	}
	if r.off+int(n) > len(r.data) {
		return "", fmt.Errorf("netcdf: unexpected EOF reading name at offset %d", r.off)
	}
	s := string(r.data[r.off : r.off+int(n)])
	r.off += int(n)
	r.skipPadding(int(n))
	return s, nil
}

func (r *reader) skipPadding(n int) {
	if pad := (4 - n%4) % 4; pad > 0 {
		r.off += pad
	}
}

func (r *reader) readDimList() ([]Dimension, error) {
	tag, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	count, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	if tag == absent || count == 0 {
		return nil, nil
	}
	if tag != tagDimension {
		return nil, fmt.Errorf("netcdf: expected NC_DIMENSION tag, got %#x", tag)
	}
	out := make([]Dimension, count)
	for i := range out {
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		length, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		out[i] = Dimension{Name: name, Len: int(length)}
	}
	return out, nil
}

func (r *reader) readAttrList() (map[string]interface{}, error) {
	tag, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	count, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]interface{})
	if tag == absent || count == 0 {
		return attrs, nil
	}
	if tag != tagAttribute {
		return nil, fmt.Errorf("netcdf: expected NC_ATTRIBUTE tag, got %#x", tag)
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		typ, err := r.readInt32()
		if err != nil {
			return nil, err
		}
		nelems, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		val, err := r.readAttrValues(DataType(typ), int(nelems))
		if err != nil {
			return nil, err
		}
		attrs[name] = val
	}
	return attrs, nil
}

func (r *reader) readAttrValues(t DataType, n int) (interface{}, error) {
	sz := t.size()
	if sz == 0 {
		return nil, fmt.Errorf("netcdf: unknown attribute type %d", t)
	}
	total := sz * n
	if r.off+total > len(r.data) {
		return nil, fmt.Errorf("netcdf: unexpected EOF reading attribute values at %d", r.off)
	}
	raw := r.data[r.off : r.off+total]
	r.off += total
	r.skipPadding(total)

	if t == TypeChar {
		return string(raw), nil
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		chunk := raw[i*sz : (i+1)*sz]
		out[i] = decodeNumeric(t, chunk)
	}
	return out, nil
}

func decodeNumeric(t DataType, chunk []byte) float64 {
	switch t {
	case TypeByte:
		return float64(int8(chunk[0]))
	case TypeShort:
		return float64(int16(binary.BigEndian.Uint16(chunk)))
	case TypeInt:
		return float64(int32(binary.BigEndian.Uint32(chunk)))
	case TypeFloat:
		return float64(math.Float32frombits(binary.BigEndian.Uint32(chunk)))
	case TypeDouble:
		return math.Float64frombits(binary.BigEndian.Uint64(chunk))
	default:
		return 0
	}
}

func (r *reader) readVarList(dims []Dimension) ([]Variable, error) {
	tag, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	count, err := r.readUint32()
	if err != nil {
		return nil, err
	}
	if tag == absent || count == 0 {
		return nil, nil
	}
	if tag != tagVariable {
		return nil, fmt.Errorf("netcdf: expected NC_VARIABLE tag, got %#x", tag)
	}
	out := make([]Variable, count)
	for i := range out {
		name, err := r.readName()
		if err != nil {
			return nil, err
		}
		ndims, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		dimIDs := make([]int, ndims)
		isRecord := false
		for d := range dimIDs {
			id, err := r.readUint32()
			if err != nil {
				return nil, err
			}
			dimIDs[d] = int(id)
			if int(id) < len(dims) && dims[id].Len == 0 {
				isRecord = true
			}
		}
		attrs, err := r.readAttrList()
		if err != nil {
			return nil, err
		}
		nctype, err := r.readInt32()
		if err != nil {
			return nil, err
		}
		vsize, err := r.readUint32()
		if err != nil {
			return nil, err
		}
		offset, err := r.readOffset()
		if err != nil {
			return nil, err
		}
		out[i] = Variable{
			Name: name, DimIDs: dimIDs, Attrs: attrs,
			Type: DataType(nctype), VSize: int(vsize), Offset: offset, IsRecord: isRecord,
		}
	}
	return out, nil
}
