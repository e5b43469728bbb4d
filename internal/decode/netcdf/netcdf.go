// Package netcdf implements the NetCDF classic / 64-bit-offset decoder
// (§4.6): header parsing (dimensions, variables, global attributes) and
// typed variable reads.
package netcdf

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hydrofetch/hydrofetch"
)

// DataType is a NetCDF classic primitive type tag.
type DataType int

const (
	TypeByte DataType = iota + 1
	TypeChar
	TypeShort
	TypeInt
	TypeFloat
	TypeDouble
)

func (t DataType) size() int {
	switch t {
	case TypeByte, TypeChar:
		return 1
	case TypeShort:
		return 2
	case TypeInt, TypeFloat:
		return 4
	case TypeDouble:
		return 8
	default:
		return 0
	}
}

// Dimension is a named axis length; Len is 0 for the record (unlimited)
// dimension.
type Dimension struct {
	Name string
	Len  int
}

// Variable describes one variable's shape, type, byte offset, and
// attributes within the file.
type Variable struct {
	Name       string
	DimIDs     []int
	Attrs      map[string]interface{}
	Type       DataType
	VSize      int
	Offset     int64
	IsRecord   bool // depends on the unlimited dimension
}

// File is an opened NetCDF classic/64-bit-offset file: the parsed header
// plus a reference to the backing bytes for read_variable.
type File struct {
	Version     int // 1 = classic, 2 = 64-bit offset
	Dimensions  []Dimension
	GlobalAttrs map[string]interface{}
	Variables   []Variable
	RecordSize  int
	NumRecords  int
	data        []byte
}

// Open parses the NetCDF classic header (CDF-1/CDF-2 magic) from data,
// which must remain valid for the lifetime of the returned *File since
// ReadVariable slices directly into it.
func Open(data []byte) (*File, error) {
	if len(data) < 4 || string(data[0:3]) != "CDF" {
		return nil, &hydrofetch.Error{Op: "netcdf.Open", Kind: hydrofetch.ErrFormatParseError, Message: "missing CDF magic"}
	}
	version := int(data[3])
	if version != 1 && version != 2 {
		return nil, &hydrofetch.Error{Op: "netcdf.Open", Kind: hydrofetch.ErrFormatParseError, Message: fmt.Sprintf("unsupported NetCDF version %d (only classic/64-bit-offset supported)", version)}
	}
	f := &File{Version: version, data: data}
	r := &reader{data: data, off: 4, offsetWidth: 4}
	if version == 2 {
		r.offsetWidth = 8
	}

	numrecs, err := r.readUint32()
	if err != nil {
		return nil, wrapErr("header.numrecs", err)
	}
	f.NumRecords = int(numrecs)

	f.Dimensions, err = r.readDimList()
	if err != nil {
		return nil, wrapErr("dim_list", err)
	}
	f.GlobalAttrs, err = r.readAttrList()
	if err != nil {
		return nil, wrapErr("gatt_list", err)
	}
	f.Variables, err = r.readVarList(f.Dimensions)
	if err != nil {
		return nil, wrapErr("var_list", err)
	}
	for _, v := range f.Variables {
		if v.IsRecord {
			f.RecordSize += v.VSize
		}
	}
	return f, nil
}

func wrapErr(where string, cause error) error {
	return &hydrofetch.Error{Op: "netcdf.Open", Kind: hydrofetch.ErrFormatParseError, Message: where, Inner: cause}
}

// Variable looks up a variable descriptor by name.
func (f *File) Variable(name string) (*Variable, error) {
	for i := range f.Variables {
		if f.Variables[i].Name == name {
			return &f.Variables[i], nil
		}
	}
	return nil, &hydrofetch.Error{Op: "netcdf.File.Variable", Kind: hydrofetch.ErrUnknownVariable, Message: name}
}

// ReadVariable returns the full numeric contents of a variable as
// float64, widening from its declared storage type; a record variable
// is read across all records.
func (f *File) ReadVariable(name string) ([]float64, error) {
	v, err := f.Variable(name)
	if err != nil {
		return nil, err
	}
	if v.IsRecord {
		return f.readRecordVariable(v)
	}
	n := v.VSize / v.Type.size()
	return f.readTyped(f.data[v.Offset:v.Offset+int64(v.VSize)], v.Type, n)
}

func (f *File) readRecordVariable(v *Variable) ([]float64, error) {
	n := v.VSize / v.Type.size()
	out := make([]float64, 0, n*f.NumRecords)
	for r := 0; r < f.NumRecords; r++ {
		start := v.Offset + int64(r)*int64(f.RecordSize)
		vals, err := f.readTyped(f.data[start:start+int64(v.VSize)], v.Type, n)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

func (f *File) readTyped(b []byte, t DataType, n int) ([]float64, error) {
	out := make([]float64, n)
	sz := t.size()
	if len(b) < n*sz {
		return nil, &hydrofetch.Error{Op: "netcdf.File.readTyped", Kind: hydrofetch.ErrDataIntegrityError, Message: "variable data section truncated"}
	}
	for i := 0; i < n; i++ {
		chunk := b[i*sz : (i+1)*sz]
		switch t {
		case TypeByte:
			out[i] = float64(int8(chunk[0]))
		case TypeChar:
			out[i] = float64(chunk[0])
		case TypeShort:
			out[i] = float64(int16(binary.BigEndian.Uint16(chunk)))
		case TypeInt:
			out[i] = float64(int32(binary.BigEndian.Uint32(chunk)))
		case TypeFloat:
			out[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(chunk)))
		case TypeDouble:
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(chunk))
		}
	}
	return out, nil
}
