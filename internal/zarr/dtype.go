package zarr

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Dtype is a NumPy typestr as used in zarr array metadata: one byte-order
// character ("<", ">" or "|"), one basic-type character and the byte size.
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
}

func ParseDtype(s string) (dt Dtype, err error) {
	if len(s) < 3 {
		return dt, fmt.Errorf("invalid dtype string %q: too short", s)
	}
	dt.ByteOrder, err = ParseByteOrder(rune(s[0]))
	if err != nil {
		return dt, err
	}
	dt.BasicType, err = ParseBasicType(rune(s[1]))
	if err != nil {
		return dt, err
	}
	size, err := strconv.Atoi(s[2:])
	if err != nil {
		return dt, fmt.Errorf("invalid dtype string %q: %w", s, err)
	}
	dt.ByteSize = size
	return dt, nil
}

func (dt Dtype) String() string {
	return fmt.Sprintf("%c%c%d", dt.ByteOrder, dt.BasicType, dt.ByteSize)
}

func (dt Dtype) order() binary.ByteOrder {
	if dt.ByteOrder == ByteOrderBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

type ByteOrder rune

const (
	ByteOrderLittle      ByteOrder = '<'
	ByteOrderBig         ByteOrder = '>'
	ByteOrderIrrelevant  ByteOrder = '|'
	ByteOrderUnspecified ByteOrder = 0
)

func ParseByteOrder(r rune) (ByteOrder, error) {
	switch o := ByteOrder(r); o {
	case ByteOrderLittle, ByteOrderBig, ByteOrderIrrelevant:
		return o, nil
	default:
		return ByteOrderUnspecified, fmt.Errorf("unsupported byte order: %q", r)
	}
}

type BasicType rune

const (
	TypeBool     BasicType = 'b'
	TypeInt      BasicType = 'i'
	TypeUint     BasicType = 'u'
	TypeFloat    BasicType = 'f'
	TypeComplex  BasicType = 'c'
	TypeUnknownT BasicType = 0
)

func ParseBasicType(r rune) (BasicType, error) {
	switch t := BasicType(r); t {
	case TypeBool, TypeInt, TypeUint, TypeFloat, TypeComplex:
		return t, nil
	default:
		return TypeUnknownT, fmt.Errorf("unsupported basic type: %q", r)
	}
}

// sampleTypeToDtype maps the catalog's variable sample types to typestrs. The
// remote endpoint serves signed 8/16-bit data as its unsigned counterpart, so
// both map to the same dtype.
var sampleTypeToDtype = map[string]string{
	"uint8":   "|u1",
	"uint16":  "<u2",
	"uint32":  "<u4",
	"uint64":  "<u8",
	"int8":    "|u1",
	"int16":   "<u2",
	"int32":   "<u4",
	"int64":   "<i8",
	"float32": "<f4",
	"float64": "<f8",
}

// DtypeForSampleType returns the typestr for a catalog sample type name,
// defaulting to little-endian float64 for unknown names.
func DtypeForSampleType(sampleType string) string {
	if dt, ok := sampleTypeToDtype[sampleType]; ok {
		return dt
	}
	return "<f8"
}

// EncodeFill renders count elements of fill as raw bytes in dt's layout.
// Chunks synthesized this way stand in for granules the endpoint cannot
// serve.
func EncodeFill(dt Dtype, fill float64, count int) ([]byte, error) {
	if count < 0 {
		return nil, fmt.Errorf("negative element count %d", count)
	}
	one := make([]byte, dt.ByteSize)
	order := dt.order()
	switch {
	case dt.BasicType == TypeFloat && dt.ByteSize == 4:
		order.PutUint32(one, math.Float32bits(float32(fill)))
	case dt.BasicType == TypeFloat && dt.ByteSize == 8:
		order.PutUint64(one, math.Float64bits(fill))
	case (dt.BasicType == TypeInt || dt.BasicType == TypeUint) && dt.ByteSize == 1:
		one[0] = byte(int64(fill))
	case (dt.BasicType == TypeInt || dt.BasicType == TypeUint) && dt.ByteSize == 2:
		order.PutUint16(one, uint16(int64(fill)))
	case (dt.BasicType == TypeInt || dt.BasicType == TypeUint) && dt.ByteSize == 4:
		order.PutUint32(one, uint32(int64(fill)))
	case (dt.BasicType == TypeInt || dt.BasicType == TypeUint) && dt.ByteSize == 8:
		order.PutUint64(one, uint64(int64(fill)))
	default:
		return nil, fmt.Errorf("cannot encode fill value for dtype %s", dt)
	}
	out := make([]byte, 0, count*dt.ByteSize)
	for i := 0; i < count; i++ {
		out = append(out, one...)
	}
	return out, nil
}

// EncodeFloat64s renders values as raw bytes in dt's layout. Used for the
// inlined coordinate arrays.
func EncodeFloat64s(dt Dtype, values []float64) ([]byte, error) {
	out := make([]byte, 0, len(values)*dt.ByteSize)
	order := dt.order()
	buf := make([]byte, dt.ByteSize)
	for _, v := range values {
		switch {
		case dt.BasicType == TypeFloat && dt.ByteSize == 4:
			order.PutUint32(buf, math.Float32bits(float32(v)))
		case dt.BasicType == TypeFloat && dt.ByteSize == 8:
			order.PutUint64(buf, math.Float64bits(v))
		case dt.BasicType == TypeInt && dt.ByteSize == 8:
			order.PutUint64(buf, uint64(int64(v)))
		case dt.BasicType == TypeUint && dt.ByteSize == 8:
			order.PutUint64(buf, uint64(v))
		default:
			return nil, fmt.Errorf("cannot encode values for dtype %s", dt)
		}
		out = append(out, buf...)
	}
	return out, nil
}
