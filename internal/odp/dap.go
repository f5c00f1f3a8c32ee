package odp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DDSVariable describes one array declared in a granule's DDS response.
type DDSVariable struct {
	Name       string
	DataType   string
	Dimensions []string
	Shape      []int
}

// DDS is the structure of a remote granule: dimension sizes plus per-variable
// type and shape.
type DDS struct {
	Dimensions map[string]int
	Variables  map[string]DDSVariable
}

var (
	ddsDeclPattern = regexp.MustCompile(`^\s*([A-Za-z0-9_]+) ([A-Za-z0-9_]+)((?:\[[A-Za-z0-9_]+ = \d+\])*);`)
	ddsDimPattern  = regexp.MustCompile(`\[([A-Za-z0-9_]+) = (\d+)\]`)
)

// ddsTypeToSampleType maps DAP type names to the catalog's sample type names.
var ddsTypeToSampleType = map[string]string{
	"Byte":    "uint8",
	"Int16":   "int16",
	"UInt16":  "uint16",
	"Int32":   "int32",
	"UInt32":  "uint32",
	"Int64":   "int64",
	"UInt64":  "uint64",
	"Float32": "float32",
	"Float64": "float64",
}

// ParseDDS reads array declarations like
//
//	Float32 analysed_sst[time = 1][lat = 3600][lon = 7200];
//
// out of a DDS response body.
func ParseDDS(text string) (*DDS, error) {
	dds := &DDS{
		Dimensions: make(map[string]int),
		Variables:  make(map[string]DDSVariable),
	}
	for _, line := range strings.Split(text, "\n") {
		m := ddsDeclPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		sampleType, ok := ddsTypeToSampleType[m[1]]
		if !ok {
			continue
		}
		name := m[2]
		if _, seen := dds.Variables[name]; seen {
			continue
		}
		v := DDSVariable{Name: name, DataType: sampleType}
		for _, dim := range ddsDimPattern.FindAllStringSubmatch(m[3], -1) {
			size, err := strconv.Atoi(dim[2])
			if err != nil {
				return nil, fmt.Errorf("dds dimension %s of %s: %w", dim[1], name, err)
			}
			v.Dimensions = append(v.Dimensions, dim[1])
			v.Shape = append(v.Shape, size)
			if _, known := dds.Dimensions[dim[1]]; !known {
				dds.Dimensions[dim[1]] = size
			}
		}
		dds.Variables[name] = v
	}
	if len(dds.Variables) == 0 {
		return nil, fmt.Errorf("dds response contained no array declarations")
	}
	return dds, nil
}

// IndexRange is a half-open [Start, Stop) index interval on one dimension.
type IndexRange struct {
	Start int
	Stop  int
}

func (r IndexRange) Len() int { return r.Stop - r.Start }

// Constraint renders a DAP projection for one variable, for example
// "sst[0:0][120:239][0:359]". DAP ranges are stop-inclusive.
func Constraint(varName string, ranges []IndexRange) string {
	var sb strings.Builder
	sb.WriteString(varName)
	for _, r := range ranges {
		fmt.Fprintf(&sb, "[%d:%d]", r.Start, r.Stop-1)
	}
	return sb.String()
}

var dodsDataMarker = []byte("\nData:\n")

// DecodeDODS turns a .dods response for a single array projection into native
// little-endian bytes of the given sample type. XDR transmits everything on
// 4-byte boundaries with 16-bit types widened to 32 bits, so the payload is
// re-packed to the width the zarr dtype declares.
func DecodeDODS(body []byte, sampleType string, expectElements int) ([]byte, error) {
	idx := bytes.Index(body, dodsDataMarker)
	if idx < 0 {
		return nil, fmt.Errorf("dods response has no data section")
	}
	data := body[idx+len(dodsDataMarker):]
	if len(data) < 8 {
		return nil, fmt.Errorf("dods data section truncated")
	}
	count := int(binary.BigEndian.Uint32(data[:4]))
	// arrays carry the element count twice
	data = data[8:]
	if expectElements > 0 && count != expectElements {
		return nil, fmt.Errorf("dods element count %d, want %d", count, expectElements)
	}

	switch sampleType {
	case "uint8", "int8":
		if len(data) < count {
			return nil, fmt.Errorf("dods byte payload truncated: %d < %d", len(data), count)
		}
		out := make([]byte, count)
		copy(out, data[:count])
		return out, nil
	case "int16", "uint16":
		return repackXDR(data, count, 4, 2)
	case "int32", "uint32", "float32":
		return repackXDR(data, count, 4, 4)
	case "int64", "uint64", "float64":
		return repackXDR(data, count, 8, 8)
	default:
		return nil, fmt.Errorf("unsupported sample type %q", sampleType)
	}
}

// repackXDR converts count big-endian elements of wireSize bytes into
// little-endian elements of outSize bytes, taking the low-order bytes when
// narrowing.
func repackXDR(data []byte, count, wireSize, outSize int) ([]byte, error) {
	if len(data) < count*wireSize {
		return nil, fmt.Errorf("dods payload truncated: %d < %d", len(data), count*wireSize)
	}
	out := make([]byte, count*outSize)
	for i := 0; i < count; i++ {
		src := data[i*wireSize : (i+1)*wireSize]
		dst := out[i*outSize : (i+1)*outSize]
		for j := 0; j < outSize; j++ {
			// big-endian keeps the low-order bytes at the tail
			dst[j] = src[wireSize-1-j]
		}
	}
	return out, nil
}

// DecodeFloat64s reads a coordinate array out of a .dods response regardless
// of its wire type.
func DecodeFloat64s(body []byte, sampleType string) ([]float64, error) {
	idx := bytes.Index(body, dodsDataMarker)
	if idx < 0 {
		return nil, fmt.Errorf("dods response has no data section")
	}
	data := body[idx+len(dodsDataMarker):]
	if len(data) < 8 {
		return nil, fmt.Errorf("dods data section truncated")
	}
	count := int(binary.BigEndian.Uint32(data[:4]))
	data = data[8:]

	out := make([]float64, 0, count)
	switch sampleType {
	case "float64", "int64", "uint64":
		if len(data) < count*8 {
			return nil, fmt.Errorf("dods payload truncated")
		}
		for i := 0; i < count; i++ {
			bits := binary.BigEndian.Uint64(data[i*8 : (i+1)*8])
			switch sampleType {
			case "float64":
				out = append(out, math.Float64frombits(bits))
			case "int64":
				out = append(out, float64(int64(bits)))
			default:
				out = append(out, float64(bits))
			}
		}
	case "uint8", "int8":
		if len(data) < count {
			return nil, fmt.Errorf("dods payload truncated")
		}
		for i := 0; i < count; i++ {
			out = append(out, float64(data[i]))
		}
	default:
		if len(data) < count*4 {
			return nil, fmt.Errorf("dods payload truncated")
		}
		for i := 0; i < count; i++ {
			word := binary.BigEndian.Uint32(data[i*4 : (i+1)*4])
			switch sampleType {
			case "float32":
				out = append(out, float64(math.Float32frombits(word)))
			case "int16", "int32":
				out = append(out, float64(int32(word)))
			case "uint16", "uint32":
				out = append(out, float64(word))
			default:
				return nil, fmt.Errorf("unsupported sample type %q", sampleType)
			}
		}
	}
	return out, nil
}
