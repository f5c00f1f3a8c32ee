// Package zarr holds the zarr format 2 metadata types the chunk store writes
// into its virtual file system and the dtype handling needed to synthesize
// fill-value chunks.
package zarr

import (
	"encoding/json"
	"strconv"
	"strings"
)

const (
	// MetaKeyAttributes stores userland metadata keyed by array name
	MetaKeyAttributes = ".zattrs"
	// MetaKeyArray is the key for storing metadata on an array store
	MetaKeyArray = ".zarray"
	// MetaKeyGroup is the key for storing group definitions on an array store
	MetaKeyGroup = ".zgroup"

	// Format is the zarr storage specification version produced here.
	Format = 2
)

type Attributes map[string]any

type Group struct {
	ZarrFormat int `json:"zarr_format"`
}

// ArrayMeta is the essential configuration metadata of one array, encoded as
// the value of its ".zarray" key.
type ArrayMeta struct {
	ZarrFormat int    `json:"zarr_format"`
	Shape      []int  `json:"shape"`
	Chunks     []int  `json:"chunks"`
	Dtype      string `json:"dtype"`
	Compressor any    `json:"compressor"`
	FillValue  any    `json:"fill_value"`
	Filters    any    `json:"filters"`
	Order      string `json:"order"`
}

func NewArrayMeta(shape, chunks []int, dtype string, fillValue any) ArrayMeta {
	return ArrayMeta{
		ZarrFormat: Format,
		Shape:      shape,
		Chunks:     chunks,
		Dtype:      dtype,
		FillValue:  fillValue,
		Order:      "C",
	}
}

// ChunkKey renders a chunk index as a zarr v2 key segment, "0.0.0" style.
func ChunkKey(index []int) string {
	if len(index) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, idx := range index {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}

// ParseChunkKey is the inverse of ChunkKey.
func ParseChunkKey(key string) ([]int, bool) {
	parts := strings.Split(key, ".")
	index := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, false
		}
		index[i] = n
	}
	return index, true
}

// EncodeJSON renders metadata objects the way the vfs stores them.
func EncodeJSON(v any) []byte {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		// metadata values are plain maps and structs; this cannot fail
		panic(err)
	}
	return b
}

// NumChunks returns the per-dimension chunk counts for shape/chunks.
func NumChunks(shape, chunks []int) []int {
	nums := make([]int, len(shape))
	for i := range shape {
		c := chunks[i]
		if c <= 0 {
			c = shape[i]
		}
		nums[i] = (shape[i] + c - 1) / c
	}
	return nums
}

// ChunkIndexes enumerates every chunk index of an array in C order.
func ChunkIndexes(shape, chunks []int) [][]int {
	nums := NumChunks(shape, chunks)
	total := 1
	for _, n := range nums {
		if n == 0 {
			return nil
		}
		total *= n
	}
	out := make([][]int, 0, total)
	index := make([]int, len(nums))
	for {
		cp := make([]int, len(index))
		copy(cp, index)
		out = append(out, cp)
		i := len(index) - 1
		for ; i >= 0; i-- {
			index[i]++
			if index[i] < nums[i] {
				break
			}
			index[i] = 0
		}
		if i < 0 {
			return out
		}
	}
}
