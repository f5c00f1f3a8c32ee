package zarr

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
)

func TestChunkKeyRoundTrip(t *testing.T) {
	cases := [][]int{{0}, {0, 0, 0}, {3, 14, 1}}
	for _, idx := range cases {
		key := ChunkKey(idx)
		got, ok := ParseChunkKey(key)
		if !ok || !reflect.DeepEqual(got, idx) {
			t.Fatalf("round trip %v -> %q -> %v (ok=%v)", idx, key, got, ok)
		}
	}
	if _, ok := ParseChunkKey("0.x.2"); ok {
		t.Fatal("expected parse failure for non-numeric key")
	}
	if _, ok := ParseChunkKey("-1.0"); ok {
		t.Fatal("expected parse failure for negative index")
	}
}

func TestArrayMetaEncoding(t *testing.T) {
	meta := NewArrayMeta([]int{12, 180, 360}, []int{1, 180, 360}, "<f4", math.NaN())
	meta.FillValue = "NaN"
	data := EncodeJSON(meta)

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["zarr_format"] != float64(2) {
		t.Fatalf("zarr_format = %v", decoded["zarr_format"])
	}
	if decoded["dtype"] != "<f4" {
		t.Fatalf("dtype = %v", decoded["dtype"])
	}
	if decoded["order"] != "C" {
		t.Fatalf("order = %v", decoded["order"])
	}
	if decoded["compressor"] != nil {
		t.Fatalf("compressor = %v, want null", decoded["compressor"])
	}
}

func TestNumChunks(t *testing.T) {
	got := NumChunks([]int{12, 180, 360}, []int{1, 90, 360})
	want := []int{12, 2, 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NumChunks = %v, want %v", got, want)
	}
}

func TestChunkIndexes(t *testing.T) {
	got := ChunkIndexes([]int{2, 3}, []int{1, 2})
	want := [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ChunkIndexes = %v, want %v", got, want)
	}
}

func TestParseDtype(t *testing.T) {
	dt, err := ParseDtype("<f4")
	if err != nil {
		t.Fatalf("ParseDtype: %v", err)
	}
	if dt.ByteOrder != ByteOrderLittle || dt.BasicType != TypeFloat || dt.ByteSize != 4 {
		t.Fatalf("unexpected dtype: %+v", dt)
	}
	if dt.String() != "<f4" {
		t.Fatalf("String = %q", dt.String())
	}
	for _, bad := range []string{"", "f4", "<x4", "?f4", "<fx"} {
		if _, err := ParseDtype(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestDtypeForSampleType(t *testing.T) {
	if got := DtypeForSampleType("int16"); got != "<u2" {
		t.Fatalf("int16 -> %q, want <u2", got)
	}
	if got := DtypeForSampleType("float32"); got != "<f4" {
		t.Fatalf("float32 -> %q, want <f4", got)
	}
	if got := DtypeForSampleType("something-else"); got != "<f8" {
		t.Fatalf("unknown -> %q, want <f8", got)
	}
}

func TestEncodeFill(t *testing.T) {
	dt, _ := ParseDtype("<f4")
	data, err := EncodeFill(dt, 1.5, 3)
	if err != nil {
		t.Fatalf("EncodeFill: %v", err)
	}
	if len(data) != 12 {
		t.Fatalf("len = %d, want 12", len(data))
	}
	// 1.5 as little-endian float32 is 00 00 c0 3f
	want := []byte{0x00, 0x00, 0xc0, 0x3f}
	if !reflect.DeepEqual(data[:4], want) {
		t.Fatalf("first element = %x, want %x", data[:4], want)
	}
}

func TestEncodeFloat64s(t *testing.T) {
	dt, _ := ParseDtype("<f8")
	data, err := EncodeFloat64s(dt, []float64{0.5, -0.5})
	if err != nil {
		t.Fatalf("EncodeFloat64s: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("len = %d, want 16", len(data))
	}
	if got := math.Float64frombits(leUint64(data[:8])); got != 0.5 {
		t.Fatalf("first value = %v, want 0.5", got)
	}
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 7; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}
