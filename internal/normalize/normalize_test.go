package normalize

import (
	"reflect"
	"testing"
	"time"

	"github.com/cci-tools/odpstore/internal/core/model"
)

func TestDimsRenamesLatitudeLongitude(t *testing.T) {
	got := Dims(map[string]int{"time": 10, "latitude": 180, "longitude": 360})
	want := map[string]int{"time": 10, "lat": 180, "lon": 360}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dims = %v, want %v", got, want)
	}
}

func TestDimsExpandsZonalGrid(t *testing.T) {
	got := Dims(map[string]int{"latitude_centers": 90})
	want := map[string]int{"lat": 90, "lon": 180}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("dims = %v, want %v", got, want)
	}
}

func TestCubeVariableDims(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"canonical", []string{"time", "lat", "lon"}, []string{"time", "lat", "lon"}},
		{"latitude longitude", []string{"time", "latitude", "longitude"}, []string{"time", "lat", "lon"}},
		{"extra dim after time", []string{"time", "depth", "lat", "lon"}, []string{"time", "depth", "lat", "lon"}},
		{"zonal", []string{"time", "latitude_centers"}, []string{"time", "lat", "lon"}},
		{"no grid", []string{"time", "depth"}, nil},
		{"lat only", []string{"time", "lat"}, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CubeVariableDims(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("dims = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDatasetVariableDimsAddsTime(t *testing.T) {
	got := DatasetVariableDims([]string{"lat", "lon"})
	if !reflect.DeepEqual(got, []string{"lat", "lon", "time"}) {
		t.Fatalf("dims = %v", got)
	}
	got = DatasetVariableDims([]string{"time", "depth"})
	if !reflect.DeepEqual(got, []string{"time", "depth"}) {
		t.Fatalf("dims = %v", got)
	}
}

func TestZonalLonCoords(t *testing.T) {
	got := ZonalLonCoords([]float64{-45, 45})
	want := []float64{-135, -45, 45, 135}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("lon = %v, want %v", got, want)
	}
	if ZonalLonCoords([]float64{0}) != nil {
		t.Fatal("single latitude center cannot define a resolution")
	}
}

func TestSplitCoords(t *testing.T) {
	vars := map[string]model.VariableDescriptor{
		"analysed_sst": {Name: "analysed_sst", Dims: []string{"time", "lat", "lon"}},
		"lat":          {Name: "lat", Dims: []string{"lat"}},
		"time_bnds":    {Name: "time_bnds", Dims: []string{"time", "bnds"}},
		"depth":        {Name: "depth", Dims: []string{"depth"}},
	}
	data, coords := SplitCoords(vars)
	if len(data) != 1 || data["analysed_sst"].Name != "analysed_sst" {
		t.Fatalf("data vars = %v", data)
	}
	for _, name := range []string{"lat", "time_bnds", "depth"} {
		if _, ok := coords[name]; !ok {
			t.Fatalf("%s missing from coords: %v", name, coords)
		}
	}
}

func TestEnsureTimeSynthesizesAxis(t *testing.T) {
	tr := &model.TimeRange{
		Start: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	d := &model.DatasetDescriptor{
		DataID:    "esacci.OC.mon.L3S.CHLOR_A.multi-sensor.multi-platform.MERGED.3-1.geographic",
		TimeRange: tr,
		Dims:      map[string]int{"lat": 180, "lon": 360},
		DataVars: map[string]model.VariableDescriptor{
			"chlor_a": {Name: "chlor_a", Dims: []string{"lat", "lon"}},
		},
	}
	EnsureTime(d)

	if d.Dims["time"] != 1 || d.Dims["bnds"] != 2 {
		t.Fatalf("dims = %v", d.Dims)
	}
	tv, ok := d.Coords["time"]
	if !ok || tv.Attrs["bounds"] != "time_bnds" {
		t.Fatalf("time coord = %+v", tv)
	}
	if _, ok := d.Coords["time_bnds"]; !ok {
		t.Fatal("time_bnds coordinate missing")
	}
	if !reflect.DeepEqual(d.DataVars["chlor_a"].Dims, []string{"time", "lat", "lon"}) {
		t.Fatalf("variable dims = %v", d.DataVars["chlor_a"].Dims)
	}
}

func TestEnsureTimeKeepsExistingAxis(t *testing.T) {
	d := &model.DatasetDescriptor{
		TimeRange: &model.TimeRange{
			Start: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2010, 1, 2, 0, 0, 0, 0, time.UTC),
		},
		Dims: map[string]int{"time": 5, "lat": 2, "lon": 2},
	}
	EnsureTime(d)
	if d.Dims["time"] != 5 {
		t.Fatalf("time dim = %d, overwritten", d.Dims["time"])
	}
}
