// Package normalize rewrites dataset descriptions into the canonical
// time/lat/lon layout a cube consumer expects.
package normalize

import (
	"strings"

	"github.com/cci-tools/odpstore/internal/core/model"
)

// defaultDims are dimension names with a fixed place in the canonical order.
var defaultDims = map[string]bool{
	"time":             true,
	"lat":              true,
	"lon":              true,
	"latitude":         true,
	"longitude":        true,
	"latitude_centers": true,
}

// Dims renames latitude/longitude dimensions to lat/lon. A zonal dataset,
// which only carries latitude_centers, gets a synthetic global lon dimension
// twice the latitude size.
func Dims(dims map[string]int) map[string]int {
	out := make(map[string]int, len(dims))
	for name, size := range dims {
		out[name] = size
	}
	if size, ok := out["latitude"]; ok {
		delete(out, "latitude")
		out["lat"] = size
	}
	if size, ok := out["longitude"]; ok {
		delete(out, "longitude")
		out["lon"] = size
	}
	if size, ok := out["latitude_centers"]; ok {
		delete(out, "latitude_centers")
		out["lat"] = size
		out["lon"] = size * 2
	}
	return out
}

// CubeVariableDims maps a variable's dimensions to the canonical cube order
// time, <extra dims>, lat, lon. Variables without a recognizable geographic
// grid cannot be part of a cube and yield nil.
func CubeVariableDims(varDims []string) []string {
	has := make(map[string]bool, len(varDims))
	for _, d := range varDims {
		has[d] = true
	}
	gridded := (has["lat"] && has["lon"]) ||
		(has["latitude"] && has["longitude"]) ||
		has["latitude_centers"]
	if !gridded {
		return nil
	}
	if len(varDims) == 3 && varDims[0] == "time" && varDims[1] == "lat" && varDims[2] == "lon" {
		return append([]string(nil), varDims...)
	}
	var extra []string
	for _, d := range varDims {
		if !defaultDims[d] {
			extra = append(extra, d)
		}
	}
	out := make([]string, 0, len(extra)+3)
	out = append(out, "time")
	out = append(out, extra...)
	out = append(out, "lat", "lon")
	return out
}

// DatasetVariableDims leaves a variable's dimensions as reported, only making
// sure a time dimension is present. Used by the plain dataset opener, which
// does not require a geographic grid.
func DatasetVariableDims(varDims []string) []string {
	out := append([]string(nil), varDims...)
	for _, d := range out {
		if d == "time" {
			return out
		}
	}
	return append(out, "time")
}

// ZonalLonCoords builds the global longitude cell centers for a zonal dataset
// from its latitude centers. The resolution is taken from the latitude
// spacing; centers run from -180 to 180.
func ZonalLonCoords(latCenters []float64) []float64 {
	if len(latCenters) < 2 {
		return nil
	}
	res := latCenters[1] - latCenters[0]
	if res < 0 {
		res = -res
	}
	if res == 0 {
		return nil
	}
	var out []float64
	for v := -180.0; v < 180.0; v += res {
		out = append(out, v+res/2)
	}
	return out
}

// IsCoordinateName reports whether a variable belongs to the coordinate set
// rather than the data variables. Bounds variables always count as
// coordinates.
func IsCoordinateName(name string) bool {
	switch name {
	case "time", "lat", "lon", "latitude", "longitude", "latitude_centers":
		return true
	}
	return strings.HasSuffix(name, "_bnds") || strings.HasSuffix(name, "_bounds")
}

// SplitCoords separates a variable set into data variables and coordinate
// variables. One-dimensional variables spanning their own equally named
// dimension are coordinates too.
func SplitCoords(vars map[string]model.VariableDescriptor) (data, coords map[string]model.VariableDescriptor) {
	data = make(map[string]model.VariableDescriptor)
	coords = make(map[string]model.VariableDescriptor)
	for name, v := range vars {
		if IsCoordinateName(name) || (len(v.Dims) == 1 && v.Dims[0] == name) {
			coords[name] = v
			continue
		}
		data[name] = v
	}
	return data, coords
}

// EnsureTime adds a size-one time dimension, a time coordinate and time
// bounds to a descriptor that has temporal coverage but no time dimension.
func EnsureTime(d *model.DatasetDescriptor) {
	if d == nil || d.TimeRange == nil || d.TimeRange.IsZero() {
		return
	}
	if _, ok := d.Dims["time"]; ok {
		return
	}
	if d.Dims == nil {
		d.Dims = make(map[string]int)
	}
	d.Dims["time"] = 1
	d.Dims["bnds"] = 2
	if d.Coords == nil {
		d.Coords = make(map[string]model.VariableDescriptor)
	}
	d.Coords["time"] = model.VariableDescriptor{
		Name:  "time",
		Dtype: "int64",
		Dims:  []string{"time"},
		Attrs: map[string]any{
			"long_name":     "time",
			"standard_name": "time",
			"bounds":        "time_bnds",
			"units":         "days since 1970-01-01",
		},
	}
	d.Coords["time_bnds"] = model.VariableDescriptor{
		Name:  "time_bnds",
		Dtype: "int64",
		Dims:  []string{"time", "bnds"},
		Attrs: map[string]any{
			"long_name":     "time",
			"standard_name": "time",
			"units":         "days since 1970-01-01",
		},
	}
	for name, v := range d.DataVars {
		hasTime := false
		for _, dim := range v.Dims {
			if dim == "time" {
				hasTime = true
				break
			}
		}
		if !hasTime {
			v.Dims = append([]string{"time"}, v.Dims...)
			d.DataVars[name] = v
		}
	}
}
