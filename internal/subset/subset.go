// Package subset validates and prepares spatial bounding boxes before a
// cube is opened against them.
package subset

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom"

	"github.com/cci-tools/odpstore/internal/core/model"
)

// ErrAntimeridian is returned for bounding boxes that cross the 180 degree
// meridian, which cannot be served as a single contiguous slice.
var ErrAntimeridian = errors.New("bounding boxes crossing the antimeridian are not supported")

// Validate checks a bounding box against geographic bounds. Latitudes must be
// within -90..90 and longitudes within -180..180 degrees.
func Validate(bbox model.BBox) error {
	if bbox.MinLat < -90 || bbox.MinLat > 90 || bbox.MaxLat < -90 || bbox.MaxLat > 90 ||
		bbox.MinLon < -180 || bbox.MinLon > 180 || bbox.MaxLon < -180 || bbox.MaxLon > 180 {
		return fmt.Errorf("bounding box %v extends outside geo-spatial bounds: "+
			"latitudes must be in -90..90 and longitudes in -180..180 degrees", bbox)
	}
	if bbox.MinLat > bbox.MaxLat {
		return fmt.Errorf("bounding box %v has min latitude above max latitude", bbox)
	}
	return nil
}

// PadExtents widens a bounding box by half a pixel on each side so slicing
// includes every pixel the box crosses, then clamps to geographic bounds.
// Coordinate axes with fewer than two points leave the respective extents
// untouched.
func PadExtents(bbox model.BBox, lonCoords, latCoords []float64) model.BBox {
	out := bbox
	if len(lonCoords) >= 2 {
		half := abs(lonCoords[1]-lonCoords[0]) / 2
		out.MinLon -= half
		out.MaxLon += half
	}
	if len(latCoords) >= 2 {
		half := abs(latCoords[1]-latCoords[0]) / 2
		out.MinLat -= half
		out.MaxLat += half
	}
	if out.MinLon < -180 {
		out.MinLon = -180
	}
	if out.MaxLon > 180 {
		out.MaxLon = 180
	}
	if out.MinLat < -90 {
		out.MinLat = -90
	}
	if out.MaxLat > 90 {
		out.MaxLat = 90
	}
	return out
}

// LatInverted reports whether a latitude axis runs north to south.
func LatInverted(lat []float64) bool {
	return len(lat) >= 2 && lat[0] > lat[len(lat)-1]
}

// CrossesAntimeridian reports whether the box spans the 180 degree meridian.
// The box is turned into a polygon with longitudes shifted into 0..360, then
// tested against the meridian line.
func CrossesAntimeridian(bbox model.BBox) bool {
	if bbox.MinLon > bbox.MaxLon {
		return true
	}
	poly := shiftedPolygon(bbox)
	b := poly.Bounds()
	if !(b.Min.X < 180 && 180 < b.Max.X) {
		return false
	}
	mid := geom.Point{X: 180, Y: (bbox.MinLat + bbox.MaxLat) / 2}
	return mid.Within(poly) != geom.Outside
}

// shiftedPolygon builds the box's exterior ring with negative longitudes
// moved into the 180..360 range.
func shiftedPolygon(bbox model.BBox) geom.Polygon {
	shift := func(lon float64) float64 {
		if lon < 0 {
			return lon + 360
		}
		return lon
	}
	lo, hi := shift(bbox.MinLon), shift(bbox.MaxLon)
	return geom.Polygon([]geom.Path{{
		{X: lo, Y: bbox.MinLat},
		{X: hi, Y: bbox.MinLat},
		{X: hi, Y: bbox.MaxLat},
		{X: lo, Y: bbox.MaxLat},
		{X: lo, Y: bbox.MinLat},
	}})
}

// Prepare validates a requested box against a dataset's coordinate axes and
// returns the padded box to slice by. Boxes crossing the antimeridian are
// rejected.
func Prepare(bbox model.BBox, lonCoords, latCoords []float64) (model.BBox, error) {
	if err := Validate(bbox); err != nil {
		return model.BBox{}, err
	}
	if CrossesAntimeridian(bbox) {
		return model.BBox{}, ErrAntimeridian
	}
	return PadExtents(bbox, lonCoords, latCoords), nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
