// Package model defines core domain types shared across the store.
package model

import (
	"fmt"
	"time"
)

// DefaultCRS is the WGS84 CRS identifier used by the CCI Open Data Portal.
const DefaultCRS = "http://www.opengis.net/def/crs/EPSG/0/4326"

// TypeSpecifier distinguishes plain datasets from cube-shaped datasets.
type TypeSpecifier string

const (
	TypeDataset TypeSpecifier = "dataset"
	TypeCube    TypeSpecifier = "dataset[cube]"
)

// Satisfies reports whether data of this type can serve a request for other.
// A cube is also a dataset; the reverse does not hold.
func (t TypeSpecifier) Satisfies(other TypeSpecifier) bool {
	if other == "" || t == other {
		return true
	}
	return t == TypeCube && other == TypeDataset
}

type BBox struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLon, b.MinLat, b.MaxLon, b.MaxLat)
}

// Validate checks geographic bounds. MinLon > MaxLon is allowed and means the
// box crosses the antimeridian.
func (b BBox) Validate() error {
	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLat > b.MaxLat {
		return fmt.Errorf("invalid latitude bounds %.6f..%.6f", b.MinLat, b.MaxLat)
	}
	if b.MinLon < -180 || b.MinLon > 180 || b.MaxLon < -180 || b.MaxLon > 180 {
		return fmt.Errorf("invalid longitude bounds %.6f..%.6f", b.MinLon, b.MaxLon)
	}
	return nil
}

// CrossesAntimeridian reports whether the box wraps around the 180 meridian.
func (b BBox) CrossesAntimeridian() bool {
	return b.MinLon > b.MaxLon
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (r TimeRange) IsZero() bool { return r.Start.IsZero() && r.End.IsZero() }

func (r TimeRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return fmt.Errorf("time range end %s before start %s",
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}
	return nil
}

// Overlaps reports whether the given range overlaps this one. Zero bounds are
// treated as open.
func (r TimeRange) Overlaps(other TimeRange) bool {
	if !r.End.IsZero() && !other.Start.IsZero() && other.Start.After(r.End) {
		return false
	}
	if !r.Start.IsZero() && !other.End.IsZero() && other.End.Before(r.Start) {
		return false
	}
	return true
}

// VariableDescriptor describes one variable of a dataset.
type VariableDescriptor struct {
	Name  string         `json:"name"`
	Dtype string         `json:"dtype"`
	Dims  []string       `json:"dims"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// DatasetDescriptor describes a dataset held by the remote catalog.
// Descriptors are built per request and never persisted.
type DatasetDescriptor struct {
	DataID        string                        `json:"data_id"`
	TypeSpecifier TypeSpecifier                 `json:"type_specifier"`
	CRS           string                        `json:"crs,omitempty"`
	BBox          *BBox                         `json:"bbox,omitempty"`
	TimeRange     *TimeRange                    `json:"time_range,omitempty"`
	TimePeriod    string                        `json:"time_period,omitempty"`
	SpatialRes    float64                       `json:"spatial_res,omitempty"`
	Dims          map[string]int                `json:"dims,omitempty"`
	DataVars      map[string]VariableDescriptor `json:"data_vars,omitempty"`
	Coords        map[string]VariableDescriptor `json:"coords,omitempty"`
	Attrs         map[string]any                `json:"attrs,omitempty"`
}

// OpenParams are the parameters accepted when opening a dataset.
type OpenParams struct {
	VariableNames []string
	TimeRange     TimeRange
	BBox          *BBox
	CRS           string
	SpatialRes    float64
	Normalize     bool
}

func (p OpenParams) Validate() error {
	if err := p.TimeRange.Validate(); err != nil {
		return err
	}
	if p.BBox != nil {
		if err := p.BBox.Validate(); err != nil {
			return err
		}
	}
	if p.SpatialRes < 0 {
		return fmt.Errorf("spatial resolution must not be negative, got %g", p.SpatialRes)
	}
	return nil
}

// SearchParams is the filter mapping accepted by catalog search. Empty fields
// do not constrain the result.
type SearchParams struct {
	ECV             string
	Frequency       string
	Institute       string
	ProcessingLevel string
	ProductString   string
	ProductVersion  string
	DataType        string
	Sensor          string
	Platform        string
	StartDate       string
	EndDate         string
	BBox            *BBox
}

// Fields returns the filter mapping in catalog attribute naming, skipping
// unset entries.
func (p SearchParams) Fields() map[string]string {
	out := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	put("ecv", p.ECV)
	put("frequency", p.Frequency)
	put("institute", p.Institute)
	put("processing_level", p.ProcessingLevel)
	put("product_string", p.ProductString)
	put("product_version", p.ProductVersion)
	put("data_type", p.DataType)
	put("sensor", p.Sensor)
	put("platform", p.Platform)
	return out
}
