// Package store is the user-facing entry point of the portal client: listing,
// describing and searching datasets, and opening them as lazy zarr cubes.
package store

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cci-tools/odpstore/internal/cache"
	"github.com/cci-tools/odpstore/internal/chunkstore"
	"github.com/cci-tools/odpstore/internal/core/model"
	"github.com/cci-tools/odpstore/internal/normalize"
	"github.com/cci-tools/odpstore/internal/odp"
)

// StoreError marks failures caused by how the store was used, as opposed to
// transport or protocol failures.
type StoreError struct {
	Message string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StoreError) Unwrap() error { return e.Err }

func storeErrorf(format string, args ...any) error {
	return &StoreError{Message: fmt.Sprintf(format, args...)}
}

// Store serves dataset metadata and data from one opensearch catalogue.
type Store struct {
	cat   *odp.Catalogue
	cache cache.ChunkCache
	log   zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithChunkCache installs a chunk cache shared by all datasets opened
// through the store.
func WithChunkCache(c cache.ChunkCache) Option {
	return func(s *Store) { s.cache = c }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

func New(cat *odp.Catalogue, opts ...Option) *Store {
	s := &Store{cat: cat, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DataID pairs a dataset id with its human-readable title.
type DataID struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// ListDataIDs lists all dataset ids with shortened titles, sorted by id.
func (s *Store) ListDataIDs(ctx context.Context) ([]DataID, error) {
	sources, err := s.cat.Sources(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]DataID, 0, len(sources))
	for _, src := range sources {
		out = append(out, DataID{ID: src.ID, Title: ShortenDatasetName(src.Title)})
	}
	return out, nil
}

// HasData reports whether the store can serve the dataset as the given type.
// An empty type specifier matches any type.
func (s *Store) HasData(ctx context.Context, dataID string, typeSpec model.TypeSpecifier) (bool, error) {
	ok, err := s.cat.Has(ctx, dataID)
	if err != nil || !ok {
		return false, err
	}
	return model.TypeCube.Satisfies(typeSpec), nil
}

// DescribeData builds the descriptor of one dataset. Cube descriptors carry
// normalized time/lat/lon dimensions and only cube-ready variables; plain
// dataset descriptors report dimensions as the granules declare them.
func (s *Store) DescribeData(ctx context.Context, dataID string, typeSpec model.TypeSpecifier) (*model.DatasetDescriptor, error) {
	if typeSpec == "" {
		typeSpec = model.TypeCube
	}
	src, err := s.cat.Source(ctx, dataID)
	if err != nil {
		return nil, &StoreError{Message: fmt.Sprintf("cannot describe %q", dataID), Err: err}
	}
	md, err := s.cat.GetDatasetMetadata(ctx, dataID)
	if err != nil {
		return nil, &StoreError{Message: fmt.Sprintf("cannot describe %q", dataID), Err: err}
	}
	return s.buildDescriptor(src, md, typeSpec), nil
}

func (s *Store) buildDescriptor(src *odp.DataSource, md *odp.DatasetMetadata, typeSpec model.TypeSpecifier) *model.DatasetDescriptor {
	cube := typeSpec == model.TypeCube

	var dims map[string]int
	if cube {
		dims = normalize.Dims(md.Dimensions)
	} else {
		dims = copyDims(md.Dimensions)
	}
	timeSize := timeDimensionSize(src.ID, md)
	if cur, ok := dims["time"]; ok {
		dims["time"] = cur * timeSize
	} else {
		dims["time"] = timeSize
	}

	dataVars := make(map[string]model.VariableDescriptor)
	coords := make(map[string]model.VariableDescriptor)
	varNames := odp.DataVarNames(md.VariableInfos)
	if !cube {
		varNames = allVarNames(md.VariableInfos)
	}
	for _, name := range varNames {
		info := md.VariableInfos[name]
		var varDims []string
		if cube {
			varDims = normalize.CubeVariableDims(info.Dimensions)
			if varDims == nil {
				continue
			}
		} else {
			varDims = normalize.DatasetVariableDims(info.Dimensions)
		}
		vd := model.VariableDescriptor{
			Name:  name,
			Dtype: info.DataType,
			Dims:  varDims,
			Attrs: info.Attrs,
		}
		if normalize.IsCoordinateName(name) || isOwnDimension(info) {
			coords[name] = vd
			continue
		}
		dataVars[name] = vd
	}
	// coordinate variables are not listed by DataVarNames, collect them
	// separately so cube descriptors still describe their axes
	for name, info := range md.VariableInfos {
		if _, ok := coords[name]; ok {
			continue
		}
		if _, ok := dataVars[name]; ok {
			continue
		}
		if normalize.IsCoordinateName(name) || isOwnDimension(info) {
			coords[name] = model.VariableDescriptor{
				Name:  name,
				Dtype: info.DataType,
				Dims:  info.Dimensions,
				Attrs: info.Attrs,
			}
		}
	}

	d := &model.DatasetDescriptor{
		DataID:        src.ID,
		TypeSpecifier: typeSpec,
		CRS:           model.DefaultCRS,
		TimePeriod:    TimePeriodOf(src.ID),
		SpatialRes:    md.LatRes,
		Dims:          dims,
		DataVars:      dataVars,
		Coords:        coords,
		Attrs:         relevantAttrs(src, md),
	}
	if md.HasBBox {
		bbox := md.BBox
		d.BBox = &bbox
	}
	if !md.TemporalStart.IsZero() || !md.TemporalEnd.IsZero() {
		d.TimeRange = &model.TimeRange{Start: md.TemporalStart, End: md.TemporalEnd}
	}
	if cube {
		normalize.EnsureTime(d)
	}
	return d
}

// timeDimensionSize counts the granule windows over the full temporal
// coverage for calendar frequencies. Catalog-driven frequencies keep a single
// step; their true axis is only known once the dataset is opened.
func timeDimensionSize(dataID string, md *odp.DatasetMetadata) int {
	if md.TemporalStart.IsZero() || md.TemporalEnd.IsZero() {
		return 1
	}
	freq := chunkstore.FrequencyOf(dataID)
	ranges, ok := chunkstore.CalendarTimeRanges(freq, md.TemporalStart, md.TemporalEnd)
	if !ok || len(ranges) == 0 {
		return 1
	}
	return len(ranges)
}

// SearchParams extends the facet filters with temporal and spatial bounds.
type SearchParams = model.SearchParams

// SearchData finds datasets matching the filter. Facet fields are matched
// against the data source ids; temporal and spatial bounds are matched
// against the described coverage.
func (s *Store) SearchData(ctx context.Context, params SearchParams, typeSpec model.TypeSpecifier) ([]*model.DatasetDescriptor, error) {
	sources, err := s.cat.Sources(ctx)
	if err != nil {
		return nil, err
	}
	var searchRange model.TimeRange
	if params.StartDate != "" || params.EndDate != "" {
		searchRange, err = parseSearchRange(params.StartDate, params.EndDate)
		if err != nil {
			return nil, err
		}
	}

	var out []*model.DatasetDescriptor
	for _, src := range sources {
		if !matchesFacets(src, params) {
			continue
		}
		d, err := s.DescribeData(ctx, src.ID, typeSpec)
		if err != nil {
			s.log.Warn().Str("data_id", src.ID).Err(err).Msg("skipping unsearchable dataset")
			continue
		}
		if params.Institute != "" && !attrEquals(d.Attrs, "institute", params.Institute) {
			continue
		}
		if !searchRange.IsZero() {
			if d.TimeRange == nil || !d.TimeRange.Overlaps(searchRange) {
				continue
			}
		}
		if params.BBox != nil {
			if d.BBox == nil || !bboxIntersects(*d.BBox, *params.BBox) {
				continue
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func matchesFacets(src *odp.DataSource, params SearchParams) bool {
	match := func(want, have string) bool {
		return want == "" || strings.EqualFold(want, have)
	}
	return match(params.ECV, src.Ecv) &&
		match(params.Frequency, src.Frequency) &&
		match(params.ProcessingLevel, src.ProcessingLevel) &&
		match(params.ProductString, src.ProductString) &&
		match(params.ProductVersion, src.ProductVersion) &&
		match(params.DataType, src.DataType) &&
		match(params.Sensor, src.SensorID) &&
		match(params.Platform, src.PlatformID)
}

func parseSearchRange(start, end string) (model.TimeRange, error) {
	var out model.TimeRange
	var err error
	if start != "" {
		if out.Start, err = odp.ParseCoverageTime(start); err != nil {
			return out, storeErrorf("invalid start_date %q", start)
		}
	}
	if end != "" {
		if out.End, err = odp.ParseCoverageTime(end); err != nil {
			return out, storeErrorf("invalid end_date %q", end)
		}
	}
	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

func bboxIntersects(a, b model.BBox) bool {
	return a.MinLon <= b.MaxLon && b.MinLon <= a.MaxLon &&
		a.MinLat <= b.MaxLat && b.MinLat <= a.MaxLat
}

func attrEquals(attrs map[string]any, key, want string) bool {
	v, _ := attrs[key].(string)
	return strings.EqualFold(v, want)
}

var shortNamePattern = regexp.MustCompile(`.*[(].*[)].*[:].*`)

// ShortenDatasetName compresses the portal's long dataset titles, for example
// "ESA Sea Surface Temperature (SST) Climate Change Initiative (CCI): Level 4,
// version 2.1" becomes "CCI: L4 v2.1". Titles of another shape pass through.
func ShortenDatasetName(name string) string {
	if !shortNamePattern.MatchString(name) {
		return name
	}
	head, tail, _ := strings.Cut(name, ":")
	open := strings.LastIndex(head, "(")
	closing := strings.LastIndex(head, ")")
	if open < 0 || closing < open {
		return name
	}
	cciName := head[open+1 : closing]
	tail = strings.ReplaceAll(tail, "Level ", "L")
	tail = strings.ReplaceAll(tail, ", version ", " v")
	tail = strings.ReplaceAll(tail, ", Version ", " v")
	return cciName + ":" + tail
}

// TimePeriodOf derives a pandas-style period string from a dataset id's
// frequency part, such as "1D" for daily or "8D" for 8-day composites.
// Frequencies without a calendar period yield the empty string.
func TimePeriodOf(dataID string) string {
	freq := chunkstore.FrequencyOf(dataID)
	periods := []struct {
		letter string
		ids    []string
	}{
		{"D", []string{"days", "day"}},
		{"M", []string{"months", "mon", "climatology"}},
		{"Y", []string{"yrs", "yr", "year"}},
	}
	for _, p := range periods {
		for i, id := range p.ids {
			if !strings.Contains(freq, id) {
				continue
			}
			if i == 0 {
				count, _, _ := strings.Cut(freq, "-")
				return count + p.letter
			}
			return "1" + p.letter
		}
	}
	return ""
}

// relevantMetadataAttributes is the subset of granule and catalog attributes
// worth surfacing on a descriptor.
var relevantMetadataAttributes = []string{
	"ecv", "institute", "processing_level", "product_string", "product_version",
	"data_type", "abstract", "title", "licences", "publication_date",
	"catalog_url", "sensor_id", "platform_id", "cci_project", "description",
	"project", "references", "source", "history", "comment",
}

func relevantAttrs(src *odp.DataSource, md *odp.DatasetMetadata) map[string]any {
	out := make(map[string]any)
	for _, key := range relevantMetadataAttributes {
		if v, ok := md.Attributes[key]; ok {
			out[key] = v
		}
	}
	out["ecv"] = src.Ecv
	out["processing_level"] = src.ProcessingLevel
	out["product_string"] = src.ProductString
	out["product_version"] = src.ProductVersion
	out["data_type"] = src.DataType
	out["sensor_id"] = src.SensorID
	out["platform_id"] = src.PlatformID
	if md.Title != "" {
		out["title"] = md.Title
	}
	if md.Abstract != "" {
		out["abstract"] = md.Abstract
	}
	if len(md.Licences) > 0 {
		out["licences"] = md.Licences
	}
	return out
}

func allVarNames(infos map[string]odp.VariableInfo) []string {
	names := make([]string, 0, len(infos))
	for name := range infos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isOwnDimension(info odp.VariableInfo) bool {
	return len(info.Dimensions) == 1 && info.Dimensions[0] == info.Name
}

func copyDims(dims map[string]int) map[string]int {
	out := make(map[string]int, len(dims))
	for k, v := range dims {
		out[k] = v
	}
	return out
}
