// Package odp implements the client side of the ESA CCI Open Data Portal:
// opensearch paging, facet and description metadata, and remote granule
// access for chunk reads.
package odp

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cci-tools/odpstore/internal/core/httpclient"
	"github.com/cci-tools/odpstore/internal/core/model"
	"github.com/cci-tools/odpstore/internal/core/observability"
)

var (
	// ErrNotFound reports a dataset id the catalog does not carry.
	ErrNotFound = errors.New("dataset not found in catalogue")
	// ErrNoGranule reports a time window for which the catalog lists no file.
	ErrNoGranule = errors.New("no granule for requested time range")
)

// sourceConcurrency bounds parallel metadata fetches during catalogue assembly.
const sourceConcurrency = 8

// DataSource is one dataset of the portal, identified by its readable id of
// the form
//
//	esacci.<ECV>.<frequency>.<level>.<type>.<sensor>.<platform>.<product>.<version>.<drsId>
type DataSource struct {
	ID              string
	FID             string
	UUID            string
	Title           string
	Ecv             string
	Frequency       string
	ProcessingLevel string
	DataType        string
	SensorID        string
	PlatformID      string
	ProductString   string
	ProductVersion  string
	DrsID           string
	ODDUrl          string
	MetadataURL     string
	Variables       []FeatureVariable
}

// VariableInfo combines a variable's DDS structure with its DAS attributes.
type VariableInfo struct {
	Name         string
	DataType     string
	Dimensions   []string
	Shape        []int
	ChunkSizes   []int
	Size         int
	FillValue    float64
	HasFillValue bool
	Units        string
	LongName     string
	StandardName string
	Attrs        map[string]any
}

// DatasetMetadata is everything the store and the chunk layer need to know
// about one dataset before touching granule data.
type DatasetMetadata struct {
	Dimensions    map[string]int
	VariableInfos map[string]VariableInfo
	Attributes    map[string]any
	Title         string
	Abstract      string
	Licences      []string
	BBox          model.BBox
	HasBBox       bool
	TemporalStart time.Time
	TemporalEnd   time.Time
	LatRes        float64
	LonRes        float64
}

// Catalogue talks to one opensearch endpoint and caches the assembled data
// source list for the lifetime of the process.
type Catalogue struct {
	http        *httpclient.Client
	endpointURL string
	log         zerolog.Logger

	mu       sync.Mutex
	sources  map[string]*DataSource
	metadata map[string]*DatasetMetadata
}

func NewCatalogue(hc *httpclient.Client, endpointURL string, log zerolog.Logger) *Catalogue {
	return &Catalogue{
		http:        hc,
		endpointURL: endpointURL,
		log:         log,
		metadata:    make(map[string]*DatasetMetadata),
	}
}

func statusOf(err error) int {
	if err == nil {
		return 200
	}
	var se *httpclient.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// ensureSourcesRead assembles the data source list on first use. The id of
// each source is the cartesian product of its ODD facet values.
func (c *Catalogue) ensureSourcesRead(ctx context.Context) error {
	c.mu.Lock()
	if c.sources != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	features, err := c.FetchFeatures(ctx, url.Values{"parentIdentifier": {"cci"}})
	if err != nil {
		return fmt.Errorf("fetch data source list: %w", err)
	}

	sources := make(map[string]*DataSource)
	var smu sync.Mutex
	sem := make(chan struct{}, sourceConcurrency)
	var wg sync.WaitGroup
	for _, f := range features {
		if f.Properties.Identifier == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(f Feature) {
			defer wg.Done()
			defer func() { <-sem }()
			expanded, err := c.expandFeature(ctx, f)
			if err != nil {
				c.log.Warn().Str("fid", f.Properties.Identifier).Err(err).
					Msg("skipping data source")
				return
			}
			smu.Lock()
			for _, src := range expanded {
				if _, dup := sources[src.ID]; dup {
					c.log.Warn().Str("data_id", src.ID).Msg("data source already included, omitting")
					continue
				}
				sources[src.ID] = src
			}
			smu.Unlock()
		}(f)
	}
	wg.Wait()

	c.mu.Lock()
	c.sources = sources
	c.mu.Unlock()
	c.log.Info().Int("count", len(sources)).Msg("catalogue assembled")
	return nil
}

// expandFeature turns one catalog entry into the data sources named by the
// cartesian product of its facet values.
func (c *Catalogue) expandFeature(ctx context.Context, f Feature) ([]*DataSource, error) {
	fid := f.Properties.Identifier
	oddURL, metadataURL := sourceLinks(f)
	if oddURL == "" {
		return nil, fmt.Errorf("feature %s has no search link", fid)
	}
	body, err := c.http.Get(ctx, oddURL, "")
	if err != nil {
		return nil, fmt.Errorf("fetch odd: %w", err)
	}
	facets, err := ParseODD(body)
	if err != nil {
		return nil, err
	}

	ecvs := FacetValues(facets, "ecv", "ecvs")
	frequencies := FacetValues(facets, "time_frequency", "time_frequencies")
	levels := FacetValues(facets, "processing_level", "processing_levels")
	types := FacetValues(facets, "data_type", "data_types")
	sensors := FacetValues(facets, "sensor_id", "sensor_ids")
	platforms := FacetValues(facets, "platform_id", "platform_ids")
	products := FacetValues(facets, "product_string", "product_strings")
	versions := FacetValues(facets, "product_version", "product_versions")
	drsIDs := FacetValues(facets, "drs_id", "drs_ids")
	if len(ecvs) == 0 || len(frequencies) == 0 || len(levels) == 0 || len(types) == 0 ||
		len(sensors) == 0 || len(platforms) == 0 || len(products) == 0 ||
		len(versions) == 0 || len(drsIDs) == 0 {
		return nil, fmt.Errorf("feature %s is missing facet values", fid)
	}
	parts := strings.Split(drsIDs[0], ".")
	drsID := parts[len(parts)-1]

	uuid := f.ID
	if i := strings.LastIndex(uuid, "="); i >= 0 {
		uuid = uuid[i+1:]
	}

	var out []*DataSource
	for _, freq := range frequencies {
		for _, level := range levels {
			for _, typ := range types {
				for _, sensor := range sensors {
					for _, platform := range platforms {
						for _, product := range products {
							for _, version := range versions {
								src := &DataSource{
									FID:             fid,
									UUID:            uuid,
									Title:           f.Properties.Title,
									Ecv:             ecvs[0],
									Frequency:       freq,
									ProcessingLevel: level,
									DataType:        typ,
									SensorID:        sensor,
									PlatformID:      platform,
									ProductString:   product,
									ProductVersion:  version,
									DrsID:           drsID,
									ODDUrl:          oddURL,
									MetadataURL:     metadataURL,
									Variables:       f.Properties.Variables,
								}
								src.ID = prettyID(src)
								out = append(out, src)
							}
						}
					}
				}
			}
		}
	}
	return out, nil
}

func sourceLinks(f Feature) (oddURL, metadataURL string) {
	if len(f.Properties.Links.Search) > 0 {
		oddURL = f.Properties.Links.Search[0].Href
	}
	if len(f.Properties.Links.DescribedBy) > 0 {
		metadataURL = f.Properties.Links.DescribedBy[0].Href
	}
	return oddURL, metadataURL
}

func prettyID(src *DataSource) string {
	parts := []string{
		"esacci", src.Ecv, src.Frequency, src.ProcessingLevel, src.DataType,
		src.SensorID, src.PlatformID, src.ProductString, src.ProductVersion, src.DrsID,
	}
	for i, p := range parts {
		parts[i] = prettyString(p)
	}
	return strings.Join(parts, ".")
}

func prettyString(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.Trim(s, ".")
	return strings.ReplaceAll(s, ".", "-")
}

// DatasetNames lists all dataset ids, sorted.
func (c *Catalogue) DatasetNames(ctx context.Context) ([]string, error) {
	if err := c.ensureSourcesRead(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Has reports whether the catalogue carries the dataset.
func (c *Catalogue) Has(ctx context.Context, datasetID string) (bool, error) {
	if err := c.ensureSourcesRead(ctx); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sources[datasetID]
	return ok, nil
}

// Source resolves a dataset id to its data source entry.
func (c *Catalogue) Source(ctx context.Context, datasetID string) (*DataSource, error) {
	if err := c.ensureSourcesRead(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	src, ok := c.sources[datasetID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, datasetID)
	}
	return src, nil
}

// Sources returns all data source entries, sorted by id.
func (c *Catalogue) Sources(ctx context.Context) ([]*DataSource, error) {
	names, err := c.DatasetNames(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*DataSource, 0, len(names))
	for _, name := range names {
		out = append(out, c.sources[name])
	}
	return out, nil
}

// GetDatasetMetadata assembles the full metadata of one dataset: description
// XML, ODD facets and the variable structure of a sample granule. Results are
// cached per dataset id.
func (c *Catalogue) GetDatasetMetadata(ctx context.Context, datasetID string) (*DatasetMetadata, error) {
	c.mu.Lock()
	if md, ok := c.metadata[datasetID]; ok {
		c.mu.Unlock()
		return md, nil
	}
	c.mu.Unlock()

	src, err := c.Source(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	md := &DatasetMetadata{
		Dimensions:    make(map[string]int),
		VariableInfos: make(map[string]VariableInfo),
		Attributes:    make(map[string]any),
	}

	if src.MetadataURL != "" {
		body, err := c.http.Get(ctx, src.MetadataURL, "")
		if err != nil {
			return nil, fmt.Errorf("fetch description metadata: %w", err)
		}
		desc, err := ParseDescXML(body)
		if err != nil {
			return nil, err
		}
		md.Title = desc.Title
		md.Abstract = desc.Abstract
		md.Licences = desc.Licences
		if desc.HasBBox {
			md.BBox = model.BBox{
				MinLon: desc.BBoxMinLon, MinLat: desc.BBoxMinLat,
				MaxLon: desc.BBoxMaxLon, MaxLat: desc.BBoxMaxLat,
			}
			md.HasBBox = true
		}
		if desc.TemporalStart != "" {
			if t, err := ParseCoverageTime(desc.TemporalStart); err == nil {
				md.TemporalStart = t
			}
		}
		if desc.TemporalEnd != "" {
			if t, err := ParseCoverageTime(desc.TemporalEnd); err == nil {
				md.TemporalEnd = t
			}
		}
	}

	if err := c.readVariableInfos(ctx, src, md); err != nil {
		return nil, err
	}
	c.fillResolution(md)

	c.mu.Lock()
	c.metadata[datasetID] = md
	c.mu.Unlock()
	return md, nil
}

// readVariableInfos fetches the DDS and DAS of a sample granule and merges
// them into per-variable infos.
func (c *Catalogue) readVariableInfos(ctx context.Context, src *DataSource, md *DatasetMetadata) error {
	opendapURL, err := c.sampleOpendapURL(ctx, src)
	if err != nil {
		return err
	}

	ddsBody, err := c.http.Get(ctx, opendapURL+".dds", "")
	if err != nil {
		return fmt.Errorf("fetch dds: %w", err)
	}
	dds, err := ParseDDS(string(ddsBody))
	if err != nil {
		return err
	}

	var attrs map[string]map[string]any
	dasBody, err := c.http.Get(ctx, opendapURL+".das", "")
	if err != nil {
		c.log.Warn().Str("url", opendapURL+".das").Err(err).Msg("granule attributes unavailable")
	} else if attrs, err = ParseDAS(string(dasBody)); err != nil {
		return err
	}

	for name, v := range dds.Variables {
		info := VariableInfo{
			Name:       name,
			DataType:   v.DataType,
			Dimensions: v.Dimensions,
			Shape:      v.Shape,
			Size:       product(v.Shape),
			Attrs:      map[string]any{},
		}
		for key, value := range attrs[name] {
			switch key {
			case "fill_value":
				if fv, ok := asFloat(value); ok {
					info.FillValue = fv
					info.HasFillValue = true
				}
			case "chunk_sizes":
				info.ChunkSizes = asInts(value)
			case "units":
				info.Units, _ = value.(string)
			case "long_name":
				info.LongName, _ = value.(string)
			case "standard_name":
				info.StandardName, _ = value.(string)
			}
			info.Attrs[key] = value
		}
		if len(info.ChunkSizes) == 0 {
			info.ChunkSizes = append([]int(nil), v.Shape...)
		}
		md.VariableInfos[name] = info
	}
	for dim, size := range dds.Dimensions {
		md.Dimensions[dim] = size
	}
	for key, value := range attrs["NC_GLOBAL"] {
		md.Attributes[key] = value
	}
	return nil
}

// sampleOpendapURL finds the Opendap endpoint of any netCDF granule of the
// data source.
func (c *Catalogue) sampleOpendapURL(ctx context.Context, src *DataSource) (string, error) {
	feature, err := c.FetchFeatureAt(ctx, url.Values{"parentIdentifier": {src.FID}}, 1)
	if err != nil {
		return "", err
	}
	if feature == nil {
		return "", fmt.Errorf("%w: %s", ErrNoGranule, src.ID)
	}
	info := ExtractGranuleInfo(*feature)
	opendapURL, ok := info.URLs["Opendap"]
	if !ok {
		return "", fmt.Errorf("granule %s has no opendap link", info.Filename)
	}
	return opendapURL, nil
}

func (c *Catalogue) fillResolution(md *DatasetMetadata) {
	if v, ok := md.Attributes["geospatial_lat_resolution"]; ok {
		md.LatRes, _ = asFloat(v)
	}
	if v, ok := md.Attributes["geospatial_lon_resolution"]; ok {
		md.LonRes, _ = asFloat(v)
	}
	if md.LatRes != 0 && md.LonRes != 0 {
		return
	}
	// older datasets carry a combined "resolution" such as "0.25x0.25 deg"
	res, ok := md.Attributes["resolution"].(string)
	if !ok {
		return
	}
	parts := strings.SplitN(res, "x", 2)
	if len(parts) != 2 {
		return
	}
	if md.LatRes == 0 {
		md.LatRes = leadingFloat(parts[0])
	}
	if md.LonRes == 0 {
		md.LonRes = leadingFloat(parts[1])
	}
}

func leadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && (s[end] == '.' || s[end] == '-' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	v, _ := strconv.ParseFloat(s[:end], 64)
	return v
}

// DataVarNames lists the variables usable as cube data variables: gridded on
// latitude and longitude and, when more dimensions are present, on time.
func DataVarNames(infos map[string]VariableInfo) []string {
	var names []string
	for name, info := range infos {
		if !containsAny(info.Dimensions, "lat", "latitude") ||
			!containsAny(info.Dimensions, "lon", "longitude") {
			continue
		}
		if len(info.Dimensions) > 2 && !containsAny(info.Dimensions, "time") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func containsAny(list []string, values ...string) bool {
	for _, item := range list {
		for _, v := range values {
			if item == v {
				return true
			}
		}
	}
	return false
}

// GetTimeRangesFromData lists the granule time windows the catalog carries
// within [start, end]. Used for datasets whose frequency does not follow a
// calendar rule, such as satellite-orbit-frequency.
func (c *Catalogue) GetTimeRangesFromData(ctx context.Context, datasetID string, start, end time.Time) ([]model.TimeRange, error) {
	src, err := c.Source(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	query := url.Values{
		"parentIdentifier": {src.FID},
		"startDate":        {start.Format(TimestampFormat)},
		"endDate":          {end.Format(TimestampFormat)},
		"fileFormat":       {linkFormat},
		"drsId":            {datasetID},
	}
	features, err := c.FetchFeatures(ctx, query)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ranges []model.TimeRange
	for _, f := range features {
		info := ExtractGranuleInfo(f)
		if info.StartTime.IsZero() {
			continue
		}
		key := info.StartTime.Format(TimestampFormat) + "/" + info.EndTime.Format(TimestampFormat)
		if seen[key] {
			continue
		}
		seen[key] = true
		ranges = append(ranges, model.TimeRange{Start: info.StartTime, End: info.EndTime})
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Start.Before(ranges[j].Start) })
	return ranges, nil
}

// opendapURLFor finds the Opendap link of a granule whose time window lies
// within [start, end].
func (c *Catalogue) opendapURLFor(ctx context.Context, src *DataSource, start, end time.Time) (string, error) {
	query := url.Values{
		"parentIdentifier": {src.FID},
		"startDate":        {start.Format(TimestampFormat)},
		"endDate":          {end.Format(TimestampFormat)},
		"fileFormat":       {linkFormat},
		"drsId":            {src.ID},
	}
	features, err := c.FetchFeatures(ctx, query)
	if err != nil {
		return "", err
	}
	for _, f := range features {
		info := ExtractGranuleInfo(f)
		if info.StartTime.IsZero() {
			continue
		}
		if info.StartTime.Before(start) || info.EndTime.After(end) {
			continue
		}
		if u, ok := info.URLs["Opendap"]; ok {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: %s %s..%s", ErrNoGranule, src.ID,
		start.Format(TimestampFormat), end.Format(TimestampFormat))
}

// ChunkRequest addresses one chunk of one variable within one granule window.
type ChunkRequest struct {
	DatasetID  string
	VarName    string
	StartTime  time.Time
	EndTime    time.Time
	DimIndexes []IndexRange
}

// GetDataChunk fetches the raw bytes of one chunk. The returned payload is in
// the variable's native dtype, little-endian, C order. A missing granule
// yields ErrNoGranule so callers can fall back to fill values.
func (c *Catalogue) GetDataChunk(ctx context.Context, req ChunkRequest) ([]byte, error) {
	src, err := c.Source(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}
	opendapURL, err := c.opendapURLFor(ctx, src, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	ddsBody, err := c.http.Get(ctx, opendapURL+".dds", "")
	if err != nil {
		return nil, fmt.Errorf("fetch dds: %w", err)
	}
	dds, err := ParseDDS(string(ddsBody))
	if err != nil {
		return nil, err
	}
	v, ok := dds.Variables[req.VarName]
	if !ok {
		return nil, fmt.Errorf("variable %s not in granule %s", req.VarName, opendapURL)
	}
	if len(req.DimIndexes) != len(v.Dimensions) {
		return nil, fmt.Errorf("variable %s has %d dimensions, request has %d",
			req.VarName, len(v.Dimensions), len(req.DimIndexes))
	}
	expect := 1
	for i, r := range req.DimIndexes {
		if r.Start < 0 || r.Stop > v.Shape[i] || r.Len() <= 0 {
			return nil, fmt.Errorf("index range %d:%d out of bounds for dimension %s of size %d",
				r.Start, r.Stop, v.Dimensions[i], v.Shape[i])
		}
		expect *= r.Len()
	}

	dodsURL := opendapURL + ".dods?" + url.QueryEscape(Constraint(req.VarName, req.DimIndexes))
	start := time.Now()
	body, err := c.http.Get(ctx, dodsURL, "")
	if err != nil {
		observability.ObserveChunkFetch(err, 0, time.Since(start).Seconds())
		return nil, fmt.Errorf("fetch dods: %w", err)
	}
	data, err := DecodeDODS(body, v.DataType, expect)
	observability.ObserveChunkFetch(err, len(data), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return data, nil
}

// GetDimensionData reads whole coordinate arrays from a sample granule.
func (c *Catalogue) GetDimensionData(ctx context.Context, datasetID string, dimNames []string) (map[string][]float64, error) {
	src, err := c.Source(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	opendapURL, err := c.sampleOpendapURL(ctx, src)
	if err != nil {
		return nil, err
	}
	ddsBody, err := c.http.Get(ctx, opendapURL+".dds", "")
	if err != nil {
		return nil, fmt.Errorf("fetch dds: %w", err)
	}
	dds, err := ParseDDS(string(ddsBody))
	if err != nil {
		return nil, err
	}

	out := make(map[string][]float64, len(dimNames))
	for _, dim := range dimNames {
		v, ok := dds.Variables[dim]
		if !ok {
			out[dim] = nil
			continue
		}
		dodsURL := opendapURL + ".dods?" + url.QueryEscape(v.Name)
		body, err := c.http.Get(ctx, dodsURL, "")
		if err != nil {
			return nil, fmt.Errorf("fetch dimension %s: %w", dim, err)
		}
		values, err := DecodeFloat64s(body, v.DataType)
		if err != nil {
			return nil, fmt.Errorf("decode dimension %s: %w", dim, err)
		}
		out[dim] = values
	}
	return out, nil
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func asFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case []float64:
		if len(t) > 0 {
			return t[0], true
		}
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func asInts(v any) []int {
	switch t := v.(type) {
	case float64:
		return []int{int(t)}
	case []float64:
		out := make([]int, len(t))
		for i, f := range t {
			out[i] = int(f)
		}
		return out
	}
	return nil
}
