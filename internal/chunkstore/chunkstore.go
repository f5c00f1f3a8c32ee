// Package chunkstore exposes a remote dataset as a virtual zarr format 2
// store: group and array metadata plus inlined coordinate chunks are served
// from memory, data chunks are fetched lazily from the portal.
package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cci-tools/odpstore/internal/cache"
	"github.com/cci-tools/odpstore/internal/cache/keys"
	"github.com/cci-tools/odpstore/internal/core/model"
	"github.com/cci-tools/odpstore/internal/odp"
	"github.com/cci-tools/odpstore/internal/zarr"
)

// ErrKeyNotFound reports a key the virtual file system does not carry.
var ErrKeyNotFound = errors.New("key not found")

// ErrReadOnly reports a write or delete on the store.
var ErrReadOnly = errors.New("store is read-only")

// Source is the portal-facing side of the store.
type Source interface {
	GetDatasetMetadata(ctx context.Context, datasetID string) (*odp.DatasetMetadata, error)
	GetTimeRangesFromData(ctx context.Context, datasetID string, start, end time.Time) ([]model.TimeRange, error)
	GetDimensionData(ctx context.Context, datasetID string, dimNames []string) (map[string][]float64, error)
	GetDataChunk(ctx context.Context, req odp.ChunkRequest) ([]byte, error)
}

// Params narrows the cube the store exposes.
type Params struct {
	VariableNames []string
	TimeRange     model.TimeRange
	BBox          *model.BBox
}

// Observation describes one remote chunk fetch.
type Observation struct {
	VarName    string
	ChunkIndex []int
	TimeRange  model.TimeRange
	Duration   time.Duration
	Err        error
}

// Observer is called after every remote chunk fetch.
type Observer func(Observation)

type remoteRef struct {
	varName string
	index   []int
}

type vfsEntry struct {
	data   []byte
	remote *remoteRef
}

type varEntry struct {
	dims       []string
	fileDims   []string
	sizes      []int
	chunks     []int
	fileChunks []int
	dtype      zarr.Dtype
	fill       float64
	hasFill    bool
	timeIndex  int
}

// Store is the virtual zarr store for one dataset.
type Store struct {
	source    Source
	datasetID string
	frequency string
	md        *odp.DatasetMetadata

	timeRanges []model.TimeRange
	dimSizes   map[string]int
	dimOffsets map[string]int
	vars       map[string]varEntry
	varNames   []string
	vfs        map[string]vfsEntry

	chunkCache cache.ChunkCache
	log        zerolog.Logger

	mu        sync.Mutex
	observers []Observer
}

type Option func(*Store)

// WithChunkCache attaches a cache for fetched chunk payloads.
func WithChunkCache(c cache.ChunkCache) Option {
	return func(s *Store) { s.chunkCache = c }
}

// WithObserver registers a fetch observer at construction time.
func WithObserver(obs Observer) Option {
	return func(s *Store) { s.observers = append(s.observers, obs) }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// New builds the virtual file system for datasetID. All catalog metadata is
// read here; afterwards only chunk reads touch the network.
func New(ctx context.Context, source Source, datasetID string, params Params, opts ...Option) (*Store, error) {
	s := &Store{
		source:     source,
		datasetID:  datasetID,
		frequency:  FrequencyOf(datasetID),
		dimSizes:   make(map[string]int),
		dimOffsets: make(map[string]int),
		vars:       make(map[string]varEntry),
		vfs:        make(map[string]vfsEntry),
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	md, err := source.GetDatasetMetadata(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	s.md = md

	if err := s.resolveTimeRanges(ctx, params.TimeRange); err != nil {
		return nil, err
	}
	varNames, err := s.resolveVariables(params.VariableNames)
	if err != nil {
		return nil, err
	}
	if err := s.buildCoordinateArrays(ctx, varNames, params.BBox); err != nil {
		return nil, err
	}
	s.buildTimeArrays()
	for _, name := range varNames {
		if err := s.addDataVariable(name); err != nil {
			return nil, err
		}
	}
	s.varNames = varNames
	s.buildGroupMetadata()
	return s, nil
}

// AddObserver registers a fetch observer.
func (s *Store) AddObserver(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// DatasetID returns the dataset the store serves.
func (s *Store) DatasetID() string { return s.datasetID }

// VariableNames lists the exposed data variables.
func (s *Store) VariableNames() []string {
	return append([]string(nil), s.varNames...)
}

// TimeRanges returns the per-chunk time windows of the time axis.
func (s *Store) TimeRanges() []model.TimeRange {
	return append([]model.TimeRange(nil), s.timeRanges...)
}

func (s *Store) resolveTimeRanges(ctx context.Context, requested model.TimeRange) error {
	coverage := model.TimeRange{Start: s.md.TemporalStart, End: s.md.TemporalEnd}
	if coverage.IsZero() {
		broad, err := s.source.GetTimeRangesFromData(ctx, s.datasetID,
			time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(3000, 12, 31, 0, 0, 0, 0, time.UTC))
		if err != nil {
			return err
		}
		if len(broad) == 0 {
			return fmt.Errorf("could not determine temporal coverage of %s, a time range is required", s.datasetID)
		}
		coverage = model.TimeRange{Start: broad[0].Start, End: broad[len(broad)-1].End}
	}

	effective := requested
	if effective.IsZero() {
		effective = coverage
	} else {
		var err error
		effective, err = intersectCoverage(effective, coverage)
		if err != nil {
			return err
		}
	}

	ranges, ok := CalendarTimeRanges(s.frequency, effective.Start, effective.End)
	if !ok {
		var err error
		ranges, err = s.source.GetTimeRangesFromData(ctx, s.datasetID, effective.Start, effective.End)
		if err != nil {
			return err
		}
	}
	if len(ranges) == 0 {
		return fmt.Errorf("no time stamps for %s within %s..%s", s.datasetID,
			effective.Start.Format(odp.TimestampFormat), effective.End.Format(odp.TimestampFormat))
	}
	s.timeRanges = ranges
	return nil
}

func (s *Store) resolveVariables(requested []string) ([]string, error) {
	available := odp.DataVarNames(s.md.VariableInfos)
	if len(requested) == 0 {
		return available, nil
	}
	availSet := make(map[string]bool, len(available))
	for _, name := range available {
		availSet[name] = true
	}
	out := make([]string, 0, len(requested))
	for _, name := range requested {
		if !availSet[name] {
			return nil, fmt.Errorf("variable %q not available in %s", name, s.datasetID)
		}
		out = append(out, name)
	}
	return out, nil
}

// buildCoordinateArrays inlines the non-time coordinate arrays, restricted to
// the bounding box when one is given.
func (s *Store) buildCoordinateArrays(ctx context.Context, varNames []string, bbox *model.BBox) error {
	dimNames := s.spatialDims(varNames)
	dimData, err := s.source.GetDimensionData(ctx, s.datasetID, dimNames)
	if err != nil {
		return err
	}
	for _, dim := range dimNames {
		data := dimData[dim]
		if len(data) == 0 {
			size, ok := s.md.Dimensions[dim]
			if !ok {
				return fmt.Errorf("could not determine size of dimension %s", dim)
			}
			s.dimSizes[dim] = size
			continue
		}
		if bbox != nil {
			var lo, hi float64
			switch dim {
			case "lon", "longitude":
				lo, hi = bbox.MinLon, bbox.MaxLon
			case "lat", "latitude":
				lo, hi = bbox.MinLat, bbox.MaxLat
			default:
				lo, hi = 0, 0
			}
			if lo != hi {
				minOff, maxOff := offsetRange(data, lo, hi)
				s.dimOffsets[dim] = minOff
				data = data[minOff:maxOff]
			}
		}
		if len(data) == 0 {
			return fmt.Errorf("bounding box selects no %s values", dim)
		}
		s.dimSizes[dim] = len(data)

		dt, _ := zarr.ParseDtype("<f8")
		raw, err := zarr.EncodeFloat64s(dt, data)
		if err != nil {
			return err
		}
		attrs := s.coordinateAttrs(dim)
		s.addStaticArray(dim, raw, []int{len(data)}, "<f8", attrs)
	}
	return nil
}

// spatialDims collects the non-time dimensions the chosen variables use,
// bounds dimensions excluded.
func (s *Store) spatialDims(varNames []string) []string {
	seen := make(map[string]bool)
	var dims []string
	for _, name := range varNames {
		info, ok := s.md.VariableInfos[name]
		if !ok {
			continue
		}
		for _, dim := range info.Dimensions {
			if dim == "time" || strings.HasSuffix(dim, "bnds") || seen[dim] {
				continue
			}
			seen[dim] = true
			dims = append(dims, dim)
		}
	}
	sort.Strings(dims)
	return dims
}

func (s *Store) coordinateAttrs(dim string) zarr.Attributes {
	attrs := zarr.Attributes{"_ARRAY_DIMENSIONS": []string{dim}}
	if info, ok := s.md.VariableInfos[dim]; ok {
		if info.Units != "" {
			attrs["units"] = info.Units
		}
		if info.LongName != "" {
			attrs["long_name"] = info.LongName
		}
		if info.StandardName != "" {
			attrs["standard_name"] = info.StandardName
		}
	}
	return attrs
}

// buildTimeArrays inlines the time axis: midpoints of the granule windows as
// epoch seconds, plus the window bounds.
func (s *Store) buildTimeArrays() {
	n := len(s.timeRanges)
	s.dimSizes["time"] = n

	dt, _ := zarr.ParseDtype("<i8")
	mids := make([]float64, n)
	bnds := make([]float64, 0, 2*n)
	for i, tr := range s.timeRanges {
		mid := tr.Start.Add(tr.End.Sub(tr.Start) / 2)
		mids[i] = float64(mid.Unix())
		bnds = append(bnds, float64(tr.Start.Unix()), float64(tr.End.Unix()))
	}
	midBytes, _ := zarr.EncodeFloat64s(dt, mids)
	bndBytes, _ := zarr.EncodeFloat64s(dt, bnds)

	timeAttrs := zarr.Attributes{
		"_ARRAY_DIMENSIONS": []string{"time"},
		"units":             "seconds since 1970-01-01T00:00:00Z",
		"calendar":          "proleptic_gregorian",
		"standard_name":     "time",
		"bounds":            "time_bnds",
	}
	bndsAttrs := zarr.Attributes{
		"_ARRAY_DIMENSIONS": []string{"time", "bnds"},
		"units":             "seconds since 1970-01-01T00:00:00Z",
		"calendar":          "proleptic_gregorian",
		"standard_name":     "time",
	}
	s.addStaticArray("time", midBytes, []int{n}, "<i8", timeAttrs)
	s.addStaticArray("time_bnds", bndBytes, []int{n, 2}, "<i8", bndsAttrs)
}

func (s *Store) addStaticArray(name string, raw []byte, shape []int, dtype string, attrs zarr.Attributes) {
	meta := zarr.NewArrayMeta(shape, shape, dtype, nil)
	s.vfs[name] = vfsEntry{data: []byte{}}
	s.vfs[name+"/"+zarr.MetaKeyArray] = vfsEntry{data: zarr.EncodeJSON(meta)}
	s.vfs[name+"/"+zarr.MetaKeyAttributes] = vfsEntry{data: zarr.EncodeJSON(attrs)}
	chunkKey := zarr.ChunkKey(make([]int, len(shape)))
	s.vfs[name+"/"+chunkKey] = vfsEntry{data: raw}
}

// addDataVariable registers a lazily fetched array: metadata now, chunks on
// demand.
func (s *Store) addDataVariable(name string) error {
	info, ok := s.md.VariableInfos[name]
	if !ok {
		return fmt.Errorf("no metadata for variable %s", name)
	}

	fileDims := append([]string(nil), info.Dimensions...)
	fileChunks := append([]int(nil), info.ChunkSizes...)
	if len(fileChunks) != len(fileDims) {
		fileChunks = make([]int, len(fileDims))
		for i, dim := range fileDims {
			fileChunks[i] = s.sizeOf(dim, info, i)
		}
	}

	dims := append([]string(nil), fileDims...)
	chunks := append([]int(nil), fileChunks...)
	if !containsString(dims, "time") {
		dims = append([]string{"time"}, dims...)
		chunks = append([]int{1}, chunks...)
	}

	sizes := make([]int, len(dims))
	timeIndex := -1
	for i, dim := range dims {
		if dim == "time" {
			sizes[i] = len(s.timeRanges)
			timeIndex = i
			chunks[i] = 1
			continue
		}
		size, ok := s.dimSizes[dim]
		if !ok {
			size, ok = s.md.Dimensions[dim]
			if !ok {
				return fmt.Errorf("could not determine size of dimension %s", dim)
			}
			s.dimSizes[dim] = size
		}
		sizes[i] = size
		if chunks[i] <= 0 || chunks[i] > size {
			chunks[i] = size
		}
	}
	chunks = AdjustChunkSizes(chunks, sizes, timeIndex)

	// the file-level chunking drives remote index ranges; clamp it to the
	// possibly bbox-reduced sizes
	offset := len(dims) - len(fileDims)
	for i := range fileDims {
		fileChunks[i] = chunks[i+offset]
	}

	dtypeStr := zarr.DtypeForSampleType(info.DataType)
	dt, err := zarr.ParseDtype(dtypeStr)
	if err != nil {
		return err
	}

	entry := varEntry{
		dims:       dims,
		fileDims:   fileDims,
		sizes:      sizes,
		chunks:     chunks,
		fileChunks: fileChunks,
		dtype:      dt,
		fill:       info.FillValue,
		hasFill:    info.HasFillValue,
		timeIndex:  timeIndex,
	}
	s.vars[name] = entry

	var fill any
	if info.HasFillValue {
		fill = info.FillValue
	}
	meta := zarr.NewArrayMeta(sizes, chunks, dtypeStr, fill)

	attrs := zarr.Attributes{"_ARRAY_DIMENSIONS": dims}
	for k, v := range info.Attrs {
		attrs[k] = v
	}
	attrs["chunk_sizes"] = chunks
	attrs["file_chunk_sizes"] = fileChunks
	attrs["file_dimensions"] = fileDims

	s.vfs[name] = vfsEntry{data: []byte{}}
	s.vfs[name+"/"+zarr.MetaKeyArray] = vfsEntry{data: zarr.EncodeJSON(meta)}
	s.vfs[name+"/"+zarr.MetaKeyAttributes] = vfsEntry{data: zarr.EncodeJSON(attrs)}
	for _, index := range zarr.ChunkIndexes(sizes, chunks) {
		key := name + "/" + zarr.ChunkKey(index)
		s.vfs[key] = vfsEntry{remote: &remoteRef{varName: name, index: index}}
	}
	return nil
}

func (s *Store) sizeOf(dim string, info odp.VariableInfo, i int) int {
	if size, ok := s.dimSizes[dim]; ok {
		return size
	}
	if size, ok := s.md.Dimensions[dim]; ok {
		return size
	}
	if i < len(info.Shape) {
		return info.Shape[i]
	}
	return 1
}

func (s *Store) buildGroupMetadata() {
	parts := strings.Split(s.datasetID, ".")
	level := ""
	if len(parts) > 3 {
		level = parts[3]
	}
	start := s.timeRanges[0].Start
	end := s.timeRanges[len(s.timeRanges)-1].End
	global := zarr.Attributes{
		"Conventions":         "CF-1.7",
		"coordinates":         "time_bnds",
		"title":               s.datasetID + " Data Cube",
		"processing_level":    level,
		"time_coverage_start": start.Format(odp.TimestampFormat),
		"time_coverage_end":   end.Format(odp.TimestampFormat),
	}
	s.vfs[zarr.MetaKeyGroup] = vfsEntry{data: zarr.EncodeJSON(zarr.Group{ZarrFormat: zarr.Format})}
	s.vfs[zarr.MetaKeyAttributes] = vfsEntry{data: zarr.EncodeJSON(global)}
}

// Keys lists every key of the virtual file system, sorted.
func (s *Store) Keys() []string {
	out := make([]string, 0, len(s.vfs))
	for k := range s.vfs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ListDir lists the direct children of a key prefix, "" being the root.
func (s *Store) ListDir(key string) []string {
	var out []string
	if key == "" {
		for k := range s.vfs {
			if !strings.Contains(k, "/") {
				out = append(out, k)
			}
		}
	} else {
		prefix := key + "/"
		for k := range s.vfs {
			if strings.HasPrefix(k, prefix) && !strings.Contains(k[len(prefix):], "/") {
				out = append(out, k[len(prefix):])
			}
		}
	}
	sort.Strings(out)
	return out
}

// Has reports whether the store carries a key.
func (s *Store) Has(key string) bool {
	_, ok := s.vfs[key]
	return ok
}

// Get returns the payload of a key, fetching remote chunks on demand.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	entry, ok := s.vfs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if entry.remote == nil {
		return entry.data, nil
	}
	return s.fetchChunk(ctx, key, entry.remote)
}

// Set always fails, the store is read-only.
func (s *Store) Set(string, []byte) error { return ErrReadOnly }

// Delete always fails, the store is read-only.
func (s *Store) Delete(string) error { return ErrReadOnly }

func (s *Store) fetchChunk(ctx context.Context, key string, ref *remoteRef) ([]byte, error) {
	v := s.vars[ref.varName]
	timeRange := s.timeRanges[ref.index[v.timeIndex]]

	cacheKey := ""
	if s.chunkCache != nil {
		cacheKey = keys.ChunkKey(s.datasetID, ref.varName, zarr.ChunkKey(ref.index))
		if data, ok, err := s.chunkCache.Get(ctx, cacheKey); err == nil && ok {
			return data, nil
		}
	}

	start := time.Now()
	data, err := s.readRemoteChunk(ctx, ref, v, timeRange)
	duration := time.Since(start)
	s.notify(Observation{
		VarName:    ref.varName,
		ChunkIndex: ref.index,
		TimeRange:  timeRange,
		Duration:   duration,
		Err:        err,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	if s.chunkCache != nil {
		if err := s.chunkCache.Set(ctx, cacheKey, data); err != nil {
			s.log.Warn().Str("key", key).Err(err).Msg("chunk cache write failed")
		}
	}
	return data, nil
}

// readRemoteChunk fetches one chunk's bytes, synthesizing a fill-value chunk
// when the catalog has no granule for the window.
func (s *Store) readRemoteChunk(ctx context.Context, ref *remoteRef, v varEntry, timeRange model.TimeRange) ([]byte, error) {
	dimIndexes, fetchShape, err := s.dimensionIndexes(ref, v)
	if err != nil {
		return nil, err
	}
	data, err := s.source.GetDataChunk(ctx, odp.ChunkRequest{
		DatasetID:  s.datasetID,
		VarName:    ref.varName,
		StartTime:  timeRange.Start,
		EndTime:    timeRange.End.Add(-time.Second),
		DimIndexes: dimIndexes,
	})
	if errors.Is(err, odp.ErrNoGranule) {
		s.log.Debug().Str("variable", ref.varName).Ints("index", ref.index).
			Msg("no granule, synthesizing fill chunk")
		return s.fillChunk(v)
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return s.fillChunk(v)
	}
	return padChunk(data, fetchShape, s.fileChunkShape(v), v.dtype.ByteSize, s.fillBytes(v))
}

// dimensionIndexes maps a chunk index to remote index ranges on the granule's
// file dimensions. The granule time axis is always read whole.
func (s *Store) dimensionIndexes(ref *remoteRef, v varEntry) ([]odp.IndexRange, []int, error) {
	offset := len(v.dims) - len(v.fileDims)
	ranges := make([]odp.IndexRange, len(v.fileDims))
	shape := make([]int, len(v.fileDims))
	for i, dim := range v.fileDims {
		if dim == "time" {
			size := s.md.Dimensions["time"]
			if size <= 0 {
				size = 1
			}
			ranges[i] = odp.IndexRange{Start: 0, Stop: size}
			shape[i] = size
			continue
		}
		dimSize, ok := s.dimSizes[dim]
		if !ok {
			return nil, nil, fmt.Errorf("could not determine size of dimension %s", dim)
		}
		dataOffset := s.dimOffsets[dim]
		start := dataOffset + ref.index[i+offset]*v.fileChunks[i]
		stop := start + v.fileChunks[i]
		if limit := dataOffset + dimSize; stop > limit {
			stop = limit
		}
		if start >= stop {
			return nil, nil, fmt.Errorf("chunk index %v out of range for dimension %s", ref.index, dim)
		}
		ranges[i] = odp.IndexRange{Start: start, Stop: stop}
		shape[i] = stop - start
	}
	return ranges, shape, nil
}

func (s *Store) fileChunkShape(v varEntry) []int {
	shape := make([]int, len(v.fileDims))
	for i, dim := range v.fileDims {
		if dim == "time" {
			size := s.md.Dimensions["time"]
			if size <= 0 {
				size = 1
			}
			shape[i] = size
			continue
		}
		shape[i] = v.fileChunks[i]
	}
	return shape
}

func (s *Store) fillChunk(v varEntry) ([]byte, error) {
	fill := 0.0
	if v.hasFill {
		fill = v.fill
	}
	return zarr.EncodeFill(v.dtype, fill, prod(v.chunks))
}

func (s *Store) fillBytes(v varEntry) []byte {
	fill := 0.0
	if v.hasFill {
		fill = v.fill
	}
	b, err := zarr.EncodeFill(v.dtype, fill, 1)
	if err != nil {
		return make([]byte, v.dtype.ByteSize)
	}
	return b
}

func (s *Store) notify(obs Observation) {
	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, o := range observers {
		o(obs)
	}
}

// offsetRange returns the [min, max) offsets of the coordinate values lying
// within [lo, hi], for ascending and descending axes alike.
func offsetRange(data []float64, lo, hi float64) (int, int) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	if n == 1 || data[0] <= data[n-1] {
		minOff := sort.SearchFloat64s(data, lo)
		maxOff := sort.Search(n, func(i int) bool { return data[i] > hi })
		return minOff, maxOff
	}
	// descending axis
	minOff := sort.Search(n, func(i int) bool { return data[i] <= hi })
	maxOff := sort.Search(n, func(i int) bool { return data[i] < lo })
	return minOff, maxOff
}

// padChunk expands fetched data of shape fetched to the full chunk shape,
// filling the trailing region of every dimension with the fill element. Both
// layouts are C order.
func padChunk(data []byte, fetched, chunk []int, elemSize int, fill []byte) ([]byte, error) {
	if len(fetched) != len(chunk) {
		return nil, fmt.Errorf("shape rank mismatch: %v vs %v", fetched, chunk)
	}
	if prod(fetched)*elemSize != len(data) {
		return nil, fmt.Errorf("payload is %d bytes, shape %v of %d-byte elements needs %d",
			len(data), fetched, elemSize, prod(fetched)*elemSize)
	}
	same := true
	for i := range fetched {
		if fetched[i] > chunk[i] {
			return nil, fmt.Errorf("fetched shape %v exceeds chunk shape %v", fetched, chunk)
		}
		if fetched[i] != chunk[i] {
			same = false
		}
	}
	if same {
		return data, nil
	}

	out := make([]byte, prod(chunk)*elemSize)
	for i := 0; i < len(out); i += elemSize {
		copy(out[i:i+elemSize], fill)
	}
	copyRegion(data, out, fetched, chunk, elemSize, 0)
	return out, nil
}

func copyRegion(src, dst []byte, fetched, chunk []int, elemSize, dim int) {
	if dim == len(fetched)-1 {
		copy(dst[:fetched[dim]*elemSize], src[:fetched[dim]*elemSize])
		return
	}
	srcStride := prod(fetched[dim+1:]) * elemSize
	dstStride := prod(chunk[dim+1:]) * elemSize
	for i := 0; i < fetched[dim]; i++ {
		copyRegion(src[i*srcStride:(i+1)*srcStride], dst[i*dstStride:], fetched, chunk, elemSize, dim+1)
	}
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
