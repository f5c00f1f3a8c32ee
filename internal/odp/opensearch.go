package odp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cci-tools/odpstore/internal/core/observability"
)

const (
	pageSize   = 1000
	acceptGeo  = "application/geo+json"
	linkFormat = ".nc"
)

// Link is one entry of a feature's links section.
type Link struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// FeatureVariable is a variable summary the catalog attaches to a feature.
type FeatureVariable struct {
	VarID    string `json:"var_id"`
	Units    string `json:"units"`
	LongName string `json:"long_name"`
}

// Feature is one opensearch result in geo+json form.
type Feature struct {
	ID         string `json:"id"`
	Properties struct {
		Title      string            `json:"title"`
		Identifier string            `json:"identifier"`
		Date       string            `json:"date"`
		FileSize   int64             `json:"filesize"`
		Variables  []FeatureVariable `json:"variables"`
		Links      struct {
			Search      []Link `json:"search"`
			DescribedBy []Link `json:"describedby"`
			Related     []Link `json:"related"`
		} `json:"links"`
	} `json:"properties"`
}

type featureCollection struct {
	Features []Feature `json:"features"`
}

// FetchFeatures pages through the opensearch endpoint until a short page
// signals the end of the result set.
func (c *Catalogue) FetchFeatures(ctx context.Context, query url.Values) ([]Feature, error) {
	var all []Feature
	for page := 1; ; page++ {
		features, err := c.fetchFeaturePage(ctx, query, page, pageSize, false)
		if err != nil {
			return nil, err
		}
		all = append(all, features...)
		if len(features) < pageSize {
			return all, nil
		}
	}
}

// FetchFeatureAt fetches the single feature at the given one-based position,
// restricted to netCDF granules.
func (c *Catalogue) FetchFeatureAt(ctx context.Context, query url.Values, index int) (*Feature, error) {
	features, err := c.fetchFeaturePage(ctx, query, index, 1, true)
	if err != nil {
		return nil, err
	}
	if len(features) == 0 {
		return nil, nil
	}
	return &features[0], nil
}

func (c *Catalogue) fetchFeaturePage(ctx context.Context, query url.Values, page, records int, ncOnly bool) ([]Feature, error) {
	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	q.Set("startPage", strconv.Itoa(page))
	q.Set("maximumRecords", strconv.Itoa(records))
	q.Set("httpAccept", acceptGeo)
	if ncOnly {
		q.Set("fileFormat", linkFormat)
	}

	reqURL := c.endpointURL + "?" + q.Encode()
	start := time.Now()
	body, err := c.http.Get(ctx, reqURL, acceptGeo)
	observability.ObserveCatalogRequest("features", statusOf(err), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("opensearch page %d: %w", page, err)
	}
	var fc featureCollection
	if err := json.Unmarshal(body, &fc); err != nil {
		return nil, fmt.Errorf("opensearch page %d: decode: %w", page, err)
	}
	return fc.Features, nil
}

// GranuleInfo is the per-file view of a feature: name, time window and the
// access URLs keyed by link title ("Opendap", "Download").
type GranuleInfo struct {
	Filename  string
	StartTime time.Time
	EndTime   time.Time
	FileSize  int64
	URLs      map[string]string
}

// ExtractGranuleInfo derives the granule's time window from its date property
// when present, falling back to a timestamp embedded in the filename.
func ExtractGranuleInfo(f Feature) GranuleInfo {
	info := GranuleInfo{
		Filename: f.Properties.Title,
		FileSize: f.Properties.FileSize,
		URLs:     make(map[string]string),
	}
	for _, l := range f.Properties.Links.Related {
		info.URLs[l.Title] = l.Href
	}
	if start, end, ok := splitDateRange(f.Properties.Date); ok {
		info.StartTime, info.EndTime = start, end
		return info
	}
	if t, ok := FindTimestamp(f.Properties.Title); ok {
		info.StartTime, info.EndTime = t, t
	}
	return info
}

func splitDateRange(date string) (time.Time, time.Time, bool) {
	for i := 0; i < len(date); i++ {
		if date[i] != '/' {
			continue
		}
		start, err1 := time.Parse(TimestampFormat, date[:i])
		end, err2 := time.Parse(TimestampFormat, date[i+1:])
		if err1 == nil && err2 == nil {
			return start, end, true
		}
		return time.Time{}, time.Time{}, false
	}
	return time.Time{}, time.Time{}, false
}
