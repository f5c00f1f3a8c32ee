package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cci-tools/odpstore/internal/core/httpclient"
	"github.com/cci-tools/odpstore/internal/core/model"
	"github.com/cci-tools/odpstore/internal/odp"
)

const portalDatasetID = "esacci.SST.day.L4.SSTdepth.multi-sensor.multi-platform.OSTIA.2-1.r1"

const portalODD = `<?xml version="1.0" encoding="UTF-8"?>
<OpenSearchDescription xmlns="http://a9.com/-/spec/opensearch/1.1/"
    xmlns:param="http://a9.com/-/spec/opensearch/extensions/parameters/1.0/">
  <Url type="application/geo+json" template="http://example.com/request">
    <param:Parameter name="ecv"><param:Option value="SST"/></param:Parameter>
    <param:Parameter name="frequency"><param:Option value="day"/></param:Parameter>
    <param:Parameter name="processingLevel"><param:Option value="L4"/></param:Parameter>
    <param:Parameter name="dataType"><param:Option value="SSTdepth"/></param:Parameter>
    <param:Parameter name="sensor"><param:Option value="multi-sensor"/></param:Parameter>
    <param:Parameter name="platform"><param:Option value="multi-platform"/></param:Parameter>
    <param:Parameter name="productString"><param:Option value="OSTIA"/></param:Parameter>
    <param:Parameter name="productVersion"><param:Option value="2.1"/></param:Parameter>
    <param:Parameter name="drsId"><param:Option value="esacci.SST.day.L4.r1"/></param:Parameter>
  </Url>
</OpenSearchDescription>`

const portalDesc = `<?xml version="1.0" encoding="UTF-8"?>
<gmd:MD_Metadata xmlns:gmd="http://www.isotc211.org/2005/gmd"
    xmlns:gco="http://www.isotc211.org/2005/gco"
    xmlns:gml="http://www.opengis.net/gml/3.2">
  <gmd:identificationInfo>
    <gmd:MD_DataIdentification>
      <gmd:citation>
        <gmd:CI_Citation>
          <gmd:title><gco:CharacterString>ESA Sea Surface Temperature Climate Change Initiative (SST_cci): Level 4, version 2.1</gco:CharacterString></gmd:title>
        </gmd:CI_Citation>
      </gmd:citation>
      <gmd:abstract><gco:CharacterString>Daily analyses of sea surface temperature.</gco:CharacterString></gmd:abstract>
      <gmd:extent>
        <gmd:EX_Extent>
          <gmd:geographicElement>
            <gmd:EX_GeographicBoundingBox>
              <gmd:westBoundLongitude><gco:Decimal>-180.0</gco:Decimal></gmd:westBoundLongitude>
              <gmd:eastBoundLongitude><gco:Decimal>180.0</gco:Decimal></gmd:eastBoundLongitude>
              <gmd:southBoundLatitude><gco:Decimal>-90.0</gco:Decimal></gmd:southBoundLatitude>
              <gmd:northBoundLatitude><gco:Decimal>90.0</gco:Decimal></gmd:northBoundLatitude>
            </gmd:EX_GeographicBoundingBox>
          </gmd:geographicElement>
          <gmd:temporalElement>
            <gmd:EX_TemporalExtent>
              <gmd:extent>
                <gml:TimePeriod gml:id="tp1">
                  <gml:beginPosition>2010-04-01T00:00:00</gml:beginPosition>
                  <gml:endPosition>2010-04-02T23:59:59</gml:endPosition>
                </gml:TimePeriod>
              </gmd:extent>
            </gmd:EX_TemporalExtent>
          </gmd:temporalElement>
        </gmd:EX_Extent>
      </gmd:extent>
    </gmd:MD_DataIdentification>
  </gmd:identificationInfo>
</gmd:MD_Metadata>`

const portalDDS = `Dataset {
    Float32 analysed_sst[time = 1][lat = 2][lon = 2];
    Float64 time[time = 1];
    Float32 lat[lat = 2];
    Float32 lon[lon = 2];
    Float64 time_bnds[time = 1][nv = 2];
} granule.nc;`

const portalDAS = `Attributes {
    analysed_sst {
        String units "kelvin";
        Float32 _FillValue -32768.0;
        Int32 _ChunkSizes 1, 2, 2;
    }
    NC_GLOBAL {
        String institute "UK Met Office";
        String geospatial_lat_resolution "1.0";
        String geospatial_lon_resolution "1.0";
    }
}`

func dodsFloat32(values []float32) []byte {
	var buf bytes.Buffer
	buf.WriteString("Dataset {\n} granule.nc;\nData:\n")
	count := make([]byte, 4)
	binary.BigEndian.PutUint32(count, uint32(len(values)))
	buf.Write(count)
	buf.Write(count)
	for _, v := range values {
		w := make([]byte, 4)
		binary.BigEndian.PutUint32(w, math.Float32bits(v))
		buf.Write(w)
	}
	return buf.Bytes()
}

func portalFeature(id, identifier, title, date string, links map[string][]odp.Link) odp.Feature {
	var f odp.Feature
	f.ID = id
	f.Properties.Identifier = identifier
	f.Properties.Title = title
	f.Properties.Date = date
	f.Properties.Links.Search = links["search"]
	f.Properties.Links.DescribedBy = links["describedby"]
	f.Properties.Links.Related = links["related"]
	return f
}

func newPortalStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/opensearch/request", func(w http.ResponseWriter, r *http.Request) {
		enc := json.NewEncoder(w)
		switch r.URL.Query().Get("parentIdentifier") {
		case "cci":
			_ = enc.Encode(map[string]any{"features": []odp.Feature{portalFeature(
				"http://example.com/search?uuid=uuid-1",
				"fid1",
				"ESA Sea Surface Temperature Climate Change Initiative (SST_cci): Level 4, version 2.1",
				"",
				map[string][]odp.Link{
					"search":      {{Title: "Description", Href: srv.URL + "/odd.xml"}},
					"describedby": {{Title: "ISO19115", Href: srv.URL + "/desc.xml"}},
				},
			)}})
		case "fid1":
			_ = enc.Encode(map[string]any{"features": []odp.Feature{
				portalFeature("granule-1", "", "ESACCI-SST-20100401000000-fv02.nc",
					"2010-04-01T00:00:00/2010-04-01T23:59:59",
					map[string][]odp.Link{"related": {
						{Title: "Opendap", Href: srv.URL + "/dap/granule1.nc"},
					}}),
				portalFeature("granule-2", "", "ESACCI-SST-20100402000000-fv02.nc",
					"2010-04-02T00:00:00/2010-04-02T23:59:59",
					map[string][]odp.Link{"related": {
						{Title: "Opendap", Href: srv.URL + "/dap/granule2.nc"},
					}}),
			}})
		default:
			_ = enc.Encode(map[string]any{"features": []odp.Feature{}})
		}
	})
	for _, granule := range []string{"granule1", "granule2"} {
		mux.HandleFunc("/dap/"+granule+".nc.dds", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, portalDDS)
		})
		mux.HandleFunc("/dap/"+granule+".nc.das", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, portalDAS)
		})
		mux.HandleFunc("/dap/"+granule+".nc.dods", func(w http.ResponseWriter, r *http.Request) {
			switch {
			case strings.HasPrefix(r.URL.RawQuery, "lat"):
				_, _ = w.Write(dodsFloat32([]float32{-0.5, 0.5}))
			case strings.HasPrefix(r.URL.RawQuery, "lon"):
				_, _ = w.Write(dodsFloat32([]float32{-0.5, 0.5}))
			default:
				_, _ = w.Write(dodsFloat32([]float32{280, 281, 282, 283}))
			}
		})
	}
	mux.HandleFunc("/odd.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, portalODD)
	})
	mux.HandleFunc("/desc.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, portalDesc)
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	hc := httpclient.New(srv.Client(), httpclient.RetryPolicy{NumRetries: 1}, zerolog.Nop())
	cat := odp.NewCatalogue(hc, srv.URL+"/opensearch/request", zerolog.Nop())
	return New(cat, opts...)
}

func TestListDataIDs(t *testing.T) {
	s := newPortalStore(t)
	ids, err := s.ListDataIDs(context.Background())
	if err != nil {
		t.Fatalf("ListDataIDs: %v", err)
	}
	if len(ids) != 1 || ids[0].ID != portalDatasetID {
		t.Fatalf("ids = %v", ids)
	}
	if ids[0].Title != "SST_cci: L4 v2.1" {
		t.Fatalf("title = %q", ids[0].Title)
	}
}

func TestHasData(t *testing.T) {
	s := newPortalStore(t)
	ctx := context.Background()
	for _, spec := range []model.TypeSpecifier{"", model.TypeDataset, model.TypeCube} {
		ok, err := s.HasData(ctx, portalDatasetID, spec)
		if err != nil || !ok {
			t.Fatalf("HasData(%q) = %v, %v", spec, ok, err)
		}
	}
	ok, err := s.HasData(ctx, "esacci.Unknown.day.L4.a.b.c.d.e.f", "")
	if err != nil || ok {
		t.Fatalf("HasData unknown = %v, %v", ok, err)
	}
}

func TestDescribeDataCube(t *testing.T) {
	s := newPortalStore(t)
	d, err := s.DescribeData(context.Background(), portalDatasetID, model.TypeCube)
	if err != nil {
		t.Fatalf("DescribeData: %v", err)
	}
	if d.TypeSpecifier != model.TypeCube || d.CRS != model.DefaultCRS {
		t.Fatalf("descriptor header = %+v", d)
	}
	// two daily granule windows over the coverage
	if d.Dims["time"] != 2 || d.Dims["lat"] != 2 || d.Dims["lon"] != 2 {
		t.Fatalf("dims = %v", d.Dims)
	}
	sst, ok := d.DataVars["analysed_sst"]
	if !ok {
		t.Fatalf("data vars = %v", d.DataVars)
	}
	if len(sst.Dims) != 3 || sst.Dims[0] != "time" || sst.Dims[2] != "lon" {
		t.Fatalf("variable dims = %v", sst.Dims)
	}
	for name := range d.DataVars {
		if name == "lat" || name == "lon" || name == "time" || name == "time_bnds" {
			t.Fatalf("coordinate %s listed as data variable", name)
		}
	}
	if d.BBox == nil || d.BBox.MinLon != -180 {
		t.Fatalf("bbox = %v", d.BBox)
	}
	if d.TimeRange == nil || d.TimeRange.Start.Year() != 2010 {
		t.Fatalf("time range = %v", d.TimeRange)
	}
	if d.TimePeriod != "1D" {
		t.Fatalf("time period = %q", d.TimePeriod)
	}
	if d.SpatialRes != 1.0 {
		t.Fatalf("spatial res = %v", d.SpatialRes)
	}
	if d.Attrs["ecv"] != "SST" || d.Attrs["institute"] != "UK Met Office" {
		t.Fatalf("attrs = %v", d.Attrs)
	}
}

func TestDescribeDataDataset(t *testing.T) {
	s := newPortalStore(t)
	d, err := s.DescribeData(context.Background(), portalDatasetID, model.TypeDataset)
	if err != nil {
		t.Fatalf("DescribeData: %v", err)
	}
	if d.TypeSpecifier != model.TypeDataset {
		t.Fatalf("type = %q", d.TypeSpecifier)
	}
	if _, ok := d.Coords["time_bnds"]; !ok {
		t.Fatalf("time_bnds not a coordinate: %v", d.Coords)
	}
	if _, ok := d.DataVars["time_bnds"]; ok {
		t.Fatal("time_bnds listed as data variable")
	}
}

func TestSearchData(t *testing.T) {
	s := newPortalStore(t)
	ctx := context.Background()

	hits, err := s.SearchData(ctx, SearchParams{ECV: "SST", Frequency: "day"}, model.TypeCube)
	if err != nil {
		t.Fatalf("SearchData: %v", err)
	}
	if len(hits) != 1 || hits[0].DataID != portalDatasetID {
		t.Fatalf("hits = %v", hits)
	}

	hits, err = s.SearchData(ctx, SearchParams{ECV: "OC"}, model.TypeCube)
	if err != nil || len(hits) != 0 {
		t.Fatalf("hits = %v, %v", hits, err)
	}

	// search window after the temporal coverage
	hits, err = s.SearchData(ctx, SearchParams{StartDate: "2011-01-01"}, model.TypeCube)
	if err != nil || len(hits) != 0 {
		t.Fatalf("hits = %v, %v", hits, err)
	}

	hits, err = s.SearchData(ctx, SearchParams{Institute: "UK Met Office"}, model.TypeCube)
	if err != nil || len(hits) != 1 {
		t.Fatalf("hits = %v, %v", hits, err)
	}
}

func TestOpenCube(t *testing.T) {
	s := newPortalStore(t)
	ctx := context.Background()
	cs, err := s.OpenCube(ctx, portalDatasetID, model.OpenParams{
		VariableNames: []string{"analysed_sst"},
	})
	if err != nil {
		t.Fatalf("OpenCube: %v", err)
	}
	if !cs.Has("analysed_sst/.zarray") {
		t.Fatal("cube is missing the variable array")
	}
	data, err := cs.Get(ctx, "analysed_sst/0.0.0")
	if err != nil {
		t.Fatalf("Get chunk: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("chunk = %d bytes, want 16", len(data))
	}
	first := math.Float32frombits(binary.LittleEndian.Uint32(data[:4]))
	if first != 280 {
		t.Fatalf("first element = %v, want 280", first)
	}
}

func TestOpenDatasetRejectsBBox(t *testing.T) {
	s := newPortalStore(t)
	_, err := s.OpenDataset(context.Background(), portalDatasetID, model.OpenParams{
		BBox: &model.BBox{MinLon: -1, MinLat: -1, MaxLon: 1, MaxLat: 1},
	})
	if err == nil || !strings.Contains(err.Error(), "cube opener") {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenCubeWithBBox(t *testing.T) {
	s := newPortalStore(t)
	cs, err := s.OpenCube(context.Background(), portalDatasetID, model.OpenParams{
		VariableNames: []string{"analysed_sst"},
		BBox:          &model.BBox{MinLon: -1, MinLat: -1, MaxLon: 1, MaxLat: 1},
	})
	if err != nil {
		t.Fatalf("OpenCube: %v", err)
	}
	if !cs.Has("lat/0") {
		t.Fatal("latitude coordinate missing")
	}
}

func TestOpenUnknownDataset(t *testing.T) {
	s := newPortalStore(t)
	_, err := s.OpenCube(context.Background(), "esacci.Unknown.day.L4.a.b.c.d.e.f", model.OpenParams{})
	if err == nil || !strings.Contains(err.Error(), "unknown dataset id") {
		t.Fatalf("err = %v", err)
	}
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("err type = %T", err)
	}
}

func TestShortenDatasetName(t *testing.T) {
	cases := []struct{ in, want string }{
		{
			"ESA Sea Surface Temperature Climate Change Initiative (SST_cci): Level 4, version 2.1",
			"SST_cci: L4 v2.1",
		},
		{
			"ESA Ocean Colour Climate Change Initiative (Ocean_Colour_cci): Level 3, Version 4.2",
			"Ocean_Colour_cci: L3 v4.2",
		},
		{"Plain title without pattern", "Plain title without pattern"},
	}
	for _, tc := range cases {
		if got := ShortenDatasetName(tc.in); got != tc.want {
			t.Fatalf("ShortenDatasetName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTimePeriodOf(t *testing.T) {
	cases := []struct{ id, want string }{
		{"esacci.SST.day.L4.a.b.c.d.e.f", "1D"},
		{"esacci.OC.mon.L3S.a.b.c.d.e.f", "1M"},
		{"esacci.OC.8-days.L3S.a.b.c.d.e.f", "8D"},
		{"esacci.CLOUD.climatology.L3C.a.b.c.d.e.f", "1M"},
		{"esacci.SEALEVEL.yr.L4.a.b.c.d.e.f", "1Y"},
		{"esacci.GHG.satellite-orbit-frequency.L2.a.b.c.d.e.f", ""},
	}
	for _, tc := range cases {
		if got := TimePeriodOf(tc.id); got != tc.want {
			t.Fatalf("TimePeriodOf(%q) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestSchemas(t *testing.T) {
	if props, ok := StoreParamsSchema()["properties"].(Schema); !ok || props["num_retries"] == nil {
		t.Fatalf("store schema = %v", StoreParamsSchema())
	}
	props, ok := SearchParamsSchema()["properties"].(Schema)
	if !ok {
		t.Fatalf("search schema = %v", SearchParamsSchema())
	}
	for _, key := range []string{"ecv", "frequency", "processing_level", "bbox", "start_date"} {
		if props[key] == nil {
			t.Fatalf("search schema missing %s", key)
		}
	}
}

func TestOpenParamsSchema(t *testing.T) {
	s := newPortalStore(t)
	schema, err := s.OpenParamsSchema(context.Background(), portalDatasetID, model.TypeCube)
	if err != nil {
		t.Fatalf("OpenParamsSchema: %v", err)
	}
	props := schema["properties"].(Schema)
	items := props["variable_names"].(Schema)["items"].(Schema)
	enum := items["enum"].([]string)
	if len(enum) != 1 || enum[0] != "analysed_sst" {
		t.Fatalf("enum = %v", enum)
	}
	if props["bbox"] == nil {
		t.Fatal("cube schema must offer bbox")
	}

	schema, err = s.OpenParamsSchema(context.Background(), portalDatasetID, model.TypeDataset)
	if err != nil {
		t.Fatalf("OpenParamsSchema: %v", err)
	}
	props = schema["properties"].(Schema)
	if props["bbox"] != nil {
		t.Fatal("plain dataset schema must not offer bbox")
	}
}
