package odp

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DescMetadata is the subset of an ISO 19115 dataset description the store
// needs: human-readable text, spatial extent and temporal coverage.
type DescMetadata struct {
	Title           string
	Abstract        string
	Licences        []string
	BBoxMinLon      float64
	BBoxMinLat      float64
	BBoxMaxLon      float64
	BBoxMaxLat      float64
	HasBBox         bool
	TemporalStart   string
	TemporalEnd     string
	PublicationDate string
	CreationDate    string
	FileFormats     []string
}

type descDocument struct {
	XMLName        xml.Name `xml:"MD_Metadata"`
	Identification struct {
		Abstract string `xml:"abstract>CharacterString"`
		Citation struct {
			Title string `xml:"title>CharacterString"`
			Dates []struct {
				DateTime string `xml:"date>DateTime"`
				Type     string `xml:"dateType>CI_DateTypeCode"`
			} `xml:"date>CI_Date"`
		} `xml:"citation>CI_Citation"`
		Constraints []struct {
			UseLimitation string `xml:"useLimitation>CharacterString"`
		} `xml:"resourceConstraints>MD_Constraints"`
		Formats []struct {
			Name string `xml:"name>CharacterString"`
		} `xml:"resourceFormat>MD_Format"`
		Extents []struct {
			Geographic []struct {
				West  string `xml:"westBoundLongitude>Decimal"`
				East  string `xml:"eastBoundLongitude>Decimal"`
				South string `xml:"southBoundLatitude>Decimal"`
				North string `xml:"northBoundLatitude>Decimal"`
			} `xml:"geographicElement>EX_GeographicBoundingBox"`
			Temporal []struct {
				Begin string `xml:"extent>TimePeriod>beginPosition"`
				End   string `xml:"extent>TimePeriod>endPosition"`
			} `xml:"temporalElement>EX_TemporalExtent"`
		} `xml:"extent>EX_Extent"`
	} `xml:"identificationInfo>MD_DataIdentification"`
}

// ParseDescXML reads dataset description metadata from ISO 19115 XML.
func ParseDescXML(data []byte) (*DescMetadata, error) {
	var doc descDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse description xml: %w", err)
	}

	md := &DescMetadata{
		Title:    strings.TrimSpace(doc.Identification.Citation.Title),
		Abstract: strings.TrimSpace(doc.Identification.Abstract),
	}
	for _, c := range doc.Identification.Constraints {
		if lim := strings.TrimSpace(c.UseLimitation); lim != "" {
			md.Licences = append(md.Licences, lim)
		}
	}
	for _, f := range doc.Identification.Formats {
		name := strings.TrimSpace(f.Name)
		// the catalog spells out NetCDF in prose rather than as an extension
		if name == "Data are in NetCDF format" {
			name = ".nc"
		}
		if name != "" {
			md.FileFormats = append(md.FileFormats, name)
		}
	}
	for _, d := range doc.Identification.Citation.Dates {
		switch d.Type {
		case "publication":
			md.PublicationDate = d.DateTime
		case "creation":
			md.CreationDate = d.DateTime
		}
	}
	for _, ext := range doc.Identification.Extents {
		for _, geo := range ext.Geographic {
			west, errW := strconv.ParseFloat(strings.TrimSpace(geo.West), 64)
			east, errE := strconv.ParseFloat(strings.TrimSpace(geo.East), 64)
			south, errS := strconv.ParseFloat(strings.TrimSpace(geo.South), 64)
			north, errN := strconv.ParseFloat(strings.TrimSpace(geo.North), 64)
			if errW == nil && errE == nil && errS == nil && errN == nil {
				md.BBoxMinLon, md.BBoxMaxLon = west, east
				md.BBoxMinLat, md.BBoxMaxLat = south, north
				md.HasBBox = true
			}
		}
		for _, temp := range ext.Temporal {
			if temp.Begin != "" {
				md.TemporalStart = strings.TrimSpace(temp.Begin)
			}
			if temp.End != "" {
				md.TemporalEnd = strings.TrimSpace(temp.End)
			}
		}
	}
	return md, nil
}

// ParseCoverageTime reads the timestamp formats description metadata uses for
// temporal coverage bounds.
func ParseCoverageTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{TimestampFormat, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if t, ok := FindTimestamp(s); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized coverage time %q", s)
}
