package odp

import (
	"encoding/xml"
	"fmt"
)

// facetFields maps ODD parameter names to the harmonized metadata field names
// used throughout the catalogue, singular and plural.
var facetFields = map[string][2]string{
	"ecv":             {"ecv", "ecvs"},
	"frequency":       {"time_frequency", "time_frequencies"},
	"institute":       {"institute", "institutes"},
	"processingLevel": {"processing_level", "processing_levels"},
	"productString":   {"product_string", "product_strings"},
	"productVersion":  {"product_version", "product_versions"},
	"dataType":        {"data_type", "data_types"},
	"sensor":          {"sensor_id", "sensor_ids"},
	"platform":        {"platform_id", "platform_ids"},
	"fileFormat":      {"file_format", "file_formats"},
	"drsId":           {"drs_id", "drs_ids"},
}

type oddDocument struct {
	XMLName xml.Name `xml:"OpenSearchDescription"`
	URLs    []struct {
		Parameters []struct {
			Name    string `xml:"name,attr"`
			Options []struct {
				Value string `xml:"value,attr"`
			} `xml:"Option"`
		} `xml:"Parameter"`
	} `xml:"Url"`
}

// ParseODD extracts the facet vocabularies from an OpenSearch Description
// Document. Single-option parameters land under the singular field name,
// multi-option parameters under the plural one, mirroring the catalog's own
// convention.
func ParseODD(data []byte) (map[string][]string, error) {
	var doc oddDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse odd: %w", err)
	}
	metadata := make(map[string][]string)
	for _, u := range doc.URLs {
		for _, param := range u.Parameters {
			names, ok := facetFields[param.Name]
			if !ok || len(param.Options) == 0 {
				continue
			}
			values := make([]string, 0, len(param.Options))
			for _, opt := range param.Options {
				if opt.Value != "" {
					values = append(values, opt.Value)
				}
			}
			if len(values) == 0 {
				continue
			}
			if len(values) == 1 {
				metadata[names[0]] = values
			} else {
				metadata[names[1]] = values
			}
		}
	}
	return metadata, nil
}

// FacetValues returns the harmonized list for a field, looking under both the
// singular and plural name.
func FacetValues(metadata map[string][]string, singular, plural string) []string {
	if v, ok := metadata[singular]; ok {
		return v
	}
	return metadata[plural]
}
