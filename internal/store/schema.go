package store

import (
	"context"
	"sort"
	"time"

	"github.com/cci-tools/odpstore/internal/core/config"
	"github.com/cci-tools/odpstore/internal/core/model"
)

// Schema is a JSON-schema fragment, kept as plain data so callers can
// marshal or merge it freely.
type Schema map[string]any

func objectSchema(properties Schema) Schema {
	return Schema{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

func stringSchema() Schema { return Schema{"type": "string"} }

func dateTimeSchema() Schema {
	return Schema{"type": "string", "format": "date-time"}
}

func numberSchema(minimum, maximum float64) Schema {
	return Schema{"type": "number", "minimum": minimum, "maximum": maximum}
}

func bboxSchema(minLon, minLat, maxLon, maxLat float64) Schema {
	return Schema{
		"type": "array",
		"items": []Schema{
			numberSchema(minLon, maxLon),
			numberSchema(minLat, maxLat),
			numberSchema(minLon, maxLon),
			numberSchema(minLat, maxLat),
		},
	}
}

// StoreParamsSchema describes the parameters accepted when constructing a
// store.
func StoreParamsSchema() Schema {
	return objectSchema(Schema{
		"endpoint_url": Schema{"type": "string", "default": config.DefaultEndpointURL},
		"user_agent":   stringSchema(),
		"num_retries": Schema{
			"type": "integer", "minimum": 0, "default": config.DefaultNumRetries,
		},
		"retry_backoff_max": Schema{
			"type": "integer", "minimum": 0,
			"default": int(config.DefaultRetryBackoffMax / time.Millisecond),
		},
		"retry_backoff_base": Schema{
			"type": "number", "exclusiveMinimum": 1.0, "default": config.DefaultRetryBackoffBase,
		},
	})
}

// SearchParamsSchema describes the accepted search filters.
func SearchParamsSchema() Schema {
	return objectSchema(Schema{
		"ecv":              stringSchema(),
		"frequency":        stringSchema(),
		"institute":        stringSchema(),
		"processing_level": stringSchema(),
		"product_string":   stringSchema(),
		"product_version":  stringSchema(),
		"data_type":        stringSchema(),
		"sensor":           stringSchema(),
		"platform":         stringSchema(),
		"start_date":       dateTimeSchema(),
		"end_date":         dateTimeSchema(),
		"bbox":             bboxSchema(-180, -90, 180, 90),
	})
}

// OpenParamsSchema describes the parameters accepted when opening the given
// dataset. Without a dataset id the schema is unconstrained.
func (s *Store) OpenParamsSchema(ctx context.Context, dataID string, typeSpec model.TypeSpecifier) (Schema, error) {
	variableNames := Schema{"type": "array", "items": stringSchema()}
	timeRange := Schema{
		"type":  "array",
		"items": []Schema{dateTimeSchema(), dateTimeSchema()},
	}
	bbox := bboxSchema(-180, -90, 180, 90)

	if dataID != "" {
		d, err := s.DescribeData(ctx, dataID, typeSpec)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(d.DataVars))
		for name := range d.DataVars {
			names = append(names, name)
		}
		sort.Strings(names)
		variableNames["items"] = Schema{"type": "string", "enum": names}
		if d.TimeRange != nil {
			start := dateTimeSchema()
			end := dateTimeSchema()
			if !d.TimeRange.Start.IsZero() {
				start["minDate"] = d.TimeRange.Start.Format(time.RFC3339)
			}
			if !d.TimeRange.End.IsZero() {
				end["maxDate"] = d.TimeRange.End.Format(time.RFC3339)
			}
			timeRange["items"] = []Schema{start, end}
		}
		if d.BBox != nil {
			bbox = bboxSchema(d.BBox.MinLon, d.BBox.MinLat, d.BBox.MaxLon, d.BBox.MaxLat)
		}
	}

	properties := Schema{
		"variable_names": variableNames,
		"time_range":     timeRange,
	}
	if typeSpec != model.TypeDataset {
		properties["bbox"] = bbox
	}
	return objectSchema(properties), nil
}
