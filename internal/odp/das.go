package odp

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
)

// ParseDAS reads a DAS response into per-variable attribute maps. Attribute
// values keep their declared types: strings stay strings, numeric types
// become float64, multi-valued numerics become []float64. The well-known
// "_FillValue" and "_ChunkSizes" attributes are renamed to "fill_value" and
// "chunk_sizes" so callers never deal with the leading underscore.
func ParseDAS(text string) (map[string]map[string]any, error) {
	attrs := make(map[string]map[string]any)
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var current string
	depth := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "Attributes {"):
			depth = 1
		case strings.HasSuffix(line, "{"):
			depth++
			if depth == 2 {
				current = strings.TrimSpace(strings.TrimSuffix(line, "{"))
				attrs[current] = make(map[string]any)
			}
			// deeper container blocks are flattened into the variable
		case line == "}":
			depth--
			if depth <= 1 {
				current = ""
			}
		default:
			if current == "" || depth < 2 {
				continue
			}
			name, value, ok := parseDASAttribute(line)
			if !ok {
				continue
			}
			attrs[current][name] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("parse das: %w", err)
	}
	return attrs, nil
}

func parseDASAttribute(line string) (string, any, bool) {
	line = strings.TrimSuffix(line, ";")
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 3 {
		return "", nil, false
	}
	typ, name, raw := fields[0], fields[1], strings.TrimSpace(fields[2])
	switch name {
	case "_FillValue":
		name = "fill_value"
	case "_ChunkSizes":
		name = "chunk_sizes"
	}
	switch typ {
	case "String", "Url":
		return name, strings.Trim(raw, `"`), true
	case "Byte", "Int16", "UInt16", "Int32", "UInt32", "Int64", "UInt64", "Float32", "Float64":
		parts := strings.Split(raw, ",")
		values := make([]float64, 0, len(parts))
		for _, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return "", nil, false
			}
			values = append(values, v)
		}
		if len(values) == 1 {
			return name, values[0], true
		}
		return name, values, true
	default:
		return "", nil, false
	}
}
