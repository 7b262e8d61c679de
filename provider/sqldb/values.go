package sqldb

import (
	"encoding/json"
	"fmt"

	"github.com/leomrlima/nosql/mapping"
)

// tableName returns the table an entity maps to
func tableName(meta *mapping.EntityMetadata) string {
	return toSnakeCase(meta.Name)
}

// columnValue converts a document value to its column representation. Nested
// documents and collections are stored JSON-encoded; everything else passes
// through to the driver.
func columnValue(f *mapping.FieldMetadata, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	if f.Kind.IsNested() || f.Kind.IsCollection() {
		payload, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("sql: failed to encode column %s: %w", f.Column, err)
		}
		return payload, nil
	}
	return v, nil
}

// decodeColumn reverses columnValue for values scanned from a row
func decodeColumn(f *mapping.FieldMetadata, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if !f.Kind.IsNested() && !f.Kind.IsCollection() {
		return raw, nil
	}

	var payload []byte
	switch v := raw.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		return nil, fmt.Errorf("sql: column %s holds %T, expected JSON text", f.Column, raw)
	}

	var decoded any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("sql: failed to decode column %s: %w", f.Column, err)
	}
	return decoded, nil
}

// toSnakeCase converts a string to snake_case
func toSnakeCase(s string) string {
	var result []rune
	runes := []rune(s)

	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := runes[i-1]
			if prev >= 'a' && prev <= 'z' {
				result = append(result, '_')
			} else if i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z' {
				result = append(result, '_')
			} else if prev >= 'A' && prev <= 'Z' {
				result = append(result, '_')
			}
		}
		if r >= 'A' && r <= 'Z' {
			result = append(result, r+('a'-'A'))
		} else {
			result = append(result, r)
		}
	}
	return string(result)
}
