// internal/visibility/record.go
package visibility

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/solatis/fieldkeeper/internal/types"
)

/*
 * Field value resolution for JSON records.
 *
 * A JSONRecord wraps a decoded JSON object (a submitted form, a CLI values
 * file, a stored document). Value(code) resolves:
 *   1. the exact top-level key, so codes containing '.' still work
 *   2. otherwise a dotted path through nested objects and arrays, where a
 *      numeric segment indexes an array ("contacts.0.email")
 *
 * Paths deeper than types.MaxPathDepth resolve to nil rather than erroring;
 * a value source never fails.
 */

// JSONRecord is a ValueSource over a decoded JSON object.
type JSONRecord struct {
	data map[string]any
}

// NewJSONRecord wraps an already decoded object.
func NewJSONRecord(data map[string]any) JSONRecord {
	return JSONRecord{data: data}
}

// ParseJSONRecord decodes a JSON object. Empty input yields an empty record.
func ParseJSONRecord(raw []byte) (JSONRecord, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return JSONRecord{data: map[string]any{}}, nil
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return JSONRecord{}, err
	}
	return JSONRecord{data: data}, nil
}

// Value implements ValueSource.
func (r JSONRecord) Value(code string) any {
	if v, ok := r.data[code]; ok {
		return v
	}
	if !strings.Contains(code, ".") {
		return nil
	}
	v, err := ResolvePath(r.data, strings.Split(code, "."))
	if err != nil {
		return nil
	}
	return v
}

// Values flattens the record's top-level keys into a snapshot.
func (r JSONRecord) Values() Values {
	out := make(Values, len(r.data))
	for k, v := range r.data {
		out[k] = v
	}
	return out
}

// ResolvePath walks nested maps and slices following path segments.
// Returns ErrPathTooDeep past MaxPathDepth and ErrFieldNotFound when a
// segment does not exist.
func ResolvePath(current any, path []string) (any, error) {
	if len(path) > types.MaxPathDepth {
		return nil, types.ErrPathTooDeep
	}
	for _, seg := range path {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, types.ErrFieldNotFound
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, types.ErrFieldNotFound
			}
			current = v[idx]
		default:
			// Scalar or null at an intermediate position
			return nil, types.ErrFieldNotFound
		}
	}
	return current, nil
}
