package dataset

import (
	"encoding/json"
	"strconv"
)

// Row is a single record from the row store, keyed by column name. Values come
// from JSON decoding or SQL scans, so numbers may arrive as float64, any
// integer width, json.Number or numeric strings.
type Row map[string]interface{}

// Missing reports whether the row has no usable value for the column. Absent
// keys and explicit nulls both count as missing.
func (r Row) Missing(column string) bool {
	v, ok := r[column]
	return !ok || v == nil
}

// AsNumber attempts to interpret a raw cell value as a float64.
func AsNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsString renders a raw cell value the way the category index keys it.
func AsString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
