// Package config holds the value conversions shared by the config store
// adapters. TOML decodes integers as int64 and arrays as []any, while
// values set in-process keep their Go types; both forms are accepted.
package config

import "strconv"

// AsString returns v as a string, or "" if it is not one.
func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// AsInt returns v as an int, or 0 if it is not an integral number.
func AsInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int64(n)) {
			return int(n)
		}
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return 0
}

// AsFloat returns v as a float64, or 0 if it is not numeric.
func AsFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return 0
}

// AsBool returns v as a bool, or false if it is not one.
func AsBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// AsStringSlice returns the string elements of v, or nil if v is not a slice.
func AsStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
