package config

import "strings"

// tree is the nested-map shape both Source implementations store their
// values in, mirroring how encoding/json unmarshals a JSON object with no
// target struct: map[string]any, with nested objects as map[string]any.
type tree map[string]any

// get walks path's dot-separated segments through t, returning the leaf
// value and whether every segment resolved.
func (t tree) get(path string) (any, bool) {
	segments := strings.Split(path, ".")
	var cur any = map[string]any(t)

	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := m[seg]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// set walks path, creating intermediate maps as needed, and assigns value
// at the leaf.
func (t tree) set(path string, value any) {
	segments := strings.Split(path, ".")
	m := map[string]any(t)

	for _, seg := range segments[:len(segments)-1] {
		next, ok := m[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[seg] = next
		}
		m = next
	}
	m[segments[len(segments)-1]] = value
}

func asBool(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func asInt(v any, fallback int) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return fallback
	}
}

func asFloat(v any, fallback float64) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return fallback
	}
}

func asString(v any, fallback string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fallback
}

func asStringSlice(v any, fallback []string) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, elem := range s {
			str, ok := elem.(string)
			if !ok {
				return fallback
			}
			out = append(out, str)
		}
		return out
	default:
		return fallback
	}
}
