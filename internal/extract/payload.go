package extract

import (
	"fmt"
	"strings"
)

// Payload wraps a decoded JSON object for lenient typed access.
// Accessors never fail: a missing key or a value of the wrong type yields
// the supplied default.
type Payload struct {
	data map[string]any
}

// NewPayload creates a Payload from m. A nil map yields an empty Payload.
func NewPayload(m map[string]any) Payload {
	if m == nil {
		m = make(map[string]any)
	}
	return Payload{data: m}
}

// String returns the trimmed string at key, or defaultVal when missing,
// blank, or not a string.
func (p Payload) String(key, defaultVal string) string {
	s, ok := p.data[key].(string)
	if !ok {
		return defaultVal
	}
	if s = strings.TrimSpace(s); s == "" {
		return defaultVal
	}
	return s
}

// Text is String that also renders numbers and booleans.
func (p Payload) Text(key, defaultVal string) string {
	switch v := p.data[key].(type) {
	case string:
		return p.String(key, defaultVal)
	case float64, bool, int, int64:
		return fmt.Sprint(v)
	default:
		return defaultVal
	}
}

// Int returns the integer at key. Floats are accepted only when whole;
// numeric strings are not parsed.
func (p Payload) Int(key string, defaultVal int) int {
	switch v := p.data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if v == float64(int(v)) {
			return int(v)
		}
	}
	return defaultVal
}

// Float returns the number at key.
func (p Payload) Float(key string, defaultVal float64) float64 {
	switch v := p.data[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return defaultVal
}

// Bool returns the boolean at key.
func (p Payload) Bool(key string, defaultVal bool) bool {
	if b, ok := p.data[key].(bool); ok {
		return b
	}
	return defaultVal
}

// Strings returns the string elements of the list at key, trimmed, with
// blank and non-string elements dropped. A missing key yields nil.
func (p Payload) Strings(key string) []string {
	list, ok := p.data[key].([]any)
	if !ok {
		if ss, ok := p.data[key].([]string); ok {
			return compactStrings(ss)
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// Objects returns the object elements of the list at key, skipping others.
func (p Payload) Objects(key string) []Payload {
	list, ok := p.data[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Payload, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, NewPayload(m))
		}
	}
	return out
}

// Object returns the nested object at key, or an empty Payload.
func (p Payload) Object(key string) Payload {
	m, _ := p.data[key].(map[string]any)
	return NewPayload(m)
}

// List returns the raw list at key.
func (p Payload) List(key string) []any {
	list, _ := p.data[key].([]any)
	return list
}

// Any returns the raw value at key, or defaultVal if missing.
func (p Payload) Any(key string, defaultVal any) any {
	v, ok := p.data[key]
	if !ok {
		return defaultVal
	}
	return v
}

// Has reports whether key is present.
func (p Payload) Has(key string) bool {
	_, ok := p.data[key]
	return ok
}

// Missing returns the keys from required that are absent.
func (p Payload) Missing(required ...string) []string {
	var missing []string
	for _, k := range required {
		if !p.Has(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Len returns the number of keys.
func (p Payload) Len() int {
	return len(p.data)
}

// Raw returns the underlying map. Callers must not modify it.
func (p Payload) Raw() map[string]any {
	return p.data
}

// ObjectsOf converts a decoded JSON value into object payloads. An object
// yields itself; an array yields its object elements; anything else nil.
func ObjectsOf(v any) []Payload {
	switch val := v.(type) {
	case map[string]any:
		return []Payload{NewPayload(val)}
	case []any:
		out := make([]Payload, 0, len(val))
		for _, item := range val {
			if m, ok := item.(map[string]any); ok {
				out = append(out, NewPayload(m))
			}
		}
		return out
	default:
		return nil
	}
}

func compactStrings(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
