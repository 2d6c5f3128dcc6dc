package prompt

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// placeholder matches ${name}.
var placeholder = regexp.MustCompile(`\$\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Vars are the values substituted into a template.
type Vars map[string]any

// MissingVarsError lists placeholders that had no value.
type MissingVarsError struct {
	Template string
	Names    []string
}

func (e *MissingVarsError) Error() string {
	return fmt.Sprintf("prompt %s: undefined variables: %s", e.Template, strings.Join(e.Names, ", "))
}

// Expand replaces every ${name} in s with its value from vars. String
// slices are joined with ", ". Missing names are collected into a
// *MissingVarsError.
func Expand(s string, vars Vars) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		v, ok := vars[name]
		if !ok {
			if !slices.Contains(missing, name) {
				missing = append(missing, name)
			}
			return match
		}
		return format(v)
	})
	if len(missing) > 0 {
		return "", &MissingVarsError{Names: missing}
	}
	return out, nil
}

// Placeholders returns the distinct placeholder names in s, in order of
// first appearance.
func Placeholders(s string) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(s, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

func format(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
