package schema

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Lint checks a JSON schema against the strict subset that structured-output
// endpoints accept and reports every violation, not just the first:
//   - no oneOf/anyOf/allOf unions
//   - every object with properties sets additionalProperties: false
//   - required names exactly the keys in properties
func Lint(name string, schema map[string]any) error {
	if schema == nil {
		return fmt.Errorf("schema is nil")
	}
	root := strings.TrimSpace(name)
	if root == "" {
		root = "$"
	}
	var l linter
	l.walk(schema, root)
	return errors.Join(l.problems...)
}

type linter struct {
	problems []error
}

func (l *linter) addf(format string, args ...any) {
	l.problems = append(l.problems, fmt.Errorf(format, args...))
}

func (l *linter) walk(node any, path string) {
	m, ok := node.(map[string]any)
	if !ok {
		return
	}
	for _, union := range []string{"oneOf", "anyOf", "allOf"} {
		if _, found := m[union]; found {
			l.addf("%s: %s is not permitted", path, union)
		}
	}
	if items, found := m["items"]; found {
		l.walk(items, path+".items")
	}

	raw, found := m["properties"]
	if !found || raw == nil {
		return
	}
	props, ok := raw.(map[string]any)
	if !ok {
		l.addf("%s: properties must be an object", path)
		return
	}
	if m["additionalProperties"] != false {
		l.addf("%s: additionalProperties must be false", path)
	}
	l.checkRequired(m["required"], props, path)

	for _, k := range slices.Sorted(maps.Keys(props)) {
		l.walk(props[k], path+".properties."+k)
	}
}

func (l *linter) checkRequired(raw any, props map[string]any, path string) {
	list, ok := raw.([]any)
	if !ok {
		l.addf("%s: required must be an array listing every key in properties", path)
		return
	}
	required := make(map[string]bool, len(list))
	for _, v := range list {
		if k := strings.TrimSpace(fmt.Sprint(v)); k != "" {
			required[k] = true
		}
	}
	var missing, unknown []string
	for _, k := range slices.Sorted(maps.Keys(props)) {
		if !required[k] {
			missing = append(missing, k)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(required)) {
		if _, known := props[k]; !known {
			unknown = append(unknown, k)
		}
	}
	if len(missing) > 0 {
		l.addf("%s: required missing keys: %v", path, missing)
	}
	if len(unknown) > 0 {
		l.addf("%s: required includes unknown keys: %v", path, unknown)
	}
}
