package schema

import (
	"strings"
	"testing"
)

func TestSchemas_LoadAndLint(t *testing.T) {
	if _, err := LessonPlanV1(); err != nil {
		t.Fatalf("LessonPlanV1 schema invalid: %v", err)
	}
	if _, err := ClarificationV1(); err != nil {
		t.Fatalf("ClarificationV1 schema invalid: %v", err)
	}
}

func TestCompact(t *testing.T) {
	s, err := Compact("lesson_plan_v1")
	if err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if strings.Contains(s, "\n") || !strings.Contains(s, `"detailed_timeline"`) {
		t.Fatalf("compact schema: got=%.80s", s)
	}
	if _, err := Compact("nope"); err == nil {
		t.Fatalf("unknown schema: want error")
	}
}

func TestLintRejects(t *testing.T) {
	cases := []struct {
		name   string
		schema map[string]any
		want   string
	}{
		{
			name:   "union",
			schema: map[string]any{"anyOf": []any{}},
			want:   "anyOf is not permitted",
		},
		{
			name: "open object",
			schema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"a": map[string]any{"type": "string"}},
				"required":   []any{"a"},
			},
			want: "additionalProperties must be false",
		},
		{
			name: "optional key",
			schema: map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"properties":           map[string]any{"a": map[string]any{"type": "string"}, "b": map[string]any{"type": "string"}},
				"required":             []any{"a"},
			},
			want: "required missing keys: [b]",
		},
		{
			name: "nested items",
			schema: map[string]any{
				"type":  "array",
				"items": map[string]any{"oneOf": []any{}},
			},
			want: "$.items: oneOf",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Lint("", tc.schema)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("want error containing %q got=%v", tc.want, err)
			}
		})
	}
}

func TestLintReportsEveryProblem(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"a": map[string]any{"anyOf": []any{}}},
		"required":   []any{"a", "ghost"},
	}
	err := Lint("plan", schema)
	if err == nil {
		t.Fatalf("want error")
	}
	for _, want := range []string{
		"plan: additionalProperties must be false",
		"plan: required includes unknown keys: [ghost]",
		"plan.properties.a: anyOf is not permitted",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("missing %q in %v", want, err)
		}
	}
}
