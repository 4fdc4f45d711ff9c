package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed *.json
var FS embed.FS

var (
	lessonPlanV1Once      sync.Once
	lessonPlanV1Schema    map[string]any
	lessonPlanV1Err       error
	clarificationV1Once   sync.Once
	clarificationV1Schema map[string]any
	clarificationV1Err    error
)

// LessonPlanV1 is the shape a generator must produce for a resolved plan. It mirrors
// lessonplan.PlanCandidate; optional text fields are required and may be empty.
func LessonPlanV1() (map[string]any, error) {
	lessonPlanV1Once.Do(func() {
		lessonPlanV1Schema, lessonPlanV1Err = loadJSONSchema("lesson_plan_v1.json")
	})
	return lessonPlanV1Schema, lessonPlanV1Err
}

func ClarificationV1() (map[string]any, error) {
	clarificationV1Once.Do(func() {
		clarificationV1Schema, clarificationV1Err = loadJSONSchema("clarification_v1.json")
	})
	return clarificationV1Schema, clarificationV1Err
}

// Compact returns the named schema as single-line JSON for embedding in prompts.
func Compact(name string) (string, error) {
	var (
		m   map[string]any
		err error
	)
	switch name {
	case "lesson_plan_v1":
		m, err = LessonPlanV1()
	case "clarification_v1":
		m, err = ClarificationV1()
	default:
		return "", fmt.Errorf("unknown schema %q", name)
	}
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal schema %s: %w", name, err)
	}
	return string(b), nil
}

func loadJSONSchema(name string) (map[string]any, error) {
	b, err := FS.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", name, err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", name, err)
	}
	if err := Lint(name, m); err != nil {
		return nil, fmt.Errorf("lint schema %s: %w", name, err)
	}
	return m, nil
}
