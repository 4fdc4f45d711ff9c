package lessonplan

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Interpret turns raw generator text into an Outcome. Text with a "lectures" key is
// validated as a plan; text with a "questions" key is a clarification. Anything else,
// including an object with both keys, is ErrUnrecognizedOutput.
func Interpret(raw string, req LessonPlanRequest, opts ValidateOptions) (Outcome, error) {
	body := extractJSONObject(raw)
	if body == "" {
		return Outcome{}, fmt.Errorf("%w: no JSON object in output", ErrUnrecognizedOutput)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &top); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", ErrUnrecognizedOutput, err)
	}
	_, hasLectures := top["lectures"]
	_, hasQuestions := top["questions"]

	switch {
	case hasLectures && hasQuestions:
		return Outcome{}, fmt.Errorf("%w: output carries both a plan and questions", ErrUnrecognizedOutput)
	case hasQuestions:
		var c ClarificationRequest
		if err := json.Unmarshal([]byte(body), &c); err != nil {
			return Outcome{}, fmt.Errorf("%w: decode clarification: %v", ErrUnrecognizedOutput, err)
		}
		if err := c.Validate(); err != nil {
			return Outcome{}, err
		}
		return NeedsClarification(c), nil
	case hasLectures:
		var cand PlanCandidate
		if err := json.Unmarshal([]byte(body), &cand); err != nil {
			return Outcome{}, fmt.Errorf("%w: decode plan: %v", ErrUnrecognizedOutput, err)
		}
		plan, report, err := ValidatePlan(cand, req, opts)
		if err != nil {
			return Outcome{}, err
		}
		return Resolved(plan, report), nil
	default:
		return Outcome{}, fmt.Errorf("%w: output has neither lectures nor questions", ErrUnrecognizedOutput)
	}
}

// extractJSONObject strips a Markdown fence if present, then falls back to the
// outermost braces so a sentence of preamble does not break decoding.
func extractJSONObject(raw string) string {
	s := stripCodeFences(raw)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return s
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func stripCodeFences(src string) string {
	s := strings.TrimSpace(src)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	last := strings.TrimSpace(lines[len(lines)-1])
	body := lines[1:]
	if last == "```" {
		body = lines[1 : len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(body, "\n"))
}
