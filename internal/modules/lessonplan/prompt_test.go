package lessonplan

import (
	"strings"
	"testing"
)

func TestBuildPrompt(t *testing.T) {
	req := baseRequest()
	req.LabRequired = true
	req.ProgrammingLanguage = "Python"
	req.AdditionalContext = "focus on intuition"
	p, err := BuildPrompt(req)
	if err != nil {
		t.Fatalf("BuildPrompt: %v", err)
	}
	for _, want := range []string{
		"**Topic**: Linear Regression",
		"**Lecture Duration**: 60 minutes",
		"**Total Periods**: 2",
		"**Difficulty**: medium",
		"**Lab Required**: Yes (Language: Python)",
		"**Additional Context**: focus on intuition",
		"Output valid JSON only.",
	} {
		if !strings.Contains(p, want) {
			t.Fatalf("prompt missing %q:\n%s", want, p)
		}
	}

	req.LabRequired = false
	req.AdditionalContext = ""
	p, _ = BuildPrompt(req)
	if strings.Contains(p, "Lab Required") || strings.Contains(p, "Additional Context") {
		t.Fatalf("optional sections should be omitted:\n%s", p)
	}
}

func TestBuildRepairPrompt(t *testing.T) {
	req := baseRequest()
	cause := &ValidationError{Issues: []error{
		&TimelineGapError{Period: 1, PrevEnd: 20, NextStart: 25},
		&LectureCountMismatchError{Expected: 2, Actual: 1},
	}}
	p, err := BuildRepairPrompt(req, cause)
	if err != nil {
		t.Fatalf("BuildRepairPrompt: %v", err)
	}
	if !strings.Contains(p, "- period 1: timeline gap detected: segment ends at minute 20 but next starts at minute 25") {
		t.Fatalf("repair prompt missing gap:\n%s", p)
	}
	if !strings.Contains(p, "- expected 2 lectures, got 1") {
		t.Fatalf("repair prompt missing count:\n%s", p)
	}
	if !strings.HasPrefix(p, "Generate a comprehensive lesson plan") {
		t.Fatalf("repair prompt should extend the base prompt")
	}
}
