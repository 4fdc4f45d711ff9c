package lessonplan

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPlan          = errors.New("lesson plan failed validation")
	ErrTimelineGap          = errors.New("timeline gap")
	ErrLectureCountMismatch = errors.New("lecture count mismatch")
	ErrIncompletePeriod     = errors.New("incomplete period")
	ErrMissingField         = errors.New("missing field")
	ErrInvalidField         = errors.New("invalid field")
	ErrInvalidResourceType  = errors.New("invalid resource type")
	ErrUnrecognizedOutput   = errors.New("unrecognized generator output")
)

// TimelineGapError names the boundary on each side of a discontinuity. PrevEnd >
// NextStart is an overlap, PrevEnd < NextStart is dead air.
type TimelineGapError struct {
	Period    int
	PrevEnd   int
	NextStart int
	Empty     bool
}

func (e *TimelineGapError) Error() string {
	if e.Empty {
		return fmt.Sprintf("period %d: timeline cannot be empty", e.Period)
	}
	kind := "gap"
	if e.PrevEnd > e.NextStart {
		kind = "overlap"
	}
	return fmt.Sprintf("period %d: timeline %s detected: segment ends at minute %d but next starts at minute %d",
		e.Period, kind, e.PrevEnd, e.NextStart)
}

func (e *TimelineGapError) Is(target error) bool { return target == ErrTimelineGap }

type LectureCountMismatchError struct {
	Expected int
	Actual   int
}

func (e *LectureCountMismatchError) Error() string {
	return fmt.Sprintf("expected %d lectures, got %d", e.Expected, e.Actual)
}

func (e *LectureCountMismatchError) Is(target error) bool { return target == ErrLectureCountMismatch }

type IncompletePeriodError struct {
	Period   int
	Category string
	Detail   string
}

func (e *IncompletePeriodError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("period %d: missing %s", e.Period, e.Category)
	}
	return fmt.Sprintf("period %d: %s: %s", e.Period, e.Category, e.Detail)
}

func (e *IncompletePeriodError) Is(target error) bool { return target == ErrIncompletePeriod }

type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string { return fmt.Sprintf("missing required field %s", e.Field) }

func (e *MissingFieldError) Is(target error) bool { return target == ErrMissingField }

// FieldError is a value that is present but out of bounds.
type FieldError struct {
	Field string
	Value any
	Rule  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s=%v violates %s", e.Field, e.Value, e.Rule)
}

func (e *FieldError) Is(target error) bool { return target == ErrInvalidField }

type InvalidResourceTypeError struct {
	Index int
	Value string
}

func (e *InvalidResourceTypeError) Error() string {
	return fmt.Sprintf("resource_links[%d].type: unknown resource type %q", e.Index, e.Value)
}

func (e *InvalidResourceTypeError) Is(target error) bool { return target == ErrInvalidResourceType }

// ValidationError carries every issue found in one pass so the producer can fix
// them all at once.
type ValidationError struct {
	Issues []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		msgs = append(msgs, is.Error())
	}
	return fmt.Sprintf("%s: %d issue(s): %s", ErrInvalidPlan, len(e.Issues), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error { return e.Issues }

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidPlan }

// Messages flattens the issues for prompts and API responses.
func (e *ValidationError) Messages() []string {
	out := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		out = append(out, is.Error())
	}
	return out
}

func indexedField(parent string, i int, child string) string {
	return fmt.Sprintf("%s[%d].%s", parent, i, child)
}
