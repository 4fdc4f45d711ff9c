package lessonplan

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type ValidateOptions struct {
	ResourceParsing ParseMode
	Now             func() time.Time
}

// Report carries findings that do not block acceptance.
type Report struct {
	Warnings []string `json:"warnings,omitempty"`
}

func (r *Report) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidatePlan runs every structural check over a fully decoded candidate. Each
// period stops at its first violation; issues from different periods and from the
// course level are collected together. A plan is returned only when there are none.
func ValidatePlan(c PlanCandidate, req LessonPlanRequest, opts ValidateOptions) (*CompleteLessonPlan, Report, error) {
	var report Report
	if err := req.Validate(); err != nil {
		return nil, report, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ResourceParsing == "" {
		opts.ResourceParsing = ParseStrict
	}

	var issues []error
	for _, f := range []struct{ name, val string }{
		{"course_title", c.CourseTitle},
		{"course_description", c.CourseDescription},
		{"progression_map", c.ProgressionMap},
		{"prerequisites_summary", c.PrerequisitesSummary},
	} {
		if strings.TrimSpace(f.val) == "" {
			issues = append(issues, &MissingFieldError{Field: f.name})
		}
	}

	if len(c.Lectures) != req.TotalPeriods {
		issues = append(issues, &LectureCountMismatchError{Expected: req.TotalPeriods, Actual: len(c.Lectures)})
	}

	lectures := make([]LecturePeriod, len(c.Lectures))
	for i, lp := range c.Lectures {
		period := i + 1
		if lp.PeriodNumber != period {
			report.warnf("period %d: period_number is %d", period, lp.PeriodNumber)
		}
		sorted, err := validatePeriod(period, lp, req, &report)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		lp.DetailedTimeline = sorted
		lectures[i] = lp
	}

	links := make([]ResourceLink, 0, len(c.ResourceLinks))
	for i, rl := range c.ResourceLinks {
		link, err := validateResourceLink(i, rl, req.TotalPeriods, opts.ResourceParsing, &report)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		links = append(links, link)
	}

	if len(issues) > 0 {
		return nil, report, &ValidationError{Issues: issues}
	}

	return &CompleteLessonPlan{doc: planDoc{
		GeneratedAt:             opts.Now().UTC(),
		CourseTitle:             strings.TrimSpace(c.CourseTitle),
		CourseDescription:       strings.TrimSpace(c.CourseDescription),
		Request:                 req,
		Lectures:                lectures,
		ResourceLinks:           links,
		ProgressionMap:          c.ProgressionMap,
		PrerequisitesSummary:    c.PrerequisitesSummary,
		LearningOutcomesSummary: append([]string{}, c.LearningOutcomesSummary...),
	}}, report, nil
}

// validatePeriod checks, in order: timeline, minimums, required blocks, field bounds.
func validatePeriod(period int, lp LecturePeriod, req LessonPlanRequest, report *Report) ([]TimelineSegment, error) {
	sorted, err := CheckTimeline(period, lp.DetailedTimeline, report)
	if err != nil {
		return nil, err
	}
	if first, last := sorted[0].StartMinute, sorted[len(sorted)-1].EndMinute(); first != 0 || last != req.LectureDuration {
		report.warnf("period %d: timeline covers minutes %d-%d of a %d minute lecture", period, first, last, req.LectureDuration)
	}

	if n := len(lp.LearningObjectives); n < 2 {
		return nil, &IncompletePeriodError{Period: period, Category: "learning_objectives", Detail: fmt.Sprintf("need at least 2, got %d", n)}
	}
	if len(lp.DetailedActivities) == 0 {
		return nil, &IncompletePeriodError{Period: period, Category: "detailed_activities", Detail: "need at least 1, got 0"}
	}

	switch {
	case lp.Assessment == nil:
		return nil, &IncompletePeriodError{Period: period, Category: "assessment"}
	case lp.Differentiation == nil:
		return nil, &IncompletePeriodError{Period: period, Category: "differentiation"}
	case lp.Homework == nil:
		return nil, &IncompletePeriodError{Period: period, Category: "homework"}
	}

	prefix := fmt.Sprintf("lectures[%d]", period-1)
	if strings.TrimSpace(lp.Title) == "" {
		return nil, &MissingFieldError{Field: prefix + ".title"}
	}
	for i, a := range lp.DetailedActivities {
		if err := checkStruct(fmt.Sprintf("%s.detailed_activities[%d]", prefix, i), a); err != nil {
			return nil, err
		}
	}
	if err := checkStruct(prefix+".assessment", *lp.Assessment); err != nil {
		return nil, err
	}
	if err := checkStruct(prefix+".homework", *lp.Homework); err != nil {
		return nil, err
	}
	return sorted, nil
}

// CheckTimeline sorts a copy of the segments by start minute and requires each
// segment to end exactly where the next begins. Input that was not already in
// start order is accepted but noted on the report.
func CheckTimeline(period int, segments []TimelineSegment, report *Report) ([]TimelineSegment, error) {
	if len(segments) == 0 {
		return nil, &TimelineGapError{Period: period, Empty: true}
	}
	for i, s := range segments {
		if err := checkStruct(fmt.Sprintf("lectures[%d].detailed_timeline[%d]", period-1, i), s); err != nil {
			return nil, err
		}
	}
	sorted := slices.Clone(segments)
	slices.SortStableFunc(sorted, func(a, b TimelineSegment) int { return a.StartMinute - b.StartMinute })
	if report != nil && !slices.IsSortedFunc(segments, func(a, b TimelineSegment) int { return a.StartMinute - b.StartMinute }) {
		report.warnf("period %d: timeline segments were not in start order", period)
	}
	for i := 0; i+1 < len(sorted); i++ {
		end, next := sorted[i].EndMinute(), sorted[i+1].StartMinute
		if end != next {
			return nil, &TimelineGapError{Period: period, PrevEnd: end, NextStart: next}
		}
	}
	return sorted, nil
}

func validateResourceLink(i int, rl ResourceLinkCandidate, totalPeriods int, mode ParseMode, report *Report) (ResourceLink, error) {
	prefix := fmt.Sprintf("resource_links[%d]", i)
	if strings.TrimSpace(rl.Title) == "" {
		return ResourceLink{}, &MissingFieldError{Field: prefix + ".title"}
	}
	if !validHTTPURL(rl.URL) {
		return ResourceLink{}, &FieldError{Field: prefix + ".url", Value: rl.URL, Rule: "http_url"}
	}
	typ, ok := ParseResourceType(rl.Type)
	if !ok {
		if mode != ParseLenient {
			return ResourceLink{}, &InvalidResourceTypeError{Index: i, Value: rl.Type}
		}
		report.warnf("%s.type: unknown resource type %q, using %s", prefix, rl.Type, typ)
	}
	for _, p := range rl.RecommendedFor {
		if p < 1 || p > totalPeriods {
			return ResourceLink{}, &FieldError{Field: prefix + ".recommended_for", Value: p, Rule: fmt.Sprintf("range=1..%d", totalPeriods)}
		}
	}
	return ResourceLink{
		Title:          strings.TrimSpace(rl.Title),
		URL:            strings.TrimSpace(rl.URL),
		Type:           typ,
		Description:    rl.Description,
		RecommendedFor: append([]int{}, rl.RecommendedFor...),
	}, nil
}

// checkStruct returns the first field violation as a FieldError or MissingFieldError.
func checkStruct(prefix string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	fe := fieldErrs[0]
	name := prefix + "." + fe.Field()
	if fe.Tag() == "required" {
		return &MissingFieldError{Field: name}
	}
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}
	return &FieldError{Field: name, Value: fe.Value(), Rule: rule}
}
