package lessonplan

import (
	"encoding/json"
	"time"
)

type TimelineSegment struct {
	StartMinute     int    `json:"start_minute" validate:"min=0"`
	Duration        int    `json:"duration" validate:"min=1"`
	Activity        string `json:"activity" validate:"required"`
	InstructorNotes string `json:"instructor_notes,omitempty"`
}

func (s TimelineSegment) EndMinute() int { return s.StartMinute + s.Duration }

type Activity struct {
	Title            string   `json:"title" validate:"required"`
	Description      string   `json:"description" validate:"required"`
	Duration         int      `json:"duration" validate:"min=1"`
	MaterialsNeeded  []string `json:"materials_needed"`
	Instructions     []string `json:"instructions"`
	LearningOutcomes []string `json:"learning_outcomes"`
}

type AssessmentType string

const (
	AssessmentFormative  AssessmentType = "formative"
	AssessmentSummative  AssessmentType = "summative"
	AssessmentDiagnostic AssessmentType = "diagnostic"
)

type Assessment struct {
	Type             AssessmentType `json:"type" validate:"oneof=formative summative diagnostic"`
	Title            string         `json:"title" validate:"required"`
	Description      string         `json:"description" validate:"required"`
	QuestionsOrTasks []string       `json:"questions_or_tasks"`
	Rubric           string         `json:"rubric,omitempty"`
	EstimatedTime    int            `json:"estimated_time" validate:"min=1"`
}

type Differentiation struct {
	SupportStrategies   []string `json:"support_strategies"`
	ChallengeStrategies []string `json:"challenge_strategies"`
	Accommodations      []string `json:"accommodations"`
}

const DefaultDueDateOffset = 7

type Homework struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	Tasks           []string `json:"tasks"`
	EstimatedTime   int      `json:"estimated_time" validate:"min=5"`
	DueDateOffset   int      `json:"due_date_offset" validate:"min=0"`
	ResourcesNeeded []string `json:"resources_needed"`
}

// UnmarshalJSON fills due_date_offset with the default when the producer omits it.
func (h *Homework) UnmarshalJSON(b []byte) error {
	type alias Homework
	tmp := alias{DueDateOffset: DefaultDueDateOffset}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*h = Homework(tmp)
	return nil
}

// LecturePeriod holds the per-lecture blocks as pointers so a block the producer
// left out is distinguishable from an empty one.
type LecturePeriod struct {
	PeriodNumber       int               `json:"period_number"`
	Title              string            `json:"title"`
	LearningObjectives []string          `json:"learning_objectives"`
	Materials          []string          `json:"materials"`
	DetailedTimeline   []TimelineSegment `json:"detailed_timeline"`
	DetailedActivities []Activity        `json:"detailed_activities"`
	Assessment         *Assessment       `json:"assessment"`
	Differentiation    *Differentiation  `json:"differentiation"`
	Homework           *Homework         `json:"homework"`
}

type ResourceLinkCandidate struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	Type           string `json:"type"`
	Description    string `json:"description"`
	RecommendedFor []int  `json:"recommended_for"`
}

// PlanCandidate is the raw shape decoded from generated output. It carries no
// guarantees; ValidatePlan turns it into a CompleteLessonPlan.
type PlanCandidate struct {
	CourseTitle             string                  `json:"course_title"`
	CourseDescription       string                  `json:"course_description"`
	Lectures                []LecturePeriod         `json:"lectures"`
	ResourceLinks           []ResourceLinkCandidate `json:"resource_links"`
	ProgressionMap          string                  `json:"progression_map"`
	PrerequisitesSummary    string                  `json:"prerequisites_summary"`
	LearningOutcomesSummary []string                `json:"learning_outcomes_summary"`
}

// CompleteLessonPlan is a plan that passed every structural check. Its fields are
// unexported so the only way to obtain one is ValidatePlan.
type CompleteLessonPlan struct {
	doc planDoc
}

type planDoc struct {
	GeneratedAt             time.Time         `json:"generated_at"`
	CourseTitle             string            `json:"course_title"`
	CourseDescription       string            `json:"course_description"`
	Request                 LessonPlanRequest `json:"request"`
	Lectures                []LecturePeriod   `json:"lectures"`
	ResourceLinks           []ResourceLink    `json:"resource_links"`
	ProgressionMap          string            `json:"progression_map"`
	PrerequisitesSummary    string            `json:"prerequisites_summary"`
	LearningOutcomesSummary []string          `json:"learning_outcomes_summary"`
}

func (p *CompleteLessonPlan) GeneratedAt() time.Time        { return p.doc.GeneratedAt }
func (p *CompleteLessonPlan) CourseTitle() string           { return p.doc.CourseTitle }
func (p *CompleteLessonPlan) CourseDescription() string     { return p.doc.CourseDescription }
func (p *CompleteLessonPlan) Request() LessonPlanRequest    { return p.doc.Request }
func (p *CompleteLessonPlan) ProgressionMap() string        { return p.doc.ProgressionMap }
func (p *CompleteLessonPlan) PrerequisitesSummary() string  { return p.doc.PrerequisitesSummary }
func (p *CompleteLessonPlan) LearningOutcomesSummary() []string {
	return append([]string(nil), p.doc.LearningOutcomesSummary...)
}

// Lectures returns a copy; the timeline of each period is sorted by start minute.
func (p *CompleteLessonPlan) Lectures() []LecturePeriod {
	return append([]LecturePeriod(nil), p.doc.Lectures...)
}

func (p *CompleteLessonPlan) ResourceLinks() []ResourceLink {
	return append([]ResourceLink(nil), p.doc.ResourceLinks...)
}

func (p *CompleteLessonPlan) MarshalJSON() ([]byte, error) { return json.Marshal(p.doc) }
