package lessonplan

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Difficulty string

const (
	DifficultyLow    Difficulty = "low"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type TeachingApproach string

const (
	ApproachInquiryBased TeachingApproach = "inquiry-based"
	ApproachDirect       TeachingApproach = "direct"
	ApproachProjectBased TeachingApproach = "project-based"
	ApproachMixed        TeachingApproach = "mixed"
)

const (
	MinLectureDuration = 30
	MaxLectureDuration = 180
	MinTotalPeriods    = 1
	MaxTotalPeriods    = 30
	MinTopicLength     = 3
)

// LessonPlanRequest is what a teacher asks for. Build it with NewLessonPlanRequest
// so the field bounds are checked once, up front.
type LessonPlanRequest struct {
	Topic               string           `json:"topic" validate:"min=3"`
	Grade               string           `json:"grade" validate:"required"`
	LectureDuration     int              `json:"lecture_duration" validate:"min=30,max=180"`
	TotalPeriods        int              `json:"total_periods" validate:"min=1,max=30"`
	Difficulty          Difficulty       `json:"difficulty" validate:"oneof=low medium hard"`
	TeachingApproach    TeachingApproach `json:"teaching_approach" validate:"oneof=inquiry-based direct project-based mixed"`
	PriorKnowledge      string           `json:"prior_knowledge" validate:"required"`
	LabRequired         bool             `json:"lab_required"`
	ProgrammingLanguage string           `json:"programming_language,omitempty"`
	ResourceFiles       []string         `json:"resource_files,omitempty"`
	CachedContentName   string           `json:"cached_content_name,omitempty"`
	AdditionalContext   string           `json:"additional_context,omitempty"`
}

var ErrInvalidRequest = errors.New("invalid lesson plan request")

type InvalidRequestError struct {
	Field string
	Value any
	Rule  string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid request: %s=%v violates %s", e.Field, e.Value, e.Rule)
}

func (e *InvalidRequestError) Is(target error) bool { return target == ErrInvalidRequest }

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validate caches struct metadata only; it holds no request state.
var validate = newValidator()

func NewLessonPlanRequest(r LessonPlanRequest) (LessonPlanRequest, error) {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Grade = strings.TrimSpace(r.Grade)
	r.PriorKnowledge = strings.TrimSpace(r.PriorKnowledge)
	r.ProgrammingLanguage = strings.TrimSpace(r.ProgrammingLanguage)
	r.CachedContentName = strings.TrimSpace(r.CachedContentName)
	r.AdditionalContext = strings.TrimSpace(r.AdditionalContext)
	r.Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(string(r.Difficulty))))
	r.TeachingApproach = TeachingApproach(strings.ToLower(strings.TrimSpace(string(r.TeachingApproach))))
	r.ResourceFiles = append([]string(nil), r.ResourceFiles...)
	if err := r.Validate(); err != nil {
		return LessonPlanRequest{}, err
	}
	return r, nil
}

// Validate reports every violated bound, one InvalidRequestError per field.
func (r LessonPlanRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	out := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out = append(out, &InvalidRequestError{Field: fe.Field(), Value: fe.Value(), Rule: rule})
	}
	return errors.Join(out...)
}

// MissingInputs returns the questions that must be answered before a plan can be
// produced, or nil when the request is complete.
func (r LessonPlanRequest) MissingInputs() *ClarificationRequest {
	questions := []ClarificationQuestion{}
	if r.LabRequired && strings.TrimSpace(r.ProgrammingLanguage) == "" {
		questions = append(questions, ClarificationQuestion{
			Question:    "Which programming language should the lab sessions use?",
			FieldName:   "programming_language",
			Suggestions: []string{"Python", "Java", "R", "MATLAB"},
			Required:    true,
		})
	}
	if len(questions) == 0 {
		return nil
	}
	return &ClarificationRequest{
		Message:   "I need a few details before generating your lesson plan.",
		Questions: questions,
	}
}
