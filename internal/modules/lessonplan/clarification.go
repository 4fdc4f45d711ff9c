package lessonplan

import (
	"encoding/json"
	"strings"
)

type ClarificationQuestion struct {
	Question    string   `json:"question"`
	FieldName   string   `json:"field_name"`
	Suggestions []string `json:"suggestions"`
	Required    bool     `json:"required"`
}

// UnmarshalJSON treats a missing "required" as true.
func (q *ClarificationQuestion) UnmarshalJSON(b []byte) error {
	type alias ClarificationQuestion
	tmp := alias{Required: true}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*q = ClarificationQuestion(tmp)
	if q.Suggestions == nil {
		q.Suggestions = []string{}
	}
	return nil
}

type ClarificationRequest struct {
	Message   string                  `json:"message"`
	Questions []ClarificationQuestion `json:"questions"`
}

// Validate checks the shape a clarification must have to be shown to a teacher.
func (c ClarificationRequest) Validate() error {
	var issues []error
	if strings.TrimSpace(c.Message) == "" {
		issues = append(issues, &MissingFieldError{Field: "message"})
	}
	if len(c.Questions) == 0 {
		issues = append(issues, &MissingFieldError{Field: "questions"})
	}
	for i, q := range c.Questions {
		if strings.TrimSpace(q.Question) == "" {
			issues = append(issues, &MissingFieldError{Field: indexedField("questions", i, "question")})
		}
		if strings.TrimSpace(q.FieldName) == "" {
			issues = append(issues, &MissingFieldError{Field: indexedField("questions", i, "field_name")})
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
