package lessonplan

import "encoding/json"

type OutcomeKind string

const (
	OutcomeResolved           OutcomeKind = "resolved"
	OutcomeNeedsClarification OutcomeKind = "needs_clarification"
)

// Outcome is the terminal result of one generation attempt: exactly one of a
// validated plan or a clarification request. The zero value is not a valid outcome.
type Outcome struct {
	kind          OutcomeKind
	plan          *CompleteLessonPlan
	clarification *ClarificationRequest
	report        Report
}

func Resolved(p *CompleteLessonPlan, r Report) Outcome {
	return Outcome{kind: OutcomeResolved, plan: p, report: r}
}

func NeedsClarification(c ClarificationRequest) Outcome {
	return Outcome{kind: OutcomeNeedsClarification, clarification: &c}
}

func (o Outcome) Kind() OutcomeKind { return o.kind }

// Plan returns the plan and true only for a resolved outcome.
func (o Outcome) Plan() (*CompleteLessonPlan, bool) {
	return o.plan, o.kind == OutcomeResolved
}

// Clarification returns the questions and true only for a needs-clarification outcome.
func (o Outcome) Clarification() (ClarificationRequest, bool) {
	if o.kind != OutcomeNeedsClarification || o.clarification == nil {
		return ClarificationRequest{}, false
	}
	return *o.clarification, true
}

func (o Outcome) Report() Report { return o.report }

func (o Outcome) MarshalJSON() ([]byte, error) {
	type wire struct {
		Status        OutcomeKind           `json:"status"`
		Plan          *CompleteLessonPlan   `json:"plan,omitempty"`
		Clarification *ClarificationRequest `json:"clarification,omitempty"`
		Warnings      []string              `json:"warnings,omitempty"`
	}
	w := wire{Status: o.kind, Warnings: o.report.Warnings}
	switch o.kind {
	case OutcomeResolved:
		w.Plan = o.plan
	case OutcomeNeedsClarification:
		w.Clarification = o.clarification
	}
	return json.Marshal(w)
}
