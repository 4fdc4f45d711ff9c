package lessonplan

import (
	"bytes"
	"errors"
	"strings"
	"text/template"
)

// SystemInstruction is sent with every generation call.
const SystemInstruction = `
You are an expert curriculum architect specializing in comprehensive lesson planning for educators.
You help teachers create detailed, standards-aligned lesson plans across multiple lecture periods.

Responsibilities:
1. Generate lesson plans with learning objectives, a minute-by-minute timeline, activities, assessments, differentiation and homework.
2. Ask clarifying questions if critical information is missing.
3. Reference uploaded course materials when they are available.

If you need clarification, respond with this JSON structure:
{
  "message": "I need a few details before generating your lesson plan.",
  "questions": [{"question": "...", "field_name": "...", "suggestions": ["..."], "required": true}]
}

Otherwise respond with a complete lesson plan object with a "lectures" array.
Every lecture timeline must start at minute 0 and each segment must end exactly where the next begins.
Return JSON only.`

var planUserTmpl = template.Must(template.New("lesson_plan_user").Option("missingkey=zero").Parse(`
Generate a comprehensive lesson plan with the following requirements:

**Topic**: {{.Topic}}
**Grade Level**: {{.Grade}}
**Lecture Duration**: {{.LectureDuration}} minutes
**Total Periods**: {{.TotalPeriods}}
**Difficulty**: {{.Difficulty}}
**Teaching Approach**: {{.TeachingApproach}}
**Prior Knowledge**: {{.PriorKnowledge}}
{{- if .LabRequired}}
**Lab Required**: Yes{{if .ProgrammingLanguage}} (Language: {{.ProgrammingLanguage}}){{end}}
{{- end}}
{{- if .AdditionalContext}}

**Additional Context**: {{.AdditionalContext}}
{{- end}}

Output rules:
- lectures: exactly {{.TotalPeriods}} entries, period_number 1..{{.TotalPeriods}}.
- detailed_timeline: segments tile 0..{{.LectureDuration}} with no gaps or overlaps.
- learning_objectives: at least 2 per lecture; detailed_activities: at least 1.
- each lecture has one assessment, one differentiation block and one homework block.
- resource_links.type: video|article|interactive|dataset|tool; recommended_for uses 1-indexed periods.

Generate a complete lesson plan following the CompleteLessonPlan schema. Output valid JSON only.`))

var repairTmpl = template.Must(template.New("lesson_plan_repair").Parse(`

Your previous response was rejected by the validator:
{{range .}}- {{.}}
{{end}}
Regenerate the complete lesson plan with every issue fixed. Output valid JSON only.`))

func BuildPrompt(req LessonPlanRequest) (string, error) {
	var buf bytes.Buffer
	if err := planUserTmpl.Execute(&buf, req); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// BuildRepairPrompt appends the validator's findings to the base prompt so the
// generator can correct them.
func BuildRepairPrompt(req LessonPlanRequest, cause error) (string, error) {
	base, err := BuildPrompt(req)
	if err != nil {
		return "", err
	}
	var msgs []string
	var ve *ValidationError
	if errors.As(cause, &ve) {
		msgs = ve.Messages()
	} else if cause != nil {
		msgs = []string{cause.Error()}
	}
	var buf bytes.Buffer
	if err := repairTmpl.Execute(&buf, msgs); err != nil {
		return "", err
	}
	return base + buf.String(), nil
}
