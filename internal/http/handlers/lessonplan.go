package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/http/response"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/curriculum"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/lessonplan"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/apierr"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type PlanGenerator interface {
	Generate(ctx context.Context, in curriculum.GenerateInput) (lessonplan.Outcome, error)
}

type LessonPlanHandler struct {
	log  *logger.Logger
	gen  PlanGenerator
	opts lessonplan.ValidateOptions
}

// NewLessonPlanHandler accepts a nil gen; generation then answers 503 while
// interpretation keeps working.
func NewLessonPlanHandler(log *logger.Logger, gen PlanGenerator, opts lessonplan.ValidateOptions) *LessonPlanHandler {
	return &LessonPlanHandler{
		log:  log.With("handler", "LessonPlanHandler"),
		gen:  gen,
		opts: opts,
	}
}

// GeneratePlan takes a LessonPlanRequest body. Materials must already be cached;
// reference them with cached_content_name.
func (h *LessonPlanHandler) GeneratePlan(c *gin.Context) {
	if h.gen == nil {
		response.RespondErr(c, apierr.Unavailable("generation_unavailable", "no generation backend is configured"))
		return
	}
	var req lessonplan.LessonPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErr(c, apierr.New(http.StatusBadRequest, "invalid_json", err))
		return
	}
	if len(req.ResourceFiles) > 0 {
		response.RespondErr(c, apierr.BadRequest("invalid_request",
			"resource_files are not accepted over HTTP; create a cache via POST /v1/caches and pass cached_content_name"))
		return
	}

	out, err := h.gen.Generate(c.Request.Context(), curriculum.GenerateInput{Request: req})
	if err != nil {
		fields := append([]interface{}{"topic", req.Topic, "error", err}, ctxutil.LogFields(c.Request.Context())...)
		h.log.Warn("Lesson plan generation failed", fields...)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}

type interpretBody struct {
	Raw     string                       `json:"raw"`
	Request lessonplan.LessonPlanRequest `json:"request"`
}

// InterpretOutput validates already-generated text against a request without
// calling the model.
func (h *LessonPlanHandler) InterpretOutput(c *gin.Context) {
	var body interpretBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.RespondErr(c, apierr.New(http.StatusBadRequest, "invalid_json", err))
		return
	}
	req, err := lessonplan.NewLessonPlanRequest(body.Request)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	out, err := lessonplan.Interpret(body.Raw, req, h.opts)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, out)
}
