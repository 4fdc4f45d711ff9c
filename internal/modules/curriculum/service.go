package curriculum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/lessonplan"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/lessonplan/schema"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

// GenerateRequest is everything one generation call needs. Generation settings
// travel here, never on the generator itself.
type GenerateRequest struct {
	Model             string
	SystemInstruction string
	Prompt            string
	// CachedContent is a cache handle id; empty means no cached context.
	CachedContent string
}

// Generator is the model behind the service. It returns raw text and knows nothing
// about lesson plans.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type CacheCreator interface {
	Create(ctx context.Context, in contextcache.CreateInput) (contextcache.CacheHandle, error)
}

type Config struct {
	Model             string
	CacheTTL          time.Duration
	ResourceParsing   lessonplan.ParseMode
	MaxRepairAttempts int
}

type GenerateInput struct {
	Request lessonplan.LessonPlanRequest
	// Files are staged into a new cache when no handle is given. Request.ResourceFiles
	// are added to them.
	Files         []materials.FileRef
	CacheHandleID string
}

type Service struct {
	log    *logger.Logger
	cache  CacheCreator
	gen    Generator
	cfg    Config
	now    func() time.Time
	tracer trace.Tracer
	system string
}

func NewService(log *logger.Logger, cache CacheCreator, gen Generator, cfg Config) (*Service, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if gen == nil {
		return nil, fmt.Errorf("generator required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = contextcache.DefaultTTL
	}
	if cfg.MaxRepairAttempts < 0 {
		cfg.MaxRepairAttempts = 0
	}
	if cfg.ResourceParsing == "" {
		cfg.ResourceParsing = lessonplan.ParseStrict
	}
	system, err := systemInstruction()
	if err != nil {
		return nil, err
	}
	return &Service{
		log:    log.With("service", "CurriculumService"),
		cache:  cache,
		gen:    gen,
		cfg:    cfg,
		now:    time.Now,
		tracer: otel.Tracer("github.com/yungbote/neurobridge-curriculum/internal/modules/curriculum"),
		system: system,
	}, nil
}

func systemInstruction() (string, error) {
	plan, err := schema.Compact("lesson_plan_v1")
	if err != nil {
		return "", err
	}
	clar, err := schema.Compact("clarification_v1")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(lessonplan.SystemInstruction) +
		"\n\nLesson plan JSON schema:\n" + plan +
		"\n\nClarification JSON schema:\n" + clar, nil
}

// Generate runs one generation attempt end to end. A request missing required
// inputs returns NeedsClarification without calling the generator. Validation
// failures are retried with the issues appended only when MaxRepairAttempts > 0.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (lessonplan.Outcome, error) {
	req, err := lessonplan.NewLessonPlanRequest(in.Request)
	if err != nil {
		return lessonplan.Outcome{}, err
	}
	ctx, span := s.tracer.Start(ctx, "curriculum.Generate", trace.WithAttributes(
		attribute.String("topic", req.Topic),
		attribute.Int("total_periods", req.TotalPeriods),
	))
	defer span.End()

	if c := req.MissingInputs(); c != nil {
		s.log.Info("Request needs clarification", "topic", req.Topic, "questions", len(c.Questions))
		return lessonplan.NeedsClarification(*c), nil
	}

	handleID := firstNonEmpty(in.CacheHandleID, req.CachedContentName)
	files := append([]materials.FileRef(nil), in.Files...)
	for _, p := range req.ResourceFiles {
		files = append(files, materials.FileRef{Path: p})
	}
	if handleID == "" && len(files) > 0 {
		if s.cache == nil {
			return lessonplan.Outcome{}, fmt.Errorf("resource files given but no context cache configured")
		}
		h, err := s.cache.Create(ctx, contextcache.CreateInput{Files: files, ModelID: s.cfg.Model, TTL: s.cfg.CacheTTL})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cache create")
			return lessonplan.Outcome{}, err
		}
		handleID = h.HandleID
	}
	req.CachedContentName = handleID
	span.SetAttributes(attribute.String("cache_handle_id", handleID))

	prompt, err := lessonplan.BuildPrompt(req)
	if err != nil {
		return lessonplan.Outcome{}, fmt.Errorf("build prompt: %w", err)
	}
	opts := lessonplan.ValidateOptions{ResourceParsing: s.cfg.ResourceParsing, Now: s.now}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.MaxRepairAttempts; attempt++ {
		raw, err := s.gen.Generate(ctx, GenerateRequest{
			Model:             s.cfg.Model,
			SystemInstruction: s.system,
			Prompt:            prompt,
			CachedContent:     handleID,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "generate")
			return lessonplan.Outcome{}, fmt.Errorf("generate lesson plan: %w", err)
		}

		out, err := lessonplan.Interpret(raw, req, opts)
		if err == nil {
			s.log.Info("Lesson plan generation finished",
				"topic", req.Topic,
				"outcome", out.Kind(),
				"attempts", attempt+1,
				"warnings", len(out.Report().Warnings),
			)
			return out, nil
		}
		if !errors.Is(err, lessonplan.ErrInvalidPlan) && !errors.Is(err, lessonplan.ErrUnrecognizedOutput) {
			return lessonplan.Outcome{}, err
		}
		lastErr = err
		s.log.Warn("Generated output rejected", "topic", req.Topic, "attempt", attempt+1, "error", err)
		if attempt < s.cfg.MaxRepairAttempts {
			if prompt, err = lessonplan.BuildRepairPrompt(req, err); err != nil {
				return lessonplan.Outcome{}, fmt.Errorf("build repair prompt: %w", err)
			}
		}
	}
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "validation")
	return lessonplan.Outcome{}, lastErr
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
