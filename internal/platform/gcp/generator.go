package gcp

import (
	"context"
	"fmt"
	"strings"

	aiplatform "google.golang.org/api/aiplatform/v1"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/curriculum"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

// Generator calls Vertex AI generateContent and returns the concatenated text of the
// first candidate.
type Generator struct {
	log          *logger.Logger
	svc          *aiplatform.Service
	cfg          VertexConfig
	defaultModel string
}

func NewGenerator(log *logger.Logger, svc *aiplatform.Service, cfg VertexConfig, defaultModel string) (*Generator, error) {
	if svc == nil {
		return nil, fmt.Errorf("vertex ai client required")
	}
	return &Generator{
		log:          log.With("service", "VertexGenerator"),
		svc:          svc,
		cfg:          cfg,
		defaultModel: defaultModel,
	}, nil
}

func (g *Generator) Generate(ctx context.Context, req curriculum.GenerateRequest) (string, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = g.defaultModel
	}
	body := &aiplatform.GoogleCloudAiplatformV1GenerateContentRequest{
		GenerationConfig: &aiplatform.GoogleCloudAiplatformV1GenerationConfig{
			ResponseMimeType: "application/json",
		},
	}
	prompt := req.Prompt
	if req.CachedContent != "" {
		// a cached context already fixes the system instruction
		body.CachedContent = req.CachedContent
		if req.SystemInstruction != "" {
			prompt = req.SystemInstruction + "\n\n" + prompt
		}
	} else if req.SystemInstruction != "" {
		body.SystemInstruction = &aiplatform.GoogleCloudAiplatformV1Content{
			Parts: []*aiplatform.GoogleCloudAiplatformV1Part{{Text: req.SystemInstruction}},
		}
	}
	body.Contents = []*aiplatform.GoogleCloudAiplatformV1Content{{
		Role:  "user",
		Parts: []*aiplatform.GoogleCloudAiplatformV1Part{{Text: prompt}},
	}}

	resp, err := g.svc.Projects.Locations.Publishers.Models.GenerateContent(g.cfg.modelResource(model), body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("vertex generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("vertex generate content: empty response")
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	g.log.Debug("Generation finished", "model", model, "finish_reason", resp.Candidates[0].FinishReason, "chars", sb.Len())
	return sb.String(), nil
}
