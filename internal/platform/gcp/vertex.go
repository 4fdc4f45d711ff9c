package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	aiplatform "google.golang.org/api/aiplatform/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type VertexConfig struct {
	ProjectID   string
	Region      string
	Credentials string
	// Endpoint overrides the regional endpoint; tests point it at a local server.
	Endpoint string
}

func (c VertexConfig) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.ProjectID, c.Region)
}

// modelResource expands a bare model id into its publisher resource name.
func (c VertexConfig) modelResource(model string) string {
	model = strings.TrimSpace(model)
	if strings.HasPrefix(model, "projects/") {
		return model
	}
	model = strings.TrimPrefix(model, "models/")
	return fmt.Sprintf("%s/publishers/google/models/%s", c.parent(), model)
}

func NewVertexService(ctx context.Context, cfg VertexConfig, extra ...option.ClientOption) (*aiplatform.Service, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, fmt.Errorf("missing gcp project id")
	}
	if strings.TrimSpace(cfg.Region) == "" {
		return nil, fmt.Errorf("missing gcp region")
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com/", cfg.Region)
	}
	opts := append(ClientOptions(cfg.Credentials), option.WithEndpoint(endpoint))
	opts = append(opts, extra...)
	svc, err := aiplatform.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vertex ai client: %w", err)
	}
	return svc, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
