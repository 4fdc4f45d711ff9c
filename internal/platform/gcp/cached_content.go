package gcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	aiplatform "google.golang.org/api/aiplatform/v1"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

// CachedContentService manages Vertex AI cachedContents. The service enforces
// expiry; a handle past its TTL reads back as 404.
type CachedContentService struct {
	log *logger.Logger
	svc *aiplatform.Service
	cfg VertexConfig
}

func NewCachedContentService(log *logger.Logger, svc *aiplatform.Service, cfg VertexConfig) (*CachedContentService, error) {
	if svc == nil {
		return nil, fmt.Errorf("vertex ai client required")
	}
	return &CachedContentService{
		log: log.With("service", "CachedContentService"),
		svc: svc,
		cfg: cfg,
	}, nil
}

func (s *CachedContentService) Create(ctx context.Context, p contextcache.CreateParams) (contextcache.RemoteHandle, error) {
	parts := make([]*aiplatform.GoogleCloudAiplatformV1Part, 0, len(p.Contents))
	for _, c := range p.Contents {
		parts = append(parts, &aiplatform.GoogleCloudAiplatformV1Part{
			FileData: &aiplatform.GoogleCloudAiplatformV1FileData{FileUri: c.URI, MimeType: c.MimeType},
		})
	}
	body := &aiplatform.GoogleCloudAiplatformV1CachedContent{
		Model:       s.cfg.modelResource(p.ModelID),
		DisplayName: p.DisplayName,
		Ttl:         formatTTL(p.TTL),
		Contents:    []*aiplatform.GoogleCloudAiplatformV1Content{{Role: "user", Parts: parts}},
	}
	if strings.TrimSpace(p.Instruction) != "" {
		body.SystemInstruction = &aiplatform.GoogleCloudAiplatformV1Content{
			Parts: []*aiplatform.GoogleCloudAiplatformV1Part{{Text: p.Instruction}},
		}
	}

	out, err := s.svc.Projects.Locations.CachedContents.Create(s.cfg.parent(), body).Context(ctx).Do()
	if err != nil {
		return contextcache.RemoteHandle{}, fmt.Errorf("vertex create cached content: %w", err)
	}
	s.log.Debug("Cached content created", "name", out.Name, "expire_time", out.ExpireTime)
	return toRemoteHandle(out), nil
}

func (s *CachedContentService) Get(ctx context.Context, name string) (contextcache.RemoteHandle, error) {
	out, err := s.svc.Projects.Locations.CachedContents.Get(name).Context(ctx).Do()
	if isNotFound(err) {
		return contextcache.RemoteHandle{}, &contextcache.NotFoundError{HandleID: name}
	}
	if err != nil {
		return contextcache.RemoteHandle{}, fmt.Errorf("vertex get cached content %s: %w", name, err)
	}
	return toRemoteHandle(out), nil
}

func (s *CachedContentService) Delete(ctx context.Context, name string) error {
	_, err := s.svc.Projects.Locations.CachedContents.Delete(name).Context(ctx).Do()
	if isNotFound(err) {
		return &contextcache.NotFoundError{HandleID: name}
	}
	if err != nil {
		return fmt.Errorf("vertex delete cached content %s: %w", name, err)
	}
	return nil
}

func toRemoteHandle(c *aiplatform.GoogleCloudAiplatformV1CachedContent) contextcache.RemoteHandle {
	return contextcache.RemoteHandle{
		Name:        c.Name,
		Model:       modelID(c.Model),
		DisplayName: c.DisplayName,
		CreateTime:  parseTime(c.CreateTime),
		ExpireTime:  parseTime(c.ExpireTime),
	}
}

// formatTTL renders a duration in the protobuf JSON form, e.g. "3600s".
func formatTTL(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}
	}
	return t
}

func modelID(resource string) string {
	if i := strings.LastIndex(resource, "/models/"); i >= 0 {
		return resource[i+len("/models/"):]
	}
	return resource
}
