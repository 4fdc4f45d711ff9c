package contextcache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type Config struct {
	Model              string
	DefaultTTL         time.Duration
	DefaultInstruction string
	DisplayNamePrefix  string
	Namespace          string
}

type CreateInput struct {
	Files []materials.FileRef
	// Namespace overrides the stager's default namespace.
	Namespace string
	// ModelID overrides Config.Model.
	ModelID string
	// Instruction overrides Config.DefaultInstruction.
	Instruction string
	TTL         time.Duration
}

// ContextCache owns the lifecycle of cache handles. It keeps no expiry clock of its
// own: the TTL is passed through and the managed-context service enforces it.
//
// A create cancelled mid-flight can leave staged objects or a remote cache without
// a local record. Those are reclaimed by TTL expiry or manual cleanup.
type ContextCache struct {
	log      *logger.Logger
	stager   *materials.Stager
	remote   ManagedContext
	registry Registry
	recorder HandleRecorder
	cfg      Config
	now      func() time.Time
	tracer   trace.Tracer
}

type Option func(*ContextCache)

func WithRegistry(r Registry) Option { return func(c *ContextCache) { c.registry = r } }

func WithHandleRecorder(r HandleRecorder) Option { return func(c *ContextCache) { c.recorder = r } }

func WithClock(now func() time.Time) Option { return func(c *ContextCache) { c.now = now } }

func New(log *logger.Logger, stager *materials.Stager, remote ManagedContext, cfg Config, opts ...Option) (*ContextCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if stager == nil {
		return nil, fmt.Errorf("stager required")
	}
	if remote == nil {
		return nil, fmt.Errorf("managed context required")
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}
	if strings.TrimSpace(cfg.DisplayNamePrefix) == "" {
		cfg.DisplayNamePrefix = "lesson-materials"
	}
	c := &ContextCache{
		log:    log.With("service", "ContextCache"),
		stager: stager,
		remote: remote,
		cfg:    cfg,
		now:    time.Now,
		tracer: otel.Tracer("github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *ContextCache) DefaultTTL() time.Duration { return c.cfg.DefaultTTL }

// Create stages the files and wraps them in a new managed context. Validation
// failures (no files, non-positive TTL, no model) return before any remote call.
func (c *ContextCache) Create(ctx context.Context, in CreateInput) (CacheHandle, error) {
	if len(in.Files) == 0 {
		return CacheHandle{}, ErrEmptyCache
	}
	if in.TTL <= 0 {
		return CacheHandle{}, fmt.Errorf("%w (got %s)", ErrInvalidTTL, in.TTL)
	}
	model := strings.TrimSpace(in.ModelID)
	if model == "" {
		model = strings.TrimSpace(c.cfg.Model)
	}
	if model == "" {
		return CacheHandle{}, fmt.Errorf("cache create: model id is required")
	}
	instruction := strings.TrimSpace(in.Instruction)
	if instruction == "" {
		instruction = c.cfg.DefaultInstruction
	}
	namespace := in.Namespace
	if strings.TrimSpace(namespace) == "" {
		namespace = c.cfg.Namespace
	}

	ctx, span := c.tracer.Start(ctx, "contextcache.Create", trace.WithAttributes(
		attribute.String("model", model),
		attribute.Int("files", len(in.Files)),
		attribute.String("ttl", in.TTL.String()),
	))
	defer span.End()

	c.log.Info("Creating context cache", "file_count", len(in.Files), "model", model)
	staged, err := c.stager.Stage(ctx, namespace, in.Files)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stage")
		return CacheHandle{}, err
	}

	contents := make([]ContentRef, 0, len(staged))
	for _, f := range staged {
		contents = append(contents, ContentRef{URI: f.StorageURI, MimeType: f.MimeType})
	}
	displayName := c.displayName(in.Files[0])

	started := c.now()
	remote, err := c.remote.Create(ctx, CreateParams{
		ModelID:     model,
		Instruction: instruction,
		Contents:    contents,
		TTL:         in.TTL,
		DisplayName: displayName,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote create")
		c.log.Error("Failed to create context cache", "model", model, "error", err)
		return CacheHandle{}, &CacheError{Op: "create", Cause: err}
	}

	h := CacheHandle{
		HandleID:        remote.Name,
		BackingModel:    firstNonEmpty(remote.Model, model),
		StagedFiles:     staged,
		InstructionText: instruction,
		CreatedAt:       remote.CreateTime,
		ExpiresAt:       remote.ExpireTime,
		DisplayName:     firstNonEmpty(remote.DisplayName, displayName),
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = started
	}
	if !h.ExpiresAt.After(h.CreatedAt) {
		h.ExpiresAt = h.CreatedAt.Add(in.TTL)
	}
	span.SetAttributes(attribute.String("handle_id", h.HandleID))

	if c.registry != nil {
		if err := c.registry.Put(ctx, h); err != nil {
			c.log.Warn("Failed to register cache handle", "handle_id", h.HandleID, "error", err)
		}
	}
	if c.recorder != nil {
		if err := c.recorder.RecordHandle(ctx, h); err != nil {
			c.log.Warn("Failed to record cache handle", "handle_id", h.HandleID, "error", err)
		}
	}

	c.log.Info("Context cache created",
		"handle_id", h.HandleID,
		"file_count", len(staged),
		"ttl", in.TTL.String(),
		"expires_at", h.ExpiresAt,
	)
	return h, nil
}

// Info looks a handle up. Missing and expired handles both yield ErrCacheNotFound.
func (c *ContextCache) Info(ctx context.Context, handleID string) (Info, error) {
	handleID = strings.TrimSpace(handleID)
	if handleID == "" {
		return Info{}, &NotFoundError{HandleID: handleID}
	}
	ctx, span := c.tracer.Start(ctx, "contextcache.Info", trace.WithAttributes(attribute.String("handle_id", handleID)))
	defer span.End()

	if c.registry != nil {
		local, ok, err := c.registry.Get(ctx, handleID)
		if err != nil {
			c.log.Warn("Cache registry lookup failed", "handle_id", handleID, "error", err)
		} else if ok && local.Expired(c.now()) {
			c.forget(ctx, handleID)
			return Info{}, &NotFoundError{HandleID: handleID}
		}
	}

	remote, err := c.remote.Get(ctx, handleID)
	if err != nil {
		if errors.Is(err, ErrCacheNotFound) {
			c.forget(ctx, handleID)
			return Info{}, &NotFoundError{HandleID: handleID}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote get")
		c.log.Error("Failed to get cache info", "handle_id", handleID, "error", err)
		return Info{}, &CacheError{Op: "get", HandleID: handleID, Cause: err}
	}
	if !remote.ExpireTime.IsZero() && !c.now().Before(remote.ExpireTime) {
		c.forget(ctx, handleID)
		return Info{}, &NotFoundError{HandleID: handleID}
	}

	displayName := strings.TrimSpace(remote.DisplayName)
	if displayName == "" {
		displayName = "N/A"
	}
	return Info{
		Name:        firstNonEmpty(remote.Name, handleID),
		Model:       remote.Model,
		ExpireTime:  remote.ExpireTime,
		DisplayName: displayName,
	}, nil
}

// Delete is idempotent: an already-deleted or expired handle is a successful no-op.
func (c *ContextCache) Delete(ctx context.Context, handleID string) error {
	handleID = strings.TrimSpace(handleID)
	if handleID == "" {
		return nil
	}
	ctx, span := c.tracer.Start(ctx, "contextcache.Delete", trace.WithAttributes(attribute.String("handle_id", handleID)))
	defer span.End()

	if err := c.remote.Delete(ctx, handleID); err != nil && !errors.Is(err, ErrCacheNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote delete")
		c.log.Error("Failed to delete cache", "handle_id", handleID, "error", err)
		return &CacheError{Op: "delete", HandleID: handleID, Cause: err}
	}
	c.forget(ctx, handleID)
	c.log.Info("Context cache deleted", "handle_id", handleID)
	return nil
}

func (c *ContextCache) forget(ctx context.Context, handleID string) {
	if c.registry != nil {
		if err := c.registry.Delete(ctx, handleID); err != nil {
			c.log.Warn("Failed to drop cache handle from registry", "handle_id", handleID, "error", err)
		}
	}
	if c.recorder != nil {
		if err := c.recorder.MarkHandleDeleted(ctx, handleID); err != nil {
			c.log.Warn("Failed to mark cache handle deleted", "handle_id", handleID, "error", err)
		}
	}
}

func (c *ContextCache) displayName(first materials.FileRef) string {
	name := first.OriginalName()
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return c.cfg.DisplayNamePrefix + "-" + stem
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
