package handlers

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/http/response"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/contextcache"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type CacheService interface {
	Create(ctx context.Context, in contextcache.CreateInput) (contextcache.CacheHandle, error)
	Info(ctx context.Context, handleID string) (contextcache.Info, error)
	Delete(ctx context.Context, handleID string) error
	DefaultTTL() time.Duration
}

type CacheHandler struct {
	log            *logger.Logger
	cache          CacheService
	maxUploadBytes int64
}

func NewCacheHandler(log *logger.Logger, cache CacheService, maxUploadBytes int64) *CacheHandler {
	return &CacheHandler{
		log:            log.With("handler", "CacheHandler"),
		cache:          cache,
		maxUploadBytes: maxUploadBytes,
	}
}

// CreateCache accepts multipart "files" and optional "ttl_seconds", "instruction",
// "model" and "namespace" fields.
func (h *CacheHandler) CreateCache(c *gin.Context) {
	refs, cleanup, err := saveUploads(c, h.maxUploadBytes)
	defer cleanup()
	if err != nil {
		response.RespondErr(c, err)
		return
	}

	ttl := h.cache.DefaultTTL()
	if raw := strings.TrimSpace(c.PostForm("ttl_seconds")); raw != "" {
		secs, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || secs <= 0 || secs > math.MaxInt64/int64(time.Second) {
			response.RespondErr(c, fmt.Errorf("%w: ttl_seconds %q must be a positive number of seconds within range", contextcache.ErrInvalidTTL, raw))
			return
		}
		ttl = time.Duration(secs) * time.Second
	}

	handle, err := h.cache.Create(c.Request.Context(), contextcache.CreateInput{
		Files:       refs,
		Namespace:   strings.TrimSpace(c.PostForm("namespace")),
		ModelID:     strings.TrimSpace(c.PostForm("model")),
		Instruction: c.PostForm("instruction"),
		TTL:         ttl,
	})
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondCreated(c, handle)
}

func (h *CacheHandler) GetCache(c *gin.Context) {
	info, err := h.cache.Info(c.Request.Context(), handleParam(c))
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, info)
}

func (h *CacheHandler) DeleteCache(c *gin.Context) {
	if err := h.cache.Delete(c.Request.Context(), handleParam(c)); err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondNoContent(c)
}

// handleParam reads the catch-all id; handle ids contain slashes.
func handleParam(c *gin.Context) string {
	return strings.Trim(c.Param("id"), "/")
}
