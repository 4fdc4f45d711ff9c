package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/data/ledger"
	"github.com/yungbote/neurobridge-curriculum/internal/http/response"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/apierr"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type LedgerReader interface {
	ListStaged(dbc dbctx.Context, f ledger.ListFilter) ([]*ledger.StagedFileRecord, error)
	GetHandle(dbc dbctx.Context, id string) (*ledger.CacheHandleRecord, error)
	ListLiveHandles(dbc dbctx.Context, now time.Time) ([]*ledger.CacheHandleRecord, error)
}

type OrphanSweeper interface {
	Sweep(ctx context.Context, in materials.SweepInput) (materials.SweepResult, error)
}

const defaultSweepMinAge = time.Hour

type LedgerHandler struct {
	log     *logger.Logger
	repo    LedgerReader
	sweeper OrphanSweeper
}

// NewLedgerHandler serves the ledger read routes. sweeper may be nil when the
// bucket cannot list objects; the sweep route then answers 503.
func NewLedgerHandler(log *logger.Logger, repo LedgerReader, sweeper OrphanSweeper) *LedgerHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &LedgerHandler{log: log.With("handler", "LedgerHandler"), repo: repo, sweeper: sweeper}
}

func (h *LedgerHandler) ListFiles(c *gin.Context) {
	f := ledger.ListFilter{Namespace: strings.TrimSpace(c.Query("namespace"))}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			response.RespondErr(c, apierr.BadRequest("invalid_limit", "limit must be a positive integer, got %q", raw))
			return
		}
		f.Limit = n
	}
	rows, err := h.repo.ListStaged(dbctx.New(c.Request.Context()), f)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"files": rows})
}

func (h *LedgerHandler) ListHandles(c *gin.Context) {
	rows, err := h.repo.ListLiveHandles(dbctx.New(c.Request.Context()), time.Now())
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"handles": rows})
}

// GetHandle returns the recorded row, deleted ones included.
func (h *LedgerHandler) GetHandle(c *gin.Context) {
	id := handleParam(c)
	if id == "" {
		response.RespondErr(c, apierr.BadRequest("invalid_request", "handle id is required"))
		return
	}
	row, err := h.repo.GetHandle(dbctx.New(c.Request.Context()), id)
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if row == nil {
		response.RespondErr(c, apierr.New(http.StatusNotFound, "cache_not_found", nil))
		return
	}
	response.RespondOK(c, gin.H{"handle": row, "deleted": row.DeletedAt.Valid})
}

type sweepRequest struct {
	Namespace     string `json:"namespace"`
	MinAgeSeconds *int   `json:"min_age_seconds"`
	DryRun        *bool  `json:"dry_run"`
}

// Sweep deletes bucket objects the ledger never recorded. It is a dry run
// unless the body sets dry_run to false.
func (h *LedgerHandler) Sweep(c *gin.Context) {
	if h.sweeper == nil {
		response.RespondErr(c, apierr.Unavailable("sweep_unavailable", "the material bucket cannot list objects"))
		return
	}
	var req sweepRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondErr(c, apierr.New(http.StatusBadRequest, "invalid_json", err))
			return
		}
	}
	in := materials.SweepInput{Namespace: req.Namespace, MinAge: defaultSweepMinAge, DryRun: true}
	if req.MinAgeSeconds != nil {
		if *req.MinAgeSeconds < 0 {
			response.RespondErr(c, apierr.BadRequest("invalid_request", "min_age_seconds must not be negative, got %d", *req.MinAgeSeconds))
			return
		}
		in.MinAge = time.Duration(*req.MinAgeSeconds) * time.Second
	}
	if req.DryRun != nil {
		in.DryRun = *req.DryRun
	}
	res, err := h.sweeper.Sweep(c.Request.Context(), in)
	if err != nil {
		h.log.Warn("Orphan sweep failed", "namespace", in.Namespace, "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, res)
}
