package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/http/response"
	"github.com/yungbote/neurobridge-curriculum/internal/modules/materials"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/apierr"
	"github.com/yungbote/neurobridge-curriculum/internal/platform/logger"
)

type Stager interface {
	Stage(ctx context.Context, namespace string, files []materials.FileRef) ([]materials.StagedFile, error)
}

type MaterialHandler struct {
	log            *logger.Logger
	stager         Stager
	maxUploadBytes int64
}

func NewMaterialHandler(log *logger.Logger, stager Stager, maxUploadBytes int64) *MaterialHandler {
	return &MaterialHandler{
		log:            log.With("handler", "MaterialHandler"),
		stager:         stager,
		maxUploadBytes: maxUploadBytes,
	}
}

// StageMaterials accepts multipart "files" plus an optional "namespace" field.
func (h *MaterialHandler) StageMaterials(c *gin.Context) {
	refs, cleanup, err := saveUploads(c, h.maxUploadBytes)
	defer cleanup()
	if err != nil {
		response.RespondErr(c, err)
		return
	}
	if len(refs) == 0 {
		response.RespondErr(c, apierr.BadRequest("no_files", "at least one file is required"))
		return
	}

	staged, err := h.stager.Stage(c.Request.Context(), strings.TrimSpace(c.PostForm("namespace")), refs)
	if err != nil {
		h.log.Warn("Staging failed", "files", len(refs), "error", err)
		response.RespondErr(c, err)
		return
	}
	response.RespondOK(c, gin.H{"files": staged})
}
