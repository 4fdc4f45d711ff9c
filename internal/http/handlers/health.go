package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-curriculum/internal/http/response"
)

// Capabilities reports which optional backends this process was started with.
type Capabilities struct {
	Generation bool   `json:"generation"`
	Ledger     bool   `json:"ledger"`
	Registry   string `json:"registry"`
}

type HealthHandler struct {
	caps Capabilities
}

func NewHealthHandler(caps Capabilities) *HealthHandler {
	if caps.Registry == "" {
		caps.Registry = "none"
	}
	return &HealthHandler{caps: caps}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response.RespondOK(c, gin.H{"status": "ok", "capabilities": h.caps})
}
