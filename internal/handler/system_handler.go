package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tutorium/tutorium-backend/internal/response"
	"github.com/tutorium/tutorium-backend/internal/service"
)

// SystemHandler exposes process diagnostics.
type SystemHandler struct {
	sessionService *service.SessionService
	startTime      time.Time
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(sessionService *service.SessionService) *SystemHandler {
	return &SystemHandler{
		sessionService: sessionService,
		startTime:      time.Now(),
	}
}

// GetSessionStats godoc
// GET /api/v1/system/sessions
// Snapshot of the live session cache: size and cached session ids.
func (h *SystemHandler) GetSessionStats(c *gin.Context) {
	size, keys := h.sessionService.CacheStats()

	response.Success(c, http.StatusOK, gin.H{
		"cached_sessions": size,
		"session_ids":     keys,
		"uptime":          time.Since(h.startTime).Round(time.Second).String(),
		"goroutines":      runtime.NumGoroutine(),
	})
}
