// Package http provides the request/response API for session lifecycle
// and sandboxed code execution.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/codepair/backend/internal/domain/session"
	"github.com/codepair/backend/internal/exec"
	"github.com/codepair/backend/internal/infrastructure/logging"
	"github.com/codepair/backend/internal/infrastructure/monitoring"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	store     *session.Store
	executors *exec.Registry
	log       *logging.Logger
	metrics   *monitoring.Metrics
}

// NewHandlers creates a new handler set.
func NewHandlers(store *session.Store, executors *exec.Registry, log *logging.Logger, metrics *monitoring.Metrics) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{
		store:     store,
		executors: executors,
		log:       log,
		metrics:   metrics,
	}
}

// Health handles the health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.store.Count(),
	})
}

// CreateSession allocates a fresh session. It always succeeds.
func (h *Handlers) CreateSession(c *gin.Context) {
	snap := h.store.Create()

	if h.metrics != nil {
		h.metrics.SessionsCreated.Inc()
		h.metrics.SessionsActive.Set(float64(h.store.Count()))
	}
	h.log.Info("created session", zap.String("session_id", snap.ID))

	c.JSON(http.StatusOK, gin.H{"sessionId": snap.ID})
}

// GetSession returns the full session view or a user-visible 404.
func (h *Handlers) GetSession(c *gin.Context) {
	snap, ok := h.store.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// executeRequest is the body of POST /api/execute.
type executeRequest struct {
	SessionID string           `json:"sessionId"`
	Language  session.Language `json:"language" binding:"required"`
	Code      string           `json:"code"`
}

// Execute runs the submitted program through the matching sandboxed
// executor. A failing program is a 422 with the failure text in stderr;
// 5xx is reserved for executor faults.
func (h *Handlers) Execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !req.Language.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language"})
		return
	}

	// Serialize runs per session when a session id is supplied, per
	// client IP otherwise.
	key := req.SessionID
	if key == "" {
		key = c.ClientIP()
	}

	result, err := h.executors.Run(c.Request.Context(), key, req.Language, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, exec.ErrBusy):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "execution already in flight"})
		case errors.Is(err, exec.ErrUnknownLanguage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported language"})
		default:
			h.log.Error("executor fault", zap.String("language", string(req.Language)), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "execution unavailable"})
		}
		if h.metrics != nil {
			h.metrics.RecordExecution(string(req.Language), "fault", 0)
		}
		return
	}

	status := http.StatusOK
	outcome := "ok"
	if result.Failed {
		status = http.StatusUnprocessableEntity
		outcome = "failed"
	}
	if h.metrics != nil {
		h.metrics.RecordExecution(string(req.Language), outcome, result.Duration)
	}

	c.JSON(status, gin.H{
		"stdout":      result.Stdout,
		"stderr":      result.Stderr,
		"duration_ms": result.Duration.Milliseconds(),
	})
}
