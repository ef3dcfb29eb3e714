package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mutua-sr/apptwo-sub001/internal/calls"
)

// AdminHandlers provides operator-facing endpoints.
type AdminHandlers struct {
	calls *calls.Service
	log   *zerolog.Logger
}

// NewAdminHandlers creates a new admin handlers instance.
func NewAdminHandlers(callService *calls.Service, logger *zerolog.Logger) *AdminHandlers {
	return &AdminHandlers{calls: callService, log: logger}
}

// CleanupResponse reports the result of a stale-session sweep.
type CleanupResponse struct {
	Deleted int `json:"deleted"`
}

// Cleanup runs a stale call-session sweep and reports the deleted count.
// POST /api/admin/cleanup
func (h *AdminHandlers) Cleanup(c *gin.Context) {
	deleted, err := h.calls.CleanupSessions(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("cleanup sweep failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, CleanupResponse{Deleted: deleted})
}
