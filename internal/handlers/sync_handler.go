package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quizfolio/sync-service/internal/cloudsync"
	"github.com/quizfolio/sync-service/internal/utils"
)

type SyncHandler struct {
	BaseHandler
	orchestrator *cloudsync.Orchestrator
}

func NewSyncHandler(orchestrator *cloudsync.Orchestrator, logger utils.Logger) *SyncHandler {
	return &SyncHandler{
		BaseHandler:  NewBaseHandler(logger),
		orchestrator: orchestrator,
	}
}

// GetStatus returns the orchestrator's current user-visible state.
func (h *SyncHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.orchestrator.CurrentState())
}

// TriggerSync runs an explicit sync cycle. Unlike background syncs, the
// failure is surfaced to the caller as well as recorded in status.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	if err := h.orchestrator.TriggerSync(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Message: "Sync failed",
			Details: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, h.orchestrator.CurrentState())
}

// DismissNotification clears the active import notification.
func (h *SyncHandler) DismissNotification(c *gin.Context) {
	h.orchestrator.DismissNotification()
	c.JSON(http.StatusOK, h.orchestrator.CurrentState())
}
