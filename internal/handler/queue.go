package handler

import (
	"context"
	"net/http"

	"recognition-api/internal/service"

	"github.com/gin-gonic/gin"
)

// QueueHandler handles training queue operations
type QueueHandler struct {
	service QueueSyncService
}

// Service interface for dependency injection
type QueueSyncService interface {
	SyncAndProcess(ctx context.Context) (service.SyncReport, error)
	Stats(ctx context.Context) (service.QueueStats, error)
}

// NewQueueHandler creates a new queue handler
func NewQueueHandler(svc QueueSyncService) *QueueHandler {
	return &QueueHandler{service: svc}
}

// Sync handles POST /api/v1/queue/sync requests: one reconcile-deliver-
// retrain pass against the external trainer.
func (h *QueueHandler) Sync(c *gin.Context) {
	report, err := h.service.SyncAndProcess(c.Request.Context())
	if err != nil {
		// Partial counts still matter to the operator; include them.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "queue sync failed",
			"report": report,
		})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Stats handles GET /api/v1/queue/stats requests: local queue counts by
// status plus the trainer's reported health.
func (h *QueueHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
