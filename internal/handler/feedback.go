package handler

import (
	"context"
	"errors"
	"net/http"

	"recognition-api/internal/service"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler handles correction submissions
type FeedbackHandler struct {
	service FeedbackService
}

// Service interface for dependency injection
type FeedbackService interface {
	SubmitFeedback(ctx context.Context, req service.FeedbackRequest) (service.FeedbackResult, error)
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(svc FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// SubmitFeedback handles POST /api/v1/feedback requests. Field-level
// validation failures come back as 400 with the offending field named.
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var req service.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.service.SubmitFeedback(c.Request.Context(), req)
	if err != nil {
		var validationErr *service.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": validationErr.Message,
				"field": validationErr.Field,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusAccepted, result)
}
