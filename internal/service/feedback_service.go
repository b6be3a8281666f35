package service

import (
	"context"
	"fmt"
	"time"

	"recognition-api/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// FeedbackRequest is a user-submitted correction at the service boundary.
type FeedbackRequest struct {
	OriginalAddress string              `json:"original_address"`
	CorrectAddress  string              `json:"correct_address"`
	Coordinates     *models.Coordinates `json:"coordinates"`
	ImageRef        string              `json:"image_ref"`
	DeviceID        string              `json:"device_id"`
}

// FeedbackResult reports whether the correction was stored and whether it
// was queued for training.
type FeedbackResult struct {
	Accepted     bool   `json:"accepted"`
	CorrectionID string `json:"correction_id"`
	Queued       bool   `json:"queued"`
}

// ValidationError is a field-level rejection at the boundary. Malformed
// feedback is never coerced into defaults that could corrupt the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Message)
}

// CorrectionWriter interface for dependency injection
type CorrectionWriter interface {
	CreateCorrection(ctx context.Context, c models.Correction) error
}

// QueueWriter interface for dependency injection
type QueueWriter interface {
	FindQueueItem(ctx context.Context, imageRef string, coords models.Coordinates) (*models.TrainingQueueItem, error)
	EnqueueTraining(ctx context.Context, item models.TrainingQueueItem) (int64, error)
}

// FeedbackService records user corrections and feeds verified ones into the
// training queue.
type FeedbackService struct {
	corrections CorrectionWriter
	queue       QueueWriter
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(corrections CorrectionWriter, queue QueueWriter) *FeedbackService {
	return &FeedbackService{corrections: corrections, queue: queue}
}

// SubmitFeedback validates and stores one correction. When the correction
// carries both an image reference and coordinates it is also enqueued for
// training, unless an item with the same (imageRef, coordinates) key is
// already queued.
func (s *FeedbackService) SubmitFeedback(ctx context.Context, req FeedbackRequest) (FeedbackResult, error) {
	if req.CorrectAddress == "" {
		return FeedbackResult{}, &ValidationError{Field: "correct_address", Message: "must not be empty"}
	}
	if req.Coordinates == nil {
		return FeedbackResult{}, &ValidationError{Field: "coordinates", Message: "must be present"}
	}
	if req.Coordinates.Latitude < -90 || req.Coordinates.Latitude > 90 {
		return FeedbackResult{}, &ValidationError{Field: "coordinates.latitude", Message: fmt.Sprintf("out of range: %f", req.Coordinates.Latitude)}
	}
	if req.Coordinates.Longitude < -180 || req.Coordinates.Longitude > 180 {
		return FeedbackResult{}, &ValidationError{Field: "coordinates.longitude", Message: fmt.Sprintf("out of range: %f", req.Coordinates.Longitude)}
	}

	correction := models.Correction{
		ID:              uuid.NewString(),
		OriginalAddress: req.OriginalAddress,
		CorrectAddress:  req.CorrectAddress,
		Coordinates:     req.Coordinates,
		ImageRef:        req.ImageRef,
		DeviceID:        req.DeviceID,
		Method:          "user-correction",
		Confidence:      1.0,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.corrections.CreateCorrection(ctx, correction); err != nil {
		return FeedbackResult{}, fmt.Errorf("service: failed to store correction: %w", err)
	}

	result := FeedbackResult{Accepted: true, CorrectionID: correction.ID}

	if req.ImageRef == "" {
		return result, nil
	}

	existing, err := s.queue.FindQueueItem(ctx, req.ImageRef, *req.Coordinates)
	if err != nil {
		// The correction is stored; queueing can catch up on the next sync.
		log.Warn().Err(err).Msg("queue dedup check failed, correction stored without queueing")
		return result, nil
	}
	if existing != nil {
		log.Debug().Int64("queue_id", existing.ID).Msg("correction already queued")
		return result, nil
	}

	_, err = s.queue.EnqueueTraining(ctx, models.TrainingQueueItem{
		ImageRef:    req.ImageRef,
		Coordinates: *req.Coordinates,
		Address:     req.CorrectAddress,
		DeviceID:    req.DeviceID,
		Status:      models.QueuePending,
		CreatedAt:   correction.CreatedAt,
	})
	if err != nil {
		log.Warn().Err(err).Msg("enqueue failed, correction stored without queueing")
		return result, nil
	}

	result.Queued = true
	return result, nil
}
