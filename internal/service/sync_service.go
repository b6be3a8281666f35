package service

import (
	"context"
	"fmt"
	"time"

	"recognition-api/internal/models"

	"github.com/rs/zerolog/log"
)

// SyncRepository interface for dependency injection
type SyncRepository interface {
	ListCorrectionsWithCoordinates(ctx context.Context) ([]models.Correction, error)
	FindQueueItem(ctx context.Context, imageRef string, coords models.Coordinates) (*models.TrainingQueueItem, error)
	EnqueueTraining(ctx context.Context, item models.TrainingQueueItem) (int64, error)
	PendingQueueItems(ctx context.Context, limit int) ([]models.TrainingQueueItem, error)
	MarkQueueSent(ctx context.Context, id int64, processedAt time.Time) error
	MarkQueueFailed(ctx context.Context, id int64, deliveryErr string, processedAt time.Time) error
	RequeueFailed(ctx context.Context) (int64, error)
	CountQueueByStatus(ctx context.Context) (models.QueueCounts, error)
}

// TrainerAPI interface for dependency injection
type TrainerAPI interface {
	SendFeedback(ctx context.Context, item models.TrainingQueueItem) (int, error)
	TriggerRetrain(ctx context.Context) error
	GetStats(ctx context.Context) (*models.TrainerStats, error)
}

// SyncReport combines one full sync-and-process pass.
type SyncReport struct {
	Added            int   `json:"added"`
	Skipped          int   `json:"skipped"`
	Requeued         int64 `json:"requeued"`
	Processed        int   `json:"processed"`
	Sent             int   `json:"sent"`
	Failed           int   `json:"failed"`
	RetrainTriggered bool  `json:"retrain_triggered"`
}

// QueueStats combines local queue counts with the trainer's reported health.
type QueueStats struct {
	Pending int                 `json:"pending"`
	Sent    int                 `json:"sent"`
	Failed  int                 `json:"failed"`
	Trainer models.TrainerStats `json:"trainer"`
}

// QueueSyncService reconciles verified corrections into the durable
// training queue and drives delivery to the external trainer.
//
// The dedup check in SyncFromFeedback is read-then-write; callers must
// serialize sync invocations (one process, or an external lock). Duplicate
// protection does not hold across concurrent passes.
type QueueSyncService struct {
	repo            SyncRepository
	trainer         TrainerAPI
	batchSize       int
	retrainMinQueue int
}

// NewQueueSyncService creates a new queue sync service.
func NewQueueSyncService(repo SyncRepository, trainer TrainerAPI, batchSize, retrainMinQueue int) *QueueSyncService {
	return &QueueSyncService{
		repo:            repo,
		trainer:         trainer,
		batchSize:       batchSize,
		retrainMinQueue: retrainMinQueue,
	}
}

// SyncFromFeedback enqueues every correction with coordinates whose
// (imageRef, coordinates) key is not already queued. Running it twice with
// no new feedback in between adds nothing the second time.
func (s *QueueSyncService) SyncFromFeedback(ctx context.Context) (models.SyncResult, error) {
	corrections, err := s.repo.ListCorrectionsWithCoordinates(ctx)
	if err != nil {
		return models.SyncResult{}, fmt.Errorf("service: failed to list corrections: %w", err)
	}

	var result models.SyncResult
	for _, c := range corrections {
		if c.ImageRef == "" || c.Coordinates == nil {
			result.Skipped++
			continue
		}

		existing, err := s.repo.FindQueueItem(ctx, c.ImageRef, *c.Coordinates)
		if err != nil {
			return result, fmt.Errorf("service: dedup check failed: %w", err)
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		_, err = s.repo.EnqueueTraining(ctx, models.TrainingQueueItem{
			ImageRef:    c.ImageRef,
			Coordinates: *c.Coordinates,
			Address:     c.CorrectAddress,
			DeviceID:    c.DeviceID,
			Status:      models.QueuePending,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return result, fmt.Errorf("service: failed to enqueue correction %s: %w", c.ID, err)
		}
		result.Added++
	}

	log.Info().Int("added", result.Added).Int("skipped", result.Skipped).Msg("feedback sync completed")
	return result, nil
}

// ProcessQueue delivers up to batchSize PENDING items to the trainer,
// oldest first and sequentially. Every attempted item ends SENT or FAILED
// with its error retained; one item's failure never aborts the batch.
func (s *QueueSyncService) ProcessQueue(ctx context.Context, batchSize int) (models.ProcessResult, error) {
	if batchSize <= 0 {
		batchSize = s.batchSize
	}

	items, err := s.repo.PendingQueueItems(ctx, batchSize)
	if err != nil {
		return models.ProcessResult{}, fmt.Errorf("service: failed to load pending items: %w", err)
	}

	var result models.ProcessResult
	for _, item := range items {
		result.Processed++
		now := time.Now().UTC()

		if _, sendErr := s.trainer.SendFeedback(ctx, item); sendErr != nil {
			result.Failed++
			log.Warn().Err(sendErr).Int64("queue_id", item.ID).Msg("delivery to trainer failed")
			if markErr := s.repo.MarkQueueFailed(ctx, item.ID, sendErr.Error(), now); markErr != nil {
				return result, fmt.Errorf("service: failed to record delivery failure: %w", markErr)
			}
			continue
		}

		if markErr := s.repo.MarkQueueSent(ctx, item.ID, now); markErr != nil {
			return result, fmt.Errorf("service: failed to record delivery: %w", markErr)
		}
		result.Sent++
	}

	log.Info().
		Int("processed", result.Processed).
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Msg("queue batch processed")
	return result, nil
}

// TriggerRetrain asks the trainer to retrain when the local queue has
// reached the configured minimum of delivered items. Reports whether the
// retrain was actually triggered.
func (s *QueueSyncService) TriggerRetrain(ctx context.Context) (bool, error) {
	counts, err := s.repo.CountQueueByStatus(ctx)
	if err != nil {
		return false, fmt.Errorf("service: failed to count queue: %w", err)
	}

	if counts.Sent < s.retrainMinQueue {
		log.Debug().Int("sent", counts.Sent).Int("min", s.retrainMinQueue).Msg("retrain threshold not reached")
		return false, nil
	}

	if err := s.trainer.TriggerRetrain(ctx); err != nil {
		return false, fmt.Errorf("service: retrain trigger failed: %w", err)
	}
	return true, nil
}

// SyncAndProcess runs one full pass: flip FAILED items back to PENDING,
// reconcile feedback into the queue, deliver a batch, then trigger
// retraining if warranted. Requeueing first is what makes earlier delivery
// failures eligible for retry on this pass.
func (s *QueueSyncService) SyncAndProcess(ctx context.Context) (SyncReport, error) {
	requeued, err := s.repo.RequeueFailed(ctx)
	if err != nil {
		return SyncReport{}, fmt.Errorf("service: failed to requeue failed items: %w", err)
	}
	if requeued > 0 {
		log.Info().Int64("requeued", requeued).Msg("failed items returned to the queue")
	}

	sync, err := s.SyncFromFeedback(ctx)
	if err != nil {
		return SyncReport{Requeued: requeued}, err
	}

	processed, err := s.ProcessQueue(ctx, s.batchSize)
	report := SyncReport{
		Added:     sync.Added,
		Skipped:   sync.Skipped,
		Requeued:  requeued,
		Processed: processed.Processed,
		Sent:      processed.Sent,
		Failed:    processed.Failed,
	}
	if err != nil {
		return report, err
	}

	triggered, err := s.TriggerRetrain(ctx)
	if err != nil {
		// Delivery already happened; surface the counts with the error.
		return report, err
	}
	report.RetrainTriggered = triggered

	return report, nil
}

// Stats exposes the queue's per-status totals together with the trainer's
// own health and backlog. A trainer outage degrades the trainer section to
// its unhealthy zero value; the local counts still come back.
func (s *QueueSyncService) Stats(ctx context.Context) (QueueStats, error) {
	counts, err := s.repo.CountQueueByStatus(ctx)
	if err != nil {
		return QueueStats{}, fmt.Errorf("service: failed to count queue: %w", err)
	}

	stats := QueueStats{Pending: counts.Pending, Sent: counts.Sent, Failed: counts.Failed}

	trainerStats, err := s.trainer.GetStats(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("trainer stats unavailable")
		return stats, nil
	}
	stats.Trainer = *trainerStats

	return stats, nil
}
