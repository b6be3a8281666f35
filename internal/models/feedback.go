package models

import "time"

// Correction is a user-submitted fix for a wrong recognition result.
// Records are append-only; later corrections for the same coordinate bucket
// shadow earlier ones at lookup time.
type Correction struct {
	ID              string       `json:"id"`
	OriginalAddress string       `json:"original_address"`
	CorrectAddress  string       `json:"correct_address"`
	Coordinates     *Coordinates `json:"coordinates,omitempty"`
	ImageRef        string       `json:"image_ref,omitempty"`
	DeviceID        string       `json:"device_id,omitempty"`
	Method          string       `json:"method"`
	Confidence      float64      `json:"confidence"`
	CreatedAt       time.Time    `json:"created_at"`
}

// QueueStatus is the lifecycle state of a training queue item.
type QueueStatus string

const (
	QueuePending QueueStatus = "PENDING"
	QueueSent    QueueStatus = "SENT"
	QueueFailed  QueueStatus = "FAILED"
)

// TrainingQueueItem is one verified correction awaiting delivery to the
// external trainer. Items transition PENDING -> SENT or PENDING -> FAILED
// (with the delivery error retained) and are never silently dropped.
// Two items are duplicates when (ImageRef, Coordinates) match.
type TrainingQueueItem struct {
	ID          int64       `json:"id"`
	ImageRef    string      `json:"image_ref"`
	Coordinates Coordinates `json:"coordinates"`
	Address     string      `json:"address"`
	DeviceID    string      `json:"device_id"`
	Status      QueueStatus `json:"status"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	ProcessedAt *time.Time  `json:"processed_at,omitempty"`
}

// QueueCounts aggregates queue items by lifecycle state.
type QueueCounts struct {
	Pending int `json:"pending"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
}

// TrainerStats is the external trainer's view of its own backlog and model.
type TrainerStats struct {
	QueueSize    int    `json:"queue_size"`
	ModelVersion string `json:"model_version"`
	Healthy      bool   `json:"healthy"`
}

// SyncResult reports one reconciliation pass from feedback into the queue.
type SyncResult struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

// ProcessResult reports one delivery batch against the external trainer.
type ProcessResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
}
