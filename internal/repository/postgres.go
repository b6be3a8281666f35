package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recognition-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements persistence for corrections, the training queue and
// the curated known-location table on PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateCorrection appends a correction record. Corrections are never
// updated or deleted.
func (r *Repository) CreateCorrection(ctx context.Context, c models.Correction) error {
	var lat, lng *float64
	if c.Coordinates != nil {
		lat = &c.Coordinates.Latitude
		lng = &c.Coordinates.Longitude
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO corrections (
			id, original_address, correct_address, latitude, longitude,
			image_ref, device_id, method, confidence, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.OriginalAddress, c.CorrectAddress, lat, lng,
		c.ImageRef, c.DeviceID, c.Method, c.Confidence, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to insert correction: %w", err)
	}
	return nil
}

// FindCorrectionNear returns the newest correction whose coordinates fall
// inside the degree box |Δlat| < radius AND |Δlng| < radius around the given
// point, or nil when none exists. Raw degree deltas, not geodesic distance.
func (r *Repository) FindCorrectionNear(ctx context.Context, coords models.Coordinates, radiusDeg float64) (*models.Correction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, original_address, correct_address, latitude, longitude,
		       image_ref, device_id, method, confidence, created_at
		FROM corrections
		WHERE latitude IS NOT NULL
		  AND abs(latitude - $1) < $3
		  AND abs(longitude - $2) < $3
		ORDER BY created_at DESC
		LIMIT 1`,
		coords.Latitude, coords.Longitude, radiusDeg,
	)

	correction, err := scanCorrection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to query correction: %w", err)
	}
	return correction, nil
}

// ListCorrectionsWithCoordinates returns all corrections carrying corrected
// coordinates, oldest first, for queue reconciliation.
func (r *Repository) ListCorrectionsWithCoordinates(ctx context.Context) ([]models.Correction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, original_address, correct_address, latitude, longitude,
		       image_ref, device_id, method, confidence, created_at
		FROM corrections
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query corrections: %w", err)
	}
	defer rows.Close()

	var corrections []models.Correction
	for rows.Next() {
		correction, err := scanCorrection(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan correction: %w", err)
		}
		corrections = append(corrections, *correction)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating corrections: %w", err)
	}
	return corrections, nil
}

func scanCorrection(row pgx.Row) (*models.Correction, error) {
	var c models.Correction
	var lat, lng *float64
	err := row.Scan(
		&c.ID, &c.OriginalAddress, &c.CorrectAddress, &lat, &lng,
		&c.ImageRef, &c.DeviceID, &c.Method, &c.Confidence, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		c.Coordinates = &models.Coordinates{Latitude: *lat, Longitude: *lng}
	}
	return &c, nil
}

// FindQueueItem looks up an existing queue item by its dedup key
// (image ref, coordinates). Returns nil when absent.
func (r *Repository) FindQueueItem(ctx context.Context, imageRef string, coords models.Coordinates) (*models.TrainingQueueItem, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, image_ref, latitude, longitude, address, device_id,
		       status, error, created_at, processed_at
		FROM training_queue
		WHERE image_ref = $1 AND latitude = $2 AND longitude = $3
		LIMIT 1`,
		imageRef, coords.Latitude, coords.Longitude,
	)

	item, err := scanQueueItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("repository: failed to query queue item: %w", err)
	}
	return item, nil
}

// EnqueueTraining inserts a PENDING queue item and returns its id.
func (r *Repository) EnqueueTraining(ctx context.Context, item models.TrainingQueueItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO training_queue (
			image_ref, latitude, longitude, address, device_id, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		item.ImageRef, item.Coordinates.Latitude, item.Coordinates.Longitude,
		item.Address, item.DeviceID, models.QueuePending, item.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to enqueue training item: %w", err)
	}
	return id, nil
}

// PendingQueueItems returns up to limit PENDING items, oldest first.
func (r *Repository) PendingQueueItems(ctx context.Context, limit int) ([]models.TrainingQueueItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, image_ref, latitude, longitude, address, device_id,
		       status, error, created_at, processed_at
		FROM training_queue
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2`,
		models.QueuePending, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query pending items: %w", err)
	}
	defer rows.Close()

	var items []models.TrainingQueueItem
	for rows.Next() {
		item, err := scanQueueItem(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan queue item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating queue items: %w", err)
	}
	return items, nil
}

// MarkQueueSent transitions an item to SENT and stamps its processing time.
func (r *Repository) MarkQueueSent(ctx context.Context, id int64, processedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE training_queue
		SET status = $2, error = '', processed_at = $3
		WHERE id = $1`,
		id, models.QueueSent, processedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to mark item sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository: queue item %d not found", id)
	}
	return nil
}

// MarkQueueFailed transitions an item to FAILED retaining the delivery
// error. Failed items stay in the table and are eligible for retry.
func (r *Repository) MarkQueueFailed(ctx context.Context, id int64, deliveryErr string, processedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE training_queue
		SET status = $2, error = $3, processed_at = $4
		WHERE id = $1`,
		id, models.QueueFailed, deliveryErr, processedAt,
	)
	if err != nil {
		return fmt.Errorf("repository: failed to mark item failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repository: queue item %d not found", id)
	}
	return nil
}

// RequeueFailed flips FAILED items back to PENDING for another delivery
// attempt.
func (r *Repository) RequeueFailed(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE training_queue
		SET status = $1, processed_at = NULL
		WHERE status = $2`,
		models.QueuePending, models.QueueFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to requeue failed items: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountQueueByStatus aggregates queue items per lifecycle state.
func (r *Repository) CountQueueByStatus(ctx context.Context) (models.QueueCounts, error) {
	rows, err := r.db.Query(ctx, `
		SELECT status, COUNT(*) FROM training_queue GROUP BY status`,
	)
	if err != nil {
		return models.QueueCounts{}, fmt.Errorf("repository: failed to count queue items: %w", err)
	}
	defer rows.Close()

	var counts models.QueueCounts
	for rows.Next() {
		var status models.QueueStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return models.QueueCounts{}, fmt.Errorf("repository: failed to scan queue count: %w", err)
		}
		switch status {
		case models.QueuePending:
			counts.Pending = count
		case models.QueueSent:
			counts.Sent = count
		case models.QueueFailed:
			counts.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return models.QueueCounts{}, fmt.Errorf("repository: error iterating queue counts: %w", err)
	}
	return counts, nil
}

func scanQueueItem(row pgx.Row) (*models.TrainingQueueItem, error) {
	var item models.TrainingQueueItem
	err := row.Scan(
		&item.ID, &item.ImageRef, &item.Coordinates.Latitude, &item.Coordinates.Longitude,
		&item.Address, &item.DeviceID, &item.Status, &item.Error,
		&item.CreatedAt, &item.ProcessedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListKnownLocations loads the curated known-location table. Entries are
// loaded once at startup and treated as immutable at request time.
func (r *Repository) ListKnownLocations(ctx context.Context) ([]models.KnownLocationEntry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, canonical_key, name, address, latitude, longitude, aliases, phone
		FROM known_locations
		ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query known locations: %w", err)
	}
	defer rows.Close()

	var entries []models.KnownLocationEntry
	for rows.Next() {
		var e models.KnownLocationEntry
		err := rows.Scan(
			&e.ID, &e.CanonicalKey, &e.Name, &e.Address,
			&e.Coordinates.Latitude, &e.Coordinates.Longitude, &e.Aliases, &e.Phone,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan known location: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating known locations: %w", err)
	}
	return entries, nil
}
