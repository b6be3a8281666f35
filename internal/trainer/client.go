package trainer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"recognition-api/internal/models"
)

// Client talks to the external ML trainer over HTTP. The trainer exposes
// three operations: enqueue feedback, trigger retraining, and stats.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a trainer client with its own call timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type feedbackRequest struct {
	ImageRef  string  `json:"image_ref"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	DeviceID  string  `json:"device_id,omitempty"`
}

type feedbackResponse struct {
	QueueSize int `json:"queue_size"`
}

// SendFeedback delivers one verified correction to the trainer's backlog.
// Returns the trainer's reported queue size.
func (c *Client) SendFeedback(ctx context.Context, item models.TrainingQueueItem) (int, error) {
	body, err := json.Marshal(feedbackRequest{
		ImageRef:  item.ImageRef,
		Latitude:  item.Coordinates.Latitude,
		Longitude: item.Coordinates.Longitude,
		Address:   item.Address,
		DeviceID:  item.DeviceID,
	})
	if err != nil {
		return 0, fmt.Errorf("trainer: failed to marshal feedback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/feedback", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("trainer: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("trainer: failed to send feedback: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("trainer: feedback rejected (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result feedbackResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("trainer: failed to parse feedback response: %w", err)
	}
	return result.QueueSize, nil
}

// TriggerRetrain asks the trainer to retrain on its queued feedback.
func (c *Client) TriggerRetrain(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/retrain", nil)
	if err != nil {
		return fmt.Errorf("trainer: failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("trainer: failed to trigger retrain: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("trainer: retrain rejected (status %d): %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// GetStats reads the trainer's health and backlog stats.
func (c *Client) GetStats(ctx context.Context) (*models.TrainerStats, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/stats", nil)
	if err != nil {
		return nil, fmt.Errorf("trainer: failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trainer: failed to fetch stats: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("trainer: stats error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var stats models.TrainerStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("trainer: failed to parse stats: %w", err)
	}
	return &stats, nil
}
