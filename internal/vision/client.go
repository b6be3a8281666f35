package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"recognition-api/internal/signals"
)

// Client calls the external vision-detection service, which returns scored
// labels, landmarks, logos and text blocks for an image.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a vision client with its own call timeout. A vision
// timeout only means "no candidate from this source".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type detectResponse struct {
	Landmarks []struct {
		Description string  `json:"description"`
		Score       float64 `json:"score"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	} `json:"landmarks"`
	Logos []struct {
		Description string  `json:"description"`
		Score       float64 `json:"score"`
	} `json:"logos"`
	TextBlocks []string `json:"text_blocks"`
}

// Detect submits image bytes for detection.
func (c *Client) Detect(ctx context.Context, image []byte) (*signals.VisionPayload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/detect", bytes.NewReader(image))
	if err != nil {
		return nil, fmt.Errorf("vision: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision: failed to call detection service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("vision: detection service error (status %d): %s", resp.StatusCode, string(body))
	}

	var result detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("vision: failed to parse detection response: %w", err)
	}

	payload := &signals.VisionPayload{TextBlocks: result.TextBlocks}
	for _, l := range result.Landmarks {
		payload.Landmarks = append(payload.Landmarks, signals.Detection{
			Description: l.Description,
			Score:       l.Score,
			Latitude:    l.Latitude,
			Longitude:   l.Longitude,
		})
	}
	for _, l := range result.Logos {
		payload.Logos = append(payload.Logos, signals.Detection{
			Description: l.Description,
			Score:       l.Score,
		})
	}
	return payload, nil
}
