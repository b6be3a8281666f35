package aitext

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"recognition-api/internal/signals"
)

// Client calls the free-text AI description service, which looks at an
// image and answers with a structured guess: business name, address, phone
// and its own confidence.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an AI-text client with its own call timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type describeRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type describeResponse struct {
	BusinessName string  `json:"business_name"`
	Address      string  `json:"address"`
	PhoneNumber  string  `json:"phone_number"`
	Confidence   float64 `json:"confidence"`
}

// Describe submits image bytes for free-text analysis.
func (c *Client) Describe(ctx context.Context, image []byte) (*signals.FreeTextPayload, error) {
	body, err := json.Marshal(describeRequest{ImageBase64: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return nil, fmt.Errorf("aitext: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/describe", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("aitext: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aitext: failed to call description service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("aitext: description service error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result describeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("aitext: failed to parse description response: %w", err)
	}

	return &signals.FreeTextPayload{
		BusinessName: result.BusinessName,
		Address:      result.Address,
		PhoneNumber:  result.PhoneNumber,
		Confidence:   result.Confidence,
	}, nil
}
