package vision

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Detect(t *testing.T) {
	var receivedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/detect", r.URL.Path)
		assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))

		var err error
		receivedBody, err = io.ReadAll(r.Body)
		require.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"landmarks": [{"description": "Alexandra Palace", "score": 0.72, "latitude": 51.5942, "longitude": -0.1298}],
			"logos": [{"description": "Venchi", "score": 0.88}],
			"text_blocks": ["LOON FUNG SUPERMARKET"]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	payload, err := client.Detect(context.Background(), []byte("jpeg-bytes"))

	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg-bytes"), receivedBody)

	require.Len(t, payload.Landmarks, 1)
	assert.Equal(t, "Alexandra Palace", payload.Landmarks[0].Description)
	assert.Equal(t, 0.72, payload.Landmarks[0].Score)
	assert.Equal(t, 51.5942, payload.Landmarks[0].Latitude)

	require.Len(t, payload.Logos, 1)
	assert.Equal(t, "Venchi", payload.Logos[0].Description)

	assert.Equal(t, []string{"LOON FUNG SUPERMARKET"}, payload.TextBlocks)
}

func TestClient_Detect_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	_, err := client.Detect(context.Background(), []byte("jpeg-bytes"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestClient_Detect_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewClient(server.URL, 10*time.Millisecond)

	_, err := client.Detect(context.Background(), []byte("jpeg-bytes"))
	assert.Error(t, err)
}
