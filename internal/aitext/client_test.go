package aitext

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Describe(t *testing.T) {
	var received describeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/describe", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(describeResponse{
			BusinessName: "Con Fusion Restaurant",
			Address:      "96 Alexandra Park Road",
			PhoneNumber:  "020 8365 4000",
			Confidence:   0.8,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	payload, err := client.Describe(context.Background(), []byte("jpeg-bytes"))

	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")), received.ImageBase64)
	assert.Equal(t, "Con Fusion Restaurant", payload.BusinessName)
	assert.Equal(t, "96 Alexandra Park Road", payload.Address)
	assert.Equal(t, "020 8365 4000", payload.PhoneNumber)
	assert.Equal(t, 0.8, payload.Confidence)
}

func TestClient_Describe_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)

	_, err := client.Describe(context.Background(), []byte("jpeg-bytes"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
