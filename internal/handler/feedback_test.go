package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recognition-api/internal/models"
	"recognition-api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockFeedbackService is a mock implementation of the FeedbackService interface
type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) SubmitFeedback(ctx context.Context, req service.FeedbackRequest) (service.FeedbackResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(service.FeedbackResult), args.Error(1)
}

func TestFeedbackHandler_SubmitFeedback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	validBody := `{
		"original_address": "12 High St",
		"correct_address": "14 High St",
		"coordinates": {"latitude": 51.6067, "longitude": -0.1268},
		"image_ref": "img-1.jpg"
	}`

	tests := []struct {
		name           string
		body           string
		mockResult     service.FeedbackResult
		mockError      error
		expectCall     bool
		expectedStatus int
		expectedField  string
	}{
		{
			name:           "malformed json",
			body:           `{"correct_address":`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "accepted and queued",
			body:           validBody,
			mockResult:     service.FeedbackResult{Accepted: true, CorrectionID: "abc-123", Queued: true},
			expectCall:     true,
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "validation failure names the field",
			body:           `{"coordinates": {"latitude": 51.6, "longitude": -0.1}}`,
			mockError:      &service.ValidationError{Field: "correct_address", Message: "correct_address is required"},
			expectCall:     true,
			expectedStatus: http.StatusBadRequest,
			expectedField:  "correct_address",
		},
		{
			name:           "service error",
			body:           validBody,
			mockError:      assert.AnError,
			expectCall:     true,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockFeedbackService)
			handler := NewFeedbackHandler(mockSvc)

			if tt.expectCall {
				mockSvc.On("SubmitFeedback", mock.Anything, mock.Anything).Return(tt.mockResult, tt.mockError)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			c, _ := gin.CreateTestContext(w)
			c.Request = req

			handler.SubmitFeedback(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedField != "" {
				var body map[string]interface{}
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedField, body["field"])
			}

			if tt.expectedStatus == http.StatusAccepted {
				var result service.FeedbackResult
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
				assert.Equal(t, tt.mockResult, result)
			}

			if tt.expectCall {
				mockSvc.AssertExpectations(t)
			}
		})
	}
}

func TestFeedbackHandler_SubmitFeedback_PassesRequestThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)

	coords := models.Coordinates{Latitude: 51.6067, Longitude: -0.1268}

	mockSvc := new(MockFeedbackService)
	mockSvc.On("SubmitFeedback", mock.Anything, service.FeedbackRequest{
		OriginalAddress: "12 High St",
		CorrectAddress:  "14 High St",
		Coordinates:     &coords,
		ImageRef:        "img-1.jpg",
		DeviceID:        "device-7",
	}).Return(service.FeedbackResult{Accepted: true}, nil)

	handler := NewFeedbackHandler(mockSvc)

	body := `{
		"original_address": "12 High St",
		"correct_address": "14 High St",
		"coordinates": {"latitude": 51.6067, "longitude": -0.1268},
		"image_ref": "img-1.jpg",
		"device_id": "device-7"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.SubmitFeedback(c)

	assert.Equal(t, http.StatusAccepted, w.Code)
	mockSvc.AssertExpectations(t)
}
