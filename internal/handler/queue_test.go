package handler

import (
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

// MockQueueSyncService is a mock implementation of the QueueSyncService interface
type MockQueueSyncService struct {
	mock.Mock
}

func (m *MockQueueSyncService) SyncAndProcess(ctx context.Context) (service.SyncReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.SyncReport), args.Error(1)
}

func (m *MockQueueSyncService) Stats(ctx context.Context) (service.QueueStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(service.QueueStats), args.Error(1)
}

func TestQueueHandler_Sync(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		mockReport     service.SyncReport
		mockError      error
		expectedStatus int
	}{
		{
			name:           "successful pass",
			mockReport:     service.SyncReport{Added: 2, Processed: 2, Sent: 2, RetrainTriggered: true},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "failure keeps partial counts",
			mockReport:     service.SyncReport{Added: 2, Processed: 1, Sent: 1},
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockQueueSyncService)
			mockSvc.On("SyncAndProcess", mock.Anything).Return(tt.mockReport, tt.mockError)
			handler := NewQueueHandler(mockSvc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/queue/sync", nil)
			w := httptest.NewRecorder()

			c, _ := gin.CreateTestContext(w)
			c.Request = req

			handler.Sync(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.mockError == nil {
				var report service.SyncReport
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
				assert.Equal(t, tt.mockReport, report)
			} else {
				var body struct {
					Error  string             `json:"error"`
					Report service.SyncReport `json:"report"`
				}
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.mockReport, body.Report)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}

func TestQueueHandler_Stats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		mockStats      service.QueueStats
		mockError      error
		expectedStatus int
	}{
		{
			name: "counts and trainer health returned",
			mockStats: service.QueueStats{
				Pending: 3,
				Sent:    7,
				Failed:  1,
				Trainer: models.TrainerStats{QueueSize: 12, ModelVersion: "v3", Healthy: true},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "service error",
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockQueueSyncService)
			mockSvc.On("Stats", mock.Anything).Return(tt.mockStats, tt.mockError)
			handler := NewQueueHandler(mockSvc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/queue/stats", nil)
			w := httptest.NewRecorder()

			c, _ := gin.CreateTestContext(w)
			c.Request = req

			handler.Stats(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.mockError == nil {
				var stats service.QueueStats
				assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
				assert.Equal(t, tt.mockStats, stats)
			}
			mockSvc.AssertExpectations(t)
		})
	}
}
