package service

import (
	"context"
	"testing"

	"recognition-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCorrectionWriter is a mock implementation of the CorrectionWriter interface
type MockCorrectionWriter struct {
	mock.Mock
}

func (m *MockCorrectionWriter) CreateCorrection(ctx context.Context, c models.Correction) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockQueueWriter is a mock implementation of the QueueWriter interface
type MockQueueWriter struct {
	mock.Mock
}

func (m *MockQueueWriter) FindQueueItem(ctx context.Context, imageRef string, coords models.Coordinates) (*models.TrainingQueueItem, error) {
	args := m.Called(ctx, imageRef, coords)
	return args.Get(0).(*models.TrainingQueueItem), args.Error(1)
}

func (m *MockQueueWriter) EnqueueTraining(ctx context.Context, item models.TrainingQueueItem) (int64, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(int64), args.Error(1)
}

func TestFeedbackService_SubmitFeedback_Validation(t *testing.T) {
	svc := NewFeedbackService(new(MockCorrectionWriter), new(MockQueueWriter))

	tests := []struct {
		name          string
		req           FeedbackRequest
		expectedField string
	}{
		{
			name:          "missing correct address",
			req:           FeedbackRequest{Coordinates: &models.Coordinates{Latitude: 51.6, Longitude: -0.1}},
			expectedField: "correct_address",
		},
		{
			name:          "missing coordinates",
			req:           FeedbackRequest{CorrectAddress: "14 High St"},
			expectedField: "coordinates",
		},
		{
			name: "latitude out of range",
			req: FeedbackRequest{
				CorrectAddress: "14 High St",
				Coordinates:    &models.Coordinates{Latitude: 95, Longitude: -0.1},
			},
			expectedField: "coordinates.latitude",
		},
		{
			name: "longitude out of range",
			req: FeedbackRequest{
				CorrectAddress: "14 High St",
				Coordinates:    &models.Coordinates{Latitude: 51.6, Longitude: -200},
			},
			expectedField: "coordinates.longitude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitFeedback(context.Background(), tt.req)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.expectedField, validationErr.Field)
		})
	}
}

func TestFeedbackService_SubmitFeedback_StoresAndQueues(t *testing.T) {
	coords := models.Coordinates{Latitude: 51.6067, Longitude: -0.1268}

	corrections := new(MockCorrectionWriter)
	corrections.On("CreateCorrection", mock.Anything, mock.MatchedBy(func(c models.Correction) bool {
		return c.CorrectAddress == "14 High St" &&
			c.Method == "user-correction" &&
			c.ID != "" &&
			c.Coordinates != nil && *c.Coordinates == coords
	})).Return(nil)

	queue := new(MockQueueWriter)
	queue.On("FindQueueItem", mock.Anything, "img-1.jpg", coords).Return((*models.TrainingQueueItem)(nil), nil)
	queue.On("EnqueueTraining", mock.Anything, mock.MatchedBy(func(item models.TrainingQueueItem) bool {
		return item.ImageRef == "img-1.jpg" && item.Status == models.QueuePending
	})).Return(int64(1), nil)

	svc := NewFeedbackService(corrections, queue)

	result, err := svc.SubmitFeedback(context.Background(), FeedbackRequest{
		OriginalAddress: "12 High St",
		CorrectAddress:  "14 High St",
		Coordinates:     &coords,
		ImageRef:        "img-1.jpg",
	})

	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.True(t, result.Queued)
	assert.NotEmpty(t, result.CorrectionID)
	corrections.AssertExpectations(t)
	queue.AssertExpectations(t)
}

func TestFeedbackService_SubmitFeedback_DuplicateNotRequeued(t *testing.T) {
	coords := models.Coordinates{Latitude: 51.6067, Longitude: -0.1268}

	corrections := new(MockCorrectionWriter)
	corrections.On("CreateCorrection", mock.Anything, mock.Anything).Return(nil)

	queue := new(MockQueueWriter)
	queue.On("FindQueueItem", mock.Anything, "img-1.jpg", coords).Return(&models.TrainingQueueItem{ID: 7}, nil)

	svc := NewFeedbackService(corrections, queue)

	result, err := svc.SubmitFeedback(context.Background(), FeedbackRequest{
		CorrectAddress: "14 High St",
		Coordinates:    &coords,
		ImageRef:       "img-1.jpg",
	})

	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.False(t, result.Queued)
	queue.AssertNotCalled(t, "EnqueueTraining", mock.Anything, mock.Anything)
}

func TestFeedbackService_SubmitFeedback_NoImageRefSkipsQueue(t *testing.T) {
	coords := models.Coordinates{Latitude: 51.6067, Longitude: -0.1268}

	corrections := new(MockCorrectionWriter)
	corrections.On("CreateCorrection", mock.Anything, mock.Anything).Return(nil)

	queue := new(MockQueueWriter)
	svc := NewFeedbackService(corrections, queue)

	result, err := svc.SubmitFeedback(context.Background(), FeedbackRequest{
		CorrectAddress: "14 High St",
		Coordinates:    &coords,
	})

	require.NoError(t, err)
	assert.True(t, result.Accepted)
	assert.False(t, result.Queued)
	queue.AssertNotCalled(t, "FindQueueItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestFeedbackService_SubmitFeedback_StoreError(t *testing.T) {
	coords := models.Coordinates{Latitude: 51.6067, Longitude: -0.1268}

	corrections := new(MockCorrectionWriter)
	corrections.On("CreateCorrection", mock.Anything, mock.Anything).Return(assert.AnError)

	svc := NewFeedbackService(corrections, new(MockQueueWriter))

	_, err := svc.SubmitFeedback(context.Background(), FeedbackRequest{
		CorrectAddress: "14 High St",
		Coordinates:    &coords,
	})
	assert.Error(t, err)
}
