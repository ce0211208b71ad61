package service

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/internal/domain/mocks"
	"github.com/Ironclad/ironclad/pkg/analytics"
	"github.com/Ironclad/ironclad/pkg/logger"
)

func TestNewAnalyticsService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAnalyticsRepository(ctrl)
	service := NewAnalyticsService(mockRepo, logger.NewTestLogger(t))

	assert.NotNil(t, service)
	assert.IsType(t, &AnalyticsService{}, service)
}

func TestAnalyticsService_Query(t *testing.T) {
	tests := []struct {
		name          string
		query         analytics.Query
		setupMocks    func(*mocks.MockAnalyticsRepository)
		expectedError string
		expectedRows  int
	}{
		{
			name: "successful query execution",
			query: analytics.Query{
				Schema:     "orders",
				Measures:   []string{"count", "revenue"},
				Dimensions: []string{"status"},
			},
			setupMocks: func(mockRepo *mocks.MockAnalyticsRepository) {
				mockRepo.EXPECT().Query(gomock.Any(), gomock.Any()).Return(&analytics.Result{
					Rows: []map[string]interface{}{
						{"status": "completed", "count": int64(12), "revenue": int64(540000)},
						{"status": "pending", "count": int64(3), "revenue": int64(90000)},
					},
				}, nil)
			},
			expectedRows: 2,
		},
		{
			name:          "unknown schema is rejected before the repository",
			query:         analytics.Query{Schema: "contacts", Measures: []string{"count"}},
			setupMocks:    func(mockRepo *mocks.MockAnalyticsRepository) {},
			expectedError: "validation error",
		},
		{
			name:          "unknown measure is rejected",
			query:         analytics.Query{Schema: "commissions", Measures: []string{"margin"}},
			setupMocks:    func(mockRepo *mocks.MockAnalyticsRepository) {},
			expectedError: "validation error",
		},
		{
			name:  "repository error is wrapped",
			query: analytics.Query{Schema: "commissions", Measures: []string{"amount"}},
			setupMocks: func(mockRepo *mocks.MockAnalyticsRepository) {
				mockRepo.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
			},
			expectedError: "failed to execute query: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockRepo := mocks.NewMockAnalyticsRepository(ctrl)
			tt.setupMocks(mockRepo)

			service := NewAnalyticsService(mockRepo, logger.NewTestLogger(t))
			result, err := service.Query(context.Background(), tt.query)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.Rows, tt.expectedRows)
		})
	}
}

func TestAnalyticsService_NotConfigured(t *testing.T) {
	service := NewAnalyticsService(nil, logger.NewTestLogger(t))

	_, err := service.Query(context.Background(), analytics.Query{Schema: "orders", Measures: []string{"count"}})
	assert.ErrorIs(t, err, domain.ErrAnalyticsNotConfigured)
}

func TestAnalyticsService_Schemas(t *testing.T) {
	service := NewAnalyticsService(nil, logger.NewTestLogger(t))
	schemas := service.Schemas()
	assert.Contains(t, schemas, "orders")
	assert.Contains(t, schemas, "commissions")
}

func TestAnalyticsService_LogsRepositoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockAnalyticsRepository(ctrl)
	mockLogger := mocks.NewMockLogger(ctrl)

	mockRepo.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection refused"))
	mockLogger.EXPECT().WithField("schema", "orders").Return(mockLogger)
	mockLogger.EXPECT().WithField("error", "connection refused").Return(mockLogger)
	mockLogger.EXPECT().Error("Failed to execute analytics query")

	service := NewAnalyticsService(mockRepo, mockLogger)
	_, err := service.Query(context.Background(), analytics.Query{Schema: "orders", Measures: []string{"count"}})
	require.Error(t, err)
}

func TestAnalyticsService_LogsValidationFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().WithField("schema", "orders").Return(mockLogger)
	mockLogger.EXPECT().WithField("error", gomock.Any()).Return(mockLogger)
	mockLogger.EXPECT().Warn("Analytics query validation failed")

	service := NewAnalyticsService(mocks.NewMockAnalyticsRepository(ctrl), mockLogger)
	_, err := service.Query(context.Background(), analytics.Query{Schema: "orders", Measures: []string{"margin"}})

	var validation domain.ValidationError
	assert.ErrorAs(t, err, &validation)
}
