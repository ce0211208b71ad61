package http

import (
	"errors"
	"net/http"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/internal/domain/mocks"
	"github.com/Ironclad/ironclad/internal/http/middleware"
	"github.com/Ironclad/ironclad/pkg/analytics"
	"github.com/Ironclad/ironclad/pkg/logger"
)

func setupAnalyticsHandler(t *testing.T) (*mocks.MockAnalyticsService, *http.ServeMux) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockAnalyticsService(ctrl)
	log := logger.NewTestLogger(t)

	auth, err := middleware.NewAuthenticator(middleware.AuthOptions{Disabled: true}, log)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewAnalyticsHandler(mockService, log).
		RegisterRoutes(mux, auth.RequireAuth(), func(next http.Handler) http.Handler { return next })
	return mockService, mux
}

func TestAnalyticsHandler_handleQuery(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		requestBody    interface{}
		setupMocks     func(*mocks.MockAnalyticsService)
		expectedStatus int
		expectedKind   string
		checkResponse  func(*testing.T, map[string]interface{})
	}{
		{
			name:   "successful query",
			method: http.MethodPost,
			requestBody: domain.AnalyticsQueryRequest{
				Query: analytics.Query{
					Schema:     "orders",
					Measures:   []string{"count", "revenue"},
					Dimensions: []string{"status"},
				},
			},
			setupMocks: func(mockService *mocks.MockAnalyticsService) {
				mockService.EXPECT().Query(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ interface{}, q analytics.Query) (*analytics.Result, error) {
						assert.Equal(t, "orders", q.Schema)
						return &analytics.Result{
							Rows: []map[string]interface{}{{"status": "completed", "count": 42, "revenue": 125000}},
							SQL:  "SELECT status, COUNT(*) AS count FROM orders GROUP BY 1",
						}, nil
					})
			},
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, response map[string]interface{}) {
				rows := response["rows"].([]interface{})
				require.Len(t, rows, 1)
				row := rows[0].(map[string]interface{})
				assert.Equal(t, float64(42), row["count"])
				assert.Equal(t, "completed", row["status"])
			},
		},
		{
			name:           "method not allowed",
			method:         http.MethodGet,
			setupMocks:     func(mockService *mocks.MockAnalyticsService) {},
			expectedStatus: http.StatusMethodNotAllowed,
		},
		{
			name:   "unknown schema",
			method: http.MethodPost,
			requestBody: domain.AnalyticsQueryRequest{
				Query: analytics.Query{Schema: "users", Measures: []string{"count"}},
			},
			setupMocks:     func(mockService *mocks.MockAnalyticsService) {},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "invalid_input",
		},
		{
			name:   "unknown measure",
			method: http.MethodPost,
			requestBody: domain.AnalyticsQueryRequest{
				Query: analytics.Query{Schema: "orders", Measures: []string{"profit"}},
			},
			setupMocks:     func(mockService *mocks.MockAnalyticsService) {},
			expectedStatus: http.StatusBadRequest,
			expectedKind:   "invalid_input",
		},
		{
			name:   "reporting database not configured",
			method: http.MethodPost,
			requestBody: domain.AnalyticsQueryRequest{
				Query: analytics.Query{Schema: "commissions", Measures: []string{"amount"}},
			},
			setupMocks: func(mockService *mocks.MockAnalyticsService) {
				mockService.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, domain.ErrAnalyticsNotConfigured)
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedKind:   "server_error",
		},
		{
			name:   "query failure",
			method: http.MethodPost,
			requestBody: domain.AnalyticsQueryRequest{
				Query: analytics.Query{Schema: "orders", Measures: []string{"count"}},
			},
			setupMocks: func(mockService *mocks.MockAnalyticsService) {
				mockService.EXPECT().Query(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedKind:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService, mux := setupAnalyticsHandler(t)
			tt.setupMocks(mockService)

			w := doJSON(t, mux, tt.method, "/api/analytics.query", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			var response map[string]interface{}
			decodeBody(t, w, &response)
			if tt.expectedKind != "" {
				assert.Equal(t, tt.expectedKind, response["kind"])
			}
			if tt.checkResponse != nil {
				tt.checkResponse(t, response)
			}
		})
	}
}

func TestAnalyticsHandler_handleGetSchemas(t *testing.T) {
	mockService, mux := setupAnalyticsHandler(t)
	mockService.EXPECT().Schemas().Return(domain.AnalyticsSchemas)

	w := doJSON(t, mux, http.MethodGet, "/api/analytics.schemas", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Schemas map[string]analytics.Schema `json:"schemas"`
	}
	decodeBody(t, w, &response)
	require.Contains(t, response.Schemas, "orders")
	require.Contains(t, response.Schemas, "commissions")
	assert.Contains(t, response.Schemas["orders"].Measures, "revenue")

	w = doJSON(t, mux, http.MethodDelete, "/api/analytics.schemas", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
