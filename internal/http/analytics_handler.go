package http

import (
	"net/http"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/logger"
)

// AnalyticsHandler handles HTTP requests related to analytics
type AnalyticsHandler struct {
	service domain.AnalyticsService
	logger  logger.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service domain.AnalyticsService, logger logger.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the analytics-related routes
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, requireAuth, limit func(http.Handler) http.Handler) {
	mux.Handle("/api/analytics.query", requireAuth(limit(http.HandlerFunc(h.handleQuery))))
	mux.Handle("/api/analytics.schemas", requireAuth(http.HandlerFunc(h.handleGetSchemas)))
}

func (h *AnalyticsHandler) handleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req domain.AnalyticsQueryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	result, err := h.service.Query(r.Context(), req.Query)
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *AnalyticsHandler) handleGetSchemas(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		WriteJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"schemas": h.service.Schemas(),
	})
}
