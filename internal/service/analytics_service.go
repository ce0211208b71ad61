package service

import (
	"context"
	"fmt"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/analytics"
	"github.com/Ironclad/ironclad/pkg/logger"
	"github.com/Ironclad/ironclad/pkg/tracing"
)

// AnalyticsService handles analytics operations
type AnalyticsService struct {
	repo   domain.AnalyticsRepository
	logger logger.Logger
}

// NewAnalyticsService creates a new analytics service. repo may be nil when
// no reporting database is configured.
func NewAnalyticsService(repo domain.AnalyticsRepository, logger logger.Logger) *AnalyticsService {
	return &AnalyticsService{
		repo:   repo,
		logger: logger,
	}
}

// Ensure AnalyticsService implements the interface
var _ domain.AnalyticsService = (*AnalyticsService)(nil)

// Query executes an analytics query against the reporting database
func (s *AnalyticsService) Query(ctx context.Context, query analytics.Query) (*analytics.Result, error) {
	ctx, span := tracing.StartServiceSpan(ctx, "AnalyticsService", "Query")
	defer span.End()
	tracing.AddAttribute(ctx, "analytics.schema", query.Schema)

	if s.repo == nil {
		return nil, domain.ErrAnalyticsNotConfigured
	}

	if _, err := analytics.Validate(query, domain.AnalyticsSchemas); err != nil {
		s.logger.WithField("schema", query.Schema).
			WithField("error", err.Error()).
			Warn("Analytics query validation failed")
		return nil, domain.NewValidationError(err.Error())
	}

	result, err := tracing.TraceMethodWithResult(ctx, "AnalyticsRepository", "Query",
		func(ctx context.Context) (*analytics.Result, error) {
			return s.repo.Query(ctx, query)
		})
	if err != nil {
		s.logger.WithField("schema", query.Schema).
			WithField("error", err.Error()).
			Error("Failed to execute analytics query")
		tracing.MarkSpanError(ctx, err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	return result, nil
}

// Schemas returns the queryable reporting schemas
func (s *AnalyticsService) Schemas() map[string]analytics.Schema {
	return domain.AnalyticsSchemas
}
