package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/analytics"
	"github.com/Ironclad/ironclad/pkg/logger"
)

type analyticsRepository struct {
	db         *sql.DB
	sqlBuilder *analytics.Builder
	logger     logger.Logger
}

// NewAnalyticsRepository creates a new PostgreSQL analytics repository
func NewAnalyticsRepository(db *sql.DB, logger logger.Logger) domain.AnalyticsRepository {
	return &analyticsRepository{
		db:         db,
		sqlBuilder: analytics.NewBuilder(),
		logger:     logger,
	}
}

// Query validates the query against the reporting schemas and executes it.
func (r *analyticsRepository) Query(ctx context.Context, query analytics.Query) (*analytics.Result, error) {
	schema, err := analytics.Validate(query, domain.AnalyticsSchemas)
	if err != nil {
		r.logger.WithField("schema", query.Schema).WithField("error", err.Error()).Warn("Analytics query validation failed")
		return nil, domain.NewValidationError(err.Error())
	}

	sqlText, args, err := r.sqlBuilder.Build(query, schema)
	if err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to build SQL for analytics query")
		return nil, fmt.Errorf("failed to build SQL: %w", err)
	}

	start := time.Now()
	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		r.logger.WithField("sql", sqlText).WithField("error", err.Error()).Error("Failed to execute analytics query")
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	data := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			val := values[i]
			// numeric comes back as []byte from lib/pq
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during result iteration: %w", err)
	}

	result := &analytics.Result{
		Rows:     data,
		SQL:      sqlText,
		Args:     args,
		Duration: time.Since(start),
	}

	r.logger.WithFields(map[string]interface{}{
		"schema":   query.Schema,
		"rows":     len(data),
		"duration": result.Duration.String(),
	}).Debug("Analytics query executed")

	return result, nil
}

// MonthlyTotals buckets non-cancelled orders per calendar month. Months
// without orders are filled with zeros so callers can compare adjacent
// entries.
func (r *analyticsRepository) MonthlyTotals(ctx context.Context, from time.Time, months int) ([]domain.MonthlyTotal, error) {
	if months <= 0 {
		return []domain.MonthlyTotal{}, nil
	}
	start := domain.MonthStart(from)
	end := start.AddDate(0, months, 0)

	sqlText, args, err := sq.StatementBuilder.PlaceholderFormat(sq.Dollar).
		Select(
			"DATE_TRUNC('month', created_at) AS month",
			"COUNT(*) AS orders",
			"COALESCE(SUM(total_cents), 0) AS revenue",
		).
		From("orders").
		Where(sq.NotEq{"status": string(domain.OrderStatusCancelled)}).
		Where(sq.GtOrEq{"created_at": start}).
		Where(sq.Lt{"created_at": end}).
		GroupBy("month").
		OrderBy("month ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build monthly totals query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		r.logger.WithField("error", err.Error()).Error("Failed to query monthly totals")
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer rows.Close()

	byMonth := make(map[string]domain.MonthlyTotal)
	for rows.Next() {
		var (
			month   time.Time
			orders  int64
			revenue int64
		)
		if err := rows.Scan(&month, &orders, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		byMonth[month.Format("2006-01")] = domain.MonthlyTotal{
			Orders:  orders,
			Revenue: domain.Cents(revenue),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during result iteration: %w", err)
	}

	totals := make([]domain.MonthlyTotal, 0, months)
	for i := 0; i < months; i++ {
		m := start.AddDate(0, i, 0)
		total := byMonth[m.Format("2006-01")]
		total.Month = m
		totals = append(totals, total)
	}
	return totals, nil
}
