package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ironclad/ironclad/internal/domain"
	"github.com/Ironclad/ironclad/pkg/analytics"
	"github.com/Ironclad/ironclad/pkg/logger"
)

func TestNewAnalyticsRepository(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnalyticsRepository(db, logger.NewTestLogger(t))
	assert.Implements(t, (*domain.AnalyticsRepository)(nil), repo)
}

func TestAnalyticsRepository_Query_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"partner_store_id", "eligible_amount"}).
		AddRow("p1", int64(125000)).
		AddRow("p2", []byte("4000"))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT partner_store_id AS partner_store_id, COALESCE(SUM(commission_cents) FILTER (WHERE status = 'eligible'), 0) AS eligible_amount FROM commissions GROUP BY partner_store_id",
	)).WillReturnRows(rows)

	repo := NewAnalyticsRepository(db, logger.NewTestLogger(t))
	result, err := repo.Query(context.Background(), analytics.Query{
		Schema:     "commissions",
		Measures:   []string{"eligible_amount"},
		Dimensions: []string{"partner_store_id"},
	})
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Equal(t, "p1", result.Rows[0]["partner_store_id"])
	assert.Equal(t, int64(125000), result.Rows[0]["eligible_amount"])
	assert.Equal(t, "4000", result.Rows[1]["eligible_amount"])
	assert.Contains(t, result.SQL, "FROM commissions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepository_Query_ValidationError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewAnalyticsRepository(db, logger.NewTestLogger(t))
	_, err = repo.Query(context.Background(), analytics.Query{Schema: "users", Measures: []string{"count"}})

	var ve domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.NoError(t, mock.ExpectationsWereMet(), "no SQL should run")
}

func TestAnalyticsRepository_Query_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM orders").WillReturnError(errors.New("connection reset"))

	repo := NewAnalyticsRepository(db, logger.NewTestLogger(t))
	_, err = repo.Query(context.Background(), analytics.Query{Schema: "orders", Measures: []string{"count"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute query")
}

func TestAnalyticsRepository_MonthlyTotals(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2025, 4, 17, 9, 0, 0, 0, time.UTC)
	apr := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	jul := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DATE_TRUNC('month', created_at) AS month, COUNT(*) AS orders, COALESCE(SUM(total_cents), 0) AS revenue FROM orders WHERE status <> $1 AND created_at >= $2 AND created_at < $3 GROUP BY month ORDER BY month ASC",
	)).
		WithArgs("cancelled", apr, jul).
		WillReturnRows(sqlmock.NewRows([]string{"month", "orders", "revenue"}).
			AddRow(apr, int64(40), int64(200000)).
			AddRow(jun, int64(50), int64(150000)))

	repo := NewAnalyticsRepository(db, logger.NewTestLogger(t))
	totals, err := repo.MonthlyTotals(context.Background(), from, 3)
	require.NoError(t, err)
	require.Len(t, totals, 3)

	assert.Equal(t, apr, totals[0].Month)
	assert.Equal(t, int64(40), totals[0].Orders)
	assert.Equal(t, int64(0), totals[1].Orders, "May has no orders and is zero-filled")
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), totals[1].Month)
	assert.Equal(t, domain.Cents(150000), totals[2].Revenue)

	g := domain.MonthOverMonth(totals)
	assert.Equal(t, 0.0, g.Orders, "zero baseline month yields no growth figure")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnalyticsRepository_MonthlyTotals_NoMonths(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	totals, err := NewAnalyticsRepository(db, logger.NewTestLogger(t)).MonthlyTotals(context.Background(), time.Now(), 0)
	require.NoError(t, err)
	assert.Empty(t, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}
