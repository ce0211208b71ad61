package domain

import (
	"context"
	"time"

	"github.com/Ironclad/ironclad/pkg/analytics"
)

//go:generate mockgen -destination mocks/mock_analytics_repository.go -package mocks github.com/Ironclad/ironclad/internal/domain AnalyticsRepository
//go:generate mockgen -destination mocks/mock_analytics_service.go -package mocks github.com/Ironclad/ironclad/internal/domain AnalyticsService

// AnalyticsSchemas are the queryable tables of the reporting database.
// Amount columns hold cents.
var AnalyticsSchemas = map[string]analytics.Schema{
	"orders": {
		Name:  "orders",
		Table: "orders",
		Measures: map[string]analytics.Measure{
			"count":           {Agg: analytics.AggCount, Column: "*", Description: "Number of orders"},
			"revenue":         {Agg: analytics.AggSum, Column: "total_cents", Where: "status <> 'cancelled'", Description: "Order revenue excluding cancelled orders"},
			"avg_order_value": {Agg: analytics.AggAvg, Column: "total_cents", Where: "status <> 'cancelled'", Description: "Average order total"},
			"discounts":       {Agg: analytics.AggSum, Column: "discount_cents", Description: "Discount given"},
			"customers":       {Agg: analytics.AggCountDistinct, Column: "lower(customer_email)", Description: "Distinct customers"},
			"count_completed": {Agg: analytics.AggCount, Column: "*", Where: "status = 'completed'", Description: "Completed orders"},
			"count_cancelled": {Agg: analytics.AggCount, Column: "*", Where: "status = 'cancelled'", Description: "Cancelled orders"},
		},
		Dimensions: map[string]analytics.Dimension{
			"status":           {Column: "status", Description: "Order status"},
			"service_type":     {Column: "service_type", Description: "Service type"},
			"placed_by":        {Column: "placed_by", Description: "customer or partner"},
			"partner_store_id": {Column: "partner_store_id", Description: "Placing partner store"},
			"created_at":       {Column: "created_at", Time: true, Description: "Order creation time"},
			"paid_at":          {Column: "paid_at", Time: true, Description: "Payment time"},
		},
	},
	"commissions": {
		Name:  "commissions",
		Table: "commissions",
		Measures: map[string]analytics.Measure{
			"count":           {Agg: analytics.AggCount, Column: "*", Description: "Number of commissions"},
			"amount":          {Agg: analytics.AggSum, Column: "commission_cents", Description: "Total commission"},
			"base_amount":     {Agg: analytics.AggSum, Column: "base_cents", Description: "Commissionable order amount"},
			"eligible_amount": {Agg: analytics.AggSum, Column: "commission_cents", Where: "status = 'eligible'", Description: "Eligible for payout"},
			"paid_amount":     {Agg: analytics.AggSum, Column: "commission_cents", Where: "status = 'paid'", Description: "Paid out"},
			"avg_amount":      {Agg: analytics.AggAvg, Column: "commission_cents", Description: "Average commission"},
		},
		Dimensions: map[string]analytics.Dimension{
			"status":           {Column: "status", Description: "Commission status"},
			"partner_store_id": {Column: "partner_store_id", Description: "Earning partner store"},
			"created_at":       {Column: "created_at", Time: true, Description: "Creation time"},
			"paid_at":          {Column: "paid_at", Time: true, Description: "Payout time"},
		},
	},
}

// MonthlyTotal is one calendar month of order activity.
type MonthlyTotal struct {
	Month   time.Time `json:"month"`
	Orders  int64     `json:"orders"`
	Revenue Cents     `json:"revenue"`
}

// MonthOverMonth compares the last two entries of totals, which must be in
// ascending month order. Fewer than two months yields zero growth.
func MonthOverMonth(totals []MonthlyTotal) Growth {
	if len(totals) < 2 {
		return Growth{}
	}
	prev, cur := totals[len(totals)-2], totals[len(totals)-1]
	return Growth{
		Revenue: PercentChange(float64(prev.Revenue), float64(cur.Revenue)),
		Orders:  PercentChange(float64(prev.Orders), float64(cur.Orders)),
	}
}

type AnalyticsQueryRequest struct {
	Query analytics.Query `json:"query"`
}

func (r *AnalyticsQueryRequest) Validate() error {
	if _, err := analytics.Validate(r.Query, AnalyticsSchemas); err != nil {
		return NewValidationError(err.Error())
	}
	return nil
}

// AnalyticsRepository runs reporting queries against the analytics database.
type AnalyticsRepository interface {
	Query(ctx context.Context, query analytics.Query) (*analytics.Result, error)
	// MonthlyTotals returns one entry per month starting at the month of
	// from, oldest first, including months with no orders.
	MonthlyTotals(ctx context.Context, from time.Time, months int) ([]MonthlyTotal, error)
}

// AnalyticsService is the reporting API exposed over HTTP.
type AnalyticsService interface {
	Query(ctx context.Context, query analytics.Query) (*analytics.Result, error)
	Schemas() map[string]analytics.Schema
}
