package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Ironclad/ironclad/pkg/analytics"
)

func TestOptional(t *testing.T) {
	ok := Some([]int{1, 2})
	assert.True(t, ok.Available())
	v, present := ok.Get()
	assert.True(t, present)
	assert.Equal(t, []int{1, 2}, v)

	failed := Failed[[]int](errors.New("convex: server_error"))
	assert.False(t, failed.Available())
	v, present = failed.Get()
	assert.False(t, present)
	assert.Nil(t, v)
}

func TestMonthOverMonth(t *testing.T) {
	may := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	g := MonthOverMonth([]MonthlyTotal{
		{Month: may, Orders: 40, Revenue: 200000},
		{Month: jun, Orders: 50, Revenue: 150000},
	})
	assert.InDelta(t, 25.0, g.Orders, 0.0001)
	assert.InDelta(t, -25.0, g.Revenue, 0.0001)
	assert.False(t, g.Estimated)

	assert.Equal(t, Growth{}, MonthOverMonth(nil))
	assert.Equal(t, 0.0, PercentChange(0, 100), "no baseline means no growth figure")
}

func TestEstimatedGrowth(t *testing.T) {
	g := EstimatedGrowth()
	assert.Equal(t, 12.5, g.Revenue)
	assert.Equal(t, 8.3, g.Orders)
	assert.True(t, g.Estimated)
}

func TestAnalyticsQueryRequest_Validate(t *testing.T) {
	ok := AnalyticsQueryRequest{Query: analytics.Query{
		Schema:     "commissions",
		Measures:   []string{"eligible_amount"},
		Dimensions: []string{"partner_store_id"},
	}}
	assert.NoError(t, ok.Validate())

	bad := AnalyticsQueryRequest{Query: analytics.Query{Schema: "users", Measures: []string{"count"}}}
	var ve ValidationError
	assert.ErrorAs(t, bad.Validate(), &ve)

	for name, s := range AnalyticsSchemas {
		assert.Equal(t, name, s.Name)
		assert.NotEmpty(t, s.Table)
	}
}
