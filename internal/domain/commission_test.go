package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func centsPtr(c Cents) *Cents { return &c }

func sampleCommissions(now time.Time) []Commission {
	lastMonth := MillisFrom(now.AddDate(0, -1, 0))
	thisMonth := MillisFrom(MonthStart(now).Add(time.Hour))
	return []Commission{
		{ID: "c1", OrderNumber: "IC-1001", PartnerStoreID: "p1", CommissionAmount: 1500, Status: CommissionStatusEligible, CreatedAt: thisMonth},
		{ID: "c2", OrderNumber: "IC-1002", PartnerStoreID: "p1", CommissionAmount: 2500, Status: CommissionStatusPaid, CreatedAt: lastMonth},
		{ID: "c3", OrderNumber: "IC-1003", PartnerStoreID: "p2", CommissionAmount: 4000, Status: CommissionStatusEligible, CreatedAt: lastMonth},
		{ID: "c4", OrderNumber: "IC-1004", PartnerStoreID: "p3", CommissionAmount: 700, Status: CommissionStatusPending, CreatedAt: thisMonth},
		{ID: "c5", OrderNumber: "IC-1005", PartnerStoreID: "p2", CommissionAmount: 300, Status: CommissionStatusVoided, CreatedAt: thisMonth},
	}
}

func TestCommissionFilter_IsActive(t *testing.T) {
	assert.False(t, CommissionFilter{}.IsActive())
	assert.True(t, CommissionFilter{Search: "x"}.IsActive())
	assert.True(t, CommissionFilter{Statuses: []CommissionStatus{CommissionStatusPaid}}.IsActive())
	assert.True(t, CommissionFilter{PartnerStoreID: "p1"}.IsActive())
	assert.True(t, CommissionFilter{DateRange: DateRange{From: time.Now()}}.IsActive())
	assert.True(t, CommissionFilter{MinAmount: centsPtr(0)}.IsActive())
	assert.True(t, CommissionFilter{MaxAmount: centsPtr(100)}.IsActive())
}

func TestCommissionFilter_ApplyIsConjunction(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	all := sampleCommissions(now)

	assert.Len(t, CommissionFilter{}.Apply(all), len(all))

	eligible := CommissionFilter{Statuses: []CommissionStatus{CommissionStatusEligible}}.Apply(all)
	require.Len(t, eligible, 2)
	assert.Equal(t, "c1", eligible[0].ID, "source order is kept")
	assert.Equal(t, "c3", eligible[1].ID)

	// Each predicate alone matches something; together only c3 satisfies all.
	f := CommissionFilter{
		Statuses:       []CommissionStatus{CommissionStatusEligible, CommissionStatusVoided},
		PartnerStoreID: "p2",
		MinAmount:      centsPtr(1000),
	}
	got := f.Apply(all)
	require.Len(t, got, 1)
	assert.Equal(t, "c3", got[0].ID)

	none := CommissionFilter{PartnerStoreID: "p1", MaxAmount: centsPtr(1000)}.Apply(all)
	assert.Empty(t, none)

	search := CommissionFilter{Search: "ic-1004"}.Apply(all)
	require.Len(t, search, 1)
	assert.Equal(t, "c4", search[0].ID)

	inMonth := CommissionFilter{DateRange: DateRange{From: MonthStart(now)}}.Apply(all)
	assert.Len(t, inMonth, 3)
}

func TestComputeCommissionStats(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	all := sampleCommissions(now)

	stats := ComputeCommissionStats(all, map[string]string{"p1": "Lone Star Arms", "p2": "Ridge Outfitters"}, now)

	assert.Equal(t, Cents(9000), stats.TotalAmount)
	assert.Equal(t, Cents(5500), stats.EligibleAmount)
	assert.Equal(t, Cents(2500), stats.PaidAmount)
	assert.Equal(t, Cents(700), stats.PendingAmount)
	assert.Equal(t, Cents(300), stats.VoidedAmount)
	assert.Equal(t, Cents(0), stats.ApprovedAmount)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, 2, stats.CountByStatus["eligible"])
	assert.Equal(t, Cents(1800), stats.Average)
	assert.Equal(t, 3, stats.ThisMonthCount)

	assert.Equal(t, Cents(4000), stats.ByPartner["Lone Star Arms"])
	assert.Equal(t, Cents(4300), stats.ByPartner["Ridge Outfitters"])
	assert.Equal(t, Cents(700), stats.ByPartner["p3"], "unresolved partner keeps raw id")
}

func TestComputeCommissionStats_ZeroGuard(t *testing.T) {
	stats := ComputeCommissionStats(nil, nil, time.Now())
	assert.Equal(t, Cents(0), stats.Average)
	assert.Equal(t, 0, stats.Count)
	assert.NotNil(t, stats.ByPartner)
}

func TestParseCommissionStatus(t *testing.T) {
	s, err := ParseCommissionStatus(" Eligible ")
	require.NoError(t, err)
	assert.Equal(t, CommissionStatusEligible, s)

	s, err = ParseCommissionStatus("void")
	require.NoError(t, err)
	assert.Equal(t, CommissionStatusVoided, s)

	_, err = ParseCommissionStatus("refunded")
	assert.Error(t, err)

	assert.Equal(t, "Eligible for Payout", CommissionStatusEligible.Label())
}
