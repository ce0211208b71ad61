package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ironclad/ironclad/internal/domain"
)

func TestExtractOrderNumber(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"where is #ir-1001?", "IR-1001"},
		{"status of order number 1042", "1042"},
		{"check order no. 77", "77"},
		{"order IR-2002 shipped yet", "IR-2002"},
		{"order statistics please", ""},
		{"how many orders today", ""},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			assert.Equal(t, tt.want, extractOrderNumber(tt.message))
		})
	}
}

func TestExtractReference(t *testing.T) {
	assert.Equal(t, "q123", extractReference("mark inquiry q123 reviewed", "inquiry"))
	assert.Equal(t, "k57x", extractReference("commission #k57x details", "commission"))
	assert.Equal(t, "abc9", extractReference("Inquiry ID abc9", "inquiry"))
	assert.Empty(t, extractReference("inquiry status", "inquiry"), "tokens need a digit")
	assert.Empty(t, extractReference("any new inquiries", "inquiry"))
}

func TestExtractAmountsAndBounds(t *testing.T) {
	c, ok := extractAmount("quote them $1,250.50 for the job")
	require.True(t, ok)
	assert.Equal(t, domain.Cents(125050), c)

	_, ok = extractAmount("quote them 1250")
	assert.False(t, ok, "a dollar sign is required")

	lo, hi := extractBounds("commissions over $50 and under $200")
	require.NotNil(t, lo)
	require.NotNil(t, hi)
	assert.Equal(t, domain.Cents(5000), *lo)
	assert.Equal(t, domain.Cents(20000), *hi)

	lo, hi = extractBounds("at least $ 10")
	require.NotNil(t, lo)
	assert.Equal(t, domain.Cents(1000), *lo)
	assert.Nil(t, hi)
}

func TestParseDollars(t *testing.T) {
	tests := []struct {
		in   string
		want domain.Cents
		ok   bool
	}{
		{"350", 35000, true},
		{"$350.5", 35050, true},
		{" 1,000.01 ", 100001, true},
		{"0", 0, true},
		{"-5", 0, false},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseDollars(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestExtractNotesAndQuery(t *testing.T) {
	assert.Equal(t, "customer wants OD green\nand a rush", extractNotes("add note: customer wants OD green\nand a rush "))
	assert.Equal(t, "called back", extractNotes("inquiry q1 Notes:called back"))
	assert.Empty(t, extractNotes("add some notes please"))

	assert.Equal(t, "Cerakote pricing", extractQuery("Can you search for Cerakote pricing?", "search for", "search"))
	assert.Equal(t, "engraving", extractQuery("do we offer engraving!", "search", "do we offer"))
	assert.Empty(t, extractQuery("list products", "search"))
}

func TestFindStatuses(t *testing.T) {
	found := findStatuses("show pending and Awaiting Payment orders", domain.OrderStatuses)
	assert.Equal(t, []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusAwaitingPayment}, found)

	assert.Equal(t, []domain.CommissionStatus{domain.CommissionStatusEligible},
		findStatuses("eligible commissions", domain.CommissionStatuses))

	assert.Empty(t, findStatuses("the pendings", domain.OrderStatuses), "whole words only")
}

func TestDateRangeFor(t *testing.T) {
	now := time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)

	last := dateRangeFor("paid last month", now)
	assert.Equal(t, time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC), last.From)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond), last.To)

	this := dateRangeFor("orders this month", now)
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), this.From)
	assert.Equal(t, now, this.To)

	today := dateRangeFor("Today", now)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), today.From)

	assert.True(t, dateRangeFor("all time", now).IsZero())
}

func TestPartnerInMessage(t *testing.T) {
	partners := []domain.PartnerStore{
		{ID: "p1", StoreName: "Ace Guns", StoreCode: "ACE"},
		{ID: "p2", StoreName: "Ace Guns North", StoreCode: "ACN"},
		{ID: "p3", StoreName: "Bravo Arms", StoreCode: "BRV"},
	}

	tests := []struct {
		message string
		want    string
	}{
		{"commissions for ace guns", "p1"},
		{"commissions for Ace Guns North", "p2"},
		{"store BRV details", "p3"},
		{"the aces are wild", ""},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			got := partnerInMessage(partners, tt.message)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.ID)
		})
	}
}

func TestTruthyAndEmail(t *testing.T) {
	for _, v := range []string{"true", "YES", " 1 ", "y"} {
		assert.True(t, truthy(v), v)
	}
	for _, v := range []string{"", "no", "0", "false"} {
		assert.False(t, truthy(v), v)
	}
	assert.Equal(t, "ann.lee+shop@example.com", extractEmail("email Ann.Lee+shop@Example.com please"))
	assert.Empty(t, extractEmail("no email here"))
}
