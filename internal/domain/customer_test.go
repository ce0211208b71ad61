package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day int) EpochMillis {
	return MillisFrom(time.Date(2025, 3, day, 12, 0, 0, 0, time.UTC))
}

func TestAggregateCustomers_MergePriority(t *testing.T) {
	customers := AggregateCustomers(CustomerSources{
		Orders: []Order{
			{CustomerEmail: "a@x.com", CustomerName: "Order Name", Totals: OrderTotals{Total: 5000}, CreatedAt: at(2)},
		},
		Contacts: []ContactSubmission{
			{Email: "A@X.com ", Name: "Contact Name", Phone: "555-0100", CreatedAt: at(9)},
		},
	})

	require.Len(t, customers, 1)
	c := customers[0]
	assert.Equal(t, "a@x.com", c.Email)
	assert.Equal(t, "Order Name", c.Name)
	assert.Equal(t, "555-0100", c.Phone)
	assert.Equal(t, 1, c.OrderCount)
	assert.Equal(t, Cents(5000), c.TotalSpent)
	assert.Equal(t, at(2).Time(), c.LastActivity, "later passes never move dates")
	assert.ElementsMatch(t, []CustomerSource{CustomerSourceOrder, CustomerSourceContact}, c.Sources)
}

func TestAggregateCustomers_OrdersAccumulate(t *testing.T) {
	customers := AggregateCustomers(CustomerSources{
		Orders: []Order{
			{CustomerEmail: "b@x.com", Totals: OrderTotals{Total: 1000}, CreatedAt: at(5)},
			{CustomerEmail: "B@x.com", CustomerName: "Bea", CustomerPhone: "555-0101", Totals: OrderTotals{Total: 2500}, CreatedAt: at(1)},
			{CustomerEmail: "b@x.com", CustomerName: "Someone Else", Totals: OrderTotals{Total: 500}, CreatedAt: at(10)},
		},
	})

	require.Len(t, customers, 1)
	c := customers[0]
	assert.Equal(t, "Bea", c.Name, "first non-empty name wins")
	assert.Equal(t, "555-0101", c.Phone)
	assert.Equal(t, 3, c.OrderCount)
	assert.Equal(t, Cents(4000), c.TotalSpent)
	assert.Equal(t, at(1).Time(), c.CreatedAt)
	assert.Equal(t, at(10).Time(), c.LastActivity)
}

func TestAggregateCustomers_SkipsUnknownAndSortsByActivity(t *testing.T) {
	customers := AggregateCustomers(CustomerSources{
		Orders: []Order{
			{CustomerEmail: "", Totals: OrderTotals{Total: 100}, CreatedAt: at(3)},
			{CustomerEmail: "unknown", Totals: OrderTotals{Total: 100}, CreatedAt: at(3)},
			{CustomerEmail: "old@x.com", Totals: OrderTotals{Total: 100}, CreatedAt: at(1)},
		},
		Inquiries: []ServiceInquiry{
			{CustomerEmail: "new@x.com", CustomerName: "Nia", CreatedAt: at(20)},
			{CustomerEmail: "old@x.com", CustomerName: "Late Name", CreatedAt: at(25)},
		},
		Subscribers: []NewsletterSubscriber{
			{Email: "sub@x.com", Name: "Sam", CreatedAt: at(12)},
			{Email: "new@x.com", Name: "Not Nia", CreatedAt: at(28)},
		},
	})

	require.Len(t, customers, 3)
	assert.Equal(t, "new@x.com", customers[0].Email)
	assert.Equal(t, "sub@x.com", customers[1].Email)
	assert.Equal(t, "old@x.com", customers[2].Email)

	assert.Equal(t, "Nia", customers[0].Name, "inquiry created the record; newsletter never overwrites")
	assert.Equal(t, "Late Name", customers[2].Name, "missing order name is filled")
	assert.Equal(t, 1, customers[2].OrderCount)
	assert.Equal(t, 0, customers[0].OrderCount)
}

func TestTopCustomers(t *testing.T) {
	in := []Customer{
		{Email: "a", TotalSpent: 100},
		{Email: "b", TotalSpent: 900},
		{Email: "c", TotalSpent: 500},
	}
	top := TopCustomers(in, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].Email)
	assert.Equal(t, "c", top[1].Email)
	assert.Equal(t, "a", in[0].Email, "input is not reordered")
}

func TestCustomerFilter(t *testing.T) {
	in := []Customer{
		{Email: "a@x.com", Name: "Ann", TotalSpent: 100, Sources: []CustomerSource{CustomerSourceOrder}, LastActivity: at(2).Time()},
		{Email: "b@x.com", Name: "Ben", TotalSpent: 9000, Sources: []CustomerSource{CustomerSourceOrder, CustomerSourceNewsletter}, LastActivity: at(10).Time()},
		{Email: "c@y.com", Name: "Cal", Sources: []CustomerSource{CustomerSourceNewsletter}, LastActivity: at(11).Time()},
	}

	assert.False(t, CustomerFilter{}.IsActive())
	assert.Len(t, CustomerFilter{}.Apply(in), 3)

	got := CustomerFilter{Sources: []CustomerSource{CustomerSourceNewsletter}, MinSpent: centsPtr(1)}.Apply(in)
	require.Len(t, got, 1)
	assert.Equal(t, "b@x.com", got[0].Email)

	got = CustomerFilter{Search: "x.com", DateRange: DateRange{To: at(5).Time()}}.Apply(in)
	require.Len(t, got, 1)
	assert.Equal(t, "a@x.com", got[0].Email)

	assert.NotNil(t, FindCustomer(in, " C@Y.com"))
	assert.Nil(t, FindCustomer(in, "z@z.com"))
}
