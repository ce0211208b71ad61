package domain

import (
	"context"
	"sort"
	"time"
)

//go:generate mockgen -destination mocks/mock_audience_repository.go -package mocks github.com/Ironclad/ironclad/internal/domain AudienceRepository

type CustomerSource string

const (
	CustomerSourceOrder      CustomerSource = "order"
	CustomerSourceInquiry    CustomerSource = "inquiry"
	CustomerSourceNewsletter CustomerSource = "newsletter"
	CustomerSourceContact    CustomerSource = "contact"
)

type NewsletterSubscriber struct {
	ID        string      `json:"_id,omitempty"`
	Email     string      `json:"email"`
	Name      string      `json:"name,omitempty"`
	Source    string      `json:"source,omitempty"`
	CreatedAt EpochMillis `json:"createdAt"`
}

type ContactSubmission struct {
	ID        string      `json:"_id,omitempty"`
	Email     string      `json:"email"`
	Name      string      `json:"name,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Subject   string      `json:"subject,omitempty"`
	Message   string      `json:"message,omitempty"`
	CreatedAt EpochMillis `json:"createdAt"`
}

// Customer is synthesized from orders, inquiries, subscribers and contact
// submissions. It is never stored.
type Customer struct {
	Email        string           `json:"email"`
	Name         string           `json:"name,omitempty"`
	Phone        string           `json:"phone,omitempty"`
	OrderCount   int              `json:"orderCount"`
	TotalSpent   Cents            `json:"totalSpent"`
	CreatedAt    time.Time        `json:"createdAt"`
	LastActivity time.Time        `json:"lastActivity"`
	Sources      []CustomerSource `json:"sources"`
}

func (c *Customer) HasSource(s CustomerSource) bool {
	return containsStatus(c.Sources, s)
}

func (c *Customer) addSource(s CustomerSource) {
	if !c.HasSource(s) {
		c.Sources = append(c.Sources, s)
	}
}

// fillContact sets name and phone only where still empty.
func (c *Customer) fillContact(name, phone string) {
	if c.Name == "" {
		c.Name = name
	}
	if c.Phone == "" {
		c.Phone = phone
	}
}

type CustomerSources struct {
	Orders      []Order
	Inquiries   []ServiceInquiry
	Subscribers []NewsletterSubscriber
	Contacts    []ContactSubmission
}

func customerKey(email string) (string, bool) {
	key := NormalizeEmail(email)
	if key == "" || key == "unknown" {
		return "", false
	}
	return key, true
}

// AggregateCustomers merges the four sources by normalized email.
//
// Orders are scanned first and are the only source that changes counts,
// spend or dates of an existing record. Inquiries, subscribers and contact
// submissions, in that order, create a customer when the email is new and
// otherwise only fill a name or phone the record is still missing.
// The result is sorted by last activity, most recent first.
func AggregateCustomers(src CustomerSources) []Customer {
	byEmail := make(map[string]*Customer)
	order := make([]string, 0)

	get := func(key string) (*Customer, bool) {
		c, ok := byEmail[key]
		return c, ok
	}
	create := func(key string, at time.Time) *Customer {
		c := &Customer{Email: key, CreatedAt: at, LastActivity: at}
		byEmail[key] = c
		order = append(order, key)
		return c
	}

	for i := range src.Orders {
		o := &src.Orders[i]
		key, ok := customerKey(o.CustomerEmail)
		if !ok {
			continue
		}
		at := o.CreatedAt.Time()
		c, exists := get(key)
		if !exists {
			c = create(key, at)
		}
		c.fillContact(o.CustomerName, o.CustomerPhone)
		c.OrderCount++
		c.TotalSpent += o.Totals.Total
		if at.After(c.LastActivity) {
			c.LastActivity = at
		}
		if at.Before(c.CreatedAt) {
			c.CreatedAt = at
		}
		c.addSource(CustomerSourceOrder)
	}

	secondary := func(email, name, phone string, at time.Time, source CustomerSource) {
		key, ok := customerKey(email)
		if !ok {
			return
		}
		c, exists := get(key)
		if !exists {
			c = create(key, at)
		}
		c.fillContact(name, phone)
		c.addSource(source)
	}

	for i := range src.Inquiries {
		q := &src.Inquiries[i]
		secondary(q.CustomerEmail, q.CustomerName, q.CustomerPhone, q.CreatedAt.Time(), CustomerSourceInquiry)
	}
	for i := range src.Subscribers {
		s := &src.Subscribers[i]
		secondary(s.Email, s.Name, "", s.CreatedAt.Time(), CustomerSourceNewsletter)
	}
	for i := range src.Contacts {
		cs := &src.Contacts[i]
		secondary(cs.Email, cs.Name, cs.Phone, cs.CreatedAt.Time(), CustomerSourceContact)
	}

	customers := make([]Customer, 0, len(order))
	for _, key := range order {
		customers = append(customers, *byEmail[key])
	}
	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].LastActivity.After(customers[j].LastActivity)
	})
	return customers
}

// TopCustomers sorts a copy by total spent, descending, and caps it at n.
func TopCustomers(customers []Customer, n int) []Customer {
	out := make([]Customer, len(customers))
	copy(out, customers)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalSpent > out[j].TotalSpent
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CustomerFilter mirrors CommissionFilter over synthesized customers.
// Statuses are customer sources; the amount bounds apply to TotalSpent.
type CustomerFilter struct {
	Search    string           `json:"search,omitempty"`
	Sources   []CustomerSource `json:"sources,omitempty"`
	DateRange DateRange        `json:"dateRange,omitempty"`
	MinSpent  *Cents           `json:"minSpent,omitempty"`
	MaxSpent  *Cents           `json:"maxSpent,omitempty"`
}

func (f CustomerFilter) IsActive() bool {
	return f.Search != "" ||
		len(f.Sources) > 0 ||
		!f.DateRange.IsZero() ||
		f.MinSpent != nil ||
		f.MaxSpent != nil
}

func (f CustomerFilter) Matches(c *Customer) bool {
	if f.Search != "" && !containsFold(c.Email, f.Search) && !containsFold(c.Name, f.Search) && !containsFold(c.Phone, f.Search) {
		return false
	}
	if len(f.Sources) > 0 {
		matched := false
		for _, s := range f.Sources {
			if c.HasSource(s) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if !f.DateRange.IsZero() && !f.DateRange.Contains(c.LastActivity) {
		return false
	}
	if f.MinSpent != nil && c.TotalSpent < *f.MinSpent {
		return false
	}
	if f.MaxSpent != nil && c.TotalSpent > *f.MaxSpent {
		return false
	}
	return true
}

func (f CustomerFilter) Apply(customers []Customer) []Customer {
	out := make([]Customer, 0, len(customers))
	for i := range customers {
		if f.Matches(&customers[i]) {
			out = append(out, customers[i])
		}
	}
	return out
}

// FindCustomer looks up by normalized email.
func FindCustomer(customers []Customer, email string) *Customer {
	key := NormalizeEmail(email)
	for i := range customers {
		if customers[i].Email == key {
			return &customers[i]
		}
	}
	return nil
}

// AudienceRepository reads the non-order customer touchpoints.
type AudienceRepository interface {
	ListSubscribers(ctx context.Context) ([]NewsletterSubscriber, error)
	ListContactSubmissions(ctx context.Context) ([]ContactSubmission, error)
}
