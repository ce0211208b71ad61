package agent

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ironclad/ironclad/internal/domain"
)

const (
	customerList    = "listCustomers"
	customerTop     = "topCustomers"
	customerSearch  = "searchCustomers"
	customerDetails = "customerDetails"

	customerRowsShown = 20
	topCustomersShown = 10
	customerOrderScan = 1000
)

func customerStrategy() *strategy {
	return &strategy{
		kind:          domain.AgentCustomer,
		keywords:      []string{"customer", "client", "buyer", "subscriber", "newsletter", "contact form", "top spender"},
		actions:       []string{customerList, customerTop, customerSearch, customerDetails, ActionCustom},
		defaultAction: ActionCustom,
		resolve:       resolveCustomer,
		execute:       executeCustomer,
		template:      customerTemplate,
		prompt: "You are the customer assistant for a firearms services business. " +
			"Customers are built from orders, service inquiries, newsletter signups and contact forms. " +
			"Answer from the context, quote spend exactly, and treat contact details as confidential.",
		suggest: suggestCustomer,
	}
}

func resolveCustomer(in *domain.AgentInput) Action {
	msg := in.Message
	email := firstNonEmpty(in.ContextValue(ContextEmail), extractEmail(msg))

	switch {
	case email != "":
		return newAction(customerDetails, "email", email)
	case containsWord(msg, "top") || containsAny(msg, "best", "biggest", "most valuable", "highest", "spender"):
		return newAction(customerTop)
	case containsAny(msg, "search", "find", "look up", "named", "called"):
		return newAction(customerSearch, "query", extractQuery(msg, "search for", "search", "find", "look up", "named", "called"))
	case containsWord(msg, "all") || containsAny(msg, "list", "show", "how many", "subscriber", "newsletter"):
		return newAction(customerList)
	}
	return newAction(ActionCustom)
}

// loadCustomers fetches the four sources in parallel and aggregates them.
func loadCustomers(ctx context.Context, a *Agent, res *Result) ([]domain.Customer, error) {
	repos := a.deps.Repos
	var src domain.CustomerSources

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := repos.Orders.List(gctx, customerOrderScan)
		if err != nil {
			return fmt.Errorf("failed to list orders: %w", err)
		}
		src.Orders = orders
		return nil
	})
	g.Go(func() error {
		inquiries, err := repos.Inquiries.List(gctx)
		if err != nil {
			return fmt.Errorf("failed to list inquiries: %w", err)
		}
		src.Inquiries = inquiries
		return nil
	})
	g.Go(func() error {
		subscribers, err := repos.Audience.ListSubscribers(gctx)
		if err != nil {
			return fmt.Errorf("failed to list subscribers: %w", err)
		}
		src.Subscribers = subscribers
		return nil
	})
	g.Go(func() error {
		contacts, err := repos.Audience.ListContactSubmissions(gctx)
		if err != nil {
			return fmt.Errorf("failed to list contact submissions: %w", err)
		}
		src.Contacts = contacts
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.use("orders:list", "serviceInquiries:list", "newsletter:listSubscribers", "contact:listSubmissions")
	return domain.AggregateCustomers(src), nil
}

// buildCustomerFilter reads source, spend and period constraints.
func buildCustomerFilter(in *domain.AgentInput, action Action, now time.Time) domain.CustomerFilter {
	msg := in.Message
	filter := domain.CustomerFilter{
		Search:    action.Param("query"),
		DateRange: dateRangeFor(msg, now),
	}
	switch {
	case containsAny(msg, "subscriber", "newsletter"):
		filter.Sources = []domain.CustomerSource{domain.CustomerSourceNewsletter}
	case containsAny(msg, "contact form"):
		filter.Sources = []domain.CustomerSource{domain.CustomerSourceContact}
	case containsAny(msg, "inquir", "lead"):
		filter.Sources = []domain.CustomerSource{domain.CustomerSourceInquiry}
	case containsAny(msg, "buyer", "purchased", "ordered"):
		filter.Sources = []domain.CustomerSource{domain.CustomerSourceOrder}
	}
	filter.MinSpent, filter.MaxSpent = extractBounds(msg)
	return filter
}

func executeCustomer(ctx context.Context, a *Agent, action Action, in *domain.AgentInput) (*Result, error) {
	res := newResult()
	customers, err := loadCustomers(ctx, a, res)
	if err != nil {
		return nil, err
	}
	res.set("customerCount", len(customers))

	switch action.Name {
	case customerDetails:
		email := action.Param("email")
		c := domain.FindCustomer(customers, email)
		if c == nil {
			return nil, &domain.ErrNotFound{Entity: "customer", ID: email}
		}
		res.Bindings["customer"] = customerView(c)
		res.Data["customer"] = c
		return res, nil

	case customerTop:
		top := domain.TopCustomers(customers, topCustomersShown)
		res.Bindings["heading"] = "Top customers by total spent"
		res.Bindings["customers"] = customerViews(top)
		res.Data["customers"] = top
		return res, nil

	case customerSearch, customerList:
		filter := buildCustomerFilter(in, action, a.deps.now())
		matched := filter.Apply(customers)
		res.set("matched", len(matched))
		shown := limitSlice(matched, customerRowsShown)
		heading := "Customers by last activity"
		if filter.IsActive() {
			heading = "Matching customers"
		}
		res.Bindings["heading"] = heading
		res.Bindings["customers"] = customerViews(shown)
		res.Data["customers"] = shown
		res.Data["filter"] = filter
		return res, nil
	}

	recent := limitSlice(customers, 5)
	res.Bindings["heading"] = "Most recently active"
	res.Bindings["customers"] = customerViews(recent)
	res.Bindings["top"] = customerViews(domain.TopCustomers(customers, 5))
	return res, nil
}

func suggestCustomer(action Action, res *Result) []domain.SuggestedAction {
	switch action.Name {
	case customerDetails:
		return []domain.SuggestedAction{
			suggestion("Customer orders", orderList, "bag"),
			suggestion("Top customers", customerTop, "star"),
		}
	case customerTop:
		return []domain.SuggestedAction{
			suggestion("Newsletter subscribers", customerList, "envelope"),
		}
	}
	return []domain.SuggestedAction{
		suggestion("Top customers", customerTop, "star"),
		suggestion("Newsletter subscribers", customerList, "envelope"),
	}
}

const customerTemplate = `## Customers ({{ today }})
{{ customerCount }} known customers{% if matched %}, {{ matched }} matching{% endif %}
{% if customer %}
### {{ customer.name }} <{{ customer.email }}>
{% if customer.phone != "" %}Phone: {{ customer.phone }}
{% endif %}Orders: {{ customer.orders }} | Total spent: {{ customer.spent }}
First seen: {{ customer.firstSeen }} | Last activity: {{ customer.lastActivity }}
Sources: {{ customer.sources | join: ", " }}
{% else %}
### {{ heading }}
{% for c in customers %}- {{ c.name }} <{{ c.email }}> | {{ c.orders }} orders | {{ c.spent }} | last active {{ c.lastActivity }} | {{ c.sources | join: ", " }}
{% endfor %}
{% if top %}### Top spenders
{% for c in top %}- {{ c.name }} <{{ c.email }}> | {{ c.spent }}
{% endfor %}{% endif %}
{% endif %}`
