package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/Ironclad/ironclad/internal/domain"
)

const (
	dashboardOverview = "overview"
	dashboardAlerts   = "alerts"
	dashboardRevenue  = "revenue"

	recentOrdersLimit = 10
	// awaiting-payment backlog at which the alert turns critical
	paymentBacklogCritical = 10
)

var errSourceNotConfigured = errors.New("data source not configured")

func dashboardStrategy() *strategy {
	return &strategy{
		kind: domain.AgentDashboard,
		keywords: []string{
			"dashboard", "overview", "summary", "how are we doing", "how's business",
			"kpi", "metrics", "at a glance", "alerts",
		},
		actions:       []string{dashboardOverview, dashboardAlerts, dashboardRevenue, ActionCustom},
		defaultAction: dashboardOverview,
		resolve: func(in *domain.AgentInput) Action {
			switch {
			case containsAny(in.Message, "alert", "attention", "issue", "problem", "urgent"):
				return newAction(dashboardAlerts)
			case containsAny(in.Message, "revenue", "sales", "growth", "income", "earning"):
				return newAction(dashboardRevenue)
			}
			return newAction(dashboardOverview)
		},
		execute:  executeDashboard,
		template: dashboardTemplate,
		prompt: "You are the dashboard assistant for a firearms services business. " +
			"Summarise business health from the context in a few short paragraphs. " +
			"Lead with anything that needs attention. Quote amounts exactly as given. " +
			"If a data source is marked unavailable, say so instead of guessing.",
		suggest: func(action Action, res *Result) []domain.SuggestedAction {
			switch action.Name {
			case dashboardAlerts:
				return []domain.SuggestedAction{
					suggestion("Pending orders", orderList, "shippingbox"),
					suggestion("New inquiries", inquiryList, "envelope.badge"),
				}
			case dashboardRevenue:
				return []domain.SuggestedAction{
					suggestion("Order statistics", orderStats, "chart.bar"),
					suggestion("Commission summary", commissionStats, "dollarsign.circle"),
				}
			}
			return []domain.SuggestedAction{
				suggestion("View alerts", dashboardAlerts, "exclamationmark.triangle"),
				suggestion("Revenue breakdown", dashboardRevenue, "chart.line.uptrend.xyaxis"),
				suggestion("Eligible payouts", commissionPayouts, "banknote"),
			}
		},
	}
}

// optional runs a best-effort fetch. Failures are logged and kept in the
// Optional so the caller can report the source as unavailable.
func optional[T any](ctx context.Context, a *Agent, source string, fetch func(context.Context) (T, error)) domain.Optional[T] {
	v, err := fetch(ctx)
	if err != nil {
		a.logger.WithFields(map[string]interface{}{
			"source": source,
			"error":  err.Error(),
		}).Warn("Optional source unavailable")
		return domain.Failed[T](err)
	}
	return domain.Some(v)
}

func executeDashboard(ctx context.Context, a *Agent, action Action, in *domain.AgentInput) (*Result, error) {
	repos := a.deps.Repos
	now := a.deps.now()
	res := newResult()

	var (
		stats     *domain.OrderStats
		recent    []domain.Order
		partners  = domain.Failed[[]domain.PartnerStore](errSourceNotConfigured)
		inquiries = domain.Failed[[]domain.ServiceInquiry](errSourceNotConfigured)
		growth    = domain.EstimatedGrowth()
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := repos.Orders.GetStats(gctx)
		if err != nil {
			return fmt.Errorf("failed to get order stats: %w", err)
		}
		stats = s
		return nil
	})
	g.Go(func() error {
		orders, err := repos.Orders.List(gctx, recentOrdersLimit)
		if err != nil {
			return fmt.Errorf("failed to list recent orders: %w", err)
		}
		recent = orders
		return nil
	})
	if repos.Partners != nil {
		g.Go(func() error {
			partners = optional(gctx, a, "partners", repos.Partners.List)
			return nil
		})
	}
	if repos.Inquiries != nil {
		g.Go(func() error {
			inquiries = optional(gctx, a, "inquiries", repos.Inquiries.List)
			return nil
		})
	}
	if repos.Analytics != nil {
		g.Go(func() error {
			totals, err := repos.Analytics.MonthlyTotals(gctx, domain.MonthStart(now).AddDate(0, -1, 0), 2)
			if err != nil {
				a.logger.WithField("error", err.Error()).Warn("Monthly totals unavailable, using estimated growth")
				return nil
			}
			growth = domain.MonthOverMonth(totals)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.use("orders:getStats", "orders:list")

	partnerList, partnersOK := partners.Get()
	inquiryList, inquiriesOK := inquiries.Get()
	if partnersOK {
		res.use("partnerStores:list")
	}
	if inquiriesOK {
		res.use("serviceInquiries:list")
	}
	if !growth.Estimated {
		res.use("postgres:monthlyTotals")
	}

	alerts := buildAlerts(*stats, partners, inquiries)

	res.Bindings["stats"] = orderStatsView(*stats)
	res.Bindings["recent"] = orderViews(limitSlice(recent, 5))
	res.Bindings["alerts"] = alertViews(alerts)
	res.Bindings["alertCount"] = len(alerts)
	res.Bindings["growth"] = map[string]interface{}{
		"revenue":   growth.Revenue,
		"orders":    growth.Orders,
		"estimated": growth.Estimated,
	}
	res.set("partnersAvailable", partnersOK)
	res.set("inquiriesAvailable", inquiriesOK)
	res.set("growthEstimated", growth.Estimated)

	if partnersOK {
		active := 0
		for i := range partnerList {
			if partnerList[i].Active {
				active++
			}
		}
		res.set("partnerCount", len(partnerList))
		res.set("activePartners", active)
	}
	if inquiriesOK {
		counts := domain.CountInquiriesByStatus(inquiryList)
		open := 0
		for status, n := range counts {
			if status.IsOpen() {
				open += n
			}
		}
		res.set("openInquiries", open)
		res.set("newInquiries", counts[domain.InquiryStatusNew])
	}

	res.Data["stats"] = stats
	res.Data["alerts"] = alerts
	res.Data["growth"] = growth
	return res, nil
}

// buildAlerts derives attention items. Partner and inquiry alerts are only
// produced when that source was fetched.
func buildAlerts(stats domain.OrderStats, partners domain.Optional[[]domain.PartnerStore], inquiries domain.Optional[[]domain.ServiceInquiry]) []domain.Alert {
	var alerts []domain.Alert

	if stats.PendingOrders > 0 {
		alerts = append(alerts, domain.Alert{
			Severity: domain.AlertWarning,
			Title:    "Pending orders",
			Detail:   fmt.Sprintf("%d orders are pending review", stats.PendingOrders),
			Source:   domain.AgentOrder,
		})
	}
	if stats.AwaitingPayment > 0 {
		severity := domain.AlertWarning
		if stats.AwaitingPayment >= paymentBacklogCritical {
			severity = domain.AlertCritical
		}
		alerts = append(alerts, domain.Alert{
			Severity: severity,
			Title:    "Awaiting payment",
			Detail:   fmt.Sprintf("%d orders are awaiting payment", stats.AwaitingPayment),
			Source:   domain.AgentOrder,
		})
	}

	if list, ok := partners.Get(); ok {
		var inactive, onboarding []string
		for i := range list {
			p := &list[i]
			if !p.Active {
				inactive = append(inactive, p.DisplayName())
			} else if !p.OnboardingComplete {
				onboarding = append(onboarding, p.DisplayName())
			}
		}
		if len(inactive) > 0 {
			alerts = append(alerts, domain.Alert{
				Severity: domain.AlertWarning,
				Title:    "Inactive partners",
				Detail:   strings.Join(inactive, ", "),
				Source:   domain.AgentVendor,
			})
		}
		if len(onboarding) > 0 {
			alerts = append(alerts, domain.Alert{
				Severity: domain.AlertInfo,
				Title:    "Onboarding incomplete",
				Detail:   strings.Join(onboarding, ", "),
				Source:   domain.AgentVendor,
			})
		}
	}

	if list, ok := inquiries.Get(); ok {
		if n := domain.CountInquiriesByStatus(list)[domain.InquiryStatusNew]; n > 0 {
			alerts = append(alerts, domain.Alert{
				Severity: domain.AlertWarning,
				Title:    "New inquiries",
				Detail:   fmt.Sprintf("%d new service inquiries are waiting for a reply", n),
				Source:   domain.AgentInquiry,
			})
		}
	}

	return alerts
}

const dashboardTemplate = `## Business Dashboard ({{ today }})
Orders: {{ stats.totalOrders }} total, {{ stats.todayOrders }} today, {{ stats.monthOrders }} this month
Revenue: {{ stats.totalRevenue }} total, {{ stats.todayRevenue }} today, {{ stats.monthRevenue }} this month
Average order: {{ stats.averageOrder }}
Pipeline: {{ stats.pending }} pending, {{ stats.awaitingPayment }} awaiting payment, {{ stats.awaitingShipment }} awaiting shipment, {{ stats.inProgress }} in progress, {{ stats.completed }} completed, {{ stats.cancelled }} cancelled
Growth month over month: revenue {{ growth.revenue | percent }}, orders {{ growth.orders | percent }}{% if growth.estimated %} (estimated){% endif %}

{% if partnersAvailable %}Partners: {{ partnerCount }} total, {{ activePartners }} active{% else %}Partner data not available{% endif %}
{% if inquiriesAvailable %}Inquiries: {{ openInquiries }} open, {{ newInquiries }} new{% else %}Inquiry data not available{% endif %}

### Alerts
{% if alertCount > 0 %}{% for alert in alerts %}- [{{ alert.severity }}] {{ alert.title }}: {{ alert.detail }}
{% endfor %}{% else %}No alerts.{% endif %}
{% if action != "alerts" %}
### Recent Orders
{% for o in recent %}- {{ o.number }} | {{ o.customer }} | {{ o.status }} | {{ o.total }} | {{ o.created }}
{% endfor %}{% endif %}`
