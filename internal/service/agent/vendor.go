package agent

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Ironclad/ironclad/internal/domain"
)

const (
	vendorList        = "listVendors"
	vendorDetails     = "vendorDetails"
	vendorPerformance = "vendorPerformance"
	vendorOnboarding  = "onboardingStatus"
)

func vendorStrategy() *strategy {
	return &strategy{
		kind:          domain.AgentVendor,
		keywords:      []string{"vendor", "partner", "store", "onboarding", "commission rate", "payout method", "dealer"},
		actions:       []string{vendorList, vendorDetails, vendorPerformance, vendorOnboarding, ActionCustom},
		defaultAction: ActionCustom,
		resolve:       resolveVendor,
		execute:       executeVendor,
		template:      vendorTemplate,
		prompt: "You are the partner store assistant for a firearms services business. " +
			"Partner stores are dealers who place orders for their customers and earn commission. " +
			"Answer from the context, name stores exactly as given, and flag stores that need attention.",
		suggest: suggestVendor,
	}
}

func resolveVendor(in *domain.AgentInput) Action {
	msg := in.Message
	ref := in.ContextValue(ContextPartnerID)

	switch {
	case containsAny(msg, "onboarding", "setup", "set up", "inactive", "not active"):
		return newAction(vendorOnboarding, "ref", ref)
	case containsWord(msg, "top") || containsAny(msg, "performance", "best", "sales by", "revenue by", "ranking", "leaderboard"):
		return newAction(vendorPerformance, "ref", ref)
	case ref != "" || containsAny(msg, "details", "about", "info", "commission rate", "payout method", "contact"):
		return newAction(vendorDetails, "ref", ref)
	case containsWord(msg, "all") || containsAny(msg, "list", "show", "how many"):
		return newAction(vendorList, "ref", ref)
	}
	return newAction(ActionCustom, "ref", ref)
}

type partnerPerformance struct {
	PartnerStoreID string       `json:"partnerStoreId"`
	Name           string       `json:"name"`
	Orders         int          `json:"orders"`
	Revenue        domain.Cents `json:"revenue"`
	Commission     domain.Cents `json:"commission"`
	Eligible       domain.Cents `json:"eligible"`
}

// computePartnerPerformance groups orders and commissions per partner,
// ordered by revenue. Cancelled orders and voided commissions are left out.
func computePartnerPerformance(partners []domain.PartnerStore, orders []domain.Order, commissions []domain.Commission) []partnerPerformance {
	byID := make(map[string]*partnerPerformance, len(partners))
	out := make([]*partnerPerformance, 0, len(partners))
	for i := range partners {
		p := &partnerPerformance{PartnerStoreID: partners[i].ID, Name: partners[i].DisplayName()}
		byID[p.PartnerStoreID] = p
		out = append(out, p)
	}
	for i := range orders {
		o := &orders[i]
		p, ok := byID[o.PartnerStoreID]
		if !ok || o.Status == domain.OrderStatusCancelled {
			continue
		}
		p.Orders++
		p.Revenue += o.Totals.Total
	}
	for i := range commissions {
		c := &commissions[i]
		p, ok := byID[c.PartnerStoreID]
		if !ok || c.Status == domain.CommissionStatusVoided {
			continue
		}
		p.Commission += c.CommissionAmount
		if c.Status == domain.CommissionStatusEligible {
			p.Eligible += c.CommissionAmount
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Revenue > out[j].Revenue
	})
	result := make([]partnerPerformance, 0, len(out))
	for _, p := range out {
		result = append(result, *p)
	}
	return result
}

func executeVendor(ctx context.Context, a *Agent, action Action, in *domain.AgentInput) (*Result, error) {
	repos := a.deps.Repos
	res := newResult()

	partners, err := repos.Partners.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list partners: %w", err)
	}
	res.use("partnerStores:list")

	active, attention := 0, 0
	for i := range partners {
		if partners[i].Active {
			active++
		}
		if partners[i].NeedsAttention() {
			attention++
		}
	}
	res.set("partnerCount", len(partners))
	res.set("activePartners", active)
	res.set("needsAttention", attention)

	switch action.Name {
	case vendorDetails:
		var partner *domain.PartnerStore
		if ref := action.Param("ref"); ref != "" {
			partner = domain.FindPartner(partners, ref)
		}
		if partner == nil {
			partner = partnerInMessage(partners, in.Message)
		}
		if partner == nil {
			res.set("notFound", true)
			res.Bindings["partners"] = partnerViews(partners)
			return res, nil
		}
		res.Bindings["partner"] = partnerView(partner)
		res.Data["partner"] = partner
		return res, nil

	case vendorOnboarding:
		var pending []domain.PartnerStore
		for i := range partners {
			if partners[i].NeedsAttention() {
				pending = append(pending, partners[i])
			}
		}
		res.Bindings["partners"] = partnerViews(pending)
		res.Data["partners"] = pending
		return res, nil

	case vendorPerformance:
		var (
			orders      []domain.Order
			commissions []domain.Commission
		)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			list, err := repos.Orders.List(gctx, orderFetchLimit)
			if err != nil {
				return fmt.Errorf("failed to list orders: %w", err)
			}
			orders = list
			return nil
		})
		g.Go(func() error {
			list, err := repos.Commissions.List(gctx, "")
			if err != nil {
				return fmt.Errorf("failed to list commissions: %w", err)
			}
			commissions = list
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		res.use("orders:list", "commissions:list")

		perf := computePartnerPerformance(partners, orders, commissions)
		rows := make([]map[string]interface{}, 0, len(perf))
		for _, p := range perf {
			rows = append(rows, map[string]interface{}{
				"name":       p.Name,
				"orders":     p.Orders,
				"revenue":    p.Revenue.String(),
				"commission": p.Commission.String(),
				"eligible":   p.Eligible.String(),
			})
		}
		res.Bindings["performance"] = rows
		res.Data["performance"] = perf
		return res, nil
	}

	res.Bindings["partners"] = partnerViews(partners)
	res.Data["partners"] = partners
	return res, nil
}

func suggestVendor(action Action, res *Result) []domain.SuggestedAction {
	switch action.Name {
	case vendorDetails:
		return []domain.SuggestedAction{
			suggestion("Partner commissions", commissionList, "dollarsign.circle"),
			suggestion("Partner performance", vendorPerformance, "chart.bar.xaxis"),
		}
	case vendorPerformance:
		return []domain.SuggestedAction{
			suggestion("Process payouts", commissionPayouts, "banknote"),
			suggestion("Onboarding status", vendorOnboarding, "person.badge.clock"),
		}
	}
	return []domain.SuggestedAction{
		suggestion("Partner performance", vendorPerformance, "chart.bar.xaxis"),
		suggestion("Onboarding status", vendorOnboarding, "person.badge.clock"),
	}
}

const vendorTemplate = `## Partner Stores ({{ today }})
{{ partnerCount }} partners, {{ activePartners }} active, {{ needsAttention }} need attention
{% if action == "vendorDetails" and partner %}
### {{ partner.name }}{% if partner.code != "" %} ({{ partner.code }}){% endif %}
Status: {{ partner.status }} | Onboarding: {{ partner.onboarding }}
Commission rate: {{ partner.rate }}
Payout method: {{ partner.payoutMethod }}{% if partner.payoutEmail != "" %} ({{ partner.payoutEmail }}){% endif %}
{% if partner.contact != "" %}Contact: {{ partner.contact }}
{% endif %}
{% elsif action == "vendorPerformance" %}
### Performance by revenue
{% for p in performance %}- {{ p.name }}: {{ p.orders }} orders, {{ p.revenue }} revenue, {{ p.commission }} commission ({{ p.eligible }} eligible)
{% endfor %}
{% else %}
{% if notFound %}No partner matched the request. Known partners:
{% elsif action == "onboardingStatus" %}### Needing attention
{% endif %}{% for p in partners %}- {{ p.name }}{% if p.code != "" %} ({{ p.code }}){% endif %} | {{ p.status }} | onboarding {{ p.onboarding }} | rate {{ p.rate }}
{% endfor %}
{% endif %}`
