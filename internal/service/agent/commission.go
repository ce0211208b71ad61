package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ironclad/ironclad/internal/domain"
)

const (
	commissionList    = "listCommissions"
	commissionDetails = "commissionDetails"
	commissionPayouts = "processPayouts"
	commissionStats   = "commissionStats"

	commissionRowsShown = 25
)

func commissionStrategy() *strategy {
	return &strategy{
		kind:          domain.AgentCommission,
		keywords:      []string{"commission", "payout", "payment", "earn", "owed", "eligible"},
		actions:       []string{commissionList, commissionDetails, commissionPayouts, commissionStats, ActionCustom},
		defaultAction: ActionCustom,
		resolve:       resolveCommission,
		execute:       executeCommission,
		template:      commissionTemplate,
		prompt: "You are the commissions assistant for a firearms services business. " +
			"Partner stores earn commission on orders they place. Answer from the context only, " +
			"quote amounts exactly, and keep lists short. Never claim a payout was made unless " +
			"the context says commissions were approved.",
		suggest: suggestCommission,
	}
}

func resolveCommission(in *domain.AgentInput) Action {
	msg := in.Message
	id := firstNonEmpty(in.ContextValue(ContextCommissionID), extractReference(msg, "commission"))
	orderNumber := firstNonEmpty(in.ContextValue(ContextOrderNumber), extractOrderNumber(msg))
	history := "false"
	if containsAny(msg, "history", "paid out") {
		history = "true"
	}
	params := []string{"id", id, "order", orderNumber, "history", history}

	switch {
	case containsWord(msg, "process") || containsWord(msg, "approve") || containsAny(msg, "pay out", "run payout"):
		return newAction(commissionPayouts, params...)
	case id != "" || orderNumber != "":
		return newAction(commissionDetails, params...)
	case containsAny(msg, "stats", "statistics", "summary", "total", "how much", "average", "breakdown", "owed"):
		return newAction(commissionStats, params...)
	case containsAny(msg, "list", "show", "history", "which", "recent") || containsWord(msg, "all") ||
		len(findStatuses(msg, domain.CommissionStatuses)) > 0:
		return newAction(commissionList, params...)
	}
	return newAction(ActionCustom, params...)
}

// commissionData is the full commission set plus partner names.
type commissionData struct {
	all      []domain.Commission
	partners domain.Optional[[]domain.PartnerStore]
	names    map[string]string
}

func loadCommissions(ctx context.Context, a *Agent, res *Result) (*commissionData, error) {
	repos := a.deps.Repos
	data := &commissionData{
		partners: domain.Failed[[]domain.PartnerStore](errSourceNotConfigured),
		names:    map[string]string{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		all, err := repos.Commissions.List(gctx, "")
		if err != nil {
			return fmt.Errorf("failed to list commissions: %w", err)
		}
		data.all = all
		return nil
	})
	if repos.Partners != nil {
		g.Go(func() error {
			data.partners = optional(gctx, a, "partners", repos.Partners.List)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.use("commissions:list")
	if partners, ok := data.partners.Get(); ok {
		res.use("partnerStores:list")
		data.names = domain.PartnerNames(partners)
	}
	return data, nil
}

// partnerFilter resolves the partner a message or context refers to.
func (d *commissionData) partnerFilter(in *domain.AgentInput) *domain.PartnerStore {
	partners, ok := d.partners.Get()
	if !ok {
		if id := in.ContextValue(ContextPartnerID); id != "" {
			return &domain.PartnerStore{ID: id}
		}
		return nil
	}
	if id := in.ContextValue(ContextPartnerID); id != "" {
		if p := domain.FindPartner(partners, id); p != nil {
			return p
		}
		return &domain.PartnerStore{ID: id}
	}
	return partnerInMessage(partners, in.Message)
}

// buildCommissionFilter reads status, partner, period and amount bounds
// from the message and context.
func buildCommissionFilter(in *domain.AgentInput, partner *domain.PartnerStore, action Action, now time.Time) domain.CommissionFilter {
	msg := in.Message
	filter := domain.CommissionFilter{
		Statuses:  findStatuses(msg, domain.CommissionStatuses),
		DateRange: dateRangeFor(msg, now),
	}
	if s := in.ContextValue(ContextStatus); s != "" {
		if status, err := domain.ParseCommissionStatus(s); err == nil {
			filter.Statuses = []domain.CommissionStatus{status}
		}
	}
	if len(filter.Statuses) == 0 && action.Param("history") == "true" {
		filter.Statuses = []domain.CommissionStatus{domain.CommissionStatusPaid}
	}
	if partner != nil {
		filter.PartnerStoreID = partner.ID
	}
	filter.MinAmount, filter.MaxAmount = extractBounds(msg)
	return filter
}

func executeCommission(ctx context.Context, a *Agent, action Action, in *domain.AgentInput) (*Result, error) {
	res := newResult()

	if action.Name == commissionDetails && action.Param("id") != "" {
		c, err := a.deps.Repos.Commissions.Get(ctx, action.Param("id"))
		if err != nil {
			return nil, err
		}
		res.use("commissions:get")
		res.Bindings["commission"] = commissionView(c, nil)
		res.Data["commission"] = c
		return res, nil
	}

	data, err := loadCommissions(ctx, a, res)
	if err != nil {
		return nil, err
	}
	now := a.deps.now()
	stats := domain.ComputeCommissionStats(data.all, data.names, now)
	res.Bindings["stats"] = commissionStatsView(stats)
	res.Bindings["partnerTotals"] = len(stats.ByPartner)
	res.Data["stats"] = stats

	switch action.Name {
	case commissionDetails:
		orderNumber := action.Param("order")
		if orderNumber == "" {
			return nil, domain.NewValidationError("a commission id or order number is required")
		}
		for i := range data.all {
			if strings.EqualFold(data.all[i].OrderNumber, orderNumber) {
				res.Bindings["commission"] = commissionView(&data.all[i], data.names)
				res.Data["commission"] = data.all[i]
				return res, nil
			}
		}
		return nil, &domain.ErrNotFound{Entity: "commission", ID: orderNumber}

	case commissionPayouts:
		if err := processPayouts(ctx, a, in, data, res); err != nil {
			return nil, err
		}
		return res, nil

	case commissionList:
		partner := data.partnerFilter(in)
		filter := buildCommissionFilter(in, partner, action, now)
		matched := filter.Apply(data.all)
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].CreatedAt > matched[j].CreatedAt
		})
		var total domain.Cents
		for i := range matched {
			total += matched[i].CommissionAmount
		}

		shown := limitSlice(matched, commissionRowsShown)
		rows := make([]map[string]interface{}, 0, len(shown))
		for i := range shown {
			rows = append(rows, commissionView(&shown[i], data.names))
		}

		res.Bindings["filterActive"] = filter.IsActive()
		res.Bindings["filterLabel"] = commissionFilterLabel(filter)
		res.Bindings["partnerName"] = ""
		if partner != nil {
			res.Bindings["partnerName"] = firstNonEmpty(data.names[partner.ID], partner.DisplayName())
		}
		res.Bindings["period"] = periodLabel(filter.DateRange)
		res.Bindings["commissions"] = rows
		res.Bindings["more"] = len(matched) - len(shown)
		res.set("matched", len(matched))
		res.Bindings["matchedTotal"] = total.String()
		res.Data["matchedTotal"] = total
		res.Data["filter"] = filter
		res.Data["commissions"] = shown
		return res, nil
	}

	// commissionStats and custom show the stats plus the latest few.
	latest := make([]domain.Commission, len(data.all))
	copy(latest, data.all)
	sort.SliceStable(latest, func(i, j int) bool {
		return latest[i].CreatedAt > latest[j].CreatedAt
	})
	latest = limitSlice(latest, 5)
	rows := make([]map[string]interface{}, 0, len(latest))
	for i := range latest {
		rows = append(rows, commissionView(&latest[i], data.names))
	}
	res.Bindings["latest"] = rows
	return res, nil
}

type payoutGroup struct {
	PartnerStoreID string       `json:"partnerStoreId"`
	Partner        string       `json:"partner"`
	Count          int          `json:"count"`
	Amount         domain.Cents `json:"amount"`
	Approved       int          `json:"approved,omitempty"`
}

// processPayouts summarises eligible commissions per partner. Commissions
// are only approved when the client confirms with confirm=true.
func processPayouts(ctx context.Context, a *Agent, in *domain.AgentInput, data *commissionData, res *Result) error {
	partner := data.partnerFilter(in)

	byPartner := map[string]*payoutGroup{}
	for i := range data.all {
		c := &data.all[i]
		if c.Status != domain.CommissionStatusEligible {
			continue
		}
		if partner != nil && c.PartnerStoreID != partner.ID {
			continue
		}
		g, ok := byPartner[c.PartnerStoreID]
		if !ok {
			g = &payoutGroup{PartnerStoreID: c.PartnerStoreID, Partner: firstNonEmpty(data.names[c.PartnerStoreID], c.PartnerStoreID)}
			byPartner[c.PartnerStoreID] = g
		}
		g.Count++
		g.Amount += c.CommissionAmount
	}

	groups := make([]*payoutGroup, 0, len(byPartner))
	var total domain.Cents
	for _, g := range byPartner {
		groups = append(groups, g)
		total += g.Amount
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Amount != groups[j].Amount {
			return groups[i].Amount > groups[j].Amount
		}
		return groups[i].Partner < groups[j].Partner
	})

	confirmed := truthy(in.ContextValue(ContextConfirm))
	approved := 0
	if confirmed {
		for _, g := range groups {
			n, err := a.deps.Repos.Commissions.ApproveEligible(ctx, g.PartnerStoreID)
			if err != nil {
				return fmt.Errorf("failed to approve commissions for %s: %w", g.Partner, err)
			}
			g.Approved = n
			approved += n
		}
		if len(groups) > 0 {
			res.use("commissions:approveEligible")
		}
		a.logger.WithFields(map[string]interface{}{
			"partners": len(groups),
			"approved": approved,
		}).Info("Eligible commissions approved")
	}

	rows := make([]map[string]interface{}, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, map[string]interface{}{
			"partner":  g.Partner,
			"count":    g.Count,
			"amount":   g.Amount.String(),
			"approved": g.Approved,
		})
	}
	res.Bindings["payouts"] = rows
	res.Bindings["payoutTotal"] = total.String()
	res.set("payoutPartners", len(groups))
	res.set("confirmed", confirmed)
	res.set("requiresConfirmation", !confirmed && len(groups) > 0)
	res.set("approved", approved)
	res.Data["payouts"] = groups
	res.Data["payoutTotal"] = total
	return nil
}

func commissionFilterLabel(f domain.CommissionFilter) string {
	if len(f.Statuses) == 0 {
		return "All statuses"
	}
	labels := make([]string, 0, len(f.Statuses))
	for _, s := range f.Statuses {
		labels = append(labels, s.Label())
	}
	label := strings.Join(labels, ", ")
	if f.MinAmount != nil {
		label += " | over " + f.MinAmount.String()
	}
	if f.MaxAmount != nil {
		label += " | under " + f.MaxAmount.String()
	}
	return label
}

func periodLabel(r domain.DateRange) string {
	if r.IsZero() {
		return ""
	}
	return formatDate(r.From) + " to " + formatDate(r.To)
}

// sortedKeysByAmount orders map keys by amount, largest first, then name.
func sortedKeysByAmount(m map[string]domain.Cents) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

func suggestCommission(action Action, res *Result) []domain.SuggestedAction {
	switch action.Name {
	case commissionPayouts:
		if pending, _ := res.Data["requiresConfirmation"].(bool); pending {
			return []domain.SuggestedAction{
				suggestion("Confirm payouts", commissionPayouts, "checkmark.seal"),
				suggestion("Eligible commissions", commissionList, "list.bullet"),
			}
		}
		return []domain.SuggestedAction{
			suggestion("Commission summary", commissionStats, "dollarsign.circle"),
		}
	case commissionList, commissionDetails:
		return []domain.SuggestedAction{
			suggestion("Commission summary", commissionStats, "dollarsign.circle"),
			suggestion("Process payouts", commissionPayouts, "banknote"),
		}
	}
	return []domain.SuggestedAction{
		suggestion("Eligible commissions", commissionList, "list.bullet"),
		suggestion("Process payouts", commissionPayouts, "banknote"),
		suggestion("Partner performance", vendorPerformance, "chart.bar.xaxis"),
	}
}

const commissionTemplate = `## Commissions ({{ today }})
{% if action == "commissionDetails" %}
Commission {{ commission.id }} for order {{ commission.order }}
Partner: {{ commission.partner }}
Amount: {{ commission.amount }} on a base of {{ commission.base }}
Status: {{ commission.status }}
Created: {{ commission.created }}{% if commission.eligible != "" %} | Eligible: {{ commission.eligible }}{% endif %}{% if commission.paidAt != "" %} | Paid: {{ commission.paidAt }}{% endif %}
{% elsif action == "processPayouts" %}
### Payouts
{% if payoutPartners == 0 %}No commissions are eligible for payout.
{% else %}{% for p in payouts %}- {{ p.partner }}: {{ p.count }} commissions, {{ p.amount }}{% if confirmed %} ({{ p.approved }} approved){% endif %}
{% endfor %}Total eligible: {{ payoutTotal }}
{% if confirmed %}Approved {{ approved }} commissions.{% else %}Nothing has been approved yet. Ask the admin to confirm.{% endif %}
{% endif %}
{% elsif action == "listCommissions" %}
{% if filterActive %}Filter: {{ filterLabel }}{% if partnerName != "" %} | Partner: {{ partnerName }}{% endif %}{% if period != "" %} | Period: {{ period }}{% endif %}
{% endif %}Matching: {{ matched }} commissions totalling {{ matchedTotal }}
{% for c in commissions %}- {{ c.order }} | {{ c.partner }} | {{ c.amount }} | {{ c.status }} | {{ c.created }}
{% endfor %}{% if more > 0 %}...and {{ more }} more
{% endif %}
{% endif %}
{% if stats %}
### All commissions
Total: {{ stats.total }} across {{ stats.count }} commissions (average {{ stats.average }})
Pending: {{ stats.pending }}
Eligible for Payout: {{ stats.eligible }}
Approved: {{ stats.approved }}
Paid: {{ stats.paid }}
Voided: {{ stats.voided }}
Created this month: {{ stats.thisMonth }}
{% if partnerTotals > 0 %}By partner:
{% for p in stats.byPartner %}- {{ p.name }}: {{ p.amount }}
{% endfor %}{% endif %}
{% endif %}
{% if latest %}
### Latest
{% for c in latest %}- {{ c.order }} | {{ c.partner }} | {{ c.amount }} | {{ c.status }}
{% endfor %}{% endif %}`
