package agent

import (
	"context"
	"fmt"
	"sort"

	"github.com/Ironclad/ironclad/internal/domain"
)

const (
	inquiryList    = "listInquiries"
	inquiryDetails = "inquiryDetails"
	inquiryUpdate  = "updateInquiryStatus"
	inquiryQuote   = "sendQuote"
	inquiryNotes   = "addNotes"

	inquiryRowsShown = 20
)

func inquiryStrategy() *strategy {
	return &strategy{
		kind:          domain.AgentInquiry,
		keywords:      []string{"inquiry", "inquiries", "quote", "estimate", "service request", "lead"},
		actions:       []string{inquiryList, inquiryDetails, inquiryUpdate, inquiryQuote, inquiryNotes, ActionCustom},
		defaultAction: ActionCustom,
		resolve:       resolveInquiry,
		execute:       executeInquiry,
		template:      inquiryTemplate,
		prompt: "You are the service inquiry assistant for a firearms services business. " +
			"Customers request quotes for gunsmithing and refinishing work. Answer from the context, " +
			"highlight new inquiries that are waiting, and confirm any change that was made.",
		suggest: suggestInquiry,
	}
}

func resolveInquiry(in *domain.AgentInput) Action {
	msg := in.Message
	id := firstNonEmpty(in.ContextValue(ContextInquiryID), extractReference(msg, "inquiry"))
	status := in.ContextValue(ContextStatus)
	if status == "" {
		if found := findStatuses(msg, domain.InquiryStatuses); len(found) > 0 {
			status = string(found[len(found)-1])
		}
	}
	amount := in.ContextValue(ContextAmount)
	if amount == "" {
		if c, ok := extractAmount(msg); ok {
			amount = fmt.Sprintf("%.2f", c.Dollars())
		}
	}
	notes := firstNonEmpty(in.ContextValue(ContextNotes), extractNotes(msg))
	params := []string{"id", id, "status", status, "amount", amount, "notes", notes}

	switch {
	case id != "" && amount != "" && containsAny(msg, "quote", "estimate"):
		return newAction(inquiryQuote, params...)
	case id != "" && notes != "":
		return newAction(inquiryNotes, params...)
	case id != "" && status != "" && containsAny(msg, "mark", "update", "change", "set ", "move", "status to"):
		return newAction(inquiryUpdate, params...)
	case id != "":
		return newAction(inquiryDetails, params...)
	case status != "" || containsAny(msg, "list", "show", "open", "waiting", "recent") || containsWord(msg, "all"):
		return newAction(inquiryList, params...)
	}
	return newAction(ActionCustom, params...)
}

func requireParam(action Action, key, what string) (string, error) {
	v := action.Param(key)
	if v == "" {
		return "", domain.NewValidationError(what + " is required")
	}
	return v, nil
}

func executeInquiry(ctx context.Context, a *Agent, action Action, in *domain.AgentInput) (*Result, error) {
	inquiries := a.deps.Repos.Inquiries
	res := newResult()

	switch action.Name {
	case inquiryDetails, inquiryUpdate, inquiryQuote, inquiryNotes:
		id, err := requireParam(action, "id", "inquiry id")
		if err != nil {
			return nil, err
		}
		q, err := inquiries.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		res.use("serviceInquiries:get")

		switch action.Name {
		case inquiryUpdate:
			status, err := domain.ParseInquiryStatus(action.Param("status"))
			if err != nil {
				return nil, err
			}
			if err := inquiries.UpdateStatus(ctx, q.ID, status); err != nil {
				return nil, fmt.Errorf("failed to update inquiry %s: %w", q.ID, err)
			}
			res.use("serviceInquiries:updateStatus")
			res.Bindings["change"] = fmt.Sprintf("Status changed from %s to %s", q.Status.Label(), status.Label())
			q.Status = status

		case inquiryQuote:
			amount, ok := parseDollars(action.Param("amount"))
			if !ok || amount <= 0 {
				return nil, domain.NewValidationError("a positive quote amount is required")
			}
			if err := inquiries.SendQuote(ctx, q.ID, amount); err != nil {
				return nil, fmt.Errorf("failed to send quote for inquiry %s: %w", q.ID, err)
			}
			res.use("serviceInquiries:sendQuote")
			res.Bindings["change"] = fmt.Sprintf("Quote of %s sent to %s", amount, firstNonEmpty(q.CustomerEmail, q.CustomerName))
			q.QuotedAmount = &amount
			q.Status = domain.InquiryStatusQuoted

		case inquiryNotes:
			notes, err := requireParam(action, "notes", "notes")
			if err != nil {
				return nil, err
			}
			if err := inquiries.AddNotes(ctx, q.ID, notes); err != nil {
				return nil, fmt.Errorf("failed to add notes to inquiry %s: %w", q.ID, err)
			}
			res.use("serviceInquiries:addNotes")
			res.Bindings["change"] = "Notes added"
			q.AdminNotes = notes
		}

		if _, changed := res.Bindings["change"]; changed {
			res.set("updated", true)
			a.logger.WithFields(map[string]interface{}{
				"inquiry": q.ID,
				"action":  action.Name,
			}).Info("Inquiry updated")
		}
		res.Bindings["inquiry"] = inquiryView(q)
		res.Data["inquiry"] = q
		return res, nil
	}

	all, err := inquiries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inquiries: %w", err)
	}
	res.use("serviceInquiries:list")

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt > all[j].CreatedAt
	})
	counts := domain.CountInquiriesByStatus(all)
	countRows := make([]map[string]interface{}, 0, len(domain.InquiryStatuses))
	for _, s := range domain.InquiryStatuses {
		if counts[s] > 0 {
			countRows = append(countRows, map[string]interface{}{"status": s.Label(), "count": counts[s]})
		}
	}
	res.Bindings["counts"] = countRows
	res.set("total", len(all))

	filter := domain.InquiryFilter{}
	label := "All"
	if s := action.Param("status"); s != "" {
		if status, err := domain.ParseInquiryStatus(s); err == nil {
			filter.Statuses = []domain.InquiryStatus{status}
			label = status.Label()
		}
	} else if action.Name == ActionCustom || containsAny(in.Message, "open", "waiting") {
		for _, s := range domain.InquiryStatuses {
			if s.IsOpen() {
				filter.Statuses = append(filter.Statuses, s)
			}
		}
		label = "Open"
	}
	matched := limitSlice(filter.Apply(all), inquiryRowsShown)
	res.Bindings["filterLabel"] = label
	res.Bindings["inquiries"] = inquiryViews(matched)
	res.set("shown", len(matched))
	res.Data["inquiries"] = matched
	res.Data["counts"] = counts
	return res, nil
}

func suggestInquiry(action Action, res *Result) []domain.SuggestedAction {
	switch action.Name {
	case inquiryDetails, inquiryUpdate, inquiryNotes:
		return []domain.SuggestedAction{
			suggestion("Send quote", inquiryQuote, "doc.text"),
			suggestion("Add notes", inquiryNotes, "square.and.pencil"),
			suggestion("Mark in progress", inquiryUpdate, "hammer"),
		}
	case inquiryQuote:
		return []domain.SuggestedAction{
			suggestion("Open inquiries", inquiryList, "tray.full"),
		}
	}
	return []domain.SuggestedAction{
		suggestion("New inquiries", inquiryList, "envelope.badge"),
		suggestion("Dashboard", dashboardOverview, "gauge"),
	}
}

const inquiryTemplate = `## Service Inquiries ({{ today }})
{% if inquiry %}
{% if updated %}{{ change }}
{% endif %}Inquiry {{ inquiry.id }} from {{ inquiry.customer }} <{{ inquiry.email }}>{% if inquiry.phone != "" %} {{ inquiry.phone }}{% endif %}
Service: {{ inquiry.product }}
Status: {{ inquiry.status }}{% if inquiry.quoted != "" %} | Quoted: {{ inquiry.quoted }}{% endif %}
Received: {{ inquiry.created }}
{% if inquiry.message != "" %}Message: {{ inquiry.message }}
{% endif %}{% if inquiry.notes != "" %}Admin notes: {{ inquiry.notes }}
{% endif %}
{% else %}
Total inquiries: {{ total }}
{% for c in counts %}- {{ c.status }}: {{ c.count }}
{% endfor %}
### {{ filterLabel }} ({{ shown }} shown)
{% for q in inquiries %}- {{ q.id }} | {{ q.customer }} | {{ q.product }} | {{ q.status }}{% if q.quoted != "" %} | {{ q.quoted }}{% endif %} | {{ q.created }}
{% endfor %}
{% endif %}`
