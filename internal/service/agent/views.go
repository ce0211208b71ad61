package agent

import (
	"fmt"
	"time"

	"github.com/Ironclad/ironclad/internal/domain"
)

// Template bindings are plain maps with amounts pre-formatted, so templates
// never see domain types.

const dateLayout = "Jan 2, 2006"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func orderView(o *domain.Order) map[string]interface{} {
	return map[string]interface{}{
		"id":          o.ID,
		"number":      o.OrderNumber,
		"customer":    firstNonEmpty(o.CustomerName, o.CustomerEmail),
		"email":       o.CustomerEmail,
		"phone":       o.CustomerPhone,
		"status":      o.Status.Label(),
		"total":       o.Totals.Total.String(),
		"subtotal":    o.Totals.Subtotal.String(),
		"tax":         o.Totals.Tax.String(),
		"shipping":    o.Totals.Shipping.String(),
		"discount":    o.Totals.Discount.String(),
		"serviceType": o.ServiceType,
		"placedBy":    string(o.PlacedBy),
		"partner":     o.PartnerStoreID,
		"created":     formatDate(o.CreatedAt.Time()),
		"paid":        o.IsPaid(),
		"paidAt":      formatDate(o.PaidAt.Time()),
		"shipTo":      o.ShippingAddress.String(),
	}
}

func orderViews(orders []domain.Order) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(orders))
	for i := range orders {
		out = append(out, orderView(&orders[i]))
	}
	return out
}

func orderStatsView(s domain.OrderStats) map[string]interface{} {
	return map[string]interface{}{
		"totalOrders":      s.TotalOrders,
		"totalRevenue":     s.TotalRevenue.String(),
		"pending":          s.PendingOrders,
		"awaitingPayment":  s.AwaitingPayment,
		"awaitingShipment": s.AwaitingShipment,
		"inProgress":       s.InProgress,
		"completed":        s.CompletedOrders,
		"cancelled":        s.CancelledOrders,
		"todayOrders":      s.TodayOrders,
		"todayRevenue":     s.TodayRevenue.String(),
		"monthOrders":      s.MonthOrders,
		"monthRevenue":     s.MonthRevenue.String(),
		"averageOrder":     s.AverageOrderValue().String(),
	}
}

func commissionView(c *domain.Commission, names map[string]string) map[string]interface{} {
	partner := c.PartnerStoreID
	if n, ok := names[c.PartnerStoreID]; ok && n != "" {
		partner = n
	}
	return map[string]interface{}{
		"id":       c.ID,
		"order":    c.OrderNumber,
		"partner":  partner,
		"amount":   c.CommissionAmount.String(),
		"base":     c.CommissionBaseAmount.String(),
		"status":   c.Status.Label(),
		"created":  formatDate(c.CreatedAt.Time()),
		"eligible": formatDate(c.EligibleAt.Time()),
		"paidAt":   formatDate(c.PaidAt.Time()),
	}
}

func commissionStatsView(s domain.CommissionStats) map[string]interface{} {
	byPartner := make([]map[string]interface{}, 0, len(s.ByPartner))
	for _, name := range sortedKeysByAmount(s.ByPartner) {
		byPartner = append(byPartner, map[string]interface{}{
			"name":   name,
			"amount": s.ByPartner[name].String(),
		})
	}
	return map[string]interface{}{
		"total":     s.TotalAmount.String(),
		"pending":   s.PendingAmount.String(),
		"eligible":  s.EligibleAmount.String(),
		"approved":  s.ApprovedAmount.String(),
		"paid":      s.PaidAmount.String(),
		"voided":    s.VoidedAmount.String(),
		"count":     s.Count,
		"average":   s.Average.String(),
		"thisMonth": s.ThisMonthCount,
		"byPartner": byPartner,
	}
}

func partnerView(p *domain.PartnerStore) map[string]interface{} {
	status := "Active"
	if !p.Active {
		status = "Inactive"
	}
	onboarding := "Complete"
	if !p.OnboardingComplete {
		onboarding = "Incomplete"
	}
	return map[string]interface{}{
		"id":           p.ID,
		"name":         p.DisplayName(),
		"code":         p.StoreCode,
		"status":       status,
		"onboarding":   onboarding,
		"rate":         fmt.Sprintf("%g%%", p.CommissionRate),
		"payoutMethod": string(p.PayoutMethod),
		"payoutEmail":  p.PayoutEmail,
		"contact":      p.ContactEmail,
		"attention":    p.NeedsAttention(),
	}
}

func partnerViews(partners []domain.PartnerStore) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(partners))
	for i := range partners {
		out = append(out, partnerView(&partners[i]))
	}
	return out
}

func inquiryView(q *domain.ServiceInquiry) map[string]interface{} {
	quoted := ""
	if q.QuotedAmount != nil {
		quoted = q.QuotedAmount.String()
	}
	return map[string]interface{}{
		"id":       q.ID,
		"customer": firstNonEmpty(q.CustomerName, q.CustomerEmail),
		"email":    q.CustomerEmail,
		"phone":    q.CustomerPhone,
		"product":  q.ProductTitle,
		"status":   q.Status.Label(),
		"quoted":   quoted,
		"message":  q.Message,
		"notes":    q.AdminNotes,
		"created":  formatDate(q.CreatedAt.Time()),
	}
}

func inquiryViews(inquiries []domain.ServiceInquiry) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(inquiries))
	for i := range inquiries {
		out = append(out, inquiryView(&inquiries[i]))
	}
	return out
}

func customerView(c *domain.Customer) map[string]interface{} {
	sources := make([]string, 0, len(c.Sources))
	for _, s := range c.Sources {
		sources = append(sources, string(s))
	}
	return map[string]interface{}{
		"email":        c.Email,
		"name":         c.Name,
		"phone":        c.Phone,
		"orders":       c.OrderCount,
		"spent":        c.TotalSpent.String(),
		"firstSeen":    formatDate(c.CreatedAt),
		"lastActivity": formatDate(c.LastActivity),
		"sources":      sources,
	}
}

func customerViews(customers []domain.Customer) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(customers))
	for i := range customers {
		out = append(out, customerView(&customers[i]))
	}
	return out
}

func productView(p *domain.Product) map[string]interface{} {
	return map[string]interface{}{
		"id":          p.ID,
		"title":       p.Title,
		"category":    p.Category,
		"serviceType": p.ServiceType,
		"price":       p.Price.String(),
		"inStock":     p.InStock,
		"active":      p.Active,
	}
}

func productViews(products []domain.Product) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(products))
	for i := range products {
		out = append(out, productView(&products[i]))
	}
	return out
}

func discountView(d *domain.DiscountCode, names map[string]string, now time.Time) map[string]interface{} {
	usage := fmt.Sprintf("%d", d.UsageCount)
	if d.MaxUsage > 0 {
		usage = fmt.Sprintf("%d/%d", d.UsageCount, d.MaxUsage)
	}
	owner := ""
	if d.PartnerStoreID != "" {
		owner = d.PartnerStoreID
		if n, ok := names[d.PartnerStoreID]; ok && n != "" {
			owner = n
		}
	}
	return map[string]interface{}{
		"code":     d.Code,
		"offer":    d.Describe(),
		"usage":    usage,
		"usable":   d.IsUsable(now),
		"partner":  owner,
		"expires":  formatDate(d.ExpiresAt.Time()),
		"product":  d.ProductID,
		"override": d.CommissionRule != nil,
	}
}

func alertViews(alerts []domain.Alert) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, map[string]interface{}{
			"severity": string(a.Severity),
			"title":    a.Title,
			"detail":   a.Detail,
			"source":   string(a.Source),
		})
	}
	return out
}

func limitSlice[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}
