package agent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Ironclad/ironclad/internal/domain"
)

const (
	orderList    = "listOrders"
	orderDetails = "orderDetails"
	orderStats   = "orderStats"
	orderUpdate  = "updateOrderStatus"

	orderFetchLimit = 200
	orderRowsShown  = 20
)

func orderStrategy() *strategy {
	return &strategy{
		kind:          domain.AgentOrder,
		keywords:      []string{"order", "shipment", "shipping", "awaiting payment", "fulfillment", "tracking"},
		actions:       []string{orderList, orderDetails, orderStats, orderUpdate, ActionCustom},
		defaultAction: ActionCustom,
		resolve:       resolveOrder,
		execute:       executeOrder,
		template:      orderTemplate,
		prompt: "You are the orders assistant for a firearms services business. " +
			"Answer from the context only. Use order numbers and statuses exactly as given. " +
			"When a status was changed, confirm the old and new status.",
		suggest: suggestOrder,
	}
}

func resolveOrder(in *domain.AgentInput) Action {
	msg := in.Message
	number := firstNonEmpty(in.ContextValue(ContextOrderNumber), extractOrderNumber(msg))
	status := in.ContextValue(ContextStatus)
	if status == "" {
		if found := findStatuses(msg, domain.OrderStatuses); len(found) > 0 {
			status = string(found[len(found)-1])
		}
	}

	switch {
	case number != "" && status != "" && containsAny(msg, "mark", "update", "change", "set ", "move", "status to"):
		return newAction(orderUpdate, "order", number, "status", status)
	case number != "":
		return newAction(orderDetails, "order", number)
	case containsAny(msg, "stats", "statistics", "how many", "revenue", "total", "average"):
		return newAction(orderStats)
	case status != "" || containsAny(msg, "list", "show", "recent", "latest", "all orders"):
		return newAction(orderList, "status", status)
	}
	return newAction(ActionCustom)
}

func executeOrder(ctx context.Context, a *Agent, action Action, in *domain.AgentInput) (*Result, error) {
	orders := a.deps.Repos.Orders
	res := newResult()

	switch action.Name {
	case orderDetails:
		order, err := orders.Get(ctx, action.Param("order"))
		if err != nil {
			return nil, err
		}
		res.use("orders:getByOrderNumber")
		res.Bindings["order"] = orderView(order)
		res.Data["order"] = order
		return res, nil

	case orderUpdate:
		status, err := domain.ParseOrderStatus(action.Param("status"))
		if err != nil {
			return nil, err
		}
		order, err := orders.Get(ctx, action.Param("order"))
		if err != nil {
			return nil, err
		}
		previous := order.Status
		if err := orders.UpdateStatus(ctx, order.ID, status); err != nil {
			return nil, fmt.Errorf("failed to update order %s: %w", order.OrderNumber, err)
		}
		order.Status = status
		res.use("orders:getByOrderNumber", "orders:updateStatus")
		res.Bindings["order"] = orderView(order)
		res.Bindings["previousStatus"] = previous.Label()
		res.set("updated", true)
		res.Data["order"] = order
		res.Data["previousStatus"] = previous
		a.logger.WithFields(map[string]interface{}{
			"order": order.OrderNumber,
			"from":  string(previous),
			"to":    string(status),
		}).Info("Order status updated")
		return res, nil

	case orderList:
		all, err := orders.List(ctx, orderFetchLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders: %w", err)
		}
		res.use("orders:list")
		filter := domain.OrderFilter{Limit: orderRowsShown}
		if s := action.Param("status"); s != "" {
			if status, err := domain.ParseOrderStatus(s); err == nil {
				filter.Statuses = []domain.OrderStatus{status}
			}
		}
		filter.PartnerStoreID = in.ContextValue(ContextPartnerID)
		matched := filter.Apply(all)
		label := "All"
		if len(filter.Statuses) > 0 {
			label = filter.Statuses[0].Label()
		}
		res.Bindings["filterLabel"] = label
		res.Bindings["orders"] = orderViews(matched)
		res.set("shown", len(matched))
		res.Data["orders"] = matched
		return res, nil
	}

	// orderStats and custom: backend stats plus recent orders.
	var (
		stats  *domain.OrderStats
		recent []domain.Order
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := orders.GetStats(gctx)
		if err != nil {
			return fmt.Errorf("failed to get order stats: %w", err)
		}
		stats = s
		return nil
	})
	g.Go(func() error {
		list, err := orders.List(gctx, recentOrdersLimit)
		if err != nil {
			return fmt.Errorf("failed to list recent orders: %w", err)
		}
		recent = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.use("orders:getStats", "orders:list")
	res.Bindings["stats"] = orderStatsView(*stats)
	res.Bindings["orders"] = orderViews(recent)
	res.Data["stats"] = stats
	return res, nil
}

func suggestOrder(action Action, res *Result) []domain.SuggestedAction {
	switch action.Name {
	case orderDetails, orderUpdate:
		return []domain.SuggestedAction{
			suggestion("Commission for this order", commissionDetails, "dollarsign.circle"),
			suggestion("Recent orders", orderList, "list.bullet"),
		}
	case orderStats:
		return []domain.SuggestedAction{
			suggestion("Awaiting payment", orderList, "creditcard"),
			suggestion("Dashboard", dashboardOverview, "gauge"),
		}
	}
	return []domain.SuggestedAction{
		suggestion("Order statistics", orderStats, "chart.bar"),
		suggestion("Awaiting shipment", orderList, "shippingbox"),
	}
}

const orderTemplate = `## Orders ({{ today }})
{% if action == "orderDetails" or action == "updateOrderStatus" %}
Order {{ order.number }}{% if updated %} (status changed from {{ previousStatus }} to {{ order.status }}){% endif %}
Customer: {{ order.customer }} <{{ order.email }}>{% if order.phone != "" %} {{ order.phone }}{% endif %}
Status: {{ order.status }}
Total: {{ order.total }} (subtotal {{ order.subtotal }}, tax {{ order.tax }}, shipping {{ order.shipping }}, discount {{ order.discount }})
{% if order.serviceType != "" %}Service: {{ order.serviceType }}
{% endif %}Placed by: {{ order.placedBy }}{% if order.partner != "" %} ({{ order.partner }}){% endif %}
Created: {{ order.created }}{% if order.paid %} | Paid: {{ order.paidAt }}{% else %} | Unpaid{% endif %}
{% if order.shipTo != "" %}Ship to: {{ order.shipTo }}
{% endif %}
{% elsif action == "listOrders" %}
Filter: {{ filterLabel }} ({{ shown }} shown)
{% for o in orders %}- {{ o.number }} | {{ o.customer }} | {{ o.status }} | {{ o.total }} | {{ o.created }}
{% endfor %}
{% else %}
Orders: {{ stats.totalOrders }} total, {{ stats.todayOrders }} today, {{ stats.monthOrders }} this month
Revenue: {{ stats.totalRevenue }} total, {{ stats.monthRevenue }} this month, average {{ stats.averageOrder }}
Pending: {{ stats.pending }} | Awaiting Payment: {{ stats.awaitingPayment }} | Awaiting Shipment: {{ stats.awaitingShipment }} | In Progress: {{ stats.inProgress }} | Completed: {{ stats.completed }} | Cancelled: {{ stats.cancelled }}

### Recent
{% for o in orders %}- {{ o.number }} | {{ o.customer }} | {{ o.status }} | {{ o.total }}
{% endfor %}
{% endif %}`
