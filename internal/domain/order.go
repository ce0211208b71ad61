package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_order_repository.go -package mocks github.com/Ironclad/ironclad/internal/domain OrderRepository

type OrderStatus string

const (
	OrderStatusPending          OrderStatus = "pending"
	OrderStatusAwaitingPayment  OrderStatus = "awaitingPayment"
	OrderStatusAwaitingShipment OrderStatus = "awaitingShipment"
	OrderStatusInProgress       OrderStatus = "inProgress"
	OrderStatusCompleted        OrderStatus = "completed"
	OrderStatusCancelled        OrderStatus = "cancelled"
)

// OrderStatuses is the closed status set in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusAwaitingPayment,
	OrderStatusAwaitingShipment,
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Label is the human form used in agent context blocks.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusPending:
		return "Pending"
	case OrderStatusAwaitingPayment:
		return "Awaiting Payment"
	case OrderStatusAwaitingShipment:
		return "Awaiting Shipment"
	case OrderStatusInProgress:
		return "In Progress"
	case OrderStatusCompleted:
		return "Completed"
	case OrderStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// ParseOrderStatus accepts the wire value or a loose phrase like "awaiting payment".
func ParseOrderStatus(s string) (OrderStatus, error) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
	for _, v := range OrderStatuses {
		if strings.ToLower(string(v)) == norm {
			return v, nil
		}
	}
	if norm == "canceled" {
		return OrderStatusCancelled, nil
	}
	return "", NewValidationError(fmt.Sprintf("unknown order status %q", s))
}

type PlacedBy string

const (
	PlacedByCustomer PlacedBy = "customer"
	PlacedByPartner  PlacedBy = "partner"
)

type Address struct {
	Name       string `json:"name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Country    string `json:"country,omitempty"`
}

func (a *Address) String() string {
	if a == nil {
		return ""
	}
	parts := []string{}
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type OrderTotals struct {
	Subtotal Cents `json:"subtotal"`
	Tax      Cents `json:"tax"`
	Shipping Cents `json:"shipping"`
	Discount Cents `json:"discount"`
	Total    Cents `json:"total"`
}

type Order struct {
	ID              string      `json:"_id"`
	OrderNumber     string      `json:"orderNumber"`
	CustomerEmail   string      `json:"customerEmail"`
	CustomerName    string      `json:"customerName,omitempty"`
	CustomerPhone   string      `json:"customerPhone,omitempty"`
	Status          OrderStatus `json:"status"`
	Totals          OrderTotals `json:"totals"`
	ServiceType     string      `json:"serviceType,omitempty"`
	PlacedBy        PlacedBy    `json:"placedBy,omitempty"`
	PartnerStoreID  string      `json:"partnerStoreId,omitempty"`
	CreatedAt       EpochMillis `json:"createdAt"`
	PaidAt          EpochMillis `json:"paidAt,omitempty"`
	ShippingAddress *Address    `json:"shippingAddress,omitempty"`
	BillingAddress  *Address    `json:"billingAddress,omitempty"`
}

func (o *Order) IsPaid() bool {
	return !o.PaidAt.IsZero()
}

// OrderStats is computed by the backend over all orders.
type OrderStats struct {
	TotalOrders      int   `json:"totalOrders"`
	TotalRevenue     Cents `json:"totalRevenue"`
	PendingOrders    int   `json:"pendingOrders"`
	AwaitingPayment  int   `json:"awaitingPayment"`
	AwaitingShipment int   `json:"awaitingShipment"`
	InProgress       int   `json:"inProgress"`
	CompletedOrders  int   `json:"completedOrders"`
	CancelledOrders  int   `json:"cancelledOrders"`
	TodayOrders      int   `json:"todayOrders"`
	TodayRevenue     Cents `json:"todayRevenue"`
	MonthOrders      int   `json:"monthOrders"`
	MonthRevenue     Cents `json:"monthRevenue"`
}

// ComputeOrderStats derives stats locally; used when the backend stats
// query is unavailable and in tests.
func ComputeOrderStats(orders []Order, now time.Time) OrderStats {
	var s OrderStats
	today := DayStart(now)
	month := MonthStart(now)
	for i := range orders {
		o := &orders[i]
		s.TotalOrders++
		if o.Status != OrderStatusCancelled {
			s.TotalRevenue += o.Totals.Total
		}
		switch o.Status {
		case OrderStatusPending:
			s.PendingOrders++
		case OrderStatusAwaitingPayment:
			s.AwaitingPayment++
		case OrderStatusAwaitingShipment:
			s.AwaitingShipment++
		case OrderStatusInProgress:
			s.InProgress++
		case OrderStatusCompleted:
			s.CompletedOrders++
		case OrderStatusCancelled:
			s.CancelledOrders++
		}
		created := o.CreatedAt.Time()
		if !created.Before(today) {
			s.TodayOrders++
			if o.Status != OrderStatusCancelled {
				s.TodayRevenue += o.Totals.Total
			}
		}
		if !created.Before(month) {
			s.MonthOrders++
			if o.Status != OrderStatusCancelled {
				s.MonthRevenue += o.Totals.Total
			}
		}
	}
	return s
}

// AverageOrderValue is zero when there are no orders.
func (s OrderStats) AverageOrderValue() Cents {
	if s.TotalOrders == 0 {
		return 0
	}
	return s.TotalRevenue / Cents(s.TotalOrders)
}

type OrderFilter struct {
	Search         string        `json:"search,omitempty"`
	Statuses       []OrderStatus `json:"statuses,omitempty"`
	PartnerStoreID string        `json:"partnerStoreId,omitempty"`
	Limit          int           `json:"limit,omitempty"`
}

func (f OrderFilter) IsActive() bool {
	return f.Search != "" || len(f.Statuses) > 0 || f.PartnerStoreID != ""
}

func (f OrderFilter) Apply(orders []Order) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, o.Status) {
			continue
		}
		if f.PartnerStoreID != "" && o.PartnerStoreID != f.PartnerStoreID {
			continue
		}
		if f.Search != "" && !containsFold(o.OrderNumber, f.Search) &&
			!containsFold(o.CustomerEmail, f.Search) && !containsFold(o.CustomerName, f.Search) {
			continue
		}
		out = append(out, o)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func containsStatus[S ~string](set []S, s S) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// OrderRepository reads and mutates orders in the document store.
type OrderRepository interface {
	List(ctx context.Context, limit int) ([]Order, error)
	Get(ctx context.Context, orderNumber string) (*Order, error)
	GetStats(ctx context.Context) (*OrderStats, error)
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus) error
}
