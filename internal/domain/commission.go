package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_commission_repository.go -package mocks github.com/Ironclad/ironclad/internal/domain CommissionRepository

type CommissionStatus string

const (
	CommissionStatusPending  CommissionStatus = "pending"
	CommissionStatusEligible CommissionStatus = "eligible"
	CommissionStatusApproved CommissionStatus = "approved"
	CommissionStatusPaid     CommissionStatus = "paid"
	CommissionStatusVoided   CommissionStatus = "voided"
)

var CommissionStatuses = []CommissionStatus{
	CommissionStatusPending,
	CommissionStatusEligible,
	CommissionStatusApproved,
	CommissionStatusPaid,
	CommissionStatusVoided,
}

func (s CommissionStatus) Valid() bool {
	return containsStatus(CommissionStatuses, s)
}

func (s CommissionStatus) Label() string {
	switch s {
	case CommissionStatusPending:
		return "Pending"
	case CommissionStatusEligible:
		return "Eligible for Payout"
	case CommissionStatusApproved:
		return "Approved"
	case CommissionStatusPaid:
		return "Paid"
	case CommissionStatusVoided:
		return "Voided"
	}
	return string(s)
}

func ParseCommissionStatus(s string) (CommissionStatus, error) {
	norm := CommissionStatus(strings.ToLower(strings.TrimSpace(s)))
	if norm == "void" {
		return CommissionStatusVoided, nil
	}
	if !norm.Valid() {
		return "", NewValidationError(fmt.Sprintf("unknown commission status %q", s))
	}
	return norm, nil
}

type Commission struct {
	ID                   string           `json:"_id"`
	OrderNumber          string           `json:"orderNumber"`
	PartnerStoreID       string           `json:"partnerStoreId"`
	CommissionAmount     Cents            `json:"commissionAmount"`
	CommissionBaseAmount Cents            `json:"commissionBaseAmount"`
	Status               CommissionStatus `json:"status"`
	CreatedAt            EpochMillis      `json:"createdAt"`
	EligibleAt           EpochMillis      `json:"eligibleAt,omitempty"`
	PaidAt               EpochMillis      `json:"paidAt,omitempty"`
}

// CommissionFilter narrows a commission list. The zero value matches everything.
type CommissionFilter struct {
	Search         string             `json:"search,omitempty"`
	Statuses       []CommissionStatus `json:"statuses,omitempty"`
	PartnerStoreID string             `json:"partnerStoreId,omitempty"`
	DateRange      DateRange          `json:"dateRange,omitempty"`
	MinAmount      *Cents             `json:"minAmount,omitempty"`
	MaxAmount      *Cents             `json:"maxAmount,omitempty"`
}

func (f CommissionFilter) IsActive() bool {
	return f.Search != "" ||
		len(f.Statuses) > 0 ||
		f.PartnerStoreID != "" ||
		!f.DateRange.IsZero() ||
		f.MinAmount != nil ||
		f.MaxAmount != nil
}

func (f CommissionFilter) Matches(c *Commission) bool {
	if f.Search != "" && !containsFold(c.OrderNumber, f.Search) && !containsFold(c.PartnerStoreID, f.Search) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, c.Status) {
		return false
	}
	if f.PartnerStoreID != "" && c.PartnerStoreID != f.PartnerStoreID {
		return false
	}
	if !f.DateRange.IsZero() && !f.DateRange.Contains(c.CreatedAt.Time()) {
		return false
	}
	if f.MinAmount != nil && c.CommissionAmount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && c.CommissionAmount > *f.MaxAmount {
		return false
	}
	return true
}

// Apply keeps source order.
func (f CommissionFilter) Apply(commissions []Commission) []Commission {
	out := make([]Commission, 0, len(commissions))
	for i := range commissions {
		if f.Matches(&commissions[i]) {
			out = append(out, commissions[i])
		}
	}
	return out
}

type CommissionStats struct {
	TotalAmount    Cents            `json:"totalAmount"`
	PendingAmount  Cents            `json:"pendingAmount"`
	EligibleAmount Cents            `json:"eligibleAmount"`
	ApprovedAmount Cents            `json:"approvedAmount"`
	PaidAmount     Cents            `json:"paidAmount"`
	VoidedAmount   Cents            `json:"voidedAmount"`
	Count          int              `json:"count"`
	CountByStatus  map[string]int   `json:"countByStatus"`
	ByPartner      map[string]Cents `json:"byPartner"`
	Average        Cents            `json:"average"`
	ThisMonthCount int              `json:"thisMonthCount"`
}

// ComputeCommissionStats sums over the full set it is given. partnerNames
// resolves store IDs to display names; unresolved IDs are used as-is.
func ComputeCommissionStats(commissions []Commission, partnerNames map[string]string, now time.Time) CommissionStats {
	stats := CommissionStats{
		CountByStatus: map[string]int{},
		ByPartner:     map[string]Cents{},
	}
	monthStart := MonthStart(now)

	for i := range commissions {
		c := &commissions[i]
		stats.Count++
		stats.TotalAmount += c.CommissionAmount
		stats.CountByStatus[string(c.Status)]++

		switch c.Status {
		case CommissionStatusPending:
			stats.PendingAmount += c.CommissionAmount
		case CommissionStatusEligible:
			stats.EligibleAmount += c.CommissionAmount
		case CommissionStatusApproved:
			stats.ApprovedAmount += c.CommissionAmount
		case CommissionStatusPaid:
			stats.PaidAmount += c.CommissionAmount
		case CommissionStatusVoided:
			stats.VoidedAmount += c.CommissionAmount
		}

		name := c.PartnerStoreID
		if resolved, ok := partnerNames[c.PartnerStoreID]; ok && resolved != "" {
			name = resolved
		}
		stats.ByPartner[name] += c.CommissionAmount

		if !c.CreatedAt.Time().Before(monthStart) {
			stats.ThisMonthCount++
		}
	}

	if stats.Count > 0 {
		stats.Average = stats.TotalAmount / Cents(stats.Count)
	}
	return stats
}

// CommissionRepository reads commissions and approves eligible ones.
type CommissionRepository interface {
	List(ctx context.Context, partnerStoreID string) ([]Commission, error)
	Get(ctx context.Context, id string) (*Commission, error)
	// ApproveEligible moves every eligible commission of the partner to approved
	// and returns how many were moved.
	ApproveEligible(ctx context.Context, partnerStoreID string) (int, error)
}
