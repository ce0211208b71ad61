package domain

import (
	"context"
	"fmt"
	"strings"
)

//go:generate mockgen -destination mocks/mock_inquiry_repository.go -package mocks github.com/Ironclad/ironclad/internal/domain InquiryRepository

type InquiryStatus string

const (
	InquiryStatusNew         InquiryStatus = "new"
	InquiryStatusReviewed    InquiryStatus = "reviewed"
	InquiryStatusQuoted      InquiryStatus = "quoted"
	InquiryStatusInvoiceSent InquiryStatus = "invoiceSent"
	InquiryStatusPaid        InquiryStatus = "paid"
	InquiryStatusInProgress  InquiryStatus = "inProgress"
	InquiryStatusCompleted   InquiryStatus = "completed"
	InquiryStatusCancelled   InquiryStatus = "cancelled"
)

var InquiryStatuses = []InquiryStatus{
	InquiryStatusNew,
	InquiryStatusReviewed,
	InquiryStatusQuoted,
	InquiryStatusInvoiceSent,
	InquiryStatusPaid,
	InquiryStatusInProgress,
	InquiryStatusCompleted,
	InquiryStatusCancelled,
}

func (s InquiryStatus) Valid() bool {
	return containsStatus(InquiryStatuses, s)
}

func (s InquiryStatus) Label() string {
	switch s {
	case InquiryStatusNew:
		return "New"
	case InquiryStatusReviewed:
		return "Reviewed"
	case InquiryStatusQuoted:
		return "Quoted"
	case InquiryStatusInvoiceSent:
		return "Invoice Sent"
	case InquiryStatusPaid:
		return "Paid"
	case InquiryStatusInProgress:
		return "In Progress"
	case InquiryStatusCompleted:
		return "Completed"
	case InquiryStatusCancelled:
		return "Cancelled"
	}
	return string(s)
}

// IsOpen reports whether the inquiry still needs admin work.
func (s InquiryStatus) IsOpen() bool {
	return s != InquiryStatusCompleted && s != InquiryStatusCancelled
}

func ParseInquiryStatus(s string) (InquiryStatus, error) {
	norm := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(strings.TrimSpace(s)))
	for _, v := range InquiryStatuses {
		if strings.ToLower(string(v)) == norm {
			return v, nil
		}
	}
	return "", NewValidationError(fmt.Sprintf("unknown inquiry status %q", s))
}

type ServiceInquiry struct {
	ID            string        `json:"_id"`
	CustomerEmail string        `json:"customerEmail"`
	CustomerName  string        `json:"customerName,omitempty"`
	CustomerPhone string        `json:"customerPhone,omitempty"`
	ProductTitle  string        `json:"productTitle,omitempty"`
	Status        InquiryStatus `json:"status"`
	QuotedAmount  *Cents        `json:"quotedAmount,omitempty"`
	Message       string        `json:"message,omitempty"`
	AdminNotes    string        `json:"adminNotes,omitempty"`
	CreatedAt     EpochMillis   `json:"createdAt"`
}

type InquiryFilter struct {
	Statuses []InquiryStatus `json:"statuses,omitempty"`
	Search   string          `json:"search,omitempty"`
}

func (f InquiryFilter) IsActive() bool {
	return len(f.Statuses) > 0 || f.Search != ""
}

func (f InquiryFilter) Apply(inquiries []ServiceInquiry) []ServiceInquiry {
	out := make([]ServiceInquiry, 0, len(inquiries))
	for _, q := range inquiries {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, q.Status) {
			continue
		}
		if f.Search != "" && !containsFold(q.CustomerEmail, f.Search) &&
			!containsFold(q.CustomerName, f.Search) && !containsFold(q.ProductTitle, f.Search) {
			continue
		}
		out = append(out, q)
	}
	return out
}

// CountInquiriesByStatus counts per status over the whole list.
func CountInquiriesByStatus(inquiries []ServiceInquiry) map[InquiryStatus]int {
	counts := make(map[InquiryStatus]int, len(InquiryStatuses))
	for i := range inquiries {
		counts[inquiries[i].Status]++
	}
	return counts
}

type InquiryRepository interface {
	List(ctx context.Context) ([]ServiceInquiry, error)
	Get(ctx context.Context, id string) (*ServiceInquiry, error)
	UpdateStatus(ctx context.Context, id string, status InquiryStatus) error
	SendQuote(ctx context.Context, id string, amount Cents) error
	AddNotes(ctx context.Context, id string, notes string) error
}
