package domain

import (
	"context"
)

//go:generate mockgen -destination mocks/mock_partner_repository.go -package mocks github.com/Ironclad/ironclad/internal/domain PartnerRepository

type PayoutMethod string

const (
	PayoutMethodPaypal PayoutMethod = "paypal"
	PayoutMethodCheck  PayoutMethod = "check"
	PayoutMethodACH    PayoutMethod = "ach"
)

// PartnerStore is a dealer that places orders on behalf of customers and
// earns commission on them.
type PartnerStore struct {
	ID                 string       `json:"_id"`
	StoreName          string       `json:"storeName"`
	StoreCode          string       `json:"storeCode"`
	Active             bool         `json:"active"`
	OnboardingComplete bool         `json:"onboardingComplete"`
	CommissionRate     float64      `json:"commissionRate"`
	PayoutMethod       PayoutMethod `json:"payoutMethod,omitempty"`
	PayoutEmail        string       `json:"payoutEmail,omitempty"`
	ContactEmail       string       `json:"contactEmail,omitempty"`
	CreatedAt          EpochMillis  `json:"_creationTime,omitempty"`
}

func (p *PartnerStore) DisplayName() string {
	if p.StoreName != "" {
		return p.StoreName
	}
	if p.StoreCode != "" {
		return p.StoreCode
	}
	return p.ID
}

// NeedsAttention is true for inactive stores or unfinished onboarding.
func (p *PartnerStore) NeedsAttention() bool {
	return !p.Active || !p.OnboardingComplete
}

// PartnerNames maps store ID to display name.
func PartnerNames(partners []PartnerStore) map[string]string {
	names := make(map[string]string, len(partners))
	for i := range partners {
		names[partners[i].ID] = partners[i].DisplayName()
	}
	return names
}

// FindPartner matches by ID, store code or case-insensitive name fragment.
func FindPartner(partners []PartnerStore, ref string) *PartnerStore {
	if ref == "" {
		return nil
	}
	for i := range partners {
		p := &partners[i]
		if p.ID == ref || (p.StoreCode != "" && equalFold(p.StoreCode, ref)) {
			return p
		}
	}
	for i := range partners {
		p := &partners[i]
		if p.StoreName != "" && containsFold(p.StoreName, ref) {
			return p
		}
	}
	return nil
}

type PartnerRepository interface {
	List(ctx context.Context) ([]PartnerStore, error)
	Get(ctx context.Context, id string) (*PartnerStore, error)
}
