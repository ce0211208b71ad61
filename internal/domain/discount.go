package domain

import (
	"context"
	"fmt"
	"math"
	"time"
)

//go:generate mockgen -destination mocks/mock_discount_repository.go -package mocks github.com/Ironclad/ironclad/internal/domain DiscountRepository
//go:generate mockgen -destination mocks/mock_product_repository.go -package mocks github.com/Ironclad/ironclad/internal/domain ProductRepository

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// CommissionRule overrides the partner rate for orders using a code.
// Value is a percent for percentage rules and cents for fixed rules.
type CommissionRule struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// DiscountCode is a promo code, optionally owned by a partner store.
// DiscountValue is a percent for percentage codes and cents for fixed codes.
type DiscountCode struct {
	ID             string          `json:"_id,omitempty"`
	Code           string          `json:"code"`
	PartnerStoreID string          `json:"partnerStoreId,omitempty"`
	DiscountType   DiscountType    `json:"discountType"`
	DiscountValue  float64         `json:"discountValue"`
	UsageCount     int             `json:"usageCount"`
	MaxUsage       int             `json:"maxUsage,omitempty"`
	Active         bool            `json:"active"`
	ExpiresAt      EpochMillis     `json:"expiresAt,omitempty"`
	ProductID      string          `json:"productId,omitempty"`
	CommissionRule *CommissionRule `json:"commissionRule,omitempty"`
}

// IsUsable: active, not expired, and under its usage cap (0 = unlimited).
func (d *DiscountCode) IsUsable(now time.Time) bool {
	if !d.Active {
		return false
	}
	if !d.ExpiresAt.IsZero() && !now.Before(d.ExpiresAt.Time()) {
		return false
	}
	if d.MaxUsage > 0 && d.UsageCount >= d.MaxUsage {
		return false
	}
	return true
}

// AppliesTo reports whether the code can be used on the given product.
func (d *DiscountCode) AppliesTo(productID string) bool {
	return d.ProductID == "" || d.ProductID == productID
}

// Apply returns the discount for subtotal, never more than subtotal.
func (d *DiscountCode) Apply(subtotal Cents) Cents {
	if subtotal <= 0 {
		return 0
	}
	var discount Cents
	switch d.DiscountType {
	case DiscountTypePercentage:
		discount = Cents(math.Round(float64(subtotal) * d.DiscountValue / 100))
	case DiscountTypeFixed:
		discount = Cents(math.Round(d.DiscountValue))
	}
	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

// CommissionFor applies the commission rule to the post-discount amount.
// Codes without a rule earn nothing here; the partner rate applies instead.
func (d *DiscountCode) CommissionFor(subtotal Cents) Cents {
	if d.CommissionRule == nil {
		return 0
	}
	base := subtotal - d.Apply(subtotal)
	if base <= 0 {
		return 0
	}
	var c Cents
	switch d.CommissionRule.Type {
	case DiscountTypePercentage:
		c = Cents(math.Round(float64(base) * d.CommissionRule.Value / 100))
	case DiscountTypeFixed:
		c = Cents(math.Round(d.CommissionRule.Value))
	}
	if c > base {
		return base
	}
	return c
}

// Describe renders "15% off" or "$10.00 off".
func (d *DiscountCode) Describe() string {
	if d.DiscountType == DiscountTypePercentage {
		return fmt.Sprintf("%g%% off", d.DiscountValue)
	}
	return Cents(math.Round(d.DiscountValue)).String() + " off"
}

type Product struct {
	ID          string      `json:"_id"`
	Title       string      `json:"title"`
	Category    string      `json:"category,omitempty"`
	ServiceType string      `json:"serviceType,omitempty"`
	Price       Cents       `json:"price"`
	InStock     bool        `json:"inStock"`
	Active      bool        `json:"active"`
	CreatedAt   EpochMillis `json:"_creationTime,omitempty"`
}

// SearchProducts does a case-insensitive title/category match.
func SearchProducts(products []Product, query string) []Product {
	if query == "" {
		return products
	}
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if containsFold(p.Title, query) || containsFold(p.Category, query) || containsFold(p.ServiceType, query) {
			out = append(out, p)
		}
	}
	return out
}

type DiscountRepository interface {
	List(ctx context.Context) ([]DiscountCode, error)
}

type ProductRepository interface {
	List(ctx context.Context) ([]Product, error)
}
