package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Promo rule types
const (
	PromoTypePercentage = "percentage"
	PromoTypeFixed      = "fixed"
)

var PromoTypes = []string{PromoTypePercentage, PromoTypeFixed}

// ErrPromoNotFound is returned by registries when a code has no rule.
var ErrPromoNotFound = errors.New("promo rule not found")

// PromoRule maps a code to a discount. Percentage rules discount a share of
// the subtotal, fixed rules a flat amount capped at the subtotal.
type PromoRule struct {
	Code      string          `json:"code"`
	Type      string          `json:"type"`
	Value     decimal.Decimal `json:"value"`
	MinSpend  decimal.Decimal `json:"minSpend"`
	StartAt   *time.Time      `json:"startAt,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
	IsActive  bool            `json:"isActive"`
	CreatedAt time.Time       `json:"createdAt"`
}

// EligibleAt reports whether the rule may be applied to the given subtotal
// at the given time.
func (r *PromoRule) EligibleAt(subtotal decimal.Decimal, now time.Time) bool {
	if !r.IsActive {
		return false
	}
	if r.StartAt != nil && now.Before(*r.StartAt) {
		return false
	}
	if r.ExpiresAt != nil && now.After(*r.ExpiresAt) {
		return false
	}
	if subtotal.LessThan(r.MinSpend) {
		return false
	}
	return true
}

// Discount computes the discount amount for the given subtotal. Pure: no
// clock, no lookups, no state. Eligibility is checked separately.
func (r *PromoRule) Discount(subtotal decimal.Decimal) decimal.Decimal {
	switch r.Type {
	case PromoTypePercentage:
		return subtotal.Mul(r.Value).Div(decimal.NewFromInt(100))
	case PromoTypeFixed:
		if r.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return r.Value
	default:
		return decimal.Zero
	}
}

// PromoRegistry is the lookup and management surface for promo rules.
type PromoRegistry interface {
	FindByCode(ctx context.Context, code string) (*PromoRule, error)
	List(ctx context.Context) ([]PromoRule, error)
	Create(ctx context.Context, rule *PromoRule) error
	Update(ctx context.Context, rule *PromoRule) error
	Delete(ctx context.Context, code string) error
}
