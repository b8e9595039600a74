package promo

import (
	"context"
	"errors"
	"strings"
	"time"

	"aetheria-backend/internal/domain"
	"aetheria-backend/pkg/logger"

	"github.com/shopspring/decimal"
)

// Evaluator resolves a promo code to a discount amount against a subtotal.
//
// It is deliberately fire-and-forget: an empty, unknown, ineligible or
// otherwise broken code yields a zero discount and never an error. Shoppers
// typing junk into the promo box is benign input, not a failure.
type Evaluator struct {
	registry domain.PromoRegistry
	now      func() time.Time
}

func NewEvaluator(registry domain.PromoRegistry) *Evaluator {
	return &Evaluator{
		registry: registry,
		now:      time.Now,
	}
}

// Evaluate returns the discount amount (not a percentage) for code at the
// given subtotal. Zero means the code bought nothing.
func (e *Evaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal) decimal.Decimal {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return decimal.Zero
	}

	rule, err := e.registry.FindByCode(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrPromoNotFound) {
			// Registry trouble (e.g. DB down) degrades to "no discount"
			// rather than surfacing an error to the cart.
			logger.Warn().Err(err).Str("code", code).Msg("Promo lookup failed")
		}
		return decimal.Zero
	}

	if !rule.EligibleAt(subtotal, e.now()) {
		return decimal.Zero
	}

	return rule.Discount(subtotal)
}
