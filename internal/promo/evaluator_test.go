package promo_test

import (
	"context"
	"testing"
	"time"

	"aetheria-backend/internal/domain"
	"aetheria-backend/internal/promo"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func ptrTime(tm time.Time) *time.Time { return &tm }

func testRegistry(t *testing.T) *promo.StaticRegistry {
	t.Helper()
	now := time.Now()
	return promo.NewStaticRegistry(
		domain.PromoRule{
			Code:     "DISCOUNT20",
			Type:     domain.PromoTypePercentage,
			Value:    dec(t, "20"),
			IsActive: true,
		},
		domain.PromoRule{
			Code:     "FLAT15",
			Type:     domain.PromoTypeFixed,
			Value:    dec(t, "15"),
			IsActive: true,
		},
		domain.PromoRule{
			Code:     "BIGSPENDER",
			Type:     domain.PromoTypePercentage,
			Value:    dec(t, "10"),
			MinSpend: dec(t, "100"),
			IsActive: true,
		},
		domain.PromoRule{
			Code:     "RETIRED",
			Type:     domain.PromoTypePercentage,
			Value:    dec(t, "50"),
			IsActive: false,
		},
		domain.PromoRule{
			Code:      "EXPIRED",
			Type:      domain.PromoTypePercentage,
			Value:     dec(t, "50"),
			IsActive:  true,
			ExpiresAt: ptrTime(now.Add(-time.Hour)),
		},
		domain.PromoRule{
			Code:     "NOTYET",
			Type:     domain.PromoTypePercentage,
			Value:    dec(t, "50"),
			IsActive: true,
			StartAt:  ptrTime(now.Add(time.Hour)),
		},
	)
}

func TestEvaluatorEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		subtotal string
		want     string
	}{
		{name: "percentage discount", code: "DISCOUNT20", subtotal: "100", want: "20"},
		{name: "percentage on odd subtotal", code: "DISCOUNT20", subtotal: "19.99", want: "3.998"},
		{name: "code is case-insensitive", code: "discount20", subtotal: "100", want: "20"},
		{name: "surrounding whitespace ignored", code: "  DISCOUNT20  ", subtotal: "100", want: "20"},
		{name: "fixed discount", code: "FLAT15", subtotal: "100", want: "15"},
		{name: "fixed discount capped at subtotal", code: "FLAT15", subtotal: "9.50", want: "9.50"},
		{name: "min spend satisfied", code: "BIGSPENDER", subtotal: "150", want: "15"},
		{name: "min spend not met", code: "BIGSPENDER", subtotal: "99.99", want: "0"},
		{name: "inactive rule", code: "RETIRED", subtotal: "100", want: "0"},
		{name: "expired rule", code: "EXPIRED", subtotal: "100", want: "0"},
		{name: "not started yet", code: "NOTYET", subtotal: "100", want: "0"},
		{name: "unknown code", code: "BOGUS", subtotal: "100", want: "0"},
		{name: "empty code", code: "", subtotal: "100", want: "0"},
		{name: "zero subtotal", code: "DISCOUNT20", subtotal: "0", want: "0"},
	}

	e := promo.NewEvaluator(testRegistry(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(context.Background(), tt.code, dec(t, tt.subtotal))
			assert.True(t, got.Equal(dec(t, tt.want)), "Evaluate(%q, %s) = %s, want %s", tt.code, tt.subtotal, got, tt.want)
		})
	}
}

func TestRuleDiscountIsPure(t *testing.T) {
	rule := domain.PromoRule{
		Code:  "DISCOUNT20",
		Type:  domain.PromoTypePercentage,
		Value: dec(t, "20"),
	}

	subtotal := dec(t, "123.45")
	first := rule.Discount(subtotal)
	second := rule.Discount(subtotal)
	assert.True(t, first.Equal(second))
	assert.True(t, subtotal.Equal(dec(t, "123.45")), "inputs must not be mutated")
}

func TestStaticRegistryCRUD(t *testing.T) {
	r := promo.NewStaticRegistry()
	ctx := context.Background()

	rule := &domain.PromoRule{
		Code:     "SPRING",
		Type:     domain.PromoTypePercentage,
		Value:    dec(t, "5"),
		IsActive: true,
	}
	require.NoError(t, r.Create(ctx, rule))

	got, err := r.FindByCode(ctx, "SPRING")
	require.NoError(t, err)
	assert.True(t, got.Value.Equal(dec(t, "5")))

	// Duplicate create is rejected
	assert.Error(t, r.Create(ctx, rule))

	rule.Value = dec(t, "7")
	require.NoError(t, r.Update(ctx, rule))
	got, err = r.FindByCode(ctx, "SPRING")
	require.NoError(t, err)
	assert.True(t, got.Value.Equal(dec(t, "7")))

	require.NoError(t, r.Delete(ctx, "SPRING"))
	_, err = r.FindByCode(ctx, "SPRING")
	assert.ErrorIs(t, err, domain.ErrPromoNotFound)

	assert.ErrorIs(t, r.Delete(ctx, "SPRING"), domain.ErrPromoNotFound)
	assert.ErrorIs(t, r.Update(ctx, rule), domain.ErrPromoNotFound)
}

func TestChainRegistryLookupAndShadowing(t *testing.T) {
	ctx := context.Background()
	fallback := promo.NewStaticRegistry(domain.PromoRule{
		Code:     "DISCOUNT20",
		Type:     domain.PromoTypePercentage,
		Value:    dec(t, "20"),
		IsActive: true,
	})
	primary := promo.NewStaticRegistry()
	chain := promo.NewChainRegistry(primary, fallback)

	// Falls through to the built-in rule
	got, err := chain.FindByCode(ctx, "DISCOUNT20")
	require.NoError(t, err)
	assert.True(t, got.Value.Equal(dec(t, "20")))

	// An admin rule with the same code shadows the built-in one
	require.NoError(t, chain.Create(ctx, &domain.PromoRule{
		Code:     "DISCOUNT20",
		Type:     domain.PromoTypePercentage,
		Value:    dec(t, "30"),
		IsActive: true,
	}))
	got, err = chain.FindByCode(ctx, "DISCOUNT20")
	require.NoError(t, err)
	assert.True(t, got.Value.Equal(dec(t, "30")))

	// List does not duplicate the shadowed code
	rules, err := chain.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	_, err = chain.FindByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, domain.ErrPromoNotFound)
}
