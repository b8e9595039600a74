package cart_test

import (
	"context"
	"testing"
	"time"

	"aetheria-backend/internal/cart"
	"aetheria-backend/internal/domain"
	"aetheria-backend/internal/infrastructure/kvstore"
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

func testPricing(t *testing.T) cart.Pricing {
	return cart.Pricing{
		TaxRate:      dec(t, "0.1"),
		ShippingCost: dec(t, "10"),
		MaxQuantity:  1000,
	}
}

func newTestStore(t *testing.T) *cart.Store {
	t.Helper()
	persist := cart.NewPersistence(kvstore.NewMemoryStore(time.Hour, time.Hour))
	registry := promo.NewStaticRegistry(domain.PromoRule{
		Code:     "DISCOUNT20",
		Type:     domain.PromoTypePercentage,
		Value:    dec(t, "20"),
		IsActive: true,
	})
	return cart.NewStore("sess-1", testPricing(t), persist, promo.NewEvaluator(registry))
}

func item(t *testing.T, id, price string, qty int) domain.CartLineItem {
	return domain.CartLineItem{
		ID:       id,
		Name:     "Item " + id,
		Price:    dec(t, price),
		Quantity: qty,
		Image:    "/images/" + id + ".jpg",
	}
}

func TestStoreEmptyCart(t *testing.T) {
	s := newTestStore(t)

	assert.Empty(t, s.Items())
	assert.True(t, s.Subtotal().IsZero())
	assert.True(t, s.Tax().IsZero())
	assert.True(t, s.PromoDiscount().IsZero())
	// Shipping is a flat fee charged regardless of cart size, so an empty
	// cart still totals to the shipping cost.
	assert.True(t, s.Total().Equal(dec(t, "10")), "total = %s", s.Total())
}

func TestStoreSubtotalExact(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item(t, "p1", "19.99", 3))
	s.AddItem(ctx, item(t, "p2", "0.01", 7))
	s.AddItem(ctx, item(t, "p3", "1250.50", 2))

	// 59.97 + 0.07 + 2501.00
	assert.True(t, s.Subtotal().Equal(dec(t, "2561.04")), "subtotal = %s", s.Subtotal())
	assert.True(t, s.Tax().Equal(dec(t, "256.104")), "tax = %s", s.Tax())
	assert.True(t, s.Total().Equal(dec(t, "2827.144")), "total = %s", s.Total())
}

func TestStoreMergeSameVariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	one := item(t, "p1", "25.00", 1)
	one.Size = "M"
	one.Color = "black"
	s.AddItem(ctx, one)
	s.AddItem(ctx, one)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestStoreDistinctVariantsDoNotMerge(t *testing.T) {
	// Lines are keyed on (id, size, color): two sizes of the same product
	// must stay separate.
	s := newTestStore(t)
	ctx := context.Background()

	small := item(t, "p1", "25.00", 1)
	small.Size = "S"
	medium := item(t, "p1", "25.00", 1)
	medium.Size = "M"

	s.AddItem(ctx, small)
	s.AddItem(ctx, medium)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "S", items[0].Size)
	assert.Equal(t, "M", items[1].Size)
}

func TestStoreMergeKeepsCanonicalFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item(t, "p1", "25.00", 1))

	stale := item(t, "p1", "99.99", 1)
	stale.Name = "Totally Different Name"
	s.AddItem(ctx, stale)

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[0].Price.Equal(dec(t, "25.00")), "price clobbered: %s", items[0].Price)
	assert.Equal(t, "Item p1", items[0].Name)
}

func TestStoreInsertionOrderPreservedOnMerge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item(t, "p1", "5.00", 1))
	s.AddItem(ctx, item(t, "p2", "6.00", 1))
	s.AddItem(ctx, item(t, "p1", "5.00", 1)) // merges into position 0
	s.AddItem(ctx, item(t, "p3", "7.00", 1))

	items := s.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"p1", "p2", "p3"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, 2, items[0].Quantity)
}

func TestStoreAddItemNormalizesQuantity(t *testing.T) {
	s := newTestStore(t)

	s.AddItem(context.Background(), item(t, "p1", "5.00", 0))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestStoreRemoveItemRemovesAllVariants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	small := item(t, "p1", "25.00", 1)
	small.Size = "S"
	medium := item(t, "p1", "25.00", 1)
	medium.Size = "M"
	s.AddItem(ctx, small)
	s.AddItem(ctx, medium)
	s.AddItem(ctx, item(t, "p2", "10.00", 1))

	s.RemoveItem(ctx, "p1")

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].ID)
}

func TestStoreRemoveUnknownIDIsNoop(t *testing.T) {
	s := newTestStore(t)

	assert.NotPanics(t, func() {
		s.RemoveItem(context.Background(), "does-not-exist")
	})
	assert.Empty(t, s.Items())
}

func TestStoreUpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		quantity int
		want     int
	}{
		{name: "replaces quantity", id: "p1", quantity: 5, want: 5},
		{name: "zero is a no-op, not a removal", id: "p1", quantity: 0, want: 1},
		{name: "negative is a no-op", id: "p1", quantity: -3, want: 1},
		{name: "unknown id is a no-op", id: "nope", quantity: 5, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()
			s.AddItem(ctx, item(t, "p1", "5.00", 1))

			s.UpdateQuantity(ctx, tt.id, tt.quantity)

			items := s.Items()
			require.Len(t, items, 1)
			assert.Equal(t, tt.want, items[0].Quantity)
		})
	}
}

func TestStoreApplyPromoCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.AddItem(ctx, item(t, "p1", "100.00", 1))

	before := s.Total()

	s.ApplyPromoCode(ctx, "DISCOUNT20")
	assert.True(t, s.PromoDiscount().Equal(dec(t, "20")), "discount = %s", s.PromoDiscount())
	assert.Equal(t, "DISCOUNT20", s.PromoCode())
	assert.True(t, s.Total().LessThan(before), "promo must strictly decrease total")
	// 100 + 10 + 10 - 20
	assert.True(t, s.Total().Equal(dec(t, "100")), "total = %s", s.Total())
}

func TestStoreApplyUnknownPromoCode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.AddItem(ctx, item(t, "p1", "100.00", 1))

	before := s.Total()
	s.ApplyPromoCode(ctx, "BOGUS")

	assert.True(t, s.PromoDiscount().IsZero())
	assert.Empty(t, s.PromoCode())
	assert.True(t, s.Total().Equal(before), "unknown code must not move the total")
}

func TestStoreUnknownCodeResetsPriorDiscount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.AddItem(ctx, item(t, "p1", "100.00", 1))

	s.ApplyPromoCode(ctx, "DISCOUNT20")
	require.True(t, s.PromoDiscount().IsPositive())

	s.ApplyPromoCode(ctx, "BOGUS")
	assert.True(t, s.PromoDiscount().IsZero())
	assert.Empty(t, s.PromoCode())
}

func TestStoreDiscountRecomputedOnReapply(t *testing.T) {
	// The discount is resolved against the subtotal at apply time; adding
	// more items and re-applying moves it.
	s := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item(t, "p1", "100.00", 1))
	s.ApplyPromoCode(ctx, "DISCOUNT20")
	assert.True(t, s.PromoDiscount().Equal(dec(t, "20")))

	s.AddItem(ctx, item(t, "p2", "100.00", 1))
	s.ApplyPromoCode(ctx, "DISCOUNT20")
	assert.True(t, s.PromoDiscount().Equal(dec(t, "40")), "discount = %s", s.PromoDiscount())
}

func TestStoreTotalNeverNegative(t *testing.T) {
	persist := cart.NewPersistence(kvstore.NewMemoryStore(time.Hour, time.Hour))
	// A fixed rule far larger than any subtotal in this test.
	registry := promo.NewStaticRegistry(domain.PromoRule{
		Code:     "MEGA",
		Type:     domain.PromoTypeFixed,
		Value:    dec(t, "10000"),
		IsActive: true,
	})
	s := cart.NewStore("sess-1", cart.Pricing{
		TaxRate:      decimal.Zero,
		ShippingCost: decimal.Zero,
	}, persist, promo.NewEvaluator(registry))

	ctx := context.Background()
	s.AddItem(ctx, item(t, "p1", "5.00", 1))
	s.ApplyPromoCode(ctx, "MEGA")

	// The fixed rule caps at the subtotal, and the store floors at zero on
	// top of that; even removing items after applying cannot go negative.
	s.RemoveItem(ctx, "p1")
	assert.False(t, s.Total().IsNegative())
	assert.True(t, s.Total().IsZero() || s.Total().IsPositive())
}

func TestStoreClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.AddItem(ctx, item(t, "p1", "100.00", 2))
	s.ApplyPromoCode(ctx, "DISCOUNT20")
	s.Clear(ctx)

	assert.Empty(t, s.Items())
	assert.Empty(t, s.PromoCode())
	assert.True(t, s.PromoDiscount().IsZero())
	assert.True(t, s.Total().Equal(dec(t, "10")), "empty cart still carries shipping")
}

func TestStoreItemsReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	s.AddItem(ctx, item(t, "p1", "5.00", 1))

	items := s.Items()
	items[0].Quantity = 99

	assert.Equal(t, 1, s.Items()[0].Quantity, "mutating the returned slice must not reach the store")
}

func TestStoreQuantityCap(t *testing.T) {
	persist := cart.NewPersistence(kvstore.NewMemoryStore(time.Hour, time.Hour))
	registry := promo.NewStaticRegistry()
	pricing := testPricing(t)
	pricing.MaxQuantity = 10
	s := cart.NewStore("sess-1", pricing, persist, promo.NewEvaluator(registry))

	ctx := context.Background()
	s.AddItem(ctx, item(t, "p1", "5.00", 8))
	s.AddItem(ctx, item(t, "p1", "5.00", 8))

	items := s.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)
}
