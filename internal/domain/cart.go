package domain

import (
	"github.com/shopspring/decimal"
)

type ContextKey string

// SessionContextKey carries the cart session ID resolved by the session middleware.
const SessionContextKey ContextKey = "cartSession"

// --- Cart Entities ---

// CartLineItem is one product variant in the cart. Name, Price and Image are
// denormalized copies taken at add time; they are never re-fetched.
type CartLineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
	Size     string          `json:"size,omitempty"`
	Color    string          `json:"color,omitempty"`
}

// VariantKey is the effective identity of a cart line. Two adds with the same
// product ID but different size/color are distinct lines and must not merge.
func (i CartLineItem) VariantKey() string {
	return i.ID + "|" + i.Size + "|" + i.Color
}

// ExtendedPrice is Price x Quantity.
func (i CartLineItem) ExtendedPrice() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartTotals is a read-only snapshot of the derived cart amounts.
// Everything here is recomputed from the line items on every read.
type CartTotals struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"promoCodeDiscount"`
	Total        decimal.Decimal `json:"total"`
	PromoCode    string          `json:"promoCode,omitempty"`
}

// CartSnapshot is the read-only view handed to the order-placement side at
// checkout time. Order persistence and fulfillment are not this service's
// concern; the snapshot is all it exposes.
type CartSnapshot struct {
	ID        string         `json:"id"`
	SessionID string         `json:"sessionId"`
	Items     []CartLineItem `json:"items"`
	Totals    CartTotals     `json:"totals"`
	CreatedAt string         `json:"createdAt"` // RFC3339
}
