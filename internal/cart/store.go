package cart

import (
	"context"
	"sync"

	"aetheria-backend/internal/domain"
	"aetheria-backend/internal/promo"
	"aetheria-backend/pkg/logger"

	"github.com/shopspring/decimal"
)

// Pricing holds the fixed pricing rules applied to every cart.
type Pricing struct {
	TaxRate      decimal.Decimal // e.g. 0.1 for 10%
	ShippingCost decimal.Decimal // flat fee, charged regardless of cart size
	MaxQuantity  int             // per-line ceiling, 0 disables the cap
}

// Store owns the authoritative cart state for one session and is the only
// thing allowed to mutate it. Every mutation recomputes derived totals and
// writes the item list through the persistence layer before returning, so the
// in-memory state never runs ahead of storage.
//
// Merge semantics: AddItem merges on the (id, size, color) variant key, so two
// sizes of the same product stay separate lines. RemoveItem and UpdateQuantity
// key on the product id alone and therefore hit every variant of that product,
// matching the storefront behavior this service replaced.
type Store struct {
	mu        sync.Mutex
	sessionID string

	items         []domain.CartLineItem
	promoCode     string
	promoDiscount decimal.Decimal

	pricing   Pricing
	persist   *Persistence
	evaluator *promo.Evaluator
	degraded  bool
}

// NewStore builds an empty store for the session. Callers that want the
// persisted cart back should use Manager, which rehydrates on first access.
func NewStore(sessionID string, pricing Pricing, persist *Persistence, evaluator *promo.Evaluator) *Store {
	return &Store{
		sessionID:     sessionID,
		items:         []domain.CartLineItem{},
		promoDiscount: decimal.Zero,
		pricing:       pricing,
		persist:       persist,
		evaluator:     evaluator,
	}
}

// restore seeds the item list from persisted state without writing back.
func (s *Store) restore(items []domain.CartLineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

// AddItem merges the item into an existing line with the same variant key or
// appends a new line at the end, preserving arrival order. On merge only the
// quantity changes; the stored price, name and image stay canonical so a
// caller holding stale product data cannot clobber them.
func (s *Store) AddItem(ctx context.Context, item domain.CartLineItem) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := item.VariantKey()
	merged := false
	for i := range s.items {
		if s.items[i].VariantKey() == key {
			s.items[i].Quantity = s.clampQuantity(s.items[i].Quantity + item.Quantity)
			merged = true
			break
		}
	}
	if !merged {
		item.Quantity = s.clampQuantity(item.Quantity)
		s.items = append(s.items, item)
	}

	s.persistLocked(ctx)
}

// RemoveItem removes every line whose product id matches, all variants
// included. Unknown ids are a no-op.
func (s *Store) RemoveItem(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.items[:0]
	removed := false
	for _, item := range s.items {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return
	}
	s.items = kept

	s.persistLocked(ctx)
}

// UpdateQuantity replaces the quantity on every line with the given product
// id. Quantities below 1 are a no-op: deleting a line takes an explicit
// RemoveItem, never a zero quantity.
func (s *Store) UpdateQuantity(ctx context.Context, id string, quantity int) {
	if quantity < 1 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	updated := false
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Quantity = s.clampQuantity(quantity)
			updated = true
		}
	}
	if !updated {
		return
	}

	s.persistLocked(ctx)
}

// ApplyPromoCode resolves the code against the current subtotal. A code that
// buys nothing (unknown, ineligible, empty) silently resets the discount to
// zero; no error reaches the shopper.
func (s *Store) ApplyPromoCode(ctx context.Context, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	discount := s.evaluator.Evaluate(ctx, code, s.subtotalLocked())
	if discount.IsPositive() {
		s.promoCode = code
		s.promoDiscount = discount
	} else {
		s.promoCode = ""
		s.promoDiscount = decimal.Zero
	}
}

// Clear empties the cart and resets promo state.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = []domain.CartLineItem{}
	s.promoCode = ""
	s.promoDiscount = decimal.Zero

	s.persistLocked(ctx)
}

// --- Derived values (always recomputed, never cached) ---

func (s *Store) Items() []domain.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.CartLineItem, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subtotalLocked()
}

func (s *Store) Tax() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.taxLocked()
}

func (s *Store) PromoDiscount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promoDiscount
}

func (s *Store) PromoCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.promoCode
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totalLocked()
}

// Totals snapshots every derived amount in one consistent read.
func (s *Store) Totals() domain.CartTotals {
	s.mu.Lock()
	defer s.mu.Unlock()

	return domain.CartTotals{
		Subtotal:     s.subtotalLocked(),
		ShippingCost: s.pricing.ShippingCost,
		Tax:          s.taxLocked(),
		Discount:     s.promoDiscount,
		Total:        s.totalLocked(),
		PromoCode:    s.promoCode,
	}
}

// Degraded reports whether the last persistence write failed, meaning the
// cart is currently session-only.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// --- Internals (callers hold s.mu) ---

func (s *Store) subtotalLocked() decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range s.items {
		subtotal = subtotal.Add(item.ExtendedPrice())
	}
	return subtotal
}

func (s *Store) taxLocked() decimal.Decimal {
	return s.subtotalLocked().Mul(s.pricing.TaxRate)
}

func (s *Store) totalLocked() decimal.Decimal {
	total := s.subtotalLocked().
		Add(s.pricing.ShippingCost).
		Add(s.taxLocked()).
		Sub(s.promoDiscount)
	// Over-discounting must never drive the total negative.
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func (s *Store) clampQuantity(quantity int) int {
	if s.pricing.MaxQuantity > 0 && quantity > s.pricing.MaxQuantity {
		return s.pricing.MaxQuantity
	}
	return quantity
}

// persistLocked writes the current items through the persistence layer. A
// failed write downgrades the cart to session-only instead of propagating:
// the shopper keeps their cart, it just won't survive a reload.
func (s *Store) persistLocked(ctx context.Context) {
	if err := s.persist.Save(ctx, s.sessionID, s.items); err != nil {
		if !s.degraded {
			logger.Warn().Err(err).Str("session_id", s.sessionID).Msg("Cart persistence failed, running session-only")
		}
		s.degraded = true
		return
	}
	s.degraded = false
}
