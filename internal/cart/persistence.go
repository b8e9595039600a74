package cart

import (
	"context"
	"errors"
	"fmt"

	"aetheria-backend/internal/domain"
	"aetheria-backend/pkg/kv"
	"aetheria-backend/pkg/logger"

	"github.com/goccy/go-json"
)

const cartKeyPrefix = "cart:"

// Persistence serializes a cart's line items (only the items - derived totals
// and promo state are always recomputed, never stored) to a key-value store
// under a fixed per-session key.
type Persistence struct {
	store kv.Store
}

func NewPersistence(store kv.Store) *Persistence {
	return &Persistence{store: store}
}

func cartKey(sessionID string) string {
	return cartKeyPrefix + sessionID
}

// Save writes the item list for the session. Saving the same state twice
// produces identical persisted bytes.
func (p *Persistence) Save(ctx context.Context, sessionID string, items []domain.CartLineItem) error {
	if items == nil {
		items = []domain.CartLineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal cart for session %s: %w", sessionID, err)
	}
	if err := p.store.Set(ctx, cartKey(sessionID), string(data)); err != nil {
		return fmt.Errorf("failed to save cart for session %s: %w", sessionID, err)
	}
	return nil
}

// Load reads the session's items back. A missing key, a corrupt payload or an
// unavailable store all yield an empty cart - a broken persisted cart must
// never take the storefront down with it.
func (p *Persistence) Load(ctx context.Context, sessionID string) []domain.CartLineItem {
	raw, err := p.store.Get(ctx, cartKey(sessionID))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			logger.Warn().Err(err).Str("session_id", sessionID).Msg("Cart load failed, starting empty")
		}
		return []domain.CartLineItem{}
	}

	var items []domain.CartLineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("Corrupt cart payload, starting empty")
		return []domain.CartLineItem{}
	}
	if items == nil {
		items = []domain.CartLineItem{}
	}
	return items
}

// Drop removes the persisted cart for the session.
func (p *Persistence) Drop(ctx context.Context, sessionID string) error {
	if err := p.store.Delete(ctx, cartKey(sessionID)); err != nil {
		return fmt.Errorf("failed to drop cart for session %s: %w", sessionID, err)
	}
	return nil
}
