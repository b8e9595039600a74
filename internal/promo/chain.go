package promo

import (
	"context"
	"errors"

	"aetheria-backend/internal/domain"
)

// ChainRegistry layers an admin-managed registry over the built-in rules
// seeded from config. Lookups try the primary first; the built-in rules are
// only a fallback, so an admin can shadow the default code with their own
// version. All writes go to the primary.
type ChainRegistry struct {
	primary  domain.PromoRegistry
	fallback domain.PromoRegistry
}

func NewChainRegistry(primary, fallback domain.PromoRegistry) *ChainRegistry {
	return &ChainRegistry{primary: primary, fallback: fallback}
}

func (c *ChainRegistry) FindByCode(ctx context.Context, code string) (*domain.PromoRule, error) {
	rule, err := c.primary.FindByCode(ctx, code)
	if err == nil {
		return rule, nil
	}
	if !errors.Is(err, domain.ErrPromoNotFound) {
		return nil, err
	}
	return c.fallback.FindByCode(ctx, code)
}

func (c *ChainRegistry) List(ctx context.Context) ([]domain.PromoRule, error) {
	rules, err := c.primary.List(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		seen[r.Code] = true
	}

	builtin, err := c.fallback.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range builtin {
		if !seen[r.Code] {
			rules = append(rules, r)
		}
	}
	return rules, nil
}

func (c *ChainRegistry) Create(ctx context.Context, rule *domain.PromoRule) error {
	return c.primary.Create(ctx, rule)
}

func (c *ChainRegistry) Update(ctx context.Context, rule *domain.PromoRule) error {
	return c.primary.Update(ctx, rule)
}

func (c *ChainRegistry) Delete(ctx context.Context, code string) error {
	return c.primary.Delete(ctx, code)
}
