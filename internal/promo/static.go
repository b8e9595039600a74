package promo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"aetheria-backend/internal/domain"
)

// StaticRegistry is an in-memory promo rule registry. It is the default
// backend when no database is configured, seeded with the rules from config.
type StaticRegistry struct {
	mu    sync.RWMutex
	rules map[string]domain.PromoRule
}

func NewStaticRegistry(seed ...domain.PromoRule) *StaticRegistry {
	r := &StaticRegistry{rules: make(map[string]domain.PromoRule)}
	for _, rule := range seed {
		if rule.CreatedAt.IsZero() {
			rule.CreatedAt = time.Now().UTC()
		}
		r.rules[rule.Code] = rule
	}
	return r
}

func (r *StaticRegistry) FindByCode(_ context.Context, code string) (*domain.PromoRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[code]
	if !ok {
		return nil, domain.ErrPromoNotFound
	}
	return &rule, nil
}

func (r *StaticRegistry) List(_ context.Context) ([]domain.PromoRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]domain.PromoRule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].CreatedAt.After(rules[j].CreatedAt)
	})
	return rules, nil
}

func (r *StaticRegistry) Create(_ context.Context, rule *domain.PromoRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.Code]; exists {
		return fmt.Errorf("promo rule '%s' already exists", rule.Code)
	}
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	r.rules[rule.Code] = *rule
	return nil
}

func (r *StaticRegistry) Update(_ context.Context, rule *domain.PromoRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.rules[rule.Code]
	if !ok {
		return domain.ErrPromoNotFound
	}
	rule.CreatedAt = existing.CreatedAt
	r.rules[rule.Code] = *rule
	return nil
}

func (r *StaticRegistry) Delete(_ context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rules[code]; !ok {
		return domain.ErrPromoNotFound
	}
	delete(r.rules, code)
	return nil
}
