package promo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"aetheria-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// Service handles admin promo rule management. Validation lives here, not in
// the handlers, so every registry backend gets the same rules enforced.
type Service struct {
	registry domain.PromoRegistry
}

func NewService(registry domain.PromoRegistry) *Service {
	return &Service{registry: registry}
}

// RuleRequest represents the input for creating or updating a promo rule.
type RuleRequest struct {
	Code      string `json:"code"`
	Type      string `json:"type"` // "percentage" or "fixed"
	Value     string `json:"value"`
	MinSpend  string `json:"minSpend"`
	StartAt   string `json:"startAt"`   // RFC3339
	ExpiresAt string `json:"expiresAt"` // RFC3339
	IsActive  bool   `json:"isActive"`
}

func (s *Service) buildRule(req RuleRequest) (*domain.PromoRule, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, fmt.Errorf("promo code is required")
	}

	if req.Type != domain.PromoTypePercentage && req.Type != domain.PromoTypeFixed {
		return nil, fmt.Errorf("promo type must be 'percentage' or 'fixed'")
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid promo value: %w", err)
	}
	if value.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("promo value must be greater than 0")
	}
	if req.Type == domain.PromoTypePercentage && value.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("percentage discount cannot exceed 100%%")
	}

	minSpend := decimal.Zero
	if req.MinSpend != "" {
		minSpend, err = decimal.NewFromString(req.MinSpend)
		if err != nil {
			return nil, fmt.Errorf("invalid minimum spend: %w", err)
		}
		if minSpend.IsNegative() {
			return nil, fmt.Errorf("minimum spend cannot be negative")
		}
	}

	rule := &domain.PromoRule{
		Code:     code,
		Type:     req.Type,
		Value:    value,
		MinSpend: minSpend,
		IsActive: req.IsActive,
	}

	if req.StartAt != "" {
		t, err := time.Parse(time.RFC3339, req.StartAt)
		if err != nil {
			return nil, fmt.Errorf("invalid startAt: %w", err)
		}
		rule.StartAt = &t
	}
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("invalid expiresAt: %w", err)
		}
		rule.ExpiresAt = &t
	}

	return rule, nil
}

func (s *Service) CreateRule(ctx context.Context, req RuleRequest) (*domain.PromoRule, error) {
	rule, err := s.buildRule(req)
	if err != nil {
		return nil, err
	}

	// Check for duplicate code
	if existing, _ := s.registry.FindByCode(ctx, rule.Code); existing != nil {
		return nil, fmt.Errorf("promo rule '%s' already exists", rule.Code)
	}

	if err := s.registry.Create(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create promo rule: %w", err)
	}
	return rule, nil
}

func (s *Service) UpdateRule(ctx context.Context, code string, req RuleRequest) (*domain.PromoRule, error) {
	req.Code = code
	rule, err := s.buildRule(req)
	if err != nil {
		return nil, err
	}

	if err := s.registry.Update(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *Service) GetRule(ctx context.Context, code string) (*domain.PromoRule, error) {
	return s.registry.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
}

func (s *Service) ListRules(ctx context.Context) ([]domain.PromoRule, error) {
	rules, err := s.registry.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list promo rules: %w", err)
	}
	return rules, nil
}

func (s *Service) DeleteRule(ctx context.Context, code string) error {
	return s.registry.Delete(ctx, strings.ToUpper(strings.TrimSpace(code)))
}
