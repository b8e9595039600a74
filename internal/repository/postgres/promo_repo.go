package postgres

import (
	"context"
	"errors"
	"fmt"

	"aetheria-backend/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type promoRepository struct {
	pool *pgxpool.Pool
}

// NewPromoRegistry returns a promo rule registry backed by the promo_rules table.
func NewPromoRegistry(pool *pgxpool.Pool) domain.PromoRegistry {
	return &promoRepository{pool: pool}
}

const promoColumns = `code, type, value, min_spend, start_at, expires_at, is_active, created_at`

func (r *promoRepository) FindByCode(ctx context.Context, code string) (*domain.PromoRule, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_rules WHERE code = $1`

	var rule domain.PromoRule
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&rule.Code,
		&rule.Type,
		&rule.Value,
		&rule.MinSpend,
		&rule.StartAt,
		&rule.ExpiresAt,
		&rule.IsActive,
		&rule.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPromoNotFound
		}
		return nil, fmt.Errorf("select promo rule: %w", err)
	}
	return &rule, nil
}

func (r *promoRepository) List(ctx context.Context) ([]domain.PromoRule, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_rules ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list promo rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.PromoRule
	for rows.Next() {
		var rule domain.PromoRule
		if err := rows.Scan(
			&rule.Code,
			&rule.Type,
			&rule.Value,
			&rule.MinSpend,
			&rule.StartAt,
			&rule.ExpiresAt,
			&rule.IsActive,
			&rule.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan promo rule: %w", err)
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *promoRepository) Create(ctx context.Context, rule *domain.PromoRule) error {
	query := `
		INSERT INTO promo_rules (code, type, value, min_spend, start_at, expires_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		rule.Code,
		rule.Type,
		rule.Value,
		rule.MinSpend,
		rule.StartAt,
		rule.ExpiresAt,
		rule.IsActive,
	).Scan(&rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert promo rule: %w", err)
	}
	return nil
}

func (r *promoRepository) Update(ctx context.Context, rule *domain.PromoRule) error {
	query := `
		UPDATE promo_rules
		SET type = $2, value = $3, min_spend = $4, start_at = $5, expires_at = $6, is_active = $7
		WHERE code = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		rule.Code,
		rule.Type,
		rule.Value,
		rule.MinSpend,
		rule.StartAt,
		rule.ExpiresAt,
		rule.IsActive,
	)
	if err != nil {
		return fmt.Errorf("update promo rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPromoNotFound
	}
	return nil
}

func (r *promoRepository) Delete(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promo_rules WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("delete promo rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPromoNotFound
	}
	return nil
}
