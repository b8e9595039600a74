package postgres

import (
	"context"
	"errors"
	"fmt"

	"aetheria-backend/pkg/kv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type kvRepository struct {
	pool *pgxpool.Pool
}

// NewKVStore returns a kv.Store backed by the cart_kv table.
func NewKVStore(pool *pgxpool.Pool) kv.Store {
	return &kvRepository{pool: pool}
}

func (r *kvRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM cart_kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", kv.ErrNotFound
		}
		return "", fmt.Errorf("select cart_kv: %w", err)
	}
	return value, nil
}

func (r *kvRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cart_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return fmt.Errorf("upsert cart_kv: %w", err)
	}
	return nil
}

func (r *kvRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete cart_kv: %w", err)
	}
	return nil
}
