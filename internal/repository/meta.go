package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetMeta returns a user attribute and whether it is set.
func (r *Repository) GetMeta(ctx context.Context, userID, key string) (string, bool, error) {
	query := `SELECT meta_value FROM user_meta WHERE user_id = $1 AND meta_key = $2`

	var value string
	err := r.pool.QueryRow(ctx, query, userID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get user meta: %w", err)
	}

	return value, true, nil
}

// SetMeta stores a user attribute, replacing any previous value.
func (r *Repository) SetMeta(ctx context.Context, userID, key, value string) error {
	query := `
		INSERT INTO user_meta (user_id, meta_key, meta_value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, meta_key) DO UPDATE
		SET meta_value = EXCLUDED.meta_value, updated_at = NOW()
	`

	if _, err := r.pool.Exec(ctx, query, userID, key, value); err != nil {
		return fmt.Errorf("failed to set user meta: %w", err)
	}
	return nil
}

// PopMeta removes a user attribute and returns the value it held. Of two
// concurrent callers only one sees ok.
func (r *Repository) PopMeta(ctx context.Context, userID, key string) (string, bool, error) {
	query := `DELETE FROM user_meta WHERE user_id = $1 AND meta_key = $2 RETURNING meta_value`

	var value string
	err := r.pool.QueryRow(ctx, query, userID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to pop user meta: %w", err)
	}

	return value, true, nil
}
