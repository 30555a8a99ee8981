package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetOption returns a global setting and whether it exists.
func (r *Repository) GetOption(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM options WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get option: %w", err)
	}
	return value, true, nil
}

// AddOption stores a setting only if it does not exist yet and reports
// whether it was written.
func (r *Repository) AddOption(ctx context.Context, name, value string) (bool, error) {
	query := `
		INSERT INTO options (name, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO NOTHING
	`

	result, err := r.pool.Exec(ctx, query, name, value)
	if err != nil {
		return false, fmt.Errorf("failed to add option: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
