package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/guestlink/guestlink/internal/model"
)

// ErrOrderExists is returned when an order ID is already taken.
var ErrOrderExists = errors.New("order already exists")

const orderColumns = `id, customer_id, billing_email, status, total_cents, currency, created_at, linked_at`

// CreateOrder inserts an order.
func (r *Repository) CreateOrder(ctx context.Context, order *model.Order) error {
	query := `
		INSERT INTO orders (id, customer_id, billing_email, status, total_cents, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.pool.Exec(ctx, query,
		order.ID,
		order.CustomerID,
		order.BillingEmail,
		order.Status,
		order.TotalCents,
		order.Currency,
		order.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrOrderExists
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// LinkGuestOrders attaches every guest order whose billing email matches
// the user's email (trimmed, case-insensitive) to the user. Orders in an
// excluded status are left alone. Returns the number of orders linked;
// an unknown user links nothing.
func (r *Repository) LinkGuestOrders(ctx context.Context, userID string, excludedStatuses []string) (int, error) {
	query := `
		WITH customer AS (
			SELECT id, LOWER(TRIM(email)) AS email FROM users WHERE id = $1
		)
		UPDATE orders AS o
		SET customer_id = customer.id, linked_at = $3
		FROM customer
		WHERE o.customer_id IS NULL
		  AND LOWER(TRIM(o.billing_email)) = customer.email
		  AND NOT (o.status = ANY($2))
	`

	if excludedStatuses == nil {
		excludedStatuses = []string{}
	}

	result, err := r.pool.Exec(ctx, query, userID, pq.Array(excludedStatuses), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to link guest orders: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// ListOrdersByCustomer returns the customer's orders, newest first.
func (r *Repository) ListOrdersByCustomer(ctx context.Context, userID string, limit int) ([]*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*model.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// CountGuestOrdersByEmail counts unlinked orders for an email address.
func (r *Repository) CountGuestOrdersByEmail(ctx context.Context, email string) (int, error) {
	query := `
		SELECT COUNT(*) FROM orders
		WHERE customer_id IS NULL AND LOWER(TRIM(billing_email)) = $1
	`

	var n int
	if err := r.pool.QueryRow(ctx, query, model.NormalizeEmail(email)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count guest orders: %w", err)
	}
	return n, nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var order model.Order
	err := row.Scan(
		&order.ID,
		&order.CustomerID,
		&order.BillingEmail,
		&order.Status,
		&order.TotalCents,
		&order.Currency,
		&order.CreatedAt,
		&order.LinkedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GuestOrderMatcher links guest orders with a fixed status exclusion list.
type GuestOrderMatcher struct {
	repo     *Repository
	excluded []string
}

// NewGuestOrderMatcher creates a matcher over repo.
func NewGuestOrderMatcher(repo *Repository, excludedStatuses []string) *GuestOrderMatcher {
	return &GuestOrderMatcher{repo: repo, excluded: excludedStatuses}
}

// LinkGuestOrders links the user's guest orders.
func (m *GuestOrderMatcher) LinkGuestOrders(ctx context.Context, userID string) (int, error) {
	return m.repo.LinkGuestOrders(ctx, userID, m.excluded)
}
