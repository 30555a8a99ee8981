package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/repository"
)

const (
	defaultOrderLimit = 20
	maxOrderLimit     = 100
	defaultCurrency   = "USD"
)

// OrderStore persists orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	ListOrdersByCustomer(ctx context.Context, userID string, limit int) ([]*model.Order, error)
}

// OrderService records guest orders and lists customer orders.
type OrderService struct {
	store OrderStore
}

// NewOrderService creates a new OrderService.
func NewOrderService(store OrderStore) *OrderService {
	return &OrderService{store: store}
}

// CreateGuestOrderInput defines input for recording a guest order.
type CreateGuestOrderInput struct {
	ID           string
	BillingEmail string
	Status       string
	TotalCents   int64
	Currency     string
	CreatedAt    *time.Time
}

// CreateGuestOrder records an order placed without an account.
// The order stays a guest order until an account with the same email is
// registered.
func (s *OrderService) CreateGuestOrder(ctx context.Context, input CreateGuestOrderInput) (*model.Order, error) {
	// Billing emails are stored as entered; matching normalizes them.
	if _, err := normalizeEmail(input.BillingEmail); err != nil {
		return nil, err
	}
	if input.TotalCents < 0 {
		return nil, ErrInvalidTotal
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = model.OrderStatusPending
	}
	if !statusRegex.MatchString(status) {
		return nil, ErrInvalidStatus
	}

	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = defaultCurrency
	}
	if !currencyRegex.MatchString(currency) {
		return nil, ErrInvalidCurrency
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = ulid.Make().String()
	}

	createdAt := time.Now().UTC()
	if input.CreatedAt != nil {
		createdAt = input.CreatedAt.UTC()
	}

	order := &model.Order{
		ID:           id,
		BillingEmail: strings.TrimSpace(input.BillingEmail),
		Status:       status,
		TotalCents:   input.TotalCents,
		Currency:     currency,
		CreatedAt:    createdAt,
	}

	if err := s.store.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrOrderExists) {
			return nil, ErrOrderExists
		}
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

// ListCustomerOrders returns the newest orders attached to a customer.
func (s *OrderService) ListCustomerOrders(ctx context.Context, userID string, limit int) ([]*model.Order, error) {
	if limit <= 0 || limit > maxOrderLimit {
		limit = defaultOrderLimit
	}

	orders, err := s.store.ListOrdersByCustomer(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	if orders == nil {
		orders = []*model.Order{}
	}
	return orders, nil
}
