package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/guestlink/guestlink/internal/hooks"
	"github.com/guestlink/guestlink/internal/metrics"
	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/repository"
	"github.com/guestlink/guestlink/internal/webhook"
)

// CustomerStore persists customer accounts.
type CustomerStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	UpsertUser(ctx context.Context, user *model.User) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CountGuestOrdersByEmail(ctx context.Context, email string) (int, error)
}

// EventFirer dispatches the customer-created hook.
type EventFirer interface {
	FireCustomerCreated(ctx context.Context, ev hooks.CustomerCreated) error
}

// CustomerService handles customer registration.
type CustomerService struct {
	store   CustomerStore
	events  EventFirer
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(store CustomerStore, events EventFirer, recorder metrics.Recorder, logger *slog.Logger) *CustomerService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerService{
		store:   store,
		events:  events,
		metrics: recorder,
		logger:  logger.With("component", "customers"),
	}
}

// RegisterInput defines input for registering a customer.
type RegisterInput struct {
	Email     string
	FirstName string
}

// Register creates a customer account and fires CustomerCreated.
// Hook failures are logged by the bus and do not fail the registration.
func (s *CustomerService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	firstName, err := normalizeFirstName(input.FirstName)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		FirstName: firstName,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.metrics.IncCustomersRegistered()
	s.fireCreated(ctx, user)

	return user, nil
}

// HandlePlatformEvent applies a customer.created event delivered by the
// platform. Only the delivery that creates the account fires
// CustomerCreated, so redelivered events cannot reset a pending notice.
func (s *CustomerService) HandlePlatformEvent(ctx context.Context, ev *webhook.Event) (*model.User, bool, error) {
	email, err := normalizeEmail(ev.User.Email)
	if err != nil {
		return nil, false, err
	}
	firstName, err := normalizeFirstName(ev.User.FirstName)
	if err != nil {
		return nil, false, err
	}

	user := &model.User{
		ID:        ev.User.ID,
		Email:     email,
		FirstName: firstName,
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.store.UpsertUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, false, ErrEmailExists
		}
		return nil, false, fmt.Errorf("failed to upsert customer: %w", err)
	}

	if !created {
		s.logger.InfoContext(ctx, "platform customer refreshed", "user_id", user.ID, "event_id", ev.ID)
		return user, false, nil
	}

	s.metrics.IncCustomersRegistered()
	s.fireCreated(ctx, user)

	return user, true, nil
}

// CustomerLookup is what the store knows about an email address.
type CustomerLookup struct {
	Email string
	// Customer is nil when no account uses the address.
	Customer *model.User
	// UnlinkedGuestOrders counts orders with this billing email that are
	// still not attached to any account, in every status.
	UnlinkedGuestOrders int
}

// Lookup reports the account registered for email, if any, and how many
// guest orders with that address remain unlinked. Linking only happens
// when an account is created, so orders placed as a guest afterwards
// show up here.
func (s *CustomerService) Lookup(ctx context.Context, email string) (*CustomerLookup, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, normalized)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up customer: %w", err)
		}
		user = nil
	}

	n, err := s.store.CountGuestOrdersByEmail(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to count guest orders: %w", err)
	}

	return &CustomerLookup{Email: normalized, Customer: user, UnlinkedGuestOrders: n}, nil
}

func (s *CustomerService) fireCreated(ctx context.Context, user *model.User) {
	if s.events == nil {
		return
	}
	if err := s.events.FireCustomerCreated(ctx, hooks.CustomerCreated{UserID: user.ID, Email: user.Email}); err != nil {
		s.logger.WarnContext(ctx, "customer created hooks reported errors", "user_id", user.ID, "error", err)
	}
}
