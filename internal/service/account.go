package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guestlink/guestlink/internal/model"
	"github.com/guestlink/guestlink/internal/repository"
)

// UserStore looks up customer accounts.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// SessionStore issues and revokes customer session tokens.
type SessionStore interface {
	CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error)
	DeleteSession(ctx context.Context, token string) error
}

// AccountService resolves account details for the storefront.
type AccountService struct {
	users      UserStore
	sessions   SessionStore
	baseURL    string
	sessionTTL time.Duration
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserStore, sessions SessionStore, baseURL string, sessionTTL time.Duration) *AccountService {
	return &AccountService{
		users:      users,
		sessions:   sessions,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		sessionTTL: sessionTTL,
	}
}

// GetUserByID returns a customer account.
func (s *AccountService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return user, nil
}

// OrdersURL is the account's order list page.
func (s *AccountService) OrdersURL(string) string {
	return s.baseURL + "/my-account/orders"
}

// Session is an issued customer session.
type Session struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
}

// StartSession issues a session token for an existing customer.
func (s *AccountService) StartSession(ctx context.Context, userID string) (*Session, error) {
	if _, err := s.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	token, err := s.sessions.CreateSession(ctx, userID, s.sessionTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.sessionTTL),
	}, nil
}

// EndSession revokes a session token. Unknown tokens are not an error.
func (s *AccountService) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}
