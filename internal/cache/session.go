package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guestlink/guestlink/internal/auth"
)

const sessionPrefix = "session:"

// ErrSessionNotFound is returned for unknown or expired session tokens.
var ErrSessionNotFound = errors.New("session not found")

// sessionKey stores sessions under a hash of the token, never the token.
func sessionKey(token string) string {
	return sessionPrefix + auth.QuickHash(token)
}

// CreateSession starts a customer session for userID and returns its token.
func (c *Cache) CreateSession(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token, err := auth.NewSessionToken()
	if err != nil {
		return "", err
	}

	if err := c.client.Set(ctx, sessionKey(token), userID, ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

// GetSession returns the user ID behind a session token.
func (c *Cache) GetSession(ctx context.Context, token string) (string, error) {
	userID, err := c.client.Get(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}
	return userID, nil
}

// DeleteSession ends a session. Unknown tokens are ignored.
func (c *Cache) DeleteSession(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
