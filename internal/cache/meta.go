package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const metaPrefix = "usermeta:"

// RedisMeta keeps per-user attributes in one Redis hash per user.
type RedisMeta struct {
	client *redis.Client
}

// NewRedisMeta creates a RedisMeta on the cache's client.
func NewRedisMeta(c *Cache) *RedisMeta {
	return &RedisMeta{client: c.client}
}

func metaKey(userID string) string {
	return metaPrefix + userID
}

// GetMeta returns a user attribute and whether it is set.
func (m *RedisMeta) GetMeta(ctx context.Context, userID, key string) (string, bool, error) {
	v, err := m.client.HGet(ctx, metaKey(userID), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get user meta: %w", err)
	}
	return v, true, nil
}

// SetMeta stores a user attribute, replacing any previous value.
func (m *RedisMeta) SetMeta(ctx context.Context, userID, key, value string) error {
	if err := m.client.HSet(ctx, metaKey(userID), key, value).Err(); err != nil {
		return fmt.Errorf("set user meta: %w", err)
	}
	return nil
}

// PopMeta removes a user attribute and returns the value it held. HGET and
// HDEL run in one MULTI so concurrent callers cannot both read the value.
func (m *RedisMeta) PopMeta(ctx context.Context, userID, key string) (string, bool, error) {
	var get *redis.StringCmd
	var del *redis.IntCmd
	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGet(ctx, metaKey(userID), key)
		del = pipe.HDel(ctx, metaKey(userID), key)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", false, fmt.Errorf("pop user meta: %w", err)
	}
	if del.Val() == 0 {
		return "", false, nil
	}
	return get.Val(), true, nil
}
