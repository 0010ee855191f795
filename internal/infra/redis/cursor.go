package redis

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"

	"payment-lifecycle/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.Cursor = (*CursorStore)(nil)

const cursorPrefix = "cursor:"

// CursorStore persists position markers, e.g. the last transition record ID
// published to Kafka. An unset cursor reads as the empty string.
type CursorStore struct {
	c *Client
}

func NewCursorStore(c *Client) *CursorStore {
	return &CursorStore{c: c}
}

func (s *CursorStore) Get(ctx context.Context, name string) (string, error) {
	v, err := s.c.cli.Get(ctx, cursorPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *CursorStore) Set(ctx context.Context, name, value string) error {
	return s.c.cli.Set(ctx, cursorPrefix+name, value, 0).Err()
}
