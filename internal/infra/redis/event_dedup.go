package redis

import (
	"context"
	"time"

	"payment-lifecycle/internal/domain/ports/repository"
)

// Compile-time check
var _ repository.WebhookEventStore = (*EventDedup)(nil)

const dedupPrefix = "webhook:event:"

// EventDedup remembers processed webhook events for a bounded TTL window.
// Best effort only; the state service's no-op-on-same-status behavior is the
// authoritative duplicate guard.
type EventDedup struct {
	c   *Client
	ttl time.Duration
}

func NewEventDedup(c *Client, ttl time.Duration) *EventDedup {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &EventDedup{c: c, ttl: ttl}
}

func (d *EventDedup) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := d.c.cli.Exists(ctx, dedupPrefix+eventID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *EventDedup) Mark(ctx context.Context, eventID string) error {
	return d.c.cli.Set(ctx, dedupPrefix+eventID, 1, d.ttl).Err()
}
