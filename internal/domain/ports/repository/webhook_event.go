package repository

import "context"

// WebhookEventStore remembers processed webhook notifications for a bounded
// window so exact duplicates can be skipped before touching the database.
// Best effort: the State Service's no-op-on-same-status behavior is the
// authoritative duplicate guard.
type WebhookEventStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Cursor persists a single position marker, such as the last published
// transition record ID.
type Cursor interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
}
