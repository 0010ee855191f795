package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/domain/ports/repository"
)

const publishCursorName = "transitions-published"

// StatusEventSink is where the publisher hands committed transitions.
type StatusEventSink interface {
	Publish(ctx context.Context, rec *model.TransitionRecord) error
}

// TransitionPublisher tails the append-only transition log and publishes each
// record at least once, advancing a ULID cursor after every successful write.
// The log doubles as the outbox: the state service stays free of outbound
// calls while collaborators still hear about every committed transition.
type TransitionPublisher struct {
	transitions repository.TransitionLogRepository
	cursor      repository.Cursor
	sink        StatusEventSink
	interval    time.Duration
	batchSize   int
	log         *zerolog.Logger
}

func NewTransitionPublisher(transitions repository.TransitionLogRepository, cursor repository.Cursor, sink StatusEventSink, interval time.Duration, batchSize int, logger *zerolog.Logger) *TransitionPublisher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &TransitionPublisher{
		transitions: transitions,
		cursor:      cursor,
		sink:        sink,
		interval:    interval,
		batchSize:   batchSize,
		log:         logger,
	}
}

func (w *TransitionPublisher) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *TransitionPublisher) tick(ctx context.Context) {
	last, err := w.cursor.Get(ctx, publishCursorName)
	if err != nil {
		w.log.Error().Err(err).Msg("publisher: read cursor failed")
		return
	}
	recs, err := w.transitions.ListAfter(ctx, repository.NoTX, last, w.batchSize)
	if err != nil {
		w.log.Error().Err(err).Msg("publisher: list transitions failed")
		return
	}
	for _, rec := range recs {
		if err := w.sink.Publish(ctx, rec); err != nil {
			// Stop the batch; the cursor stays put so this record is retried
			// next tick (at-least-once).
			w.log.Warn().Err(err).Str("transition_id", rec.ID).Msg("publisher: publish failed")
			return
		}
		if err := w.cursor.Set(ctx, publishCursorName, rec.ID); err != nil {
			w.log.Error().Err(err).Str("transition_id", rec.ID).Msg("publisher: advance cursor failed")
			return
		}
	}
}
