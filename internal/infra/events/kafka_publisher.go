package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"payment-lifecycle/internal/domain/model"
)

// StatusEvent is the message shape collaborators consume for payment status
// changes.
type StatusEvent struct {
	TransitionID string    `json:"transition_id"`
	PaymentID    string    `json:"payment_id"`
	FromStatus   string    `json:"from_status"`
	ToStatus     string    `json:"to_status"`
	Reason       string    `json:"reason"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher writes payment status events to Kafka, keyed by payment ID so a
// single payment's events stay ordered within a partition.
type Publisher struct {
	writer *kafka.Writer
	log    *zerolog.Logger
}

func NewPublisher(brokers []string, topic string, logger *zerolog.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
	}
	return &Publisher{writer: writer, log: logger}
}

func (p *Publisher) Publish(ctx context.Context, rec *model.TransitionRecord) error {
	ev := StatusEvent{
		TransitionID: rec.ID,
		PaymentID:    rec.PaymentID,
		FromStatus:   string(rec.FromStatus),
		ToStatus:     string(rec.ToStatus),
		Reason:       string(rec.Reason),
		OccurredAt:   rec.CreatedAt,
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal status event: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, p.writer.WriteTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(rec.PaymentID),
		Value: value,
	}); err != nil {
		return fmt.Errorf("write status event: %w", err)
	}
	p.log.Debug().Str("payment_id", rec.PaymentID).Str("transition_id", rec.ID).Msg("status event published")
	return nil
}

func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
