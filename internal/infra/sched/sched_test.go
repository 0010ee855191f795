//go:build !integration

package sched

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/domain/ports/adapter"
	"payment-lifecycle/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// fakePayments implements only what the reconciler touches.
type fakePayments struct {
	repository.PaymentRepository
	stale []*model.Payment
}

func (f *fakePayments) ListStaleInFlight(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	return f.stale, nil
}

type fakeState struct {
	calls []struct {
		PaymentID string
		To        model.PaymentStatus
		Reason    model.TransitionReason
		Actor     string
	}
	err error
}

func (f *fakeState) Transition(ctx context.Context, paymentID string, newStatus model.PaymentStatus, reason model.TransitionReason, actor string) (*model.Payment, error) {
	f.calls = append(f.calls, struct {
		PaymentID string
		To        model.PaymentStatus
		Reason    model.TransitionReason
		Actor     string
	}{paymentID, newStatus, reason, actor})
	if f.err != nil {
		return nil, f.err
	}
	return &model.Payment{ID: paymentID, Status: newStatus}, nil
}

type fakeGateway struct {
	adapter.AcquirerGateway
	fetch map[string]adapter.FetchResult
}

func (f *fakeGateway) Fetch(ctx context.Context, acquirerPaymentID string) adapter.FetchResult {
	return f.fetch[acquirerPaymentID]
}

func strptr(s string) *string { return &s }

func TestReconcilerTick(t *testing.T) {
	ctx := context.Background()

	t.Run("converges a stale payment through the state service", func(t *testing.T) {
		payments := &fakePayments{stale: []*model.Payment{
			{ID: "pay-1", Status: model.PaymentStatusPending, AcquirerPaymentID: strptr("acq-1")},
		}}
		state := &fakeState{}
		gw := &fakeGateway{fetch: map[string]adapter.FetchResult{
			"acq-1": {AcquirerPaymentID: "acq-1", Status: "succeeded"},
		}}

		w := NewPaymentReconciler(payments, state, gw, time.Minute, time.Minute, 10, testLogger())
		w.tick(ctx)

		if len(state.calls) != 1 {
			t.Fatalf("expected one transition, got %d", len(state.calls))
		}
		call := state.calls[0]
		if call.PaymentID != "pay-1" || call.To != model.PaymentStatusSucceeded {
			t.Errorf("unexpected transition: %+v", call)
		}
		if call.Reason != model.ReasonReconcilerSync || call.Actor != "reconciler" {
			t.Errorf("wrong provenance: %+v", call)
		}
	})

	t.Run("skips payments that never reached the acquirer", func(t *testing.T) {
		payments := &fakePayments{stale: []*model.Payment{
			{ID: "pay-1", Status: model.PaymentStatusPending}, // no acquirer ID
		}}
		state := &fakeState{}
		gw := &fakeGateway{fetch: map[string]adapter.FetchResult{}}

		w := NewPaymentReconciler(payments, state, gw, time.Minute, time.Minute, 10, testLogger())
		w.tick(ctx)

		if len(state.calls) != 0 {
			t.Errorf("expected no transitions, got %d", len(state.calls))
		}
	})

	t.Run("leaves payments alone when the provider agrees", func(t *testing.T) {
		payments := &fakePayments{stale: []*model.Payment{
			{ID: "pay-1", Status: model.PaymentStatusWaitingForCapture, AcquirerPaymentID: strptr("acq-1")},
		}}
		state := &fakeState{}
		gw := &fakeGateway{fetch: map[string]adapter.FetchResult{
			"acq-1": {AcquirerPaymentID: "acq-1", Status: "waiting_for_capture"},
		}}

		w := NewPaymentReconciler(payments, state, gw, time.Minute, time.Minute, 10, testLogger())
		w.tick(ctx)

		if len(state.calls) != 0 {
			t.Errorf("expected no transitions for an agreeing provider, got %d", len(state.calls))
		}
	})

	t.Run("fetch failure is tolerated and the payment retried next tick", func(t *testing.T) {
		payments := &fakePayments{stale: []*model.Payment{
			{ID: "pay-1", Status: model.PaymentStatusPending, AcquirerPaymentID: strptr("acq-1")},
		}}
		state := &fakeState{}
		gw := &fakeGateway{fetch: map[string]adapter.FetchResult{
			"acq-1": {Failure: &adapter.Failure{Code: "network_error"}},
		}}

		w := NewPaymentReconciler(payments, state, gw, time.Minute, time.Minute, 10, testLogger())
		w.tick(ctx)

		if len(state.calls) != 0 {
			t.Errorf("expected no transition on fetch failure, got %d", len(state.calls))
		}
	})
}

// fakeTransitions serves a fixed, ordered log.
type fakeTransitions struct {
	repository.TransitionLogRepository
	recs []*model.TransitionRecord
}

func (f *fakeTransitions) ListAfter(ctx context.Context, tx repository.Tx, afterID string, limit int) ([]*model.TransitionRecord, error) {
	var out []*model.TransitionRecord
	for _, r := range f.recs {
		if r.ID > afterID {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type memCursor struct {
	vals map[string]string
}

func (m *memCursor) Get(ctx context.Context, name string) (string, error) {
	return m.vals[name], nil
}

func (m *memCursor) Set(ctx context.Context, name, value string) error {
	m.vals[name] = value
	return nil
}

type fakeSink struct {
	published []string
	failOn    string
}

func (f *fakeSink) Publish(ctx context.Context, rec *model.TransitionRecord) error {
	if rec.ID == f.failOn {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, rec.ID)
	return nil
}

func TestTransitionPublisherTick(t *testing.T) {
	ctx := context.Background()
	recs := []*model.TransitionRecord{
		{ID: "01A", PaymentID: "pay-1"},
		{ID: "01B", PaymentID: "pay-1"},
		{ID: "01C", PaymentID: "pay-2"},
	}

	t.Run("publishes everything past the cursor and advances it", func(t *testing.T) {
		cursor := &memCursor{vals: map[string]string{publishCursorName: "01A"}}
		sink := &fakeSink{}

		w := NewTransitionPublisher(&fakeTransitions{recs: recs}, cursor, sink, time.Second, 10, testLogger())
		w.tick(ctx)

		if len(sink.published) != 2 || sink.published[0] != "01B" || sink.published[1] != "01C" {
			t.Errorf("unexpected published set: %v", sink.published)
		}
		if cursor.vals[publishCursorName] != "01C" {
			t.Errorf("cursor not advanced, at %q", cursor.vals[publishCursorName])
		}
	})

	t.Run("publish failure stops the batch and holds the cursor", func(t *testing.T) {
		cursor := &memCursor{vals: map[string]string{}}
		sink := &fakeSink{failOn: "01B"}

		w := NewTransitionPublisher(&fakeTransitions{recs: recs}, cursor, sink, time.Second, 10, testLogger())
		w.tick(ctx)

		if len(sink.published) != 1 || sink.published[0] != "01A" {
			t.Errorf("expected only 01A published, got %v", sink.published)
		}
		if cursor.vals[publishCursorName] != "01A" {
			t.Errorf("cursor must stay at the last published record, at %q", cursor.vals[publishCursorName])
		}

		// Next tick retries from the held cursor: at-least-once.
		sink.failOn = ""
		w.tick(ctx)
		if len(sink.published) != 3 {
			t.Errorf("expected retry to publish the remainder, got %v", sink.published)
		}
	})
}
