//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"payment-lifecycle/internal/domain"
	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/domain/ports/adapter"
	"payment-lifecycle/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// MockPaymentRepo is a small in-memory payment store. Every method can be
// overridden per test via the corresponding Func field.
type MockPaymentRepo struct {
	mu    sync.RWMutex
	store map[string]*model.Payment

	SaveFunc             func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByIDFunc         func(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error)
	FindByAcquirerIDFunc func(ctx context.Context, tx repository.Tx, acquirerID string) (*model.Payment, error)
	UpdateStatusFunc     func(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) error

	Calls struct {
		FindByAcquirerID []string
	}
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByAcquirerID(ctx context.Context, tx repository.Tx, acquirerID string) (*model.Payment, error) {
	m.mu.Lock()
	m.Calls.FindByAcquirerID = append(m.Calls.FindByAcquirerID, acquirerID)
	m.mu.Unlock()
	if m.FindByAcquirerIDFunc != nil {
		return m.FindByAcquirerIDFunc(ctx, tx, acquirerID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.AcquirerPaymentID != nil && *p.AcquirerPaymentID == acquirerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepo) SetAcquirerIdentity(ctx context.Context, tx repository.Tx, id, acquirerID string, confirmationURL *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, domain.ErrPaymentNotFound
	}
	if p.AcquirerPaymentID != nil {
		return false, nil
	}
	p.AcquirerPaymentID = &acquirerID
	p.ConfirmationURL = confirmationURL
	return true, nil
}

func (m *MockPaymentRepo) ListStaleInFlight(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.InFlight() && p.UpdatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Get reads a payment directly from the store, bypassing Func overrides.
func (m *MockPaymentRepo) Get(id string) *model.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// MockTransitionLog keeps appended records in order.
type MockTransitionLog struct {
	mu      sync.RWMutex
	Records []*model.TransitionRecord

	AppendFunc func(ctx context.Context, tx repository.Tx, rec *model.TransitionRecord) error
}

var _ repository.TransitionLogRepository = (*MockTransitionLog)(nil)

func NewMockTransitionLog() *MockTransitionLog {
	return &MockTransitionLog{}
}

func (m *MockTransitionLog) Append(ctx context.Context, tx repository.Tx, rec *model.TransitionRecord) error {
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, tx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.Records = append(m.Records, &cp)
	return nil
}

func (m *MockTransitionLog) History(ctx context.Context, tx repository.Tx, paymentID string) ([]*model.TransitionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.TransitionRecord
	for _, r := range m.Records {
		if r.PaymentID == paymentID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockTransitionLog) ListAfter(ctx context.Context, tx repository.Tx, afterID string, limit int) ([]*model.TransitionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.TransitionRecord
	for _, r := range m.Records {
		if r.ID > afterID {
			cp := *r
			out = append(out, &cp)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MockTxManager runs the function inline without a real transaction.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// MockEventStore remembers marked webhook event IDs.
type MockEventStore struct {
	mu     sync.Mutex
	Marked map[string]bool

	SeenFunc func(ctx context.Context, eventID string) (bool, error)
	MarkFunc func(ctx context.Context, eventID string) error
}

var _ repository.WebhookEventStore = (*MockEventStore)(nil)

func NewMockEventStore() *MockEventStore {
	return &MockEventStore{Marked: make(map[string]bool)}
}

func (m *MockEventStore) Seen(ctx context.Context, eventID string) (bool, error) {
	if m.SeenFunc != nil {
		return m.SeenFunc(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Marked[eventID], nil
}

func (m *MockEventStore) Mark(ctx context.Context, eventID string) error {
	if m.MarkFunc != nil {
		return m.MarkFunc(ctx, eventID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Marked[eventID] = true
	return nil
}

// =============================
// Adapters
// =============================

// MockGateway records every call and answers with configurable results.
type MockGateway struct {
	mu sync.Mutex

	CreateFunc func(ctx context.Context, req adapter.CreateRequest) adapter.CreateResult
	CancelFunc func(ctx context.Context, idempotenceKey, acquirerPaymentID string) adapter.CancelResult
	FetchFunc  func(ctx context.Context, acquirerPaymentID string) adapter.FetchResult

	Calls struct {
		Create []adapter.CreateRequest
		Cancel []struct {
			IdempotenceKey    string
			AcquirerPaymentID string
		}
		Fetch []string
	}
}

var _ adapter.AcquirerGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "mock" }

func (m *MockGateway) Create(ctx context.Context, req adapter.CreateRequest) adapter.CreateResult {
	m.mu.Lock()
	m.Calls.Create = append(m.Calls.Create, req)
	m.mu.Unlock()
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}
	return adapter.CreateResult{AcquirerPaymentID: "acq-1", Status: "pending"}
}

func (m *MockGateway) Cancel(ctx context.Context, idempotenceKey, acquirerPaymentID string) adapter.CancelResult {
	m.mu.Lock()
	m.Calls.Cancel = append(m.Calls.Cancel, struct {
		IdempotenceKey    string
		AcquirerPaymentID string
	}{idempotenceKey, acquirerPaymentID})
	m.mu.Unlock()
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, idempotenceKey, acquirerPaymentID)
	}
	return adapter.CancelResult{Status: "canceled"}
}

func (m *MockGateway) Fetch(ctx context.Context, acquirerPaymentID string) adapter.FetchResult {
	m.mu.Lock()
	m.Calls.Fetch = append(m.Calls.Fetch, acquirerPaymentID)
	m.mu.Unlock()
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, acquirerPaymentID)
	}
	return adapter.FetchResult{AcquirerPaymentID: acquirerPaymentID, Status: "succeeded"}
}

// MockAuthenticator accepts everything unless configured otherwise.
type MockAuthenticator struct {
	AuthenticateFunc func(body []byte, token, signature string) bool
}

var _ adapter.WebhookAuthenticator = (*MockAuthenticator)(nil)

func (m *MockAuthenticator) Authenticate(body []byte, token, signature string) bool {
	if m.AuthenticateFunc != nil {
		return m.AuthenticateFunc(body, token, signature)
	}
	return true
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
