package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rahatc/paydesh/internal/domain/account"
	"github.com/rahatc/paydesh/internal/domain/errors"
	"github.com/rahatc/paydesh/internal/domain/ledger"
	"github.com/rahatc/paydesh/internal/domain/request"
)

// --- Account Repository Mock ---

// MockAccountRepository is a mock implementation of account.Repository.
type MockAccountRepository struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*account.Account
	byOwner  map[string]*account.Account
	byPhone  map[string]*account.Account

	CreateFunc        func(ctx context.Context, a *account.Account) error
	GetByIDFunc       func(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByOwnerFunc    func(ctx context.Context, ownerID string) (*account.Account, error)
	GetByPhoneFunc    func(ctx context.Context, phone string) (*account.Account, error)
	UpdateBalanceFunc func(ctx context.Context, a *account.Account) error
	LockFunc          func(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// LockOrder records the ids passed to Lock, in call order.
	LockOrder []uuid.UUID
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[uuid.UUID]*account.Account),
		byOwner:  make(map[string]*account.Account),
		byPhone:  make(map[string]*account.Account),
	}
}

// Seed registers an account in the mock's indexes.
func (m *MockAccountRepository) Seed(a *account.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	m.byOwner[a.OwnerID] = a
	m.byPhone[a.Phone] = a
}

func (m *MockAccountRepository) Create(ctx context.Context, a *account.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	m.Seed(a)
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return a, nil
}

func (m *MockAccountRepository) GetByOwner(ctx context.Context, ownerID string) (*account.Account, error) {
	if m.GetByOwnerFunc != nil {
		return m.GetByOwnerFunc(ctx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byOwner[ownerID]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return a, nil
}

func (m *MockAccountRepository) GetByPhone(ctx context.Context, phone string) (*account.Account, error) {
	if m.GetByPhoneFunc != nil {
		return m.GetByPhoneFunc(ctx, phone)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byPhone[phone]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return a, nil
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, a *account.Account) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *MockAccountRepository) Lock(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LockOrder = append(m.LockOrder, id)
	a, ok := m.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	return a, nil
}

// --- Ledger Repository Mock ---

// MockLedgerRepository is a mock implementation of ledger.Repository.
type MockLedgerRepository struct {
	mu      sync.Mutex
	entries map[uuid.UUID]*ledger.Entry
	events  map[uuid.UUID][]*ledger.Event
	fees    []*ledger.AgentFeeRecord
	topups  []*ledger.Topup

	CreateEntryFunc        func(ctx context.Context, e *ledger.Entry) error
	UpdateStatusFunc       func(ctx context.Context, entryID uuid.UUID, status ledger.Status) error
	GetByIDFunc            func(ctx context.Context, id uuid.UUID) (*ledger.Entry, error)
	HasRecentCompletedFunc func(ctx context.Context, from, to uuid.UUID, amount int64, window time.Duration) (bool, error)
	AddEventFunc           func(ctx context.Context, event *ledger.Event) error
	GetEventsFunc          func(ctx context.Context, entryID uuid.UUID) ([]*ledger.Event, error)
	HistoryFunc            func(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, int, error)
	CreateFeeRecordFunc    func(ctx context.Context, rec *ledger.AgentFeeRecord) error
	CreateTopupFunc        func(ctx context.Context, t *ledger.Topup) error
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		entries: make(map[uuid.UUID]*ledger.Entry),
		events:  make(map[uuid.UUID][]*ledger.Event),
	}
}

func (m *MockLedgerRepository) CreateEntry(ctx context.Context, e *ledger.Entry) error {
	if m.CreateEntryFunc != nil {
		return m.CreateEntryFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

func (m *MockLedgerRepository) UpdateStatus(ctx context.Context, entryID uuid.UUID, status ledger.Status) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, entryID, status)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return errors.ErrEntryNotFound
	}
	e.Status = status
	return nil
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, errors.ErrEntryNotFound
	}
	return e, nil
}

func (m *MockLedgerRepository) HasRecentCompleted(ctx context.Context, from, to uuid.UUID, amount int64, window time.Duration) (bool, error) {
	if m.HasRecentCompletedFunc != nil {
		return m.HasRecentCompletedFunc(ctx, from, to, amount, window)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-window)
	for _, e := range m.entries {
		if e.Status == ledger.StatusCompleted &&
			e.FromAccount == from && e.ToAccount == to &&
			e.Amount == amount && e.CreatedAt.After(cutoff) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockLedgerRepository) AddEvent(ctx context.Context, event *ledger.Event) error {
	if m.AddEventFunc != nil {
		return m.AddEventFunc(ctx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.EntryID] = append(m.events[event.EntryID], event)
	return nil
}

func (m *MockLedgerRepository) GetEvents(ctx context.Context, entryID uuid.UUID) ([]*ledger.Event, error) {
	if m.GetEventsFunc != nil {
		return m.GetEventsFunc(ctx, entryID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[entryID], nil
}

func (m *MockLedgerRepository) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, int, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, accountID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []*ledger.Entry
	for _, e := range m.entries {
		if e.Status != ledger.StatusCompleted || e.Kind == ledger.KindAgentFee {
			continue
		}
		if e.Participant(accountID) {
			matched = append(matched, e)
		}
	}
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (m *MockLedgerRepository) CreateFeeRecord(ctx context.Context, rec *ledger.AgentFeeRecord) error {
	if m.CreateFeeRecordFunc != nil {
		return m.CreateFeeRecordFunc(ctx, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fees = append(m.fees, rec)
	return nil
}

func (m *MockLedgerRepository) CreateTopup(ctx context.Context, t *ledger.Topup) error {
	if m.CreateTopupFunc != nil {
		return m.CreateTopupFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topups = append(m.topups, t)
	return nil
}

// Entries returns a snapshot of all stored entries.
func (m *MockLedgerRepository) Entries() []*ledger.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ledger.Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	return out
}

// Events returns the recorded events for an entry.
func (m *MockLedgerRepository) Events(entryID uuid.UUID) []*ledger.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[entryID]
}

// FeeRecords returns all recorded agent fee records.
func (m *MockLedgerRepository) FeeRecords() []*ledger.AgentFeeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fees
}

// Topups returns all recorded topups.
func (m *MockLedgerRepository) Topups() []*ledger.Topup {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.topups
}

// --- Request Repository Mock ---

// MockRequestRepository is a mock implementation of request.Repository.
type MockRequestRepository struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*request.MoneyRequest

	CreateFunc       func(ctx context.Context, r *request.MoneyRequest) error
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error)
	LockFunc         func(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error)
	MarkPaidFunc     func(ctx context.Context, id uuid.UUID, entryID uuid.UUID) error
	UpdateStatusFunc func(ctx context.Context, id uuid.UUID, from, to request.Status) (bool, error)
	ListFunc         func(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*request.MoneyRequest, error)
}

func NewMockRequestRepository() *MockRequestRepository {
	return &MockRequestRepository{requests: make(map[uuid.UUID]*request.MoneyRequest)}
}

func (m *MockRequestRepository) Create(ctx context.Context, r *request.MoneyRequest) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, r)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, errors.ErrRequestNotFound
	}
	return r, nil
}

func (m *MockRequestRepository) Lock(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error) {
	if m.LockFunc != nil {
		return m.LockFunc(ctx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockRequestRepository) MarkPaid(ctx context.Context, id uuid.UUID, entryID uuid.UUID) error {
	if m.MarkPaidFunc != nil {
		return m.MarkPaidFunc(ctx, id, entryID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return errors.ErrRequestNotFound
	}
	return r.MarkPaid(entryID)
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to request.Status) (bool, error) {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return false, errors.ErrRequestNotFound
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (m *MockRequestRepository) ListForAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*request.MoneyRequest, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, accountID, limit, offset)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*request.MoneyRequest
	for _, r := range m.requests {
		if r.RequesterAccount == accountID || r.PayerAccount == accountID {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- Transaction Manager Mock ---

// MockTransactionManager runs the unit of work inline without a database.
type MockTransactionManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error

	// Calls counts how many transactions were started.
	Calls int
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Calls++
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Notifier Mock ---

// Notification is one captured notifier dispatch.
type Notification struct {
	OwnerID string
	Message string
}

// MockNotifier captures dispatched notifications.
type MockNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (m *MockNotifier) Notify(ctx context.Context, ownerID, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, Notification{OwnerID: ownerID, Message: message})
}

// Sent returns a snapshot of captured notifications.
func (m *MockNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Notification, len(m.sent))
	copy(out, m.sent)
	return out
}

// --- Secret Verifier Mock ---

// PlainVerifier treats the stored hash as the plaintext itself. Test-only.
type PlainVerifier struct{}

func (PlainVerifier) Verify(hash, plaintext string) bool {
	return hash == plaintext
}
