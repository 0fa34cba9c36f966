package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rahatc/paydesh/internal/domain/errors"
)

// Kind classifies a money movement.
type Kind string

const (
	KindTransfer       Kind = "transfer"
	KindCashIn         Kind = "cash_in"
	KindCashOut        Kind = "cash_out"
	KindAgentFee       Kind = "agent_fee"
	KindRequestPayment Kind = "request_payment"
)

// Status is the lifecycle state of an entry. An entry is created as
// initiated inside the same transaction that mutates balances and reaches
// exactly one terminal state before that transaction ends or is compensated.
type Status string

const (
	StatusInitiated Status = "initiated"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Entry represents one attempted money movement between two accounts.
// A completed entry implies both balance mutations were applied exactly
// once; a failed entry implies neither was.
type Entry struct {
	ID            uuid.UUID
	FromAccount   uuid.UUID
	ToAccount     uuid.UUID
	Amount        int64 // in cents
	Kind          Kind
	Status        Status
	CorrelationID string // caller-visible reference, unique per attempt
	CreatedAt     time.Time
}

// NewEntry creates an initiated entry with a fresh correlation reference.
func NewEntry(from, to uuid.UUID, amount int64, kind Kind) (*Entry, error) {
	if amount <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}
	return &Entry{
		ID:            uuid.New(),
		FromAccount:   from,
		ToAccount:     to,
		Amount:        amount,
		Kind:          kind,
		Status:        StatusInitiated,
		CorrelationID: NewCorrelationID(),
		CreatedAt:     time.Now(),
	}, nil
}

// NewCorrelationID generates a caller-visible reference string. The random
// suffix keeps references unique when two attempts land in the same millisecond.
func NewCorrelationID() string {
	buf := make([]byte, 3)
	rand.Read(buf)
	return fmt.Sprintf("TXN-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}

// Complete marks the entry completed.
func (e *Entry) Complete() {
	e.Status = StatusCompleted
}

// Fail marks the entry failed.
func (e *Entry) Fail() {
	e.Status = StatusFailed
}

// Participant reports whether the account took part in this entry.
func (e *Entry) Participant(accountID uuid.UUID) bool {
	return e.FromAccount == accountID || e.ToAccount == accountID
}

// Event is one immutable step in an entry's lifecycle. Events are append-only
// and are the source of truth for audit and reconstruction.
type Event struct {
	ID        uuid.UUID
	EntryID   uuid.UUID
	Kind      string // e.g. "pin_verified", "debited", "credited", "completed", "failed"
	Outcome   string // "success" or "failure"
	Detail    string
	CreatedAt time.Time
}

const (
	EventPINVerified = "pin_verified"
	EventDebited     = "debited"
	EventCredited    = "credited"
	EventCompleted   = "completed"
	EventFailed      = "failed"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// NewEvent creates a lifecycle event for an entry.
func NewEvent(entryID uuid.UUID, kind, outcome, detail string) *Event {
	return &Event{
		ID:        uuid.New(),
		EntryID:   entryID,
		Kind:      kind,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
}

// AgentFeeRecord links a cash-out entry to its agent fee entry.
type AgentFeeRecord struct {
	ID             uuid.UUID
	CashOutEntryID uuid.UUID
	FeeEntryID     uuid.UUID
	FeeAmount      int64 // in cents
	CreatedAt      time.Time
}

// Topup ties a cash-in entry to the agent-originated deposit. Agent cash-in
// carries no external payment-method reference.
type Topup struct {
	ID             uuid.UUID
	EntryID        uuid.UUID
	AgentAccountID uuid.UUID
	Amount         int64 // in cents
	CreatedAt      time.Time
}
