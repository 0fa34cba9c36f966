package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for ledger persistence
type Repository interface {
	// CreateEntry inserts a new ledger entry
	CreateEntry(ctx context.Context, entry *Entry) error

	// UpdateStatus transitions an entry to a terminal status
	UpdateStatus(ctx context.Context, entryID uuid.UUID, status Status) error

	// GetByID retrieves an entry by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)

	// HasRecentCompleted reports whether a completed entry with the same
	// (from, to, amount) tuple exists within the trailing window
	HasRecentCompleted(ctx context.Context, from, to uuid.UUID, amount int64, window time.Duration) (bool, error)

	// AddEvent appends a lifecycle event for audit trail
	AddEvent(ctx context.Context, event *Event) error

	// GetEvents retrieves events for an entry, oldest first
	GetEvents(ctx context.Context, entryID uuid.UUID) ([]*Event, error)

	// History retrieves completed entries (excluding agent fee side-entries)
	// where the account participated, newest first, with a total count
	History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, int, error)

	// CreateFeeRecord links a cash-out entry to its fee entry
	CreateFeeRecord(ctx context.Context, rec *AgentFeeRecord) error

	// CreateTopup records an agent-originated deposit for a cash-in entry
	CreateTopup(ctx context.Context, t *Topup) error
}
