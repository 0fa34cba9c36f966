package request

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for money request persistence
type Repository interface {
	// Create inserts a new money request
	Create(ctx context.Context, req *MoneyRequest) error

	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, id uuid.UUID) (*MoneyRequest, error)

	// Lock locks a request row for update (SELECT FOR UPDATE)
	Lock(ctx context.Context, id uuid.UUID) (*MoneyRequest, error)

	// MarkPaid sets status=paid and the resolving ledger entry, guarded on
	// the row still being in requested state
	MarkPaid(ctx context.Context, id uuid.UUID, entryID uuid.UUID) error

	// UpdateStatus is a conditional transition from requested to the given
	// terminal status; it reports whether a row was updated
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)

	// ListForAccount retrieves requests where the account is requester or payer
	ListForAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*MoneyRequest, error)
}
