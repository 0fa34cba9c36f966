package account

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for account persistence
type Repository interface {
	// Create creates a new account
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// GetByOwner retrieves the wallet account owned by the given user
	GetByOwner(ctx context.Context, ownerID string) (*Account, error)

	// GetByPhone resolves a counterparty lookup key to an account
	GetByPhone(ctx context.Context, phone string) (*Account, error)

	// UpdateBalance persists the account balance and updated_at
	UpdateBalance(ctx context.Context, account *Account) error

	// Lock locks an account row for update (SELECT FOR UPDATE)
	Lock(ctx context.Context, id uuid.UUID) (*Account, error)
}
