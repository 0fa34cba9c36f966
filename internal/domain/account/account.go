package account

import (
	"time"

	"github.com/google/uuid"
	"github.com/rahatc/paydesh/internal/domain/errors"
)

// Category distinguishes customer wallets from agent float wallets.
type Category string

const (
	CategoryStandard Category = "standard"
	CategoryAgent    Category = "agent"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// Account is a balance-holding wallet owned by exactly one person.
// The balance is only ever mutated by the transfer engine under a row lock.
type Account struct {
	ID        uuid.UUID
	OwnerID   string
	OwnerName string
	Phone     string // counterparty lookup key
	Category  Category
	PINHash   string
	Balance   int64 // in cents
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewAccount(ownerID, ownerName, phone, pinHash string, category Category) (*Account, error) {
	if ownerID == "" {
		return nil, errors.NewValidationError("owner_id", "cannot be empty")
	}
	if phone == "" {
		return nil, errors.NewValidationError("phone", "cannot be empty")
	}
	if pinHash == "" {
		return nil, errors.NewValidationError("pin_hash", "cannot be empty")
	}
	if category != CategoryStandard && category != CategoryAgent {
		return nil, errors.NewValidationError("category", "must be standard or agent")
	}

	now := time.Now()
	return &Account{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		OwnerName: ownerName,
		Phone:     phone,
		Category:  category,
		PINHash:   pinHash,
		Balance:   0,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsAgent reports whether the account may originate cash-in operations.
func (a *Account) IsAgent() bool {
	return a.Category == CategoryAgent
}

func (a *Account) Debit(amount int64) error {
	if a.Status != StatusActive {
		return errors.ErrAccountInactive
	}
	if amount <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}
	if a.Balance < amount {
		return errors.ErrInsufficientFunds
	}

	a.Balance -= amount
	a.UpdatedAt = time.Now()
	return nil
}

func (a *Account) Credit(amount int64) error {
	if a.Status != StatusActive {
		return errors.ErrAccountInactive
	}
	if amount <= 0 {
		return errors.NewValidationError("amount", "must be greater than 0")
	}

	a.Balance += amount
	a.UpdatedAt = time.Now()
	return nil
}

func (a *Account) Deactivate() {
	a.Status = StatusInactive
	a.UpdatedAt = time.Now()
}

func (a *Account) Activate() {
	a.Status = StatusActive
	a.UpdatedAt = time.Now()
}
