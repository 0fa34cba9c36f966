package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/rahatc/paydesh/internal/domain/account"
	"github.com/rahatc/paydesh/internal/domain/ledger"
	"github.com/rahatc/paydesh/internal/domain/request"
)

// NewTestAccount builds an active standard wallet. The pin hash holds the
// plaintext pin, matching PlainVerifier.
func NewTestAccount(ownerID, ownerName, phone, pin string, balanceCents int64) *account.Account {
	now := time.Now()
	return &account.Account{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		OwnerName: ownerName,
		Phone:     phone,
		Category:  account.CategoryStandard,
		PINHash:   pin,
		Balance:   balanceCents,
		Status:    account.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewTestAgent builds an active agent wallet.
func NewTestAgent(ownerID, ownerName, phone, pin string, balanceCents int64) *account.Account {
	a := NewTestAccount(ownerID, ownerName, phone, pin, balanceCents)
	a.Category = account.CategoryAgent
	return a
}

// NewCompletedEntry builds a completed ledger entry created at the given time.
func NewCompletedEntry(from, to uuid.UUID, amountCents int64, kind ledger.Kind, at time.Time) *ledger.Entry {
	return &ledger.Entry{
		ID:            uuid.New(),
		FromAccount:   from,
		ToAccount:     to,
		Amount:        amountCents,
		Kind:          kind,
		Status:        ledger.StatusCompleted,
		CorrelationID: ledger.NewCorrelationID(),
		CreatedAt:     at,
	}
}

// NewTestRequest builds a pending money request expiring after ttl.
func NewTestRequest(requester, payer uuid.UUID, amountCents int64, ttl time.Duration) *request.MoneyRequest {
	now := time.Now()
	return &request.MoneyRequest{
		ID:               uuid.New(),
		RequesterAccount: requester,
		PayerAccount:     payer,
		Amount:           amountCents,
		Status:           request.StatusRequested,
		ExpiresAt:        now.Add(ttl),
		CreatedAt:        now,
	}
}

// UUIDPtr returns a pointer to the given id.
func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}
