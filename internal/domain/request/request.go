package request

import (
	"time"

	"github.com/google/uuid"
	"github.com/rahatc/paydesh/internal/domain/errors"
)

// Status is the state of a money request. A request reaches exactly one
// terminal status; requested -> {paid, declined, cancelled, expired}.
type Status string

const (
	StatusRequested Status = "requested"
	StatusPaid      Status = "paid"
	StatusDeclined  Status = "declined"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// MoneyRequest is a pending ask for payment from one account to another.
type MoneyRequest struct {
	ID               uuid.UUID
	RequesterAccount uuid.UUID
	PayerAccount     uuid.UUID
	Amount           int64 // in cents
	Note             string
	Status           Status
	ExpiresAt        time.Time
	ResolvedEntryID  *uuid.UUID // set when paid
	CreatedAt        time.Time
}

// NewMoneyRequest creates a requested-state money request.
func NewMoneyRequest(requester, payer uuid.UUID, amount int64, note string, ttl time.Duration) (*MoneyRequest, error) {
	if amount <= 0 {
		return nil, errors.NewValidationError("amount", "must be greater than 0")
	}
	if requester == payer {
		return nil, errors.ErrSelfRequest
	}
	now := time.Now()
	return &MoneyRequest{
		ID:               uuid.New(),
		RequesterAccount: requester,
		PayerAccount:     payer,
		Amount:           amount,
		Note:             note,
		Status:           StatusRequested,
		ExpiresAt:        now.Add(ttl),
		CreatedAt:        now,
	}, nil
}

// Expired reports whether the request passed its expiry. Expiry is checked
// lazily at approval time; there is no background sweep.
func (r *MoneyRequest) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Resolved reports whether the request reached a terminal status.
func (r *MoneyRequest) Resolved() bool {
	return r.Status != StatusRequested
}

// MarkPaid transitions the request to paid, recording the ledger entry that
// settled it.
func (r *MoneyRequest) MarkPaid(entryID uuid.UUID) error {
	if r.Resolved() {
		return errors.ErrAlreadyResolved
	}
	r.Status = StatusPaid
	r.ResolvedEntryID = &entryID
	return nil
}
