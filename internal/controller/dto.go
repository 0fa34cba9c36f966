package controller

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/rahatc/paydesh/internal/domain/account"
	"github.com/rahatc/paydesh/internal/domain/ledger"
	"github.com/rahatc/paydesh/internal/domain/notification"
	"github.com/rahatc/paydesh/internal/domain/request"
)

// --- Request DTOs ---
// These DTOs handle HTTP/JSON concerns (float64 for money, string for IDs,
// validation tags). Controllers convert these to service layer DTOs before
// calling business logic.

// CreateAccountRequest holds the input for provisioning a wallet.
type CreateAccountRequest struct {
	OwnerName string `json:"owner_name" validate:"required"`
	Phone     string `json:"phone" validate:"required,e164"`
	PIN       string `json:"pin" validate:"required,len=4,numeric"`
	Category  string `json:"category" validate:"required,oneof=standard agent"`
}

// TransferRequest holds the input for a peer-to-peer transfer.
type TransferRequest struct {
	ToPhone string  `json:"to_phone" validate:"required,e164"`
	Amount  float64 `json:"amount" validate:"required,gt=0"`
	PIN     string  `json:"pin" validate:"required"`
}

// CashInRequest holds the input for an agent crediting a customer wallet.
type CashInRequest struct {
	UserPhone string  `json:"user_phone" validate:"required,e164"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	PIN       string  `json:"pin" validate:"required"`
}

// CashOutRequest holds the input for withdrawing via an agent.
type CashOutRequest struct {
	AgentPhone string  `json:"agent_phone" validate:"required,e164"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	PIN        string  `json:"pin" validate:"required"`
}

// CreateMoneyRequestRequest holds the input for issuing a money request.
type CreateMoneyRequestRequest struct {
	PayerPhone string  `json:"payer_phone" validate:"required,e164"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	Note       string  `json:"note" validate:"max=140"`
}

// ApproveMoneyRequestRequest holds the input for paying a money request.
type ApproveMoneyRequestRequest struct {
	PIN string `json:"pin" validate:"required"`
}

// --- Response DTOs ---

// AccountResponse represents a wallet in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	OwnerName string    `json:"owner_name"`
	Phone     string    `json:"phone"`
	Category  string    `json:"category"`
	Balance   float64   `json:"balance"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// BalanceResponse represents the caller's wallet balance.
type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

// TransferResponse is the success body of a transfer.
type TransferResponse struct {
	Reference    string    `json:"reference"`
	NewBalance   float64   `json:"new_balance"`
	Counterparty string    `json:"counterparty"`
	Timestamp    time.Time `json:"timestamp"`
}

// CashInResponse is the success body of a cash-in.
type CashInResponse struct {
	Reference       string    `json:"reference"`
	NewAgentBalance float64   `json:"new_agent_balance"`
	Timestamp       time.Time `json:"timestamp"`
}

// CashOutResponse is the success body of a cash-out.
type CashOutResponse struct {
	Reference    string    `json:"reference"`
	Fee          float64   `json:"fee"`
	TotalDebited float64   `json:"total_debited"`
	NewBalance   float64   `json:"new_balance"`
	Timestamp    time.Time `json:"timestamp"`
}

// MoneyRequestResponse represents a money request.
type MoneyRequestResponse struct {
	ID               string    `json:"id"`
	RequesterAccount string    `json:"requester_account"`
	PayerAccount     string    `json:"payer_account"`
	Amount           float64   `json:"amount"`
	Note             string    `json:"note,omitempty"`
	Status           string    `json:"status"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// ApproveResponse is the success body of paying a money request.
type ApproveResponse struct {
	Reference string    `json:"reference"`
	Amount    float64   `json:"amount"`
	Timestamp time.Time `json:"timestamp"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID          string    `json:"id"`
	FromAccount string    `json:"from_account"`
	ToAccount   string    `json:"to_account"`
	Amount      float64   `json:"amount"`
	Kind        string    `json:"kind"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference"`
	CreatedAt   time.Time `json:"created_at"`
}

// EventResponse represents one lifecycle event.
type EventResponse struct {
	Kind      string    `json:"kind"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse is a page of completed entries.
type HistoryResponse struct {
	Entries  []*EntryResponse `json:"entries"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// DetailResponse is one entry plus its event log.
type DetailResponse struct {
	Entry  *EntryResponse   `json:"entry"`
	Events []*EventResponse `json:"events"`
}

// NotificationResponse represents a stored notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// --- Conversion helpers ---

// FromAccount converts a domain account to API response. The PIN hash never
// leaves the service.
func FromAccount(a *account.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID.String(),
		OwnerID:   a.OwnerID,
		OwnerName: a.OwnerName,
		Phone:     a.Phone,
		Category:  string(a.Category),
		Balance:   centsToFloat(a.Balance),
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt,
	}
}

// FromEntry converts a ledger entry to API response.
func FromEntry(e *ledger.Entry) *EntryResponse {
	return &EntryResponse{
		ID:          e.ID.String(),
		FromAccount: e.FromAccount.String(),
		ToAccount:   e.ToAccount.String(),
		Amount:      centsToFloat(e.Amount),
		Kind:        string(e.Kind),
		Status:      string(e.Status),
		Reference:   e.CorrelationID,
		CreatedAt:   e.CreatedAt,
	}
}

// FromEvent converts a ledger event to API response.
func FromEvent(ev *ledger.Event) *EventResponse {
	return &EventResponse{
		Kind:      ev.Kind,
		Outcome:   ev.Outcome,
		Detail:    ev.Detail,
		CreatedAt: ev.CreatedAt,
	}
}

// FromMoneyRequest converts a money request to API response.
func FromMoneyRequest(r *request.MoneyRequest) *MoneyRequestResponse {
	return &MoneyRequestResponse{
		ID:               r.ID.String(),
		RequesterAccount: r.RequesterAccount.String(),
		PayerAccount:     r.PayerAccount.String(),
		Amount:           centsToFloat(r.Amount),
		Note:             r.Note,
		Status:           string(r.Status),
		ExpiresAt:        r.ExpiresAt,
		CreatedAt:        r.CreatedAt,
	}
}

// FromNotification converts a notification to API response.
func FromNotification(n *notification.Notification) *NotificationResponse {
	return &NotificationResponse{
		ID:        n.ID.String(),
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

// floatToCents converts a float amount to cents.
func floatToCents(f float64) int64 {
	return int64(math.Round(f * 100))
}

// centsToFloat converts cents to a float amount.
func centsToFloat(cents int64) float64 {
	return float64(cents) / 100.0
}

// parseUUID parses a UUID string, returning nil if invalid.
func parseUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
