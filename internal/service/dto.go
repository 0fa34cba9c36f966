package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rahatc/paydesh/internal/domain/ledger"
)

// --- Inputs ---

// TransferInput holds the input for a peer-to-peer transfer.
type TransferInput struct {
	ActorOwnerID string
	ToPhone      string
	Amount       int64 // in cents
	PIN          string
}

// CashInInput holds the input for an agent crediting a customer wallet.
type CashInInput struct {
	AgentOwnerID string
	UserPhone    string
	Amount       int64 // in cents
	PIN          string
}

// CashOutInput holds the input for a customer withdrawing via an agent.
type CashOutInput struct {
	ActorOwnerID string
	AgentPhone   string
	Amount       int64 // in cents
	PIN          string
}

// RequestMoneyInput holds the input for issuing a money request.
type RequestMoneyInput struct {
	RequesterOwnerID string
	PayerPhone       string
	Amount           int64 // in cents
	Note             string
}

// ApproveRequestInput holds the input for paying a money request.
type ApproveRequestInput struct {
	RequestID    uuid.UUID
	PayerOwnerID string
	PIN          string
}

// --- Results ---

// TransferResult is the success result of a transfer.
type TransferResult struct {
	CorrelationRef   string
	NewBalance       int64 // actor balance in cents
	CounterpartyName string
	Timestamp        time.Time
}

// CashInResult is the success result of a cash-in.
type CashInResult struct {
	CorrelationRef  string
	NewAgentBalance int64 // in cents
	Timestamp       time.Time
}

// CashOutResult is the success result of a cash-out.
type CashOutResult struct {
	CorrelationRef string
	Fee            int64 // in cents
	TotalDebited   int64 // in cents
	NewBalance     int64 // in cents
	Timestamp      time.Time
}

// RequestMoneyResult is the success result of issuing a money request.
type RequestMoneyResult struct {
	RequestID uuid.UUID
	ExpiresAt time.Time
}

// ApproveRequestResult is the success result of paying a money request.
type ApproveRequestResult struct {
	CorrelationRef string
	Amount         int64 // in cents
	Timestamp      time.Time
}

// HistoryResult is a page of completed ledger entries.
type HistoryResult struct {
	Entries  []*ledger.Entry
	Total    int
	Page     int
	PageSize int
}

// DetailResult is one entry plus its ordered event log.
type DetailResult struct {
	Entry  *ledger.Entry
	Events []*ledger.Event
}

// amountString renders cents as a human-readable decimal for notifications.
func amountString(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
