package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahatc/paydesh/internal/domain/account"
	domainErrors "github.com/rahatc/paydesh/internal/domain/errors"
	"github.com/rahatc/paydesh/internal/domain/ledger"
	"github.com/rahatc/paydesh/internal/domain/request"
	"github.com/rahatc/paydesh/internal/testutil"
)

// --- Test Helpers ---

func setupTransferService() (*TransferService, *testutil.MockAccountRepository, *testutil.MockLedgerRepository, *testutil.MockRequestRepository, *testutil.MockNotifier) {
	accountRepo := testutil.NewMockAccountRepository()
	ledgerRepo := testutil.NewMockLedgerRepository()
	requestRepo := testutil.NewMockRequestRepository()
	notifier := &testutil.MockNotifier{}

	svc := NewTransferService(
		accountRepo,
		ledgerRepo,
		requestRepo,
		&testutil.MockTransactionManager{},
		testutil.PlainVerifier{},
		notifier,
		zerolog.Nop(),
		DefaultLedgerConfig(),
	)
	return svc, accountRepo, ledgerRepo, requestRepo, notifier
}

func eventKinds(events []*ledger.Event) []string {
	kinds := make([]string, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

// --- Transfer Tests ---

func TestTransfer_Success(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, notifier := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	receiver := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 5000)
	accountRepo.Seed(sender)
	accountRepo.Seed(receiver)

	res, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801722222222",
		Amount:       25000,
		PIN:          "1234",
	})
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, int64(75000), sender.Balance)
	assert.Equal(t, int64(30000), receiver.Balance)
	assert.Equal(t, int64(75000), res.NewBalance)
	assert.Equal(t, "Bob", res.CounterpartyName)
	assert.Contains(t, res.CorrelationRef, "TXN-")

	entries := ledgerRepo.Entries()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, ledger.StatusCompleted, entry.Status)
	assert.Equal(t, ledger.KindTransfer, entry.Kind)
	assert.Equal(t, sender.ID, entry.FromAccount)
	assert.Equal(t, receiver.ID, entry.ToAccount)

	kinds := eventKinds(ledgerRepo.Events(entry.ID))
	assert.Equal(t, []string{
		ledger.EventPINVerified,
		ledger.EventDebited,
		ledger.EventCredited,
		ledger.EventCompleted,
	}, kinds)

	sent := notifier.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "user1", sent[0].OwnerID)
	assert.Equal(t, "user2", sent[1].OwnerID)
}

func TestTransfer_InsufficientFunds_RecordsFailure(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 1000)
	receiver := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	accountRepo.Seed(sender)
	accountRepo.Seed(receiver)

	_, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801722222222",
		Amount:       5000,
		PIN:          "1234",
	})
	require.ErrorIs(t, err, domainErrors.ErrInsufficientFunds)

	// Balances untouched.
	assert.Equal(t, int64(1000), sender.Balance)
	assert.Equal(t, int64(0), receiver.Balance)

	// Insufficient funds is caught on the locked rows before the entry is
	// created, so no failure record exists for it.
	assert.Empty(t, ledgerRepo.Entries())
}

func TestTransfer_MidFlightFailure_RecordsFailedEntry(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, notifier := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	receiver := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	accountRepo.Seed(sender)
	accountRepo.Seed(receiver)

	// Fail the credit-side balance write, after the entry exists.
	writes := 0
	accountRepo.UpdateBalanceFunc = func(ctx context.Context, a *account.Account) error {
		writes++
		if writes == 2 {
			return assert.AnError
		}
		return nil
	}

	_, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801722222222",
		Amount:       5000,
		PIN:          "1234",
	})
	require.Error(t, err)

	entries := ledgerRepo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.StatusFailed, entries[0].Status)

	events := ledgerRepo.Events(entries[0].ID)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, ledger.EventFailed, last.Kind)
	assert.Equal(t, ledger.OutcomeFailure, last.Outcome)

	assert.Empty(t, notifier.Sent())
}

func TestTransfer_InvalidPIN(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	receiver := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	accountRepo.Seed(sender)
	accountRepo.Seed(receiver)

	_, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801722222222",
		Amount:       5000,
		PIN:          "9999",
	})
	require.ErrorIs(t, err, domainErrors.ErrInvalidPIN)
	assert.Empty(t, ledgerRepo.Entries())
}

func TestTransfer_SelfTransfer(t *testing.T) {
	svc, accountRepo, _, _, _ := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	accountRepo.Seed(sender)

	_, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801711111111",
		Amount:       5000,
		PIN:          "1234",
	})
	require.ErrorIs(t, err, domainErrors.ErrSelfTransfer)
}

func TestTransfer_CounterpartyNotFound(t *testing.T) {
	svc, accountRepo, _, _, _ := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	accountRepo.Seed(sender)

	_, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801700000000",
		Amount:       5000,
		PIN:          "1234",
	})
	require.ErrorIs(t, err, domainErrors.ErrCounterpartyNotFound)
}

func TestTransfer_InactiveCounterparty(t *testing.T) {
	svc, accountRepo, _, _, _ := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	receiver := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	receiver.Deactivate()
	accountRepo.Seed(sender)
	accountRepo.Seed(receiver)

	_, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801722222222",
		Amount:       5000,
		PIN:          "1234",
	})
	require.ErrorIs(t, err, domainErrors.ErrAccountInactive)
}

func TestTransfer_DuplicateWithinWindow(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	receiver := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	accountRepo.Seed(sender)
	accountRepo.Seed(receiver)

	prior := testutil.NewCompletedEntry(sender.ID, receiver.ID, 5000, ledger.KindTransfer, time.Now().Add(-10*time.Second))
	require.NoError(t, ledgerRepo.CreateEntry(ctx, prior))

	_, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801722222222",
		Amount:       5000,
		PIN:          "1234",
	})
	require.ErrorIs(t, err, domainErrors.ErrDuplicateAttempt)
	assert.Equal(t, int64(100000), sender.Balance)
}

func TestTransfer_DuplicateOutsideWindow_Allowed(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	receiver := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	accountRepo.Seed(sender)
	accountRepo.Seed(receiver)

	prior := testutil.NewCompletedEntry(sender.ID, receiver.ID, 5000, ledger.KindTransfer, time.Now().Add(-45*time.Second))
	require.NoError(t, ledgerRepo.CreateEntry(ctx, prior))

	_, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801722222222",
		Amount:       5000,
		PIN:          "1234",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(95000), sender.Balance)
}

func TestTransfer_LocksAccountsInAscendingOrder(t *testing.T) {
	svc, accountRepo, _, _, _ := setupTransferService()
	ctx := context.Background()

	sender := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	receiver := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	accountRepo.Seed(sender)
	accountRepo.Seed(receiver)

	_, err := svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801722222222",
		Amount:       5000,
		PIN:          "1234",
	})
	require.NoError(t, err)

	require.Len(t, accountRepo.LockOrder, 2)
	assert.Less(t, accountRepo.LockOrder[0].String(), accountRepo.LockOrder[1].String())

	// Reverse direction locks in the same order.
	accountRepo.LockOrder = nil
	_, err = svc.Transfer(ctx, TransferInput{
		ActorOwnerID: "user2",
		ToPhone:      "+8801711111111",
		Amount:       3000,
		PIN:          "5678",
	})
	require.NoError(t, err)
	require.Len(t, accountRepo.LockOrder, 2)
	assert.Less(t, accountRepo.LockOrder[0].String(), accountRepo.LockOrder[1].String())
}

func TestTransfer_NonPositiveAmount(t *testing.T) {
	svc, _, _, _, _ := setupTransferService()

	_, err := svc.Transfer(context.Background(), TransferInput{
		ActorOwnerID: "user1",
		ToPhone:      "+8801722222222",
		Amount:       0,
		PIN:          "1234",
	})
	require.Error(t, err)
	var ve *domainErrors.ValidationError
	assert.ErrorAs(t, err, &ve)
}

// --- CashIn Tests ---

func TestCashIn_Success(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, notifier := setupTransferService()
	ctx := context.Background()

	agent := testutil.NewTestAgent("agent1", "Agent Karim", "+8801733333333", "0000", 500000)
	user := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 1000)
	accountRepo.Seed(agent)
	accountRepo.Seed(user)

	res, err := svc.CashIn(ctx, CashInInput{
		AgentOwnerID: "agent1",
		UserPhone:    "+8801711111111",
		Amount:       20000,
		PIN:          "0000",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(480000), agent.Balance)
	assert.Equal(t, int64(21000), user.Balance)
	assert.Equal(t, int64(480000), res.NewAgentBalance)

	entries := ledgerRepo.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, ledger.KindCashIn, entries[0].Kind)
	assert.Equal(t, ledger.StatusCompleted, entries[0].Status)

	topups := ledgerRepo.Topups()
	require.Len(t, topups, 1)
	assert.Equal(t, entries[0].ID, topups[0].EntryID)
	assert.Equal(t, agent.ID, topups[0].AgentAccountID)
	assert.Equal(t, int64(20000), topups[0].Amount)

	require.Len(t, notifier.Sent(), 1)
	assert.Equal(t, "user1", notifier.Sent()[0].OwnerID)
}

func TestCashIn_NotAnAgent(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := setupTransferService()
	ctx := context.Background()

	notAgent := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 500000)
	user := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	accountRepo.Seed(notAgent)
	accountRepo.Seed(user)

	_, err := svc.CashIn(ctx, CashInInput{
		AgentOwnerID: "user1",
		UserPhone:    "+8801722222222",
		Amount:       20000,
		PIN:          "1234",
	})
	require.ErrorIs(t, err, domainErrors.ErrNotAnAgent)
	assert.Empty(t, ledgerRepo.Entries())
}

func TestCashIn_AgentInsufficientFloat(t *testing.T) {
	svc, accountRepo, _, _, _ := setupTransferService()
	ctx := context.Background()

	agent := testutil.NewTestAgent("agent1", "Agent Karim", "+8801733333333", "0000", 10000)
	user := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	accountRepo.Seed(agent)
	accountRepo.Seed(user)

	_, err := svc.CashIn(ctx, CashInInput{
		AgentOwnerID: "agent1",
		UserPhone:    "+8801711111111",
		Amount:       20000,
		PIN:          "0000",
	})
	require.ErrorIs(t, err, domainErrors.ErrInsufficientFunds)
	assert.Equal(t, int64(10000), agent.Balance)
}

// --- CashOut Tests ---

func TestCashOut_Success_FeeDebitedOnTop(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, notifier := setupTransferService()
	ctx := context.Background()

	user := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	agent := testutil.NewTestAgent("agent1", "Agent Karim", "+8801733333333", "0000", 50000)
	accountRepo.Seed(user)
	accountRepo.Seed(agent)

	res, err := svc.CashOut(ctx, CashOutInput{
		ActorOwnerID: "user1",
		AgentPhone:   "+8801733333333",
		Amount:       10000,
		PIN:          "1234",
	})
	require.NoError(t, err)

	// fee = 1.5% of 10000 = 150
	assert.Equal(t, int64(150), res.Fee)
	assert.Equal(t, int64(10150), res.TotalDebited)
	assert.Equal(t, int64(89850), user.Balance)
	assert.Equal(t, int64(89850), res.NewBalance)
	// Agent receives principal plus fee.
	assert.Equal(t, int64(60150), agent.Balance)

	entries := ledgerRepo.Entries()
	require.Len(t, entries, 2)
	var primary, feeEntry *ledger.Entry
	for _, e := range entries {
		switch e.Kind {
		case ledger.KindCashOut:
			primary = e
		case ledger.KindAgentFee:
			feeEntry = e
		}
	}
	require.NotNil(t, primary)
	require.NotNil(t, feeEntry)
	assert.Equal(t, ledger.StatusCompleted, primary.Status)
	assert.Equal(t, ledger.StatusCompleted, feeEntry.Status)
	assert.Equal(t, int64(150), feeEntry.Amount)

	fees := ledgerRepo.FeeRecords()
	require.Len(t, fees, 1)
	assert.Equal(t, primary.ID, fees[0].CashOutEntryID)
	assert.Equal(t, feeEntry.ID, fees[0].FeeEntryID)
	assert.Equal(t, int64(150), fees[0].FeeAmount)

	assert.Len(t, notifier.Sent(), 2)
}

func TestCashOut_FeeRoundsHalfUp(t *testing.T) {
	svc, accountRepo, _, _, _ := setupTransferService()
	ctx := context.Background()

	user := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	agent := testutil.NewTestAgent("agent1", "Agent Karim", "+8801733333333", "0000", 0)
	accountRepo.Seed(user)
	accountRepo.Seed(agent)

	// 1.5% of 3333 = 49.995, rounds to 50.
	res, err := svc.CashOut(ctx, CashOutInput{
		ActorOwnerID: "user1",
		AgentPhone:   "+8801733333333",
		Amount:       3333,
		PIN:          "1234",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), res.Fee)
	assert.Equal(t, int64(3383), res.TotalDebited)
}

func TestCashOut_InsufficientForFee(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := setupTransferService()
	ctx := context.Background()

	// Covers the principal but not the fee.
	user := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 10100)
	agent := testutil.NewTestAgent("agent1", "Agent Karim", "+8801733333333", "0000", 0)
	accountRepo.Seed(user)
	accountRepo.Seed(agent)

	_, err := svc.CashOut(ctx, CashOutInput{
		ActorOwnerID: "user1",
		AgentPhone:   "+8801733333333",
		Amount:       10000,
		PIN:          "1234",
	})
	require.ErrorIs(t, err, domainErrors.ErrInsufficientFundsForFee)
	assert.Equal(t, int64(10100), user.Balance)
	assert.Empty(t, ledgerRepo.Entries())
}

func TestCashOut_TargetNotAnAgent(t *testing.T) {
	svc, accountRepo, _, _, _ := setupTransferService()
	ctx := context.Background()

	user := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 100000)
	other := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	accountRepo.Seed(user)
	accountRepo.Seed(other)

	_, err := svc.CashOut(ctx, CashOutInput{
		ActorOwnerID: "user1",
		AgentPhone:   "+8801722222222",
		Amount:       10000,
		PIN:          "1234",
	})
	require.ErrorIs(t, err, domainErrors.ErrNotAnAgent)
}

// --- Money Request Tests ---

func TestRequestMoney_Success(t *testing.T) {
	svc, accountRepo, _, requestRepo, notifier := setupTransferService()
	ctx := context.Background()

	requester := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	payer := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 50000)
	accountRepo.Seed(requester)
	accountRepo.Seed(payer)

	res, err := svc.RequestMoney(ctx, RequestMoneyInput{
		RequesterOwnerID: "user1",
		PayerPhone:       "+8801722222222",
		Amount:           15000,
		Note:             "lunch",
	})
	require.NoError(t, err)

	stored, err := requestRepo.GetByID(ctx, res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusRequested, stored.Status)
	assert.Equal(t, requester.ID, stored.RequesterAccount)
	assert.Equal(t, payer.ID, stored.PayerAccount)
	assert.Equal(t, "lunch", stored.Note)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), stored.ExpiresAt, time.Minute)

	require.Len(t, notifier.Sent(), 1)
	assert.Equal(t, "user2", notifier.Sent()[0].OwnerID)
}

func TestRequestMoney_SelfRequest(t *testing.T) {
	svc, accountRepo, _, _, _ := setupTransferService()
	ctx := context.Background()

	requester := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	accountRepo.Seed(requester)

	_, err := svc.RequestMoney(ctx, RequestMoneyInput{
		RequesterOwnerID: "user1",
		PayerPhone:       "+8801711111111",
		Amount:           15000,
	})
	require.ErrorIs(t, err, domainErrors.ErrSelfRequest)
}

func TestApproveRequest_Success(t *testing.T) {
	svc, accountRepo, ledgerRepo, requestRepo, _ := setupTransferService()
	ctx := context.Background()

	requester := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	payer := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 50000)
	accountRepo.Seed(requester)
	accountRepo.Seed(payer)

	req := testutil.NewTestRequest(requester.ID, payer.ID, 15000, time.Hour)
	require.NoError(t, requestRepo.Create(ctx, req))

	res, err := svc.ApproveRequest(ctx, ApproveRequestInput{
		RequestID:    req.ID,
		PayerOwnerID: "user2",
		PIN:          "5678",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15000), res.Amount)

	assert.Equal(t, int64(35000), payer.Balance)
	assert.Equal(t, int64(15000), requester.Balance)

	stored, err := requestRepo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPaid, stored.Status)
	require.NotNil(t, stored.ResolvedEntryID)

	entry, err := ledgerRepo.GetByID(ctx, *stored.ResolvedEntryID)
	require.NoError(t, err)
	assert.Equal(t, ledger.KindRequestPayment, entry.Kind)
	assert.Equal(t, ledger.StatusCompleted, entry.Status)
}

func TestApproveRequest_NotThePayer(t *testing.T) {
	svc, accountRepo, _, requestRepo, _ := setupTransferService()
	ctx := context.Background()

	requester := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	payer := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 50000)
	outsider := testutil.NewTestAccount("user3", "Carol", "+8801744444444", "9999", 50000)
	accountRepo.Seed(requester)
	accountRepo.Seed(payer)
	accountRepo.Seed(outsider)

	req := testutil.NewTestRequest(requester.ID, payer.ID, 15000, time.Hour)
	require.NoError(t, requestRepo.Create(ctx, req))

	_, err := svc.ApproveRequest(ctx, ApproveRequestInput{
		RequestID:    req.ID,
		PayerOwnerID: "user3",
		PIN:          "9999",
	})
	require.ErrorIs(t, err, domainErrors.ErrNotAuthorized)
}

func TestApproveRequest_Expired(t *testing.T) {
	svc, accountRepo, _, requestRepo, _ := setupTransferService()
	ctx := context.Background()

	requester := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	payer := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 50000)
	accountRepo.Seed(requester)
	accountRepo.Seed(payer)

	req := testutil.NewTestRequest(requester.ID, payer.ID, 15000, -time.Hour)
	require.NoError(t, requestRepo.Create(ctx, req))

	_, err := svc.ApproveRequest(ctx, ApproveRequestInput{
		RequestID:    req.ID,
		PayerOwnerID: "user2",
		PIN:          "5678",
	})
	require.ErrorIs(t, err, domainErrors.ErrRequestExpired)

	// The row itself stays requested; expiry is lazy.
	stored, err := requestRepo.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusRequested, stored.Status)
	assert.Equal(t, int64(50000), payer.Balance)
}

func TestApproveRequest_AlreadyResolved(t *testing.T) {
	svc, accountRepo, _, requestRepo, _ := setupTransferService()
	ctx := context.Background()

	requester := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	payer := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 50000)
	accountRepo.Seed(requester)
	accountRepo.Seed(payer)

	req := testutil.NewTestRequest(requester.ID, payer.ID, 15000, time.Hour)
	req.Status = request.StatusDeclined
	require.NoError(t, requestRepo.Create(ctx, req))

	_, err := svc.ApproveRequest(ctx, ApproveRequestInput{
		RequestID:    req.ID,
		PayerOwnerID: "user2",
		PIN:          "5678",
	})
	require.ErrorIs(t, err, domainErrors.ErrAlreadyResolved)
}

func TestDeclineRequest_OnlyPayer(t *testing.T) {
	svc, accountRepo, _, requestRepo, _ := setupTransferService()
	ctx := context.Background()

	requester := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	payer := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 50000)
	accountRepo.Seed(requester)
	accountRepo.Seed(payer)

	req := testutil.NewTestRequest(requester.ID, payer.ID, 15000, time.Hour)
	require.NoError(t, requestRepo.Create(ctx, req))

	// Requester cannot decline their own request.
	err := svc.DeclineRequest(ctx, req.ID, "user1")
	require.ErrorIs(t, err, domainErrors.ErrNotAuthorized)

	require.NoError(t, svc.DeclineRequest(ctx, req.ID, "user2"))
	stored, _ := requestRepo.GetByID(ctx, req.ID)
	assert.Equal(t, request.StatusDeclined, stored.Status)

	// Second decline hits the terminal status.
	err = svc.DeclineRequest(ctx, req.ID, "user2")
	require.ErrorIs(t, err, domainErrors.ErrAlreadyResolved)
}

func TestCancelRequest_OnlyRequester(t *testing.T) {
	svc, accountRepo, _, requestRepo, _ := setupTransferService()
	ctx := context.Background()

	requester := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	payer := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 50000)
	accountRepo.Seed(requester)
	accountRepo.Seed(payer)

	req := testutil.NewTestRequest(requester.ID, payer.ID, 15000, time.Hour)
	require.NoError(t, requestRepo.Create(ctx, req))

	err := svc.CancelRequest(ctx, req.ID, "user2")
	require.ErrorIs(t, err, domainErrors.ErrNotAuthorized)

	require.NoError(t, svc.CancelRequest(ctx, req.ID, "user1"))
	stored, _ := requestRepo.GetByID(ctx, req.ID)
	assert.Equal(t, request.StatusCancelled, stored.Status)
}

// --- Read Path Tests ---

func TestHistory_ReturnsParticipantEntries(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := setupTransferService()
	ctx := context.Background()

	owner := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	other := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	third := testutil.NewTestAccount("user3", "Carol", "+8801744444444", "9999", 0)
	accountRepo.Seed(owner)
	accountRepo.Seed(other)
	accountRepo.Seed(third)

	mine := testutil.NewCompletedEntry(owner.ID, other.ID, 1000, ledger.KindTransfer, time.Now().Add(-time.Hour))
	theirs := testutil.NewCompletedEntry(other.ID, third.ID, 2000, ledger.KindTransfer, time.Now().Add(-time.Hour))
	require.NoError(t, ledgerRepo.CreateEntry(ctx, mine))
	require.NoError(t, ledgerRepo.CreateEntry(ctx, theirs))

	res, err := svc.History(ctx, "user1", 1, 20)
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, mine.ID, res.Entries[0].ID)
	assert.Equal(t, 1, res.Total)
}

func TestDetail_NonParticipantGetsNotFound(t *testing.T) {
	svc, accountRepo, ledgerRepo, _, _ := setupTransferService()
	ctx := context.Background()

	a := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	b := testutil.NewTestAccount("user2", "Bob", "+8801722222222", "5678", 0)
	outsider := testutil.NewTestAccount("user3", "Carol", "+8801744444444", "9999", 0)
	accountRepo.Seed(a)
	accountRepo.Seed(b)
	accountRepo.Seed(outsider)

	entry := testutil.NewCompletedEntry(a.ID, b.ID, 1000, ledger.KindTransfer, time.Now())
	require.NoError(t, ledgerRepo.CreateEntry(ctx, entry))

	_, err := svc.Detail(ctx, entry.ID, "user3")
	require.ErrorIs(t, err, domainErrors.ErrEntryNotFound)

	// Participant sees the entry and its events.
	require.NoError(t, ledgerRepo.AddEvent(ctx, ledger.NewEvent(entry.ID, ledger.EventCompleted, ledger.OutcomeSuccess, "")))
	res, err := svc.Detail(ctx, entry.ID, "user1")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, res.Entry.ID)
	assert.Len(t, res.Events, 1)
}

func TestDetail_UnknownEntry(t *testing.T) {
	svc, accountRepo, _, _, _ := setupTransferService()
	ctx := context.Background()

	a := testutil.NewTestAccount("user1", "Alice", "+8801711111111", "1234", 0)
	accountRepo.Seed(a)

	_, err := svc.Detail(ctx, uuid.New(), "user1")
	require.ErrorIs(t, err, domainErrors.ErrEntryNotFound)
}
