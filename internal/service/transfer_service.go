package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rahatc/paydesh/internal/domain/account"
	domainErrors "github.com/rahatc/paydesh/internal/domain/errors"
	"github.com/rahatc/paydesh/internal/domain/ledger"
	"github.com/rahatc/paydesh/internal/domain/request"
)

// LedgerConfig holds the engine's tunable policy knobs.
type LedgerConfig struct {
	// DuplicateWindow is the trailing window within which a completed entry
	// with the same (from, to, amount) tuple suppresses a new attempt.
	DuplicateWindow time.Duration
	// CashOutFeeBasisPoints is the agent fee on cash-out (150 = 1.5%).
	CashOutFeeBasisPoints int64
	// RequestTTL is how long a money request stays approvable.
	RequestTTL time.Duration
}

// DefaultLedgerConfig returns the production policy values.
func DefaultLedgerConfig() LedgerConfig {
	return LedgerConfig{
		DuplicateWindow:       30 * time.Second,
		CashOutFeeBasisPoints: 150,
		RequestTTL:            7 * 24 * time.Hour,
	}
}

// TransferService is the ledger transfer engine. It is the only writer of
// account balances; every balance mutation happens inside one database
// transaction with the participant rows locked, and every attempt leaves an
// event-logged ledger entry behind.
type TransferService struct {
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	requestRepo request.Repository
	txManager   TransactionManager
	secrets     SecretVerifier
	notifier    Notifier
	logger      zerolog.Logger
	cfg         LedgerConfig
}

// NewTransferService creates a new TransferService.
func NewTransferService(
	accountRepo account.Repository,
	ledgerRepo ledger.Repository,
	requestRepo request.Repository,
	txManager TransactionManager,
	secrets SecretVerifier,
	notifier Notifier,
	logger zerolog.Logger,
	cfg LedgerConfig,
) *TransferService {
	return &TransferService{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		requestRepo: requestRepo,
		txManager:   txManager,
		secrets:     secrets,
		notifier:    notifier,
		logger:      logger,
		cfg:         cfg,
	}
}

// Transfer moves money from the actor's wallet to the wallet resolved by
// the counterparty phone number.
func (s *TransferService) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	if in.Amount <= 0 {
		return nil, domainErrors.NewValidationError("amount", "must be greater than 0")
	}

	var (
		result *TransferResult
		entry  *ledger.Entry
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		actor, err := s.resolveActor(txCtx, in.ActorOwnerID)
		if err != nil {
			return err
		}
		if !s.secrets.Verify(actor.PINHash, in.PIN) {
			return domainErrors.ErrInvalidPIN
		}
		counterparty, err := s.resolveCounterparty(txCtx, in.ToPhone)
		if err != nil {
			return err
		}
		if counterparty.ID == actor.ID {
			return domainErrors.ErrSelfTransfer
		}

		actor, counterparty, err = s.lockPair(txCtx, actor.ID, counterparty.ID)
		if err != nil {
			return err
		}
		if actor.Balance < in.Amount {
			return domainErrors.ErrInsufficientFunds
		}
		if err := s.checkDuplicate(txCtx, actor.ID, counterparty.ID, in.Amount); err != nil {
			return err
		}

		entry, err = ledger.NewEntry(actor.ID, counterparty.ID, in.Amount, ledger.KindTransfer)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.CreateEntry(txCtx, entry); err != nil {
			return err
		}
		if err := s.ledgerRepo.AddEvent(txCtx, ledger.NewEvent(entry.ID, ledger.EventPINVerified, ledger.OutcomeSuccess, "")); err != nil {
			return err
		}

		if err := s.applyDebit(txCtx, actor, entry, in.Amount); err != nil {
			return err
		}
		if err := s.applyCredit(txCtx, counterparty, entry, in.Amount); err != nil {
			return err
		}
		if err := s.complete(txCtx, entry, fmt.Sprintf("money sent to %s", counterparty.OwnerName)); err != nil {
			return err
		}

		result = &TransferResult{
			CorrelationRef:   entry.CorrelationID,
			NewBalance:       actor.Balance,
			CounterpartyName: counterparty.OwnerName,
			Timestamp:        entry.CreatedAt,
		}

		s.notifier.Notify(ctx, in.ActorOwnerID,
			fmt.Sprintf("You sent %s to %s", amountString(in.Amount), counterparty.OwnerName))
		s.notifier.Notify(ctx, counterparty.OwnerID,
			fmt.Sprintf("You received %s from %s", amountString(in.Amount), actor.OwnerName))
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, entry, err)
		return nil, err
	}
	return result, nil
}

// CashIn credits a customer wallet from an agent's float. The actor must
// hold an agent-category account.
func (s *TransferService) CashIn(ctx context.Context, in CashInInput) (*CashInResult, error) {
	if in.Amount <= 0 {
		return nil, domainErrors.NewValidationError("amount", "must be greater than 0")
	}

	var (
		result *CashInResult
		entry  *ledger.Entry
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		agent, err := s.resolveActor(txCtx, in.AgentOwnerID)
		if err != nil {
			return err
		}
		if !agent.IsAgent() {
			return domainErrors.ErrNotAnAgent
		}
		if !s.secrets.Verify(agent.PINHash, in.PIN) {
			return domainErrors.ErrInvalidPIN
		}
		target, err := s.resolveCounterparty(txCtx, in.UserPhone)
		if err != nil {
			return err
		}
		if target.ID == agent.ID {
			return domainErrors.ErrSelfTransfer
		}

		agent, target, err = s.lockPair(txCtx, agent.ID, target.ID)
		if err != nil {
			return err
		}
		if agent.Balance < in.Amount {
			return domainErrors.ErrInsufficientFunds
		}
		if err := s.checkDuplicate(txCtx, agent.ID, target.ID, in.Amount); err != nil {
			return err
		}

		entry, err = ledger.NewEntry(agent.ID, target.ID, in.Amount, ledger.KindCashIn)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.CreateEntry(txCtx, entry); err != nil {
			return err
		}
		if err := s.ledgerRepo.AddEvent(txCtx, ledger.NewEvent(entry.ID, ledger.EventPINVerified, ledger.OutcomeSuccess, "")); err != nil {
			return err
		}

		if err := s.applyDebit(txCtx, agent, entry, in.Amount); err != nil {
			return err
		}
		if err := s.applyCredit(txCtx, target, entry, in.Amount); err != nil {
			return err
		}

		// Agent-originated deposit record; no external payment-method id.
		topup := &ledger.Topup{
			ID:             uuid.New(),
			EntryID:        entry.ID,
			AgentAccountID: agent.ID,
			Amount:         in.Amount,
			CreatedAt:      entry.CreatedAt,
		}
		if err := s.ledgerRepo.CreateTopup(txCtx, topup); err != nil {
			return err
		}
		if err := s.complete(txCtx, entry, fmt.Sprintf("cash in for %s", target.OwnerName)); err != nil {
			return err
		}

		result = &CashInResult{
			CorrelationRef:  entry.CorrelationID,
			NewAgentBalance: agent.Balance,
			Timestamp:       entry.CreatedAt,
		}

		s.notifier.Notify(ctx, target.OwnerID,
			fmt.Sprintf("Cash in of %s by agent %s", amountString(in.Amount), agent.OwnerName))
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, entry, err)
		return nil, err
	}
	return result, nil
}

// CashOut withdraws money from the actor's wallet through an agent. The
// agent earns a fee of CashOutFeeBasisPoints on the amount, debited from
// the withdrawer on top of the principal and recorded as a separate
// agent_fee entry linked to the primary one.
func (s *TransferService) CashOut(ctx context.Context, in CashOutInput) (*CashOutResult, error) {
	if in.Amount <= 0 {
		return nil, domainErrors.NewValidationError("amount", "must be greater than 0")
	}

	var (
		result *CashOutResult
		entry  *ledger.Entry
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		actor, err := s.resolveActor(txCtx, in.ActorOwnerID)
		if err != nil {
			return err
		}
		if !s.secrets.Verify(actor.PINHash, in.PIN) {
			return domainErrors.ErrInvalidPIN
		}
		agent, err := s.resolveCounterparty(txCtx, in.AgentPhone)
		if err != nil {
			return err
		}
		if !agent.IsAgent() {
			return domainErrors.ErrNotAnAgent
		}
		if agent.ID == actor.ID {
			return domainErrors.ErrSelfTransfer
		}

		fee := s.cashOutFee(in.Amount)
		total := in.Amount + fee

		actor, agent, err = s.lockPair(txCtx, actor.ID, agent.ID)
		if err != nil {
			return err
		}
		if actor.Balance < in.Amount {
			return domainErrors.ErrInsufficientFunds
		}
		if actor.Balance < total {
			return domainErrors.ErrInsufficientFundsForFee
		}
		if err := s.checkDuplicate(txCtx, actor.ID, agent.ID, in.Amount); err != nil {
			return err
		}

		entry, err = ledger.NewEntry(actor.ID, agent.ID, in.Amount, ledger.KindCashOut)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.CreateEntry(txCtx, entry); err != nil {
			return err
		}
		if err := s.ledgerRepo.AddEvent(txCtx, ledger.NewEvent(entry.ID, ledger.EventPINVerified, ledger.OutcomeSuccess, "")); err != nil {
			return err
		}

		if err := s.applyDebit(txCtx, actor, entry, total); err != nil {
			return err
		}
		if err := s.applyCredit(txCtx, agent, entry, in.Amount); err != nil {
			return err
		}
		if err := s.complete(txCtx, entry, fmt.Sprintf("cash out via %s", agent.OwnerName)); err != nil {
			return err
		}

		// Fee leg: second, independently completed entry referencing the
		// primary one through the fee record.
		feeEntry, err := ledger.NewEntry(actor.ID, agent.ID, fee, ledger.KindAgentFee)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.CreateEntry(txCtx, feeEntry); err != nil {
			return err
		}
		if err := s.applyCredit(txCtx, agent, feeEntry, fee); err != nil {
			return err
		}
		if err := s.complete(txCtx, feeEntry, "agent fee"); err != nil {
			return err
		}
		feeRec := &ledger.AgentFeeRecord{
			ID:             uuid.New(),
			CashOutEntryID: entry.ID,
			FeeEntryID:     feeEntry.ID,
			FeeAmount:      fee,
			CreatedAt:      feeEntry.CreatedAt,
		}
		if err := s.ledgerRepo.CreateFeeRecord(txCtx, feeRec); err != nil {
			return err
		}

		result = &CashOutResult{
			CorrelationRef: entry.CorrelationID,
			Fee:            fee,
			TotalDebited:   total,
			NewBalance:     actor.Balance,
			Timestamp:      entry.CreatedAt,
		}

		s.notifier.Notify(ctx, in.ActorOwnerID,
			fmt.Sprintf("You cashed out %s (fee %s) via %s", amountString(in.Amount), amountString(fee), agent.OwnerName))
		s.notifier.Notify(ctx, agent.OwnerID,
			fmt.Sprintf("Cash out of %s paid, fee earned %s", amountString(in.Amount), amountString(fee)))
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, entry, err)
		return nil, err
	}
	return result, nil
}

// RequestMoney issues a money request addressed to the wallet behind the
// payer phone number. It has no balance effect.
func (s *TransferService) RequestMoney(ctx context.Context, in RequestMoneyInput) (*RequestMoneyResult, error) {
	if in.Amount <= 0 {
		return nil, domainErrors.NewValidationError("amount", "must be greater than 0")
	}

	requester, err := s.resolveActor(ctx, in.RequesterOwnerID)
	if err != nil {
		return nil, err
	}
	payer, err := s.resolveCounterparty(ctx, in.PayerPhone)
	if err != nil {
		return nil, err
	}
	if payer.ID == requester.ID {
		return nil, domainErrors.ErrSelfRequest
	}

	req, err := request.NewMoneyRequest(requester.ID, payer.ID, in.Amount, in.Note, s.cfg.RequestTTL)
	if err != nil {
		return nil, err
	}
	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, payer.OwnerID,
		fmt.Sprintf("%s requested %s from you", requester.OwnerName, amountString(in.Amount)))

	return &RequestMoneyResult{RequestID: req.ID, ExpiresAt: req.ExpiresAt}, nil
}

// ApproveRequest pays a pending money request. The addressed payer settles
// the requested amount through the same debit/credit/event sequence as a
// transfer, producing a request_payment entry and atomically resolving the
// request.
func (s *TransferService) ApproveRequest(ctx context.Context, in ApproveRequestInput) (*ApproveRequestResult, error) {
	var (
		result *ApproveRequestResult
		entry  *ledger.Entry
	)
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		req, err := s.requestRepo.Lock(txCtx, in.RequestID)
		if err != nil {
			return err
		}
		payer, err := s.resolveActor(txCtx, in.PayerOwnerID)
		if err != nil {
			return err
		}
		if req.PayerAccount != payer.ID {
			return domainErrors.ErrNotAuthorized
		}
		if req.Resolved() {
			return domainErrors.ErrAlreadyResolved
		}
		if req.Expired(time.Now()) {
			// Lazy expiry: the row stays requested, the attempt fails.
			return domainErrors.ErrRequestExpired
		}
		if !s.secrets.Verify(payer.PINHash, in.PIN) {
			return domainErrors.ErrInvalidPIN
		}

		requester, err := s.accountRepo.GetByID(txCtx, req.RequesterAccount)
		if err != nil {
			return err
		}
		if requester.Status != account.StatusActive {
			return domainErrors.ErrAccountInactive
		}

		payer, requester, err = s.lockPair(txCtx, payer.ID, requester.ID)
		if err != nil {
			return err
		}
		if payer.Balance < req.Amount {
			return domainErrors.ErrInsufficientFunds
		}
		if err := s.checkDuplicate(txCtx, payer.ID, requester.ID, req.Amount); err != nil {
			return err
		}

		entry, err = ledger.NewEntry(payer.ID, requester.ID, req.Amount, ledger.KindRequestPayment)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.CreateEntry(txCtx, entry); err != nil {
			return err
		}
		if err := s.ledgerRepo.AddEvent(txCtx, ledger.NewEvent(entry.ID, ledger.EventPINVerified, ledger.OutcomeSuccess, "")); err != nil {
			return err
		}

		if err := s.applyDebit(txCtx, payer, entry, req.Amount); err != nil {
			return err
		}
		if err := s.applyCredit(txCtx, requester, entry, req.Amount); err != nil {
			return err
		}
		if err := s.complete(txCtx, entry, fmt.Sprintf("request paid to %s", requester.OwnerName)); err != nil {
			return err
		}
		if err := s.requestRepo.MarkPaid(txCtx, req.ID, entry.ID); err != nil {
			return err
		}

		result = &ApproveRequestResult{
			CorrelationRef: entry.CorrelationID,
			Amount:         req.Amount,
			Timestamp:      entry.CreatedAt,
		}

		s.notifier.Notify(ctx, requester.OwnerID,
			fmt.Sprintf("%s paid your request of %s", payer.OwnerName, amountString(req.Amount)))
		return nil
	})
	if err != nil {
		s.recordFailure(ctx, entry, err)
		return nil, err
	}
	return result, nil
}

// DeclineRequest resolves a request as declined; only the addressed payer
// may decline.
func (s *TransferService) DeclineRequest(ctx context.Context, requestID uuid.UUID, actorOwnerID string) error {
	return s.resolveRequest(ctx, requestID, actorOwnerID, request.StatusDeclined)
}

// CancelRequest resolves a request as cancelled; only the requester may
// cancel.
func (s *TransferService) CancelRequest(ctx context.Context, requestID uuid.UUID, actorOwnerID string) error {
	return s.resolveRequest(ctx, requestID, actorOwnerID, request.StatusCancelled)
}

func (s *TransferService) resolveRequest(ctx context.Context, requestID uuid.UUID, actorOwnerID string, newStatus request.Status) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	actor, err := s.resolveActor(ctx, actorOwnerID)
	if err != nil {
		return err
	}

	var authorized bool
	switch newStatus {
	case request.StatusDeclined:
		authorized = req.PayerAccount == actor.ID
	case request.StatusCancelled:
		authorized = req.RequesterAccount == actor.ID
	}
	if !authorized {
		return domainErrors.ErrNotAuthorized
	}

	updated, err := s.requestRepo.UpdateStatus(ctx, requestID, request.StatusRequested, newStatus)
	if err != nil {
		return err
	}
	if !updated {
		return domainErrors.ErrAlreadyResolved
	}
	return nil
}

// ListRequests returns money requests the caller's account is party to,
// newest first.
func (s *TransferService) ListRequests(ctx context.Context, ownerID string, limit, offset int) ([]*request.MoneyRequest, error) {
	acct, err := s.accountRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.requestRepo.ListForAccount(ctx, acct.ID, limit, offset)
}

// History returns completed entries where the caller's account participated,
// newest first. Agent fee side-entries are internal and excluded.
func (s *TransferService) History(ctx context.Context, ownerID string, page, pageSize int) (*HistoryResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	acct, err := s.accountRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	entries, total, err := s.ledgerRepo.History(ctx, acct.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{Entries: entries, Total: total, Page: page, PageSize: pageSize}, nil
}

// Detail returns one entry plus its full ordered event log, only if the
// caller's account was a participant. Missing and forbidden entries are
// indistinguishable to the caller.
func (s *TransferService) Detail(ctx context.Context, entryID uuid.UUID, ownerID string) (*DetailResult, error) {
	acct, err := s.accountRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	entry, err := s.ledgerRepo.GetByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if !entry.Participant(acct.ID) {
		return nil, domainErrors.ErrEntryNotFound
	}
	events, err := s.ledgerRepo.GetEvents(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return &DetailResult{Entry: entry, Events: events}, nil
}

// --- Helpers ---

// resolveActor loads the caller's wallet and checks it is active.
func (s *TransferService) resolveActor(ctx context.Context, ownerID string) (*account.Account, error) {
	acct, err := s.accountRepo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if acct.Status != account.StatusActive {
		return nil, domainErrors.ErrAccountInactive
	}
	return acct, nil
}

// resolveCounterparty resolves a phone lookup key and checks the account is
// active.
func (s *TransferService) resolveCounterparty(ctx context.Context, phone string) (*account.Account, error) {
	acct, err := s.accountRepo.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAccountNotFound) {
			return nil, domainErrors.ErrCounterpartyNotFound
		}
		return nil, err
	}
	if acct.Status != account.StatusActive {
		return nil, domainErrors.ErrAccountInactive
	}
	return acct, nil
}

// lockPair acquires row locks on both accounts in ascending id order to
// keep lock acquisition deterministic across all operation kinds, then
// returns the locked rows in (a, b) argument order.
func (s *TransferService) lockPair(ctx context.Context, a, b uuid.UUID) (*account.Account, *account.Account, error) {
	first, second := a, b
	if b.String() < a.String() {
		first, second = b, a
	}
	f, err := s.accountRepo.Lock(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	sec, err := s.accountRepo.Lock(ctx, second)
	if err != nil {
		return nil, nil, err
	}
	if f.ID == a {
		return f, sec, nil
	}
	return sec, f, nil
}

// checkDuplicate suppresses retried submissions: a completed entry with the
// same (from, to, amount) tuple inside the trailing window fails the new
// attempt. There is no client-supplied idempotency key; two legitimately
// distinct transfers of the same amount inside the window are treated as a
// retry.
func (s *TransferService) checkDuplicate(ctx context.Context, from, to uuid.UUID, amount int64) error {
	dup, err := s.ledgerRepo.HasRecentCompleted(ctx, from, to, amount, s.cfg.DuplicateWindow)
	if err != nil {
		return err
	}
	if dup {
		return domainErrors.ErrDuplicateAttempt
	}
	return nil
}

// applyDebit debits the locked account, persists the balance and appends
// the debited event.
func (s *TransferService) applyDebit(ctx context.Context, acct *account.Account, entry *ledger.Entry, amount int64) error {
	if err := acct.Debit(amount); err != nil {
		return err
	}
	if err := s.accountRepo.UpdateBalance(ctx, acct); err != nil {
		return err
	}
	return s.ledgerRepo.AddEvent(ctx, ledger.NewEvent(entry.ID, ledger.EventDebited, ledger.OutcomeSuccess, amountString(amount)))
}

// applyCredit credits the locked account, persists the balance and appends
// the credited event.
func (s *TransferService) applyCredit(ctx context.Context, acct *account.Account, entry *ledger.Entry, amount int64) error {
	if err := acct.Credit(amount); err != nil {
		return err
	}
	if err := s.accountRepo.UpdateBalance(ctx, acct); err != nil {
		return err
	}
	return s.ledgerRepo.AddEvent(ctx, ledger.NewEvent(entry.ID, ledger.EventCredited, ledger.OutcomeSuccess, amountString(amount)))
}

// complete transitions the entry to completed and appends the terminal
// event.
func (s *TransferService) complete(ctx context.Context, entry *ledger.Entry, detail string) error {
	entry.Complete()
	if err := s.ledgerRepo.UpdateStatus(ctx, entry.ID, ledger.StatusCompleted); err != nil {
		return err
	}
	return s.ledgerRepo.AddEvent(ctx, ledger.NewEvent(entry.ID, ledger.EventCompleted, ledger.OutcomeSuccess, detail))
}

// cashOutFee computes the agent fee in cents, rounded half up.
func (s *TransferService) cashOutFee(amount int64) int64 {
	return (amount*s.cfg.CashOutFeeBasisPoints + 5000) / 10000
}

// recordFailure durably records why an attempt failed. The failed unit of
// work rolled back the initiated entry and its events, so this re-inserts
// the entry as failed with a terminal event in a fresh transaction. It is
// best-effort: if the secondary write keeps failing the error is only
// logged and the caller still sees the original failure.
func (s *TransferService) recordFailure(ctx context.Context, entry *ledger.Entry, cause error) {
	if entry == nil {
		return
	}
	entry.Fail()
	err := retry.Do(
		func() error {
			return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
				if err := s.ledgerRepo.CreateEntry(txCtx, entry); err != nil {
					return err
				}
				ev := ledger.NewEvent(entry.ID, ledger.EventFailed, ledger.OutcomeFailure, cause.Error())
				return s.ledgerRepo.AddEvent(txCtx, ev)
			})
		},
		retry.Attempts(3),
		retry.Delay(50*time.Millisecond),
		retry.Context(ctx),
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("correlation_id", entry.CorrelationID).
			Str("cause", cause.Error()).
			Msg("failed to record attempt failure")
	}
}
