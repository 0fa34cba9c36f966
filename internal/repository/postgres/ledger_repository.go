package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/rahatc/paydesh/internal/domain/errors"
	"github.com/rahatc/paydesh/internal/domain/ledger"
)

const entryColumns = `id, from_account, to_account, amount, kind, status, correlation_id, created_at`

// LedgerRepository implements ledger.Repository using PostgreSQL.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *LedgerRepository) scanEntry(s scanner) (*ledger.Entry, error) {
	e := &ledger.Entry{}
	var (
		amountStr string
		kind      string
		status    string
	)
	err := s.Scan(&e.ID, &e.FromAccount, &e.ToAccount, &amountStr, &kind, &status, &e.CorrelationID, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntryNotFound
		}
		return nil, fmt.Errorf("scan ledger entry: %w", err)
	}

	cents, err := numericStringToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	e.Amount = cents
	e.Kind = ledger.Kind(kind)
	e.Status = ledger.Status(status)
	return e, nil
}

// CreateEntry inserts a new ledger entry.
func (r *LedgerRepository) CreateEntry(ctx context.Context, e *ledger.Entry) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO ledger_entries (id, from_account, to_account, amount, kind, status, correlation_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.FromAccount, e.ToAccount, centsToNumericString(e.Amount),
		string(e.Kind), string(e.Status), e.CorrelationID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger entry: %w", err)
	}
	return nil
}

// UpdateStatus transitions an entry to a terminal status.
func (r *LedgerRepository) UpdateStatus(ctx context.Context, entryID uuid.UUID, status ledger.Status) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE ledger_entries SET status = $1 WHERE id = $2 AND status = $3`,
		string(status), entryID, string(ledger.StatusInitiated),
	)
	if err != nil {
		return fmt.Errorf("update entry status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrEntryNotFound
	}
	return nil
}

// GetByID retrieves an entry by its ID.
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	return r.scanEntry(r.db(ctx).QueryRow(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, id))
}

// HasRecentCompleted reports whether a completed entry with the same
// (from, to, amount) tuple exists within the trailing window.
func (r *LedgerRepository) HasRecentCompleted(ctx context.Context, from, to uuid.UUID, amount int64, window time.Duration) (bool, error) {
	var exists bool
	err := r.db(ctx).QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM ledger_entries
		   WHERE from_account = $1 AND to_account = $2 AND amount = $3
		     AND status = $4 AND created_at > $5
		 )`,
		from, to, centsToNumericString(amount),
		string(ledger.StatusCompleted), time.Now().Add(-window),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate: %w", err)
	}
	return exists, nil
}

// AddEvent appends a lifecycle event.
func (r *LedgerRepository) AddEvent(ctx context.Context, event *ledger.Event) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO ledger_events (id, entry_id, kind, outcome, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.EntryID, event.Kind, event.Outcome, event.Detail, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ledger event: %w", err)
	}
	return nil
}

// GetEvents retrieves events for an entry, oldest first.
func (r *LedgerRepository) GetEvents(ctx context.Context, entryID uuid.UUID) ([]*ledger.Event, error) {
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, entry_id, kind, outcome, detail, created_at
		 FROM ledger_events WHERE entry_id = $1 ORDER BY created_at ASC, id ASC`, entryID)
	if err != nil {
		return nil, fmt.Errorf("list ledger events: %w", err)
	}
	defer rows.Close()

	var events []*ledger.Event
	for rows.Next() {
		ev := &ledger.Event{}
		if err := rows.Scan(&ev.ID, &ev.EntryID, &ev.Kind, &ev.Outcome, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ledger event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// History retrieves completed entries where the account participated,
// newest first. Agent fee side-entries are internal and excluded.
func (r *LedgerRepository) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, int, error) {
	if limit <= 0 {
		limit = 20
	}

	var total int
	err := r.db(ctx).QueryRow(ctx,
		`SELECT count(*) FROM ledger_entries
		 WHERE (from_account = $1 OR to_account = $1)
		   AND status = $2 AND kind <> $3`,
		accountID, string(ledger.StatusCompleted), string(ledger.KindAgentFee),
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count history: %w", err)
	}

	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE (from_account = $1 OR to_account = $1)
		   AND status = $2 AND kind <> $3
		 ORDER BY created_at DESC LIMIT $4 OFFSET $5`,
		accountID, string(ledger.StatusCompleted), string(ledger.KindAgentFee), limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// CreateFeeRecord links a cash-out entry to its fee entry.
func (r *LedgerRepository) CreateFeeRecord(ctx context.Context, rec *ledger.AgentFeeRecord) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO agent_fee_records (id, cash_out_entry_id, fee_entry_id, fee_amount, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.CashOutEntryID, rec.FeeEntryID, centsToNumericString(rec.FeeAmount), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert agent fee record: %w", err)
	}
	return nil
}

// CreateTopup records an agent-originated deposit for a cash-in entry.
func (r *LedgerRepository) CreateTopup(ctx context.Context, t *ledger.Topup) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO agent_topups (id, entry_id, agent_account_id, amount, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.EntryID, t.AgentAccountID, centsToNumericString(t.Amount), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert agent topup: %w", err)
	}
	return nil
}
