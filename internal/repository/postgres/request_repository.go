package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/rahatc/paydesh/internal/domain/errors"
	"github.com/rahatc/paydesh/internal/domain/request"
)

const requestColumns = `id, requester_account, payer_account, amount, note, status, expires_at, resolved_entry_id, created_at`

// RequestRepository implements request.Repository using PostgreSQL.
type RequestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository creates a new RequestRepository.
func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{pool: pool}
}

func (r *RequestRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *RequestRepository) scanRequest(s scanner) (*request.MoneyRequest, error) {
	req := &request.MoneyRequest{}
	var (
		amountStr string
		status    string
	)
	err := s.Scan(&req.ID, &req.RequesterAccount, &req.PayerAccount, &amountStr, &req.Note, &status, &req.ExpiresAt, &req.ResolvedEntryID, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrRequestNotFound
		}
		return nil, fmt.Errorf("scan money request: %w", err)
	}

	cents, err := numericStringToCents(amountStr)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	req.Amount = cents
	req.Status = request.Status(status)
	return req, nil
}

// Create inserts a new money request.
func (r *RequestRepository) Create(ctx context.Context, req *request.MoneyRequest) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO money_requests (id, requester_account, payer_account, amount, note, status, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		req.ID, req.RequesterAccount, req.PayerAccount, centsToNumericString(req.Amount),
		req.Note, string(req.Status), req.ExpiresAt, req.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert money request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by its ID.
func (r *RequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error) {
	return r.scanRequest(r.db(ctx).QueryRow(ctx,
		`SELECT `+requestColumns+` FROM money_requests WHERE id = $1`, id))
}

// Lock acquires a row-level lock on the request (SELECT FOR UPDATE).
func (r *RequestRepository) Lock(ctx context.Context, id uuid.UUID) (*request.MoneyRequest, error) {
	return r.scanRequest(r.db(ctx).QueryRow(ctx,
		`SELECT `+requestColumns+` FROM money_requests WHERE id = $1 FOR UPDATE`, id))
}

// MarkPaid sets status=paid and the resolving ledger entry, guarded on the
// row still being in requested state.
func (r *RequestRepository) MarkPaid(ctx context.Context, id uuid.UUID, entryID uuid.UUID) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE money_requests SET status = $1, resolved_entry_id = $2
		 WHERE id = $3 AND status = $4`,
		string(request.StatusPaid), entryID, id, string(request.StatusRequested),
	)
	if err != nil {
		return fmt.Errorf("mark request paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAlreadyResolved
	}
	return nil
}

// UpdateStatus is a conditional transition; it reports whether a row moved.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to request.Status) (bool, error) {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE money_requests SET status = $1 WHERE id = $2 AND status = $3`,
		string(to), id, string(from),
	)
	if err != nil {
		return false, fmt.Errorf("update request status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListForAccount retrieves requests where the account is requester or payer,
// newest first.
func (r *RequestRepository) ListForAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*request.MoneyRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+requestColumns+` FROM money_requests
		 WHERE requester_account = $1 OR payer_account = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		accountID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list money requests: %w", err)
	}
	defer rows.Close()

	var reqs []*request.MoneyRequest
	for rows.Next() {
		req, err := r.scanRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
