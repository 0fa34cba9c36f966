package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rahatc/paydesh/internal/domain/account"
	domainErrors "github.com/rahatc/paydesh/internal/domain/errors"
)

const accountColumns = `id, owner_id, owner_name, phone, category, pin_hash, balance, status, created_at, updated_at`

// AccountRepository implements account.Repository using PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func (r *AccountRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// scanAccount scans an account from any source implementing the scanner interface.
func (r *AccountRepository) scanAccount(s scanner) (*account.Account, error) {
	a := &account.Account{}
	var (
		category   string
		status     string
		balanceStr string
	)
	err := s.Scan(&a.ID, &a.OwnerID, &a.OwnerName, &a.Phone, &category, &a.PINHash, &balanceStr, &status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrAccountNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}

	cents, err := numericStringToCents(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("parse balance: %w", err)
	}
	a.Balance = cents
	a.Category = account.Category(category)
	a.Status = account.Status(status)
	return a, nil
}

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *account.Account) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO accounts (id, owner_id, owner_name, phone, category, pin_hash, balance, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.OwnerID, a.OwnerName, a.Phone, string(a.Category), a.PINHash,
		centsToNumericString(a.Balance), string(a.Status), a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505 unique_violation: one wallet per owner, one per phone.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.NewDomainError("account_exists", "account already exists for this owner or phone", err)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.scanAccount(r.db(ctx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

// GetByOwner retrieves the wallet owned by the given user.
func (r *AccountRepository) GetByOwner(ctx context.Context, ownerID string) (*account.Account, error) {
	return r.scanAccount(r.db(ctx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE owner_id = $1`, ownerID))
}

// GetByPhone resolves a counterparty lookup key to an account.
func (r *AccountRepository) GetByPhone(ctx context.Context, phone string) (*account.Account, error) {
	return r.scanAccount(r.db(ctx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE phone = $1`, phone))
}

// UpdateBalance persists the account balance and updated_at.
func (r *AccountRepository) UpdateBalance(ctx context.Context, a *account.Account) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3`,
		centsToNumericString(a.Balance), a.UpdatedAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrAccountNotFound
	}
	return nil
}

// Lock acquires a row-level lock on the account (SELECT FOR UPDATE).
func (r *AccountRepository) Lock(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.scanAccount(r.db(ctx).QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
}
