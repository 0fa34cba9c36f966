package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rahatc/paydesh/internal/domain/account"
)

// AccountService provisions wallets and serves balance reads.
type AccountService struct {
	accountRepo account.Repository
	logger      zerolog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo account.Repository, logger zerolog.Logger) *AccountService {
	return &AccountService{accountRepo: accountRepo, logger: logger}
}

// CreateAccountInput holds the input for provisioning a wallet.
type CreateAccountInput struct {
	OwnerID   string
	OwnerName string
	Phone     string
	PIN       string
	Category  account.Category
}

// Create provisions a new wallet with a zero balance and a hashed PIN.
func (s *AccountService) Create(ctx context.Context, in CreateAccountInput) (*account.Account, error) {
	hash, err := HashPIN(in.PIN)
	if err != nil {
		return nil, err
	}
	acct, err := account.NewAccount(in.OwnerID, in.OwnerName, in.Phone, hash, in.Category)
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.Create(ctx, acct); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("account_id", acct.ID.String()).
		Str("category", string(acct.Category)).
		Msg("account created")
	return acct, nil
}

// Balance returns the caller's wallet.
func (s *AccountService) Balance(ctx context.Context, ownerID string) (*account.Account, error) {
	return s.accountRepo.GetByOwner(ctx, ownerID)
}
