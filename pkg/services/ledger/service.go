package ledger

import (
	"context"
	"errors"
	"log"

	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	ledgerRepo "github.com/fadedpez/inkwell/pkg/repositories/ledger"
)

// Service handles wallet business logic. Every balance change goes through
// Credit or Debit so the balance patch and its transaction record are always
// written as one unit by the repository.
type Service struct {
	repo ledgerRepo.Repository
}

// NewService creates a new ledger service
func NewService(repo ledgerRepo.Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// GetOrCreateWallet retrieves a wallet or creates a zero-balance one if it
// doesn't exist. The second return value reports whether the wallet was
// newly created.
func (s *Service) GetOrCreateWallet(ctx context.Context, userID string) (*entities.Wallet, bool, error) {
	if userID == "" {
		return nil, false, types.NewPlatformError(types.ErrInvalidInput, "user ID is required")
	}

	wallet, err := s.repo.GetWallet(ctx, userID)
	if err == nil {
		return wallet, false, nil // Wallet exists
	}

	if !errors.Is(err, ledgerRepo.ErrWalletNotFound) {
		return nil, false, types.WrapError(types.ErrDatabaseError, "failed to get wallet", err)
	}

	wallet, err = s.repo.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return nil, false, types.WrapError(types.ErrDatabaseError, "failed to create wallet", err)
	}

	return wallet, true, nil
}

// GetBalance returns the current balance for a user, creating the wallet
// lazily if needed
func (s *Service) GetBalance(ctx context.Context, userID string) (int64, error) {
	wallet, _, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// Deposit adds funds to a user's wallet
func (s *Service) Deposit(ctx context.Context, userID string, amount int64, description string) (int64, error) {
	return s.Credit(ctx, userID, amount, entities.TransactionTypeDeposit, description, "")
}

// Credit increases the balance and appends the transaction record as one unit
func (s *Service) Credit(ctx context.Context, userID string, amount int64, kind entities.TransactionType, description, referenceID string) (int64, error) {
	if amount <= 0 {
		return 0, types.NewPlatformError(types.ErrInvalidInput, "amount must be positive")
	}

	if _, _, err := s.GetOrCreateWallet(ctx, userID); err != nil {
		return 0, err
	}

	newBalance, err := s.repo.ApplyChange(ctx, &ledgerRepo.Change{
		UserID:      userID,
		Amount:      amount,
		Type:        kind,
		Description: description,
		ReferenceID: referenceID,
	})
	if err != nil {
		log.Printf("[LEDGER] Error crediting %d to user %s: %v", amount, userID, err)
		return 0, types.WrapError(types.ErrDatabaseError, "failed to credit wallet", err)
	}

	return newBalance, nil
}

// Debit decreases the balance and appends the transaction record as one
// unit. Fails without writing anything when the balance would go negative.
func (s *Service) Debit(ctx context.Context, userID string, amount int64, kind entities.TransactionType, description, referenceID string) (int64, error) {
	if amount <= 0 {
		return 0, types.NewPlatformError(types.ErrInvalidInput, "amount must be positive")
	}

	if _, _, err := s.GetOrCreateWallet(ctx, userID); err != nil {
		return 0, err
	}

	newBalance, err := s.repo.ApplyChange(ctx, &ledgerRepo.Change{
		UserID:      userID,
		Amount:      -amount,
		Type:        kind,
		Description: description,
		ReferenceID: referenceID,
	})
	if err != nil {
		if errors.Is(err, ledgerRepo.ErrInsufficientBalance) {
			return 0, types.WrapError(types.ErrInsufficientBalance, "insufficient balance", err)
		}
		log.Printf("[LEDGER] Error debiting %d from user %s: %v", amount, userID, err)
		return 0, types.WrapError(types.ErrDatabaseError, "failed to debit wallet", err)
	}

	return newBalance, nil
}

// GetRecentTransactions retrieves recent transactions for a user
func (s *Service) GetRecentTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	transactions, err := s.repo.GetTransactions(ctx, userID, limit)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get transactions", err)
	}
	return transactions, nil
}

// GetTransactionsByType retrieves a user's transactions of a single kind
func (s *Service) GetTransactionsByType(ctx context.Context, userID string, kind entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	transactions, err := s.repo.GetTransactionsByType(ctx, userID, kind, limit)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get transactions", err)
	}
	return transactions, nil
}
