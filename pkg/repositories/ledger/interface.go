package ledger

import (
	"context"
	"errors"

	"github.com/fadedpez/inkwell/pkg/entities"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Change describes a balance mutation and its companion transaction record.
// The balance update and the transaction insert are applied as one unit:
// either both are persisted or neither is.
type Change struct {
	UserID      string
	Amount      int64 // Signed: positive credits, negative debits
	Type        entities.TransactionType
	Description string
	ReferenceID string // Optional related record (e.g. book ID)
}

// Repository defines the interface for wallet and transaction data operations
type Repository interface {
	// GetWallet retrieves a wallet by user ID
	GetWallet(ctx context.Context, userID string) (*entities.Wallet, error)

	// GetOrCreateWallet returns the user's wallet, creating an empty one if
	// none exists. Safe to call concurrently for the same user; the
	// uniqueness constraint on user_id prevents duplicates.
	GetOrCreateWallet(ctx context.Context, userID string) (*entities.Wallet, error)

	// ApplyChange atomically adjusts the wallet balance and records the
	// companion transaction, returning the new balance. Fails with
	// ErrInsufficientBalance, without writing anything, if the change would
	// take the balance below zero.
	ApplyChange(ctx context.Context, change *Change) (int64, error)

	// GetTransactions retrieves recent transactions for a user, newest first
	GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error)

	// GetTransactionsByType retrieves transactions of a specific type
	GetTransactionsByType(ctx context.Context, userID string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error)

	// Close releases any resources held by the repository
	Close() error
}
