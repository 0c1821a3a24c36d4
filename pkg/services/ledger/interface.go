package ledger

import (
	"context"

	"github.com/fadedpez/inkwell/pkg/entities"
)

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_ledger_service
type LedgerService interface {
	GetOrCreateWallet(ctx context.Context, userID string) (*entities.Wallet, bool, error)
	GetBalance(ctx context.Context, userID string) (int64, error)
	Deposit(ctx context.Context, userID string, amount int64, description string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, kind entities.TransactionType, description, referenceID string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, kind entities.TransactionType, description, referenceID string) (int64, error)
	GetRecentTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error)
}
