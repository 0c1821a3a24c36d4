package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/google/uuid"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	wallets      map[string]*entities.Wallet
	transactions map[string][]*entities.Transaction
	mu           sync.RWMutex
}

// NewMemoryRepository creates a new in-memory ledger repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		wallets:      make(map[string]*entities.Wallet),
		transactions: make(map[string][]*entities.Transaction),
	}
}

// GetWallet retrieves a wallet by user ID
func (r *MemoryRepository) GetWallet(ctx context.Context, userID string) (*entities.Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wallet, exists := r.wallets[userID]
	if !exists {
		return nil, ErrWalletNotFound
	}

	// Return a copy to prevent concurrent modification
	walletCopy := *wallet
	return &walletCopy, nil
}

// GetOrCreateWallet returns the user's wallet, creating an empty one if none exists
func (r *MemoryRepository) GetOrCreateWallet(ctx context.Context, userID string) (*entities.Wallet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.wallets[userID]
	if !exists {
		now := time.Now()
		wallet = &entities.Wallet{
			UserID:      userID,
			Balance:     0,
			CreatedAt:   now,
			LastUpdated: now,
		}
		r.wallets[userID] = wallet
	}

	walletCopy := *wallet
	return &walletCopy, nil
}

// ApplyChange atomically adjusts the balance and records the transaction
func (r *MemoryRepository) ApplyChange(ctx context.Context, change *Change) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wallet, exists := r.wallets[change.UserID]
	if !exists {
		return 0, ErrWalletNotFound
	}

	if wallet.Balance+change.Amount < 0 {
		return 0, ErrInsufficientBalance
	}

	wallet.Balance += change.Amount
	wallet.LastUpdated = time.Now()

	transaction := &entities.Transaction{
		ID:           uuid.New().String(),
		UserID:       change.UserID,
		Amount:       change.Amount,
		Type:         change.Type,
		ReferenceID:  change.ReferenceID,
		Description:  change.Description,
		Timestamp:    time.Now(),
		BalanceAfter: wallet.Balance,
	}

	r.transactions[change.UserID] = append(r.transactions[change.UserID], transaction)

	return wallet.Balance, nil
}

// GetTransactions retrieves recent transactions for a user, newest first
func (r *MemoryRepository) GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transactions, exists := r.transactions[userID]
	if !exists {
		return make([]*entities.Transaction, 0), nil
	}

	// Walk backwards so the newest transactions come first
	result := make([]*entities.Transaction, 0, limit)
	for i := len(transactions) - 1; i >= 0 && len(result) < limit; i-- {
		txCopy := *transactions[i]
		result = append(result, &txCopy)
	}

	return result, nil
}

// GetTransactionsByType retrieves transactions of a specific type
func (r *MemoryRepository) GetTransactionsByType(ctx context.Context, userID string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transactions, exists := r.transactions[userID]
	if !exists {
		return make([]*entities.Transaction, 0), nil
	}

	filtered := make([]*entities.Transaction, 0, limit)
	for i := len(transactions) - 1; i >= 0 && len(filtered) < limit; i-- {
		if transactions[i].Type == transactionType {
			txCopy := *transactions[i]
			filtered = append(filtered, &txCopy)
		}
	}

	return filtered, nil
}

// Close implements Repository
func (r *MemoryRepository) Close() error {
	return nil
}
