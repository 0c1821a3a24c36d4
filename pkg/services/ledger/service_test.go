package ledger

import (
	"context"
	"testing"

	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	ledgerRepo "github.com/fadedpez/inkwell/pkg/repositories/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupService(t *testing.T) *Service {
	t.Helper()
	return NewService(ledgerRepo.NewMemoryRepository())
}

func TestGetOrCreateWallet(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	// First access creates an empty wallet
	wallet, created, err := s.GetOrCreateWallet(ctx, "user1")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "user1", wallet.UserID)
	assert.Equal(t, int64(0), wallet.Balance)

	// Second access returns the same wallet
	wallet, created, err = s.GetOrCreateWallet(ctx, "user1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(0), wallet.Balance)
}

func TestGetOrCreateWalletRequiresUserID(t *testing.T) {
	s := setupService(t)

	_, _, err := s.GetOrCreateWallet(context.Background(), "")
	require.Error(t, err)

	var platformErr *types.PlatformError
	require.True(t, types.As(err, &platformErr))
	assert.Equal(t, types.ErrInvalidInput, platformErr.Code)
}

func TestDepositAppendsTransaction(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	balance, err := s.Deposit(ctx, "user1", 500, "starter pack")
	require.NoError(t, err)
	assert.Equal(t, int64(500), balance)

	transactions, err := s.GetRecentTransactions(ctx, "user1", 10)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, entities.TransactionTypeDeposit, transactions[0].Type)
	assert.Equal(t, int64(500), transactions[0].Amount)
	assert.Equal(t, int64(500), transactions[0].BalanceAfter)
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	for _, amount := range []int64{0, -10} {
		_, err := s.Deposit(ctx, "user1", amount, "bad deposit")
		require.Error(t, err)

		var platformErr *types.PlatformError
		require.True(t, types.As(err, &platformErr))
		assert.Equal(t, types.ErrInvalidInput, platformErr.Code)
	}

	// Nothing was recorded
	transactions, err := s.GetRecentTransactions(ctx, "user1", 10)
	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestDebitInsufficientBalance(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, "user1", 50, "small deposit")
	require.NoError(t, err)

	_, err = s.Debit(ctx, "user1", 100, entities.TransactionTypeUnlock, "unlock attempt", "book1")
	require.Error(t, err)

	var platformErr *types.PlatformError
	require.True(t, types.As(err, &platformErr))
	assert.Equal(t, types.ErrInsufficientBalance, platformErr.Code)

	// Balance unchanged and no debit transaction written
	balance, err := s.GetBalance(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	transactions, err := s.GetRecentTransactions(ctx, "user1", 10)
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
}

func TestDebitSpendsDownToZero(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, "user1", 100, "exact deposit")
	require.NoError(t, err)

	balance, err := s.Debit(ctx, "user1", 100, entities.TransactionTypeUnlock, "unlock", "book1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestHistorySumsToBalance(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, "user1", 200, "Deposit")
	require.NoError(t, err)
	_, err = s.Debit(ctx, "user1", 75, entities.TransactionTypeUnlock, "Unlocked book: one", "book1")
	require.NoError(t, err)
	_, err = s.Credit(ctx, "user1", 30, entities.TransactionTypeReward, "Streak reward", "")
	require.NoError(t, err)

	balance, err := s.GetBalance(ctx, "user1")
	require.NoError(t, err)

	transactions, err := s.GetRecentTransactions(ctx, "user1", 10)
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	var sum int64
	for _, tx := range transactions {
		sum += tx.Amount
	}
	assert.Equal(t, balance, sum)
	assert.Equal(t, int64(155), balance)
}

func TestGetTransactionsByType(t *testing.T) {
	s := setupService(t)
	ctx := context.Background()

	_, err := s.Deposit(ctx, "user1", 200, "deposit")
	require.NoError(t, err)
	_, err = s.Debit(ctx, "user1", 100, entities.TransactionTypeUnlock, "unlock", "book1")
	require.NoError(t, err)
	_, err = s.Credit(ctx, "user1", 20, entities.TransactionTypeReward, "streak reward", "")
	require.NoError(t, err)

	unlocks, err := s.GetTransactionsByType(ctx, "user1", entities.TransactionTypeUnlock, 10)
	require.NoError(t, err)
	require.Len(t, unlocks, 1)
	assert.Equal(t, int64(-100), unlocks[0].Amount)
	assert.Equal(t, "book1", unlocks[0].ReferenceID)
}
