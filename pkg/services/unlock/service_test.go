package unlock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/fadedpez/inkwell/pkg/locks"
	catalogRepo "github.com/fadedpez/inkwell/pkg/repositories/catalog"
	ledgerRepo "github.com/fadedpez/inkwell/pkg/repositories/ledger"
	unlockRepo "github.com/fadedpez/inkwell/pkg/repositories/unlock"
	ledgerService "github.com/fadedpez/inkwell/pkg/services/ledger"
	mockLedger "github.com/fadedpez/inkwell/pkg/services/ledger/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testUnlockPrice = int64(100)

// failingCreateRepo forces the post-charge compensation path
type failingCreateRepo struct {
	unlockRepo.Repository
}

func (r *failingCreateRepo) Create(ctx context.Context, unlock *entities.Unlock) error {
	return errors.New("disk full")
}

type fixture struct {
	service *Service
	ledger  *ledgerService.Service
	books   *catalogRepo.MemoryRepository
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	books := catalogRepo.NewMemoryRepository()
	ledger := ledgerService.NewService(ledgerRepo.NewMemoryRepository())
	service := NewService(unlockRepo.NewMemoryRepository(), ledger, books, locks.NewUserLocks(), testUnlockPrice)

	return &fixture{
		service: service,
		ledger:  ledger,
		books:   books,
	}
}

func (f *fixture) addPublishedBook(t *testing.T, bookID, authorID string) {
	t.Helper()
	err := f.books.CreateBook(context.Background(), &entities.Book{
		ID:       bookID,
		Title:    "Test Book",
		AuthorID: authorID,
		Status:   entities.BookStatusPublished,
	})
	require.NoError(t, err)
}

func TestUnlockBookChargesOnce(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	f.addPublishedBook(t, "book1", "author1")

	_, err := f.ledger.Deposit(ctx, "reader1", 250, "deposit")
	require.NoError(t, err)

	// First unlock charges the fixed price
	unlock, charged, err := f.service.UnlockBook(ctx, "reader1", "book1")
	require.NoError(t, err)
	assert.True(t, charged)
	assert.Equal(t, "book1", unlock.BookID)

	balance, err := f.ledger.GetBalance(ctx, "reader1")
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)

	// Second unlock is idempotent: same record back, no charge
	again, charged, err := f.service.UnlockBook(ctx, "reader1", "book1")
	require.NoError(t, err)
	assert.False(t, charged)
	assert.Equal(t, unlock.BookID, again.BookID)

	balance, err = f.ledger.GetBalance(ctx, "reader1")
	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)
}

func TestUnlockBookInsufficientBalance(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	f.addPublishedBook(t, "book1", "author1")

	_, err := f.ledger.Deposit(ctx, "reader1", 50, "deposit")
	require.NoError(t, err)

	_, _, err = f.service.UnlockBook(ctx, "reader1", "book1")
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrInsufficientBalance))

	// No unlock record and the balance untouched
	unlocked, err := f.service.IsUnlocked(ctx, "reader1", "book1")
	require.NoError(t, err)
	assert.False(t, unlocked)

	balance, err := f.ledger.GetBalance(ctx, "reader1")
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}

func TestUnlockBookUnknownBook(t *testing.T) {
	f := setupFixture(t)

	_, _, err := f.service.UnlockBook(context.Background(), "reader1", "missing")
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrNotFound))
}

func TestUnlockBookAuthorNotEligible(t *testing.T) {
	f := setupFixture(t)
	f.addPublishedBook(t, "book1", "author1")

	_, _, err := f.service.UnlockBook(context.Background(), "author1", "book1")
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrNotEligible))
}

func TestUnlockBookDraftHidden(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	err := f.books.CreateBook(ctx, &entities.Book{
		ID:       "draft1",
		Title:    "Unfinished",
		AuthorID: "author1",
		Status:   entities.BookStatusDraft,
	})
	require.NoError(t, err)

	_, _, err = f.service.UnlockBook(ctx, "reader1", "draft1")
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrNotFound))
}

func TestUnlockBookConcurrentRequestsChargeOnce(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	f.addPublishedBook(t, "book1", "author1")

	_, err := f.ledger.Deposit(ctx, "reader1", 1000, "deposit")
	require.NoError(t, err)

	const attempts = 10
	charges := make(chan bool, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, charged, err := f.service.UnlockBook(ctx, "reader1", "book1")
			assert.NoError(t, err)
			charges <- charged
		}()
	}
	wg.Wait()
	close(charges)

	chargedCount := 0
	for charged := range charges {
		if charged {
			chargedCount++
		}
	}
	assert.Equal(t, 1, chargedCount)

	// Exactly one price deducted
	balance, err := f.ledger.GetBalance(ctx, "reader1")
	require.NoError(t, err)
	assert.Equal(t, int64(900), balance)
}

func TestUnlockBookRefundsWhenRecordFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	ledger := mockLedger.NewMockLedgerService(ctrl)

	books := catalogRepo.NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, books.CreateBook(ctx, &entities.Book{
		ID:       "book1",
		Title:    "Test Book",
		AuthorID: "author1",
		Status:   entities.BookStatusPublished,
	}))

	repo := &failingCreateRepo{Repository: unlockRepo.NewMemoryRepository()}
	service := NewService(repo, ledger, books, locks.NewUserLocks(), testUnlockPrice)

	ledger.EXPECT().
		Debit(gomock.Any(), "reader1", testUnlockPrice, entities.TransactionTypeUnlock, gomock.Any(), "book1").
		Return(int64(0), nil)
	ledger.EXPECT().
		Credit(gomock.Any(), "reader1", testUnlockPrice, entities.TransactionTypeUnlock, gomock.Any(), "book1").
		Return(testUnlockPrice, nil)

	_, _, err := service.UnlockBook(ctx, "reader1", "book1")
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrDatabaseError))
}

func TestListUnlocks(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	f.addPublishedBook(t, "book1", "author1")
	f.addPublishedBook(t, "book2", "author1")

	_, err := f.ledger.Deposit(ctx, "reader1", 500, "deposit")
	require.NoError(t, err)

	_, _, err = f.service.UnlockBook(ctx, "reader1", "book1")
	require.NoError(t, err)
	_, _, err = f.service.UnlockBook(ctx, "reader1", "book2")
	require.NoError(t, err)

	unlocks, err := f.service.ListUnlocks(ctx, "reader1")
	require.NoError(t, err)
	assert.Len(t, unlocks, 2)
}
