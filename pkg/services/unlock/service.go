package unlock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/fadedpez/inkwell/pkg/locks"
	catalogRepo "github.com/fadedpez/inkwell/pkg/repositories/catalog"
	unlockRepo "github.com/fadedpez/inkwell/pkg/repositories/unlock"
	ledgerService "github.com/fadedpez/inkwell/pkg/services/ledger"
)

// BookGetter looks up books for unlock validation. Satisfied by the catalog
// repository.
type BookGetter interface {
	GetBook(ctx context.Context, bookID string) (*entities.Book, error)
}

// Service handles paid book unlocks. The charge and the unlock record are
// written under a per-user lock so a retried request can never double-charge:
// the existence check, the debit and the insert behave as one exclusive
// section per user.
type Service struct {
	repo   unlockRepo.Repository
	ledger ledgerService.LedgerService
	books  BookGetter
	locks  *locks.UserLocks
	price  int64
}

// NewService creates a new unlock service charging the given fixed price
func NewService(repo unlockRepo.Repository, ledger ledgerService.LedgerService, books BookGetter, userLocks *locks.UserLocks, price int64) *Service {
	return &Service{
		repo:   repo,
		ledger: ledger,
		books:  books,
		locks:  userLocks,
		price:  price,
	}
}

// UnlockBook grants the user permanent access to a book, charging the fixed
// unlock price. Calling it again for an already-unlocked book returns the
// existing record without charging. The second return value reports whether
// this call actually charged the user.
func (s *Service) UnlockBook(ctx context.Context, userID, bookID string) (*entities.Unlock, bool, error) {
	if userID == "" {
		return nil, false, types.NewPlatformError(types.ErrUnauthenticated, "user ID is required")
	}
	if bookID == "" {
		return nil, false, types.NewPlatformError(types.ErrInvalidInput, "book ID is required")
	}

	book, err := s.books.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrBookNotFound) {
			return nil, false, types.NewPlatformError(types.ErrNotFound, "book not found")
		}
		return nil, false, types.WrapError(types.ErrDatabaseError, "failed to get book", err)
	}

	if book.AuthorID == userID {
		return nil, false, types.NewPlatformError(types.ErrNotEligible, "authors already have access to their own books")
	}
	if book.Status != entities.BookStatusPublished {
		return nil, false, types.NewPlatformError(types.ErrNotFound, "book not found")
	}

	// Serialize unlocks per user so the existence check and the charge
	// cannot interleave with a concurrent retry of the same request.
	release := s.locks.Lock(userID)
	defer release()

	existing, err := s.findUnlock(ctx, userID, bookID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil // Already unlocked, no charge
	}

	description := fmt.Sprintf("Unlocked book: %s", book.Title)
	if _, err := s.ledger.Debit(ctx, userID, s.price, entities.TransactionTypeUnlock, description, bookID); err != nil {
		return nil, false, err
	}

	unlock := &entities.Unlock{
		UserID:     userID,
		BookID:     bookID,
		UnlockedAt: time.Now(),
	}

	if err := s.repo.Create(ctx, unlock); err != nil {
		// The user was charged but the record could not be written. Give
		// the money back so the charge and the record stay in step.
		s.refund(ctx, userID, bookID)

		if errors.Is(err, unlockRepo.ErrUnlockExists) {
			existing, findErr := s.findUnlock(ctx, userID, bookID)
			if findErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, types.WrapError(types.ErrDatabaseError, "failed to record unlock", err)
	}

	return unlock, true, nil
}

func (s *Service) refund(ctx context.Context, userID, bookID string) {
	if _, err := s.ledger.Credit(ctx, userID, s.price, entities.TransactionTypeUnlock, "Refund: unlock failed", bookID); err != nil {
		log.Printf("[UNLOCK] Failed to refund user %s for book %s: %v", userID, bookID, err)
	}
}

func (s *Service) findUnlock(ctx context.Context, userID, bookID string) (*entities.Unlock, error) {
	exists, err := s.repo.Exists(ctx, userID, bookID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to check unlock", err)
	}
	if !exists {
		return nil, nil
	}

	unlocks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to list unlocks", err)
	}
	for _, unlock := range unlocks {
		if unlock.BookID == bookID {
			return unlock, nil
		}
	}
	return nil, nil
}

// IsUnlocked reports whether the user has paid access to the book. Authors
// are not implicitly unlocked here; callers handle author access.
func (s *Service) IsUnlocked(ctx context.Context, userID, bookID string) (bool, error) {
	exists, err := s.repo.Exists(ctx, userID, bookID)
	if err != nil {
		return false, types.WrapError(types.ErrDatabaseError, "failed to check unlock", err)
	}
	return exists, nil
}

// ListUnlocks returns all of a user's unlocks, newest first
func (s *Service) ListUnlocks(ctx context.Context, userID string) ([]*entities.Unlock, error) {
	unlocks, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to list unlocks", err)
	}
	return unlocks, nil
}
