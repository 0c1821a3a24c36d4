package referral

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/fadedpez/inkwell/internal/config"
	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/fadedpez/inkwell/pkg/locks"
	referralRepo "github.com/fadedpez/inkwell/pkg/repositories/referral"
	ledgerService "github.com/fadedpez/inkwell/pkg/services/ledger"
	"github.com/google/uuid"
)

const (
	codeLength     = 8
	codeCharset    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789" // No 0/O/1/I lookalikes
	maxCodeRetries = 5
)

// Service handles referral codes and the conversion funnel. The code-holding
// record belongs to the referrer; each converted user gets its own record
// whose status only ever moves forward through the funnel.
type Service struct {
	repo    referralRepo.Repository
	ledger  ledgerService.LedgerService
	locks   *locks.UserLocks
	economy config.Economy
}

// NewService creates a new referral service
func NewService(repo referralRepo.Repository, ledger ledgerService.LedgerService, userLocks *locks.UserLocks, economy config.Economy) *Service {
	return &Service{
		repo:    repo,
		ledger:  ledger,
		locks:   userLocks,
		economy: economy,
	}
}

// generateCode builds a short random referral code
func generateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", fmt.Errorf("error generating referral code: %w", err)
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}

// IssueCode returns the user's referral code, generating and persisting one
// on first call. On a generated-code collision it regenerates and retries;
// the repository's uniqueness constraint is what makes an accepted code
// trustworthy.
func (s *Service) IssueCode(ctx context.Context, userID string) (*entities.Referral, error) {
	if userID == "" {
		return nil, types.NewPlatformError(types.ErrUnauthenticated, "user ID is required")
	}

	release := s.locks.Lock(userID)
	defer release()

	existing, err := s.repo.GetByReferrer(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, referralRepo.ErrReferralNotFound) {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get referral", err)
	}

	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, types.WrapError(types.ErrInternalError, "failed to generate code", err)
		}

		referral := &entities.Referral{
			ID:           uuid.New().String(),
			ReferrerID:   userID,
			ReferralCode: code,
			Status:       entities.ReferralStatusPending,
			CreatedAt:    time.Now(),
		}

		err = s.repo.Create(ctx, referral)
		if err == nil {
			return referral, nil
		}
		if !errors.Is(err, referralRepo.ErrCodeExists) {
			return nil, types.WrapError(types.ErrDatabaseError, "failed to create referral", err)
		}
	}

	return nil, types.NewPlatformError(types.ErrInternalError, "could not generate a unique referral code")
}

// ApplyCode records that a new user signed up with a referral code. The
// referrer gets a conversion record at signed_up and the signup reward is
// credited to their wallet.
func (s *Service) ApplyCode(ctx context.Context, newUserID, code string) (*entities.Referral, error) {
	if newUserID == "" {
		return nil, types.NewPlatformError(types.ErrUnauthenticated, "user ID is required")
	}
	if code == "" {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "referral code is required")
	}

	holder, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, referralRepo.ErrReferralNotFound) {
			return nil, types.NewPlatformError(types.ErrNotFound, "referral code not found")
		}
		return nil, types.WrapError(types.ErrDatabaseError, "failed to look up referral code", err)
	}

	if holder.ReferrerID == newUserID {
		return nil, types.NewPlatformError(types.ErrNotEligible, "cannot use your own referral code")
	}

	// Serialize on the referred user: a user converts through at most one
	// referral, ever.
	release := s.locks.Lock(newUserID)
	defer release()

	if _, err := s.repo.GetByReferredUser(ctx, newUserID); err == nil {
		return nil, types.NewPlatformError(types.ErrAlreadyClaimed, "user was already referred")
	} else if !errors.Is(err, referralRepo.ErrReferralNotFound) {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to check referred user", err)
	}

	conversion := &entities.Referral{
		ID:             uuid.New().String(),
		ReferrerID:     holder.ReferrerID,
		ReferredUserID: newUserID,
		Status:         entities.ReferralStatusSignedUp,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.Create(ctx, conversion); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to record conversion", err)
	}

	s.applyReward(ctx, holder.ReferrerID, s.economy.ReferralSignupReward,
		fmt.Sprintf("Referral signup bonus: %s", newUserID))

	return conversion, nil
}

// MarkFirstUnlock advances the referred user's conversion to first_unlock
// and credits the referrer the unlock bonus. Called after the referred
// user's first paid unlock; calling it again, or for a user who was never
// referred, is a no-op.
func (s *Service) MarkFirstUnlock(ctx context.Context, referredUserID string) error {
	conversion, err := s.repo.GetByReferredUser(ctx, referredUserID)
	if err != nil {
		if errors.Is(err, referralRepo.ErrReferralNotFound) {
			return nil // User was not referred
		}
		return types.WrapError(types.ErrDatabaseError, "failed to get referral", err)
	}

	if !conversion.Status.Advances(entities.ReferralStatusFirstUnlock) {
		return nil // Already at or past first_unlock
	}

	conversion.Status = entities.ReferralStatusFirstUnlock
	conversion.CompletedAt = time.Now()

	if err := s.repo.Update(ctx, conversion); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to update referral", err)
	}

	s.applyReward(ctx, conversion.ReferrerID, s.economy.ReferralUnlockReward,
		fmt.Sprintf("Referral unlock bonus: %s", referredUserID))

	return nil
}

// ApplyReward credits an arbitrary referral bonus to a referrer's wallet
// as a reward-kind transaction. The funnel transitions use the configured
// amounts; this is the escape hatch for manual adjustments.
func (s *Service) ApplyReward(ctx context.Context, referrerID string, amount int64, description string) error {
	if referrerID == "" {
		return types.NewPlatformError(types.ErrInvalidInput, "referrer ID is required")
	}
	if amount <= 0 {
		return types.NewPlatformError(types.ErrInvalidInput, "amount must be positive")
	}
	_, err := s.ledger.Credit(ctx, referrerID, amount, entities.TransactionTypeReward, description, "")
	return err
}

// applyReward credits a referral bonus to the referrer's wallet. A failed
// credit is logged, not propagated: the funnel record is the source of
// truth and Stats recomputes earnings from it.
func (s *Service) applyReward(ctx context.Context, referrerID string, amount int64, description string) {
	if amount <= 0 {
		return
	}
	if _, err := s.ledger.Credit(ctx, referrerID, amount, entities.TransactionTypeReward, description, ""); err != nil {
		log.Printf("[REFERRAL] Failed to credit %d to referrer %s: %v", amount, referrerID, err)
	}
}

// Stats derives the referrer's funnel numbers from the current records.
// TotalEarned is recomputed every call, never cached.
func (s *Service) Stats(ctx context.Context, referrerID string) (*entities.ReferralStats, error) {
	referrals, err := s.repo.ListByReferrer(ctx, referrerID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to list referrals", err)
	}

	stats := &entities.ReferralStats{
		StatusCounts: map[entities.ReferralStatus]int64{
			entities.ReferralStatusPending:     0,
			entities.ReferralStatusSignedUp:    0,
			entities.ReferralStatusFirstUnlock: 0,
		},
	}

	for _, referral := range referrals {
		if referral.ReferredUserID == "" {
			continue // The code-holding record is not a conversion
		}
		stats.StatusCounts[referral.Status]++
		if referral.Status == entities.ReferralStatusSignedUp || referral.Status == entities.ReferralStatusFirstUnlock {
			stats.TotalReferred++
		}
	}

	stats.TotalEarned = stats.StatusCounts[entities.ReferralStatusSignedUp]*s.economy.ReferralSignupReward +
		stats.StatusCounts[entities.ReferralStatusFirstUnlock]*s.economy.ReferralUnlockReward

	return stats, nil
}
