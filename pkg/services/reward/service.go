package reward

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/fadedpez/inkwell/internal/config"
	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/fadedpez/inkwell/pkg/locks"
	progressionRepo "github.com/fadedpez/inkwell/pkg/repositories/progression"
	ledgerService "github.com/fadedpez/inkwell/pkg/services/ledger"
	progressionService "github.com/fadedpez/inkwell/pkg/services/progression"
	"github.com/google/uuid"
)

// Service handles streak milestone rewards and badges. A claim writes three
// records: the reward, the streak XP update and the wallet credit. The first
// two go down as one repository unit; a failed wallet credit backs them out
// so a claim is never half applied.
type Service struct {
	repo    progressionRepo.Repository
	ledger  ledgerService.LedgerService
	locks   *locks.UserLocks
	economy config.Economy
}

// NewService creates a new reward service
func NewService(repo progressionRepo.Repository, ledger ledgerService.LedgerService, userLocks *locks.UserLocks, economy config.Economy) *Service {
	return &Service{
		repo:    repo,
		ledger:  ledger,
		locks:   userLocks,
		economy: economy,
	}
}

// bracketFor resolves the reward bracket for a milestone day. Days without
// an entry fall back to the configured fallback bracket.
func (s *Service) bracketFor(day int) config.RewardBracket {
	if bracket, ok := s.economy.RewardBrackets[day]; ok {
		return bracket
	}
	return s.economy.RewardBrackets[s.economy.FallbackBracketDay]
}

// ClaimStreakReward grants the one-time milestone reward for the given
// streak day. The user must have reached the milestone, and each milestone
// can only ever be claimed once.
func (s *Service) ClaimStreakReward(ctx context.Context, userID string, day int) (*entities.Reward, error) {
	if userID == "" {
		return nil, types.NewPlatformError(types.ErrUnauthenticated, "user ID is required")
	}
	if day < 1 {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "streak day must be at least 1")
	}

	// The eligibility check, the claimed check and the grant must see a
	// consistent snapshot of the user's streak.
	release := s.locks.Lock(userID)
	defer release()

	streak, err := s.repo.GetOrCreateStreak(ctx, userID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get streak", err)
	}

	if streak.CurrentStreak < day {
		return nil, types.NewPlatformError(types.ErrNotEligible,
			fmt.Sprintf("current streak %d has not reached day %d", streak.CurrentStreak, day))
	}

	bracket := s.bracketFor(day)
	priorStreak := *streak

	streak.XP += bracket.XP
	streak.Level = progressionService.LevelForXP(streak.XP)

	reward := &entities.Reward{
		ID:           uuid.New().String(),
		UserID:       userID,
		Type:         fmt.Sprintf("streak_%d", day),
		XPReward:     bracket.XP,
		WalletReward: bracket.Wallet,
		EarnedAt:     time.Now(),
		Claimed:      true,
	}

	if err := s.repo.GrantReward(ctx, reward, streak); err != nil {
		if errors.Is(err, progressionRepo.ErrRewardClaimed) {
			return nil, types.NewPlatformError(types.ErrAlreadyClaimed,
				fmt.Sprintf("reward for day %d already claimed", day))
		}
		return nil, types.WrapError(types.ErrDatabaseError, "failed to grant reward", err)
	}

	description := fmt.Sprintf("Streak reward: day %d", day)
	if _, err := s.ledger.Credit(ctx, userID, bracket.Wallet, entities.TransactionTypeReward, description, ""); err != nil {
		// The grant went down but the credit did not. Back the grant out
		// so the claim can be retried cleanly.
		if revokeErr := s.repo.RevokeReward(ctx, reward, &priorStreak); revokeErr != nil {
			log.Printf("[REWARD] Failed to revoke reward %s for user %s after credit failure: %v", reward.Type, userID, revokeErr)
		}
		return nil, err
	}

	return reward, nil
}

// EarnBadge awards a one-time badge. Earning the same badge again is a
// silent no-op; the return value reports whether the badge was new.
func (s *Service) EarnBadge(ctx context.Context, userID, badgeType string) (bool, error) {
	if badgeType == "" {
		return false, types.NewPlatformError(types.ErrInvalidInput, "badge type is required")
	}

	earned, err := s.repo.EarnBadge(ctx, &entities.Badge{
		UserID:    userID,
		BadgeType: badgeType,
		EarnedAt:  time.Now(),
	})
	if err != nil {
		return false, types.WrapError(types.ErrDatabaseError, "failed to earn badge", err)
	}

	return earned, nil
}

// ListBadges returns all badges the user has earned
func (s *Service) ListBadges(ctx context.Context, userID string) ([]*entities.Badge, error) {
	badges, err := s.repo.ListBadges(ctx, userID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to list badges", err)
	}
	return badges, nil
}
