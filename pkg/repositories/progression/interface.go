package progression

import (
	"context"
	"errors"

	"github.com/fadedpez/inkwell/pkg/entities"
)

var (
	ErrStreakNotFound = errors.New("streak not found")

	// ErrRewardClaimed is returned when a reward of the same type already
	// exists for the user. The uniqueness constraint on (user_id, type)
	// enforces at-most-once granting even under concurrent claims.
	ErrRewardClaimed = errors.New("reward already claimed")
)

// Repository defines the interface for streak, reading progress, reward and
// badge data operations
type Repository interface {
	// GetStreak retrieves a streak by user ID
	GetStreak(ctx context.Context, userID string) (*entities.Streak, error)

	// GetOrCreateStreak returns the user's streak, creating a zero-valued
	// one if none exists
	GetOrCreateStreak(ctx context.Context, userID string) (*entities.Streak, error)

	// ApplyReading saves the updated streak and the per-book reading
	// progress row as one unit
	ApplyReading(ctx context.Context, streak *entities.Streak, progress *entities.ReadingProgress) error

	// GetProgress retrieves reading progress for a (user, book) pair;
	// returns nil without error when the user has not read the book
	GetProgress(ctx context.Context, userID, bookID string) (*entities.ReadingProgress, error)

	// GrantReward inserts the reward record and saves the streak carrying
	// the XP update as one unit. Fails with ErrRewardClaimed, writing
	// nothing, if a reward of the same type already exists for the user.
	GrantReward(ctx context.Context, reward *entities.Reward, streak *entities.Streak) error

	// RevokeReward removes a granted reward and restores the given streak
	// state. Used to back out a grant whose wallet credit failed.
	RevokeReward(ctx context.Context, reward *entities.Reward, streak *entities.Streak) error

	// EarnBadge inserts a badge if the user does not already have one of
	// that type. Returns true when the badge was newly earned.
	EarnBadge(ctx context.Context, badge *entities.Badge) (bool, error)

	// ListBadges returns all badges earned by the user
	ListBadges(ctx context.Context, userID string) ([]*entities.Badge, error)

	// Close releases any resources held by the repository
	Close() error
}
