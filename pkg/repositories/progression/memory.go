package progression

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/google/uuid"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	streaks  map[string]*entities.Streak
	progress map[string]map[string]*entities.ReadingProgress // userID -> bookID
	rewards  map[string]map[string]*entities.Reward          // userID -> reward type
	badges   map[string]map[string]*entities.Badge           // userID -> badge type
	mu       sync.RWMutex
}

// NewMemoryRepository creates a new in-memory progression repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		streaks:  make(map[string]*entities.Streak),
		progress: make(map[string]map[string]*entities.ReadingProgress),
		rewards:  make(map[string]map[string]*entities.Reward),
		badges:   make(map[string]map[string]*entities.Badge),
	}
}

// GetStreak retrieves a streak by user ID
func (r *MemoryRepository) GetStreak(ctx context.Context, userID string) (*entities.Streak, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	streak, exists := r.streaks[userID]
	if !exists {
		return nil, ErrStreakNotFound
	}

	streakCopy := *streak
	return &streakCopy, nil
}

// GetOrCreateStreak returns the user's streak, creating a zero-valued one if none exists
func (r *MemoryRepository) GetOrCreateStreak(ctx context.Context, userID string) (*entities.Streak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	streak, exists := r.streaks[userID]
	if !exists {
		streak = &entities.Streak{
			UserID: userID,
			Level:  1,
		}
		r.streaks[userID] = streak
	}

	streakCopy := *streak
	return &streakCopy, nil
}

// ApplyReading saves the updated streak and reading progress as one unit
func (r *MemoryRepository) ApplyReading(ctx context.Context, streak *entities.Streak, progress *entities.ReadingProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	streakCopy := *streak
	r.streaks[streak.UserID] = &streakCopy

	byBook, exists := r.progress[progress.UserID]
	if !exists {
		byBook = make(map[string]*entities.ReadingProgress)
		r.progress[progress.UserID] = byBook
	}
	progressCopy := *progress
	byBook[progress.BookID] = &progressCopy

	return nil
}

// GetProgress retrieves reading progress for a (user, book) pair
func (r *MemoryRepository) GetProgress(ctx context.Context, userID, bookID string) (*entities.ReadingProgress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byBook, exists := r.progress[userID]
	if !exists {
		return nil, nil
	}

	progress, exists := byBook[bookID]
	if !exists {
		return nil, nil
	}

	progressCopy := *progress
	return &progressCopy, nil
}

// GrantReward inserts the reward and saves the streak as one unit
func (r *MemoryRepository) GrantReward(ctx context.Context, reward *entities.Reward, streak *entities.Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byType, exists := r.rewards[reward.UserID]
	if !exists {
		byType = make(map[string]*entities.Reward)
		r.rewards[reward.UserID] = byType
	}

	if _, exists := byType[reward.Type]; exists {
		return ErrRewardClaimed
	}

	rewardCopy := *reward
	if rewardCopy.ID == "" {
		rewardCopy.ID = uuid.New().String()
	}
	if rewardCopy.EarnedAt.IsZero() {
		rewardCopy.EarnedAt = time.Now()
	}
	byType[reward.Type] = &rewardCopy

	streakCopy := *streak
	r.streaks[streak.UserID] = &streakCopy

	return nil
}

// RevokeReward removes a granted reward and restores the given streak state
func (r *MemoryRepository) RevokeReward(ctx context.Context, reward *entities.Reward, streak *entities.Streak) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if byType, exists := r.rewards[reward.UserID]; exists {
		delete(byType, reward.Type)
	}

	streakCopy := *streak
	r.streaks[streak.UserID] = &streakCopy

	return nil
}

// EarnBadge inserts a badge if the user does not already have one of that type
func (r *MemoryRepository) EarnBadge(ctx context.Context, badge *entities.Badge) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byType, exists := r.badges[badge.UserID]
	if !exists {
		byType = make(map[string]*entities.Badge)
		r.badges[badge.UserID] = byType
	}

	if _, exists := byType[badge.BadgeType]; exists {
		return false, nil
	}

	badgeCopy := *badge
	if badgeCopy.EarnedAt.IsZero() {
		badgeCopy.EarnedAt = time.Now()
	}
	byType[badge.BadgeType] = &badgeCopy

	return true, nil
}

// ListBadges returns all badges earned by the user
func (r *MemoryRepository) ListBadges(ctx context.Context, userID string) ([]*entities.Badge, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byType, exists := r.badges[userID]
	if !exists {
		return make([]*entities.Badge, 0), nil
	}

	badges := make([]*entities.Badge, 0, len(byType))
	for _, badge := range byType {
		badgeCopy := *badge
		badges = append(badges, &badgeCopy)
	}

	return badges, nil
}

// Close implements Repository
func (r *MemoryRepository) Close() error {
	return nil
}
