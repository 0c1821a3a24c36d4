package progression

import (
	"context"
	"time"

	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/fadedpez/inkwell/pkg/locks"
	progressionRepo "github.com/fadedpez/inkwell/pkg/repositories/progression"
)

const (
	xpPerBlock       = 10
	minutesPerBlock  = 5
	xpPerLevel       = 100
	maxSessionLength = 24 * 60 // Minutes; anything longer is a client bug
)

// Service handles streak and XP progression. All reads and writes for a
// user's streak happen under that user's lock so same-day and cross-day
// sessions can never interleave destructively.
type Service struct {
	repo  progressionRepo.Repository
	locks *locks.UserLocks
	now   func() time.Time
}

// NewService creates a new progression service
func NewService(repo progressionRepo.Repository, userLocks *locks.UserLocks) *Service {
	return &Service{
		repo:  repo,
		locks: userLocks,
		now:   time.Now,
	}
}

// SetClock overrides the time source. Tests use this to walk the streak
// across calendar days.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// calendarDay truncates a timestamp to its UTC calendar day
func calendarDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// LevelForXP computes a level from total XP
func LevelForXP(xp int64) int {
	return int(xp/xpPerLevel) + 1
}

// XPForMinutes computes the XP gain for a session. Partial five-minute
// blocks earn nothing.
func XPForMinutes(minutes int64) int64 {
	return (minutes / minutesPerBlock) * xpPerBlock
}

// RecordReading applies a reading session to the user's streak and the
// per-book progress row as one unit. Multiple sessions on the same UTC day
// accumulate minutes and XP without advancing the streak; a session on the
// next day advances it; a gap resets it to 1.
func (s *Service) RecordReading(ctx context.Context, userID, bookID string, minutesRead int64, currentChapter int) (*entities.Streak, error) {
	if userID == "" {
		return nil, types.NewPlatformError(types.ErrUnauthenticated, "user ID is required")
	}
	if bookID == "" {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "book ID is required")
	}
	if minutesRead <= 0 {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "minutes read must be positive")
	}
	if minutesRead > maxSessionLength {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "session length exceeds one day")
	}

	release := s.locks.Lock(userID)
	defer release()

	streak, err := s.repo.GetOrCreateStreak(ctx, userID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get streak", err)
	}

	now := s.now()
	today := calendarDay(now)

	switch {
	case streak.LastReadDate.IsZero():
		// First ever session
		streak.CurrentStreak = 1
	case calendarDay(streak.LastReadDate).Equal(today):
		// Additional session on the same day, streak unchanged
	case calendarDay(streak.LastReadDate).Equal(today.AddDate(0, 0, -1)):
		streak.CurrentStreak++
	default:
		// Gap of two or more days, or a last-read date in the future
		// from clock skew. Either way the chain is broken.
		streak.CurrentStreak = 1
	}

	if streak.CurrentStreak > streak.LongestStreak {
		streak.LongestStreak = streak.CurrentStreak
	}

	streak.LastReadDate = now
	streak.TotalReadMinutes += minutesRead
	streak.XP += XPForMinutes(minutesRead)
	streak.Level = LevelForXP(streak.XP)

	progress, err := s.repo.GetProgress(ctx, userID, bookID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get reading progress", err)
	}
	if progress == nil {
		progress = &entities.ReadingProgress{
			UserID: userID,
			BookID: bookID,
		}
	}

	if currentChapter > progress.CurrentChapter {
		progress.CurrentChapter = currentChapter
	}
	progress.TotalReadTime += minutesRead
	progress.LastReadAt = now

	if err := s.repo.ApplyReading(ctx, streak, progress); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to save reading session", err)
	}

	return streak, nil
}

// MarkCompleted flags a book's progress row as finished
func (s *Service) MarkCompleted(ctx context.Context, userID, bookID string) error {
	release := s.locks.Lock(userID)
	defer release()

	progress, err := s.repo.GetProgress(ctx, userID, bookID)
	if err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to get reading progress", err)
	}
	if progress == nil {
		return types.NewPlatformError(types.ErrNotFound, "no reading progress for book")
	}
	if progress.Completed {
		return nil
	}

	progress.Completed = true

	streak, err := s.repo.GetOrCreateStreak(ctx, userID)
	if err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to get streak", err)
	}

	if err := s.repo.ApplyReading(ctx, streak, progress); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to save reading progress", err)
	}

	return nil
}

// GetStreak returns the user's streak, zero-valued if they have never read
func (s *Service) GetStreak(ctx context.Context, userID string) (*entities.Streak, error) {
	streak, err := s.repo.GetOrCreateStreak(ctx, userID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get streak", err)
	}
	return streak, nil
}

// GetProgress returns reading progress for a (user, book) pair, or nil when
// the user has never read the book
func (s *Service) GetProgress(ctx context.Context, userID, bookID string) (*entities.ReadingProgress, error) {
	progress, err := s.repo.GetProgress(ctx, userID, bookID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get reading progress", err)
	}
	return progress, nil
}
