package progression

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

const (
	createStreaksTableSQL = `
	CREATE TABLE IF NOT EXISTS streaks (
		user_id TEXT PRIMARY KEY,
		current_streak INTEGER NOT NULL DEFAULT 0,
		longest_streak INTEGER NOT NULL DEFAULT 0,
		last_read_date TIMESTAMP,
		total_read_minutes INTEGER NOT NULL DEFAULT 0,
		xp INTEGER NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1
	)`

	createProgressTableSQL = `
	CREATE TABLE IF NOT EXISTS reading_progress (
		user_id TEXT NOT NULL,
		book_id TEXT NOT NULL,
		current_chapter INTEGER NOT NULL DEFAULT 1,
		total_read_time INTEGER NOT NULL DEFAULT 0,
		completed INTEGER NOT NULL DEFAULT 0,
		last_read_at TIMESTAMP NOT NULL,
		UNIQUE(user_id, book_id)
	)`

	createRewardsTableSQL = `
	CREATE TABLE IF NOT EXISTS rewards (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		type TEXT NOT NULL,
		xp_reward INTEGER NOT NULL,
		wallet_reward INTEGER NOT NULL,
		earned_at TIMESTAMP NOT NULL,
		claimed INTEGER NOT NULL DEFAULT 1,
		UNIQUE(user_id, type)
	)`

	createBadgesTableSQL = `
	CREATE TABLE IF NOT EXISTS badges (
		user_id TEXT NOT NULL,
		badge_type TEXT NOT NULL,
		earned_at TIMESTAMP NOT NULL,
		UNIQUE(user_id, badge_type)
	)`
)

var timestampFormats = []string{
	"2006-01-02 15:04:05", // SQLite default format
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	time.RFC3339,
}

func parseTimestamp(value string) (time.Time, error) {
	var parseErr error
	for _, format := range timestampFormats {
		parsed, err := time.Parse(format, value)
		if err == nil {
			return parsed, nil
		}
		parseErr = err
	}
	return time.Time{}, fmt.Errorf("error parsing timestamp '%s': %w", value, parseErr)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	repo, err := NewSQLiteRepositoryWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// NewSQLiteRepositoryWithDB creates a repository on an existing connection
func NewSQLiteRepositoryWithDB(db *sql.DB) (*SQLiteRepository, error) {
	for _, schema := range []string{
		createStreaksTableSQL,
		createProgressTableSQL,
		createRewardsTableSQL,
		createBadgesTableSQL,
	} {
		if _, err := db.Exec(schema); err != nil {
			return nil, fmt.Errorf("error creating progression tables: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// GetStreak retrieves a streak by user ID
func (r *SQLiteRepository) GetStreak(ctx context.Context, userID string) (*entities.Streak, error) {
	query := `
		SELECT user_id, current_streak, longest_streak, last_read_date,
			total_read_minutes, xp, level
		FROM streaks
		WHERE user_id = ?
	`

	var streak entities.Streak
	var lastReadDate sql.NullString

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&streak.UserID,
		&streak.CurrentStreak,
		&streak.LongestStreak,
		&lastReadDate,
		&streak.TotalReadMinutes,
		&streak.XP,
		&streak.Level,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStreakNotFound
		}
		return nil, fmt.Errorf("error getting streak: %w", err)
	}

	if lastReadDate.Valid && lastReadDate.String != "" {
		if streak.LastReadDate, err = parseTimestamp(lastReadDate.String); err != nil {
			return nil, err
		}
	}

	return &streak, nil
}

// GetOrCreateStreak returns the user's streak, creating a zero-valued one if none exists
func (r *SQLiteRepository) GetOrCreateStreak(ctx context.Context, userID string) (*entities.Streak, error) {
	query := `
		INSERT INTO streaks (user_id, current_streak, longest_streak, total_read_minutes, xp, level)
		VALUES (?, 0, 0, 0, 0, 1)
		ON CONFLICT(user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return nil, fmt.Errorf("error creating streak: %w", err)
	}

	return r.GetStreak(ctx, userID)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// saveStreak upserts the full streak row
func saveStreak(ctx context.Context, e execer, streak *entities.Streak) error {
	var lastReadDate interface{}
	if !streak.LastReadDate.IsZero() {
		lastReadDate = formatTimestamp(streak.LastReadDate)
	}

	query := `
		INSERT INTO streaks (user_id, current_streak, longest_streak, last_read_date, total_read_minutes, xp, level)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			current_streak = excluded.current_streak,
			longest_streak = excluded.longest_streak,
			last_read_date = excluded.last_read_date,
			total_read_minutes = excluded.total_read_minutes,
			xp = excluded.xp,
			level = excluded.level
	`

	_, err := e.ExecContext(ctx, query,
		streak.UserID,
		streak.CurrentStreak,
		streak.LongestStreak,
		lastReadDate,
		streak.TotalReadMinutes,
		streak.XP,
		streak.Level,
	)
	if err != nil {
		return fmt.Errorf("error saving streak: %w", err)
	}

	return nil
}

// ApplyReading saves the updated streak and reading progress in one database transaction
func (r *SQLiteRepository) ApplyReading(ctx context.Context, streak *entities.Streak, progress *entities.ReadingProgress) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := saveStreak(ctx, tx, streak); err != nil {
		return err
	}

	completed := 0
	if progress.Completed {
		completed = 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reading_progress (user_id, book_id, current_chapter, total_read_time, completed, last_read_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, book_id) DO UPDATE SET
			current_chapter = excluded.current_chapter,
			total_read_time = excluded.total_read_time,
			completed = excluded.completed,
			last_read_at = excluded.last_read_at
	`,
		progress.UserID,
		progress.BookID,
		progress.CurrentChapter,
		progress.TotalReadTime,
		completed,
		formatTimestamp(progress.LastReadAt),
	)
	if err != nil {
		return fmt.Errorf("error saving reading progress: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing reading update: %w", err)
	}

	return nil
}

// GetProgress retrieves reading progress for a (user, book) pair
func (r *SQLiteRepository) GetProgress(ctx context.Context, userID, bookID string) (*entities.ReadingProgress, error) {
	query := `
		SELECT user_id, book_id, current_chapter, total_read_time, completed, last_read_at
		FROM reading_progress
		WHERE user_id = ? AND book_id = ?
	`

	var progress entities.ReadingProgress
	var completed int
	var lastReadAt string

	err := r.db.QueryRowContext(ctx, query, userID, bookID).Scan(
		&progress.UserID,
		&progress.BookID,
		&progress.CurrentChapter,
		&progress.TotalReadTime,
		&completed,
		&lastReadAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting reading progress: %w", err)
	}

	progress.Completed = completed != 0
	if progress.LastReadAt, err = parseTimestamp(lastReadAt); err != nil {
		return nil, err
	}

	return &progress, nil
}

// GrantReward inserts the reward and saves the streak in one database transaction
func (r *SQLiteRepository) GrantReward(ctx context.Context, reward *entities.Reward, streak *entities.Streak) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rewardID := reward.ID
	if rewardID == "" {
		rewardID = uuid.New().String()
	}
	earnedAt := reward.EarnedAt
	if earnedAt.IsZero() {
		earnedAt = time.Now()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rewards (id, user_id, type, xp_reward, wallet_reward, earned_at, claimed)
		VALUES (?, ?, ?, ?, ?, ?, 1)
	`,
		rewardID,
		reward.UserID,
		reward.Type,
		reward.XPReward,
		reward.WalletReward,
		formatTimestamp(earnedAt),
	)
	if err != nil {
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrRewardClaimed
		}
		return fmt.Errorf("error inserting reward: %w", err)
	}

	if err := saveStreak(ctx, tx, streak); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing reward grant: %w", err)
	}

	reward.ID = rewardID
	return nil
}

// RevokeReward removes a granted reward and restores the given streak state
func (r *SQLiteRepository) RevokeReward(ctx context.Context, reward *entities.Reward, streak *entities.Streak) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rewards WHERE user_id = ? AND type = ?`, reward.UserID, reward.Type); err != nil {
		return fmt.Errorf("error deleting reward: %w", err)
	}

	if err := saveStreak(ctx, tx, streak); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing reward revoke: %w", err)
	}

	return nil
}

// EarnBadge inserts a badge if the user does not already have one of that type
func (r *SQLiteRepository) EarnBadge(ctx context.Context, badge *entities.Badge) (bool, error) {
	earnedAt := badge.EarnedAt
	if earnedAt.IsZero() {
		earnedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO badges (user_id, badge_type, earned_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id, badge_type) DO NOTHING
	`, badge.UserID, badge.BadgeType, formatTimestamp(earnedAt))
	if err != nil {
		return false, fmt.Errorf("error earning badge: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("error getting rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// ListBadges returns all badges earned by the user
func (r *SQLiteRepository) ListBadges(ctx context.Context, userID string) ([]*entities.Badge, error) {
	query := `
		SELECT user_id, badge_type, earned_at
		FROM badges
		WHERE user_id = ?
		ORDER BY earned_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying badges: %w", err)
	}
	defer rows.Close()

	var badges []*entities.Badge
	for rows.Next() {
		var badge entities.Badge
		var earnedAt string

		if err := rows.Scan(&badge.UserID, &badge.BadgeType, &earnedAt); err != nil {
			return nil, fmt.Errorf("error scanning badge row: %w", err)
		}

		if badge.EarnedAt, err = parseTimestamp(earnedAt); err != nil {
			return nil, err
		}

		badges = append(badges, &badge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badge rows: %w", err)
	}

	return badges, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
