package unlock

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/mattn/go-sqlite3"
)

const (
	createUnlocksTableSQL = `
	CREATE TABLE IF NOT EXISTS unlocks (
		user_id TEXT NOT NULL,
		book_id TEXT NOT NULL,
		unlocked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, book_id)
	)`

	createUnlockIndexesSQL = `
	CREATE INDEX IF NOT EXISTS idx_unlocks_user_id ON unlocks(user_id)
	`
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
	if _, err := db.Exec(createUnlocksTableSQL); err != nil {
		return nil, fmt.Errorf("error creating unlocks table: %w", err)
	}

	if _, err := db.Exec(createUnlockIndexesSQL); err != nil {
		return nil, fmt.Errorf("error creating unlock indexes: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Create inserts a new unlock record
func (r *SQLiteRepository) Create(ctx context.Context, unlock *entities.Unlock) error {
	unlockedAt := unlock.UnlockedAt
	if unlockedAt.IsZero() {
		unlockedAt = time.Now()
	}

	query := `INSERT INTO unlocks (user_id, book_id, unlocked_at) VALUES (?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		unlock.UserID,
		unlock.BookID,
		unlockedAt.UTC().Format("2006-01-02 15:04:05"),
	)
	if err != nil {
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrUnlockExists
		}
		return fmt.Errorf("error creating unlock: %w", err)
	}

	return nil
}

// Exists reports whether the user has unlocked the book
func (r *SQLiteRepository) Exists(ctx context.Context, userID, bookID string) (bool, error) {
	query := `SELECT COUNT(1) FROM unlocks WHERE user_id = ? AND book_id = ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, bookID).Scan(&count); err != nil {
		return false, fmt.Errorf("error checking unlock: %w", err)
	}

	return count > 0, nil
}

// ListByUser returns all of a user's unlocks, newest first
func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Unlock, error) {
	query := `
		SELECT user_id, book_id, unlocked_at
		FROM unlocks
		WHERE user_id = ?
		ORDER BY unlocked_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying unlocks: %w", err)
	}
	defer rows.Close()

	var unlocks []*entities.Unlock
	for rows.Next() {
		var unlock entities.Unlock
		var unlockedAt string

		if err := rows.Scan(&unlock.UserID, &unlock.BookID, &unlockedAt); err != nil {
			return nil, fmt.Errorf("error scanning unlock row: %w", err)
		}

		if unlock.UnlockedAt, err = parseTimestamp(unlockedAt); err != nil {
			return nil, err
		}

		unlocks = append(unlocks, &unlock)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unlock rows: %w", err)
	}

	return unlocks, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
