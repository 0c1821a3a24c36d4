package referral

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
	createReferralsTableSQL = `
	CREATE TABLE IF NOT EXISTS referrals (
		id TEXT PRIMARY KEY,
		referrer_id TEXT NOT NULL,
		referred_user_id TEXT,
		referral_code TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP
	)`

	createReferralIndexesSQL = `
	CREATE INDEX IF NOT EXISTS idx_referrals_referrer_id ON referrals(referrer_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_referrals_code ON referrals(referral_code) WHERE referral_code <> '';
	CREATE INDEX IF NOT EXISTS idx_referrals_referred_user ON referrals(referred_user_id)
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
	if _, err := db.Exec(createReferralsTableSQL); err != nil {
		return nil, fmt.Errorf("error creating referrals table: %w", err)
	}

	if _, err := db.Exec(createReferralIndexesSQL); err != nil {
		return nil, fmt.Errorf("error creating referral indexes: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

const selectReferralSQL = `
	SELECT id, referrer_id, referred_user_id, referral_code, status, created_at, completed_at
	FROM referrals
`

func (r *SQLiteRepository) scanReferral(row *sql.Row) (*entities.Referral, error) {
	var referral entities.Referral
	var referredUserID, referralCode, completedAt sql.NullString
	var createdAt string

	err := row.Scan(
		&referral.ID,
		&referral.ReferrerID,
		&referredUserID,
		&referralCode,
		&referral.Status,
		&createdAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReferralNotFound
		}
		return nil, fmt.Errorf("error getting referral: %w", err)
	}

	referral.ReferredUserID = referredUserID.String
	referral.ReferralCode = referralCode.String

	if referral.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if completedAt.Valid && completedAt.String != "" {
		if referral.CompletedAt, err = parseTimestamp(completedAt.String); err != nil {
			return nil, err
		}
	}

	return &referral, nil
}

// GetByReferrer retrieves the referrer's oldest referral record, which is
// the one holding their invite code
func (r *SQLiteRepository) GetByReferrer(ctx context.Context, referrerID string) (*entities.Referral, error) {
	row := r.db.QueryRowContext(ctx, selectReferralSQL+` WHERE referrer_id = ? ORDER BY created_at ASC, rowid ASC LIMIT 1`, referrerID)
	return r.scanReferral(row)
}

// GetByCode retrieves a referral by its code
func (r *SQLiteRepository) GetByCode(ctx context.Context, code string) (*entities.Referral, error) {
	row := r.db.QueryRowContext(ctx, selectReferralSQL+` WHERE referral_code = ?`, code)
	return r.scanReferral(row)
}

// GetByReferredUser retrieves the referral that converted the given user
func (r *SQLiteRepository) GetByReferredUser(ctx context.Context, referredUserID string) (*entities.Referral, error) {
	row := r.db.QueryRowContext(ctx, selectReferralSQL+` WHERE referred_user_id = ? LIMIT 1`, referredUserID)
	return r.scanReferral(row)
}

// Create persists a new referral
func (r *SQLiteRepository) Create(ctx context.Context, referral *entities.Referral) error {
	id := referral.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := referral.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var completedAt interface{}
	if !referral.CompletedAt.IsZero() {
		completedAt = formatTimestamp(referral.CompletedAt)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO referrals (id, referrer_id, referred_user_id, referral_code, status, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		referral.ReferrerID,
		referral.ReferredUserID,
		referral.ReferralCode,
		referral.Status,
		formatTimestamp(createdAt),
		completedAt,
	)
	if err != nil {
		if sqliteErr, ok := err.(sqlite3.Error); ok && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrCodeExists
		}
		return fmt.Errorf("error creating referral: %w", err)
	}

	referral.ID = id
	return nil
}

// Update saves funnel status changes for an existing referral
func (r *SQLiteRepository) Update(ctx context.Context, referral *entities.Referral) error {
	var completedAt interface{}
	if !referral.CompletedAt.IsZero() {
		completedAt = formatTimestamp(referral.CompletedAt)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE referrals
		SET referred_user_id = ?,
			status = ?,
			completed_at = ?
		WHERE id = ?
	`,
		referral.ReferredUserID,
		referral.Status,
		completedAt,
		referral.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating referral: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrReferralNotFound
	}

	return nil
}

// ListByReferrer returns all referral records owned by the referrer
func (r *SQLiteRepository) ListByReferrer(ctx context.Context, referrerID string) ([]*entities.Referral, error) {
	rows, err := r.db.QueryContext(ctx, selectReferralSQL+` WHERE referrer_id = ? ORDER BY created_at ASC, rowid ASC`, referrerID)
	if err != nil {
		return nil, fmt.Errorf("error querying referrals: %w", err)
	}
	defer rows.Close()

	referrals := make([]*entities.Referral, 0)
	for rows.Next() {
		var referral entities.Referral
		var referredUserID, referralCode, completedAt sql.NullString
		var createdAt string

		err := rows.Scan(
			&referral.ID,
			&referral.ReferrerID,
			&referredUserID,
			&referralCode,
			&referral.Status,
			&createdAt,
			&completedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning referral row: %w", err)
		}

		referral.ReferredUserID = referredUserID.String
		referral.ReferralCode = referralCode.String

		if referral.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		if completedAt.Valid && completedAt.String != "" {
			if referral.CompletedAt, err = parseTimestamp(completedAt.String); err != nil {
				return nil, err
			}
		}

		referrals = append(referrals, &referral)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referral rows: %w", err)
	}

	return referrals, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
