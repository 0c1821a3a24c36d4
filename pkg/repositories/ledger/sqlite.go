package ledger

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
	_ "github.com/mattn/go-sqlite3"
)

// SQLite table schemas
const (
	createWalletsTableSQL = `
	CREATE TABLE IF NOT EXISTS wallets (
		user_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

	createTransactionsTableSQL = `
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		type TEXT NOT NULL,
		reference_id TEXT,
		description TEXT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		balance_after INTEGER NOT NULL,
		FOREIGN KEY (user_id) REFERENCES wallets(user_id)
	)`

	createTransactionIndexesSQL = `
	CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
	CREATE INDEX IF NOT EXISTS idx_transactions_type ON transactions(type);
	CREATE INDEX IF NOT EXISTS idx_transactions_created_at ON transactions(created_at DESC)
	`
)

// timestampFormats covers the layouts SQLite may hand back
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
	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	// Open database
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

// NewSQLiteRepositoryWithDB creates a repository on an existing connection,
// allowing multiple repositories to share one database file
func NewSQLiteRepositoryWithDB(db *sql.DB) (*SQLiteRepository, error) {
	if _, err := db.Exec(createWalletsTableSQL); err != nil {
		return nil, fmt.Errorf("error creating wallets table: %w", err)
	}

	if _, err := db.Exec(createTransactionsTableSQL); err != nil {
		return nil, fmt.Errorf("error creating transactions table: %w", err)
	}

	if _, err := db.Exec(createTransactionIndexesSQL); err != nil {
		return nil, fmt.Errorf("error creating transaction indexes: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// GetWallet retrieves a wallet by user ID
func (r *SQLiteRepository) GetWallet(ctx context.Context, userID string) (*entities.Wallet, error) {
	query := `SELECT user_id, balance, created_at, updated_at FROM wallets WHERE user_id = ?`

	var wallet entities.Wallet
	var createdAt, updatedAt string

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&wallet.UserID,
		&wallet.Balance,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("error getting wallet: %w", err)
	}

	if wallet.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if wallet.LastUpdated, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}

	return &wallet, nil
}

// GetOrCreateWallet returns the user's wallet, creating an empty one if none
// exists. The primary key on user_id makes concurrent creation safe.
func (r *SQLiteRepository) GetOrCreateWallet(ctx context.Context, userID string) (*entities.Wallet, error) {
	now := formatTimestamp(time.Now())

	query := `
		INSERT INTO wallets (user_id, balance, created_at, updated_at)
		VALUES (?, 0, ?, ?)
		ON CONFLICT(user_id) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, userID, now, now); err != nil {
		return nil, fmt.Errorf("error creating wallet: %w", err)
	}

	return r.GetWallet(ctx, userID)
}

// ApplyChange atomically adjusts the balance and records the transaction.
// Both writes happen in one database transaction so a balance change can
// never be observed without its transaction record, or vice versa.
func (r *SQLiteRepository) ApplyChange(ctx context.Context, change *Change) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := formatTimestamp(time.Now())

	// The balance guard rejects overdrafts at the database level, closing
	// the read-check-write race without a separate SELECT
	result, err := tx.ExecContext(ctx, `
		UPDATE wallets
		SET balance = balance + ?,
			updated_at = ?
		WHERE user_id = ? AND balance + ? >= 0
	`, change.Amount, now, change.UserID, change.Amount)
	if err != nil {
		return 0, fmt.Errorf("error updating balance: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Distinguish a missing wallet from an overdraft
		var balance int64
		err := tx.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE user_id = ?`, change.UserID).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrWalletNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("error checking wallet: %w", err)
		}
		return 0, ErrInsufficientBalance
	}

	var newBalance int64
	if err := tx.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE user_id = ?`, change.UserID).Scan(&newBalance); err != nil {
		return 0, fmt.Errorf("error reading new balance: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, user_id, amount, type, reference_id, description, created_at, balance_after
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.New().String(),
		change.UserID,
		change.Amount,
		change.Type,
		change.ReferenceID,
		change.Description,
		now,
		newBalance,
	)
	if err != nil {
		return 0, fmt.Errorf("error recording transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing change: %w", err)
	}

	return newBalance, nil
}

// GetTransactions retrieves recent transactions for a user, newest first
func (r *SQLiteRepository) GetTransactions(ctx context.Context, userID string, limit int) ([]*entities.Transaction, error) {
	query := `
		SELECT id, user_id, amount, type, reference_id, description, created_at, balance_after
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetTransactionsByType retrieves transactions of a specific type
func (r *SQLiteRepository) GetTransactionsByType(ctx context.Context, userID string, transactionType entities.TransactionType, limit int) ([]*entities.Transaction, error) {
	query := `
		SELECT id, user_id, amount, type, reference_id, description, created_at, balance_after
		FROM transactions
		WHERE user_id = ? AND type = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, userID, transactionType, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions by type: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

func scanTransactions(rows *sql.Rows) ([]*entities.Transaction, error) {
	var transactions []*entities.Transaction

	for rows.Next() {
		var tx entities.Transaction
		var createdAt string

		err := rows.Scan(
			&tx.ID,
			&tx.UserID,
			&tx.Amount,
			&tx.Type,
			&tx.ReferenceID,
			&tx.Description,
			&createdAt,
			&tx.BalanceAfter,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning transaction row: %w", err)
		}

		if tx.Timestamp, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}

		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
