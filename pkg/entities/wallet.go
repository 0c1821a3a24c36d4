package entities

import (
	"time"
)

// Wallet represents a reader's currency balance
type Wallet struct {
	UserID      string    // Platform user ID
	Balance     int64     // Current balance in the smallest currency unit
	CreatedAt   time.Time // When the wallet was created
	LastUpdated time.Time // When the wallet was last updated
}

// TransactionType represents the type of wallet transaction
type TransactionType string

const (
	TransactionTypeDeposit TransactionType = "deposit"
	TransactionTypeUnlock  TransactionType = "unlock"
	TransactionTypeReward  TransactionType = "reward"
)

// Transaction represents a single wallet transaction
type Transaction struct {
	ID           string          // Unique identifier
	UserID       string          // User associated with the transaction
	Amount       int64           // Amount (positive for credits, negative for debits)
	Type         TransactionType // Type of transaction
	ReferenceID  string          // Optional reference (e.g., book ID for unlocks)
	Description  string          // Human-readable description
	Timestamp    time.Time       // When the transaction occurred
	BalanceAfter int64           // Balance after this transaction
}
