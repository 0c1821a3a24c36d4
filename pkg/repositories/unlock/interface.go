package unlock

import (
	"context"
	"errors"

	"github.com/fadedpez/inkwell/pkg/entities"
)

var (
	// ErrUnlockExists is returned when an unlock already exists for the
	// (user, book) pair. The uniqueness constraint is the last line of
	// defense against a double charge.
	ErrUnlockExists = errors.New("unlock already exists")
)

// Repository defines the interface for unlock record data operations
type Repository interface {
	// Create inserts a new unlock record. Fails with ErrUnlockExists if the
	// (user, book) pair already has one.
	Create(ctx context.Context, unlock *entities.Unlock) error

	// Exists reports whether the user has unlocked the book
	Exists(ctx context.Context, userID, bookID string) (bool, error)

	// ListByUser returns all of a user's unlocks, newest first
	ListByUser(ctx context.Context, userID string) ([]*entities.Unlock, error)

	// Close releases any resources held by the repository
	Close() error
}
