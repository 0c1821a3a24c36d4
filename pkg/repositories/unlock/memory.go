package unlock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fadedpez/inkwell/pkg/entities"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	unlocks map[string]map[string]*entities.Unlock // userID -> bookID -> unlock
	mu      sync.RWMutex
}

// NewMemoryRepository creates a new in-memory unlock repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		unlocks: make(map[string]map[string]*entities.Unlock),
	}
}

// Create inserts a new unlock record
func (r *MemoryRepository) Create(ctx context.Context, unlock *entities.Unlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byBook, exists := r.unlocks[unlock.UserID]
	if !exists {
		byBook = make(map[string]*entities.Unlock)
		r.unlocks[unlock.UserID] = byBook
	}

	if _, exists := byBook[unlock.BookID]; exists {
		return ErrUnlockExists
	}

	unlockCopy := *unlock
	if unlockCopy.UnlockedAt.IsZero() {
		unlockCopy.UnlockedAt = time.Now()
	}
	byBook[unlock.BookID] = &unlockCopy

	return nil
}

// Exists reports whether the user has unlocked the book
func (r *MemoryRepository) Exists(ctx context.Context, userID, bookID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byBook, exists := r.unlocks[userID]
	if !exists {
		return false, nil
	}

	_, exists = byBook[bookID]
	return exists, nil
}

// ListByUser returns all of a user's unlocks, newest first
func (r *MemoryRepository) ListByUser(ctx context.Context, userID string) ([]*entities.Unlock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byBook, exists := r.unlocks[userID]
	if !exists {
		return make([]*entities.Unlock, 0), nil
	}

	result := make([]*entities.Unlock, 0, len(byBook))
	for _, unlock := range byBook {
		unlockCopy := *unlock
		result = append(result, &unlockCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].UnlockedAt.After(result[j].UnlockedAt)
	})

	return result, nil
}

// Close implements Repository
func (r *MemoryRepository) Close() error {
	return nil
}
