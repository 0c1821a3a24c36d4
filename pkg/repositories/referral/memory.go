package referral

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/google/uuid"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	referrals map[string]*entities.Referral // id -> referral
	byCode    map[string]string             // code -> id of the code-holding record
	mu        sync.RWMutex
}

// NewMemoryRepository creates a new in-memory referral repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		referrals: make(map[string]*entities.Referral),
		byCode:    make(map[string]string),
	}
}

// GetByReferrer retrieves the referrer's oldest referral record, which is
// the one holding their invite code
func (r *MemoryRepository) GetByReferrer(ctx context.Context, referrerID string) (*entities.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var oldest *entities.Referral
	for _, referral := range r.referrals {
		if referral.ReferrerID != referrerID {
			continue
		}
		if oldest == nil || referral.CreatedAt.Before(oldest.CreatedAt) {
			oldest = referral
		}
	}

	if oldest == nil {
		return nil, ErrReferralNotFound
	}

	referralCopy := *oldest
	return &referralCopy, nil
}

// GetByCode retrieves a referral by its code
func (r *MemoryRepository) GetByCode(ctx context.Context, code string) (*entities.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.byCode[code]
	if !exists {
		return nil, ErrReferralNotFound
	}

	referralCopy := *r.referrals[id]
	return &referralCopy, nil
}

// GetByReferredUser retrieves the referral that converted the given user
func (r *MemoryRepository) GetByReferredUser(ctx context.Context, referredUserID string) (*entities.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, referral := range r.referrals {
		if referral.ReferredUserID == referredUserID {
			referralCopy := *referral
			return &referralCopy, nil
		}
	}

	return nil, ErrReferralNotFound
}

// Create persists a new referral
func (r *MemoryRepository) Create(ctx context.Context, referral *entities.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	referralCopy := *referral
	if referralCopy.ID == "" {
		referralCopy.ID = uuid.New().String()
	}
	if referralCopy.CreatedAt.IsZero() {
		referralCopy.CreatedAt = time.Now()
	}

	// Only the code-holding record carries a code; conversion records
	// reference the referrer directly and leave it empty
	if referralCopy.ReferralCode != "" {
		if _, exists := r.byCode[referralCopy.ReferralCode]; exists {
			return ErrCodeExists
		}
		r.byCode[referralCopy.ReferralCode] = referralCopy.ID
	}

	r.referrals[referralCopy.ID] = &referralCopy
	referral.ID = referralCopy.ID

	return nil
}

// Update saves funnel status changes for an existing referral
func (r *MemoryRepository) Update(ctx context.Context, referral *entities.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.referrals[referral.ID]; !exists {
		return ErrReferralNotFound
	}

	referralCopy := *referral
	r.referrals[referral.ID] = &referralCopy

	return nil
}

// ListByReferrer returns all referral records owned by the referrer
func (r *MemoryRepository) ListByReferrer(ctx context.Context, referrerID string) ([]*entities.Referral, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.Referral
	for _, referral := range r.referrals {
		if referral.ReferrerID == referrerID {
			referralCopy := *referral
			result = append(result, &referralCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if result == nil {
		result = make([]*entities.Referral, 0)
	}

	return result, nil
}

// Close implements Repository
func (r *MemoryRepository) Close() error {
	return nil
}
