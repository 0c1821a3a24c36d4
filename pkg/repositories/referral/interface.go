package referral

import (
	"context"
	"errors"

	"github.com/fadedpez/inkwell/pkg/entities"
)

var (
	ErrReferralNotFound = errors.New("referral not found")

	// ErrCodeExists is returned when a generated referral code collides
	// with an existing one. Callers regenerate and retry.
	ErrCodeExists = errors.New("referral code already exists")
)

// Repository defines the interface for referral data operations
type Repository interface {
	// GetByReferrer retrieves the referrer's referral record
	GetByReferrer(ctx context.Context, referrerID string) (*entities.Referral, error)

	// GetByCode retrieves a referral by its code
	GetByCode(ctx context.Context, code string) (*entities.Referral, error)

	// GetByReferredUser retrieves the referral that converted the given user
	GetByReferredUser(ctx context.Context, referredUserID string) (*entities.Referral, error)

	// Create persists a new referral. Fails with ErrCodeExists on a code
	// collision; the global uniqueness constraint is what makes generated
	// codes trustworthy.
	Create(ctx context.Context, referral *entities.Referral) error

	// Update saves funnel status changes for an existing referral
	Update(ctx context.Context, referral *entities.Referral) error

	// ListByReferrer returns all referral records owned by the referrer
	ListByReferrer(ctx context.Context, referrerID string) ([]*entities.Referral, error)

	// Close releases any resources held by the repository
	Close() error
}
