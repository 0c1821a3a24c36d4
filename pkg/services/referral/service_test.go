package referral

import (
	"context"
	"testing"

	"github.com/fadedpez/inkwell/internal/config"
	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/fadedpez/inkwell/pkg/locks"
	ledgerRepo "github.com/fadedpez/inkwell/pkg/repositories/ledger"
	referralRepo "github.com/fadedpez/inkwell/pkg/repositories/referral"
	ledgerService "github.com/fadedpez/inkwell/pkg/services/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	service *Service
	ledger  *ledgerService.Service
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()

	ledger := ledgerService.NewService(ledgerRepo.NewMemoryRepository())
	service := NewService(referralRepo.NewMemoryRepository(), ledger, locks.NewUserLocks(), config.DefaultEconomy())

	return &fixture{service: service, ledger: ledger}
}

func TestIssueCodeIsStable(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	first, err := f.service.IssueCode(ctx, "referrer1")
	require.NoError(t, err)
	assert.Len(t, first.ReferralCode, codeLength)
	assert.Equal(t, entities.ReferralStatusPending, first.Status)

	// Issuing again returns the same code, not a new one
	second, err := f.service.IssueCode(ctx, "referrer1")
	require.NoError(t, err)
	assert.Equal(t, first.ReferralCode, second.ReferralCode)
}

func TestIssueCodeDistinctPerReferrer(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	first, err := f.service.IssueCode(ctx, "referrer1")
	require.NoError(t, err)
	second, err := f.service.IssueCode(ctx, "referrer2")
	require.NoError(t, err)

	assert.NotEqual(t, first.ReferralCode, second.ReferralCode)
}

func TestApplyCodeCreditsSignupBonus(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	code, err := f.service.IssueCode(ctx, "referrer1")
	require.NoError(t, err)

	conversion, err := f.service.ApplyCode(ctx, "newuser1", code.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, "referrer1", conversion.ReferrerID)
	assert.Equal(t, "newuser1", conversion.ReferredUserID)
	assert.Equal(t, entities.ReferralStatusSignedUp, conversion.Status)

	balance, err := f.ledger.GetBalance(ctx, "referrer1")
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
}

func TestApplyCodeUnknownCode(t *testing.T) {
	f := setupFixture(t)

	_, err := f.service.ApplyCode(context.Background(), "newuser1", "NOSUCH99")
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrNotFound))
}

func TestApplyCodeSelfReferral(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	code, err := f.service.IssueCode(ctx, "referrer1")
	require.NoError(t, err)

	_, err = f.service.ApplyCode(ctx, "referrer1", code.ReferralCode)
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrNotEligible))
}

func TestApplyCodeOncePerUser(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	code1, err := f.service.IssueCode(ctx, "referrer1")
	require.NoError(t, err)
	code2, err := f.service.IssueCode(ctx, "referrer2")
	require.NoError(t, err)

	_, err = f.service.ApplyCode(ctx, "newuser1", code1.ReferralCode)
	require.NoError(t, err)

	// The same user cannot convert through a second code
	_, err = f.service.ApplyCode(ctx, "newuser1", code2.ReferralCode)
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrAlreadyClaimed))

	// Only the first referrer was paid
	balance, err := f.ledger.GetBalance(ctx, "referrer2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestMarkFirstUnlock(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	code, err := f.service.IssueCode(ctx, "referrer1")
	require.NoError(t, err)
	_, err = f.service.ApplyCode(ctx, "newuser1", code.ReferralCode)
	require.NoError(t, err)

	require.NoError(t, f.service.MarkFirstUnlock(ctx, "newuser1"))

	// Signup bonus plus unlock bonus
	balance, err := f.ledger.GetBalance(ctx, "referrer1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)

	// A second unlock never pays twice
	require.NoError(t, f.service.MarkFirstUnlock(ctx, "newuser1"))
	balance, err = f.ledger.GetBalance(ctx, "referrer1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}

func TestMarkFirstUnlockUnreferredUser(t *testing.T) {
	f := setupFixture(t)

	// No-op for users who never used a code
	require.NoError(t, f.service.MarkFirstUnlock(context.Background(), "organic-user"))
}

func TestStats(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	code, err := f.service.IssueCode(ctx, "referrer1")
	require.NoError(t, err)

	// Three conversions; one goes on to a first unlock
	for _, userID := range []string{"newuser1", "newuser2", "newuser3"} {
		_, err = f.service.ApplyCode(ctx, userID, code.ReferralCode)
		require.NoError(t, err)
	}
	require.NoError(t, f.service.MarkFirstUnlock(ctx, "newuser1"))

	stats, err := f.service.Stats(ctx, "referrer1")
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalReferred)
	assert.Equal(t, int64(2), stats.StatusCounts[entities.ReferralStatusSignedUp])
	assert.Equal(t, int64(1), stats.StatusCounts[entities.ReferralStatusFirstUnlock])

	// 2 signed up at 10 each, 1 first unlock at 30
	assert.Equal(t, int64(50), stats.TotalEarned)
}

func TestApplyReward(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	err := f.service.ApplyReward(ctx, "referrer1", 25, "Manual referral adjustment")
	require.NoError(t, err)

	balance, err := f.ledger.GetBalance(ctx, "referrer1")
	require.NoError(t, err)
	assert.Equal(t, int64(25), balance)

	err = f.service.ApplyReward(ctx, "referrer1", 0, "bad")
	assert.True(t, types.IsPlatformError(err, types.ErrInvalidInput))
}

func TestStatsEmpty(t *testing.T) {
	f := setupFixture(t)

	stats, err := f.service.Stats(context.Background(), "nobody")
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalReferred)
	assert.Equal(t, int64(0), stats.TotalEarned)
}
