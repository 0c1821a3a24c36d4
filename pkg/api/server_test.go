package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fadedpez/inkwell/internal/config"
	"github.com/fadedpez/inkwell/internal/logging"
	"github.com/fadedpez/inkwell/pkg/locks"
	catalogRepo "github.com/fadedpez/inkwell/pkg/repositories/catalog"
	ledgerRepo "github.com/fadedpez/inkwell/pkg/repositories/ledger"
	progressionRepo "github.com/fadedpez/inkwell/pkg/repositories/progression"
	referralRepo "github.com/fadedpez/inkwell/pkg/repositories/referral"
	unlockRepo "github.com/fadedpez/inkwell/pkg/repositories/unlock"
	catalogService "github.com/fadedpez/inkwell/pkg/services/catalog"
	ledgerService "github.com/fadedpez/inkwell/pkg/services/ledger"
	progressionService "github.com/fadedpez/inkwell/pkg/services/progression"
	referralService "github.com/fadedpez/inkwell/pkg/services/referral"
	rewardService "github.com/fadedpez/inkwell/pkg/services/reward"
	unlockService "github.com/fadedpez/inkwell/pkg/services/unlock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer wires the full stack over in-memory repositories
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	economy := config.DefaultEconomy()
	userLocks := locks.NewUserLocks()

	catalogStore := catalogRepo.NewMemoryRepository()
	progressionStore := progressionRepo.NewMemoryRepository()

	ledger := ledgerService.NewService(ledgerRepo.NewMemoryRepository())
	unlocks := unlockService.NewService(unlockRepo.NewMemoryRepository(), ledger, catalogStore, userLocks, economy.UnlockPrice)
	catalog := catalogService.NewService(catalogStore, unlocks)
	progression := progressionService.NewService(progressionStore, userLocks)
	rewards := rewardService.NewService(progressionStore, ledger, userLocks, economy)
	referrals := referralService.NewService(referralRepo.NewMemoryRepository(), ledger, userLocks, economy)

	server := NewServer(ledger, catalog, unlocks, progression, rewards, referrals, logging.NewLogger(logging.ERROR))

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// call performs a JSON request as the given user and decodes the response
func call(t *testing.T, ts *httptest.Server, method, path, userID string, body interface{}, out interface{}) int {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, &reqBody)
	require.NoError(t, err)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}

	return res.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	var body map[string]string
	status := call(t, ts, http.MethodGet, "/health", "", nil, &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestAuthenticatedRoutesRejectAnonymous(t *testing.T) {
	ts := newTestServer(t)

	status := call(t, ts, http.MethodGet, "/api/v1/wallet", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestWalletDepositAndBalance(t *testing.T) {
	ts := newTestServer(t)

	var deposit map[string]int64
	status := call(t, ts, http.MethodPost, "/api/v1/wallet/deposit", "reader1",
		map[string]interface{}{"amount": 300, "description": "top up"}, &deposit)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(300), deposit["balance"])

	var wallet walletResponse
	status = call(t, ts, http.MethodGet, "/api/v1/wallet", "reader1", nil, &wallet)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(300), wallet.Balance)

	// Invalid amounts are rejected at the door
	status = call(t, ts, http.MethodPost, "/api/v1/wallet/deposit", "reader1",
		map[string]interface{}{"amount": -5}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

// publishBookWithChapter sets up an author with a published one-chapter book
func publishBookWithChapter(t *testing.T, ts *httptest.Server, authorID string) (bookID, chapterID string) {
	t.Helper()

	var book bookResponse
	status := call(t, ts, http.MethodPost, "/api/v1/books", authorID,
		map[string]interface{}{"title": "The Long Road", "category": "fantasy"}, &book)
	require.Equal(t, http.StatusCreated, status)

	status = call(t, ts, http.MethodPost, "/api/v1/books/"+book.ID+"/publish", authorID, nil, nil)
	require.Equal(t, http.StatusOK, status)

	var chapter chapterResponse
	status = call(t, ts, http.MethodPost, "/api/v1/books/"+book.ID+"/chapters", authorID,
		map[string]interface{}{"chapter_number": 1, "title": "Setting Out", "content": "The road goes ever on."}, &chapter)
	require.Equal(t, http.StatusCreated, status)

	return book.ID, chapter.ID
}

func TestUnlockFlow(t *testing.T) {
	ts := newTestServer(t)
	bookID, chapterID := publishBookWithChapter(t, ts, "author1")

	// Locked chapter is forbidden
	status := call(t, ts, http.MethodGet, "/api/v1/chapters/"+chapterID, "reader1", nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Unlock fails without funds
	status = call(t, ts, http.MethodPost, "/api/v1/books/"+bookID+"/unlock", "reader1", nil, nil)
	assert.Equal(t, http.StatusPaymentRequired, status)

	// Deposit, then unlock
	status = call(t, ts, http.MethodPost, "/api/v1/wallet/deposit", "reader1",
		map[string]interface{}{"amount": 150}, nil)
	require.Equal(t, http.StatusOK, status)

	var unlock map[string]interface{}
	status = call(t, ts, http.MethodPost, "/api/v1/books/"+bookID+"/unlock", "reader1", nil, &unlock)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, unlock["charged"])

	// Retried unlock does not charge again
	status = call(t, ts, http.MethodPost, "/api/v1/books/"+bookID+"/unlock", "reader1", nil, &unlock)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, unlock["charged"])

	var wallet walletResponse
	call(t, ts, http.MethodGet, "/api/v1/wallet", "reader1", nil, &wallet)
	assert.Equal(t, int64(50), wallet.Balance)

	// Chapter now readable
	var chapter chapterResponse
	status = call(t, ts, http.MethodGet, "/api/v1/chapters/"+chapterID, "reader1", nil, &chapter)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "The road goes ever on.", chapter.Content)

	// First unlock earned the badge
	var badges []badgeResponse
	call(t, ts, http.MethodGet, "/api/v1/badges", "reader1", nil, &badges)
	require.Len(t, badges, 1)
	assert.Equal(t, "first_unlock", badges[0].BadgeType)
}

func TestReadingAndRewardFlow(t *testing.T) {
	ts := newTestServer(t)
	bookID, _ := publishBookWithChapter(t, ts, "author1")

	var streak streakResponse
	status := call(t, ts, http.MethodPost, "/api/v1/reading/sessions", "reader1",
		map[string]interface{}{"book_id": bookID, "minutes_read": 30, "chapter": 1}, &streak)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, int64(60), streak.XP)

	// Claim the day-1 milestone
	var reward rewardResponse
	status = call(t, ts, http.MethodPost, "/api/v1/rewards/claim", "reader1",
		map[string]interface{}{"day": 1}, &reward)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "streak_1", reward.Type)

	// Claiming the same day again conflicts
	status = call(t, ts, http.MethodPost, "/api/v1/rewards/claim", "reader1",
		map[string]interface{}{"day": 1}, nil)
	assert.Equal(t, http.StatusConflict, status)

	// Unreached milestone conflicts too
	status = call(t, ts, http.MethodPost, "/api/v1/rewards/claim", "reader1",
		map[string]interface{}{"day": 7}, nil)
	assert.Equal(t, http.StatusConflict, status)

	// The wallet got the day-1 bracket
	var wallet walletResponse
	call(t, ts, http.MethodGet, "/api/v1/wallet", "reader1", nil, &wallet)
	assert.Equal(t, int64(5), wallet.Balance)
}

func TestReferralFlow(t *testing.T) {
	ts := newTestServer(t)
	bookID, _ := publishBookWithChapter(t, ts, "author1")

	var code referralCodeResponse
	status := call(t, ts, http.MethodPost, "/api/v1/referrals/code", "referrer1", nil, &code)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, code.Code)

	// New user redeems the code
	status = call(t, ts, http.MethodPost, "/api/v1/referrals/redeem", "newuser1",
		map[string]interface{}{"code": code.Code}, nil)
	require.Equal(t, http.StatusOK, status)

	// Referrer got the signup bonus
	var wallet walletResponse
	call(t, ts, http.MethodGet, "/api/v1/wallet", "referrer1", nil, &wallet)
	assert.Equal(t, int64(10), wallet.Balance)

	// The referred user's first unlock advances the funnel
	status = call(t, ts, http.MethodPost, "/api/v1/wallet/deposit", "newuser1",
		map[string]interface{}{"amount": 100}, nil)
	require.Equal(t, http.StatusOK, status)
	status = call(t, ts, http.MethodPost, "/api/v1/books/"+bookID+"/unlock", "newuser1", nil, nil)
	require.Equal(t, http.StatusOK, status)

	call(t, ts, http.MethodGet, "/api/v1/wallet", "referrer1", nil, &wallet)
	assert.Equal(t, int64(40), wallet.Balance)

	var stats struct {
		TotalReferred int64            `json:"total_referred"`
		TotalEarned   int64            `json:"total_earned"`
		StatusCounts  map[string]int64 `json:"status_counts"`
	}
	status = call(t, ts, http.MethodGet, "/api/v1/referrals/stats", "referrer1", nil, &stats)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(1), stats.TotalReferred)
	assert.Equal(t, int64(30), stats.TotalEarned)
	assert.Equal(t, int64(1), stats.StatusCounts["first_unlock"])
}

func TestReviewValidation(t *testing.T) {
	ts := newTestServer(t)
	bookID, _ := publishBookWithChapter(t, ts, "author1")

	status := call(t, ts, http.MethodPost, fmt.Sprintf("/api/v1/books/%s/reviews", bookID), "reader1",
		map[string]interface{}{"rating": 9}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status = call(t, ts, http.MethodPost, fmt.Sprintf("/api/v1/books/%s/reviews", bookID), "reader1",
		map[string]interface{}{"rating": 5, "review_text": "Loved it"}, nil)
	assert.Equal(t, http.StatusOK, status)

	var reviews []reviewResponse
	status = call(t, ts, http.MethodGet, fmt.Sprintf("/api/v1/books/%s/reviews", bookID), "", nil, &reviews)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestBooksArePublic(t *testing.T) {
	ts := newTestServer(t)
	bookID, _ := publishBookWithChapter(t, ts, "author1")

	// Listing and fetching books needs no identity
	var books []bookResponse
	status := call(t, ts, http.MethodGet, "/api/v1/books", "", nil, &books)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, books, 1)

	var book bookResponse
	status = call(t, ts, http.MethodGet, "/api/v1/books/"+bookID, "", nil, &book)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "The Long Road", book.Title)

	status = call(t, ts, http.MethodGet, "/api/v1/books/does-not-exist", "", nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
