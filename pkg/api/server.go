// Package api exposes the platform over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fadedpez/inkwell/internal/logging"
	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/archive"
	catalogService "github.com/fadedpez/inkwell/pkg/services/catalog"
	ledgerService "github.com/fadedpez/inkwell/pkg/services/ledger"
	progressionService "github.com/fadedpez/inkwell/pkg/services/progression"
	referralService "github.com/fadedpez/inkwell/pkg/services/referral"
	rewardService "github.com/fadedpez/inkwell/pkg/services/reward"
	unlockService "github.com/fadedpez/inkwell/pkg/services/unlock"
)

// Server is the platform HTTP API server
type Server struct {
	ledger      *ledgerService.Service
	catalog     *catalogService.Service
	unlocks     *unlockService.Service
	progression *progressionService.Service
	rewards     *rewardService.Service
	referrals   *referralService.Service
	archive     *archive.Archive // nil when archiving is disabled
	logger      *logging.Logger

	metricsEnabled bool
}

// NewServer creates a new API server
func NewServer(
	ledger *ledgerService.Service,
	catalog *catalogService.Service,
	unlocks *unlockService.Service,
	progression *progressionService.Service,
	rewards *rewardService.Service,
	referrals *referralService.Service,
	logger *logging.Logger,
) *Server {
	return &Server{
		ledger:      ledger,
		catalog:     catalog,
		unlocks:     unlocks,
		progression: progression,
		rewards:     rewards,
		referrals:   referrals,
		logger:      logger,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetArchive wires the optional Elasticsearch archive
func (s *Server) SetArchive(a *archive.Archive) { s.archive = a }

// Handler returns the chi router with all routes mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public catalog browsing
		r.Get("/books", s.handleListBooks)
		r.Get("/books/{bookID}", s.handleGetBook)
		r.Get("/books/{bookID}/reviews", s.handleListReviews)

		// Everything else requires an identified caller
		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/wallet", s.handleGetWallet)
			r.Post("/wallet/deposit", s.handleDeposit)
			r.Get("/wallet/transactions", s.handleListTransactions)

			r.Post("/books", s.handleCreateBook)
			r.Post("/books/{bookID}/publish", s.handlePublishBook)
			r.Get("/books/{bookID}/chapters", s.handleListChapters)
			r.Post("/books/{bookID}/chapters", s.handleAddChapter)
			r.Get("/chapters/{chapterID}", s.handleReadChapter)
			r.Get("/me/books", s.handleListOwnBooks)

			r.Post("/books/{bookID}/unlock", s.handleUnlockBook)
			r.Get("/books/{bookID}/unlocked", s.handleIsUnlocked)
			r.Get("/unlocks", s.handleListUnlocks)

			r.Post("/books/{bookID}/reviews", s.handleSaveReview)
			r.Post("/bookmarks", s.handleCreateBookmark)
			r.Get("/bookmarks", s.handleListBookmarks)

			r.Post("/reading/sessions", s.handleRecordReading)
			r.Get("/reading/streak", s.handleGetStreak)
			r.Get("/reading/progress/{bookID}", s.handleGetProgress)
			r.Post("/reading/progress/{bookID}/complete", s.handleMarkCompleted)

			r.Post("/rewards/claim", s.handleClaimReward)
			r.Post("/badges", s.handleEarnBadge)
			r.Get("/badges", s.handleListBadges)

			r.Post("/referrals/code", s.handleIssueReferralCode)
			r.Post("/referrals/redeem", s.handleRedeemReferralCode)
			r.Get("/referrals/stats", s.handleReferralStats)
		})
	})

	return r
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusForCode maps platform error codes to HTTP status codes
func statusForCode(code types.ErrorCode) int {
	switch code {
	case types.ErrUnauthenticated:
		return http.StatusUnauthorized
	case types.ErrUnauthorized:
		return http.StatusForbidden
	case types.ErrNotFound:
		return http.StatusNotFound
	case types.ErrInvalidInput:
		return http.StatusBadRequest
	case types.ErrInsufficientBalance:
		return http.StatusPaymentRequired
	case types.ErrAlreadyClaimed, types.ErrNotEligible:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps a service error onto the wire. Internal detail stays in
// the logs, not in the response body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var platformErr *types.PlatformError
	if !types.As(err, &platformErr) {
		platformErr = types.WrapError(types.ErrInternalError, "internal error", err)
	}

	status := statusForCode(platformErr.Code)
	if status == http.StatusInternalServerError && s.logger != nil {
		s.logger.LogError(err)
	}

	message := platformErr.Message
	if status == http.StatusInternalServerError {
		message = "internal error"
	}

	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    string(platformErr.Code),
			"message": message,
		},
	})
}

// decodeJSON parses a request body, limiting its size
func decodeJSON(r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return types.WrapError(types.ErrInvalidInput, "invalid request body", err)
	}
	return nil
}
