package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleUnlockBook(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)
	bookID := chi.URLParam(r, "bookID")

	unlock, charged, err := s.unlocks.UnlockBook(r.Context(), userID, bookID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if charged {
		unlocksTotal.Inc()
		s.afterFirstUnlock(r, userID)
		s.archiveLatestTransaction(r, userID)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"book_id":     unlock.BookID,
		"unlocked_at": unlock.UnlockedAt,
		"charged":     charged,
	})
}

// afterFirstUnlock runs the best-effort follow-ups to a paid unlock: the
// first-unlock badge and the referral funnel advance. Neither can fail the
// unlock itself; the unlock is already final.
func (s *Server) afterFirstUnlock(r *http.Request, userID string) {
	ctx := r.Context()

	if _, err := s.rewards.EarnBadge(ctx, userID, "first_unlock"); err != nil && s.logger != nil {
		s.logger.Warn("failed to award first_unlock badge to %s: %v", userID, err)
	}

	if err := s.referrals.MarkFirstUnlock(ctx, userID); err != nil && s.logger != nil {
		s.logger.Warn("failed to advance referral funnel for %s: %v", userID, err)
	}
}

func (s *Server) handleIsUnlocked(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	unlocked, err := s.unlocks.IsUnlocked(r.Context(), userFrom(r), bookID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"book_id":  bookID,
		"unlocked": unlocked,
	})
}

func (s *Server) handleListUnlocks(w http.ResponseWriter, r *http.Request) {
	unlocks, err := s.unlocks.ListUnlocks(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]unlockResponse, 0, len(unlocks))
	for _, unlock := range unlocks {
		out = append(out, unlockResponse{
			BookID:     unlock.BookID,
			UnlockedAt: unlock.UnlockedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
