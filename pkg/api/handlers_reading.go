package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fadedpez/inkwell/pkg/archive"
)

type recordReadingRequest struct {
	BookID      string `json:"book_id"`
	MinutesRead int64  `json:"minutes_read"`
	Chapter     int    `json:"chapter"`
}

func (s *Server) handleRecordReading(w http.ResponseWriter, r *http.Request) {
	var req recordReadingRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	userID := userFrom(r)
	streak, err := s.progression.RecordReading(r.Context(), userID, req.BookID, req.MinutesRead, req.Chapter)
	if err != nil {
		s.writeError(w, err)
		return
	}

	readingSessionsTotal.Inc()

	if s.archive != nil {
		doc := &archive.ReadingSessionDoc{
			UserID:      userID,
			BookID:      req.BookID,
			MinutesRead: req.MinutesRead,
			Chapter:     req.Chapter,
			ReadAt:      time.Now(),
		}
		if err := s.archive.IndexReadingSession(r.Context(), doc); err != nil && s.logger != nil {
			s.logger.Warn("failed to archive reading session for %s: %v", userID, err)
		}
	}

	writeJSON(w, http.StatusOK, toStreakResponse(streak))
}

func (s *Server) handleGetStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := s.progression.GetStreak(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toStreakResponse(streak))
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")
	progress, err := s.progression.GetProgress(r.Context(), userFrom(r), bookID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if progress == nil {
		writeJSON(w, http.StatusOK, progressResponse{BookID: bookID})
		return
	}

	writeJSON(w, http.StatusOK, progressResponse{
		BookID:         progress.BookID,
		CurrentChapter: progress.CurrentChapter,
		TotalReadTime:  progress.TotalReadTime,
		Completed:      progress.Completed,
		LastReadAt:     progress.LastReadAt,
	})
}

func (s *Server) handleMarkCompleted(w http.ResponseWriter, r *http.Request) {
	if err := s.progression.MarkCompleted(r.Context(), userFrom(r), chi.URLParam(r, "bookID")); err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"completed": true})
}
