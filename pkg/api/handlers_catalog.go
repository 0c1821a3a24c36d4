package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fadedpez/inkwell/pkg/entities"
)

type createBookRequest struct {
	Title      string   `json:"title"`
	CoverImage string   `json:"cover_image"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	Summary    string   `json:"summary"`
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req createBookRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	book, err := s.catalog.CreateBook(r.Context(), userFrom(r), &entities.Book{
		Title:      req.Title,
		CoverImage: req.CoverImage,
		Category:   req.Category,
		Tags:       req.Tags,
		Summary:    req.Summary,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookResponse(book))
}

func (s *Server) handlePublishBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.catalog.PublishBook(r.Context(), userFrom(r), chi.URLParam(r, "bookID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(book))
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	book, err := s.catalog.GetBook(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(book))
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	books, err := s.catalog.ListBooks(r.Context(), r.URL.Query().Get("category"), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponses(books))
}

func (s *Server) handleListOwnBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.catalog.ListBooksByAuthor(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponses(books))
}

type addChapterRequest struct {
	ChapterNumber int    `json:"chapter_number"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	IsFree        bool   `json:"is_free"`
	WordCount     int    `json:"word_count"`
}

func (s *Server) handleAddChapter(w http.ResponseWriter, r *http.Request) {
	var req addChapterRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	chapter, err := s.catalog.AddChapter(r.Context(), userFrom(r), &entities.Chapter{
		BookID:        chi.URLParam(r, "bookID"),
		ChapterNumber: req.ChapterNumber,
		Title:         req.Title,
		Content:       req.Content,
		IsFree:        req.IsFree,
		WordCount:     req.WordCount,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toChapterResponse(chapter))
}

func (s *Server) handleListChapters(w http.ResponseWriter, r *http.Request) {
	chapters, err := s.catalog.ListChapters(r.Context(), userFrom(r), chi.URLParam(r, "bookID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]chapterResponse, 0, len(chapters))
	for _, chapter := range chapters {
		out = append(out, toChapterResponse(chapter))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReadChapter(w http.ResponseWriter, r *http.Request) {
	chapter, err := s.catalog.ReadChapter(r.Context(), userFrom(r), chi.URLParam(r, "chapterID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChapterResponse(chapter))
}

type saveReviewRequest struct {
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

func (s *Server) handleSaveReview(w http.ResponseWriter, r *http.Request) {
	var req saveReviewRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	review, err := s.catalog.SaveReview(r.Context(), &entities.Review{
		UserID:     userFrom(r),
		BookID:     chi.URLParam(r, "bookID"),
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reviewResponse{
		UserID:     review.UserID,
		Rating:     review.Rating,
		ReviewText: review.ReviewText,
		CreatedAt:  review.CreatedAt,
	})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := s.catalog.ListReviews(r.Context(), chi.URLParam(r, "bookID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponses(reviews))
}

type createBookmarkRequest struct {
	BookID        string `json:"book_id"`
	ChapterNumber int    `json:"chapter_number"`
}

func (s *Server) handleCreateBookmark(w http.ResponseWriter, r *http.Request) {
	var req createBookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	bookmark, err := s.catalog.CreateBookmark(r.Context(), &entities.Bookmark{
		UserID:        userFrom(r),
		BookID:        req.BookID,
		ChapterNumber: req.ChapterNumber,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, bookmarkResponse{
		ID:            bookmark.ID,
		BookID:        bookmark.BookID,
		ChapterNumber: bookmark.ChapterNumber,
		CreatedAt:     bookmark.CreatedAt,
	})
}

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	bookmarks, err := s.catalog.ListBookmarks(r.Context(), userFrom(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]bookmarkResponse, 0, len(bookmarks))
	for _, bookmark := range bookmarks {
		out = append(out, bookmarkResponse{
			ID:            bookmark.ID,
			BookID:        bookmark.BookID,
			ChapterNumber: bookmark.ChapterNumber,
			CreatedAt:     bookmark.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
