package catalog

import (
	"context"
	"errors"

	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	catalogRepo "github.com/fadedpez/inkwell/pkg/repositories/catalog"
)

const defaultListLimit = 50

// UnlockChecker reports whether a user has paid access to a book. Satisfied
// by the unlock service; kept narrow so the catalog doesn't depend on the
// whole unlock surface.
type UnlockChecker interface {
	IsUnlocked(ctx context.Context, userID, bookID string) (bool, error)
}

// Service handles catalog business logic: books, chapters, reviews and
// bookmarks. Chapter content access is gated on unlocks.
type Service struct {
	repo    catalogRepo.Repository
	unlocks UnlockChecker
}

// NewService creates a new catalog service
func NewService(repo catalogRepo.Repository, unlocks UnlockChecker) *Service {
	return &Service{
		repo:    repo,
		unlocks: unlocks,
	}
}

// CreateBook creates a draft book owned by the author
func (s *Service) CreateBook(ctx context.Context, authorID string, book *entities.Book) (*entities.Book, error) {
	if authorID == "" {
		return nil, types.NewPlatformError(types.ErrUnauthenticated, "author ID is required")
	}
	if book.Title == "" {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "title is required")
	}
	if book.UnlockPrice < 0 {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "unlock price cannot be negative")
	}

	book.AuthorID = authorID
	book.Status = entities.BookStatusDraft

	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to create book", err)
	}

	return book, nil
}

// PublishBook transitions a draft book to published. Only the author may
// publish.
func (s *Service) PublishBook(ctx context.Context, authorID, bookID string) (*entities.Book, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if book.AuthorID != authorID {
		return nil, types.NewPlatformError(types.ErrUnauthorized, "only the author can publish a book")
	}

	if book.Status == entities.BookStatusPublished {
		return book, nil // Already published, nothing to do
	}

	book.Status = entities.BookStatusPublished
	if err := s.repo.UpdateBook(ctx, book); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to publish book", err)
	}

	return book, nil
}

// GetBook retrieves a book by ID
func (s *Service) GetBook(ctx context.Context, bookID string) (*entities.Book, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrBookNotFound) {
			return nil, types.NewPlatformError(types.ErrNotFound, "book not found")
		}
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get book", err)
	}
	return book, nil
}

// ListBooks returns published books, optionally filtered by category
func (s *Service) ListBooks(ctx context.Context, category string, limit int) ([]*entities.Book, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	books, err := s.repo.ListBooks(ctx, category, limit)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to list books", err)
	}
	return books, nil
}

// ListBooksByAuthor returns all of an author's books, drafts included
func (s *Service) ListBooksByAuthor(ctx context.Context, authorID string) ([]*entities.Book, error) {
	books, err := s.repo.ListBooksByAuthor(ctx, authorID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to list author books", err)
	}
	return books, nil
}

// AddChapter appends a chapter to the author's book
func (s *Service) AddChapter(ctx context.Context, authorID string, chapter *entities.Chapter) (*entities.Chapter, error) {
	if chapter.Title == "" {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "chapter title is required")
	}
	if chapter.ChapterNumber < 1 {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "chapter number must be at least 1")
	}

	book, err := s.GetBook(ctx, chapter.BookID)
	if err != nil {
		return nil, err
	}

	if book.AuthorID != authorID {
		return nil, types.NewPlatformError(types.ErrUnauthorized, "only the author can add chapters")
	}

	chapter.AuthorID = authorID
	if err := s.repo.CreateChapter(ctx, chapter); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to create chapter", err)
	}

	return chapter, nil
}

// ListChapters returns a book's chapter list in reading order. Content is
// stripped from chapters the reader has no access to; the list itself is
// always visible.
func (s *Service) ListChapters(ctx context.Context, userID, bookID string) ([]*entities.Chapter, error) {
	book, err := s.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	chapters, err := s.repo.ListChapters(ctx, bookID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to list chapters", err)
	}

	hasAccess, err := s.hasAccess(ctx, userID, book)
	if err != nil {
		return nil, err
	}

	if !hasAccess {
		for _, chapter := range chapters {
			if !chapter.IsFree {
				chapter.Content = ""
			}
		}
	}

	return chapters, nil
}

// ReadChapter returns a chapter with content, enforcing the unlock gate on
// paid chapters
func (s *Service) ReadChapter(ctx context.Context, userID, chapterID string) (*entities.Chapter, error) {
	chapter, err := s.repo.GetChapter(ctx, chapterID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrChapterNotFound) {
			return nil, types.NewPlatformError(types.ErrNotFound, "chapter not found")
		}
		return nil, types.WrapError(types.ErrDatabaseError, "failed to get chapter", err)
	}

	if chapter.IsFree || chapter.AuthorID == userID {
		return chapter, nil
	}

	unlocked, err := s.unlocks.IsUnlocked(ctx, userID, chapter.BookID)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		return nil, types.NewPlatformError(types.ErrUnauthorized, "book is not unlocked")
	}

	return chapter, nil
}

func (s *Service) hasAccess(ctx context.Context, userID string, book *entities.Book) (bool, error) {
	if userID == book.AuthorID {
		return true, nil
	}
	return s.unlocks.IsUnlocked(ctx, userID, book.ID)
}

// SaveReview records or replaces the user's rating of a book
func (s *Service) SaveReview(ctx context.Context, review *entities.Review) (*entities.Review, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "rating must be between 1 and 5")
	}

	if _, err := s.GetBook(ctx, review.BookID); err != nil {
		return nil, err
	}

	if err := s.repo.SaveReview(ctx, review); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to save review", err)
	}

	return review, nil
}

// ListReviews returns a book's reviews, newest first
func (s *Service) ListReviews(ctx context.Context, bookID string) ([]*entities.Review, error) {
	reviews, err := s.repo.ListReviews(ctx, bookID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to list reviews", err)
	}
	return reviews, nil
}

// CreateBookmark saves a position marker in a book
func (s *Service) CreateBookmark(ctx context.Context, bookmark *entities.Bookmark) (*entities.Bookmark, error) {
	if bookmark.ChapterNumber < 1 {
		return nil, types.NewPlatformError(types.ErrInvalidInput, "chapter number must be at least 1")
	}

	if _, err := s.GetBook(ctx, bookmark.BookID); err != nil {
		return nil, err
	}

	if err := s.repo.CreateBookmark(ctx, bookmark); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to create bookmark", err)
	}

	return bookmark, nil
}

// ListBookmarks returns a user's bookmarks, newest first
func (s *Service) ListBookmarks(ctx context.Context, userID string) ([]*entities.Bookmark, error) {
	bookmarks, err := s.repo.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to list bookmarks", err)
	}
	return bookmarks, nil
}
