package catalog

import (
	"context"
	"errors"

	"github.com/fadedpez/inkwell/pkg/entities"
)

var (
	ErrBookNotFound    = errors.New("book not found")
	ErrChapterNotFound = errors.New("chapter not found")
)

// Repository defines the interface for catalog data operations
type Repository interface {
	// CreateBook persists a new book
	CreateBook(ctx context.Context, book *entities.Book) error

	// GetBook retrieves a book by ID
	GetBook(ctx context.Context, bookID string) (*entities.Book, error)

	// UpdateBook saves changes to an existing book
	UpdateBook(ctx context.Context, book *entities.Book) error

	// ListBooks returns published books, newest first, optionally filtered
	// by category
	ListBooks(ctx context.Context, category string, limit int) ([]*entities.Book, error)

	// ListBooksByAuthor returns all of an author's books, newest first
	ListBooksByAuthor(ctx context.Context, authorID string) ([]*entities.Book, error)

	// CreateChapter persists a new chapter
	CreateChapter(ctx context.Context, chapter *entities.Chapter) error

	// GetChapter retrieves a chapter by ID
	GetChapter(ctx context.Context, chapterID string) (*entities.Chapter, error)

	// ListChapters returns a book's chapters in reading order
	ListChapters(ctx context.Context, bookID string) ([]*entities.Chapter, error)

	// SaveReview inserts or replaces the user's review of a book
	SaveReview(ctx context.Context, review *entities.Review) error

	// ListReviews returns a book's reviews, newest first
	ListReviews(ctx context.Context, bookID string) ([]*entities.Review, error)

	// CreateBookmark persists a bookmark
	CreateBookmark(ctx context.Context, bookmark *entities.Bookmark) error

	// ListBookmarks returns a user's bookmarks, newest first
	ListBookmarks(ctx context.Context, userID string) ([]*entities.Bookmark, error)

	// Close releases any resources held by the repository
	Close() error
}
