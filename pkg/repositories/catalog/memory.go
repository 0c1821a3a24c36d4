package catalog

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
	books     map[string]*entities.Book
	chapters  map[string]*entities.Chapter
	reviews   map[string]map[string]*entities.Review // bookID -> userID -> review
	bookmarks map[string][]*entities.Bookmark        // userID -> bookmarks
	mu        sync.RWMutex
}

// NewMemoryRepository creates a new in-memory catalog repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		books:     make(map[string]*entities.Book),
		chapters:  make(map[string]*entities.Chapter),
		reviews:   make(map[string]map[string]*entities.Review),
		bookmarks: make(map[string][]*entities.Bookmark),
	}
}

// CreateBook persists a new book
func (r *MemoryRepository) CreateBook(ctx context.Context, book *entities.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bookCopy := *book
	if bookCopy.ID == "" {
		bookCopy.ID = uuid.New().String()
	}
	now := time.Now()
	if bookCopy.CreatedAt.IsZero() {
		bookCopy.CreatedAt = now
	}
	bookCopy.UpdatedAt = now

	r.books[bookCopy.ID] = &bookCopy
	book.ID = bookCopy.ID

	return nil
}

// GetBook retrieves a book by ID
func (r *MemoryRepository) GetBook(ctx context.Context, bookID string) (*entities.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	book, exists := r.books[bookID]
	if !exists {
		return nil, ErrBookNotFound
	}

	bookCopy := *book
	return &bookCopy, nil
}

// UpdateBook saves changes to an existing book
func (r *MemoryRepository) UpdateBook(ctx context.Context, book *entities.Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.books[book.ID]; !exists {
		return ErrBookNotFound
	}

	bookCopy := *book
	bookCopy.UpdatedAt = time.Now()
	r.books[book.ID] = &bookCopy

	return nil
}

// ListBooks returns published books, newest first
func (r *MemoryRepository) ListBooks(ctx context.Context, category string, limit int) ([]*entities.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Book, 0, limit)
	for _, book := range r.books {
		if book.Status != entities.BookStatusPublished {
			continue
		}
		if category != "" && book.Category != category {
			continue
		}
		bookCopy := *book
		result = append(result, &bookCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// ListBooksByAuthor returns all of an author's books, newest first
func (r *MemoryRepository) ListBooksByAuthor(ctx context.Context, authorID string) ([]*entities.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Book, 0)
	for _, book := range r.books {
		if book.AuthorID == authorID {
			bookCopy := *book
			result = append(result, &bookCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// CreateChapter persists a new chapter
func (r *MemoryRepository) CreateChapter(ctx context.Context, chapter *entities.Chapter) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	chapterCopy := *chapter
	if chapterCopy.ID == "" {
		chapterCopy.ID = uuid.New().String()
	}
	if chapterCopy.CreatedAt.IsZero() {
		chapterCopy.CreatedAt = time.Now()
	}

	r.chapters[chapterCopy.ID] = &chapterCopy
	chapter.ID = chapterCopy.ID

	return nil
}

// GetChapter retrieves a chapter by ID
func (r *MemoryRepository) GetChapter(ctx context.Context, chapterID string) (*entities.Chapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chapter, exists := r.chapters[chapterID]
	if !exists {
		return nil, ErrChapterNotFound
	}

	chapterCopy := *chapter
	return &chapterCopy, nil
}

// ListChapters returns a book's chapters in reading order
func (r *MemoryRepository) ListChapters(ctx context.Context, bookID string) ([]*entities.Chapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*entities.Chapter, 0)
	for _, chapter := range r.chapters {
		if chapter.BookID == bookID {
			chapterCopy := *chapter
			result = append(result, &chapterCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ChapterNumber < result[j].ChapterNumber
	})

	return result, nil
}

// SaveReview inserts or replaces the user's review of a book
func (r *MemoryRepository) SaveReview(ctx context.Context, review *entities.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byUser, exists := r.reviews[review.BookID]
	if !exists {
		byUser = make(map[string]*entities.Review)
		r.reviews[review.BookID] = byUser
	}

	reviewCopy := *review
	if reviewCopy.ID == "" {
		reviewCopy.ID = uuid.New().String()
	}
	if reviewCopy.CreatedAt.IsZero() {
		reviewCopy.CreatedAt = time.Now()
	}
	byUser[review.UserID] = &reviewCopy

	return nil
}

// ListReviews returns a book's reviews, newest first
func (r *MemoryRepository) ListReviews(ctx context.Context, bookID string) ([]*entities.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byUser, exists := r.reviews[bookID]
	if !exists {
		return make([]*entities.Review, 0), nil
	}

	result := make([]*entities.Review, 0, len(byUser))
	for _, review := range byUser {
		reviewCopy := *review
		result = append(result, &reviewCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// CreateBookmark persists a bookmark
func (r *MemoryRepository) CreateBookmark(ctx context.Context, bookmark *entities.Bookmark) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	bookmarkCopy := *bookmark
	if bookmarkCopy.ID == "" {
		bookmarkCopy.ID = uuid.New().String()
	}
	if bookmarkCopy.CreatedAt.IsZero() {
		bookmarkCopy.CreatedAt = time.Now()
	}

	r.bookmarks[bookmark.UserID] = append(r.bookmarks[bookmark.UserID], &bookmarkCopy)

	return nil
}

// ListBookmarks returns a user's bookmarks, newest first
func (r *MemoryRepository) ListBookmarks(ctx context.Context, userID string) ([]*entities.Bookmark, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bookmarks := r.bookmarks[userID]
	result := make([]*entities.Bookmark, 0, len(bookmarks))
	for i := len(bookmarks) - 1; i >= 0; i-- {
		bookmarkCopy := *bookmarks[i]
		result = append(result, &bookmarkCopy)
	}

	return result, nil
}

// Close implements Repository
func (r *MemoryRepository) Close() error {
	return nil
}
