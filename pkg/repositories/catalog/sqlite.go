package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fadedpez/inkwell/pkg/entities"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const (
	createBooksTableSQL = `
	CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		author_id TEXT NOT NULL,
		cover_image TEXT,
		category TEXT,
		tags TEXT,
		summary TEXT,
		status TEXT NOT NULL DEFAULT 'draft',
		unlock_price INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`

	createChaptersTableSQL = `
	CREATE TABLE IF NOT EXISTS chapters (
		id TEXT PRIMARY KEY,
		book_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		chapter_number INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT,
		is_free INTEGER NOT NULL DEFAULT 0,
		word_count INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(book_id, chapter_number)
	)`

	createReviewsTableSQL = `
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		book_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		review_text TEXT,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(user_id, book_id)
	)`

	createBookmarksTableSQL = `
	CREATE TABLE IF NOT EXISTS bookmarks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		book_id TEXT NOT NULL,
		chapter_number INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`

	createCatalogIndexesSQL = `
	CREATE INDEX IF NOT EXISTS idx_books_author_id ON books(author_id);
	CREATE INDEX IF NOT EXISTS idx_books_category ON books(category);
	CREATE INDEX IF NOT EXISTS idx_chapters_book_id ON chapters(book_id);
	CREATE INDEX IF NOT EXISTS idx_reviews_book_id ON reviews(book_id);
	CREATE INDEX IF NOT EXISTS idx_bookmarks_user_id ON bookmarks(user_id)
	`
)

var timestampFormats = []string{
	"2006-01-02 15:04:05", // SQLite default format
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-07:00",
	time.RFC3339,
}

func parseTimestamp(value string) (time.Time, error) {
	var parseErr error
	for _, format := range timestampFormats {
		parsed, err := time.Parse(format, value)
		if err == nil {
			return parsed, nil
		}
		parseErr = err
	}
	return time.Time{}, fmt.Errorf("error parsing timestamp '%s': %w", value, parseErr)
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	repo, err := NewSQLiteRepositoryWithDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

// NewSQLiteRepositoryWithDB creates a repository on an existing connection
func NewSQLiteRepositoryWithDB(db *sql.DB) (*SQLiteRepository, error) {
	for _, schema := range []string{
		createBooksTableSQL,
		createChaptersTableSQL,
		createReviewsTableSQL,
		createBookmarksTableSQL,
		createCatalogIndexesSQL,
	} {
		if _, err := db.Exec(schema); err != nil {
			return nil, fmt.Errorf("error creating catalog tables: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// encodeTags stores tags as a JSON array
func encodeTags(tags []string) (string, error) {
	if len(tags) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("error encoding tags: %w", err)
	}
	return string(data), nil
}

func decodeTags(value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(value), &tags); err != nil {
		return nil, fmt.Errorf("error decoding tags: %w", err)
	}
	return tags, nil
}

// CreateBook persists a new book
func (r *SQLiteRepository) CreateBook(ctx context.Context, book *entities.Book) error {
	id := book.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	createdAt := book.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	tags, err := encodeTags(book.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO books (id, title, author_id, cover_image, category, tags, summary, status, unlock_price, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		book.Title,
		book.AuthorID,
		book.CoverImage,
		book.Category,
		tags,
		book.Summary,
		book.Status,
		book.UnlockPrice,
		formatTimestamp(createdAt),
		formatTimestamp(now),
	)
	if err != nil {
		return fmt.Errorf("error creating book: %w", err)
	}

	book.ID = id
	return nil
}

const selectBookSQL = `
	SELECT id, title, author_id, cover_image, category, tags, summary, status, unlock_price, created_at, updated_at
	FROM books
`

func scanBook(scan func(dest ...interface{}) error) (*entities.Book, error) {
	var book entities.Book
	var coverImage, category, tags, summary sql.NullString
	var createdAt, updatedAt string

	err := scan(
		&book.ID,
		&book.Title,
		&book.AuthorID,
		&coverImage,
		&category,
		&tags,
		&summary,
		&book.Status,
		&book.UnlockPrice,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	book.CoverImage = coverImage.String
	book.Category = category.String
	book.Summary = summary.String

	if book.Tags, err = decodeTags(tags.String); err != nil {
		return nil, err
	}
	if book.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if book.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}

	return &book, nil
}

// GetBook retrieves a book by ID
func (r *SQLiteRepository) GetBook(ctx context.Context, bookID string) (*entities.Book, error) {
	row := r.db.QueryRowContext(ctx, selectBookSQL+` WHERE id = ?`, bookID)

	book, err := scanBook(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("error getting book: %w", err)
	}

	return book, nil
}

// UpdateBook saves changes to an existing book
func (r *SQLiteRepository) UpdateBook(ctx context.Context, book *entities.Book) error {
	tags, err := encodeTags(book.Tags)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE books
		SET title = ?, cover_image = ?, category = ?, tags = ?, summary = ?,
			status = ?, unlock_price = ?, updated_at = ?
		WHERE id = ?
	`,
		book.Title,
		book.CoverImage,
		book.Category,
		tags,
		book.Summary,
		book.Status,
		book.UnlockPrice,
		formatTimestamp(time.Now()),
		book.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating book: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrBookNotFound
	}

	return nil
}

func (r *SQLiteRepository) queryBooks(ctx context.Context, query string, args ...interface{}) ([]*entities.Book, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying books: %w", err)
	}
	defer rows.Close()

	books := make([]*entities.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("error scanning book row: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating book rows: %w", err)
	}

	return books, nil
}

// ListBooks returns published books, newest first
func (r *SQLiteRepository) ListBooks(ctx context.Context, category string, limit int) ([]*entities.Book, error) {
	if category != "" {
		return r.queryBooks(ctx, selectBookSQL+` WHERE status = 'published' AND category = ? ORDER BY created_at DESC LIMIT ?`, category, limit)
	}
	return r.queryBooks(ctx, selectBookSQL+` WHERE status = 'published' ORDER BY created_at DESC LIMIT ?`, limit)
}

// ListBooksByAuthor returns all of an author's books, newest first
func (r *SQLiteRepository) ListBooksByAuthor(ctx context.Context, authorID string) ([]*entities.Book, error) {
	return r.queryBooks(ctx, selectBookSQL+` WHERE author_id = ? ORDER BY created_at DESC`, authorID)
}

// CreateChapter persists a new chapter
func (r *SQLiteRepository) CreateChapter(ctx context.Context, chapter *entities.Chapter) error {
	id := chapter.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := chapter.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	isFree := 0
	if chapter.IsFree {
		isFree = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chapters (id, book_id, author_id, chapter_number, title, content, is_free, word_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		id,
		chapter.BookID,
		chapter.AuthorID,
		chapter.ChapterNumber,
		chapter.Title,
		chapter.Content,
		isFree,
		chapter.WordCount,
		formatTimestamp(createdAt),
	)
	if err != nil {
		return fmt.Errorf("error creating chapter: %w", err)
	}

	chapter.ID = id
	return nil
}

// GetChapter retrieves a chapter by ID
func (r *SQLiteRepository) GetChapter(ctx context.Context, chapterID string) (*entities.Chapter, error) {
	query := `
		SELECT id, book_id, author_id, chapter_number, title, content, is_free, word_count, created_at
		FROM chapters
		WHERE id = ?
	`

	var chapter entities.Chapter
	var content sql.NullString
	var isFree int
	var createdAt string

	err := r.db.QueryRowContext(ctx, query, chapterID).Scan(
		&chapter.ID,
		&chapter.BookID,
		&chapter.AuthorID,
		&chapter.ChapterNumber,
		&chapter.Title,
		&content,
		&isFree,
		&chapter.WordCount,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChapterNotFound
		}
		return nil, fmt.Errorf("error getting chapter: %w", err)
	}

	chapter.Content = content.String
	chapter.IsFree = isFree != 0
	if chapter.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}

	return &chapter, nil
}

// ListChapters returns a book's chapters in reading order
func (r *SQLiteRepository) ListChapters(ctx context.Context, bookID string) ([]*entities.Chapter, error) {
	query := `
		SELECT id, book_id, author_id, chapter_number, title, content, is_free, word_count, created_at
		FROM chapters
		WHERE book_id = ?
		ORDER BY chapter_number ASC
	`

	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("error querying chapters: %w", err)
	}
	defer rows.Close()

	chapters := make([]*entities.Chapter, 0)
	for rows.Next() {
		var chapter entities.Chapter
		var content sql.NullString
		var isFree int
		var createdAt string

		err := rows.Scan(
			&chapter.ID,
			&chapter.BookID,
			&chapter.AuthorID,
			&chapter.ChapterNumber,
			&chapter.Title,
			&content,
			&isFree,
			&chapter.WordCount,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning chapter row: %w", err)
		}

		chapter.Content = content.String
		chapter.IsFree = isFree != 0
		if chapter.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}

		chapters = append(chapters, &chapter)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chapter rows: %w", err)
	}

	return chapters, nil
}

// SaveReview inserts or replaces the user's review of a book
func (r *SQLiteRepository) SaveReview(ctx context.Context, review *entities.Review) error {
	id := review.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := review.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, book_id, rating, review_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, book_id) DO UPDATE SET
			rating = excluded.rating,
			review_text = excluded.review_text,
			created_at = excluded.created_at
	`,
		id,
		review.UserID,
		review.BookID,
		review.Rating,
		review.ReviewText,
		formatTimestamp(createdAt),
	)
	if err != nil {
		return fmt.Errorf("error saving review: %w", err)
	}

	review.ID = id
	return nil
}

// ListReviews returns a book's reviews, newest first
func (r *SQLiteRepository) ListReviews(ctx context.Context, bookID string) ([]*entities.Review, error) {
	query := `
		SELECT id, user_id, book_id, rating, review_text, created_at
		FROM reviews
		WHERE book_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("error querying reviews: %w", err)
	}
	defer rows.Close()

	reviews := make([]*entities.Review, 0)
	for rows.Next() {
		var review entities.Review
		var reviewText sql.NullString
		var createdAt string

		err := rows.Scan(
			&review.ID,
			&review.UserID,
			&review.BookID,
			&review.Rating,
			&reviewText,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning review row: %w", err)
		}

		review.ReviewText = reviewText.String
		if review.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}

		reviews = append(reviews, &review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review rows: %w", err)
	}

	return reviews, nil
}

// CreateBookmark persists a bookmark
func (r *SQLiteRepository) CreateBookmark(ctx context.Context, bookmark *entities.Bookmark) error {
	id := bookmark.ID
	if id == "" {
		id = uuid.New().String()
	}
	createdAt := bookmark.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bookmarks (id, user_id, book_id, chapter_number, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		id,
		bookmark.UserID,
		bookmark.BookID,
		bookmark.ChapterNumber,
		formatTimestamp(createdAt),
	)
	if err != nil {
		return fmt.Errorf("error creating bookmark: %w", err)
	}

	bookmark.ID = id
	return nil
}

// ListBookmarks returns a user's bookmarks, newest first
func (r *SQLiteRepository) ListBookmarks(ctx context.Context, userID string) ([]*entities.Bookmark, error) {
	query := `
		SELECT id, user_id, book_id, chapter_number, created_at
		FROM bookmarks
		WHERE user_id = ?
		ORDER BY created_at DESC, rowid DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]*entities.Bookmark, 0)
	for rows.Next() {
		var bookmark entities.Bookmark
		var createdAt string

		err := rows.Scan(
			&bookmark.ID,
			&bookmark.UserID,
			&bookmark.BookID,
			&bookmark.ChapterNumber,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning bookmark row: %w", err)
		}

		if bookmark.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}

		bookmarks = append(bookmarks, &bookmark)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookmark rows: %w", err)
	}

	return bookmarks, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
