package entities

import (
	"time"
)

// BookStatus represents the publication state of a book
type BookStatus string

const (
	BookStatusDraft     BookStatus = "draft"
	BookStatusPublished BookStatus = "published"
)

// Book represents a story in the catalog
type Book struct {
	ID          string     // Unique identifier
	Title       string     // Display title
	AuthorID    string     // User who wrote the book
	CoverImage  string     // Cover image URL
	Category    string     // Browsing category
	Tags        []string   // Free-form tags
	Summary     string     // Short synopsis
	Status      BookStatus // draft or published
	UnlockPrice int64      // Listed price for paid chapters
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Chapter represents a single chapter of a book
type Chapter struct {
	ID            string // Unique identifier
	BookID        string // Owning book
	AuthorID      string // Denormalized author for permission checks
	ChapterNumber int    // 1-based ordering
	Title         string
	Content       string
	IsFree        bool // Free chapters are readable without an unlock
	WordCount     int
	CreatedAt     time.Time
}

// Unlock represents permanent paid access to a book's chapters.
// Presence of a record is the authoritative "has access" flag.
type Unlock struct {
	UserID     string
	BookID     string
	UnlockedAt time.Time
}

// ReadingProgress tracks how far a user has read a specific book
type ReadingProgress struct {
	UserID         string
	BookID         string
	CurrentChapter int       // Last chapter the user was reading
	TotalReadTime  int64     // Cumulative minutes spent in this book
	Completed      bool      // Whether the user finished the book
	LastReadAt     time.Time // When the user last read this book
}

// Review represents a user's rating of a book
type Review struct {
	ID         string
	UserID     string
	BookID     string
	Rating     int    // 1 to 5
	ReviewText string // Optional prose
	CreatedAt  time.Time
}

// Bookmark marks a position in a book for later
type Bookmark struct {
	ID            string
	UserID        string
	BookID        string
	ChapterNumber int
	CreatedAt     time.Time
}
