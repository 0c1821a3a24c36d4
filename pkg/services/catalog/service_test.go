package catalog

import (
	"context"
	"testing"

	"github.com/fadedpez/inkwell/internal/types"
	"github.com/fadedpez/inkwell/pkg/entities"
	catalogRepo "github.com/fadedpez/inkwell/pkg/repositories/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubUnlocks answers access checks from a fixed set
type stubUnlocks struct {
	unlocked map[string]bool // userID + ":" + bookID
}

func newStubUnlocks() *stubUnlocks {
	return &stubUnlocks{unlocked: make(map[string]bool)}
}

func (s *stubUnlocks) grant(userID, bookID string) {
	s.unlocked[userID+":"+bookID] = true
}

func (s *stubUnlocks) IsUnlocked(ctx context.Context, userID, bookID string) (bool, error) {
	return s.unlocked[userID+":"+bookID], nil
}

type fixture struct {
	service *Service
	unlocks *stubUnlocks
}

func setupFixture(t *testing.T) *fixture {
	t.Helper()
	unlocks := newStubUnlocks()
	return &fixture{
		service: NewService(catalogRepo.NewMemoryRepository(), unlocks),
		unlocks: unlocks,
	}
}

func (f *fixture) publishBook(t *testing.T, authorID, title string) *entities.Book {
	t.Helper()
	ctx := context.Background()

	book, err := f.service.CreateBook(ctx, authorID, &entities.Book{Title: title})
	require.NoError(t, err)

	book, err = f.service.PublishBook(ctx, authorID, book.ID)
	require.NoError(t, err)

	return book
}

func TestCreateBookStartsAsDraft(t *testing.T) {
	f := setupFixture(t)

	book, err := f.service.CreateBook(context.Background(), "author1", &entities.Book{Title: "My Story"})
	require.NoError(t, err)

	assert.NotEmpty(t, book.ID)
	assert.Equal(t, "author1", book.AuthorID)
	assert.Equal(t, entities.BookStatusDraft, book.Status)
}

func TestCreateBookValidation(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	_, err := f.service.CreateBook(ctx, "author1", &entities.Book{})
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrInvalidInput))

	_, err = f.service.CreateBook(ctx, "", &entities.Book{Title: "No Author"})
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrUnauthenticated))
}

func TestPublishBookOnlyByAuthor(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	book, err := f.service.CreateBook(ctx, "author1", &entities.Book{Title: "My Story"})
	require.NoError(t, err)

	_, err = f.service.PublishBook(ctx, "someone-else", book.ID)
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrUnauthorized))

	published, err := f.service.PublishBook(ctx, "author1", book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookStatusPublished, published.Status)

	// Publishing again is a no-op
	published, err = f.service.PublishBook(ctx, "author1", book.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookStatusPublished, published.Status)
}

func TestListBooksExcludesDrafts(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()

	f.publishBook(t, "author1", "Published One")
	_, err := f.service.CreateBook(ctx, "author1", &entities.Book{Title: "Still Drafting"})
	require.NoError(t, err)

	books, err := f.service.ListBooks(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "Published One", books[0].Title)

	// The author sees both
	own, err := f.service.ListBooksByAuthor(ctx, "author1")
	require.NoError(t, err)
	assert.Len(t, own, 2)
}

func TestAddChapterOnlyByAuthor(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	book := f.publishBook(t, "author1", "My Story")

	chapter, err := f.service.AddChapter(ctx, "author1", &entities.Chapter{
		BookID:        book.ID,
		ChapterNumber: 1,
		Title:         "Chapter One",
		Content:       "It begins.",
	})
	require.NoError(t, err)
	assert.Equal(t, "author1", chapter.AuthorID)

	_, err = f.service.AddChapter(ctx, "impostor", &entities.Chapter{
		BookID:        book.ID,
		ChapterNumber: 2,
		Title:         "Chapter Two",
	})
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrUnauthorized))
}

func TestReadChapterGatedOnUnlock(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	book := f.publishBook(t, "author1", "My Story")

	free, err := f.service.AddChapter(ctx, "author1", &entities.Chapter{
		BookID:        book.ID,
		ChapterNumber: 1,
		Title:         "Free Preview",
		Content:       "Free text.",
		IsFree:        true,
	})
	require.NoError(t, err)

	paid, err := f.service.AddChapter(ctx, "author1", &entities.Chapter{
		BookID:        book.ID,
		ChapterNumber: 2,
		Title:         "The Good Part",
		Content:       "Paid text.",
	})
	require.NoError(t, err)

	// Free chapter readable by anyone
	chapter, err := f.service.ReadChapter(ctx, "reader1", free.ID)
	require.NoError(t, err)
	assert.Equal(t, "Free text.", chapter.Content)

	// Paid chapter blocked without an unlock
	_, err = f.service.ReadChapter(ctx, "reader1", paid.ID)
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrUnauthorized))

	// The author always has access
	chapter, err = f.service.ReadChapter(ctx, "author1", paid.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paid text.", chapter.Content)

	// An unlocked reader has access
	f.unlocks.grant("reader1", book.ID)
	chapter, err = f.service.ReadChapter(ctx, "reader1", paid.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paid text.", chapter.Content)
}

func TestListChaptersStripsLockedContent(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	book := f.publishBook(t, "author1", "My Story")

	_, err := f.service.AddChapter(ctx, "author1", &entities.Chapter{
		BookID: book.ID, ChapterNumber: 1, Title: "Free", Content: "free", IsFree: true,
	})
	require.NoError(t, err)
	_, err = f.service.AddChapter(ctx, "author1", &entities.Chapter{
		BookID: book.ID, ChapterNumber: 2, Title: "Paid", Content: "paid",
	})
	require.NoError(t, err)

	chapters, err := f.service.ListChapters(ctx, "reader1", book.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 2)

	// The list is visible, paid content is not
	assert.Equal(t, "free", chapters[0].Content)
	assert.Equal(t, "", chapters[1].Content)
	assert.Equal(t, "Paid", chapters[1].Title)
}

func TestSaveReviewValidatesRating(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	book := f.publishBook(t, "author1", "My Story")

	for _, rating := range []int{0, 6, -1} {
		_, err := f.service.SaveReview(ctx, &entities.Review{
			UserID: "reader1", BookID: book.ID, Rating: rating,
		})
		require.Error(t, err)
		assert.True(t, types.IsPlatformError(err, types.ErrInvalidInput))
	}

	_, err := f.service.SaveReview(ctx, &entities.Review{
		UserID: "reader1", BookID: book.ID, Rating: 4, ReviewText: "Good read",
	})
	require.NoError(t, err)

	// A second review from the same user replaces the first
	_, err = f.service.SaveReview(ctx, &entities.Review{
		UserID: "reader1", BookID: book.ID, Rating: 5,
	})
	require.NoError(t, err)

	reviews, err := f.service.ListReviews(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)
}

func TestBookmarks(t *testing.T) {
	f := setupFixture(t)
	ctx := context.Background()
	book := f.publishBook(t, "author1", "My Story")

	_, err := f.service.CreateBookmark(ctx, &entities.Bookmark{
		UserID: "reader1", BookID: book.ID, ChapterNumber: 3,
	})
	require.NoError(t, err)

	bookmarks, err := f.service.ListBookmarks(ctx, "reader1")
	require.NoError(t, err)
	require.Len(t, bookmarks, 1)
	assert.Equal(t, 3, bookmarks[0].ChapterNumber)

	// Unknown book rejected
	_, err = f.service.CreateBookmark(ctx, &entities.Bookmark{
		UserID: "reader1", BookID: "missing", ChapterNumber: 1,
	})
	require.Error(t, err)
	assert.True(t, types.IsPlatformError(err, types.ErrNotFound))
}
