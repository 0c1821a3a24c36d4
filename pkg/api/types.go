package api

import (
	"time"

	"github.com/fadedpez/inkwell/pkg/entities"
)

// Wire shapes for API responses. Entities stay json-free; the API decides
// the field names the clients see.

type walletResponse struct {
	UserID      string    `json:"user_id"`
	Balance     int64     `json:"balance"`
	LastUpdated time.Time `json:"last_updated"`
}

func toWalletResponse(w *entities.Wallet) walletResponse {
	return walletResponse{
		UserID:      w.UserID,
		Balance:     w.Balance,
		LastUpdated: w.LastUpdated,
	}
}

type transactionResponse struct {
	ID           string    `json:"id"`
	Amount       int64     `json:"amount"`
	Kind         string    `json:"kind"`
	ReferenceID  string    `json:"reference_id,omitempty"`
	Description  string    `json:"description,omitempty"`
	BalanceAfter int64     `json:"balance_after"`
	Timestamp    time.Time `json:"timestamp"`
}

func toTransactionResponses(transactions []*entities.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, transactionResponse{
			ID:           t.ID,
			Amount:       t.Amount,
			Kind:         string(t.Type),
			ReferenceID:  t.ReferenceID,
			Description:  t.Description,
			BalanceAfter: t.BalanceAfter,
			Timestamp:    t.Timestamp,
		})
	}
	return out
}

type bookResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AuthorID    string    `json:"author_id"`
	CoverImage  string    `json:"cover_image,omitempty"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Status      string    `json:"status"`
	UnlockPrice int64     `json:"unlock_price"`
	CreatedAt   time.Time `json:"created_at"`
}

func toBookResponse(b *entities.Book) bookResponse {
	return bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		AuthorID:    b.AuthorID,
		CoverImage:  b.CoverImage,
		Category:    b.Category,
		Tags:        b.Tags,
		Summary:     b.Summary,
		Status:      string(b.Status),
		UnlockPrice: b.UnlockPrice,
		CreatedAt:   b.CreatedAt,
	}
}

func toBookResponses(books []*entities.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

type chapterResponse struct {
	ID            string    `json:"id"`
	BookID        string    `json:"book_id"`
	ChapterNumber int       `json:"chapter_number"`
	Title         string    `json:"title"`
	Content       string    `json:"content,omitempty"`
	IsFree        bool      `json:"is_free"`
	WordCount     int       `json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func toChapterResponse(c *entities.Chapter) chapterResponse {
	return chapterResponse{
		ID:            c.ID,
		BookID:        c.BookID,
		ChapterNumber: c.ChapterNumber,
		Title:         c.Title,
		Content:       c.Content,
		IsFree:        c.IsFree,
		WordCount:     c.WordCount,
		CreatedAt:     c.CreatedAt,
	}
}

type unlockResponse struct {
	BookID     string    `json:"book_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

type streakResponse struct {
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastReadDate     *time.Time `json:"last_read_date,omitempty"`
	TotalReadMinutes int64      `json:"total_read_minutes"`
	XP               int64      `json:"xp"`
	Level            int        `json:"level"`
}

func toStreakResponse(s *entities.Streak) streakResponse {
	resp := streakResponse{
		CurrentStreak:    s.CurrentStreak,
		LongestStreak:    s.LongestStreak,
		TotalReadMinutes: s.TotalReadMinutes,
		XP:               s.XP,
		Level:            s.Level,
	}
	if !s.LastReadDate.IsZero() {
		lastRead := s.LastReadDate
		resp.LastReadDate = &lastRead
	}
	return resp
}

type progressResponse struct {
	BookID         string    `json:"book_id"`
	CurrentChapter int       `json:"current_chapter"`
	TotalReadTime  int64     `json:"total_read_time"`
	Completed      bool      `json:"completed"`
	LastReadAt     time.Time `json:"last_read_at"`
}

type rewardResponse struct {
	Type         string    `json:"type"`
	XPReward     int64     `json:"xp_reward"`
	WalletReward int64     `json:"wallet_reward"`
	EarnedAt     time.Time `json:"earned_at"`
}

type badgeResponse struct {
	BadgeType string    `json:"badge_type"`
	EarnedAt  time.Time `json:"earned_at"`
}

type reviewResponse struct {
	UserID     string    `json:"user_id"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"review_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toReviewResponses(reviews []*entities.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewResponse{
			UserID:     r.UserID,
			Rating:     r.Rating,
			ReviewText: r.ReviewText,
			CreatedAt:  r.CreatedAt,
		})
	}
	return out
}

type bookmarkResponse struct {
	ID            string    `json:"id"`
	BookID        string    `json:"book_id"`
	ChapterNumber int       `json:"chapter_number"`
	CreatedAt     time.Time `json:"created_at"`
}

type referralCodeResponse struct {
	Code   string `json:"code"`
	Status string `json:"status"`
}
