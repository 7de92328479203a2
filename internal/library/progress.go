package library

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mrlokans/booklearn/internal/entities"
)

// maxProgressAttempts bounds compare-and-swap retries for one mutation.
const maxProgressAttempts = 5

// QuizSubmission is the caller-supplied part of a quiz result. The quiz id
// comes from the path and completedAt is always stamped by the tracker.
type QuizSubmission struct {
	Score     float64               `json:"score"`
	Completed bool                  `json:"completed"`
	Answers   []entities.QuizAnswer `json:"answers"`
}

// Tracker maintains per-user progress records.
type Tracker struct {
	store    ProgressStore
	notifier Notifier
	now      func() time.Time
}

func NewTracker(store ProgressStore, notifier Notifier) *Tracker {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Tracker{store: store, notifier: notifier, now: time.Now}
}

// Create stores the initial progress for a user. A second call for the
// same user returns a ConflictError.
func (t *Tracker) Create(ctx context.Context, userID string, books []entities.BookProgress) (*entities.UserProgress, error) {
	if err := required("userId", userID); err != nil {
		return nil, err
	}
	books, err := normalizeBookProgress(books)
	if err != nil {
		return nil, err
	}
	progress := &entities.UserProgress{UserID: userID, BookProgress: books}
	if err := t.store.CreateProgress(ctx, progress); err != nil {
		return nil, err
	}
	t.notifier.Notify(ctx, Change{Kind: KindProgress, Action: ActionCreated, ID: userID})
	return progress, nil
}

func (t *Tracker) Get(ctx context.Context, userID string) (*entities.UserProgress, error) {
	return t.store.GetProgress(ctx, userID)
}

// Replace overwrites the whole bookProgress list.
func (t *Tracker) Replace(ctx context.Context, userID string, books []entities.BookProgress) (*entities.UserProgress, error) {
	books, err := normalizeBookProgress(books)
	if err != nil {
		return nil, err
	}
	return t.mutateAndNotify(ctx, userID, "replaced book progress", func(p *entities.UserProgress) error {
		p.BookProgress = books
		return nil
	})
}

func (t *Tracker) Delete(ctx context.Context, userID string) error {
	if err := t.store.DeleteProgress(ctx, userID); err != nil {
		return err
	}
	t.notifier.Notify(ctx, Change{Kind: KindProgress, Action: ActionDeleted, ID: userID})
	return nil
}

// StartBook adds an empty entry for bookID unless one already exists.
func (t *Tracker) StartBook(ctx context.Context, userID, bookID string) (*entities.UserProgress, error) {
	if err := required("bookId", bookID); err != nil {
		return nil, err
	}
	return t.mutateAndNotify(ctx, userID, "started book "+bookID, func(p *entities.UserProgress) error {
		if p.Book(bookID) == nil {
			p.BookProgress = append(p.BookProgress, entities.BookProgress{
				BookID:            bookID,
				CompletedChapters: []string{},
				QuizResults:       []entities.QuizResult{},
			})
		}
		return nil
	})
}

// MarkChapterCompleted adds chapterID to the book's completed chapters
// once; repeated calls leave a single occurrence.
func (t *Tracker) MarkChapterCompleted(ctx context.Context, userID, bookID, chapterID string) (*entities.UserProgress, error) {
	return t.mutateAndNotify(ctx, userID, "completed chapter "+chapterID, func(p *entities.UserProgress) error {
		book := p.Book(bookID)
		if book == nil {
			return &NotFoundError{Resource: "Book", ID: bookID, Scope: "user progress"}
		}
		if strings.TrimSpace(chapterID) == "" {
			return invalid("chapterId", "Invalid chapter ID")
		}
		if !slices.Contains(book.CompletedChapters, chapterID) {
			book.CompletedChapters = append(book.CompletedChapters, chapterID)
		}
		return nil
	})
}

// RecordQuizResult replaces the result with the same quiz id in place or
// appends a new one. completedAt is always set to the current time.
func (t *Tracker) RecordQuizResult(ctx context.Context, userID, bookID, quizID string, in QuizSubmission) (*entities.UserProgress, error) {
	if err := required("quizId", quizID); err != nil {
		return nil, err
	}
	if in.Score < 0 {
		return nil, invalid("score", "score must not be negative")
	}
	answers := in.Answers
	if answers == nil {
		answers = []entities.QuizAnswer{}
	}
	return t.mutateAndNotify(ctx, userID, "quiz result "+quizID, func(p *entities.UserProgress) error {
		book := p.Book(bookID)
		if book == nil {
			return &NotFoundError{Resource: "Book", ID: bookID, Scope: "user progress"}
		}
		result := entities.QuizResult{
			QuizID:      quizID,
			Score:       in.Score,
			Completed:   in.Completed,
			CompletedAt: t.now().UTC(),
			Answers:     answers,
		}
		idx := slices.IndexFunc(book.QuizResults, func(r entities.QuizResult) bool { return r.QuizID == quizID })
		if idx == -1 {
			book.QuizResults = append(book.QuizResults, result)
		} else {
			book.QuizResults[idx] = result
		}
		return nil
	})
}

func (t *Tracker) mutateAndNotify(ctx context.Context, userID, detail string, fn func(*entities.UserProgress) error) (*entities.UserProgress, error) {
	progress, err := t.mutate(ctx, userID, fn)
	if err != nil {
		return nil, err
	}
	t.notifier.Notify(ctx, Change{Kind: KindProgress, Action: ActionUpdated, ID: userID, Detail: detail})
	return progress, nil
}

// mutate applies fn to a fresh copy of the user's progress and saves it
// with a version check, retrying when another writer got there first.
func (t *Tracker) mutate(ctx context.Context, userID string, fn func(*entities.UserProgress) error) (*entities.UserProgress, error) {
	for attempt := 1; ; attempt++ {
		progress, err := t.store.GetProgress(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := fn(progress); err != nil {
			return nil, err
		}
		err = t.store.SaveProgress(ctx, progress)
		if err == nil {
			return progress, nil
		}
		if !errors.Is(err, ErrStaleVersion) {
			return nil, err
		}
		if attempt == maxProgressAttempts {
			return nil, fmt.Errorf("saving progress for %s after %d attempts: %w", userID, attempt, err)
		}
	}
}

// normalizeBookProgress rejects duplicate books or quiz ids and drops
// duplicate completed chapters.
func normalizeBookProgress(books []entities.BookProgress) ([]entities.BookProgress, error) {
	out := make([]entities.BookProgress, 0, len(books))
	seenBooks := map[string]bool{}
	for _, b := range books {
		if err := required("bookId", b.BookID); err != nil {
			return nil, err
		}
		if seenBooks[b.BookID] {
			return nil, invalid("bookProgress", "duplicate bookId "+b.BookID)
		}
		seenBooks[b.BookID] = true

		chapters := []string{}
		for _, c := range b.CompletedChapters {
			if strings.TrimSpace(c) != "" && !slices.Contains(chapters, c) {
				chapters = append(chapters, c)
			}
		}
		results := []entities.QuizResult{}
		seenQuiz := map[string]bool{}
		for _, r := range b.QuizResults {
			if err := required("quizId", r.QuizID); err != nil {
				return nil, err
			}
			if seenQuiz[r.QuizID] {
				return nil, invalid("quizResults", "duplicate quizId "+r.QuizID)
			}
			if r.Score < 0 {
				return nil, invalid("score", "score must not be negative")
			}
			seenQuiz[r.QuizID] = true
			if r.Answers == nil {
				r.Answers = []entities.QuizAnswer{}
			}
			results = append(results, r)
		}
		out = append(out, entities.BookProgress{BookID: b.BookID, CompletedChapters: chapters, QuizResults: results})
	}
	return out, nil
}
