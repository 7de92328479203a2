package http

import (
	"context"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/importers"
	"github.com/mrlokans/booklearn/internal/library"
)

// This file consolidates the interfaces HTTP controllers depend on.
// Production implementations live in internal/library, internal/importers,
// internal/tasks and internal/audit; tests use fakes or real SQLite.

// ContentMutator applies validated content changes. Implemented by
// library.Service.
type ContentMutator interface {
	CreateBook(ctx context.Context, book entities.Book) (*entities.Book, error)
	UpdateBook(ctx context.Context, bookID string, patch library.BookPatch) (*entities.Book, error)
	DeleteBook(ctx context.Context, bookID string) error

	CreatePart(ctx context.Context, part entities.Part) (*entities.Part, error)
	UpdatePart(ctx context.Context, partID string, patch library.PartPatch) (*entities.Part, error)
	DeletePart(ctx context.Context, partID string) error

	CreateChapter(ctx context.Context, in library.NewChapter) (*entities.Chapter, error)
	UpdateChapter(ctx context.Context, chapterID string, patch library.ChapterPatch) (*entities.Chapter, error)
	DeleteChapter(ctx context.Context, chapterID string) error

	CreateQuestion(ctx context.Context, question entities.Question) (*entities.Question, error)
	UpdateQuestion(ctx context.Context, questionID string, patch library.QuestionPatch) (*entities.Question, error)
	DeleteQuestion(ctx context.Context, questionID string) error
}

// ProgressTracker maintains user progress. Implemented by library.Tracker.
type ProgressTracker interface {
	Create(ctx context.Context, userID string, books []entities.BookProgress) (*entities.UserProgress, error)
	Get(ctx context.Context, userID string) (*entities.UserProgress, error)
	Replace(ctx context.Context, userID string, books []entities.BookProgress) (*entities.UserProgress, error)
	Delete(ctx context.Context, userID string) error
	StartBook(ctx context.Context, userID, bookID string) (*entities.UserProgress, error)
	MarkChapterCompleted(ctx context.Context, userID, bookID, chapterID string) (*entities.UserProgress, error)
	RecordQuizResult(ctx context.Context, userID, bookID, quizID string, in library.QuizSubmission) (*entities.UserProgress, error)
}

// WorkbookImporter runs a bulk import. Implemented by importers.Pipeline.
type WorkbookImporter interface {
	ImportFile(ctx context.Context, path string, opts importers.Options) (importers.Result, error)
}

// TaskQueue enqueues background tasks and reports their status.
// Implemented by tasks.Client.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// AuditReader lists recorded audit events. Implemented by audit.Service.
type AuditReader interface {
	GetEvents(ctx context.Context, filter entities.AuditFilter, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
