package library

import (
	"context"

	"gorm.io/datatypes"

	"github.com/mrlokans/booklearn/internal/entities"
)

// UpsertResult reports what an upsert-by-natural-key did.
type UpsertResult int

const (
	Unchanged UpsertResult = iota
	Created
	Updated
)

func (r UpsertResult) String() string {
	switch r {
	case Created:
		return "created"
	case Updated:
		return "updated"
	}
	return "unchanged"
}

// ContentReader is the read side of the content store used by the
// aggregation reader.
type ContentReader interface {
	ListBooks(ctx context.Context) ([]entities.Book, error)
	GetBook(ctx context.Context, bookID string) (*entities.Book, error)
	ListParts(ctx context.Context) ([]entities.Part, error)
	ListPartsByBook(ctx context.Context, bookID string) ([]entities.Part, error)
	GetPart(ctx context.Context, partID string) (*entities.Part, error)
	ListChapters(ctx context.Context) ([]entities.Chapter, error)
	ListChaptersByPart(ctx context.Context, partID string) ([]entities.Chapter, error)
	GetChapter(ctx context.Context, chapterID string) (*entities.Chapter, error)
	ListQuestions(ctx context.Context) ([]entities.Question, error)
	ListQuestionsByChapter(ctx context.Context, chapterID string) ([]entities.Question, error)
	GetQuestion(ctx context.Context, questionID string) (*entities.Question, error)
}

// ContentStore persists books, parts, chapters and questions.
//
// Create* are insert-if-absent: an existing identifier yields a
// ConflictError, a missing parent yields InvalidReference. Update* apply a
// field map keyed by the JSON field name and return NotFound for unknown
// identifiers. Delete* cascade to children. CreateQuestion and
// DeleteQuestion adjust the owning chapter's totalQuestions atomically
// with the write.
type ContentStore interface {
	ContentReader

	CreateBook(ctx context.Context, book *entities.Book) error
	UpdateBook(ctx context.Context, bookID string, fields map[string]any) (*entities.Book, error)
	DeleteBook(ctx context.Context, bookID string) error
	UpsertBook(ctx context.Context, book *entities.Book) (UpsertResult, error)

	CreatePart(ctx context.Context, part *entities.Part) error
	UpdatePart(ctx context.Context, partID string, fields map[string]any) (*entities.Part, error)
	DeletePart(ctx context.Context, partID string) error
	UpsertPart(ctx context.Context, part *entities.Part) (UpsertResult, error)

	CreateChapter(ctx context.Context, chapter *entities.Chapter) error
	UpdateChapter(ctx context.Context, chapterID string, fields map[string]any) (*entities.Chapter, error)
	DeleteChapter(ctx context.Context, chapterID string) error
	UpsertChapter(ctx context.Context, chapter *entities.Chapter) (UpsertResult, error)

	CreateQuestion(ctx context.Context, question *entities.Question) error
	UpdateQuestion(ctx context.Context, questionID string, fields map[string]any) (*entities.Question, error)
	DeleteQuestion(ctx context.Context, questionID string) error
	UpsertQuestion(ctx context.Context, question *entities.Question) (UpsertResult, error)

	// RecountQuestions sets totalQuestions from the actual question rows for
	// the given chapters, or for every chapter when none are given. It
	// returns how many chapters were corrected.
	RecountQuestions(ctx context.Context, chapterIDs ...string) (int, error)
}

// ProgressStore persists UserProgress records.
type ProgressStore interface {
	GetProgress(ctx context.Context, userID string) (*entities.UserProgress, error)
	CreateProgress(ctx context.Context, progress *entities.UserProgress) error
	// SaveProgress writes progress only if the stored version still equals
	// progress.Version, then increments it. ErrStaleVersion otherwise.
	SaveProgress(ctx context.Context, progress *entities.UserProgress) error
	DeleteProgress(ctx context.Context, userID string) error
}

// BookPatch lists the book fields a caller may change.
type BookPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ImageURL    *string `json:"imageUrl"`
}

func (p BookPatch) Fields() map[string]any {
	f := map[string]any{}
	setField(f, "title", p.Title)
	setField(f, "description", p.Description)
	setField(f, "imageUrl", p.ImageURL)
	return f
}

// PartPatch lists the part fields a caller may change.
type PartPatch struct {
	Title *string `json:"title"`
}

func (p PartPatch) Fields() map[string]any {
	f := map[string]any{}
	setField(f, "title", p.Title)
	return f
}

// ChapterPatch lists the chapter fields a caller may change.
// totalQuestions is derived and deliberately absent.
type ChapterPatch struct {
	Title               *string `json:"title"`
	Text                *string `json:"text"`
	QuestionsPerSession *int    `json:"questionsPerSession"`
	Order               *int    `json:"order"`
	PassingPercentage   *int    `json:"passingPercentage"`
}

func (p ChapterPatch) Fields() map[string]any {
	f := map[string]any{}
	setField(f, "title", p.Title)
	setField(f, "text", p.Text)
	setField(f, "questionsPerSession", p.QuestionsPerSession)
	setField(f, "order", p.Order)
	setField(f, "passingPercentage", p.PassingPercentage)
	return f
}

// QuestionPatch lists the question fields a caller may change.
type QuestionPatch struct {
	QuestionText   *string                `json:"questionText"`
	QuestionType   *entities.QuestionType `json:"questionType"`
	Options        *[]string              `json:"options"`
	CorrectAnswers *[]string              `json:"correctAnswers"`
}

func (p QuestionPatch) Fields() map[string]any {
	f := map[string]any{}
	setField(f, "questionText", p.QuestionText)
	setField(f, "questionType", p.QuestionType)
	if p.Options != nil {
		f["options"] = datatypes.JSONSlice[string](*p.Options)
	}
	if p.CorrectAnswers != nil {
		f["correctAnswers"] = datatypes.JSONSlice[string](*p.CorrectAnswers)
	}
	return f
}

func setField[T any](fields map[string]any, name string, v *T) {
	if v != nil {
		fields[name] = *v
	}
}
