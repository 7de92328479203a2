package library

import (
	"context"
	"fmt"

	"github.com/mrlokans/booklearn/internal/entities"
)

// NewChapter is the input for chapter creation. PassingPercentage falls
// back to DefaultPassingPercentage when omitted, and totalQuestions is
// always started at zero.
type NewChapter struct {
	ChapterID           string `json:"chapterId"`
	BookID              string `json:"bookId"`
	PartID              string `json:"partId"`
	Title               string `json:"title"`
	Text                string `json:"text"`
	QuestionsPerSession int    `json:"questionsPerSession"`
	Order               int    `json:"order"`
	PassingPercentage   *int   `json:"passingPercentage"`
}

func (n NewChapter) entity() *entities.Chapter {
	pct := entities.DefaultPassingPercentage
	if n.PassingPercentage != nil {
		pct = *n.PassingPercentage
	}
	return &entities.Chapter{
		ChapterID:           n.ChapterID,
		BookID:              n.BookID,
		PartID:              n.PartID,
		Title:               n.Title,
		Text:                n.Text,
		QuestionsPerSession: n.QuestionsPerSession,
		Order:               n.Order,
		PassingPercentage:   pct,
	}
}

// Service applies validated mutations to the content store and announces
// each committed change.
type Service struct {
	store    ContentStore
	notifier Notifier
}

// NewService creates a mutation service. notifier may be nil.
func NewService(store ContentStore, notifier Notifier) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Service{store: store, notifier: notifier}
}

func (s *Service) CreateBook(ctx context.Context, book entities.Book) (*entities.Book, error) {
	if err := ValidateBook(&book); err != nil {
		return nil, err
	}
	if err := s.store.CreateBook(ctx, &book); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: KindBook, Action: ActionCreated, ID: book.BookID, BookID: book.BookID})
	return &book, nil
}

func (s *Service) UpdateBook(ctx context.Context, bookID string, patch BookPatch) (*entities.Book, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	if err := nonBlank("title", patch.Title); err != nil {
		return nil, err
	}
	book, err := s.store.UpdateBook(ctx, bookID, fields)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: KindBook, Action: ActionUpdated, ID: bookID, BookID: bookID})
	return book, nil
}

// DeleteBook removes the book with all of its parts, chapters and questions.
func (s *Service) DeleteBook(ctx context.Context, bookID string) error {
	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return err
	}
	s.notifier.Notify(ctx, Change{Kind: KindBook, Action: ActionDeleted, ID: bookID, BookID: bookID})
	return nil
}

func (s *Service) CreatePart(ctx context.Context, part entities.Part) (*entities.Part, error) {
	if err := ValidatePart(&part); err != nil {
		return nil, err
	}
	if err := s.store.CreatePart(ctx, &part); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: KindPart, Action: ActionCreated, ID: part.PartID, BookID: part.BookID})
	return &part, nil
}

func (s *Service) UpdatePart(ctx context.Context, partID string, patch PartPatch) (*entities.Part, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	if err := nonBlank("title", patch.Title); err != nil {
		return nil, err
	}
	part, err := s.store.UpdatePart(ctx, partID, fields)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: KindPart, Action: ActionUpdated, ID: partID, BookID: part.BookID})
	return part, nil
}

// DeletePart removes the part with its chapters and their questions.
func (s *Service) DeletePart(ctx context.Context, partID string) error {
	part, err := s.store.GetPart(ctx, partID)
	if err != nil {
		return err
	}
	if err := s.store.DeletePart(ctx, partID); err != nil {
		return err
	}
	s.notifier.Notify(ctx, Change{Kind: KindPart, Action: ActionDeleted, ID: partID, BookID: part.BookID})
	return nil
}

func (s *Service) CreateChapter(ctx context.Context, in NewChapter) (*entities.Chapter, error) {
	chapter := in.entity()
	if err := ValidateChapter(chapter); err != nil {
		return nil, err
	}
	if err := s.store.CreateChapter(ctx, chapter); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: KindChapter, Action: ActionCreated, ID: chapter.ChapterID, BookID: chapter.BookID})
	return chapter, nil
}

func (s *Service) UpdateChapter(ctx context.Context, chapterID string, patch ChapterPatch) (*entities.Chapter, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	if err := firstErr(nonBlank("title", patch.Title), nonBlank("text", patch.Text)); err != nil {
		return nil, err
	}
	if patch.QuestionsPerSession != nil {
		if err := nonNegative("questionsPerSession", *patch.QuestionsPerSession); err != nil {
			return nil, err
		}
	}
	if patch.Order != nil {
		if err := nonNegative("order", *patch.Order); err != nil {
			return nil, err
		}
	}
	if patch.PassingPercentage != nil {
		if err := percentage(*patch.PassingPercentage); err != nil {
			return nil, err
		}
	}
	chapter, err := s.store.UpdateChapter(ctx, chapterID, fields)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: KindChapter, Action: ActionUpdated, ID: chapterID, BookID: chapter.BookID})
	return chapter, nil
}

// DeleteChapter removes the chapter and its questions.
func (s *Service) DeleteChapter(ctx context.Context, chapterID string) error {
	chapter, err := s.store.GetChapter(ctx, chapterID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteChapter(ctx, chapterID); err != nil {
		return err
	}
	s.notifier.Notify(ctx, Change{Kind: KindChapter, Action: ActionDeleted, ID: chapterID, BookID: chapter.BookID})
	return nil
}

// CreateQuestion inserts the question and increments its chapter's
// totalQuestions in the same store operation.
func (s *Service) CreateQuestion(ctx context.Context, question entities.Question) (*entities.Question, error) {
	if err := ValidateQuestion(&question); err != nil {
		return nil, err
	}
	if err := s.store.CreateQuestion(ctx, &question); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: KindQuestion, Action: ActionCreated, ID: question.QuestionID})
	return &question, nil
}

// UpdateQuestion validates the patched question as a whole, so options and
// correctAnswers stay consistent when only one of them is supplied.
func (s *Service) UpdateQuestion(ctx context.Context, questionID string, patch QuestionPatch) (*entities.Question, error) {
	fields := patch.Fields()
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	current, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	merged := *current
	if patch.QuestionText != nil {
		merged.QuestionText = *patch.QuestionText
	}
	if patch.QuestionType != nil {
		merged.QuestionType = *patch.QuestionType
	}
	if patch.Options != nil {
		merged.Options = *patch.Options
	}
	if patch.CorrectAnswers != nil {
		merged.CorrectAnswers = *patch.CorrectAnswers
	}
	if err := ValidateQuestion(&merged); err != nil {
		return nil, err
	}
	question, err := s.store.UpdateQuestion(ctx, questionID, fields)
	if err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, Change{Kind: KindQuestion, Action: ActionUpdated, ID: questionID})
	return question, nil
}

// DeleteQuestion removes the question and decrements its chapter's
// totalQuestions if a record was actually removed.
func (s *Service) DeleteQuestion(ctx context.Context, questionID string) error {
	if err := s.store.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.notifier.Notify(ctx, Change{Kind: KindQuestion, Action: ActionDeleted, ID: questionID})
	return nil
}

// RecountQuestions repairs totalQuestions for the given chapters, or all.
func (s *Service) RecountQuestions(ctx context.Context, chapterIDs ...string) (int, error) {
	fixed, err := s.store.RecountQuestions(ctx, chapterIDs...)
	if err != nil {
		return 0, err
	}
	if fixed > 0 {
		s.notifier.Notify(ctx, Change{Kind: KindChapter, Action: ActionRepaired, Detail: fmt.Sprintf("%d chapters recounted", fixed)})
	}
	return fixed, nil
}
