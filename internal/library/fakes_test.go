package library

import (
	"context"
	"errors"
	"sync"

	"github.com/mrlokans/booklearn/internal/entities"
)

var errBoom = errors.New("boom")

// memReader is an in-memory ContentReader with per-parent failure injection.
type memReader struct {
	books     []entities.Book
	parts     []entities.Part
	chapters  []entities.Chapter
	questions []entities.Question

	failBooks     bool
	failParts     map[string]bool // by bookId
	failChapters  map[string]bool // by partId
	failQuestions map[string]bool // by chapterId
}

func (m *memReader) ListBooks(context.Context) ([]entities.Book, error) {
	if m.failBooks {
		return nil, errBoom
	}
	return append([]entities.Book(nil), m.books...), nil
}

func (m *memReader) GetBook(_ context.Context, id string) (*entities.Book, error) {
	for _, b := range m.books {
		if b.BookID == id {
			return &b, nil
		}
	}
	return nil, NotFound("Book", id)
}

func (m *memReader) ListParts(context.Context) ([]entities.Part, error) {
	return m.parts, nil
}

func (m *memReader) ListPartsByBook(_ context.Context, bookID string) ([]entities.Part, error) {
	if m.failParts[bookID] {
		return nil, errBoom
	}
	var out []entities.Part
	for _, p := range m.parts {
		if p.BookID == bookID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memReader) GetPart(_ context.Context, id string) (*entities.Part, error) {
	for _, p := range m.parts {
		if p.PartID == id {
			return &p, nil
		}
	}
	return nil, NotFound("Part", id)
}

func (m *memReader) ListChapters(context.Context) ([]entities.Chapter, error) {
	return append([]entities.Chapter(nil), m.chapters...), nil
}

func (m *memReader) ListChaptersByPart(_ context.Context, partID string) ([]entities.Chapter, error) {
	if m.failChapters[partID] {
		return nil, errBoom
	}
	var out []entities.Chapter
	for _, c := range m.chapters {
		if c.PartID == partID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memReader) GetChapter(_ context.Context, id string) (*entities.Chapter, error) {
	for _, c := range m.chapters {
		if c.ChapterID == id {
			return &c, nil
		}
	}
	return nil, NotFound("Chapter", id)
}

func (m *memReader) ListQuestions(context.Context) ([]entities.Question, error) {
	return m.questions, nil
}

func (m *memReader) ListQuestionsByChapter(_ context.Context, chapterID string) ([]entities.Question, error) {
	if m.failQuestions[chapterID] {
		return nil, errBoom
	}
	var out []entities.Question
	for _, q := range m.questions {
		if q.ChapterID == chapterID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memReader) GetQuestion(_ context.Context, id string) (*entities.Question, error) {
	for _, q := range m.questions {
		if q.QuestionID == id {
			return &q, nil
		}
	}
	return nil, NotFound("Question", id)
}

// memProgress is an in-memory ProgressStore. beforeSave runs once before
// the version check so tests can simulate a competing writer.
type memProgress struct {
	mu         sync.Mutex
	records    map[string]entities.UserProgress
	beforeSave func()
	saves      int
}

func newMemProgress() *memProgress {
	return &memProgress{records: map[string]entities.UserProgress{}}
}

func clone(p entities.UserProgress) *entities.UserProgress {
	out := p
	out.BookProgress = nil
	for _, b := range p.BookProgress {
		b.CompletedChapters = append([]string(nil), b.CompletedChapters...)
		b.QuizResults = append([]entities.QuizResult(nil), b.QuizResults...)
		out.BookProgress = append(out.BookProgress, b)
	}
	return &out
}

func (m *memProgress) GetProgress(_ context.Context, userID string) (*entities.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.records[userID]
	if !ok {
		return nil, NotFound("User progress", userID)
	}
	return clone(p), nil
}

func (m *memProgress) CreateProgress(_ context.Context, p *entities.UserProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[p.UserID]; ok {
		return Conflict("User progress", p.UserID)
	}
	m.records[p.UserID] = *clone(*p)
	return nil
}

func (m *memProgress) SaveProgress(_ context.Context, p *entities.UserProgress) error {
	if hook := m.beforeSave; hook != nil {
		m.beforeSave = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	stored, ok := m.records[p.UserID]
	if !ok {
		return NotFound("User progress", p.UserID)
	}
	if stored.Version != p.Version {
		return ErrStaleVersion
	}
	p.Version++
	m.records[p.UserID] = *clone(*p)
	return nil
}

func (m *memProgress) DeleteProgress(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[userID]; !ok {
		return NotFound("User progress", userID)
	}
	delete(m.records, userID)
	return nil
}

// recorder collects notifications.
type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) Notify(_ context.Context, c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}
