package library_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/booklearn/internal/database"
	"github.com/mrlokans/booklearn/internal/database/content"
	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

type changeLog struct {
	changes []library.Change
}

func (c *changeLog) Notify(_ context.Context, change library.Change) {
	c.changes = append(c.changes, change)
}

func setupService(t *testing.T) (*library.Service, *content.Repository, *changeLog) {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := content.NewRepository(db.DB)
	log := &changeLog{}
	return library.NewService(repo, log), repo, log
}

func ptr[T any](v T) *T { return &v }

func seedTree(t *testing.T, svc *library.Service) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.CreateBook(ctx, entities.Book{BookID: "b1", Title: "Book"})
	require.NoError(t, err)
	_, err = svc.CreatePart(ctx, entities.Part{PartID: "p1", BookID: "b1", Title: "Part"})
	require.NoError(t, err)
	_, err = svc.CreateChapter(ctx, library.NewChapter{ChapterID: "c1", BookID: "b1", PartID: "p1", Title: "Ch", Text: "t", Order: 1})
	require.NoError(t, err)
	_, err = svc.CreateQuestion(ctx, entities.Question{
		QuestionID:     "q1",
		ChapterID:      "c1",
		QuestionText:   "Pick one",
		QuestionType:   entities.QuestionTypeSingle,
		Options:        []string{"a", "b", "c"},
		CorrectAnswers: []string{"1"},
	})
	require.NoError(t, err)
}

func TestService_ExampleTree(t *testing.T) {
	svc, repo, _ := setupService(t)
	seedTree(t, svc)

	tree, err := library.NewAggregator(repo, 4).Book(context.Background(), "b1")
	require.NoError(t, err)
	require.Len(t, tree.Parts, 1)
	require.Len(t, tree.Parts[0].Chapters, 1)
	require.Len(t, tree.Parts[0].Chapters[0].Questions, 1)
	assert.Equal(t, 1, tree.Parts[0].Chapters[0].TotalQuestions)
}

func TestService_CreateChapterDefaults(t *testing.T) {
	svc, _, _ := setupService(t)
	seedTree(t, svc)
	ctx := context.Background()

	c, err := svc.CreateChapter(ctx, library.NewChapter{ChapterID: "c2", BookID: "b1", PartID: "p1", Title: "T", Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, entities.DefaultPassingPercentage, c.PassingPercentage)
	assert.Equal(t, 0, c.TotalQuestions)

	c, err = svc.CreateChapter(ctx, library.NewChapter{ChapterID: "c3", BookID: "b1", PartID: "p1", Title: "T", Text: "x", PassingPercentage: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, c.PassingPercentage)

	_, err = svc.CreateChapter(ctx, library.NewChapter{ChapterID: "c4", BookID: "b1", PartID: "p1", Title: "T", Text: "x", PassingPercentage: ptr(120)})
	assert.ErrorIs(t, err, library.ErrValidation)
}

func TestService_CreateQuestionValidation(t *testing.T) {
	svc, repo, _ := setupService(t)
	seedTree(t, svc)
	ctx := context.Background()

	base := entities.Question{
		QuestionID:     "q2",
		ChapterID:      "c1",
		QuestionText:   "Q",
		QuestionType:   entities.QuestionTypeMultiple,
		Options:        []string{"x", "y"},
		CorrectAnswers: []string{"x", "1"},
	}

	cases := []struct {
		name   string
		mutate func(q *entities.Question)
	}{
		{"invalid type", func(q *entities.Question) { q.QuestionType = "Essay" }},
		{"empty options", func(q *entities.Question) { q.Options = nil }},
		{"answer not an option", func(q *entities.Question) { q.CorrectAnswers = []string{"z"} }},
		{"answer index out of range", func(q *entities.Question) { q.CorrectAnswers = []string{"2"} }},
		{"missing chapter", func(q *entities.Question) { q.ChapterID = "c404" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q := base
			tc.mutate(&q)
			_, err := svc.CreateQuestion(ctx, q)
			assert.ErrorIs(t, err, library.ErrValidation)
		})
	}

	c, err := repo.GetChapter(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalQuestions)

	_, err = svc.CreateQuestion(ctx, base)
	require.NoError(t, err)
}

func TestService_Patches(t *testing.T) {
	svc, _, log := setupService(t)
	seedTree(t, svc)
	ctx := context.Background()

	_, err := svc.UpdateBook(ctx, "b1", library.BookPatch{})
	assert.ErrorIs(t, err, library.ErrValidation)
	assert.Equal(t, "No valid fields provided for update", err.Error())

	_, err = svc.UpdateBook(ctx, "missing", library.BookPatch{Title: ptr("x")})
	assert.ErrorIs(t, err, library.ErrNotFound)

	book, err := svc.UpdateBook(ctx, "b1", library.BookPatch{ImageURL: ptr("http://img")})
	require.NoError(t, err)
	assert.Equal(t, "http://img", book.ImageURL)
	assert.Equal(t, "Book", book.Title)

	_, err = svc.UpdateChapter(ctx, "c1", library.ChapterPatch{Order: ptr(-1)})
	assert.ErrorIs(t, err, library.ErrValidation)

	_, err = svc.UpdateQuestion(ctx, "q1", library.QuestionPatch{Options: ptr([]string{"only"})})
	assert.ErrorIs(t, err, library.ErrValidation, "stored answer index 1 no longer fits")

	q, err := svc.UpdateQuestion(ctx, "q1", library.QuestionPatch{
		Options:        ptr([]string{"only"}),
		CorrectAnswers: ptr([]string{"only"}),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, []string(q.Options))

	last := log.changes[len(log.changes)-1]
	assert.Equal(t, library.KindQuestion, last.Kind)
	assert.Equal(t, library.ActionUpdated, last.Action)
}

func TestService_DeleteQuestionAndChapter(t *testing.T) {
	svc, repo, _ := setupService(t)
	seedTree(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.DeleteQuestion(ctx, "q1"))
	c, err := repo.GetChapter(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, c.TotalQuestions)

	assert.ErrorIs(t, svc.DeleteQuestion(ctx, "q1"), library.ErrNotFound)

	require.NoError(t, svc.DeleteChapter(ctx, "c1"))
	assert.ErrorIs(t, svc.DeleteChapter(ctx, "c1"), library.ErrNotFound)
}

func TestService_CreatePartMissingBook(t *testing.T) {
	svc, _, log := setupService(t)
	_, err := svc.CreatePart(context.Background(), entities.Part{PartID: "p1", BookID: "none", Title: "P"})
	assert.ErrorIs(t, err, library.ErrInvalidReference)
	assert.Empty(t, log.changes)
}
