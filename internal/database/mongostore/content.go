package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

// Patchable document fields per collection. Patch keys already match the
// bson field names.
var (
	bookFields     = fieldSet("title", "description", "imageUrl")
	partFields     = fieldSet("title")
	chapterFields  = fieldSet("title", "text", "questionsPerSession", "order", "passingPercentage")
	questionFields = fieldSet("questionText", "questionType", "options", "correctAnswers")
)

func fieldSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// Books

func (s *Store) ListBooks(ctx context.Context) ([]entities.Book, error) {
	return findAll[entities.Book](ctx, s.books, bson.M{})
}

func (s *Store) GetBook(ctx context.Context, bookID string) (*entities.Book, error) {
	return findOne[entities.Book](ctx, s.books, "bookId", bookID, "Book")
}

func (s *Store) CreateBook(ctx context.Context, book *entities.Book) error {
	now := time.Now().UTC()
	book.CreatedAt, book.UpdatedAt = now, now
	return insertIfAbsent(ctx, s.books, book, "Book", book.BookID)
}

func (s *Store) UpdateBook(ctx context.Context, bookID string, fields map[string]any) (*entities.Book, error) {
	var book entities.Book
	if err := s.update(ctx, s.books, bookFields, "bookId", bookID, "Book", fields, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book with its parts, chapters and questions.
func (s *Store) DeleteBook(ctx context.Context, bookID string) error {
	res, err := s.books.DeleteOne(ctx, bson.M{"bookId": bookID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return library.NotFound("Book", bookID)
	}
	chapterIDs, err := s.chapterIDs(ctx, bson.M{"bookId": bookID})
	if err != nil {
		return err
	}
	if len(chapterIDs) > 0 {
		if _, err := s.questions.DeleteMany(ctx, bson.M{"chapterId": bson.M{"$in": chapterIDs}}); err != nil {
			return err
		}
	}
	if _, err := s.chapters.DeleteMany(ctx, bson.M{"bookId": bookID}); err != nil {
		return err
	}
	_, err = s.parts.DeleteMany(ctx, bson.M{"bookId": bookID})
	return err
}

func (s *Store) UpsertBook(ctx context.Context, book *entities.Book) (library.UpsertResult, error) {
	existing, err := s.GetBook(ctx, book.BookID)
	if errors.Is(err, library.ErrNotFound) {
		return library.Created, s.CreateBook(ctx, book)
	}
	if err != nil {
		return library.Unchanged, err
	}
	if existing.SameContent(*book) {
		*book = *existing
		return library.Unchanged, nil
	}
	updated, err := s.UpdateBook(ctx, book.BookID, map[string]any{
		"title":       book.Title,
		"description": book.Description,
		"imageUrl":    book.ImageURL,
	})
	if err != nil {
		return library.Unchanged, err
	}
	*book = *updated
	return library.Updated, nil
}

// Parts

func (s *Store) ListParts(ctx context.Context) ([]entities.Part, error) {
	return findAll[entities.Part](ctx, s.parts, bson.M{})
}

func (s *Store) ListPartsByBook(ctx context.Context, bookID string) ([]entities.Part, error) {
	return findAll[entities.Part](ctx, s.parts, bson.M{"bookId": bookID})
}

func (s *Store) GetPart(ctx context.Context, partID string) (*entities.Part, error) {
	return findOne[entities.Part](ctx, s.parts, "partId", partID, "Part")
}

func (s *Store) CreatePart(ctx context.Context, part *entities.Part) error {
	if err := s.checkPartParent(ctx, part); err != nil {
		return err
	}
	now := time.Now().UTC()
	part.CreatedAt, part.UpdatedAt = now, now
	if err := insertIfAbsent(ctx, s.parts, part, "Part", part.PartID); err != nil {
		return err
	}
	// The book may have been deleted between the check and the insert.
	if err := s.checkPartParent(ctx, part); err != nil {
		_, _ = s.parts.DeleteOne(ctx, bson.M{"partId": part.PartID})
		return err
	}
	return nil
}

func (s *Store) UpdatePart(ctx context.Context, partID string, fields map[string]any) (*entities.Part, error) {
	var part entities.Part
	if err := s.update(ctx, s.parts, partFields, "partId", partID, "Part", fields, &part); err != nil {
		return nil, err
	}
	return &part, nil
}

// DeletePart removes a part with its chapters and their questions.
func (s *Store) DeletePart(ctx context.Context, partID string) error {
	res, err := s.parts.DeleteOne(ctx, bson.M{"partId": partID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return library.NotFound("Part", partID)
	}
	chapterIDs, err := s.chapterIDs(ctx, bson.M{"partId": partID})
	if err != nil {
		return err
	}
	if len(chapterIDs) > 0 {
		if _, err := s.questions.DeleteMany(ctx, bson.M{"chapterId": bson.M{"$in": chapterIDs}}); err != nil {
			return err
		}
	}
	_, err = s.chapters.DeleteMany(ctx, bson.M{"partId": partID})
	return err
}

func (s *Store) UpsertPart(ctx context.Context, part *entities.Part) (library.UpsertResult, error) {
	if err := s.checkPartParent(ctx, part); err != nil {
		return library.Unchanged, err
	}
	existing, err := s.GetPart(ctx, part.PartID)
	if errors.Is(err, library.ErrNotFound) {
		return library.Created, s.CreatePart(ctx, part)
	}
	if err != nil {
		return library.Unchanged, err
	}
	if existing.SameContent(*part) {
		*part = *existing
		return library.Unchanged, nil
	}
	return library.Updated, s.replace(ctx, s.parts, "partId", part.PartID, bson.M{
		"bookId": part.BookID,
		"title":  part.Title,
	}, part)
}

func (s *Store) checkPartParent(ctx context.Context, part *entities.Part) error {
	ok, err := exists(ctx, s.books, "bookId", part.BookID)
	if err != nil {
		return err
	}
	if !ok {
		return library.InvalidReference("bookId")
	}
	return nil
}

// Chapters

func (s *Store) ListChapters(ctx context.Context) ([]entities.Chapter, error) {
	return findAll[entities.Chapter](ctx, s.chapters, bson.M{})
}

func (s *Store) ListChaptersByPart(ctx context.Context, partID string) ([]entities.Chapter, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}, {Key: "chapterId", Value: 1}})
	cursor, err := s.chapters.Find(ctx, bson.M{"partId": partID}, opts)
	if err != nil {
		return nil, err
	}
	chapters := []entities.Chapter{}
	if err := cursor.All(ctx, &chapters); err != nil {
		return nil, err
	}
	return chapters, nil
}

func (s *Store) GetChapter(ctx context.Context, chapterID string) (*entities.Chapter, error) {
	return findOne[entities.Chapter](ctx, s.chapters, "chapterId", chapterID, "Chapter")
}

func (s *Store) CreateChapter(ctx context.Context, chapter *entities.Chapter) error {
	if err := s.checkChapterParents(ctx, chapter); err != nil {
		return err
	}
	now := time.Now().UTC()
	chapter.TotalQuestions = 0
	chapter.CreatedAt, chapter.UpdatedAt = now, now
	if err := insertIfAbsent(ctx, s.chapters, chapter, "Chapter", chapter.ChapterID); err != nil {
		return err
	}
	if err := s.checkChapterParents(ctx, chapter); err != nil {
		_, _ = s.chapters.DeleteOne(ctx, bson.M{"chapterId": chapter.ChapterID})
		return err
	}
	return nil
}

func (s *Store) UpdateChapter(ctx context.Context, chapterID string, fields map[string]any) (*entities.Chapter, error) {
	var chapter entities.Chapter
	if err := s.update(ctx, s.chapters, chapterFields, "chapterId", chapterID, "Chapter", fields, &chapter); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// DeleteChapter removes a chapter and its questions.
func (s *Store) DeleteChapter(ctx context.Context, chapterID string) error {
	res, err := s.chapters.DeleteOne(ctx, bson.M{"chapterId": chapterID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return library.NotFound("Chapter", chapterID)
	}
	_, err = s.questions.DeleteMany(ctx, bson.M{"chapterId": chapterID})
	return err
}

// UpsertChapter never overwrites the stored totalQuestions.
func (s *Store) UpsertChapter(ctx context.Context, chapter *entities.Chapter) (library.UpsertResult, error) {
	if err := s.checkChapterParents(ctx, chapter); err != nil {
		return library.Unchanged, err
	}
	existing, err := s.GetChapter(ctx, chapter.ChapterID)
	if errors.Is(err, library.ErrNotFound) {
		return library.Created, s.CreateChapter(ctx, chapter)
	}
	if err != nil {
		return library.Unchanged, err
	}
	chapter.TotalQuestions = existing.TotalQuestions
	if existing.SameContent(*chapter) {
		*chapter = *existing
		return library.Unchanged, nil
	}
	return library.Updated, s.replace(ctx, s.chapters, "chapterId", chapter.ChapterID, bson.M{
		"bookId":              chapter.BookID,
		"partId":              chapter.PartID,
		"title":               chapter.Title,
		"text":                chapter.Text,
		"questionsPerSession": chapter.QuestionsPerSession,
		"order":               chapter.Order,
		"passingPercentage":   chapter.PassingPercentage,
	}, chapter)
}

func (s *Store) checkChapterParents(ctx context.Context, chapter *entities.Chapter) error {
	part, err := s.GetPart(ctx, chapter.PartID)
	if errors.Is(err, library.ErrNotFound) {
		ok, err := exists(ctx, s.books, "bookId", chapter.BookID)
		if err != nil {
			return err
		}
		if !ok {
			return library.InvalidReference("bookId")
		}
		return library.InvalidReference("partId")
	}
	if err != nil {
		return err
	}
	if part.BookID != chapter.BookID {
		return &library.ValidationError{
			Field:   "partId",
			Message: "Part " + part.PartID + " does not belong to book " + chapter.BookID,
			Ref:     true,
		}
	}
	return nil
}

func (s *Store) chapterIDs(ctx context.Context, filter bson.M) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"chapterId": 1})
	cursor, err := s.chapters.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []struct {
		ChapterID string `bson:"chapterId"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ChapterID
	}
	return ids, nil
}

// Questions

func (s *Store) ListQuestions(ctx context.Context) ([]entities.Question, error) {
	return findAll[entities.Question](ctx, s.questions, bson.M{})
}

func (s *Store) ListQuestionsByChapter(ctx context.Context, chapterID string) ([]entities.Question, error) {
	return findAll[entities.Question](ctx, s.questions, bson.M{"chapterId": chapterID})
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (*entities.Question, error) {
	return findOne[entities.Question](ctx, s.questions, "questionId", questionID, "Question")
}

// CreateQuestion inserts the question, then increments the chapter
// counter. When the chapter vanished in between, the insert is undone.
func (s *Store) CreateQuestion(ctx context.Context, question *entities.Question) error {
	ok, err := exists(ctx, s.chapters, "chapterId", question.ChapterID)
	if err != nil {
		return err
	}
	if !ok {
		return library.InvalidReference("chapterId")
	}
	now := time.Now().UTC()
	question.CreatedAt, question.UpdatedAt = now, now
	if err := insertIfAbsent(ctx, s.questions, question, "Question", question.QuestionID); err != nil {
		return err
	}
	matched, err := s.adjustQuestionCount(ctx, question.ChapterID, 1)
	if err != nil || !matched {
		_, _ = s.questions.DeleteOne(ctx, bson.M{"questionId": question.QuestionID})
		if err != nil {
			return err
		}
		return library.InvalidReference("chapterId")
	}
	return nil
}

func (s *Store) UpdateQuestion(ctx context.Context, questionID string, fields map[string]any) (*entities.Question, error) {
	var question entities.Question
	if err := s.update(ctx, s.questions, questionFields, "questionId", questionID, "Question", fields, &question); err != nil {
		return nil, err
	}
	return &question, nil
}

// DeleteQuestion decrements the counter only for the caller that actually
// removed the document.
func (s *Store) DeleteQuestion(ctx context.Context, questionID string) error {
	var deleted entities.Question
	err := s.questions.FindOneAndDelete(ctx, bson.M{"questionId": questionID}).Decode(&deleted)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return library.NotFound("Question", questionID)
	}
	if err != nil {
		return err
	}
	_, err = s.adjustQuestionCount(ctx, deleted.ChapterID, -1)
	return err
}

func (s *Store) UpsertQuestion(ctx context.Context, question *entities.Question) (library.UpsertResult, error) {
	existing, err := s.GetQuestion(ctx, question.QuestionID)
	if errors.Is(err, library.ErrNotFound) {
		return library.Created, s.CreateQuestion(ctx, question)
	}
	if err != nil {
		return library.Unchanged, err
	}
	ok, err := exists(ctx, s.chapters, "chapterId", question.ChapterID)
	if err != nil {
		return library.Unchanged, err
	}
	if !ok {
		return library.Unchanged, library.InvalidReference("chapterId")
	}
	if existing.SameContent(*question) {
		*question = *existing
		return library.Unchanged, nil
	}
	err = s.replace(ctx, s.questions, "questionId", question.QuestionID, bson.M{
		"chapterId":      question.ChapterID,
		"questionText":   question.QuestionText,
		"questionType":   question.QuestionType,
		"options":        question.Options,
		"correctAnswers": question.CorrectAnswers,
	}, question)
	if err != nil || existing.ChapterID == question.ChapterID {
		return library.Updated, err
	}
	if _, err := s.adjustQuestionCount(ctx, existing.ChapterID, -1); err != nil {
		return library.Updated, err
	}
	_, err = s.adjustQuestionCount(ctx, question.ChapterID, 1)
	return library.Updated, err
}

// RecountQuestions implements library.ContentStore.
func (s *Store) RecountQuestions(ctx context.Context, chapterIDs ...string) (int, error) {
	filter := bson.M{}
	if len(chapterIDs) > 0 {
		filter["chapterId"] = bson.M{"$in": chapterIDs}
	}
	cursor, err := s.chapters.Find(ctx, filter, options.Find().SetProjection(bson.M{"chapterId": 1, "totalQuestions": 1}))
	if err != nil {
		return 0, err
	}
	var rows []struct {
		ChapterID      string `bson:"chapterId"`
		TotalQuestions int    `bson:"totalQuestions"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}

	fixed := 0
	for _, row := range rows {
		actual, err := s.questions.CountDocuments(ctx, bson.M{"chapterId": row.ChapterID})
		if err != nil {
			return fixed, err
		}
		if int(actual) == row.TotalQuestions {
			continue
		}
		_, err = s.chapters.UpdateOne(ctx,
			bson.M{"chapterId": row.ChapterID},
			bson.M{"$set": bson.M{"totalQuestions": int(actual)}})
		if err != nil {
			return fixed, err
		}
		fixed++
	}
	return fixed, nil
}

// adjustQuestionCount applies delta with $inc. Decrements never take the
// counter below zero. It reports whether the chapter matched.
func (s *Store) adjustQuestionCount(ctx context.Context, chapterID string, delta int) (bool, error) {
	filter := bson.M{"chapterId": chapterID}
	if delta < 0 {
		filter["totalQuestions"] = bson.M{"$gt": 0}
	}
	res, err := s.chapters.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"totalQuestions": delta}})
	if err != nil {
		return false, fmt.Errorf("failed to adjust question count for chapter %s: %w", chapterID, err)
	}
	return res.MatchedCount > 0, nil
}

// update applies an allowed-field patch and decodes the updated document.
func (s *Store) update(ctx context.Context, coll *mongo.Collection, allowed map[string]bool,
	key, id, resource string, fields map[string]any, dest any) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		if !allowed[k] {
			return fmt.Errorf("field %q cannot be updated", k)
		}
		set[k] = v
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := coll.FindOneAndUpdate(ctx, bson.M{key: id}, bson.M{"$set": set}, opts).Decode(dest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return library.NotFound(resource, id)
	}
	return err
}

// replace rewrites the given fields during an upsert and decodes the result.
func (s *Store) replace(ctx context.Context, coll *mongo.Collection, key, id string, set bson.M, dest any) error {
	set["updatedAt"] = time.Now().UTC()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return coll.FindOneAndUpdate(ctx, bson.M{key: id}, bson.M{"$set": set}, opts).Decode(dest)
}
