package content

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

func (r *Repository) ListChapters(ctx context.Context) ([]entities.Chapter, error) {
	var chapters []entities.Chapter
	err := r.db.WithContext(ctx).Order("rowid").Find(&chapters).Error
	return chapters, err
}

func (r *Repository) ListChaptersByPart(ctx context.Context, partID string) ([]entities.Chapter, error) {
	var chapters []entities.Chapter
	err := r.db.WithContext(ctx).Where("part_id = ?", partID).Order("sort_order, chapter_id").Find(&chapters).Error
	return chapters, err
}

func (r *Repository) GetChapter(ctx context.Context, chapterID string) (*entities.Chapter, error) {
	var chapter entities.Chapter
	if err := r.db.WithContext(ctx).Where("chapter_id = ?", chapterID).First(&chapter).Error; err != nil {
		return nil, translate(err, "Chapter", chapterID)
	}
	return &chapter, nil
}

// CreateChapter inserts a chapter after checking that its part exists and
// belongs to the same book. totalQuestions always starts at zero.
func (r *Repository) CreateChapter(ctx context.Context, chapter *entities.Chapter) error {
	chapter.TotalQuestions = 0
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkChapterParents(tx, chapter); err != nil {
			return err
		}
		inserted, err := insertIfAbsent(tx, chapter)
		if err != nil {
			return err
		}
		if !inserted {
			return library.Conflict("Chapter", chapter.ChapterID)
		}
		return nil
	})
}

func (r *Repository) UpdateChapter(ctx context.Context, chapterID string, fields map[string]any) (*entities.Chapter, error) {
	cols, err := columns(fields, chapterColumns)
	if err != nil {
		return nil, err
	}
	var chapter entities.Chapter
	if err := r.updateRow(ctx, &chapter, "chapter_id", chapterID, "Chapter", cols); err != nil {
		return nil, err
	}
	return &chapter, nil
}

// DeleteChapter removes a chapter and its questions.
func (r *Repository) DeleteChapter(ctx context.Context, chapterID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("chapter_id = ?", chapterID).Delete(&entities.Chapter{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return library.NotFound("Chapter", chapterID)
		}
		return tx.Where("chapter_id = ?", chapterID).Delete(&entities.Question{}).Error
	})
}

// UpsertChapter creates the chapter or rewrites it when its content
// differs. The stored totalQuestions is never overwritten.
func (r *Repository) UpsertChapter(ctx context.Context, chapter *entities.Chapter) (library.UpsertResult, error) {
	result := library.Unchanged
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkChapterParents(tx, chapter); err != nil {
			return err
		}
		var existing entities.Chapter
		err := tx.Where("chapter_id = ?", chapter.ChapterID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			result = library.Created
			chapter.TotalQuestions = 0
			return tx.Create(chapter).Error
		}
		if err != nil {
			return err
		}
		chapter.TotalQuestions = existing.TotalQuestions
		if existing.SameContent(*chapter) {
			*chapter = existing
			return nil
		}
		result = library.Updated
		return tx.Model(&existing).Updates(map[string]any{
			"book_id":               chapter.BookID,
			"part_id":               chapter.PartID,
			"title":                 chapter.Title,
			"text":                  chapter.Text,
			"questions_per_session": chapter.QuestionsPerSession,
			"sort_order":            chapter.Order,
			"passing_percentage":    chapter.PassingPercentage,
		}).Error
	})
	return result, err
}

func checkChapterParents(tx *gorm.DB, chapter *entities.Chapter) error {
	var part entities.Part
	err := tx.Where("part_id = ?", chapter.PartID).First(&part).Error
	if err == gorm.ErrRecordNotFound {
		ok, err := exists(tx, &entities.Book{}, "book_id", chapter.BookID)
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
