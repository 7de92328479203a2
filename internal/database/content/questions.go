package content

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

func (r *Repository) ListQuestions(ctx context.Context) ([]entities.Question, error) {
	var questions []entities.Question
	err := r.db.WithContext(ctx).Order("rowid").Find(&questions).Error
	return questions, err
}

func (r *Repository) ListQuestionsByChapter(ctx context.Context, chapterID string) ([]entities.Question, error) {
	var questions []entities.Question
	err := r.db.WithContext(ctx).Where("chapter_id = ?", chapterID).Order("rowid").Find(&questions).Error
	return questions, err
}

func (r *Repository) GetQuestion(ctx context.Context, questionID string) (*entities.Question, error) {
	var question entities.Question
	if err := r.db.WithContext(ctx).Where("question_id = ?", questionID).First(&question).Error; err != nil {
		return nil, translate(err, "Question", questionID)
	}
	return &question, nil
}

// CreateQuestion inserts a question and increments its chapter's
// totalQuestions in one transaction. Nothing is written when the chapter
// does not exist or the questionId is taken.
func (r *Repository) CreateQuestion(ctx context.Context, question *entities.Question) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkQuestionParent(tx, question); err != nil {
			return err
		}
		inserted, err := insertIfAbsent(tx, question)
		if err != nil {
			return err
		}
		if !inserted {
			return library.Conflict("Question", question.QuestionID)
		}
		return adjustQuestionCount(tx, question.ChapterID, 1)
	})
}

func (r *Repository) UpdateQuestion(ctx context.Context, questionID string, fields map[string]any) (*entities.Question, error) {
	cols, err := columns(fields, questionColumns)
	if err != nil {
		return nil, err
	}
	var question entities.Question
	if err := r.updateRow(ctx, &question, "question_id", questionID, "Question", cols); err != nil {
		return nil, err
	}
	return &question, nil
}

// DeleteQuestion removes a question and decrements its chapter's
// totalQuestions only when a row was actually deleted.
func (r *Repository) DeleteQuestion(ctx context.Context, questionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var question entities.Question
		if err := tx.Where("question_id = ?", questionID).First(&question).Error; err != nil {
			return translate(err, "Question", questionID)
		}
		res := tx.Where("question_id = ?", questionID).Delete(&entities.Question{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return library.NotFound("Question", questionID)
		}
		return adjustQuestionCount(tx, question.ChapterID, -1)
	})
}

// UpsertQuestion creates the question or rewrites it when its content
// differs, moving the counter along when the question changes chapter.
func (r *Repository) UpsertQuestion(ctx context.Context, question *entities.Question) (library.UpsertResult, error) {
	result := library.Unchanged
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkQuestionParent(tx, question); err != nil {
			return err
		}
		var existing entities.Question
		err := tx.Where("question_id = ?", question.QuestionID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			result = library.Created
			if err := tx.Create(question).Error; err != nil {
				return err
			}
			return adjustQuestionCount(tx, question.ChapterID, 1)
		}
		if err != nil {
			return err
		}
		if existing.SameContent(*question) {
			*question = existing
			return nil
		}
		result = library.Updated
		previousChapter := existing.ChapterID
		err = tx.Model(&existing).Updates(map[string]any{
			"chapter_id":      question.ChapterID,
			"question_text":   question.QuestionText,
			"question_type":   question.QuestionType,
			"options":         question.Options,
			"correct_answers": question.CorrectAnswers,
		}).Error
		if err != nil || previousChapter == question.ChapterID {
			return err
		}
		if err := adjustQuestionCount(tx, previousChapter, -1); err != nil {
			return err
		}
		return adjustQuestionCount(tx, question.ChapterID, 1)
	})
	return result, err
}

func checkQuestionParent(tx *gorm.DB, question *entities.Question) error {
	ok, err := exists(tx, &entities.Chapter{}, "chapter_id", question.ChapterID)
	if err != nil {
		return err
	}
	if !ok {
		return library.InvalidReference("chapterId")
	}
	return nil
}
