// Package content provides database operations for books, parts, chapters
// and questions.
//
// This package implements the ContentStore interface defined in
// internal/library/store.go.
//
// # Interface Implementation
//
//	var _ library.ContentStore = (*Repository)(nil)
//
// # Usage
//
//	repo := content.NewRepository(db)
//	err := repo.CreateQuestion(ctx, &entities.Question{...})
//
// Inserts are conditional (ON CONFLICT DO NOTHING) and parent checks run
// inside the same transaction as the write, so concurrent creates of the
// same identifier cannot both succeed.
package content

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

// Repository handles all content database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new content repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var (
	bookColumns = map[string]string{
		"title":       "title",
		"description": "description",
		"imageUrl":    "image_url",
	}
	partColumns = map[string]string{
		"title": "title",
	}
	chapterColumns = map[string]string{
		"title":               "title",
		"text":                "text",
		"questionsPerSession": "questions_per_session",
		"order":               "sort_order",
		"passingPercentage":   "passing_percentage",
	}
	questionColumns = map[string]string{
		"questionText":   "question_text",
		"questionType":   "question_type",
		"options":        "options",
		"correctAnswers": "correct_answers",
	}
)

// columns maps patch field names onto column names.
func columns(fields map[string]any, names map[string]string) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		col, ok := names[k]
		if !ok {
			return nil, fmt.Errorf("field %q cannot be updated", k)
		}
		out[col] = v
	}
	return out, nil
}

// insertIfAbsent inserts value unless its primary key is taken.
func insertIfAbsent(tx *gorm.DB, value any) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(value)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func exists(tx *gorm.DB, model any, column, id string) (bool, error) {
	var n int64
	if err := tx.Model(model).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func translate(err error, resource, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return library.NotFound(resource, id)
	}
	return err
}

// updateRow applies a column map to one row and reloads it into dest.
func (r *Repository) updateRow(ctx context.Context, dest any, keyColumn, id, resource string, cols map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(dest).Where(keyColumn+" = ?", id).Updates(cols)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return library.NotFound(resource, id)
		}
		return tx.Where(keyColumn+" = ?", id).First(dest).Error
	})
}

// RecountQuestions implements library.ContentStore.
func (r *Repository) RecountQuestions(ctx context.Context, chapterIDs ...string) (int, error) {
	fixed := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []struct {
			ChapterID      string
			TotalQuestions int
			Actual         int
		}
		q := tx.Table("chapters").Select(
			"chapters.chapter_id, chapters.total_questions, " +
				"(SELECT COUNT(*) FROM questions WHERE questions.chapter_id = chapters.chapter_id) AS actual")
		if len(chapterIDs) > 0 {
			q = q.Where("chapters.chapter_id IN ?", chapterIDs)
		}
		if err := q.Scan(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			if row.TotalQuestions == row.Actual {
				continue
			}
			err := tx.Model(&entities.Chapter{}).Where("chapter_id = ?", row.ChapterID).
				UpdateColumn("total_questions", row.Actual).Error
			if err != nil {
				return err
			}
			fixed++
		}
		return nil
	})
	return fixed, err
}

func adjustQuestionCount(tx *gorm.DB, chapterID string, delta int) error {
	q := tx.Model(&entities.Chapter{}).Where("chapter_id = ?", chapterID)
	if delta < 0 {
		q = q.Where("total_questions > 0")
	}
	return q.UpdateColumn("total_questions", gorm.Expr("total_questions + ?", delta)).Error
}
