// Package progress provides database operations for per-user progress.
//
// This package implements the ProgressStore interface defined in
// internal/library/store.go.
//
// # Interface Implementation
//
//	var _ library.ProgressStore = (*Repository)(nil)
//
// # Usage
//
//	repo := progress.NewRepository(db)
//	p, err := repo.GetProgress(ctx, "user-1")
//	p.BookProgress = append(p.BookProgress, entities.BookProgress{BookID: "b1"})
//	err = repo.SaveProgress(ctx, p) // library.ErrStaleVersion if someone else saved first
package progress

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

// Repository handles all user progress database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new progress repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetProgress(ctx context.Context, userID string) (*entities.UserProgress, error) {
	var p entities.UserProgress
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if err == gorm.ErrRecordNotFound {
		return nil, library.NotFound("User progress", userID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProgress inserts a new record unless the user already has one.
func (r *Repository) CreateProgress(ctx context.Context, p *entities.UserProgress) error {
	p.Version = 0
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return library.Conflict("User progress", p.UserID)
	}
	return nil
}

// SaveProgress writes bookProgress if the stored version still matches
// p.Version and bumps the version on success.
func (r *Repository) SaveProgress(ctx context.Context, p *entities.UserProgress) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&entities.UserProgress{}).
		Where("user_id = ? AND version = ?", p.UserID, p.Version).
		UpdateColumns(map[string]any{
			"book_progress": p.BookProgress,
			"version":       p.Version + 1,
			"updated_at":    now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&entities.UserProgress{}).Where("user_id = ?", p.UserID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return library.NotFound("User progress", p.UserID)
		}
		return library.ErrStaleVersion
	}
	p.Version++
	p.UpdatedAt = now
	return nil
}

func (r *Repository) DeleteProgress(ctx context.Context, userID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&entities.UserProgress{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return library.NotFound("User progress", userID)
	}
	return nil
}
