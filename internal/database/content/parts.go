package content

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

func (r *Repository) ListParts(ctx context.Context) ([]entities.Part, error) {
	var parts []entities.Part
	err := r.db.WithContext(ctx).Order("rowid").Find(&parts).Error
	return parts, err
}

func (r *Repository) ListPartsByBook(ctx context.Context, bookID string) ([]entities.Part, error) {
	var parts []entities.Part
	err := r.db.WithContext(ctx).Where("book_id = ?", bookID).Order("rowid").Find(&parts).Error
	return parts, err
}

func (r *Repository) GetPart(ctx context.Context, partID string) (*entities.Part, error) {
	var part entities.Part
	if err := r.db.WithContext(ctx).Where("part_id = ?", partID).First(&part).Error; err != nil {
		return nil, translate(err, "Part", partID)
	}
	return &part, nil
}

// CreatePart inserts a part after checking its book exists.
func (r *Repository) CreatePart(ctx context.Context, part *entities.Part) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPartParent(tx, part); err != nil {
			return err
		}
		inserted, err := insertIfAbsent(tx, part)
		if err != nil {
			return err
		}
		if !inserted {
			return library.Conflict("Part", part.PartID)
		}
		return nil
	})
}

func (r *Repository) UpdatePart(ctx context.Context, partID string, fields map[string]any) (*entities.Part, error) {
	cols, err := columns(fields, partColumns)
	if err != nil {
		return nil, err
	}
	var part entities.Part
	if err := r.updateRow(ctx, &part, "part_id", partID, "Part", cols); err != nil {
		return nil, err
	}
	return &part, nil
}

// DeletePart removes a part with its chapters and their questions.
func (r *Repository) DeletePart(ctx context.Context, partID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("part_id = ?", partID).Delete(&entities.Part{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return library.NotFound("Part", partID)
		}
		chapters := tx.Model(&entities.Chapter{}).Select("chapter_id").Where("part_id = ?", partID)
		if err := tx.Where("chapter_id IN (?)", chapters).Delete(&entities.Question{}).Error; err != nil {
			return err
		}
		return tx.Where("part_id = ?", partID).Delete(&entities.Chapter{}).Error
	})
}

// UpsertPart creates the part or rewrites it when its content differs.
// The book must already exist.
func (r *Repository) UpsertPart(ctx context.Context, part *entities.Part) (library.UpsertResult, error) {
	result := library.Unchanged
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkPartParent(tx, part); err != nil {
			return err
		}
		var existing entities.Part
		err := tx.Where("part_id = ?", part.PartID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			result = library.Created
			return tx.Create(part).Error
		}
		if err != nil {
			return err
		}
		if existing.SameContent(*part) {
			*part = existing
			return nil
		}
		result = library.Updated
		return tx.Model(&existing).Updates(map[string]any{
			"book_id": part.BookID,
			"title":   part.Title,
		}).Error
	})
	return result, err
}

func checkPartParent(tx *gorm.DB, part *entities.Part) error {
	ok, err := exists(tx, &entities.Book{}, "book_id", part.BookID)
	if err != nil {
		return err
	}
	if !ok {
		return library.InvalidReference("bookId")
	}
	return nil
}
