package content

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

// ListBooks retrieves all books in insertion order.
func (r *Repository) ListBooks(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Order("rowid").Find(&books).Error
	return books, err
}

// GetBook retrieves a book by its bookId.
func (r *Repository) GetBook(ctx context.Context, bookID string) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).Where("book_id = ?", bookID).First(&book).Error; err != nil {
		return nil, translate(err, "Book", bookID)
	}
	return &book, nil
}

// CreateBook inserts a book unless the bookId is taken.
func (r *Repository) CreateBook(ctx context.Context, book *entities.Book) error {
	inserted, err := insertIfAbsent(r.db.WithContext(ctx), book)
	if err != nil {
		return err
	}
	if !inserted {
		return library.Conflict("Book", book.BookID)
	}
	return nil
}

// UpdateBook applies allowed field changes and returns the stored book.
func (r *Repository) UpdateBook(ctx context.Context, bookID string, fields map[string]any) (*entities.Book, error) {
	cols, err := columns(fields, bookColumns)
	if err != nil {
		return nil, err
	}
	var book entities.Book
	if err := r.updateRow(ctx, &book, "book_id", bookID, "Book", cols); err != nil {
		return nil, err
	}
	return &book, nil
}

// DeleteBook removes a book together with its parts, chapters and questions.
func (r *Repository) DeleteBook(ctx context.Context, bookID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("book_id = ?", bookID).Delete(&entities.Book{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return library.NotFound("Book", bookID)
		}
		chapters := tx.Model(&entities.Chapter{}).Select("chapter_id").Where("book_id = ?", bookID)
		if err := tx.Where("chapter_id IN (?)", chapters).Delete(&entities.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Where("book_id = ?", bookID).Delete(&entities.Chapter{}).Error; err != nil {
			return err
		}
		return tx.Where("book_id = ?", bookID).Delete(&entities.Part{}).Error
	})
}

// UpsertBook creates the book or rewrites it when its content differs.
func (r *Repository) UpsertBook(ctx context.Context, book *entities.Book) (library.UpsertResult, error) {
	result := library.Unchanged
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing entities.Book
		err := tx.Where("book_id = ?", book.BookID).First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			result = library.Created
			return tx.Create(book).Error
		}
		if err != nil {
			return err
		}
		if existing.SameContent(*book) {
			*book = existing
			return nil
		}
		result = library.Updated
		return tx.Model(&existing).Updates(map[string]any{
			"title":       book.Title,
			"description": book.Description,
			"image_url":   book.ImageURL,
		}).Error
	})
	return result, err
}
