package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/booklearn/internal/entities"
)

const defaultPageSize = 50

// Repository stores audit events in the audit_events table.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) LogEvent(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *Repository) filtered(ctx context.Context, f entities.AuditFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&entities.AuditEvent{})
	for column, value := range map[string]string{
		"entity_type": f.EntityType,
		"entity_id":   f.EntityID,
		"book_id":     f.BookID,
	} {
		if value != "" {
			query = query.Where(column+" = ?", value)
		}
	}
	return query
}

// GetEvents returns one page of matching events, newest first, and the
// number of matches.
func (r *Repository) GetEvents(ctx context.Context, f entities.AuditFilter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	offset = max(offset, 0)

	events := []entities.AuditEvent{}
	err := r.filtered(ctx, f).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	return events, total, err
}

// DeleteOldEvents removes events created before olderThan.
func (r *Repository) DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
