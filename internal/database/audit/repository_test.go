package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/booklearn/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.AuditEvent{})
	require.NoError(t, err)

	return db
}

func TestRepository_LogEvent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)

	event := &entities.AuditEvent{
		EventType:   entities.AuditEventCreate,
		EntityType:  "book",
		EntityID:    "b1",
		Description: "book b1 created",
		Status:      entities.AuditStatusSuccess,
	}

	err := repo.LogEvent(context.Background(), event)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
}

func TestRepository_GetEvents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		entityType, bookID := "book", "b1"
		if i%3 == 0 {
			entityType = "question"
		}
		if i >= 12 {
			bookID = "b2"
		}
		event := &entities.AuditEvent{
			EventType:  entities.AuditEventUpdate,
			EntityType: entityType,
			EntityID:   fmt.Sprintf("%s-%d", entityType, i),
			BookID:     bookID,
			Status:     entities.AuditStatusSuccess,
			CreatedAt:  time.Now().Add(time.Duration(-i) * time.Hour),
		}
		require.NoError(t, repo.LogEvent(ctx, event))
	}

	t.Run("pagination", func(t *testing.T) {
		events, total, err := repo.GetEvents(ctx, entities.AuditFilter{}, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(15), total)
		assert.Len(t, events, 10)
		assert.True(t, events[0].CreatedAt.After(events[1].CreatedAt))

		events, _, err = repo.GetEvents(ctx, entities.AuditFilter{}, 10, 10)
		require.NoError(t, err)
		assert.Len(t, events, 5)
	})

	t.Run("filter by entity type", func(t *testing.T) {
		events, total, err := repo.GetEvents(ctx, entities.AuditFilter{EntityType: "question"}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(5), total)
		for _, e := range events {
			assert.Equal(t, "question", e.EntityType)
		}
	})

	t.Run("filters combine", func(t *testing.T) {
		_, total, err := repo.GetEvents(ctx, entities.AuditFilter{BookID: "b2"}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)

		// i = 12 is the only question event of b2
		events, total, err := repo.GetEvents(ctx, entities.AuditFilter{EntityType: "question", BookID: "b2"}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "question-12", events[0].EntityID)

		_, total, err = repo.GetEvents(ctx, entities.AuditFilter{EntityID: "book-4"}, 0, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}

func TestRepository_DeleteOldEvents(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	old := &entities.AuditEvent{EventType: entities.AuditEventDelete, CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := &entities.AuditEvent{EventType: entities.AuditEventDelete, CreatedAt: time.Now()}
	require.NoError(t, repo.LogEvent(ctx, old))
	require.NoError(t, repo.LogEvent(ctx, recent))

	deleted, err := repo.DeleteOldEvents(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, total, err := repo.GetEvents(ctx, entities.AuditFilter{}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
