package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/booklearn/internal/entities"
)

func TestDatabaseInitialization(t *testing.T) {
	t.Run("NewDatabase creates database file", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "init_test.db")

		db, err := NewDatabase(dbPath, WithLogLevel(logger.Silent))
		require.NoError(t, err)
		defer db.Close()

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("NewDatabase migrates every table", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "migrate_test.db"), WithLogLevel(logger.Silent))
		require.NoError(t, err)
		defer db.Close()

		for _, model := range []any{
			&entities.Book{}, &entities.Part{}, &entities.Chapter{},
			&entities.Question{}, &entities.UserProgress{}, &entities.AuditEvent{},
		} {
			assert.True(t, db.DB.Migrator().HasTable(model), "%T table", model)
		}
	})

	t.Run("NewDatabase is idempotent", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "idempotent_test.db")

		db1, err := NewDatabase(dbPath, WithLogLevel(logger.Silent))
		require.NoError(t, err)
		require.NoError(t, db1.DB.Create(&entities.Book{BookID: "b1", Title: "Kept"}).Error)
		require.NoError(t, db1.Close())

		db2, err := NewDatabase(dbPath, WithLogLevel(logger.Silent))
		require.NoError(t, err)
		defer db2.Close()

		var count int64
		require.NoError(t, db2.DB.Model(&entities.Book{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Ping and Close", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "close_test.db"), WithLogLevel(logger.Silent))
		require.NoError(t, err)

		assert.NoError(t, db.Ping(context.Background()))
		assert.NoError(t, db.Close())
		assert.Error(t, db.Ping(context.Background()))
	})
}

func TestDSN(t *testing.T) {
	assert.Equal(t, ":memory:", dsn(":memory:"))
	assert.Equal(t, "file.db?mode=ro", dsn("file.db?mode=ro"))
	assert.Equal(t, "data/booklearn.db?_journal=WAL&_busy_timeout=5000", dsn("data/booklearn.db"))
}
