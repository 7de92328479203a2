package entrypoint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booklearn/internal/config"
	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database:    config.Database{Driver: config.DriverSQLite, Path: filepath.Join(t.TempDir(), "booklearn.db")},
		Aggregation: config.Aggregation{Concurrency: 2},
	}
}

func TestOpen_SQLite(t *testing.T) {
	ctx := context.Background()
	backend, err := Open(ctx, sqliteConfig(t))
	require.NoError(t, err)

	assert.NotNil(t, backend.SQLite)
	assert.Nil(t, backend.Cache)
	assert.Nil(t, backend.Publisher)
	assert.Empty(t, backend.Dependencies())
	require.NoError(t, backend.Health.Ping(ctx))

	_, err = backend.Library.CreateBook(ctx, entities.Book{BookID: "b1", Title: "Learning Go"})
	require.NoError(t, err)

	books, err := backend.Reader.AllBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "b1", books[0].BookID)

	backend.Audit.Flush()
	events, total, err := backend.Audit.GetEvents(ctx, entities.AuditFilter{EntityType: string(library.KindBook)}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, events, 1)

	backend.Close(ctx)
	assert.Error(t, backend.Health.Ping(ctx), "database is closed")
}

func TestOpen_EmptyDriverDefaultsToSQLite(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Database.Driver = ""

	backend, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	defer backend.Close(context.Background())
	assert.NotNil(t, backend.SQLite)
}

func TestOpen_Errors(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.Database.Driver = "postgres"
	_, err := Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown database driver")

	cfg.Database.Driver = config.DriverMongo
	_, err = Open(context.Background(), cfg)
	assert.ErrorContains(t, err, "MONGODB_URI")
}

func TestTaskConfig(t *testing.T) {
	cfg := taskConfig(config.Tasks{})
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 10*time.Minute, cfg.TaskTimeout)

	cfg = taskConfig(config.Tasks{Workers: 4, TaskTimeout: time.Minute, RetentionDuration: time.Hour})
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, time.Minute, cfg.TaskTimeout)
	assert.Equal(t, time.Hour, cfg.RetentionDuration)
	assert.Equal(t, 3, cfg.MaxRetries)
}

func TestNewSessionStore(t *testing.T) {
	ctx := context.Background()
	backend, err := Open(ctx, sqliteConfig(t))
	require.NoError(t, err)
	defer backend.Close(ctx)

	store, err := newSessionStore(backend)
	require.NoError(t, err)
	require.NoError(t, store.Commit("token", []byte("data"), time.Now().Add(time.Hour)))

	got, found, err := store.Find("token")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("data"), got)

	store, err = newSessionStore(&Backend{})
	require.NoError(t, err)
	assert.NotNil(t, store)
}
