package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booklearn/internal/importers"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "booklearn-tasks.db"), DBPath(filepath.Join("data", "booklearn.db")))
	assert.Equal(t, filepath.Join("data", "store-tasks.db"), DBPath(filepath.Join("data", "store")))
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	require.NotNil(t, client)

	_, err = os.Stat(filepath.Join(tmpDir, "test-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

type fakeImporter struct {
	paths chan string
	err   error
}

func (f *fakeImporter) ImportFile(_ context.Context, path string, _ importers.Options) (importers.Result, error) {
	f.paths <- path
	return importers.Result{Source: path}, f.err
}

func TestImportWorkbookTask_Runs(t *testing.T) {
	client := newTestClient(t)
	importer := &fakeImporter{paths: make(chan string, 1)}
	client.Register(NewImportWorkbookQueue(importer))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.Enqueue(ImportWorkbookTask{Path: "data.xlsx"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case path := <-importer.paths:
		assert.Equal(t, "data.xlsx", path)
	case <-time.After(5 * time.Second):
		t.Fatal("import task was not executed within timeout")
	}
}

func TestImportWorkbookProcessor(t *testing.T) {
	ctx := context.Background()

	err := ImportWorkbookProcessor(nil)(ctx, ImportWorkbookTask{Path: "x.xlsx"})
	assert.Error(t, err)

	importer := &fakeImporter{paths: make(chan string, 2)}
	assert.Error(t, ImportWorkbookProcessor(importer)(ctx, ImportWorkbookTask{}))

	importer.err = errors.New("no sheets")
	err = ImportWorkbookProcessor(importer)(ctx, ImportWorkbookTask{Path: "x.xlsx"})
	assert.ErrorContains(t, err, "no sheets")
}

type fakeRecounter struct {
	got []string
}

func (f *fakeRecounter) RecountQuestions(_ context.Context, ids ...string) (int, error) {
	f.got = ids
	return len(ids), nil
}

func TestRecountQuestionsProcessor(t *testing.T) {
	r := &fakeRecounter{}
	err := RecountQuestionsProcessor(r)(context.Background(), RecountQuestionsTask{ChapterIDs: []string{"c1", "c2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, r.got)
}

type fakeCleaner struct {
	retention time.Duration
}

func (f *fakeCleaner) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	f.retention = retention
	return 3, nil
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	c := &fakeCleaner{}
	require.NoError(t, CleanupAuditEventsProcessor(c)(context.Background(), CleanupAuditEventsTask{}))
	assert.Equal(t, 30*24*time.Hour, c.retention)

	require.NoError(t, CleanupAuditEventsProcessor(c)(context.Background(), CleanupAuditEventsTask{RetentionDays: 7}))
	assert.Equal(t, 7*24*time.Hour, c.retention)

	assert.Error(t, CleanupAuditEventsProcessor(nil)(context.Background(), CleanupAuditEventsTask{}))
}

func TestTaskConfigs(t *testing.T) {
	imp := ImportWorkbookTask{}.Config()
	assert.Equal(t, "import_workbook", imp.Name)
	assert.Equal(t, 1, imp.MaxAttempts)
	assert.Equal(t, 10*time.Minute, imp.Timeout)

	rec := RecountQuestionsTask{}.Config()
	assert.Equal(t, "recount_questions", rec.Name)
	assert.NotNil(t, rec.Retention)

	assert.Equal(t, "cleanup_audit_events", CleanupAuditEventsTask{}.Config().Name)
}

func TestNewClient_AppliesQueueSettings(t *testing.T) {
	t.Cleanup(func() { setActive(DefaultConfig()) })

	cfg := DefaultConfig()
	cfg.Workers = 1
	cfg.MaxRetries = 5
	cfg.RetryDelay = 10 * time.Second
	cfg.TaskTimeout = 30 * time.Minute
	cfg.RetentionDuration = 2 * time.Hour
	client, err := NewClient(filepath.Join(t.TempDir(), "test.db"), cfg)
	require.NoError(t, err)
	defer client.Close()

	imp := ImportWorkbookTask{}.Config()
	assert.Equal(t, 1, imp.MaxAttempts, "imports are never retried")
	assert.Equal(t, 30*time.Minute, imp.Timeout)
	assert.Equal(t, 2*time.Hour, imp.Retention.Duration)

	rec := RecountQuestionsTask{}.Config()
	assert.Equal(t, 5, rec.MaxAttempts)
	assert.Equal(t, 10*time.Second, rec.Backoff)

	assert.Equal(t, 5, CleanupAuditEventsTask{}.Config().MaxAttempts)
}

func TestSetActive_FillsZeroValues(t *testing.T) {
	t.Cleanup(func() { setActive(DefaultConfig()) })

	setActive(Config{Workers: 1})
	got := activeConfig()
	assert.Equal(t, 3, got.MaxRetries)
	assert.Equal(t, 10*time.Minute, got.TaskTimeout)
	assert.Equal(t, 24*time.Hour, got.RetentionDuration)
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "pending", StatusName(backlite.TaskStatusPending))
	assert.Equal(t, "success", StatusName(backlite.TaskStatusSuccess))
	assert.Equal(t, "not_found", StatusName(backlite.TaskStatusNotFound))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, time.Minute, cfg.RetryDelay)
	assert.Equal(t, 10*time.Minute, cfg.TaskTimeout)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
	assert.Equal(t, 24*time.Hour, cfg.RetentionDuration)
}
