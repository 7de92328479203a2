package http

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booklearn/internal/importers"
	"github.com/mrlokans/booklearn/internal/tasks"
)

type fakeQueue struct {
	enqueued []backlite.Task
	status   backlite.TaskStatus
	err      error
}

func (f *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.enqueued = append(f.enqueued, task)
	return "task-1", nil
}

func (f *fakeQueue) Status(context.Context, string) (backlite.TaskStatus, error) {
	return f.status, f.err
}

type fakeImporter struct {
	calls []importers.Options
	err   error
}

func (f *fakeImporter) ImportFile(_ context.Context, path string, opts importers.Options) (importers.Result, error) {
	f.calls = append(f.calls, opts)
	return importers.Result{Source: path, DryRun: opts.DryRun}, f.err
}

func TestImportAPI(t *testing.T) {
	t.Run("runs in the request without a queue", func(t *testing.T) {
		imp := &fakeImporter{}
		s := setupTestServer(t, func(cfg *RouterConfig) {
			cfg.Importer = imp
			cfg.ImportSourcePath = "data.xlsx"
		})

		w := s.do(t, "POST", "/api/import/import-data?dryRun=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Data imported successfully.", decode[SuccessResponse](t, w).Message)
		require.Len(t, imp.calls, 1)
		assert.True(t, imp.calls[0].DryRun)
	})

	t.Run("enqueues when a queue exists", func(t *testing.T) {
		imp := &fakeImporter{}
		queue := &fakeQueue{}
		s := setupTestServer(t, func(cfg *RouterConfig) {
			cfg.Importer = imp
			cfg.TaskQueue = queue
			cfg.ImportSourcePath = "data.xlsx"
		})

		w := s.do(t, "POST", "/api/import/import-data", nil)
		require.Equal(t, http.StatusAccepted, w.Code)
		assert.Empty(t, imp.calls)
		require.Len(t, queue.enqueued, 1)
		assert.Equal(t, tasks.ImportWorkbookTask{Path: "data.xlsx"}, queue.enqueued[0])

		w = s.do(t, "POST", "/api/import/import-data", map[string]any{"wait": true})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, imp.calls, 1)
	})

	t.Run("malformed flags are rejected", func(t *testing.T) {
		imp := &fakeImporter{}
		queue := &fakeQueue{}
		s := setupTestServer(t, func(cfg *RouterConfig) {
			cfg.Importer = imp
			cfg.TaskQueue = queue
		})

		for _, query := range []string{"dryRun=yes", "wait=maybe"} {
			w := s.do(t, "POST", "/api/import/import-data?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, query)
			assert.Equal(t, codeValidation, decode[ErrorResponse](t, w).Code, query)
		}
		assert.Empty(t, imp.calls)
		assert.Empty(t, queue.enqueued)
	})

	t.Run("failure is reported", func(t *testing.T) {
		imp := &fakeImporter{err: errors.New("no known sheets")}
		s := setupTestServer(t, func(cfg *RouterConfig) { cfg.Importer = imp })

		w := s.do(t, "POST", "/api/import/import-data", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decode[ErrorResponse](t, w)
		assert.Equal(t, "Error importing data", resp.Error)
		assert.Equal(t, "no known sheets", resp.Details)
	})
}

func TestTasksAPI(t *testing.T) {
	queue := &fakeQueue{status: backlite.TaskStatusPending}
	s := setupTestServer(t, func(cfg *RouterConfig) {
		cfg.TaskQueue = queue
		cfg.ImportSourcePath = "data.xlsx"
	})

	w := s.do(t, "POST", "/api/tasks/recount_questions/run", map[string]any{"chapterIds": []string{"c1"}})
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, tasks.RecountQuestionsTask{ChapterIDs: []string{"c1"}}, queue.enqueued[0])

	w = s.do(t, "POST", "/api/tasks/import_workbook/run", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, tasks.ImportWorkbookTask{Path: "data.xlsx"}, queue.enqueued[1])

	w = s.do(t, "POST", "/api/tasks/cleanup_audit_events/run", map[string]any{"retentionDays": 7})
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 7}, queue.enqueued[2])

	w = s.do(t, "POST", "/api/tasks/enrich_book/run", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, "GET", "/api/tasks/task-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"task-1","status":"pending"}`, w.Body.String())

	queue.status = backlite.TaskStatusNotFound
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/api/tasks/unknown", nil).Code)

	w = s.do(t, "GET", "/api/tasks/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "import_workbook")
}

func TestTasksAPI_DisabledWithoutQueue(t *testing.T) {
	s := setupTestServer(t)
	assert.Equal(t, http.StatusNotFound, s.do(t, "POST", "/api/tasks/recount_questions/run", nil).Code)
}
