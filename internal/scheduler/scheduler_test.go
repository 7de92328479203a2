package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booklearn/internal/importers"
)

func TestValidateCronSchedule(t *testing.T) {
	assert.NoError(t, ValidateCronSchedule("0 3 * * *"))
	assert.NoError(t, ValidateCronSchedule("*/15 * * * *"))
	assert.Error(t, ValidateCronSchedule("every day"))
	assert.Error(t, ValidateCronSchedule("0 0 3 * * *"), "seconds field is not accepted")
}

func TestScheduler_StartWithoutSchedules(t *testing.T) {
	s := New(Job{Name: "a", Run: func(context.Context) error { return nil }})
	require.NoError(t, s.Start(context.Background()))
	assert.False(t, s.IsRunning())
	assert.Nil(t, s.NextRun("a"))
}

func TestScheduler_InvalidSchedule(t *testing.T) {
	s := New(Job{Name: "a", Schedule: "nope", Run: func(context.Context) error { return nil }})
	assert.Error(t, s.Start(context.Background()))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(Job{Name: "hourly", Schedule: "0 * * * *", Run: func(context.Context) error { return nil }})
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	assert.True(t, s.IsRunning())

	next := s.NextRun("hourly")
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RunNow(t *testing.T) {
	ran := false
	s := New(Job{Name: "a", Run: func(context.Context) error { ran = true; return nil }})
	require.NoError(t, s.RunNow(context.Background(), "a"))
	assert.True(t, ran)
	assert.Error(t, s.RunNow(context.Background(), "missing"))
}

type fakeQueue struct {
	names []string
	err   error
}

func (f *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.names = append(f.names, task.Config().Name)
	return "task-1", nil
}

type fakeImporter struct{ paths []string }

func (f *fakeImporter) ImportFile(_ context.Context, path string, _ importers.Options) (importers.Result, error) {
	f.paths = append(f.paths, path)
	return importers.Result{}, nil
}

type fakeRecounter struct{ calls int }

func (f *fakeRecounter) RecountQuestions(context.Context, ...string) (int, error) {
	f.calls++
	return 0, nil
}

func TestJobs_EnqueueWhenQueueAvailable(t *testing.T) {
	q := &fakeQueue{}
	imp := &fakeImporter{}
	ctx := context.Background()

	require.NoError(t, ImportJob("0 * * * *", "data.xlsx", q, imp).Run(ctx))
	require.NoError(t, RecountJob("", q, &fakeRecounter{}).Run(ctx))
	assert.Equal(t, []string{"import_workbook", "recount_questions"}, q.names)
	assert.Empty(t, imp.paths)

	q.err = errors.New("queue closed")
	assert.Error(t, ImportJob("", "data.xlsx", q, imp).Run(ctx))
}

func TestJobs_RunInlineWithoutQueue(t *testing.T) {
	imp := &fakeImporter{}
	rec := &fakeRecounter{}
	ctx := context.Background()

	require.NoError(t, ImportJob("", "data.xlsx", nil, imp).Run(ctx))
	require.NoError(t, RecountJob("", nil, rec).Run(ctx))
	assert.Equal(t, []string{"data.xlsx"}, imp.paths)
	assert.Equal(t, 1, rec.calls)
}
