package scheduler

import (
	"context"
	"log"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/booklearn/internal/importers"
	"github.com/mrlokans/booklearn/internal/tasks"
)

// Job names.
const (
	ImportJobName       = "import_workbook"
	RecountJobName      = "recount_questions"
	AuditCleanupJobName = "cleanup_audit_events"
)

// Enqueuer hands work to the task queue. Implemented by tasks.Client.
type Enqueuer interface {
	Enqueue(task backlite.Task) (string, error)
}

// dispatch enqueues task when a queue is available and runs inline
// otherwise.
func dispatch(ctx context.Context, queue Enqueuer, task backlite.Task, inline func(context.Context) error) error {
	if queue == nil {
		return inline(ctx)
	}
	id, err := queue.Enqueue(task)
	if err != nil {
		return err
	}
	log.Printf("Scheduler: enqueued %s task %s", task.Config().Name, id)
	return nil
}

// ImportJob imports the workbook at path.
func ImportJob(schedule, path string, queue Enqueuer, importer tasks.WorkbookImporter) Job {
	task := tasks.ImportWorkbookTask{Path: path}
	return Job{
		Name:     ImportJobName,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			return dispatch(ctx, queue, task, func(ctx context.Context) error {
				_, err := importer.ImportFile(ctx, path, importers.Options{})
				return err
			})
		},
	}
}

// RecountJob repairs totalQuestions for every chapter.
func RecountJob(schedule string, queue Enqueuer, recounter tasks.QuestionRecounter) Job {
	return Job{
		Name:     RecountJobName,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			return dispatch(ctx, queue, tasks.RecountQuestionsTask{}, func(ctx context.Context) error {
				_, err := recounter.RecountQuestions(ctx)
				return err
			})
		},
	}
}

// AuditCleanupJob deletes audit events older than retentionDays.
func AuditCleanupJob(schedule string, retentionDays int, queue Enqueuer, cleaner tasks.AuditEventCleaner) Job {
	task := tasks.CleanupAuditEventsTask{RetentionDays: retentionDays}
	return Job{
		Name:     AuditCleanupJobName,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			return dispatch(ctx, queue, task, func(ctx context.Context) error {
				return tasks.CleanupAuditEventsProcessor(cleaner)(ctx, task)
			})
		},
	}
}
