package tasks

import (
	"context"
	"fmt"
	"log"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/booklearn/internal/importers"
)

// WorkbookImporter runs a workbook import. Implemented by importers.Pipeline.
type WorkbookImporter interface {
	ImportFile(ctx context.Context, path string, opts importers.Options) (importers.Result, error)
}

// ImportWorkbookTask imports the workbook at Path.
type ImportWorkbookTask struct {
	Path   string `json:"path"`
	DryRun bool   `json:"dry_run,omitempty"`
}

// Config returns the queue configuration for import tasks. Imports are
// not retried: a broken workbook stays broken.
func (t ImportWorkbookTask) Config() backlite.QueueConfig {
	cfg := activeConfig()
	return backlite.QueueConfig{
		Name:        "import_workbook",
		MaxAttempts: 1,
		Backoff:     cfg.RetryDelay,
		Timeout:     cfg.TaskTimeout,
		Retention:   retention(cfg),
	}
}

// ImportWorkbookProcessor creates a processor function for ImportWorkbookTask.
func ImportWorkbookProcessor(importer WorkbookImporter) backlite.QueueProcessor[ImportWorkbookTask] {
	return func(ctx context.Context, task ImportWorkbookTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}
		if task.Path == "" {
			return fmt.Errorf("import task has no path")
		}

		result, err := importer.ImportFile(ctx, task.Path, importers.Options{DryRun: task.DryRun})
		if err != nil {
			return fmt.Errorf("import %s: %w", task.Path, err)
		}

		log.Printf("[TASK] Imported %s: %s", task.Path, result)
		return nil
	}
}

// NewImportWorkbookQueue creates a backlite queue for import tasks.
func NewImportWorkbookQueue(importer WorkbookImporter) backlite.Queue {
	return backlite.NewQueue(ImportWorkbookProcessor(importer))
}
