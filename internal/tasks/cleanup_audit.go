package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// AuditEventCleaner deletes audit events past their retention.
// Implemented by audit.Service.
type AuditEventCleaner interface {
	DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error)
}

// DefaultAuditRetentionDays applies when a task carries no retention.
const DefaultAuditRetentionDays = 30

// CleanupAuditEventsTask prunes the audit log.
type CleanupAuditEventsTask struct {
	RetentionDays int `json:"retention_days"`
}

func (t CleanupAuditEventsTask) retention() (days int, d time.Duration) {
	days = t.RetentionDays
	if days <= 0 {
		days = DefaultAuditRetentionDays
	}
	return days, time.Duration(days) * 24 * time.Hour
}

func (t CleanupAuditEventsTask) Config() backlite.QueueConfig {
	cfg := activeConfig()
	return backlite.QueueConfig{
		Name:        "cleanup_audit_events",
		MaxAttempts: cfg.MaxRetries,
		Backoff:     cfg.RetryDelay,
		Timeout:     2 * time.Minute,
		Retention:   retention(cfg),
	}
}

// CleanupAuditEventsProcessor deletes events older than the task's
// retention. Also used by the scheduler when no queue is running.
func CleanupAuditEventsProcessor(cleaner AuditEventCleaner) backlite.QueueProcessor[CleanupAuditEventsTask] {
	return func(ctx context.Context, task CleanupAuditEventsTask) error {
		if cleaner == nil {
			return errors.New("audit event cleaner not configured")
		}

		days, keep := task.retention()
		deleted, err := cleaner.DeleteOldEvents(ctx, keep)
		if err != nil {
			return fmt.Errorf("cleanup audit events: %w", err)
		}
		if deleted > 0 {
			log.Printf("[TASK] Pruned %d audit events older than %d days", deleted, days)
		}
		return nil
	}
}

func NewCleanupAuditEventsQueue(cleaner AuditEventCleaner) backlite.Queue {
	return backlite.NewQueue(CleanupAuditEventsProcessor(cleaner))
}
