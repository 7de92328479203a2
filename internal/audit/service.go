package audit

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/booklearn/internal/entities"
	"github.com/mrlokans/booklearn/internal/library"
)

// Store persists audit events. Implemented by database/audit.Repository and
// database/mongostore.Store.
type Store interface {
	LogEvent(ctx context.Context, event *entities.AuditEvent) error
	GetEvents(ctx context.Context, filter entities.AuditFilter, limit, offset int) ([]entities.AuditEvent, int64, error)
	DeleteOldEvents(ctx context.Context, olderThan time.Time) (int64, error)
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo    Store
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo Store) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(ctx context.Context, event *entities.AuditEvent) {
	ctx = context.WithoutCancel(ctx)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(ctx, event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Flush waits for background writes started by LogAsync.
func (s *Service) Flush() {
	s.pending.Wait()
}

// Notify implements library.Notifier. Imports are skipped here; the
// importer records them through LogImport with the full summary.
func (s *Service) Notify(ctx context.Context, change library.Change) {
	if change.Kind == library.KindImport {
		return
	}
	s.LogAsync(ctx, eventFromChange(change))
}

// LogImport records the outcome of a workbook import, including failures.
func (s *Service) LogImport(ctx context.Context, source string, summary any, err error) {
	event := &entities.AuditEvent{
		EventType:   entities.AuditEventImport,
		EntityType:  string(library.KindImport),
		EntityID:    source,
		Description: "Imported workbook " + source,
		Status:      entities.AuditStatusSuccess,
	}
	if md, e := json.Marshal(summary); e == nil {
		event.Metadata = string(md)
	}
	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.Description = "Import of " + source + " failed"
		event.ErrorMsg = truncate(err.Error(), 500)
	}
	s.LogAsync(ctx, event)
}

// GetEvents retrieves paginated audit events.
func (s *Service) GetEvents(ctx context.Context, filter entities.AuditFilter, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.GetEvents(ctx, filter, limit, offset)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func eventFromChange(c library.Change) *entities.AuditEvent {
	description := string(c.Kind) + " " + c.ID + " " + string(c.Action)
	if c.ID == "" {
		description = string(c.Kind) + " " + string(c.Action)
	}
	if c.Detail != "" {
		description += ": " + c.Detail
	}
	return &entities.AuditEvent{
		EventType:   entities.AuditEventType(c.Action),
		EntityType:  string(c.Kind),
		EntityID:    c.ID,
		BookID:      c.BookID,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
