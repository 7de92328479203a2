package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/mrlokans/booklearn/internal/audit"
	"github.com/mrlokans/booklearn/internal/cache"
	auditrepo "github.com/mrlokans/booklearn/internal/database/audit"
	"github.com/mrlokans/booklearn/internal/database/content"
	"github.com/mrlokans/booklearn/internal/database/mongostore"
	"github.com/mrlokans/booklearn/internal/database/progress"
	"github.com/mrlokans/booklearn/internal/events"
	"github.com/mrlokans/booklearn/internal/http"
	"github.com/mrlokans/booklearn/internal/importers"
	"github.com/mrlokans/booklearn/internal/library"
	"github.com/mrlokans/booklearn/internal/scheduler"
	"github.com/mrlokans/booklearn/internal/tasks"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// ContentStore implementations
var _ library.ContentStore = (*content.Repository)(nil)
var _ library.ContentStore = (*mongostore.Store)(nil)

// ProgressStore implementations
var _ library.ProgressStore = (*progress.Repository)(nil)
var _ library.ProgressStore = (*mongostore.Store)(nil)

// audit.Store implementations
var _ audit.Store = (*auditrepo.Repository)(nil)
var _ audit.Store = (*mongostore.Store)(nil)

// =============================================================================
// Aggregation
// =============================================================================

// TreeReader implementations
var _ library.TreeReader = (*library.Aggregator)(nil)
var _ library.TreeReader = (*cache.Reader)(nil)

// =============================================================================
// Change Notification
// =============================================================================

var _ library.Notifier = library.Notifiers(nil)
var _ library.Notifier = (*audit.Service)(nil)
var _ library.Notifier = (*cache.Cache)(nil)
var _ library.Notifier = (*events.Publisher)(nil)

// =============================================================================
// HTTP Layer
// =============================================================================

var _ http.ContentMutator = (*library.Service)(nil)
var _ http.ProgressTracker = (*library.Tracker)(nil)
var _ http.WorkbookImporter = (*importers.Pipeline)(nil)
var _ http.TaskQueue = (*tasks.Client)(nil)
var _ http.AuditReader = (*audit.Service)(nil)

// =============================================================================
// Import Pipeline and Background Work
// =============================================================================

// Converter implementations
var _ importers.Converter = (*importers.WorkbookConverter)(nil)

var _ importers.Recorder = (*audit.Service)(nil)
var _ tasks.WorkbookImporter = (*importers.Pipeline)(nil)
var _ tasks.QuestionRecounter = (*library.Service)(nil)
var _ tasks.AuditEventCleaner = (*audit.Service)(nil)
var _ scheduler.Enqueuer = (*tasks.Client)(nil)
