// Package interfaces documents the core abstractions used throughout the application.
//
// # Interface Categories
//
// ## Data Access Interfaces
//
//   - ContentReader / ContentStore: books, parts, chapters and questions (internal/library/store.go)
//   - ProgressStore: per-user progress with versioned writes (internal/library/store.go)
//   - audit.Store: audit events (internal/audit/service.go)
//
// Each has a SQLite implementation under internal/database/ and a MongoDB
// one in internal/database/mongostore.
//
// ## Read Side
//
//   - TreeReader: nested book and chapter views (internal/library/aggregate.go),
//     optionally cached in Redis by cache.Reader
//
// ## Change Notification
//
//   - Notifier: receives every successful mutation (internal/library/notify.go).
//     Members are the audit log, the Redis cache invalidator and the RabbitMQ
//     publisher, combined with library.Notifiers.
//
// # Adding a New Store Backend
//
//  1. Create a package under internal/database/
//
//  2. Implement library.ContentStore, library.ProgressStore and audit.Store.
//     Duplicate natural keys must map to library.ErrConflict and missing
//     parents to library.ErrInvalidReference.
//
//  3. Add compile-time checks to checks.go:
//
//     var _ library.ContentStore = (*Store)(nil)
//
//  4. Select it in entrypoint.Open.
//
// # Adding a New Import Source
//
//  1. Implement importers.Converter:
//
//     type CSVConverter struct{ dir string }
//
//     func (c *CSVConverter) Convert() (*importers.Dataset, error)
//     func (c *CSVConverter) Name() string
//
//     var _ importers.Converter = (*CSVConverter)(nil)
//
//  2. Run it through Pipeline.Import, which validates rows, upserts
//     parents first and repairs question counts.
//
// # Adding a New Change Consumer
//
// Implement library.Notifier and append it to the Notifiers built in
// entrypoint.Open. Notify must not block the request for long; hand slow
// work to a goroutine or the task queue.
//
// # Compile-Time Interface Checks
//
// All implementations should include compile-time checks to ensure they satisfy
// their interfaces. This catches missing methods at compile time rather than runtime:
//
//	var _ SomeInterface = (*MyImplementation)(nil)
//
// This pattern is used throughout the codebase. See checks.go for examples.
package interfaces
