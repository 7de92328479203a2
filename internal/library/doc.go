// Package library holds the learning content model and the operations on
// it: the mutation Service (books, parts, chapters, questions), the
// Aggregator that assembles book → part → chapter → question trees, and
// the progress Tracker.
//
// Storage is behind ContentStore and ProgressStore; the SQLite
// implementations live in internal/database/content and
// internal/database/progress, the MongoDB one in
// internal/database/mongostore.
//
// Errors returned from this package and its stores wrap ErrNotFound,
// ErrConflict or ErrValidation so callers can map them with errors.Is.
package library
