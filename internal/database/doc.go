// Package database provides the SQLite data access layer.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── content/         # Books, parts, chapters and questions
//	├── progress/        # Per-user progress with version checks
//	├── audit/           # Audit event log
//	└── mongostore/      # MongoDB implementation of the same stores
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./booklearn.db")
//
//	contentRepo := content.NewRepository(db.DB)
//	progressRepo := progress.NewRepository(db.DB)
//
//	book, err := contentRepo.GetBook(ctx, "b1")
//
// # Interface Implementations
//
//   - content.Repository: implements library.ContentStore
//   - progress.Repository: implements library.ProgressStore
//   - audit.Repository: implements audit.Store
//   - mongostore.Store: implements library.ContentStore, library.ProgressStore and audit.Store
//
// Every repository translates driver errors into the library error
// categories (NotFound, Conflict, InvalidReference) so callers never see
// gorm or mongo sentinels.
package database
