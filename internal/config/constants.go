package config

// Default paths and names
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./booklearn.db"

	// DefaultImportSourcePath is the workbook read by the import endpoint and schedule
	DefaultImportSourcePath = "./Structured_Book_Data.xlsx"

	// DefaultMongoDatabase is used when MONGODB_DATABASE is not set
	DefaultMongoDatabase = "booklearn"
)

// DatabaseDriver selects the entity store backend.
type DatabaseDriver string

const (
	DriverSQLite DatabaseDriver = "sqlite"
	DriverMongo  DatabaseDriver = "mongo"
)
