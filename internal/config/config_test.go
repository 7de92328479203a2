package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := newConfig(viper.New())

	assert.Equal(t, int32(8000), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultMongoDatabase, cfg.Mongo.Database)
	assert.Equal(t, DefaultImportSourcePath, cfg.Import.SourcePath)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Empty(t, cfg.Schedule.Import)
	assert.Empty(t, cfg.Schedule.AuditCleanup)
	assert.Equal(t, 30, cfg.Audit.RetentionDays)
	assert.True(t, cfg.Session.Enabled)
	assert.Equal(t, 720*time.Hour, cfg.Session.Lifetime)
	assert.Empty(t, cfg.Redis.URL)
	assert.Equal(t, "booklearn.events", cfg.Events.Exchange)
	assert.Equal(t, 8, cfg.Aggregation.Concurrency)
}

func TestNewConfig_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "Mongo")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://app.example.com ,")
	t.Setenv("TASKS_ENABLED", "false")
	t.Setenv("RECOUNT_SCHEDULE", "0 3 * * *")
	t.Setenv("CACHE_TTL", "1m")

	cfg := newConfig(viper.New())

	assert.Equal(t, int32(9090), cfg.HTTP.Port)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.HTTP.AllowedOrigins)
	assert.False(t, cfg.Tasks.Enabled)
	assert.Equal(t, "0 3 * * *", cfg.Schedule.Recount)
	assert.Equal(t, time.Minute, cfg.Redis.CacheTTL)
}
