package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Mongo
		Import
		Tasks
		Schedule
		Session
		Redis
		Events
		Aggregation
		Audit
	}

	HTTP struct {
		Port           int32
		Host           string
		RequestTimeout time.Duration
		AllowedOrigins []string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver DatabaseDriver
		Path   string
	}
	Mongo struct {
		URI      string
		Database string
	}
	Import struct {
		SourcePath string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Schedule struct {
		Import       string // Cron format, empty disables
		Recount      string // Cron format, empty disables
		AuditCleanup string // Cron format, empty disables
	}
	Session struct {
		Enabled       bool
		Lifetime      time.Duration
		SecureCookies bool   // Set to false for local dev without HTTPS
		CSRFSecret    string // CSRF protection is enabled only when set
	}
	Redis struct {
		URL      string // Tree cache is disabled when empty
		CacheTTL time.Duration
	}
	Events struct {
		RabbitMQURL string // Change events are not published when empty
		Exchange    string
	}
	Aggregation struct {
		Concurrency int
	}
	Audit struct {
		RetentionDays int
	}
)

// splitList turns a comma separated env value into a trimmed slice.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// NewConfig loads .env (if present) and then reads the environment.
func NewConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}
	return newConfig(viper.New())
}

func newConfig(v *viper.Viper) *Config {
	v.AutomaticEnv()
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("http_request_timeout", "30s")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", string(DriverSQLite))
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("mongodb_uri", "")
	v.SetDefault("mongodb_database", DefaultMongoDatabase)

	v.SetDefault("import_source_path", DefaultImportSourcePath)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "10m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("import_schedule", "")
	v.SetDefault("recount_schedule", "")
	v.SetDefault("audit_cleanup_schedule", "")
	v.SetDefault("audit_retention_days", 30)

	v.SetDefault("session_enabled", true)
	v.SetDefault("session_lifetime", "720h") // 30 days
	v.SetDefault("session_secure_cookies", false)
	v.SetDefault("session_csrf_secret", "")

	v.SetDefault("redis_url", "")
	v.SetDefault("cache_ttl", "10m")

	v.SetDefault("rabbitmq_url", "")
	v.SetDefault("rabbitmq_exchange", "booklearn.events")

	v.SetDefault("aggregate_concurrency", 8)

	return &Config{
		HTTP: HTTP{
			Port:           v.GetInt32("PORT"),
			Host:           v.GetString("HOST"),
			RequestTimeout: v.GetDuration("HTTP_REQUEST_TIMEOUT"),
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver: DatabaseDriver(strings.ToLower(v.GetString("DATABASE_DRIVER"))),
			Path:   v.GetString("DATABASE_PATH"),
		},
		Mongo: Mongo{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
		},
		Import: Import{
			SourcePath: v.GetString("IMPORT_SOURCE_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Schedule: Schedule{
			Import:       v.GetString("IMPORT_SCHEDULE"),
			Recount:      v.GetString("RECOUNT_SCHEDULE"),
			AuditCleanup: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Session: Session{
			Enabled:       v.GetBool("SESSION_ENABLED"),
			Lifetime:      v.GetDuration("SESSION_LIFETIME"),
			SecureCookies: v.GetBool("SESSION_SECURE_COOKIES"),
			CSRFSecret:    v.GetString("SESSION_CSRF_SECRET"),
		},
		Redis: Redis{
			URL:      v.GetString("REDIS_URL"),
			CacheTTL: v.GetDuration("CACHE_TTL"),
		},
		Events: Events{
			RabbitMQURL: v.GetString("RABBITMQ_URL"),
			Exchange:    v.GetString("RABBITMQ_EXCHANGE"),
		},
		Aggregation: Aggregation{
			Concurrency: v.GetInt("AGGREGATE_CONCURRENCY"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
	}
}
