package tasks

import (
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
)

// Config holds configuration for the task queue system.
type Config struct {
	// Workers is the number of concurrent task workers. Default: 2
	Workers int

	// MaxRetries caps attempts for the retryable queues (recount, audit
	// cleanup). Imports always run once. Default: 3
	MaxRetries int

	// RetryDelay is the backoff between attempts. Default: 1m
	RetryDelay time.Duration

	// TaskTimeout bounds a single workbook import. Default: 10m
	TaskTimeout time.Duration

	// ReleaseAfter is when stuck tasks are released back to queue. Default: 15m
	ReleaseAfter time.Duration

	// CleanupInterval is how often backlite purges expired tasks. Default: 1h
	CleanupInterval time.Duration

	// RetentionDuration is how long finished tasks stay queryable through
	// the status endpoint. Default: 24h
	RetentionDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Workers:           2,
		MaxRetries:        3,
		RetryDelay:        1 * time.Minute,
		TaskTimeout:       10 * time.Minute,
		ReleaseAfter:      15 * time.Minute,
		CleanupInterval:   1 * time.Hour,
		RetentionDuration: 24 * time.Hour,
	}
}

// backlite asks the task type for its queue configuration, so the active
// Config is kept at package level. NewClient replaces it.
var (
	activeMu sync.RWMutex
	active   = DefaultConfig()
)

func setActive(cfg Config) {
	defaults := DefaultConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaults.RetryDelay
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = defaults.TaskTimeout
	}
	if cfg.RetentionDuration <= 0 {
		cfg.RetentionDuration = defaults.RetentionDuration
	}

	activeMu.Lock()
	active = cfg
	activeMu.Unlock()
}

func activeConfig() Config {
	activeMu.RLock()
	defer activeMu.RUnlock()
	return active
}

// retention keeps every finished task for RetentionDuration but only the
// payload of failed ones.
func retention(cfg Config) *backlite.Retention {
	return &backlite.Retention{
		Duration:   cfg.RetentionDuration,
		OnlyFailed: false,
		Data:       &backlite.RetainData{OnlyFailed: true},
	}
}
