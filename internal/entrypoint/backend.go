package entrypoint

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/booklearn/internal/audit"
	"github.com/mrlokans/booklearn/internal/cache"
	"github.com/mrlokans/booklearn/internal/config"
	"github.com/mrlokans/booklearn/internal/database"
	auditrepo "github.com/mrlokans/booklearn/internal/database/audit"
	"github.com/mrlokans/booklearn/internal/database/content"
	"github.com/mrlokans/booklearn/internal/database/mongostore"
	"github.com/mrlokans/booklearn/internal/database/progress"
	"github.com/mrlokans/booklearn/internal/events"
	http_controllers "github.com/mrlokans/booklearn/internal/http"
	"github.com/mrlokans/booklearn/internal/importers"
	"github.com/mrlokans/booklearn/internal/library"
)

// Backend holds the stores and services shared by the server and the CLI
// commands.
type Backend struct {
	Content  library.ContentStore
	Progress library.ProgressStore
	Health   http_controllers.Pinger

	Audit     *audit.Service
	Cache     *cache.Cache
	Publisher *events.Publisher

	Library  *library.Service
	Reader   library.TreeReader
	Tracker  *library.Tracker
	Importer *importers.Pipeline

	// SQLite is set only for the sqlite driver.
	SQLite *database.Database

	closers []func(ctx context.Context)
}

// Open connects the configured store and builds the services on top of
// it. Redis and RabbitMQ are optional: an empty URL disables them and a
// failed connection is logged and skipped.
func Open(ctx context.Context, cfg *config.Config) (*Backend, error) {
	b := &Backend{}
	var auditStore audit.Store

	switch cfg.Database.Driver {
	case config.DriverSQLite, "":
		db, err := database.NewDatabase(cfg.Database.Path, database.WithLogLevel(logger.Warn))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		b.SQLite = db
		b.Content = content.NewRepository(db.DB)
		b.Progress = progress.NewRepository(db.DB)
		b.Health = db
		auditStore = auditrepo.NewRepository(db.DB)
		b.onClose(func(context.Context) {
			if err := db.Close(); err != nil {
				log.Printf("Error closing database: %v", err)
			}
		})
		log.Printf("Using SQLite database at %s", cfg.Database.Path)

	case config.DriverMongo:
		if cfg.Mongo.URI == "" {
			return nil, fmt.Errorf("MONGODB_URI is required for the mongo driver")
		}
		store, err := mongostore.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		b.Content = store
		b.Progress = store
		b.Health = store
		auditStore = store
		b.onClose(func(ctx context.Context) {
			if err := store.Close(ctx); err != nil {
				log.Printf("Error disconnecting from MongoDB: %v", err)
			}
		})

	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	b.Audit = audit.NewService(auditStore)
	b.onClose(func(context.Context) { b.Audit.Flush() })

	notifiers := library.Notifiers{b.Audit}

	if cfg.Redis.URL != "" {
		c, err := cache.New(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			log.Printf("WARNING: Redis cache disabled: %v", err)
		} else {
			b.Cache = c
			notifiers = append(notifiers, c)
			b.onClose(func(context.Context) { _ = c.Close() })
		}
	}

	if cfg.Events.RabbitMQURL != "" {
		p, err := events.NewPublisher(cfg.Events.RabbitMQURL, cfg.Events.Exchange)
		if err != nil {
			log.Printf("WARNING: change events disabled: %v", err)
		} else {
			b.Publisher = p
			notifiers = append(notifiers, p)
			b.onClose(func(context.Context) { _ = p.Close() })
		}
	}

	b.Library = library.NewService(b.Content, notifiers)
	b.Tracker = library.NewTracker(b.Progress, notifiers)
	b.Importer = importers.NewPipeline(b.Content, notifiers, b.Audit)

	aggregator := library.NewAggregator(b.Content, cfg.Aggregation.Concurrency)
	if b.Cache != nil {
		b.Reader = cache.NewReader(aggregator, b.Cache)
	} else {
		b.Reader = aggregator
	}

	return b, nil
}

// Dependencies lists the optional services for the health endpoint.
func (b *Backend) Dependencies() map[string]http_controllers.Pinger {
	deps := map[string]http_controllers.Pinger{}
	if b.Cache != nil {
		deps["cache"] = b.Cache
	}
	if b.Publisher != nil {
		deps["events"] = b.Publisher
	}
	return deps
}

func (b *Backend) onClose(fn func(ctx context.Context)) {
	b.closers = append(b.closers, fn)
}

// Close releases everything Open acquired, in reverse order.
func (b *Backend) Close(ctx context.Context) {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i](ctx)
	}
}
