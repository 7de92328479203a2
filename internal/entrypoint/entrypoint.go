package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklearn/internal/config"
	http_controllers "github.com/mrlokans/booklearn/internal/http"
	"github.com/mrlokans/booklearn/internal/scheduler"
	"github.com/mrlokans/booklearn/internal/session"
	"github.com/mrlokans/booklearn/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -9 cannot be caught, so only SIGINT and SIGTERM are handled.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop accepting requests before the task queue and stores go away.
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

// taskConfig maps the environment settings onto the queue configuration.
func taskConfig(cfg config.Tasks) tasks.Config {
	taskCfg := tasks.DefaultConfig()
	if cfg.Workers > 0 {
		taskCfg.Workers = cfg.Workers
	}
	if cfg.MaxRetries > 0 {
		taskCfg.MaxRetries = cfg.MaxRetries
	}
	if cfg.RetryDelay > 0 {
		taskCfg.RetryDelay = cfg.RetryDelay
	}
	if cfg.TaskTimeout > 0 {
		taskCfg.TaskTimeout = cfg.TaskTimeout
	}
	if cfg.ReleaseAfter > 0 {
		taskCfg.ReleaseAfter = cfg.ReleaseAfter
	}
	if cfg.CleanupInterval > 0 {
		taskCfg.CleanupInterval = cfg.CleanupInterval
	}
	if cfg.RetentionDuration > 0 {
		taskCfg.RetentionDuration = cfg.RetentionDuration
	}
	return taskCfg
}

// newSessionStore keeps sessions next to the content when it lives in
// SQLite and in memory otherwise.
func newSessionStore(backend *Backend) (scs.Store, error) {
	if backend.SQLite == nil {
		log.Printf("Sessions are kept in memory")
		return session.NewMemoryStore(), nil
	}
	sqlDB, err := backend.SQLite.DB.DB()
	if err != nil {
		return nil, err
	}
	return session.NewSQLiteStore(sqlDB)
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting booklearn v%s", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, err := Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize task queue (backlite) if enabled
	var taskClient *tasks.Client
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskConfig(cfg.Tasks))
		if err != nil {
			log.Printf("WARNING: Failed to initialize task queue: %v", err)
			taskClient = nil
		} else {
			taskClient.Register(
				tasks.NewImportWorkbookQueue(backend.Importer),
				tasks.NewRecountQuestionsQueue(backend.Library),
				tasks.NewCleanupAuditEventsQueue(backend.Audit),
			)
			go taskClient.Start(ctx)
			log.Printf("Task queue initialized at %s", tasks.DBPath(cfg.Database.Path))
		}
	} else {
		log.Printf("Task queue disabled; scheduled jobs run inline")
	}

	// A nil *tasks.Client must not reach the jobs as a non-nil interface.
	var queue scheduler.Enqueuer
	var taskQueue http_controllers.TaskQueue
	if taskClient != nil {
		queue = taskClient
		taskQueue = taskClient
	}

	sched := scheduler.New(
		scheduler.ImportJob(cfg.Schedule.Import, cfg.Import.SourcePath, queue, backend.Importer),
		scheduler.RecountJob(cfg.Schedule.Recount, queue, backend.Library),
		scheduler.AuditCleanupJob(cfg.Schedule.AuditCleanup, cfg.Audit.RetentionDays, queue, backend.Audit),
	)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		Reader:           backend.Reader,
		Store:            backend.Content,
		Mutator:          backend.Library,
		Tracker:          backend.Tracker,
		Importer:         backend.Importer,
		TaskQueue:        taskQueue,
		Audit:            backend.Audit,
		Health:           backend.Health,
		Dependencies:     backend.Dependencies(),
		ImportSourcePath: cfg.Import.SourcePath,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		RequestTimeout:   cfg.HTTP.RequestTimeout,
		Version:          version,
	}

	if cfg.Session.Enabled {
		store, err := newSessionStore(backend)
		if err != nil {
			log.Fatalf("Failed to initialize session store: %v", err)
		}
		routerCfg.Sessions = session.NewManager(store, cfg.Session)
		routerCfg.SecureCookies = cfg.Session.SecureCookies
		if cfg.Session.CSRFSecret != "" {
			routerCfg.CSRFSecret = session.SecretKey(cfg.Session.CSRFSecret)
			log.Printf("CSRF protection enabled")
		} else {
			log.Printf("WARNING: SESSION_CSRF_SECRET is not set, CSRF protection is disabled")
		}
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(shutdownCtx context.Context) {
		sched.Stop()
		if taskClient != nil {
			taskClient.Stop(shutdownCtx)
		}
		cancel()
		if taskClient != nil {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task queue: %v", err)
			}
		}
		backend.Close(shutdownCtx)
	}

	Serve(router, cfg, onShutdown)
}
