package http

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booklearn/internal/library"
	"github.com/mrlokans/booklearn/internal/session"
)

// RouterConfig carries every dependency of the HTTP layer. Optional
// pieces (TaskQueue, Audit, Sessions) are left nil when disabled.
type RouterConfig struct {
	Reader   library.TreeReader
	Store    library.ContentReader
	Mutator  ContentMutator
	Tracker  ProgressTracker
	Importer WorkbookImporter

	TaskQueue TaskQueue
	Audit     AuditReader
	Health    Pinger

	// Dependencies are optional services reported by /health without
	// failing it, e.g. "cache" and "events".
	Dependencies map[string]Pinger

	Sessions      *session.Manager
	CSRFSecret    []byte
	SecureCookies bool

	ImportSourcePath string
	AllowedOrigins   []string
	RequestTimeout   time.Duration
	Version          string
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", session.CSRFTokenHeader, RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(corsMiddleware(cfg.AllowedOrigins))
	router.Use(session.SecurityHeadersMiddleware())
	router.Use(TimeoutMiddleware(cfg.RequestTimeout))

	if cfg.Sessions != nil {
		router.Use(cfg.Sessions.LoadAndSave())
	}
	if len(cfg.CSRFSecret) > 0 {
		router.Use(session.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}

	health := NewHealthController(cfg.Health, cfg.Dependencies, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	api := router.Group("/api")

	books := NewBooksController(cfg.Reader, cfg.Mutator)
	api.GET("/book/all", books.GetAllBooks)
	api.POST("/book", books.CreateBook)
	api.GET("/book/:bookId", books.GetBook)
	api.PUT("/book/:bookId", books.UpdateBook)
	api.DELETE("/book/:bookId", books.DeleteBook)

	parts := NewPartsController(cfg.Store, cfg.Mutator)
	api.POST("/parts", parts.CreatePart)
	api.GET("/parts/all", parts.GetAllParts)
	api.GET("/parts/:partId", parts.GetPart)
	api.PUT("/parts/:partId", parts.UpdatePart)
	api.DELETE("/parts/:partId", parts.DeletePart)

	chapters := NewChaptersController(cfg.Reader, cfg.Mutator)
	api.POST("/chapters", chapters.CreateChapter)
	api.GET("/chapters/all", chapters.GetAllChapters)
	api.GET("/chapters/:chapterId", chapters.GetChapter)
	api.PUT("/chapters/:chapterId", chapters.UpdateChapter)
	api.DELETE("/chapters/:chapterId", chapters.DeleteChapter)

	questions := NewQuestionsController(cfg.Store, cfg.Mutator)
	api.GET("/questions", questions.GetQuestions)
	api.POST("/questions", questions.CreateQuestion)
	api.GET("/questions/:questionId", questions.GetQuestion)
	api.PUT("/questions/:questionId", questions.UpdateQuestion)
	api.DELETE("/questions/:questionId", questions.DeleteQuestion)

	progress := NewProgressController(cfg.Tracker)
	api.POST("/user-progress", progress.CreateProgress)
	api.GET("/user-progress/:userId", progress.GetProgress)
	api.PUT("/user-progress/:userId", progress.ReplaceProgress)
	api.DELETE("/user-progress/:userId", progress.DeleteProgress)
	api.POST("/user-progress/:userId/book/:bookId", progress.StartBook)
	api.PATCH("/user-progress/:userId/book/:bookId/chapter/:chapterId", progress.MarkChapterCompleted)
	api.PATCH("/user-progress/:userId/book/:bookId/quiz/:quizId", progress.RecordQuizResult)

	if cfg.Importer != nil {
		importer := NewImportController(cfg.Importer, cfg.TaskQueue, cfg.ImportSourcePath)
		api.POST("/import/import-data", importer.ImportData)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.ImportSourcePath)
		api.GET("/tasks/types", tasksController.ListTaskTypes)
		api.GET("/tasks/:id", tasksController.GetTaskStatus)
		api.POST("/tasks/:type/run", tasksController.RunTask)
	}

	if cfg.Audit != nil {
		audit := NewAuditController(cfg.Audit)
		api.GET("/audit", audit.GetAuditEvents)
	}

	if cfg.Sessions != nil {
		session.NewController(cfg.Sessions, len(cfg.CSRFSecret) > 0).RegisterRoutes(api)
	}

	return router
}
