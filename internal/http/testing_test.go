package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/booklearn/internal/audit"
	"github.com/mrlokans/booklearn/internal/database"
	auditrepo "github.com/mrlokans/booklearn/internal/database/audit"
	"github.com/mrlokans/booklearn/internal/database/content"
	"github.com/mrlokans/booklearn/internal/database/progress"
	"github.com/mrlokans/booklearn/internal/library"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *database.Database
	audit  *audit.Service
}

func setupTestServer(t *testing.T, adjust ...func(*RouterConfig)) *testServer {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"), database.WithLogLevel(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	store := content.NewRepository(db.DB)

	cfg := RouterConfig{
		Reader:  library.NewAggregator(store, 4),
		Store:   store,
		Mutator: library.NewService(store, auditService),
		Tracker: library.NewTracker(progress.NewRepository(db.DB), auditService),
		Audit:   auditService,
		Health:  db,
	}
	for _, fn := range adjust {
		fn(&cfg)
	}

	return &testServer{router: NewRouter(cfg), db: db, audit: auditService}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// seed creates b1 > p1 > c1 with one question through the API.
func (s *testServer) seed(t *testing.T) {
	t.Helper()
	require.Equal(t, http.StatusCreated, s.do(t, "POST", "/api/book", map[string]any{
		"bookId": "b1", "title": "Go in Practice", "description": "d",
	}).Code)
	require.Equal(t, http.StatusCreated, s.do(t, "POST", "/api/parts", map[string]any{
		"partId": "p1", "bookId": "b1", "title": "Basics",
	}).Code)
	require.Equal(t, http.StatusCreated, s.do(t, "POST", "/api/chapters", map[string]any{
		"chapterId": "c1", "bookId": "b1", "partId": "p1", "title": "Types", "text": "...", "order": 1,
	}).Code)
	require.Equal(t, http.StatusCreated, s.do(t, "POST", "/api/questions", questionBody("q1", "c1")).Code)
}

func questionBody(id, chapterID string) map[string]any {
	return map[string]any{
		"questionId":     id,
		"chapterId":      chapterID,
		"questionText":   "Is a slice a reference type?",
		"questionType":   "TrueFalse",
		"options":        []string{"True", "False"},
		"correctAnswers": []string{"True"},
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
