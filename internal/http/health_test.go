package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func healthStatus(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		s := setupTestServer(t)

		w := s.do(t, "GET", "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var response HealthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.NotEmpty(t, response.Time)
	})

	t.Run("reports not configured without a store", func(t *testing.T) {
		code, response := healthStatus(t, NewHealthController(nil, nil, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "not configured", response.Checks["database"])
	})

	t.Run("returns unhealthy when the store ping fails", func(t *testing.T) {
		code, response := healthStatus(t, NewHealthController(stubPinger{errors.New("connection refused")}, nil, "1.0.0"))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "connection refused")
	})

	t.Run("a failing dependency degrades but stays available", func(t *testing.T) {
		deps := map[string]Pinger{
			"cache":  stubPinger{errors.New("i/o timeout")},
			"events": stubPinger{},
		}
		code, response := healthStatus(t, NewHealthController(stubPinger{}, deps, ""))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "degraded", response.Status)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.Equal(t, "ok", response.Checks["events"])
		assert.Contains(t, response.Checks["cache"], "i/o timeout")
	})

	t.Run("store failure wins over dependency failure", func(t *testing.T) {
		deps := map[string]Pinger{"cache": stubPinger{errors.New("down")}}
		code, response := healthStatus(t, NewHealthController(stubPinger{errors.New("down")}, deps, ""))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
	})
}

func TestPing(t *testing.T) {
	s := setupTestServer(t)
	w := s.do(t, "GET", "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
}
