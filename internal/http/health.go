package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 3 * time.Second

// Health states. The store is required; a failing optional dependency
// only degrades the service.
const (
	healthOK       = "healthy"
	healthDegraded = "degraded"
	healthDown     = "unhealthy"
)

type HealthResponse struct {
	Status  string            `json:"status"`
	Time    string            `json:"time"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks"`
}

type HealthController struct {
	store        Pinger
	dependencies map[string]Pinger
	version      string
}

// NewHealthController checks store as "database" and every entry of
// dependencies under its own name.
func NewHealthController(store Pinger, dependencies map[string]Pinger, version string) *HealthController {
	return &HealthController{
		store:        store,
		dependencies: dependencies,
		version:      version,
	}
}

func probe(ctx context.Context, p Pinger) string {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func (h *HealthController) Status(c *gin.Context) {
	ctx := c.Request.Context()
	checks := make(map[string]string, len(h.dependencies)+1)
	status := healthOK

	if h.store == nil {
		checks["database"] = "not configured"
	} else if checks["database"] = probe(ctx, h.store); checks["database"] != "ok" {
		status = healthDown
	}

	names := make([]string, 0, len(h.dependencies))
	for name := range h.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		checks[name] = probe(ctx, h.dependencies[name])
		if checks[name] != "ok" && status == healthOK {
			status = healthDegraded
		}
	}

	statusCode := http.StatusOK
	if status == healthDown {
		statusCode = http.StatusServiceUnavailable
	}

	c.IndentedJSON(statusCode, HealthResponse{
		Status:  status,
		Time:    time.Now().Format(time.RFC3339),
		Version: h.version,
		Checks:  checks,
	})
}
