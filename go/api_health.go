package retailopsserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger func(ctx context.Context) error

// HealthAPI serves liveness and Prometheus scrapes.
type HealthAPI struct {
	checks  map[string]Pinger
	metrics http.Handler
}

func NewHealthAPI(metrics http.Handler, checks map[string]Pinger) HealthAPI {
	return HealthAPI{checks: checks, metrics: metrics}
}

// Get /healthz
func (api *HealthAPI) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	status := http.StatusOK
	report := gin.H{}
	for name, ping := range api.checks {
		if err := ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			report[name] = err.Error()
			continue
		}
		report[name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": report})
}

// Get /metrics
func (api *HealthAPI) Metrics(c *gin.Context) {
	if api.metrics == nil {
		c.Status(http.StatusNotFound)
		return
	}
	api.metrics.ServeHTTP(c.Writer, c.Request)
}
