package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/usage-ledger/internal/domain/port/core"
)

// Pinger is a dependency the health check probes
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness and dependency health
type HealthHandler struct {
	checks map[string]Pinger
	logger coreport.Logger
}

// NewHealthHandler creates a health handler; nil checks are skipped
func NewHealthHandler(checks map[string]Pinger, logger coreport.Logger) *HealthHandler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{checks: active, logger: logger}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(c *gin.Context) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.Ping(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			results[name] = err.Error()
			h.logger.Warn("Health check failed", map[string]any{"check": name, "error": err.Error()})
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "unavailable"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}
