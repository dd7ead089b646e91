package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusHealthy       = "healthy"
	statusUnhealthy     = "unhealthy"
	statusNotConfigured = "not_configured"

	serviceVersion     = "1.0.0"
	healthCheckTimeout = 5 * time.Second
)

// HealthChecker is a dependency that can report its own health
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	logger   *slog.Logger
	postgres HealthChecker
	redis    HealthChecker
}

// NewHealthHandler creates a new health handler. Redis is optional; pass nil
// when the service runs on the in-memory cache.
func NewHealthHandler(logger *slog.Logger, postgres, redis HealthChecker) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		logger:   logger,
		postgres: postgres,
		redis:    redis,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbStatus := h.check(ctx, "postgresql", h.postgres)
	redisStatus := h.check(ctx, "redis", h.redis)

	overall := statusHealthy
	if dbStatus == statusUnhealthy || redisStatus == statusUnhealthy {
		overall = statusUnhealthy
	}

	response := HealthResponse{
		Status:    overall,
		Timestamp: time.Now().Format(time.RFC3339),
		Version:   serviceVersion,
		Dependencies: map[string]string{
			"postgresql": dbStatus,
			"redis":      redisStatus,
		},
	}

	code := http.StatusOK
	if overall == statusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, response)
}

func (h *HealthHandler) check(ctx context.Context, name string, dep HealthChecker) string {
	if dep == nil {
		return statusNotConfigured
	}
	if err := dep.Health(ctx); err != nil {
		h.logger.Error("Dependency health check failed", "dependency", name, "error", err)
		return statusUnhealthy
	}
	return statusHealthy
}
