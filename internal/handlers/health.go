package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/proptax/internal/middleware"
)

const (
	// APIVersion is the current version of the API
	APIVersion = "0.1.0"
	// HealthCheckTimeout bounds the readiness probe's database round trips.
	HealthCheckTimeout = 2 * time.Second
)

// SchemaChecker is the part of the database the readiness probe needs.
type SchemaChecker interface {
	Ping(ctx context.Context) error
	// Pending lists migrations that have not been applied.
	Pending(ctx context.Context) ([]string, error)
}

// HealthHandler serves liveness, readiness and build info.
type HealthHandler struct {
	db        SchemaChecker
	startTime time.Time
	env       string
	aiEnabled bool
}

// NewHealthHandler creates a HealthHandler. aiEnabled is reported by the
// info and readiness endpoints; it never makes the service unready.
func NewHealthHandler(db SchemaChecker, env string, aiEnabled bool) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
		env:       env,
		aiEnabled: aiEnabled,
	}
}

// HealthResponse represents the basic health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse reports each dependency the API relies on.
type ReadyResponse struct {
	Status            string   `json:"status"`
	Database          string   `json:"database"`
	Migrations        string   `json:"migrations,omitempty"`
	PendingMigrations []string `json:"pending_migrations,omitempty"`
	AI                string   `json:"ai"`
}

// InfoResponse represents the API information response.
type InfoResponse struct {
	Version     string `json:"version"`
	Environment string `json:"environment"`
	Uptime      string `json:"uptime"`
	AIEnabled   bool   `json:"ai_enabled"`
}

// Health handles GET /health. Liveness only; no dependencies are checked.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status: "healthy",
	})
}

// Ready handles GET /health/ready. The service is ready when the database
// answers and every embedded migration has been applied.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), HealthCheckTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Database: "connected", AI: h.aiStatus()}
	log := middleware.GetLogger(c)

	if err := h.db.Ping(ctx); err != nil {
		if log != nil {
			log.Error("Database health check failed", err, map[string]interface{}{
				"timeout": HealthCheckTimeout.String(),
			})
		}
		resp.Status = "not_ready"
		resp.Database = "disconnected"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	pending, err := h.db.Pending(ctx)
	switch {
	case err != nil:
		if log != nil {
			log.Error("Migration status check failed", err, nil)
		}
		resp.Status = "not_ready"
		resp.Migrations = "unknown"
	case len(pending) > 0:
		if log != nil {
			log.Warn("Schema is behind", map[string]interface{}{"pending": pending})
		}
		resp.Status = "not_ready"
		resp.Migrations = "pending"
		resp.PendingMigrations = pending
	default:
		resp.Migrations = "current"
	}

	status := http.StatusOK
	if resp.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// Info handles GET /api/v1/info.
func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, InfoResponse{
		Version:     APIVersion,
		Environment: h.env,
		Uptime:      formatUptime(time.Since(h.startTime)),
		AIEnabled:   h.aiEnabled,
	})
}

func (h *HealthHandler) aiStatus() string {
	if h.aiEnabled {
		return "configured"
	}
	return "disabled"
}

// formatUptime renders d as "[Nd ]Nh Nm Ns".
func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
