package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/makeplus/makeplus-api/internal/apierr"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness endpoints.
type HealthHandler struct {
	db          Pinger
	environment string
	started     time.Time
	logger      *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, environment string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{db: db, environment: environment, started: time.Now(), logger: logger}
}

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      int64     `json:"uptime"`
	Environment string    `json:"environment"`
}

// Health reports process health.
// GET /api/health
func (h *HealthHandler) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteJSON(w, http.StatusOK, HealthStatus{
			Status:      "healthy",
			Timestamp:   time.Now().UTC(),
			Uptime:      int64(time.Since(h.started).Seconds()),
			Environment: h.environment,
		})
	}
}

// Liveness always reports ok while the process serves requests.
// GET /healthz
func (h *HealthHandler) Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// Readiness reports whether the database answers.
// GET /readyz
func (h *HealthHandler) Readiness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "readiness check failed", "error", err)
			apierr.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		apierr.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
