package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/server/middleware"
	"github.com/makeplus/makeplus-api/internal/validate"
)

// StatsStore persists the home page counters.
type StatsStore interface {
	GetStats(ctx context.Context) (*model.Stats, error)
	UpdateStats(ctx context.Context, st *model.Stats) error
}

// StatsHandler serves the home page counters.
type StatsHandler struct {
	store  StatsStore
	logger *slog.Logger
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(store StatsStore, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{store: store, logger: logger}
}

// Public returns the counter values only.
// GET /api/content/stats
func (h *StatsHandler) Public() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		st, err := h.store.GetStats(r.Context())
		if err != nil {
			return err
		}
		writeOK(w, http.StatusOK, "", st.Public())
		return nil
	})
}

// Get returns the counters with their labels.
// GET /api/admin/stats
func (h *StatsHandler) Get() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		st, err := h.store.GetStats(r.Context())
		if err != nil {
			return err
		}
		writeOK(w, http.StatusOK, "", st.View())
		return nil
	})
}

// Update applies the counter fields present in the request.
// PUT /api/admin/stats
func (h *StatsHandler) Update() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		var patch model.StatsPatch
		if err := validate.FromContext(r.Context()).Decode(&patch); err != nil {
			return err
		}
		st, err := h.store.GetStats(r.Context())
		if err != nil {
			return err
		}

		admin := middleware.CurrentAdmin(r.Context())
		patch.Apply(st)
		st.UpdatedBy = &admin.ID
		if err := h.store.UpdateStats(r.Context(), st); err != nil {
			return err
		}
		h.logger.InfoContext(r.Context(), "stats updated", "admin_id", admin.ID)
		writeOK(w, http.StatusOK, "Statistics updated successfully", st.View())
		return nil
	})
}
