package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/makeplus/makeplus-api/internal/apierr"
	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/server/middleware"
	"github.com/makeplus/makeplus-api/internal/validate"
)

const msgAdminNotFound = "Admin not found"

// AdminStore lists and loads admin accounts.
type AdminStore interface {
	ListAdmins(ctx context.Context) ([]model.Admin, error)
	GetAdmin(ctx context.Context, id int64) (*model.Admin, error)
}

// AdminManager creates and toggles admin accounts.
type AdminManager interface {
	CreateAdmin(ctx context.Context, email, name, password string, role model.Role) (*model.Admin, error)
	SetActive(ctx context.Context, adminID int64, active bool) error
}

// AdminHandler manages admin accounts. Every route is superadmin only.
type AdminHandler struct {
	store   AdminStore
	manager AdminManager
	logger  *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store AdminStore, manager AdminManager, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{store: store, manager: manager, logger: logger}
}

// List returns every admin account.
// GET /api/admin/admins
func (h *AdminHandler) List() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		admins, err := h.store.ListAdmins(r.Context())
		if err != nil {
			return err
		}
		writeOK(w, http.StatusOK, "", nonNil(admins))
		return nil
	})
}

type adminCreateRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Create adds an active admin account.
// POST /api/admin/admins
func (h *AdminHandler) Create() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		var req adminCreateRequest
		if err := validate.FromContext(r.Context()).Decode(&req); err != nil {
			return err
		}
		role := model.Role(req.Role)
		if role == "" {
			role = model.RoleAdmin
		}

		admin, err := h.manager.CreateAdmin(r.Context(), req.Email, req.Name, req.Password, role)
		if err != nil {
			return conflict(err, "An admin with this email already exists")
		}
		h.logger.InfoContext(r.Context(), "admin created", "admin_id", admin.ID, "role", admin.Role,
			"by", middleware.CurrentAdmin(r.Context()).ID)
		writeOK(w, http.StatusCreated, "Admin created successfully", admin)
		return nil
	})
}

// SetStatus activates or deactivates an admin. Admins cannot deactivate
// themselves.
// PUT /api/admin/admins/{id}/status
func (h *AdminHandler) SetStatus() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		id, err := idParam(r, msgAdminNotFound)
		if err != nil {
			return err
		}
		var req struct {
			IsActive bool `json:"isActive"`
		}
		if err := validate.FromContext(r.Context()).Decode(&req); err != nil {
			return err
		}
		current := middleware.CurrentAdmin(r.Context())
		if id == current.ID && !req.IsActive {
			return apierr.BadRequest("You cannot deactivate your own account")
		}

		if err := h.manager.SetActive(r.Context(), id, req.IsActive); err != nil {
			return notFound(err, msgAdminNotFound)
		}
		admin, err := h.store.GetAdmin(r.Context(), id)
		if err != nil {
			return notFound(err, msgAdminNotFound)
		}
		h.logger.InfoContext(r.Context(), "admin status changed", "admin_id", id,
			"active", req.IsActive, "by", current.ID)
		writeOK(w, http.StatusOK, "Admin status updated successfully", admin)
		return nil
	})
}
