package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/ratelimit"
	"github.com/makeplus/makeplus-api/internal/server/middleware"
	"github.com/makeplus/makeplus-api/internal/service"
	"github.com/makeplus/makeplus-api/internal/validate"
)

// Authenticator is the part of the auth service the session endpoints use.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*service.LoginResult, error)
	ChangePassword(ctx context.Context, adminID int64, current, next string) error
}

// CookieOptions controls the session cookie set on login.
type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

// AuthHandler serves login, logout and the signed-in admin's own account.
type AuthHandler struct {
	auth   Authenticator
	cookie CookieOptions
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth Authenticator, cookie CookieOptions, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie, logger: logger, now: time.Now}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginData is returned by a successful login.
type LoginData struct {
	Token string             `json:"token"`
	Admin model.AdminSummary `json:"admin"`
}

// Login checks credentials and starts a session.
// POST /api/admin/login
func (h *AuthHandler) Login() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		var req loginRequest
		if err := validate.FromContext(r.Context()).Decode(&req); err != nil {
			return err
		}

		res, err := h.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			h.logger.InfoContext(r.Context(), "login rejected",
				"email", req.Email, "ip", middleware.ClientIP(r), "reason", err.Error())
			return err
		}
		ratelimit.RefundFromContext(r.Context())

		http.SetCookie(w, h.sessionCookie(res.Token, h.now().Add(h.cookie.TTL)))
		h.logger.InfoContext(r.Context(), "admin logged in", "admin_id", res.Admin.ID)
		writeOK(w, http.StatusOK, "Login successful", LoginData{
			Token: res.Token,
			Admin: res.Admin.Summary(),
		})
		return nil
	})
}

// Logout expires the session cookie. Bearer tokens stay valid until they
// expire; there is no server-side revocation.
// POST /api/admin/logout
func (h *AuthHandler) Logout() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		c := h.sessionCookie("", time.Unix(0, 0))
		c.MaxAge = -1
		http.SetCookie(w, c)
		writeOK(w, http.StatusOK, "Logged out successfully", nil)
		return nil
	})
}

// Me returns the signed-in admin.
// GET /api/admin/me
func (h *AuthHandler) Me() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		writeOK(w, http.StatusOK, "", middleware.CurrentAdmin(r.Context()))
		return nil
	})
}

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword replaces the signed-in admin's password.
// PUT /api/admin/me/password
func (h *AuthHandler) ChangePassword() http.HandlerFunc {
	return handle(h.logger, func(w http.ResponseWriter, r *http.Request) error {
		var req passwordChangeRequest
		if err := validate.FromContext(r.Context()).Decode(&req); err != nil {
			return err
		}
		admin := middleware.CurrentAdmin(r.Context())
		if err := h.auth.ChangePassword(r.Context(), admin.ID, req.CurrentPassword, req.NewPassword); err != nil {
			return err
		}
		h.logger.InfoContext(r.Context(), "admin changed password", "admin_id", admin.ID)
		writeOK(w, http.StatusOK, "Password updated successfully", nil)
		return nil
	})
}

func (h *AuthHandler) sessionCookie(value string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
