package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/makeplus/makeplus-api/internal/apierr"
	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/service"
)

// TokenCookie is the name of the cookie carrying the session token.
const TokenCookie = "token"

// Authenticator resolves a session token to the admin it belongs to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.Admin, error)
}

type adminKey struct{}

// Authenticate returns an HTTP middleware that requires a valid session. The
// token is taken from the Authorization: Bearer header, falling back to the
// token cookie. On success the admin is attached to the request context; read
// it back with CurrentAdmin.
func Authenticate(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromRequest(r)
			if token == "" {
				apierr.Write(w, r, logger, apierr.Unauthorized(apierr.MsgNotAuthorized))
				return
			}

			admin, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrInvalidToken):
					err = apierr.Unauthorized(apierr.MsgInvalidToken)
				case errors.Is(err, service.ErrAdminUnavailable):
					err = apierr.Unauthorized(apierr.MsgAdminUnavailable)
				}
				apierr.Write(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAdmin(r.Context(), admin)))
		})
	}
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t
		}
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// RequireRole returns an HTTP middleware that only lets admins holding one
// of roles through; everyone else gets 403. It must be mounted after
// Authenticate: reaching it without an identity is a wiring bug and panics.
func RequireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin := CurrentAdmin(r.Context())
			if admin == nil {
				panic("middleware.RequireRole: no authenticated admin in request context")
			}
			if !admin.HasRole(roles...) {
				apierr.Write(w, r, nil, apierr.Forbidden())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithAdmin attaches admin to ctx.
func WithAdmin(ctx context.Context, admin *model.Admin) context.Context {
	return context.WithValue(ctx, adminKey{}, admin)
}

// CurrentAdmin returns the authenticated admin, or nil on public routes.
func CurrentAdmin(ctx context.Context) *model.Admin {
	if a, ok := ctx.Value(adminKey{}).(*model.Admin); ok {
		return a
	}
	return nil
}
