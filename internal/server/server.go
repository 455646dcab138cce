package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/makeplus/makeplus-api/internal/apierr"
	"github.com/makeplus/makeplus-api/internal/config"
	"github.com/makeplus/makeplus-api/internal/handler"
	"github.com/makeplus/makeplus-api/internal/mail"
	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/openapi"
	"github.com/makeplus/makeplus-api/internal/ratelimit"
	"github.com/makeplus/makeplus-api/internal/server/middleware"
	"github.com/makeplus/makeplus-api/internal/service"
	"github.com/makeplus/makeplus-api/internal/store"
	"github.com/makeplus/makeplus-api/internal/validate"
)

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Store    *store.Store
	Auth     *service.AuthService
	Notifier handler.ContactNotifier
	Limiter  ratelimit.Limiter
	Version  string
}

// Server is the top-level HTTP server. It owns the chi router and the
// collaborators handlers are built from.
type Server struct {
	cfg        *config.Config
	deps       Deps
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a Server with all routes and middleware mounted. Call
// ListenAndServe to start accepting connections.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewLocal()
	}
	if deps.Notifier == nil {
		deps.Notifier = mail.NewNotifier(mail.New(cfg.Mail, logger), cfg.Mail.From, cfg.Mail.To, logger)
	}
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()
	limits := s.cfg.RateLimit

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recover(s.logger))
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.MaxBody(s.cfg.Server.MaxBodySize))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierr.Write(w, r, s.logger, apierr.NotFound("Route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierr.WriteJSON(w, http.StatusMethodNotAllowed, model.Envelope{Success: false, Message: "Method not allowed"})
	})

	st := s.deps.Store
	auth := handler.NewAuthHandler(s.deps.Auth, handler.CookieOptions{
		TTL:    s.cfg.Auth.CookieTTL,
		Secure: s.cfg.Auth.SecureCookie,
	}, s.logger)
	contacts := handler.NewContactHandler(st, s.deps.Notifier, s.logger)
	stats := handler.NewStatsHandler(st, s.logger)
	videos := handler.NewVideoHandler(st, s.logger)
	partners := handler.NewPartnerHandler(st, s.logger)
	admins := handler.NewAdminHandler(st, s.deps.Auth, s.logger)
	health := handler.NewHealthHandler(st, s.cfg.Server.Environment, s.logger)

	// --- Health checks and API document (no auth required) ---
	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness())
	r.Get("/api/health", health.Health())
	r.Get("/openapi.json", s.handleOpenAPI())

	// --- Public site ---
	r.With(
		middleware.RateLimit(s.deps.Limiter, "contact", limits.Window, limits.ContactMax, s.logger),
		validate.Body(handler.ContactSchema),
	).Post("/api/contact", contacts.Submit())

	r.Route("/api/content", func(r chi.Router) {
		r.Get("/stats", stats.Public())
		r.Get("/videos", videos.Public())
		r.Get("/partners", partners.Public())
	})

	// --- Admin API ---
	r.Route("/api/admin", func(r chi.Router) {
		r.With(
			middleware.RateLimit(s.deps.Limiter, "login", limits.Window, limits.LoginMax, s.logger),
			validate.Body(handler.LoginSchema),
		).Post("/login", auth.Login())

		// Everything else requires a session.
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(s.deps.Auth, s.logger))
			r.Use(middleware.AdminRateLimit(limits.AdminMax, limits.Window))
			superadmin := middleware.RequireRole(model.RoleSuperAdmin)

			r.Post("/logout", auth.Logout())
			r.Get("/me", auth.Me())
			r.With(validate.Body(handler.PasswordChangeSchema)).Put("/me/password", auth.ChangePassword())

			r.Get("/stats", stats.Get())
			r.With(validate.Body(handler.StatsSchema)).Put("/stats", stats.Update())

			r.Route("/videos", func(r chi.Router) {
				r.Get("/", videos.List())
				r.With(validate.Body(handler.VideoSchema)).Post("/", videos.Create())
				r.With(validate.Body(handler.ReorderSchema("videos"))).Put("/reorder", videos.Reorder())
				r.Get("/{id}", videos.Get())
				r.With(validate.Body(handler.VideoUpdateSchema)).Put("/{id}", videos.Update())
				r.With(superadmin).Delete("/{id}", videos.Delete())
			})

			r.Route("/partners", func(r chi.Router) {
				r.Get("/", partners.List())
				r.With(validate.Body(handler.PartnerSchema)).Post("/", partners.Create())
				r.With(validate.Body(handler.ReorderSchema("partners"))).Put("/reorder", partners.Reorder())
				r.Get("/{id}", partners.Get())
				r.With(validate.Body(handler.PartnerUpdateSchema)).Put("/{id}", partners.Update())
				r.With(superadmin).Delete("/{id}", partners.Delete())
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", contacts.List())
				r.Get("/stats/summary", contacts.Summary())
				r.Get("/{id}", contacts.Get())
				r.With(validate.Body(handler.ContactStatusSchema)).Put("/{id}/status", contacts.UpdateStatus())
				r.With(superadmin).Delete("/{id}", contacts.Delete())
			})

			r.Route("/admins", func(r chi.Router) {
				r.Use(superadmin)
				r.Get("/", admins.List())
				r.With(validate.Body(handler.AdminCreateSchema)).Post("/", admins.Create())
				r.With(validate.Body(handler.AdminStatusSchema)).Put("/{id}/status", admins.SetStatus())
			})
		})
	})

	s.router = r
}

// handleOpenAPI serves the API document. It is rendered once.
func (s *Server) handleOpenAPI() http.HandlerFunc {
	doc := openapi.Generate(openapi.Info{
		Title:   "Makeplus API",
		Version: s.deps.Version,
	}, openapi.Routes())
	body, err := json.Marshal(doc)
	return func(w http.ResponseWriter, r *http.Request) {
		if err != nil {
			apierr.Write(w, r, s.logger, fmt.Errorf("render openapi document: %w", err))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests for up to server.shutdown_timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Addr()

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr, "environment", s.cfg.Server.Environment)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
