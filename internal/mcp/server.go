package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/server/middleware"
)

// Store is the part of the content store the operator tools read and write.
type Store interface {
	ListContacts(ctx context.Context, f model.ContactFilter) ([]model.Contact, int64, error)
	GetContact(ctx context.Context, id int64) (*model.Contact, error)
	ContactSummary(ctx context.Context) (model.ContactSummary, error)
	UpdateContactStatus(ctx context.Context, id int64, status model.ContactStatus) error
	GetStats(ctx context.Context) (*model.Stats, error)
	ListVideos(ctx context.Context, activeOnly bool) ([]model.Video, error)
	ListPartners(ctx context.Context, activeOnly bool) ([]model.Partner, error)
	ListAdmins(ctx context.Context) ([]model.Admin, error)
}

// MCPServer wraps the mcp-go server with the Makeplus operator tools. It
// lets an MCP client triage contact submissions and inspect site content
// without going through the admin dashboard.
type MCPServer struct {
	store  Store
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer with all tools and resources
// registered. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(store Store, version string, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		store:  store,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"Makeplus",
		version,
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio serves the MCP protocol over stdin/stdout, the way desktop MCP
// clients launch servers as subprocesses.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// HTTPHandler serves the Streamable HTTP transport on /mcp. Every request
// needs the same admin session as the admin API, as a bearer token or the
// token cookie.
func (s *MCPServer) HTTPHandler(auth middleware.Authenticator) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.Recover(s.logger))
	r.With(middleware.Authenticate(auth, s.logger)).Handle("/mcp", server.NewStreamableHTTPServer(s.server))
	return r
}

// ListenAndServe serves HTTPHandler on addr (e.g. "127.0.0.1:3001") until
// ctx is cancelled.
func (s *MCPServer) ListenAndServe(ctx context.Context, addr string, auth middleware.Authenticator) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.HTTPHandler(auth),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("MCP HTTP server starting", "addr", addr, "endpoint", "/mcp")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("mcp listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint:    boolPtr(false),
		DestructiveHint: boolPtr(false),
		IdempotentHint:  boolPtr(true),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
