package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/service"
)

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`

func TestHTTPHandlerRequiresSession(t *testing.T) {
	srv, st := newTestMCP(t)
	tokens := service.NewTokenIssuer("mcp-test-secret", time.Hour)
	auth := service.NewAuthService(st, tokens, service.NewBcryptHasherCost(bcrypt.MinCost), slog.New(slog.DiscardHandler))

	admin, err := auth.CreateAdmin(context.Background(), "ops@example.com", "Ops", "password123", model.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	valid, err := tokens.Issue(admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	foreign, err := service.NewTokenIssuer("other-secret", time.Hour).Issue(admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	h := srv.HTTPHandler(auth)

	tests := []struct {
		name       string
		header     string
		wantDenied bool
	}{
		{"no token", "", true},
		{"malformed token", "Bearer not-a-jwt", true},
		{"token signed with another secret", "Bearer " + foreign, true},
		{"valid session", "Bearer " + valid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(initializeRequest))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json, text/event-stream")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if tt.wantDenied {
				if rr.Code != http.StatusUnauthorized {
					t.Fatalf("status = %d, want 401; body = %s", rr.Code, rr.Body.String())
				}
				if strings.Contains(rr.Body.String(), "serverInfo") {
					t.Fatal("denied request reached the MCP server")
				}
				return
			}
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), "serverInfo") {
				t.Fatalf("initialize response missing serverInfo: %s", rr.Body.String())
			}
		})
	}
}

func TestHTTPHandlerDeactivatedAdminDenied(t *testing.T) {
	srv, st := newTestMCP(t)
	tokens := service.NewTokenIssuer("mcp-test-secret", time.Hour)
	auth := service.NewAuthService(st, tokens, service.NewBcryptHasherCost(bcrypt.MinCost), slog.New(slog.DiscardHandler))

	admin, err := auth.CreateAdmin(context.Background(), "gone@example.com", "Gone", "password123", model.RoleAdmin)
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	token, err := tokens.Issue(admin.ID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if err := st.SetAdminActive(context.Background(), admin.ID, false); err != nil {
		t.Fatalf("SetAdminActive: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(initializeRequest))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	srv.HTTPHandler(auth).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}
