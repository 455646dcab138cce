package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/ratelimit"
	"github.com/makeplus/makeplus-api/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) model.Envelope {
	t.Helper()
	var env model.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rr.Body.String())
	}
	return env
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

// ---------------------------------------------------------------------------
// RequestID middleware tests
// ---------------------------------------------------------------------------

func TestRequestIDGeneratesUUID(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected non-empty request ID in context")
		}
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	respID := rr.Header().Get("X-Request-ID")
	if len(respID) != 36 {
		t.Errorf("expected UUID-length request ID, got %q (len=%d)", respID, len(respID))
	}
}

func TestRequestIDPreservesClientID(t *testing.T) {
	clientID := "my-custom-trace-id-123"
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetRequestID(r.Context()); id != clientID {
			t.Errorf("expected context ID %q, got %q", clientID, id)
		}
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-Request-ID", clientID)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != clientID {
		t.Errorf("expected response X-Request-ID %q, got %q", clientID, got)
	}
}

func TestRequestIDRejectsUnsafeClientID(t *testing.T) {
	for _, bad := range []string{"has space", "line\nbreak", strings.Repeat("x", 200)} {
		req := httptest.NewRequest("GET", "/test", nil)
		req.Header.Set("X-Request-ID", bad)
		rr := httptest.NewRecorder()
		RequestID(okHandler).ServeHTTP(rr, req)
		if got := rr.Header().Get("X-Request-ID"); got == bad || len(got) != 36 {
			t.Errorf("client id %q: got %q, want a fresh UUID", bad, got)
		}
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("expected empty request ID, got %q", id)
	}
}

// ---------------------------------------------------------------------------
// Authentication tests
// ---------------------------------------------------------------------------

type fakeAuth struct {
	admins map[string]*model.Admin
	err    error
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*model.Admin, error) {
	if f.err != nil {
		return nil, f.err
	}
	if a, ok := f.admins[token]; ok {
		return a, nil
	}
	return nil, service.ErrInvalidToken
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{admins: map[string]*model.Admin{
		"admin-token": {ID: 1, Email: "a@example.com", Role: model.RoleAdmin, IsActive: true},
		"super-token": {ID: 2, Email: "s@example.com", Role: model.RoleSuperAdmin, IsActive: true},
	}}
}

func TestAuthenticateSources(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantStatus int
		wantMsg    string
		wantID     int64
	}{
		{"no credentials", func(*http.Request) {}, 401, "Not authorized to access this route", 0},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer admin-token") }, 200, "", 1},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "token", Value: "super-token"}) }, 200, "", 2},
		{"header wins over cookie", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer admin-token")
			r.AddCookie(&http.Cookie{Name: "token", Value: "super-token"})
		}, 200, "", 1},
		{"empty bearer falls back to cookie", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer ")
			r.AddCookie(&http.Cookie{Name: "token", Value: "super-token"})
		}, 200, "", 2},
		{"basic scheme ignored", func(r *http.Request) { r.Header.Set("Authorization", "Basic YWJjOmRlZg==") }, 401, "Not authorized to access this route", 0},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer forged") }, 401, "Token is invalid or has expired", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID int64
			h := Authenticate(newFakeAuth(), discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID = CurrentAdmin(r.Context()).ID
			}))
			req := httptest.NewRequest("GET", "/api/admin/me", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if tt.wantStatus != 200 {
				env := decodeEnvelope(t, rr)
				if env.Success || env.Message != tt.wantMsg {
					t.Errorf("envelope = %+v", env)
				}
				return
			}
			if gotID != tt.wantID {
				t.Errorf("admin id = %d, want %d", gotID, tt.wantID)
			}
		})
	}
}

func TestAuthenticateAdminUnavailable(t *testing.T) {
	auth := &fakeAuth{err: service.ErrAdminUnavailable}
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	Authenticate(auth, discardLogger())(okHandler).ServeHTTP(rr, req)

	if rr.Code != 401 {
		t.Fatalf("status = %d", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Message != "Admin no longer exists or is inactive" {
		t.Errorf("message = %q", env.Message)
	}
}

func TestAuthenticateStoreFailure(t *testing.T) {
	auth := &fakeAuth{err: errors.New("database is locked")}
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rr := httptest.NewRecorder()
	Authenticate(auth, discardLogger())(okHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Role gate tests
// ---------------------------------------------------------------------------

func TestRequireRole(t *testing.T) {
	gate := RequireRole(model.RoleSuperAdmin)(okHandler)
	tests := []struct {
		role model.Role
		want int
	}{
		{model.RoleSuperAdmin, 200},
		{model.RoleAdmin, 403},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			req := httptest.NewRequest("DELETE", "/api/admin/videos/1", nil)
			req = req.WithContext(WithAdmin(req.Context(), &model.Admin{ID: 1, Role: tt.role}))
			rr := httptest.NewRecorder()
			gate.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Fatalf("status = %d, want %d", rr.Code, tt.want)
			}
			if tt.want == 403 {
				if env := decodeEnvelope(t, rr); env.Message != "You do not have permission to perform this action" {
					t.Errorf("message = %q", env.Message)
				}
			}
		})
	}
}

func TestRequireRoleMultiple(t *testing.T) {
	gate := RequireRole(model.RoleAdmin, model.RoleSuperAdmin)(okHandler)
	req := httptest.NewRequest("GET", "/", nil)
	req = req.WithContext(WithAdmin(req.Context(), &model.Admin{Role: model.RoleAdmin}))
	rr := httptest.NewRecorder()
	gate.ServeHTTP(rr, req)
	if rr.Code != 200 {
		t.Errorf("status = %d", rr.Code)
	}
}

func TestRequireRoleWithoutIdentityNeverPasses(t *testing.T) {
	reached := false
	h := Recover(discardLogger())(RequireRole(model.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	})))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if reached {
		t.Fatal("role gate let an unauthenticated request through")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Recover, headers, body limit
// ---------------------------------------------------------------------------

func TestRecoverWritesEnvelope(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))
	h := Recover(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/explode", nil))

	if rr.Code != 500 {
		t.Fatalf("status = %d", rr.Code)
	}
	if env := decodeEnvelope(t, rr); env.Message != "Internal server error" {
		t.Errorf("message = %q", env.Message)
	}
	if !strings.Contains(logBuf.String(), "boom") {
		t.Error("panic value was not logged")
	}
}

func TestSecureHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecureHeaders(okHandler).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy"} {
		if rr.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

func TestMaxBody(t *testing.T) {
	var readErr error
	h := MaxBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/", strings.NewReader("0123456789")))
	var mbe *http.MaxBytesError
	if !errors.As(readErr, &mbe) {
		t.Errorf("got %v, want *http.MaxBytesError", readErr)
	}
}

// ---------------------------------------------------------------------------
// Logging
// ---------------------------------------------------------------------------

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/api/teapot", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["level"] != "WARN" || entry["status"] != float64(418) || entry["bytes"] != float64(15) {
		t.Errorf("log entry = %v", entry)
	}
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

func TestRateLimitDeniesAfterMax(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := ratelimit.NewLocal().WithClock(func() time.Time { return now })
	h := RateLimit(limiter, "login", 15*time.Minute, 5, discardLogger())(okHandler)

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/admin/login", nil)
		req.RemoteAddr = ip + ":5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}
	for i := 1; i <= 5; i++ {
		if rr := send("198.51.100.1"); rr.Code != 200 {
			t.Fatalf("attempt %d: status %d", i, rr.Code)
		}
	}
	rr := send("198.51.100.1")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("6th attempt: status %d, want 429", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if env := decodeEnvelope(t, rr); env.RetryAfter <= 0 || env.Success {
		t.Errorf("envelope = %+v", env)
	}
	if rr := send("198.51.100.2"); rr.Code != 200 {
		t.Errorf("other IP limited: %d", rr.Code)
	}
}

func TestRateLimitRefund(t *testing.T) {
	limiter := ratelimit.NewLocal()
	h := RateLimit(limiter, "login", time.Minute, 2, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ratelimit.RefundFromContext(r.Context())
	}))
	for i := 0; i < 10; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))
		if rr.Code != 200 {
			t.Fatalf("request %d: status %d despite refunds", i+1, rr.Code)
		}
	}
}

type brokenLimiter struct{}

func (brokenLimiter) CheckAndIncrement(string, time.Duration, int) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("backend down")
}
func (brokenLimiter) Refund(string, time.Duration) error { return nil }

func TestRateLimitFailsOpen(t *testing.T) {
	rr := httptest.NewRecorder()
	RateLimit(brokenLimiter{}, "contact", time.Minute, 1, discardLogger())(okHandler).
		ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))
	if rr.Code != 200 {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestAdminRateLimit(t *testing.T) {
	h := AdminRateLimit(2, time.Minute)(okHandler)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		h.ServeHTTP(last, httptest.NewRequest("GET", "/api/admin/videos", nil))
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	if env := decodeEnvelope(t, last); env.RetryAfter <= 0 {
		t.Errorf("envelope = %+v", env)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	if got := ClientIP(req); got != "2001:db8::1" {
		t.Errorf("got %q", got)
	}
	req.RemoteAddr = "203.0.113.9"
	if got := ClientIP(req); got != "203.0.113.9" {
		t.Errorf("got %q", got)
	}
}
