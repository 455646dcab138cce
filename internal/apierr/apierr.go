// Package apierr defines the error type handlers and middleware return and
// converts it to the uniform JSON envelope in one place.
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/service"
	"github.com/makeplus/makeplus-api/internal/store"
)

// Kind classifies an Error and fixes its HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindBadRequest
	KindUnauthorized
	KindInvalidCredentials
	KindAccountDeactivated
	KindForbidden
	KindNotFound
	KindConflict
	KindTooLarge
	KindRateLimited
)

var kindInfo = map[Kind]struct {
	name   string
	status int
}{
	KindInternal:           {"internal", http.StatusInternalServerError},
	KindValidation:         {"validation", http.StatusBadRequest},
	KindBadRequest:         {"bad_request", http.StatusBadRequest},
	KindUnauthorized:       {"unauthorized", http.StatusUnauthorized},
	KindInvalidCredentials: {"invalid_credentials", http.StatusUnauthorized},
	KindAccountDeactivated: {"account_deactivated", http.StatusUnauthorized},
	KindForbidden:          {"forbidden", http.StatusForbidden},
	KindNotFound:           {"not_found", http.StatusNotFound},
	KindConflict:           {"conflict", http.StatusConflict},
	KindTooLarge:           {"too_large", http.StatusRequestEntityTooLarge},
	KindRateLimited:        {"rate_limited", http.StatusTooManyRequests},
}

// Status is the HTTP status code for k.
func (k Kind) Status() int {
	if info, ok := kindInfo[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Client-facing messages shared by several call sites.
const (
	MsgValidation         = "Validation error"
	MsgInvalidCredentials = "Invalid credentials"
	MsgNotAuthorized      = "Not authorized to access this route"
	MsgInvalidToken       = "Token is invalid or has expired"
	MsgAdminUnavailable   = "Admin no longer exists or is inactive"
	MsgForbidden          = "You do not have permission to perform this action"
	MsgInternal           = "Internal server error"
	MsgTooManyRequests    = "Too many requests, please try again later"
)

// Error is the one error type the HTTP layer understands.
type Error struct {
	Kind       Kind
	Message    string
	Fields     []model.FieldError
	RetryAfter int // seconds, for KindRateLimited
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status is the HTTP status code of e.
func (e *Error) Status() int { return e.Kind.Status() }

// New returns an Error of kind with a client-facing message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause that is logged but never sent to clients.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation returns a 400 carrying every field error.
func Validation(fields []model.FieldError) *Error {
	return &Error{Kind: KindValidation, Message: MsgValidation, Fields: fields}
}

func BadRequest(message string) *Error   { return New(KindBadRequest, message) }
func Unauthorized(message string) *Error { return New(KindUnauthorized, message) }
func Forbidden() *Error                  { return New(KindForbidden, MsgForbidden) }
func NotFound(message string) *Error     { return New(KindNotFound, message) }
func Conflict(message string) *Error     { return New(KindConflict, message) }

// RateLimited returns a 429 telling the client when to retry.
func RateLimited(retryAfter int) *Error {
	return &Error{Kind: KindRateLimited, Message: MsgTooManyRequests, RetryAfter: retryAfter}
}

// Internal hides err behind the generic message.
func Internal(err error) *Error {
	return Wrap(KindInternal, MsgInternal, err)
}

// From converts any error into an *Error. Known sentinels from the store and
// service layers map to their client-facing kinds; anything else is internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return Wrap(KindTooLarge, "Request body too large", err)
	case errors.Is(err, service.ErrInvalidCredentials):
		return Wrap(KindInvalidCredentials, MsgInvalidCredentials, err)
	case errors.Is(err, service.ErrAccountDeactivated):
		// Same message as bad credentials; the reason is only logged.
		return Wrap(KindAccountDeactivated, MsgInvalidCredentials, err)
	case errors.Is(err, service.ErrInvalidToken):
		return Wrap(KindUnauthorized, MsgInvalidToken, err)
	case errors.Is(err, service.ErrAdminUnavailable):
		return Wrap(KindUnauthorized, MsgAdminUnavailable, err)
	case errors.Is(err, service.ErrWeakPassword):
		return Wrap(KindBadRequest, "Password must be at least 8 characters", err)
	case errors.Is(err, service.ErrIncorrectPassword):
		return Wrap(KindBadRequest, "Current password is incorrect", err)
	case errors.Is(err, service.ErrInvalidRole):
		return Wrap(KindBadRequest, "Invalid role", err)
	case errors.Is(err, store.ErrNotFound):
		return Wrap(KindNotFound, "Resource not found", err)
	case errors.Is(err, store.ErrConflict):
		return Wrap(KindConflict, "Resource already exists", err)
	default:
		return Internal(err)
	}
}

// Write converts err and writes the error envelope. Internal errors are
// logged with their cause; client errors at debug level.
func Write(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	e := From(err)
	if logger != nil {
		attrs := []any{"kind", e.Kind.String(), "method", r.Method, "path", r.URL.Path}
		if e.Err != nil {
			attrs = append(attrs, "error", e.Err)
		}
		if e.Kind == KindInternal {
			logger.ErrorContext(r.Context(), "request failed", attrs...)
		} else {
			logger.DebugContext(r.Context(), "request rejected", attrs...)
		}
	}

	env := model.Envelope{Success: false, Message: e.Message, Errors: e.Fields}
	if e.Kind == KindRateLimited && e.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(e.RetryAfter))
		env.RetryAfter = e.RetryAfter
	}
	WriteJSON(w, e.Status(), env)
}

// WriteJSON serializes v as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
