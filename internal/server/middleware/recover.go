package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/makeplus/makeplus-api/internal/apierr"
)

// Recover turns a panic inside a handler into a logged 500 envelope.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}
				logger.ErrorContext(r.Context(), "panic serving request",
					"method", r.Method,
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
					"panic", err.Error(),
					"stack", string(debug.Stack()),
				)
				apierr.Write(w, r, nil, apierr.Internal(errors.Join(errors.New("panic"), err)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
