// Package handler implements the HTTP endpoints of the Makeplus API. Every
// endpoint returns an error that is converted to the JSON envelope in one
// place, handle.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/makeplus/makeplus-api/internal/apierr"
	"github.com/makeplus/makeplus-api/internal/model"
	"github.com/makeplus/makeplus-api/internal/store"
)

// apiFunc is the signature of every endpoint in this package.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn to http.HandlerFunc. A returned error becomes the error
// envelope; unknown errors are logged and answered with a generic 500.
func handle(logger *slog.Logger, fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			apierr.Write(w, r, logger, err)
		}
	}
}

// writeOK writes a successful envelope.
func writeOK(w http.ResponseWriter, status int, message string, data any) {
	apierr.WriteJSON(w, status, model.Envelope{Success: true, Message: message, Data: data})
}

// idParam parses the {id} URL parameter. Malformed ids answer with the
// resource's not-found message.
func idParam(r *http.Request, notFoundMsg string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.NotFound(notFoundMsg)
	}
	return id, nil
}

// notFound replaces store.ErrNotFound with a resource-specific message.
func notFound(err error, msg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apierr.Wrap(apierr.KindNotFound, msg, err)
	}
	return err
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// clampInt constrains val to be within [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// conflict replaces store.ErrConflict with a resource-specific message.
func conflict(err error, msg string) error {
	if errors.Is(err, store.ErrConflict) {
		return apierr.Wrap(apierr.KindConflict, msg, err)
	}
	return err
}
