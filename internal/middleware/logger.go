package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPObserver receives one sample per served request.
type HTTPObserver interface {
	ObserveHTTP(method, route string, status int, d time.Duration)
}

// Logger writes one access line per request. When obs is non-nil it also
// reports the sample under the matched chi route pattern.
func Logger(l zerolog.Logger, obs HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rw, r)
			elapsed := time.Since(start)
			l.Info().
				Str("request_id", RequestIDFromContext(r.Context())).
				Msgf("%s %s %d %s", r.Method, r.URL.Path, rw.status, elapsed)
			if obs != nil {
				obs.ObserveHTTP(r.Method, routePattern(r), rw.status, elapsed)
			}
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
