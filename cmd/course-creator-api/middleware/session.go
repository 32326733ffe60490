// Package middleware provides HTTP middleware for the Course Creator API.
package middleware

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/course-creator/internal/observability"
	"github.com/spherical-ai/course-creator/internal/session"
)

type contextKey string

// SessionIDKey is the context key for the caller's session ID.
const SessionIDKey contextKey = "session_id"

// SessionConfig holds session cookie settings.
type SessionConfig struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Session attaches a session ID to every request, issuing a new cookie when
// the caller has none or presents one that is malformed.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(cfg.CookieName); err == nil && session.ValidID(c.Value) {
				id = c.Value
			}

			if id == "" {
				id = session.NewID()
			}

			// Refresh on every request so the cookie outlives the sliding store TTL.
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    id,
				Path:     "/",
				MaxAge:   int(cfg.TTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), SessionIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext extracts the session ID from context.
func SessionFromContext(ctx context.Context) string {
	if v := ctx.Value(SessionIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Trace copies chi's request ID into the logging trace ID.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := chimiddleware.GetReqID(r.Context()); reqID != "" {
			r = r.WithContext(observability.ContextWithTraceID(r.Context(), reqID))
		}
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs method, path, status and latency for each request.
func RequestLogger(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.WithContext(r.Context()).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("Request handled")
		})
	}
}
