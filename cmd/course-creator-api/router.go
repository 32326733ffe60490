// Package main provides the API router setup.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spherical-ai/course-creator/cmd/course-creator-api/handlers"
	"github.com/spherical-ai/course-creator/cmd/course-creator-api/middleware"
	"github.com/spherical-ai/course-creator/internal/observability"
)

// AppConfig holds application configuration.
type AppConfig struct {
	RequestTimeout time.Duration
	Session        middleware.SessionConfig
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter creates the main API router with all routes configured.
func NewRouter(logger *observability.Logger, cfg *AppConfig, course *handlers.CourseHandler, store Pinger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Trace)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"course-creator"}`))
	})

	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(r.Context()); err != nil {
			logger.WithContext(r.Context()).Warn().Err(err).Msg("Session store not ready")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Session(cfg.Session))
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

		r.Get("/", handlers.Index)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/session", course.GetSession)
			r.Delete("/session", course.ResetSession)

			r.Post("/outline", course.SubmitOutline)
			r.Put("/outline", course.EditOutline)

			r.Post("/course", course.GenerateCourse)
			r.Get("/course/download", course.Download)
		})
	})

	return r
}
