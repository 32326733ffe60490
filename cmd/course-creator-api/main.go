// Package main provides the Course Creator API server entrypoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spherical-ai/course-creator/cmd/course-creator-api/handlers"
	"github.com/spherical-ai/course-creator/cmd/course-creator-api/middleware"
	"github.com/spherical-ai/course-creator/internal/config"
	"github.com/spherical-ai/course-creator/internal/export"
	"github.com/spherical-ai/course-creator/internal/llm"
	"github.com/spherical-ai/course-creator/internal/observability"
	"github.com/spherical-ai/course-creator/internal/pipeline"
	"github.com/spherical-ai/course-creator/internal/session"
)

func main() {
	config.LoadEnvFiles()

	cfgPath := os.Getenv("CONFIG_PATH")
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		cfgPath = os.Args[2]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})

	// Every action generates; without the credential nothing can succeed.
	if err := cfg.RequireCredential(); err != nil {
		logger.Fatal().Err(err).Msg("Generation Service credential missing")
	}

	client, err := llm.NewClient(llm.Config{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Timeout: cfg.LLM.Timeout,
		Stream:  cfg.LLM.Stream,
		Retry: &llm.RetryConfig{
			MaxRetries:     cfg.LLM.MaxRetries,
			InitialBackoff: llm.DefaultRetryConfig().InitialBackoff,
			MaxBackoff:     llm.DefaultRetryConfig().MaxBackoff,
		},
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create generation client")
	}

	backend, err := session.NewBackend(cfg.Session)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Session.Driver).Msg("Failed to create session store")
	}
	defer backend.Close()
	store := session.NewStore(backend, cfg.Session.TTL)

	exporter := export.NewPDFExporter(export.LayoutFromConfig(cfg.Export))
	controller := pipeline.NewController(client, logger, pipeline.WithExportCheck(exporter))
	courseHandler := handlers.NewCourseHandler(logger, controller, store, exporter, cfg.Export.Filename)

	appCfg := &AppConfig{
		RequestTimeout: cfg.Server.RequestTimeout,
		Session: middleware.SessionConfig{
			CookieName: cfg.Session.CookieName,
			TTL:        cfg.Session.TTL,
		},
	}

	router := NewRouter(logger, appCfg, courseHandler, store)

	logger.Info().
		Str("addr", cfg.Addr()).
		Str("model", client.Model()).
		Str("session_driver", cfg.Session.Driver).
		Msg("Starting Course Creator API")

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Msgf("HTTP server listening on %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("Server error")
		}
	case sig := <-shutdown:
		logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("Forced shutdown failed")
		}
	}

	logger.Info().Msg("Server stopped")
}
