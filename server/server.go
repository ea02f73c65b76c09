// Package server wires the HTTP surface: echo instance, middleware,
// route registration, and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/booksync/booksync/ai"
	"github.com/booksync/booksync/internal/metrics"
	"github.com/booksync/booksync/internal/profile"
	"github.com/booksync/booksync/recommend"
	apiv1 "github.com/booksync/booksync/server/router/api/v1"
	"github.com/booksync/booksync/store"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	metrics    *metrics.Exporter
}

// NewServer assembles the AI services, the retrieval engine, and the echo
// router. The AI-backed endpoints are registered only when a provider key
// is configured; record management and health always are.
func NewServer(ctx context.Context, instanceProfile *profile.Profile, storeInstance *store.Store) (*Server, error) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	exporter := metrics.NewExporter(metrics.DefaultConfig())

	s := &Server{
		Profile:    instanceProfile,
		Store:      storeInstance,
		echoServer: e,
		metrics:    exporter,
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: shortuuid.New,
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger())

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": instanceProfile.Version,
		})
	})
	e.GET("/metrics", echo.WrapHandler(exporter.Handler()))

	apiService, err := buildAPIV1Service(instanceProfile, storeInstance, exporter)
	if err != nil {
		return nil, err
	}
	apiService.Register(e.Group("/api/v1"))

	return s, nil
}

func buildAPIV1Service(instanceProfile *profile.Profile, storeInstance *store.Store, exporter *metrics.Exporter) (*apiv1.APIV1Service, error) {
	service := &apiv1.APIV1Service{
		Profile: instanceProfile,
		Store:   storeInstance,
		Metrics: exporter,
	}

	if !instanceProfile.IsAIEnabled() {
		slog.Warn("AI provider key not configured",
			"note", "predict and recommend endpoints are disabled")
		return service, nil
	}

	aiConfig := ai.NewConfigFromProfile(instanceProfile)
	if err := aiConfig.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid AI configuration")
	}

	embeddingService, err := ai.NewEmbeddingService(&aiConfig.Embedding, exporter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize embedding service")
	}
	embedder := ai.NewRetryEmbedding(embeddingService, instanceProfile.AIMaxRetries)

	searcher := recommend.NewSearcher(embedder, storeInstance, instanceProfile.CandidateWindow, exporter)
	service.Search = searcher
	service.Aggregator = recommend.NewAggregator(searcher, exporter, instanceProfile.MaxConcurrent,
		time.Duration(instanceProfile.RequestTimeout)*time.Second)
	service.Synthesizer = ai.NewSynthesizer(&aiConfig.LLM)
	service.Embedder = embedder

	slog.Info("AI services initialized",
		"embedding_model", aiConfig.Embedding.Model,
		"chat_model", aiConfig.LLM.Model,
		"dimensions", aiConfig.Embedding.Dimensions)
	return service, nil
}

// Start begins serving. It returns once the listener is up; serve errors
// other than a clean close are logged.
func (s *Server) Start(_ context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server stopped", "error", err)
		}
	}()
	slog.Info("server started", "address", address, "mode", s.Profile.Mode)
	return nil
}

// Shutdown drains in-flight requests and closes the store.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown http server", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	slog.Info("server shutdown complete")
}

// requestLogger logs one line per request with the slog default logger.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			slog.Info("http request",
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration", time.Since(start),
				"request_id", c.Response().Header().Get(echo.HeaderXRequestID))
			return nil
		}
	}
}
