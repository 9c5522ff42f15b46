/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires configuration, storage, services, and the HTTP
// router into one runnable unit.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/connorswartz/letterboxd-wrapped-lite/internal/api"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/cache"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/config"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/db"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/enrich"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/events"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/feed"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/ingest"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/stats"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/telemetry"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/tmdb"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db     *gorm.DB
	cache  *cache.Cache
	bus    *events.Bus
	ingest *ingest.Service
	stats  *stats.Service
	api    *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.TracingMiddleware("letterboxd-wrapped-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisAddr = s.cfg.RedisAddr
	cacheCfg.RedisPassword = s.cfg.RedisPassword
	cacheCfg.RedisDB = s.cfg.RedisDB
	cacheCfg.StatsTTL = s.cfg.StatsCacheTTL
	statsCache, err := cache.New(cacheCfg, s.logger)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	s.cache = statsCache
	s.DeferClose(func() error { return s.cache.Close() })

	feedClient := feed.NewClient(s.cfg.FeedBaseURL, s.cfg.UserAgent, s.cfg.FeedTimeout, s.logger)

	catalog := tmdb.New(s.cfg.TMDBAPIKey, s.cfg.TMDBBaseURL, s.cfg.TMDBLanguage, s.cfg.TMDBTimeout, s.logger)
	if !catalog.Enabled() {
		s.logger.Warn().Msg("TMDB API key not configured, entries will not be enriched")
	}

	genres, err := tmdb.LoadGenreMap(s.cfg.GenreMapPath)
	if err != nil {
		return fmt.Errorf("load genre map: %w", err)
	}

	store := enrich.NewStore(database, s.logger)
	matcher := enrich.NewMatcher(catalog, store, genres, s.logger)

	s.ingest = ingest.New(database, feedClient, matcher, s.bus, s.logger)
	s.stats = stats.New(database, s.logger)
	s.api = api.New(s.ingest, s.stats, s.cache, s.logger)

	return nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Handle("/metrics", telemetry.Handler())

	s.api.Routes(s.router)
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.runJobEventListener(ctx)
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel != nil {
		s.bgCancel()
	}
	s.bgWG.Wait()
}

// runJobEventListener logs job lifecycle transitions and invalidates
// stale cached summaries when a job finishes.
func (s *Server) runJobEventListener(ctx context.Context) {
	started := s.bus.Subscribe(events.EventJobStarted)
	completed := s.bus.Subscribe(events.EventJobCompleted)
	failed := s.bus.Subscribe(events.EventJobFailed)

	defer func() {
		s.bus.Unsubscribe(events.EventJobStarted, started)
		s.bus.Unsubscribe(events.EventJobCompleted, completed)
		s.bus.Unsubscribe(events.EventJobFailed, failed)
	}()

	s.logger.Info().Msg("job event listener started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("job event listener stopped")
			return

		case payload := <-started:
			s.logger.Info().
				Str("job_id", stringField(payload, "job_id")).
				Str("username", stringField(payload, "username")).
				Msg("ingestion job started")

		case payload := <-completed:
			jobID := stringField(payload, "job_id")
			s.logger.Info().Str("job_id", jobID).Msg("ingestion job completed")
			if err := s.cache.InvalidateStatsSummary(ctx, jobID); err != nil {
				s.logger.Debug().Err(err).Str("job_id", jobID).Msg("cache invalidation failed")
			}

		case payload := <-failed:
			s.logger.Warn().
				Str("job_id", stringField(payload, "job_id")).
				Str("error", stringField(payload, "error")).
				Msg("ingestion job failed")
		}
	}
}

func stringField(payload events.Payload, key string) string {
	value, _ := payload[key].(string)
	return value
}
