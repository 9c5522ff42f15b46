/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP surface: ingestion driving, job status
// polling, and stats retrieval.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/connorswartz/letterboxd-wrapped-lite/internal/cache"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/ingest"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/models"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/stats"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/version"
)

// API exposes HTTP handlers.
type API struct {
	ingest *ingest.Service
	stats  *stats.Service
	cache  *cache.Cache
	logger zerolog.Logger
}

// New creates the API router wrapper.
func New(ingestSvc *ingest.Service, statsSvc *stats.Service, statsCache *cache.Cache, logger zerolog.Logger) *API {
	return &API{
		ingest: ingestSvc,
		stats:  statsSvc,
		cache:  statsCache,
		logger: logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts all handlers.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		r.Route("/ingest", func(r chi.Router) {
			r.Post("/rss/{username}", a.handleIngestStart)
			r.Get("/status/{jobID}", a.handleIngestStatus)
		})

		r.Get("/stats/{jobID}", a.handleStats)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

// handleIngestStart accepts a username, creates a job, and returns
// immediately with 202. The pipeline runs in the background.
func (a *API) handleIngestStart(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if !validUsername(username) {
		writeError(w, http.StatusBadRequest, "invalid_username")
		return
	}

	job, err := a.ingest.StartJob(r.Context(), username)
	if err != nil {
		a.logger.Error().Err(err).Str("username", username).Msg("starting ingestion failed")
		writeError(w, http.StatusInternalServerError, "job_create_failed")
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

func (a *API) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := a.ingest.GetJob(r.Context(), jobID)
	if errors.Is(err, ingest.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("job_id", jobID).Msg("loading job failed")
		writeError(w, http.StatusInternalServerError, "job_lookup_failed")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// handleStats serves the aggregate summary for a completed job,
// preferring the cached copy.
func (a *API) handleStats(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	job, err := a.ingest.GetJob(r.Context(), jobID)
	if errors.Is(err, ingest.ErrJobNotFound) {
		writeError(w, http.StatusNotFound, "job_not_found")
		return
	}
	if err != nil {
		a.logger.Error().Err(err).Str("job_id", jobID).Msg("loading job failed")
		writeError(w, http.StatusInternalServerError, "job_lookup_failed")
		return
	}
	if job.Status != models.JobCompleted {
		writeError(w, http.StatusBadRequest, "job_not_completed")
		return
	}

	if summary, ok := a.cache.GetStatsSummary(r.Context(), jobID); ok {
		writeJSON(w, http.StatusOK, summary)
		return
	}

	summary, err := a.stats.Compute(r.Context(), jobID)
	if err != nil {
		a.logger.Error().Err(err).Str("job_id", jobID).Msg("computing stats failed")
		writeError(w, http.StatusInternalServerError, "stats_failed")
		return
	}

	if err := a.cache.SetStatsSummary(r.Context(), summary); err != nil {
		a.logger.Debug().Err(err).Str("job_id", jobID).Msg("caching stats failed")
	}

	writeJSON(w, http.StatusOK, summary)
}

// validUsername accepts Letterboxd-style usernames: letters and digits
// plus dashes and underscores, never empty.
func validUsername(username string) bool {
	if username == "" {
		return false
	}
	stripped := strings.NewReplacer("-", "", "_", "").Replace(username)
	if stripped == "" {
		return false
	}
	for _, r := range stripped {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
