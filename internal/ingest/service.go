/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/connorswartz/letterboxd-wrapped-lite/internal/enrich"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/events"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/feed"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/models"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/telemetry"
)

// Progress checkpoints. The enrichment loop fills the span between
// parsed and ceiling proportionally; the last entry lands exactly on
// the ceiling.
const (
	progressStarted   = 10
	progressParsed    = 30
	progressCeiling   = 90
	enrichmentSpan    = progressCeiling - progressParsed
	progressCompleted = 100
)

// ErrJobNotFound reports an unknown job id.
var ErrJobNotFound = errors.New("job not found")

// Service drives one ingestion run per job: fetch, parse, enrich,
// persist, finalize. A job is mutated only by its own run goroutine
// and becomes terminal exactly once.
type Service struct {
	db      *gorm.DB
	feed    *feed.Client
	matcher *enrich.Matcher
	bus     *events.Bus
	logger  zerolog.Logger
}

// New constructs the ingestion service.
func New(db *gorm.DB, feedClient *feed.Client, matcher *enrich.Matcher, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:      db,
		feed:    feedClient,
		matcher: matcher,
		bus:     bus,
		logger:  logger.With().Str("component", "ingest").Logger(),
	}
}

// StartJob creates a job in Processing state and launches its run in
// the background. It never blocks past job creation. Re-driving the
// same user always creates a new independent job.
func (s *Service) StartJob(ctx context.Context, username string) (*models.Job, error) {
	job := models.Job{
		ID:       uuid.NewString(),
		Username: username,
		Status:   models.JobProcessing,
		Progress: 0,
	}
	if err := s.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	telemetry.JobsStarted.Inc()
	s.bus.Publish(events.EventJobStarted, events.Payload{
		"job_id":   job.ID,
		"username": username,
	})

	go s.run(job.ID, username)

	return &job, nil
}

// GetJob returns a read-only snapshot of the job.
func (s *Service) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	err := s.db.WithContext(ctx).First(&job, "id = ?", jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// run executes the whole pipeline for one job. No error escapes: feed
// failures and unexpected errors both land in a Failed row, and
// entries persisted before a failure are retained.
func (s *Service) run(jobID, username string) {
	ctx := context.Background()
	logger := s.logger.With().Str("job_id", jobID).Str("username", username).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("ingestion run panicked")
			s.markFailed(ctx, jobID, fmt.Sprintf("processing error: %v", r))
		}
	}()

	s.advanceProgress(ctx, jobID, progressStarted)

	results, err := s.feed.FetchDiary(ctx, username)
	if err != nil {
		var unavailable *feed.UnavailableError
		if errors.As(err, &unavailable) {
			logger.Warn().Str("kind", string(unavailable.Kind)).Msg(unavailable.Message)
			s.markFailed(ctx, jobID, unavailable.Message)
			return
		}
		logger.Error().Err(err).Msg("unexpected fetch failure")
		s.markFailed(ctx, jobID, fmt.Sprintf("processing error: %v", err))
		return
	}

	entries, err := s.persistEntries(ctx, jobID, results)
	if err != nil {
		logger.Error().Err(err).Msg("persisting entries failed")
		s.markFailed(ctx, jobID, fmt.Sprintf("processing error: %v", err))
		return
	}
	s.advanceProgress(ctx, jobID, progressParsed)

	logger.Info().Int("entries", len(entries)).Msg("entries persisted, enriching")

	for i := range entries {
		s.enrichEntry(ctx, &entries[i], logger)
		s.advanceProgress(ctx, jobID, progressParsed+((i+1)*enrichmentSpan)/len(entries))
	}

	if err := s.markCompleted(ctx, jobID); err != nil {
		logger.Error().Err(err).Msg("finalizing job failed")
		s.markFailed(ctx, jobID, fmt.Sprintf("processing error: %v", err))
		return
	}
	logger.Info().Int("entries", len(entries)).Msg("ingestion completed")
}

// persistEntries stores parsed candidates in feed order. Skipped items
// are diagnostics only and never stored.
func (s *Service) persistEntries(ctx context.Context, jobID string, results []feed.ItemResult) ([]models.DiaryEntry, error) {
	entries := make([]models.DiaryEntry, 0, len(results))
	for _, result := range results {
		if !result.Parsed() {
			continue
		}
		candidate := result.Entry
		entries = append(entries, models.DiaryEntry{
			ID:               uuid.NewString(),
			JobID:            jobID,
			Position:         len(entries),
			Title:            candidate.Title,
			Year:             candidate.Year,
			Rating:           candidate.Rating,
			WatchedDate:      candidate.WatchedDate,
			ReviewText:       candidate.ReviewText,
			IsRewatch:        candidate.IsRewatch,
			EnrichmentStatus: models.EnrichmentNotAttempted,
		})
	}
	if len(entries) == 0 {
		return entries, nil
	}
	if err := s.db.WithContext(ctx).Create(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// enrichEntry performs the per-entry catalog match. No-match is a data
// outcome, never a job failure.
func (s *Service) enrichEntry(ctx context.Context, entry *models.DiaryEntry, logger zerolog.Logger) {
	record := s.matcher.Match(ctx, entry.Title, entry.Year)

	updates := map[string]any{"enrichment_status": models.EnrichmentFailed}
	if record != nil {
		updates = map[string]any{
			"enrichment_status": models.EnrichmentEnriched,
			"tmdb_id":           record.TMDBID,
		}
	}

	if err := s.db.WithContext(ctx).
		Model(&models.DiaryEntry{}).
		Where("id = ?", entry.ID).
		Updates(updates).Error; err != nil {
		logger.Warn().Err(err).Str("entry_id", entry.ID).Msg("updating enrichment outcome failed")
		return
	}

	outcome := string(models.EnrichmentFailed)
	if record != nil {
		outcome = string(models.EnrichmentEnriched)
	}
	telemetry.EntriesIngested.WithLabelValues(outcome).Inc()
}

// advanceProgress raises progress to at least value. Progress never
// decreases, even with redundant checkpoint writes.
func (s *Service) advanceProgress(ctx context.Context, jobID string, value int) {
	err := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ? AND progress < ?", jobID, models.JobProcessing, value).
		Update("progress", value).Error
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", jobID).Msg("progress update failed")
		return
	}
	s.bus.Publish(events.EventJobProgress, events.Payload{
		"job_id":   jobID,
		"progress": value,
	})
}

func (s *Service) markCompleted(ctx context.Context, jobID string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobProcessing).
		Updates(map[string]any{
			"status":       models.JobCompleted,
			"progress":     progressCompleted,
			"completed_at": now,
		}).Error
	if err != nil {
		return err
	}
	telemetry.JobsCompleted.Inc()
	s.bus.Publish(events.EventJobCompleted, events.Payload{"job_id": jobID})
	return nil
}

func (s *Service) markFailed(ctx context.Context, jobID, message string) {
	err := s.db.WithContext(ctx).
		Model(&models.Job{}).
		Where("id = ? AND status = ?", jobID, models.JobProcessing).
		Updates(map[string]any{
			"status": models.JobFailed,
			"error":  message,
		}).Error
	if err != nil {
		s.logger.Error().Err(err).Str("job_id", jobID).Msg("marking job failed errored")
	}
	telemetry.JobsFailed.Inc()
	s.bus.Publish(events.EventJobFailed, events.Payload{
		"job_id": jobID,
		"error":  message,
	})
}
