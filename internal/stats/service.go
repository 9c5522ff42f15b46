/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package stats

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/connorswartz/letterboxd-wrapped-lite/internal/models"
)

const topN = 5

// Summary is the aggregate view over one completed job's entries.
// Every field is safe on empty input; division by zero never occurs.
type Summary struct {
	JobID          string         `json:"job_id"`
	TotalFilms     int            `json:"total_films"`
	EnrichedFilms  int            `json:"enriched_films"`
	TotalHours     float64        `json:"total_hours"`
	AverageRating  *float64       `json:"average_rating"`
	RatingCounts   map[string]int `json:"rating_counts"`
	TopGenres      []string       `json:"top_genres"`
	TopDirectors   []string       `json:"top_directors"`
	TopActors      []string       `json:"top_actors"`
	TopYears       []int          `json:"top_years"`
	EnrichmentRate float64        `json:"enrichment_rate"`
	FirstWatch     string         `json:"first_watch,omitempty"`
	LastWatch      string         `json:"last_watch,omitempty"`
}

// Service computes summaries from persisted entries and their catalog
// records.
type Service struct {
	db     *gorm.DB
	logger zerolog.Logger
}

// New constructs the stats service.
func New(db *gorm.DB, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.With().Str("component", "stats").Logger(),
	}
}

// Compute aggregates all entries belonging to the job. Rating averages
// cover rated entries only; catalog-derived stats cover enriched
// entries only.
func (s *Service) Compute(ctx context.Context, jobID string) (*Summary, error) {
	var entries []models.DiaryEntry
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("position ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	details, err := s.loadDetails(ctx, entries)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		JobID:        jobID,
		TotalFilms:   len(entries),
		RatingCounts: map[string]int{},
		TopGenres:    []string{},
		TopDirectors: []string{},
		TopActors:    []string{},
		TopYears:     []int{},
	}

	genres := newCounter()
	directors := newCounter()
	actors := newCounter()
	years := newCounter()

	var ratingSum float64
	var ratedCount int
	var runtimeMinutes int
	var firstWatch, lastWatch time.Time

	for _, entry := range entries {
		if entry.Rating != nil {
			ratingSum += *entry.Rating
			ratedCount++
			summary.RatingCounts[formatRating(*entry.Rating)]++
		}

		if firstWatch.IsZero() || entry.WatchedDate.Before(firstWatch) {
			firstWatch = entry.WatchedDate
		}
		if lastWatch.IsZero() || entry.WatchedDate.After(lastWatch) {
			lastWatch = entry.WatchedDate
		}

		if entry.Year != nil {
			years.Add(fmt.Sprintf("%d", *entry.Year))
		}

		if entry.EnrichmentStatus != models.EnrichmentEnriched || entry.TMDBID == nil {
			continue
		}
		record, ok := details[*entry.TMDBID]
		if !ok {
			s.logger.Warn().Int64("tmdb_id", *entry.TMDBID).Msg("enriched entry missing catalog record")
			continue
		}

		summary.EnrichedFilms++
		runtimeMinutes += record.RuntimeMinutes
		for _, genre := range record.Genres {
			genres.Add(genre)
		}
		if record.Director != "" {
			directors.Add(record.Director)
		}
		for _, actor := range record.TopCast {
			actors.Add(actor)
		}
	}

	if ratedCount > 0 {
		avg := math.Round(ratingSum/float64(ratedCount)*100) / 100
		summary.AverageRating = &avg
	}
	if len(entries) > 0 {
		summary.EnrichmentRate = math.Round(float64(summary.EnrichedFilms)/float64(len(entries))*1000) / 1000
		summary.FirstWatch = firstWatch.Format("2006-01-02")
		summary.LastWatch = lastWatch.Format("2006-01-02")
	}
	summary.TotalHours = math.Round(float64(runtimeMinutes)/60*10) / 10

	summary.TopGenres = genres.Top(topN)
	summary.TopDirectors = directors.Top(topN)
	summary.TopActors = actors.Top(topN)
	for _, year := range years.Top(topN) {
		var parsed int
		if _, err := fmt.Sscanf(year, "%d", &parsed); err == nil {
			summary.TopYears = append(summary.TopYears, parsed)
		}
	}

	return summary, nil
}

// loadDetails fetches the catalog records the entries reference.
func (s *Service) loadDetails(ctx context.Context, entries []models.DiaryEntry) (map[int64]models.MovieDetails, error) {
	ids := make([]int64, 0, len(entries))
	seen := make(map[int64]struct{}, len(entries))
	for _, entry := range entries {
		if entry.TMDBID == nil {
			continue
		}
		if _, ok := seen[*entry.TMDBID]; ok {
			continue
		}
		seen[*entry.TMDBID] = struct{}{}
		ids = append(ids, *entry.TMDBID)
	}

	details := make(map[int64]models.MovieDetails, len(ids))
	if len(ids) == 0 {
		return details, nil
	}

	var records []models.MovieDetails
	err := s.db.WithContext(ctx).
		Where("tmdb_id IN ?", ids).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load catalog records: %w", err)
	}
	for _, record := range records {
		details[record.TMDBID] = record
	}
	return details, nil
}

// formatRating renders a half-star rating as its canonical key, for
// example "3.5".
func formatRating(rating float64) string {
	return fmt.Sprintf("%.1f", rating)
}

// counter tallies occurrences while remembering first-seen order so
// ties rank deterministically.
type counter struct {
	counts map[string]int
	order  map[string]int
	next   int
}

func newCounter() *counter {
	return &counter{
		counts: map[string]int{},
		order:  map[string]int{},
	}
}

func (c *counter) Add(key string) {
	if _, ok := c.counts[key]; !ok {
		c.order[key] = c.next
		c.next++
	}
	c.counts[key]++
}

// Top returns up to n keys sorted by descending count, ties broken by
// first occurrence.
func (c *counter) Top(n int) []string {
	keys := make([]string, 0, len(c.counts))
	for key := range c.counts {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if c.counts[keys[i]] != c.counts[keys[j]] {
			return c.counts[keys[i]] > c.counts[keys[j]]
		}
		return c.order[keys[i]] < c.order[keys[j]]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
