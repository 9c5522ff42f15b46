/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package enrich

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/connorswartz/letterboxd-wrapped-lite/internal/models"
	"github.com/connorswartz/letterboxd-wrapped-lite/internal/tmdb"
)

const topCastSize = 5

// Matcher reconciles diary entries against the metadata catalog.
// Failures are entry-local: every failure path reports no-match and
// never aborts a batch.
type Matcher struct {
	catalog tmdb.Searcher
	store   *Store
	genres  *tmdb.GenreMap
	logger  zerolog.Logger
}

// NewMatcher constructs an enrichment matcher.
func NewMatcher(catalog tmdb.Searcher, store *Store, genres *tmdb.GenreMap, logger zerolog.Logger) *Matcher {
	return &Matcher{
		catalog: catalog,
		store:   store,
		genres:  genres,
		logger:  logger.With().Str("component", "matcher").Logger(),
	}
}

// Match looks up the best catalog candidate for a title and optional
// year. It returns the shared metadata record, or nil for no-match.
// One search round-trip is issued per call; the full-detail fetch only
// happens inside the record builder, so an already-cached id costs no
// further network calls.
func (m *Matcher) Match(ctx context.Context, title string, year *int) *models.MovieDetails {
	if !m.catalog.Enabled() {
		return nil
	}

	results, err := m.catalog.SearchMovie(ctx, title, year)
	if err != nil {
		if !errors.Is(err, tmdb.ErrNoCredential) {
			m.logger.Warn().Err(err).Str("title", title).Msg("catalog search failed")
		}
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	// First result in the catalog's own ranking wins.
	best := results[0]

	record, err := m.store.GetOrCreate(ctx, best.ID, func(ctx context.Context) (*models.MovieDetails, error) {
		return m.buildRecord(ctx, best), nil
	})
	if err != nil {
		m.logger.Warn().Err(err).Int64("tmdb_id", best.ID).Msg("metadata store failed")
		return nil
	}
	return record
}

// buildRecord constructs the cacheable record, preferring the full
// details payload. When the details call fails the record is built from
// the search result alone; the match still counts.
func (m *Matcher) buildRecord(ctx context.Context, result tmdb.SearchResult) *models.MovieDetails {
	details, err := m.catalog.MovieDetails(ctx, result.ID)
	if err != nil {
		m.logger.Debug().Err(err).Int64("tmdb_id", result.ID).Msg("details fetch failed, using search result")
		return &models.MovieDetails{
			Title:      result.Title,
			Year:       result.ReleaseYear(),
			Genres:     models.StringList(m.genres.Names(result.GenreIDs)),
			Overview:   result.Overview,
			PosterPath: result.PosterPath,
		}
	}

	genres := make(models.StringList, 0, len(details.Genres))
	for _, g := range details.Genres {
		genres = append(genres, g.Name)
	}

	return &models.MovieDetails{
		Title:          details.Title,
		Year:           details.ReleaseYear(),
		RuntimeMinutes: details.Runtime,
		Genres:         genres,
		Director:       details.Director(),
		TopCast:        models.StringList(details.TopCast(topCastSize)),
		Overview:       details.Overview,
		PosterPath:     details.PosterPath,
	}
}
