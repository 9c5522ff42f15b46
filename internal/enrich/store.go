/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package enrich

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/connorswartz/letterboxd-wrapped-lite/internal/models"
)

// Store deduplicates movie metadata records by TMDB id. Records are
// shared read-only across entries and jobs; only the builder path
// writes them.
type Store struct {
	db     *gorm.DB
	logger zerolog.Logger

	mu       sync.Mutex
	building map[int64]*sync.Mutex
}

// NewStore constructs a metadata store.
func NewStore(db *gorm.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:       db,
		logger:   logger.With().Str("component", "metadata-store").Logger(),
		building: make(map[int64]*sync.Mutex),
	}
}

// GetOrCreate returns the cached record for tmdbID, invoking build at
// most once per id when no record exists yet. A concurrent build that
// loses the insert race reads back the stored row, so readers never
// observe a partially populated record.
func (s *Store) GetOrCreate(ctx context.Context, tmdbID int64, build func(ctx context.Context) (*models.MovieDetails, error)) (*models.MovieDetails, error) {
	if record, err := s.lookup(ctx, tmdbID); err != nil {
		return nil, err
	} else if record != nil {
		return record, nil
	}

	lock := s.idLock(tmdbID)
	lock.Lock()
	defer lock.Unlock()

	// Another goroutine may have built while we waited.
	if record, err := s.lookup(ctx, tmdbID); err != nil {
		return nil, err
	} else if record != nil {
		return record, nil
	}

	record, err := build(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	record.TMDBID = tmdbID
	record.CreatedAt = now
	record.LastRefreshed = now

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		// A parallel process may have inserted the same id; last write
		// is acceptable, reuse whatever is stored.
		if stored, lookupErr := s.lookup(ctx, tmdbID); lookupErr == nil && stored != nil {
			return stored, nil
		}
		return nil, err
	}

	s.logger.Debug().Int64("tmdb_id", tmdbID).Str("title", record.Title).Msg("metadata record cached")
	return record, nil
}

// Lookup returns the record for tmdbID or nil when absent.
func (s *Store) Lookup(ctx context.Context, tmdbID int64) (*models.MovieDetails, error) {
	return s.lookup(ctx, tmdbID)
}

func (s *Store) lookup(ctx context.Context, tmdbID int64) (*models.MovieDetails, error) {
	var record models.MovieDetails
	err := s.db.WithContext(ctx).First(&record, "tmdb_id = ?", tmdbID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) idLock(tmdbID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.building[tmdbID]
	if !ok {
		lock = &sync.Mutex{}
		s.building[tmdbID] = lock
	}
	return lock
}
