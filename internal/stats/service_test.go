/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/connorswartz/letterboxd-wrapped-lite/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Job{}, &models.DiaryEntry{}, &models.MovieDetails{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func ratingPtr(v float64) *float64 { return &v }
func idPtr(v int64) *int64         { return &v }
func yearPtr(v int) *int           { return &v }

func seedEntry(t *testing.T, db *gorm.DB, jobID string, position int, entry models.DiaryEntry) {
	t.Helper()
	entry.ID = uuid.NewString()
	entry.JobID = jobID
	entry.Position = position
	if entry.WatchedDate.IsZero() {
		entry.WatchedDate = time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
	}
	if entry.EnrichmentStatus == "" {
		entry.EnrichmentStatus = models.EnrichmentNotAttempted
	}
	if err := db.Create(&entry).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
}

func seedDetails(t *testing.T, db *gorm.DB, record models.MovieDetails) {
	t.Helper()
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("seed details: %v", err)
	}
}

func TestComputeAverageSkipsUnrated(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, zerolog.Nop())
	jobID := uuid.NewString()

	seedEntry(t, db, jobID, 0, models.DiaryEntry{Title: "A", Rating: ratingPtr(3.0)})
	seedEntry(t, db, jobID, 1, models.DiaryEntry{Title: "B", Rating: ratingPtr(4.0)})
	seedEntry(t, db, jobID, 2, models.DiaryEntry{Title: "C"})

	summary, err := svc.Compute(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if summary.TotalFilms != 3 {
		t.Errorf("total films = %d, want 3", summary.TotalFilms)
	}
	if summary.AverageRating == nil || *summary.AverageRating != 3.5 {
		t.Errorf("average rating = %v, want 3.5 over the two rated entries", summary.AverageRating)
	}
	if summary.RatingCounts["3.0"] != 1 || summary.RatingCounts["4.0"] != 1 {
		t.Errorf("rating counts = %v", summary.RatingCounts)
	}
}

func TestComputeEnrichmentRate(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, zerolog.Nop())
	jobID := uuid.NewString()

	seedDetails(t, db, models.MovieDetails{TMDBID: 1, Title: "A", Year: 2019, RuntimeMinutes: 120})
	seedEntry(t, db, jobID, 0, models.DiaryEntry{Title: "A", TMDBID: idPtr(1), EnrichmentStatus: models.EnrichmentEnriched})
	seedEntry(t, db, jobID, 1, models.DiaryEntry{Title: "B", EnrichmentStatus: models.EnrichmentFailed})
	seedEntry(t, db, jobID, 2, models.DiaryEntry{Title: "C", EnrichmentStatus: models.EnrichmentFailed})

	summary, err := svc.Compute(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if summary.EnrichedFilms != 1 {
		t.Errorf("enriched films = %d, want 1", summary.EnrichedFilms)
	}
	if summary.EnrichmentRate != 0.333 {
		t.Errorf("enrichment rate = %v, want 0.333", summary.EnrichmentRate)
	}
	if summary.TotalHours != 2.0 {
		t.Errorf("total hours = %v, want 2.0", summary.TotalHours)
	}
}

func TestComputeEmptyJob(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, zerolog.Nop())

	summary, err := svc.Compute(context.Background(), uuid.NewString())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if summary.TotalFilms != 0 {
		t.Errorf("total films = %d, want 0", summary.TotalFilms)
	}
	if summary.AverageRating != nil {
		t.Errorf("average rating = %v, want nil", *summary.AverageRating)
	}
	if summary.EnrichmentRate != 0 {
		t.Errorf("enrichment rate = %v, want 0", summary.EnrichmentRate)
	}
	if summary.TotalHours != 0 {
		t.Errorf("total hours = %v, want 0", summary.TotalHours)
	}
	if len(summary.TopGenres) != 0 || len(summary.TopYears) != 0 {
		t.Errorf("top lists not empty: %v %v", summary.TopGenres, summary.TopYears)
	}
	if summary.FirstWatch != "" || summary.LastWatch != "" {
		t.Errorf("watch range = %q..%q, want empty", summary.FirstWatch, summary.LastWatch)
	}
}

func TestComputeTopListsAndWatchRange(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, zerolog.Nop())
	jobID := uuid.NewString()

	seedDetails(t, db, models.MovieDetails{
		TMDBID: 1, Title: "A", Year: 2019, RuntimeMinutes: 100,
		Genres:   models.StringList{"Thriller", "Drama"},
		Director: "Bong Joon Ho",
		TopCast:  models.StringList{"Song Kang-ho"},
	})
	seedDetails(t, db, models.MovieDetails{
		TMDBID: 2, Title: "B", Year: 2003, RuntimeMinutes: 110,
		Genres:   models.StringList{"Thriller"},
		Director: "Park Chan-wook",
		TopCast:  models.StringList{"Choi Min-sik"},
	})
	seedDetails(t, db, models.MovieDetails{
		TMDBID: 3, Title: "C", Year: 2019, RuntimeMinutes: 90,
		Genres:   models.StringList{"Drama"},
		Director: "Bong Joon Ho",
		TopCast:  models.StringList{"Song Kang-ho", "Bae Doona"},
	})

	seedEntry(t, db, jobID, 0, models.DiaryEntry{
		Title: "A", Year: yearPtr(2019), TMDBID: idPtr(1), EnrichmentStatus: models.EnrichmentEnriched,
		WatchedDate: time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC),
	})
	seedEntry(t, db, jobID, 1, models.DiaryEntry{
		Title: "B", Year: yearPtr(2003), TMDBID: idPtr(2), EnrichmentStatus: models.EnrichmentEnriched,
		WatchedDate: time.Date(2025, time.June, 7, 0, 0, 0, 0, time.UTC),
	})
	seedEntry(t, db, jobID, 2, models.DiaryEntry{
		Title: "C", Year: yearPtr(2019), TMDBID: idPtr(3), EnrichmentStatus: models.EnrichmentEnriched,
		WatchedDate: time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
	})

	summary, err := svc.Compute(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	// Thriller and Drama both appear twice; Thriller was seen first.
	if len(summary.TopGenres) != 2 || summary.TopGenres[0] != "Thriller" || summary.TopGenres[1] != "Drama" {
		t.Errorf("top genres = %v, want [Thriller Drama]", summary.TopGenres)
	}
	if len(summary.TopDirectors) == 0 || summary.TopDirectors[0] != "Bong Joon Ho" {
		t.Errorf("top directors = %v", summary.TopDirectors)
	}
	if len(summary.TopActors) == 0 || summary.TopActors[0] != "Song Kang-ho" {
		t.Errorf("top actors = %v", summary.TopActors)
	}
	if len(summary.TopYears) == 0 || summary.TopYears[0] != 2019 {
		t.Errorf("top years = %v, want 2019 first", summary.TopYears)
	}
	if summary.TotalHours != 5.0 {
		t.Errorf("total hours = %v, want 5.0", summary.TotalHours)
	}
	if summary.FirstWatch != "2025-01-03" || summary.LastWatch != "2025-06-07" {
		t.Errorf("watch range = %q..%q", summary.FirstWatch, summary.LastWatch)
	}
}

func TestComputeYearsFromAllEntries(t *testing.T) {
	db := newTestDB(t)
	svc := New(db, zerolog.Nop())
	jobID := uuid.NewString()

	// Catalog says 2018, diary says 2019: the diary year counts.
	seedDetails(t, db, models.MovieDetails{TMDBID: 1, Title: "A", Year: 2018, RuntimeMinutes: 100})
	seedEntry(t, db, jobID, 0, models.DiaryEntry{
		Title: "A", Year: yearPtr(2019), TMDBID: idPtr(1), EnrichmentStatus: models.EnrichmentEnriched,
	})
	seedEntry(t, db, jobID, 1, models.DiaryEntry{
		Title: "B", Year: yearPtr(1999), EnrichmentStatus: models.EnrichmentFailed,
	})
	seedEntry(t, db, jobID, 2, models.DiaryEntry{
		Title: "C", EnrichmentStatus: models.EnrichmentNotAttempted,
	})

	summary, err := svc.Compute(context.Background(), jobID)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	if len(summary.TopYears) != 2 {
		t.Fatalf("top years = %v, want two entries", summary.TopYears)
	}
	if summary.TopYears[0] != 2019 || summary.TopYears[1] != 1999 {
		t.Errorf("top years = %v, want [2019 1999]", summary.TopYears)
	}
}

func TestCounterTopCapAndTieBreak(t *testing.T) {
	c := newCounter()
	for _, key := range []string{"a", "b", "c", "d", "e", "f"} {
		c.Add(key)
	}
	c.Add("f")

	top := c.Top(5)
	if len(top) != 5 {
		t.Fatalf("len = %d, want 5", len(top))
	}
	if top[0] != "f" {
		t.Errorf("top[0] = %q, want f", top[0])
	}
	// Remaining all count 1: first-seen order wins.
	want := []string{"a", "b", "c", "d"}
	for i, key := range want {
		if top[i+1] != key {
			t.Errorf("top[%d] = %q, want %q", i+1, top[i+1], key)
		}
	}
}
