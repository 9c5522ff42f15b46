/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus tracks ingestion run state.
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether the status can no longer change.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// Job is one ingestion run for a username. A retry creates a new Job;
// a Job becomes terminal exactly once and is never reused.
type Job struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"job_id"`
	Username    string    `gorm:"index" json:"username"`
	Status      JobStatus `gorm:"type:varchar(16);index" json:"status"`
	Progress    int       `json:"progress"`
	Error       string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"-"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// EnrichmentStatus tracks the per-entry metadata match outcome.
type EnrichmentStatus string

const (
	EnrichmentNotAttempted EnrichmentStatus = "not_attempted"
	EnrichmentEnriched     EnrichmentStatus = "enriched"
	EnrichmentFailed       EnrichmentStatus = "failed"
)

// DiaryEntry is a normalized diary record owned by its Job.
type DiaryEntry struct {
	ID       string `gorm:"type:uuid;primaryKey"`
	JobID    string `gorm:"type:uuid;index"`
	Position int    // order the entry was parsed from the feed

	Title       string `gorm:"index"`
	Year        *int
	Rating      *float64  // 0.5 to 5.0
	WatchedDate time.Time `gorm:"index"` // UTC calendar date, always present
	ReviewText  string    `gorm:"type:text"`
	IsRewatch   bool

	TMDBID           *int64           `gorm:"index"`
	EnrichmentStatus EnrichmentStatus `gorm:"type:varchar(16)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MovieDetails is a cached metadata catalog record keyed by TMDB id.
// At most one row exists per id; entries reference it read-only.
type MovieDetails struct {
	TMDBID         int64  `gorm:"primaryKey"`
	Title          string `gorm:"index"`
	Year           int
	RuntimeMinutes int
	Genres         StringList `gorm:"type:text"`
	Director       string
	TopCast        StringList `gorm:"type:text"`
	Overview       string `gorm:"type:text"`
	PosterPath     string

	CreatedAt     time.Time
	LastRefreshed time.Time
}

// StringList stores an ordered list of strings as a JSON column.
// JSON arrays preserve element order across the round trip.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	if src == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported StringList source type %T", src)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}
