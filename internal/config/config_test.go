/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Environment != "development" {
		t.Errorf("environment = %q, want development", cfg.Environment)
	}
	if cfg.HTTPPort != 8080 {
		t.Errorf("http port = %d, want 8080", cfg.HTTPPort)
	}
	if cfg.DBBackend != DatabaseSQLite {
		t.Errorf("db backend = %q, want sqlite", cfg.DBBackend)
	}
	if cfg.FeedBaseURL != "https://letterboxd.com" {
		t.Errorf("feed base url = %q", cfg.FeedBaseURL)
	}
	if cfg.FeedTimeout != 30*time.Second {
		t.Errorf("feed timeout = %v, want 30s", cfg.FeedTimeout)
	}
	if cfg.TMDBBaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("tmdb base url = %q", cfg.TMDBBaseURL)
	}
	if cfg.StatsCacheTTL != 5*time.Minute {
		t.Errorf("stats cache ttl = %v, want 5m", cfg.StatsCacheTTL)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LBWRAPPED_HTTP_PORT", "9090")
	t.Setenv("LBW_ENV", "production")
	t.Setenv("LBWRAPPED_FEED_BASE_URL", "https://example.test/")
	t.Setenv("LBWRAPPED_TRACING_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HTTPPort != 9090 {
		t.Errorf("http port = %d, want 9090", cfg.HTTPPort)
	}
	if cfg.Environment != "production" {
		t.Errorf("environment = %q, want production", cfg.Environment)
	}
	if cfg.FeedBaseURL != "https://example.test" {
		t.Errorf("feed base url = %q, want trailing slash trimmed", cfg.FeedBaseURL)
	}
	if !cfg.TracingEnabled {
		t.Error("tracing enabled = false, want true")
	}
}

func TestLoadPrimaryEnvWins(t *testing.T) {
	t.Setenv("LBWRAPPED_ENV", "staging")
	t.Setenv("LBW_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("environment = %q, want staging", cfg.Environment)
	}
}

func TestLoadInvalidBackend(t *testing.T) {
	t.Setenv("LBWRAPPED_DB_BACKEND", "oracle")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unsupported backend")
	}
}
