/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string

	// Diary feed source
	FeedBaseURL string // e.g. https://letterboxd.com
	FeedTimeout time.Duration
	UserAgent   string

	// Metadata catalog (TMDB)
	TMDBAPIKey   string // empty degrades enrichment to always-no-match
	TMDBBaseURL  string
	TMDBLanguage string
	TMDBTimeout  time.Duration

	// Redis stats cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StatsCacheTTL time.Duration

	// Optional YAML override for the TMDB genre id map
	GenreMapPath string

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnvAny([]string{"LBWRAPPED_ENV", "LBW_ENV"}, "development"),
		HTTPBind:    getEnvAny([]string{"LBWRAPPED_HTTP_BIND", "LBW_HTTP_BIND"}, "0.0.0.0"),
		HTTPPort:    getEnvIntAny([]string{"LBWRAPPED_HTTP_PORT", "LBW_HTTP_PORT"}, 8080),
		DBBackend:   DatabaseBackend(getEnvAny([]string{"LBWRAPPED_DB_BACKEND", "LBW_DB_BACKEND"}, string(DatabaseSQLite))),
		DBDSN:       getEnvAny([]string{"LBWRAPPED_DB_DSN", "LBW_DB_DSN"}, "./letterboxd_wrapped.db"),

		FeedBaseURL: getEnvAny([]string{"LBWRAPPED_FEED_BASE_URL", "LBW_FEED_BASE_URL"}, "https://letterboxd.com"),
		FeedTimeout: time.Duration(getEnvIntAny([]string{"LBWRAPPED_FEED_TIMEOUT_SECONDS", "LBW_FEED_TIMEOUT_SECONDS"}, 30)) * time.Second,
		UserAgent:   getEnvAny([]string{"LBWRAPPED_USER_AGENT", "LBW_USER_AGENT"}, "Letterboxd-Wrapped-Lite/0.1.0 (Educational Project)"),

		TMDBAPIKey:   getEnvAny([]string{"LBWRAPPED_TMDB_API_KEY", "TMDB_API_KEY"}, ""),
		TMDBBaseURL:  getEnvAny([]string{"LBWRAPPED_TMDB_BASE_URL", "TMDB_BASE_URL"}, "https://api.themoviedb.org/3"),
		TMDBLanguage: getEnvAny([]string{"LBWRAPPED_TMDB_LANGUAGE", "TMDB_LANGUAGE"}, "en-US"),
		TMDBTimeout:  time.Duration(getEnvIntAny([]string{"LBWRAPPED_TMDB_TIMEOUT_SECONDS", "TMDB_TIMEOUT_SECONDS"}, 30)) * time.Second,

		RedisAddr:     getEnvAny([]string{"LBWRAPPED_REDIS_ADDR", "LBW_REDIS_ADDR"}, "localhost:6379"),
		RedisPassword: getEnvAny([]string{"LBWRAPPED_REDIS_PASSWORD", "LBW_REDIS_PASSWORD"}, ""),
		RedisDB:       getEnvIntAny([]string{"LBWRAPPED_REDIS_DB", "LBW_REDIS_DB"}, 0),
		StatsCacheTTL: time.Duration(getEnvIntAny([]string{"LBWRAPPED_STATS_CACHE_TTL_SECONDS", "LBW_STATS_CACHE_TTL_SECONDS"}, 300)) * time.Second,

		GenreMapPath: getEnvAny([]string{"LBWRAPPED_GENRE_MAP_PATH", "LBW_GENRE_MAP_PATH"}, ""),

		TracingEnabled:    getEnvBoolAny([]string{"LBWRAPPED_TRACING_ENABLED", "LBW_TRACING_ENABLED"}, false),
		OTLPEndpoint:      getEnvAny([]string{"LBWRAPPED_OTLP_ENDPOINT", "LBW_OTLP_ENDPOINT"}, "localhost:4317"),
		TracingSampleRate: getEnvFloatAny([]string{"LBWRAPPED_TRACING_SAMPLE_RATE", "LBW_TRACING_SAMPLE_RATE"}, 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("LBWRAPPED_DB_DSN must be provided")
	}

	if cfg.FeedBaseURL == "" {
		return nil, fmt.Errorf("LBWRAPPED_FEED_BASE_URL must not be empty")
	}
	cfg.FeedBaseURL = strings.TrimRight(cfg.FeedBaseURL, "/")
	cfg.TMDBBaseURL = strings.TrimRight(cfg.TMDBBaseURL, "/")

	return cfg, nil
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
