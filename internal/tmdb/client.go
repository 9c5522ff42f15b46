/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrNoCredential indicates the client was built without an API key.
// Callers treat it as a uniform no-match, not a failure.
var ErrNoCredential = errors.New("tmdb api key not configured")

// SearchResult is a single ranked search match.
type SearchResult struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	GenreIDs    []int   `json:"genre_ids"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
}

// ReleaseYear extracts the year from the release date, 0 when absent.
func (r SearchResult) ReleaseYear() int {
	if len(r.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(r.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

type searchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// Genre is a catalog genre with its display name.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CastMember is one credited actor.
type CastMember struct {
	Name  string `json:"name"`
	Order int    `json:"order"`
}

// CrewMember is one credited crew role.
type CrewMember struct {
	Name string `json:"name"`
	Job  string `json:"job"`
}

// Credits holds cast and crew for a movie.
type Credits struct {
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Details is the full movie payload including appended credits.
type Details struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Runtime     int     `json:"runtime"`
	PosterPath  string  `json:"poster_path"`
	Genres      []Genre `json:"genres"`
	Credits     Credits `json:"credits"`
}

// ReleaseYear extracts the year from the release date, 0 when absent.
func (d Details) ReleaseYear() int {
	if len(d.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(d.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Director returns the first crew member credited as Director.
func (d Details) Director() string {
	for _, crew := range d.Credits.Crew {
		if crew.Job == "Director" {
			return crew.Name
		}
	}
	return ""
}

// TopCast returns up to n cast names in billing order.
func (d Details) TopCast(n int) []string {
	names := make([]string, 0, n)
	for _, member := range d.Credits.Cast {
		if len(names) >= n {
			break
		}
		names = append(names, member.Name)
	}
	return names
}

// Searcher defines the catalog operations the enrichment matcher uses.
type Searcher interface {
	Enabled() bool
	SearchMovie(ctx context.Context, query string, year *int) ([]SearchResult, error)
	MovieDetails(ctx context.Context, movieID int64) (*Details, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ Searcher = (*Client)(nil)

// New creates a TMDB client. An empty apiKey is allowed and degrades
// every call to ErrNoCredential.
func New(apiKey, baseURL, language string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "tmdb").Logger(),
	}
}

// Enabled reports whether the client holds an API credential.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// SearchMovie searches the catalog by title and optional year, returning
// results in the catalog's own ranked order.
func (c *Client) SearchMovie(ctx context.Context, query string, year *int) ([]SearchResult, error) {
	if !c.Enabled() {
		return nil, ErrNoCredential
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	endpoint, err := url.Parse(c.baseURL + "/search/movie")
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("include_adult", "false")
	if c.language != "" {
		params.Set("language", c.language)
	}
	if year != nil && *year > 0 {
		params.Set("year", strconv.Itoa(*year))
	}
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// MovieDetails fetches full movie details with credits appended.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*Details, error) {
	if !c.Enabled() {
		return nil, ErrNoCredential
	}
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}

	endpoint, err := url.Parse(fmt.Sprintf("%s/movie/%d", c.baseURL, movieID))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("append_to_response", "credits")
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	var payload Details
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}
