/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Client fetches a user's public diary feed.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient constructs a feed client. The timeout bounds the whole
// fetch, so a stalled feed source cannot hang the pipeline.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("component", "feed").Logger(),
	}
}

// FetchDiary downloads and parses the diary feed for username.
// Whole-feed failures come back as *UnavailableError; individual bad
// items are reported as skipped results, never as errors.
func (c *Client) FetchDiary(ctx context.Context, username string) ([]ItemResult, error) {
	feedURL := fmt.Sprintf("%s/%s/rss/", c.baseURL, username)

	c.logger.Info().Str("username", username).Msg("fetching diary feed")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &UnavailableError{Kind: KindHTTP, Message: fmt.Sprintf("build request: %v", err)}
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, timeoutErr()
		}
		return nil, &UnavailableError{Kind: KindHTTP, Message: fmt.Sprintf("fetch feed: %v", err)}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, notFoundErr(username)
	case resp.StatusCode == http.StatusForbidden:
		return nil, privateErr(username)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, httpErr(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, timeoutErr()
		}
		return nil, &UnavailableError{Kind: KindHTTP, Message: fmt.Sprintf("read feed body: %v", err)}
	}

	results, err := Parse(body, c.logger)
	if err != nil {
		return nil, err
	}

	parsed := 0
	for _, r := range results {
		if r.Parsed() {
			parsed++
		}
	}
	c.logger.Info().
		Str("username", username).
		Int("items", len(results)).
		Int("parsed", parsed).
		Msg("diary feed parsed")

	return results, nil
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded)
}
