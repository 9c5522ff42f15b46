/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFetchDiaryStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantKind UnavailableKind
		wantMsg  string
	}{
		{"not found", http.StatusNotFound, KindNotFound, `user "testuser" not found`},
		{"private diary", http.StatusForbidden, KindPrivate, `user "testuser" has private diary`},
		{"server error", http.StatusInternalServerError, KindHTTP, "HTTP error 500"},
		{"rate limited", http.StatusTooManyRequests, KindHTTP, "HTTP error 429"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			client := NewClient(srv.URL, "test-agent", time.Second, zerolog.Nop())
			_, err := client.FetchDiary(context.Background(), "testuser")

			var unavailable *UnavailableError
			if !errors.As(err, &unavailable) {
				t.Fatalf("error = %v, want UnavailableError", err)
			}
			if unavailable.Kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", unavailable.Kind, tt.wantKind)
			}
			if unavailable.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", unavailable.Message, tt.wantMsg)
			}
		})
	}
}

func TestFetchDiarySuccess(t *testing.T) {
	var gotPath, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(feedFixture))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-agent", time.Second, zerolog.Nop())
	results, err := client.FetchDiary(context.Background(), "testuser")
	if err != nil {
		t.Fatalf("FetchDiary() error = %v", err)
	}

	if gotPath != "/testuser/rss/" {
		t.Errorf("path = %q, want /testuser/rss/", gotPath)
	}
	if gotAgent != "test-agent" {
		t.Errorf("user agent = %q, want test-agent", gotAgent)
	}
	if len(results) != 6 {
		t.Errorf("got %d results, want 6", len(results))
	}
}

func TestFetchDiaryTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-agent", 20*time.Millisecond, zerolog.Nop())
	_, err := client.FetchDiary(context.Background(), "testuser")

	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %v, want UnavailableError", err)
	}
	if unavailable.Kind != KindTimeout {
		t.Errorf("kind = %q, want %q", unavailable.Kind, KindTimeout)
	}
	if unavailable.Message != "request timed out - feed source may be slow" {
		t.Errorf("message = %q", unavailable.Message)
	}
}

func TestFetchDiaryMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is not xml at all"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-agent", time.Second, zerolog.Nop())
	_, err := client.FetchDiary(context.Background(), "testuser")

	var unavailable *UnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("error = %v, want UnavailableError", err)
	}
	if unavailable.Kind != KindMalformed {
		t.Errorf("kind = %q, want %q", unavailable.Kind, KindMalformed)
	}
}
