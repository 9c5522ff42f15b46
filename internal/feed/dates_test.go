/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import (
	"testing"
	"time"
)

func TestResolvePubDate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
		ok   bool
	}{
		{
			name: "numeric offset",
			raw:  "Sat, 7 Jun 2025 17:29:03 +1200",
			want: time.Date(2025, time.June, 7, 17, 29, 3, 0, time.FixedZone("", 12*3600)),
			ok:   true,
		},
		{
			name: "gmt suffix",
			raw:  "Fri, 6 Jun 2025 09:00:00 GMT",
			want: time.Date(2025, time.June, 6, 9, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "no zone defaults to utc",
			raw:  "Fri, 6 Jun 2025 09:00:00",
			want: time.Date(2025, time.June, 6, 9, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "iso 8601",
			raw:  "2025-06-05T10:00:00Z",
			want: time.Date(2025, time.June, 5, 10, 0, 0, 0, time.UTC),
			ok:   true,
		},
		{
			name: "structural fallback with zone name",
			raw:  "Sat, 7 Jun 2025 17:29:03 NZST",
			want: time.Date(2025, time.June, 7, 17, 29, 3, 0, time.UTC),
			ok:   true,
		},
		{
			name: "unparseable",
			raw:  "sometime last week",
			ok:   false,
		},
		{
			name: "empty",
			raw:  "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolvePubDate(tt.raw)
			if ok != tt.ok {
				t.Fatalf("ResolvePubDate(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if !ok {
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ResolvePubDate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
