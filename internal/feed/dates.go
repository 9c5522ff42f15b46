/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pubDateLayouts is the ordered list of known publication date
// encodings. Layouts without a zone are interpreted as UTC.
var pubDateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 GMT",
	"Mon, 2 Jan 2006 15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// structuralDateRe extracts weekday/day/month-name/year/time fields as
// a last resort, e.g. "Sat, 7 Jun 2025 17:29:03 +1200".
var structuralDateRe = regexp.MustCompile(`^(\w+),\s*(\d+)\s+(\w+)\s+(\d+)\s+(\d+):(\d+):(\d+)`)

var monthsByName = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// ResolvePubDate parses a publication date string into a timezone-aware
// instant, trying each known layout in order and then the structural
// fallback. It reports no-match rather than an error when every
// strategy fails; the caller decides what a dateless item means.
func ResolvePubDate(raw string) (time.Time, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return time.Time{}, false
	}

	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}

	m := structuralDateRe.FindStringSubmatch(cleaned)
	if m == nil {
		return time.Time{}, false
	}

	month, ok := monthsByName[m[3]]
	if !ok {
		month = time.January
	}
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[4])
	hour, _ := strconv.Atoi(m[5])
	minute, _ := strconv.Atoi(m[6])
	second, _ := strconv.Atoi(m[7])

	// No parseable offset at this point; default to UTC.
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC), true
}
