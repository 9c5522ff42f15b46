/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package feed

import (
	"bytes"
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// minReviewLength is the shortest cleaned description kept as a review.
// Anything at or below this is rating residue, not a review.
const minReviewLength = 10

// Entry is a normalized diary entry candidate parsed from one feed item.
type Entry struct {
	Title       string
	Year        *int
	WatchedDate time.Time // UTC calendar date
	Rating      *float64
	IsRewatch   bool
	ReviewText  string // empty means no review
}

// ItemResult is the per-item parse outcome: either a parsed entry or a
// skip reason. Batch parsing never unwinds on a single bad item.
type ItemResult struct {
	Entry      *Entry
	SkipReason string
}

// Parsed reports whether the item yielded an entry.
func (r ItemResult) Parsed() bool {
	return r.Entry != nil
}

type rssDocument struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`

	// Letterboxd publishes structured data in namespaced elements.
	FilmTitle    string `xml:"https://letterboxd.com filmTitle"`
	FilmYear     string `xml:"https://letterboxd.com filmYear"`
	WatchedDate  string `xml:"https://letterboxd.com watchedDate"`
	MemberRating string `xml:"https://letterboxd.com memberRating"`
	Rewatch      string `xml:"https://letterboxd.com rewatch"`
}

var (
	titleCommaYearRe = regexp.MustCompile(`^(.+),\s*(\d{4})$`)
	titleParenYearRe = regexp.MustCompile(`^(.+)\s*\((\d{4})\)$`)
	starRunRe        = regexp.MustCompile(`★+`)
	htmlTagRe        = regexp.MustCompile(`<[^>]+>`)
	ratingGlyphRe    = regexp.MustCompile(`★+½?`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// Parse decodes raw feed markup into per-item results. A structurally
// invalid document fails the whole parse with KindMalformed; malformed
// individual items only produce skipped results.
func Parse(doc []byte, logger zerolog.Logger) ([]ItemResult, error) {
	var rss rssDocument
	decoder := xml.NewDecoder(bytes.NewReader(doc))
	if err := decoder.Decode(&rss); err != nil {
		logger.Error().Err(err).Msg("feed document is not valid XML")
		return nil, malformedErr(err)
	}

	results := make([]ItemResult, 0, len(rss.Channel.Items))
	for _, item := range rss.Channel.Items {
		result := parseItem(item)
		if !result.Parsed() {
			logger.Debug().
				Str("item_title", item.Title).
				Str("reason", result.SkipReason).
				Msg("skipping feed item")
		}
		results = append(results, result)
	}
	return results, nil
}

func parseItem(item rssItem) ItemResult {
	var entry Entry

	// Prefer structured fields, fall back to free-text title parsing.
	if filmTitle := strings.TrimSpace(item.FilmTitle); filmTitle != "" {
		entry.Title = filmTitle
		if year, err := strconv.Atoi(strings.TrimSpace(item.FilmYear)); err == nil {
			entry.Year = &year
		}
	} else {
		title, year := extractMovieInfo(item.Title)
		if title == "" {
			return ItemResult{SkipReason: "missing title"}
		}
		entry.Title = title
		entry.Year = year
	}

	watched, ok := resolveWatchedDate(item)
	if !ok {
		return ItemResult{SkipReason: "unresolvable watch date"}
	}
	entry.WatchedDate = watched

	if rating, err := strconv.ParseFloat(strings.TrimSpace(item.MemberRating), 64); err == nil {
		entry.Rating = &rating
	} else if rating, ok := starRating(item.Title); ok {
		entry.Rating = &rating
	} else if rating, ok := starRating(item.Description); ok {
		entry.Rating = &rating
	}

	if rewatch := strings.TrimSpace(item.Rewatch); rewatch != "" {
		entry.IsRewatch = strings.EqualFold(rewatch, "yes")
	} else {
		lower := strings.ToLower(item.Description)
		entry.IsRewatch = strings.Contains(lower, "rewatch") || strings.Contains(lower, "re-watch")
	}

	entry.ReviewText = extractReviewText(item.Description)

	return ItemResult{Entry: &entry}
}

// extractMovieInfo splits a display title like "Parasite, 2019" or
// "Parasite (2019)" into title and year. With no year pattern the whole
// string is the title.
func extractMovieInfo(raw string) (string, *int) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", nil
	}

	for _, re := range []*regexp.Regexp{titleCommaYearRe, titleParenYearRe} {
		if m := re.FindStringSubmatch(title); m != nil {
			year, err := strconv.Atoi(m[2])
			if err != nil {
				continue
			}
			return strings.TrimSpace(m[1]), &year
		}
	}
	return title, nil
}

// resolveWatchedDate prefers the structured watchedDate element and
// falls back to the publication date chain. The result is truncated to
// a UTC calendar date.
func resolveWatchedDate(item rssItem) (time.Time, bool) {
	if raw := strings.TrimSpace(item.WatchedDate); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			return t.UTC(), true
		}
	}

	instant, ok := ResolvePubDate(item.PubDate)
	if !ok {
		return time.Time{}, false
	}
	utc := instant.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC), true
}

// starRating reads a star-glyph run: whole stars count one each, a
// half glyph anywhere in the text adds 0.5 when stars are present.
func starRating(text string) (float64, bool) {
	run := starRunRe.FindString(text)
	if run == "" {
		return 0, false
	}
	rating := float64(utf8.RuneCountInString(run))
	if strings.Contains(text, "½") {
		rating += 0.5
	}
	return rating, true
}

// extractReviewText strips markup and rating glyphs from the item
// description. Residue at or below the minimum useful length is
// discarded as not-a-review.
func extractReviewText(description string) string {
	clean := htmlTagRe.ReplaceAllString(description, "")
	clean = ratingGlyphRe.ReplaceAllString(clean, "")
	clean = whitespaceRe.ReplaceAllString(clean, " ")
	clean = strings.TrimSpace(clean)

	if utf8.RuneCountInString(clean) <= minReviewLength {
		return ""
	}
	return clean
}
