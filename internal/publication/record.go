// Package publication defines the display-oriented record shared by every harvester.
package publication

import (
	"regexp"
	"strings"
	"time"
)

// Record is a lossy projection of one publication. Every field is best-effort text.
type Record struct {
	Title   string `json:"title"`
	Authors string `json:"authors"`
	Venue   string `json:"venue"`
	Year    string `json:"year"`
	URL     string `json:"url"`
}

// Snapshot is the persisted artifact read by the static site.
type Snapshot struct {
	Source  string   `json:"source,omitempty"`
	Author  string   `json:"author,omitempty"`
	Updated string   `json:"updated"`
	Count   int      `json:"count"`
	Items   []Record `json:"items"`
}

// NewSnapshot stamps items with updated and keeps Count equal to len(Items).
func NewSnapshot(source, author string, updated time.Time, items []Record) Snapshot {
	if items == nil {
		items = []Record{}
	}
	return Snapshot{
		Source:  source,
		Author:  author,
		Updated: FormatTimestamp(updated),
		Count:   len(items),
		Items:   items,
	}
}

// FormatTimestamp renders t as UTC ISO-8601 with millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

var yearToken = regexp.MustCompile(`(19|20)\d{2}`)

// CleanText collapses whitespace runs, including non-breaking spaces, and trims the ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// FindYear returns the first plausible publication year in s, or "".
func FindYear(s string) string {
	return yearToken.FindString(s)
}

// IsYear reports whether s is exactly four digits.
func IsYear(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// StripYear removes the first occurrence of year, with any leading separators, from venue.
func StripYear(venue, year string) string {
	venue = CleanText(venue)
	if year == "" || !strings.Contains(venue, year) {
		return venue
	}
	re, err := regexp.Compile(`[,;\s]*` + regexp.QuoteMeta(year) + `\b`)
	if err != nil {
		return venue
	}
	loc := re.FindStringIndex(venue)
	if loc == nil {
		return venue
	}
	return CleanText(venue[:loc[0]] + venue[loc[1]:])
}
