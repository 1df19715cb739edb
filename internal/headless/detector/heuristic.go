// Package detector recognizes soft-block pages: responses that render fine but
// carry a challenge or CAPTCHA instead of the requested content.
package detector

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPatterns match the interstitials Google serves to suspected automation.
var DefaultPatterns = []string{
	`unusual\s+traffic`,
	`captcha`,
	`verify`,
	`sorry`,
}

// Heuristic flags a page when any case-insensitive pattern occurs in its markup.
type Heuristic struct {
	patterns []*regexp.Regexp
}

// NewHeuristic compiles patterns; an empty list falls back to DefaultPatterns.
func NewHeuristic(patterns []string) (*Heuristic, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	h := &Heuristic{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile block pattern %q: %w", p, err)
		}
		h.patterns = append(h.patterns, re)
	}
	if len(h.patterns) == 0 {
		return nil, fmt.Errorf("at least one block pattern is required")
	}
	return h, nil
}

// Detect scans the full page markup and returns the first matching phrase.
func (h *Heuristic) Detect(html string) (string, bool) {
	if html == "" {
		return "", false
	}
	for _, re := range h.patterns {
		if m := re.FindString(html); m != "" {
			return m, true
		}
	}
	return "", false
}
