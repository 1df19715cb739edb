// Package scholar harvests a Google Scholar profile by driving a real browser
// through consent, block detection and the "show more" disclosure loop.
package scholar

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	sourceName = "scholar"

	// DefaultOrigin is used to absolutize row links.
	DefaultOrigin = "https://scholar.google.com"
	// DefaultMaxClicks bounds the disclosure loop.
	DefaultMaxClicks = 40
)

// Selectors locate the parts of the profile page the harvester touches.
type Selectors struct {
	Consent string `mapstructure:"consent"`
	Table   string `mapstructure:"table"`
	Row     string `mapstructure:"row"`
	Title   string `mapstructure:"title"`
	Gray    string `mapstructure:"gray"`
	Year    string `mapstructure:"year"`
	More    string `mapstructure:"more"`
}

// DefaultSelectors match the current Scholar profile markup.
func DefaultSelectors() Selectors {
	return Selectors{
		Consent: `form[action*="consent"] button, #introAgreeButton`,
		Table:   "#gsc_a_b",
		Row:     "tr.gsc_a_tr",
		Title:   "a.gsc_a_at",
		Gray:    ".gsc_a_t .gs_gray",
		Year:    ".gsc_a_y span",
		More:    "#gsc_bpf_more",
	}
}

// Config parameterizes one harvest.
type Config struct {
	UserID     string
	ProfileURL string
	Origin     string
	Selectors  Selectors

	BlockPatterns []string
	MaxClicks     int

	// SettleMin plus a random share of SettleJitter is waited after each click.
	SettleMin    time.Duration
	SettleJitter time.Duration
	// ConfirmWait is waited before trusting a no-growth read.
	ConfirmWait time.Duration
	// DisabledRecheck is waited before re-checking a disabled control.
	DisabledRecheck time.Duration

	ConsentTimeout    time.Duration
	ConsentNavTimeout time.Duration
	TableTimeout      time.Duration

	Humanize       bool
	HumanizeMin    time.Duration
	HumanizeJitter time.Duration
}

// DefaultConfig returns the tuning that works against the live site.
func DefaultConfig() Config {
	return Config{
		Origin:            DefaultOrigin,
		Selectors:         DefaultSelectors(),
		MaxClicks:         DefaultMaxClicks,
		SettleMin:         2200 * time.Millisecond,
		SettleJitter:      1200 * time.Millisecond,
		ConfirmWait:       1500 * time.Millisecond,
		DisabledRecheck:   1 * time.Second,
		ConsentTimeout:    3 * time.Second,
		ConsentNavTimeout: 15 * time.Second,
		TableTimeout:      20 * time.Second,
		Humanize:          true,
		HumanizeMin:       1200 * time.Millisecond,
		HumanizeJitter:    800 * time.Millisecond,
	}
}

// ProfileURLFor builds the publication list URL for a user, newest first.
func ProfileURLFor(origin, userID string) string {
	q := url.Values{}
	q.Set("hl", "en")
	q.Set("user", userID)
	q.Set("view_op", "list_works")
	q.Set("sortby", "pubdate")
	return strings.TrimRight(origin, "/") + "/citations?" + q.Encode()
}

// Validate fills derived fields and rejects unusable settings.
func (c *Config) Validate() error {
	if c.Origin == "" {
		c.Origin = DefaultOrigin
	}
	if _, err := url.Parse(c.Origin); err != nil {
		return fmt.Errorf("invalid origin %q: %w", c.Origin, err)
	}
	if c.ProfileURL == "" {
		if strings.TrimSpace(c.UserID) == "" {
			return fmt.Errorf("scholar user id or profile url is required")
		}
		c.ProfileURL = ProfileURLFor(c.Origin, c.UserID)
	}
	if c.MaxClicks < 0 {
		return fmt.Errorf("max clicks must be >= 0")
	}
	for name, d := range map[string]time.Duration{
		"consent timeout":            c.ConsentTimeout,
		"consent navigation timeout": c.ConsentNavTimeout,
		"table timeout":              c.TableTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0", name)
		}
	}
	s := c.Selectors
	for name, v := range map[string]string{"row": s.Row, "title": s.Title, "more": s.More} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("selector %s is required", name)
		}
	}
	return nil
}
