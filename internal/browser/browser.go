// Package browser exposes the small set of page operations the harvesters need
// from a real browser, independent of the automation driver behind them.
package browser

import (
	"context"
	"errors"
	"time"
)

// Wait strategies applied after a navigation.
const (
	WaitNetworkIdle = "networkidle"
	WaitReady       = "ready"
)

// ErrNavigationTimeout is returned when a navigation triggered by a click does not
// complete within the allotted time.
var ErrNavigationTimeout = errors.New("navigation did not complete in time")

// Browser drives a single page. Implementations are not safe for concurrent use.
type Browser interface {
	// Navigate loads url and waits according to the configured wait strategy.
	Navigate(ctx context.Context, url string) error
	// WaitVisible blocks until an element matching sel is visible or timeout elapses.
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) error
	// Click clicks the first element matching sel.
	Click(ctx context.Context, sel string) error
	// ClickAndWaitNavigation clicks sel and waits for the resulting page load.
	ClickAndWaitNavigation(ctx context.Context, sel string, timeout time.Duration) error
	// Count reports how many elements currently match sel.
	Count(ctx context.Context, sel string) (int, error)
	// Enabled reports whether the first element matching sel exists and is not disabled.
	Enabled(ctx context.Context, sel string) (bool, error)
	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)
	// Screenshot captures the viewport, or the whole page when fullPage is set, as PNG.
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	// MoveMouse moves the pointer to the given viewport coordinates.
	MoveMouse(ctx context.Context, x, y float64) error
	// Scroll dispatches a wheel event at the current pointer position.
	Scroll(ctx context.Context, deltaY float64) error
	// Close shuts the browser down.
	Close() error
}

// Config controls how the browser session is launched.
type Config struct {
	Headless          bool
	ExecPath          string
	UserAgent         string
	AcceptLanguage    string
	Lang              string
	WindowWidth       int
	WindowHeight      int
	UserDataDir       string
	ProfileDirectory  string
	NavigationTimeout time.Duration
	IdleTimeout       time.Duration
	WaitStrategy      string
}

// Defaults used when the corresponding Config field is empty.
const (
	DefaultUserAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36"
	DefaultAcceptLanguage    = "en-US,en;q=0.9"
	DefaultLang              = "en-US,en"
	DefaultWindowWidth       = 1366
	DefaultWindowHeight      = 900
	DefaultNavigationTimeout = 60 * time.Second
	DefaultIdleTimeout       = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = DefaultAcceptLanguage
	}
	if c.Lang == "" {
		c.Lang = DefaultLang
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = DefaultWindowWidth
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = DefaultWindowHeight
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = DefaultNavigationTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.WaitStrategy == "" {
		c.WaitStrategy = WaitNetworkIdle
	}
	return c
}
