package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Chromedp implements Browser on top of a single Chrome tab.
type Chromedp struct {
	cfg         Config
	logger      *zap.Logger
	tab         context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc

	mu     sync.Mutex
	mouseX float64
	mouseY float64
}

var _ Browser = (*Chromedp)(nil)

// NewChromedp launches Chrome and prepares a tab with the configured identity.
func NewChromedp(ctx context.Context, cfg Config, logger *zap.Logger) (*Chromedp, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	if cfg.WaitStrategy != WaitNetworkIdle && cfg.WaitStrategy != WaitReady {
		return nil, fmt.Errorf("unknown wait strategy %q", cfg.WaitStrategy)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(cfg)...)
	sugar := logger.Sugar()
	tab, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)
	c := &Chromedp{
		cfg:         cfg,
		logger:      logger,
		tab:         tab,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
	}

	// The browser lives as long as the context of its first Run.
	if err := chromedp.Run(tab); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	runCtx, cancel := c.derive(ctx, cfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, c.setupAction()); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("prepare tab: %w", err)
	}
	return c, nil
}

func allocatorOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("lang", cfg.Lang),
		chromedp.UserAgent(cfg.UserAgent),
		chromedp.WindowSize(cfg.WindowWidth, cfg.WindowHeight),
	)
	if cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", "new"))
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
		if cfg.ProfileDirectory != "" {
			opts = append(opts, chromedp.Flag("profile-directory", cfg.ProfileDirectory))
		}
	}
	return opts
}

func (c *Chromedp) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := emulation.SetUserAgentOverride(c.cfg.UserAgent).WithAcceptLanguage(c.cfg.AcceptLanguage).Do(ctx); err != nil {
			return fmt.Errorf("set user-agent: %w", err)
		}
		headers := network.Headers{"Accept-Language": c.cfg.AcceptLanguage}
		if err := network.SetExtraHTTPHeaders(headers).Do(ctx); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
		if err := chromedp.EmulateViewport(int64(c.cfg.WindowWidth), int64(c.cfg.WindowHeight)).Do(ctx); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return fmt.Errorf("enable lifecycle events: %w", err)
		}
		return nil
	})
}

// derive returns a context bound to the tab that is also canceled with ctx.
func (c *Chromedp) derive(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(c.tab, timeout)
	} else {
		runCtx, cancel = context.WithCancel(c.tab)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Navigate loads url and waits for network idle or document readiness.
func (c *Chromedp) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := c.derive(ctx, c.cfg.NavigationTimeout)
	defer cancel()

	if c.cfg.WaitStrategy == WaitReady {
		if err := chromedp.Run(runCtx, chromedp.Navigate(url), chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
			return fmt.Errorf("navigate %s: %w", url, err)
		}
		return nil
	}

	waiter := newLifecycleWaiter("networkIdle")
	chromedp.ListenTarget(runCtx, waiter.handle)
	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	select {
	case <-waiter.done:
	case <-time.After(c.cfg.IdleTimeout):
		c.logger.Debug("network idle not observed, continuing", zap.String("url", url), zap.Duration("waited", c.cfg.IdleTimeout))
	case <-runCtx.Done():
		return fmt.Errorf("navigate %s: %w", url, runCtx.Err())
	}
	return nil
}

// WaitVisible waits for sel to become visible.
func (c *Chromedp) WaitVisible(ctx context.Context, sel string, timeout time.Duration) error {
	runCtx, cancel := c.derive(ctx, timeout)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %s: %w", sel, err)
	}
	return nil
}

// Click clicks the first element matching sel.
func (c *Chromedp) Click(ctx context.Context, sel string) error {
	runCtx, cancel := c.derive(ctx, c.cfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	return nil
}

// ClickAndWaitNavigation clicks sel and waits for the next document load.
func (c *Chromedp) ClickAndWaitNavigation(ctx context.Context, sel string, timeout time.Duration) error {
	runCtx, cancel := c.derive(ctx, timeout)
	defer cancel()

	event := "networkIdle"
	if c.cfg.WaitStrategy == WaitReady {
		event = "load"
	}
	waiter := newLifecycleWaiter(event)
	chromedp.ListenTarget(runCtx, waiter.handle)
	if err := chromedp.Run(runCtx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	select {
	case <-waiter.done:
		return nil
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return fmt.Errorf("click %s: %w", sel, ctx.Err())
		}
		return fmt.Errorf("click %s: %w", sel, ErrNavigationTimeout)
	}
}

// Count returns the number of elements matching sel.
func (c *Chromedp) Count(ctx context.Context, sel string) (int, error) {
	var n int
	if err := c.evaluate(ctx, countExpression(sel), &n); err != nil {
		return 0, fmt.Errorf("count %s: %w", sel, err)
	}
	return n, nil
}

// Enabled reports whether sel exists and is not disabled.
func (c *Chromedp) Enabled(ctx context.Context, sel string) (bool, error) {
	var ok bool
	if err := c.evaluate(ctx, enabledExpression(sel), &ok); err != nil {
		return false, fmt.Errorf("check %s: %w", sel, err)
	}
	return ok, nil
}

func (c *Chromedp) evaluate(ctx context.Context, expr string, res any) error {
	runCtx, cancel := c.derive(ctx, c.cfg.NavigationTimeout)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Evaluate(expr, res))
}

// HTML returns the outer HTML of the document element.
func (c *Chromedp) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := c.derive(ctx, c.cfg.NavigationTimeout)
	defer cancel()
	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

// Screenshot captures a PNG of the viewport or of the full page.
func (c *Chromedp) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	runCtx, cancel := c.derive(ctx, c.cfg.NavigationTimeout)
	defer cancel()
	var buf []byte
	var action chromedp.Action = chromedp.CaptureScreenshot(&buf)
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := chromedp.Run(runCtx, action); err != nil {
		return nil, fmt.Errorf("screenshot: %w", err)
	}
	return buf, nil
}

// MoveMouse moves the pointer.
func (c *Chromedp) MoveMouse(ctx context.Context, x, y float64) error {
	runCtx, cancel := c.derive(ctx, c.cfg.NavigationTimeout)
	defer cancel()
	if err := chromedp.Run(runCtx, chromedp.MouseEvent(input.MouseMoved, x, y)); err != nil {
		return fmt.Errorf("move mouse: %w", err)
	}
	c.mu.Lock()
	c.mouseX, c.mouseY = x, y
	c.mu.Unlock()
	return nil
}

// Scroll dispatches a mouse wheel event.
func (c *Chromedp) Scroll(ctx context.Context, deltaY float64) error {
	runCtx, cancel := c.derive(ctx, c.cfg.NavigationTimeout)
	defer cancel()
	c.mu.Lock()
	x, y := c.mouseX, c.mouseY
	c.mu.Unlock()
	err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, x, y).WithDeltaX(0).WithDeltaY(deltaY).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// Close closes the tab and stops the browser process.
func (c *Chromedp) Close() error {
	var err error
	if c.tab != nil {
		err = chromedp.Cancel(c.tab)
	}
	if c.tabCancel != nil {
		c.tabCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("close browser: %w", err)
	}
	return nil
}

// lifecycleWaiter signals once the named lifecycle event fires for a document
// loaded after the waiter was created.
type lifecycleWaiter struct {
	name    string
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	started bool
}

func newLifecycleWaiter(name string) *lifecycleWaiter {
	return &lifecycleWaiter{name: name, done: make(chan struct{})}
}

func (w *lifecycleWaiter) handle(ev any) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	switch e.Name {
	case "init":
		w.started = true
	case w.name:
		if w.started {
			w.once.Do(func() { close(w.done) })
		}
	}
}

func countExpression(sel string) string {
	return fmt.Sprintf("document.querySelectorAll(%s).length", jsString(sel))
}

func enabledExpression(sel string) string {
	return fmt.Sprintf("(() => { const el = document.querySelector(%s); return !!el && !el.disabled; })()", jsString(sel))
}

func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
