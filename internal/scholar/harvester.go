package scholar

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/pubharvest/internal/browser"
	"github.com/JakeFAU/pubharvest/internal/diagnostics"
	"github.com/JakeFAU/pubharvest/internal/harvest"
	"github.com/JakeFAU/pubharvest/internal/headless/detector"
	"github.com/JakeFAU/pubharvest/internal/metrics"
)

// Launcher starts a browser session for one run.
type Launcher func(ctx context.Context) (browser.Browser, error)

// Dumper persists page diagnostics.
type Dumper interface {
	Dump(ctx context.Context, name string, html string, png []byte) ([]string, error)
}

// Harvester runs the profile workflow against one browser session.
type Harvester struct {
	cfg      Config
	launch   Launcher
	detector *detector.Heuristic
	dumper   Dumper
	logger   *zap.Logger
	pause    func(ctx context.Context, d time.Duration) error
	random   func() float64
}

// Option customizes a Harvester.
type Option func(*Harvester)

// WithDumper enables diagnostic artifacts.
func WithDumper(d Dumper) Option {
	return func(h *Harvester) {
		if d != nil {
			h.dumper = d
		}
	}
}

// WithPause overrides how the harvester waits.
func WithPause(pause func(ctx context.Context, d time.Duration) error) Option {
	return func(h *Harvester) {
		if pause != nil {
			h.pause = pause
		}
	}
}

// WithRandom overrides the source of jitter, which must return values in [0, 1).
func WithRandom(random func() float64) Option {
	return func(h *Harvester) {
		if random != nil {
			h.random = random
		}
	}
}

// NewHarvester validates cfg and wires the harvester.
func NewHarvester(cfg Config, launch Launcher, logger *zap.Logger, opts ...Option) (*Harvester, error) {
	if launch == nil {
		return nil, fmt.Errorf("browser launcher is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	det, err := detector.NewHeuristic(cfg.BlockPatterns)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Harvester{
		cfg:      cfg,
		launch:   launch,
		detector: det,
		logger:   logger,
		pause:    sleep,
		random:   rand.Float64,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Harvest never fails the process: blocks, empty pages and browser failures all
// come back as a Result asking the writer to keep the previous snapshot.
func (h *Harvester) Harvest(ctx context.Context) (harvest.Result, error) {
	b, err := h.launch(ctx)
	if err != nil {
		h.logger.Warn("browser launch failed", zap.Error(err))
		return harvest.Preserved(sourceName, fmt.Errorf("%w: launch: %w", harvest.ErrBrowserFailure, err)), nil
	}
	defer func() {
		if closeErr := b.Close(); closeErr != nil {
			h.logger.Debug("browser close failed", zap.Error(closeErr))
		}
	}()

	res, err := h.run(ctx, b)
	if err != nil {
		h.logger.Warn("scrape error", zap.Error(err))
		h.dump(context.WithoutCancel(ctx), b, diagnostics.Failure, true)
		return harvest.Preserved(sourceName, fmt.Errorf("%w: %w", harvest.ErrBrowserFailure, err)), nil
	}
	return res, nil
}

func (h *Harvester) run(ctx context.Context, b browser.Browser) (harvest.Result, error) {
	sel := h.cfg.Selectors
	logger := h.logger.With(zap.String("url", h.cfg.ProfileURL))

	if err := b.Navigate(ctx, h.cfg.ProfileURL); err != nil {
		return harvest.Result{}, err
	}
	h.settleLikeAHuman(ctx, b)
	h.acceptConsent(ctx, b)

	page, err := b.HTML(ctx)
	if err != nil {
		return harvest.Result{}, err
	}
	if match, blocked := h.detector.Detect(page); blocked {
		logger.Warn("blocked by scholar, keeping previous snapshot", zap.String("match", match))
		h.dumpHTML(ctx, b, diagnostics.Blocked, page, false)
		return harvest.Preserved(sourceName, fmt.Errorf("%w: page matched %q", harvest.ErrSuspectedBlock, match)), nil
	}

	if sel.Table != "" {
		if err := b.WaitVisible(ctx, sel.Table, h.cfg.TableTimeout); err != nil {
			logger.Debug("publication table not visible", zap.Error(err))
		}
	}
	if err := b.WaitVisible(ctx, sel.Row, h.cfg.TableTimeout); err != nil {
		logger.Debug("no row visible yet", zap.Error(err))
	}

	clicks := h.disclose(ctx, b)
	logger.Info("disclosure finished", zap.Int("clicks", clicks))

	if rows := h.count(ctx, b); rows == 0 {
		logger.Warn("no rows found, keeping previous snapshot")
		h.dump(ctx, b, diagnostics.Last, true)
		return harvest.Preserved(sourceName, fmt.Errorf("%w: no rows rendered", harvest.ErrEmptyExtraction)), nil
	}

	page, err = b.HTML(ctx)
	if err != nil {
		return harvest.Result{}, err
	}
	items, err := Extract(page, sel, h.cfg.Origin)
	if err != nil {
		return harvest.Result{}, err
	}
	if len(items) == 0 {
		logger.Warn("parser returned 0 items, keeping previous snapshot")
		return harvest.Preserved(sourceName, fmt.Errorf("%w: no rows mapped", harvest.ErrEmptyExtraction)), nil
	}
	metrics.ObserveItems(sourceName, len(items))
	return harvest.Result{Source: sourceName, Author: h.cfg.UserID, Items: items}, nil
}

// disclose clicks "show more" until the control disappears, stays disabled, stops
// growing the table or MaxClicks is reached. It returns the clicks performed.
func (h *Harvester) disclose(ctx context.Context, b browser.Browser) int {
	more := h.cfg.Selectors.More
	clicks := 0
	for i := 0; i < h.cfg.MaxClicks; i++ {
		if ctx.Err() != nil {
			break
		}
		if !h.controlReady(ctx, b) {
			break
		}
		before := h.count(ctx, b)
		if err := b.Click(ctx, more); err != nil {
			h.logger.Debug("show more click failed", zap.Error(err))
			break
		}
		clicks++
		metrics.ObserveDisclosureClick()
		h.wait(ctx, h.cfg.SettleMin+h.jitter(h.cfg.SettleJitter))

		after := h.count(ctx, b)
		if after <= before && h.cfg.ConfirmWait > 0 {
			h.wait(ctx, h.cfg.ConfirmWait)
			after = h.count(ctx, b)
		}
		if after <= before {
			break
		}
	}
	return clicks
}

func (h *Harvester) controlReady(ctx context.Context, b browser.Browser) bool {
	more := h.cfg.Selectors.More
	if n, err := b.Count(ctx, more); err != nil || n == 0 {
		return false
	}
	enabled, err := b.Enabled(ctx, more)
	if err != nil {
		return false
	}
	if enabled || h.cfg.DisabledRecheck <= 0 {
		return enabled
	}
	h.wait(ctx, h.cfg.DisabledRecheck)
	enabled, err = b.Enabled(ctx, more)
	return err == nil && enabled
}

func (h *Harvester) count(ctx context.Context, b browser.Browser) int {
	n, err := b.Count(ctx, h.cfg.Selectors.Row)
	if err != nil {
		h.logger.Debug("row count failed", zap.Error(err))
		return 0
	}
	return n
}

func (h *Harvester) settleLikeAHuman(ctx context.Context, b browser.Browser) {
	if !h.cfg.Humanize {
		return
	}
	h.wait(ctx, h.cfg.HumanizeMin+h.jitter(h.cfg.HumanizeJitter))
	if err := b.MoveMouse(ctx, 400+h.random()*200, 300+h.random()*150); err != nil {
		h.logger.Debug("mouse move failed", zap.Error(err))
	}
	if err := b.Scroll(ctx, 600+h.random()*400); err != nil {
		h.logger.Debug("scroll failed", zap.Error(err))
	}
	h.wait(ctx, h.cfg.HumanizeMin+h.jitter(h.cfg.HumanizeJitter))
}

func (h *Harvester) acceptConsent(ctx context.Context, b browser.Browser) {
	consent := h.cfg.Selectors.Consent
	if consent == "" {
		return
	}
	if err := b.WaitVisible(ctx, consent, h.cfg.ConsentTimeout); err != nil {
		return
	}
	if err := b.ClickAndWaitNavigation(ctx, consent, h.cfg.ConsentNavTimeout); err != nil {
		h.logger.Debug("consent dismissal incomplete", zap.Error(err))
		return
	}
	h.logger.Info("consent interstitial dismissed")
}

func (h *Harvester) dump(ctx context.Context, b browser.Browser, name string, fullPage bool) {
	if h.dumper == nil {
		return
	}
	page, err := b.HTML(ctx)
	if err != nil {
		h.logger.Debug("capture html failed", zap.String("artifact", name), zap.Error(err))
	}
	h.dumpHTML(ctx, b, name, page, fullPage)
}

func (h *Harvester) dumpHTML(ctx context.Context, b browser.Browser, name, page string, fullPage bool) {
	if h.dumper == nil {
		return
	}
	png, err := b.Screenshot(ctx, fullPage)
	if err != nil {
		h.logger.Debug("capture screenshot failed", zap.String("artifact", name), zap.Error(err))
	}
	if _, err := h.dumper.Dump(ctx, name, page, png); err != nil {
		h.logger.Warn("write diagnostics failed", zap.String("artifact", name), zap.Error(err))
	}
}

func (h *Harvester) jitter(maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 {
		return 0
	}
	return time.Duration(h.random() * float64(maxJitter))
}

func (h *Harvester) wait(ctx context.Context, d time.Duration) {
	if err := h.pause(ctx, d); err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Debug("pause interrupted", zap.Error(err))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
