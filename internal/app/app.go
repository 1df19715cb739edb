// Package app initializes and holds the services shared by harvest commands,
// acting as a small dependency injection container.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/pubharvest/internal/browser"
	"github.com/JakeFAU/pubharvest/internal/config"
	"github.com/JakeFAU/pubharvest/internal/diagnostics"
	collyfetcher "github.com/JakeFAU/pubharvest/internal/fetcher/colly"
	"github.com/JakeFAU/pubharvest/internal/harvest"
	"github.com/JakeFAU/pubharvest/internal/metrics"
	pubsubnotify "github.com/JakeFAU/pubharvest/internal/notify/pubsub"
	"github.com/JakeFAU/pubharvest/internal/openalex"
	"github.com/JakeFAU/pubharvest/internal/scholar"
	"github.com/JakeFAU/pubharvest/internal/snapshot"
	"github.com/JakeFAU/pubharvest/internal/storage/gcs"
	"github.com/JakeFAU/pubharvest/internal/storage/local"
)

// Harvester produces one source's result.
type Harvester interface {
	Harvest(ctx context.Context) (harvest.Result, error)
}

// App holds the long-lived services of one process.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	runID    string
	notifier snapshot.Notifier
	dumper   scholar.Dumper
	launch   scholar.Launcher
	now      func() time.Time
	closers  []func() error
}

// Option customizes an App, mostly for tests.
type Option func(*App)

// WithNotifier replaces the configured notifier.
func WithNotifier(n snapshot.Notifier) Option {
	return func(a *App) {
		a.notifier = n
	}
}

// WithDumper replaces the configured diagnostics dumper.
func WithDumper(d scholar.Dumper) Option {
	return func(a *App) {
		a.dumper = d
	}
}

// WithLauncher replaces the Chrome launcher; headless overrides no longer apply.
func WithLauncher(l scholar.Launcher) Option {
	return func(a *App) {
		a.launch = l
	}
}

// WithClock overrides the snapshot timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}

// New wires the optional cloud services named in cfg. It fails fast when a
// configured service cannot be reached.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, runID string, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		cfg:    cfg,
		logger: logger.With(zap.String("run_id", runID)),
		runID:  runID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.notifier == nil && cfg.Notify.Enabled() {
		pub, err := pubsubnotify.New(ctx, pubsubnotify.Config{ProjectID: cfg.Notify.ProjectID, Topic: cfg.Notify.TopicName})
		if err != nil {
			return nil, fmt.Errorf("init notifier: %w", err)
		}
		a.notifier = pub
		a.closers = append(a.closers, pub.Close)
		a.logger.Info("snapshot notifications enabled", zap.String("topic", cfg.Notify.TopicName))
	}

	if a.dumper == nil && cfg.Diagnostics.Enabled {
		dumper, err := a.buildDumper(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.dumper = dumper
	}
	return a, nil
}

func (a *App) buildDumper(ctx context.Context) (*diagnostics.Dumper, error) {
	d := a.cfg.Diagnostics
	var store diagnostics.BlobStore
	if d.GCSBucket != "" {
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		gcsStore, err := gcs.New(client, gcs.Config{Bucket: d.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("init gcs diagnostics: %w", err)
		}
		store = gcsStore
	} else {
		localStore, err := local.New(local.Config{BaseDir: d.Dir})
		if err != nil {
			return nil, fmt.Errorf("init local diagnostics: %w", err)
		}
		store = localStore
	}
	return diagnostics.NewDumper(store, d.Prefix, a.logger.Named("diagnostics"))
}

// Logger returns the run-scoped logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// RunID returns the correlation ID of this process.
func (a *App) RunID() string {
	return a.runID
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config {
	return a.cfg
}

// OpenAlexOverrides are command-line values that win over the config file.
type OpenAlexOverrides struct {
	ORCID    string
	Query    string
	MaxItems int
}

// OpenAlex builds the API harvester.
func (a *App) OpenAlex(o OpenAlexOverrides) (*openalex.Harvester, error) {
	oc := a.cfg.OpenAlex
	switch {
	case o.ORCID != "":
		oc.ORCID, oc.Query = o.ORCID, ""
	case o.Query != "":
		oc.ORCID, oc.Query = "", o.Query
	}
	if o.MaxItems > 0 {
		oc.MaxItems = o.MaxItems
	}
	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: oc.UserAgent,
		Timeout:   oc.Timeout,
	})
	logger := a.logger.Named("openalex")
	client := openalex.NewClient(fetcher,
		openalex.WithBaseURL(oc.BaseURL),
		openalex.WithMailto(oc.Mailto),
		openalex.WithPageSize(oc.PageSize),
		openalex.WithPageDelay(oc.PageDelay),
		openalex.WithLogger(logger),
	)
	return openalex.NewHarvester(client, openalex.Identity{ORCID: oc.ORCID, Query: oc.Query}, oc.MaxItems, logger)
}

// ScholarOverrides are command-line values that win over the config file.
type ScholarOverrides struct {
	UserID   string
	Headless *bool
}

// Scholar builds the browser harvester.
func (a *App) Scholar(o ScholarOverrides) (*scholar.Harvester, error) {
	hc := a.cfg.Scholar.HarvesterConfig()
	if o.UserID != "" {
		hc.UserID, hc.ProfileURL = o.UserID, ""
	}
	launch := a.launch
	if launch == nil {
		sessionCfg := a.cfg.Browser.SessionConfig()
		if o.Headless != nil {
			sessionCfg.Headless = *o.Headless
		}
		launch = chromeLauncher(sessionCfg, a.logger.Named("browser"))
	}
	opts := []scholar.Option{}
	if a.dumper != nil {
		opts = append(opts, scholar.WithDumper(a.dumper))
	}
	return scholar.NewHarvester(hc, launch, a.logger.Named("scholar"), opts...)
}

func chromeLauncher(cfg browser.Config, logger *zap.Logger) scholar.Launcher {
	return func(ctx context.Context) (browser.Browser, error) {
		return browser.NewChromedp(ctx, cfg, logger)
	}
}

// Outcome summarizes one harvest-and-commit cycle.
type Outcome struct {
	Source   string
	Decision snapshot.Decision
	Duration time.Duration
}

// Summary renders the one-line human report of the outcome.
func (o Outcome) Summary() string {
	if o.Decision.Written {
		return fmt.Sprintf("%s: wrote %d items to %s", o.Source, o.Decision.Count, o.Decision.Path)
	}
	return fmt.Sprintf("%s: kept previous %s: %v", o.Source, o.Decision.Path, o.Decision.Reason)
}

// Run harvests with h and commits the result to outputPath. Only fatal harvest or
// write errors are returned; preserved snapshots are reported through the Outcome.
func (a *App) Run(ctx context.Context, source string, h Harvester, outputPath string) (Outcome, error) {
	logger := a.logger.With(zap.String("source", source))
	start := time.Now()
	outcome := Outcome{Source: source}

	res, err := h.Harvest(ctx)
	outcome.Duration = time.Since(start)
	metrics.ObserveRun(source, outcome.Duration)
	if err != nil {
		metrics.ObserveOutcome(source, metrics.OutcomeFailed, reasonLabel(err))
		return outcome, fmt.Errorf("%s harvest: %w", source, err)
	}
	if res.Source == "" {
		res.Source = source
	}

	opts := []snapshot.Option{snapshot.WithClock(a.now)}
	if a.notifier != nil {
		opts = append(opts, snapshot.WithNotifier(a.notifier, a.runID))
	}
	writer, err := snapshot.NewWriter(outputPath, logger.Named("snapshot"), opts...)
	if err != nil {
		return outcome, err
	}
	decision, err := writer.Commit(ctx, res)
	outcome.Decision = decision
	if err != nil {
		metrics.ObserveOutcome(source, metrics.OutcomeFailed, "write")
		return outcome, fmt.Errorf("%s commit: %w", source, err)
	}
	if decision.Written {
		metrics.ObserveOutcome(source, metrics.OutcomeWritten, "")
	} else {
		metrics.ObserveOutcome(source, metrics.OutcomePreserved, reasonLabel(decision.Reason))
	}
	logger.Info("run finished",
		zap.Bool("written", decision.Written),
		zap.Int("count", decision.Count),
		zap.Duration("duration", outcome.Duration),
	)
	return outcome, nil
}

func reasonLabel(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, harvest.ErrSuspectedBlock):
		return "blocked"
	case errors.Is(err, harvest.ErrEmptyExtraction):
		return "empty"
	case errors.Is(err, harvest.ErrBrowserFailure):
		return "browser"
	case errors.Is(err, harvest.ErrIdentityNotFound):
		return "identity"
	case errors.Is(err, harvest.ErrRemoteFetchFailed):
		return "remote"
	default:
		return "other"
	}
}

// Close flushes metrics and releases cloud clients.
func (a *App) Close() error {
	var errs []error
	if err := metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		errs = append(errs, err)
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
