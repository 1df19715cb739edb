// Package config loads and validates harvester configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/pubharvest/internal/browser"
	"github.com/JakeFAU/pubharvest/internal/scholar"
)

// Config captures every knob of a harvest run.
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	OpenAlex    OpenAlexConfig    `mapstructure:"openalex"`
	Scholar     ScholarConfig     `mapstructure:"scholar"`
	Browser     BrowserConfig     `mapstructure:"browser"`
	Diagnostics DiagnosticsConfig `mapstructure:"diagnostics"`
	Notify      NotifyConfig      `mapstructure:"notify"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// OpenAlexConfig drives the API harvester.
type OpenAlexConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	ORCID      string        `mapstructure:"orcid"`
	Query      string        `mapstructure:"query"`
	Mailto     string        `mapstructure:"mailto"`
	UserAgent  string        `mapstructure:"user_agent"`
	MaxItems   int           `mapstructure:"max_items"`
	PageSize   int           `mapstructure:"page_size"`
	PageDelay  time.Duration `mapstructure:"page_delay"`
	Timeout    time.Duration `mapstructure:"timeout"`
	OutputPath string        `mapstructure:"output_path"`
}

// ScholarConfig drives the browser harvester.
type ScholarConfig struct {
	UserID            string            `mapstructure:"user_id"`
	ProfileURL        string            `mapstructure:"profile_url"`
	Origin            string            `mapstructure:"origin"`
	OutputPath        string            `mapstructure:"output_path"`
	MaxClicks         int               `mapstructure:"max_clicks"`
	Settle            time.Duration     `mapstructure:"settle"`
	SettleJitter      time.Duration     `mapstructure:"settle_jitter"`
	ConfirmWait       time.Duration     `mapstructure:"confirm_wait"`
	DisabledRecheck   time.Duration     `mapstructure:"disabled_recheck"`
	ConsentTimeout    time.Duration     `mapstructure:"consent_timeout"`
	ConsentNavTimeout time.Duration     `mapstructure:"consent_nav_timeout"`
	TableTimeout      time.Duration     `mapstructure:"table_timeout"`
	Humanize          bool              `mapstructure:"humanize"`
	BlockPatterns     []string          `mapstructure:"block_patterns"`
	Selectors         scholar.Selectors `mapstructure:"selectors"`
}

// BrowserConfig controls the Chrome session used by the scholar harvester.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless"`
	ExecPath          string        `mapstructure:"exec_path"`
	UserAgent         string        `mapstructure:"user_agent"`
	AcceptLanguage    string        `mapstructure:"accept_language"`
	WindowWidth       int           `mapstructure:"window_width"`
	WindowHeight      int           `mapstructure:"window_height"`
	UserDataDir       string        `mapstructure:"user_data_dir"`
	ProfileDirectory  string        `mapstructure:"profile_directory"`
	WaitStrategy      string        `mapstructure:"wait_strategy"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
}

// DiagnosticsConfig says where blocked/last/error dumps go.
type DiagnosticsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// NotifyConfig holds metadata for snapshot-updated notifications.
type NotifyConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Enabled reports whether a Pub/Sub topic is configured.
func (n NotifyConfig) Enabled() bool {
	return n.ProjectID != "" && n.TopicName != ""
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PUBHARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")

	v.SetDefault("openalex.base_url", "https://api.openalex.org")
	v.SetDefault("openalex.orcid", "")
	v.SetDefault("openalex.query", "")
	v.SetDefault("openalex.mailto", "")
	v.SetDefault("openalex.user_agent", "lab-pubs (mailto:you@example.com)")
	v.SetDefault("openalex.max_items", 500)
	v.SetDefault("openalex.page_size", 200)
	v.SetDefault("openalex.page_delay", "300ms")
	v.SetDefault("openalex.timeout", "30s")
	v.SetDefault("openalex.output_path", "docs/openalex.json")

	sc := scholar.DefaultConfig()
	v.SetDefault("scholar.user_id", "")
	v.SetDefault("scholar.profile_url", "")
	v.SetDefault("scholar.origin", sc.Origin)
	v.SetDefault("scholar.output_path", "docs/pubs.json")
	v.SetDefault("scholar.max_clicks", sc.MaxClicks)
	v.SetDefault("scholar.settle", sc.SettleMin.String())
	v.SetDefault("scholar.settle_jitter", sc.SettleJitter.String())
	v.SetDefault("scholar.confirm_wait", sc.ConfirmWait.String())
	v.SetDefault("scholar.disabled_recheck", sc.DisabledRecheck.String())
	v.SetDefault("scholar.consent_timeout", sc.ConsentTimeout.String())
	v.SetDefault("scholar.consent_nav_timeout", sc.ConsentNavTimeout.String())
	v.SetDefault("scholar.table_timeout", sc.TableTimeout.String())
	v.SetDefault("scholar.humanize", sc.Humanize)
	v.SetDefault("scholar.block_patterns", []string{})
	v.SetDefault("scholar.selectors.consent", sc.Selectors.Consent)
	v.SetDefault("scholar.selectors.table", sc.Selectors.Table)
	v.SetDefault("scholar.selectors.row", sc.Selectors.Row)
	v.SetDefault("scholar.selectors.title", sc.Selectors.Title)
	v.SetDefault("scholar.selectors.gray", sc.Selectors.Gray)
	v.SetDefault("scholar.selectors.year", sc.Selectors.Year)
	v.SetDefault("scholar.selectors.more", sc.Selectors.More)

	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_agent", browser.DefaultUserAgent)
	v.SetDefault("browser.accept_language", browser.DefaultAcceptLanguage)
	v.SetDefault("browser.window_width", browser.DefaultWindowWidth)
	v.SetDefault("browser.window_height", browser.DefaultWindowHeight)
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.profile_directory", "")
	v.SetDefault("browser.wait_strategy", browser.WaitNetworkIdle)
	v.SetDefault("browser.navigation_timeout", browser.DefaultNavigationTimeout.String())
	v.SetDefault("browser.idle_timeout", browser.DefaultIdleTimeout.String())

	v.SetDefault("diagnostics.enabled", true)
	v.SetDefault("diagnostics.dir", "docs")
	v.SetDefault("diagnostics.gcs_bucket", "")
	v.SetDefault("diagnostics.prefix", "")

	v.SetDefault("notify.project_id", "")
	v.SetDefault("notify.topic_name", "")

	v.SetDefault("metrics.textfile_path", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.OpenAlex.MaxItems <= 0 {
		return fmt.Errorf("openalex.max_items must be > 0")
	}
	if c.OpenAlex.PageSize <= 0 || c.OpenAlex.PageSize > 200 {
		return fmt.Errorf("openalex.page_size must be between 1 and 200")
	}
	if c.OpenAlex.PageDelay < 0 {
		return fmt.Errorf("openalex.page_delay must be >= 0")
	}
	if strings.TrimSpace(c.OpenAlex.OutputPath) == "" {
		return fmt.Errorf("openalex.output_path must be set")
	}
	if strings.TrimSpace(c.Scholar.OutputPath) == "" {
		return fmt.Errorf("scholar.output_path must be set")
	}
	if c.Scholar.MaxClicks < 0 {
		return fmt.Errorf("scholar.max_clicks must be >= 0")
	}
	if c.Scholar.ConsentTimeout <= 0 {
		return fmt.Errorf("scholar.consent_timeout must be > 0")
	}
	if c.Scholar.ConsentNavTimeout <= 0 {
		return fmt.Errorf("scholar.consent_nav_timeout must be > 0")
	}
	if c.Scholar.TableTimeout <= 0 {
		return fmt.Errorf("scholar.table_timeout must be > 0")
	}
	switch c.Browser.WaitStrategy {
	case browser.WaitNetworkIdle, browser.WaitReady:
	default:
		return fmt.Errorf("browser.wait_strategy must be %q or %q", browser.WaitNetworkIdle, browser.WaitReady)
	}
	if c.Diagnostics.Enabled && c.Diagnostics.Dir == "" && c.Diagnostics.GCSBucket == "" {
		return fmt.Errorf("diagnostics.dir or diagnostics.gcs_bucket must be set when diagnostics are enabled")
	}
	if (c.Notify.ProjectID == "") != (c.Notify.TopicName == "") {
		return fmt.Errorf("notify.project_id and notify.topic_name must be set together")
	}
	return nil
}

// HarvesterConfig converts the scholar section into the harvester's tuning.
func (s ScholarConfig) HarvesterConfig() scholar.Config {
	return scholar.Config{
		UserID:            s.UserID,
		ProfileURL:        s.ProfileURL,
		Origin:            s.Origin,
		Selectors:         s.Selectors,
		BlockPatterns:     s.BlockPatterns,
		MaxClicks:         s.MaxClicks,
		SettleMin:         s.Settle,
		SettleJitter:      s.SettleJitter,
		ConfirmWait:       s.ConfirmWait,
		DisabledRecheck:   s.DisabledRecheck,
		ConsentTimeout:    s.ConsentTimeout,
		ConsentNavTimeout: s.ConsentNavTimeout,
		TableTimeout:      s.TableTimeout,
		Humanize:          s.Humanize,
		HumanizeMin:       scholar.DefaultConfig().HumanizeMin,
		HumanizeJitter:    scholar.DefaultConfig().HumanizeJitter,
	}
}

// SessionConfig converts the browser section into launch options.
func (b BrowserConfig) SessionConfig() browser.Config {
	return browser.Config{
		Headless:          b.Headless,
		ExecPath:          b.ExecPath,
		UserAgent:         b.UserAgent,
		AcceptLanguage:    b.AcceptLanguage,
		WindowWidth:       b.WindowWidth,
		WindowHeight:      b.WindowHeight,
		UserDataDir:       b.UserDataDir,
		ProfileDirectory:  b.ProfileDirectory,
		NavigationTimeout: b.NavigationTimeout,
		IdleTimeout:       b.IdleTimeout,
		WaitStrategy:      b.WaitStrategy,
	}
}
