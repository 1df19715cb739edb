package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAlex.MaxItems != 500 || cfg.OpenAlex.PageSize != 200 {
		t.Fatalf("unexpected openalex defaults: %+v", cfg.OpenAlex)
	}
	if cfg.OpenAlex.PageDelay != 300*time.Millisecond {
		t.Fatalf("expected 300ms page delay, got %v", cfg.OpenAlex.PageDelay)
	}
	if cfg.OpenAlex.OutputPath != "docs/openalex.json" || cfg.Scholar.OutputPath != "docs/pubs.json" {
		t.Fatalf("unexpected output paths: %q %q", cfg.OpenAlex.OutputPath, cfg.Scholar.OutputPath)
	}
	if cfg.Scholar.MaxClicks != 40 || cfg.Scholar.Settle != 2200*time.Millisecond {
		t.Fatalf("unexpected scholar defaults: %+v", cfg.Scholar)
	}
	if cfg.Scholar.Selectors.More != "#gsc_bpf_more" || cfg.Scholar.Selectors.Row != "tr.gsc_a_tr" {
		t.Fatalf("unexpected selectors: %+v", cfg.Scholar.Selectors)
	}
	if !cfg.Browser.Headless || cfg.Browser.WaitStrategy != "networkidle" || cfg.Browser.WindowWidth != 1366 {
		t.Fatalf("unexpected browser defaults: %+v", cfg.Browser)
	}
	if cfg.Notify.Enabled() {
		t.Fatal("notify must be disabled by default")
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
logging:
  development: false
  level: debug
openalex:
  orcid: 0000-0002-1825-0097
  mailto: lab@example.edu
  max_items: 250
  page_size: 100
  page_delay: 1s
  output_path: site/openalex.json
scholar:
  user_id: bc6CiFkAAAAJ
  max_clicks: 10
  settle: 500ms
  block_patterns: ["access denied"]
  selectors:
    more: "#more"
browser:
  headless: false
  user_data_dir: /home/me/.config/chrome
  profile_directory: Profile 1
  wait_strategy: ready
diagnostics:
  gcs_bucket: diag-bucket
  prefix: scholar
notify:
  project_id: proj
  topic_name: pubs
metrics:
  textfile_path: /var/lib/node_exporter/pubharvest.prom
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Development || cfg.Logging.Level != "debug" {
		t.Fatalf("expected logging overrides: %+v", cfg.Logging)
	}
	if cfg.OpenAlex.ORCID != "0000-0002-1825-0097" || cfg.OpenAlex.MaxItems != 250 || cfg.OpenAlex.PageDelay != time.Second {
		t.Fatalf("expected openalex overrides: %+v", cfg.OpenAlex)
	}
	if cfg.Scholar.Selectors.More != "#more" || cfg.Scholar.Selectors.Row != "tr.gsc_a_tr" {
		t.Fatalf("expected selector override merged with defaults: %+v", cfg.Scholar.Selectors)
	}
	if !cfg.Notify.Enabled() || cfg.Metrics.TextfilePath == "" {
		t.Fatalf("expected notify and metrics to be configured")
	}

	hc := cfg.Scholar.HarvesterConfig()
	if hc.UserID != "bc6CiFkAAAAJ" || hc.MaxClicks != 10 || hc.SettleMin != 500*time.Millisecond {
		t.Fatalf("unexpected harvester config: %+v", hc)
	}
	if len(hc.BlockPatterns) != 1 || hc.BlockPatterns[0] != "access denied" {
		t.Fatalf("expected custom block patterns: %v", hc.BlockPatterns)
	}

	sc := cfg.Browser.SessionConfig()
	if sc.Headless || sc.UserDataDir != "/home/me/.config/chrome" || sc.ProfileDirectory != "Profile 1" || sc.WaitStrategy != "ready" {
		t.Fatalf("unexpected session config: %+v", sc)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PUBHARVEST_OPENALEX_QUERY", "Ada Lovelace")
	t.Setenv("PUBHARVEST_SCHOLAR_MAX_CLICKS", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenAlex.Query != "Ada Lovelace" {
		t.Fatalf("expected query from env, got %q", cfg.OpenAlex.Query)
	}
	if cfg.Scholar.MaxClicks != 3 {
		t.Fatalf("expected max clicks from env, got %d", cfg.Scholar.MaxClicks)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadRejectsZeroWaitTimeout(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("scholar:\n  table_timeout: 0s\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "scholar.table_timeout") {
		t.Fatalf("Load() error = %v, want scholar.table_timeout", err)
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{
			name: "invalid max items",
			cfg: func() Config {
				c := base
				c.OpenAlex.MaxItems = 0
				return c
			}(),
			want: "openalex.max_items",
		},
		{
			name: "page size too large",
			cfg: func() Config {
				c := base
				c.OpenAlex.PageSize = 500
				return c
			}(),
			want: "openalex.page_size",
		},
		{
			name: "negative delay",
			cfg: func() Config {
				c := base
				c.OpenAlex.PageDelay = -time.Second
				return c
			}(),
			want: "openalex.page_delay",
		},
		{
			name: "zero consent timeout",
			cfg: func() Config {
				c := base
				c.Scholar.ConsentTimeout = 0
				return c
			}(),
			want: "scholar.consent_timeout",
		},
		{
			name: "zero consent navigation timeout",
			cfg: func() Config {
				c := base
				c.Scholar.ConsentNavTimeout = 0
				return c
			}(),
			want: "scholar.consent_nav_timeout",
		},
		{
			name: "negative table timeout",
			cfg: func() Config {
				c := base
				c.Scholar.TableTimeout = -time.Second
				return c
			}(),
			want: "scholar.table_timeout",
		},
		{
			name: "missing scholar output",
			cfg: func() Config {
				c := base
				c.Scholar.OutputPath = " "
				return c
			}(),
			want: "scholar.output_path",
		},
		{
			name: "unknown wait strategy",
			cfg: func() Config {
				c := base
				c.Browser.WaitStrategy = "load"
				return c
			}(),
			want: "browser.wait_strategy",
		},
		{
			name: "diagnostics without target",
			cfg: func() Config {
				c := base
				c.Diagnostics.Dir = ""
				return c
			}(),
			want: "diagnostics.dir",
		},
		{
			name: "half configured notify",
			cfg: func() Config {
				c := base
				c.Notify.ProjectID = "proj"
				return c
			}(),
			want: "notify.project_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
