// Package cmd defines and implements the CLI commands for the pubharvest executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/pubharvest/internal/app"
	"github.com/JakeFAU/pubharvest/internal/config"
	"github.com/JakeFAU/pubharvest/internal/id/uuid"
	"github.com/JakeFAU/pubharvest/internal/logging"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// newApp is the application factory. It's a variable so tests can inject fakes.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger, runID string) (*app.App, error) {
	return app.New(ctx, cfg, logger, runID)
}

// options collects persistent flags.
type options struct {
	cfgFile string
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	opts := &options{}
	var logger *zap.Logger

	cmd := &cobra.Command{
		Use:   "pubharvest",
		Short: "Harvests an author's publication list into static JSON snapshots.",
		Long: `pubharvest collects an author's publications from the OpenAlex API and from a
Google Scholar profile, and writes each list to a JSON snapshot for a static site.
A failed or blocked harvest never replaces the previous snapshot.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err = logging.New(cfg.Logging.Development, cfg.Logging.Level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zap.ReplaceGlobals(logger)

			runID, err := uuid.NewRunID()
			if err != nil {
				return err
			}
			appInstance, err := newApp(cmd.Context(), cfg, logger, runID)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (YAML, JSON or TOML); env vars use the PUBHARVEST_ prefix")

	cmd.AddCommand(newOpenAlexCmd(), newScholarCmd(), newAllCmd())
	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

// withApp resolves the App for a subcommand and closes it however the command ends,
// so metrics are flushed and cloud clients released on failures too.
func withApp(run func(cmd *cobra.Command, a *app.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		appInstance, err := resolveApp(cmd.Context())
		if err != nil {
			return err
		}
		defer func() {
			if cerr := appInstance.Close(); cerr != nil {
				appInstance.Logger().Warn("shutdown incomplete", zap.Error(cerr))
			}
		}()
		return run(cmd, appInstance)
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context) int {
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "pubharvest:", err)
		return 1
	}
	return 0
}
