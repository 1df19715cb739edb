package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/pubharvest/internal/app"
	"github.com/JakeFAU/pubharvest/internal/harvest"
)

type openAlexFlags struct {
	orcid    string
	query    string
	maxItems int
	output   string
}

type scholarFlags struct {
	userID   string
	headless bool
	output   string
}

func newOpenAlexCmd() *cobra.Command {
	f := &openAlexFlags{}
	cmd := &cobra.Command{
		Use:   "openalex",
		Short: "Harvest works from the OpenAlex API",
		Long: `Resolves the configured author (ORCID first, then free-text search) and walks
their works newest first. Identity or transport failures exit non-zero and leave
the existing snapshot untouched.`,
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			return runOpenAlex(cmd, a, f)
		}),
	}
	cmd.Flags().StringVar(&f.orcid, "orcid", "", "author ORCID (overrides openalex.orcid)")
	cmd.Flags().StringVar(&f.query, "query", "", "author search query (overrides openalex.query)")
	cmd.Flags().IntVar(&f.maxItems, "max", 0, "maximum number of works (overrides openalex.max_items)")
	cmd.Flags().StringVar(&f.output, "output", "", "snapshot path (overrides openalex.output_path)")
	return cmd
}

func newScholarCmd() *cobra.Command {
	f := &scholarFlags{}
	cmd := &cobra.Command{
		Use:   "scholar",
		Short: "Harvest a Google Scholar profile with a browser",
		Long: `Opens the profile in Chrome, expands the publication table and extracts every
row. Block pages, empty tables and browser failures keep the previous snapshot,
write diagnostics and still exit zero.`,
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			return runScholar(cmd, a, f)
		}),
	}
	cmd.Flags().StringVar(&f.userID, "user", "", "Scholar user id (overrides scholar.user_id)")
	cmd.Flags().BoolVar(&f.headless, "headless", true, "run Chrome headless; disable to solve consent or CAPTCHA by hand")
	cmd.Flags().StringVar(&f.output, "output", "", "snapshot path (overrides scholar.output_path)")
	return cmd
}

func newAllCmd() *cobra.Command {
	oa := &openAlexFlags{}
	sc := &scholarFlags{headless: true}
	return &cobra.Command{
		Use:   "all",
		Short: "Run the OpenAlex and Scholar harvests one after the other",
		Long: `Runs openalex then scholar. The command fails only when the OpenAlex harvest
fails; Scholar policy outcomes are reported but never fail the run.`,
		RunE: withApp(func(cmd *cobra.Command, a *app.App) error {
			oaErr := runOpenAlex(cmd, a, oa)
			scErr := runScholar(cmd, a, sc)
			return errors.Join(oaErr, scErr)
		}),
	}
}

func runOpenAlex(cmd *cobra.Command, a *app.App, f *openAlexFlags) error {
	cfg := a.Config().OpenAlex
	h, err := a.OpenAlex(app.OpenAlexOverrides{ORCID: f.orcid, Query: f.query, MaxItems: f.maxItems})
	if err != nil {
		return fmt.Errorf("init openalex: %w", err)
	}
	output := cfg.OutputPath
	if f.output != "" {
		output = f.output
	}
	return report(cmd, a, "openalex", h, output)
}

func runScholar(cmd *cobra.Command, a *app.App, f *scholarFlags) error {
	cfg := a.Config().Scholar
	overrides := app.ScholarOverrides{UserID: f.userID}
	if flag := cmd.Flags().Lookup("headless"); flag != nil && flag.Changed {
		overrides.Headless = &f.headless
	}
	h, err := a.Scholar(overrides)
	if err != nil {
		return fmt.Errorf("init scholar: %w", err)
	}
	output := cfg.OutputPath
	if f.output != "" {
		output = f.output
	}
	return report(cmd, a, "scholar", h, output)
}

func report(cmd *cobra.Command, a *app.App, source string, h app.Harvester, output string) error {
	outcome, err := a.Run(cmd.Context(), source, h, output)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: failed, kept previous %s: %v\n", source, output, err)
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), outcome.Summary())
	if reason := outcome.Decision.Reason; reason != nil && harvest.IsPolicyOutcome(reason) {
		a.Logger().Info("previous snapshot kept by policy", zap.String("source", source), zap.Error(reason))
	}
	return nil
}
