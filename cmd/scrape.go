package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"sjsage522/listingworker/config"
	"sjsage522/listingworker/internal/scraper"
	"sjsage522/listingworker/logger"
)

type scrapeFlags struct {
	output   string
	startURL string
	target   int
	maxPages int
}

var scrapeOpts scrapeFlags

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeOpts.output, "output", "o", "", "CSV file to write (default OUTPUT_DIR/<site>.csv)")
	scrapeCmd.Flags().StringVar(&scrapeOpts.startURL, "start-url", "", "Override the site's start URL")
	scrapeCmd.Flags().IntVarP(&scrapeOpts.target, "target", "t", 0, "Total records to keep in the CSV, 0 for no limit")
	scrapeCmd.Flags().IntVar(&scrapeOpts.maxPages, "max-pages", 0, "Maximum pages to visit, 0 for no limit")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <site>",
	Short: "Scrapes a site and merges the new records into its CSV file.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := runScrape(cmd.Context(), cfg, args[0], scrapeOpts, cmd.Flags().Changed)
		if err != nil {
			return err
		}
		renderSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

// applyOverrides copies the flags that were set onto site
func applyOverrides(site *scraper.SiteConfig, flags scrapeFlags, changed func(string) bool) {
	if changed("output") {
		site.Output = flags.output
	}
	if changed("start-url") {
		site.StartURL = flags.startURL
	}
	if changed("target") {
		site.Target = flags.target
	}
	if changed("max-pages") {
		site.MaxPages = flags.maxPages
	}
}

func runScrape(ctx context.Context, cfg *config.Config, name string, flags scrapeFlags, changed func(string) bool) (*scraper.Summary, error) {
	site, err := scraper.LookupSite(cfg, name)
	if err != nil {
		return nil, err
	}
	applyOverrides(site, flags, changed)

	services, err := initializeServices(ctx, cfg, site)
	if err != nil {
		return nil, err
	}
	defer services.Cleanup()

	runner, err := scraper.NewRunner(site, services.Dependencies(site))
	if err != nil {
		return nil, err
	}

	logger.ForRunner().Info().
		Str("site", site.Name).
		Str("run_id", runner.RunID()).
		Str("output", site.Output).
		Msg("Starting run")

	return runner.Run(ctx)
}
