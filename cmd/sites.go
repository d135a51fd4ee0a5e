package cmd

import (
	"github.com/spf13/cobra"

	"sjsage522/listingworker/internal/scraper"
)

func init() {
	rootCmd.AddCommand(sitesCmd)
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Lists the sites that can be scraped.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sites, err := scraper.CreateSites(cfg)
		if err != nil {
			return err
		}
		renderSites(cmd.OutOrStdout(), sites)
		return nil
	},
}
